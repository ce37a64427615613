package ast

// Function is a top-level function, an instance method, or a trait method
// definition. Coroutine functions are an ordinary Function whose YieldType
// is set, which the parser does when the signature carries a "yields T"
// clause.
// Example: "fn push(mut self, x: Int) { self.items = self.items.append(x) }"
type Function struct {
	Pos        Position
	EndPos     Position
	Name       Ident
	TypeParam  []Ident
	Constraint []*TraitBound
	Receiver   *FunctionParam // non-nil for methods; Receiver.Mutable marks "mut self"
	Params     []*FunctionParam
	Result     TypeExpr // nil means unit
	YieldType  TypeExpr // non-nil marks this function as a coroutine
	Body       *Block
}

func (f *Function) NodePos() Position    { return f.Pos }
func (f *Function) NodeEndPos() Position { return f.EndPos }
func (*Function) NodeType() NodeType     { return FUNCTION }
func (f *Function) String() string       { return "fn " + f.Name.Value }

// TraitBound is one "T: Trait" entry in a function's constraint context.
type TraitBound struct {
	TypeParam Ident
	TraitName Ident
	TypeArgs  []TypeExpr
}

type FunctionParam struct {
	Pos     Position
	EndPos  Position
	Name    Ident
	Type    TypeExpr
	Mutable bool
}

func (p *FunctionParam) NodePos() Position    { return p.Pos }
func (p *FunctionParam) NodeEndPos() Position { return p.EndPos }
func (*FunctionParam) NodeType() NodeType     { return FUNCTION_PARAM }
func (p *FunctionParam) String() string       { return p.Name.Value }

// Block is an ordered sequence of statements sharing one lexical scope.
type Block struct {
	Pos    Position
	EndPos Position
	Stmts  []Stmt
}

func (b *Block) NodePos() Position    { return b.Pos }
func (b *Block) NodeEndPos() Position { return b.EndPos }
func (*Block) NodeType() NodeType     { return BLOCK }
func (b *Block) String() string       { return "block" }
