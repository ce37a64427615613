package ast

// Pattern is the surface syntax matched against a scrutinee; the match
// compiler (internal/match) turns these into decision paths.
type Pattern interface {
	Node
	pattern()
}

func (*WildcardPattern) pattern() {}
func (*BindPattern) pattern()     {}
func (*LiteralPattern) pattern()  {}
func (*VariantPattern) pattern()  {}
func (*TuplePattern) pattern()    {}
func (*StructPattern) pattern()   {}
func (*OrPattern) pattern()       {}

// WildcardPattern is "_".
type WildcardPattern struct {
	Pos, EndPos Position
}

func (p *WildcardPattern) NodePos() Position    { return p.Pos }
func (p *WildcardPattern) NodeEndPos() Position { return p.EndPos }
func (*WildcardPattern) NodeType() NodeType     { return PAT_WILDCARD }
func (p *WildcardPattern) String() string       { return "_" }

// BindPattern binds the scrutinee to a name: "n", "mut n".
type BindPattern struct {
	Pos, EndPos Position
	Name        Ident
	Mutable     bool
}

func (p *BindPattern) NodePos() Position    { return p.Pos }
func (p *BindPattern) NodeEndPos() Position { return p.EndPos }
func (*BindPattern) NodeType() NodeType     { return PAT_BIND }
func (p *BindPattern) String() string       { return p.Name.Value }

// LiteralPattern matches an integer, string, or bool literal.
type LiteralPattern struct {
	Pos, EndPos Position
	Kind        LiteralKind
	Raw         string
}

func (p *LiteralPattern) NodePos() Position    { return p.Pos }
func (p *LiteralPattern) NodeEndPos() Position { return p.EndPos }
func (*LiteralPattern) NodeType() NodeType     { return PAT_LITERAL }
func (p *LiteralPattern) String() string       { return p.Raw }

// VariantPattern matches an enum constructor, with optional positional
// sub-patterns for the variant's payload: "Some(n)", "None".
type VariantPattern struct {
	Pos, EndPos Position
	EnumName    Ident // filled in by the resolver once the variant is known
	Variant     Ident
	SubPatterns []Pattern
}

func (p *VariantPattern) NodePos() Position    { return p.Pos }
func (p *VariantPattern) NodeEndPos() Position { return p.EndPos }
func (*VariantPattern) NodeType() NodeType     { return PAT_VARIANT }
func (p *VariantPattern) String() string       { return p.Variant.Value }

// TuplePattern matches a fixed-arity tuple: "(a, b, c)".
type TuplePattern struct {
	Pos, EndPos Position
	Elements    []Pattern
}

func (p *TuplePattern) NodePos() Position    { return p.Pos }
func (p *TuplePattern) NodeEndPos() Position { return p.EndPos }
func (*TuplePattern) NodeType() NodeType     { return PAT_TUPLE }
func (p *TuplePattern) String() string       { return "(tuple pattern)" }

// StructPattern destructures named fields: "Point { x, y }".
type StructPatternField struct {
	Name    Ident
	Pattern Pattern
}

type StructPattern struct {
	Pos, EndPos Position
	TypeName    Ident
	Fields      []StructPatternField
}

func (p *StructPattern) NodePos() Position    { return p.Pos }
func (p *StructPattern) NodeEndPos() Position { return p.EndPos }
func (*StructPattern) NodeType() NodeType     { return PAT_STRUCT }
func (p *StructPattern) String() string       { return p.TypeName.Value + "{...}" }

// OrPattern is "p1 | p2 | ...", desugared by the match compiler into one
// duplicated branch per alternative.
type OrPattern struct {
	Pos, EndPos Position
	Alternates  []Pattern
}

func (p *OrPattern) NodePos() Position    { return p.Pos }
func (p *OrPattern) NodeEndPos() Position { return p.EndPos }
func (*OrPattern) NodeType() NodeType     { return PAT_OR }
func (p *OrPattern) String() string       { return "(or pattern)" }
