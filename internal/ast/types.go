package ast

// TypeExpr is a surface type annotation.
type TypeExpr interface {
	Node
	typeExpr()
}

func (*NamedType) typeExpr() {}
func (*RefType) typeExpr()   {}
func (*PtrType) typeExpr()   {}
func (*TupleType) typeExpr() {}
func (*FuncType) typeExpr()  {}

// NamedType is a (possibly generic) named type: "Int", "List<T>", "Self".
type NamedType struct {
	Pos    Position
	EndPos Position
	Name   Ident
	Args   []TypeExpr
}

func (t *NamedType) NodePos() Position    { return t.Pos }
func (t *NamedType) NodeEndPos() Position { return t.EndPos }
func (*NamedType) NodeType() NodeType     { return TYPE }
func (t *NamedType) String() string       { return t.Name.Value }

// RefType is a borrowed reference: "&T".
type RefType struct {
	Pos    Position
	EndPos Position
	Inner  TypeExpr
}

func (t *RefType) NodePos() Position    { return t.Pos }
func (t *RefType) NodeEndPos() Position { return t.EndPos }
func (*RefType) NodeType() NodeType     { return REF_TYPE }
func (t *RefType) String() string       { return "&" + t.Inner.String() }

// PtrType is a raw pointer: "*T".
type PtrType struct {
	Pos    Position
	EndPos Position
	Inner  TypeExpr
}

func (t *PtrType) NodePos() Position    { return t.Pos }
func (t *PtrType) NodeEndPos() Position { return t.EndPos }
func (*PtrType) NodeType() NodeType     { return REF_TYPE }
func (t *PtrType) String() string       { return "*" + t.Inner.String() }

// TupleType is "(A, B, C)".
type TupleType struct {
	Pos      Position
	EndPos   Position
	Elements []TypeExpr
}

func (t *TupleType) NodePos() Position    { return t.Pos }
func (t *TupleType) NodeEndPos() Position { return t.EndPos }
func (*TupleType) NodeType() NodeType     { return TYPE }
func (t *TupleType) String() string       { return "(tuple)" }

// FuncType is "fn(A, B) -> R".
type FuncType struct {
	Pos    Position
	EndPos Position
	Params []TypeExpr
	Result TypeExpr
}

func (t *FuncType) NodePos() Position    { return t.Pos }
func (t *FuncType) NodeEndPos() Position { return t.EndPos }
func (*FuncType) NodeType() NodeType     { return TYPE }
func (t *FuncType) String() string       { return "fn(...)" }
