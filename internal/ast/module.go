package ast

// Module is the entire source file: a sequence of top-level items.
// Example: "module list { struct Cons<T> { head: T, tail: List<T> } fn len<T>(l: List<T>) -> Int { ... } }"
type Module struct {
	Pos    Position
	EndPos Position
	Name   Ident
	Items  []ModuleItem
}

func (m *Module) NodePos() Position    { return m.Pos }
func (m *Module) NodeEndPos() Position { return m.EndPos }
func (*Module) NodeType() NodeType     { return MODULE }
func (m *Module) String() string       { return "module " + m.Name.Value }

// ModuleItem is anything that can appear at module scope.
type ModuleItem interface {
	Node
	moduleItem()
}

func (*Use) moduleItem()          {}
func (*Struct) moduleItem()       {}
func (*Enum) moduleItem()         {}
func (*Trait) moduleItem()        {}
func (*Instance) moduleItem()     {}
func (*Function) moduleItem()     {}
func (*ImplicitDecl) moduleItem() {}

// Use imports a path, optionally an explicit item list.
// Example: "use list::{Cons, Nil}"
type Use struct {
	Pos    Position
	EndPos Position
	Path   []Ident
	Items  []Ident // empty means import the path itself
}

func (u *Use) NodePos() Position    { return u.Pos }
func (u *Use) NodeEndPos() Position { return u.EndPos }
func (*Use) NodeType() NodeType     { return USE }
func (u *Use) String() string       { return "use" }

// Struct declares a product type.
// Example: "struct Pair<A, B> { first: A, second: B }"
type Struct struct {
	Pos       Position
	EndPos    Position
	Name      Ident
	TypeParam []Ident
	Fields    []*StructField
}

func (s *Struct) NodePos() Position    { return s.Pos }
func (s *Struct) NodeEndPos() Position { return s.EndPos }
func (*Struct) NodeType() NodeType     { return STRUCT }
func (s *Struct) String() string       { return "struct " + s.Name.Value }

type StructField struct {
	Pos    Position
	EndPos Position
	Name   Ident
	Type   TypeExpr
}

func (f *StructField) NodePos() Position    { return f.Pos }
func (f *StructField) NodeEndPos() Position { return f.EndPos }
func (*StructField) NodeType() NodeType     { return STRUCT_FIELD }
func (f *StructField) String() string       { return f.Name.Value }

// Enum declares a sum type.
// Example: "enum Option<T> { Some(T), None }"
type Enum struct {
	Pos       Position
	EndPos    Position
	Name      Ident
	TypeParam []Ident
	Variants  []*EnumVariant
}

func (e *Enum) NodePos() Position    { return e.Pos }
func (e *Enum) NodeEndPos() Position { return e.EndPos }
func (*Enum) NodeType() NodeType     { return ENUM }
func (e *Enum) String() string       { return "enum " + e.Name.Value }

type EnumVariant struct {
	Pos    Position
	EndPos Position
	Name   Ident
	Index  int
	Fields []TypeExpr // positional payload types; empty for a unit variant
}

func (v *EnumVariant) NodePos() Position    { return v.Pos }
func (v *EnumVariant) NodeEndPos() Position { return v.EndPos }
func (*EnumVariant) NodeType() NodeType     { return ENUM_VARIANT }
func (v *EnumVariant) String() string       { return v.Name.Value }

// Trait declares a typeclass, optionally with associated types.
// Example: "trait Show { fn show(self) -> String }"
type Trait struct {
	Pos        Position
	EndPos     Position
	Name       Ident
	TypeParam  []Ident
	AssocTypes []Ident
	Methods    []*TraitMethod
}

func (t *Trait) NodePos() Position    { return t.Pos }
func (t *Trait) NodeEndPos() Position { return t.EndPos }
func (*Trait) NodeType() NodeType     { return TRAIT }
func (t *Trait) String() string       { return "trait " + t.Name.Value }

// TraitMethod is a method signature declared by a trait; Body is nil for a
// required method and non-nil for a method with a default implementation.
type TraitMethod struct {
	Pos    Position
	EndPos Position
	Name   Ident
	Params []*FunctionParam
	Result TypeExpr
	Body   *Block
}

func (m *TraitMethod) NodePos() Position    { return m.Pos }
func (m *TraitMethod) NodeEndPos() Position { return m.EndPos }
func (*TraitMethod) NodeType() NodeType     { return TRAIT_METHOD }
func (m *TraitMethod) String() string       { return m.Name.Value }

// Instance implements a trait for a concrete type.
// Example: "instance Show for Pair<Int, Int> { fn show(self) -> String { ... } }"
type Instance struct {
	Pos        Position
	EndPos     Position
	TraitName  Ident
	TypeArgs   []TypeExpr
	ForType    TypeExpr
	AssocTypes map[string]TypeExpr
	Methods    []*Function
}

func (i *Instance) NodePos() Position    { return i.Pos }
func (i *Instance) NodeEndPos() Position { return i.EndPos }
func (*Instance) NodeType() NodeType     { return INSTANCE }
func (i *Instance) String() string       { return "instance " + i.TraitName.Value }

// ImplicitDecl declares an ambient value resolved by type at call sites
// rather than passed explicitly (the language's effect/implicit mechanism).
// Example: "implicit logger: Logger;"
type ImplicitDecl struct {
	Pos    Position
	EndPos Position
	Name   Ident
	Type   TypeExpr
}

func (d *ImplicitDecl) NodePos() Position    { return d.Pos }
func (d *ImplicitDecl) NodeEndPos() Position { return d.EndPos }
func (*ImplicitDecl) NodeType() NodeType     { return IMPLICIT_DECL }
func (d *ImplicitDecl) String() string       { return "implicit " + d.Name.Value }
