package hir

import (
	"fmt"
	"strings"
)

// Type is the tagged union every HIR value carries. It is intentionally a
// single struct with a Kind discriminant rather than an interface hierarchy:
// the unifier needs to compare, substitute into, and clone types far more
// often than it needs dynamic dispatch over them.
type TypeKind int

const (
	TNamed TypeKind = iota
	TVar
	TTuple
	TFunction
	TReference
	TPtr
	TCoroutine
	TSelf
	TNever
	TNumericConstant
	TVoid
)

// VarKind distinguishes a unification variable (Fresh) from a quantified
// type parameter that a generic function or instance was declared with
// (Named).
type VarKind int

const (
	VarFresh VarKind = iota
	VarNamed
)

type Type struct {
	Kind TypeKind

	// TNamed
	Name string
	Args []*Type

	// TVar
	VarKind VarKind
	VarID   uint64   // VarFresh
	VarName string   // VarNamed

	// TTuple
	Elems []*Type

	// TFunction
	Params []*Type
	Result *Type

	// TReference, TPtr
	Inner *Type

	// TCoroutine
	Yield  *Type
	Return *Type

	// TNumericConstant
	Const int64
}

func Named(name string, args ...*Type) *Type { return &Type{Kind: TNamed, Name: name, Args: args} }
func FreshVar(id uint64) *Type               { return &Type{Kind: TVar, VarKind: VarFresh, VarID: id} }
func NamedVar(name string) *Type             { return &Type{Kind: TVar, VarKind: VarNamed, VarName: name} }
func TupleType(elems ...*Type) *Type         { return &Type{Kind: TTuple, Elems: elems} }
func FuncType(params []*Type, result *Type) *Type {
	return &Type{Kind: TFunction, Params: params, Result: result}
}
func RefType(inner *Type) *Type       { return &Type{Kind: TReference, Inner: inner} }
func PtrType(inner *Type) *Type       { return &Type{Kind: TPtr, Inner: inner} }
func CoroutineType(y, r *Type) *Type  { return &Type{Kind: TCoroutine, Yield: y, Return: r} }
func NumericConstant(n int64) *Type   { return &Type{Kind: TNumericConstant, Const: n} }

var (
	SelfType = &Type{Kind: TSelf}
	NeverType = &Type{Kind: TNever}
	VoidType = &Type{Kind: TVoid}
)

// Builtin primitive names recognised by the resolver's prelude.
const (
	TyInt    = "Int"
	TyBool   = "Bool"
	TyString = "String"
	TyU8     = "U8"
	TyUnit   = "Unit"
)

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case TNamed:
		if len(t.Args) == 0 {
			return t.Name
		}
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = a.String()
		}
		return fmt.Sprintf("%s<%s>", t.Name, strings.Join(parts, ", "))
	case TVar:
		if t.VarKind == VarNamed {
			return t.VarName
		}
		return fmt.Sprintf("?%d", t.VarID)
	case TTuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case TFunction:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		return fmt.Sprintf("fn(%s) -> %s", strings.Join(parts, ", "), t.Result.String())
	case TReference:
		return "&" + t.Inner.String()
	case TPtr:
		return "*" + t.Inner.String()
	case TCoroutine:
		return fmt.Sprintf("Coroutine<%s, %s>", t.Yield.String(), t.Return.String())
	case TSelf:
		return "Self"
	case TNever:
		return "Never"
	case TNumericConstant:
		return fmt.Sprintf("#%d", t.Const)
	case TVoid:
		return "Void"
	default:
		return "<bad-type>"
	}
}

// IsGround reports whether t contains no unification variables, the
// post-condition every variable's type must satisfy once the type checker
// has committed its substitution.
func (t *Type) IsGround() bool {
	if t == nil {
		return true
	}
	switch t.Kind {
	case TVar:
		return t.VarKind == VarNamed
	case TNamed:
		for _, a := range t.Args {
			if !a.IsGround() {
				return false
			}
		}
		return true
	case TTuple:
		for _, e := range t.Elems {
			if !e.IsGround() {
				return false
			}
		}
		return true
	case TFunction:
		for _, p := range t.Params {
			if !p.IsGround() {
				return false
			}
		}
		return t.Result.IsGround()
	case TReference, TPtr:
		return t.Inner.IsGround()
	case TCoroutine:
		return t.Yield.IsGround() && t.Return.IsGround()
	default:
		return true
	}
}

// Clone produces a deep, structurally independent copy. Used when
// instantiating a generic signature against fresh type variables.
func (t *Type) Clone() *Type {
	if t == nil {
		return nil
	}
	c := *t
	c.Args = cloneSlice(t.Args)
	c.Elems = cloneSlice(t.Elems)
	c.Params = cloneSlice(t.Params)
	c.Result = t.Result.Clone()
	c.Inner = t.Inner.Clone()
	c.Yield = t.Yield.Clone()
	c.Return = t.Return.Clone()
	return &c
}

func cloneSlice(ts []*Type) []*Type {
	if ts == nil {
		return nil
	}
	out := make([]*Type, len(ts))
	for i, t := range ts {
		out[i] = t.Clone()
	}
	return out
}
