package hir

import "github.com/google/uuid"

// StructDef is a resolved struct declaration: a name, its quantified type
// parameters, and an ordered field list. Field order is significant — it is
// the order Tuple-style positional access and drop-list emission use.
type StructDef struct {
	Name       string
	TypeParams []string
	Fields     []FieldDef
}

type FieldDef struct {
	Name string
	Type *Type
}

// EnumDef is a resolved enum declaration: a name, quantified type
// parameters, and an ordered variant list. VariantIndex in patterns and
// Transform/EnumSwitch instructions indexes into Variants.
type EnumDef struct {
	Name       string
	TypeParams []string
	Variants   []VariantDef
}

type VariantDef struct {
	Name   string
	Fields []*Type // positional payload types; empty for a unit variant
}

// TraitDef is a resolved trait declaration: quantified type parameters,
// associated type names, and method signatures (with an optional default
// body function name for methods that were given one in the source).
type TraitDef struct {
	Name       string
	TypeParams []string
	AssocTypes []string
	Methods    []TraitMethodDef
}

type TraitMethodDef struct {
	Name        string
	Params      []*Type
	Result      *Type
	HasReceiver bool
	// DefaultBody names the Function implementing the trait's default
	// body, empty when the method has no default and every instance must
	// supply its own.
	DefaultBody string
}

// Instance is a concrete implementation of a trait for specific type
// arguments: the candidate types it was instantiated against, its
// associated-type bindings, and the qualified function name backing each
// trait method.
type Instance struct {
	TraitName   string
	TypeArgs    []*Type
	AssocTypes  map[string]*Type
	Methods     map[string]string // trait method name -> qualified Function name
	TypeParams  []string          // quantified vars the instance itself was declared with
}

// ImplicitDecl declares an ambient value threaded through calls by type
// rather than by explicit parameter passing.
type ImplicitDecl struct {
	Name string
	Type *Type
}

// Program is the unit every middle-end pass consumes and produces: the
// complete set of functions, type declarations, trait instances and
// implicit declarations making up a compilation. Names are qualified
// (module path + item path) and assumed already resolved by the front end.
type Program struct {
	// BuildID is a process-unique id stamped on every Program value,
	// correlating -dump-hir output across pipeline runs the way a
	// request id correlates log lines in a long-running service.
	BuildID string

	Functions map[string]*Function
	Structs   map[string]*StructDef
	Enums     map[string]*EnumDef
	Traits    map[string]*TraitDef
	Instances []*Instance
	Implicits map[string]*ImplicitDecl

	// FunctionOrder preserves function declaration order (Instances, being
	// a slice, already keeps its own) for deterministic diagnostics and
	// -dump-hir output; Go map iteration order is intentionally randomized,
	// so anything user-visible walks these instead of ranging over the maps
	// above.
	FunctionOrder []string
}

func NewProgram() *Program {
	return &Program{
		BuildID:   uuid.NewString(),
		Functions: make(map[string]*Function),
		Structs:   make(map[string]*StructDef),
		Enums:     make(map[string]*EnumDef),
		Traits:    make(map[string]*TraitDef),
		Implicits: make(map[string]*ImplicitDecl),
	}
}

// AddFunction registers fn under its qualified name, recording declaration
// order the first time a name is seen.
func (p *Program) AddFunction(fn *Function) {
	if _, exists := p.Functions[fn.Name]; !exists {
		p.FunctionOrder = append(p.FunctionOrder, fn.Name)
	}
	p.Functions[fn.Name] = fn
}

// Func looks up a function by qualified name, panicking on the same
// "structural violation" basis as Body.Block: a pass asking for a function
// that the program never registered is an implementer bug, not user error.
func (p *Program) Func(name string) *Function {
	fn, ok := p.Functions[name]
	if !ok {
		panic("hir: unknown function " + name)
	}
	return fn
}

// InstancesForTrait returns every instance declared for the named trait, in
// declaration order.
func (p *Program) InstancesForTrait(traitName string) []*Instance {
	var out []*Instance
	for _, inst := range p.Instances {
		if inst.TraitName == traitName {
			out = append(out, inst)
		}
	}
	return out
}
