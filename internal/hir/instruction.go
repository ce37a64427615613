package hir

// Instruction is the discriminated-record contract every HIR op implements.
// Mirrors the teacher IR's Instruction interface (GetID/GetResult/...), kept
// small enough that passes can stay generic over instruction kind and only
// type-switch where they actually need kind-specific data.
type Instruction interface {
	ID() int
	Pos() Position
	Implicit() bool
	SetImplicit(bool)
	// Result is the def-site variable, nil for control-flow instructions
	// that bind nothing.
	Result() *Variable
	// CollectVariables returns every variable mentioned by this
	// instruction, both definitions and uses.
	CollectVariables() []*Variable
	// ReplaceVar substitutes `to` for `from` at every def and use site in
	// this instruction, in place.
	ReplaceVar(from, to *Variable)
	IsTerminator() bool
	String() string
}

// base carries the fields every instruction has: an id for identity
// (printing, diagnostics cross-referencing), a source location, and the
// implicit flag a pass sets on synthesized instructions to suppress
// diagnostics that would otherwise fire on code the user never wrote.
type base struct {
	id       int
	pos      Position
	implicit bool
}

func (b *base) ID() int           { return b.id }
func (b *base) Pos() Position     { return b.pos }
func (b *base) Implicit() bool    { return b.implicit }
func (b *base) SetImplicit(v bool) { b.implicit = v }
func (b *base) IsTerminator() bool { return false }

// FieldInfo names one step of a field-access chain; used by FieldRef,
// FieldAssign and AddressOfField to describe a possibly-multi-level access
// in one instruction rather than a cascade of single-field reads.
type FieldInfo struct {
	Sel Selector
	Typ *Type
}

// CallInfo carries everything a FunctionCall needs beyond its operands:
// the callee's qualified name, an optional effect/implicit call context,
// the trait instances it was resolved against, and whether this call spawns
// a coroutine (produces a StateMachine value rather than a plain result).
type CallInfo struct {
	Name           string
	Args           []*Variable
	CallCtx        []*Variable
	InstanceRefs   []string
	CoroutineSpawn bool
}

// EnumCase is one arm of an EnumSwitch: a variant index to block id,
// carrying the variable(s) bound to the variant's payload if any.
type EnumCase struct {
	VariantIndex int
	Target       BlockID
	Bindings     []*Variable
}

// Case is one arm of an IntegerSwitch/StringSwitch.
type Case struct {
	Value  interface{}
	Target BlockID
}

// ClosureInfo describes a closure value before closure separation: the
// lambda's synthesized top-level function name and the captured variables
// that become its environment struct's fields.
type ClosureInfo struct {
	LambdaName string
	Captures   []*Variable
}

// WithInfo carries an implicit-binding scope's handler variable and body;
// effects/implicits are modelled as a single instruction that introduces a
// handler into scope for the instructions that follow, mirroring how the
// checker treats `implicit` declarations as ambient values threaded through
// calls rather than explicit parameters.
type WithInfo struct {
	ImplicitName string
	Handler      *Variable
}

func collect(vars ...*Variable) []*Variable {
	out := make([]*Variable, 0, len(vars))
	for _, v := range vars {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

func replaceIn(v **Variable, from, to *Variable) {
	if *v != nil && (*v).Equal(from) {
		*v = to
	}
}

func replaceInSlice(vs []*Variable, from, to *Variable) {
	for i := range vs {
		if vs[i] != nil && vs[i].Equal(from) {
			vs[i] = to
		}
	}
}
