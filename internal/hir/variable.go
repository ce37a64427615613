package hir

import "strconv"

// Position mirrors the surface AST's location so diagnostics raised deep in
// the middle end can still point back at source text.
type Position struct {
	Filename string
	Line     int
	Column   int
}

// typeCell is the shared mutable slot behind a Variable's type. A Variable
// and every handle produced from it by Use share one cell: setting the type
// through one of them is observable through all the others. NewVariable
// always allocates a new cell, so separately created Variables with the same
// Name do not share one. This is
// the mechanism that lets unification propagate across uses without a
// separate substitution pass over every instruction.
type typeCell struct {
	t *Type
}

// Variable is a reference-counted handle: a stable name, a declaration
// site, and a shared type cell. Equality is by name, not by cell identity,
// so a copy produced by useVar still observes updates made through the
// original.
type Variable struct {
	Name string
	Pos  Position
	cell *typeCell

	// IsUse marks a handle produced by useVar rather than the original
	// definition; both read the same cell, but the distinction lets
	// passes tell def-sites from use-sites when walking collectVariables.
	IsUse bool
}

// NewVariable creates a fresh, untyped variable handle with a brand new
// cell. Parameters and resolver-synthesized temporaries call this; every
// other handle to the "same" variable is produced via useVar (Use).
func NewVariable(name string, pos Position) *Variable {
	return &Variable{Name: name, Pos: pos, cell: &typeCell{}}
}

// useVar yields a fresh copy marked as a use site, sharing the definition's
// type cell. This is how the HIR distinguishes a definition from its uses
// while keeping their types synchronized.
func (v *Variable) useVar() *Variable {
	return &Variable{Name: v.Name, Pos: v.Pos, cell: v.cell, IsUse: true}
}

// Use is the exported spelling of useVar; instruction builders call this
// whenever they reference a variable defined elsewhere in the function.
func (v *Variable) Use() *Variable { return v.useVar() }

// Type reads the current contents of the shared cell. Empty (nil) means
// "not yet assigned a type" — the state every local starts in before the
// type checker's initialise step seeds a fresh unification variable.
func (v *Variable) Type() *Type {
	if v.cell == nil {
		return nil
	}
	return v.cell.t
}

// SetType writes through the shared cell, observable from every other
// handle that shares it.
func (v *Variable) SetType(t *Type) {
	if v.cell == nil {
		v.cell = &typeCell{}
	}
	v.cell.t = t
}

// Equal implements the "equality is by name" rule from the data model.
func (v *Variable) Equal(o *Variable) bool {
	if v == nil || o == nil {
		return v == o
	}
	return v.Name == o.Name
}

func (v *Variable) String() string {
	if v == nil {
		return "<nil-var>"
	}
	return v.Name
}

// Synthetic name constructors, grounded on the data model's list of
// synthetic variable kinds.
func DropVarName(n int) string           { return synthName("drop", n) }
func ImplicitCloneName(n int) string     { return synthName("implicit_clone", n) }
func LambdaArgName(block, index int) string {
	return synthName2("lambda_arg", block, index)
}
func ClosureArgName(block, index int) string {
	return synthName2("closure_arg", block, index)
}

func synthName(kind string, n int) string {
	return kind + "#" + strconv.Itoa(n)
}

func synthName2(kind string, a, b int) string {
	return kind + "(" + strconv.Itoa(a) + "," + strconv.Itoa(b) + ")"
}
