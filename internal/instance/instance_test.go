package instance

import (
	"testing"

	"kanso/internal/hir"
	"kanso/internal/unify"
)

func TestPreludeCopyForPrimitives(t *testing.T) {
	prog := hir.NewProgram()
	r := New(prog)
	u := unify.New()

	if !r.IsCopy(u, hir.Named("Int")) {
		t.Fatalf("expected Int to be Copy")
	}
	if r.IsCopy(u, hir.Named("String")) {
		t.Fatalf("expected String not to be Copy")
	}
	if _, ok := r.CloneFunctionName(u, hir.Named("String")); !ok {
		t.Fatalf("expected String to have a Clone instance")
	}
}

// TestDeriveCopyForAllCopyFields builds a struct Point{x: Int, y: Int} and
// an enum Shade{Gray(Int), Named(String)}: Point's fields are all Copy so it
// must be derived Copy, while Shade carries a String field so it must not.
func TestDeriveCopyForAllCopyFields(t *testing.T) {
	prog := hir.NewProgram()
	prog.Structs["Point"] = &hir.StructDef{Name: "Point", Fields: []hir.FieldDef{
		{Name: "x", Type: hir.Named("Int")},
		{Name: "y", Type: hir.Named("Int")},
	}}
	prog.Enums["Shade"] = &hir.EnumDef{Name: "Shade", Variants: []hir.VariantDef{
		{Name: "Gray", Fields: []*hir.Type{hir.Named("Int")}},
		{Name: "Named", Fields: []*hir.Type{hir.Named("String")}},
	}}

	r := New(prog)
	u := unify.New()

	if !r.IsCopy(u, hir.Named("Point")) {
		t.Fatalf("expected Point to be auto-derived Copy")
	}
	if r.IsCopy(u, hir.Named("Shade")) {
		t.Fatalf("expected Shade not to be Copy: it has a String field")
	}
}

// TestDeriveCopyTransitive builds a struct Line{a: Point, b: Point} whose own
// fields are a struct that only becomes Copy through auto-derivation itself,
// checking the fixed-point iteration propagates Copy-ness through a nested
// struct rather than only looking at directly-primitive fields.
func TestDeriveCopyTransitive(t *testing.T) {
	prog := hir.NewProgram()
	prog.Structs["Point"] = &hir.StructDef{Name: "Point", Fields: []hir.FieldDef{
		{Name: "x", Type: hir.Named("Int")},
		{Name: "y", Type: hir.Named("Int")},
	}}
	prog.Structs["Line"] = &hir.StructDef{Name: "Line", Fields: []hir.FieldDef{
		{Name: "a", Type: hir.Named("Point")},
		{Name: "b", Type: hir.Named("Point")},
	}}

	r := New(prog)
	u := unify.New()

	if !r.IsCopy(u, hir.Named("Line")) {
		t.Fatalf("expected Line to be Copy transitively through Point")
	}
}

// TestDeriveCopySkipsGenericFields builds a generic struct Box<T>{value: T}:
// the field's type is an unresolved type parameter, so Box must not be
// derived Copy regardless of what T is eventually instantiated with.
func TestDeriveCopySkipsGenericFields(t *testing.T) {
	prog := hir.NewProgram()
	prog.Structs["Box"] = &hir.StructDef{Name: "Box", TypeParams: []string{"T"}, Fields: []hir.FieldDef{
		{Name: "value", Type: hir.NamedVar("T")},
	}}

	r := New(prog)
	u := unify.New()

	if r.IsCopy(u, hir.Named("Box")) {
		t.Fatalf("expected Box<T> not to be auto-derived Copy")
	}
}
