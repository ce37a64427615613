package ast

import "testing"

func TestPrintEmptyModule(t *testing.T) {
	m := &Module{Name: Ident{Value: "list"}}
	out := Print(m)
	if out != "module list {\n}\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestPrintModuleWithStruct(t *testing.T) {
	m := &Module{
		Name: Ident{Value: "geo"},
		Items: []ModuleItem{
			&Struct{Name: Ident{Value: "Point"}},
		},
	}
	out := Print(m)
	if out != "module geo {\n  struct Point\n}\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestVariantPatternString(t *testing.T) {
	p := &VariantPattern{Variant: Ident{Value: "Some"}}
	if p.String() != "Some" {
		t.Fatalf("expected Some, got %q", p.String())
	}
	if p.NodeType() != PAT_VARIANT {
		t.Fatalf("expected PAT_VARIANT node type")
	}
}
