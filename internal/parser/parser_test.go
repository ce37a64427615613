package parser

import (
	"testing"

	"kanso/internal/ast"
)

func TestParseStructAndFunction(t *testing.T) {
	src := `
module list {
	struct Pair<A, B> {
		first: A,
		second: B,
	}

	fn make(a: Int, b: Int) -> Pair<Int, Int> {
		return Pair{ first: a, second: b };
	}
}
`
	mod, errs, scanErrs := ParseSource("test.ka", src)
	if len(scanErrs) != 0 {
		t.Fatalf("unexpected scan errors: %v", scanErrs)
	}
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	if len(mod.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(mod.Items))
	}
}

func TestParseEnumAndMatch(t *testing.T) {
	src := `
module opt {
	enum Option<T> {
		Some(T),
		None,
	}

	fn unwrapOr(o: Option<Int>, default: Int) -> Int {
		return match o {
			Some(n) -> n,
			None -> default,
		};
	}
}
`
	_, errs, scanErrs := ParseSource("test.ka", src)
	if len(scanErrs) != 0 {
		t.Fatalf("unexpected scan errors: %v", scanErrs)
	}
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
}

func TestParseCharLiteral(t *testing.T) {
	src := `
module chars {
	fn zero() -> U8 {
		return '0';
	}
}
`
	mod, errs, scanErrs := ParseSource("test.ka", src)
	if len(scanErrs) != 0 {
		t.Fatalf("unexpected scan errors: %v", scanErrs)
	}
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	fn := mod.Items[0].(*ast.Function)
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	lit, ok := ret.Value.(*ast.LiteralExpr)
	if !ok || lit.Kind != ast.LitChar {
		t.Fatalf("expected a LitChar literal, got %#v", ret.Value)
	}
	if lit.Raw != "0" {
		t.Fatalf("expected the decoded byte '0', got %q", lit.Raw)
	}
}

func TestParseCharLiteralEscape(t *testing.T) {
	src := `
module chars {
	fn quote() -> U8 {
		return '\'';
	}
	fn newline() -> U8 {
		return '\n';
	}
}
`
	_, errs, scanErrs := ParseSource("test.ka", src)
	if len(scanErrs) != 0 {
		t.Fatalf("unexpected scan errors: %v", scanErrs)
	}
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
}

func TestScanUnterminatedCharLiteral(t *testing.T) {
	_, _, scanErrs := ParseSource("test.ka", `module m { fn f() -> U8 { return 'a; } }`)
	if len(scanErrs) == 0 {
		t.Fatalf("expected an unterminated character literal scan error")
	}
}

func TestParseYieldingFunction(t *testing.T) {
	src := `
module gen {
	fn counter(start: Int) yields Int -> Int {
		yield start;
		yield start + 1;
		return start + 2;
	}
}
`
	_, errs, scanErrs := ParseSource("test.ka", src)
	if len(scanErrs) != 0 {
		t.Fatalf("unexpected scan errors: %v", scanErrs)
	}
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
}
