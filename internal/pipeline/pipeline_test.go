package pipeline

import "testing"

func TestRunStructAndFunctionCompilesClean(t *testing.T) {
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
	res := Run("test.ka", src, nil)
	if !res.OK() {
		t.Fatalf("expected a clean run, stopped at %q with diagnostics: %v", res.Stage, res.Diagnostics)
	}
	if res.Program == nil {
		t.Fatalf("expected a populated program")
	}
	if len(res.Program.FunctionOrder) == 0 {
		t.Fatalf("expected at least one resolved function")
	}
}

func TestRunDumpsRequestedStages(t *testing.T) {
	src := `
module list {
	fn identity(a: Int) -> Int {
		return a;
	}
}
`
	res := Run("test.ka", src, []string{StageResolve, StageTypecheck})
	if !res.OK() {
		t.Fatalf("expected a clean run, stopped at %q with diagnostics: %v", res.Stage, res.Diagnostics)
	}
	if _, ok := res.Snapshots[StageResolve]; !ok {
		t.Fatalf("expected a resolve snapshot")
	}
	if _, ok := res.Snapshots[StageTypecheck]; !ok {
		t.Fatalf("expected a typecheck snapshot")
	}
	if _, ok := res.Snapshots[StageMatch]; ok {
		t.Fatalf("did not request a match snapshot")
	}
}

func TestRunReportsScanErrors(t *testing.T) {
	res := Run("test.ka", `module m { fn f() -> Int { return "unterminated; } }`, nil)
	if res.OK() {
		t.Fatalf("expected an unterminated string literal to fail")
	}
	if res.Stage != StageParse {
		t.Fatalf("expected the failure to be reported at the parse stage, got %q", res.Stage)
	}
}
