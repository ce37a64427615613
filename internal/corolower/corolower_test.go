package corolower

import (
	"testing"

	"kanso/internal/hir"
)

func pos() hir.Position { return hir.Position{Filename: "t.kan", Line: 1, Column: 1} }

// buildYieldYieldReturn builds a coroutine equivalent to:
//
//	fn counter() yields Int -> Int {
//	    yield 1;
//	    yield 2;
//	    return 3;
//	}
//
// with no parameters and no variable carried across a yield: two yield
// points split the body into three resumable segments, which lowering is
// expected to turn into a four-state machine (S0, S1, S2, Completed).
func buildYieldYieldReturn() *hir.Function {
	fn := hir.NewFunction("counter")
	fn.Signature = hir.Signature{
		ResultKind: hir.Coroutine,
		Yield:      hir.Named(hir.TyInt),
		Return:     hir.Named(hir.TyInt),
	}

	entry := fn.Body.Block(fn.Body.Entry)
	p := pos()

	t1 := fn.Body.NewTemp(p)
	t1.SetType(hir.Named(hir.TyInt))
	y1 := fn.Body.NewTemp(p)

	t2 := fn.Body.NewTemp(p)
	t2.SetType(hir.Named(hir.TyInt))
	y2 := fn.Body.NewTemp(p)

	t3 := fn.Body.NewTemp(p)
	t3.SetType(hir.Named(hir.TyInt))
	retDest := fn.Body.NewTemp(p)

	entry.Instructions = append(entry.Instructions,
		hir.NewIntegerLiteral(p, t1, 1),
		hir.NewYield(p, y1, t1.Use()),
		hir.NewIntegerLiteral(p, t2, 2),
		hir.NewYield(p, y2, t2.Use()),
		hir.NewIntegerLiteral(p, t3, 3),
		hir.NewReturn(p, retDest, t3.Use()),
	)
	return fn
}

func TestLowerProducesFourStateMachine(t *testing.T) {
	prog := hir.NewProgram()
	fn := buildYieldYieldReturn()
	prog.AddFunction(fn)

	New(prog).LowerProgram()

	if fn.Signature.ResultKind != hir.SingleReturn {
		t.Fatalf("expected lowered function to be SingleReturn, got %v", fn.Signature.ResultKind)
	}
	if len(fn.ParamVars) != 1 || fn.ParamVars[0].Type().Name != "counter$State" {
		t.Fatalf("expected a single counter$State parameter, got %v", fn.ParamVars)
	}

	def, ok := prog.Enums["counter$State"]
	if !ok {
		t.Fatalf("expected counter$State to be registered")
	}
	wantVariants := []string{"State_0", "State_1", "State_2", "State_Completed"}
	if len(def.Variants) != len(wantVariants) {
		t.Fatalf("expected %d state variants, got %d: %v", len(wantVariants), len(def.Variants), def.Variants)
	}
	for i, name := range wantVariants {
		if def.Variants[i].Name != name {
			t.Fatalf("variant %d: expected %s, got %s", i, name, def.Variants[i].Name)
		}
		if name != "State_Completed" && len(def.Variants[i].Fields) != 0 {
			t.Fatalf("variant %s: expected no captured fields, got %v", name, def.Variants[i].Fields)
		}
	}

	resultDef, ok := prog.Enums["counter$ResumeResult"]
	if !ok {
		t.Fatalf("expected counter$ResumeResult to be registered")
	}
	wantResult := []string{"Yielded", "Returned", "Completed"}
	for i, name := range wantResult {
		if resultDef.Variants[i].Name != name {
			t.Fatalf("result variant %d: expected %s, got %s", i, name, resultDef.Variants[i].Name)
		}
	}

	for _, name := range []string{"counter$State::State_0", "counter$State::State_1", "counter$State::State_2", "counter$State::State_Completed"} {
		ctor := prog.Func(name)
		if ctor.Kind != hir.KindVariantCtor {
			t.Fatalf("%s: expected KindVariantCtor, got %v", name, ctor.Kind)
		}
		if len(ctor.Signature.Params) != 0 {
			t.Fatalf("%s: expected a nullary constructor, got params %v", name, ctor.Signature.Params)
		}
	}

	if _, ok := prog.Functions["counter$isCompleted"]; !ok {
		t.Fatalf("expected counter$isCompleted helper to be registered")
	}
}

// buildYieldWithCapture builds a coroutine that carries a local across its
// single yield point, so the synthesized State_1 must capture it.
//
//	fn echo(n: Int) yields Int -> Int {
//	    let doubled = n;
//	    yield doubled;
//	    return doubled;
//	}
func buildYieldWithCapture() *hir.Function {
	fn := hir.NewFunction("echo")
	fn.Signature = hir.Signature{
		Params:     []*hir.Type{hir.Named(hir.TyInt)},
		ResultKind: hir.Coroutine,
		Yield:      hir.Named(hir.TyInt),
		Return:     hir.Named(hir.TyInt),
	}
	p := pos()
	n := hir.NewVariable("n", p)
	n.SetType(hir.Named(hir.TyInt))
	fn.ParamVars = []*hir.Variable{n}

	doubled := hir.NewVariable("doubled", p)
	doubled.SetType(hir.Named(hir.TyInt))
	yDest := fn.Body.NewTemp(p)
	retDest := fn.Body.NewTemp(p)

	entry := fn.Body.Block(fn.Body.Entry)
	entry.Instructions = append(entry.Instructions,
		hir.NewDeclareVar(p, doubled, false),
		hir.NewAssign(p, doubled, n.Use()),
		hir.NewYield(p, yDest, doubled.Use()),
		hir.NewReturn(p, retDest, doubled.Use()),
	)
	return fn
}

func TestLowerCapturesVariableLiveAcrossYield(t *testing.T) {
	prog := hir.NewProgram()
	fn := buildYieldWithCapture()
	prog.AddFunction(fn)

	New(prog).LowerProgram()

	def := prog.Enums["echo$State"]
	if len(def.Variants) != 3 {
		t.Fatalf("expected State_0, State_1, State_Completed, got %v", def.Variants)
	}
	// State_0 is the function's original entry: its segment reads the
	// parameter `n` without ever redefining it, so it must capture it (a
	// resume function has no parameters of its own beyond the state value).
	// State_1 is entered only via the yield and must carry `doubled` to
	// satisfy the trailing `return doubled`.
	if len(def.Variants[0].Fields) != 1 {
		t.Fatalf("expected State_0 to capture the n parameter, got %v", def.Variants[0].Fields)
	}
	if len(def.Variants[1].Fields) != 1 {
		t.Fatalf("expected State_1 to capture exactly one field, got %v", def.Variants[1].Fields)
	}
}
