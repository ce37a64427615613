package dropcheck

import (
	"testing"

	"kanso/internal/errors"
	"kanso/internal/hir"
)

func pos(line int) hir.Position { return hir.Position{Filename: "t.kan", Line: line, Column: 1} }

// buildMoveTwice builds a function equivalent to:
//
//	fn f(p: Point) -> Unit {
//	    let q = p;
//	    let r = p;
//	}
//
// where Point is a plain (non-Copy) struct, so the second read of p is a
// use-after-move.
func buildMoveTwice(prog *hir.Program) *hir.Function {
	prog.Structs["Point"] = &hir.StructDef{Name: "Point", Fields: []hir.FieldDef{
		{Name: "x", Type: hir.Named(hir.TyString)},
	}}

	fn := hir.NewFunction("f")
	p := hir.NewVariable("p", pos(1))
	p.SetType(hir.Named("Point"))
	fn.ParamVars = []*hir.Variable{p}
	fn.Signature.Params = []*hir.Type{hir.Named("Point")}
	fn.Signature.Result = hir.VoidType

	scope := hir.RootSyntaxBlock()
	entry := fn.Body.Block(fn.Body.Entry)

	q := hir.NewVariable("q", pos(2))
	q.SetType(hir.Named("Point"))
	r := hir.NewVariable("r", pos(3))
	r.SetType(hir.Named("Point"))

	entry.Instructions = append(entry.Instructions,
		hir.NewBlockStart(pos(1), scope),
		hir.NewDeclareVar(pos(1), p, false),
		hir.NewDeclareVar(pos(2), q, true),
		hir.NewAssign(pos(2), q, p.Use()),
		hir.NewDeclareVar(pos(3), r, true),
		hir.NewAssign(pos(3), r, p.Use()),
		hir.NewBlockEnd(pos(4), scope),
		hir.NewReturn(pos(4), fn.Body.NewTemp(pos(4)), nil),
	)
	return fn
}

func TestUseAfterMoveReported(t *testing.T) {
	prog := hir.NewProgram()
	fn := buildMoveTwice(prog)
	prog.AddFunction(fn)

	c := New(prog)
	c.CheckProgram()

	diags := c.Diagnostics()
	if len(diags) != 1 {
		t.Fatalf("expected exactly one diagnostic, got %d: %v", len(diags), diags)
	}
	if diags[0].Code != errors.ErrorAlreadyMoved {
		t.Fatalf("expected %s, got %s", errors.ErrorAlreadyMoved, diags[0].Code)
	}
}

// buildCopyMove builds the same shape as buildMoveTwice but over Int, which
// has a prelude Copy instance, so both reads of p must succeed and each one
// must be rewritten into a borrow-plus-clone rather than flagged.
func buildCopyMove(prog *hir.Program) *hir.Function {
	fn := hir.NewFunction("g")
	p := hir.NewVariable("p", pos(1))
	p.SetType(hir.Named(hir.TyInt))
	fn.ParamVars = []*hir.Variable{p}
	fn.Signature.Params = []*hir.Type{hir.Named(hir.TyInt)}
	fn.Signature.Result = hir.VoidType

	scope := hir.RootSyntaxBlock()
	entry := fn.Body.Block(fn.Body.Entry)

	q := hir.NewVariable("q", pos(2))
	q.SetType(hir.Named(hir.TyInt))
	r := hir.NewVariable("r", pos(3))
	r.SetType(hir.Named(hir.TyInt))

	entry.Instructions = append(entry.Instructions,
		hir.NewBlockStart(pos(1), scope),
		hir.NewDeclareVar(pos(1), p, false),
		hir.NewDeclareVar(pos(2), q, true),
		hir.NewAssign(pos(2), q, p.Use()),
		hir.NewDeclareVar(pos(3), r, true),
		hir.NewAssign(pos(3), r, p.Use()),
		hir.NewBlockEnd(pos(4), scope),
		hir.NewReturn(pos(4), fn.Body.NewTemp(pos(4)), nil),
	)
	return fn
}

func TestCopyTypeNeverFlaggedAsMoved(t *testing.T) {
	prog := hir.NewProgram()
	fn := buildCopyMove(prog)
	prog.AddFunction(fn)

	c := New(prog)
	c.CheckProgram()

	if diags := c.Diagnostics(); len(diags) != 0 {
		t.Fatalf("expected no diagnostics for a Copy type, got %v", diags)
	}

	// The reads of p should have been rewritten into Ref+clone pairs rather
	// than left as bare uses of p.
	entry := fn.Body.Block(fn.Body.Entry)
	var sawRef, sawClone bool
	for _, inst := range entry.Instructions {
		switch it := inst.(type) {
		case *hir.Ref:
			sawRef = true
		case *hir.FunctionCall:
			if it.Info.Name == "__builtin_clone_Int" {
				sawClone = true
			}
		}
	}
	if !sawRef || !sawClone {
		t.Fatalf("expected a Ref+clone rewrite for the Int reads, sawRef=%v sawClone=%v", sawRef, sawClone)
	}
}

// buildDropsAtScopeEnd builds a function with a single owned local declared
// and never moved, checking that a Drop is synthesised at the enclosing
// BlockEnd.
func buildDropsAtScopeEnd(prog *hir.Program) *hir.Function {
	prog.Structs["Point"] = &hir.StructDef{Name: "Point", Fields: []hir.FieldDef{
		{Name: "x", Type: hir.Named(hir.TyInt)},
	}}

	fn := hir.NewFunction("h")
	fn.Signature.Result = hir.VoidType

	scope := hir.RootSyntaxBlock()
	entry := fn.Body.Block(fn.Body.Entry)

	q := hir.NewVariable("q", pos(1))
	q.SetType(hir.Named("Point"))

	entry.Instructions = append(entry.Instructions,
		hir.NewBlockStart(pos(1), scope),
		hir.NewDeclareVar(pos(1), q, true),
		hir.NewBlockEnd(pos(2), scope),
		hir.NewReturn(pos(2), fn.Body.NewTemp(pos(2)), nil),
	)
	return fn
}

func TestDropEmittedAtScopeEnd(t *testing.T) {
	prog := hir.NewProgram()
	fn := buildDropsAtScopeEnd(prog)
	prog.AddFunction(fn)

	c := New(prog)
	c.CheckProgram()

	if diags := c.Diagnostics(); len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}

	entry := fn.Body.Block(fn.Body.Entry)
	var sawDrop bool
	for _, inst := range entry.Instructions {
		if d, ok := inst.(*hir.Drop); ok && d.Var.Name == "q" {
			sawDrop = true
		}
	}
	if !sawDrop {
		t.Fatalf("expected a Drop of q at the scope's BlockEnd, got %v", entry.Instructions)
	}
}
