package typecheck

import (
	"kanso/internal/errors"
	"kanso/internal/hir"
)

// walk visits every reachable block once, emitting unification constraints
// for each instruction (§4.E.2) and splicing in replacement instructions
// where a single HIR op lowers to several (MethodCall, Bind, Converter).
// Work-queue traversal rather than recursion, since a block can be its own
// successor (loops are compiled to back-edges, not AST loop nodes).
func (fc *funcChecker) walk() {
	visited := make(map[hir.BlockID]bool)
	queue := []hir.BlockID{fc.fn.Body.Entry}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		queue = append(queue, fc.processBlock(id)...)
	}
}

// processBlock type-checks every instruction in a block and returns the
// blocks it can jump to. Replacement instructions are spliced directly into
// Block.Instructions — hir.Cursor's InsertAfter semantics insert relative to
// an unmoved position, which inverts the order of more than one insertion,
// so a multi-instruction rewrite manipulates the slice by hand instead.
func (fc *funcChecker) processBlock(id hir.BlockID) []hir.BlockID {
	blk := fc.fn.Body.Block(id)
	var succs []hir.BlockID

	for i := 0; i < len(blk.Instructions); i++ {
		inst := blk.Instructions[i]
		var repl []hir.Instruction
		spliced := false

		switch it := inst.(type) {
		case *hir.StringLiteral:
			fc.u.Unify(it.Dest.Type(), namedString(), it.Pos())
		case *hir.IntegerLiteral:
			fc.checkIntegerLiteral(it)
		case *hir.CharLiteral:
			fc.u.Unify(it.Dest.Type(), namedU8(), it.Pos())
		case *hir.Tuple:
			elems := make([]*hir.Type, len(it.Elems))
			for j, e := range it.Elems {
				elems[j] = e.Type()
			}
			fc.u.Unify(it.Dest.Type(), hir.TupleType(elems...), it.Pos())
		case *hir.Ref:
			fc.u.Unify(it.Dest.Type(), hir.RefType(it.Src.Type()), it.Pos())
		case *hir.PtrOf:
			fc.u.Unify(it.Dest.Type(), hir.PtrType(it.Src.Type()), it.Pos())
		case *hir.LoadPtr:
			inner := fc.u.Fresh()
			fc.u.Unify(it.Src.Type(), hir.PtrType(inner), it.Pos())
			fc.u.Unify(it.Dest.Type(), inner, it.Pos())
		case *hir.StorePtr:
			inner := fc.u.Fresh()
			fc.u.Unify(it.Dest.Type(), hir.PtrType(inner), it.Pos())
			fc.u.Unify(it.Src.Type(), inner, it.Pos())
		case *hir.FieldRef:
			repl = fc.checkFieldRef(it)
			spliced = repl != nil
		case *hir.AddressOfField:
			fc.checkAddressOfField(it)
		case *hir.FieldAssign:
			fc.checkFieldAssign(it)
		case *hir.Transform:
			fc.checkTransform(it)
		case *hir.FunctionCall:
			fc.checkFunctionCall(it)
		case *hir.DynamicFunctionCall:
			fc.checkDynamicCall(it)
		case *hir.MethodCall:
			repl = fc.lowerMethodCall(it)
			spliced = true
		case *hir.Bind:
			repl = fc.lowerConverter(it.Pos(), it.Dest, it.Src)
			spliced = true
		case *hir.Converter:
			repl = fc.lowerConverter(it.Pos(), it.Dest, it.Src)
			spliced = true
		case *hir.Assign:
			repl = fc.lowerConverter(it.Pos(), it.Dest, it.Src)
			spliced = true
		case *hir.DeclareVar:
			// Mutability was already folded into fc.mutable during initialise.
		case *hir.With:
			fc.checkWith(it)
		case *hir.ReadImplicit:
			fc.checkReadImplicit(it)
		case *hir.WriteImplicit:
			fc.checkWriteImplicit(it)
		case *hir.CreateClosure:
			fc.closures = append(fc.closures, it)
		case *hir.ClosureReturn:
			fc.checkClosureReturn(it)
		case *hir.Return:
			fc.checkReturn(it)
		case *hir.Yield:
			fc.checkYield(it)
		case *hir.Jump:
			succs = append(succs, it.Dest)
		case *hir.EnumSwitch:
			fc.checkEnumSwitch(it)
			for _, cs := range it.Cases {
				succs = append(succs, cs.Target)
			}
		case *hir.IntegerSwitch:
			fc.checkIntegerSwitch(it)
			for _, cs := range it.Cases {
				succs = append(succs, cs.Target)
			}
			if it.HasDefault {
				succs = append(succs, it.Default)
			}
		case *hir.StringSwitch:
			fc.checkStringSwitch(it)
			for _, cs := range it.Cases {
				succs = append(succs, cs.Target)
			}
			if it.HasDefault {
				succs = append(succs, it.Default)
			}
		case *hir.RawMatch:
			// The match compiler (§4.D) never leaves one of these behind;
			// treated as a no-op defensively rather than a hard failure.
		case *hir.Drop, *hir.DropPath, *hir.DropMetadata, *hir.BlockStart, *hir.BlockEnd:
			// Drop checker's domain (§4.F); nothing to type here.
		}

		if spliced {
			if repl == nil {
				repl = []hir.Instruction{inst}
			}
			blk.Instructions = spliceAt(blk.Instructions, i, repl)
			i += len(repl) - 1
		}
	}
	return succs
}

func spliceAt(insts []hir.Instruction, i int, repl []hir.Instruction) []hir.Instruction {
	out := make([]hir.Instruction, 0, len(insts)-1+len(repl))
	out = append(out, insts[:i]...)
	out = append(out, repl...)
	out = append(out, insts[i+1:]...)
	return out
}

func (fc *funcChecker) checkIntegerLiteral(it *hir.IntegerLiteral) {
	// Bool literals ride this instruction too (0/1 encoding, see
	// resolve.lowerLiteral), with their destination pre-seeded to Bool.
	// Only force Int when nothing has already claimed a concrete type.
	if cur := fc.u.Apply(it.Dest.Type()); cur != nil && cur.Kind == hir.TNamed {
		return
	}
	fc.u.Unify(it.Dest.Type(), namedInt(), it.Pos())
}

func (fc *funcChecker) checkReturn(it *hir.Return) {
	want := fc.fn.Signature.Result
	if fc.fn.IsCoroutine() {
		want = fc.fn.Signature.Return
	}
	want = fc.substSelf(want)
	if it.Value == nil {
		fc.u.Unify(want, namedUnit(), it.Pos())
		return
	}
	fc.u.Unify(it.Value.Type(), want, it.Pos())
}

func (fc *funcChecker) checkYield(it *hir.Yield) {
	if !fc.fn.IsCoroutine() {
		fc.errorf(errors.ErrorYieldOutsideCoroutine, it.Pos(), "yield used in a function with no yields clause")
		return
	}
	want := fc.substSelf(fc.fn.Signature.Yield)
	fc.u.Unify(it.Value.Type(), want, it.Pos())
}

func (fc *funcChecker) checkWith(it *hir.With) {
	decl, ok := fc.c.prog.Implicits[it.Info.ImplicitName]
	if !ok {
		return
	}
	fc.u.Unify(it.Info.Handler.Type(), decl.Type, it.Pos())
	fc.u.Unify(it.Dest.Type(), decl.Type, it.Pos())
	fc.implicitMut[it.Info.ImplicitName] = fc.mutable[it.Info.Handler.Name]
}

func (fc *funcChecker) checkReadImplicit(it *hir.ReadImplicit) {
	decl, ok := fc.c.prog.Implicits[it.Name]
	if !ok {
		return
	}
	fc.u.Unify(it.Dest.Type(), decl.Type, it.Pos())
}

func (fc *funcChecker) checkWriteImplicit(it *hir.WriteImplicit) {
	decl, ok := fc.c.prog.Implicits[it.Name]
	if !ok {
		return
	}
	fc.u.Unify(it.Value.Type(), decl.Type, it.Pos())
	if mut, declared := fc.implicitMut[it.Name]; declared && !mut {
		fc.errorf(errors.ErrorImmutableImplicitHandler, it.Pos(), "implicit %q was bound through a handler that is not mutable", it.Name)
	}
}

func (fc *funcChecker) checkClosureReturn(it *hir.ClosureReturn) {
	if fc.fn.Kind != hir.KindLambda {
		return
	}
	fc.u.Unify(it.Value.Type(), fc.fn.Signature.Result, it.Pos())
}
