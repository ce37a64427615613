package corolower

import (
	"fmt"
	"sort"

	"kanso/internal/hir"
)

// lowering holds the working state for rewriting a single coroutine function.
type lowering struct {
	fn   *hir.Function
	prog *hir.Program
}

func (l *Lowerer) lowerFunction(fn *hir.Function) {
	lw := &lowering{fn: fn, prog: l.prog}
	lw.run()
}

// successorsOf duplicates the Jump/EnumSwitch/IntegerSwitch/StringSwitch
// case of internal/typecheck/walk.go's processBlock — the same block-graph
// successor extraction every other pass that walks the CFG carries its own
// copy of (see internal/dropcheck/function.go).
func successorsOf(blk *hir.Block) []hir.BlockID {
	var succs []hir.BlockID
	for _, inst := range blk.Instructions {
		switch it := inst.(type) {
		case *hir.Jump:
			succs = append(succs, it.Dest)
		case *hir.EnumSwitch:
			for _, cs := range it.Cases {
				succs = append(succs, cs.Target)
			}
		case *hir.IntegerSwitch:
			for _, cs := range it.Cases {
				succs = append(succs, cs.Target)
			}
			if it.HasDefault {
				succs = append(succs, it.Default)
			}
		case *hir.StringSwitch:
			for _, cs := range it.Cases {
				succs = append(succs, cs.Target)
			}
			if it.HasDefault {
				succs = append(succs, it.Default)
			}
		}
	}
	return succs
}

// blockOrder sorts a body's block ids numerically for deterministic
// traversal; Go map iteration over Body.Blocks is randomized.
func blockOrder(body *hir.Body) []hir.BlockID {
	ids := make([]hir.BlockID, 0, len(body.Blocks))
	for id := range body.Blocks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// pos returns a source location to stamp on synthesized instructions. There
// is no single "right" location for code that exists only because this pass
// ran, so it borrows the position of the function's first parameter (or the
// zero position for a parameterless coroutine) the same way the resolver
// stamps synthesized constructor bodies with the declaration's position.
func (lw *lowering) pos() hir.Position {
	if len(lw.fn.ParamVars) > 0 {
		return lw.fn.ParamVars[0].Pos
	}
	return hir.Position{}
}

func (lw *lowering) run() {
	order, yieldSucc := lw.discoverStates()
	defSite := lw.buildDefSites()

	savedVars := make([][]*hir.Variable, len(order))
	for k, entry := range order {
		savedVars[k] = lw.savedVarsFor(entry, order, yieldSucc, defSite)
	}

	stateEnumName := lw.fn.Name + "$State"
	resultEnumName := lw.fn.Name + "$ResumeResult"

	// Old Returns must be rewritten before the dispatch block below adds its
	// own Completed-case Return, or the sweep would rewrite those too.
	lw.rewriteReturns(stateEnumName, resultEnumName)

	lw.declareStateEnum(stateEnumName, savedVars)
	lw.declareResumeResultEnum(resultEnumName)
	lw.declareIsCompleted(stateEnumName, len(order))

	lw.rewriteYields(order, yieldSucc, savedVars, stateEnumName, resultEnumName)

	stateParam := hir.NewVariable("state", lw.pos())
	stateParam.SetType(hir.Named(stateEnumName))
	lw.buildDispatch(stateParam, order, savedVars, stateEnumName, resultEnumName)

	lw.fn.ParamVars = []*hir.Variable{stateParam}
	lw.fn.Receiver = nil
	lw.fn.Signature = hir.Signature{
		Params:      []*hir.Type{hir.Named(stateEnumName)},
		ResultKind:  hir.SingleReturn,
		Result:      hir.TupleType(hir.Named(stateEnumName), hir.Named(resultEnumName)),
		Constraints: lw.fn.Signature.Constraints,
	}
}

// discoverStates splits the function's body at every Yield, returning the
// block id that begins each resume state in discovery order (order[0] is
// always the function's original entry block, state 0) plus a map from a
// now-yield-terminated block to the state that resumes immediately after
// it. Traversal is breadth-first over the block graph so branches and more
// than one yield per function are both handled; a block containing a yield
// is never explored past that yield in the same pass, since everything
// after it was just relocated into the freshly split tail block.
func (lw *lowering) discoverStates() (order []hir.BlockID, yieldSucc map[hir.BlockID]hir.BlockID) {
	body := lw.fn.Body
	yieldSucc = make(map[hir.BlockID]hir.BlockID)
	visited := map[hir.BlockID]bool{body.Entry: true}
	order = []hir.BlockID{body.Entry}
	queue := []hir.BlockID{body.Entry}

	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		blk := body.Block(b)

		splitAt := -1
		for i, inst := range blk.Instructions {
			if _, ok := inst.(*hir.Yield); ok {
				splitAt = i
				break
			}
		}
		if splitAt >= 0 {
			tail := body.Split(b, splitAt+1)
			yieldSucc[b] = tail
			if !visited[tail] {
				visited[tail] = true
				order = append(order, tail)
				queue = append(queue, tail)
			}
			continue
		}

		for _, succ := range successorsOf(blk) {
			if !visited[succ] {
				visited[succ] = true
				queue = append(queue, succ)
			}
		}
	}
	return order, yieldSucc
}

// buildDefSites maps every variable name defined anywhere in the function
// (parameters plus every instruction's def-site result) to the actual
// *hir.Variable object that defines it, so a restore sequence can assign
// straight into the original handle's shared type cell instead of fabricating
// an unrelated one under the same name.
func (lw *lowering) buildDefSites() map[string]*hir.Variable {
	sites := make(map[string]*hir.Variable)
	for _, p := range lw.fn.ParamVars {
		sites[p.Name] = p
	}
	if lw.fn.Receiver != nil {
		sites[lw.fn.Receiver.Name] = lw.fn.Receiver
	}
	for _, id := range blockOrder(lw.fn.Body) {
		for _, inst := range lw.fn.Body.Block(id).Instructions {
			if res := inst.Result(); res != nil && !res.IsUse {
				sites[res.Name] = res
			}
		}
	}
	return sites
}

// fullSuccessors bridges successorsOf with the yield edges discoverStates
// found: a block ending in a Yield has exactly one successor, the state that
// resumes after it, which successorsOf cannot see since Yield is not a
// recognised terminator instruction.
func fullSuccessors(blk *hir.Block, yieldSucc map[hir.BlockID]hir.BlockID) []hir.BlockID {
	if tail, ok := yieldSucc[blk.ID]; ok {
		return []hir.BlockID{tail}
	}
	return successorsOf(blk)
}

// segmentBlocks returns the blocks that belong to the resume state entered
// at `entry`: everything reachable from it without crossing into another
// state's entry block. Other states' entry blocks are exactly the set of
// resume boundaries, so stopping there delineates one state's code from the
// next's.
func segmentBlocks(body *hir.Body, entry hir.BlockID, stateEntries map[hir.BlockID]bool, yieldSucc map[hir.BlockID]hir.BlockID) map[hir.BlockID]bool {
	seg := map[hir.BlockID]bool{entry: true}
	queue := []hir.BlockID{entry}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		for _, n := range fullSuccessors(body.Block(b), yieldSucc) {
			if n != entry && stateEntries[n] {
				continue
			}
			if !seg[n] {
				seg[n] = true
				queue = append(queue, n)
			}
		}
	}
	return seg
}

// savedVarsFor computes the payload a resume state must carry: every
// variable used within its segment that the segment does not itself define,
// ordered alphabetically by name for a deterministic, reproducible field
// order. A variable mentioned but not locally defined must have been
// defined earlier in the function — by an enclosing state's segment, or (for
// state 0) by a function parameter — so restoring it is always possible.
func (lw *lowering) savedVarsFor(entry hir.BlockID, order []hir.BlockID, yieldSucc map[hir.BlockID]hir.BlockID, defSite map[string]*hir.Variable) []*hir.Variable {
	stateEntries := make(map[hir.BlockID]bool, len(order))
	for _, id := range order {
		stateEntries[id] = true
	}
	seg := segmentBlocks(lw.fn.Body, entry, stateEntries, yieldSucc)

	mentioned := make(map[string]bool)
	defined := make(map[string]bool)
	for id := range seg {
		for _, inst := range lw.fn.Body.Block(id).Instructions {
			for _, v := range inst.CollectVariables() {
				mentioned[v.Name] = true
			}
			if res := inst.Result(); res != nil {
				defined[res.Name] = true
			}
		}
	}

	var names []string
	for name := range mentioned {
		if !defined[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	vars := make([]*hir.Variable, 0, len(names))
	for _, name := range names {
		if v, ok := defSite[name]; ok {
			vars = append(vars, v)
		}
	}
	return vars
}

func savedTypes(vars []*hir.Variable) []*hir.Type {
	types := make([]*hir.Type, len(vars))
	for i, v := range vars {
		types[i] = v.Type()
	}
	return types
}

// declareStateEnum registers the `$State` enum synthesized for this
// coroutine: one variant per resume state, carrying that state's saved
// variables as positional fields, plus a nullary Completed variant. Variant
// constructors are registered the same way internal/resolve/resolve.go's
// declareEnum registers a source enum's variant constructors — an ordinary
// hir.Function of Kind KindVariantCtor, looked up later by name through a
// plain FunctionCall.
func (lw *lowering) declareStateEnum(name string, savedVars [][]*hir.Variable) {
	def := &hir.EnumDef{Name: name}
	for k := range savedVars {
		def.Variants = append(def.Variants, hir.VariantDef{
			Name:   stateVariantName(k),
			Fields: savedTypes(savedVars[k]),
		})
	}
	def.Variants = append(def.Variants, hir.VariantDef{Name: "State_Completed"})
	lw.prog.Enums[name] = def

	resultType := hir.Named(name)
	for _, v := range def.Variants {
		lw.registerVariantCtor(name, v.Name, v.Fields, resultType)
	}
}

// declareResumeResultEnum registers the `$ResumeResult` enum: Yielded(Y),
// Returned(R), Completed.
func (lw *lowering) declareResumeResultEnum(name string) {
	y := lw.fn.Signature.Yield
	r := lw.fn.Signature.Return

	def := &hir.EnumDef{Name: name, Variants: []hir.VariantDef{
		{Name: "Yielded", Fields: []*hir.Type{y}},
		{Name: "Returned", Fields: []*hir.Type{r}},
		{Name: "Completed"},
	}}
	lw.prog.Enums[name] = def

	resultType := hir.Named(name)
	for _, v := range def.Variants {
		lw.registerVariantCtor(name, v.Name, v.Fields, resultType)
	}
}

func (lw *lowering) registerVariantCtor(enumName, variantName string, fields []*hir.Type, resultType *hir.Type) {
	ctorName := enumName + "::" + variantName
	ctor := hir.NewFunction(ctorName)
	ctor.Kind = hir.KindVariantCtor
	ctor.Signature = hir.Signature{
		Params:     fields,
		ResultKind: hir.SingleReturn,
		Result:     resultType,
	}
	lw.prog.AddFunction(ctor)
}

func stateVariantName(k int) string { return fmt.Sprintf("State_%d", k) }

// declareIsCompleted registers a standalone helper, `$isCompleted`, over a
// reference to the state enum. It is built directly on top of a
// reference-typed EnumSwitch.Root: this pass is the last one to run, nothing
// downstream re-typechecks or re-drop-checks its output, and the HIR has no
// generic "dereference a reference" instruction for an explicit deref to
// lower into (only TPtr gets one, via LoadPtr) — so the synthesized switch
// simply reads through the reference, the same way a future codegen stage is
// expected to.
func (lw *lowering) declareIsCompleted(stateEnumName string, numStates int) {
	p := lw.pos()
	name := lw.fn.Name + "$isCompleted"
	fn := hir.NewFunction(name)
	fn.Kind = hir.KindUserDefined

	recv := hir.NewVariable("state", p)
	recv.SetType(hir.RefType(hir.Named(stateEnumName)))
	fn.ParamVars = []*hir.Variable{recv}
	fn.Signature = hir.Signature{
		Params:     []*hir.Type{hir.RefType(hir.Named(stateEnumName))},
		ResultKind: hir.SingleReturn,
		Result:     hir.Named(hir.TyBool),
	}

	falseBlk := fn.Body.NewBlock()
	trueBlk := fn.Body.NewBlock()
	lw.emitBoolReturn(fn, falseBlk, false)
	lw.emitBoolReturn(fn, trueBlk, true)

	cases := make([]hir.EnumCase, 0, numStates+1)
	for k := 0; k < numStates; k++ {
		cases = append(cases, hir.EnumCase{VariantIndex: k, Target: falseBlk})
	}
	cases = append(cases, hir.EnumCase{VariantIndex: numStates, Target: trueBlk})

	entry := fn.Body.Block(fn.Body.Entry)
	entry.Instructions = append(entry.Instructions, hir.NewEnumSwitch(p, recv.Use(), cases))

	lw.prog.AddFunction(fn)
}

func (lw *lowering) emitBoolReturn(fn *hir.Function, id hir.BlockID, v bool) {
	p := lw.pos()
	blk := fn.Body.Block(id)
	lit := fn.Body.NewTemp(p)
	lit.SetType(hir.Named(hir.TyBool))
	n := int64(0)
	if v {
		n = 1
	}
	blk.Instructions = append(blk.Instructions,
		hir.NewIntegerLiteral(p, lit, n),
		hir.NewReturn(p, fn.Body.NewTemp(p), lit.Use()),
	)
}

// rewriteReturns replaces every original `return value` with the
// (State_Completed, Returned(value)) pair the lowered resume function must
// produce once the coroutine has run to completion.
func (lw *lowering) rewriteReturns(stateEnumName, resultEnumName string) {
	for _, id := range blockOrder(lw.fn.Body) {
		blk := lw.fn.Body.Block(id)
		for i, inst := range blk.Instructions {
			ret, ok := inst.(*hir.Return)
			if !ok {
				continue
			}
			p := ret.Pos()

			returnedTemp := lw.fn.Body.NewTemp(p)
			returnedTemp.SetType(hir.Named(resultEnumName))
			returnedCall := hir.NewFunctionCall(p, returnedTemp, hir.CallInfo{
				Name: resultEnumName + "::Returned",
				Args: []*hir.Variable{ret.Value},
			})

			completedTemp := lw.fn.Body.NewTemp(p)
			completedTemp.SetType(hir.Named(stateEnumName))
			completedCall := hir.NewFunctionCall(p, completedTemp, hir.CallInfo{
				Name: stateEnumName + "::State_Completed",
			})

			pairTemp := lw.fn.Body.NewTemp(p)
			pairTemp.SetType(hir.TupleType(hir.Named(stateEnumName), hir.Named(resultEnumName)))
			tuple := hir.NewTuple(p, pairTemp, []*hir.Variable{completedTemp.Use(), returnedTemp.Use()})

			newReturn := hir.NewReturn(p, lw.fn.Body.NewTemp(p), pairTemp.Use())

			repl := make([]hir.Instruction, 0, len(blk.Instructions)+3)
			repl = append(repl, blk.Instructions[:i]...)
			repl = append(repl, returnedCall, completedCall, tuple, newReturn)
			repl = append(repl, blk.Instructions[i+1:]...)
			blk.Instructions = repl
		}
	}
}

// rewriteYields replaces every Yield (always the last instruction of its
// block, by construction of discoverStates) with the (next-state,
// Yielded(value)) pair a resumable function returns at a yield point.
func (lw *lowering) rewriteYields(order []hir.BlockID, yieldSucc map[hir.BlockID]hir.BlockID, savedVars [][]*hir.Variable, stateEnumName, resultEnumName string) {
	stateIndex := make(map[hir.BlockID]int, len(order))
	for k, id := range order {
		stateIndex[id] = k
	}

	for blkID, tail := range yieldSucc {
		blk := lw.fn.Body.Block(blkID)
		last := len(blk.Instructions) - 1
		y, ok := blk.Instructions[last].(*hir.Yield)
		if !ok {
			panic("corolower: expected block to end in Yield")
		}
		p := y.Pos()

		yieldedTemp := lw.fn.Body.NewTemp(p)
		yieldedTemp.SetType(hir.Named(resultEnumName))
		yieldedCall := hir.NewFunctionCall(p, yieldedTemp, hir.CallInfo{
			Name: resultEnumName + "::Yielded",
			Args: []*hir.Variable{y.Value},
		})

		nextIdx := stateIndex[tail]
		nextArgs := make([]*hir.Variable, len(savedVars[nextIdx]))
		for i, v := range savedVars[nextIdx] {
			nextArgs[i] = v.Use()
		}
		nextStateTemp := lw.fn.Body.NewTemp(p)
		nextStateTemp.SetType(hir.Named(stateEnumName))
		nextStateCall := hir.NewFunctionCall(p, nextStateTemp, hir.CallInfo{
			Name: stateEnumName + "::" + stateVariantName(nextIdx),
			Args: nextArgs,
		})

		pairTemp := lw.fn.Body.NewTemp(p)
		pairTemp.SetType(hir.TupleType(hir.Named(stateEnumName), hir.Named(resultEnumName)))
		tuple := hir.NewTuple(p, pairTemp, []*hir.Variable{nextStateTemp.Use(), yieldedTemp.Use()})

		ret := hir.NewReturn(p, lw.fn.Body.NewTemp(p), pairTemp.Use())

		blk.Instructions = append(blk.Instructions[:last], yieldedCall, nextStateCall, tuple, ret)
	}
}

// buildDispatch allocates a fresh entry block that switches on the incoming
// state, restores each state's saved variables into the original variable
// handles that the rest of the function still refers to by name, and jumps
// into that state's first real block. The Completed variant short-circuits
// straight to a (Completed, Completed) pair without touching user code at
// all.
func (lw *lowering) buildDispatch(stateParam *hir.Variable, order []hir.BlockID, savedVars [][]*hir.Variable, stateEnumName, resultEnumName string) {
	p := lw.pos()
	body := lw.fn.Body

	cases := make([]hir.EnumCase, 0, len(order)+1)
	for k, entry := range order {
		restoreBlk := body.NewBlock()
		blk := body.Block(restoreBlk)

		fieldTypes := savedTypes(savedVars[k])
		payload := body.NewTemp(p)
		payload.SetType(hir.TupleType(fieldTypes...))
		blk.Instructions = append(blk.Instructions, hir.NewTransform(p, payload, stateParam.Use(), k))

		for idx, v := range savedVars[k] {
			fieldTemp := body.NewTemp(p)
			fieldTemp.SetType(v.Type())
			blk.Instructions = append(blk.Instructions,
				hir.NewFieldRef(p, fieldTemp, payload.Use(), []hir.FieldInfo{{Sel: hir.IndexSelector(idx), Typ: v.Type()}}),
				hir.NewAssign(p, v, fieldTemp.Use()),
			)
		}
		blk.Instructions = append(blk.Instructions, hir.NewJump(p, entry))

		cases = append(cases, hir.EnumCase{VariantIndex: k, Target: restoreBlk})
	}

	completedBlk := body.NewBlock()
	{
		blk := body.Block(completedBlk)
		resultTemp := body.NewTemp(p)
		resultTemp.SetType(hir.Named(resultEnumName))
		stateTemp := body.NewTemp(p)
		stateTemp.SetType(hir.Named(stateEnumName))
		pairTemp := body.NewTemp(p)
		pairTemp.SetType(hir.TupleType(hir.Named(stateEnumName), hir.Named(resultEnumName)))

		blk.Instructions = append(blk.Instructions,
			hir.NewFunctionCall(p, resultTemp, hir.CallInfo{Name: resultEnumName + "::Completed"}),
			hir.NewFunctionCall(p, stateTemp, hir.CallInfo{Name: stateEnumName + "::State_Completed"}),
			hir.NewTuple(p, pairTemp, []*hir.Variable{stateTemp.Use(), resultTemp.Use()}),
			hir.NewReturn(p, body.NewTemp(p), pairTemp.Use()),
		)
	}
	cases = append(cases, hir.EnumCase{VariantIndex: len(order), Target: completedBlk})

	dispatchID := body.NewBlock()
	dispatch := body.Block(dispatchID)
	dispatch.Instructions = append(dispatch.Instructions, hir.NewEnumSwitch(p, stateParam.Use(), cases))
	body.Entry = dispatchID
}
