package dropcheck

import (
	"fmt"

	"kanso/internal/errors"
	"kanso/internal/hir"
	"kanso/internal/unify"
)

// funcDropChecker holds one function's structural (flow-insensitive) and
// flow-sensitive state. pathOf and scopeOf/scopeVars are computed once, up
// front, by a single structural walk (precompute); they never change once
// known, since which place a variable denotes and which lexical scope a
// DeclareVar belongs to do not depend on which branch of the program ran.
// The move-state fixed point (moved sets per block) is the only part of the
// analysis that is genuinely flow-sensitive.
type funcDropChecker struct {
	c  *Checker
	fn *hir.Function
	u  *unify.Unifier

	pathOf    map[string]hir.Path   // variable name -> the place it denotes
	scopeOf   map[string]string     // variable name -> owning SyntaxBlockId key ("" = outer/param scope)
	scopeVars map[string][]*hir.Variable // scope key -> owned locals declared there, in order

	diags []errors.CompilerError
}

// moveState maps a moved path's key to the position of its first move, used
// both to test "already moved" and to build the two-location diagnostic.
type moveState map[string]hir.Position

func (m moveState) clone() moveState {
	out := make(moveState, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// anyAncestorMoved reports whether p or a prefix of p (a struct/tuple place
// containing p) is recorded as moved, per §4.F.5's partial-move rule: moving
// x.a also removes x as a whole from the set of things safe to use wholesale.
func (m moveState) anyAncestorMoved(p hir.Path) (hir.Position, bool) {
	cur := p
	for {
		if pos, ok := m[cur.Key()]; ok {
			return pos, true
		}
		if len(cur.Selectors) == 0 {
			return hir.Position{}, false
		}
		cur = hir.Path{Root: cur.Root, Selectors: cur.Selectors[:len(cur.Selectors)-1]}
	}
}

func (fdc *funcDropChecker) run() {
	fdc.precompute()
	entry := fdc.converge()
	fdc.emit(entry)
}

// pathFor resolves the place a variable denotes: its tracked path if one was
// recorded (FieldRef/Transform chains extend a root variable's path without
// introducing a new root), or its own root path otherwise.
func (fdc *funcDropChecker) pathFor(v *hir.Variable) hir.Path {
	if v == nil {
		return hir.Path{}
	}
	if p, ok := fdc.pathOf[v.Name]; ok {
		return p
	}
	return hir.RootPath(v)
}

// precompute walks the block graph once, in DFS order from the entry block,
// to build pathOf and the scope/declaration tables. Revisiting a block is
// skipped (visited guard): BlockStart/BlockEnd nesting is structurally
// balanced on every path that reaches a given block, so the scope stack
// carried into a block is the same no matter which predecessor got there
// first.
func (fdc *funcDropChecker) precompute() {
	visited := make(map[hir.BlockID]bool)
	type frame struct {
		id    hir.BlockID
		stack []hir.SyntaxBlockId
	}
	stack := []frame{{id: fdc.fn.Body.Entry}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[f.id] {
			continue
		}
		visited[f.id] = true

		scopeStack := f.stack
		blk := fdc.fn.Body.Block(f.id)
		for _, inst := range blk.Instructions {
			switch it := inst.(type) {
			case *hir.BlockStart:
				scopeStack = append(scopeStack, it.Scope)
			case *hir.BlockEnd:
				if len(scopeStack) > 0 {
					scopeStack = scopeStack[:len(scopeStack)-1]
				}
			case *hir.DeclareVar:
				key := ""
				if len(scopeStack) > 0 {
					key = scopeStack[len(scopeStack)-1].Key()
				}
				fdc.scopeOf[it.Var.Name] = key
				if isOwned(it.Var.Type()) {
					fdc.scopeVars[key] = append(fdc.scopeVars[key], it.Var)
				}
			case *hir.FieldRef:
				fdc.pathOf[it.Dest.Name] = fdc.extendPath(it.Receiver, it.Fields)
			case *hir.Transform:
				// A Transform reinterprets src in place; dest denotes the
				// same place src does, just viewed as a different variant.
				fdc.pathOf[it.Dest.Name] = fdc.pathFor(it.Src)
			}
		}
		for _, succ := range successorsOf(blk) {
			next := make([]hir.SyntaxBlockId, len(scopeStack))
			copy(next, scopeStack)
			stack = append(stack, frame{id: succ, stack: next})
		}
	}
}

func (fdc *funcDropChecker) extendPath(root *hir.Variable, fields []hir.FieldInfo) hir.Path {
	p := fdc.pathFor(root)
	for _, f := range fields {
		p = p.Extend(f.Sel)
	}
	return p
}

// successorsOf returns the blocks a block's terminator can jump to, the same
// switch every other block-graph-walking pass in this middle end repeats
// (internal/typecheck/walk.go's processBlock, internal/corolower's pending
// walk) since hir.Instruction intentionally has no generic "successors"
// method — only the terminator kinds carry target block ids.
func successorsOf(blk *hir.Block) []hir.BlockID {
	if len(blk.Instructions) == 0 {
		return nil
	}
	switch it := blk.Instructions[len(blk.Instructions)-1].(type) {
	case *hir.Jump:
		return []hir.BlockID{it.Dest}
	case *hir.EnumSwitch:
		var out []hir.BlockID
		for _, cs := range it.Cases {
			out = append(out, cs.Target)
		}
		return out
	case *hir.IntegerSwitch:
		var out []hir.BlockID
		for _, cs := range it.Cases {
			out = append(out, cs.Target)
		}
		if it.HasDefault {
			out = append(out, it.Default)
		}
		return out
	case *hir.StringSwitch:
		var out []hir.BlockID
		for _, cs := range it.Cases {
			out = append(out, cs.Target)
		}
		if it.HasDefault {
			out = append(out, it.Default)
		}
		return out
	default:
		return nil
	}
}

func blockOrder(body *hir.Body) []hir.BlockID {
	ids := make([]hir.BlockID, 0, len(body.Blocks))
	for id := range body.Blocks {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

// converge computes, for every block, the moveState flowing into it: the
// union of every predecessor's exit state. A plain iterate-to-fixpoint
// sweep rather than a worklist keyed by predecessor — this grammar's block
// graphs are DAGs today (no loop surface syntax exists), so one sweep
// already reaches the fixed point, but the loop below tolerates a future
// back edge (coroutine resume, say) without changing shape.
func (fdc *funcDropChecker) converge() map[hir.BlockID]moveState {
	order := blockOrder(fdc.fn.Body)
	entry := make(map[hir.BlockID]moveState, len(order))
	for _, id := range order {
		entry[id] = moveState{}
	}

	for iter := 0; iter < len(order)+1; iter++ {
		changed := false
		for _, id := range order {
			blk := fdc.fn.Body.Block(id)
			st := entry[id].clone()
			fdc.simulate(blk, st, nil)
			for _, succ := range successorsOf(blk) {
				before := len(entry[succ])
				merged := entry[succ].clone()
				for k, pos := range st {
					if _, ok := merged[k]; !ok {
						merged[k] = pos
					}
				}
				if len(merged) != before {
					changed = true
				}
				entry[succ] = merged
			}
		}
		if !changed {
			break
		}
	}
	return entry
}

// emit replays every block once more from its converged entry state, this
// time actually reporting diagnostics and splicing in clone/drop
// instructions — the two-phase split keeps phase one (converge) free of
// side effects so a block visited more than once during convergence never
// double-reports or double-inserts anything.
func (fdc *funcDropChecker) emit(entry map[hir.BlockID]moveState) {
	for _, id := range blockOrder(fdc.fn.Body) {
		blk := fdc.fn.Body.Block(id)
		st := entry[id].clone()
		fdc.simulate(blk, st, blk)
	}
}

// simulate walks one block's instructions, applying each one's ownership
// effect to st. When out is non-nil this is the emitting pass: diagnostics
// are reported and out.Instructions is rewritten in place (clone insertion,
// drop-list splicing); when out is nil this is the silent convergence pass,
// which still has to run the exact same decisions (a Copy-type operand
// never becomes a move in either pass) so the two phases agree on st.
func (fdc *funcDropChecker) simulate(blk *hir.Block, st moveState, out *hir.Block) {
	for i := 0; i < len(blk.Instructions); i++ {
		inst := blk.Instructions[i]
		var pre []hir.Instruction
		var post []hir.Instruction

		switch it := inst.(type) {
		case *hir.DeclareVar:
			// Nothing to do: scope membership was already recorded by
			// precompute; the variable starts live and unmoved.

		case *hir.FunctionCall:
			for idx, arg := range it.Info.Args {
				it.Info.Args[idx] = fdc.consume(arg, it.Pos(), st, out, &pre)
			}

		case *hir.DynamicFunctionCall:
			// The callee is called through, not consumed (a closure value
			// may be invoked more than once); only the arguments move.
			for idx, arg := range it.Args {
				it.Args[idx] = fdc.consume(arg, it.Pos(), st, out, &pre)
			}

		case *hir.Tuple:
			for idx, e := range it.Elems {
				it.Elems[idx] = fdc.consume(e, it.Pos(), st, out, &pre)
			}

		case *hir.CreateClosure:
			for idx, cap := range it.Info.Captures {
				it.Info.Captures[idx] = fdc.consume(cap, it.Pos(), st, out, &pre)
			}

		case *hir.FieldRef:
			// §4.F.2: extends a path without moving. pathOf already
			// recorded the extension during precompute.

		case *hir.AddressOfField, *hir.Ref, *hir.PtrOf, *hir.LoadPtr:
			// Reference-producing: borrows, never moves.

		case *hir.FieldAssign:
			it.Rhs = fdc.consume(it.Rhs, it.Pos(), st, out, &pre)
			target := fdc.extendPath(it.Receiver, it.Fields)
			post = fdc.dropsForOverwrite(target, it.Pos(), st)
			fdc.markLive(target, st)

		case *hir.Assign:
			it.Src = fdc.consume(it.Src, it.Pos(), st, out, &pre)
			target := fdc.pathFor(it.Dest)
			post = fdc.dropsForOverwrite(target, it.Pos(), st)
			fdc.markLive(target, st)

		case *hir.StorePtr:
			// Writes through a pointer: the pointee's prior owner, if any,
			// is outside this pass's points-to knowledge, so no old-value
			// drop is synthesised here (documented limitation, DESIGN.md).
			it.Src = fdc.consume(it.Src, it.Pos(), st, out, &pre)

		case *hir.Return:
			if it.Value != nil {
				it.Value = fdc.consume(it.Value, it.Pos(), st, out, &pre)
			}
			post = fdc.dropsForReturn(it.Pos(), st)

		case *hir.Yield:
			it.Value = fdc.consume(it.Value, it.Pos(), st, out, &pre)

		case *hir.ClosureReturn:
			it.Value = fdc.consume(it.Value, it.Pos(), st, out, &pre)
			post = fdc.dropsForReturn(it.Pos(), st)

		case *hir.EnumSwitch:
			if isOwned(it.Root.Type()) {
				it.Root = fdc.consume(it.Root, it.Pos(), st, out, &pre)
			}

		case *hir.IntegerSwitch:
			if isOwned(it.Root.Type()) {
				it.Root = fdc.consume(it.Root, it.Pos(), st, out, &pre)
			}

		case *hir.StringSwitch:
			if isOwned(it.Root.Type()) {
				it.Root = fdc.consume(it.Root, it.Pos(), st, out, &pre)
			}

		case *hir.BlockEnd:
			pre = fdc.dropsForScope(it.Scope.Key(), it.Pos(), st)

		case *hir.With, *hir.ReadImplicit, *hir.WriteImplicit:
			// Implicits are ambient effect handles, not move-tracked
			// places — §4.F is silent on them, so they are left alone.

		case *hir.BlockStart, *hir.Drop, *hir.DropPath, *hir.DropMetadata, *hir.RawMatch:
			// BlockStart carries no effect of its own (its matching
			// BlockEnd does the work); the rest are this pass's own
			// output or a defensive no-op, like typecheck's RawMatch case.
		}

		if out != nil && (len(pre) > 0 || len(post) > 0) {
			repl := make([]hir.Instruction, 0, len(pre)+1+len(post))
			repl = append(repl, pre...)
			repl = append(repl, inst)
			repl = append(repl, post...)
			out.Instructions = spliceAt(out.Instructions, i, repl)
			i += len(repl) - 1
		}
	}
}

// consume applies a by-value operand's ownership effect (§4.F.2/§4.F.3):
// a Copy-instance type is downgraded to a borrow, with a Ref+clone pair
// appended to *pre (emitting pass only) and the clone's destination
// returned for the caller to read instead of v; anything else is a genuine
// move, reported as use-after-move against st if its path (or an ancestor
// place) was already moved. Non-owned operands (references, Unit, ...) and
// nil are left untouched.
func (fdc *funcDropChecker) consume(v *hir.Variable, pos hir.Position, st moveState, out *hir.Block, pre *[]hir.Instruction) *hir.Variable {
	if v == nil {
		return v
	}
	t := v.Type()
	if !isOwned(t) {
		return v
	}
	if fdc.c.inst.IsCopy(fdc.u, t) {
		if out == nil {
			return v
		}
		cloneName, ok := fdc.c.inst.CloneFunctionName(fdc.u, t)
		if !ok {
			return v
		}
		refTemp := fdc.fn.Body.NewTemp(pos)
		refTemp.SetType(hir.RefType(t))
		cloneTemp := fdc.fn.Body.NewTemp(pos)
		cloneTemp.SetType(t)
		*pre = append(*pre, hir.NewRef(pos, refTemp, v.Use()))
		*pre = append(*pre, hir.NewFunctionCall(pos, cloneTemp, hir.CallInfo{Name: cloneName, Args: []*hir.Variable{refTemp.Use()}}))
		return cloneTemp.Use()
	}

	p := fdc.pathFor(v)
	if firstPos, already := st.anyAncestorMoved(p); already {
		if out != nil {
			fdc.diags = append(fdc.diags, errors.NewSemanticError(errors.ErrorAlreadyMoved,
				fmt.Sprintf("use of moved value '%s'", p.String()), unify.ToASTPos(pos)).
				WithNote(fmt.Sprintf("value moved here: %s:%d:%d", firstPos.Filename, firstPos.Line, firstPos.Column)).
				Build())
		}
		return v
	}
	st[p.Key()] = pos
	return v
}

func (fdc *funcDropChecker) markLive(p hir.Path, st moveState) {
	delete(st, p.Key())
}

// dropsForOverwrite synthesises a drop of whatever currently lives at p,
// used just before Assign/FieldAssign replace it with a new value.
func (fdc *funcDropChecker) dropsForOverwrite(p hir.Path, pos hir.Position, st moveState) []hir.Instruction {
	if p.Root == nil || !isOwned(p.Root.Type()) {
		return nil
	}
	if _, moved := st.anyAncestorMoved(p); moved {
		return nil
	}
	return fdc.dropPlace(p, pos, st)
}

// dropsForScope drops every still-live owned local declared in scope key,
// in reverse declaration order (§4.F.4: "nested-field drops happen
// inside-out" generalises to "later-declared locals are dropped first").
func (fdc *funcDropChecker) dropsForScope(key string, pos hir.Position, st moveState) []hir.Instruction {
	vars := fdc.scopeVars[key]
	var out []hir.Instruction
	for i := len(vars) - 1; i >= 0; i-- {
		v := vars[i]
		out = append(out, fdc.dropPlace(hir.RootPath(v), pos, st)...)
	}
	return fdc.filterLive(out, st)
}

// dropsForReturn drops every still-live owned local in every scope of the
// function (the outer parameter/receiver scope plus every nested one),
// since control never reaches any later BlockEnd once a function returns.
func (fdc *funcDropChecker) dropsForReturn(pos hir.Position, st moveState) []hir.Instruction {
	var out []hir.Instruction
	for _, key := range fdc.scopeKeysByDepth() {
		vars := fdc.scopeVars[key]
		for i := len(vars) - 1; i >= 0; i-- {
			out = append(out, fdc.dropPlace(hir.RootPath(vars[i]), pos, st)...)
		}
	}
	return fdc.filterLive(out, st)
}

// scopeKeysByDepth returns every known scope key with each nested scope
// ahead of the scopes enclosing it: a child's key extends its parent's key,
// so sorting the keys in descending order puts every scope before its
// ancestors. The outer (parameter) scope "" is visited last so a
// receiver/parameter is dropped after every nested local, mirroring normal
// stack unwind order.
func (fdc *funcDropChecker) scopeKeysByDepth() []string {
	keys := make([]string, 0, len(fdc.scopeVars))
	for k := range fdc.scopeVars {
		if k != "" {
			keys = append(keys, k)
		}
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] < keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	keys = append(keys, "")
	return keys
}

// dropPlace decomposes p into Drop/DropPath instructions: a whole Drop when
// nothing beneath p was moved, or a DropPath per still-owned field when a
// sibling field was (partial move, §4.F.5 — one level of decomposition).
func (fdc *funcDropChecker) dropPlace(p hir.Path, pos hir.Position, st moveState) []hir.Instruction {
	fields := ownedFieldsOf(fdc.c.prog, p.Root.Type())
	partial := false
	prefix := p.Key() + "."
	for k := range st {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			partial = true
			break
		}
	}
	if len(fields) == 0 || !partial {
		dest := fdc.fn.Body.NewTemp(pos)
		dest.SetType(&hir.Type{Kind: hir.TVoid})
		return []hir.Instruction{hir.NewDrop(pos, dest, p.Root.Use())}
	}
	var out []hir.Instruction
	for _, f := range fields {
		if !isOwned(f.Typ) {
			continue
		}
		out = append(out, hir.NewDropPath(pos, p.Root.Use(), []hir.FieldInfo{f}))
	}
	return out
}

// filterLive drops (pun intended) the synthesised instructions for any
// scope local whose path was already moved by the time control reaches
// this scope end — a moved value needs no drop, it isn't there any more.
func (fdc *funcDropChecker) filterLive(insts []hir.Instruction, st moveState) []hir.Instruction {
	var out []hir.Instruction
	for _, inst := range insts {
		if fdc.instructionIsLive(inst, st) {
			out = append(out, inst)
		}
	}
	return out
}

func (fdc *funcDropChecker) instructionIsLive(inst hir.Instruction, st moveState) bool {
	switch it := inst.(type) {
	case *hir.Drop:
		_, moved := st.anyAncestorMoved(hir.RootPath(it.Var))
		return !moved
	case *hir.DropPath:
		p := hir.RootPath(it.Root)
		for _, f := range it.Fields {
			p = p.Extend(f.Sel)
		}
		_, moved := st.anyAncestorMoved(p)
		return !moved
	default:
		return true
	}
}

func spliceAt(insts []hir.Instruction, i int, repl []hir.Instruction) []hir.Instruction {
	out := make([]hir.Instruction, 0, len(insts)-1+len(repl))
	out = append(out, insts[:i]...)
	out = append(out, repl...)
	out = append(out, insts[i+1:]...)
	return out
}
