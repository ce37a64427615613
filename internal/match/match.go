// Package match implements the middle end's pattern-match compiler (§4.D):
// it turns a RawMatch bridging instruction (scrutinee + ordered pattern/body
// arms, emitted by internal/resolve) into a decision tree of real HIR
// dispatch instructions — EnumSwitch, IntegerSwitch, StringSwitch, and
// Transform+FieldRef tuple/struct fan-out — plus exhaustiveness and
// redundancy diagnostics. Grounded on the teacher's old internal/semantic
// flow_analyzer.go reachability walk, generalized from statement-level
// dead-code detection into pattern-level coverage analysis.
package match

import (
	"fmt"
	"sort"

	"kanso/internal/errors"
	"kanso/internal/hir"
	"kanso/internal/unify"
)

// access describes one step from the match's scrutinee to a sub-value a
// decision-tree column reads, mirrored from §4.D.3's DataPathSegment list.
type accessKind int

const (
	accessTupleIndex accessKind = iota
	accessItemIndex              // variant payload position
	accessField
)

type access struct {
	kind  accessKind
	index int
	name  string
}

// occurrence is the running access chain from the scrutinee to one pending
// column, the runtime counterpart of a DecisionPath.
type occurrence struct {
	chain []access
}

func (o occurrence) extend(a access) occurrence {
	next := make([]access, len(o.chain)+1)
	copy(next, o.chain)
	next[len(o.chain)] = a
	return occurrence{chain: next}
}

// row is one user arm's pattern columns plus bookkeeping used by
// exhaustiveness/redundancy analysis.
type row struct {
	cols     []*hir.Pattern
	armIndex int
	hasGuard bool
}

// Compiler compiles RawMatch instructions against a program's struct/enum
// declarations, used to resolve bare variant/struct names to their
// definitions and to know an enum's total variant count for exhaustiveness.
type Compiler struct {
	prog     *hir.Program
	u        *unify.Unifier
	diags    []errors.CompilerError
	usedArms map[int]bool
}

func NewCompiler(prog *hir.Program, u *unify.Unifier) *Compiler {
	return &Compiler{prog: prog, u: u}
}

func (c *Compiler) Diagnostics() []errors.CompilerError { return c.diags }

// CompileProgram walks every function's body, replacing each RawMatch
// instruction it finds with compiled dispatch instructions. Running this
// twice on the same program is a no-op the second time (§8's idempotence
// law): once a RawMatch has been replaced, there is nothing left to find.
func (c *Compiler) CompileProgram() {
	for _, name := range c.prog.FunctionOrder {
		c.compileFunction(c.prog.Func(name))
	}
}

func (c *Compiler) compileFunction(fn *hir.Function) {
	// Collect block ids up front: compiling a match may create new blocks,
	// which must not themselves be re-scanned for RawMatch (they only ever
	// contain Jump/Switch/Transform/FieldRef instructions this pass emits).
	var ids []hir.BlockID
	for id := range fn.Body.Blocks {
		ids = append(ids, id)
	}
	for _, id := range ids {
		c.compileBlock(fn.Body, id)
	}
}

func (c *Compiler) compileBlock(body *hir.Body, id hir.BlockID) {
	blk := body.Block(id)
	for pos, inst := range blk.Instructions {
		rm, ok := inst.(*hir.RawMatch)
		if !ok {
			continue
		}
		c.usedArms = make(map[int]bool)
		desugared := desugarOr(rm.Arms)
		rows := make([]row, len(desugared))
		for i, arm := range desugared {
			rows[i] = row{cols: []*hir.Pattern{arm.Pattern}, armIndex: i, hasGuard: arm.HasGuard}
		}

		entry := c.buildNode(body, rm.Scrutinee, []occurrence{{}}, rows, desugared, rm.JoinBlock, rm.Pos())

		// Splice: replace the RawMatch at `pos` with a Jump to the tree's
		// entry block, keeping everything already in this block before it.
		cursor := body.Cursor(id)
		for i := 0; i < pos; i++ {
			cursor.Advance()
		}
		cursor.Replace(hir.NewJump(rm.Pos(), entry))

		c.reportMissingAndRedundant(desugared, rm.Pos())
	}
}

// desugaredArm is a MatchArm after or-pattern expansion: Pattern is now
// always atomic (no PatOr), Original tracks which source arm it came from so
// redundancy/missing diagnostics still point at the user's arm.
type desugaredArm struct {
	hir.MatchArm
	Original int
}

func desugarOr(arms []hir.MatchArm) []desugaredArm {
	var out []desugaredArm
	for i, arm := range arms {
		for _, alt := range flattenOr(arm.Pattern) {
			out = append(out, desugaredArm{MatchArm: hir.MatchArm{
				Pattern: alt, HasGuard: arm.HasGuard, GuardBlock: arm.GuardBlock,
				GuardVar: arm.GuardVar, BodyBlock: arm.BodyBlock,
			}, Original: i})
		}
	}
	return out
}

func flattenOr(p *hir.Pattern) []*hir.Pattern {
	if p.Kind != hir.PatOr {
		return []*hir.Pattern{p}
	}
	var out []*hir.Pattern
	for _, alt := range p.Alternates {
		out = append(out, flattenOr(alt)...)
	}
	return out
}

// buildNode is the recursive tree constructor (§4.D.5): it consumes the
// column-0 occurrence of occs against rows, emits the instructions for that
// decision into a fresh block, and recurses for each specialized case.
func (c *Compiler) buildNode(body *hir.Body, scrutinee *hir.Variable, occs []occurrence, rows []row, arms []desugaredArm, join hir.BlockID, pos hir.Position) hir.BlockID {
	blockID := body.NewBlock()

	if len(rows) == 0 {
		// No row reaches here: an uncovered case. Record a missing-pattern
		// diagnostic, except for a match with no arms at all (§8's "Match
		// on an uninhabited enum ... emits no switch arms, a terminating
		// trap" boundary behaviour), and emit a terminating trap (a jump
		// back to join with no bindings).
		if len(arms) > 0 {
			c.diags = append(c.diags, errors.NewSemanticError(errors.ErrorMissingPattern,
				"match does not cover every possible value", unify.ToASTPos(pos)).Build())
		}
		cursor := body.Cursor(blockID)
		cursor.Append(hir.NewJump(pos, join))
		return blockID
	}

	first := rows[0]
	if len(occs) == 0 || isWildcardRow(first) {
		c.usedArms[first.armIndex] = true
		target := arms[first.armIndex].BodyBlock
		c.emitBindings(body, blockID, scrutinee, occs, first.cols, pos)
		if arms[first.armIndex].HasGuard {
			// Guarded leaf: jump into the guard block; its own body, when
			// lowered by the resolver, falls through to BodyBlock on true
			// and to the next alternative's dispatch on false. We splice
			// that "next alternative" here by building the remainder of
			// the matrix and rewriting the guard block's false-edge jump
			// target to it.
			rest := c.buildNode(body, scrutinee, occs, rows[1:], arms, join, pos)
			c.wireGuardFallthrough(body, arms[first.armIndex].GuardBlock, target, rest)
			cursor := body.Cursor(blockID)
			for !cursor.AtEnd() {
				cursor.Advance()
			}
			cursor.Append(hir.NewJump(pos, arms[first.armIndex].GuardBlock))
			return blockID
		}
		cursor := body.Cursor(blockID)
		for !cursor.AtEnd() {
			cursor.Advance()
		}
		cursor.Append(hir.NewJump(pos, target))
		return blockID
	}

	occ := occs[0]
	restOccs := occs[1:]
	kind := dominantKind(rows)

	switch kind {
	case hir.PatTuple:
		return c.buildTuple(body, blockID, scrutinee, occ, restOccs, rows, arms, join, pos)
	case hir.PatStruct:
		return c.buildStruct(body, blockID, scrutinee, occ, restOccs, rows, arms, join, pos)
	case hir.PatVariant:
		return c.buildVariant(body, blockID, scrutinee, occ, restOccs, rows, arms, join, pos)
	default:
		return c.buildLiteral(body, blockID, scrutinee, occ, restOccs, rows, arms, join, pos)
	}
}

// wireGuardFallthrough appends an IntegerSwitch on the guard's result to the
// guard block: 1 jumps to onTrue, anything else to onFalse (the rest of the
// match). The resolver leaves the guard block ending right after computing
// GuardVar, with no terminator yet, for the match compiler to finish. See
// internal/resolve's match lowering.
func (c *Compiler) wireGuardFallthrough(body *hir.Body, guardBlock hir.BlockID, onTrue, onFalse hir.BlockID) {
	blk := body.Block(guardBlock)
	// The guard block's last instruction is expected to be the
	// IntegerLiteral/comparison computing GuardVar; dispatch on it.
	var guardVar *hir.Variable
	if len(blk.Instructions) > 0 {
		guardVar = blk.Instructions[len(blk.Instructions)-1].Result()
	}
	cursor := body.Cursor(guardBlock)
	for !cursor.AtEnd() {
		cursor.Advance()
	}
	cursor.Append(hir.NewIntegerSwitch(hir.Position{}, guardVar,
		[]hir.Case{{Value: int64(1), Target: onTrue}}, onFalse, true))
}

func isWildcardRow(r row) bool {
	for _, p := range r.cols {
		if p.Kind != hir.PatWildcard && p.Kind != hir.PatBind {
			return false
		}
	}
	return true
}

func dominantKind(rows []row) hir.PatternKind {
	for _, r := range rows {
		k := r.cols[0].Kind
		if k != hir.PatWildcard && k != hir.PatBind {
			return k
		}
	}
	return hir.PatWildcard
}

// specialize builds the sub-row-set for rows whose column-0 pattern matches
// constructor-shaped pred, replacing column 0 with n expanded wildcard
// columns for rows that matched via wildcard/bind (binder name recorded via
// bindAt so emission can still materialise the binding).
func specializeRows(rows []row, n int, match func(*hir.Pattern) ([]*hir.Pattern, bool)) []row {
	var out []row
	for _, r := range rows {
		head := r.cols[0]
		if head.Kind == hir.PatWildcard || head.Kind == hir.PatBind {
			sub := make([]*hir.Pattern, n)
			for i := range sub {
				sub[i] = &hir.Pattern{Kind: hir.PatWildcard, Pos: head.Pos}
			}
			out = append(out, row{cols: append(sub, r.cols[1:]...), armIndex: r.armIndex, hasGuard: r.hasGuard})
			continue
		}
		if subpats, ok := match(head); ok {
			out = append(out, row{cols: append(append([]*hir.Pattern{}, subpats...), r.cols[1:]...), armIndex: r.armIndex, hasGuard: r.hasGuard})
		}
	}
	return out
}

func defaultRows(rows []row) []row {
	var out []row
	for _, r := range rows {
		if r.cols[0].Kind == hir.PatWildcard || r.cols[0].Kind == hir.PatBind {
			out = append(out, row{cols: r.cols[1:], armIndex: r.armIndex, hasGuard: r.hasGuard})
		}
	}
	return out
}

func (c *Compiler) buildTuple(body *hir.Body, blockID hir.BlockID, scrutinee *hir.Variable, occ occurrence, restOccs []occurrence, rows []row, arms []desugaredArm, join hir.BlockID, pos hir.Position) hir.BlockID {
	n := 0
	for _, r := range rows {
		if r.cols[0].Kind == hir.PatTuple {
			n = len(r.cols[0].Elements)
			break
		}
	}
	subOccs := make([]occurrence, n)
	for i := 0; i < n; i++ {
		subOccs[i] = occ.extend(access{kind: accessTupleIndex, index: i})
	}
	newRows := specializeRows(rows, n, func(p *hir.Pattern) ([]*hir.Pattern, bool) {
		if p.Kind != hir.PatTuple {
			return nil, false
		}
		return p.Elements, true
	})
	target := c.buildNode(body, scrutinee, append(subOccs, restOccs...), newRows, arms, join, pos)

	root := c.readOccurrence(body, blockID, scrutinee, occ, pos)
	c.fanOutToVars(body, blockID, root, n, pos, func(i int) access { return access{kind: accessTupleIndex, index: i} })
	cursor := body.Cursor(blockID)
	for !cursor.AtEnd() {
		cursor.Advance()
	}
	cursor.Append(hir.NewJump(pos, target))
	return blockID
}

func (c *Compiler) buildStruct(body *hir.Body, blockID hir.BlockID, scrutinee *hir.Variable, occ occurrence, restOccs []occurrence, rows []row, arms []desugaredArm, join hir.BlockID, pos hir.Position) hir.BlockID {
	var fieldNames []string
	for _, r := range rows {
		if r.cols[0].Kind == hir.PatStruct {
			fieldNames = r.cols[0].FieldNames
			break
		}
	}
	n := len(fieldNames)
	subOccs := make([]occurrence, n)
	for i, fn := range fieldNames {
		subOccs[i] = occ.extend(access{kind: accessField, name: fn})
	}
	newRows := specializeRows(rows, n, func(p *hir.Pattern) ([]*hir.Pattern, bool) {
		if p.Kind != hir.PatStruct {
			return nil, false
		}
		return p.Elements, true
	})
	target := c.buildNode(body, scrutinee, append(subOccs, restOccs...), newRows, arms, join, pos)

	cursor := body.Cursor(blockID)
	cursor.Append(hir.NewJump(pos, target))
	return blockID
}

func (c *Compiler) buildVariant(body *hir.Body, blockID hir.BlockID, scrutinee *hir.Variable, occ occurrence, restOccs []occurrence, rows []row, arms []desugaredArm, join hir.BlockID, pos hir.Position) hir.BlockID {
	enumName := ""
	for _, r := range rows {
		if r.cols[0].Kind == hir.PatVariant {
			enumName = r.cols[0].EnumName
			if enumName == "" {
				enumName = c.lookupEnumByVariant(r.cols[0].Variant)
			}
			break
		}
	}
	enumDef := c.prog.Enums[enumName]

	seen := map[string]bool{}
	var variantNames []string
	for _, r := range rows {
		if r.cols[0].Kind == hir.PatVariant && !seen[r.cols[0].Variant] {
			seen[r.cols[0].Variant] = true
			variantNames = append(variantNames, r.cols[0].Variant)
		}
	}
	sort.Strings(variantNames)

	root := c.readOccurrence(body, blockID, scrutinee, occ, pos)
	var cases []hir.EnumCase
	for _, vname := range variantNames {
		vIdx, arity := variantInfo(enumDef, vname)
		subOccs := make([]occurrence, arity)
		for i := 0; i < arity; i++ {
			subOccs[i] = occ.extend(access{kind: accessItemIndex, index: i})
		}
		vname := vname
		newRows := specializeRows(rows, arity, func(p *hir.Pattern) ([]*hir.Pattern, bool) {
			if p.Kind != hir.PatVariant || p.Variant != vname {
				return nil, false
			}
			return p.Elements, true
		})
		caseBlock := c.buildNode(body, scrutinee, append(subOccs, restOccs...), newRows, arms, join, pos)

		payloadDest := body.NewTemp(pos)
		fanBlock := body.NewBlock()
		fanCursor := body.Cursor(fanBlock)
		fanCursor.Append(hir.NewTransform(pos, payloadDest, root, vIdx))
		fanCursor.Append(hir.NewJump(pos, caseBlock))

		cases = append(cases, hir.EnumCase{VariantIndex: vIdx, Target: fanBlock})
	}

	hasDefault := enumDef == nil || len(cases) >= len(enumDef.Variants)
	var defaultTarget hir.BlockID
	if !hasDefault {
		defRows := defaultRows(rows)
		defaultTarget = c.buildNode(body, scrutinee, restOccs, defRows, arms, join, pos)
	}

	cursor := body.Cursor(blockID)
	if !hasDefault {
		cases = append(cases, hir.EnumCase{VariantIndex: -1, Target: defaultTarget})
	}
	cursor.Append(hir.NewEnumSwitch(pos, root, cases))
	return blockID
}

func variantInfo(def *hir.EnumDef, name string) (index, arity int) {
	if def == nil {
		return 0, 0
	}
	for i, v := range def.Variants {
		if v.Name == name {
			return i, len(v.Fields)
		}
	}
	return 0, 0
}

func (c *Compiler) lookupEnumByVariant(variant string) string {
	for name, def := range c.prog.Enums {
		for _, v := range def.Variants {
			if v.Name == variant {
				return name
			}
		}
	}
	return ""
}

func (c *Compiler) buildLiteral(body *hir.Body, blockID hir.BlockID, scrutinee *hir.Variable, occ occurrence, restOccs []occurrence, rows []row, arms []desugaredArm, join hir.BlockID, pos hir.Position) hir.BlockID {
	root := c.readOccurrence(body, blockID, scrutinee, occ, pos)

	kind := rows[0].cols[0].Kind
	for _, r := range rows {
		if r.cols[0].Kind != hir.PatWildcard && r.cols[0].Kind != hir.PatBind {
			kind = r.cols[0].Kind
			break
		}
	}

	type litKey struct {
		i int64
		s string
	}
	seen := map[litKey]bool{}
	var keys []litKey
	for _, r := range rows {
		p := r.cols[0]
		if p.Kind != kind {
			continue
		}
		var k litKey
		switch kind {
		case hir.PatLiteralInt:
			k = litKey{i: p.IntValue}
		case hir.PatLiteralString:
			k = litKey{s: p.StringValue}
		case hir.PatLiteralBool:
			v := int64(0)
			if p.BoolValue {
				v = 1
			}
			k = litKey{i: v}
		}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	var cases []hir.Case
	for _, k := range keys {
		newRows := specializeRows(rows, 0, func(p *hir.Pattern) ([]*hir.Pattern, bool) {
			if p.Kind != kind {
				return nil, false
			}
			var pk litKey
			switch kind {
			case hir.PatLiteralInt:
				pk = litKey{i: p.IntValue}
			case hir.PatLiteralString:
				pk = litKey{s: p.StringValue}
			case hir.PatLiteralBool:
				v := int64(0)
				if p.BoolValue {
					v = 1
				}
				pk = litKey{i: v}
			}
			if pk != k {
				return nil, false
			}
			return nil, true
		})
		target := c.buildNode(body, scrutinee, restOccs, newRows, arms, join, pos)
		var value interface{}
		if kind == hir.PatLiteralString {
			value = k.s
		} else {
			value = k.i
		}
		cases = append(cases, hir.Case{Value: value, Target: target})
	}

	defRows := defaultRows(rows)
	hasDefault := kind == hir.PatLiteralBool && len(keys) >= 2
	var defaultTarget hir.BlockID
	if len(defRows) > 0 || !hasDefault {
		defaultTarget = c.buildNode(body, scrutinee, restOccs, defRows, arms, join, pos)
		hasDefault = true
	}

	cursor := body.Cursor(blockID)
	if kind == hir.PatLiteralString {
		cursor.Append(hir.NewStringSwitch(pos, root, cases, defaultTarget, hasDefault))
	} else {
		cursor.Append(hir.NewIntegerSwitch(pos, root, cases, defaultTarget, hasDefault))
	}
	return blockID
}

// readOccurrence materialises the value at occ by re-reading it from
// scrutinee every time it is needed, rather than caching a single variable
// per occurrence: occurrences can be visited from more than one predecessor
// block in the tree (e.g. both a literal-switch default and each case lead
// to the same nested tuple fan-out), so each visiting block emits its own
// FieldRef/Transform chain into a fresh temp.
func (c *Compiler) readOccurrence(body *hir.Body, blockID hir.BlockID, scrutinee *hir.Variable, occ occurrence, pos hir.Position) *hir.Variable {
	if len(occ.chain) == 0 {
		return scrutinee
	}
	cursor := body.Cursor(blockID)
	for !cursor.AtEnd() {
		cursor.Advance()
	}
	cur := scrutinee
	for _, a := range occ.chain {
		dest := body.NewTemp(pos)
		switch a.kind {
		case accessTupleIndex:
			cursor.Append(hir.NewFieldRef(pos, dest, cur, []hir.FieldInfo{{Sel: hir.IndexSelector(a.index)}}))
		case accessField:
			cursor.Append(hir.NewFieldRef(pos, dest, cur, []hir.FieldInfo{{Sel: hir.NamedSelector(a.name)}}))
		case accessItemIndex:
			cursor.Append(hir.NewFieldRef(pos, dest, cur, []hir.FieldInfo{{Sel: hir.IndexSelector(a.index)}}))
		}
		cur = dest
	}
	return cur
}

func (c *Compiler) fanOutToVars(body *hir.Body, blockID hir.BlockID, root *hir.Variable, n int, pos hir.Position, accessAt func(int) access) {
	cursor := body.Cursor(blockID)
	for !cursor.AtEnd() {
		cursor.Advance()
	}
	for i := 0; i < n; i++ {
		dest := body.NewTemp(pos)
		a := accessAt(i)
		cursor.Append(hir.NewFieldRef(pos, dest, root, []hir.FieldInfo{{Sel: hir.IndexSelector(a.index)}}))
	}
}

// emitBindings binds each remaining Bind-kind column by assigning the value
// at its occurrence into the pattern's BindVar: the canonical Variable the
// resolver registered for that name and lowered the arm's
// BodyBlock/GuardBlock against, so the arm observes it like any other
// local. Columns that are Wildcard need no instruction.
func (c *Compiler) emitBindings(body *hir.Body, blockID hir.BlockID, scrutinee *hir.Variable, occs []occurrence, cols []*hir.Pattern, pos hir.Position) {
	for i, p := range cols {
		if p.Kind != hir.PatBind || i >= len(occs) {
			continue
		}
		if p.BindVar == nil {
			continue
		}
		src := c.readOccurrence(body, blockID, scrutinee, occs[i], pos)
		cursor := body.Cursor(blockID)
		cursor.Append(hir.NewAssign(pos, p.BindVar, src.Use()))
	}
}

func (c *Compiler) reportMissingAndRedundant(arms []desugaredArm, pos hir.Position) {
	for i, arm := range arms {
		if !c.usedArms[i] {
			c.diags = append(c.diags, errors.NewSemanticError(errors.ErrorRedundantPattern,
				fmt.Sprintf("unreachable pattern at arm %d", arm.Original), unify.ToASTPos(arm.Pattern.Pos)).Build())
		}
	}
}
