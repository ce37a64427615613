package resolve

import (
	"kanso/internal/ast"
	"kanso/internal/builtins"
	"kanso/internal/errors"
	"kanso/internal/hir"
)

// binaryOpMethods maps a surface operator token to the trait method name it
// desugars into. There is no dedicated arithmetic instruction in the HIR
// instruction set (§6): every operator compiles through the same
// FunctionCall + trait-instance-resolution path a user-written method call
// would, resolved later by internal/instance against the operand types —
// consistent with the language exposing arithmetic as ordinary trait
// methods (Add, Eq, Ord, ...) rather than as compiler magic.
var binaryOpMethods = map[string]string{
	"+": "add", "-": "sub", "*": "mul", "/": "div", "%": "rem",
	"==": "eq", "!=": "neq", "<": "lt", "<=": "le", ">": "gt", ">=": "ge",
	"&&": "and", "||": "or",
}

var unaryOpMethods = map[string]string{
	"-": "neg", "!": "not",
}

// funcResolver lowers one function body, tracking the lexical scope stack
// and the block currently being appended to. A new funcResolver is created
// per function; nothing about it is shared across functions, mirroring the
// unifier's "one Unifier per function" rule.
type funcResolver struct {
	r    *Resolver
	fn   *hir.Function
	body *hir.Body
	cur  hir.BlockID

	scopes []map[string]*hir.Variable

	// scopeIDs mirrors scopes with the SyntaxBlockId each frame was opened
	// under (§3's "hierarchical identifier marking lexical scope nesting").
	// The root frame (the function's receiver/param scope) is never wrapped
	// in an explicit BlockStart/BlockEnd pair — its exit coincides with the
	// function's Return, which the drop checker (§4.F.2) handles by
	// dropping every enclosing scope rather than waiting for a BlockEnd.
	scopeIDs     []hir.SyntaxBlockId
	childCounter map[string]uint32
}

func (r *Resolver) lowerFunctionBody(fn *hir.Function, receiver *ast.FunctionParam, hasReceiver bool, params []*ast.FunctionParam, body *ast.Block) {
	if body == nil {
		return
	}
	fr := &funcResolver{
		r: r, fn: fn, body: fn.Body, cur: fn.Body.Entry,
		scopeIDs:     []hir.SyntaxBlockId{hir.RootSyntaxBlock()},
		childCounter: make(map[string]uint32),
	}
	fr.pushScope()
	defer fr.popScope()

	if hasReceiver {
		pos := hir.Position{}
		mutable := false
		if receiver != nil {
			pos = toHirPos(receiver.Pos)
			mutable = receiver.Mutable
		}
		self := hir.NewVariable("self", pos)
		fn.Receiver = self
		fn.ReceiverMutable = mutable
		fr.define("self", self)
		fr.emit(hir.NewDeclareVar(pos, self, mutable))
	}
	fn.ParamVars = make([]*hir.Variable, len(params))
	for i, p := range params {
		v := hir.NewVariable(p.Name.Value, toHirPos(p.Pos))
		fn.ParamVars[i] = v
		fr.define(p.Name.Value, v)
		fr.emit(hir.NewDeclareVar(toHirPos(p.Pos), v, p.Mutable))
	}

	fr.lowerBlock(body)

	blk := fr.body.Block(fr.cur)
	if len(blk.Instructions) == 0 || !blk.Instructions[len(blk.Instructions)-1].IsTerminator() {
		fr.emit(hir.NewReturn(hir.Position{}, fr.body.NewTemp(hir.Position{}), nil))
	}
}

func (fr *funcResolver) pushScope() { fr.scopes = append(fr.scopes, map[string]*hir.Variable{}) }
func (fr *funcResolver) popScope()  { fr.scopes = fr.scopes[:len(fr.scopes)-1] }

// pushScopeID allocates the next child SyntaxBlockId under the current
// innermost scope and pushes it, returning the new id for the caller to
// stamp onto a BlockStart.
func (fr *funcResolver) pushScopeID() hir.SyntaxBlockId {
	parent := fr.scopeIDs[len(fr.scopeIDs)-1]
	n := fr.childCounter[parent.Key()]
	fr.childCounter[parent.Key()] = n + 1
	child := parent.Child(n)
	fr.scopeIDs = append(fr.scopeIDs, child)
	return child
}

func (fr *funcResolver) popScopeID() { fr.scopeIDs = fr.scopeIDs[:len(fr.scopeIDs)-1] }

// emitBlockEnd appends a BlockEnd for scope unless the current block already
// ended in a terminator (an explicit early return, say) — appending after a
// terminator would violate the one-terminator-per-block CFG invariant every
// other pass relies on.
func (fr *funcResolver) emitBlockEnd(pos hir.Position, scope hir.SyntaxBlockId) {
	blk := fr.body.Block(fr.cur)
	if n := len(blk.Instructions); n > 0 && blk.Instructions[n-1].IsTerminator() {
		return
	}
	fr.emit(hir.NewBlockEnd(pos, scope))
}

func (fr *funcResolver) define(name string, v *hir.Variable) {
	fr.scopes[len(fr.scopes)-1][name] = v
}

func (fr *funcResolver) lookup(name string) (*hir.Variable, bool) {
	for i := len(fr.scopes) - 1; i >= 0; i-- {
		if v, ok := fr.scopes[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (fr *funcResolver) emit(inst hir.Instruction) {
	fr.body.Cursor(fr.cur).Append(inst)
}

func (fr *funcResolver) newBlock() hir.BlockID { return fr.body.NewBlock() }

func (fr *funcResolver) errorf(pos hir.Position, code, format string, args ...interface{}) {
	fr.r.errorf(fromHirPos(pos), code, format, args...)
}

// --- Statements ---

func (fr *funcResolver) lowerBlock(blk *ast.Block) {
	fr.pushScope()
	defer fr.popScope()
	id := fr.pushScopeID()
	defer fr.popScopeID()

	fr.emit(hir.NewBlockStart(toHirPos(blk.Pos), id))
	for _, s := range blk.Stmts {
		fr.lowerStmt(s)
	}
	fr.emitBlockEnd(toHirPos(blk.EndPos), id)
}

func (fr *funcResolver) lowerStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.ExprStmt:
		fr.lowerExpr(st.X)
	case *ast.ReturnStmt:
		pos := toHirPos(st.Pos)
		var v *hir.Variable
		if st.Value != nil {
			v = fr.lowerExpr(st.Value)
		}
		fr.emit(hir.NewReturn(pos, fr.body.NewTemp(pos), v))
	case *ast.YieldStmt:
		pos := toHirPos(st.Pos)
		v := fr.lowerExpr(st.Value)
		fr.emit(hir.NewYield(pos, fr.body.NewTemp(pos), v))
	case *ast.LetStmt:
		fr.lowerLet(st)
	case *ast.AssignStmt:
		fr.lowerAssign(st)
	}
}

func (fr *funcResolver) lowerLet(st *ast.LetStmt) {
	pos := toHirPos(st.Pos)
	val := fr.lowerExpr(st.Value)

	if bind, ok := st.Pattern.(*ast.BindPattern); ok {
		v := hir.NewVariable(bind.Name.Value, pos)
		fr.emit(hir.NewDeclareVar(pos, v, st.Mutable || bind.Mutable))
		fr.emit(hir.NewBind(pos, v, val, st.Mutable || bind.Mutable))
		fr.define(bind.Name.Value, v)
		return
	}
	if _, ok := st.Pattern.(*ast.WildcardPattern); ok {
		return
	}

	// A refutable-shaped pattern used in an irrefutable position (let):
	// compiled as a single-arm RawMatch whose one arm is this block's
	// continuation. internal/match still runs its usual exhaustiveness
	// check over it, so a genuinely-refutable let pattern (e.g.
	// `let Some(n) = opt`) is reported as a missing-pattern diagnostic
	// rather than silently accepted.
	joinBlock := fr.newBlock()
	bodyBlock := fr.newBlock()

	savedCur := fr.cur
	fr.cur = bodyBlock
	pat := fr.convertPattern(st.Pattern)
	fr.cur = savedCur

	dest := fr.body.NewTemp(pos)
	arm := hir.MatchArm{Pattern: pat, BodyBlock: bodyBlock}
	fr.emit(hir.NewRawMatch(pos, dest, val, []hir.MatchArm{arm}, joinBlock))

	fr.cur = bodyBlock
	fr.emit(hir.NewJump(pos, joinBlock))
	fr.cur = joinBlock
}

func (fr *funcResolver) lowerAssign(st *ast.AssignStmt) {
	pos := toHirPos(st.Pos)
	val := fr.lowerExpr(st.Value)

	switch target := st.Target.(type) {
	case *ast.IdentExpr:
		existing, ok := fr.lookup(target.Name.Value)
		if !ok {
			fr.errorf(pos, errors.ErrorUnknownValue, "assignment to undeclared variable %q", target.Name.Value)
			return
		}
		fr.emit(hir.NewAssign(pos, existing, val))
	case *ast.FieldAccessExpr:
		receiver, fields := fr.lowerFieldChain(target)
		fr.emit(hir.NewFieldAssign(pos, receiver, val, fields))
	default:
		fr.errorf(pos, errors.ErrorInvalidAssignmentTarget, "invalid assignment target")
	}
}

// lowerFieldChain flattens a (possibly nested) FieldAccessExpr into its
// ultimate receiver variable and an ordered FieldInfo chain, so
// `a.b.c = x` becomes one FieldAssign instead of a cascade of LoadPtr/Assign
// pairs.
func (fr *funcResolver) lowerFieldChain(e *ast.FieldAccessExpr) (*hir.Variable, []hir.FieldInfo) {
	var fields []hir.FieldInfo
	cur := ast.Expr(e)
	for {
		fa, ok := cur.(*ast.FieldAccessExpr)
		if !ok {
			break
		}
		fields = append([]hir.FieldInfo{{Sel: hir.NamedSelector(fa.Name.Value)}}, fields...)
		cur = fa.Receiver
	}
	receiver := fr.lowerExpr(cur)
	return receiver, fields
}

// --- Expressions ---

func (fr *funcResolver) lowerExpr(e ast.Expr) *hir.Variable {
	pos := toHirPos(e.NodePos())
	switch ex := e.(type) {
	case *ast.LiteralExpr:
		return fr.lowerLiteral(ex)
	case *ast.IdentExpr:
		if v, ok := fr.lookup(ex.Name.Value); ok {
			return v.Use()
		}
		if _, ok := fr.r.prog.Implicits[ex.Name.Value]; ok {
			dest := fr.body.NewTemp(pos)
			fr.emit(hir.NewReadImplicit(pos, dest, ex.Name.Value))
			return dest
		}
		fr.errorf(pos, errors.ErrorUnknownValue, "undefined value %q", ex.Name.Value)
		return fr.body.NewTemp(pos)
	case *ast.ParenExpr:
		return fr.lowerExpr(ex.X)
	case *ast.RefExpr:
		src := fr.lowerExpr(ex.X)
		dest := fr.body.NewTemp(pos)
		fr.emit(hir.NewRef(pos, dest, src))
		return dest
	case *ast.TupleExpr:
		elems := make([]*hir.Variable, len(ex.Elements))
		for i, el := range ex.Elements {
			elems[i] = fr.lowerExpr(el)
		}
		dest := fr.body.NewTemp(pos)
		fr.emit(hir.NewTuple(pos, dest, elems))
		return dest
	case *ast.BinaryExpr:
		left := fr.lowerExpr(ex.Left)
		right := fr.lowerExpr(ex.Right)
		name, ok := binaryOpMethods[ex.Op]
		if !ok {
			fr.errorf(pos, errors.ErrorInvalidOperation, "unsupported binary operator %q", ex.Op)
			name = ex.Op
		}
		dest := fr.body.NewTemp(pos)
		fr.emit(hir.NewFunctionCall(pos, dest, hir.CallInfo{Name: name, Args: []*hir.Variable{left, right}}))
		return dest
	case *ast.UnaryExpr:
		x := fr.lowerExpr(ex.X)
		name, ok := unaryOpMethods[ex.Op]
		if !ok {
			fr.errorf(pos, errors.ErrorInvalidOperation, "unsupported unary operator %q", ex.Op)
			name = ex.Op
		}
		dest := fr.body.NewTemp(pos)
		fr.emit(hir.NewFunctionCall(pos, dest, hir.CallInfo{Name: name, Args: []*hir.Variable{x}}))
		return dest
	case *ast.CallExpr:
		return fr.lowerCall(ex)
	case *ast.MethodCallExpr:
		receiver := fr.lowerExpr(ex.Receiver)
		args := make([]*hir.Variable, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = fr.lowerExpr(a)
		}
		dest := fr.body.NewTemp(pos)
		fr.emit(hir.NewMethodCall(pos, dest, receiver, ex.Name.Value, args))
		return dest
	case *ast.FieldAccessExpr:
		receiver, fields := fr.lowerFieldChain(ex)
		dest := fr.body.NewTemp(pos)
		fr.emit(hir.NewFieldRef(pos, dest, receiver, fields))
		return dest
	case *ast.StructLiteralExpr:
		return fr.lowerStructLiteral(ex)
	case *ast.MatchExpr:
		return fr.lowerMatch(ex)
	case *ast.BadExpr:
		return fr.body.NewTemp(pos)
	default:
		return fr.body.NewTemp(pos)
	}
}

func (fr *funcResolver) lowerLiteral(ex *ast.LiteralExpr) *hir.Variable {
	pos := toHirPos(ex.Pos)
	dest := fr.body.NewTemp(pos)
	switch ex.Kind {
	case ast.LitInt:
		fr.emit(hir.NewIntegerLiteral(pos, dest, parseIntLiteral(ex.Raw)))
	case ast.LitString:
		fr.emit(hir.NewStringLiteral(pos, dest, ex.Raw))
	case ast.LitChar:
		var b byte
		if len(ex.Raw) > 0 {
			b = ex.Raw[0]
		}
		fr.emit(hir.NewCharLiteral(pos, dest, b))
	case ast.LitBool:
		v := int64(0)
		if ex.Raw == "true" {
			v = 1
		}
		fr.emit(hir.NewIntegerLiteral(pos, dest, v))
		// Bool has no dedicated literal instruction — it rides IntegerLiteral's
		// 0/1 encoding (the match compiler's PatLiteralBool does the same via
		// IntegerSwitch) — but the surface type is still Bool, not Int, so the
		// type checker's generic IntegerLiteral-to-Int rule must not overwrite
		// this. Pre-seed the concrete type here.
		dest.SetType(hir.Named(string(builtins.Bool)))
	}
	return dest
}

// lowerCall resolves a CallExpr against the flat function namespace
// (qualified name when Callee.Module is set, else the bare name — this
// transparently reaches struct/variant constructor functions registered
// during declaration, since a surface `Some(5)` parses as an ordinary
// CallExpr).
func (fr *funcResolver) lowerCall(ex *ast.CallExpr) *hir.Variable {
	pos := toHirPos(ex.Pos)
	args := make([]*hir.Variable, len(ex.Args))
	for i, a := range ex.Args {
		args[i] = fr.lowerExpr(a)
	}
	name := ex.Callee.Name.Value
	qualifiedName := name
	if ex.Callee.Module.Value != "" {
		qualifiedName = ex.Callee.Module.Value + "::" + name
	}
	if _, ok := fr.r.prog.Functions[qualifiedName]; !ok {
		if _, ok := fr.r.prog.Functions[name]; !ok {
			fr.errorf(pos, errors.ErrorUndefinedFunction, "undefined function %q", name)
		} else {
			qualifiedName = name
		}
	}
	dest := fr.body.NewTemp(pos)
	fr.emit(hir.NewFunctionCall(pos, dest, hir.CallInfo{Name: qualifiedName, Args: args}))
	return dest
}

func (fr *funcResolver) lowerStructLiteral(ex *ast.StructLiteralExpr) *hir.Variable {
	pos := toHirPos(ex.Pos)
	def, ok := fr.r.prog.Structs[ex.TypeName.Value]
	dest := fr.body.NewTemp(pos)
	if !ok {
		fr.errorf(pos, errors.ErrorInvalidConstructor, "unknown struct %q", ex.TypeName.Value)
		return dest
	}

	provided := make(map[string]*hir.Variable, len(ex.Fields))
	for _, f := range ex.Fields {
		if _, dup := provided[f.Name.Value]; dup {
			fr.errorf(pos, errors.ErrorDuplicateField, "duplicate field %q in struct literal", f.Name.Value)
			continue
		}
		provided[f.Name.Value] = fr.lowerExpr(f.Value)
	}

	args := make([]*hir.Variable, len(def.Fields))
	for i, fd := range def.Fields {
		v, ok := provided[fd.Name]
		if !ok {
			fr.errorf(pos, errors.ErrorMissingField, "missing field %q in %s literal", fd.Name, ex.TypeName.Value)
			v = fr.body.NewTemp(pos)
		}
		args[i] = v
	}

	ctorName := ex.TypeName.Value + "::new"
	fr.emit(hir.NewFunctionCall(pos, dest, hir.CallInfo{Name: ctorName, Args: args}))
	return dest
}

// lowerMatch builds a RawMatch: each arm gets its own pre-built guard/body
// blocks (lowered here, against a scope where every bind pattern's name
// already resolves to its canonical Variable), leaving internal/match the
// sole job of deciding *which* dispatch instructions route the scrutinee
// into them.
func (fr *funcResolver) lowerMatch(ex *ast.MatchExpr) *hir.Variable {
	pos := toHirPos(ex.Pos)
	scrutinee := fr.lowerExpr(ex.Scrutinee)
	dest := fr.body.NewTemp(pos)
	joinBlock := fr.newBlock()

	arms := make([]hir.MatchArm, len(ex.Arms))
	savedCur := fr.cur
	for i, a := range ex.Arms {
		fr.pushScope()
		pat := fr.convertPattern(a.Pattern)

		arm := hir.MatchArm{Pattern: pat}
		if a.Guard != nil {
			guardBlock := fr.newBlock()
			fr.cur = guardBlock
			guardVar := fr.lowerExpr(a.Guard)
			arm.HasGuard = true
			arm.GuardBlock = guardBlock
			arm.GuardVar = guardVar
		}

		bodyBlock := fr.newBlock()
		fr.cur = bodyBlock
		val := fr.lowerExpr(a.Body)
		fr.emit(hir.NewAssign(toHirPos(a.Body.NodePos()), dest, val))
		fr.emit(hir.NewJump(toHirPos(a.Body.NodePos()), joinBlock))
		arm.BodyBlock = bodyBlock

		arms[i] = arm
		fr.popScope()
	}
	fr.cur = savedCur

	fr.emit(hir.NewRawMatch(pos, dest, scrutinee, arms, joinBlock))
	fr.cur = joinBlock
	return dest
}

// --- Patterns ---

// convertPattern lowers a surface pattern into hir.Pattern, registering
// every name it binds into the current (innermost) scope as a canonical
// Variable — callers are expected to have already pushed the scope the
// pattern's binder names should live in (the arm's guard/body scope) before
// calling this.
func (fr *funcResolver) convertPattern(p ast.Pattern) *hir.Pattern {
	pos := toHirPos(p.NodePos())
	switch pt := p.(type) {
	case *ast.WildcardPattern:
		return &hir.Pattern{Kind: hir.PatWildcard, Pos: pos}
	case *ast.BindPattern:
		v := hir.NewVariable(pt.Name.Value, pos)
		fr.define(pt.Name.Value, v)
		return &hir.Pattern{Kind: hir.PatBind, Pos: pos, BindName: pt.Name.Value, BindVar: v, Mutable: pt.Mutable}
	case *ast.LiteralPattern:
		switch pt.Kind {
		case ast.LitInt:
			return &hir.Pattern{Kind: hir.PatLiteralInt, Pos: pos, IntValue: parseIntLiteral(pt.Raw)}
		case ast.LitBool:
			return &hir.Pattern{Kind: hir.PatLiteralBool, Pos: pos, BoolValue: pt.Raw == "true"}
		default:
			return &hir.Pattern{Kind: hir.PatLiteralString, Pos: pos, StringValue: pt.Raw}
		}
	case *ast.VariantPattern:
		elems := make([]*hir.Pattern, len(pt.SubPatterns))
		for i, sp := range pt.SubPatterns {
			elems[i] = fr.convertPattern(sp)
		}
		return &hir.Pattern{
			Kind: hir.PatVariant, Pos: pos,
			EnumName: pt.EnumName.Value, Variant: pt.Variant.Value, Elements: elems,
		}
	case *ast.TuplePattern:
		elems := make([]*hir.Pattern, len(pt.Elements))
		for i, el := range pt.Elements {
			elems[i] = fr.convertPattern(el)
		}
		return &hir.Pattern{Kind: hir.PatTuple, Pos: pos, Elements: elems}
	case *ast.StructPattern:
		names := make([]string, len(pt.Fields))
		elems := make([]*hir.Pattern, len(pt.Fields))
		for i, f := range pt.Fields {
			names[i] = f.Name.Value
			elems[i] = fr.convertPattern(f.Pattern)
		}
		return &hir.Pattern{Kind: hir.PatStruct, Pos: pos, StructName: pt.TypeName.Value, FieldNames: names, Elements: elems}
	case *ast.OrPattern:
		alts := make([]*hir.Pattern, len(pt.Alternates))
		for i, a := range pt.Alternates {
			alts[i] = fr.convertPattern(a)
		}
		return &hir.Pattern{Kind: hir.PatOr, Pos: pos, Alternates: alts}
	default:
		return &hir.Pattern{Kind: hir.PatWildcard, Pos: pos}
	}
}
