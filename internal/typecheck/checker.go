// Package typecheck implements the middle end's per-function type checker
// (§4.E): it seeds fresh unification variables over a raw hir.Program,
// walks each function's block graph emitting constraints into one
// internal/unify.Unifier per function, lowers MethodCall/Bind/Converter
// away, and separates closures. Grounded on the teacher's internal/semantic
// two-pass checker (internal/semantic/analyzer.go) and internal/ir's type
// inference pass, generalized from Move/Solidity's fixed primitive type
// system into full Hindley-Milner-style unification with trait-constrained
// calls.
package typecheck

import (
	"fmt"

	"kanso/internal/builtins"
	"kanso/internal/errors"
	"kanso/internal/hir"
	"kanso/internal/instance"
	"kanso/internal/unify"
)

// Checker drives the pass over every function in a program, sharing one
// instance.Resolver (trait-instance lookups are a whole-program concern)
// while giving each function its own Unifier (§9: unification state never
// crosses a function boundary).
type Checker struct {
	prog  *hir.Program
	inst  *instance.Resolver
	diags []errors.CompilerError
}

func New(prog *hir.Program) *Checker {
	return &Checker{prog: prog, inst: instance.New(prog)}
}

func (c *Checker) Diagnostics() []errors.CompilerError { return c.diags }

// CheckProgram type-checks every function in declaration order, the same
// traversal order the resolver and match compiler use, so diagnostics from
// every pass interleave in a stable, source-order sequence.
func (c *Checker) CheckProgram() {
	for _, name := range c.prog.FunctionOrder {
		c.checkFunction(c.prog.Func(name))
	}
}

func (c *Checker) checkFunction(fn *hir.Function) {
	if fn.Body == nil {
		return
	}
	fc := &funcChecker{
		c:           c,
		fn:          fn,
		u:           unify.New(),
		mutable:     make(map[string]bool),
		fieldOrigin: make(map[string]fieldChainInfo),
		implicitMut: make(map[string]bool),
		selfType:    c.selfTypeFor(fn),
	}
	fc.initialise()
	fc.walk()
	fc.lowerClosures()
	fc.finalizeTypes()
	c.diags = append(c.diags, fc.u.Diagnostics()...)
	c.diags = append(c.diags, fc.diags...)
}

// finalizeTypes commits every variable's fully-applied type back into its
// shared cell once unification is done. Unify only ever binds the Unifier's
// own substitution map, not the cell Type() reads from, so without this a
// variable left pointing at a fresh var that later got bound would still
// read back as unresolved the moment fc.u itself goes out of scope at the
// end of this function's check — a problem the drop checker (§4.F) would
// otherwise hit immediately, since it needs a concrete type on every local
// to decide whether it owns a value at all.
func (fc *funcChecker) finalizeTypes() {
	if fc.fn.Receiver != nil {
		fc.fn.Receiver.SetType(fc.u.Apply(fc.fn.Receiver.Type()))
	}
	for _, v := range fc.fn.ParamVars {
		v.SetType(fc.u.Apply(v.Type()))
	}
	for _, id := range blockOrder(fc.fn.Body) {
		blk := fc.fn.Body.Block(id)
		for _, inst := range blk.Instructions {
			for _, v := range inst.CollectVariables() {
				v.SetType(fc.u.Apply(v.Type()))
			}
		}
	}
}

// selfTypeFor resolves Self for an instance member to the concrete type the
// enclosing instance was declared for; every other function kind (including
// trait default bodies, which are checked once generically) leaves Self
// unsubstituted, relying on the unifier's existing TSelf-unifies-with-TSelf
// rule (§4.B) to keep them well-typed in the abstract.
func (c *Checker) selfTypeFor(fn *hir.Function) *hir.Type {
	if fn.Kind != hir.KindInstanceMember {
		return nil
	}
	for _, inst := range c.prog.Instances {
		for _, qualified := range inst.Methods {
			if qualified == fn.Name && len(inst.TypeArgs) > 0 {
				return inst.TypeArgs[0]
			}
		}
	}
	return nil
}

// fieldChainInfo remembers the place a FieldRef's destination temp stands
// for, so a later MethodCall through that temp can be rewritten to write a
// mutated receiver back to the real place instead of to the throwaway temp.
type fieldChainInfo struct {
	Receiver *hir.Variable
	Fields   []hir.FieldInfo
}

// funcChecker holds one function's unification state and the side-tables
// the walk accumulates: mutability per declared local, and the
// receiver-chain map MethodCall rewriting consults (§4.E.2).
type funcChecker struct {
	c           *Checker
	fn          *hir.Function
	u           *unify.Unifier
	mutable     map[string]bool
	fieldOrigin map[string]fieldChainInfo
	implicitMut map[string]bool
	selfType    *hir.Type
	diags       []errors.CompilerError
	closures    []*hir.CreateClosure
}

func (fc *funcChecker) errorf(code string, pos hir.Position, format string, args ...interface{}) {
	fc.diags = append(fc.diags, errors.NewSemanticError(code, fmt.Sprintf(format, args...), unify.ToASTPos(pos)).Build())
}

// initialise seeds every variable mentioned anywhere in the body with a
// fresh type variable unless it already has one (parameters and the self
// receiver get their declared types instead), and records each local's
// declared mutability from the DeclareVar instructions the resolver now
// emits for every parameter, receiver and let-binding.
func (fc *funcChecker) initialise() {
	if fc.fn.Receiver != nil && fc.fn.Receiver.Type() == nil {
		rt := hir.SelfType
		if fc.selfType != nil {
			rt = fc.selfType
		}
		fc.fn.Receiver.SetType(rt)
	}
	for i, v := range fc.fn.ParamVars {
		if v.Type() != nil {
			continue
		}
		pt := fc.u.Fresh()
		if i < len(fc.fn.Signature.Params) {
			pt = fc.substSelf(fc.fn.Signature.Params[i])
		}
		v.SetType(pt)
	}

	for _, id := range blockOrder(fc.fn.Body) {
		blk := fc.fn.Body.Block(id)
		for _, inst := range blk.Instructions {
			for _, v := range inst.CollectVariables() {
				if v.Type() == nil {
					v.SetType(fc.u.Fresh())
				}
			}
			if dv, ok := inst.(*hir.DeclareVar); ok {
				fc.mutable[dv.Var.Name] = dv.Mutable
			}
		}
	}
}

// substSelf replaces every TSelf leaf in t with the concrete receiver type
// this function was checked against, leaving t unchanged when selfType is
// unknown (trait default bodies, free functions).
func (fc *funcChecker) substSelf(t *hir.Type) *hir.Type {
	if t == nil || fc.selfType == nil {
		return t
	}
	switch t.Kind {
	case hir.TSelf:
		return fc.selfType
	case hir.TNamed:
		args := make([]*hir.Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = fc.substSelf(a)
		}
		return hir.Named(t.Name, args...)
	case hir.TTuple:
		elems := make([]*hir.Type, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = fc.substSelf(e)
		}
		return hir.TupleType(elems...)
	case hir.TFunction:
		params := make([]*hir.Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = fc.substSelf(p)
		}
		return hir.FuncType(params, fc.substSelf(t.Result))
	case hir.TReference:
		return hir.RefType(fc.substSelf(t.Inner))
	case hir.TPtr:
		return hir.PtrType(fc.substSelf(t.Inner))
	case hir.TCoroutine:
		return hir.CoroutineType(fc.substSelf(t.Yield), fc.substSelf(t.Return))
	default:
		return t
	}
}

// blockOrder returns a function's block ids in numeric order — deterministic
// traversal for a pass (initialise) that doesn't care about control flow,
// only about visiting every instruction once. Go map iteration over
// Body.Blocks is intentionally randomized (see hir.Program's FunctionOrder
// comment); anything that must be deterministic sorts first.
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

func namedInt() *hir.Type    { return hir.Named(string(builtins.Int)) }
func namedBool() *hir.Type   { return hir.Named(string(builtins.Bool)) }
func namedString() *hir.Type { return hir.Named(string(builtins.String)) }
func namedU8() *hir.Type     { return hir.Named(string(builtins.U8)) }
func namedUnit() *hir.Type   { return hir.Named(string(builtins.Unit)) }
