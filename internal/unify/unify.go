// Package unify implements the middle end's equality solver: a union-find
// over hir.Type that binds fresh unification variables to resolved types,
// component-wise over tuples/functions/refs/ptrs/coroutines. Grounded on the
// teacher's internal/ir type-compatibility checks (internal/ir/types.go),
// generalized from a one-shot compatibility predicate into a stateful
// substitution the type checker commits incrementally.
package unify

import (
	"fmt"

	"kanso/internal/ast"
	"kanso/internal/errors"
	"kanso/internal/hir"
)

// Unifier owns the substitution mapping fresh type-variable ids to resolved
// types and the counter handing out new ones. One Unifier is created per
// function being type-checked (§9: "variable type cells are shared mutable
// state, but only within a single function's checker instance").
type Unifier struct {
	bindings map[uint64]*hir.Type
	nextVar  uint64
	diags    []errors.CompilerError
}

func New() *Unifier {
	return &Unifier{bindings: make(map[uint64]*hir.Type)}
}

// Diagnostics returns every type-mismatch error accumulated since New.
func (u *Unifier) Diagnostics() []errors.CompilerError { return u.diags }

// Fresh allocates a new unification variable.
func (u *Unifier) Fresh() *hir.Type {
	u.nextVar++
	return hir.FreshVar(u.nextVar)
}

// Apply fully resolves t under the current substitution. Idempotent:
// applying twice yields the same result as applying once.
func (u *Unifier) Apply(t *hir.Type) *hir.Type {
	return u.applyBounded(t, 0)
}

// applyBounded bounds recursion depth explicitly rather than relying on the
// Go call stack, per §4.B's "implementations must bound recursion" note —
// a cyclic binding (which occurs-check should prevent, but defense in depth
// for programs up to ~100k variables) degrades to returning the type as-is
// rather than overflowing the stack.
const maxApplyDepth = 10000

func (u *Unifier) applyBounded(t *hir.Type, depth int) *hir.Type {
	if t == nil || depth > maxApplyDepth {
		return t
	}
	switch t.Kind {
	case hir.TVar:
		if t.VarKind == hir.VarFresh {
			if bound, ok := u.bindings[t.VarID]; ok {
				return u.applyBounded(bound, depth+1)
			}
		}
		return t
	case hir.TNamed:
		args := make([]*hir.Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = u.applyBounded(a, depth+1)
		}
		return &hir.Type{Kind: hir.TNamed, Name: t.Name, Args: args}
	case hir.TTuple:
		elems := make([]*hir.Type, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = u.applyBounded(e, depth+1)
		}
		return &hir.Type{Kind: hir.TTuple, Elems: elems}
	case hir.TFunction:
		params := make([]*hir.Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = u.applyBounded(p, depth+1)
		}
		return &hir.Type{Kind: hir.TFunction, Params: params, Result: u.applyBounded(t.Result, depth+1)}
	case hir.TReference:
		return &hir.Type{Kind: hir.TReference, Inner: u.applyBounded(t.Inner, depth+1)}
	case hir.TPtr:
		return &hir.Type{Kind: hir.TPtr, Inner: u.applyBounded(t.Inner, depth+1)}
	case hir.TCoroutine:
		return &hir.Type{
			Kind:   hir.TCoroutine,
			Yield:  u.applyBounded(t.Yield, depth+1),
			Return: u.applyBounded(t.Return, depth+1),
		}
	default:
		return t
	}
}

// Unify walks a and b in parallel, binding fresh vars and emitting a
// type-mismatch diagnostic at loc on incompatible compound types. It always
// returns a bool (true on success) so callers that don't want the
// diagnostic side effect can ignore it and check TryUnify instead.
func (u *Unifier) Unify(a, b *hir.Type, loc hir.Position) bool {
	ok, mismatch := u.unify(a, b)
	if !ok && mismatch {
		u.diags = append(u.diags, typeMismatch(a, b, loc))
	}
	return ok
}

// TryUnify probes compatibility without committing a diagnostic; on failure
// it rolls back every binding made during the attempt, leaving the
// substitution exactly as it was. Used by converter insertion (§4.E.3) to
// check unifiability before choosing Assign vs. implicit-convert.
func (u *Unifier) TryUnify(a, b *hir.Type) bool {
	snapshot := make(map[uint64]*hir.Type, len(u.bindings))
	for k, v := range u.bindings {
		snapshot[k] = v
	}
	ok, _ := u.unify(a, b)
	if !ok {
		u.bindings = snapshot
	}
	return ok
}

// UnifyVars unifies the types of two variables and propagates the resolved
// type into both shared cells, the mechanism that makes unification visible
// across every use site without a separate substitution pass.
func (u *Unifier) UnifyVars(x, y *hir.Variable) bool {
	ok := u.Unify(x.Type(), y.Type(), x.Pos)
	x.SetType(u.Apply(x.Type()))
	y.SetType(u.Apply(y.Type()))
	return ok
}

// UpdateConverterDestination unifies src's type with want, used at return
// points and Converter lowering to pin a Converter's destination type before
// deciding its rewrite.
func (u *Unifier) UpdateConverterDestination(src *hir.Variable, want *hir.Type) bool {
	return u.Unify(src.Type(), want, src.Pos)
}

// unify is the untraced core: returns (ok, isMismatch). isMismatch is false
// when the failure was an occurs-check violation already reported at the
// bind site, so callers don't double-report.
func (u *Unifier) unify(a, b *hir.Type) (bool, bool) {
	a, b = u.Apply(a), u.Apply(b)
	if a == nil || b == nil {
		return a == b, false
	}

	if a.Kind == hir.TVar && a.VarKind == hir.VarFresh {
		return u.bindVar(a.VarID, b), true
	}
	if b.Kind == hir.TVar && b.VarKind == hir.VarFresh {
		return u.bindVar(b.VarID, a), true
	}

	// Never unifies with anything (it's the bottom type: no values of it
	// exist, so a call site typed Never always matches).
	if a.Kind == hir.TNever || b.Kind == hir.TNever {
		return true, true
	}
	// A numeric-constant literal unifies with any named type (whether that
	// type is numeric is not checked) or with another numeric constant of
	// the same value.
	if a.Kind == hir.TNumericConstant && b.Kind == hir.TNamed {
		return true, true
	}
	if b.Kind == hir.TNumericConstant && a.Kind == hir.TNamed {
		return true, true
	}

	if a.Kind != b.Kind {
		return false, true
	}

	switch a.Kind {
	case hir.TNamed:
		if a.Name != b.Name || len(a.Args) != len(b.Args) {
			return false, true
		}
		for i := range a.Args {
			if ok, mismatch := u.unify(a.Args[i], b.Args[i]); !ok {
				return false, mismatch
			}
		}
		return true, true
	case hir.TVar: // both VarNamed (quantified params): equal by name
		return a.VarName == b.VarName, true
	case hir.TNumericConstant:
		return a.Const == b.Const, true
	case hir.TTuple:
		if len(a.Elems) != len(b.Elems) {
			return false, true
		}
		for i := range a.Elems {
			if ok, mismatch := u.unify(a.Elems[i], b.Elems[i]); !ok {
				return false, mismatch
			}
		}
		return true, true
	case hir.TFunction:
		if len(a.Params) != len(b.Params) {
			return false, true
		}
		for i := range a.Params {
			if ok, mismatch := u.unify(a.Params[i], b.Params[i]); !ok {
				return false, mismatch
			}
		}
		return u.unify(a.Result, b.Result)
	case hir.TReference:
		return u.unify(a.Inner, b.Inner)
	case hir.TPtr:
		return u.unify(a.Inner, b.Inner)
	case hir.TCoroutine:
		if ok, mismatch := u.unify(a.Yield, b.Yield); !ok {
			return false, mismatch
		}
		return u.unify(a.Return, b.Return)
	case hir.TSelf, hir.TVoid:
		return true, true
	default:
		return false, true
	}
}

// bindVar binds fresh variable id to t after an occurs-check: t must not
// itself mention id, or the substitution would be infinite.
func (u *Unifier) bindVar(id uint64, t *hir.Type) bool {
	if t.Kind == hir.TVar && t.VarKind == hir.VarFresh && t.VarID == id {
		return true // already bound to itself; nothing to do
	}
	if occurs(id, t) {
		return false
	}
	u.bindings[id] = t
	return true
}

func occurs(id uint64, t *hir.Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case hir.TVar:
		return t.VarKind == hir.VarFresh && t.VarID == id
	case hir.TNamed:
		for _, a := range t.Args {
			if occurs(id, a) {
				return true
			}
		}
		return false
	case hir.TTuple:
		for _, e := range t.Elems {
			if occurs(id, e) {
				return true
			}
		}
		return false
	case hir.TFunction:
		for _, p := range t.Params {
			if occurs(id, p) {
				return true
			}
		}
		return occurs(id, t.Result)
	case hir.TReference, hir.TPtr:
		return occurs(id, t.Inner)
	case hir.TCoroutine:
		return occurs(id, t.Yield) || occurs(id, t.Return)
	default:
		return false
	}
}

// Instantiate produces a fresh copy of t with every VarNamed type parameter
// in names replaced by a brand new fresh variable, used when a generic
// function or instance's signature is invoked at a call site.
func (u *Unifier) Instantiate(t *hir.Type, subst map[string]*hir.Type) *hir.Type {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case hir.TVar:
		if t.VarKind == hir.VarNamed {
			if repl, ok := subst[t.VarName]; ok {
				return repl
			}
		}
		return t
	case hir.TNamed:
		args := make([]*hir.Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = u.Instantiate(a, subst)
		}
		return &hir.Type{Kind: hir.TNamed, Name: t.Name, Args: args}
	case hir.TTuple:
		elems := make([]*hir.Type, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = u.Instantiate(e, subst)
		}
		return &hir.Type{Kind: hir.TTuple, Elems: elems}
	case hir.TFunction:
		params := make([]*hir.Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = u.Instantiate(p, subst)
		}
		return &hir.Type{Kind: hir.TFunction, Params: params, Result: u.Instantiate(t.Result, subst)}
	case hir.TReference:
		return &hir.Type{Kind: hir.TReference, Inner: u.Instantiate(t.Inner, subst)}
	case hir.TPtr:
		return &hir.Type{Kind: hir.TPtr, Inner: u.Instantiate(t.Inner, subst)}
	case hir.TCoroutine:
		return &hir.Type{Kind: hir.TCoroutine, Yield: u.Instantiate(t.Yield, subst), Return: u.Instantiate(t.Return, subst)}
	default:
		return t
	}
}

// FreshSubst builds a names->fresh-var substitution for Instantiate, one new
// variable per quantified parameter.
func (u *Unifier) FreshSubst(names []string) map[string]*hir.Type {
	subst := make(map[string]*hir.Type, len(names))
	for _, n := range names {
		subst[n] = u.Fresh()
	}
	return subst
}

func typeMismatch(a, b *hir.Type, loc hir.Position) errors.CompilerError {
	return errors.NewSemanticError(errors.ErrorTypeMismatch,
		fmt.Sprintf("type mismatch: expected %s, found %s", a, b), ToASTPos(loc)).Build()
}

// ToASTPos converts a hir.Position (the middle end's location type) into an
// ast.Position (what the error reporter renders), the trivial field-by-field
// mapping every pass in the middle end needs when it raises a diagnostic.
func ToASTPos(p hir.Position) ast.Position {
	return ast.Position{Filename: p.Filename, Line: p.Line, Column: p.Column}
}
