package typecheck

import (
	"kanso/internal/errors"
	"kanso/internal/hir"
	"kanso/internal/instance"
)

// operatorTrait maps the method names resolve/func.go's binaryOpMethods and
// unaryOpMethods desugar operators to onto the trait that must declare them,
// for the one case a desugared operator call isn't a direct function: an
// operator overload supplied only by a trait instance (no free function of
// that name exists at all).
var operatorTrait = map[string]string{
	"add": "Add", "sub": "Sub", "mul": "Mul", "div": "Div", "rem": "Rem",
	"eq": "Eq", "neq": "Eq",
	"lt": "Ord", "le": "Ord", "gt": "Ord", "ge": "Ord",
	"and": "And", "or": "Or",
	"neg": "Neg", "not": "Not",
}

func (fc *funcChecker) checkFunctionCall(it *hir.FunctionCall) {
	fn, ok := fc.c.prog.Functions[it.Info.Name]
	if !ok {
		fc.resolveOperatorCall(it)
		return
	}
	fc.unifyCall(it, fn, nil)
}

// resolveOperatorCall handles a FunctionCall whose Info.Name names no
// top-level function: the resolver desugars binary/unary operators straight
// into a FunctionCall by method name (§4.E.2), and when that name isn't
// itself declared anywhere the only way it can still be valid is as a trait
// method supplied by an instance for the first argument's type.
func (fc *funcChecker) resolveOperatorCall(it *hir.FunctionCall) {
	traitName, ok := operatorTrait[it.Info.Name]
	if !ok || len(it.Info.Args) == 0 {
		fc.errorf(errors.ErrorUndefinedFunction, it.Pos(), "undefined function %q", it.Info.Name)
		return
	}
	candidate := []*hir.Type{fc.u.Apply(it.Info.Args[0].Type())}
	res := fc.c.inst.Resolve(fc.u, traitName, candidate)
	if res.Outcome != instance.Resolved {
		fc.diags = append(fc.diags, instance.Diagnose(traitName, candidate, res, it.Pos()))
		return
	}
	qualified, ok := res.Instance.Methods[it.Info.Name]
	if !ok {
		fc.errorf(errors.ErrorMissingInstanceMembers, it.Pos(), "instance of %s has no method %q", traitName, it.Info.Name)
		return
	}
	it.Info.Name = qualified
	it.Info.InstanceRefs = append(it.Info.InstanceRefs, qualified)
	fn, ok := fc.c.prog.Functions[qualified]
	if !ok {
		return
	}
	fc.unifyCall(it, fn, res.Subst)
}

// unifyCall unifies a call's arguments and destination against a callee's
// signature, instantiating the callee's own quantified type parameters
// fresh (§9: one Unifier per function, so a generic callee's parameters
// must never leak into the caller's variables) and re-checking any trait
// bounds the callee's constraint context carries. selfSubst substitutes the
// trait-instance's own Self binding first when this call was itself
// resolved through a trait instance.
func (fc *funcChecker) unifyCall(it *hir.FunctionCall, fn *hir.Function, selfSubst map[string]*hir.Type) {
	subst := fc.u.FreshSubst(fn.Signature.Constraints.TypeParams)
	for k, v := range selfSubst {
		subst[k] = v
	}

	params := fn.Signature.Params
	for i, arg := range it.Info.Args {
		if i >= len(params) {
			break
		}
		fc.u.Unify(arg.Type(), fc.u.Instantiate(params[i], subst), it.Pos())
	}

	result := fn.Signature.Result
	if fn.IsCoroutine() {
		result = hir.CoroutineType(fn.Signature.Yield, fn.Signature.Return)
		it.Info.CoroutineSpawn = true
	}
	fc.u.Unify(it.Dest.Type(), fc.u.Instantiate(result, subst), it.Pos())

	for _, bound := range fn.Signature.Constraints.Bounds {
		paramType, ok := subst[bound.TypeParam]
		if !ok {
			continue
		}
		args := append([]*hir.Type{fc.u.Apply(paramType)}, bound.TypeArgs...)
		res := fc.c.inst.Resolve(fc.u, bound.TraitName, args)
		if res.Outcome != instance.Resolved {
			fc.diags = append(fc.diags, instance.Diagnose(bound.TraitName, args, res, it.Pos()))
			continue
		}
		it.Info.InstanceRefs = append(it.Info.InstanceRefs, bound.TraitName+"#"+typeString(fc.u.Apply(paramType)))
	}
}

func (fc *funcChecker) checkDynamicCall(it *hir.DynamicFunctionCall) {
	result := fc.u.Fresh()
	params := make([]*hir.Type, len(it.Args))
	for i, a := range it.Args {
		params[i] = fc.u.Apply(a.Type())
	}
	fc.u.Unify(it.Callee.Type(), hir.FuncType(params, result), it.Pos())
	fc.u.Unify(it.Dest.Type(), result, it.Pos())
}
