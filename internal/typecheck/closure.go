package typecheck

import "kanso/internal/hir"

// lowerClosures performs closure separation (§4.E.4) over every CreateClosure
// the walk collected. No surface lambda syntax exists in this grammar yet
// (see DESIGN.md), so internal/resolve never actually emits a CreateClosure
// and fc.closures is always empty in practice; the mechanism is still built
// out in full, rather than stubbed, so a future lambda surface form only
// needs to emit the instruction, not a new lowering pass.
//
// Separation here means: type the closure value itself as a function type
// discriminated by the lambda it names, and unify each capture against the
// corresponding parameter of the already-separated lambda function (itself
// type-checked independently as its own hir.Function, KindLambda, elsewhere
// in CheckProgram's walk over FunctionOrder).
func (fc *funcChecker) lowerClosures() {
	for _, cc := range fc.closures {
		fc.typeClosure(cc)
	}
}

func (fc *funcChecker) typeClosure(cc *hir.CreateClosure) {
	lambda, ok := fc.c.prog.Functions[cc.Info.LambdaName]
	if !ok {
		return
	}
	params := make([]*hir.Type, len(lambda.Signature.Params))
	copy(params, lambda.Signature.Params)
	fc.u.Unify(cc.Dest.Type(), hir.FuncType(params, lambda.Signature.Result), cc.Pos())

	for i, capture := range cc.Info.Captures {
		if i < len(lambda.ParamVars) {
			fc.u.Unify(capture.Type(), lambda.ParamVars[i].Type(), cc.Pos())
		}
	}
}
