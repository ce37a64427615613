package typecheck

import (
	"kanso/internal/errors"
	"kanso/internal/hir"
)

// lowerMethodCall resolves a MethodCall against the instance declaring it
// and rewrites it away entirely (§4.E.2): MethodCall never survives type
// checking. An immutable-receiver method becomes a plain FunctionCall with
// the receiver as its first argument. A mutable-receiver method becomes a
// FunctionCall returning (new-self, result), followed by two FieldRefs
// pulling the pair apart and a write-back of new-self to wherever the
// receiver actually came from.
func (fc *funcChecker) lowerMethodCall(it *hir.MethodCall) []hir.Instruction {
	recvType := fc.u.Apply(it.Receiver.Type())
	qualified, ok := fc.lookupMethod(recvType, it.Name)
	if !ok {
		return nil
	}
	fn, ok := fc.c.prog.Functions[qualified]
	if !ok {
		fc.errorf(errors.ErrorMethodNotFound, it.Pos(), "method %q has no backing definition", it.Name)
		return nil
	}
	args := append([]*hir.Variable{it.Receiver}, it.Args...)

	if !fn.ReceiverMutable {
		call := hir.NewFunctionCall(it.Pos(), it.Dest, hir.CallInfo{
			Name:         qualified,
			Args:         args,
			InstanceRefs: []string{qualified},
		})
		fc.unifyMethodCall(call, fn)
		return []hir.Instruction{call}
	}

	fc.checkRootMutable(it.Receiver, it.Pos())

	pairDest := fc.fn.Body.NewTemp(it.Pos())
	call := hir.NewFunctionCall(it.Pos(), pairDest, hir.CallInfo{
		Name:         qualified,
		Args:         args,
		InstanceRefs: []string{qualified},
	})
	resultType := fc.unifyMethodCall(call, fn)
	pairDest.SetType(hir.TupleType(recvType, resultType))

	newSelf := fc.fn.Body.NewTemp(it.Pos())
	newSelf.SetType(recvType)
	selfField := hir.NewFieldRef(it.Pos(), newSelf, pairDest, []hir.FieldInfo{{Sel: hir.IndexSelector(0), Typ: recvType}})
	resultField := hir.NewFieldRef(it.Pos(), it.Dest, pairDest, []hir.FieldInfo{{Sel: hir.IndexSelector(1), Typ: resultType}})
	fc.u.Unify(it.Dest.Type(), resultType, it.Pos())

	writeback := fc.writeback(it.Receiver, newSelf, it.Pos())
	return []hir.Instruction{call, selfField, resultField, writeback}
}

// unifyMethodCall unifies a rewritten method call's arguments (Args[0] is
// the receiver, which has no corresponding slot in Signature.Params since
// the resolver tracks the receiver separately from ordinary parameters) and
// returns the callee's instantiated, Self-substituted result type.
func (fc *funcChecker) unifyMethodCall(call *hir.FunctionCall, fn *hir.Function) *hir.Type {
	subst := fc.u.FreshSubst(fn.Signature.Constraints.TypeParams)
	params := fn.Signature.Params
	args := call.Info.Args
	for i, p := range params {
		if i+1 >= len(args) {
			break
		}
		fc.u.Unify(args[i+1].Type(), fc.u.Instantiate(p, subst), call.Pos())
	}
	return fc.u.Instantiate(fc.substSelf(fn.Signature.Result), subst)
}

// lookupMethod finds the one trait instance implementing name for the head
// shape of recvType, mirroring internal/instance's own head-matching logic
// at the granularity this pass needs (by method name rather than by trait).
func (fc *funcChecker) lookupMethod(recvType *hir.Type, name string) (string, bool) {
	head := headTypeName(recvType)
	var matches []string
	for _, inst := range fc.c.prog.Instances {
		if len(inst.TypeArgs) == 0 || headTypeName(inst.TypeArgs[0]) != head {
			continue
		}
		if qn, has := inst.Methods[name]; has {
			matches = append(matches, qn)
		}
	}
	switch len(matches) {
	case 0:
		fc.errorf(errors.ErrorMethodNotFound, hir.Position{}, "no method %q on %s", name, typeString(recvType))
		return "", false
	case 1:
		return matches[0], true
	default:
		fc.errorf(errors.ErrorMethodAmbiguous, hir.Position{}, "method %q is ambiguous on %s", name, typeString(recvType))
		return "", false
	}
}

func headTypeName(t *hir.Type) string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case hir.TNamed:
		return t.Name
	case hir.TTuple:
		return "(tuple)"
	case hir.TFunction:
		return "(fn)"
	case hir.TReference:
		return "&" + headTypeName(t.Inner)
	case hir.TPtr:
		return "*" + headTypeName(t.Inner)
	default:
		return t.String()
	}
}

// writeback returns the instruction that stores a mutated receiver back to
// wherever it actually came from: through the recorded field chain when the
// receiver was itself a FieldRef temp (so a.b.increment() writes back into
// a.b, not into the temp), or a plain Assign for a bare local.
func (fc *funcChecker) writeback(receiver, newSelf *hir.Variable, pos hir.Position) hir.Instruction {
	if origin, ok := fc.fieldOrigin[receiver.Name]; ok {
		return hir.NewFieldAssign(pos, origin.Receiver, newSelf, origin.Fields)
	}
	return hir.NewAssign(pos, receiver, newSelf)
}
