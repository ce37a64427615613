package typecheck

import (
	"kanso/internal/errors"
	"kanso/internal/hir"
	"kanso/internal/instance"
)

// lowerConverter applies the Converter lowering table (§4.E.3) to a value
// flowing from src into dest. The resolver itself never emits a literal
// Converter instruction — every Bind and Assign instruction is a potential
// conversion site instead, so this is called directly from their dispatch
// cases rather than only from a *hir.Converter case. The four rows of the
// table, by (dest is &X?, src is &X?):
//
//	&X / &X  -> declare dest, assign the reference across unchanged
//	X  / &X  -> clone through the reference's pointee's Copy/Clone instance
//	&X /  X  -> take a reference to the value
//	X  /  X  -> plain assign when the types already unify, otherwise an
//	            implicit conversion instance, otherwise a located mismatch
func (fc *funcChecker) lowerConverter(pos hir.Position, dest, src *hir.Variable) []hir.Instruction {
	destType := fc.u.Apply(dest.Type())
	srcType := fc.u.Apply(src.Type())
	destIsRef := destType != nil && destType.Kind == hir.TReference
	srcIsRef := srcType != nil && srcType.Kind == hir.TReference

	switch {
	case destIsRef && srcIsRef:
		fc.u.Unify(destType.Inner, srcType.Inner, pos)
		return []hir.Instruction{hir.NewDeclareVar(pos, dest, false), hir.NewAssign(pos, dest, src)}

	case !destIsRef && srcIsRef:
		fc.u.Unify(destType, srcType.Inner, pos)
		cloneName, ok := fc.c.inst.CloneFunctionName(fc.u, destType)
		if !ok {
			fc.errorf(errors.ErrorMissingInstance, pos, "no Clone instance for %s", typeString(destType))
			return []hir.Instruction{hir.NewAssign(pos, dest, src)}
		}
		return []hir.Instruction{hir.NewFunctionCall(pos, dest, hir.CallInfo{
			Name:         cloneName,
			Args:         []*hir.Variable{src},
			InstanceRefs: []string{cloneName},
		})}

	case destIsRef && !srcIsRef:
		fc.u.Unify(destType.Inner, srcType, pos)
		return []hir.Instruction{hir.NewRef(pos, dest, src)}

	default:
		if fc.u.TryUnify(destType, srcType) {
			return []hir.Instruction{hir.NewAssign(pos, dest, src)}
		}
		if fc.c.inst.IsImplicitConvert(fc.u, srcType, destType) {
			name := "implicit_convert"
			res := fc.c.inst.Resolve(fc.u, "ImplicitConvert", []*hir.Type{srcType, destType})
			if res.Outcome == instance.Resolved {
				if qn, ok := res.Instance.Methods["convert"]; ok {
					name = qn
				}
			}
			return []hir.Instruction{hir.NewFunctionCall(pos, dest, hir.CallInfo{
				Name:         name,
				Args:         []*hir.Variable{src},
				InstanceRefs: []string{name},
			})}
		}
		// No convertible shape matched — unify for real so the mismatch is
		// reported with a located diagnostic, keeping the original Assign.
		fc.u.Unify(destType, srcType, pos)
		return []hir.Instruction{hir.NewAssign(pos, dest, src)}
	}
}
