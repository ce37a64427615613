package typecheck

import (
	"strconv"

	"kanso/internal/builtins"
	"kanso/internal/errors"
	"kanso/internal/hir"
)

// paramSubst builds a type-parameter substitution map for instantiating a
// struct/enum's declared field types against one concrete use, positionally
// zipping declared type params with the concrete type arguments a Named
// type carries.
func (fc *funcChecker) paramSubst(params []string, args []*hir.Type) map[string]*hir.Type {
	subst := make(map[string]*hir.Type, len(params))
	for i, p := range params {
		if i < len(args) {
			subst[p] = args[i]
		}
	}
	return subst
}

// fieldType resolves one Selector against a struct or tuple type, returning
// the field's type instantiated for t's concrete type arguments.
func (fc *funcChecker) fieldType(t *hir.Type, sel hir.Selector) (*hir.Type, bool) {
	if t == nil {
		return nil, false
	}
	switch t.Kind {
	case hir.TNamed:
		def, ok := fc.c.prog.Structs[t.Name]
		if !ok {
			return nil, false
		}
		subst := fc.paramSubst(def.TypeParams, t.Args)
		for i, f := range def.Fields {
			if (!sel.Indexed && f.Name == sel.Name) || (sel.Indexed && sel.Index == i) {
				return fc.u.Instantiate(f.Type, subst), true
			}
		}
		return nil, false
	case hir.TTuple:
		if sel.Indexed && sel.Index >= 0 && sel.Index < len(t.Elems) {
			return t.Elems[sel.Index], true
		}
		return nil, false
	default:
		return nil, false
	}
}

// checkFieldRef types a (possibly chained) field read. A Ptr-typed receiver
// needs an explicit dereference first (§4.E.2): this is the one case that
// splices a replacement instruction sequence rather than typing in place, so
// it returns nil when no splice was needed.
func (fc *funcChecker) checkFieldRef(it *hir.FieldRef) []hir.Instruction {
	recvType := fc.u.Apply(it.Receiver.Type())
	var repl []hir.Instruction
	receiver := it.Receiver

	if recvType != nil && recvType.Kind == hir.TPtr {
		loaded := fc.fn.Body.NewTemp(it.Pos())
		loaded.SetType(recvType.Inner)
		repl = append(repl, hir.NewLoadPtr(it.Pos(), loaded, it.Receiver))
		receiver = loaded
		recvType = fc.u.Apply(recvType.Inner)
	}

	cur := recvType
	for idx := range it.Fields {
		ft, ok := fc.fieldType(cur, it.Fields[idx].Sel)
		if !ok {
			fc.errorf(errors.ErrorFieldNotFound, it.Pos(), "no field %s on %s", fieldName(it.Fields[idx].Sel), typeString(cur))
			break
		}
		it.Fields[idx].Typ = ft
		cur = fc.u.Apply(ft)
	}
	fc.u.Unify(it.Dest.Type(), cur, it.Pos())

	// Record the place this temp stands for, so a later mutable MethodCall
	// through it can write the mutated receiver back to the real place
	// instead of to the throwaway temp (§4.E.2).
	fc.fieldOrigin[it.Dest.Name] = fieldChainInfo{Receiver: it.Receiver, Fields: it.Fields}

	if repl == nil {
		return nil
	}
	repl = append(repl, hir.NewFieldRef(it.Pos(), it.Dest, receiver, it.Fields))
	return repl
}

func (fc *funcChecker) checkFieldAssign(it *hir.FieldAssign) {
	cur := fc.u.Apply(it.Receiver.Type())
	for idx := range it.Fields {
		ft, ok := fc.fieldType(cur, it.Fields[idx].Sel)
		if !ok {
			fc.errorf(errors.ErrorFieldNotFound, it.Pos(), "no field %s on %s", fieldName(it.Fields[idx].Sel), typeString(cur))
			return
		}
		it.Fields[idx].Typ = ft
		cur = fc.u.Apply(ft)
	}
	fc.u.Unify(it.Rhs.Type(), cur, it.Pos())
	fc.checkRootMutable(it.Receiver, it.Pos())
}

func (fc *funcChecker) checkAddressOfField(it *hir.AddressOfField) {
	cur := fc.u.Apply(it.Receiver.Type())
	for idx := range it.Fields {
		ft, ok := fc.fieldType(cur, it.Fields[idx].Sel)
		if !ok {
			fc.errorf(errors.ErrorFieldNotFound, it.Pos(), "no field %s on %s", fieldName(it.Fields[idx].Sel), typeString(cur))
			return
		}
		it.Fields[idx].Typ = ft
		cur = fc.u.Apply(ft)
	}
	fc.u.Unify(it.Dest.Type(), hir.RefType(cur), it.Pos())
}

// checkRootMutable walks a temp back to the place it ultimately names (via
// fieldOrigin, set by checkFieldRef) and flags a write through an immutable
// binding.
func (fc *funcChecker) checkRootMutable(receiver *hir.Variable, pos hir.Position) {
	root := receiver
	for {
		origin, ok := fc.fieldOrigin[root.Name]
		if !ok {
			break
		}
		root = origin.Receiver
	}
	if mut, declared := fc.mutable[root.Name]; declared && !mut {
		fc.errorf(errors.ErrorImmutableAssign, pos, "cannot assign through %q: not declared mutable", root.Name)
	}
}

func (fc *funcChecker) checkTransform(it *hir.Transform) {
	srcType := fc.u.Apply(it.Src.Type())
	if srcType == nil || srcType.Kind != hir.TNamed {
		return
	}
	def, ok := fc.c.prog.Enums[srcType.Name]
	if !ok || it.VariantIndex < 0 || it.VariantIndex >= len(def.Variants) {
		return
	}
	variant := def.Variants[it.VariantIndex]
	subst := fc.paramSubst(def.TypeParams, srcType.Args)
	fields := make([]*hir.Type, len(variant.Fields))
	for i, f := range variant.Fields {
		fields[i] = fc.u.Instantiate(f, subst)
	}
	fc.u.Unify(it.Dest.Type(), hir.TupleType(fields...), it.Pos())
}

func (fc *funcChecker) checkEnumSwitch(it *hir.EnumSwitch) {
	rootType := fc.u.Apply(it.Root.Type())
	if rootType == nil || rootType.Kind != hir.TNamed {
		return
	}
	def, ok := fc.c.prog.Enums[rootType.Name]
	if !ok {
		return
	}
	subst := fc.paramSubst(def.TypeParams, rootType.Args)
	for _, cs := range it.Cases {
		if cs.VariantIndex < 0 || cs.VariantIndex >= len(def.Variants) {
			continue
		}
		variant := def.Variants[cs.VariantIndex]
		for i, b := range cs.Bindings {
			if i >= len(variant.Fields) {
				break
			}
			fc.u.Unify(b.Type(), fc.u.Instantiate(variant.Fields[i], subst), it.Pos())
		}
	}
}

func (fc *funcChecker) checkIntegerSwitch(it *hir.IntegerSwitch) {
	// Bool comparisons funnel through this same instruction (the match
	// compiler's PatLiteralBool dispatch) — don't clobber an already-Bool
	// scrutinee with Int.
	if cur := fc.u.Apply(it.Root.Type()); cur != nil && cur.Kind == hir.TNamed && cur.Name == string(builtins.Bool) {
		return
	}
	fc.u.Unify(it.Root.Type(), namedInt(), it.Pos())
}

func (fc *funcChecker) checkStringSwitch(it *hir.StringSwitch) {
	fc.u.Unify(it.Root.Type(), namedString(), it.Pos())
}

func fieldName(sel hir.Selector) string {
	if sel.Indexed {
		return "#" + strconv.Itoa(sel.Index)
	}
	return sel.Name
}

func typeString(t *hir.Type) string {
	if t == nil {
		return "<unknown>"
	}
	return t.String()
}
