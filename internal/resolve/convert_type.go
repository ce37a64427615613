package resolve

import (
	"kanso/internal/ast"
	"kanso/internal/builtins"
	"kanso/internal/hir"
)

// convertType lowers a surface type annotation into an hir.Type. typeParams
// is the set of names quantified by the enclosing declaration (struct,
// enum, trait or function) — a bare NamedType matching one of them becomes
// a TVar(VarNamed) rather than a TNamed, the boundary between "this name
// refers to a concrete/declared type" and "this name is itself a type
// parameter" that the unifier's two TVar/TNamed cases rely on.
func (r *Resolver) convertType(typeParams map[string]bool, t ast.TypeExpr) *hir.Type {
	if t == nil {
		return hir.Named(string(builtins.Unit))
	}
	switch te := t.(type) {
	case *ast.NamedType:
		if te.Name.Value == "Self" {
			return hir.SelfType
		}
		if typeParams != nil && typeParams[te.Name.Value] && len(te.Args) == 0 {
			return hir.NamedVar(te.Name.Value)
		}
		args := make([]*hir.Type, len(te.Args))
		for i, a := range te.Args {
			args[i] = r.convertType(typeParams, a)
		}
		return hir.Named(te.Name.Value, args...)
	case *ast.RefType:
		return hir.RefType(r.convertType(typeParams, te.Inner))
	case *ast.PtrType:
		return hir.PtrType(r.convertType(typeParams, te.Inner))
	case *ast.TupleType:
		elems := make([]*hir.Type, len(te.Elements))
		for i, e := range te.Elements {
			elems[i] = r.convertType(typeParams, e)
		}
		return hir.TupleType(elems...)
	case *ast.FuncType:
		params := make([]*hir.Type, len(te.Params))
		for i, p := range te.Params {
			params[i] = r.convertType(typeParams, p)
		}
		result := hir.Named(string(builtins.Unit))
		if te.Result != nil {
			result = r.convertType(typeParams, te.Result)
		}
		return hir.FuncType(params, result)
	default:
		return hir.Named(string(builtins.Unit))
	}
}

// convertTypeQuantifyUnknown is convertType's instance-declaration variant:
// a bare NamedType with no type arguments that names neither a declared
// struct/enum nor a builtin is assumed to be one of the instance's own
// (syntactically undeclared, per this grammar) quantified parameters, and
// is recorded into quantified as a side effect.
func (r *Resolver) convertTypeQuantifyUnknown(quantified map[string]bool, t ast.TypeExpr) *hir.Type {
	if nt, ok := t.(*ast.NamedType); ok && len(nt.Args) == 0 {
		_, isStruct := r.structDecls[nt.Name.Value]
		_, isEnum := r.enumDecls[nt.Name.Value]
		if !isStruct && !isEnum && !builtins.IsBuiltinType(nt.Name.Value) && nt.Name.Value != "Self" {
			quantified[nt.Name.Value] = true
			return hir.NamedVar(nt.Name.Value)
		}
	}
	return r.convertType(quantified, t)
}
