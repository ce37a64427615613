// Package resolve implements the front end's name resolver: it walks a set
// of parsed ast.Module values and lowers them into one raw (untyped)
// hir.Program, the input every middle-end pass after it consumes. Grounded
// on the teacher's internal/semantic analyzer two-pass declare-then-lower
// structure (internal/semantic/analyzer.go), generalized from a
// single-module Move/Solidity analyzer into a flat multi-module namespace
// feeding HIR instead of annotating the AST in place.
package resolve

import (
	"fmt"
	"strconv"

	"kanso/internal/ast"
	"kanso/internal/builtins"
	"kanso/internal/errors"
	"kanso/internal/hir"
)

// Resolver owns the flat, whole-program namespace built across every module
// before any function body is lowered, so forward references and mutual
// recursion between modules need no fixup pass.
//
// Names are resolved in a single flat namespace rather than per-module
// qualified scopes (an explicit simplification recorded in DESIGN.md): the
// first declaration of a given simple name wins, and a later duplicate is
// reported as ErrorDuplicateDeclaration. Real per-module import scoping
// (resolving a `use` alias against a specific module's export set) is listed
// as a follow-up in DESIGN.md's Open Questions.
type Resolver struct {
	prog *hir.Program

	structDecls map[string]*ast.Struct
	enumDecls   map[string]*ast.Enum
	traitDecls  map[string]*ast.Trait

	// funcOwner maps a qualified function name back to the module it was
	// declared in, used only for diagnostics.
	funcOwner map[string]string

	diags []errors.CompilerError
}

func New() *Resolver {
	return &Resolver{
		prog:        hir.NewProgram(),
		structDecls: make(map[string]*ast.Struct),
		enumDecls:   make(map[string]*ast.Enum),
		traitDecls:  make(map[string]*ast.Trait),
		funcOwner:   make(map[string]string),
	}
}

// ResolveModules lowers every module into prog's shared namespace and
// returns the resulting raw Program plus any diagnostics raised along the
// way (unknown names, duplicate declarations, invalid assignment targets).
// A non-empty diagnostics slice does not necessarily mean prog is unusable
// by later passes — every error site still produces a well-typed HIR
// fragment (typically a fresh temp of unknown type) so later passes don't
// also have to handle "the resolver gave up here".
func ResolveModules(modules []*ast.Module) (*hir.Program, []errors.CompilerError) {
	r := New()
	for _, m := range modules {
		r.declareModule(m)
	}
	for _, m := range modules {
		r.lowerModule(m)
	}
	return r.prog, r.diags
}

func (r *Resolver) errorf(pos ast.Position, code, format string, args ...interface{}) {
	r.diags = append(r.diags, errors.NewSemanticError(code, fmt.Sprintf(format, args...), pos).Build())
}

// qualify returns the name a declaration is registered under: bare for the
// root module, "module::name" otherwise. Lookups always try the bare name
// first (the flat-namespace simplification above), so qualify only affects
// how a name prints in diagnostics and -dump-hir output.
func qualify(module, name string) string {
	if module == "" {
		return name
	}
	return module + "::" + name
}

// --- Pass 1: declarations ---

func (r *Resolver) declareModule(m *ast.Module) {
	for _, item := range m.Items {
		switch it := item.(type) {
		case *ast.Struct:
			r.declareStruct(m.Name.Value, it)
		case *ast.Enum:
			r.declareEnum(m.Name.Value, it)
		case *ast.Trait:
			r.declareTrait(m.Name.Value, it)
		case *ast.Function:
			r.declareFunction(m.Name.Value, it, hir.KindUserDefined, nil)
		case *ast.Instance:
			r.declareInstance(m.Name.Value, it)
		case *ast.ImplicitDecl:
			r.declareImplicit(m.Name.Value, it)
		case *ast.Use:
			// Flat namespace: imports need no alias table here (see
			// Resolver's doc comment); `use` only needs to exist
			// syntactically for now.
		}
	}
}

func (r *Resolver) typeParamSet(names []ast.Ident) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n.Value] = true
	}
	return set
}

func (r *Resolver) declareStruct(module string, s *ast.Struct) {
	name := s.Name.Value
	if _, exists := r.structDecls[name]; exists {
		r.errorf(s.Pos, errors.ErrorDuplicateDeclaration, "duplicate struct declaration %q", name)
		return
	}
	r.structDecls[name] = s

	tparams := make([]string, len(s.TypeParam))
	for i, t := range s.TypeParam {
		tparams[i] = t.Value
	}
	tpSet := r.typeParamSet(s.TypeParam)

	def := &hir.StructDef{Name: name, TypeParams: tparams}
	fieldTypes := make([]*hir.Type, len(s.Fields))
	for i, f := range s.Fields {
		ft := r.convertType(tpSet, f.Type)
		fieldTypes[i] = ft
		def.Fields = append(def.Fields, hir.FieldDef{Name: f.Name.Value, Type: ft})
	}
	r.prog.Structs[name] = def

	ctorName := qualify(module, name) + "::new"
	selfArgs := make([]*hir.Type, len(tparams))
	for i, tp := range tparams {
		selfArgs[i] = hir.NamedVar(tp)
	}
	ctor := hir.NewFunction(ctorName)
	ctor.Kind = hir.KindStructCtor
	ctor.Signature = hir.Signature{
		Params:      fieldTypes,
		ResultKind:  hir.SingleReturn,
		Result:      hir.Named(name, selfArgs...),
		Constraints: hir.ConstraintContext{TypeParams: tparams},
	}
	r.prog.AddFunction(ctor)
	r.funcOwner[ctorName] = module
	// Also reachable unqualified, matching the flat-namespace lookup rule.
	if ctorName != name+"::new" {
		r.prog.Functions[name+"::new"] = ctor
	}
}

func (r *Resolver) declareEnum(module string, e *ast.Enum) {
	name := e.Name.Value
	if _, exists := r.enumDecls[name]; exists {
		r.errorf(e.Pos, errors.ErrorDuplicateDeclaration, "duplicate enum declaration %q", name)
		return
	}
	r.enumDecls[name] = e

	tparams := make([]string, len(e.TypeParam))
	for i, t := range e.TypeParam {
		tparams[i] = t.Value
	}
	tpSet := r.typeParamSet(e.TypeParam)

	def := &hir.EnumDef{Name: name, TypeParams: tparams}
	selfArgs := make([]*hir.Type, len(tparams))
	for i, tp := range tparams {
		selfArgs[i] = hir.NamedVar(tp)
	}
	resultType := hir.Named(name, selfArgs...)

	for _, v := range e.Variants {
		fieldTypes := make([]*hir.Type, len(v.Fields))
		for i, ft := range v.Fields {
			fieldTypes[i] = r.convertType(tpSet, ft)
		}
		def.Variants = append(def.Variants, hir.VariantDef{Name: v.Name.Value, Fields: fieldTypes})

		ctorName := qualify(module, v.Name.Value)
		ctor := hir.NewFunction(ctorName)
		ctor.Kind = hir.KindVariantCtor
		ctor.Signature = hir.Signature{
			Params:      fieldTypes,
			ResultKind:  hir.SingleReturn,
			Result:      resultType,
			Constraints: hir.ConstraintContext{TypeParams: tparams},
		}
		r.prog.AddFunction(ctor)
		r.funcOwner[ctorName] = module
		if ctorName != v.Name.Value {
			r.prog.Functions[v.Name.Value] = ctor
		}
	}
	r.prog.Enums[name] = def
}

func (r *Resolver) declareTrait(module string, t *ast.Trait) {
	name := t.Name.Value
	if _, exists := r.traitDecls[name]; exists {
		r.errorf(t.Pos, errors.ErrorDuplicateDeclaration, "duplicate trait declaration %q", name)
		return
	}
	r.traitDecls[name] = t

	tpSet := r.typeParamSet(t.TypeParam)
	for _, a := range t.AssocTypes {
		tpSet[a.Value] = true
	}

	def := &hir.TraitDef{Name: name}
	for _, tp := range t.TypeParam {
		def.TypeParams = append(def.TypeParams, tp.Value)
	}
	for _, a := range t.AssocTypes {
		def.AssocTypes = append(def.AssocTypes, a.Value)
	}

	for _, m := range t.Methods {
		params := make([]*hir.Type, len(m.Params))
		for i, p := range m.Params {
			params[i] = r.convertType(tpSet, p.Type)
		}
		result := hir.Named(string(builtins.Unit))
		if m.Result != nil {
			result = r.convertType(tpSet, m.Result)
		}
		methodDef := hir.TraitMethodDef{
			Name: m.Name.Value, Params: params, Result: result,
			HasReceiver: true,
		}
		if m.Body != nil {
			defaultName := qualify(module, name) + "::" + m.Name.Value + "::default"
			methodDef.DefaultBody = defaultName
			fn := hir.NewFunction(defaultName)
			fn.Kind = hir.KindTraitMemberDef
			fn.Signature = hir.Signature{Params: params, ResultKind: hir.SingleReturn, Result: result}
			r.prog.AddFunction(fn)
			r.funcOwner[defaultName] = module
			r.lowerFunctionBody(fn, nil, true, m.Params, m.Body)
		}
		def.Methods = append(def.Methods, methodDef)
	}
	r.prog.Traits[name] = def
}

func (r *Resolver) declareInstance(module string, inst *ast.Instance) {
	traitName := inst.TraitName.Value
	tpSet := map[string]bool{}
	// Instance-level type parameters aren't separately declared in this
	// grammar; any NamedType appearing in ForType/TypeArgs that isn't a
	// known struct/enum/builtin is treated as quantified, mirroring how
	// the unifier treats an unrecognised bare name as a type variable.
	forType := r.convertTypeQuantifyUnknown(tpSet, inst.ForType)
	typeArgs := []*hir.Type{forType}
	for _, ta := range inst.TypeArgs {
		typeArgs = append(typeArgs, r.convertTypeQuantifyUnknown(tpSet, ta))
	}

	assoc := make(map[string]*hir.Type, len(inst.AssocTypes))
	for name, te := range inst.AssocTypes {
		assoc[name] = r.convertTypeQuantifyUnknown(tpSet, te)
	}

	hirInst := &hir.Instance{
		TraitName:  traitName,
		TypeArgs:   typeArgs,
		AssocTypes: assoc,
		Methods:    make(map[string]string),
	}
	for tp := range tpSet {
		hirInst.TypeParams = append(hirInst.TypeParams, tp)
	}

	for _, fn := range inst.Methods {
		qualifiedName := qualify(module, traitName) + "::" + headTypeHint(forType) + "::" + fn.Name.Value
		r.declareFunction(module, fn, hir.KindInstanceMember, &qualifiedName)
		hirInst.Methods[fn.Name.Value] = qualifiedName
	}
	r.prog.Instances = append(r.prog.Instances, hirInst)
}

func headTypeHint(t *hir.Type) string {
	if t == nil {
		return "?"
	}
	if t.Kind == hir.TNamed {
		return t.Name
	}
	return t.String()
}

func (r *Resolver) declareImplicit(module string, d *ast.ImplicitDecl) {
	name := d.Name.Value
	r.prog.Implicits[name] = &hir.ImplicitDecl{Name: name, Type: r.convertType(nil, d.Type)}
}

// declareFunction registers fn's signature under name (or *qualifiedOverride
// when lowering an instance member, whose name must include the instance's
// head type to disambiguate same-named methods across instances). Body
// lowering happens in pass 2 via lowerModule, except for instance methods
// and trait defaults which are complete standalone units lowered here.
func (r *Resolver) declareFunction(module string, fn *ast.Function, kind hir.FunctionKind, qualifiedOverride *string) {
	name := fn.Name.Value
	qualifiedName := qualify(module, name)
	if qualifiedOverride != nil {
		qualifiedName = *qualifiedOverride
	}

	tpSet := r.typeParamSet(fn.TypeParam)
	params := make([]*hir.Type, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = r.convertType(tpSet, p.Type)
	}

	sig := hir.Signature{Params: params, Constraints: hir.ConstraintContext{}}
	for _, tp := range fn.TypeParam {
		sig.Constraints.TypeParams = append(sig.Constraints.TypeParams, tp.Value)
	}
	for _, c := range fn.Constraint {
		bound := hir.TraitBound{TypeParam: c.TypeParam.Value, TraitName: c.TraitName.Value}
		for _, ta := range c.TypeArgs {
			bound.TypeArgs = append(bound.TypeArgs, r.convertType(tpSet, ta))
		}
		sig.Constraints.Bounds = append(sig.Constraints.Bounds, bound)
	}

	if fn.YieldType != nil {
		sig.ResultKind = hir.Coroutine
		sig.Yield = r.convertType(tpSet, fn.YieldType)
		sig.Return = hir.Named(string(builtins.Unit))
		if fn.Result != nil {
			sig.Return = r.convertType(tpSet, fn.Result)
		}
	} else {
		sig.ResultKind = hir.SingleReturn
		sig.Result = hir.Named(string(builtins.Unit))
		if fn.Result != nil {
			sig.Result = r.convertType(tpSet, fn.Result)
		}
	}

	hfn := hir.NewFunction(qualifiedName)
	hfn.Kind = kind
	hfn.Signature = sig
	r.prog.AddFunction(hfn)
	r.funcOwner[qualifiedName] = module
	if qualifiedOverride == nil && qualifiedName != name {
		r.prog.Functions[name] = hfn
	}

	if kind == hir.KindInstanceMember || qualifiedOverride != nil {
		r.lowerFunctionBody(hfn, fn.Receiver, fn.Receiver != nil, fn.Params, fn.Body)
	}
}

// --- Pass 2: function bodies ---

func (r *Resolver) lowerModule(m *ast.Module) {
	for _, item := range m.Items {
		fn, ok := item.(*ast.Function)
		if !ok {
			continue
		}
		qualifiedName := qualify(m.Name.Value, fn.Name.Value)
		hfn, ok := r.prog.Functions[qualifiedName]
		if !ok {
			hfn = r.prog.Functions[fn.Name.Value]
		}
		if hfn == nil || hfn.Body != nil && len(hfn.Body.Blocks[hfn.Body.Entry].Instructions) > 0 {
			continue
		}
		r.lowerFunctionBody(hfn, fn.Receiver, fn.Receiver != nil, fn.Params, fn.Body)
	}
}

func toHirPos(p ast.Position) hir.Position {
	return hir.Position{Filename: p.Filename, Line: p.Line, Column: p.Column}
}

func fromHirPos(p hir.Position) ast.Position {
	return ast.Position{Filename: p.Filename, Line: p.Line, Column: p.Column}
}

func parseIntLiteral(raw string) int64 {
	v, err := strconv.ParseInt(raw, 0, 64)
	if err != nil {
		return 0
	}
	return v
}
