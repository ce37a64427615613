// Package instance implements the middle end's trait-instance resolver
// (§4.C): given a constraint (trait name + candidate type arguments), pick
// the matching hir.Instance, or report Ambiguous/Missing. Grounded on the
// original source's instance-lookup design and the pack's declaration-table
// reference (internal-analyzer-declarations_instances.go): instances are
// indexed by (traitName, headTypeName) so lookup never linearly scans every
// instance in the program.
package instance

import (
	"fmt"

	"kanso/internal/builtins"
	"kanso/internal/errors"
	"kanso/internal/hir"
	"kanso/internal/unify"
)

// Outcome is the three-way result resolve returns, mirrored from §4.C's
// "Instance | Ambiguous | Missing".
type Outcome int

const (
	Resolved Outcome = iota
	Ambiguous
	Missing
)

// Result bundles the outcome with the chosen instance (when Resolved) and
// the type-argument substitution the instance was instantiated against.
type Result struct {
	Outcome  Outcome
	Instance *hir.Instance
	Subst    map[string]*hir.Type
}

// Resolver indexes a program's instance set by (trait, head type name) and
// exposes resolve/isCopy/isImplicitConvert against a caller-supplied
// unifier, so probing instance candidates shares the same substitution the
// type checker is building.
type Resolver struct {
	byHead map[string][]*hir.Instance
}

// New indexes prog's declared instances plus a built-in prelude: Copy and
// Clone for every primitive type, mirroring the original's treatment of
// primitive ownership rules (§4.C supplement), then auto-derives Copy for
// every struct/enum whose fields are themselves all Copy.
func New(prog *hir.Program) *Resolver {
	r := &Resolver{byHead: make(map[string][]*hir.Instance)}
	for _, inst := range prog.Instances {
		r.index(inst)
	}
	r.registerPrelude()
	r.deriveCopy(prog)
	return r
}

func (r *Resolver) index(inst *hir.Instance) {
	head := headName(inst.TypeArgs)
	key := inst.TraitName + "#" + head
	r.byHead[key] = append(r.byHead[key], inst)
}

func headName(args []*hir.Type) string {
	if len(args) == 0 {
		return ""
	}
	t := args[0]
	switch t.Kind {
	case hir.TNamed:
		return t.Name
	case hir.TTuple:
		return "(tuple)"
	case hir.TFunction:
		return "(fn)"
	case hir.TReference:
		return "&" + headName([]*hir.Type{t.Inner})
	case hir.TPtr:
		return "*" + headName([]*hir.Type{t.Inner})
	default:
		return t.String()
	}
}

// registerPrelude seeds Clone instances for every primitive type, plus Copy
// for the ones builtins.IsCopyByDefault marks unconditionally Copy (every
// primitive except String, which owns heap data). These never appear in a
// program's declared instance list; they exist purely so isCopy/
// isImplicitConvert can answer without the resolver ever raising a
// Missing-instance error for a primitive.
func (r *Resolver) registerPrelude() {
	for name := range builtins.BuiltinTypes {
		r.index(&hir.Instance{TraitName: "Clone", TypeArgs: []*hir.Type{hir.Named(name)}})
		if builtins.IsCopyByDefault(name) {
			r.index(&hir.Instance{TraitName: "Copy", TypeArgs: []*hir.Type{hir.Named(name)}})
		}
	}
}

// deriveCopy registers a synthesized Copy instance for every struct/enum
// whose fields (a struct's own fields, or every variant's fields for an
// enum) are themselves all Copy, iterating to a fixed point so a struct
// containing an already-derived Copy struct also qualifies. A field whose
// type is an unresolved type parameter conservatively disqualifies its
// struct/enum: without a concrete instantiation there is no way to know
// whether that parameter will be satisfied by a Copy argument.
func (r *Resolver) deriveCopy(prog *hir.Program) {
	pending := make(map[string]bool, len(prog.Structs)+len(prog.Enums))
	for name := range prog.Structs {
		pending[name] = true
	}
	for name := range prog.Enums {
		pending[name] = true
	}
	for changed := true; changed; {
		changed = false
		for name := range pending {
			if !r.allFieldsCopy(fieldTypesOf(prog, name)) {
				continue
			}
			r.index(&hir.Instance{TraitName: "Copy", TypeArgs: []*hir.Type{hir.Named(name)}})
			delete(pending, name)
			changed = true
		}
	}
}

// fieldTypesOf flattens every field type a struct or enum carries: a
// struct's own fields, or the concatenation of every variant's payload
// fields for an enum.
func fieldTypesOf(prog *hir.Program, name string) []*hir.Type {
	if sd, ok := prog.Structs[name]; ok {
		fields := make([]*hir.Type, len(sd.Fields))
		for i, f := range sd.Fields {
			fields[i] = f.Type
		}
		return fields
	}
	var fields []*hir.Type
	for _, v := range prog.Enums[name].Variants {
		fields = append(fields, v.Fields...)
	}
	return fields
}

func (r *Resolver) allFieldsCopy(fields []*hir.Type) bool {
	for _, f := range fields {
		if f.Kind == hir.TVar {
			return false
		}
		if len(r.byHead["Copy#"+headName([]*hir.Type{f})]) == 0 {
			return false
		}
	}
	return true
}

// Resolve searches for an instance of traitName applicable to candidate
// types, instantiating its quantified variables against them via u.
func (r *Resolver) Resolve(u *unify.Unifier, traitName string, candidate []*hir.Type) Result {
	key := traitName + "#" + headName(candidate)
	candidates := r.byHead[key]
	if len(candidates) == 0 {
		return Result{Outcome: Missing}
	}

	var matches []Result
	for _, inst := range candidates {
		subst := u.FreshSubst(inst.TypeParams)
		ok := true
		for i, arg := range inst.TypeArgs {
			instantiated := u.Instantiate(arg, subst)
			if i >= len(candidate) || !u.TryUnify(instantiated, candidate[i]) {
				ok = false
				break
			}
		}
		if ok {
			matches = append(matches, Result{Outcome: Resolved, Instance: inst, Subst: subst})
		}
	}

	switch len(matches) {
	case 0:
		return Result{Outcome: Missing}
	case 1:
		return matches[0]
	default:
		return Result{Outcome: Ambiguous}
	}
}

// IsCopy reports whether t's head type has a Copy instance. Used by the
// drop checker to decide whether a move should be downgraded to an implicit
// clone (§4.F.3), and never raises — a type with no Copy instance just isn't
// Copy.
func (r *Resolver) IsCopy(u *unify.Unifier, t *hir.Type) bool {
	res := r.Resolve(u, "Copy", []*hir.Type{t})
	return res.Outcome == Resolved
}

// IsImplicitConvert reports whether an ImplicitConvert<From,To> instance
// exists, used by converter lowering (§4.E.3)'s X->X same-type-but-unequal
// fallback before it gives up and reports an error.
func (r *Resolver) IsImplicitConvert(u *unify.Unifier, from, to *hir.Type) bool {
	res := r.Resolve(u, "ImplicitConvert", []*hir.Type{from, to})
	return res.Outcome == Resolved
}

// CloneFunctionName looks up the Clone instance's function name for t, used
// to emit the FunctionCall the converter pass and implicit-clone rewrite both
// insert.
func (r *Resolver) CloneFunctionName(u *unify.Unifier, t *hir.Type) (string, bool) {
	res := r.Resolve(u, "Clone", []*hir.Type{t})
	if res.Outcome != Resolved {
		return "", false
	}
	if name, ok := res.Instance.Methods["clone"]; ok {
		return name, true
	}
	// Prelude instances have no backing Function; they get the synthetic
	// name __builtin_clone_<type>, which callers emit as an ordinary
	// FunctionCall.
	return "__builtin_clone_" + t.String(), true
}

// Diagnose turns a non-Resolved Result into a located compiler error, used
// by callers (the type checker's trait-constrained calls) that treat
// Missing/Ambiguous as fatal rather than as a predicate.
func Diagnose(traitName string, candidate []*hir.Type, res Result, loc hir.Position) errors.CompilerError {
	pos := unify.ToASTPos(loc)
	switch res.Outcome {
	case Ambiguous:
		return errors.NewSemanticError(errors.ErrorAmbiguousInstance,
			fmt.Sprintf("ambiguous instance: more than one %s instance matches %v", traitName, candidate), pos).Build()
	default:
		return errors.NewSemanticError(errors.ErrorMissingInstance,
			fmt.Sprintf("no instance of %s found for %v", traitName, candidate), pos).Build()
	}
}
