package hir

// ResultKind distinguishes an ordinary function (SingleReturn) from a
// coroutine, whose body contains yield points and whose post-lowering form
// returns a (StateMachine, ResumeResult) pair instead.
type ResultKind int

const (
	SingleReturn ResultKind = iota
	Coroutine
)

// FunctionKind records why this function exists, mirrored from the data
// model: a plain user definition, a struct/variant constructor, a trait
// member declaration or default body, an instance member, an effect
// (implicit handler) member, or a separated lambda.
type FunctionKind int

const (
	KindUserDefined FunctionKind = iota
	KindStructCtor
	KindVariantCtor
	KindTraitMemberDecl
	KindTraitMemberDef
	KindInstanceMember
	KindEffectMember
	KindLambda
)

// TraitBound is one constraint in a function's constraint context:
// "TypeParam: TraitName<TypeArgs...>".
type TraitBound struct {
	TypeParam string
	TraitName string
	TypeArgs  []*Type
}

// ConstraintContext is the quantified type parameters plus trait
// constraints a generic function or instance member was declared with.
type ConstraintContext struct {
	TypeParams []string
	Bounds     []TraitBound
}

// Signature is a function's externally visible shape: its parameter types,
// result kind, and constraint context.
type Signature struct {
	Params       []*Type
	ResultKind   ResultKind
	Result       *Type // SingleReturn result type
	Yield        *Type // Coroutine yield type
	Return       *Type // Coroutine return type
	Constraints  ConstraintContext
}

// Function couples a body with a signature, a name, and a kind.
type Function struct {
	Name      string
	Signature Signature
	Kind      FunctionKind
	ParamVars []*Variable
	Receiver  *Variable // nil unless this is a method with a self receiver
	// ReceiverMutable records whether this method's receiver was declared
	// `mut self`, the signal the type checker's MethodCall rewrite (§4.E.2)
	// uses to decide whether a call needs the (new-self, result) pair
	// convention rather than a plain call.
	ReceiverMutable bool
	Body            *Body
}

func NewFunction(name string) *Function {
	return &Function{Name: name, Body: NewBody()}
}

// IsCoroutine reports whether this function's result kind is Coroutine.
func (f *Function) IsCoroutine() bool { return f.Signature.ResultKind == Coroutine }
