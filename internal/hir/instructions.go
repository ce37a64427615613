package hir

import "fmt"

// --- Calls ---

type FunctionCall struct {
	base
	Dest *Variable
	Info CallInfo
}

func (i *FunctionCall) Result() *Variable { return i.Dest }
func (i *FunctionCall) CollectVariables() []*Variable {
	return collect(append([]*Variable{i.Dest}, append(i.Info.Args, i.Info.CallCtx...)...)...)
}
func (i *FunctionCall) ReplaceVar(from, to *Variable) {
	replaceIn(&i.Dest, from, to)
	replaceInSlice(i.Info.Args, from, to)
	replaceInSlice(i.Info.CallCtx, from, to)
}
func (i *FunctionCall) String() string {
	return fmt.Sprintf("%s = call %s(%s)", i.Dest, i.Info.Name, varList(i.Info.Args))
}

// MethodCall is lowered away by type check; it never survives past 4.E.
type MethodCall struct {
	base
	Dest     *Variable
	Receiver *Variable
	Name     string
	Args     []*Variable
}

func (i *MethodCall) Result() *Variable { return i.Dest }
func (i *MethodCall) CollectVariables() []*Variable {
	return collect(append([]*Variable{i.Dest, i.Receiver}, i.Args...)...)
}
func (i *MethodCall) ReplaceVar(from, to *Variable) {
	replaceIn(&i.Dest, from, to)
	replaceIn(&i.Receiver, from, to)
	replaceInSlice(i.Args, from, to)
}
func (i *MethodCall) String() string {
	return fmt.Sprintf("%s = %s.%s(%s)", i.Dest, i.Receiver, i.Name, varList(i.Args))
}

type DynamicFunctionCall struct {
	base
	Dest   *Variable
	Callee *Variable
	Args   []*Variable
}

func (i *DynamicFunctionCall) Result() *Variable { return i.Dest }
func (i *DynamicFunctionCall) CollectVariables() []*Variable {
	return collect(append([]*Variable{i.Dest, i.Callee}, i.Args...)...)
}
func (i *DynamicFunctionCall) ReplaceVar(from, to *Variable) {
	replaceIn(&i.Dest, from, to)
	replaceIn(&i.Callee, from, to)
	replaceInSlice(i.Args, from, to)
}
func (i *DynamicFunctionCall) String() string {
	return fmt.Sprintf("%s = (%s)(%s)", i.Dest, i.Callee, varList(i.Args))
}

// --- Field access ---

type FieldRef struct {
	base
	Dest     *Variable
	Receiver *Variable
	Fields   []FieldInfo
}

func (i *FieldRef) Result() *Variable { return i.Dest }
func (i *FieldRef) CollectVariables() []*Variable { return collect(i.Dest, i.Receiver) }
func (i *FieldRef) ReplaceVar(from, to *Variable) {
	replaceIn(&i.Dest, from, to)
	replaceIn(&i.Receiver, from, to)
}
func (i *FieldRef) String() string {
	return fmt.Sprintf("%s = %s%s", i.Dest, i.Receiver, fieldChain(i.Fields))
}

type FieldAssign struct {
	base
	Receiver *Variable
	Rhs      *Variable
	Fields   []FieldInfo
}

func (i *FieldAssign) Result() *Variable { return nil }
func (i *FieldAssign) CollectVariables() []*Variable {
	return collect(i.Receiver, i.Rhs)
}
func (i *FieldAssign) ReplaceVar(from, to *Variable) {
	replaceIn(&i.Receiver, from, to)
	replaceIn(&i.Rhs, from, to)
}
func (i *FieldAssign) String() string {
	return fmt.Sprintf("%s%s = %s", i.Receiver, fieldChain(i.Fields), i.Rhs)
}

type AddressOfField struct {
	base
	Dest     *Variable
	Receiver *Variable
	Fields   []FieldInfo
}

func (i *AddressOfField) Result() *Variable { return i.Dest }
func (i *AddressOfField) CollectVariables() []*Variable { return collect(i.Dest, i.Receiver) }
func (i *AddressOfField) ReplaceVar(from, to *Variable) {
	replaceIn(&i.Dest, from, to)
	replaceIn(&i.Receiver, from, to)
}
func (i *AddressOfField) String() string {
	return fmt.Sprintf("%s = &%s%s", i.Dest, i.Receiver, fieldChain(i.Fields))
}

// --- Aggregates ---

type Tuple struct {
	base
	Dest  *Variable
	Elems []*Variable
}

func (i *Tuple) Result() *Variable { return i.Dest }
func (i *Tuple) CollectVariables() []*Variable {
	return collect(append([]*Variable{i.Dest}, i.Elems...)...)
}
func (i *Tuple) ReplaceVar(from, to *Variable) {
	replaceIn(&i.Dest, from, to)
	replaceInSlice(i.Elems, from, to)
}
func (i *Tuple) String() string { return fmt.Sprintf("%s = tuple(%s)", i.Dest, varList(i.Elems)) }

// Transform reinterprets src as the given enum variant index, used when
// fanning a match's scrutinee out into its payload fields and when
// unpacking the saved-variable payload of a coroutine's state variant.
type Transform struct {
	base
	Dest         *Variable
	Src          *Variable
	VariantIndex int
}

func (i *Transform) Result() *Variable { return i.Dest }
func (i *Transform) CollectVariables() []*Variable { return collect(i.Dest, i.Src) }
func (i *Transform) ReplaceVar(from, to *Variable) {
	replaceIn(&i.Dest, from, to)
	replaceIn(&i.Src, from, to)
}
func (i *Transform) String() string {
	return fmt.Sprintf("%s = transform(%s, variant=%d)", i.Dest, i.Src, i.VariantIndex)
}

// --- Literals ---

type StringLiteral struct {
	base
	Dest  *Variable
	Value string
}

func (i *StringLiteral) Result() *Variable             { return i.Dest }
func (i *StringLiteral) CollectVariables() []*Variable { return collect(i.Dest) }
func (i *StringLiteral) ReplaceVar(from, to *Variable)  { replaceIn(&i.Dest, from, to) }
func (i *StringLiteral) String() string                 { return fmt.Sprintf("%s = %q", i.Dest, i.Value) }

type IntegerLiteral struct {
	base
	Dest  *Variable
	Value int64
}

func (i *IntegerLiteral) Result() *Variable             { return i.Dest }
func (i *IntegerLiteral) CollectVariables() []*Variable { return collect(i.Dest) }
func (i *IntegerLiteral) ReplaceVar(from, to *Variable)  { replaceIn(&i.Dest, from, to) }
func (i *IntegerLiteral) String() string                 { return fmt.Sprintf("%s = %d", i.Dest, i.Value) }

type CharLiteral struct {
	base
	Dest  *Variable
	Value byte
}

func (i *CharLiteral) Result() *Variable             { return i.Dest }
func (i *CharLiteral) CollectVariables() []*Variable { return collect(i.Dest) }
func (i *CharLiteral) ReplaceVar(from, to *Variable)  { replaceIn(&i.Dest, from, to) }
func (i *CharLiteral) String() string                 { return fmt.Sprintf("%s = '%c'", i.Dest, i.Value) }

// --- Control / effects at value level ---

type Return struct {
	base
	Dest  *Variable
	Value *Variable
}

func (i *Return) Result() *Variable             { return i.Dest }
func (i *Return) CollectVariables() []*Variable { return collect(i.Dest, i.Value) }
func (i *Return) ReplaceVar(from, to *Variable) {
	replaceIn(&i.Dest, from, to)
	replaceIn(&i.Value, from, to)
}
func (i *Return) IsTerminator() bool { return true }
func (i *Return) String() string    { return fmt.Sprintf("return %s", i.Value) }

type Yield struct {
	base
	Dest  *Variable
	Value *Variable
}

func (i *Yield) Result() *Variable             { return i.Dest }
func (i *Yield) CollectVariables() []*Variable { return collect(i.Dest, i.Value) }
func (i *Yield) ReplaceVar(from, to *Variable) {
	replaceIn(&i.Dest, from, to)
	replaceIn(&i.Value, from, to)
}
func (i *Yield) String() string { return fmt.Sprintf("%s = yield %s", i.Dest, i.Value) }

// --- References / pointers ---

type Ref struct {
	base
	Dest *Variable
	Src  *Variable
}

func (i *Ref) Result() *Variable             { return i.Dest }
func (i *Ref) CollectVariables() []*Variable { return collect(i.Dest, i.Src) }
func (i *Ref) ReplaceVar(from, to *Variable) {
	replaceIn(&i.Dest, from, to)
	replaceIn(&i.Src, from, to)
}
func (i *Ref) String() string { return fmt.Sprintf("%s = &%s", i.Dest, i.Src) }

type PtrOf struct {
	base
	Dest *Variable
	Src  *Variable
}

func (i *PtrOf) Result() *Variable             { return i.Dest }
func (i *PtrOf) CollectVariables() []*Variable { return collect(i.Dest, i.Src) }
func (i *PtrOf) ReplaceVar(from, to *Variable) {
	replaceIn(&i.Dest, from, to)
	replaceIn(&i.Src, from, to)
}
func (i *PtrOf) String() string { return fmt.Sprintf("%s = ptr_of(%s)", i.Dest, i.Src) }

type LoadPtr struct {
	base
	Dest *Variable
	Src  *Variable
}

func (i *LoadPtr) Result() *Variable             { return i.Dest }
func (i *LoadPtr) CollectVariables() []*Variable { return collect(i.Dest, i.Src) }
func (i *LoadPtr) ReplaceVar(from, to *Variable) {
	replaceIn(&i.Dest, from, to)
	replaceIn(&i.Src, from, to)
}
func (i *LoadPtr) String() string { return fmt.Sprintf("%s = load(%s)", i.Dest, i.Src) }

type StorePtr struct {
	base
	Dest *Variable
	Src  *Variable
}

func (i *StorePtr) Result() *Variable             { return nil }
func (i *StorePtr) CollectVariables() []*Variable { return collect(i.Dest, i.Src) }
func (i *StorePtr) ReplaceVar(from, to *Variable) {
	replaceIn(&i.Dest, from, to)
	replaceIn(&i.Src, from, to)
}
func (i *StorePtr) String() string { return fmt.Sprintf("store(%s, %s)", i.Dest, i.Src) }

// --- Bindings / assignment ---

type Assign struct {
	base
	Dest *Variable
	Src  *Variable
}

func (i *Assign) Result() *Variable             { return i.Dest }
func (i *Assign) CollectVariables() []*Variable { return collect(i.Dest, i.Src) }
func (i *Assign) ReplaceVar(from, to *Variable) {
	replaceIn(&i.Dest, from, to)
	replaceIn(&i.Src, from, to)
}
func (i *Assign) String() string { return fmt.Sprintf("%s = %s", i.Dest, i.Src) }

// Bind is lowered away by type check (see Converter lowering, 4.E.3).
type Bind struct {
	base
	Dest    *Variable
	Src     *Variable
	Mutable bool
}

func (i *Bind) Result() *Variable             { return i.Dest }
func (i *Bind) CollectVariables() []*Variable { return collect(i.Dest, i.Src) }
func (i *Bind) ReplaceVar(from, to *Variable) {
	replaceIn(&i.Dest, from, to)
	replaceIn(&i.Src, from, to)
}
func (i *Bind) String() string {
	mut := ""
	if i.Mutable {
		mut = "mut "
	}
	return fmt.Sprintf("let %s%s = %s", mut, i.Dest, i.Src)
}

type DeclareVar struct {
	base
	Var     *Variable
	Mutable bool
}

func (i *DeclareVar) Result() *Variable             { return i.Var }
func (i *DeclareVar) CollectVariables() []*Variable { return collect(i.Var) }
func (i *DeclareVar) ReplaceVar(from, to *Variable)  { replaceIn(&i.Var, from, to) }
func (i *DeclareVar) String() string {
	mut := ""
	if i.Mutable {
		mut = "mut "
	}
	return fmt.Sprintf("declare %s%s", mut, i.Var)
}

// --- Control flow ---

type Jump struct {
	base
	Dest BlockID
}

func (i *Jump) Result() *Variable             { return nil }
func (i *Jump) CollectVariables() []*Variable { return nil }
func (i *Jump) ReplaceVar(from, to *Variable) {}
func (i *Jump) IsTerminator() bool            { return true }
func (i *Jump) String() string                { return fmt.Sprintf("jump block%d", i.Dest) }

type EnumSwitch struct {
	base
	Root  *Variable
	Cases []EnumCase
}

func (i *EnumSwitch) Result() *Variable { return nil }
func (i *EnumSwitch) CollectVariables() []*Variable {
	vars := []*Variable{i.Root}
	for _, c := range i.Cases {
		vars = append(vars, c.Bindings...)
	}
	return collect(vars...)
}
func (i *EnumSwitch) ReplaceVar(from, to *Variable) {
	replaceIn(&i.Root, from, to)
	for idx := range i.Cases {
		replaceInSlice(i.Cases[idx].Bindings, from, to)
	}
}
func (i *EnumSwitch) IsTerminator() bool { return true }
func (i *EnumSwitch) String() string {
	return fmt.Sprintf("enum_switch %s (%d cases)", i.Root, len(i.Cases))
}

type IntegerSwitch struct {
	base
	Root    *Variable
	Cases   []Case
	Default BlockID
	HasDefault bool
}

func (i *IntegerSwitch) Result() *Variable             { return nil }
func (i *IntegerSwitch) CollectVariables() []*Variable { return collect(i.Root) }
func (i *IntegerSwitch) ReplaceVar(from, to *Variable)  { replaceIn(&i.Root, from, to) }
func (i *IntegerSwitch) IsTerminator() bool            { return true }
func (i *IntegerSwitch) String() string {
	return fmt.Sprintf("int_switch %s (%d cases)", i.Root, len(i.Cases))
}

type StringSwitch struct {
	base
	Root    *Variable
	Cases   []Case
	Default BlockID
	HasDefault bool
}

func (i *StringSwitch) Result() *Variable             { return nil }
func (i *StringSwitch) CollectVariables() []*Variable { return collect(i.Root) }
func (i *StringSwitch) ReplaceVar(from, to *Variable)  { replaceIn(&i.Root, from, to) }
func (i *StringSwitch) IsTerminator() bool            { return true }
func (i *StringSwitch) String() string {
	return fmt.Sprintf("string_switch %s (%d cases)", i.Root, len(i.Cases))
}

// --- Lexical scope markers ---

type BlockStart struct {
	base
	Scope SyntaxBlockId
}

func (i *BlockStart) Result() *Variable             { return nil }
func (i *BlockStart) CollectVariables() []*Variable { return nil }
func (i *BlockStart) ReplaceVar(from, to *Variable)  {}
func (i *BlockStart) String() string                { return fmt.Sprintf("block_start %s", i.Scope.Key()) }

type BlockEnd struct {
	base
	Scope SyntaxBlockId
}

func (i *BlockEnd) Result() *Variable             { return nil }
func (i *BlockEnd) CollectVariables() []*Variable { return nil }
func (i *BlockEnd) ReplaceVar(from, to *Variable)  {}
func (i *BlockEnd) String() string                { return fmt.Sprintf("block_end %s", i.Scope.Key()) }

// --- Implicits / effects ---

type With struct {
	base
	Dest *Variable
	Info WithInfo
}

func (i *With) Result() *Variable             { return i.Dest }
func (i *With) CollectVariables() []*Variable { return collect(i.Dest, i.Info.Handler) }
func (i *With) ReplaceVar(from, to *Variable) {
	replaceIn(&i.Dest, from, to)
	replaceIn(&i.Info.Handler, from, to)
}
func (i *With) String() string {
	return fmt.Sprintf("%s = with %s = %s", i.Dest, i.Info.ImplicitName, i.Info.Handler)
}

type ReadImplicit struct {
	base
	Dest *Variable
	Name string
}

func (i *ReadImplicit) Result() *Variable             { return i.Dest }
func (i *ReadImplicit) CollectVariables() []*Variable { return collect(i.Dest) }
func (i *ReadImplicit) ReplaceVar(from, to *Variable)  { replaceIn(&i.Dest, from, to) }
func (i *ReadImplicit) String() string                { return fmt.Sprintf("%s = read_implicit(%s)", i.Dest, i.Name) }

type WriteImplicit struct {
	base
	Name  string
	Value *Variable
}

func (i *WriteImplicit) Result() *Variable             { return nil }
func (i *WriteImplicit) CollectVariables() []*Variable { return collect(i.Value) }
func (i *WriteImplicit) ReplaceVar(from, to *Variable)  { replaceIn(&i.Value, from, to) }
func (i *WriteImplicit) String() string {
	return fmt.Sprintf("write_implicit(%s, %s)", i.Name, i.Value)
}

// --- Closures ---

type CreateClosure struct {
	base
	Dest *Variable
	Info ClosureInfo
}

func (i *CreateClosure) Result() *Variable { return i.Dest }
func (i *CreateClosure) CollectVariables() []*Variable {
	return collect(append([]*Variable{i.Dest}, i.Info.Captures...)...)
}
func (i *CreateClosure) ReplaceVar(from, to *Variable) {
	replaceIn(&i.Dest, from, to)
	replaceInSlice(i.Info.Captures, from, to)
}
func (i *CreateClosure) String() string {
	return fmt.Sprintf("%s = closure(%s, captures=%s)", i.Dest, i.Info.LambdaName, varList(i.Info.Captures))
}

type ClosureReturn struct {
	base
	Block BlockID
	Var   *Variable
	Value *Variable
}

func (i *ClosureReturn) Result() *Variable             { return nil }
func (i *ClosureReturn) CollectVariables() []*Variable { return collect(i.Var, i.Value) }
func (i *ClosureReturn) ReplaceVar(from, to *Variable) {
	replaceIn(&i.Var, from, to)
	replaceIn(&i.Value, from, to)
}
func (i *ClosureReturn) IsTerminator() bool { return true }
func (i *ClosureReturn) String() string     { return fmt.Sprintf("closure_return %s", i.Value) }

// --- Drops ---

type Drop struct {
	base
	Dest *Variable
	Var  *Variable
}

func (i *Drop) Result() *Variable             { return i.Dest }
func (i *Drop) CollectVariables() []*Variable { return collect(i.Dest, i.Var) }
func (i *Drop) ReplaceVar(from, to *Variable) {
	replaceIn(&i.Dest, from, to)
	replaceIn(&i.Var, from, to)
}
func (i *Drop) String() string { return fmt.Sprintf("drop %s", i.Var) }

// DropPath drops a sub-place rather than a whole variable, used when a
// partial move leaves only some fields of a variable still owned.
type DropPath struct {
	base
	Root   *Variable
	Fields []FieldInfo
}

func (i *DropPath) Result() *Variable             { return nil }
func (i *DropPath) CollectVariables() []*Variable { return collect(i.Root) }
func (i *DropPath) ReplaceVar(from, to *Variable)  { replaceIn(&i.Root, from, to) }
func (i *DropPath) String() string {
	return fmt.Sprintf("drop %s%s", i.Root, fieldChain(i.Fields))
}

// DropMetadata is a no-op marker instruction recording which paths were
// already moved out of a drop list at emission time; purely informational.
type DropMetadata struct {
	base
	MovedPaths []Path
}

func (i *DropMetadata) Result() *Variable             { return nil }
func (i *DropMetadata) CollectVariables() []*Variable { return nil }
func (i *DropMetadata) ReplaceVar(from, to *Variable)  {}
func (i *DropMetadata) String() string                { return fmt.Sprintf("drop_metadata(%d moved)", len(i.MovedPaths)) }

// --- Converter, lowered away by type check ---

type Converter struct {
	base
	Dest *Variable
	Src  *Variable
}

func (i *Converter) Result() *Variable             { return i.Dest }
func (i *Converter) CollectVariables() []*Variable { return collect(i.Dest, i.Src) }
func (i *Converter) ReplaceVar(from, to *Variable) {
	replaceIn(&i.Dest, from, to)
	replaceIn(&i.Src, from, to)
}
func (i *Converter) String() string { return fmt.Sprintf("%s = convert(%s)", i.Dest, i.Src) }

// --- formatting helpers ---

func varList(vs []*Variable) string {
	s := ""
	for idx, v := range vs {
		if idx > 0 {
			s += ", "
		}
		s += v.String()
	}
	return s
}

func fieldChain(fields []FieldInfo) string {
	s := ""
	for _, f := range fields {
		s += f.Sel.String()
	}
	return s
}
