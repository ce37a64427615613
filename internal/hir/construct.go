package hir

// instCounter hands out process-unique instruction ids. Compilation is
// single-threaded cooperative (see the concurrency model), so a bare
// package-level counter is sufficient — there is never a cross-thread race
// on it.
var instCounter int

func nextInstID() int {
	instCounter++
	return instCounter
}

func newBase(pos Position) base { return base{id: nextInstID(), pos: pos} }

func NewFunctionCall(pos Position, dest *Variable, info CallInfo) *FunctionCall {
	return &FunctionCall{base: newBase(pos), Dest: dest, Info: info}
}

func NewMethodCall(pos Position, dest, receiver *Variable, name string, args []*Variable) *MethodCall {
	return &MethodCall{base: newBase(pos), Dest: dest, Receiver: receiver, Name: name, Args: args}
}

func NewDynamicFunctionCall(pos Position, dest, callee *Variable, args []*Variable) *DynamicFunctionCall {
	return &DynamicFunctionCall{base: newBase(pos), Dest: dest, Callee: callee, Args: args}
}

func NewFieldRef(pos Position, dest, receiver *Variable, fields []FieldInfo) *FieldRef {
	return &FieldRef{base: newBase(pos), Dest: dest, Receiver: receiver, Fields: fields}
}

func NewFieldAssign(pos Position, receiver, rhs *Variable, fields []FieldInfo) *FieldAssign {
	return &FieldAssign{base: newBase(pos), Receiver: receiver, Rhs: rhs, Fields: fields}
}

func NewAddressOfField(pos Position, dest, receiver *Variable, fields []FieldInfo) *AddressOfField {
	return &AddressOfField{base: newBase(pos), Dest: dest, Receiver: receiver, Fields: fields}
}

func NewTuple(pos Position, dest *Variable, elems []*Variable) *Tuple {
	return &Tuple{base: newBase(pos), Dest: dest, Elems: elems}
}

func NewTransform(pos Position, dest, src *Variable, variantIndex int) *Transform {
	return &Transform{base: newBase(pos), Dest: dest, Src: src, VariantIndex: variantIndex}
}

func NewStringLiteral(pos Position, dest *Variable, v string) *StringLiteral {
	return &StringLiteral{base: newBase(pos), Dest: dest, Value: v}
}

func NewIntegerLiteral(pos Position, dest *Variable, v int64) *IntegerLiteral {
	return &IntegerLiteral{base: newBase(pos), Dest: dest, Value: v}
}

func NewCharLiteral(pos Position, dest *Variable, v byte) *CharLiteral {
	return &CharLiteral{base: newBase(pos), Dest: dest, Value: v}
}

func NewReturn(pos Position, dest, value *Variable) *Return {
	return &Return{base: newBase(pos), Dest: dest, Value: value}
}

func NewYield(pos Position, dest, value *Variable) *Yield {
	return &Yield{base: newBase(pos), Dest: dest, Value: value}
}

func NewRef(pos Position, dest, src *Variable) *Ref {
	return &Ref{base: newBase(pos), Dest: dest, Src: src}
}

func NewPtrOf(pos Position, dest, src *Variable) *PtrOf {
	return &PtrOf{base: newBase(pos), Dest: dest, Src: src}
}

func NewLoadPtr(pos Position, dest, src *Variable) *LoadPtr {
	return &LoadPtr{base: newBase(pos), Dest: dest, Src: src}
}

func NewStorePtr(pos Position, dest, src *Variable) *StorePtr {
	return &StorePtr{base: newBase(pos), Dest: dest, Src: src}
}

func NewAssign(pos Position, dest, src *Variable) *Assign {
	return &Assign{base: newBase(pos), Dest: dest, Src: src}
}

func NewBind(pos Position, dest, src *Variable, mutable bool) *Bind {
	return &Bind{base: newBase(pos), Dest: dest, Src: src, Mutable: mutable}
}

func NewDeclareVar(pos Position, v *Variable, mutable bool) *DeclareVar {
	return &DeclareVar{base: newBase(pos), Var: v, Mutable: mutable}
}

func NewJump(pos Position, dest BlockID) *Jump {
	return &Jump{base: newBase(pos), Dest: dest}
}

func NewEnumSwitch(pos Position, root *Variable, cases []EnumCase) *EnumSwitch {
	return &EnumSwitch{base: newBase(pos), Root: root, Cases: cases}
}

func NewIntegerSwitch(pos Position, root *Variable, cases []Case, def BlockID, hasDefault bool) *IntegerSwitch {
	return &IntegerSwitch{base: newBase(pos), Root: root, Cases: cases, Default: def, HasDefault: hasDefault}
}

func NewStringSwitch(pos Position, root *Variable, cases []Case, def BlockID, hasDefault bool) *StringSwitch {
	return &StringSwitch{base: newBase(pos), Root: root, Cases: cases, Default: def, HasDefault: hasDefault}
}

func NewBlockStart(pos Position, scope SyntaxBlockId) *BlockStart {
	return &BlockStart{base: newBase(pos), Scope: scope}
}

func NewBlockEnd(pos Position, scope SyntaxBlockId) *BlockEnd {
	return &BlockEnd{base: newBase(pos), Scope: scope}
}

func NewWith(pos Position, dest *Variable, info WithInfo) *With {
	return &With{base: newBase(pos), Dest: dest, Info: info}
}

func NewReadImplicit(pos Position, dest *Variable, name string) *ReadImplicit {
	return &ReadImplicit{base: newBase(pos), Dest: dest, Name: name}
}

func NewWriteImplicit(pos Position, name string, value *Variable) *WriteImplicit {
	return &WriteImplicit{base: newBase(pos), Name: name, Value: value}
}

func NewCreateClosure(pos Position, dest *Variable, info ClosureInfo) *CreateClosure {
	return &CreateClosure{base: newBase(pos), Dest: dest, Info: info}
}

func NewClosureReturn(pos Position, block BlockID, v, value *Variable) *ClosureReturn {
	return &ClosureReturn{base: newBase(pos), Block: block, Var: v, Value: value}
}

func NewDrop(pos Position, dest, v *Variable) *Drop {
	return &Drop{base: newBase(pos), Dest: dest, Var: v}
}

func NewDropPath(pos Position, root *Variable, fields []FieldInfo) *DropPath {
	return &DropPath{base: newBase(pos), Root: root, Fields: fields}
}

func NewDropMetadata(pos Position, moved []Path) *DropMetadata {
	return &DropMetadata{base: newBase(pos), MovedPaths: moved}
}

func NewConverter(pos Position, dest, src *Variable) *Converter {
	return &Converter{base: newBase(pos), Dest: dest, Src: src}
}
