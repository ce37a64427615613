package hir

import "strconv"

// BlockID identifies a Block within a Body's arena. Blocks never hold
// direct references to each other — only ids — so the block graph has no
// ownership cycles even though it is full of back-edges (loops).
type BlockID uint32

// Block is an ordered, mutable sequence of instructions.
type Block struct {
	ID           BlockID
	Instructions []Instruction
}

// Body is an arena of blocks with a designated entry point.
type Body struct {
	Blocks  map[BlockID]*Block
	Entry   BlockID
	nextID  BlockID
	nextVar int
}

func NewBody() *Body {
	b := &Body{Blocks: make(map[BlockID]*Block)}
	b.Entry = b.NewBlock()
	return b
}

// NewBlock allocates a fresh, empty block and returns its id.
func (b *Body) NewBlock() BlockID {
	id := b.nextID
	b.nextID++
	b.Blocks[id] = &Block{ID: id}
	return id
}

// Block panics if asked for a block that was never created — a structural
// violation, not a user error, per the HIR layer's failure contract.
func (b *Body) Block(id BlockID) *Block {
	blk, ok := b.Blocks[id]
	if !ok {
		panic("hir: unknown block id")
	}
	return blk
}

// NewTemp allocates a fresh, untyped variable local to this body. Its type
// cell starts empty; the type checker's initialise step fills it with a
// fresh unification variable.
func (b *Body) NewTemp(pos Position) *Variable {
	b.nextVar++
	return NewVariable(tempName(b.nextVar), pos)
}

func tempName(n int) string {
	return "%t" + strconv.Itoa(n)
}

// Split moves every instruction at and after `at` in block `from` into a
// freshly created block, returning its id. This is the primitive coroutine
// lowering uses to carve a resume entry point out of the block containing a
// Yield.
func (b *Body) Split(from BlockID, at int) BlockID {
	src := b.Block(from)
	tailID := b.NewBlock()
	tail := b.Block(tailID)
	if at < 0 || at > len(src.Instructions) {
		panic("hir: split index out of range")
	}
	tail.Instructions = append(tail.Instructions, src.Instructions[at:]...)
	src.Instructions = src.Instructions[:at:at]
	return tailID
}

// Cursor is a mutable position within a block, used by passes to inspect,
// replace, and insert instructions without manually indexing Instructions
// slices at every call site.
type Cursor struct {
	body  *Body
	block *Block
	pos   int
}

func (b *Body) Cursor(id BlockID) *Cursor {
	return &Cursor{body: b, block: b.Block(id)}
}

func (c *Cursor) BlockID() BlockID { return c.block.ID }

func (c *Cursor) AtEnd() bool { return c.pos >= len(c.block.Instructions) }

func (c *Cursor) Current() Instruction {
	if c.AtEnd() {
		return nil
	}
	return c.block.Instructions[c.pos]
}

func (c *Cursor) Advance() { c.pos++ }

func (c *Cursor) Replace(inst Instruction) {
	c.block.Instructions[c.pos] = inst
}

func (c *Cursor) InsertBefore(inst Instruction) {
	c.insertAt(c.pos, inst)
	c.pos++
}

func (c *Cursor) InsertAfter(inst Instruction) {
	c.insertAt(c.pos+1, inst)
}

func (c *Cursor) Append(inst Instruction) {
	c.block.Instructions = append(c.block.Instructions, inst)
}

func (c *Cursor) insertAt(i int, inst Instruction) {
	ins := c.block.Instructions
	ins = append(ins, nil)
	copy(ins[i+1:], ins[i:])
	ins[i] = inst
	c.block.Instructions = ins
}
