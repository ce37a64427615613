package hir

import (
	"strconv"
	"strings"
)

// Selector is one step of a field path: either a named struct field or a
// positional tuple/variant-payload index.
type Selector struct {
	Name    string // set when this is a named field
	Index   int    // set when this is a positional index
	Indexed bool
}

func NamedSelector(name string) Selector { return Selector{Name: name} }
func IndexSelector(i int) Selector       { return Selector{Index: i, Indexed: true} }

func (s Selector) String() string {
	if s.Indexed {
		return "." + strconv.Itoa(s.Index)
	}
	return "." + s.Name
}

// Path is a place: a root variable plus a sequence of field selectors.
// Paths form a prefix lattice for move analysis — a move at path P kills
// every descendant of P and partially-moves every strict ancestor.
type Path struct {
	Root      *Variable
	Selectors []Selector
}

func RootPath(v *Variable) Path { return Path{Root: v} }

func (p Path) Extend(s Selector) Path {
	next := make([]Selector, len(p.Selectors)+1)
	copy(next, p.Selectors)
	next[len(p.Selectors)] = s
	return Path{Root: p.Root, Selectors: next}
}

// Key returns a stable string suitable for use as a map key; paths compare
// by root variable name plus selector sequence, never by Variable identity.
func (p Path) Key() string {
	var b strings.Builder
	if p.Root != nil {
		b.WriteString(p.Root.Name)
	}
	for _, s := range p.Selectors {
		b.WriteString(s.String())
	}
	return b.String()
}

// IsPrefixOf reports whether p is a prefix of (or equal to) other — i.e.
// other names the same place or a field nested inside it.
func (p Path) IsPrefixOf(other Path) bool {
	if p.Root == nil || other.Root == nil || !p.Root.Equal(other.Root) {
		return false
	}
	if len(p.Selectors) > len(other.Selectors) {
		return false
	}
	for i, s := range p.Selectors {
		if s != other.Selectors[i] {
			return false
		}
	}
	return true
}

func (p Path) String() string {
	return p.Key()
}

// SyntaxBlockId is a hierarchical lexical-scope identifier: a sequence of
// segments, each introduced by a nested block. It is emitted as
// BlockStart/BlockEnd pairs and used by the drop checker to know which
// scope a local's declaration belongs to.
type SyntaxBlockId struct {
	Segments []uint32
}

func RootSyntaxBlock() SyntaxBlockId { return SyntaxBlockId{Segments: []uint32{0}} }

func (id SyntaxBlockId) Child(n uint32) SyntaxBlockId {
	next := make([]uint32, len(id.Segments)+1)
	copy(next, id.Segments)
	next[len(id.Segments)] = n
	return SyntaxBlockId{Segments: next}
}

func (id SyntaxBlockId) Key() string {
	var b strings.Builder
	for i, s := range id.Segments {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(int(s)))
	}
	return b.String()
}
