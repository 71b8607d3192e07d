package cow

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// FlatCow is either a borrowed window [start, end) of a root slice it does
// not own, or a slice it owns outright.
//
// A borrowed root must not be modified while any FlatCow refers to it.
// Slicing a borrowed value never copies; slicing an owned value always does.
// Once owned, every value derived from it is owned too.
type FlatCow[E any] struct {
	root       []E
	start, end int
	owned      []E
	isOwned    bool
}

// Borrow views all of root.
func Borrow[E any](root []E) FlatCow[E] {
	return FlatCow[E]{root: root, end: len(root)}
}

// Own takes ownership of owned. The caller must not keep using it.
func Own[E any](owned []E) FlatCow[E] {
	return FlatCow[E]{owned: owned, isOwned: true}
}

func (c FlatCow[E]) IsBorrowed() bool { return !c.isOwned }

func (c FlatCow[E]) IsOwned() bool { return c.isOwned }

// Window returns the absolute bounds of a borrowed value within its root.
// ok is false for owned values.
func (c FlatCow[E]) Window() (start, end int, ok bool) {
	if c.isOwned {
		return 0, 0, false
	}
	return c.start, c.end, true
}

func (c FlatCow[E]) Len() int {
	if c.isOwned {
		return len(c.owned)
	}
	return c.end - c.start
}

// Slice returns the current contents without copying. The result has no
// spare capacity, so appending to it never writes into a borrowed root.
func (c FlatCow[E]) Slice() []E {
	if c.isOwned {
		return c.owned[:len(c.owned):len(c.owned)]
	}
	return c.root[c.start:c.end:c.end]
}

// SliceCow selects r relative to the current contents.
func (c FlatCow[E]) SliceCow(r Range) FlatCow[E] {
	if !c.isOwned {
		start, end := UnionRange(c.start, c.end, r)
		return FlatCow[E]{root: c.root, start: start, end: end}
	}
	lo, hi := r.Resolve(len(c.owned))
	return Own(slices.Clone(c.owned[lo:hi]))
}

// ToMut copies a borrowed window into an owned slice, replacing the
// variant, and returns the owned slice. Writes through the result never
// reach the old root.
func (c *FlatCow[E]) ToMut() []E {
	if !c.isOwned {
		owned := make([]E, c.end-c.start)
		copy(owned, c.root[c.start:c.end])
		*c = Own(owned)
	}
	return c.owned
}

// IntoOwned returns the contents as a slice owned by the caller, copying
// only when c was borrowed.
func (c FlatCow[E]) IntoOwned() []E {
	if c.isOwned {
		return c.owned
	}
	return slices.Clone(c.root[c.start:c.end])
}

// Clone shares the root of a borrowed value and deep-copies an owned one.
func (c FlatCow[E]) Clone() FlatCow[E] {
	if c.isOwned {
		return Own(slices.Clone(c.owned))
	}
	return c
}

// CowBuf starts a staging buffer positioned at the start of c.
func (c FlatCow[E]) CowBuf() *CowBuf[E] {
	return &CowBuf[E]{value: c}
}

func (c FlatCow[E]) Format(state fmt.State, verb rune) {
	fmt.Fprintf(state, fmt.FormatString(state, verb), c.Slice())
}

// Equal compares contents, regardless of which variant holds them.
func Equal[E comparable](a, b FlatCow[E]) bool {
	return slices.Equal(a.Slice(), b.Slice())
}

// Compare orders contents lexicographically.
func Compare[E cmp.Ordered](a, b FlatCow[E]) int {
	return slices.Compare(a.Slice(), b.Slice())
}

// HashBytes hashes the contents of a byte view.
func HashBytes(c FlatCow[byte]) uint64 {
	return xxhash.Sum64(c.Slice())
}
