package cow

import "fmt"

// CowBuf builds a FlatCow incrementally. While borrowed, each Push widens
// the window by one element and copies nothing; pushed values are assumed
// to equal the root elements they cover. Once owned, pushes append.
type CowBuf[E any] struct {
	value FlatCow[E]
}

// NewCowBuf stages an empty borrowed window at the start of root.
func NewCowBuf[E any](root []E) *CowBuf[E] {
	return &CowBuf[E]{value: FlatCow[E]{root: root}}
}

// StageFrom stages an empty buffer at c's start: borrowed from the same
// root, or a fresh owned slice when c is owned.
func StageFrom[E any](c FlatCow[E]) *CowBuf[E] {
	if c.isOwned {
		return &CowBuf[E]{value: Own[E](nil)}
	}
	return &CowBuf[E]{value: FlatCow[E]{root: c.root, start: c.start, end: c.start}}
}

// Start moves an empty borrowed window to begin at i of the root.
func (b *CowBuf[E]) Start(i int) {
	v := &b.value
	if v.isOwned {
		if len(v.owned) != 0 {
			panic(fmt.Sprintf("cow: buffer already holds %d elements", len(v.owned)))
		}
		return
	}
	switch {
	case v.end != v.start:
		panic(fmt.Sprintf("cow: buffer has started at [%d:%d]", v.start, v.end))
	case i < v.end:
		panic(fmt.Sprintf("cow: start %d precedes current position %d", i, v.end))
	case i > len(v.root):
		panic(fmt.Sprintf("cow: start %d past root length %d", i, len(v.root)))
	}
	v.start, v.end = i, i
}

// Push extends the window by one element, or appends x once owned.
func (b *CowBuf[E]) Push(x E) {
	v := &b.value
	if v.isOwned {
		v.owned = append(v.owned, x)
		return
	}
	if v.end == len(v.root) {
		panic(fmt.Sprintf("cow: push past root length %d", len(v.root)))
	}
	v.end++
}

// ClonePush converts the buffer to owned, copying the window if needed,
// then appends x.
func (b *CowBuf[E]) ClonePush(x E) {
	b.value.ToMut()
	b.value.owned = append(b.value.owned, x)
}

func (b *CowBuf[E]) Len() int { return b.value.Len() }

// Cow returns the staged value.
func (b *CowBuf[E]) Cow() FlatCow[E] { return b.value }
