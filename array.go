package flatmem

import (
	"errors"
	"fmt"
	"iter"

	"github.com/rawbytedev/flatmem/pkg/alloc"
)

var ErrAlloc = errors.New("allocation failed")

// Array is a fixed-capacity heap array. Its length is its capacity: every
// slot always holds a live value, zero until written.
//
// An Array exclusively owns its buffer. It must not be copied; pass *Array.
// It is not safe for concurrent use.
//
// Release is the way to give memory back. An Array collected without it
// still returns its allocator region, but its elements are not dropped and
// views taken from it must not outlive it.
type Array[T any] struct {
	_   noCopy
	buf rawBuffer[T]
}

// New allocates n zeroed elements from the default allocator.
func New[T any](n int) *Array[T] {
	return NewIn[T](alloc.Default(), n)
}

// NewIn allocates n zeroed elements from a. A nil a uses the Go heap.
func NewIn[T any](a alloc.Allocator, n int) *Array[T] {
	arr := &Array[T]{buf: newRawBuffer[T](a, n)}
	guardBuffer(arr, &arr.buf)
	return arr
}

func Empty[T any]() *Array[T] {
	return New[T](0)
}

// NewWithClone fills n slots with clones of init.
func NewWithClone[T any](init T, n int) *Array[T] {
	arr := New[T](n)
	for i := range arr.buf.data {
		arr.buf.data[i] = cloneElem(init)
	}
	return arr
}

// Of builds an array holding exactly items.
func Of[T any](items ...T) *Array[T] {
	return CopyFromSlice(items)
}

// CopyFromSlice copies src into a new array of len(src) elements.
func CopyFromSlice[T any](src []T) *Array[T] {
	arr := New[T](len(src))
	copy(arr.buf.data, src)
	return arr
}

// CloneFromSlice clones each element of src into a new array.
func CloneFromSlice[T any](src []T) *Array[T] {
	arr := New[T](len(src))
	for i := range src {
		arr.buf.data[i] = cloneElem(src[i])
	}
	return arr
}

// FromSeq moves at most n values out of seq. Slots seq does not reach stay zero.
func FromSeq[T any](seq iter.Seq[T], n int) *Array[T] {
	arr := New[T](n)
	if n == 0 {
		return arr
	}
	i := 0
	for v := range seq {
		arr.buf.data[i] = v
		if i++; i == n {
			break
		}
	}
	return arr
}

// Merge returns a new array holding a's elements followed by b's.
// Neither input is modified.
func Merge[T any](a, b *Array[T]) *Array[T] {
	arr := New[T](a.Len() + b.Len())
	for i, v := range a.buf.data {
		arr.buf.data[i] = cloneElem(v)
	}
	off := a.Len()
	for i, v := range b.buf.data {
		arr.buf.data[off+i] = cloneElem(v)
	}
	return arr
}

// Equal reports whether a and b hold the same elements in the same order.
func Equal[T comparable](a, b *Array[T]) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := range a.buf.data {
		if a.buf.data[i] != b.buf.data[i] {
			return false
		}
	}
	return true
}

func (a *Array[T]) Len() int { return len(a.buf.data) }

// Cap equals Len; an Array never holds spare capacity.
func (a *Array[T]) Cap() int { return len(a.buf.data) }

func (a *Array[T]) IsEmpty() bool { return len(a.buf.data) == 0 }

func (a *Array[T]) checkIndex(i int) {
	if i < 0 || i >= len(a.buf.data) {
		panic(fmt.Sprintf("flatmem: index out of range [%d] with length %d", i, len(a.buf.data)))
	}
}

func (a *Array[T]) At(i int) T {
	a.checkIndex(i)
	return a.buf.data[i]
}

// Set stores v at i, destroying the element it replaces.
func (a *Array[T]) Set(i int, v T) {
	a.checkIndex(i)
	a.buf.dropRange(i, i+1)
	a.buf.data[i] = v
}

// Ptr returns the address of element i. It is invalidated by Resize,
// IntoIter and Release.
func (a *Array[T]) Ptr(i int) *T {
	a.checkIndex(i)
	return &a.buf.data[i]
}

// Slice returns a view of every element. Appending to it never writes into
// the array.
func (a *Array[T]) Slice() []T {
	n := len(a.buf.data)
	return a.buf.data[:n:n]
}

// Sub returns a view of elements [lo, hi).
func (a *Array[T]) Sub(lo, hi int) []T {
	n := len(a.buf.data)
	if lo < 0 || lo > hi || hi > n {
		panic(fmt.Sprintf("flatmem: slice bounds out of range [%d:%d] with length %d", lo, hi, n))
	}
	return a.buf.data[lo:hi:hi]
}

// Iter yields a pointer to each element in order. Every call starts over
// from index 0. The array must not be resized or released while iterating.
func (a *Array[T]) Iter() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for i := range a.buf.data {
			if !yield(&a.buf.data[i]) {
				return
			}
		}
	}
}

// All yields index/value pairs in order.
func (a *Array[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, v := range a.buf.data {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Clone returns an independent copy using the same allocator.
func (a *Array[T]) Clone() *Array[T] {
	out := NewIn[T](a.allocator(), a.Len())
	for i, v := range a.buf.data {
		out.buf.data[i] = cloneElem(v)
	}
	return out
}

// allocator is nil for arrays built on the Go heap or already released.
func (a *Array[T]) allocator() alloc.Allocator {
	return a.buf.a
}

// Resize moves the array into a new buffer of n elements. The common prefix
// moves over, elements past n are destroyed, and new slots are zero. Pointers
// taken before the call are invalidated.
func (a *Array[T]) Resize(n int) {
	if n == a.Len() {
		return
	}
	next := newRawBuffer[T](a.allocator(), n)
	keep := min(n, a.Len())
	copy(next.data, a.buf.data[:keep])
	a.buf.dropRange(keep, a.Len())
	a.buf.free()
	a.buf = next
	guardBuffer(a, &a.buf)
}

// IntoIter transfers the buffer to a move-out iterator. The array is left
// empty and releasing it afterwards does nothing.
func (a *Array[T]) IntoIter() *IntoIter[T] {
	buf := a.buf.take()
	it := &IntoIter[T]{buf: buf, front: 0, back: len(buf.data)}
	guardBuffer(it, &it.buf)
	return it
}

// Release destroys every element and frees the buffer. Calling it again, or
// on an empty array, does nothing.
func (a *Array[T]) Release() {
	a.buf.dropRange(0, len(a.buf.data))
	a.buf.free()
}

// Format prints the elements like a slice.
func (a *Array[T]) Format(state fmt.State, verb rune) {
	fmt.Fprintf(state, fmt.FormatString(state, verb), a.buf.data)
}
