package flatmem

import (
	"fmt"
	"iter"
)

// IntoIter moves elements out of a buffer it owns, from either end.
//
// Live elements occupy [front, back). Everything outside that window has
// been moved out or destroyed. Release destroys what is left and frees the
// original allocation; it must be called unless the iterator was drained
// through Count.
type IntoIter[T any] struct {
	_     noCopy
	buf   rawBuffer[T]
	front int
	back  int
}

// Len returns the number of elements not yet moved out.
func (it *IntoIter[T]) Len() int { return it.back - it.front }

func (it *IntoIter[T]) IsEmpty() bool { return it.front >= it.back }

// Cap returns the capacity of the buffer taken from the array.
func (it *IntoIter[T]) Cap() int { return it.buf.n }

// AsSlice views the remaining elements without consuming them. Writes
// through the view are seen by later Next and NextBack calls.
func (it *IntoIter[T]) AsSlice() []T {
	return it.buf.data[it.front:it.back:it.back]
}

// take moves the element at i out and leaves a zero value behind.
func (it *IntoIter[T]) take(i int) T {
	p := &it.buf.data[i]
	v := *p
	var zero T
	*p = zero
	return v
}

// discard destroys [lo, hi) in place.
func (it *IntoIter[T]) discard(lo, hi int) {
	if it.buf.drop {
		it.buf.dropRange(lo, hi)
		return
	}
	clear(it.buf.data[lo:hi])
}

// Next moves out the front element. Once it reports false it keeps doing so.
func (it *IntoIter[T]) Next() (T, bool) {
	if it.front >= it.back {
		var zero T
		return zero, false
	}
	v := it.take(it.front)
	it.front++
	return v, true
}

// NextBack moves out the back element.
func (it *IntoIter[T]) NextBack() (T, bool) {
	if it.front >= it.back {
		var zero T
		return zero, false
	}
	it.back--
	return it.take(it.back), true
}

// AdvanceBy destroys up to n elements from the front. It returns how many
// were skipped and whether that was all n.
func (it *IntoIter[T]) AdvanceBy(n int) (int, bool) {
	if n < 0 {
		panic(fmt.Sprintf("flatmem: negative advance %d", n))
	}
	k := min(n, it.Len())
	it.discard(it.front, it.front+k)
	it.front += k
	return k, k == n
}

// AdvanceBackBy is AdvanceBy from the back.
func (it *IntoIter[T]) AdvanceBackBy(n int) (int, bool) {
	if n < 0 {
		panic(fmt.Sprintf("flatmem: negative advance %d", n))
	}
	k := min(n, it.Len())
	it.discard(it.back-k, it.back)
	it.back -= k
	return k, k == n
}

// NextChunk moves out the next n elements as one batch. When fewer than n
// remain it returns all of them with false, leaving the iterator exhausted.
func (it *IntoIter[T]) NextChunk(n int) ([]T, bool) {
	if n < 0 {
		panic(fmt.Sprintf("flatmem: negative chunk size %d", n))
	}
	k := min(n, it.Len())
	out := make([]T, k)
	window := it.buf.data[it.front : it.front+k]
	copy(out, window)
	clear(window)
	it.front += k
	return out, k == n
}

// All drains the iterator front to back. Stopping early leaves the rest in
// place for later calls.
func (it *IntoIter[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, ok := it.Next()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

// Backward drains the iterator back to front.
func (it *IntoIter[T]) Backward() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, ok := it.NextBack()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

// Count returns how many elements remained, then releases them.
func (it *IntoIter[T]) Count() int {
	n := it.Len()
	it.Release()
	return n
}

// Release destroys the remaining elements and frees the allocation.
// Calling it again does nothing.
func (it *IntoIter[T]) Release() {
	if it.front < it.back {
		it.buf.dropRange(it.front, it.back)
	}
	it.buf.free()
	it.front, it.back = 0, 0
}

func (it *IntoIter[T]) Format(state fmt.State, verb rune) {
	fmt.Fprintf(state, "IntoIter"+fmt.FormatString(state, verb), it.AsSlice())
}
