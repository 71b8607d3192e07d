package flatmem

import (
	"fmt"
	"reflect"
	"runtime"
	"unsafe"

	"github.com/rawbytedev/flatmem/internal/common"
	"github.com/rawbytedev/flatmem/pkg/alloc"
)

// rawBuffer owns one contiguous allocation of n elements.
//
// Pointer-free elements are carved out of allocator memory; anything holding
// Go pointers stays on the Go heap so the collector can see it. Zero-sized
// elements never allocate and n is a plain counter.
type rawBuffer[T any] struct {
	data   []T
	region []byte          // allocator memory backing data, nil on the Go heap
	a      alloc.Allocator // source of region, reused by Resize and Clone
	n      int
	drop   bool

	cleanup runtime.Cleanup // frees region if the owner is collected unreleased
	guarded bool
}

type regionRef struct {
	a      alloc.Allocator
	region []byte
}

func freeRegion(r regionRef) { r.a.Free(r.region) }

// guardBuffer frees b's region once owner becomes unreachable without
// having released it. Elements are not destroyed on that path.
func guardBuffer[O, T any](owner *O, b *rawBuffer[T]) {
	if b.region == nil {
		return
	}
	b.cleanup = runtime.AddCleanup(owner, freeRegion, regionRef{a: b.a, region: b.region})
	b.guarded = true
}

// unguard cancels the cleanup registered for the current owner.
func (b *rawBuffer[T]) unguard() {
	if b.guarded {
		b.cleanup.Stop()
		b.guarded = false
	}
}

func elemSize[T any]() uintptr {
	var zero T
	return unsafe.Sizeof(zero)
}

func newRawBuffer[T any](a alloc.Allocator, n int) rawBuffer[T] {
	if n < 0 {
		panic(fmt.Sprintf("flatmem: negative capacity %d", n))
	}
	b := rawBuffer[T]{a: a, n: n, drop: needsDrop[T]()}
	size := elemSize[T]()
	switch {
	case n == 0:
		return b
	case size == 0:
		// no storage; Go slices of zero-sized elements never touch memory
		b.data = make([]T, n)
		return b
	case a == nil || !common.IsPointerFree(reflect.TypeFor[T]()):
		b.data = make([]T, n)
		return b
	}

	if uintptr(n) > ^uintptr(0)/size {
		panic(fmt.Errorf("flatmem: %d elements of %d bytes: %w", n, size, ErrAlloc))
	}
	region, err := a.Alloc(n * int(size))
	if err != nil {
		panic(fmt.Errorf("flatmem: allocate %d bytes: %w: %w", n*int(size), ErrAlloc, err))
	}
	var zero T
	if uintptr(unsafe.Pointer(unsafe.SliceData(region)))%unsafe.Alignof(zero) != 0 {
		a.Free(region)
		b.data = make([]T, n)
		return b
	}
	b.data = unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(region))), n)
	b.region = region
	return b
}

// dropRange destroys the live elements in [lo, hi).
func (b *rawBuffer[T]) dropRange(lo, hi int) {
	if !b.drop {
		return
	}
	for i := lo; i < hi; i++ {
		dropInPlace(&b.data[i])
	}
}

// free releases the allocation using the capacity captured at construction.
// It does not run destructors.
func (b *rawBuffer[T]) free() {
	b.unguard()
	if b.region != nil {
		b.a.Free(b.region)
	}
	*b = rawBuffer[T]{}
}

// take moves ownership out of b, leaving it empty.
func (b *rawBuffer[T]) take() rawBuffer[T] {
	b.unguard()
	out := *b
	*b = rawBuffer[T]{}
	return out
}
