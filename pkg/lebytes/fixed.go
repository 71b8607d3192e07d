package lebytes

import (
	"encoding/binary"
	"fmt"
	"slices"
	"unsafe"

	"github.com/rawbytedev/flatmem"
	"golang.org/x/exp/constraints"
)

// Fixed is any numeric type with a fixed in-memory width. Values are
// written at their native width, so int and uint follow the platform.
type Fixed interface {
	constraints.Integer | constraints.Float
}

func widthOf[T Fixed]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// putLE writes the bits of v into dst[:width] in little-endian order.
func putLE[T Fixed](dst []byte, v T) {
	p := unsafe.Pointer(&v)
	switch len(dst) {
	case 1:
		dst[0] = *(*uint8)(p)
	case 2:
		binary.LittleEndian.PutUint16(dst, *(*uint16)(p))
	case 4:
		binary.LittleEndian.PutUint32(dst, *(*uint32)(p))
	case 8:
		binary.LittleEndian.PutUint64(dst, *(*uint64)(p))
	}
}

func getLE[T Fixed](src []byte) T {
	var v T
	p := unsafe.Pointer(&v)
	switch len(src) {
	case 1:
		*(*uint8)(p) = src[0]
	case 2:
		*(*uint16)(p) = binary.LittleEndian.Uint16(src)
	case 4:
		*(*uint32)(p) = binary.LittleEndian.Uint32(src)
	case 8:
		*(*uint64)(p) = binary.LittleEndian.Uint64(src)
	}
	return v
}

// AppendLE appends the little-endian bytes of v to dst.
func AppendLE[T Fixed](dst []byte, v T) []byte {
	n, l := widthOf[T](), len(dst)
	dst = slices.Grow(dst, n)[:l+n]
	putLE(dst[l:], v)
	return dst
}

// ToLeBytes returns the little-endian bytes of v in a new array.
func ToLeBytes[T Fixed](v T) *flatmem.Array[byte] {
	out := flatmem.New[byte](widthOf[T]())
	putLE(out.Slice(), v)
	return out
}

// FromLeBytes decodes exactly one value from b.
func FromLeBytes[T Fixed](b []byte) (T, error) {
	n := widthOf[T]()
	switch {
	case len(b) < n:
		var zero T
		return zero, fmt.Errorf("lebytes: need %d bytes, have %d: %w", n, len(b), ErrShortBuffer)
	case len(b) > n:
		var zero T
		return zero, fmt.Errorf("lebytes: %d bytes after value: %w", len(b)-n, ErrTrailing)
	}
	return getLE[T](b), nil
}

// ArrayToLeBytes lays the elements of a out back to back.
func ArrayToLeBytes[T Fixed](a *flatmem.Array[T]) *flatmem.Array[byte] {
	n := widthOf[T]()
	out := flatmem.New[byte](a.Len() * n)
	dst := out.Slice()
	for i, v := range a.All() {
		putLE(dst[i*n:(i+1)*n], v)
	}
	return out
}

// ArrayFromLeBytes decodes len(b)/width elements. b must hold a whole
// number of elements.
func ArrayFromLeBytes[T Fixed](b []byte) (*flatmem.Array[T], error) {
	n := widthOf[T]()
	if rem := len(b) % n; rem != 0 {
		return nil, fmt.Errorf("lebytes: %d bytes do not fill a %d byte element: %w", rem, n, ErrTrailing)
	}
	out := flatmem.New[T](len(b) / n)
	for i := range out.Len() {
		out.Set(i, getLE[T](b[i*n:(i+1)*n]))
	}
	return out, nil
}
