package alloc

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/charmbracelet/log"
)

var (
	ErrNegativeSize = errors.New("negative allocation size")
	ErrUnsupported  = errors.New("allocator not supported on this platform")
)

// Allocator hands out zeroed contiguous byte regions.
type Allocator interface {
	// Alloc returns a zeroed region of exactly size bytes, 8-byte aligned.
	Alloc(size int) ([]byte, error)

	// Free releases a region returned by Alloc. The region must not be used
	// afterwards and must be freed once.
	Free(region []byte)
}

var logger atomic.Pointer[log.Logger]

func init() {
	logger.Store(log.New(io.Discard))
}

// SetLogger routes allocator diagnostics to l. A nil l silences them.
func SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard)
	}
	logger.Store(l)
}

func lg() *log.Logger { return logger.Load() }

// Heap allocates from the Go heap. Free is a no-op; the collector reclaims
// regions once nothing references them.
type Heap struct{}

func (Heap) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, ErrNegativeSize
	}
	if size == 0 {
		return []byte{}, nil
	}
	// back with words so the region is 8-byte aligned
	words := make([]uint64, (size+7)/8)
	return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), size), nil
}

func (Heap) Free([]byte) {}

var (
	defaultOnce sync.Once
	defaultMu   sync.RWMutex
	defaultA    Allocator
)

// Default returns the process-wide allocator, Heap unless SetDefault was called.
func Default() Allocator {
	defaultOnce.Do(func() {
		defaultMu.Lock()
		if defaultA == nil {
			defaultA = Heap{}
		}
		defaultMu.Unlock()
	})
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultA
}

// SetDefault replaces the process-wide allocator. Buffers already allocated
// keep the allocator they were created with.
func SetDefault(a Allocator) {
	if a == nil {
		a = Heap{}
	}
	defaultMu.Lock()
	defaultA = a
	defaultMu.Unlock()
	lg().Debug("default allocator replaced", "allocator", Name(a))
}

// Name returns a short label for a.
func Name(a Allocator) string {
	switch v := a.(type) {
	case Heap, *Heap:
		return "heap"
	case *Mmap:
		return "mmap"
	case *Pool:
		return "pool(" + Name(v.inner) + ")"
	case *Metered:
		return "metered(" + Name(v.inner) + ")"
	default:
		return "custom"
	}
}
