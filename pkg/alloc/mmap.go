package alloc

import (
	"fmt"
	"sync"
)

// Mmap backs every region with its own anonymous private mapping. Regions are
// page aligned and zeroed by the kernel; Free unmaps them.
type Mmap struct {
	fallbackOnce sync.Once
}

// NewMmap returns an mmap allocator. On platforms without anonymous mappings
// it degrades to Heap regions.
func NewMmap() *Mmap {
	return &Mmap{}
}

func (m *Mmap) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, ErrNegativeSize
	}
	if size == 0 {
		return []byte{}, nil
	}
	region, err := mapRegion(size)
	if err == ErrUnsupported {
		m.fallbackOnce.Do(func() {
			lg().Warn("anonymous mappings unavailable, using heap", "size", size)
		})
		return Heap{}.Alloc(size)
	}
	if err != nil {
		return nil, fmt.Errorf("mmap %d bytes: %w", size, err)
	}
	lg().Debug("mmap", "size", size)
	return region, nil
}

func (m *Mmap) Free(region []byte) {
	if cap(region) == 0 {
		return
	}
	if err := unmapRegion(region[:cap(region)]); err != nil {
		lg().Warn("munmap failed", "size", cap(region), "err", err)
		return
	}
	lg().Debug("munmap", "size", cap(region))
}
