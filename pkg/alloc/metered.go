package alloc

import "sync/atomic"

// Stats aggregates allocation accounting for a Metered allocator.
type Stats struct {
	Allocs         int64
	Frees          int64
	BytesAllocated int64
	BytesFreed     int64
	InUse          int64
}

// Metered counts every region passing through the wrapped allocator.
type Metered struct {
	inner Allocator

	allocs     atomic.Int64
	frees      atomic.Int64
	bytesAlloc atomic.Int64
	bytesFreed atomic.Int64
}

// Meter wraps inner with counters.
func Meter(inner Allocator) *Metered {
	if inner == nil {
		inner = Heap{}
	}
	return &Metered{inner: inner}
}

func (m *Metered) Alloc(size int) ([]byte, error) {
	region, err := m.inner.Alloc(size)
	if err != nil {
		return nil, err
	}
	m.allocs.Add(1)
	m.bytesAlloc.Add(int64(len(region)))
	return region, nil
}

func (m *Metered) Free(region []byte) {
	m.frees.Add(1)
	m.bytesFreed.Add(int64(cap(region)))
	m.inner.Free(region)
}

func (m *Metered) Stats() Stats {
	allocs := m.allocs.Load()
	frees := m.frees.Load()
	return Stats{
		Allocs:         allocs,
		Frees:          frees,
		BytesAllocated: m.bytesAlloc.Load(),
		BytesFreed:     m.bytesFreed.Load(),
		InUse:          allocs - frees,
	}
}
