package alloc

import (
	"sync"

	"github.com/eapache/queue"
)

const defaultPoolDepth = 64

// Pool recycles freed regions of identical size before asking the inner
// allocator for new ones. Each size keeps a FIFO of at most depth regions;
// overflow goes back to the inner allocator.
type Pool struct {
	inner Allocator
	depth int

	mu      sync.Mutex
	classes map[int]*queue.Queue
}

// NewPool wraps inner. A depth <= 0 selects the default of 64 regions per size.
func NewPool(inner Allocator, depth int) *Pool {
	if inner == nil {
		inner = Heap{}
	}
	if depth <= 0 {
		depth = defaultPoolDepth
	}
	return &Pool{
		inner:   inner,
		depth:   depth,
		classes: make(map[int]*queue.Queue),
	}
}

func (p *Pool) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, ErrNegativeSize
	}
	p.mu.Lock()
	if q, ok := p.classes[size]; ok && q.Length() > 0 {
		region := q.Remove().([]byte)
		p.mu.Unlock()
		clear(region)
		return region, nil
	}
	p.mu.Unlock()
	return p.inner.Alloc(size)
}

func (p *Pool) Free(region []byte) {
	if cap(region) == 0 {
		return
	}
	region = region[:cap(region)]
	size := len(region)

	p.mu.Lock()
	q, ok := p.classes[size]
	if !ok {
		q = queue.New()
		p.classes[size] = q
	}
	if q.Length() < p.depth {
		q.Add(region)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	p.inner.Free(region)
}

// Idle reports how many freed regions of the given size are waiting for reuse.
func (p *Pool) Idle(size int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if q, ok := p.classes[size]; ok {
		return q.Length()
	}
	return 0
}

// Drain hands every cached region back to the inner allocator.
func (p *Pool) Drain() {
	p.mu.Lock()
	classes := p.classes
	p.classes = make(map[int]*queue.Queue)
	p.mu.Unlock()

	for _, q := range classes {
		for q.Length() > 0 {
			p.inner.Free(q.Remove().([]byte))
		}
	}
}
