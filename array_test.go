package flatmem

import (
	"fmt"
	"runtime"
	"slices"
	"testing"
	"testing/quick"
	"time"

	"github.com/rawbytedev/flatmem/pkg/alloc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// token records its own destruction in dropped.
type token int

var dropped []int

func (t token) Drop() { dropped = append(dropped, int(t)) }

func resetDropped(t *testing.T) {
	dropped = nil
	t.Cleanup(func() { dropped = nil })
}

func tokens(n int) *Array[token] {
	arr := NewIn[token](alloc.Heap{}, n)
	for i := range n {
		*arr.Ptr(i) = token(i)
	}
	return arr
}

type boxed struct {
	vals []int
}

func (b boxed) Clone() boxed { return boxed{vals: slices.Clone(b.vals)} }

// res is a pointer-receiver dropper; unwritten slots hold a nil *res.
type res struct{ closed int }

func (r *res) Drop() { r.closed++ }

// lease and leased check that a wrapper forwards Drop to its field.
type lease struct{ n *int }

func (l lease) Drop() { *l.n++ }

type leased struct {
	id int
	l  lease
}

func (w leased) Drop() { w.l.Drop() }

func TestNewZeroFilled(t *testing.T) {
	arr := New[int64](16)
	defer arr.Release()
	require.Equal(t, 16, arr.Len())
	assert.Equal(t, arr.Len(), arr.Cap())
	for _, v := range arr.All() {
		assert.Zero(t, v)
	}

	empty := Empty[int64]()
	assert.True(t, empty.IsEmpty())
	empty.Release()
	empty.Release()
}

func TestNegativeCapacityPanics(t *testing.T) {
	assert.Panics(t, func() { New[int](-1) })
}

func TestRoundTrip(t *testing.T) {
	condition := func(src []uint32) bool {
		arr := CopyFromSlice(src)
		defer arr.Release()
		if len(src) == 0 {
			return arr.IsEmpty()
		}
		return slices.Equal(src, arr.Slice())
	}
	require.NoError(t, quick.Check(condition, &quick.Config{}))
}

func TestSetAndAt(t *testing.T) {
	arr := Of[int16](1, 2, 3)
	defer arr.Release()
	arr.Set(1, 42)
	assert.Equal(t, int16(42), arr.At(1))
	*arr.Ptr(2) = 7
	assert.Equal(t, []int16{1, 42, 7}, arr.Slice())

	assert.PanicsWithValue(t, "flatmem: index out of range [3] with length 3", func() { arr.At(3) })
	assert.Panics(t, func() { arr.Set(-1, 0) })
}

func TestSetDropsReplaced(t *testing.T) {
	resetDropped(t)
	arr := tokens(3)
	arr.Set(1, 9)
	assert.Equal(t, []int{1}, dropped)
	arr.Release()
	assert.ElementsMatch(t, []int{1, 0, 9, 2}, dropped)
}

func TestSliceIsCapacityLimited(t *testing.T) {
	arr := Of(1, 2, 3, 4)
	defer arr.Release()
	view := arr.Sub(1, 3)
	assert.Equal(t, []int{2, 3}, view)
	_ = append(view, 100)
	assert.Equal(t, 4, arr.At(3))

	full := arr.Slice()
	assert.Equal(t, len(full), cap(full))

	assert.PanicsWithValue(t, "flatmem: slice bounds out of range [3:2] with length 4", func() { arr.Sub(3, 2) })
	assert.Panics(t, func() { arr.Sub(0, 5) })
}

func TestIterRestarts(t *testing.T) {
	arr := Of[uint8](5, 6, 7)
	defer arr.Release()
	for p := range arr.Iter() {
		*p *= 2
	}
	var got []uint8
	for p := range arr.Iter() {
		got = append(got, *p)
	}
	assert.Equal(t, []uint8{10, 12, 14}, got)

	n := 0
	for range arr.Iter() {
		if n++; n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestCloneIndependent(t *testing.T) {
	arr := CloneFromSlice([]boxed{{vals: []int{1}}, {vals: []int{2, 3}}})
	defer arr.Release()
	cp := arr.Clone()
	defer cp.Release()

	cp.Ptr(0).vals[0] = 99
	assert.Equal(t, 1, arr.At(0).vals[0])
	assert.Equal(t, []int{2, 3}, cp.At(1).vals)
}

func TestNewWithClone(t *testing.T) {
	seed := boxed{vals: []int{1, 2}}
	arr := NewWithClone(seed, 3)
	defer arr.Release()
	arr.Ptr(0).vals[0] = 5
	assert.Equal(t, []int{1, 2}, arr.At(1).vals)
	assert.Equal(t, []int{1, 2}, seed.vals)
}

func TestFromSeq(t *testing.T) {
	arr := FromSeq(slices.Values([]int{1, 2, 3, 4, 5}), 3)
	defer arr.Release()
	assert.Equal(t, []int{1, 2, 3}, arr.Slice())

	short := FromSeq(slices.Values([]int{7}), 3)
	defer short.Release()
	assert.Equal(t, []int{7, 0, 0}, short.Slice())

	assert.True(t, FromSeq(slices.Values([]int{1}), 0).IsEmpty())
}

func TestMerge(t *testing.T) {
	a := Of[uint64](1, 2, 3)
	b := Of[uint64](4, 5)
	defer a.Release()
	defer b.Release()

	m := Merge(a, b)
	defer m.Release()
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, m.Slice())
	assert.Equal(t, []uint64{1, 2, 3}, a.Slice())

	e := Merge(New[uint64](0), b)
	defer e.Release()
	assert.True(t, Equal(e, b))
}

func TestResizeGrowAndShrink(t *testing.T) {
	metered := alloc.Meter(alloc.Heap{})
	arr := NewIn[int32](metered, 4)
	copy(arr.Slice(), []int32{1, 2, 3, 4})

	arr.Resize(6)
	assert.Equal(t, []int32{1, 2, 3, 4, 0, 0}, arr.Slice())
	arr.Resize(2)
	assert.Equal(t, []int32{1, 2}, arr.Slice())
	arr.Resize(2)
	arr.Release()

	stats := metered.Stats()
	assert.Equal(t, int64(3), stats.Allocs)
	assert.Equal(t, stats.BytesAllocated, stats.BytesFreed)
	assert.Zero(t, stats.InUse)
}

func TestResizeDropsTailOnce(t *testing.T) {
	resetDropped(t)
	arr := tokens(5)
	arr.Resize(2)
	assert.ElementsMatch(t, []int{2, 3, 4}, dropped)
	arr.Release()
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4}, dropped)
}

func TestNilPointerDroppersAreSkipped(t *testing.T) {
	assert.NotPanics(t, func() { New[*res](2).Release() })

	r := &res{}
	grown := Of(r)
	assert.NotPanics(t, func() {
		grown.Resize(3)
		grown.Release()
	})
	assert.Equal(t, 1, r.closed)

	it := New[*res](3).IntoIter()
	assert.NotPanics(t, func() {
		it.AdvanceBy(1)
		it.AdvanceBackBy(1)
		it.Release()
	})

	last := &res{}
	shrunk := Of[*res](&res{}, nil, last)
	shrunk.Resize(1)
	assert.Equal(t, 1, last.closed)
	shrunk.Release()
}

func TestWrapperForwardsDrop(t *testing.T) {
	n := 0
	arr := Of(leased{1, lease{&n}}, leased{2, lease{&n}})
	arr.Release()
	assert.Equal(t, 2, n)
}

func TestUnreleasedRegionIsReturned(t *testing.T) {
	metered := alloc.Meter(alloc.Heap{})
	func() {
		arr := NewIn[uint64](metered, 8)
		arr.Set(0, 1)
	}()
	func() {
		it := NewIn[uint32](metered, 4).IntoIter()
		it.Next()
	}()
	assert.Eventually(t, func() bool {
		runtime.GC()
		return metered.Stats().Frees == 2
	}, 5*time.Second, 10*time.Millisecond)
	assert.Zero(t, metered.Stats().InUse)
}

func TestReleasedRegionIsNotFreedAgain(t *testing.T) {
	metered := alloc.Meter(alloc.Heap{})
	func() {
		arr := NewIn[uint64](metered, 8)
		arr.Resize(16)
		arr.IntoIter().Release()
	}()
	for range 3 {
		runtime.GC()
	}
	time.Sleep(20 * time.Millisecond)
	stats := metered.Stats()
	assert.Equal(t, int64(2), stats.Frees)
	assert.Zero(t, stats.InUse)
}

func TestReleaseFreesOnce(t *testing.T) {
	metered := alloc.Meter(nil)
	arr := NewIn[float64](metered, 10)
	arr.Release()
	arr.Release()
	stats := metered.Stats()
	assert.Equal(t, int64(1), stats.Frees)
	assert.Equal(t, int64(80), stats.BytesFreed)
}

func TestPointerTypesStayOnGoHeap(t *testing.T) {
	metered := alloc.Meter(nil)
	arr := NewIn[*int](metered, 4)
	x := 1
	arr.Set(0, &x)
	assert.Same(t, &x, arr.At(0))
	arr.Release()
	assert.Zero(t, metered.Stats().Allocs)
}

func TestZeroSizedElements(t *testing.T) {
	metered := alloc.Meter(nil)
	arr := NewIn[struct{}](metered, 1000)
	assert.Equal(t, 1000, arr.Len())
	arr.Release()
	assert.Zero(t, metered.Stats().Allocs)
}

func TestMmapBacked(t *testing.T) {
	arr := NewIn[uint64](alloc.NewMmap(), 1024)
	for i := range arr.Len() {
		arr.Set(i, uint64(i))
	}
	assert.Equal(t, uint64(1023), arr.At(1023))
	arr.Release()
}

func TestFormat(t *testing.T) {
	arr := Of(1, 2, 3)
	defer arr.Release()
	assert.Equal(t, "[1 2 3]", fmt.Sprintf("%v", arr))
	assert.Equal(t, "[1 2 3]", fmt.Sprint(arr))
}

func BenchmarkNew(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		New[uint64](256).Release()
	}
}

func BenchmarkNewPooled(b *testing.B) {
	p := alloc.NewPool(alloc.Heap{}, 4)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		NewIn[uint64](p, 256).Release()
	}
}

func BenchmarkMerge(b *testing.B) {
	x := New[int32](512)
	y := New[int32](512)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Merge(x, y).Release()
	}
}
