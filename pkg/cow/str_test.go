package cow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatStrSliceChain(t *testing.T) {
	s := BorrowStr("abcdefghij")
	s1 := s.SliceCow(Span(1, 8))
	assert.Equal(t, "bcdefgh", s1.String())

	s2 := s1.SliceCow(Span(3, 6))
	require.True(t, s2.IsBorrowed())
	assert.Equal(t, "efg", s2.String())
	start, end, ok := s2.Window()
	assert.True(t, ok)
	assert.Equal(t, [2]int{4, 7}, [2]int{start, end})
}

func TestFlatStrRuneBoundaries(t *testing.T) {
	s := BorrowStr("héllo")
	assert.Equal(t, "hé", s.SliceCow(To(3)).String())
	assert.PanicsWithValue(t, "cow: byte index 2 is not a rune boundary", func() { s.SliceCow(To(2)) })

	o := OwnStr("日本語")
	assert.Equal(t, "本", o.SliceCow(Span(3, 6)).String())
	assert.Panics(t, func() { o.SliceCow(From(1)) })
}

func TestStrFromBytes(t *testing.T) {
	root := []byte("--text--")
	s, err := StrFromBytes(Borrow(root).SliceCow(Span(2, 6)))
	require.NoError(t, err)
	assert.True(t, s.IsBorrowed())
	assert.Equal(t, "text", s.String())

	owned, err := StrFromBytes(Own([]byte("ok")))
	require.NoError(t, err)
	assert.True(t, owned.IsOwned())
	assert.Equal(t, "ok", owned.String())

	_, err = StrFromBytes(Borrow([]byte{0xff, 0xfe}))
	require.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestFlatStrToMut(t *testing.T) {
	root := "immutable"
	s := BorrowStr(root).SliceCow(To(2))
	buf := s.ToMut()
	buf[0] = 'I'
	assert.True(t, s.IsOwned())
	assert.Equal(t, "Im", s.String())
	assert.Equal(t, "immutable", root)
	assert.Equal(t, "Im", s.IntoOwned())
}

func TestFlatStrEquality(t *testing.T) {
	a := BorrowStr("__go__").SliceCow(Span(2, 4))
	b := OwnStr("go")
	assert.True(t, a.Equal(b))
	assert.Zero(t, a.Compare(b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Equal(t, 1, OwnStr("gz").Compare(a))

	c := b.Clone()
	c.ToMut()[0] = 'n'
	assert.Equal(t, "go", b.String())
	assert.Equal(t, []byte("go"), a.Bytes())
}

func TestStrBufPushWidensByRuneLength(t *testing.T) {
	root := "a=ü€"
	buf := NewStrBuf(root)
	buf.Start(2)
	buf.Push('ü')
	buf.Push('€')
	s := buf.Str()
	require.True(t, s.IsBorrowed())
	assert.Equal(t, "ü€", s.String())
	assert.Equal(t, 5, buf.Len())
	assert.Panics(t, func() { buf.Push('x') })

	buf.ClonePush('!')
	assert.Equal(t, "ü€!", buf.Str().String())
	assert.Equal(t, "a=ü€", root)
}

func TestStrBufStartBoundary(t *testing.T) {
	assert.Panics(t, func() { NewStrBuf("ü").Start(1) })

	staged := StageStrFrom(BorrowStr("xyz").SliceCow(From(1)))
	staged.Push('y')
	assert.Equal(t, "y", staged.Str().String())

	owned := StageStrFrom(OwnStr("q"))
	owned.Push('é')
	assert.Equal(t, "é", owned.Str().String())
	assert.Panics(t, func() { owned.Start(0) })
}
