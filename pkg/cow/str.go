package cow

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

var ErrInvalidUTF8 = errors.New("invalid UTF-8")

// FlatStr is the text form of FlatCow: a borrowed window of a root string
// or an owned UTF-8 buffer. Every window boundary falls on a rune boundary.
type FlatStr struct {
	root       string
	start, end int
	owned      []byte
	isOwned    bool
}

func BorrowStr(root string) FlatStr {
	return FlatStr{root: root, end: len(root)}
}

// OwnStr copies s into an owned buffer.
func OwnStr(s string) FlatStr {
	return FlatStr{owned: []byte(s), isOwned: true}
}

// StrFromBytes reinterprets a byte view as text after validating it.
// A borrowed view stays borrowed: the result aliases the same bytes, which
// must not change afterwards.
func StrFromBytes(c FlatCow[byte]) (FlatStr, error) {
	b := c.Slice()
	if !utf8.Valid(b) {
		return FlatStr{}, fmt.Errorf("cow: %w", ErrInvalidUTF8)
	}
	if c.isOwned {
		return FlatStr{owned: c.owned, isOwned: true}, nil
	}
	return BorrowStr(unsafe.String(unsafe.SliceData(b), len(b))), nil
}

func (s FlatStr) IsBorrowed() bool { return !s.isOwned }

func (s FlatStr) IsOwned() bool { return s.isOwned }

func (s FlatStr) Window() (start, end int, ok bool) {
	if s.isOwned {
		return 0, 0, false
	}
	return s.start, s.end, true
}

func (s FlatStr) Len() int {
	if s.isOwned {
		return len(s.owned)
	}
	return s.end - s.start
}

// String returns the text. It does not copy when borrowed.
func (s FlatStr) String() string {
	if s.isOwned {
		return string(s.owned)
	}
	return s.root[s.start:s.end]
}

// Bytes returns the text as bytes without copying. The result must not be
// modified; use ToMut for a writable buffer.
func (s FlatStr) Bytes() []byte {
	if s.isOwned {
		return s.owned[:len(s.owned):len(s.owned)]
	}
	return bytesOf(s.root[s.start:s.end])
}

func checkBoundary(text string, i int) {
	if i < len(text) && !utf8.RuneStart(text[i]) {
		panic(fmt.Sprintf("cow: byte index %d is not a rune boundary", i))
	}
}

// SliceCow selects the byte range r relative to the current text. Both ends
// must fall on rune boundaries.
func (s FlatStr) SliceCow(r Range) FlatStr {
	if !s.isOwned {
		start, end := UnionRange(s.start, s.end, r)
		checkBoundary(s.root, start)
		checkBoundary(s.root, end)
		return FlatStr{root: s.root, start: start, end: end}
	}
	lo, hi := r.Resolve(len(s.owned))
	text := unsafe.String(unsafe.SliceData(s.owned), len(s.owned))
	checkBoundary(text, lo)
	checkBoundary(text, hi)
	return FlatStr{owned: []byte(text[lo:hi]), isOwned: true}
}

// ToMut converts to owned and returns the buffer. Writes must keep it
// valid UTF-8.
func (s *FlatStr) ToMut() []byte {
	if !s.isOwned {
		*s = OwnStr(s.root[s.start:s.end])
	}
	return s.owned
}

// IntoOwned returns the text as an independent string.
func (s FlatStr) IntoOwned() string {
	return strings.Clone(s.String())
}

func (s FlatStr) Clone() FlatStr {
	if s.isOwned {
		return FlatStr{owned: append([]byte(nil), s.owned...), isOwned: true}
	}
	return s
}

func (s FlatStr) Equal(o FlatStr) bool {
	return string(s.Bytes()) == string(o.Bytes())
}

func (s FlatStr) Compare(o FlatStr) int {
	return strings.Compare(string(s.Bytes()), string(o.Bytes()))
}

func (s FlatStr) Hash() uint64 {
	return xxhash.Sum64(s.Bytes())
}

// StrBuf is CowBuf for text. Borrowed pushes widen the window by the
// UTF-8 length of the pushed rune.
type StrBuf struct {
	value FlatStr
}

func NewStrBuf(root string) *StrBuf {
	return &StrBuf{value: FlatStr{root: root}}
}

func StageStrFrom(s FlatStr) *StrBuf {
	if s.isOwned {
		return &StrBuf{value: FlatStr{isOwned: true}}
	}
	return &StrBuf{value: FlatStr{root: s.root, start: s.start, end: s.start}}
}

func (b *StrBuf) Start(i int) {
	v := &b.value
	if v.isOwned {
		if len(v.owned) != 0 {
			panic(fmt.Sprintf("cow: buffer already holds %d bytes", len(v.owned)))
		}
		return
	}
	switch {
	case v.end != v.start:
		panic(fmt.Sprintf("cow: buffer has started at [%d:%d]", v.start, v.end))
	case i < v.end:
		panic(fmt.Sprintf("cow: start %d precedes current position %d", i, v.end))
	case i > len(v.root):
		panic(fmt.Sprintf("cow: start %d past root length %d", i, len(v.root)))
	}
	checkBoundary(v.root, i)
	v.start, v.end = i, i
}

func (b *StrBuf) Push(r rune) {
	v := &b.value
	if v.isOwned {
		v.owned = utf8.AppendRune(v.owned, r)
		return
	}
	n := utf8.RuneLen(r)
	if n < 0 {
		n = utf8.RuneLen(utf8.RuneError)
	}
	if v.end+n > len(v.root) {
		panic(fmt.Sprintf("cow: push past root length %d", len(v.root)))
	}
	v.end += n
}

func (b *StrBuf) ClonePush(r rune) {
	b.value.ToMut()
	b.value.owned = utf8.AppendRune(b.value.owned, r)
}

func (b *StrBuf) Len() int { return b.value.Len() }

func (b *StrBuf) Str() FlatStr { return b.value }

// bytesOf reinterprets s for read-only use.
func bytesOf(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
