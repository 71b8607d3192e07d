package lebytes

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"unsafe"

	"github.com/rawbytedev/flatmem"
	"github.com/rawbytedev/flatmem/internal/common"
	"github.com/rawbytedev/flatmem/pkg/alloc"
)

var (
	ErrShortBuffer  = errors.New("buffer too short")
	ErrNotStruct    = errors.New("value is not a struct")
	ErrNotStructPtr = errors.New("target is not a pointer to a struct")
	ErrUnsupported  = errors.New("unsupported field type")
	ErrTrailing     = errors.New("trailing bytes")
	ErrFieldCount   = errors.New("field count mismatch")
)

type Options struct {
	// ZeroCopy makes decoded string and []byte fields alias the input,
	// which must then outlive them and stay unmodified.
	ZeroCopy bool

	// Allocator backs the arrays Encode returns. Nil means alloc.Default().
	Allocator alloc.Allocator
}

// Codec lays exported struct fields out as a flat record: a varint field
// count, then each field in declaration order. Fixed-width fields are
// little-endian; strings and slices carry a varint length prefix.
//
// Field plans are cached per type and shared safely. Encode reuses a
// scratch buffer, so one Codec must not encode from two goroutines at once.
type Codec struct {
	opts    Options
	mu      sync.RWMutex
	plans   map[reflect.Type]*recordPlan
	scratch []byte
}

type recordPlan struct {
	fixedSize int
	varCount  int
	fields    []fieldPlan
}

type fieldPlan struct {
	idx   int
	name  string
	kind  reflect.Kind
	elem  reflect.Kind // element kind of slices
	isVar bool
	size  int // width of the field, or of one element for slices
}

func NewCodec(opts Options) *Codec {
	return &Codec{
		opts:  opts,
		plans: make(map[reflect.Type]*recordPlan),
	}
}

func (c *Codec) planFor(t reflect.Type) (*recordPlan, error) {
	c.mu.RLock()
	if p, ok := c.plans[t]; ok {
		c.mu.RUnlock()
		return p, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.plans[t]; ok {
		return p, nil
	}

	p := &recordPlan{}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		fp := fieldPlan{idx: i, name: sf.Name, kind: sf.Type.Kind()}
		switch {
		case common.IsFixedKind(fp.kind):
			fp.size = common.FixedSize(fp.kind)
			p.fixedSize += fp.size
		case fp.kind == reflect.String:
			fp.isVar = true
		case fp.kind == reflect.Slice:
			fp.isVar = true
			fp.elem = sf.Type.Elem().Kind()
			if common.IsFixedKind(fp.elem) {
				fp.size = common.FixedSize(fp.elem)
			} else if fp.elem != reflect.String {
				return nil, fmt.Errorf("lebytes: field %s of %s: %w", sf.Name, t, ErrUnsupported)
			}
		default:
			return nil, fmt.Errorf("lebytes: field %s of %s: %w", sf.Name, t, ErrUnsupported)
		}
		if fp.isVar {
			p.varCount++
		}
		p.fields = append(p.fields, fp)
	}
	c.plans[t] = p
	return p, nil
}

func structValue(val any) (reflect.Value, error) {
	v := reflect.ValueOf(val)
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, ErrNotStruct
	}
	return v, nil
}

// Append encodes val, a struct or pointer to one, onto dst.
func (c *Codec) Append(dst []byte, val any) ([]byte, error) {
	v, err := structValue(val)
	if err != nil {
		return dst, err
	}
	p, err := c.planFor(v.Type())
	if err != nil {
		return dst, err
	}

	// base + fixed + a guess for variable fields
	dst = slices.Grow(dst, 16+p.fixedSize+p.varCount*32)
	dst = common.WriteVarUint(dst, uint64(len(p.fields)))
	for _, f := range p.fields {
		fv := v.Field(f.idx)
		switch {
		case !f.isVar:
			dst = common.AppendFixed(dst, fv)
		case f.kind == reflect.String:
			dst = appendString(dst, fv.String())
		case f.elem == reflect.String:
			dst = common.WriteVarUint(dst, uint64(fv.Len()))
			for i := range fv.Len() {
				dst = appendString(dst, fv.Index(i).String())
			}
		case f.elem == reflect.Uint8 && fv.Type().Elem() == reflect.TypeFor[byte]():
			dst = common.WriteVarUint(dst, uint64(fv.Len()))
			dst = append(dst, fv.Bytes()...)
		default:
			dst = common.WriteVarUint(dst, uint64(fv.Len()))
			for i := range fv.Len() {
				dst = common.AppendFixed(dst, fv.Index(i))
			}
		}
	}
	return dst, nil
}

func appendString(dst []byte, s string) []byte {
	dst = common.WriteVarUint(dst, uint64(len(s)))
	return append(dst, s...)
}

// Encode returns the record for val in an array from the configured
// allocator. The caller releases it.
func (c *Codec) Encode(val any) (*flatmem.Array[byte], error) {
	buf, err := c.Append(c.scratch[:0], val)
	c.scratch = buf[:0]
	if err != nil {
		return nil, err
	}
	a := c.opts.Allocator
	if a == nil {
		a = alloc.Default()
	}
	out := flatmem.NewIn[byte](a, len(buf))
	copy(out.Slice(), buf)
	return out, nil
}

// decoder walks a record, failing with ErrShortBuffer on any overrun.
type decoder struct {
	data     []byte
	pos      int
	zeroCopy bool
}

func (d *decoder) uvarint() (uint64, error) {
	x, n := common.ReadVarUint(d.data[d.pos:])
	if n == 0 {
		return 0, fmt.Errorf("lebytes: varint at offset %d: %w", d.pos, ErrShortBuffer)
	}
	d.pos += n
	return x, nil
}

func (d *decoder) next(n uint64) ([]byte, error) {
	if n > uint64(len(d.data)-d.pos) {
		return nil, fmt.Errorf("lebytes: %d bytes at offset %d: %w", n, d.pos, ErrShortBuffer)
	}
	b := d.data[d.pos : d.pos+int(n)]
	d.pos += int(n)
	return b, nil
}

func (d *decoder) text() (string, error) {
	n, err := d.uvarint()
	if err != nil {
		return "", err
	}
	b, err := d.next(n)
	if err != nil {
		return "", err
	}
	if d.zeroCopy {
		return unsafe.String(unsafe.SliceData(b), len(b)), nil
	}
	return string(b), nil
}

// Decode fills the struct out points to from data. data must hold exactly
// one record.
func (c *Codec) Decode(data []byte, out any) error {
	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return ErrNotStructPtr
	}
	dst := v.Elem()
	p, err := c.planFor(dst.Type())
	if err != nil {
		return err
	}

	d := &decoder{data: data, zeroCopy: c.opts.ZeroCopy}
	count, err := d.uvarint()
	if err != nil {
		return err
	}
	if count != uint64(len(p.fields)) {
		return fmt.Errorf("lebytes: record has %d fields, %s has %d: %w", count, dst.Type(), len(p.fields), ErrFieldCount)
	}

	for _, f := range p.fields {
		fv := dst.Field(f.idx)
		if err := d.field(f, fv); err != nil {
			return fmt.Errorf("lebytes: field %s: %w", f.name, err)
		}
	}
	if d.pos != len(data) {
		return fmt.Errorf("lebytes: %d bytes after record: %w", len(data)-d.pos, ErrTrailing)
	}
	return nil
}

func (d *decoder) field(f fieldPlan, fv reflect.Value) error {
	if !f.isVar {
		b, err := d.next(uint64(f.size))
		if err != nil {
			return err
		}
		common.SetFixed(fv, b, f.kind)
		return nil
	}
	if f.kind == reflect.String {
		s, err := d.text()
		if err != nil {
			return err
		}
		fv.SetString(s)
		return nil
	}

	count, err := d.uvarint()
	if err != nil {
		return err
	}
	if f.elem == reflect.String {
		// every string takes at least its length byte
		if count > uint64(len(d.data)-d.pos) {
			return fmt.Errorf("lebytes: %d strings at offset %d: %w", count, d.pos, ErrShortBuffer)
		}
		slice := reflect.MakeSlice(fv.Type(), int(count), int(count))
		for i := range int(count) {
			s, err := d.text()
			if err != nil {
				return err
			}
			slice.Index(i).SetString(s)
		}
		fv.Set(slice)
		return nil
	}

	size := uint64(f.size)
	if count > uint64(len(d.data)-d.pos)/size {
		return fmt.Errorf("lebytes: %d elements at offset %d: %w", count, d.pos, ErrShortBuffer)
	}
	raw, _ := d.next(count * size)
	if f.elem == reflect.Uint8 && fv.Type().Elem() == reflect.TypeFor[byte]() {
		if !d.zeroCopy {
			raw = bytes.Clone(raw)
		}
		fv.SetBytes(raw[:len(raw):len(raw)])
		return nil
	}
	slice := reflect.MakeSlice(fv.Type(), int(count), int(count))
	for i := range int(count) {
		common.SetFixed(slice.Index(i), raw[i*f.size:(i+1)*f.size], f.elem)
	}
	fv.Set(slice)
	return nil
}
