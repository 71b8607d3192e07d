package common

import (
	"math"
	"reflect"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarUintRoundTrip(t *testing.T) {
	condition := func(x uint64) bool {
		buf := WriteVarUint(nil, x)
		got, n := ReadVarUint(buf)
		return got == x && n == len(buf)
	}
	require.NoError(t, quick.Check(condition, &quick.Config{}))
}

func TestReadVarUintTruncated(t *testing.T) {
	buf := WriteVarUint(nil, math.MaxUint64)
	_, n := ReadVarUint(buf[:len(buf)-1])
	assert.Zero(t, n)

	_, n = ReadVarUint(nil)
	assert.Zero(t, n)
}

func TestIsPointerFree(t *testing.T) {
	type flat struct {
		A int64
		B [4]uint16
		C struct{ D float32 }
	}
	type withString struct {
		A int
		S string
	}
	type withPtr struct{ P *int }

	assert.True(t, IsPointerFree(reflect.TypeFor[int]()))
	assert.True(t, IsPointerFree(reflect.TypeFor[flat]()))
	assert.True(t, IsPointerFree(reflect.TypeFor[struct{}]()))
	assert.True(t, IsPointerFree(reflect.TypeFor[[0]*int]()))
	assert.False(t, IsPointerFree(reflect.TypeFor[withString]()))
	assert.False(t, IsPointerFree(reflect.TypeFor[withPtr]()))
	assert.False(t, IsPointerFree(reflect.TypeFor[[]byte]()))
	assert.False(t, IsPointerFree(reflect.TypeFor[any]()))
	assert.False(t, IsPointerFree(reflect.TypeFor[map[int]int]()))
}

func TestFixedRoundTrip(t *testing.T) {
	values := []any{
		true, int8(-3), uint8(200), int16(-1234), uint16(60000),
		int32(-123456), uint32(4000000000), int64(math.MinInt64),
		uint64(math.MaxUint64), float32(3.5), float64(-2.25), int(-7), uint(9),
	}
	for _, v := range values {
		rv := reflect.ValueOf(v)
		buf := AppendFixed(nil, rv)
		require.Len(t, buf, FixedSize(rv.Kind()), "%T", v)

		out := reflect.New(rv.Type()).Elem()
		SetFixed(out, buf, rv.Kind())
		assert.Equal(t, v, out.Interface())
	}
}

func TestAppendFixedPanicsOnVariableKind(t *testing.T) {
	assert.Panics(t, func() { AppendFixed(nil, reflect.ValueOf("abc")) })
	assert.Equal(t, -1, FixedSize(reflect.String))
	assert.False(t, IsFixedKind(reflect.Slice))
}
