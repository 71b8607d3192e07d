package flatmem

import "reflect"

// Dropper is implemented by element types that own something beyond their
// memory. Drop runs exactly once for every element a buffer destroys, except
// nil pointers, which were never written.
//
// Only the element's own method is called. A struct whose fields implement
// Dropper must implement Drop itself and forward to them.
type Dropper interface {
	Drop()
}

// Cloner is implemented by element types whose plain Go copy would share
// state. Construction helpers that clone use it when present.
type Cloner[T any] interface {
	Clone() T
}

var dropperType = reflect.TypeFor[Dropper]()

// needsDrop reports whether destroying a T can run user code.
func needsDrop[T any]() bool {
	t := reflect.TypeFor[T]()
	return t.Kind() == reflect.Interface ||
		t.Implements(dropperType) ||
		reflect.PointerTo(t).Implements(dropperType)
}

// dropInPlace runs the destructor of *p, if any, and zeroes the slot.
func dropInPlace[T any](p *T) {
	if d, ok := any(p).(Dropper); ok {
		d.Drop()
	} else if d, ok := any(*p).(Dropper); ok && !isNilPointer(d) {
		d.Drop()
	}
	var zero T
	*p = zero
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func cloneElem[T any](v T) T {
	if c, ok := any(v).(Cloner[T]); ok {
		return c.Clone()
	}
	return v
}

// noCopy lets go vet's copylocks check flag copies of owning values.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
