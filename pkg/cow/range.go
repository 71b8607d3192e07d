package cow

import "fmt"

type BoundKind uint8

const (
	Unbounded BoundKind = iota
	Included
	Excluded
)

func (k BoundKind) String() string {
	switch k {
	case Included:
		return "included"
	case Excluded:
		return "excluded"
	default:
		return "unbounded"
	}
}

// Bound is one end of a Range. Value is ignored when Kind is Unbounded.
type Bound struct {
	Kind  BoundKind
	Value int
}

// Range selects a window relative to the start of a view.
type Range struct {
	Start Bound
	End   Bound
}

// Span is [lo, hi).
func Span(lo, hi int) Range {
	return Range{Start: Bound{Included, lo}, End: Bound{Excluded, hi}}
}

// SpanInclusive is [lo, hi].
func SpanInclusive(lo, hi int) Range {
	return Range{Start: Bound{Included, lo}, End: Bound{Included, hi}}
}

// From is [lo, end of view).
func From(lo int) Range {
	return Range{Start: Bound{Included, lo}}
}

// To is [0, hi).
func To(hi int) Range {
	return Range{End: Bound{Excluded, hi}}
}

// ToInclusive is [0, hi].
func ToInclusive(hi int) Range {
	return Range{End: Bound{Included, hi}}
}

// Full selects the whole view.
func Full() Range { return Range{} }

func (r Range) String() string {
	var lo, hi string
	switch r.Start.Kind {
	case Included:
		lo = fmt.Sprintf("[%d", r.Start.Value)
	case Excluded:
		lo = fmt.Sprintf("(%d", r.Start.Value)
	default:
		lo = "["
	}
	switch r.End.Kind {
	case Included:
		hi = fmt.Sprintf("%d]", r.End.Value)
	case Excluded:
		hi = fmt.Sprintf("%d)", r.End.Value)
	default:
		hi = ")"
	}
	return lo + ":" + hi
}

// bounds turns r into half-open relative offsets over a view of length n.
func (r Range) bounds(n int) (lo, hi int) {
	switch r.Start.Kind {
	case Included:
		lo = r.Start.Value
	case Excluded:
		lo = r.Start.Value + 1
	}
	switch r.End.Kind {
	case Included:
		hi = r.End.Value + 1
	case Excluded:
		hi = r.End.Value
	default:
		hi = n
	}
	if lo < 0 || hi < 0 {
		panic(fmt.Sprintf("cow: negative bound in range %v", r))
	}
	return lo, hi
}

// Resolve returns the half-open offsets r selects from a view of length n.
// Unlike UnionRange it does not clamp: any bound past n panics.
func (r Range) Resolve(n int) (lo, hi int) {
	lo, hi = r.bounds(n)
	if lo > hi || hi > n {
		panic(fmt.Sprintf("cow: range %v out of bounds [%d:%d] with length %d", r, lo, hi, n))
	}
	return lo, hi
}

// UnionRange translates r, relative to the absolute window [offset, limit),
// into an absolute window. Both ends are clamped to limit. A start that
// still lands after the end panics.
func UnionRange(offset, limit int, r Range) (start, end int) {
	if offset < 0 || offset > limit {
		panic(fmt.Sprintf("cow: invalid window [%d:%d]", offset, limit))
	}
	w := limit - offset
	lo, hi := r.bounds(w)
	start = offset + min(lo, w)
	end = offset + min(hi, w)
	if start > end {
		panic(fmt.Sprintf("cow: range %v starts after its end [%d:%d]", r, start, end))
	}
	return start, end
}
