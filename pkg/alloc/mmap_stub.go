//go:build !linux && !darwin && !freebsd

package alloc

func mapRegion(int) ([]byte, error) {
	return nil, ErrUnsupported
}

// Heap fallback regions are left to the collector.
func unmapRegion([]byte) error {
	return nil
}
