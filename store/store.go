// Package store provides the storage primitives used by the chain
// simulation: an ordered in-memory base store, a copy-on-write overlay that
// commits or discards atomically, prefix-scoped views, and a dual store that
// transparently merges local state with state fetched from a live remote
// chain.
//
// Keys are ordered the way chain storage orders them: as unsigned big-endian
// integers after zero-padding the shorter key on the right, not
// lexicographically.
package store

// Order is the direction of a range scan.
type Order int

const (
	Ascending Order = iota + 1
	Descending
)

// Record is a single key/value pair.
type Record struct {
	Key   []byte
	Value []byte
}

// Iterator walks an ordered sequence of records. Implementations that page
// state in from a remote chain surface transport failures through Error;
// callers must check it once Valid returns false.
type Iterator interface {
	Valid() bool
	Next()
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

// Reader is the read side of a store.
type Reader interface {
	// Get returns the value for key, or nil if the key is absent.
	Get(key []byte) ([]byte, error)
	// Iterate scans [start, end) in the given order. Nil bounds are
	// unbounded.
	Iterate(start, end []byte, order Order) (Iterator, error)
}

// Writer is the write side of a store.
type Writer interface {
	Set(key, value []byte) error
	Delete(key []byte) error
}

// KV combines the read and write sides.
type KV interface {
	Reader
	Writer
}

// CompareKeys orders two keys as equal-length zero-right-padded unsigned
// big-endian integers. The result is negative, zero, or positive in the
// usual way.
func CompareKeys(a, b []byte) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		var av, bv byte
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

// inRange reports whether key falls inside [start, end) under CompareKeys.
func inRange(key, start, end []byte) bool {
	if start != nil && CompareKeys(key, start) < 0 {
		return false
	}
	if end != nil && CompareKeys(key, end) >= 0 {
		return false
	}
	return true
}

// PrefixEnd returns the smallest key strictly greater than every key that
// starts with prefix, or nil when no such bound exists.
func PrefixEnd(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] != 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
