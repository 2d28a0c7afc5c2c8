package store

import "encoding/binary"

// Prefix is a view of a parent store narrowed to a key prefix. Two-level
// namespacing (module namespace, then contract address) is built by nesting
// prefixes created with Namespace.
type Prefix struct {
	parent KV
	prefix []byte
}

// NewPrefix returns a view of parent scoped under prefix.
func NewPrefix(parent KV, prefix []byte) *Prefix {
	return &Prefix{parent: parent, prefix: cloneBytes(prefix)}
}

// Namespace builds a multilevel prefix from the given parts, each encoded
// with a two-byte big-endian length so namespaces can never collide by
// concatenation.
func Namespace(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		var l [2]byte
		binary.BigEndian.PutUint16(l[:], uint16(len(p)))
		out = append(out, l[:]...)
		out = append(out, p...)
	}
	return out
}

func (p *Prefix) key(key []byte) []byte {
	out := make([]byte, 0, len(p.prefix)+len(key))
	out = append(out, p.prefix...)
	return append(out, key...)
}

func (p *Prefix) Get(key []byte) ([]byte, error) {
	return p.parent.Get(p.key(key))
}

func (p *Prefix) Set(key, value []byte) error {
	return p.parent.Set(p.key(key), value)
}

func (p *Prefix) Delete(key []byte) error {
	return p.parent.Delete(p.key(key))
}

func (p *Prefix) Iterate(start, end []byte, order Order) (Iterator, error) {
	lo := p.key(nil)
	if start != nil {
		lo = p.key(start)
	}
	var hi []byte
	if end != nil {
		hi = p.key(end)
	} else {
		hi = PrefixEnd(p.prefix)
	}
	inner, err := p.parent.Iterate(lo, hi, order)
	if err != nil {
		return nil, err
	}
	return &prefixIterator{inner: inner, strip: len(p.prefix)}, nil
}

type prefixIterator struct {
	inner Iterator
	strip int
}

func (it *prefixIterator) Valid() bool { return it.inner.Valid() }
func (it *prefixIterator) Next()       { it.inner.Next() }

func (it *prefixIterator) Key() []byte {
	k := it.inner.Key()
	if len(k) < it.strip {
		return nil
	}
	return k[it.strip:]
}

func (it *prefixIterator) Value() []byte { return it.inner.Value() }
func (it *prefixIterator) Error() error  { return it.inner.Error() }
func (it *prefixIterator) Close() error  { return it.inner.Close() }
