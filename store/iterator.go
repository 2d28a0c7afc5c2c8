package store

// entry is a pending write: either a value or a deletion marker.
type entry struct {
	key     []byte
	value   []byte
	deleted bool
}

// entryIterator walks an ordered slice of pending entries, tombstones
// included.
type entryIterator struct {
	entries []entry
	pos     int
}

func (it *entryIterator) valid() bool  { return it.pos < len(it.entries) }
func (it *entryIterator) next()        { it.pos++ }
func (it *entryIterator) cur() entry   { return it.entries[it.pos] }

// mergeIterator merges a primary iterator (pending local writes, which may
// carry tombstones) with a secondary iterator (the underlying or remote
// view). At every step the earlier key in the scan direction is emitted and
// only that side advances; on a tie the primary side wins and both sides
// advance, so a local write shadows the secondary value exactly once.
// Tombstones are never emitted and swallow a matching secondary key.
type mergeIterator struct {
	primary   *entryIterator
	secondary Iterator
	order     Order

	key   []byte
	value []byte
	valid bool
	err   error
}

func newMergeIterator(primary *entryIterator, secondary Iterator, order Order) *mergeIterator {
	it := &mergeIterator{primary: primary, secondary: secondary, order: order}
	it.advance()
	return it
}

func (it *mergeIterator) advance() {
	for {
		it.valid = false
		pOK := it.primary.valid()
		sOK := it.secondary.Valid()
		if !sOK {
			if err := it.secondary.Error(); err != nil {
				it.err = err
				return
			}
		}
		if !pOK && !sOK {
			return
		}

		var usePrimary, useBoth bool
		switch {
		case pOK && !sOK:
			usePrimary = true
		case !pOK && sOK:
			usePrimary = false
		default:
			c := CompareKeys(it.primary.cur().key, it.secondary.Key())
			if it.order == Descending {
				c = -c
			}
			switch {
			case c < 0:
				usePrimary = true
			case c > 0:
				usePrimary = false
			default:
				usePrimary = true
				useBoth = true
			}
		}

		if usePrimary {
			e := it.primary.cur()
			it.primary.next()
			if useBoth {
				it.secondary.Next()
			}
			if e.deleted {
				continue
			}
			it.key, it.value = e.key, e.value
		} else {
			it.key = cloneBytes(it.secondary.Key())
			it.value = cloneBytes(it.secondary.Value())
			it.secondary.Next()
		}
		it.valid = true
		return
	}
}

func (it *mergeIterator) Valid() bool { return it.valid }

func (it *mergeIterator) Next() {
	if !it.valid {
		return
	}
	it.advance()
}

func (it *mergeIterator) Key() []byte { return it.key }

func (it *mergeIterator) Value() []byte { return it.value }

func (it *mergeIterator) Error() error { return it.err }

func (it *mergeIterator) Close() error { return it.secondary.Close() }
