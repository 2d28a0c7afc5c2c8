package store

import (
	"bytes"

	"github.com/google/btree"
)

const btreeDegree = 32

type item struct {
	key   []byte
	value []byte
}

func (i item) Less(than btree.Item) bool {
	o := than.(item)
	if c := CompareKeys(i.key, o.key); c != 0 {
		return c < 0
	}
	// Keys equal under padding still need a stable total order.
	return bytes.Compare(i.key, o.key) < 0
}

// MemStore is an in-memory KV ordered by CompareKeys.
type MemStore struct {
	tree *btree.BTree
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{tree: btree.New(btreeDegree)}
}

func (s *MemStore) Get(key []byte) ([]byte, error) {
	got := s.tree.Get(item{key: key})
	if got == nil {
		return nil, nil
	}
	return cloneBytes(got.(item).value), nil
}

func (s *MemStore) Set(key, value []byte) error {
	s.tree.ReplaceOrInsert(item{key: cloneBytes(key), value: cloneBytes(value)})
	return nil
}

func (s *MemStore) Delete(key []byte) error {
	s.tree.Delete(item{key: key})
	return nil
}

func (s *MemStore) Iterate(start, end []byte, order Order) (Iterator, error) {
	var records []Record
	collect := func(i btree.Item) bool {
		it := i.(item)
		if !inRange(it.key, start, end) {
			return true
		}
		records = append(records, Record{Key: cloneBytes(it.key), Value: cloneBytes(it.value)})
		return true
	}
	if order == Descending {
		s.tree.Descend(collect)
	} else {
		s.tree.Ascend(collect)
	}
	return newSliceIterator(records), nil
}

// Len returns the number of stored records.
func (s *MemStore) Len() int {
	return s.tree.Len()
}

// sliceIterator walks a pre-collected, already ordered record slice.
type sliceIterator struct {
	records []Record
	pos     int
}

func newSliceIterator(records []Record) *sliceIterator {
	return &sliceIterator{records: records}
}

func (it *sliceIterator) Valid() bool { return it.pos < len(it.records) }

func (it *sliceIterator) Next() { it.pos++ }

func (it *sliceIterator) Key() []byte { return it.records[it.pos].Key }

func (it *sliceIterator) Value() []byte { return it.records[it.pos].Value }

func (it *sliceIterator) Error() error { return nil }

func (it *sliceIterator) Close() error { return nil }
