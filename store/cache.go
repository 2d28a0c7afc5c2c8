package store

import (
	"bytes"
	"sort"
)

// Cache is a copy-on-write overlay on top of a parent store. Reads consult
// the pending write buffer before the parent; a later Set supersedes any
// earlier entry for the same key, and a pending deletion never falls through
// to the parent. Write applies the whole buffer to the parent atomically,
// Discard drops it.
type Cache struct {
	parent KV
	writes map[string]entry
}

// NewCache returns an empty overlay over parent.
func NewCache(parent KV) *Cache {
	return &Cache{
		parent: parent,
		writes: make(map[string]entry),
	}
}

func (c *Cache) Get(key []byte) ([]byte, error) {
	if e, ok := c.writes[string(key)]; ok {
		if e.deleted {
			return nil, nil
		}
		return cloneBytes(e.value), nil
	}
	return c.parent.Get(key)
}

func (c *Cache) Set(key, value []byte) error {
	c.writes[string(key)] = entry{key: cloneBytes(key), value: cloneBytes(value)}
	return nil
}

func (c *Cache) Delete(key []byte) error {
	c.writes[string(key)] = entry{key: cloneBytes(key), deleted: true}
	return nil
}

func (c *Cache) Iterate(start, end []byte, order Order) (Iterator, error) {
	parentIt, err := c.parent.Iterate(start, end, order)
	if err != nil {
		return nil, err
	}
	return newMergeIterator(c.pending(start, end, order), parentIt, order), nil
}

// pending collects the buffered entries inside [start, end) in scan order.
func (c *Cache) pending(start, end []byte, order Order) *entryIterator {
	entries := make([]entry, 0, len(c.writes))
	for _, e := range c.writes {
		if inRange(e.key, start, end) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		cmp := CompareKeys(entries[i].key, entries[j].key)
		if cmp == 0 {
			cmp = bytes.Compare(entries[i].key, entries[j].key)
		}
		if order == Descending {
			return cmp > 0
		}
		return cmp < 0
	})
	return &entryIterator{entries: entries}
}

// Write commits every pending write to the parent in key order and resets
// the buffer.
func (c *Cache) Write() error {
	keys := make([]string, 0, len(c.writes))
	for k := range c.writes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e := c.writes[k]
		if e.deleted {
			if err := c.parent.Delete(e.key); err != nil {
				return err
			}
			continue
		}
		if err := c.parent.Set(e.key, e.value); err != nil {
			return err
		}
	}
	c.writes = make(map[string]entry)
	return nil
}

// Discard drops every pending write.
func (c *Cache) Discard() {
	c.writes = make(map[string]entry)
}

// Transactional runs fn against a fresh overlay of parent. If fn succeeds
// the overlay is committed as one unit; if it fails every speculative write
// is discarded and the error is returned.
func Transactional(parent KV, fn func(cache KV) error) error {
	c := NewCache(parent)
	if err := fn(c); err != nil {
		c.Discard()
		return err
	}
	return c.Write()
}
