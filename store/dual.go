package store

import (
	"bytes"
	"sort"

	"github.com/cosmos/cosmos-sdk/types/query"
)

// DefaultRemotePageLimit bounds how many records a dual-store range scan
// pulls from the remote chain per round trip.
const DefaultRemotePageLimit = 5

// RemoteReader is the slice of the remote chain client a dual store needs:
// a point read and a paginated range read of one contract's raw state.
type RemoteReader interface {
	RawContractState(contract string, key []byte) ([]byte, error)
	AllContractState(contract string, pagination *query.PageRequest) ([]Record, *query.PageResponse, error)
}

// Dual is the storage view of a forked contract: local writes layered over
// the live state of the same contract on a remote chain.
//
// A point read absent locally falls through to a remote query unless the key
// was removed locally; a remote failure on that path degrades to "absent".
// A range scan merges the local records with remote state fetched lazily in
// fixed-size pages, and a remote failure while paging is a hard error
// surfaced on the iterator.
type Dual struct {
	local     *MemStore
	removed   map[string][]byte
	remote    RemoteReader
	contract  string
	pageLimit uint64
}

// NewDual returns a dual store for contract, seeded with init records.
func NewDual(remote RemoteReader, contract string, init []Record) *Dual {
	d := &Dual{
		local:     NewMemStore(),
		removed:   make(map[string][]byte),
		remote:    remote,
		contract:  contract,
		pageLimit: DefaultRemotePageLimit,
	}
	for _, r := range init {
		_ = d.local.Set(r.Key, r.Value)
	}
	return d
}

func (d *Dual) Get(key []byte) ([]byte, error) {
	value, err := d.local.Get(key)
	if err != nil {
		return nil, err
	}
	if value != nil {
		return value, nil
	}
	if _, ok := d.removed[string(key)]; ok {
		return nil, nil
	}
	// Best effort: a remote failure on a point read means "absent", not an
	// error.
	remoteValue, err := d.remote.RawContractState(d.contract, key)
	if err != nil || len(remoteValue) == 0 {
		return nil, nil
	}
	return remoteValue, nil
}

func (d *Dual) Set(key, value []byte) error {
	delete(d.removed, string(key))
	return d.local.Set(key, value)
}

func (d *Dual) Delete(key []byte) error {
	d.removed[string(key)] = cloneBytes(key)
	return d.local.Delete(key)
}

func (d *Dual) Iterate(start, end []byte, order Order) (Iterator, error) {
	pager := &remotePager{
		reader:    d.remote,
		contract:  d.contract,
		start:     cloneBytes(start),
		end:       cloneBytes(end),
		reverse:   order == Descending,
		pageLimit: d.pageLimit,
		more:      true,
	}
	return newMergeIterator(d.pending(start, end, order), pager, order), nil
}

// pending assembles the local view for a merge: every local record plus a
// tombstone for every removed key, so removed keys suppress their remote
// counterparts during the merge.
func (d *Dual) pending(start, end []byte, order Order) *entryIterator {
	it, _ := d.local.Iterate(start, end, order)
	var entries []entry
	for ; it.Valid(); it.Next() {
		entries = append(entries, entry{key: it.Key(), value: it.Value()})
	}
	for _, key := range d.removed {
		if inRange(key, start, end) {
			entries = append(entries, entry{key: cloneBytes(key), deleted: true})
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

// ExportState returns every locally held record so a successful call's
// writes can be merged back into the enclosing transaction.
func (d *Dual) ExportState() ([]Record, error) {
	it, err := d.local.Iterate(nil, nil, Ascending)
	if err != nil {
		return nil, err
	}
	var records []Record
	for ; it.Valid(); it.Next() {
		records = append(records, Record{Key: it.Key(), Value: it.Value()})
	}
	return records, nil
}

// RemovedKeys returns the keys deleted locally, so deletions can be replayed
// on the enclosing transaction alongside ExportState.
func (d *Dual) RemovedKeys() [][]byte {
	out := make([][]byte, 0, len(d.removed))
	for _, k := range d.removed {
		out = append(out, cloneBytes(k))
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i], out[j]) < 0 })
	return out
}

// remotePager iterates one contract's remote raw state lazily, fetching
// fixed-size pages as the merge advances. Any transport failure is terminal
// for the scan.
type remotePager struct {
	reader    RemoteReader
	contract  string
	start     []byte
	end       []byte
	reverse   bool
	pageLimit uint64

	buf     []Record
	pos     int
	nextKey []byte
	primed  bool
	more    bool
	err     error
}

func (p *remotePager) fill() {
	for p.err == nil && p.pos >= len(p.buf) && p.more {
		req := &query.PageRequest{
			Limit:   p.pageLimit,
			Reverse: p.reverse,
		}
		if !p.primed {
			// The first request starts from the requested bound.
			if p.reverse {
				req.Key = p.end
			} else {
				req.Key = p.start
			}
			p.primed = true
		} else {
			req.Key = p.nextKey
		}
		records, pageRes, err := p.reader.AllContractState(p.contract, req)
		if err != nil {
			// Partial pagination state cannot be silently papered over.
			p.err = err
			return
		}
		p.buf = p.buf[:0]
		p.pos = 0
		for _, r := range records {
			if inRange(r.Key, p.start, p.end) {
				p.buf = append(p.buf, r)
			}
		}
		if pageRes == nil || len(pageRes.NextKey) == 0 {
			p.more = false
		} else {
			p.nextKey = pageRes.NextKey
		}
	}
}

func (p *remotePager) Valid() bool {
	p.fill()
	return p.err == nil && p.pos < len(p.buf)
}

func (p *remotePager) Next() {
	if p.Valid() {
		p.pos++
	}
}

func (p *remotePager) Key() []byte { return p.buf[p.pos].Key }

func (p *remotePager) Value() []byte { return p.buf[p.pos].Value }

func (p *remotePager) Error() error { return p.err }

func (p *remotePager) Close() error { return nil }
