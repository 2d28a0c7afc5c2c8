package store_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/cosmos/cosmos-sdk/types/query"
	"github.com/stretchr/testify/require"

	"github.com/cosmos/multitest/store"
)

// fakeRemote serves a fixed contract state with real pagination so the dual
// store's paging path is exercised.
type fakeRemote struct {
	records []store.Record

	failPointReads bool
	failScans      bool
	scanCalls      int
}

func (f *fakeRemote) RawContractState(_ string, key []byte) ([]byte, error) {
	if f.failPointReads {
		return nil, errors.New("rpc unavailable")
	}
	for _, r := range f.records {
		if bytes.Equal(r.Key, key) {
			return r.Value, nil
		}
	}
	return nil, nil
}

func (f *fakeRemote) AllContractState(_ string, page *query.PageRequest) ([]store.Record, *query.PageResponse, error) {
	f.scanCalls++
	if f.failScans {
		return nil, nil, errors.New("rpc unavailable")
	}
	if page.Reverse {
		return f.reverseScan(page)
	}
	start := 0
	if len(page.Key) > 0 {
		for start < len(f.records) && bytes.Compare(f.records[start].Key, page.Key) < 0 {
			start++
		}
	}
	end := start + int(page.Limit)
	if end > len(f.records) {
		end = len(f.records)
	}
	res := &query.PageResponse{}
	if end < len(f.records) {
		res.NextKey = f.records[end].Key
	}
	return f.records[start:end], res, nil
}

// reverseScan serves records in descending key order. A set page key is the
// inclusive upper bound of the page.
func (f *fakeRemote) reverseScan(page *query.PageRequest) ([]store.Record, *query.PageResponse, error) {
	start := len(f.records) - 1
	if len(page.Key) > 0 {
		for start >= 0 && bytes.Compare(f.records[start].Key, page.Key) > 0 {
			start--
		}
	}
	var out []store.Record
	for i := start; i >= 0 && len(out) < int(page.Limit); i-- {
		out = append(out, f.records[i])
	}
	res := &query.PageResponse{}
	if next := start - len(out); next >= 0 {
		res.NextKey = f.records[next].Key
	}
	return out, res, nil
}

func remoteRecords(keys ...byte) []store.Record {
	out := make([]store.Record, 0, len(keys))
	for _, k := range keys {
		out = append(out, store.Record{Key: []byte{k}, Value: []byte{'r', k}})
	}
	return out
}

func TestDualGetPrecedence(t *testing.T) {
	remote := &fakeRemote{records: remoteRecords(1, 2)}
	d := store.NewDual(remote, "contract-1", []store.Record{
		{Key: []byte{2}, Value: []byte("local")},
	})

	// Local wins over remote.
	got, err := d.Get([]byte{2})
	require.NoError(t, err)
	require.Equal(t, []byte("local"), got)

	// Absent locally falls through to the remote value.
	got, err = d.Get([]byte{1})
	require.NoError(t, err)
	require.Equal(t, []byte{'r', 1}, got)

	// Absent on both sides.
	got, err = d.Get([]byte{9})
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestDualGetRemovedKeyStaysAbsent(t *testing.T) {
	remote := &fakeRemote{records: remoteRecords(1)}
	d := store.NewDual(remote, "contract-1", nil)

	require.NoError(t, d.Delete([]byte{1}))
	got, err := d.Get([]byte{1})
	require.NoError(t, err)
	require.Nil(t, got)

	// A later write revives the key.
	require.NoError(t, d.Set([]byte{1}, []byte("revived")))
	got, err = d.Get([]byte{1})
	require.NoError(t, err)
	require.Equal(t, []byte("revived"), got)
}

// A failing point read degrades to "absent" instead of failing the call.
func TestDualGetRemoteFailureDegrades(t *testing.T) {
	remote := &fakeRemote{records: remoteRecords(1), failPointReads: true}
	d := store.NewDual(remote, "contract-1", nil)

	got, err := d.Get([]byte{1})
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestDualIterateMergesLocalAndRemote(t *testing.T) {
	remote := &fakeRemote{records: remoteRecords(1, 2, 3, 5)}
	d := store.NewDual(remote, "contract-1", []store.Record{
		{Key: []byte{2}, Value: []byte("local2")},
		{Key: []byte{4}, Value: []byte("local4")},
	})
	require.NoError(t, d.Delete([]byte{3}))

	it, err := d.Iterate(nil, nil, store.Ascending)
	require.NoError(t, err)
	defer it.Close()

	var keys [][]byte
	var values [][]byte
	for ; it.Valid(); it.Next() {
		keys = append(keys, it.Key())
		values = append(values, it.Value())
	}
	require.NoError(t, it.Error())

	// Local 2 shadows remote 2, removed 3 is suppressed, remote 1 and 5
	// interleave with local 4 in key order.
	require.Equal(t, [][]byte{{1}, {2}, {4}, {5}}, keys)
	require.Equal(t, [][]byte{{'r', 1}, []byte("local2"), []byte("local4"), {'r', 5}}, values)
}

func TestDualIteratePagesRemoteState(t *testing.T) {
	// Twelve remote records against the default page limit of five forces
	// three round trips.
	remote := &fakeRemote{records: remoteRecords(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)}
	d := store.NewDual(remote, "contract-1", nil)

	keys := collectKeys(t, d, nil, nil, store.Ascending)
	require.Len(t, keys, 12)
	require.Equal(t, 3, remote.scanCalls)
}

// A descending merge interleaves local and remote records in reverse key
// order, paging the remote side backwards.
func TestDualIterateDescendingMerge(t *testing.T) {
	remote := &fakeRemote{records: remoteRecords(1, 2, 3, 5, 8, 9, 11)}
	d := store.NewDual(remote, "contract-1", []store.Record{
		{Key: []byte{4}, Value: []byte("local4")},
		{Key: []byte{8}, Value: []byte("local8")},
	})
	require.NoError(t, d.Set([]byte{13}, []byte("local13")))
	require.NoError(t, d.Delete([]byte{9}))

	it, err := d.Iterate(nil, nil, store.Descending)
	require.NoError(t, err)
	defer it.Close()

	var keys [][]byte
	var values [][]byte
	for ; it.Valid(); it.Next() {
		keys = append(keys, it.Key())
		values = append(values, it.Value())
	}
	require.NoError(t, it.Error())

	// Local 8 shadows remote 8, removed 9 is suppressed, local 4 and 13
	// interleave with the remote records in reverse order.
	require.Equal(t, [][]byte{{13}, {11}, {8}, {5}, {4}, {3}, {2}, {1}}, keys)
	require.Equal(t, [][]byte{
		[]byte("local13"), {'r', 11}, []byte("local8"), {'r', 5},
		[]byte("local4"), {'r', 3}, {'r', 2}, {'r', 1},
	}, values)

	// Seven remote records at the default page limit of five is two pages.
	require.Equal(t, 2, remote.scanCalls)
}

// A bounded descending scan pages the remote side starting from the
// exclusive end bound.
func TestDualIterateDescendingBounded(t *testing.T) {
	remote := &fakeRemote{records: remoteRecords(1, 2, 3, 5, 8, 9, 11)}
	d := store.NewDual(remote, "contract-1", []store.Record{
		{Key: []byte{4}, Value: []byte("local4")},
		{Key: []byte{8}, Value: []byte("local8")},
	})

	keys := collectKeys(t, d, []byte{3}, []byte{9}, store.Descending)
	require.Equal(t, [][]byte{{8}, {5}, {4}, {3}}, keys)
}

// A transport failure while paging is a hard error on the iterator, unlike
// the best-effort point read.
func TestDualIterateRemoteFailureIsTerminal(t *testing.T) {
	remote := &fakeRemote{records: remoteRecords(1, 2), failScans: true}
	d := store.NewDual(remote, "contract-1", []store.Record{
		{Key: []byte{3}, Value: []byte("local")},
	})

	it, err := d.Iterate(nil, nil, store.Ascending)
	require.NoError(t, err)
	defer it.Close()

	require.False(t, it.Valid())
	require.Error(t, it.Error())
}

func TestDualExportStateAndRemovedKeys(t *testing.T) {
	remote := &fakeRemote{records: remoteRecords(1)}
	d := store.NewDual(remote, "contract-1", []store.Record{
		{Key: []byte{2}, Value: []byte("seed")},
	})
	require.NoError(t, d.Set([]byte{5}, []byte("written")))
	require.NoError(t, d.Delete([]byte{1}))

	records, err := d.ExportState()
	require.NoError(t, err)
	require.Equal(t, []store.Record{
		{Key: []byte{2}, Value: []byte("seed")},
		{Key: []byte{5}, Value: []byte("written")},
	}, records)

	require.Equal(t, [][]byte{{1}}, d.RemovedKeys())
}
