package app_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/cosmos/cosmos-sdk/types/query"
	"github.com/stretchr/testify/require"

	"github.com/cosmos/multitest/app"
	"github.com/cosmos/multitest/contracts"
	"github.com/cosmos/multitest/remote"
	"github.com/cosmos/multitest/store"
	"github.com/cosmos/multitest/types"
)

// fakeRemoteChain fakes the live chain a fork reads from: one contract with
// raw state, its metadata, and its code info.
type fakeRemoteChain struct {
	contract string
	codeID   uint64
	state    map[string][]byte
}

func (f *fakeRemoteChain) RawContractState(contract string, key []byte) ([]byte, error) {
	if contract != f.contract {
		return nil, nil
	}
	return f.state[string(key)], nil
}

func (f *fakeRemoteChain) AllContractState(contract string, _ *query.PageRequest) ([]store.Record, *query.PageResponse, error) {
	if contract != f.contract {
		return nil, &query.PageResponse{}, nil
	}
	var records []store.Record
	for k, v := range f.state {
		records = append(records, store.Record{Key: []byte(k), Value: v})
	}
	return records, &query.PageResponse{}, nil
}

func (f *fakeRemoteChain) ContractInfo(contract string) (*remote.ContractInfo, error) {
	if contract != f.contract {
		return nil, errors.New("contract not found")
	}
	return &remote.ContractInfo{
		CodeID:  f.codeID,
		Creator: "remote-creator",
		Label:   "remote-counter",
	}, nil
}

func (f *fakeRemoteChain) Code(codeID uint64) (*remote.CodeInfoResponse, error) {
	if codeID != f.codeID {
		return nil, errors.New("code not found")
	}
	return &remote.CodeInfoResponse{
		CodeID:   codeID,
		Creator:  "remote-creator",
		DataHash: []byte{0xde, 0xad, 0xbe, 0xef},
	}, nil
}

func newForkedApp(t *testing.T) (*app.App, *fakeRemoteChain) {
	t.Helper()
	count := make([]byte, 8)
	binary.BigEndian.PutUint64(count, 40)
	fake := &fakeRemoteChain{
		contract: "juno1counter",
		codeID:   100,
		state:    map[string][]byte{"count": count},
	}
	a := newTestApp(t, "fork-of-juno", app.WithRemote(fake))
	require.NoError(t, a.RegisterRemoteCode(fake.codeID, contracts.Counter{}))
	return a, fake
}

// A contract that only exists on the remote chain executes locally against
// its live state, with writes kept local.
func TestForkedContractExecution(t *testing.T) {
	a, fake := newForkedApp(t)

	// The remote state shines through before any local write.
	require.Equal(t, uint64(40), queryCount(t, a, fake.contract))

	_, err := a.ExecuteContract("alice", fake.contract,
		counterJSON(t, contracts.CounterExec{Increment: &struct{}{}}), nil)
	require.NoError(t, err)
	require.Equal(t, uint64(41), queryCount(t, a, fake.contract))

	// The write stayed local; the remote chain still serves 40.
	require.Equal(t, uint64(40), binary.BigEndian.Uint64(fake.state["count"]))

	records, err := a.DumpContractState(fake.contract)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, []byte("count"), records[0].Key)
	require.Equal(t, uint64(41), binary.BigEndian.Uint64(records[0].Value))
}

func TestForkedContractRawQuery(t *testing.T) {
	a, fake := newForkedApp(t)

	// A key only held remotely reads through.
	raw, err := a.Query(types.QueryRequest{Wasm: &types.WasmQuery{Raw: &types.WasmRawQuery{
		ContractAddr: fake.contract,
		Key:          []byte("count"),
	}}})
	require.NoError(t, err)
	require.Equal(t, uint64(40), binary.BigEndian.Uint64(raw))
}

func TestForkedContractInfoQuery(t *testing.T) {
	a, fake := newForkedApp(t)

	raw, err := a.Query(types.QueryRequest{Wasm: &types.WasmQuery{ContractInfo: &types.WasmContractInfoQuery{
		ContractAddr: fake.contract,
	}}})
	require.NoError(t, err)
	require.Contains(t, string(raw), "remote-creator")
}

// Instantiating a remote-only code id locally works: the code id resolves
// through the remote chain when its entry points run.
func TestInstantiateRemoteCode(t *testing.T) {
	a, fake := newForkedApp(t)

	addr, err := a.InstantiateContract("alice", types.WasmInstantiateMsg{
		CodeID: fake.codeID,
		Msg:    counterJSON(t, contracts.CounterInit{Count: 7}),
		Label:  "local-instance",
	})
	require.NoError(t, err)
	require.NotEqual(t, fake.contract, addr)
	require.Equal(t, uint64(7), queryCount(t, a, addr))
}
