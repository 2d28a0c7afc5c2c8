package store_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cosmos/multitest/store"
)

func TestNamespaceLengthPrefixing(t *testing.T) {
	// Concatenation must not be able to produce colliding namespaces.
	require.NotEqual(t,
		store.Namespace([]byte("ab"), []byte("c")),
		store.Namespace([]byte("a"), []byte("bc")),
	)
	require.Equal(t,
		store.Namespace([]byte("a"), []byte("b")),
		store.Namespace([]byte("a"), []byte("b")),
	)
}

func TestPrefixIsolation(t *testing.T) {
	parent := store.NewMemStore()
	one := store.NewPrefix(parent, store.Namespace([]byte("one")))
	two := store.NewPrefix(parent, store.Namespace([]byte("two")))

	require.NoError(t, one.Set([]byte("k"), []byte("1")))
	require.NoError(t, two.Set([]byte("k"), []byte("2")))

	got, err := one.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), got)

	got, err = two.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("2"), got)

	require.NoError(t, one.Delete([]byte("k")))
	got, err = two.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("2"), got)
}

func TestPrefixIterateStripsPrefix(t *testing.T) {
	parent := store.NewMemStore()
	p := store.NewPrefix(parent, store.Namespace([]byte("scoped")))
	require.NoError(t, p.Set([]byte{1}, []byte("a")))
	require.NoError(t, p.Set([]byte{2}, []byte("b")))

	// Sibling data outside the prefix must not leak into the scan.
	require.NoError(t, parent.Set([]byte("unrelated"), []byte("x")))

	keys := collectKeys(t, p, nil, nil, store.Ascending)
	require.Equal(t, [][]byte{{1}, {2}}, keys)

	keys = collectKeys(t, p, []byte{2}, nil, store.Ascending)
	require.Equal(t, [][]byte{{2}}, keys)
}

func TestNestedPrefixes(t *testing.T) {
	parent := store.NewMemStore()
	module := store.NewPrefix(parent, store.Namespace([]byte("wasm"), []byte("contract-storage")))
	contract := store.NewPrefix(module, store.Namespace([]byte("contract-1")))

	require.NoError(t, contract.Set([]byte("state"), []byte("v")))

	other := store.NewPrefix(module, store.Namespace([]byte("contract-2")))
	got, err := other.Get([]byte("state"))
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = contract.Get([]byte("state"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)
}
