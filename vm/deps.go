package vm

import (
	"github.com/cosmos/multitest/store"
	"github.com/cosmos/multitest/types"
)

// Querier answers read-only queries from inside a contract call. Queries run
// against a snapshot of chain state taken when the entry point started, so
// their results stay stable while the call itself mutates state.
type Querier interface {
	Query(req types.QueryRequest) ([]byte, error)
}

// Deps is what a contract entry point executes against: its own prefixed
// storage view and a querier into the rest of the application.
type Deps struct {
	Storage store.KV
	Querier Querier
}
