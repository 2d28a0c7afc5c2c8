package types

import (
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// BlockInfo is the simulated block a call executes in.
type BlockInfo struct {
	Height  uint64    `json:"height"`
	Time    time.Time `json:"time"`
	ChainID string    `json:"chain_id"`
}

// TransactionInfo carries the position of the call inside its simulated
// transaction, when one exists.
type TransactionInfo struct {
	Index uint32 `json:"index"`
}

// Env is the environment record handed to every contract entry point.
type Env struct {
	Block       BlockInfo        `json:"block"`
	Contract    string           `json:"contract"`
	Transaction *TransactionInfo `json:"transaction,omitempty"`
}

// MessageInfo identifies the caller of a mutating entry point and the funds
// it attached.
type MessageInfo struct {
	Sender string    `json:"sender"`
	Funds  sdk.Coins `json:"funds"`
}

// ContractInstance is the recorded state of an instantiated contract. The
// address is immutable for the life of the instance; the admin may change
// through admin operations and the code id through a migration.
type ContractInstance struct {
	CodeID  uint64 `json:"code_id"`
	Creator string `json:"creator"`
	Admin   string `json:"admin,omitempty"`
	Label   string `json:"label"`
	Created uint64 `json:"created"`

	// Forked marks an instance adopted from a remote chain. Its storage
	// reads fall through to the live remote state.
	Forked bool `json:"forked,omitempty"`
}

// CodeInfo describes stored contract code. Immutable once created.
type CodeInfo struct {
	CodeID   uint64 `json:"code_id"`
	Creator  string `json:"creator"`
	Checksum []byte `json:"checksum"`
}
