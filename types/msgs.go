package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	chantypes "github.com/cosmos/ibc-go/v3/modules/core/04-channel/types"
)

// Msg is a routed application message. Exactly one branch is set; the router
// dispatches on the first non-nil branch.
type Msg struct {
	Bank         *BankMsg         `json:"bank,omitempty"`
	Wasm         *WasmMsg         `json:"wasm,omitempty"`
	Staking      *StakingMsg      `json:"staking,omitempty"`
	Distribution *DistributionMsg `json:"distribution,omitempty"`
	Gov          *GovMsg          `json:"gov,omitempty"`
	IBC          *IBCMsg          `json:"ibc,omitempty"`
	Stargate     *StargateMsg     `json:"stargate,omitempty"`
}

// Route names the module a message belongs to, or "" when no branch is set.
func (m Msg) Route() string {
	switch {
	case m.Bank != nil:
		return RouteBank
	case m.Wasm != nil:
		return RouteWasm
	case m.Staking != nil:
		return RouteStaking
	case m.Distribution != nil:
		return RouteDistribution
	case m.Gov != nil:
		return RouteGov
	case m.IBC != nil:
		return RouteIBC
	case m.Stargate != nil:
		return RouteStargate
	}
	return ""
}

// Module route names.
const (
	RouteBank         = "bank"
	RouteWasm         = "wasm"
	RouteStaking      = "staking"
	RouteDistribution = "distribution"
	RouteGov          = "gov"
	RouteIBC          = "ibc"
	RouteStargate     = "stargate"
)

// BankMsg moves or destroys coins from the sender's balance.
type BankMsg struct {
	Send *BankSendMsg `json:"send,omitempty"`
	Burn *BankBurnMsg `json:"burn,omitempty"`
}

type BankSendMsg struct {
	ToAddress string    `json:"to_address"`
	Amount    sdk.Coins `json:"amount"`
}

type BankBurnMsg struct {
	Amount sdk.Coins `json:"amount"`
}

// WasmMsg operates on contract code and instances.
type WasmMsg struct {
	Execute     *WasmExecuteMsg     `json:"execute,omitempty"`
	Instantiate *WasmInstantiateMsg `json:"instantiate,omitempty"`
	Migrate     *WasmMigrateMsg     `json:"migrate,omitempty"`
	UpdateAdmin *WasmUpdateAdminMsg `json:"update_admin,omitempty"`
	ClearAdmin  *WasmClearAdminMsg  `json:"clear_admin,omitempty"`
}

type WasmExecuteMsg struct {
	ContractAddr string    `json:"contract_addr"`
	Msg          []byte    `json:"msg"`
	Funds        sdk.Coins `json:"funds"`
}

// WasmInstantiateMsg creates a new instance of a stored code. A non-empty
// Salt makes the generated address a pure function of code checksum, creator
// and salt, so repeating the same triple fails with a duplicate address.
type WasmInstantiateMsg struct {
	CodeID uint64    `json:"code_id"`
	Msg    []byte    `json:"msg"`
	Funds  sdk.Coins `json:"funds"`
	Label  string    `json:"label"`
	Admin  string    `json:"admin,omitempty"`
	Salt   []byte    `json:"salt,omitempty"`
}

type WasmMigrateMsg struct {
	ContractAddr string `json:"contract_addr"`
	NewCodeID    uint64 `json:"new_code_id"`
	Msg          []byte `json:"msg"`
}

type WasmUpdateAdminMsg struct {
	ContractAddr string `json:"contract_addr"`
	Admin        string `json:"admin"`
}

type WasmClearAdminMsg struct {
	ContractAddr string `json:"contract_addr"`
}

// StakingMsg covers the delegation operations the harness tracks.
type StakingMsg struct {
	Delegate   *StakingDelegateMsg   `json:"delegate,omitempty"`
	Undelegate *StakingUndelegateMsg `json:"undelegate,omitempty"`
}

type StakingDelegateMsg struct {
	Validator string   `json:"validator"`
	Amount    sdk.Coin `json:"amount"`
}

type StakingUndelegateMsg struct {
	Validator string   `json:"validator"`
	Amount    sdk.Coin `json:"amount"`
}

// DistributionMsg covers reward withdrawal bookkeeping.
type DistributionMsg struct {
	SetWithdrawAddress      *DistributionSetWithdrawAddressMsg      `json:"set_withdraw_address,omitempty"`
	WithdrawDelegatorReward *DistributionWithdrawDelegatorRewardMsg `json:"withdraw_delegator_reward,omitempty"`
}

type DistributionSetWithdrawAddressMsg struct {
	Address string `json:"address"`
}

type DistributionWithdrawDelegatorRewardMsg struct {
	Validator string `json:"validator"`
}

// GovMsg records a governance vote.
type GovMsg struct {
	Vote *GovVoteMsg `json:"vote,omitempty"`
}

type GovVoteMsg struct {
	ProposalID uint64 `json:"proposal_id"`
	Option     string `json:"option"`
}

// IBCMsg is an IBC action initiated by a contract or user.
type IBCMsg struct {
	Transfer     *IBCTransferMsg     `json:"transfer,omitempty"`
	SendPacket   *IBCSendPacketMsg   `json:"send_packet,omitempty"`
	CloseChannel *IBCCloseChannelMsg `json:"close_channel,omitempty"`
}

// IBCTransferMsg is a fungible token transfer over an open transfer channel.
type IBCTransferMsg struct {
	ChannelID string     `json:"channel_id"`
	ToAddress string     `json:"to_address"`
	Amount    sdk.Coin   `json:"amount"`
	Timeout   IBCTimeout `json:"timeout"`
	Memo      string     `json:"memo,omitempty"`
}

// IBCSendPacketMsg sends raw packet data over a channel the sender owns.
type IBCSendPacketMsg struct {
	ChannelID string     `json:"channel_id"`
	Data      []byte     `json:"data"`
	Timeout   IBCTimeout `json:"timeout"`
}

type IBCCloseChannelMsg struct {
	ChannelID string `json:"channel_id"`
}

// StargateMsg is an opaque protobuf message for module endpoints the harness
// does not model. The passthrough module accepts or rejects it wholesale.
type StargateMsg struct {
	TypeURL string `json:"type_url"`
	Value   []byte `json:"value"`
}

// QueryRequest is a routed read-only query. Exactly one branch is set.
type QueryRequest struct {
	Bank *BankQuery `json:"bank,omitempty"`
	Wasm *WasmQuery `json:"wasm,omitempty"`
	IBC  *IBCQuery  `json:"ibc,omitempty"`
}

// BankQuery reads balances and supply.
type BankQuery struct {
	Balance     *BankBalanceQuery     `json:"balance,omitempty"`
	AllBalances *BankAllBalancesQuery `json:"all_balances,omitempty"`
	Supply      *BankSupplyQuery      `json:"supply,omitempty"`
}

type BankBalanceQuery struct {
	Address string `json:"address"`
	Denom   string `json:"denom"`
}

type BankAllBalancesQuery struct {
	Address string `json:"address"`
}

type BankSupplyQuery struct {
	Denom string `json:"denom"`
}

// WasmQuery reads contract state and metadata.
type WasmQuery struct {
	Smart        *WasmSmartQuery        `json:"smart,omitempty"`
	Raw          *WasmRawQuery          `json:"raw,omitempty"`
	ContractInfo *WasmContractInfoQuery `json:"contract_info,omitempty"`
	CodeInfo     *WasmCodeInfoQuery     `json:"code_info,omitempty"`
}

type WasmSmartQuery struct {
	ContractAddr string `json:"contract_addr"`
	Msg          []byte `json:"msg"`
}

type WasmRawQuery struct {
	ContractAddr string `json:"contract_addr"`
	Key          []byte `json:"key"`
}

type WasmContractInfoQuery struct {
	ContractAddr string `json:"contract_addr"`
}

type WasmCodeInfoQuery struct {
	CodeID uint64 `json:"code_id"`
}

// BankBalanceResponse answers a BankBalanceQuery.
type BankBalanceResponse struct {
	Amount sdk.Coin `json:"amount"`
}

// BankAllBalancesResponse answers a BankAllBalancesQuery.
type BankAllBalancesResponse struct {
	Amount sdk.Coins `json:"amount"`
}

// BankSupplyResponse answers a BankSupplyQuery.
type BankSupplyResponse struct {
	Amount sdk.Coin `json:"amount"`
}

// ContractInfoResponse answers a WasmContractInfoQuery.
type ContractInfoResponse struct {
	CodeID  uint64 `json:"code_id"`
	Creator string `json:"creator"`
	Admin   string `json:"admin,omitempty"`
}

// CodeInfoResponse answers a WasmCodeInfoQuery.
type CodeInfoResponse struct {
	CodeID   uint64 `json:"code_id"`
	Creator  string `json:"creator"`
	Checksum []byte `json:"checksum"`
}

// SudoMsg is a privileged message injected from outside any contract. The
// router dispatches it without a sender check.
type SudoMsg struct {
	Bank *BankSudo   `json:"bank,omitempty"`
	Wasm *WasmSudo   `json:"wasm,omitempty"`
	IBC  *IBCRelayMsg `json:"ibc,omitempty"`
}

// BankSudo mints coins out of thin air onto an address.
type BankSudo struct {
	Mint *BankMintSudo `json:"mint,omitempty"`
}

type BankMintSudo struct {
	ToAddress string    `json:"to_address"`
	Amount    sdk.Coins `json:"amount"`
}

// WasmSudo invokes a contract's sudo entry point.
type WasmSudo struct {
	ContractAddr string `json:"contract_addr"`
	Msg          []byte `json:"msg"`
}

// ChannelOrder is re-exported so callers do not import the channel types
// package directly.
type ChannelOrder = chantypes.Order
