package app

import (
	"encoding/json"
	"fmt"
	"strings"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"go.uber.org/zap"

	"github.com/cosmos/multitest/store"
	"github.com/cosmos/multitest/types"
)

// IBCLockModuleAddress escrows coins sent over IBC transfer channels. A
// voucher minted on the counterparty is backed one to one by coins parked
// here.
const IBCLockModuleAddress = "ibc_bank_lock_module"

var (
	bankBalancePrefix = store.Namespace([]byte("bank"), []byte("balance"))
	bankSupplyPrefix  = store.Namespace([]byte("bank"), []byte("supply"))
)

// BankKeeper tracks balances and supply per denom.
type BankKeeper struct{}

// NewBankKeeper returns a bank keeper.
func NewBankKeeper() *BankKeeper { return &BankKeeper{} }

// HandleMsg executes a bank message on behalf of sender.
func (k *BankKeeper) HandleMsg(ctx *Context, sender string, msg types.BankMsg) (*types.AppResponse, error) {
	switch {
	case msg.Send != nil:
		if err := k.Send(ctx, sender, msg.Send.ToAddress, msg.Send.Amount); err != nil {
			return nil, err
		}
		ev := types.NewEvent(EventTypeTransfer).
			AddAttribute(AttributeKeyRecipient, msg.Send.ToAddress).
			AddAttribute(AttributeKeySender, sender).
			AddAttribute(AttributeKeyAmount, msg.Send.Amount.String())
		return &types.AppResponse{Events: []types.Event{ev}}, nil

	case msg.Burn != nil:
		if err := k.Burn(ctx, sender, msg.Burn.Amount); err != nil {
			return nil, err
		}
		ev := types.NewEvent(EventTypeBurn).
			AddAttribute(AttributeKeySender, sender).
			AddAttribute(AttributeKeyAmount, msg.Burn.Amount.String())
		return &types.AppResponse{Events: []types.Event{ev}}, nil
	}
	return nil, fmt.Errorf("bank: %w", types.ErrUnsupported)
}

// HandleSudo executes a privileged bank operation.
func (k *BankKeeper) HandleSudo(ctx *Context, msg types.BankSudo) (*types.AppResponse, error) {
	if msg.Mint == nil {
		return nil, fmt.Errorf("bank sudo: %w", types.ErrUnsupported)
	}
	if err := k.Mint(ctx, msg.Mint.ToAddress, msg.Mint.Amount); err != nil {
		return nil, err
	}
	ev := types.NewEvent(EventTypeMint).
		AddAttribute(AttributeKeyRecipient, msg.Mint.ToAddress).
		AddAttribute(AttributeKeyAmount, msg.Mint.Amount.String())
	return &types.AppResponse{Events: []types.Event{ev}}, nil
}

// HandleQuery answers a bank query.
func (k *BankKeeper) HandleQuery(ctx *Context, q types.BankQuery) ([]byte, error) {
	switch {
	case q.Balance != nil:
		balance, err := k.Balance(ctx, q.Balance.Address)
		if err != nil {
			return nil, err
		}
		coin := sdk.NewCoin(q.Balance.Denom, balance.AmountOf(q.Balance.Denom))
		return json.Marshal(types.BankBalanceResponse{Amount: coin})

	case q.AllBalances != nil:
		balance, err := k.Balance(ctx, q.AllBalances.Address)
		if err != nil {
			return nil, err
		}
		return json.Marshal(types.BankAllBalancesResponse{Amount: balance})

	case q.Supply != nil:
		supply, err := k.Supply(ctx, q.Supply.Denom)
		if err != nil {
			return nil, err
		}
		return json.Marshal(types.BankSupplyResponse{Amount: supply})
	}
	return nil, fmt.Errorf("bank query: %w", types.ErrUnsupported)
}

// Send moves coins between two addresses. Zero or invalid amounts are
// rejected outright.
func (k *BankKeeper) Send(ctx *Context, from, to string, amount sdk.Coins) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if err := k.subBalance(ctx, from, amount); err != nil {
		return err
	}
	return k.addBalance(ctx, to, amount)
}

// Mint creates coins onto an address and grows supply.
func (k *BankKeeper) Mint(ctx *Context, to string, amount sdk.Coins) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if err := k.adjustSupply(ctx, amount, true); err != nil {
		return err
	}
	return k.addBalance(ctx, to, amount)
}

// Burn destroys coins held by an address and shrinks supply.
func (k *BankKeeper) Burn(ctx *Context, from string, amount sdk.Coins) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if err := k.subBalance(ctx, from, amount); err != nil {
		return err
	}
	return k.adjustSupply(ctx, amount, false)
}

// InitBalance overwrites an address balance, for test genesis setup. Supply
// is adjusted by the difference.
func (k *BankKeeper) InitBalance(ctx *Context, addr string, amount sdk.Coins) error {
	old, err := k.Balance(ctx, addr)
	if err != nil {
		return err
	}
	if !old.Empty() {
		if err := k.adjustSupply(ctx, old, false); err != nil {
			return err
		}
	}
	if err := k.setBalance(ctx, addr, amount); err != nil {
		return err
	}
	if amount.Empty() {
		return nil
	}
	return k.adjustSupply(ctx, amount, true)
}

// Balance returns every coin held by addr.
func (k *BankKeeper) Balance(ctx *Context, addr string) (sdk.Coins, error) {
	kv := store.NewPrefix(ctx.KV, bankBalancePrefix)
	raw, err := kv.Get([]byte(addr))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return sdk.Coins{}, nil
	}
	var coins sdk.Coins
	if err := json.Unmarshal(raw, &coins); err != nil {
		return nil, fmt.Errorf("corrupt balance for %s: %w", addr, err)
	}
	return coins, nil
}

// Supply returns the tracked supply of one denom.
func (k *BankKeeper) Supply(ctx *Context, denom string) (sdk.Coin, error) {
	kv := store.NewPrefix(ctx.KV, bankSupplyPrefix)
	raw, err := kv.Get([]byte(denom))
	if err != nil {
		return sdk.Coin{}, err
	}
	if raw == nil {
		return sdk.NewCoin(denom, sdk.ZeroInt()), nil
	}
	amount, ok := sdk.NewIntFromString(string(raw))
	if !ok {
		return sdk.Coin{}, fmt.Errorf("corrupt supply for %s", denom)
	}
	return sdk.NewCoin(denom, amount), nil
}

func (k *BankKeeper) setBalance(ctx *Context, addr string, coins sdk.Coins) error {
	kv := store.NewPrefix(ctx.KV, bankBalancePrefix)
	coins = coins.Sort()
	if coins.Empty() {
		return kv.Delete([]byte(addr))
	}
	raw, err := json.Marshal(coins)
	if err != nil {
		return err
	}
	return kv.Set([]byte(addr), raw)
}

func (k *BankKeeper) addBalance(ctx *Context, addr string, amount sdk.Coins) error {
	balance, err := k.Balance(ctx, addr)
	if err != nil {
		return err
	}
	return k.setBalance(ctx, addr, balance.Add(amount...))
}

func (k *BankKeeper) subBalance(ctx *Context, addr string, amount sdk.Coins) error {
	balance, err := k.Balance(ctx, addr)
	if err != nil {
		return err
	}
	rest, negative := balance.SafeSub(amount)
	if negative {
		return fmt.Errorf("insufficient funds: %s has %s, wants %s", addr, balance, amount)
	}
	return k.setBalance(ctx, addr, rest)
}

func (k *BankKeeper) adjustSupply(ctx *Context, amount sdk.Coins, grow bool) error {
	kv := store.NewPrefix(ctx.KV, bankSupplyPrefix)
	for _, coin := range amount {
		supply, err := k.Supply(ctx, coin.Denom)
		if err != nil {
			return err
		}
		var next sdk.Int
		if grow {
			next = supply.Amount.Add(coin.Amount)
		} else {
			next = supply.Amount.Sub(coin.Amount)
			if next.IsNegative() {
				return fmt.Errorf("supply of %s would go negative", coin.Denom)
			}
		}
		if err := kv.Set([]byte(coin.Denom), []byte(next.String())); err != nil {
			return err
		}
	}
	return nil
}

func validateAmount(amount sdk.Coins) error {
	if amount.Empty() {
		return fmt.Errorf("empty coin amount")
	}
	if !amount.IsValid() || !amount.IsAllPositive() {
		return fmt.Errorf("invalid coin amount %s", amount)
	}
	return nil
}

// WrapIBCDenom is the voucher denom of a coin received over channelID.
func WrapIBCDenom(channelID, denom string) string {
	return fmt.Sprintf("ibc/%s/%s", channelID, denom)
}

// UnwrapIBCDenom strips the voucher prefix when the denom was wrapped on the
// given channel, and returns the denom unchanged otherwise.
func UnwrapIBCDenom(denom, channelID string) string {
	parts := strings.SplitN(denom, "/", 3)
	if len(parts) != 3 || parts[0] != "ibc" || parts[1] != channelID {
		return denom
	}
	return parts[2]
}

// OnPacketReceive credits an incoming transfer. A denom already escrowed
// here round-trips out of the lock module; anything else is minted as a
// voucher wrapped with the receiving channel.
func (k *BankKeeper) OnPacketReceive(ctx *Context, packet types.Packet) error {
	var data types.FungibleTokenPacketData
	if err := json.Unmarshal(packet.Data, &data); err != nil {
		return fmt.Errorf("malformed transfer packet: %w", err)
	}
	amount, ok := sdk.NewIntFromString(data.Amount)
	if !ok {
		return fmt.Errorf("malformed transfer amount %q", data.Amount)
	}
	coins := sdk.NewCoins(sdk.NewCoin(data.Denom, amount))

	locked, err := k.Balance(ctx, IBCLockModuleAddress)
	if err != nil {
		return err
	}
	if locked.AmountOf(data.Denom).GTE(amount) {
		return k.Send(ctx, IBCLockModuleAddress, data.Receiver, coins)
	}
	wrapped := sdk.NewCoins(sdk.NewCoin(WrapIBCDenom(packet.Dest.ChannelID, data.Denom), amount))
	return k.Mint(ctx, data.Receiver, wrapped)
}

// OnPacketAck handles the acknowledgement of an outgoing transfer. The
// escrow stays in place either way.
func (k *BankKeeper) OnPacketAck(ctx *Context, packet types.Packet, ack []byte) error {
	return nil
}

// OnPacketTimeout handles an outgoing transfer that timed out. The sender is
// not refunded: the escrow stays parked on the lock module.
func (k *BankKeeper) OnPacketTimeout(ctx *Context, packet types.Packet) error {
	var data types.FungibleTokenPacketData
	if err := json.Unmarshal(packet.Data, &data); err != nil {
		return fmt.Errorf("malformed transfer packet: %w", err)
	}
	ctx.Log.Debug("Transfer timed out, escrow kept",
		zap.String("sender", data.Sender),
		zap.String("denom", data.Denom),
		zap.String("amount", data.Amount),
	)
	return nil
}
