package app

import (
	"encoding/json"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/cosmos/multitest/store"
	"github.com/cosmos/multitest/types"
)

// StakingModuleAddress escrows delegated coins.
const StakingModuleAddress = "staking_module"

var stakingDelegationPrefix = store.Namespace([]byte("staking"), []byte("delegation"))

// Staking event pieces, mirroring the sdk staking module.
const (
	EventTypeDelegate     = "delegate"
	EventTypeUnbond       = "unbond"
	AttributeKeyValidator = "validator"
)

// StakingKeeper tracks delegations per delegator and validator. Delegated
// coins move to the module escrow so the delegator cannot double-spend them.
type StakingKeeper struct {
	bank *BankKeeper
}

// NewStakingKeeper returns a staking keeper settling through bank.
func NewStakingKeeper(bank *BankKeeper) *StakingKeeper {
	return &StakingKeeper{bank: bank}
}

// HandleMsg executes a staking message on behalf of sender.
func (k *StakingKeeper) HandleMsg(ctx *Context, sender string, msg types.StakingMsg) (*types.AppResponse, error) {
	switch {
	case msg.Delegate != nil:
		if err := k.Delegate(ctx, sender, msg.Delegate.Validator, msg.Delegate.Amount); err != nil {
			return nil, err
		}
		ev := types.NewEvent(EventTypeDelegate).
			AddAttribute(AttributeKeyValidator, msg.Delegate.Validator).
			AddAttribute(AttributeKeyAmount, msg.Delegate.Amount.String())
		return &types.AppResponse{Events: []types.Event{ev}}, nil

	case msg.Undelegate != nil:
		if err := k.Undelegate(ctx, sender, msg.Undelegate.Validator, msg.Undelegate.Amount); err != nil {
			return nil, err
		}
		ev := types.NewEvent(EventTypeUnbond).
			AddAttribute(AttributeKeyValidator, msg.Undelegate.Validator).
			AddAttribute(AttributeKeyAmount, msg.Undelegate.Amount.String())
		return &types.AppResponse{Events: []types.Event{ev}}, nil
	}
	return nil, fmt.Errorf("staking: %w", types.ErrUnsupported)
}

// Delegate moves amount from delegator to the module escrow and records the
// delegation.
func (k *StakingKeeper) Delegate(ctx *Context, delegator, validator string, amount sdk.Coin) error {
	if err := k.bank.Send(ctx, delegator, StakingModuleAddress, sdk.NewCoins(amount)); err != nil {
		return err
	}
	current, err := k.Delegation(ctx, delegator, validator)
	if err != nil {
		return err
	}
	if current.Denom != "" && current.Denom != amount.Denom {
		return fmt.Errorf("delegation to %s already denominated in %s", validator, current.Denom)
	}
	next := amount
	if current.Denom != "" {
		next = current.Add(amount)
	}
	return k.setDelegation(ctx, delegator, validator, next)
}

// Undelegate releases amount back to the delegator. Undelegation is
// immediate, with no unbonding period.
func (k *StakingKeeper) Undelegate(ctx *Context, delegator, validator string, amount sdk.Coin) error {
	current, err := k.Delegation(ctx, delegator, validator)
	if err != nil {
		return err
	}
	if current.Denom == "" || current.IsLT(amount) {
		return fmt.Errorf("delegation of %s to %s smaller than %s", delegator, validator, amount)
	}
	if err := k.bank.Send(ctx, StakingModuleAddress, delegator, sdk.NewCoins(amount)); err != nil {
		return err
	}
	return k.setDelegation(ctx, delegator, validator, current.Sub(amount))
}

// Delegation returns the current delegation, or a zero-valued coin record
// when none exists.
func (k *StakingKeeper) Delegation(ctx *Context, delegator, validator string) (sdk.Coin, error) {
	kv := store.NewPrefix(ctx.KV, stakingDelegationPrefix)
	raw, err := kv.Get(delegationKey(delegator, validator))
	if err != nil {
		return sdk.Coin{}, err
	}
	if raw == nil {
		return sdk.Coin{}, nil
	}
	var coin sdk.Coin
	if err := json.Unmarshal(raw, &coin); err != nil {
		return sdk.Coin{}, fmt.Errorf("corrupt delegation record: %w", err)
	}
	return coin, nil
}

func (k *StakingKeeper) setDelegation(ctx *Context, delegator, validator string, amount sdk.Coin) error {
	kv := store.NewPrefix(ctx.KV, stakingDelegationPrefix)
	key := delegationKey(delegator, validator)
	if amount.IsZero() {
		return kv.Delete(key)
	}
	raw, err := json.Marshal(amount)
	if err != nil {
		return err
	}
	return kv.Set(key, raw)
}

func delegationKey(delegator, validator string) []byte {
	return store.Namespace([]byte(delegator), []byte(validator))
}
