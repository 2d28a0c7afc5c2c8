package app

import (
	"fmt"

	"github.com/cosmos/multitest/store"
	"github.com/cosmos/multitest/types"
)

var distributionWithdrawPrefix = store.Namespace([]byte("distribution"), []byte("withdraw-address"))

const (
	EventTypeSetWithdrawAddress = "set_withdraw_address"
	EventTypeWithdrawRewards    = "withdraw_rewards"

	AttributeKeyWithdrawAddress = "withdraw_address"
)

// DistributionKeeper tracks withdraw addresses. Rewards are not accrued, so
// a withdrawal only records the event.
type DistributionKeeper struct{}

// NewDistributionKeeper returns a distribution keeper.
func NewDistributionKeeper() *DistributionKeeper { return &DistributionKeeper{} }

// HandleMsg executes a distribution message on behalf of sender.
func (k *DistributionKeeper) HandleMsg(ctx *Context, sender string, msg types.DistributionMsg) (*types.AppResponse, error) {
	switch {
	case msg.SetWithdrawAddress != nil:
		kv := store.NewPrefix(ctx.KV, distributionWithdrawPrefix)
		if err := kv.Set([]byte(sender), []byte(msg.SetWithdrawAddress.Address)); err != nil {
			return nil, err
		}
		ev := types.NewEvent(EventTypeSetWithdrawAddress).
			AddAttribute(AttributeKeyWithdrawAddress, msg.SetWithdrawAddress.Address)
		return &types.AppResponse{Events: []types.Event{ev}}, nil

	case msg.WithdrawDelegatorReward != nil:
		ev := types.NewEvent(EventTypeWithdrawRewards).
			AddAttribute(AttributeKeyValidator, msg.WithdrawDelegatorReward.Validator).
			AddAttribute(AttributeKeySender, sender)
		return &types.AppResponse{Events: []types.Event{ev}}, nil
	}
	return nil, fmt.Errorf("distribution: %w", types.ErrUnsupported)
}

// WithdrawAddress returns the registered withdraw address of delegator, or
// the delegator itself when none is set.
func (k *DistributionKeeper) WithdrawAddress(ctx *Context, delegator string) (string, error) {
	kv := store.NewPrefix(ctx.KV, distributionWithdrawPrefix)
	raw, err := kv.Get([]byte(delegator))
	if err != nil {
		return "", err
	}
	if raw == nil {
		return delegator, nil
	}
	return string(raw), nil
}
