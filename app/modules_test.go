package app_test

import (
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/cosmos/multitest/app"
	"github.com/cosmos/multitest/types"
)

func TestStakingDelegateEscrowsCoins(t *testing.T) {
	a := newTestApp(t, "chain-a")
	require.NoError(t, a.InitBalance("alice", coins(100, "ustake")))

	res, err := a.Execute("alice", types.Msg{Staking: &types.StakingMsg{Delegate: &types.StakingDelegateMsg{
		Validator: "valoper1",
		Amount:    sdk.NewInt64Coin("ustake", 60),
	}}})
	require.NoError(t, err)
	require.Equal(t, app.EventTypeDelegate, res.Events[0].Type)

	aliceBalance, err := a.Balance("alice")
	require.NoError(t, err)
	require.Equal(t, coins(40, "ustake"), aliceBalance)

	escrow, err := a.Balance(app.StakingModuleAddress)
	require.NoError(t, err)
	require.Equal(t, coins(60, "ustake"), escrow)
}

func TestStakingUndelegateReleasesEscrow(t *testing.T) {
	a := newTestApp(t, "chain-a")
	require.NoError(t, a.InitBalance("alice", coins(100, "ustake")))

	_, err := a.Execute("alice", types.Msg{Staking: &types.StakingMsg{Delegate: &types.StakingDelegateMsg{
		Validator: "valoper1",
		Amount:    sdk.NewInt64Coin("ustake", 60),
	}}})
	require.NoError(t, err)

	// More than delegated cannot come back.
	_, err = a.Execute("alice", types.Msg{Staking: &types.StakingMsg{Undelegate: &types.StakingUndelegateMsg{
		Validator: "valoper1",
		Amount:    sdk.NewInt64Coin("ustake", 70),
	}}})
	require.Error(t, err)

	_, err = a.Execute("alice", types.Msg{Staking: &types.StakingMsg{Undelegate: &types.StakingUndelegateMsg{
		Validator: "valoper1",
		Amount:    sdk.NewInt64Coin("ustake", 25),
	}}})
	require.NoError(t, err)

	aliceBalance, err := a.Balance("alice")
	require.NoError(t, err)
	require.Equal(t, coins(65, "ustake"), aliceBalance)
}

func TestDistributionWithdrawAddress(t *testing.T) {
	a := newTestApp(t, "chain-a")

	res, err := a.Execute("alice", types.Msg{Distribution: &types.DistributionMsg{
		SetWithdrawAddress: &types.DistributionSetWithdrawAddressMsg{Address: "treasury"},
	}})
	require.NoError(t, err)
	require.Equal(t, app.EventTypeSetWithdrawAddress, res.Events[0].Type)

	// Withdrawing records the event even without accrued rewards.
	res, err = a.Execute("alice", types.Msg{Distribution: &types.DistributionMsg{
		WithdrawDelegatorReward: &types.DistributionWithdrawDelegatorRewardMsg{Validator: "valoper1"},
	}})
	require.NoError(t, err)
	require.Equal(t, app.EventTypeWithdrawRewards, res.Events[0].Type)
}

func TestGovVote(t *testing.T) {
	a := newTestApp(t, "chain-a")

	res, err := a.Execute("alice", types.Msg{Gov: &types.GovMsg{Vote: &types.GovVoteMsg{
		ProposalID: 12,
		Option:     "yes",
	}}})
	require.NoError(t, err)
	require.Equal(t, app.EventTypeProposalVote, res.Events[0].Type)

	id, ok := res.Events[0].Attribute(app.AttributeKeyProposalID)
	require.True(t, ok)
	require.Equal(t, "12", id)
}
