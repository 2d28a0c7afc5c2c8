package app

import (
	"fmt"
	"strconv"

	"github.com/cosmos/multitest/store"
	"github.com/cosmos/multitest/types"
)

var govVotePrefix = store.Namespace([]byte("gov"), []byte("vote"))

const (
	EventTypeProposalVote = "proposal_vote"

	AttributeKeyProposalID = "proposal_id"
	AttributeKeyOption     = "option"
)

// GovKeeper records governance votes. Proposals themselves are not modeled;
// any proposal id is accepted.
type GovKeeper struct{}

// NewGovKeeper returns a gov keeper.
func NewGovKeeper() *GovKeeper { return &GovKeeper{} }

// HandleMsg executes a gov message on behalf of sender.
func (k *GovKeeper) HandleMsg(ctx *Context, sender string, msg types.GovMsg) (*types.AppResponse, error) {
	if msg.Vote == nil {
		return nil, fmt.Errorf("gov: %w", types.ErrUnsupported)
	}
	kv := store.NewPrefix(ctx.KV, govVotePrefix)
	key := store.Namespace(proposalKey(msg.Vote.ProposalID), []byte(sender))
	if err := kv.Set(key, []byte(msg.Vote.Option)); err != nil {
		return nil, err
	}
	ev := types.NewEvent(EventTypeProposalVote).
		AddAttribute(AttributeKeyProposalID, strconv.FormatUint(msg.Vote.ProposalID, 10)).
		AddAttribute(AttributeKeyOption, msg.Vote.Option).
		AddAttribute(AttributeKeySender, sender)
	return &types.AppResponse{Events: []types.Event{ev}}, nil
}

// Vote returns the recorded vote of voter on a proposal.
func (k *GovKeeper) Vote(ctx *Context, proposalID uint64, voter string) (string, error) {
	kv := store.NewPrefix(ctx.KV, govVotePrefix)
	raw, err := kv.Get(store.Namespace(proposalKey(proposalID), []byte(voter)))
	if err != nil {
		return "", err
	}
	if raw == nil {
		return "", fmt.Errorf("vote of %s on proposal %d: %w", voter, proposalID, types.ErrNotFound)
	}
	return string(raw), nil
}

func proposalKey(id uint64) []byte {
	return []byte(strconv.FormatUint(id, 10))
}
