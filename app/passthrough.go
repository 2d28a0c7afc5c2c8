package app

import (
	"encoding/base64"
	"fmt"

	"github.com/cosmos/multitest/types"
)

const (
	EventTypeStargate = "stargate"

	AttributeKeyTypeURL = "type_url"
	AttributeKeyValue   = "value"
)

// FailingStargate rejects every opaque message. This is the default.
type FailingStargate struct{}

func (FailingStargate) HandleMsg(ctx *Context, sender string, msg types.StargateMsg) (*types.AppResponse, error) {
	return nil, fmt.Errorf("stargate message %s: %w", msg.TypeURL, types.ErrUnsupported)
}

// AcceptingStargate swallows every opaque message and records it as an
// event, so flows that touch unmodeled modules can still be exercised.
type AcceptingStargate struct{}

func (AcceptingStargate) HandleMsg(ctx *Context, sender string, msg types.StargateMsg) (*types.AppResponse, error) {
	ev := types.NewEvent(EventTypeStargate).
		AddAttribute(AttributeKeyTypeURL, msg.TypeURL).
		AddAttribute(AttributeKeyValue, base64.StdEncoding.EncodeToString(msg.Value))
	return &types.AppResponse{Events: []types.Event{ev}}, nil
}
