package relay

import (
	"encoding/json"

	chantypes "github.com/cosmos/ibc-go/v3/modules/core/04-channel/types"

	"github.com/cosmos/multitest/app"
	"github.com/cosmos/multitest/types"
)

// ChannelCreationResult carries the responses of all four handshake steps
// plus the resulting channel ends.
type ChannelCreationResult struct {
	Init    *types.AppResponse
	Try     *types.AppResponse
	Ack     *types.AppResponse
	Confirm *types.AppResponse

	Src types.IBCEndpoint
	Dst types.IBCEndpoint
}

// CreateChannel runs the full four-step channel handshake over an existing
// connection: Init on src, Try on dst, Ack on src, Confirm on dst. The
// version may be renegotiated by contract hooks along the way; each step
// forwards the version the previous step settled on.
func CreateChannel(src, dst *app.App, srcConnectionID, srcPort, dstPort string, order chantypes.Order, version string) (*ChannelCreationResult, error) {
	initRes, err := src.Relay(types.IBCRelayMsg{OpenChannel: &types.IBCOpenChannel{
		LocalConnectionID:    srcConnectionID,
		LocalPort:            srcPort,
		Order:                order,
		Version:              version,
		CounterpartyEndpoint: types.IBCEndpoint{PortID: dstPort},
	}})
	if err != nil {
		return nil, err
	}
	srcChannel, err := GetEventAttrValue(initRes, chantypes.EventTypeChannelOpenInit, chantypes.AttributeKeyChannelID)
	if err != nil {
		return nil, err
	}
	initVersion, err := GetEventAttrValue(initRes, chantypes.EventTypeChannelOpenInit, app.AttributeKeyVersion)
	if err != nil {
		return nil, err
	}

	dstConnectionID, err := counterpartyConnection(src, srcConnectionID)
	if err != nil {
		return nil, err
	}

	tryRes, err := dst.Relay(types.IBCRelayMsg{OpenChannel: &types.IBCOpenChannel{
		LocalConnectionID:    dstConnectionID,
		LocalPort:            dstPort,
		Order:                order,
		Version:              version,
		CounterpartyEndpoint: types.IBCEndpoint{PortID: srcPort, ChannelID: srcChannel},
		CounterpartyVersion:  initVersion,
	}})
	if err != nil {
		return nil, err
	}
	dstChannel, err := GetEventAttrValue(tryRes, chantypes.EventTypeChannelOpenTry, chantypes.AttributeKeyChannelID)
	if err != nil {
		return nil, err
	}
	tryVersion, err := GetEventAttrValue(tryRes, chantypes.EventTypeChannelOpenTry, app.AttributeKeyVersion)
	if err != nil {
		return nil, err
	}

	srcEnd := types.IBCEndpoint{PortID: srcPort, ChannelID: srcChannel}
	dstEnd := types.IBCEndpoint{PortID: dstPort, ChannelID: dstChannel}

	ackRes, err := src.Relay(types.IBCRelayMsg{ConnectChannel: &types.IBCConnectChannel{
		PortID:               srcPort,
		ChannelID:            srcChannel,
		CounterpartyEndpoint: dstEnd,
		CounterpartyVersion:  tryVersion,
	}})
	if err != nil {
		return nil, err
	}

	confirmRes, err := dst.Relay(types.IBCRelayMsg{ConnectChannel: &types.IBCConnectChannel{
		PortID:               dstPort,
		ChannelID:            dstChannel,
		CounterpartyEndpoint: srcEnd,
		CounterpartyVersion:  tryVersion,
	}})
	if err != nil {
		return nil, err
	}

	return &ChannelCreationResult{
		Init:    initRes,
		Try:     tryRes,
		Ack:     ackRes,
		Confirm: confirmRes,
		Src:     srcEnd,
		Dst:     dstEnd,
	}, nil
}

// CloseChannel closes both channel ends: init on src, confirm on dst.
func CloseChannel(src, dst *app.App, srcEnd, dstEnd types.IBCEndpoint) (*types.AppResponse, *types.AppResponse, error) {
	initRes, err := src.Relay(types.IBCRelayMsg{CloseChannel: &types.IBCChannelClose{
		PortID:    srcEnd.PortID,
		ChannelID: srcEnd.ChannelID,
	}})
	if err != nil {
		return nil, nil, err
	}
	confirmRes, err := dst.Relay(types.IBCRelayMsg{CloseChannel: &types.IBCChannelClose{
		PortID:    dstEnd.PortID,
		ChannelID: dstEnd.ChannelID,
		Confirm:   true,
	}})
	if err != nil {
		return nil, nil, err
	}
	return initRes, confirmRes, nil
}

// counterpartyConnection reads the counterparty connection id recorded on the
// given chain's connection end.
func counterpartyConnection(chain *app.App, connectionID string) (string, error) {
	raw, err := chain.Query(types.QueryRequest{IBC: &types.IBCQuery{
		ConnectedChain: &types.IBCConnectedChainQuery{ConnectionID: connectionID},
	}})
	if err != nil {
		return "", err
	}
	var res types.IBCConnectedChainResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", err
	}
	return res.Connection.CounterpartyConnectionID, nil
}
