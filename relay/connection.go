package relay

import (
	"github.com/cosmos/multitest/app"
	"github.com/cosmos/multitest/types"
)

// CreateConnection opens a connection between two chains and returns the
// connection ids on src and dst. Three steps: register on src, register on
// dst pointing back at src, then complete src with dst's id.
func CreateConnection(src, dst *app.App) (string, string, error) {
	srcRes, err := src.Relay(types.IBCRelayMsg{CreateConnection: &types.IBCCreateConnection{
		RemoteChainID: dst.ChainID(),
	}})
	if err != nil {
		return "", "", err
	}
	srcConnection, err := GetEventAttrValue(srcRes, app.EventTypeConnectionOpen, app.AttributeKeyConnectionID)
	if err != nil {
		return "", "", err
	}

	dstRes, err := dst.Relay(types.IBCRelayMsg{CreateConnection: &types.IBCCreateConnection{
		RemoteChainID:            src.ChainID(),
		CounterpartyConnectionID: srcConnection,
	}})
	if err != nil {
		return "", "", err
	}
	dstConnection, err := GetEventAttrValue(dstRes, app.EventTypeConnectionOpen, app.AttributeKeyConnectionID)
	if err != nil {
		return "", "", err
	}

	if _, err := src.Relay(types.IBCRelayMsg{CreateConnection: &types.IBCCreateConnection{
		RemoteChainID:            dst.ChainID(),
		ConnectionID:             srcConnection,
		CounterpartyConnectionID: dstConnection,
	}}); err != nil {
		return "", "", err
	}
	return srcConnection, dstConnection, nil
}
