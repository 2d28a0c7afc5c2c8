// Package vm defines the contract execution surface: the entry points a
// native contract implements and the dependencies it executes against.
package vm

import (
	"github.com/cosmos/multitest/types"
)

// Contract is a native contract. Every entry point receives its own storage
// view through deps and must express all external effects as submessages on
// the returned response.
type Contract interface {
	Instantiate(deps Deps, env types.Env, info types.MessageInfo, msg []byte) (*types.Response, error)
	Execute(deps Deps, env types.Env, info types.MessageInfo, msg []byte) (*types.Response, error)
	Query(deps Deps, env types.Env, msg []byte) ([]byte, error)
	Sudo(deps Deps, env types.Env, msg []byte) (*types.Response, error)
	Reply(deps Deps, env types.Env, reply types.Reply) (*types.Response, error)
	Migrate(deps Deps, env types.Env, msg []byte) (*types.Response, error)
}

// IBCContract is a contract that owns IBC channels. The channel keeper calls
// these hooks during handshakes and packet relay on any contract bound to a
// port.
type IBCContract interface {
	Contract

	IBCChannelOpen(deps Deps, env types.Env, msg types.IBCChannelOpenMsg) (string, error)
	IBCChannelConnect(deps Deps, env types.Env, msg types.IBCChannelConnectMsg) (*types.Response, error)
	IBCChannelClose(deps Deps, env types.Env, msg types.IBCChannelCloseMsg) (*types.Response, error)
	IBCPacketReceive(deps Deps, env types.Env, msg types.IBCPacketReceiveMsg) (*types.IBCReceiveResponse, error)
	IBCPacketAck(deps Deps, env types.Env, msg types.IBCPacketAckMsg) (*types.Response, error)
	IBCPacketTimeout(deps Deps, env types.Env, msg types.IBCPacketTimeoutMsg) (*types.Response, error)
}
