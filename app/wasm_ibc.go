package app

import (
	"github.com/cosmos/multitest/types"
	"github.com/cosmos/multitest/vm"
)

// Event types of the wasm IBC hooks.
const (
	EventTypeIBCChannelOpen    = "channel_open"
	EventTypeIBCChannelConnect = "channel_connect"
	EventTypeIBCChannelClose   = "channel_close"
	EventTypeIBCPacketReceive  = "ibc_packet_receive"
	EventTypeIBCPacketAck      = "ibc_packet_ack"
	EventTypeIBCPacketTimeout  = "ibc_packet_timeout"
)

// IBCChannelOpen runs the channel-open hook of a port contract and returns
// the version it negotiated. An empty version accepts the proposed one.
func (k *WasmKeeper) IBCChannelOpen(ctx *Context, addr string, msg types.IBCChannelOpenMsg) (string, error) {
	inst, err := k.ContractData(ctx, addr)
	if err != nil {
		return "", err
	}
	contract, err := k.engine.IBCContract(inst.CodeID)
	if err != nil {
		return "", err
	}
	kv, commit, err := k.contractKV(ctx, addr, inst)
	if err != nil {
		return "", err
	}
	snap, err := ctx.router.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	deps := vm.Deps{Storage: kv, Querier: querier{ctx: snap}}
	version, err := contract.IBCChannelOpen(deps, k.env(ctx, addr), msg)
	if err != nil {
		return "", err
	}
	return version, commit()
}

// IBCChannelConnect runs the channel-connect hook of a port contract.
func (k *WasmKeeper) IBCChannelConnect(ctx *Context, addr string, msg types.IBCChannelConnectMsg) (*types.AppResponse, error) {
	custom := types.NewEvent(EventTypeIBCChannelConnect).AddAttribute(AttributeKeyContractAddr, addr)
	return k.callIBCContract(ctx, addr, custom,
		func(c vm.IBCContract, deps vm.Deps, env types.Env) (*types.Response, error) {
			return c.IBCChannelConnect(deps, env, msg)
		})
}

// IBCChannelClose runs the channel-close hook of a port contract.
func (k *WasmKeeper) IBCChannelClose(ctx *Context, addr string, msg types.IBCChannelCloseMsg) (*types.AppResponse, error) {
	custom := types.NewEvent(EventTypeIBCChannelClose).AddAttribute(AttributeKeyContractAddr, addr)
	return k.callIBCContract(ctx, addr, custom,
		func(c vm.IBCContract, deps vm.Deps, env types.Env) (*types.Response, error) {
			return c.IBCChannelClose(deps, env, msg)
		})
}

// IBCPacketReceive runs the receive hook of a port contract and returns the
// acknowledgement it produced.
func (k *WasmKeeper) IBCPacketReceive(ctx *Context, addr string, msg types.IBCPacketReceiveMsg) ([]byte, *types.AppResponse, error) {
	inst, err := k.ContractData(ctx, addr)
	if err != nil {
		return nil, nil, err
	}
	contract, err := k.engine.IBCContract(inst.CodeID)
	if err != nil {
		return nil, nil, err
	}
	kv, commit, err := k.contractKV(ctx, addr, inst)
	if err != nil {
		return nil, nil, err
	}
	snap, err := ctx.router.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	deps := vm.Deps{Storage: kv, Querier: querier{ctx: snap}}
	recv, err := contract.IBCPacketReceive(deps, k.env(ctx, addr), msg)
	if err != nil {
		return nil, nil, err
	}
	if recv == nil {
		recv = &types.IBCReceiveResponse{}
	}

	custom := types.NewEvent(EventTypeIBCPacketReceive).AddAttribute(AttributeKeyContractAddr, addr)
	events, err := contractEvents(custom, addr, recv.Attributes, recv.Events)
	if err != nil {
		return nil, nil, err
	}
	if err := commit(); err != nil {
		return nil, nil, err
	}
	res, err := k.processResponse(ctx, addr, events, nil, recv.Messages)
	if err != nil {
		return nil, nil, err
	}
	return recv.Acknowledgement, res, nil
}

// IBCPacketAck runs the acknowledgement hook of a port contract.
func (k *WasmKeeper) IBCPacketAck(ctx *Context, addr string, msg types.IBCPacketAckMsg) (*types.AppResponse, error) {
	custom := types.NewEvent(EventTypeIBCPacketAck).AddAttribute(AttributeKeyContractAddr, addr)
	return k.callIBCContract(ctx, addr, custom,
		func(c vm.IBCContract, deps vm.Deps, env types.Env) (*types.Response, error) {
			return c.IBCPacketAck(deps, env, msg)
		})
}

// IBCPacketTimeout runs the timeout hook of a port contract.
func (k *WasmKeeper) IBCPacketTimeout(ctx *Context, addr string, msg types.IBCPacketTimeoutMsg) (*types.AppResponse, error) {
	custom := types.NewEvent(EventTypeIBCPacketTimeout).AddAttribute(AttributeKeyContractAddr, addr)
	return k.callIBCContract(ctx, addr, custom,
		func(c vm.IBCContract, deps vm.Deps, env types.Env) (*types.Response, error) {
			return c.IBCPacketTimeout(deps, env, msg)
		})
}

func (k *WasmKeeper) callIBCContract(ctx *Context, addr string, customEvent types.Event, call func(c vm.IBCContract, deps vm.Deps, env types.Env) (*types.Response, error)) (*types.AppResponse, error) {
	inst, err := k.ContractData(ctx, addr)
	if err != nil {
		return nil, err
	}
	contract, err := k.engine.IBCContract(inst.CodeID)
	if err != nil {
		return nil, err
	}
	return k.callContract(ctx, addr, customEvent,
		func(codeID uint64, deps vm.Deps, env types.Env) (*types.Response, error) {
			return call(contract, deps, env)
		})
}
