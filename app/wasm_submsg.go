package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cosmos/multitest/store"
	"github.com/cosmos/multitest/types"
	"github.com/cosmos/multitest/vm"
)

// callContract runs one entry point against the contract's storage view,
// validates and rewrites the response events, commits forked storage, and
// recurses into the response's submessages.
func (k *WasmKeeper) callContract(ctx *Context, addr string, customEvent types.Event, call func(codeID uint64, deps vm.Deps, env types.Env) (*types.Response, error)) (*types.AppResponse, error) {
	inst, err := k.ContractData(ctx, addr)
	if err != nil {
		return nil, err
	}
	kv, commit, err := k.contractKV(ctx, addr, inst)
	if err != nil {
		return nil, err
	}
	snap, err := ctx.router.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	deps := vm.Deps{Storage: kv, Querier: querier{ctx: snap}}
	res, err := call(inst.CodeID, deps, k.env(ctx, addr))
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = &types.Response{}
	}

	events, err := contractEvents(customEvent, addr, res.Attributes, res.Events)
	if err != nil {
		return nil, err
	}
	if err := commit(); err != nil {
		return nil, err
	}
	return k.processResponse(ctx, addr, events, res.Data, res.Messages)
}

// processResponse executes the submessages of a response in order, folding
// their events into the parent. Data returned from a reply overrides the
// parent data.
func (k *WasmKeeper) processResponse(ctx *Context, addr string, events []types.Event, data []byte, msgs []types.SubMsg) (*types.AppResponse, error) {
	for _, sub := range msgs {
		subRes, err := k.executeSubMsg(ctx, addr, sub)
		if err != nil {
			return nil, err
		}
		events = append(events, subRes.Events...)
		if subRes.Data != nil {
			data = subRes.Data
		}
	}
	return &types.AppResponse{Events: events, Data: data}, nil
}

// executeSubMsg runs one submessage in its own nested transaction and
// dispatches the reply its policy asks for. A failure without an error
// reply aborts the caller; a failure with one rolls back only the
// submessage's own writes.
//
// Data of a successful submessage only survives through a reply.
func (k *WasmKeeper) executeSubMsg(ctx *Context, addr string, sub types.SubMsg) (*types.AppResponse, error) {
	var res *types.AppResponse
	err := store.Transactional(ctx.KV, func(kv store.KV) error {
		var inner error
		res, inner = ctx.router.Execute(ctx.nested(kv), addr, sub.Msg)
		return inner
	})

	if err == nil {
		if sub.ReplyOn == types.ReplySuccess || sub.ReplyOn == types.ReplyAlways {
			reply := types.Reply{
				ID:      sub.ID,
				Payload: sub.Payload,
				Result: types.SubMsgResult{Ok: &types.SubMsgResponse{
					Events: res.Events,
					Data:   res.Data,
				}},
			}
			replyRes, err := k.replyTo(ctx, addr, reply)
			if err != nil {
				return nil, err
			}
			res.Data = replyRes.Data
			res.Events = append(res.Events, replyRes.Events...)
		} else {
			res.Data = nil
		}
		return res, nil
	}

	if sub.ReplyOn == types.ReplyError || sub.ReplyOn == types.ReplyAlways {
		k.log.Debug("Submessage failed, dispatching error reply",
			zap.String("contract", addr),
			zap.Uint64("reply_id", sub.ID),
			zap.Error(err),
		)
		reply := types.Reply{
			ID:      sub.ID,
			Payload: sub.Payload,
			Result:  types.SubMsgResult{Err: err.Error()},
		}
		return k.replyTo(ctx, addr, reply)
	}
	return nil, err
}

// replyTo runs the reply entry point of the contract that emitted a
// submessage.
func (k *WasmKeeper) replyTo(ctx *Context, addr string, reply types.Reply) (*types.AppResponse, error) {
	mode := "handle_success"
	if reply.Result.Ok == nil {
		mode = "handle_failure"
	}
	custom := types.NewEvent(EventTypeReply).
		AddAttribute(AttributeKeyContractAddr, addr).
		AddAttribute("mode", mode)
	res, err := k.callContract(ctx, addr, custom,
		func(codeID uint64, deps vm.Deps, env types.Env) (*types.Response, error) {
			return k.engine.Reply(codeID, deps, env, reply)
		})
	if err != nil {
		return nil, fmt.Errorf("reply %d to %s: %w", reply.ID, addr, err)
	}
	return res, nil
}
