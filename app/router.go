package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cosmos/multitest/store"
	"github.com/cosmos/multitest/types"
)

// Context is the per-transaction execution state handed through the router:
// the transaction's storage overlay and the block it executes in. Everything
// a keeper writes through ctx.KV is committed or discarded as one unit by
// the enclosing transaction.
type Context struct {
	KV    store.KV
	Block types.BlockInfo
	Log   *zap.Logger

	router *Router
}

// Router returns the module router of the enclosing app.
func (c *Context) Router() *Router { return c.router }

// nested returns a context running over kv, for submessage transactions.
func (c *Context) nested(kv store.KV) *Context {
	return &Context{KV: kv, Block: c.Block, Log: c.Log, router: c.router}
}

// Router dispatches messages, queries and sudo calls to module keepers by
// the route of the message.
type Router struct {
	Bank         *BankKeeper
	Wasm         *WasmKeeper
	Staking      *StakingKeeper
	Distribution *DistributionKeeper
	Gov          *GovKeeper
	IBC          *IBCKeeper
	Stargate     StargateHandler
}

// Execute routes one message on behalf of sender.
func (r *Router) Execute(ctx *Context, sender string, msg types.Msg) (*types.AppResponse, error) {
	switch {
	case msg.Bank != nil:
		return r.Bank.HandleMsg(ctx, sender, *msg.Bank)
	case msg.Wasm != nil:
		return r.Wasm.HandleMsg(ctx, sender, *msg.Wasm)
	case msg.Staking != nil:
		return r.Staking.HandleMsg(ctx, sender, *msg.Staking)
	case msg.Distribution != nil:
		return r.Distribution.HandleMsg(ctx, sender, *msg.Distribution)
	case msg.Gov != nil:
		return r.Gov.HandleMsg(ctx, sender, *msg.Gov)
	case msg.IBC != nil:
		return r.IBC.HandleMsg(ctx, sender, *msg.IBC)
	case msg.Stargate != nil:
		return r.Stargate.HandleMsg(ctx, sender, *msg.Stargate)
	}
	return nil, fmt.Errorf("message has no route: %w", types.ErrUnsupported)
}

// Query routes one read-only query.
func (r *Router) Query(ctx *Context, req types.QueryRequest) ([]byte, error) {
	switch {
	case req.Bank != nil:
		return r.Bank.HandleQuery(ctx, *req.Bank)
	case req.Wasm != nil:
		return r.Wasm.HandleQuery(ctx, *req.Wasm)
	case req.IBC != nil:
		return r.IBC.HandleQuery(ctx, *req.IBC)
	}
	return nil, fmt.Errorf("query has no route: %w", types.ErrUnsupported)
}

// Sudo routes one privileged message. No sender check applies.
func (r *Router) Sudo(ctx *Context, msg types.SudoMsg) (*types.AppResponse, error) {
	switch {
	case msg.Bank != nil:
		return r.Bank.HandleSudo(ctx, *msg.Bank)
	case msg.Wasm != nil:
		return r.Wasm.HandleSudo(ctx, *msg.Wasm)
	case msg.IBC != nil:
		return r.IBC.HandleRelay(ctx, *msg.IBC)
	}
	return nil, fmt.Errorf("sudo message has no route: %w", types.ErrUnsupported)
}

// Snapshot copies the state visible through ctx into a read-only context.
// Contract queries run over a snapshot taken at entry-point start, so their
// results stay stable while submessage recursion mutates the live
// transaction underneath.
func (r *Router) Snapshot(ctx *Context) (*Context, error) {
	snap := store.NewMemStore()
	it, err := ctx.KV.Iterate(nil, nil, store.Ascending)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	for ; it.Valid(); it.Next() {
		if err := snap.Set(it.Key(), it.Value()); err != nil {
			return nil, err
		}
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	return &Context{KV: readOnlyKV{snap}, Block: ctx.Block, Log: ctx.Log, router: r}, nil
}

// readOnlyKV rejects writes through a snapshot context.
type readOnlyKV struct {
	*store.MemStore
}

func (readOnlyKV) Set([]byte, []byte) error { return fmt.Errorf("state snapshot is read-only") }

func (readOnlyKV) Delete([]byte) error { return fmt.Errorf("state snapshot is read-only") }

// querier adapts the router to the contract-facing query interface over one
// context.
type querier struct {
	ctx *Context
}

func (q querier) Query(req types.QueryRequest) ([]byte, error) {
	return q.ctx.router.Query(q.ctx, req)
}

// StargateHandler handles opaque protobuf messages. The default rejects
// them; an accepting handler records them as events instead.
type StargateHandler interface {
	HandleMsg(ctx *Context, sender string, msg types.StargateMsg) (*types.AppResponse, error)
}
