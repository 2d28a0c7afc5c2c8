package app

import (
	"fmt"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"go.uber.org/zap"

	"github.com/cosmos/multitest/store"
	"github.com/cosmos/multitest/types"
	"github.com/cosmos/multitest/vm"
)

// DefaultBlockTime is the spacing between simulated blocks.
const DefaultBlockTime = 5 * time.Second

// App is one simulated chain: a chain identity, a block clock, a
// transactional state tree and the module router. Every Execute and Sudo
// runs as one atomic transaction against the state tree.
type App struct {
	log     *zap.Logger
	chainID string
	height  uint64
	time    time.Time

	state  *store.MemStore
	router *Router
	engine *vm.Engine
	wasm   *WasmKeeper
}

// Option tweaks app construction.
type Option func(*options)

type options struct {
	remote   RemoteState
	stargate StargateHandler
	height   uint64
	time     time.Time
}

// WithRemote attaches a remote chain to fork contract state from.
func WithRemote(remote RemoteState) Option {
	return func(o *options) { o.remote = remote }
}

// WithStargate replaces the default rejecting stargate handler.
func WithStargate(h StargateHandler) Option {
	return func(o *options) { o.stargate = h }
}

// WithInitialHeight sets the starting block height.
func WithInitialHeight(height uint64) Option {
	return func(o *options) { o.height = height }
}

// WithBlockTime sets the starting block time.
func WithBlockTime(t time.Time) Option {
	return func(o *options) { o.time = t }
}

// NewApp builds a chain with empty state.
func NewApp(log *zap.Logger, chainID string, opts ...Option) *App {
	o := options{
		stargate: FailingStargate{},
		height:   1,
		time:     time.Unix(1_600_000_000, 0).UTC(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	engine := vm.NewEngine(log)
	bank := NewBankKeeper()
	wasm := NewWasmKeeper(log, engine, o.remote)
	router := &Router{
		Bank:         bank,
		Wasm:         wasm,
		Staking:      NewStakingKeeper(bank),
		Distribution: NewDistributionKeeper(),
		Gov:          NewGovKeeper(),
		IBC:          NewIBCKeeper(log),
		Stargate:     o.stargate,
	}

	return &App{
		log:     log.With(zap.String("chain_id", chainID)),
		chainID: chainID,
		height:  o.height,
		time:    o.time,
		state:   store.NewMemStore(),
		router:  router,
		engine:  engine,
		wasm:    wasm,
	}
}

// ChainID returns the chain identity.
func (a *App) ChainID() string { return a.chainID }

// BlockInfo returns the current simulated block.
func (a *App) BlockInfo() types.BlockInfo {
	return types.BlockInfo{Height: a.height, Time: a.time, ChainID: a.chainID}
}

// AdvanceBlock moves the chain one block forward.
func (a *App) AdvanceBlock() {
	a.height++
	a.time = a.time.Add(DefaultBlockTime)
}

// AdvanceTo fast-forwards the chain to the given height.
func (a *App) AdvanceTo(height uint64) {
	for a.height < height {
		a.AdvanceBlock()
	}
}

func (a *App) context(kv store.KV) *Context {
	return &Context{
		KV:     kv,
		Block:  a.BlockInfo(),
		Log:    a.log,
		router: a.router,
	}
}

// Execute runs one message as an atomic transaction. On error no state
// change survives.
func (a *App) Execute(sender string, msg types.Msg) (*types.AppResponse, error) {
	var res *types.AppResponse
	err := store.Transactional(a.state, func(kv store.KV) error {
		var inner error
		res, inner = a.router.Execute(a.context(kv), sender, msg)
		return inner
	})
	if err != nil {
		a.log.Debug("Transaction failed",
			zap.String("sender", sender),
			zap.String("route", msg.Route()),
			zap.Error(err),
		)
		return nil, err
	}
	return res, nil
}

// Sudo runs one privileged message as an atomic transaction.
func (a *App) Sudo(msg types.SudoMsg) (*types.AppResponse, error) {
	var res *types.AppResponse
	err := store.Transactional(a.state, func(kv store.KV) error {
		var inner error
		res, inner = a.router.Sudo(a.context(kv), msg)
		return inner
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Relay runs one relay operation, the sudo surface the relay package
// drives.
func (a *App) Relay(msg types.IBCRelayMsg) (*types.AppResponse, error) {
	return a.Sudo(types.SudoMsg{IBC: &msg})
}

// Query answers a read-only query against committed state.
func (a *App) Query(req types.QueryRequest) ([]byte, error) {
	return a.router.Query(a.context(a.state), req)
}

// StoreCode registers a native contract implementation and returns its code
// id.
func (a *App) StoreCode(creator string, contract vm.Contract) uint64 {
	return a.wasm.StoreCode(creator, contract)
}

// RegisterRemoteCode binds a native stand-in to a remote code id.
func (a *App) RegisterRemoteCode(codeID uint64, contract vm.Contract) error {
	return a.wasm.RegisterRemoteCode(codeID, contract)
}

// InstantiateContract creates an instance and returns its address.
func (a *App) InstantiateContract(sender string, msg types.WasmInstantiateMsg) (string, error) {
	res, err := a.Execute(sender, types.Msg{Wasm: &types.WasmMsg{Instantiate: &msg}})
	if err != nil {
		return "", err
	}
	for _, ev := range res.Events {
		if ev.Type == EventTypeInstantiate {
			if addr, ok := ev.Attribute(AttributeKeyContractAddr); ok {
				return addr, nil
			}
		}
	}
	return "", fmt.Errorf("no contract address in instantiate response")
}

// ExecuteContract runs a contract with funds attached.
func (a *App) ExecuteContract(sender, contractAddr string, msg []byte, funds sdk.Coins) (*types.AppResponse, error) {
	return a.Execute(sender, types.Msg{Wasm: &types.WasmMsg{Execute: &types.WasmExecuteMsg{
		ContractAddr: contractAddr,
		Msg:          msg,
		Funds:        funds,
	}}})
}

// QuerySmart runs a contract query and returns its raw response.
func (a *App) QuerySmart(contractAddr string, msg []byte) ([]byte, error) {
	return a.Query(types.QueryRequest{Wasm: &types.WasmQuery{Smart: &types.WasmSmartQuery{
		ContractAddr: contractAddr,
		Msg:          msg,
	}}})
}

// InitBalance seeds an address balance outside any transaction flow.
func (a *App) InitBalance(addr string, coins sdk.Coins) error {
	return store.Transactional(a.state, func(kv store.KV) error {
		return a.router.Bank.InitBalance(a.context(kv), addr, coins)
	})
}

// Balance reads an address balance from committed state.
func (a *App) Balance(addr string) (sdk.Coins, error) {
	return a.router.Bank.Balance(a.context(a.state), addr)
}

// DumpContractState exports a contract's locally held storage records.
func (a *App) DumpContractState(contractAddr string) ([]store.Record, error) {
	return a.wasm.DumpContractState(a.context(a.state), contractAddr)
}
