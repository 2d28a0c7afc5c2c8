package app

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"go.uber.org/zap"

	"github.com/cosmos/multitest/remote"
	"github.com/cosmos/multitest/store"
	"github.com/cosmos/multitest/types"
	"github.com/cosmos/multitest/vm"
)

var (
	wasmContractPrefix = store.Namespace([]byte("wasm"), []byte("contract"))
	wasmStoragePrefix  = store.Namespace([]byte("wasm"), []byte("contract-storage"))
	wasmRemovedPrefix  = store.Namespace([]byte("wasm"), []byte("contract-removed"))
)

// CodeOrigin says where a code id's implementation lives.
type CodeOrigin string

const (
	// OriginNative is a contract implemented in this process.
	OriginNative CodeOrigin = "native"
	// OriginRemote is a code id that exists on the forked remote chain. It
	// executes locally only when a native stand-in is registered for it.
	OriginRemote CodeOrigin = "remote"
)

// RemoteState is the remote chain surface the wasm keeper forks from.
type RemoteState interface {
	store.RemoteReader
	ContractInfo(contract string) (*remote.ContractInfo, error)
	Code(codeID uint64) (*remote.CodeInfoResponse, error)
}

type codeData struct {
	info   types.CodeInfo
	origin CodeOrigin
}

// WasmKeeper runs the contract lifecycle: storing code, instantiating,
// executing, migrating and querying contracts, plus the admin operations.
// With a remote state attached, contracts living on the remote chain can be
// adopted and executed locally against their live state.
type WasmKeeper struct {
	log    *zap.Logger
	engine *vm.Engine
	remote RemoteState

	// Code metadata lives in keeper memory, like the implementations
	// themselves. Storing code is not transactional.
	codes  map[uint64]codeData
	nextID uint64
}

// NewWasmKeeper returns a wasm keeper executing through engine. remoteState
// may be nil when no forking is wanted.
func NewWasmKeeper(log *zap.Logger, engine *vm.Engine, remoteState RemoteState) *WasmKeeper {
	return &WasmKeeper{
		log:    log,
		engine: engine,
		remote: remoteState,
		codes:  make(map[uint64]codeData),
		nextID: 1,
	}
}

// StoreCode registers a native contract implementation and returns its code
// id.
func (k *WasmKeeper) StoreCode(creator string, contract vm.Contract) uint64 {
	id := k.nextID
	k.nextID++
	k.engine.Register(id, contract)
	k.codes[id] = codeData{
		info: types.CodeInfo{
			CodeID:   id,
			Creator:  creator,
			Checksum: codeChecksum(creator, id),
		},
		origin: OriginNative,
	}
	return id
}

// RegisterRemoteCode binds a native stand-in to a code id that lives on the
// remote chain, so instances of that code can execute locally.
func (k *WasmKeeper) RegisterRemoteCode(codeID uint64, contract vm.Contract) error {
	if k.remote == nil {
		return fmt.Errorf("no remote chain configured")
	}
	info, err := k.remote.Code(codeID)
	if err != nil {
		return fmt.Errorf("remote code %d: %w", codeID, err)
	}
	k.engine.Register(codeID, contract)
	k.codes[codeID] = codeData{
		info: types.CodeInfo{
			CodeID:   codeID,
			Creator:  info.Creator,
			Checksum: info.DataHash,
		},
		origin: OriginRemote,
	}
	if codeID >= k.nextID {
		k.nextID = codeID + 1
	}
	return nil
}

// codeInfo resolves a code id locally, falling back to the remote chain.
func (k *WasmKeeper) codeInfo(codeID uint64) (codeData, error) {
	if codeID < 1 {
		return codeData{}, fmt.Errorf("invalid code id %d", codeID)
	}
	if cd, ok := k.codes[codeID]; ok {
		return cd, nil
	}
	if k.remote == nil {
		return codeData{}, fmt.Errorf("code %d: %w", codeID, types.ErrNotFound)
	}
	info, err := k.remote.Code(codeID)
	if err != nil {
		return codeData{}, fmt.Errorf("code %d: %w", codeID, types.ErrNotFound)
	}
	cd := codeData{
		info: types.CodeInfo{
			CodeID:   codeID,
			Creator:  info.Creator,
			Checksum: info.DataHash,
		},
		origin: OriginRemote,
	}
	k.codes[codeID] = cd
	return cd, nil
}

// ContractData loads an instance record, falling back to the remote chain.
// A remote instance comes back marked Forked.
func (k *WasmKeeper) ContractData(ctx *Context, addr string) (types.ContractInstance, error) {
	kv := store.NewPrefix(ctx.KV, wasmContractPrefix)
	raw, err := kv.Get([]byte(addr))
	if err != nil {
		return types.ContractInstance{}, err
	}
	if raw != nil {
		var inst types.ContractInstance
		if err := json.Unmarshal(raw, &inst); err != nil {
			return types.ContractInstance{}, fmt.Errorf("corrupt contract record %s: %w", addr, err)
		}
		return inst, nil
	}
	if k.remote != nil {
		info, err := k.remote.ContractInfo(addr)
		if err == nil {
			return types.ContractInstance{
				CodeID:  info.CodeID,
				Creator: info.Creator,
				Admin:   info.Admin,
				Label:   info.Label,
				Forked:  true,
			}, nil
		}
	}
	return types.ContractInstance{}, fmt.Errorf("contract %s: %w", addr, types.ErrNotFound)
}

func (k *WasmKeeper) saveContract(ctx *Context, addr string, inst types.ContractInstance) error {
	raw, err := json.Marshal(inst)
	if err != nil {
		return err
	}
	return store.NewPrefix(ctx.KV, wasmContractPrefix).Set([]byte(addr), raw)
}

func (k *WasmKeeper) hasContract(ctx *Context, addr string) bool {
	_, err := k.ContractData(ctx, addr)
	return err == nil
}

// instanceCount counts locally saved instances; it seeds the non-salted
// address generator.
func (k *WasmKeeper) instanceCount(ctx *Context) (uint64, error) {
	it, err := store.NewPrefix(ctx.KV, wasmContractPrefix).Iterate(nil, nil, store.Ascending)
	if err != nil {
		return 0, err
	}
	defer it.Close()
	var n uint64
	for ; it.Valid(); it.Next() {
		n++
	}
	return n, it.Error()
}

// HandleMsg executes a wasm message on behalf of sender.
func (k *WasmKeeper) HandleMsg(ctx *Context, sender string, msg types.WasmMsg) (*types.AppResponse, error) {
	switch {
	case msg.Execute != nil:
		return k.ExecuteContract(ctx, sender, msg.Execute.ContractAddr, msg.Execute.Msg, msg.Execute.Funds)
	case msg.Instantiate != nil:
		return k.InstantiateContract(ctx, sender, *msg.Instantiate)
	case msg.Migrate != nil:
		return k.MigrateContract(ctx, sender, msg.Migrate.ContractAddr, msg.Migrate.NewCodeID, msg.Migrate.Msg)
	case msg.UpdateAdmin != nil:
		return k.updateAdmin(ctx, sender, msg.UpdateAdmin.ContractAddr, msg.UpdateAdmin.Admin)
	case msg.ClearAdmin != nil:
		return k.updateAdmin(ctx, sender, msg.ClearAdmin.ContractAddr, "")
	}
	return nil, fmt.Errorf("wasm: %w", types.ErrUnsupported)
}

// HandleSudo runs a contract's sudo entry point.
func (k *WasmKeeper) HandleSudo(ctx *Context, msg types.WasmSudo) (*types.AppResponse, error) {
	if msg.ContractAddr == "" {
		return nil, fmt.Errorf("wasm sudo: %w", types.ErrUnsupported)
	}
	custom := types.NewEvent(EventTypeSudo).AddAttribute(AttributeKeyContractAddr, msg.ContractAddr)
	return k.callContract(ctx, msg.ContractAddr, custom,
		func(codeID uint64, deps vm.Deps, env types.Env) (*types.Response, error) {
			return k.engine.Sudo(codeID, deps, env, msg.Msg)
		})
}

// InstantiateContract creates a new instance of codeID and runs its
// instantiate entry point.
func (k *WasmKeeper) InstantiateContract(ctx *Context, sender string, msg types.WasmInstantiateMsg) (*types.AppResponse, error) {
	if msg.Label == "" {
		return nil, fmt.Errorf("label is required on all contracts")
	}

	var addr string
	if len(msg.Salt) > 0 {
		cd, err := k.codeInfo(msg.CodeID)
		if err != nil {
			return nil, err
		}
		addr = predictableContractAddress(cd.info.Checksum, sender, msg.Salt)
	} else {
		// The code id is deliberately not resolved here, so instances of
		// codes that only exist remotely can still be created.
		n, err := k.instanceCount(ctx)
		if err != nil {
			return nil, err
		}
		addr = contractAddress(n)
	}

	if k.hasContract(ctx, addr) {
		return nil, fmt.Errorf("%s: %w", addr, types.ErrDuplicateAddress)
	}
	inst := types.ContractInstance{
		CodeID:  msg.CodeID,
		Creator: sender,
		Admin:   msg.Admin,
		Label:   msg.Label,
		Created: ctx.Block.Height,
	}
	if err := k.saveContract(ctx, addr, inst); err != nil {
		return nil, err
	}

	if !msg.Funds.Empty() {
		if err := ctx.router.Bank.Send(ctx, sender, addr, msg.Funds); err != nil {
			return nil, err
		}
	}

	custom := types.NewEvent(EventTypeInstantiate).
		AddAttribute(AttributeKeyContractAddr, addr).
		AddAttribute(AttributeKeyCodeID, fmt.Sprintf("%d", msg.CodeID))
	res, err := k.callContract(ctx, addr, custom,
		func(codeID uint64, deps vm.Deps, env types.Env) (*types.Response, error) {
			return k.engine.Instantiate(codeID, deps, env, types.MessageInfo{Sender: sender, Funds: msg.Funds}, msg.Msg)
		})
	if err != nil {
		return nil, err
	}
	res.Data, err = instantiateResponse(res.Data, addr)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ExecuteContract runs a contract's execute entry point, moving any attached
// funds to the contract first.
func (k *WasmKeeper) ExecuteContract(ctx *Context, sender, addr string, msg []byte, funds sdk.Coins) (*types.AppResponse, error) {
	if !funds.Empty() {
		if err := ctx.router.Bank.Send(ctx, sender, addr, funds); err != nil {
			return nil, err
		}
	}
	custom := types.NewEvent(EventTypeExecute).AddAttribute(AttributeKeyContractAddr, addr)
	res, err := k.callContract(ctx, addr, custom,
		func(codeID uint64, deps vm.Deps, env types.Env) (*types.Response, error) {
			return k.engine.Execute(codeID, deps, env, types.MessageInfo{Sender: sender, Funds: funds}, msg)
		})
	if err != nil {
		return nil, fmt.Errorf("execute of %s by %s: %w", addr, sender, err)
	}
	res.Data, err = executeResponse(res.Data)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// MigrateContract points an instance at a new code id and runs its migrate
// entry point. The new code id is not resolved beforehand, so migrating to a
// remote code id works; the call itself fails if no implementation exists.
func (k *WasmKeeper) MigrateContract(ctx *Context, sender, addr string, newCodeID uint64, msg []byte) (*types.AppResponse, error) {
	inst, err := k.ContractData(ctx, addr)
	if err != nil {
		return nil, err
	}
	if inst.Admin == "" || inst.Admin != sender {
		return nil, fmt.Errorf("only admin %q can migrate contract: %w", inst.Admin, types.ErrUnauthorized)
	}
	inst.CodeID = newCodeID
	if err := k.saveContract(ctx, addr, inst); err != nil {
		return nil, err
	}

	custom := types.NewEvent(EventTypeMigrate).
		AddAttribute(AttributeKeyContractAddr, addr).
		AddAttribute(AttributeKeyCodeID, fmt.Sprintf("%d", newCodeID))
	res, err := k.callContract(ctx, addr, custom,
		func(codeID uint64, deps vm.Deps, env types.Env) (*types.Response, error) {
			return k.engine.Migrate(codeID, deps, env, msg)
		})
	if err != nil {
		return nil, err
	}
	res.Data, err = executeResponse(res.Data)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// updateAdmin sets or clears the instance admin. No event is emitted.
func (k *WasmKeeper) updateAdmin(ctx *Context, sender, addr, newAdmin string) (*types.AppResponse, error) {
	inst, err := k.ContractData(ctx, addr)
	if err != nil {
		return nil, err
	}
	if inst.Admin == "" || inst.Admin != sender {
		return nil, fmt.Errorf("only admin %q can update the contract admin: %w", inst.Admin, types.ErrUnauthorized)
	}
	inst.Admin = newAdmin
	if err := k.saveContract(ctx, addr, inst); err != nil {
		return nil, err
	}
	return &types.AppResponse{}, nil
}

// HandleQuery answers a wasm query.
func (k *WasmKeeper) HandleQuery(ctx *Context, q types.WasmQuery) ([]byte, error) {
	switch {
	case q.Smart != nil:
		return k.QuerySmart(ctx, q.Smart.ContractAddr, q.Smart.Msg)

	case q.Raw != nil:
		return k.QueryRaw(ctx, q.Raw.ContractAddr, q.Raw.Key)

	case q.ContractInfo != nil:
		inst, err := k.ContractData(ctx, q.ContractInfo.ContractAddr)
		if err != nil {
			return nil, err
		}
		return json.Marshal(types.ContractInfoResponse{
			CodeID:  inst.CodeID,
			Creator: inst.Creator,
			Admin:   inst.Admin,
		})

	case q.CodeInfo != nil:
		cd, err := k.codeInfo(q.CodeInfo.CodeID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(types.CodeInfoResponse{
			CodeID:   cd.info.CodeID,
			Creator:  cd.info.Creator,
			Checksum: cd.info.Checksum,
		})
	}
	return nil, fmt.Errorf("wasm query: %w", types.ErrUnsupported)
}

// QuerySmart runs a contract's query entry point.
func (k *WasmKeeper) QuerySmart(ctx *Context, addr string, msg []byte) ([]byte, error) {
	inst, err := k.ContractData(ctx, addr)
	if err != nil {
		return nil, err
	}
	kv, _, err := k.contractKV(ctx, addr, inst)
	if err != nil {
		return nil, err
	}
	snap, err := ctx.router.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	deps := vm.Deps{Storage: kv, Querier: querier{ctx: snap}}
	return k.engine.Query(inst.CodeID, deps, k.env(ctx, addr), msg)
}

// QueryRaw reads one key of a contract's storage.
func (k *WasmKeeper) QueryRaw(ctx *Context, addr string, key []byte) ([]byte, error) {
	inst, err := k.ContractData(ctx, addr)
	if err != nil {
		return nil, err
	}
	kv, _, err := k.contractKV(ctx, addr, inst)
	if err != nil {
		return nil, err
	}
	return kv.Get(key)
}

// DumpContractState returns every record of a contract's local storage view.
func (k *WasmKeeper) DumpContractState(ctx *Context, addr string) ([]store.Record, error) {
	it, err := store.NewPrefix(ctx.KV, contractStorageNS(addr)).Iterate(nil, nil, store.Ascending)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var records []store.Record
	for ; it.Valid(); it.Next() {
		records = append(records, store.Record{Key: it.Key(), Value: it.Value()})
	}
	return records, it.Error()
}

func (k *WasmKeeper) env(ctx *Context, addr string) types.Env {
	return types.Env{
		Block:       ctx.Block,
		Contract:    addr,
		Transaction: &types.TransactionInfo{Index: 0},
	}
}

func contractStorageNS(addr string) []byte {
	return store.Namespace(wasmStoragePrefix, []byte(addr))
}

func contractRemovedNS(addr string) []byte {
	return store.Namespace(wasmRemovedPrefix, []byte(addr))
}

// contractKV returns the storage view of one contract and a commit func to
// run after a successful mutating call. A plain instance writes straight
// through the transaction; a forked instance runs on a dual store that is
// exported back on commit.
func (k *WasmKeeper) contractKV(ctx *Context, addr string, inst types.ContractInstance) (store.KV, func() error, error) {
	if !inst.Forked {
		return store.NewPrefix(ctx.KV, contractStorageNS(addr)), func() error { return nil }, nil
	}
	if k.remote == nil {
		return nil, nil, fmt.Errorf("contract %s is forked but no remote chain is configured", addr)
	}

	overlay := store.NewPrefix(ctx.KV, contractStorageNS(addr))
	records, err := collectRecords(overlay)
	if err != nil {
		return nil, nil, err
	}
	dual := store.NewDual(k.remote, addr, records)

	removedKV := store.NewPrefix(ctx.KV, contractRemovedNS(addr))
	removed, err := collectRecords(removedKV)
	if err != nil {
		return nil, nil, err
	}
	for _, r := range removed {
		if err := dual.Delete(r.Key); err != nil {
			return nil, nil, err
		}
	}

	commit := func() error {
		exported, err := dual.ExportState()
		if err != nil {
			return err
		}
		if err := clearPrefix(overlay); err != nil {
			return err
		}
		if err := clearPrefix(removedKV); err != nil {
			return err
		}
		for _, r := range exported {
			if err := overlay.Set(r.Key, r.Value); err != nil {
				return err
			}
		}
		for _, key := range dual.RemovedKeys() {
			if err := removedKV.Set(key, []byte{1}); err != nil {
				return err
			}
		}
		return nil
	}
	return dual, commit, nil
}

func collectRecords(kv store.KV) ([]store.Record, error) {
	it, err := kv.Iterate(nil, nil, store.Ascending)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var records []store.Record
	for ; it.Valid(); it.Next() {
		records = append(records, store.Record{Key: it.Key(), Value: it.Value()})
	}
	return records, it.Error()
}

func clearPrefix(kv store.KV) error {
	records, err := collectRecords(kv)
	if err != nil {
		return err
	}
	for _, r := range records {
		if err := kv.Delete(r.Key); err != nil {
			return err
		}
	}
	return nil
}

func codeChecksum(creator string, codeID uint64) []byte {
	h := sha256.New()
	h.Write([]byte(creator))
	var id [8]byte
	binary.BigEndian.PutUint64(id[:], codeID)
	h.Write(id[:])
	return h.Sum(nil)
}
