package vm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cosmos/multitest/types"
)

// DefaultGasLimit is the per-call gas ceiling reported alongside calls. Gas
// is accounted for observability, not metered against execution.
const DefaultGasLimit uint64 = 500_000_000_000_000

// Engine dispatches calls to registered contract code. Code ids map to
// in-process Contract implementations.
type Engine struct {
	log   *zap.Logger
	codes map[uint64]Contract
}

// NewEngine returns an empty engine logging through log.
func NewEngine(log *zap.Logger) *Engine {
	return &Engine{
		log:   log,
		codes: make(map[uint64]Contract),
	}
}

// Register binds a contract implementation to a code id, replacing any
// previous binding.
func (e *Engine) Register(codeID uint64, c Contract) {
	e.codes[codeID] = c
}

// Contract returns the implementation bound to codeID.
func (e *Engine) Contract(codeID uint64) (Contract, error) {
	c, ok := e.codes[codeID]
	if !ok {
		return nil, fmt.Errorf("code id %d: %w", codeID, types.ErrNotFound)
	}
	return c, nil
}

// IBCContract returns the implementation bound to codeID if it implements
// the IBC hooks.
func (e *Engine) IBCContract(codeID uint64) (IBCContract, error) {
	c, err := e.Contract(codeID)
	if err != nil {
		return nil, err
	}
	ibc, ok := c.(IBCContract)
	if !ok {
		return nil, fmt.Errorf("code id %d has no IBC entry points: %w", codeID, types.ErrUnsupported)
	}
	return ibc, nil
}

// Instantiate runs the instantiate entry point of codeID.
func (e *Engine) Instantiate(codeID uint64, deps Deps, env types.Env, info types.MessageInfo, msg []byte) (*types.Response, error) {
	c, err := e.Contract(codeID)
	if err != nil {
		return nil, err
	}
	e.logCall("instantiate", codeID, env)
	return c.Instantiate(deps, env, info, msg)
}

// Execute runs the execute entry point of codeID.
func (e *Engine) Execute(codeID uint64, deps Deps, env types.Env, info types.MessageInfo, msg []byte) (*types.Response, error) {
	c, err := e.Contract(codeID)
	if err != nil {
		return nil, err
	}
	e.logCall("execute", codeID, env)
	return c.Execute(deps, env, info, msg)
}

// Query runs the query entry point of codeID.
func (e *Engine) Query(codeID uint64, deps Deps, env types.Env, msg []byte) ([]byte, error) {
	c, err := e.Contract(codeID)
	if err != nil {
		return nil, err
	}
	return c.Query(deps, env, msg)
}

// Sudo runs the sudo entry point of codeID.
func (e *Engine) Sudo(codeID uint64, deps Deps, env types.Env, msg []byte) (*types.Response, error) {
	c, err := e.Contract(codeID)
	if err != nil {
		return nil, err
	}
	e.logCall("sudo", codeID, env)
	return c.Sudo(deps, env, msg)
}

// Reply runs the reply entry point of codeID.
func (e *Engine) Reply(codeID uint64, deps Deps, env types.Env, reply types.Reply) (*types.Response, error) {
	c, err := e.Contract(codeID)
	if err != nil {
		return nil, err
	}
	e.logCall("reply", codeID, env)
	return c.Reply(deps, env, reply)
}

// Migrate runs the migrate entry point of codeID.
func (e *Engine) Migrate(codeID uint64, deps Deps, env types.Env, msg []byte) (*types.Response, error) {
	c, err := e.Contract(codeID)
	if err != nil {
		return nil, err
	}
	e.logCall("migrate", codeID, env)
	return c.Migrate(deps, env, msg)
}

func (e *Engine) logCall(entry string, codeID uint64, env types.Env) {
	e.log.Debug("Contract call",
		zap.String("entry_point", entry),
		zap.Uint64("code_id", codeID),
		zap.String("contract", env.Contract),
		zap.Uint64("height", env.Block.Height),
		zap.Uint64("gas_limit", DefaultGasLimit),
	)
}
