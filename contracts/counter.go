// Package contracts holds small native contracts used to exercise the
// execution harness: a counter with persistent state, an echo contract that
// returns whatever response it is told to, and an IBC-aware variant that
// records the packets flowing through its channels.
package contracts

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cosmos/multitest/store"
	"github.com/cosmos/multitest/types"
	"github.com/cosmos/multitest/vm"
)

var counterKey = []byte("count")

// CounterInit seeds the counter.
type CounterInit struct {
	Count uint64 `json:"count"`
}

// CounterExec is the counter's execute message. Exactly one branch is set.
// SetAndFail writes the count and then errors, for rollback checks.
// IncrementAndObserve increments, then reads the count back through the
// querier and reports what it saw in an "observed" attribute.
type CounterExec struct {
	Increment           *struct{}   `json:"increment,omitempty"`
	Set                 *CounterSet `json:"set,omitempty"`
	Fail                *struct{}   `json:"fail,omitempty"`
	SetAndFail          *CounterSet `json:"set_and_fail,omitempty"`
	IncrementAndObserve *struct{}   `json:"increment_and_observe,omitempty"`
}

type CounterSet struct {
	Count uint64 `json:"count"`
}

// CounterQuery reads the counter.
type CounterQuery struct {
	Count *struct{} `json:"count,omitempty"`
}

type CounterCountResponse struct {
	Count uint64 `json:"count"`
}

// Counter is a contract holding a single persistent counter. Its migrate
// entry point resets the counter from the migrate message.
type Counter struct{}

var _ vm.Contract = Counter{}

func (Counter) Instantiate(deps vm.Deps, _ types.Env, _ types.MessageInfo, msg []byte) (*types.Response, error) {
	var init CounterInit
	if err := json.Unmarshal(msg, &init); err != nil {
		return nil, err
	}
	if err := writeCount(deps.Storage, init.Count); err != nil {
		return nil, err
	}
	res := &types.Response{}
	res.AddAttribute("action", "init")
	return res, nil
}

func (Counter) Execute(deps vm.Deps, env types.Env, _ types.MessageInfo, msg []byte) (*types.Response, error) {
	var exec CounterExec
	if err := json.Unmarshal(msg, &exec); err != nil {
		return nil, err
	}
	switch {
	case exec.Increment != nil:
		count, err := readCount(deps.Storage)
		if err != nil {
			return nil, err
		}
		if err := writeCount(deps.Storage, count+1); err != nil {
			return nil, err
		}
		res := &types.Response{}
		res.AddAttribute("action", "increment")
		return res, nil

	case exec.Set != nil:
		if err := writeCount(deps.Storage, exec.Set.Count); err != nil {
			return nil, err
		}
		res := &types.Response{}
		res.AddAttribute("action", "set")
		return res, nil

	case exec.Fail != nil:
		return nil, errors.New("counter: intentional failure")

	case exec.SetAndFail != nil:
		if err := writeCount(deps.Storage, exec.SetAndFail.Count); err != nil {
			return nil, err
		}
		return nil, errors.New("counter: failing after write")

	case exec.IncrementAndObserve != nil:
		count, err := readCount(deps.Storage)
		if err != nil {
			return nil, err
		}
		if err := writeCount(deps.Storage, count+1); err != nil {
			return nil, err
		}
		queryMsg, err := json.Marshal(CounterQuery{Count: &struct{}{}})
		if err != nil {
			return nil, err
		}
		raw, err := deps.Querier.Query(types.QueryRequest{Wasm: &types.WasmQuery{Smart: &types.WasmSmartQuery{
			ContractAddr: env.Contract,
			Msg:          queryMsg,
		}}})
		if err != nil {
			return nil, err
		}
		var observed CounterCountResponse
		if err := json.Unmarshal(raw, &observed); err != nil {
			return nil, err
		}
		res := &types.Response{}
		res.AddAttribute("action", "increment_and_observe")
		res.AddAttribute("observed", fmt.Sprintf("%d", observed.Count))
		return res, nil
	}
	return nil, fmt.Errorf("counter: unknown execute message")
}

func (Counter) Query(deps vm.Deps, _ types.Env, msg []byte) ([]byte, error) {
	var q CounterQuery
	if err := json.Unmarshal(msg, &q); err != nil {
		return nil, err
	}
	if q.Count == nil {
		return nil, fmt.Errorf("counter: unknown query")
	}
	count, err := readCount(deps.Storage)
	if err != nil {
		return nil, err
	}
	return json.Marshal(CounterCountResponse{Count: count})
}

func (Counter) Sudo(deps vm.Deps, env types.Env, msg []byte) (*types.Response, error) {
	return Counter{}.Execute(deps, env, types.MessageInfo{}, msg)
}

func (Counter) Reply(vm.Deps, types.Env, types.Reply) (*types.Response, error) {
	return nil, errors.New("counter: no reply handling")
}

func (Counter) Migrate(deps vm.Deps, _ types.Env, msg []byte) (*types.Response, error) {
	var init CounterInit
	if err := json.Unmarshal(msg, &init); err != nil {
		return nil, err
	}
	if err := writeCount(deps.Storage, init.Count); err != nil {
		return nil, err
	}
	res := &types.Response{}
	res.AddAttribute("action", "migrate")
	return res, nil
}

func readCount(kv store.KV) (uint64, error) {
	raw, err := kv.Get(counterKey)
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return 0, nil
	}
	return binary.BigEndian.Uint64(raw), nil
}

func writeCount(kv store.KV, count uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], count)
	return kv.Set(counterKey, buf[:])
}
