package contracts

import (
	"encoding/json"
	"errors"

	"github.com/cosmos/multitest/types"
	"github.com/cosmos/multitest/vm"
)

// EchoMsg drives the echo contract: it returns exactly the response pieces
// the message carries, or fails with Error when set. The same shape works
// for instantiate, execute and sudo.
type EchoMsg struct {
	Data       []byte            `json:"data,omitempty"`
	Attributes []types.Attribute `json:"attributes,omitempty"`
	Events     []types.Event     `json:"events,omitempty"`
	Messages   []types.SubMsg    `json:"messages,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Echo is a contract with no state of its own: every call reflects its
// message back as the response. Replies forward the submessage's data, which
// makes it useful for probing the reply and data-propagation rules.
type Echo struct{}

var _ vm.Contract = Echo{}

func (Echo) Instantiate(deps vm.Deps, env types.Env, _ types.MessageInfo, msg []byte) (*types.Response, error) {
	return echoResponse(msg)
}

func (Echo) Execute(deps vm.Deps, env types.Env, _ types.MessageInfo, msg []byte) (*types.Response, error) {
	return echoResponse(msg)
}

// Query echoes the raw query message back.
func (Echo) Query(_ vm.Deps, _ types.Env, msg []byte) ([]byte, error) {
	return msg, nil
}

func (Echo) Sudo(deps vm.Deps, env types.Env, msg []byte) (*types.Response, error) {
	return echoResponse(msg)
}

// Reply forwards a successful submessage's data and swallows failures, so a
// caller can observe error-reply recovery.
func (Echo) Reply(_ vm.Deps, _ types.Env, reply types.Reply) (*types.Response, error) {
	res := &types.Response{}
	if reply.Result.Ok != nil {
		res.Data = reply.Result.Ok.Data
	}
	return res, nil
}

func (Echo) Migrate(deps vm.Deps, env types.Env, msg []byte) (*types.Response, error) {
	return echoResponse(msg)
}

func echoResponse(msg []byte) (*types.Response, error) {
	var echo EchoMsg
	if len(msg) > 0 {
		if err := json.Unmarshal(msg, &echo); err != nil {
			return nil, err
		}
	}
	if echo.Error != "" {
		return nil, errors.New(echo.Error)
	}
	return &types.Response{
		Attributes: echo.Attributes,
		Events:     echo.Events,
		Messages:   echo.Messages,
		Data:       echo.Data,
	}, nil
}
