package app_test

import (
	"encoding/json"
	"testing"

	"github.com/gogo/protobuf/proto"
	"github.com/stretchr/testify/require"

	"github.com/cosmos/multitest/app"
	"github.com/cosmos/multitest/contracts"
	"github.com/cosmos/multitest/types"
)

func echoJSON(t *testing.T, msg contracts.EchoMsg) []byte {
	t.Helper()
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	return raw
}

func instantiateEcho(t *testing.T, a *app.App) string {
	t.Helper()
	codeID := a.StoreCode("creator", contracts.Echo{})
	addr, err := a.InstantiateContract("creator", types.WasmInstantiateMsg{
		CodeID: codeID,
		Msg:    echoJSON(t, contracts.EchoMsg{}),
		Label:  "echo",
	})
	require.NoError(t, err)
	return addr
}

func executeCounterMsg(t *testing.T, counterAddr string, exec contracts.CounterExec) types.Msg {
	t.Helper()
	return types.Msg{Wasm: &types.WasmMsg{Execute: &types.WasmExecuteMsg{
		ContractAddr: counterAddr,
		Msg:          counterJSON(t, exec),
	}}}
}

func TestSubMsgExecutesInOrder(t *testing.T) {
	a := newTestApp(t, "chain-a")
	echo := instantiateEcho(t, a)
	counterCode := storeCounter(t, a)
	counter := instantiateCounter(t, a, counterCode, 0, "")

	msg := echoJSON(t, contracts.EchoMsg{Messages: []types.SubMsg{
		types.NewSubMsg(executeCounterMsg(t, counter, contracts.CounterExec{Increment: &struct{}{}})),
		types.NewSubMsg(executeCounterMsg(t, counter, contracts.CounterExec{Increment: &struct{}{}})),
		types.NewSubMsg(executeCounterMsg(t, counter, contracts.CounterExec{Set: &contracts.CounterSet{Count: 10}})),
		types.NewSubMsg(executeCounterMsg(t, counter, contracts.CounterExec{Increment: &struct{}{}})),
	}})
	_, err := a.ExecuteContract("alice", echo, msg, nil)
	require.NoError(t, err)

	// Set after two increments, then one more: order matters.
	require.Equal(t, uint64(11), queryCount(t, a, counter))
}

// A successful submessage's data is dropped unless a reply forwards it.
func TestSubMsgDataClearedWithoutReply(t *testing.T) {
	a := newTestApp(t, "chain-a")
	echo := instantiateEcho(t, a)
	target := instantiateEcho(t, a)

	msg := echoJSON(t, contracts.EchoMsg{
		Data: []byte("parent"),
		Messages: []types.SubMsg{
			types.NewSubMsg(types.Msg{Wasm: &types.WasmMsg{Execute: &types.WasmExecuteMsg{
				ContractAddr: target,
				Msg:          echoJSON(t, contracts.EchoMsg{Data: []byte("sub")}),
			}}}),
		},
	})
	res, err := a.ExecuteContract("alice", echo, msg, nil)
	require.NoError(t, err)

	var envelope app.ExecuteResponseData
	require.NoError(t, proto.Unmarshal(res.Data, &envelope))
	require.Equal(t, []byte("parent"), envelope.Data)
}

// With no reply requested the submessage's data never surfaces at all, not
// even when the parent returns none of its own.
func TestSubMsgNeverReplyDropsData(t *testing.T) {
	a := newTestApp(t, "chain-a")
	echo := instantiateEcho(t, a)
	target := instantiateEcho(t, a)

	msg := echoJSON(t, contracts.EchoMsg{Messages: []types.SubMsg{
		types.NewSubMsg(types.Msg{Wasm: &types.WasmMsg{Execute: &types.WasmExecuteMsg{
			ContractAddr: target,
			Msg:          echoJSON(t, contracts.EchoMsg{Data: []byte("sub")}),
		}}}),
	}})
	res, err := a.ExecuteContract("alice", echo, msg, nil)
	require.NoError(t, err)

	var envelope app.ExecuteResponseData
	require.NoError(t, proto.Unmarshal(res.Data, &envelope))
	require.Empty(t, envelope.Data)
}

// Data returned from a reply overrides the parent data.
func TestSubMsgReplyDataOverridesParent(t *testing.T) {
	a := newTestApp(t, "chain-a")
	echo := instantiateEcho(t, a)
	target := instantiateEcho(t, a)

	msg := echoJSON(t, contracts.EchoMsg{
		Data: []byte("parent"),
		Messages: []types.SubMsg{
			types.ReplyOnSuccess(1, types.Msg{Wasm: &types.WasmMsg{Execute: &types.WasmExecuteMsg{
				ContractAddr: target,
				Msg:          echoJSON(t, contracts.EchoMsg{Data: []byte("sub")}),
			}}}),
		},
	})
	res, err := a.ExecuteContract("alice", echo, msg, nil)
	require.NoError(t, err)

	// The echo reply forwards the submessage's wrapped data, which then
	// replaces the parent data inside the outer envelope.
	var outer app.ExecuteResponseData
	require.NoError(t, proto.Unmarshal(res.Data, &outer))
	var inner app.ExecuteResponseData
	require.NoError(t, proto.Unmarshal(outer.Data, &inner))
	require.Equal(t, []byte("sub"), inner.Data)
}

func TestSubMsgReplyEvent(t *testing.T) {
	a := newTestApp(t, "chain-a")
	echo := instantiateEcho(t, a)
	counterCode := storeCounter(t, a)
	counter := instantiateCounter(t, a, counterCode, 0, "")

	msg := echoJSON(t, contracts.EchoMsg{Messages: []types.SubMsg{
		types.ReplyAlwaysOn(3, executeCounterMsg(t, counter, contracts.CounterExec{Increment: &struct{}{}})),
	}})
	res, err := a.ExecuteContract("alice", echo, msg, nil)
	require.NoError(t, err)

	var replyEvent *types.Event
	for i := range res.Events {
		if res.Events[i].Type == app.EventTypeReply {
			replyEvent = &res.Events[i]
			break
		}
	}
	require.NotNil(t, replyEvent)
	mode, ok := replyEvent.Attribute("mode")
	require.True(t, ok)
	require.Equal(t, "handle_success", mode)
}

// Without an error reply, a failing submessage aborts the whole call.
func TestSubMsgFailurePropagates(t *testing.T) {
	a := newTestApp(t, "chain-a")
	echo := instantiateEcho(t, a)
	counterCode := storeCounter(t, a)
	counter := instantiateCounter(t, a, counterCode, 5, "")

	msg := echoJSON(t, contracts.EchoMsg{Messages: []types.SubMsg{
		types.NewSubMsg(executeCounterMsg(t, counter, contracts.CounterExec{Set: &contracts.CounterSet{Count: 9}})),
		types.NewSubMsg(executeCounterMsg(t, counter, contracts.CounterExec{Fail: &struct{}{}})),
	}})
	_, err := a.ExecuteContract("alice", echo, msg, nil)
	require.Error(t, err)

	// The first submessage's write is rolled back with everything else.
	require.Equal(t, uint64(5), queryCount(t, a, counter))
}

// With an error reply, the failing submessage's own writes roll back but the
// parent call survives.
func TestSubMsgErrorReplyRecovers(t *testing.T) {
	a := newTestApp(t, "chain-a")
	echo := instantiateEcho(t, a)
	counterCode := storeCounter(t, a)
	counter := instantiateCounter(t, a, counterCode, 5, "")

	msg := echoJSON(t, contracts.EchoMsg{Messages: []types.SubMsg{
		types.NewSubMsg(executeCounterMsg(t, counter, contracts.CounterExec{Increment: &struct{}{}})),
		types.ReplyOnError(7, executeCounterMsg(t, counter, contracts.CounterExec{SetAndFail: &contracts.CounterSet{Count: 99}})),
	}})
	res, err := a.ExecuteContract("alice", echo, msg, nil)
	require.NoError(t, err)

	// The increment survives, the failed write does not.
	require.Equal(t, uint64(6), queryCount(t, a, counter))

	var replyEvent *types.Event
	for i := range res.Events {
		if res.Events[i].Type == app.EventTypeReply {
			replyEvent = &res.Events[i]
			break
		}
	}
	require.NotNil(t, replyEvent)
	mode, _ := replyEvent.Attribute("mode")
	require.Equal(t, "handle_failure", mode)
}

// Submessages emitted by a contract execute with the contract as sender.
func TestSubMsgSenderIsContract(t *testing.T) {
	a := newTestApp(t, "chain-a")
	echo := instantiateEcho(t, a)
	require.NoError(t, a.InitBalance(echo, coins(50, "ufoo")))

	msg := echoJSON(t, contracts.EchoMsg{Messages: []types.SubMsg{
		types.NewSubMsg(types.Msg{Bank: &types.BankMsg{Send: &types.BankSendMsg{
			ToAddress: "bob",
			Amount:    coins(20, "ufoo"),
		}}}),
	}})
	_, err := a.ExecuteContract("alice", echo, msg, nil)
	require.NoError(t, err)

	bobBalance, err := a.Balance("bob")
	require.NoError(t, err)
	require.Equal(t, coins(20, "ufoo"), bobBalance)

	echoBalance, err := a.Balance(echo)
	require.NoError(t, err)
	require.Equal(t, coins(30, "ufoo"), echoBalance)
}

// Contract responses with malformed attributes or events are rejected before
// any effect is kept.
func TestInvalidResponseRejected(t *testing.T) {
	a := newTestApp(t, "chain-a")
	echo := instantiateEcho(t, a)

	cases := []struct {
		name string
		msg  contracts.EchoMsg
	}{
		{"empty attribute key", contracts.EchoMsg{Attributes: []types.Attribute{{Key: " ", Value: "x"}}}},
		{"empty attribute value", contracts.EchoMsg{Attributes: []types.Attribute{{Key: "x", Value: ""}}}},
		{"reserved attribute key", contracts.EchoMsg{Attributes: []types.Attribute{{Key: "_reserved", Value: "x"}}}},
		{"short event type", contracts.EchoMsg{Events: []types.Event{{Type: "a", Attributes: []types.Attribute{{Key: "k", Value: "v"}}}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := a.ExecuteContract("alice", echo, echoJSON(t, tc.msg), nil)
			require.ErrorIs(t, err, types.ErrInvalidResponse)
		})
	}
}

// Contract events come back prefixed and stamped with the emitting address.
func TestContractEventPrefixing(t *testing.T) {
	a := newTestApp(t, "chain-a")
	echo := instantiateEcho(t, a)

	msg := echoJSON(t, contracts.EchoMsg{
		Events: []types.Event{types.NewEvent("minted").AddAttribute("token", "42")},
	})
	res, err := a.ExecuteContract("alice", echo, msg, nil)
	require.NoError(t, err)

	var custom *types.Event
	for i := range res.Events {
		if res.Events[i].Type == app.CustomEventPrefix+"minted" {
			custom = &res.Events[i]
			break
		}
	}
	require.NotNil(t, custom)
	addr, ok := custom.Attribute(app.AttributeKeyContractAddr)
	require.True(t, ok)
	require.Equal(t, echo, addr)
	token, ok := custom.Attribute("token")
	require.True(t, ok)
	require.Equal(t, "42", token)
}
