package relay_test

import (
	"encoding/json"
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
	chantypes "github.com/cosmos/ibc-go/v3/modules/core/04-channel/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cosmos/multitest/app"
	"github.com/cosmos/multitest/contracts"
	"github.com/cosmos/multitest/relay"
	"github.com/cosmos/multitest/types"
)

// farFuture is a timestamp timeout no simulated clock reaches.
var farFuture = types.IBCTimeout{Timestamp: 4_000_000_000_000_000_000}

// elapsed is a timeout that has already passed on any chain.
var elapsed = types.IBCTimeout{Timestamp: 1}

func newChain(t *testing.T, chainID string) *app.App {
	t.Helper()
	return app.NewApp(zaptest.NewLogger(t), chainID)
}

func coins(amount int64, denom string) sdk.Coins {
	return sdk.NewCoins(sdk.NewInt64Coin(denom, amount))
}

// setupTransferNet wires two chains with a connection and an open transfer
// channel, and returns both channel ends.
func setupTransferNet(t *testing.T) (*app.App, *app.App, types.IBCEndpoint, types.IBCEndpoint) {
	t.Helper()
	src := newChain(t, "chain-a")
	dst := newChain(t, "chain-b")

	srcConn, _, err := relay.CreateConnection(src, dst)
	require.NoError(t, err)

	channels, err := relay.CreateChannel(src, dst, srcConn,
		app.TransferPort, app.TransferPort, chantypes.UNORDERED, "ics20-1")
	require.NoError(t, err)
	return src, dst, channels.Src, channels.Dst
}

func queryChannel(t *testing.T, chain *app.App, end types.IBCEndpoint) types.ChannelRecord {
	t.Helper()
	raw, err := chain.Query(types.QueryRequest{IBC: &types.IBCQuery{
		ChannelInfo: &types.IBCChannelInfoQuery{PortID: end.PortID, ChannelID: end.ChannelID},
	}})
	require.NoError(t, err)
	var res types.IBCChannelInfoResponse
	require.NoError(t, json.Unmarshal(raw, &res))
	return res.Channel
}

func queryPacketState(t *testing.T, chain *app.App, end types.IBCEndpoint, seq uint64) types.PacketState {
	t.Helper()
	raw, err := chain.Query(types.QueryRequest{IBC: &types.IBCQuery{
		SendPacket: &types.IBCSendPacketQuery{PortID: end.PortID, ChannelID: end.ChannelID, Sequence: seq},
	}})
	require.NoError(t, err)
	var res types.IBCSendPacketResponse
	require.NoError(t, json.Unmarshal(raw, &res))
	return res.Packet.State
}

func TestCreateConnectionAssignsIDs(t *testing.T) {
	src := newChain(t, "chain-a")
	dst := newChain(t, "chain-b")

	srcConn, dstConn, err := relay.CreateConnection(src, dst)
	require.NoError(t, err)
	require.Equal(t, "connection-0", srcConn)
	require.Equal(t, "connection-0", dstConn)

	// A second connection gets the next identifier.
	srcConn2, _, err := relay.CreateConnection(src, dst)
	require.NoError(t, err)
	require.Equal(t, "connection-1", srcConn2)
}

func TestChannelHandshake(t *testing.T) {
	src, dst, srcEnd, dstEnd := setupTransferNet(t)

	require.NotEqual(t, "", srcEnd.ChannelID)
	require.NotEqual(t, "", dstEnd.ChannelID)

	srcChannel := queryChannel(t, src, srcEnd)
	require.Equal(t, types.ChannelStateOpen, srcChannel.State)
	require.Equal(t, "ics20-1", srcChannel.Version)
	require.Equal(t, dstEnd, srcChannel.Counterparty)

	dstChannel := queryChannel(t, dst, dstEnd)
	require.Equal(t, types.ChannelStateOpen, dstChannel.State)
	require.Equal(t, srcEnd, dstChannel.Counterparty)
}

// A contract on the Try side can renegotiate the channel version; the new
// version must propagate through Ack and Confirm to both ends.
func TestChannelHandshakeVersionNegotiation(t *testing.T) {
	src := newChain(t, "chain-a")
	dst := newChain(t, "chain-b")

	srcCode := src.StoreCode("creator", contracts.IBCEcho{})
	srcAddr, err := src.InstantiateContract("creator", types.WasmInstantiateMsg{
		CodeID: srcCode, Msg: []byte("{}"), Label: "ibc-echo",
	})
	require.NoError(t, err)

	dstCode := dst.StoreCode("creator", contracts.IBCEcho{PreferredVersion: "proto-2"})
	dstAddr, err := dst.InstantiateContract("creator", types.WasmInstantiateMsg{
		CodeID: dstCode, Msg: []byte("{}"), Label: "ibc-echo",
	})
	require.NoError(t, err)

	srcConn, _, err := relay.CreateConnection(src, dst)
	require.NoError(t, err)

	channels, err := relay.CreateChannel(src, dst, srcConn,
		app.PortForContract(srcAddr), app.PortForContract(dstAddr), chantypes.UNORDERED, "proto-1")
	require.NoError(t, err)

	require.Equal(t, "proto-2", queryChannel(t, src, channels.Src).Version)
	require.Equal(t, "proto-2", queryChannel(t, dst, channels.Dst).Version)

	// The connect hooks ran on both contracts.
	for _, side := range []struct {
		chain *app.App
		addr  string
		want  string
	}{
		{src, srcAddr, channels.Src.ChannelID},
		{dst, dstAddr, channels.Dst.ChannelID},
	} {
		raw, err := side.chain.QuerySmart(side.addr, []byte(`{"channel":{}}`))
		require.NoError(t, err)
		var res contracts.IBCChannelResponse
		require.NoError(t, json.Unmarshal(raw, &res))
		require.Equal(t, side.want, res.ChannelID)
	}
}

func TestTransferRelayDeliversVoucher(t *testing.T) {
	src, dst, srcEnd, dstEnd := setupTransferNet(t)
	require.NoError(t, src.InitBalance("alice", coins(100, "ufoo")))

	res, err := src.Execute("alice", types.Msg{IBC: &types.IBCMsg{Transfer: &types.IBCTransferMsg{
		ChannelID: srcEnd.ChannelID,
		ToAddress: "bob",
		Amount:    sdk.NewInt64Coin("ufoo", 100),
		Timeout:   farFuture,
	}}})
	require.NoError(t, err)

	results, err := relay.RelayPacketsInTx(src, dst, res)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.False(t, results[0].TimedOut())
	require.NotNil(t, results[0].Ack)

	// The sender is debited, the escrow holds the coins.
	aliceBalance, err := src.Balance("alice")
	require.NoError(t, err)
	require.True(t, aliceBalance.Empty())
	escrow, err := src.Balance(app.IBCLockModuleAddress)
	require.NoError(t, err)
	require.Equal(t, coins(100, "ufoo"), escrow)

	// The receiver holds a voucher wrapped with the receiving channel.
	voucher := app.WrapIBCDenom(dstEnd.ChannelID, "ufoo")
	bobBalance, err := dst.Balance("bob")
	require.NoError(t, err)
	require.Equal(t, coins(100, voucher), bobBalance)

	require.Equal(t, types.PacketStateAcknowledged, queryPacketState(t, src, srcEnd, 1))
}

// Sending the voucher back unwraps it and releases the original escrow.
func TestTransferRoundTrip(t *testing.T) {
	src, dst, srcEnd, dstEnd := setupTransferNet(t)
	require.NoError(t, src.InitBalance("alice", coins(100, "ufoo")))

	res, err := src.Execute("alice", types.Msg{IBC: &types.IBCMsg{Transfer: &types.IBCTransferMsg{
		ChannelID: srcEnd.ChannelID,
		ToAddress: "bob",
		Amount:    sdk.NewInt64Coin("ufoo", 100),
		Timeout:   farFuture,
	}}})
	require.NoError(t, err)
	_, err = relay.RelayPacketsInTx(src, dst, res)
	require.NoError(t, err)

	voucher := app.WrapIBCDenom(dstEnd.ChannelID, "ufoo")
	back, err := dst.Execute("bob", types.Msg{IBC: &types.IBCMsg{Transfer: &types.IBCTransferMsg{
		ChannelID: dstEnd.ChannelID,
		ToAddress: "alice",
		Amount:    sdk.NewInt64Coin(voucher, 100),
		Timeout:   farFuture,
	}}})
	require.NoError(t, err)
	_, err = relay.RelayPacketsInTx(dst, src, back)
	require.NoError(t, err)

	// Alice has her original coins again, out of the source escrow.
	aliceBalance, err := src.Balance("alice")
	require.NoError(t, err)
	require.Equal(t, coins(100, "ufoo"), aliceBalance)
	escrow, err := src.Balance(app.IBCLockModuleAddress)
	require.NoError(t, err)
	require.True(t, escrow.Empty())

	bobBalance, err := dst.Balance("bob")
	require.NoError(t, err)
	require.True(t, bobBalance.Empty())
}

// A transfer whose timeout already elapsed on the destination settles as
// timed out on the source. The sender is NOT refunded: the escrow stays.
func TestTransferTimeoutKeepsEscrow(t *testing.T) {
	src, dst, srcEnd, _ := setupTransferNet(t)
	require.NoError(t, src.InitBalance("alice", coins(100, "ufoo")))

	res, err := src.Execute("alice", types.Msg{IBC: &types.IBCMsg{Transfer: &types.IBCTransferMsg{
		ChannelID: srcEnd.ChannelID,
		ToAddress: "bob",
		Amount:    sdk.NewInt64Coin("ufoo", 100),
		Timeout:   elapsed,
	}}})
	require.NoError(t, err)

	results, err := relay.RelayPacketsInTx(src, dst, res)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].TimedOut())
	require.True(t, relay.HasEvent(results[0].Receive, app.EventTypeTimeoutReceivedPacket))

	// No effect on the destination.
	bobBalance, err := dst.Balance("bob")
	require.NoError(t, err)
	require.True(t, bobBalance.Empty())

	// The sender stays debited and the escrow keeps the coins.
	aliceBalance, err := src.Balance("alice")
	require.NoError(t, err)
	require.True(t, aliceBalance.Empty())
	escrow, err := src.Balance(app.IBCLockModuleAddress)
	require.NoError(t, err)
	require.Equal(t, coins(100, "ufoo"), escrow)

	require.Equal(t, types.PacketStateTimedOut, queryPacketState(t, src, srcEnd, 1))
}

// Acknowledged and TimedOut are mutually exclusive terminal states.
func TestPacketStateExclusivity(t *testing.T) {
	src, dst, srcEnd, _ := setupTransferNet(t)
	require.NoError(t, src.InitBalance("alice", coins(100, "ufoo")))

	res, err := src.Execute("alice", types.Msg{IBC: &types.IBCMsg{Transfer: &types.IBCTransferMsg{
		ChannelID: srcEnd.ChannelID,
		ToAddress: "bob",
		Amount:    sdk.NewInt64Coin("ufoo", 100),
		Timeout:   farFuture,
	}}})
	require.NoError(t, err)
	_, err = relay.RelayPacketsInTx(src, dst, res)
	require.NoError(t, err)

	// Acknowledged packets cannot time out anymore.
	_, err = relay.TimeoutPacket(src, srcEnd.PortID, srcEnd.ChannelID, 1)
	require.ErrorContains(t, err, "cannot time out")

	// And the destination rejects a second delivery.
	_, err = relay.RelayPacket(src, dst, srcEnd.PortID, srcEnd.ChannelID, 1)
	require.ErrorContains(t, err, "already received")
}

// setupContractNet wires two chains with an IBCEcho contract each and an
// open channel between their ports.
func setupContractNet(t *testing.T) (src, dst *app.App, srcAddr, dstAddr string, channels *relay.ChannelCreationResult) {
	t.Helper()
	src = newChain(t, "chain-a")
	dst = newChain(t, "chain-b")

	srcCode := src.StoreCode("creator", contracts.IBCEcho{})
	srcAddr, err := src.InstantiateContract("creator", types.WasmInstantiateMsg{
		CodeID: srcCode, Msg: []byte("{}"), Label: "ibc-echo",
	})
	require.NoError(t, err)
	dstCode := dst.StoreCode("creator", contracts.IBCEcho{})
	dstAddr, err = dst.InstantiateContract("creator", types.WasmInstantiateMsg{
		CodeID: dstCode, Msg: []byte("{}"), Label: "ibc-echo",
	})
	require.NoError(t, err)

	srcConn, _, err := relay.CreateConnection(src, dst)
	require.NoError(t, err)
	channels, err = relay.CreateChannel(src, dst, srcConn,
		app.PortForContract(srcAddr), app.PortForContract(dstAddr), chantypes.UNORDERED, "echo-1")
	require.NoError(t, err)
	return src, dst, srcAddr, dstAddr, channels
}

// sendContractPacket has the source contract send one packet through a
// submessage.
func sendContractPacket(t *testing.T, src *app.App, srcAddr, channelID string, data []byte, timeout types.IBCTimeout) *types.AppResponse {
	t.Helper()
	sendMsg, err := json.Marshal(contracts.EchoMsg{Messages: []types.SubMsg{
		types.NewSubMsg(types.Msg{IBC: &types.IBCMsg{SendPacket: &types.IBCSendPacketMsg{
			ChannelID: channelID,
			Data:      data,
			Timeout:   timeout,
		}}}),
	}})
	require.NoError(t, err)
	res, err := src.ExecuteContract("alice", srcAddr, sendMsg, nil)
	require.NoError(t, err)
	return res
}

func TestContractPacketRelay(t *testing.T) {
	src, dst, srcAddr, dstAddr, channels := setupContractNet(t)

	res := sendContractPacket(t, src, srcAddr, channels.Src.ChannelID, []byte("ping"), farFuture)

	results, err := relay.RelayPacketsInTx(src, dst, res)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, []byte("ping"), results[0].Acknowledgement)

	// The destination contract saw the packet, the source saw the ack.
	raw, err := dst.QuerySmart(dstAddr, []byte(`{"received":{}}`))
	require.NoError(t, err)
	var received contracts.IBCReceivedResponse
	require.NoError(t, json.Unmarshal(raw, &received))
	require.Equal(t, []byte("ping"), received.Data)

	raw, err = src.QuerySmart(srcAddr, []byte(`{"acked":{}}`))
	require.NoError(t, err)
	var acked contracts.IBCAckedResponse
	require.NoError(t, json.Unmarshal(raw, &acked))
	require.Equal(t, []byte("ping"), acked.Acknowledgement)
}

func TestContractPacketTimeoutHook(t *testing.T) {
	src, dst, srcAddr, dstAddr, channels := setupContractNet(t)

	sendContractPacket(t, src, srcAddr, channels.Src.ChannelID, []byte("ping"), elapsed)

	result, err := relay.ReceiveAndTimeoutPacket(src, dst, channels.Src.PortID, channels.Src.ChannelID, 1)
	require.NoError(t, err)
	require.True(t, result.TimedOut())
	require.True(t, relay.HasEvent(result.Receive, app.EventTypeTimeoutReceivedPacket))

	// The source contract's timeout hook ran; the destination never saw the
	// packet.
	raw, err := src.QuerySmart(srcAddr, []byte(`{"timeouts":{}}`))
	require.NoError(t, err)
	var timeouts contracts.IBCTimeoutsResponse
	require.NoError(t, json.Unmarshal(raw, &timeouts))
	require.Equal(t, uint64(1), timeouts.Count)

	raw, err = dst.QuerySmart(dstAddr, []byte(`{"received":{}}`))
	require.NoError(t, err)
	var received contracts.IBCReceivedResponse
	require.NoError(t, json.Unmarshal(raw, &received))
	require.Empty(t, received.Data)
}

// A packet the destination executed can still be settled as timed out on the
// source when its acknowledgement is never relayed back. The destination's
// effects are kept.
func TestReceiveAndTimeoutKeepsDestinationEffects(t *testing.T) {
	src, dst, srcAddr, dstAddr, channels := setupContractNet(t)

	sendContractPacket(t, src, srcAddr, channels.Src.ChannelID, []byte("ping"), farFuture)

	result, err := relay.ReceiveAndTimeoutPacket(src, dst, channels.Src.PortID, channels.Src.ChannelID, 1)
	require.NoError(t, err)
	require.True(t, result.TimedOut())
	require.False(t, relay.HasEvent(result.Receive, app.EventTypeTimeoutReceivedPacket))

	// The destination executed the packet.
	raw, err := dst.QuerySmart(dstAddr, []byte(`{"received":{}}`))
	require.NoError(t, err)
	var received contracts.IBCReceivedResponse
	require.NoError(t, json.Unmarshal(raw, &received))
	require.Equal(t, []byte("ping"), received.Data)

	// The source saw the timeout, never the acknowledgement.
	raw, err = src.QuerySmart(srcAddr, []byte(`{"timeouts":{}}`))
	require.NoError(t, err)
	var timeouts contracts.IBCTimeoutsResponse
	require.NoError(t, json.Unmarshal(raw, &timeouts))
	require.Equal(t, uint64(1), timeouts.Count)

	raw, err = src.QuerySmart(srcAddr, []byte(`{"acked":{}}`))
	require.NoError(t, err)
	var acked contracts.IBCAckedResponse
	require.NoError(t, json.Unmarshal(raw, &acked))
	require.Empty(t, acked.Acknowledgement)

	require.Equal(t, types.PacketStateTimedOut, queryPacketState(t, src, channels.Src, 1))
}

func TestCloseChannel(t *testing.T) {
	src, dst, srcEnd, dstEnd := setupTransferNet(t)

	_, _, err := relay.CloseChannel(src, dst, srcEnd, dstEnd)
	require.NoError(t, err)

	require.Equal(t, types.ChannelStateClosed, queryChannel(t, src, srcEnd).State)
	require.Equal(t, types.ChannelStateClosed, queryChannel(t, dst, dstEnd).State)

	// A closed channel carries no more transfers.
	require.NoError(t, src.InitBalance("alice", coins(10, "ufoo")))
	_, err = src.Execute("alice", types.Msg{IBC: &types.IBCMsg{Transfer: &types.IBCTransferMsg{
		ChannelID: srcEnd.ChannelID,
		ToAddress: "bob",
		Amount:    sdk.NewInt64Coin("ufoo", 10),
		Timeout:   farFuture,
	}}})
	require.ErrorContains(t, err, "not open")
}
