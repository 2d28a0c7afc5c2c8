package relay

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	chantypes "github.com/cosmos/ibc-go/v3/modules/core/04-channel/types"

	"github.com/cosmos/multitest/app"
	"github.com/cosmos/multitest/types"
)

// RelayerAddress is the address relay operations run under on both chains.
const RelayerAddress = "relayer"

// PacketRelayResult is the outcome of relaying one packet. Exactly one of
// Ack and Timeout is set: Ack when the destination's acknowledgement was
// delivered back, Timeout when the source settled the packet as timed out —
// because its timeout had elapsed on the destination, or because the
// acknowledgement was deliberately never relayed.
type PacketRelayResult struct {
	Receive *types.AppResponse
	Ack     *types.AppResponse
	Timeout *types.AppResponse

	// Acknowledgement is the raw ack written by the destination, nil on the
	// timeout path.
	Acknowledgement []byte
}

// TimedOut reports whether the packet settled as timed out instead of
// acknowledged.
func (r *PacketRelayResult) TimedOut() bool { return r.Timeout != nil }

// RelayPacket moves one sent packet from src to dst and settles it back on
// src, either with the destination's acknowledgement or as a timeout when
// the destination reports the timeout already elapsed.
func RelayPacket(src, dst *app.App, srcPort, srcChannel string, sequence uint64) (*PacketRelayResult, error) {
	rec, err := sentPacket(src, srcPort, srcChannel, sequence)
	if err != nil {
		return nil, err
	}

	recvRes, err := dst.Relay(types.IBCRelayMsg{Receive: &types.IBCPacketRelay{
		Packet:  rec.Packet,
		Relayer: RelayerAddress,
	}})
	if err != nil {
		return nil, err
	}

	if HasEvent(recvRes, app.EventTypeTimeoutReceivedPacket) {
		timeoutRes, err := src.Relay(types.IBCRelayMsg{Timeout: &types.IBCPacketRelay{
			Packet:  rec.Packet,
			Relayer: RelayerAddress,
		}})
		if err != nil {
			return nil, err
		}
		return &PacketRelayResult{Receive: recvRes, Timeout: timeoutRes}, nil
	}

	ackHex, err := GetEventAttrValue(recvRes, chantypes.EventTypeWriteAck, chantypes.AttributeKeyAckHex)
	if err != nil {
		return nil, err
	}
	ack, err := hex.DecodeString(ackHex)
	if err != nil {
		return nil, fmt.Errorf("malformed acknowledgement hex %q: %w", ackHex, err)
	}

	ackRes, err := src.Relay(types.IBCRelayMsg{Acknowledge: &types.IBCAckRelay{
		Packet:          rec.Packet,
		Acknowledgement: ack,
		Relayer:         RelayerAddress,
	}})
	if err != nil {
		return nil, err
	}
	return &PacketRelayResult{Receive: recvRes, Ack: ackRes, Acknowledgement: ack}, nil
}

// RelayPacketsInTx relays every packet the given transaction response sent,
// in event order.
func RelayPacketsInTx(src, dst *app.App, res *types.AppResponse) ([]*PacketRelayResult, error) {
	var out []*PacketRelayResult
	for _, ev := range res.Events {
		if ev.Type != chantypes.EventTypeSendPacket {
			continue
		}
		port, ok := ev.Attribute(chantypes.AttributeKeySrcPort)
		if !ok {
			return nil, fmt.Errorf("send_packet event without %s", chantypes.AttributeKeySrcPort)
		}
		channel, ok := ev.Attribute(chantypes.AttributeKeySrcChannel)
		if !ok {
			return nil, fmt.Errorf("send_packet event without %s", chantypes.AttributeKeySrcChannel)
		}
		seqStr, ok := ev.Attribute(chantypes.AttributeKeySequence)
		if !ok {
			return nil, fmt.Errorf("send_packet event without %s", chantypes.AttributeKeySequence)
		}
		seq, err := strconv.ParseUint(seqStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed packet sequence %q: %w", seqStr, err)
		}
		result, err := RelayPacket(src, dst, port, channel, seq)
		if err != nil {
			return nil, err
		}
		out = append(out, result)
	}
	return out, nil
}

// sentPacket reads a sent packet record off the source chain.
func sentPacket(src *app.App, port, channel string, sequence uint64) (types.PacketRecord, error) {
	raw, err := src.Query(types.QueryRequest{IBC: &types.IBCQuery{
		SendPacket: &types.IBCSendPacketQuery{PortID: port, ChannelID: channel, Sequence: sequence},
	}})
	if err != nil {
		return types.PacketRecord{}, err
	}
	var res types.IBCSendPacketResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return types.PacketRecord{}, err
	}
	return res.Packet, nil
}
