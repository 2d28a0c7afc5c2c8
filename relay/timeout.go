package relay

import (
	"github.com/cosmos/multitest/app"
	"github.com/cosmos/multitest/types"
)

// TimeoutPacket settles a sent packet as timed out on the source chain
// without delivering it. Use when the destination is known to be past the
// packet's timeout.
func TimeoutPacket(src *app.App, srcPort, srcChannel string, sequence uint64) (*types.AppResponse, error) {
	rec, err := sentPacket(src, srcPort, srcChannel, sequence)
	if err != nil {
		return nil, err
	}
	return src.Relay(types.IBCRelayMsg{Timeout: &types.IBCPacketRelay{
		Packet:  rec.Packet,
		Relayer: RelayerAddress,
	}})
}

// ReceiveAndTimeoutPacket delivers a packet to the destination and then
// settles it as timed out on the source anyway, as if the acknowledgement
// never made it back. Destination effects are kept; the acknowledgement is
// never delivered.
func ReceiveAndTimeoutPacket(src, dst *app.App, srcPort, srcChannel string, sequence uint64) (*PacketRelayResult, error) {
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

	timeoutRes, err := src.Relay(types.IBCRelayMsg{Timeout: &types.IBCPacketRelay{
		Packet:  rec.Packet,
		Relayer: RelayerAddress,
	}})
	if err != nil {
		return nil, err
	}
	return &PacketRelayResult{Receive: recvRes, Timeout: timeoutRes}, nil
}
