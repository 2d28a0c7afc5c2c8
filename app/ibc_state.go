package app

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cosmos/multitest/store"
	"github.com/cosmos/multitest/types"
)

// TransferPort is the port the bank transfer application binds.
const TransferPort = "transfer"

const wasmPortPrefix = "wasm."

// PortForContract is the IBC port of a contract-owned channel.
func PortForContract(addr string) string {
	return wasmPortPrefix + addr
}

// contractForPort inverts PortForContract.
func contractForPort(port string) (string, bool) {
	if !strings.HasPrefix(port, wasmPortPrefix) {
		return "", false
	}
	return strings.TrimPrefix(port, wasmPortPrefix), true
}

var (
	ibcConnectionPrefix = store.Namespace([]byte("ibc"), []byte("connection"))
	ibcChannelPrefix    = store.Namespace([]byte("ibc"), []byte("channel"))
	ibcPacketPrefix     = store.Namespace([]byte("ibc"), []byte("packet"))
	ibcReceiptPrefix    = store.Namespace([]byte("ibc"), []byte("receipt"))
	ibcSequencePrefix   = store.Namespace([]byte("ibc"), []byte("sequence"))
)

func channelKey(port, channelID string) []byte {
	return store.Namespace([]byte(port), []byte(channelID))
}

func packetKey(port, channelID string, sequence uint64) []byte {
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], sequence)
	return store.Namespace([]byte(port), []byte(channelID), seq[:])
}

func (k *IBCKeeper) connection(ctx *Context, connectionID string) (types.ConnectionRecord, error) {
	raw, err := store.NewPrefix(ctx.KV, ibcConnectionPrefix).Get([]byte(connectionID))
	if err != nil {
		return types.ConnectionRecord{}, err
	}
	if raw == nil {
		return types.ConnectionRecord{}, fmt.Errorf("connection %s: %w", connectionID, types.ErrNotFound)
	}
	var rec types.ConnectionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return types.ConnectionRecord{}, fmt.Errorf("corrupt connection record %s: %w", connectionID, err)
	}
	return rec, nil
}

func (k *IBCKeeper) saveConnection(ctx *Context, rec types.ConnectionRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return store.NewPrefix(ctx.KV, ibcConnectionPrefix).Set([]byte(rec.ConnectionID), raw)
}

func (k *IBCKeeper) channel(ctx *Context, port, channelID string) (types.ChannelRecord, error) {
	raw, err := store.NewPrefix(ctx.KV, ibcChannelPrefix).Get(channelKey(port, channelID))
	if err != nil {
		return types.ChannelRecord{}, err
	}
	if raw == nil {
		return types.ChannelRecord{}, fmt.Errorf("channel %s/%s: %w", port, channelID, types.ErrNotFound)
	}
	var rec types.ChannelRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return types.ChannelRecord{}, fmt.Errorf("corrupt channel record %s/%s: %w", port, channelID, err)
	}
	return rec, nil
}

// channelByID scans for a channel end by channel id alone, for callers that
// do not know the port.
func (k *IBCKeeper) channelByID(ctx *Context, channelID string) (types.ChannelRecord, error) {
	it, err := store.NewPrefix(ctx.KV, ibcChannelPrefix).Iterate(nil, nil, store.Ascending)
	if err != nil {
		return types.ChannelRecord{}, err
	}
	defer it.Close()
	for ; it.Valid(); it.Next() {
		var rec types.ChannelRecord
		if err := json.Unmarshal(it.Value(), &rec); err != nil {
			return types.ChannelRecord{}, fmt.Errorf("corrupt channel record: %w", err)
		}
		if rec.ChannelID == channelID {
			return rec, nil
		}
	}
	if err := it.Error(); err != nil {
		return types.ChannelRecord{}, err
	}
	return types.ChannelRecord{}, fmt.Errorf("channel %s: %w", channelID, types.ErrNotFound)
}

func (k *IBCKeeper) saveChannel(ctx *Context, rec types.ChannelRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return store.NewPrefix(ctx.KV, ibcChannelPrefix).Set(channelKey(rec.PortID, rec.ChannelID), raw)
}

func (k *IBCKeeper) packet(ctx *Context, port, channelID string, sequence uint64) (types.PacketRecord, error) {
	raw, err := store.NewPrefix(ctx.KV, ibcPacketPrefix).Get(packetKey(port, channelID, sequence))
	if err != nil {
		return types.PacketRecord{}, err
	}
	if raw == nil {
		return types.PacketRecord{}, fmt.Errorf("packet %s/%s/%d: %w", port, channelID, sequence, types.ErrNotFound)
	}
	var rec types.PacketRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return types.PacketRecord{}, fmt.Errorf("corrupt packet record: %w", err)
	}
	return rec, nil
}

func (k *IBCKeeper) savePacket(ctx *Context, rec types.PacketRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	key := packetKey(rec.Packet.Src.PortID, rec.Packet.Src.ChannelID, rec.Packet.Sequence)
	return store.NewPrefix(ctx.KV, ibcPacketPrefix).Set(key, raw)
}

func (k *IBCKeeper) hasReceipt(ctx *Context, packet types.Packet) (bool, error) {
	key := packetKey(packet.Dest.PortID, packet.Dest.ChannelID, packet.Sequence)
	raw, err := store.NewPrefix(ctx.KV, ibcReceiptPrefix).Get(key)
	if err != nil {
		return false, err
	}
	return raw != nil, nil
}

func (k *IBCKeeper) setReceipt(ctx *Context, packet types.Packet, ack []byte) error {
	key := packetKey(packet.Dest.PortID, packet.Dest.ChannelID, packet.Sequence)
	return store.NewPrefix(ctx.KV, ibcReceiptPrefix).Set(key, ack)
}

// nextIdentifier bumps the named identifier counter and returns its previous
// value.
func (k *IBCKeeper) nextIdentifier(ctx *Context, kind string) (uint64, error) {
	kv := store.NewPrefix(ctx.KV, ibcSequencePrefix)
	raw, err := kv.Get([]byte(kind))
	if err != nil {
		return 0, err
	}
	var n uint64
	if raw != nil {
		n = binary.BigEndian.Uint64(raw)
	}
	var next [8]byte
	binary.BigEndian.PutUint64(next[:], n+1)
	if err := kv.Set([]byte(kind), next[:]); err != nil {
		return 0, err
	}
	return n, nil
}
