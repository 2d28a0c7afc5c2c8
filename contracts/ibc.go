package contracts

import (
	"encoding/binary"
	"encoding/json"

	"github.com/cosmos/multitest/types"
	"github.com/cosmos/multitest/vm"
)

var (
	channelKey    = []byte("channel")
	lastPacketKey = []byte("last-packet")
	lastAckKey    = []byte("last-ack")
	timeoutsKey   = []byte("timeouts")
)

// IBCQueryMsg reads the IBC contract's recorded channel and packet history.
type IBCQueryMsg struct {
	Channel  *struct{} `json:"channel,omitempty"`
	Received *struct{} `json:"received,omitempty"`
	Acked    *struct{} `json:"acked,omitempty"`
	Timeouts *struct{} `json:"timeouts,omitempty"`
}

type IBCChannelResponse struct {
	ChannelID string `json:"channel_id"`
}

type IBCReceivedResponse struct {
	Data []byte `json:"data"`
}

type IBCAckedResponse struct {
	Acknowledgement []byte `json:"acknowledgement"`
}

type IBCTimeoutsResponse struct {
	Count uint64 `json:"count"`
}

// IBCEcho is an IBC-capable contract: it accepts any channel, remembers the
// channel it is connected on, acknowledges each received packet with the
// packet's own data, and counts timeouts. A non-empty PreferredVersion
// overrides the version proposed during the handshake.
type IBCEcho struct {
	Echo

	PreferredVersion string
}

var _ vm.IBCContract = IBCEcho{}

func (c IBCEcho) IBCChannelOpen(_ vm.Deps, _ types.Env, _ types.IBCChannelOpenMsg) (string, error) {
	return c.PreferredVersion, nil
}

func (c IBCEcho) IBCChannelConnect(deps vm.Deps, _ types.Env, msg types.IBCChannelConnectMsg) (*types.Response, error) {
	var channel types.IBCChannel
	switch {
	case msg.Ack != nil:
		channel = msg.Ack.Channel
	case msg.Confirm != nil:
		channel = msg.Confirm.Channel
	}
	if err := deps.Storage.Set(channelKey, []byte(channel.Endpoint.ChannelID)); err != nil {
		return nil, err
	}
	res := &types.Response{}
	res.AddAttribute("channel_id", channel.Endpoint.ChannelID)
	return res, nil
}

func (c IBCEcho) IBCChannelClose(deps vm.Deps, _ types.Env, _ types.IBCChannelCloseMsg) (*types.Response, error) {
	if err := deps.Storage.Delete(channelKey); err != nil {
		return nil, err
	}
	return &types.Response{}, nil
}

func (c IBCEcho) IBCPacketReceive(deps vm.Deps, _ types.Env, msg types.IBCPacketReceiveMsg) (*types.IBCReceiveResponse, error) {
	if err := deps.Storage.Set(lastPacketKey, msg.Packet.Data); err != nil {
		return nil, err
	}
	return &types.IBCReceiveResponse{
		Acknowledgement: msg.Packet.Data,
		Attributes:      []types.Attribute{{Key: "action", Value: "receive"}},
	}, nil
}

func (c IBCEcho) IBCPacketAck(deps vm.Deps, _ types.Env, msg types.IBCPacketAckMsg) (*types.Response, error) {
	if err := deps.Storage.Set(lastAckKey, msg.Acknowledgement); err != nil {
		return nil, err
	}
	res := &types.Response{}
	res.AddAttribute("action", "ack")
	return res, nil
}

func (c IBCEcho) IBCPacketTimeout(deps vm.Deps, _ types.Env, _ types.IBCPacketTimeoutMsg) (*types.Response, error) {
	count, err := readTimeouts(deps)
	if err != nil {
		return nil, err
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], count+1)
	if err := deps.Storage.Set(timeoutsKey, buf[:]); err != nil {
		return nil, err
	}
	res := &types.Response{}
	res.AddAttribute("action", "timeout")
	return res, nil
}

func readTimeouts(deps vm.Deps) (uint64, error) {
	raw, err := deps.Storage.Get(timeoutsKey)
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return 0, nil
	}
	return binary.BigEndian.Uint64(raw), nil
}

// Query answers the IBC history queries and falls back to echo behavior.
func (c IBCEcho) Query(deps vm.Deps, env types.Env, msg []byte) ([]byte, error) {
	var q IBCQueryMsg
	if err := json.Unmarshal(msg, &q); err == nil {
		switch {
		case q.Channel != nil:
			raw, err := deps.Storage.Get(channelKey)
			if err != nil {
				return nil, err
			}
			return json.Marshal(IBCChannelResponse{ChannelID: string(raw)})
		case q.Received != nil:
			raw, err := deps.Storage.Get(lastPacketKey)
			if err != nil {
				return nil, err
			}
			return json.Marshal(IBCReceivedResponse{Data: raw})
		case q.Acked != nil:
			raw, err := deps.Storage.Get(lastAckKey)
			if err != nil {
				return nil, err
			}
			return json.Marshal(IBCAckedResponse{Acknowledgement: raw})
		case q.Timeouts != nil:
			count, err := readTimeouts(deps)
			if err != nil {
				return nil, err
			}
			return json.Marshal(IBCTimeoutsResponse{Count: count})
		}
	}
	return c.Echo.Query(deps, env, msg)
}
