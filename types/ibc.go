package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	chantypes "github.com/cosmos/ibc-go/v3/modules/core/04-channel/types"
)

// IBCEndpoint names one side of a channel.
type IBCEndpoint struct {
	PortID    string `json:"port_id"`
	ChannelID string `json:"channel_id"`
}

// IBCTimeout bounds packet delivery. At least one of the two must be set; a
// packet whose bound has passed on the destination chain can only time out.
type IBCTimeout struct {
	Block     *TimeoutBlock `json:"block,omitempty"`
	Timestamp uint64        `json:"timestamp,omitempty"`
}

// TimeoutBlock is a height bound on the destination chain.
type TimeoutBlock struct {
	Revision uint64 `json:"revision"`
	Height   uint64 `json:"height"`
}

// Elapsed reports whether the timeout has passed on a destination chain at
// the given height and time (unix nanoseconds).
func (t IBCTimeout) Elapsed(height uint64, timeNanos uint64) bool {
	if t.Block != nil && height >= t.Block.Height {
		return true
	}
	if t.Timestamp != 0 && timeNanos >= t.Timestamp {
		return true
	}
	return false
}

// Packet is one in-flight IBC packet between two channel ends.
type Packet struct {
	Sequence uint64      `json:"sequence"`
	Src      IBCEndpoint `json:"src"`
	Dest     IBCEndpoint `json:"dest"`
	Data     []byte      `json:"data"`
	Timeout  IBCTimeout  `json:"timeout"`
}

// ChannelState tracks a channel end through its handshake.
type ChannelState string

const (
	ChannelStateInit    ChannelState = "INIT"
	ChannelStateTryOpen ChannelState = "TRYOPEN"
	ChannelStateOpen    ChannelState = "OPEN"
	ChannelStateClosed  ChannelState = "CLOSED"
)

// PacketState tracks a sent packet. Acknowledged and TimedOut are terminal
// and mutually exclusive.
type PacketState string

const (
	PacketStateSent         PacketState = "SENT"
	PacketStateReceived     PacketState = "RECEIVED"
	PacketStateAcknowledged PacketState = "ACKNOWLEDGED"
	PacketStateTimedOut     PacketState = "TIMED_OUT"
)

// ChannelRecord is the stored state of one channel end.
type ChannelRecord struct {
	State        ChannelState    `json:"state"`
	Order        chantypes.Order `json:"order"`
	Version      string          `json:"version"`
	ConnectionID string          `json:"connection_id"`
	PortID       string          `json:"port_id"`
	ChannelID    string          `json:"channel_id"`
	Counterparty IBCEndpoint     `json:"counterparty"`
	NextSequence uint64          `json:"next_sequence"`
}

// Endpoint is this end of the channel.
func (c ChannelRecord) Endpoint() IBCEndpoint {
	return IBCEndpoint{PortID: c.PortID, ChannelID: c.ChannelID}
}

// ConnectionRecord is the stored state of one connection end. The
// counterparty connection id is filled in by a later handshake step, so it
// may be empty on a half-open connection.
type ConnectionRecord struct {
	ConnectionID             string `json:"connection_id"`
	CounterpartyConnectionID string `json:"counterparty_connection_id,omitempty"`
	ChainID                  string `json:"chain_id"`
}

// PacketRecord is the stored state of one sent packet on its source chain.
type PacketRecord struct {
	Packet Packet      `json:"packet"`
	State  PacketState `json:"state"`
	Ack    []byte      `json:"ack,omitempty"`
}

// IBCChannelOpenMsg is the channel-open hook input: Init on the initiating
// chain, Try on the counterparty.
type IBCChannelOpenMsg struct {
	Init *IBCOpenInit `json:"open_init,omitempty"`
	Try  *IBCOpenTry  `json:"open_try,omitempty"`
}

type IBCOpenInit struct {
	Channel IBCChannel `json:"channel"`
}

type IBCOpenTry struct {
	Channel             IBCChannel `json:"channel"`
	CounterpartyVersion string     `json:"counterparty_version"`
}

// IBCChannel is the channel view handed to contract hooks.
type IBCChannel struct {
	Endpoint             IBCEndpoint     `json:"endpoint"`
	CounterpartyEndpoint IBCEndpoint     `json:"counterparty_endpoint"`
	Order                chantypes.Order `json:"order"`
	Version              string          `json:"version"`
	ConnectionID         string          `json:"connection_id"`
}

// IBCChannelConnectMsg is the channel-connect hook input: Ack on the
// initiating chain, Confirm on the counterparty.
type IBCChannelConnectMsg struct {
	Ack     *IBCOpenAck     `json:"open_ack,omitempty"`
	Confirm *IBCOpenConfirm `json:"open_confirm,omitempty"`
}

type IBCOpenAck struct {
	Channel             IBCChannel `json:"channel"`
	CounterpartyVersion string     `json:"counterparty_version"`
}

type IBCOpenConfirm struct {
	Channel IBCChannel `json:"channel"`
}

// IBCChannelCloseMsg is the channel-close hook input.
type IBCChannelCloseMsg struct {
	Init    *IBCCloseInit    `json:"close_init,omitempty"`
	Confirm *IBCCloseConfirm `json:"close_confirm,omitempty"`
}

type IBCCloseInit struct {
	Channel IBCChannel `json:"channel"`
}

type IBCCloseConfirm struct {
	Channel IBCChannel `json:"channel"`
}

// IBCPacketReceiveMsg is the receive hook input on the destination chain.
type IBCPacketReceiveMsg struct {
	Packet  Packet `json:"packet"`
	Relayer string `json:"relayer"`
}

// IBCPacketAckMsg is the acknowledgement hook input on the source chain.
type IBCPacketAckMsg struct {
	Acknowledgement []byte `json:"acknowledgement"`
	OriginalPacket  Packet `json:"original_packet"`
	Relayer         string `json:"relayer"`
}

// IBCPacketTimeoutMsg is the timeout hook input on the source chain.
type IBCPacketTimeoutMsg struct {
	Packet  Packet `json:"packet"`
	Relayer string `json:"relayer"`
}

// IBCReceiveResponse is what a receive hook returns: the acknowledgement to
// store plus the usual response pieces.
type IBCReceiveResponse struct {
	Acknowledgement []byte      `json:"acknowledgement"`
	Attributes      []Attribute `json:"attributes,omitempty"`
	Events          []Event     `json:"events,omitempty"`
	Messages        []SubMsg    `json:"messages,omitempty"`
}

// IBCRelayMsg is the privileged sudo surface the relay layer drives the IBC
// module with. Exactly one branch is set.
type IBCRelayMsg struct {
	CreateConnection *IBCCreateConnection `json:"create_connection,omitempty"`
	OpenChannel      *IBCOpenChannel      `json:"open_channel,omitempty"`
	ConnectChannel   *IBCConnectChannel   `json:"connect_channel,omitempty"`
	CloseChannel     *IBCChannelClose     `json:"close_channel,omitempty"`
	Receive          *IBCPacketRelay      `json:"receive,omitempty"`
	Acknowledge      *IBCAckRelay         `json:"acknowledge,omitempty"`
	Timeout          *IBCPacketRelay      `json:"timeout,omitempty"`
}

// IBCCreateConnection registers or updates a connection end toward the named
// remote chain. A connection id is assigned when none is given; a later call
// with both ids fills in the counterparty.
type IBCCreateConnection struct {
	RemoteChainID            string `json:"remote_chain_id"`
	ConnectionID             string `json:"connection_id,omitempty"`
	CounterpartyConnectionID string `json:"counterparty_connection_id,omitempty"`
}

// IBCOpenChannel runs the Init or Try step of the channel handshake on this
// chain. A set CounterpartyVersion marks the Try step.
type IBCOpenChannel struct {
	LocalConnectionID    string          `json:"local_connection_id"`
	LocalPort            string          `json:"local_port"`
	Order                chantypes.Order `json:"order"`
	Version              string          `json:"version"`
	CounterpartyEndpoint IBCEndpoint     `json:"counterparty_endpoint"`
	CounterpartyVersion  string          `json:"counterparty_version,omitempty"`
}

// IBCConnectChannel runs the Ack or Confirm step of the channel handshake.
// The channel's current state decides which: Init takes the Ack step,
// TryOpen the Confirm step.
type IBCConnectChannel struct {
	PortID               string      `json:"port_id"`
	ChannelID            string      `json:"channel_id"`
	CounterpartyEndpoint IBCEndpoint `json:"counterparty_endpoint"`
	CounterpartyVersion  string      `json:"counterparty_version,omitempty"`
}

// IBCChannelClose closes a channel end, as initiator or as confirmation.
type IBCChannelClose struct {
	PortID    string `json:"port_id"`
	ChannelID string `json:"channel_id"`
	Confirm   bool   `json:"confirm"`
}

// IBCPacketRelay delivers a packet event to this chain, for receive on the
// destination or timeout on the source.
type IBCPacketRelay struct {
	Packet  Packet `json:"packet"`
	Relayer string `json:"relayer,omitempty"`
}

// IBCAckRelay delivers an acknowledgement back to the source chain.
type IBCAckRelay struct {
	Packet          Packet `json:"packet"`
	Acknowledgement []byte `json:"acknowledgement"`
	Relayer         string `json:"relayer,omitempty"`
}

// IBCQuery reads IBC state.
type IBCQuery struct {
	ConnectedChain *IBCConnectedChainQuery `json:"connected_chain,omitempty"`
	ChannelInfo    *IBCChannelInfoQuery    `json:"channel_info,omitempty"`
	SendPacket     *IBCSendPacketQuery     `json:"send_packet,omitempty"`
}

type IBCConnectedChainQuery struct {
	ConnectionID string `json:"connection_id"`
}

type IBCConnectedChainResponse struct {
	Connection ConnectionRecord `json:"connection"`
}

type IBCChannelInfoQuery struct {
	PortID    string `json:"port_id"`
	ChannelID string `json:"channel_id"`
}

type IBCChannelInfoResponse struct {
	Channel ChannelRecord `json:"channel"`
}

type IBCSendPacketQuery struct {
	ChannelID string `json:"channel_id"`
	PortID    string `json:"port_id"`
	Sequence  uint64 `json:"sequence"`
}

type IBCSendPacketResponse struct {
	Packet PacketRecord `json:"packet"`
}

// FungibleTokenPacketData is the ICS20 transfer payload.
type FungibleTokenPacketData struct {
	Denom    string `json:"denom"`
	Amount   string `json:"amount"`
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Memo     string `json:"memo,omitempty"`
}

// NewTransferPacketData builds the ICS20 payload for one coin.
func NewTransferPacketData(coin sdk.Coin, sender, receiver, memo string) FungibleTokenPacketData {
	return FungibleTokenPacketData{
		Denom:    coin.Denom,
		Amount:   coin.Amount.String(),
		Sender:   sender,
		Receiver: receiver,
		Memo:     memo,
	}
}
