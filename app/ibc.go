package app

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	chantypes "github.com/cosmos/ibc-go/v3/modules/core/04-channel/types"
	"go.uber.org/zap"

	"github.com/cosmos/multitest/types"
)

// successAck is the standard transfer acknowledgement, also used when a
// contract's receive hook returns no explicit acknowledgement.
var successAck = []byte(`{"result":"AQ=="}`)

// IBCKeeper runs connection and channel handshakes and the packet lifecycle
// on one chain. The relay package drives two of them against each other.
type IBCKeeper struct {
	log *zap.Logger
}

// NewIBCKeeper returns an IBC keeper.
func NewIBCKeeper(log *zap.Logger) *IBCKeeper {
	return &IBCKeeper{log: log}
}

// HandleMsg executes an IBC action initiated by a user or contract.
func (k *IBCKeeper) HandleMsg(ctx *Context, sender string, msg types.IBCMsg) (*types.AppResponse, error) {
	switch {
	case msg.Transfer != nil:
		return k.transfer(ctx, sender, *msg.Transfer)
	case msg.SendPacket != nil:
		return k.sendContractPacket(ctx, sender, *msg.SendPacket)
	case msg.CloseChannel != nil:
		ch, err := k.channelByID(ctx, msg.CloseChannel.ChannelID)
		if err != nil {
			return nil, err
		}
		return k.closeChannel(ctx, ch.PortID, ch.ChannelID, false)
	}
	return nil, fmt.Errorf("ibc: %w", types.ErrUnsupported)
}

// HandleRelay executes one privileged relay operation.
func (k *IBCKeeper) HandleRelay(ctx *Context, msg types.IBCRelayMsg) (*types.AppResponse, error) {
	switch {
	case msg.CreateConnection != nil:
		return k.createConnection(ctx, *msg.CreateConnection)
	case msg.OpenChannel != nil:
		return k.openChannel(ctx, *msg.OpenChannel)
	case msg.ConnectChannel != nil:
		return k.connectChannel(ctx, *msg.ConnectChannel)
	case msg.CloseChannel != nil:
		return k.closeChannel(ctx, msg.CloseChannel.PortID, msg.CloseChannel.ChannelID, msg.CloseChannel.Confirm)
	case msg.Receive != nil:
		return k.receivePacket(ctx, msg.Receive.Packet, msg.Receive.Relayer)
	case msg.Acknowledge != nil:
		return k.acknowledgePacket(ctx, msg.Acknowledge.Packet, msg.Acknowledge.Acknowledgement, msg.Acknowledge.Relayer)
	case msg.Timeout != nil:
		return k.timeoutPacket(ctx, msg.Timeout.Packet, msg.Timeout.Relayer)
	}
	return nil, fmt.Errorf("ibc relay: %w", types.ErrUnsupported)
}

// HandleQuery answers an IBC query.
func (k *IBCKeeper) HandleQuery(ctx *Context, q types.IBCQuery) ([]byte, error) {
	switch {
	case q.ConnectedChain != nil:
		rec, err := k.connection(ctx, q.ConnectedChain.ConnectionID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(types.IBCConnectedChainResponse{Connection: rec})

	case q.ChannelInfo != nil:
		rec, err := k.channel(ctx, q.ChannelInfo.PortID, q.ChannelInfo.ChannelID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(types.IBCChannelInfoResponse{Channel: rec})

	case q.SendPacket != nil:
		rec, err := k.packet(ctx, q.SendPacket.PortID, q.SendPacket.ChannelID, q.SendPacket.Sequence)
		if err != nil {
			return nil, err
		}
		return json.Marshal(types.IBCSendPacketResponse{Packet: rec})
	}
	return nil, fmt.Errorf("ibc query: %w", types.ErrUnsupported)
}

// createConnection registers or completes a connection end. Each handshake
// call emits the connection id so the relayer can chain the steps.
func (k *IBCKeeper) createConnection(ctx *Context, msg types.IBCCreateConnection) (*types.AppResponse, error) {
	var rec types.ConnectionRecord
	if msg.ConnectionID == "" {
		n, err := k.nextIdentifier(ctx, "connection")
		if err != nil {
			return nil, err
		}
		rec = types.ConnectionRecord{
			ConnectionID: fmt.Sprintf("connection-%d", n),
			ChainID:      msg.RemoteChainID,
		}
	} else {
		existing, err := k.connection(ctx, msg.ConnectionID)
		if err != nil {
			return nil, err
		}
		rec = existing
	}
	if msg.CounterpartyConnectionID != "" {
		rec.CounterpartyConnectionID = msg.CounterpartyConnectionID
	}
	if err := k.saveConnection(ctx, rec); err != nil {
		return nil, err
	}
	ev := types.NewEvent(EventTypeConnectionOpen).
		AddAttribute(AttributeKeyConnectionID, rec.ConnectionID)
	return &types.AppResponse{Events: []types.Event{ev}}, nil
}

// openChannel runs the Init or Try step of the channel handshake on this
// chain's end.
func (k *IBCKeeper) openChannel(ctx *Context, msg types.IBCOpenChannel) (*types.AppResponse, error) {
	if _, err := k.connection(ctx, msg.LocalConnectionID); err != nil {
		return nil, err
	}
	n, err := k.nextIdentifier(ctx, "channel")
	if err != nil {
		return nil, err
	}
	channelID := fmt.Sprintf("channel-%d", n)

	try := msg.CounterpartyVersion != ""
	state := types.ChannelStateInit
	eventType := chantypes.EventTypeChannelOpenInit
	if try {
		state = types.ChannelStateTryOpen
		eventType = chantypes.EventTypeChannelOpenTry
	}

	rec := types.ChannelRecord{
		State:        state,
		Order:        msg.Order,
		Version:      msg.Version,
		ConnectionID: msg.LocalConnectionID,
		PortID:       msg.LocalPort,
		ChannelID:    channelID,
		Counterparty: msg.CounterpartyEndpoint,
		NextSequence: 1,
	}

	channel := types.IBCChannel{
		Endpoint:             rec.Endpoint(),
		CounterpartyEndpoint: rec.Counterparty,
		Order:                rec.Order,
		Version:              rec.Version,
		ConnectionID:         rec.ConnectionID,
	}
	var events []types.Event
	if addr, ok := contractForPort(msg.LocalPort); ok {
		hookMsg := types.IBCChannelOpenMsg{}
		if try {
			hookMsg.Try = &types.IBCOpenTry{Channel: channel, CounterpartyVersion: msg.CounterpartyVersion}
		} else {
			hookMsg.Init = &types.IBCOpenInit{Channel: channel}
		}
		version, err := ctx.router.Wasm.IBCChannelOpen(ctx, addr, hookMsg)
		if err != nil {
			return nil, err
		}
		if version != "" {
			rec.Version = version
		}
	}

	if err := k.saveChannel(ctx, rec); err != nil {
		return nil, err
	}

	ev := types.NewEvent(eventType).
		AddAttribute(chantypes.AttributeKeyPortID, rec.PortID).
		AddAttribute(chantypes.AttributeKeyChannelID, rec.ChannelID).
		AddAttribute(chantypes.AttributeCounterpartyPortID, rec.Counterparty.PortID).
		AddAttribute(chantypes.AttributeCounterpartyChannelID, rec.Counterparty.ChannelID).
		AddAttribute(chantypes.AttributeKeyConnectionID, rec.ConnectionID).
		AddAttribute(AttributeKeyVersion, rec.Version)
	events = append(events, ev)
	return &types.AppResponse{Events: events}, nil
}

// connectChannel runs the Ack or Confirm step, picked by the channel's
// current state.
func (k *IBCKeeper) connectChannel(ctx *Context, msg types.IBCConnectChannel) (*types.AppResponse, error) {
	rec, err := k.channel(ctx, msg.PortID, msg.ChannelID)
	if err != nil {
		return nil, err
	}

	var eventType string
	switch rec.State {
	case types.ChannelStateInit:
		eventType = chantypes.EventTypeChannelOpenAck
	case types.ChannelStateTryOpen:
		eventType = chantypes.EventTypeChannelOpenConfirm
	default:
		return nil, fmt.Errorf("channel %s/%s in state %s cannot be connected", msg.PortID, msg.ChannelID, rec.State)
	}
	ack := rec.State == types.ChannelStateInit

	rec.Counterparty = msg.CounterpartyEndpoint
	if msg.CounterpartyVersion != "" {
		rec.Version = msg.CounterpartyVersion
	}
	rec.State = types.ChannelStateOpen
	if err := k.saveChannel(ctx, rec); err != nil {
		return nil, err
	}

	events := []types.Event{
		types.NewEvent(eventType).
			AddAttribute(chantypes.AttributeKeyPortID, rec.PortID).
			AddAttribute(chantypes.AttributeKeyChannelID, rec.ChannelID).
			AddAttribute(chantypes.AttributeCounterpartyPortID, rec.Counterparty.PortID).
			AddAttribute(chantypes.AttributeCounterpartyChannelID, rec.Counterparty.ChannelID).
			AddAttribute(chantypes.AttributeKeyConnectionID, rec.ConnectionID),
	}

	if addr, ok := contractForPort(rec.PortID); ok {
		channel := types.IBCChannel{
			Endpoint:             rec.Endpoint(),
			CounterpartyEndpoint: rec.Counterparty,
			Order:                rec.Order,
			Version:              rec.Version,
			ConnectionID:         rec.ConnectionID,
		}
		hookMsg := types.IBCChannelConnectMsg{}
		if ack {
			hookMsg.Ack = &types.IBCOpenAck{Channel: channel, CounterpartyVersion: msg.CounterpartyVersion}
		} else {
			hookMsg.Confirm = &types.IBCOpenConfirm{Channel: channel}
		}
		res, err := ctx.router.Wasm.IBCChannelConnect(ctx, addr, hookMsg)
		if err != nil {
			return nil, err
		}
		events = append(events, res.Events...)
	}
	return &types.AppResponse{Events: events}, nil
}

// closeChannel closes a channel end, as initiator or as confirmation of the
// counterparty's close.
func (k *IBCKeeper) closeChannel(ctx *Context, port, channelID string, confirm bool) (*types.AppResponse, error) {
	rec, err := k.channel(ctx, port, channelID)
	if err != nil {
		return nil, err
	}
	if rec.State == types.ChannelStateClosed {
		return nil, fmt.Errorf("channel %s/%s already closed", port, channelID)
	}
	rec.State = types.ChannelStateClosed
	if err := k.saveChannel(ctx, rec); err != nil {
		return nil, err
	}

	eventType := chantypes.EventTypeChannelCloseInit
	if confirm {
		eventType = chantypes.EventTypeChannelCloseConfirm
	}
	events := []types.Event{
		types.NewEvent(eventType).
			AddAttribute(chantypes.AttributeKeyPortID, rec.PortID).
			AddAttribute(chantypes.AttributeKeyChannelID, rec.ChannelID).
			AddAttribute(chantypes.AttributeCounterpartyPortID, rec.Counterparty.PortID).
			AddAttribute(chantypes.AttributeCounterpartyChannelID, rec.Counterparty.ChannelID).
			AddAttribute(chantypes.AttributeKeyConnectionID, rec.ConnectionID),
	}

	if addr, ok := contractForPort(rec.PortID); ok {
		channel := types.IBCChannel{
			Endpoint:             rec.Endpoint(),
			CounterpartyEndpoint: rec.Counterparty,
			Order:                rec.Order,
			Version:              rec.Version,
			ConnectionID:         rec.ConnectionID,
		}
		hookMsg := types.IBCChannelCloseMsg{}
		if confirm {
			hookMsg.Confirm = &types.IBCCloseConfirm{Channel: channel}
		} else {
			hookMsg.Init = &types.IBCCloseInit{Channel: channel}
		}
		res, err := ctx.router.Wasm.IBCChannelClose(ctx, addr, hookMsg)
		if err != nil {
			return nil, err
		}
		events = append(events, res.Events...)
	}
	return &types.AppResponse{Events: events}, nil
}

// transfer escrows coins on the lock module and sends an ICS20 packet over
// an open transfer channel. A voucher minted by this channel is unwrapped
// back to its origin denom in the packet data.
func (k *IBCKeeper) transfer(ctx *Context, sender string, msg types.IBCTransferMsg) (*types.AppResponse, error) {
	rec, err := k.channel(ctx, TransferPort, msg.ChannelID)
	if err != nil {
		return nil, err
	}
	if rec.State != types.ChannelStateOpen {
		return nil, fmt.Errorf("channel %s/%s not open", TransferPort, msg.ChannelID)
	}
	if !msg.Amount.IsPositive() {
		return nil, fmt.Errorf("transfer amount %s not positive", msg.Amount)
	}

	if err := ctx.router.Bank.Send(ctx, sender, IBCLockModuleAddress, sdk.NewCoins(msg.Amount)); err != nil {
		return nil, err
	}

	denom := UnwrapIBCDenom(msg.Amount.Denom, msg.ChannelID)
	data, err := json.Marshal(types.NewTransferPacketData(
		sdk.NewCoin(denom, msg.Amount.Amount), sender, msg.ToAddress, msg.Memo))
	if err != nil {
		return nil, err
	}
	return k.sendPacket(ctx, rec, data, msg.Timeout)
}

// sendContractPacket sends raw data over a channel owned by the sending
// contract's port.
func (k *IBCKeeper) sendContractPacket(ctx *Context, sender string, msg types.IBCSendPacketMsg) (*types.AppResponse, error) {
	rec, err := k.channel(ctx, PortForContract(sender), msg.ChannelID)
	if err != nil {
		return nil, err
	}
	if rec.State != types.ChannelStateOpen {
		return nil, fmt.Errorf("channel %s/%s not open", rec.PortID, msg.ChannelID)
	}
	return k.sendPacket(ctx, rec, msg.Data, msg.Timeout)
}

// sendPacket assigns the next sequence on the channel, records the packet as
// sent and emits the send event the relayer watches for.
func (k *IBCKeeper) sendPacket(ctx *Context, rec types.ChannelRecord, data []byte, timeout types.IBCTimeout) (*types.AppResponse, error) {
	if timeout.Block == nil && timeout.Timestamp == 0 {
		return nil, fmt.Errorf("packet timeout must be set")
	}

	packet := types.Packet{
		Sequence: rec.NextSequence,
		Src:      rec.Endpoint(),
		Dest:     rec.Counterparty,
		Data:     data,
		Timeout:  timeout,
	}
	rec.NextSequence++
	if err := k.saveChannel(ctx, rec); err != nil {
		return nil, err
	}
	if err := k.savePacket(ctx, types.PacketRecord{Packet: packet, State: types.PacketStateSent}); err != nil {
		return nil, err
	}

	ev := packetEvent(chantypes.EventTypeSendPacket, packet).
		AddAttribute(chantypes.AttributeKeyChannelOrdering, rec.Order.String()).
		AddAttribute(chantypes.AttributeKeyConnection, rec.ConnectionID)
	return &types.AppResponse{Events: []types.Event{ev}}, nil
}

// receivePacket delivers a packet to this chain as the destination. A packet
// whose timeout has already elapsed here is not executed: the response only
// carries the timeout event, which tells the relayer to trigger the timeout
// on the source chain.
func (k *IBCKeeper) receivePacket(ctx *Context, packet types.Packet, relayer string) (*types.AppResponse, error) {
	rec, err := k.channel(ctx, packet.Dest.PortID, packet.Dest.ChannelID)
	if err != nil {
		return nil, err
	}
	if rec.State != types.ChannelStateOpen {
		return nil, fmt.Errorf("channel %s/%s not open", rec.PortID, rec.ChannelID)
	}

	if packet.Timeout.Elapsed(ctx.Block.Height, uint64(ctx.Block.Time.UnixNano())) {
		k.log.Debug("Packet timeout elapsed on receive",
			zap.String("channel_id", packet.Dest.ChannelID),
			zap.Uint64("sequence", packet.Sequence),
		)
		ev := packetEvent(EventTypeTimeoutReceivedPacket, packet)
		return &types.AppResponse{Events: []types.Event{ev}}, nil
	}

	received, err := k.hasReceipt(ctx, packet)
	if err != nil {
		return nil, err
	}
	if received {
		return nil, fmt.Errorf("packet %d on %s/%s already received", packet.Sequence, packet.Dest.PortID, packet.Dest.ChannelID)
	}

	ack := successAck
	events := []types.Event{packetEvent(chantypes.EventTypeRecvPacket, packet)}
	if addr, ok := contractForPort(packet.Dest.PortID); ok {
		hookAck, res, err := ctx.router.Wasm.IBCPacketReceive(ctx, addr, types.IBCPacketReceiveMsg{Packet: packet, Relayer: relayer})
		if err != nil {
			return nil, err
		}
		if len(hookAck) > 0 {
			ack = hookAck
		}
		events = append(events, res.Events...)
	} else if packet.Dest.PortID == TransferPort {
		if err := ctx.router.Bank.OnPacketReceive(ctx, packet); err != nil {
			return nil, err
		}
	} else {
		return nil, fmt.Errorf("port %s: %w", packet.Dest.PortID, types.ErrNotFound)
	}

	if err := k.setReceipt(ctx, packet, ack); err != nil {
		return nil, err
	}
	ackEv := packetEvent(chantypes.EventTypeWriteAck, packet).
		AddAttribute(chantypes.AttributeKeyAck, string(ack)).
		AddAttribute(chantypes.AttributeKeyAckHex, hex.EncodeToString(ack))
	events = append(events, ackEv)
	return &types.AppResponse{Events: events}, nil
}

// acknowledgePacket closes the loop on the source chain for a packet the
// destination received. Acknowledged and TimedOut are mutually exclusive
// terminal states.
func (k *IBCKeeper) acknowledgePacket(ctx *Context, packet types.Packet, ack []byte, relayer string) (*types.AppResponse, error) {
	rec, err := k.packet(ctx, packet.Src.PortID, packet.Src.ChannelID, packet.Sequence)
	if err != nil {
		return nil, err
	}
	if rec.State != types.PacketStateSent {
		return nil, fmt.Errorf("packet %d on %s/%s in state %s cannot be acknowledged",
			packet.Sequence, packet.Src.PortID, packet.Src.ChannelID, rec.State)
	}
	rec.State = types.PacketStateAcknowledged
	rec.Ack = ack
	if err := k.savePacket(ctx, rec); err != nil {
		return nil, err
	}

	events := []types.Event{packetEvent(chantypes.EventTypeAcknowledgePacket, packet)}
	if addr, ok := contractForPort(packet.Src.PortID); ok {
		res, err := ctx.router.Wasm.IBCPacketAck(ctx, addr, types.IBCPacketAckMsg{
			Acknowledgement: ack,
			OriginalPacket:  packet,
			Relayer:         relayer,
		})
		if err != nil {
			return nil, err
		}
		events = append(events, res.Events...)
	} else if packet.Src.PortID == TransferPort {
		if err := ctx.router.Bank.OnPacketAck(ctx, packet, ack); err != nil {
			return nil, err
		}
	}
	return &types.AppResponse{Events: events}, nil
}

// timeoutPacket settles a sent packet as timed out on the source chain. A
// packet already acknowledged cannot time out, and vice versa.
func (k *IBCKeeper) timeoutPacket(ctx *Context, packet types.Packet, relayer string) (*types.AppResponse, error) {
	rec, err := k.packet(ctx, packet.Src.PortID, packet.Src.ChannelID, packet.Sequence)
	if err != nil {
		return nil, err
	}
	if rec.State != types.PacketStateSent {
		return nil, fmt.Errorf("packet %d on %s/%s in state %s cannot time out",
			packet.Sequence, packet.Src.PortID, packet.Src.ChannelID, rec.State)
	}
	rec.State = types.PacketStateTimedOut
	if err := k.savePacket(ctx, rec); err != nil {
		return nil, err
	}

	events := []types.Event{packetEvent(chantypes.EventTypeTimeoutPacket, packet)}
	if addr, ok := contractForPort(packet.Src.PortID); ok {
		res, err := ctx.router.Wasm.IBCPacketTimeout(ctx, addr, types.IBCPacketTimeoutMsg{Packet: packet, Relayer: relayer})
		if err != nil {
			return nil, err
		}
		events = append(events, res.Events...)
	} else if packet.Src.PortID == TransferPort {
		if err := ctx.router.Bank.OnPacketTimeout(ctx, packet); err != nil {
			return nil, err
		}
	}
	return &types.AppResponse{Events: events}, nil
}

// packetEvent builds the standard packet attribute set for an event type.
func packetEvent(eventType string, packet types.Packet) types.Event {
	timeoutHeight := "0-0"
	if packet.Timeout.Block != nil {
		timeoutHeight = fmt.Sprintf("%d-%d", packet.Timeout.Block.Revision, packet.Timeout.Block.Height)
	}
	return types.NewEvent(eventType).
		AddAttribute(chantypes.AttributeKeyData, string(packet.Data)).
		AddAttribute(chantypes.AttributeKeyDataHex, hex.EncodeToString(packet.Data)).
		AddAttribute(chantypes.AttributeKeyTimeoutHeight, timeoutHeight).
		AddAttribute(chantypes.AttributeKeyTimeoutTimestamp, fmt.Sprintf("%d", packet.Timeout.Timestamp)).
		AddAttribute(chantypes.AttributeKeySequence, fmt.Sprintf("%d", packet.Sequence)).
		AddAttribute(chantypes.AttributeKeySrcPort, packet.Src.PortID).
		AddAttribute(chantypes.AttributeKeySrcChannel, packet.Src.ChannelID).
		AddAttribute(chantypes.AttributeKeyDstPort, packet.Dest.PortID).
		AddAttribute(chantypes.AttributeKeyDstChannel, packet.Dest.ChannelID)
}
