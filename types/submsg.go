package types

// ReplyOn controls which submessage outcomes trigger a Reply call on the
// emitting contract.
type ReplyOn string

const (
	ReplyNever   ReplyOn = "never"
	ReplySuccess ReplyOn = "success"
	ReplyError   ReplyOn = "error"
	ReplyAlways  ReplyOn = "always"
)

// SubMsg is an outgoing message emitted by a contract response. Submessages
// execute in order, each in its own nested transaction, before the parent
// call completes. They are ephemeral and never persisted.
type SubMsg struct {
	ID       uint64
	Msg      Msg
	ReplyOn  ReplyOn
	GasLimit *uint64
	Payload  []byte
}

// NewSubMsg wraps msg with the Never policy, the plain fire-and-forget case.
func NewSubMsg(msg Msg) SubMsg {
	return SubMsg{Msg: msg, ReplyOn: ReplyNever}
}

// ReplyOnSuccess wraps msg so a successful execution triggers a Reply with
// the given id.
func ReplyOnSuccess(id uint64, msg Msg) SubMsg {
	return SubMsg{ID: id, Msg: msg, ReplyOn: ReplySuccess}
}

// ReplyOnError wraps msg so a failed execution triggers a Reply with the
// given id instead of aborting the parent.
func ReplyOnError(id uint64, msg Msg) SubMsg {
	return SubMsg{ID: id, Msg: msg, ReplyOn: ReplyError}
}

// ReplyAlwaysOn wraps msg so both outcomes trigger a Reply.
func ReplyAlwaysOn(id uint64, msg Msg) SubMsg {
	return SubMsg{ID: id, Msg: msg, ReplyOn: ReplyAlways}
}

// SubMsgResponse carries a successful submessage outcome into a Reply.
type SubMsgResponse struct {
	Events []Event `json:"events"`
	Data   []byte  `json:"data,omitempty"`
}

// SubMsgResult is the success-or-error outcome of a submessage. Exactly one
// field is set.
type SubMsgResult struct {
	Ok  *SubMsgResponse `json:"ok,omitempty"`
	Err string          `json:"error,omitempty"`
}

// Reply is the input to a contract's Reply entry point.
type Reply struct {
	ID      uint64       `json:"id"`
	Payload []byte       `json:"payload,omitempty"`
	Result  SubMsgResult `json:"result"`
}

// Response is what a contract entry point returns: attributes and events to
// record, submessages to execute, and an optional binary payload.
type Response struct {
	Attributes []Attribute
	Events     []Event
	Messages   []SubMsg
	Data       []byte
}

// AddAttribute appends a response attribute.
func (r *Response) AddAttribute(key, value string) *Response {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: value})
	return r
}

// AddEvent appends a contract event.
func (r *Response) AddEvent(ev Event) *Response {
	r.Events = append(r.Events, ev)
	return r
}

// AddMessage appends an outgoing submessage.
func (r *Response) AddMessage(msg SubMsg) *Response {
	r.Messages = append(r.Messages, msg)
	return r
}
