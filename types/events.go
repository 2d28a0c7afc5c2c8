package types

// Attribute is a single key/value pair attached to an event.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event is an application event emitted during execution. The harness adds a
// synthetic event per entry point and prefixes contract-emitted event types
// so contract code cannot spoof system event kinds.
type Event struct {
	Type       string      `json:"type"`
	Attributes []Attribute `json:"attributes"`
}

// NewEvent returns an event of the given type with no attributes.
func NewEvent(ty string) Event {
	return Event{Type: ty}
}

// AddAttribute returns a copy of the event with the attribute appended.
func (e Event) AddAttribute(key, value string) Event {
	e.Attributes = append(e.Attributes, Attribute{Key: key, Value: value})
	return e
}

// Attribute returns the value of the first attribute with the given key.
func (e Event) Attribute(key string) (string, bool) {
	for _, a := range e.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// AppResponse is the result of one routed call: the flattened events of the
// call and everything it triggered, plus its binary payload.
type AppResponse struct {
	Events []Event `json:"events"`
	Data   []byte  `json:"data,omitempty"`
}

// AddEvents appends evs to the response events.
func (r *AppResponse) AddEvents(evs ...Event) {
	r.Events = append(r.Events, evs...)
}
