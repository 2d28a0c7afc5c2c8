// Package app hosts a simulated chain: a transactional state tree, a module
// router, and keepers for bank, wasm, staking, distribution, gov and IBC.
// Two apps wired to the relay package form a two-chain test network.
package app

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/cosmos/multitest/types"
)

// Event types the wasm keeper emits around contract calls.
const (
	EventTypeExecute     = "execute"
	EventTypeInstantiate = "instantiate"
	EventTypeMigrate     = "migrate"
	EventTypeReply       = "reply"
	EventTypeSudo        = "sudo"

	// EventTypeWasm carries the custom attributes of a contract response;
	// contract-emitted events get the same prefix on their type so they can
	// never collide with system events.
	EventTypeWasm     = "wasm"
	CustomEventPrefix = "wasm-"

	AttributeKeyContractAddr = "_contract_address"
	AttributeKeyCodeID       = "code_id"
)

// Event types of the IBC surface not covered by the channel submodule
// constants.
const (
	EventTypeConnectionOpen        = "connection_open"
	EventTypeTimeoutReceivedPacket = "timeout_received_packet"

	AttributeKeyConnectionID = "connection_id"
	AttributeKeyVersion      = "version"
)

// Bank event pieces.
const (
	EventTypeTransfer = "transfer"
	EventTypeMint     = "mint"
	EventTypeBurn     = "burn"

	AttributeKeySender    = "sender"
	AttributeKeyRecipient = "recipient"
	AttributeKeyAmount    = "amount"
)

const reservedAttributePrefix = "_"

// validateAttributes rejects empty keys or values and keys reserved for the
// harness. All violations are reported at once.
func validateAttributes(attrs []types.Attribute) error {
	var err error
	for _, a := range attrs {
		key := strings.TrimSpace(a.Key)
		value := strings.TrimSpace(a.Value)
		if key == "" {
			err = multierr.Append(err, fmt.Errorf("empty attribute key, value: %q: %w", a.Value, types.ErrInvalidResponse))
			continue
		}
		if value == "" {
			err = multierr.Append(err, fmt.Errorf("empty attribute value, key: %q: %w", a.Key, types.ErrInvalidResponse))
		}
		if strings.HasPrefix(key, reservedAttributePrefix) {
			err = multierr.Append(err, fmt.Errorf("attribute key %q starts with reserved prefix %q: %w", a.Key, reservedAttributePrefix, types.ErrInvalidResponse))
		}
	}
	return err
}

// validateContractEvent checks a contract-emitted event before it is
// prefixed and recorded.
func validateContractEvent(ev types.Event) error {
	err := validateAttributes(ev.Attributes)
	if len(strings.TrimSpace(ev.Type)) < 2 {
		err = multierr.Append(err, fmt.Errorf("event type %q too short: %w", ev.Type, types.ErrInvalidResponse))
	}
	return err
}

// contractEvents validates and rewrites a contract response into the events
// recorded for it: the entry point's own event, one wasm event when custom
// attributes exist, and each contract event under the custom prefix.
func contractEvents(customEvent types.Event, contractAddr string, attrs []types.Attribute, events []types.Event) ([]types.Event, error) {
	out := []types.Event{customEvent}

	if err := validateAttributes(attrs); err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		wasmEv := types.NewEvent(EventTypeWasm).AddAttribute(AttributeKeyContractAddr, contractAddr)
		wasmEv.Attributes = append(wasmEv.Attributes, attrs...)
		out = append(out, wasmEv)
	}

	for _, ev := range events {
		if err := validateContractEvent(ev); err != nil {
			return nil, err
		}
		prefixed := types.NewEvent(CustomEventPrefix + ev.Type).
			AddAttribute(AttributeKeyContractAddr, contractAddr)
		prefixed.Attributes = append(prefixed.Attributes, ev.Attributes...)
		out = append(out, prefixed)
	}
	return out, nil
}
