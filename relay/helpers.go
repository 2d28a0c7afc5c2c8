// Package relay moves IBC handshakes and packets between two in-process
// chains, playing the role a relayer plays between real chains: it reads
// protocol events off one chain's responses and turns them into relay
// operations on the other.
package relay

import (
	"fmt"

	"github.com/cosmos/multitest/types"
)

// GetEventAttrValue returns the first value of attrKey on the first event of
// eventType in the response.
func GetEventAttrValue(res *types.AppResponse, eventType, attrKey string) (string, error) {
	for _, ev := range res.Events {
		if ev.Type != eventType {
			continue
		}
		if v, ok := ev.Attribute(attrKey); ok {
			return v, nil
		}
	}
	return "", fmt.Errorf("event %s has no value at key %s: %w", eventType, attrKey, types.ErrNotFound)
}

// HasEvent reports whether the response carries an event of the given type.
func HasEvent(res *types.AppResponse, eventType string) bool {
	for _, ev := range res.Events {
		if ev.Type == eventType {
			return true
		}
	}
	return false
}

// GetAllEventAttrValues returns every value of attrKey across all events of
// eventType, in response order.
func GetAllEventAttrValues(res *types.AppResponse, eventType, attrKey string) []string {
	var out []string
	for _, ev := range res.Events {
		if ev.Type != eventType {
			continue
		}
		for _, a := range ev.Attributes {
			if a.Key == attrKey {
				out = append(out, a.Value)
			}
		}
	}
	return out
}
