package types

import "errors"

var (
	// ErrNotFound marks unknown codes, contracts, channels, connections or
	// packets, and missing protocol events.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized marks admin mismatches and other permission failures.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnsupported marks message kinds no module handles.
	ErrUnsupported = errors.New("unsupported message")

	// ErrDuplicateAddress marks an instantiation that generated an address
	// already in use.
	ErrDuplicateAddress = errors.New("duplicated contract address")

	// ErrInvalidResponse marks a contract response rejected by validation
	// before any of its effects were kept.
	ErrInvalidResponse = errors.New("invalid contract response")
)
