package transport

import "errors"

var (
	// ErrInvalidPortID indicates that an out-of-range port id was provided.
	// Valid port ids are in the range of [0, 31].
	ErrInvalidPortID = errors.New("invalid port id, should be in range of [0, 31]")

	// ErrInvalidMeta indicates that the port metadata is not a JSON object
	// with a "type" key.
	ErrInvalidMeta = errors.New("invalid port metadata, requires a JSON object with a type key")

	// ErrNoSender indicates that the transport has no lower-layer send
	// function.
	ErrNoSender = errors.New("no lower-layer send function")
)
