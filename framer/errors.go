package framer

import "errors"

var (
	// ErrParameterInvalid indicates that a caller-supplied argument is out of
	// contract, e.g. an out-of-range frame id or payload size.
	ErrParameterInvalid = errors.New("parameter invalid")
)
