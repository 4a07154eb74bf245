package hub

import "errors"

// Predefined error types surfaced to the command layer
var (
	ErrAlreadyOpen = errors.New("port already open")
	ErrNotOpen     = errors.New("port not open")
	ErrNoPortsOpen = errors.New("no ports open")
	ErrWriteFailed = errors.New("write to serial device failed")
	ErrEncoding    = errors.New("text is not valid UTF-8")
)
