package transport

import "errors"

var (
	ErrResetFailed          = errors.New("transceiver reset failed")
	ErrNotStarted           = errors.New("session not started")
	ErrInvalidChannelNumber = errors.New("invalid channel number (valid range: 1-10)")
)
