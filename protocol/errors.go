package protocol

import "errors"

var (
	ErrInvalidPayload = errors.New("invalid payload size (max 15 bytes)")
	ErrInvalidAddress = errors.New("invalid address length (want 5 bytes)")
	ErrInvalidChannel = errors.New("invalid channel (valid range: 0-125)")
	ErrInvalidPower   = errors.New("invalid tx power level (valid range: 0-7)")
)
