package stub

import "errors"

var (
	errResetFailed     = errors.New("stub: reset failed")
	errInvalidRegister = errors.New("stub: invalid register")
	errPayloadTooLong  = errors.New("stub: payload exceeds 32 bytes")
)
