package nrf24

import "fmt"

type nrfError uint8

func (e nrfError) Error() string {
	return fmt.Sprintf("nrf24: %s", nrfErrorString[e])
}

const (
	ErrorPinNotFound nrfError = iota
	ErrorNotOpen
	ErrorInvalidChannel
	ErrorInvalidPower
	ErrorInvalidRegister
	ErrorPayloadLength
	ErrorResetMismatch
)

var nrfErrorString = map[nrfError]string{
	ErrorPinNotFound:     "CE pin not found",
	ErrorNotOpen:         "device not open",
	ErrorInvalidChannel:  "invalid channel",
	ErrorInvalidPower:    "invalid power",
	ErrorInvalidRegister: "invalid register",
	ErrorPayloadLength:   "payload longer than 32 bytes",
	ErrorResetMismatch:   "status mismatch after reset",
}
