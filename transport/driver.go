package transport

import proto "github.com/ystepanoff/e012tx/protocol"

// Transceiver is the interface that wraps the nRF24L01 operations the link
// needs. Writes are fire and forget from the session's point of view: errors
// are logged, never retried.
type Transceiver interface {
	Initialize() error
	// Reset flushes the chip and powers it down. It reports an error when
	// the chip does not answer as expected.
	Reset() error
	FlushTx() error
	FlushRx() error
	WriteReg(reg, value byte) error
	WriteRegMulti(reg byte, data []byte) error
	ReadReg(reg byte) (byte, error)
	Activate(code byte) error
	WritePayload(data []byte) error
	SetChannel(ch uint8) error
	SetBitrate(br proto.Bitrate) error
	SetPower(p proto.Power) error
	SetTxRxMode(m proto.Mode) error
}
