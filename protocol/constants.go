package protocol

import "time"

// Link & framing constants for the E012 protocol as seen by an HS6200 receiver.
// All higher layers should depend on this file.
const (
	// Address & hopping
	AddressLength   = 5
	NumRFChannels   = 4
	RFBindChannel   = 0x3C
	NumChannelSlots = 0x51 // valid hop channels are 0..80
	MaxRFChannel    = 125

	// Logical payload assembled by the session every tick
	PacketSize = 15

	// Physical frame
	//   Guard (2) | PCF len<<2|pid (1) | NoAck (1 bit) | Scrambled payload (L bytes) | CRC16 (2)
	// Every field after the guard bytes is shifted by the single no-ack bit.
	GuardSize      = 2
	ControlSize    = 1
	CRCSize        = 2
	MaxPayloadSize = len(scrambleTable)
	MaxFrameSize   = 32 // nRF24L01 TX FIFO width

	// Session timing
	PacketPeriod     = 1000 * time.Microsecond
	InitialWait      = 500 * time.Microsecond
	DefaultBindCount = 500

	// Host command surface
	NumChannels        = 10
	DefaultNumChannels = 10

	crcPoly = 0x1021
	crcInit = 0xFFFF
)

// BindAddress is the well-known address every E012 receiver listens on while
// binding.
var BindAddress = [AddressLength]byte{0x55, 0x42, 0x9C, 0x8F, 0xC9}

// scrambleTable whitens payload byte i before it goes on air. Only the first
// 15 positions are known, which caps the logical payload length.
var scrambleTable = [...]byte{
	0x80, 0xF5, 0x3B, 0x0D, 0x6D, 0x2A, 0xF9, 0xBC,
	0x51, 0x8E, 0x4C, 0xFD, 0xC1, 0x65, 0xD0,
}

// Scramble returns the whitening byte for payload position i.
func Scramble(i int) byte { return scrambleTable[i] }

// Telemetry support levels reported to the host.
type TelemetryState int

const (
	TelemetryUnsupported TelemetryState = iota
	TelemetryOff
	TelemetryOn
)

func (s TelemetryState) String() string {
	switch s {
	case TelemetryOff:
		return "off"
	case TelemetryOn:
		return "on"
	default:
		return "unsupported"
	}
}
