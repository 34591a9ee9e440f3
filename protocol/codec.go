package protocol

// Codec turns logical E012 payloads into the bit stream an HS6200 receiver
// expects, for an nRF24L01 to send as a raw payload.
//
// Frame layout (MSB first, not byte aligned after the control byte):
//
//	+---------+---------+----------+-------+--------------------+---------+
//	| Guard   | Guard   | len<<2   | NoAck | Payload ^ scramble | CRC16   |
//	| addr[0] | addr[0] | | pid    |       |                    |         |
//	+---------+---------+----------+-------+--------------------+---------+
//	| 8 bits  | 8 bits  | 8 bits   | 1 bit | 8*L bits           | 16 bits |
//	+---------+---------+----------+-------+--------------------+---------+
//
// The CRC covers every bit after the guard bytes and is seeded from the
// active address. A Codec is not safe for concurrent use.
type Codec struct {
	address    [AddressLength]byte
	crcSeed    uint16
	crcEnabled bool
	pid        uint8
}

// NewCodec returns a codec bound to addr with CRC generation enabled.
func NewCodec(addr [AddressLength]byte) *Codec {
	c := &Codec{crcEnabled: true}
	c.SetAddress(addr)
	return c
}

// SetAddress makes addr the active address and recomputes the CRC seed.
func (c *Codec) SetAddress(addr [AddressLength]byte) {
	c.address = addr
	c.crcSeed = AddressSeed(addr[:])
}

func (c *Codec) Address() [AddressLength]byte { return c.address }

// Seed returns the CRC state derived from the active address.
func (c *Codec) Seed() uint16 { return c.crcSeed }

func (c *Codec) CRCEnabled() bool { return c.crcEnabled }

// EnableCRC toggles the emulated HS6200 CRC.
func (c *Codec) EnableCRC(on bool) { c.crcEnabled = on }

// Configure takes a value meant for the nRF24L01 CONFIG register, latches its
// EN_CRC bit as the emulated CRC setting and returns the value with the
// hardware CRC bits cleared.
func (c *Codec) Configure(flags byte) byte {
	c.crcEnabled = flags&BV(BitEnCRC) != 0
	return flags &^ (BV(BitEnCRC) | BV(BitCRCO))
}

// PID returns the packet id the next Encode will use.
func (c *Codec) PID() uint8 { return c.pid & 0x03 }

// FrameLen is the physical frame length for an n-byte payload.
func FrameLen(n int, crc bool) int {
	bits := GuardSize*8 + ControlSize*8 + 1 + n*8
	if crc {
		bits += CRCSize * 8
	}
	return (bits + 7) / 8
}

// Encode builds the physical frame for payload. Every call consumes a packet
// id, wrapping modulo 4.
func (c *Codec) Encode(payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, ErrInvalidPayload
	}

	w := NewBitWriter(FrameLen(len(payload), c.crcEnabled))

	w.WriteByte(c.address[0])
	w.WriteByte(c.address[0])

	pcf := byte(len(payload)&0x3F)<<2 | c.pid&0x03
	c.pid++
	w.WriteByte(pcf)
	w.WriteBits(1, 1) // no ack

	for i, b := range payload {
		w.WriteByte(b ^ scrambleTable[i])
	}

	if c.crcEnabled {
		covered := w.Len() - GuardSize*8
		crc := crcBits(c.crcSeed, w.Bytes()[GuardSize:], covered)
		w.WriteBits(uint32(crc), 16)
	}

	return w.Bytes(), nil
}
