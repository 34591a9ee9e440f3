package transport

import (
	"errors"
	"fmt"

	proto "github.com/ystepanoff/e012tx/protocol"
)

// Chip identifies the transceiver actually fitted.
type Chip uint8

const (
	ChipUnknown Chip = iota
	ChipNRF24L01
	ChipBK2421
)

func (c Chip) String() string {
	switch c {
	case ChipNRF24L01:
		return "nRF24L01"
	case ChipBK2421:
		return "BK2421"
	default:
		return "unknown"
	}
}

type regBlock struct {
	reg  byte
	data [4]byte
}

// bekenBank1 is written to bank 1 of a BK2421/BK2423. The values were
// captured from a working transmitter, not taken from a datasheet.
var bekenBank1 = [...]regBlock{
	{0x00, [4]byte{0x40, 0x4B, 0x01, 0xE2}},
	{0x01, [4]byte{0xC0, 0x4B, 0x00, 0x00}},
	{0x02, [4]byte{0xD0, 0xFC, 0x8C, 0x02}},
	{0x03, [4]byte{0x99, 0x00, 0x39, 0x21}},
	{0x04, [4]byte{0xD9, 0x96, 0x82, 0x1B}},
	{0x05, [4]byte{0x24, 0x06, 0x7F, 0xA6}},
	{0x0C, [4]byte{0x00, 0x12, 0x73, 0x00}},
	{0x0D, [4]byte{0x46, 0xB4, 0x80, 0x00}},
	{0x04, [4]byte{0xDF, 0x96, 0x82, 0x1B}},
	{0x04, [4]byte{0xD9, 0x96, 0x82, 0x1B}},
}

// baseRegisters disables everything the nRF24L01 would add on its own:
// auto-ack, retransmits and dynamic payloads.
var baseRegisters = [...]struct{ reg, value byte }{
	{proto.RegStatus, proto.StatusClearIRQ},
	{proto.RegEnAA, 0x00},
	{proto.RegSetupAW, 0x03}, // 5 byte address
	{proto.RegSetupRetr, 0x00},
}

// errSink collects the errors of a register sequence.
type errSink struct{ errs []error }

func (e *errSink) do(op string, err error) {
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", op, err))
	}
}

func (e *errSink) err() error { return errors.Join(e.errs...) }

// bringUp programs the transceiver for HS6200 emulation and returns the
// detected chip.
func bringUp(d Transceiver, power proto.Power) (Chip, error) {
	if err := d.Initialize(); err != nil {
		return ChipUnknown, fmt.Errorf("initialize: %w", err)
	}

	var s errSink
	s.do("tx mode", d.SetTxRxMode(proto.ModeTx))
	s.do("flush tx", d.FlushTx())
	s.do("flush rx", d.FlushRx())
	for _, r := range baseRegisters {
		s.do(fmt.Sprintf("write reg %02X", r.reg), d.WriteReg(r.reg, r.value))
	}
	s.do("bitrate", d.SetBitrate(proto.Bitrate1M))
	s.do("power", d.SetPower(power))

	s.do("activate features", d.Activate(proto.ActivateFeatures))
	s.do("dynpd", d.WriteReg(proto.RegDynPD, 0x00))
	s.do("feature", d.WriteReg(proto.RegFeature, 0x01))
	s.do("activate features", d.Activate(proto.ActivateFeatures))

	// The Beken bank switch is harmless on an nRF24L01: the second
	// activate below undoes whatever the first one did.
	chip := ChipNRF24L01
	s.do("bank switch", d.Activate(proto.ActivateBank))
	status, err := d.ReadReg(proto.RegStatus)
	s.do("read status", err)
	if err == nil && status&0x80 != 0 {
		chip = ChipBK2421
		for _, b := range bekenBank1 {
			data := b.data
			s.do(fmt.Sprintf("bank1 reg %02X", b.reg), d.WriteRegMulti(b.reg, data[:]))
		}
	}
	s.do("bank switch", d.Activate(proto.ActivateBank))

	return chip, s.err()
}
