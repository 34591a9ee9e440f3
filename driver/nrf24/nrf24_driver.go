// Package nrf24 drives an nRF24L01 (or a BK2421 clone) over a Linux SPI bus
// with a GPIO line for CE.
package nrf24

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"

	proto "github.com/ystepanoff/e012tx/protocol"
	"github.com/ystepanoff/e012tx/transport"
)

var log = logrus.WithField("component", "nrf24")

// SPI command words
const (
	cmdReadReg        byte = 0x00
	cmdWriteReg       byte = 0x20
	cmdWriteTxPayload byte = 0xA0
	cmdFlushTx        byte = 0xE1
	cmdFlushRx        byte = 0xE2
	cmdActivate       byte = 0x50
	cmdNop            byte = 0xFF

	regMask byte = 0x1F
)

// RF_SETUP after power on: 2Mbps, 0dBm, LNA gain.
const rfSetupDefault byte = 0x0F

// Settle time between power up and raising CE.
const txSettle = 130 * time.Microsecond

// Settings name the bus and pin the module is wired to.
type Settings struct {
	Port  string
	CE    string
	Speed physic.Frequency
}

type Driver struct {
	mu      sync.Mutex
	port    spi.PortCloser
	conn    spi.Conn
	ce      gpio.PinOut
	rfSetup byte
	status  byte
}

var _ transport.Transceiver = (*Driver)(nil)

// Open initialises periph, connects to the SPI port and drives CE low.
func Open(s Settings) (*Driver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host.Init: %w", err)
	}
	port, err := spireg.Open(s.Port)
	if err != nil {
		return nil, fmt.Errorf("spireg.Open %q: %w", s.Port, err)
	}
	speed := s.Speed
	if speed == 0 {
		speed = 4 * physic.MegaHertz
	}
	conn, err := port.Connect(speed, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("port.Connect: %w", err)
	}
	ce := gpioreg.ByName(s.CE)
	if ce == nil {
		port.Close()
		return nil, ErrorPinNotFound
	}
	d := NewWithConn(conn, ce)
	d.port = port
	if err := d.setCE(gpio.Low); err != nil {
		port.Close()
		return nil, err
	}
	log.WithFields(logrus.Fields{"port": s.Port, "ce": s.CE, "speed": speed}).Info("nRF24L01 opened")
	return d, nil
}

// NewWithConn wraps an already connected SPI device.
func NewWithConn(conn spi.Conn, ce gpio.PinOut) *Driver {
	return &Driver{conn: conn, ce: ce, rfSetup: rfSetupDefault}
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ce != nil {
		d.ce.Out(gpio.Low)
	}
	if d.port == nil {
		return nil
	}
	err := d.port.Close()
	d.port = nil
	d.conn = nil
	return err
}

// command shifts out the command word followed by data, LSByte first, and
// returns the bytes clocked back after the status byte.
func (d *Driver) command(cmd byte, data []byte) ([]byte, error) {
	if d.conn == nil {
		return nil, ErrorNotOpen
	}
	w := make([]byte, 1+len(data))
	w[0] = cmd
	copy(w[1:], data)
	r := make([]byte, len(w))
	if err := d.conn.Tx(w, r); err != nil {
		return nil, fmt.Errorf("spi tx %02X: %w", cmd, err)
	}
	d.status = r[0]
	return r[1:], nil
}

func (d *Driver) setCE(l gpio.Level) error {
	if err := d.ce.Out(l); err != nil {
		return fmt.Errorf("CE out: %w", err)
	}
	return nil
}

func (d *Driver) writeReg(reg byte, data []byte) error {
	if reg > regMask {
		return ErrorInvalidRegister
	}
	_, err := d.command(cmdWriteReg|reg, data)
	return err
}

func (d *Driver) readReg(reg byte) (byte, error) {
	if reg > regMask {
		return 0, ErrorInvalidRegister
	}
	r, err := d.command(cmdReadReg|reg, []byte{cmdNop})
	if err != nil {
		return 0, err
	}
	return r[0], nil
}

// Initialize drops CE and programs 1Mbps on top of the power-on RF_SETUP.
func (d *Driver) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.setCE(gpio.Low); err != nil {
		return err
	}
	d.rfSetup = rfSetupDefault
	return d.setBitrate(proto.Bitrate1M)
}

// Reset flushes both FIFOs and checks that the status strobed by NOP matches
// the STATUS register with no interrupt pending, then powers the chip down.
func (d *Driver) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.command(cmdFlushTx, nil); err != nil {
		return err
	}
	if _, err := d.command(cmdFlushRx, nil); err != nil {
		return err
	}
	if _, err := d.command(cmdNop, nil); err != nil {
		return err
	}
	strobed := d.status
	reg, err := d.readReg(proto.RegStatus)
	if err != nil {
		return err
	}
	if err := d.setMode(proto.ModeOff); err != nil {
		return err
	}
	if strobed != reg || strobed&0x0F != 0x0E {
		log.WithFields(logrus.Fields{"nop": strobed, "status": reg}).Warn("unexpected status after reset")
		return ErrorResetMismatch
	}
	return nil
}

func (d *Driver) FlushTx() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.command(cmdFlushTx, nil)
	return err
}

func (d *Driver) FlushRx() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.command(cmdFlushRx, nil)
	return err
}

func (d *Driver) WriteReg(reg, value byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeReg(reg, []byte{value})
}

func (d *Driver) WriteRegMulti(reg byte, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeReg(reg, data)
}

func (d *Driver) ReadReg(reg byte) (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readReg(reg)
}

func (d *Driver) Activate(code byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.command(cmdActivate, []byte{code})
	return err
}

func (d *Driver) WritePayload(data []byte) error {
	if len(data) > proto.MaxFrameSize {
		return ErrorPayloadLength
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.command(cmdWriteTxPayload, data)
	return err
}

func (d *Driver) SetChannel(ch uint8) error {
	if ch > proto.MaxRFChannel {
		return ErrorInvalidChannel
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeReg(proto.RegRFCh, []byte{ch})
}

func (d *Driver) SetBitrate(br proto.Bitrate) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setBitrate(br)
}

func (d *Driver) setBitrate(br proto.Bitrate) error {
	d.rfSetup &^= proto.BV(proto.BitRFDrLow) | proto.BV(proto.BitRFDrHigh)
	switch br {
	case proto.Bitrate2M:
		d.rfSetup |= proto.BV(proto.BitRFDrHigh)
	case proto.Bitrate250K:
		d.rfSetup |= proto.BV(proto.BitRFDrLow)
	}
	return d.writeReg(proto.RegRFSetup, []byte{d.rfSetup})
}

func (d *Driver) SetPower(p proto.Power) error {
	if !p.Valid() {
		return ErrorInvalidPower
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rfSetup = d.rfSetup&^(0x03<<proto.BitRFPower) | p.RFSetupBits()
	return d.writeReg(proto.RegRFSetup, []byte{d.rfSetup})
}

func (d *Driver) SetTxRxMode(m proto.Mode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setMode(m)
}

func (d *Driver) setMode(m proto.Mode) error {
	if err := d.setCE(gpio.Low); err != nil {
		return err
	}
	switch m {
	case proto.ModeTx, proto.ModeRx:
		if err := d.writeReg(proto.RegStatus, []byte{proto.StatusClearIRQ}); err != nil {
			return err
		}
		config := proto.BV(proto.BitEnCRC) | proto.BV(proto.BitCRCO) | proto.BV(proto.BitPwrUp)
		if m == proto.ModeRx {
			if _, err := d.command(cmdFlushRx, nil); err != nil {
				return err
			}
			config |= proto.BV(proto.BitPrimRx)
		}
		if err := d.writeReg(proto.RegConfig, []byte{config}); err != nil {
			return err
		}
		time.Sleep(txSettle)
		return d.setCE(gpio.High)
	default:
		return d.writeReg(proto.RegConfig, []byte{proto.BV(proto.BitEnCRC)})
	}
}
