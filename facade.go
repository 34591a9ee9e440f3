// Package e012tx drives E012 quadcopter receivers from an nRF24L01 that
// emulates the HS6200 framing.
package e012tx

import (
	"errors"

	"github.com/ystepanoff/e012tx/config"
	"github.com/ystepanoff/e012tx/driver/stub"
	"github.com/ystepanoff/e012tx/protocol"
	"github.com/ystepanoff/e012tx/transport"
)

// The SPI driver is split into build-tag specific files:
// - constructors_nrf.go - Linux hosts with the module on spidev
// - constructors_host.go - everything else, stub only

// Re-export types for backward compatibility
type (
	Transmitter  = transport.Transmitter
	Transceiver  = transport.Transceiver
	Capabilities = transport.Capabilities
	Status       = transport.Status
	Inputs       = transport.Inputs
	LinkIdentity = protocol.LinkIdentity
	Power        = protocol.Power
	HopPolicy    = protocol.HopPolicy
)

// Error constants exposed in the public API
var (
	ErrInvalidPayload = protocol.ErrInvalidPayload
	ErrInvalidChannel = protocol.ErrInvalidChannel
	ErrInvalidPower   = protocol.ErrInvalidPower
	ErrResetFailed    = transport.ErrResetFailed
	ErrNotStarted     = transport.ErrNotStarted

	ErrUnknownDriver  = errors.New("unknown driver kind")
	ErrSPIUnsupported = errors.New("spi driver is only available on linux")
)

// Constants exposed in the public API
const (
	HopSingle = protocol.HopSingle
	HopSpread = protocol.HopSpread

	PowerCeiling = protocol.PowerCeiling
)

// Link is a transmitter bundled with the inputs it reads and the driver it
// owns.
type Link struct {
	*transport.Transmitter
	Inputs *transport.Inputs

	closeDriver func() error
}

// Open builds a Link from a validated configuration. The transmitter is not
// started; call Init.
func Open(cfg *config.Config) (*Link, error) {
	tc, err := cfg.Transport()
	if err != nil {
		return nil, err
	}
	d, closeDriver, err := OpenDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}
	in := transport.NewInputs(cfg.Power())
	return &Link{
		Transmitter: transport.NewTransmitterWithDriver(d, in, in, tc),
		Inputs:      in,
		closeDriver: closeDriver,
	}, nil
}

// Close resets the transceiver and releases the driver.
func (l *Link) Close() error {
	err := l.Deinit()
	if l.closeDriver != nil {
		err = errors.Join(err, l.closeDriver())
	}
	return err
}

// OpenDriver returns the transceiver selected by c and a function releasing
// it, which may be nil.
func OpenDriver(c config.DriverConfig) (Transceiver, func() error, error) {
	switch c.Kind {
	case config.DriverStub:
		return stub.New(), nil, nil
	case config.DriverSPI:
		return openSPI(c)
	}
	return nil, nil, ErrUnknownDriver
}
