//go:build linux

// This file is built only for Linux hosts with the nRF24L01 on spidev.
package e012tx

import (
	"periph.io/x/periph/conn/physic"

	"github.com/ystepanoff/e012tx/config"
	"github.com/ystepanoff/e012tx/driver/nrf24"
)

func openSPI(c config.DriverConfig) (Transceiver, func() error, error) {
	d, err := nrf24.Open(nrf24.Settings{
		Port:  c.SPIPort,
		CE:    c.CEPin,
		Speed: physic.Frequency(c.SpeedHz) * physic.Hertz,
	})
	if err != nil {
		return nil, nil, err
	}
	return d, d.Close, nil
}
