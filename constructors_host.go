//go:build !linux

// This file is built only for hosts without spidev.
package e012tx

import (
	"github.com/ystepanoff/e012tx/config"
)

func openSPI(c config.DriverConfig) (Transceiver, func() error, error) {
	return nil, nil, ErrSPIUnsupported
}
