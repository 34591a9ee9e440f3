// Package config loads the transmitter configuration: built-in defaults,
// then a YAML file, then E012_* environment overrides.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	proto "github.com/ystepanoff/e012tx/protocol"
	"github.com/ystepanoff/e012tx/transport"
)

// Driver kinds
const (
	DriverStub = "stub"
	DriverSPI  = "spi"
)

type Config struct {
	Driver   DriverConfig   `yaml:"driver"`
	Identity IdentityConfig `yaml:"identity"`
	Radio    RadioConfig    `yaml:"radio"`
	API      APIConfig      `yaml:"api"`
	Log      LogConfig      `yaml:"log"`
}

// DriverConfig selects the transceiver backend and its wiring.
type DriverConfig struct {
	Kind    string `yaml:"kind"`
	SPIPort string `yaml:"spiPort"`
	CEPin   string `yaml:"cePin"`
	SpeedHz int64  `yaml:"speedHz"`
}

// IdentityConfig holds the inputs of the link identity derivation. Serial is
// hex; SerialFile, when set, is read instead and may hold raw bytes.
type IdentityConfig struct {
	Serial     string `yaml:"serial"`
	SerialFile string `yaml:"serialFile"`
	FixedID    uint32 `yaml:"fixedId"`
	HopPolicy  string `yaml:"hopPolicy"`
}

type RadioConfig struct {
	TxPower   int `yaml:"txPower"`
	BindCount int `yaml:"bindCount"`
}

type APIConfig struct {
	Listen string `yaml:"listen"`
}

// LogConfig sets the level and, when File is set, a rotated log file.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
}

var ErrInvalidSerial = errors.New("config: serial is not valid hex")

// Load builds the configuration. An empty path skips the file stage.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		Driver: DriverConfig{
			Kind:    DriverStub,
			SPIPort: "/dev/spidev0.0",
			CEPin:   "GPIO25",
			SpeedHz: 4000000,
		},
		Identity: IdentityConfig{
			HopPolicy: proto.HopSingle.String(),
		},
		Radio: RadioConfig{
			TxPower:   int(proto.Power10mW),
			BindCount: proto.DefaultBindCount,
		},
		API: APIConfig{
			Listen: "127.0.0.1:8024",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

func loadFromFile(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, set func(uint64)) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.ParseUint(v, 0, 32); err == nil {
				set(n)
			}
		}
	}

	str("E012_DRIVER_KIND", &cfg.Driver.Kind)
	str("E012_SPI_PORT", &cfg.Driver.SPIPort)
	str("E012_CE_PIN", &cfg.Driver.CEPin)
	str("E012_SERIAL", &cfg.Identity.Serial)
	str("E012_SERIAL_FILE", &cfg.Identity.SerialFile)
	str("E012_HOP_POLICY", &cfg.Identity.HopPolicy)
	str("E012_API_LISTEN", &cfg.API.Listen)
	str("E012_LOG_LEVEL", &cfg.Log.Level)
	str("E012_LOG_FILE", &cfg.Log.File)
	num("E012_FIXED_ID", func(n uint64) { cfg.Identity.FixedID = uint32(n) })
	num("E012_TX_POWER", func(n uint64) { cfg.Radio.TxPower = int(n) })
	num("E012_BIND_COUNT", func(n uint64) { cfg.Radio.BindCount = int(n) })
}

func (c *Config) Validate() error {
	switch c.Driver.Kind {
	case DriverStub:
	case DriverSPI:
		if c.Driver.SPIPort == "" || c.Driver.CEPin == "" {
			return fmt.Errorf("spi driver needs spiPort and cePin")
		}
		if c.Driver.SpeedHz <= 0 {
			return fmt.Errorf("invalid spi speed %d Hz", c.Driver.SpeedHz)
		}
	default:
		return fmt.Errorf("invalid driver kind %q, must be one of: %v", c.Driver.Kind, []string{DriverStub, DriverSPI})
	}
	if _, err := proto.ParseHopPolicy(c.Identity.HopPolicy); err != nil {
		return err
	}
	if c.Identity.SerialFile == "" {
		if _, err := ParseSerial(c.Identity.Serial); err != nil {
			return err
		}
	}
	if c.Radio.TxPower < 0 || c.Radio.TxPower > int(proto.Power150mW) {
		return fmt.Errorf("radio power %d out of range [0, %d]", c.Radio.TxPower, proto.Power150mW)
	}
	if c.Radio.BindCount < 1 {
		return fmt.Errorf("bind count %d must be positive", c.Radio.BindCount)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseSerial decodes a hex serial. Spaces, colons and dashes between
// digits are ignored; an empty string is an empty serial.
func ParseSerial(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', ':', '-':
			return -1
		}
		return r
	}, s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSerial, err)
	}
	return b, nil
}

// Serial returns the identity serial, reading SerialFile when it is set.
func (c *Config) Serial() ([]byte, error) {
	if c.Identity.SerialFile != "" {
		return os.ReadFile(c.Identity.SerialFile)
	}
	return ParseSerial(c.Identity.Serial)
}

func (c *Config) Power() proto.Power { return proto.Power(c.Radio.TxPower) }

// Transport converts the identity and radio sections into a session config.
func (c *Config) Transport() (transport.Config, error) {
	serial, err := c.Serial()
	if err != nil {
		return transport.Config{}, err
	}
	policy, err := proto.ParseHopPolicy(c.Identity.HopPolicy)
	if err != nil {
		return transport.Config{}, err
	}
	return transport.Config{
		Serial:    serial,
		FixedID:   c.Identity.FixedID,
		HopPolicy: policy,
		BindCount: c.Radio.BindCount,
	}, nil
}
