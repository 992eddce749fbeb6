// Package config holds the YAML configuration of a breakout: which SPI port
// and GPIO lines it is wired to, the clock settings and the panel geometry.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/spitft"
)

// Pins names the GPIO lines in the periph.io registry (e.g. "GPIO25").
// Empty RD or RST means the line is not wired.
type Pins struct {
	CS  string `yaml:"cs"`
	DC  string `yaml:"dc"`
	WR  string `yaml:"wr"`
	RD  string `yaml:"rd"`
	RST string `yaml:"rst"`
}

// Config is the top-level configuration.
type Config struct {
	// SPI is the port name in the periph.io registry. Empty picks the first
	// port available.
	SPI string `yaml:"spi"`

	// Hz is the SPI clock.
	Hz int64 `yaml:"hz"`

	// Mode is the SPI mode, 0 to 3.
	Mode int `yaml:"mode"`

	LSBFirst bool `yaml:"lsb_first"`

	// Rotation in degrees clockwise: 0, 90, 180 or 270.
	Rotation int `yaml:"rotation"`

	Pins Pins `yaml:"pins"`

	// SensorPin is the GPIO number of the module's native pin. -1 means not
	// wired.
	SensorPin int `yaml:"sensor_pin"`

	// LogLevel is one of debug, info, warn or error. debug traces every word
	// put on the wire.
	LogLevel string `yaml:"log_level"`

	// EchoCommandPayload reproduces the vendor firmware's command framing.
	EchoCommandPayload bool `yaml:"echo_command_payload"`
}

// Default returns the configuration of a breakout on a Raspberry Pi header.
func Default() *Config {
	return &Config{
		Hz:        24_000_000,
		Pins:      defaultPins(),
		SensorPin: 18,
		LogLevel:  "info",
	}
}

func defaultPins() Pins {
	return Pins{CS: "GPIO25", DC: "GPIO24", WR: "GPIO23", RD: "GPIO22", RST: "GPIO27"}
}

// Normalize fills in missing or invalid values so that partial files still
// work.
func (c *Config) Normalize() {
	if c.Hz <= 0 {
		c.Hz = 24_000_000
	}
	if c.Mode < 0 || c.Mode > 3 {
		c.Mode = 0
	}
	if c.Rotation%90 != 0 {
		c.Rotation = 0
	}
	c.Rotation = ((c.Rotation % 360) + 360) % 360

	// The required lines fall back as a set; a half-wired default would
	// drive someone else's pins.
	if c.Pins.CS == "" || c.Pins.DC == "" || c.Pins.WR == "" {
		d := defaultPins()
		c.Pins.CS, c.Pins.DC, c.Pins.WR = d.CS, d.DC, d.WR
	}
	if c.SensorPin < -1 {
		c.SensorPin = -1
	}

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		c.LogLevel = "info"
	}
}

// Freq returns the SPI clock.
func (c *Config) Freq() physic.Frequency {
	return physic.Frequency(c.Hz) * physic.Hertz
}

// SPIMode returns the SPI mode.
func (c *Config) SPIMode() spi.Mode {
	return spi.Mode(c.Mode)
}

// BitOrder returns the bit order on the SPI bus.
func (c *Config) BitOrder() spitft.BitOrder {
	if c.LSBFirst {
		return spitft.LSBFirst
	}
	return spitft.MSBFirst
}

// PanelRotation returns the rotation in quarter turns.
func (c *Config) PanelRotation() spitft.Rotation {
	return spitft.Rotation(c.Rotation / 90 % 4)
}

// Level returns the log level.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Load reads the configuration at path. On first run the file does not exist
// yet; the defaults are written there and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config: path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := Default()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Save writes cfg to path atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config: path is empty")
	}
	if cfg == nil {
		return errors.New("config: config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".spitft-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save writes c to path.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
