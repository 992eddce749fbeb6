// Package breakout brings up the 2.8" TFT-LCD breakout: an ILI9341 panel on
// the hybrid SPI-to-parallel transport of package spitft, plus the one
// native pin the module exposes to the host board.
package breakout

import (
	"errors"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/spitft"
	"periph.io/x/devices/v3/spitft/ili9341"
)

// pinByName is replaced in tests.
var pinByName = gpioreg.ByName

// Sensor is the board shim. It owns the module's native pin (the backlight
// enable on this board) and nothing else.
type Sensor struct {
	pin int
	p   gpio.PinIO
}

// NewSensor returns a shim for the given GPIO number. A negative number means
// the pin is not wired.
func NewSensor(pin int) *Sensor {
	return &Sensor{pin: pin}
}

// Pin returns the GPIO number the shim was created with.
func (s *Sensor) Pin() int {
	return s.pin
}

// initializeNative resolves the pin and drives it high. Open calls it before
// the display is brought up.
func (s *Sensor) initializeNative() error {
	if s.pin < 0 {
		return nil
	}
	name := fmt.Sprintf("GPIO%d", s.pin)
	p := pinByName(name)
	if p == nil {
		return fmt.Errorf("breakout: gpio %s not found", name)
	}
	if err := p.Out(gpio.High); err != nil {
		return fmt.Errorf("breakout: failed to drive %s high: %w", name, err)
	}
	s.p = p
	return nil
}

// SetBacklight switches the native pin.
func (s *Sensor) SetBacklight(on bool) error {
	if s.p == nil {
		return errors.New("breakout: native pin not initialized")
	}
	l := gpio.Low
	if on {
		l = gpio.High
	}
	return s.p.Out(l)
}

// Pins are the control lines between the host and the module.
type Pins struct {
	CS  gpio.PinOut
	DC  gpio.PinOut
	WR  gpio.PinOut
	RD  gpio.PinOut // optional
	RST gpio.PinOut // optional
}

// Opts is the configuration for Open. A nil *Opts uses the defaults.
type Opts struct {
	Rotation           spitft.Rotation
	Freq               physic.Frequency // default: spitft.DefaultFreq
	Mode               spi.Mode
	Order              spitft.BitOrder
	EchoCommandPayload bool
	Logger             *slog.Logger
}

// Display is a brought-up breakout.
type Display struct {
	*spitft.Dev
	Sensor *Sensor
	panel  *ili9341.Panel
}

// Open initializes the native pin, then resets and initializes the panel.
func Open(bus spitft.Bus, pins Pins, sensorPin int, opts *Opts) (*Display, error) {
	if opts == nil {
		opts = &Opts{}
	}
	s := NewSensor(sensorPin)
	if err := s.initializeNative(); err != nil {
		return nil, err
	}

	p := ili9341.New()
	d, err := spitft.New(bus, &spitft.Opts{
		W:                  ili9341.Width,
		H:                  ili9341.Height,
		CS:                 pins.CS,
		DC:                 pins.DC,
		WR:                 pins.WR,
		RD:                 pins.RD,
		RST:                pins.RST,
		Freq:               opts.Freq,
		Mode:               opts.Mode,
		Order:              opts.Order,
		Panel:              p,
		EchoCommandPayload: opts.EchoCommandPayload,
		Logger:             opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	if opts.Rotation != spitft.Rotation0 {
		if err := d.SetRotation(opts.Rotation); err != nil {
			return nil, err
		}
	}
	return &Display{Dev: d, Sensor: s, panel: p}, nil
}

// Rotation returns the panel's current rotation.
func (d *Display) Rotation() spitft.Rotation {
	return d.panel.Rotation()
}

// SetScrollArea defines fixed top and bottom areas for hardware scrolling.
func (d *Display) SetScrollArea(top, bottom int) error {
	return d.panel.SetScrollArea(d.Dev, top, bottom)
}

// ScrollTo sets the first row shown at the top of the scroll area.
func (d *Display) ScrollTo(y int) error {
	return d.panel.ScrollTo(d.Dev, y)
}

// Halt switches the panel off and drops the native pin.
func (d *Display) Halt() error {
	err := d.Dev.Halt()
	if d.Sensor.p != nil {
		if berr := d.Sensor.SetBacklight(false); err == nil {
			err = berr
		}
	}
	return err
}

// String returns a string representation of the display.
func (d *Display) String() string {
	return fmt.Sprintf("breakout.Display{%dx%d, pin=%d}", d.Width(), d.Height(), d.Sensor.pin)
}
