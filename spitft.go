// Package spitft drives TFT panels wired through the hybrid SPI-to-parallel
// transport of the 2.8" TFT-LCD breakout: pixel data is clocked over a
// hardware SPI bus into shift registers, and each 16-bit word is latched onto
// the panel's parallel bus by strobing WR.
package spitft

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/spitft/image565"
	"tinygo.org/x/drivers"
)

// DefaultFreq is the SPI clock used when Opts.Freq is zero.
const DefaultFreq = 24 * physic.MegaHertz

var (
	// ErrHalted is returned by drawing operations after Halt.
	ErrHalted = errors.New("spitft: halted")
	// ErrReadUnsupported is returned by every read operation: the shift
	// registers only go one way, so nothing can be read back from the panel.
	ErrReadUnsupported = errors.New("spitft: transport is write-only")
	// ErrNestedTransaction is returned when a bus transaction is begun while
	// another one is still open.
	ErrNestedTransaction = errors.New("spitft: bus transaction already open")
	// ErrNoTransaction is returned when ending a bus transaction that was
	// never begun.
	ErrNoTransaction = errors.New("spitft: no open bus transaction")
	// ErrNestedWrite is returned by StartWrite while a write batch is open.
	ErrNestedWrite = errors.New("spitft: write batch already open")
	// ErrNoWrite is returned by raw drawing operations issued outside a write
	// batch, and by EndWrite without a matching StartWrite.
	ErrNoWrite = errors.New("spitft: no open write batch")
	// ErrSpeedAboveConnect is returned when the clock is raised past the
	// frequency the SPI port was connected at.
	ErrSpeedAboveConnect = errors.New("spitft: spi clock above the connect-time frequency")
)

// sleep is replaced in tests.
var sleep = time.Sleep

// Rotation is a clockwise panel rotation in quarter turns.
type Rotation uint8

const (
	Rotation0 Rotation = iota
	Rotation90
	Rotation180
	Rotation270
)

// Controller is the command surface a Panel uses to program the controller.
// *Dev implements it.
type Controller interface {
	Write8(b byte) error
	Write16(w uint16) error
	Write32(l uint32) error
	WriteCommand(cmd byte) error
	WriteCommand16(cmd uint16) error
	SendCommand(cmd byte, data []uint16) error
	SendCommand16(cmd uint16, data []byte) error
}

// Panel holds the controller-specific addressing knowledge.
//
// SetAddrWindow programs the controller so that the following pixel words
// fill the rectangle at (x, y) of size w x h. It is only ever called with a
// rectangle that lies fully on screen.
type Panel interface {
	SetAddrWindow(c Controller, x, y, w, h int) error
}

// Initializer is implemented by panels that need a command sequence after the
// hardware reset.
type Initializer interface {
	Init(c Controller) error
}

// Inverter is implemented by panels that support color inversion.
type Inverter interface {
	InvertCommands() (on, off byte)
}

// Rotator is implemented by panels that can change their scan direction.
// It returns the logical width and height after the rotation.
type Rotator interface {
	SetRotation(c Controller, r Rotation) (w, h int, err error)
}

// Halter is implemented by panels that can be switched off.
type Halter interface {
	Halt(c Controller) error
}

// Opts is the configuration for the display.
type Opts struct {
	// Logical display dimensions in pixels (default: 240x320)
	W int
	H int

	// Control lines
	CS  gpio.PinOut // Chip select, active low (required)
	DC  gpio.PinOut // Data/command: high = data, low = command (required)
	WR  gpio.PinOut // Write strobe, latches a word on its rising edge (required)
	RD  gpio.PinOut // Read strobe, parked high (optional)
	RST gpio.PinOut // Reset, active low (optional)

	// SPI clock configuration (default: DefaultFreq, Mode0, MSB first). On
	// an SPIBus Freq is also the ceiling for SetSPISpeed.
	Freq  physic.Frequency
	Mode  spi.Mode
	Order BitOrder

	// Panel supplies the address window. Required.
	Panel Panel

	// EchoCommandPayload makes SendCommand send the command byte as every
	// payload word instead of the supplied data, the way the vendor firmware
	// does. Each such word is latched twice: a second empty claim repeats
	// the CS and WR strobes.
	EchoCommandPayload bool

	// Logger receives bring-up messages and, at debug level, a trace of
	// every word put on the wire. nil discards.
	Logger *slog.Logger
}

// Dev is the device handle for a display on the hybrid transport.
//
// Dev is not safe for concurrent use. The Bus it is given may be shared
// with other devices; each word transfer claims it exclusively.
type Dev struct {
	// Communication
	bus      Bus
	settings Settings

	// Control lines
	cs  line
	dc  line
	wr  line
	rd  line
	rst line

	panel Panel
	rect  image.Rectangle
	echo  bool

	log   *slog.Logger
	trace bool

	// State
	claimed bool // bus transaction open
	inWrite bool // write batch open
	command bool // DC driven low
	halted  bool
}

// New creates a display on bus, resets the panel and runs the panel's
// initialization sequence.
//
// The CS, DC and WR lines and the Panel are required.
func New(bus Bus, opts *Opts) (*Dev, error) {
	if bus == nil {
		return nil, errors.New("spitft: bus is required")
	}
	if opts == nil {
		return nil, errors.New("spitft: options are required")
	}
	if opts.CS == nil || opts.DC == nil || opts.WR == nil {
		return nil, errors.New("spitft: CS, DC and WR lines are required")
	}
	if opts.Panel == nil {
		return nil, errors.New("spitft: panel is required")
	}

	w, h := opts.W, opts.H
	if w == 0 && h == 0 {
		w, h = 240, 320
	}
	if w <= 0 || h <= 0 || w > 0x7FFF || h > 0x7FFF {
		return nil, errors.New("spitft: width and height must be between 1 and 32767")
	}

	freq := opts.Freq
	if freq == 0 {
		freq = DefaultFreq
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	d := &Dev{
		bus:      bus,
		settings: Settings{Freq: freq, Mode: opts.Mode, Order: opts.Order},
		cs:       line{p: opts.CS, idle: gpio.High},
		dc:       line{p: opts.DC, idle: gpio.High},
		wr:       line{p: opts.WR, idle: gpio.High},
		rd:       line{p: opts.RD, idle: gpio.High},
		rst:      line{p: opts.RST, idle: gpio.High},
		panel:    opts.Panel,
		rect:     image.Rect(0, 0, w, h),
		echo:     opts.EchoCommandPayload,
		log:      logger,
		trace:    logger.Enabled(context.Background(), slog.LevelDebug),
	}

	if err := d.init(); err != nil {
		return nil, err
	}
	if in, ok := d.panel.(Initializer); ok {
		if err := in.Init(d); err != nil {
			return nil, fmt.Errorf("spitft: panel init: %w", err)
		}
	}

	d.log.Info("spitft: display ready", "width", w, "height", h, "freq", freq.String())
	return d, nil
}

// init parks the control lines, primes the shift registers and resets the
// panel.
func (d *Dev) init() error {
	// CS stays asserted for the lifetime of the device; each transaction
	// ends by pulsing it.
	if err := d.cs.assert(); err != nil {
		return err
	}
	if err := d.dataMode(); err != nil {
		return err
	}

	// Clock a zero word into the shift registers so the parallel bus starts
	// from a known state. WR is not strobed: nothing is latched.
	if err := d.bus.Begin(d.settings); err != nil {
		return fmt.Errorf("spitft: bus: %w", err)
	}
	err := d.transfer(0x00, 0x00)
	if eerr := d.bus.End(); err == nil {
		err = eerr
	}
	if err != nil {
		return fmt.Errorf("spitft: bus: %w", err)
	}
	if err := d.strobeCS(); err != nil {
		return err
	}

	if err := d.wr.deassert(); err != nil {
		return err
	}
	if err := d.rd.deassert(); err != nil {
		return err
	}
	return d.reset()
}

// reset runs the hardware reset sequence if a RST line is wired.
func (d *Dev) reset() error {
	if !d.rst.present() {
		return nil
	}
	d.log.Debug("spitft: hardware reset")
	if err := d.rst.deassert(); err != nil {
		return err
	}
	sleep(100 * time.Millisecond)
	if err := d.rst.assert(); err != nil {
		return err
	}
	sleep(100 * time.Millisecond)
	if err := d.rst.deassert(); err != nil {
		return err
	}
	sleep(200 * time.Millisecond)
	return nil
}

// SetSPISpeed changes the SPI clock used by subsequent transactions.
//
// A connected SPIBus cannot go faster than the clock it was connected at,
// which is Opts.Freq; asking for more returns ErrSpeedAboveConnect and keeps
// the current clock.
func (d *Dev) SetSPISpeed(f physic.Frequency) error {
	if f == 0 {
		f = DefaultFreq
	}
	if m, ok := d.bus.(interface{ MaxFreq() physic.Frequency }); ok {
		if top := m.MaxFreq(); top != 0 && f > top {
			return fmt.Errorf("%w: %s > %s", ErrSpeedAboveConnect, f, top)
		}
	}
	d.settings.Freq = f
	return nil
}

// Settings returns the SPI clock configuration.
func (d *Dev) Settings() Settings {
	return d.settings
}

// ColorModel returns the color model of the display.
func (d *Dev) ColorModel() color.Model {
	return image565.Model
}

// Bounds returns the image bounds of the display.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Width returns the logical width in pixels.
func (d *Dev) Width() int {
	return d.rect.Dx()
}

// Height returns the logical height in pixels.
func (d *Dev) Height() int {
	return d.rect.Dy()
}

// InvertDisplay switches color inversion on or off.
func (d *Dev) InvertDisplay(invert bool) error {
	if d.halted {
		return ErrHalted
	}
	inv, ok := d.panel.(Inverter)
	if !ok {
		return errors.New("spitft: panel does not support inversion")
	}
	on, off := inv.InvertCommands()
	if invert {
		return d.WriteCommand(on)
	}
	return d.WriteCommand(off)
}

// SetRotation rotates the panel and updates the logical bounds.
func (d *Dev) SetRotation(r Rotation) error {
	if d.halted {
		return ErrHalted
	}
	rot, ok := d.panel.(Rotator)
	if !ok {
		return errors.New("spitft: panel does not support rotation")
	}
	w, h, err := rot.SetRotation(d, r%4)
	if err != nil {
		return err
	}
	d.rect = image.Rect(0, 0, w, h)
	return nil
}

// DMABusy reports whether a DMA transfer is in flight. The hybrid transport
// has no DMA, so it is always false.
func (d *Dev) DMABusy() bool {
	return false
}

// DMAWait waits for the last DMA transfer. It returns immediately.
func (d *Dev) DMAWait() {}

// Halt switches the panel off. Every write fails with ErrHalted afterwards.
func (d *Dev) Halt() error {
	if d.halted {
		return nil
	}
	d.log.Info("spitft: halt")
	var err error
	if h, ok := d.panel.(Halter); ok {
		err = h.Halt(d)
	}
	d.halted = true
	return err
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("spitft.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}

var (
	_ display.Drawer    = (*Dev)(nil)
	_ drivers.Displayer = (*Dev)(nil)
	_ Controller        = (*Dev)(nil)
)
