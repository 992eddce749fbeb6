package spitft

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"tinygo.org/x/drivers"
)

// BitOrder is the bit order of bytes on the SPI bus.
type BitOrder uint8

const (
	MSBFirst BitOrder = iota
	LSBFirst
)

func (o BitOrder) String() string {
	if o == LSBFirst {
		return "LSBFirst"
	}
	return "MSBFirst"
}

// Settings is the SPI clock configuration a transaction runs with.
type Settings struct {
	Freq  physic.Frequency
	Mode  spi.Mode
	Order BitOrder
}

// Bus is the serial peripheral feeding the shift registers.
//
// Begin claims the bus exclusively with the given clock settings, Transfer
// clocks one byte out and End releases the claim. Bytes may be buffered
// until End. Begin is never called twice without an End in between.
type Bus interface {
	Begin(s Settings) error
	Transfer(b byte) error
	End() error
}

// SPIBus is a Bus on a periph.io SPI port.
//
// The port is connected on the first Begin and its clock can only be
// lowered afterwards: periph ports run at the lesser of the connect-time
// frequency and the LimitSpeed one. The mutex is the claim, so several
// devices may share one SPIBus.
type SPIBus struct {
	mu   sync.Mutex
	p    spi.Port
	c    spi.Conn
	s    Settings         // settings c was opened with
	freq physic.Frequency // clock currently applied
	buf  []byte
}

// NewSPIBus returns a Bus on p.
func NewSPIBus(p spi.Port) *SPIBus {
	return &SPIBus{p: p}
}

// Begin implements Bus.
func (b *SPIBus) Begin(s Settings) error {
	b.mu.Lock()
	if err := b.connect(s); err != nil {
		b.mu.Unlock()
		return err
	}
	b.buf = make([]byte, 0, 4)
	return nil
}

// MaxFreq returns the frequency the port was connected at, or 0 before the
// first Begin.
func (b *SPIBus) MaxFreq() physic.Frequency {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.c == nil {
		return 0
	}
	return b.s.Freq
}

// connect opens the connection or adapts it to s.
func (b *SPIBus) connect(s Settings) error {
	if b.c == nil {
		mode := s.Mode
		if s.Order == LSBFirst {
			mode |= spi.LSBFirst
		}
		c, err := b.p.Connect(s.Freq, mode, 8)
		if err != nil {
			return fmt.Errorf("spitft: spi connect: %w", err)
		}
		b.c = c
		b.s = s
		b.freq = s.Freq
		return nil
	}
	if s.Mode != b.s.Mode || s.Order != b.s.Order {
		return errors.New("spitft: spi mode cannot change once connected")
	}
	if s.Freq == b.freq {
		return nil
	}
	if s.Freq > b.s.Freq {
		return fmt.Errorf("%w: %s > %s", ErrSpeedAboveConnect, s.Freq, b.s.Freq)
	}
	l, ok := b.p.(interface {
		LimitSpeed(f physic.Frequency) error
	})
	if !ok {
		return errors.New("spitft: spi port cannot change speed once connected")
	}
	if err := l.LimitSpeed(s.Freq); err != nil {
		return fmt.Errorf("spitft: spi speed: %w", err)
	}
	b.freq = s.Freq
	return nil
}

// Transfer implements Bus.
func (b *SPIBus) Transfer(c byte) error {
	b.buf = append(b.buf, c)
	return nil
}

// End implements Bus. The bytes of the transaction go out in one Tx.
func (b *SPIBus) End() error {
	defer b.mu.Unlock()
	if len(b.buf) == 0 {
		return nil
	}
	return b.c.Tx(b.buf, nil)
}

// Close closes the underlying port when it supports it.
func (b *SPIBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (b *SPIBus) String() string {
	return fmt.Sprintf("spitft.SPIBus{%s}", b.p)
}

// TinyGoBus is a Bus on a TinyGo SPI peripheral.
//
// TinyGo peripherals are configured by the board code before use, so the
// settings passed to Begin are not applied.
type TinyGoBus struct {
	mu sync.Mutex
	s  drivers.SPI
}

// NewTinyGoBus returns a Bus on s.
func NewTinyGoBus(s drivers.SPI) *TinyGoBus {
	return &TinyGoBus{s: s}
}

// Begin implements Bus.
func (b *TinyGoBus) Begin(Settings) error {
	b.mu.Lock()
	return nil
}

// Transfer implements Bus.
func (b *TinyGoBus) Transfer(c byte) error {
	_, err := b.s.Transfer(c)
	return err
}

// End implements Bus.
func (b *TinyGoBus) End() error {
	b.mu.Unlock()
	return nil
}

var (
	_ Bus = (*SPIBus)(nil)
	_ Bus = (*TinyGoBus)(nil)
)
