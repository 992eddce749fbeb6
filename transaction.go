package spitft

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// line is a control signal with its resting level.
type line struct {
	p    gpio.PinOut
	idle gpio.Level
}

// present reports whether the line is wired. Optional lines may be nil or
// gpio.INVALID.
func (l line) present() bool {
	return l.p != nil && l.p != gpio.INVALID
}

func (l line) out(v gpio.Level) error {
	if !l.present() {
		return nil
	}
	if err := l.p.Out(v); err != nil {
		return fmt.Errorf("spitft: failed to drive %s %s: %w", l.p, v, err)
	}
	return nil
}

// assert drives the line away from its resting level.
func (l line) assert() error {
	return l.out(!l.idle)
}

// deassert returns the line to its resting level.
func (l line) deassert() error {
	return l.out(l.idle)
}

// strobeCS pulses chip select high then low. CS rests asserted.
func (d *Dev) strobeCS() error {
	if err := d.cs.deassert(); err != nil {
		return err
	}
	return d.cs.assert()
}

// strobeWR pulses the write strobe low then high. The rising edge latches the
// shift-register word onto the panel.
func (d *Dev) strobeWR() error {
	if err := d.wr.assert(); err != nil {
		return err
	}
	return d.wr.deassert()
}

// commandMode drives DC low.
func (d *Dev) commandMode() error {
	if err := d.dc.assert(); err != nil {
		return err
	}
	d.command = true
	return nil
}

// dataMode drives DC high.
func (d *Dev) dataMode() error {
	if err := d.dc.deassert(); err != nil {
		return err
	}
	d.command = false
	return nil
}

// beginTransaction claims the bus with the stored clock settings.
func (d *Dev) beginTransaction() error {
	if d.halted {
		return ErrHalted
	}
	if d.claimed {
		return ErrNestedTransaction
	}
	if err := d.bus.Begin(d.settings); err != nil {
		return fmt.Errorf("spitft: bus: %w", err)
	}
	d.claimed = true
	return nil
}

// endTransaction releases the bus, then returns CS and WR to rest. The WR
// pulse is what moves the word into the panel.
func (d *Dev) endTransaction() error {
	if !d.claimed {
		return ErrNoTransaction
	}
	d.claimed = false
	if err := d.bus.End(); err != nil {
		return fmt.Errorf("spitft: bus: %w", err)
	}
	if err := d.strobeCS(); err != nil {
		return err
	}
	return d.strobeWR()
}

// relatch repeats the strobes of the last word with an empty claim, so the
// shift registers latch their contents a second time.
func (d *Dev) relatch() error {
	if err := d.beginTransaction(); err != nil {
		return err
	}
	return d.endTransaction()
}

// closeTransaction ends the open transaction and keeps the first error.
func (d *Dev) closeTransaction(err error) error {
	if eerr := d.endTransaction(); err == nil {
		err = eerr
	}
	return err
}

// StartWrite opens a write batch.
//
// The raw drawing operations (SetAddrWindow, WritePixels, WriteColor,
// WritePixel, WriteFillRect, WriteFillRectPreclipped, WriteFastHLine and
// WriteFastVLine) must be issued between StartWrite and EndWrite. Batches do
// not nest. Self-contained operations such as FillRect open their own batch
// and fail with ErrNestedWrite inside one.
func (d *Dev) StartWrite() error {
	if d.halted {
		return ErrHalted
	}
	if d.inWrite {
		return ErrNestedWrite
	}
	d.inWrite = true
	return nil
}

// EndWrite closes the write batch opened by StartWrite.
func (d *Dev) EndWrite() error {
	if !d.inWrite {
		return ErrNoWrite
	}
	d.inWrite = false
	return nil
}

// batch runs fn inside its own write batch.
func (d *Dev) batch(fn func() error) error {
	if err := d.StartWrite(); err != nil {
		return err
	}
	err := fn()
	if eerr := d.EndWrite(); err == nil {
		err = eerr
	}
	return err
}
