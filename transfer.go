package spitft

import "fmt"

// transfer clocks bytes into the shift registers inside an open transaction.
func (d *Dev) transfer(bs ...byte) error {
	for _, b := range bs {
		if err := d.bus.Transfer(b); err != nil {
			return fmt.Errorf("spitft: bus: %w", err)
		}
	}
	return nil
}

// traceWord logs a latched word when debug logging is on.
func (d *Dev) traceWord(op string, w uint16) {
	if !d.trace {
		return
	}
	mode := "data"
	if d.command {
		mode = "cmd"
	}
	d.log.Debug("spitft: wire", "op", op, "mode", mode, "word", fmt.Sprintf("0x%04X", w))
}

// Write8 latches one byte onto the bus. The byte is clocked twice so both
// shift registers carry it. DC is left as the caller set it.
func (d *Dev) Write8(b byte) error {
	if err := d.beginTransaction(); err != nil {
		return err
	}
	d.traceWord("write8", uint16(b)<<8|uint16(b))
	return d.closeTransaction(d.transfer(b, b))
}

// Write16 latches one 16-bit word, high byte first.
func (d *Dev) Write16(w uint16) error {
	if err := d.beginTransaction(); err != nil {
		return err
	}
	d.traceWord("write16", w)
	return d.closeTransaction(d.transfer(byte(w>>8), byte(w)))
}

// Write32 latches a 32-bit value as two words, upper half first. Each half is
// its own transaction.
func (d *Dev) Write32(l uint32) error {
	if err := d.Write16(uint16(l >> 16)); err != nil {
		return err
	}
	return d.Write16(uint16(l))
}

// WriteCommand sends a command byte: DC low, Write8, DC high.
func (d *Dev) WriteCommand(cmd byte) error {
	if d.halted {
		return ErrHalted
	}
	if err := d.commandMode(); err != nil {
		return err
	}
	err := d.Write8(cmd)
	if derr := d.dataMode(); err == nil {
		err = derr
	}
	return err
}

// WriteCommand16 sends a command word: DC low, Write16, DC high.
func (d *Dev) WriteCommand16(cmd uint16) error {
	if d.halted {
		return ErrHalted
	}
	if err := d.commandMode(); err != nil {
		return err
	}
	err := d.Write16(cmd)
	if derr := d.dataMode(); err == nil {
		err = derr
	}
	return err
}

// SendCommand sends cmd followed by its parameters, one word per
// transaction.
//
// With Opts.EchoCommandPayload the command byte is sent in place of every
// parameter word and latched twice; only len(data) matters then.
func (d *Dev) SendCommand(cmd byte, data []uint16) error {
	if err := d.WriteCommand(cmd); err != nil {
		return err
	}
	for _, w := range data {
		if !d.echo {
			if err := d.Write16(w); err != nil {
				return err
			}
			continue
		}
		if err := d.Write16(uint16(cmd)); err != nil {
			return err
		}
		if err := d.relatch(); err != nil {
			return err
		}
	}
	return nil
}

// SendCommand16 sends a command for controllers that take 16-bit commands
// and want the register address reissued before every parameter byte. The
// address is incremented after each parameter. With no data only the
// command word is sent.
func (d *Dev) SendCommand16(cmd uint16, data []byte) error {
	if len(data) == 0 {
		return d.WriteCommand16(cmd)
	}
	for _, b := range data {
		if err := d.WriteCommand16(cmd); err != nil {
			return err
		}
		if err := d.Write16(uint16(b)); err != nil {
			return err
		}
		cmd++
	}
	return nil
}

// CanRead reports whether the transport can read from the panel. It cannot:
// the read functions below always fail with ErrReadUnsupported and must not
// be used to detect whether a panel is present.
func (d *Dev) CanRead() bool {
	return false
}

// ReadCommand8 would read byte index of register cmd.
func (d *Dev) ReadCommand8(cmd, index byte) (byte, error) {
	return 0, ErrReadUnsupported
}

// ReadCommand16 would read the 16-bit register addr.
func (d *Dev) ReadCommand16(addr uint16) (uint16, error) {
	return 0, ErrReadUnsupported
}

// Read8 would read one byte from the panel.
func (d *Dev) Read8() (byte, error) {
	return 0, ErrReadUnsupported
}

// Read16 would read one word from the panel.
func (d *Dev) Read16() (uint16, error) {
	return 0, ErrReadUnsupported
}
