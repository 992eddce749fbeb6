package spitft

import (
	"bytes"
	"errors"
	"testing"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spitest"
)

func TestSPIBusRecordsTransactions(t *testing.T) {
	rec := &spitest.Record{}
	b := NewSPIBus(rec)
	s := Settings{Freq: DefaultFreq}

	for _, word := range [][]byte{{0x2A, 0x2A}, {0x00, 0xEF}} {
		if err := b.Begin(s); err != nil {
			t.Fatal(err)
		}
		for _, c := range word {
			if err := b.Transfer(c); err != nil {
				t.Fatal(err)
			}
		}
		if err := b.End(); err != nil {
			t.Fatal(err)
		}
	}
	// An empty claim sends nothing.
	if err := b.Begin(s); err != nil {
		t.Fatal(err)
	}
	if err := b.End(); err != nil {
		t.Fatal(err)
	}

	if len(rec.Ops) != 2 {
		t.Fatalf("recorded %d transfers, want 2", len(rec.Ops))
	}
	if !bytes.Equal(rec.Ops[0].W, []byte{0x2A, 0x2A}) || !bytes.Equal(rec.Ops[1].W, []byte{0x00, 0xEF}) {
		t.Errorf("recorded %#v", rec.Ops)
	}
}

// fakePort records how it was connected. Like periph's sysfs ports it
// clocks at the lesser of the connect-time and LimitSpeed frequencies.
type fakePort struct {
	freq    physic.Frequency
	mode    spi.Mode
	bits    int
	limit   physic.Frequency
	connect int
	closed  bool
	clocks  []physic.Frequency // clock of every Tx
}

func (p *fakePort) String() string { return "fake" }

func (p *fakePort) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	p.connect++
	p.freq, p.mode, p.bits = f, mode, bits
	return &fakeConn{p: p}, nil
}

func (p *fakePort) LimitSpeed(f physic.Frequency) error {
	p.limit = f
	return nil
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func (p *fakePort) clock() physic.Frequency {
	if p.limit != 0 && p.limit < p.freq {
		return p.limit
	}
	return p.freq
}

type fakeConn struct {
	p  *fakePort
	tx [][]byte
}

func (c *fakeConn) String() string { return "fake" }

func (c *fakeConn) Tx(w, r []byte) error {
	c.tx = append(c.tx, append([]byte(nil), w...))
	c.p.clocks = append(c.p.clocks, c.p.clock())
	return nil
}

func (c *fakeConn) Duplex() conn.Duplex { return conn.Full }

func (c *fakeConn) TxPackets(p []spi.Packet) error {
	return errors.New("not implemented")
}

func TestSPIBusSettings(t *testing.T) {
	p := &fakePort{}
	b := NewSPIBus(p)
	if got := b.MaxFreq(); got != 0 {
		t.Errorf("MaxFreq() before connecting = %s, want 0", got)
	}

	s := Settings{Freq: 16 * physic.MegaHertz, Mode: spi.Mode0, Order: LSBFirst}
	if err := b.Begin(s); err != nil {
		t.Fatal(err)
	}
	if err := b.End(); err != nil {
		t.Fatal(err)
	}
	if p.freq != 16*physic.MegaHertz || p.mode != spi.Mode0|spi.LSBFirst || p.bits != 8 {
		t.Errorf("connected with %s %v %d bits", p.freq, p.mode, p.bits)
	}

	// Same settings reuse the connection.
	if err := b.Begin(s); err != nil {
		t.Fatal(err)
	}
	if err := b.End(); err != nil {
		t.Fatal(err)
	}
	if p.connect != 1 {
		t.Errorf("Connect called %d times, want 1", p.connect)
	}

	// A lower frequency is applied without reconnecting, and the clock can
	// come back up to the connect-time frequency.
	for _, f := range []physic.Frequency{4 * physic.MegaHertz, 16 * physic.MegaHertz} {
		s.Freq = f
		if err := b.Begin(s); err != nil {
			t.Fatal(err)
		}
		if err := b.Transfer(0); err != nil {
			t.Fatal(err)
		}
		if err := b.End(); err != nil {
			t.Fatal(err)
		}
		if got := p.clocks[len(p.clocks)-1]; got != f || p.connect != 1 {
			t.Errorf("speed change to %s: clocked at %s, %d connects", f, got, p.connect)
		}
	}

	// The port cannot go faster than it was connected at.
	s.Freq = 32 * physic.MegaHertz
	if err := b.Begin(s); !errors.Is(err, ErrSpeedAboveConnect) {
		t.Errorf("Begin() above the connect-time clock = %v, want ErrSpeedAboveConnect", err)
	}
	s.Freq = 16 * physic.MegaHertz

	// The mode is fixed once connected.
	s.Mode = spi.Mode3
	if err := b.Begin(s); err == nil {
		t.Error("Begin() with a new mode should fail")
	}
	// A failed Begin does not hold the claim.
	s.Mode = spi.Mode0
	if err := b.Begin(s); err != nil {
		t.Fatal(err)
	}
	if err := b.End(); err != nil {
		t.Fatal(err)
	}

	if got := b.MaxFreq(); got != 16*physic.MegaHertz {
		t.Errorf("MaxFreq() = %s, want 16MHz", got)
	}
	if err := b.Close(); err != nil || !p.closed {
		t.Errorf("Close() = %v, closed %v", err, p.closed)
	}
	if got := b.String(); got != "spitft.SPIBus{fake}" {
		t.Errorf("String() = %q", got)
	}
}

// fakeTinyGoSPI implements drivers.SPI.
type fakeTinyGoSPI struct {
	out []byte
	err error
}

func (s *fakeTinyGoSPI) Tx(w, r []byte) error {
	s.out = append(s.out, w...)
	return s.err
}

func (s *fakeTinyGoSPI) Transfer(b byte) (byte, error) {
	s.out = append(s.out, b)
	return 0, s.err
}

func TestTinyGoBus(t *testing.T) {
	s := &fakeTinyGoSPI{}
	b := NewTinyGoBus(s)
	if err := b.Begin(Settings{}); err != nil {
		t.Fatal(err)
	}
	for _, c := range []byte{0x12, 0x34} {
		if err := b.Transfer(c); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.End(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(s.out, []byte{0x12, 0x34}) {
		t.Errorf("sent %X, want 1234", s.out)
	}

	s.err = errFake
	if err := b.Begin(Settings{}); err != nil {
		t.Fatal(err)
	}
	if err := b.Transfer(0); !errors.Is(err, errFake) {
		t.Errorf("Transfer() error = %v, want %v", err, errFake)
	}
	if err := b.End(); err != nil {
		t.Fatal(err)
	}
}

func TestDevSetSPISpeedOnSPIBus(t *testing.T) {
	p := &fakePort{}
	r := newRig(&recPanel{})
	d, err := New(NewSPIBus(p), r.opts())
	if err != nil {
		t.Fatal(err)
	}
	if p.freq != DefaultFreq {
		t.Fatalf("connected at %s, want %s", p.freq, DefaultFreq)
	}

	if err := d.SetSPISpeed(2 * DefaultFreq); !errors.Is(err, ErrSpeedAboveConnect) {
		t.Errorf("SetSPISpeed() above the connect-time clock = %v, want ErrSpeedAboveConnect", err)
	}
	if got := d.Settings().Freq; got != DefaultFreq {
		t.Errorf("rejected SetSPISpeed() changed the clock to %s", got)
	}

	tests := []physic.Frequency{8 * physic.MegaHertz, DefaultFreq}
	for _, f := range tests {
		if err := d.SetSPISpeed(f); err != nil {
			t.Fatal(err)
		}
		if err := d.Write16(0); err != nil {
			t.Fatal(err)
		}
		if got := p.clocks[len(p.clocks)-1]; got != f {
			t.Errorf("after SetSPISpeed(%s) the wire ran at %s", f, got)
		}
	}
}

func TestDevOnTinyGoBus(t *testing.T) {
	s := &fakeTinyGoSPI{}
	r := newRig(&recPanel{})
	d, err := New(NewTinyGoBus(s), r.opts())
	if err != nil {
		t.Fatal(err)
	}
	s.out = s.out[:0]
	if err := d.WriteCommand(0x29); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(s.out, []byte{0x29, 0x29}) {
		t.Errorf("sent %X, want 2929", s.out)
	}
}

func TestBitOrderString(t *testing.T) {
	if MSBFirst.String() != "MSBFirst" || LSBFirst.String() != "LSBFirst" {
		t.Errorf("got %s, %s", MSBFirst, LSBFirst)
	}
}
