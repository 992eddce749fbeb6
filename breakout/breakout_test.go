package breakout

import (
	"image"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/spitft"
	"periph.io/x/devices/v3/spitft/internal/sim"
)

// fakeRegistry makes pinByName resolve only the given pins.
func fakeRegistry(t *testing.T, pins map[string]gpio.PinIO) {
	t.Helper()
	prev := pinByName
	pinByName = func(name string) gpio.PinIO {
		return pins[name]
	}
	t.Cleanup(func() { pinByName = prev })
}

func TestSensorInitializeNative(t *testing.T) {
	p := &gpiotest.Pin{N: "GPIO18", Num: 18}
	fakeRegistry(t, map[string]gpio.PinIO{"GPIO18": p})

	s := NewSensor(18)
	if s.Pin() != 18 {
		t.Errorf("Pin() = %d, want 18", s.Pin())
	}
	if err := s.initializeNative(); err != nil {
		t.Fatal(err)
	}
	if p.Read() != gpio.High {
		t.Error("native pin not driven high")
	}
	if err := s.SetBacklight(false); err != nil {
		t.Fatal(err)
	}
	if p.Read() != gpio.Low {
		t.Error("SetBacklight(false) left the pin high")
	}
}

func TestSensorNotWired(t *testing.T) {
	fakeRegistry(t, nil)
	s := NewSensor(-1)
	if err := s.initializeNative(); err != nil {
		t.Errorf("initializeNative() error = %v", err)
	}
	if err := s.SetBacklight(true); err == nil {
		t.Error("SetBacklight() without a pin should fail")
	}
}

func TestSensorMissingPin(t *testing.T) {
	fakeRegistry(t, nil)
	if err := NewSensor(7).initializeNative(); err == nil {
		t.Error("initializeNative() with an unknown pin should fail")
	}
}

func pinsOf(b *sim.Breakout) Pins {
	return Pins{CS: b.CS, DC: b.DC, WR: b.WR, RD: b.RD}
}

func TestOpenMissingPin(t *testing.T) {
	fakeRegistry(t, nil)
	b := sim.New(240, 320, false)
	if _, err := Open(b, pinsOf(b), 5, nil); err == nil {
		t.Fatal("Open() with an unknown sensor pin should fail")
	}
	if n := b.Claims(); n != 0 {
		t.Errorf("bus claimed %d times before the sensor was up", n)
	}
}

func TestOpenBusSettings(t *testing.T) {
	tests := []struct {
		name string
		opts *Opts
		want spitft.Settings
	}{
		{"defaults", nil, spitft.Settings{Freq: spitft.DefaultFreq}},
		{
			"mode 3 lsb first",
			&Opts{Freq: 8 * physic.MegaHertz, Mode: spi.Mode3, Order: spitft.LSBFirst},
			spitft.Settings{Freq: 8 * physic.MegaHertz, Mode: spi.Mode3, Order: spitft.LSBFirst},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := sim.New(240, 320, false)
			d, err := Open(b, pinsOf(b), -1, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if got := b.Settings(); got != tt.want {
				t.Errorf("bus claimed with %+v, want %+v", got, tt.want)
			}
			if got := d.Settings(); got != tt.want {
				t.Errorf("Settings() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	p := &gpiotest.Pin{N: "GPIO18", Num: 18}
	fakeRegistry(t, map[string]gpio.PinIO{"GPIO18": p})
	b := sim.New(240, 320, false)

	d, err := Open(b, pinsOf(b), 18, &Opts{Rotation: spitft.Rotation90})
	if err != nil {
		t.Fatal(err)
	}
	if p.Read() != gpio.High {
		t.Error("backlight off after Open")
	}
	if !b.On() {
		t.Error("panel not on after Open")
	}
	if d.Width() != 320 || d.Height() != 240 {
		t.Errorf("size = %dx%d, want 320x240", d.Width(), d.Height())
	}
	if got, want := d.String(), "breakout.Display{320x240, pin=18}"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	if err := d.SetScrollArea(0, 0); err != nil {
		t.Fatal(err)
	}
	if err := d.ScrollTo(16); err != nil {
		t.Fatal(err)
	}
	if b.Scroll() != 16 {
		t.Errorf("scroll = %d, want 16", b.Scroll())
	}

	if err := d.FillRect(0, 0, 2, 2, 0xFFFF); err != nil {
		t.Fatal(err)
	}
	// At 90 degrees the logical origin is the top right corner of the glass.
	for _, pt := range []image.Point{{239, 0}, {238, 1}} {
		if c := b.RGB565At(pt.X, pt.Y); c != 0xFFFF {
			t.Errorf("pixel %v = %#04x, want 0xffff", pt, uint16(c))
		}
	}
	if c := b.RGB565At(1, 1); c != 0 {
		t.Errorf("pixel (1,1) = %#04x, want 0", uint16(c))
	}

	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if b.On() {
		t.Error("panel still on after Halt")
	}
	if p.Read() != gpio.Low {
		t.Error("backlight still on after Halt")
	}
}
