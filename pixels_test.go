package spitft

import (
	"errors"
	"image"
	"testing"
)

func TestColor565(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		want    uint16
	}{
		{"black", 0, 0, 0, 0x0000},
		{"white", 255, 255, 255, 0xFFFF},
		{"red", 255, 0, 0, 0xF800},
		{"green", 0, 255, 0, 0x07E0},
		{"blue", 0, 0, 255, 0x001F},
		{"low bits dropped", 7, 3, 7, 0x0000},
		{"mixed", 248, 4, 8, 0xF821},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Color565(tt.r, tt.g, tt.b); got != tt.want {
				t.Errorf("Color565(%d, %d, %d) = %#04x, want %#04x", tt.r, tt.g, tt.b, got, tt.want)
			}
		})
	}
}

func TestSwapBytes(t *testing.T) {
	src := []uint16{0x1234, 0xABCD, 0x00FF}
	dst := make([]uint16, 2)
	SwapBytes(src, dst)
	if dst[0] != 0x3412 || dst[1] != 0xCDAB {
		t.Errorf("SwapBytes into dst = %#04x", dst)
	}
	if src[0] != 0x1234 {
		t.Error("SwapBytes into dst modified src")
	}

	SwapBytes(src, nil)
	want := []uint16{0x3412, 0xCDAB, 0xFF00}
	for i := range want {
		if src[i] != want[i] {
			t.Errorf("in place [%d] = %#04x, want %#04x", i, src[i], want[i])
		}
	}
}

func TestWritePixelsNoSwap(t *testing.T) {
	d, r := newTestDev(t)
	if err := d.StartWrite(); err != nil {
		t.Fatal(err)
	}
	if err := d.SetAddrWindow(0, 0, 2, 1); err != nil {
		t.Fatal(err)
	}
	if err := d.WritePixels([]uint16{0x1234, 0xABCD}); err != nil {
		t.Fatal(err)
	}
	if err := d.WriteColor(0x0F0F, 2); err != nil {
		t.Fatal(err)
	}
	if err := d.WriteColor(0xFFFF, 0); err != nil {
		t.Fatal(err)
	}
	if err := d.EndWrite(); err != nil {
		t.Fatal(err)
	}
	if w := r.windows(); len(w) != 1 || w[0] != image.Rect(0, 0, 2, 1) {
		t.Errorf("windows = %v", w)
	}
	if got, want := joinLog(r.bus.words), "D:1234 D:ABCD D:0F0F D:0F0F"; got != want {
		t.Errorf("words = %s, want %s", got, want)
	}
}

func TestPushColor(t *testing.T) {
	d, r := newTestDev(t)
	if err := d.PushColor(0xBEEF); err != nil {
		t.Fatal(err)
	}
	if got := joinLog(r.bus.words); got != "D:BEEF" {
		t.Errorf("words = %s, want D:BEEF", got)
	}
}

func TestPanelErrorPropagates(t *testing.T) {
	d, r := newTestDev(t)
	r.panel.(*recPanel).err = errFake
	if err := d.FillRect(0, 0, 2, 2, 0); !errors.Is(err, errFake) {
		t.Errorf("FillRect() error = %v, want %v", err, errFake)
	}
	if len(r.bus.words) != 0 {
		t.Error("pixels written after the address window failed")
	}
	if d.inWrite {
		t.Error("write batch left open after an error")
	}
}
