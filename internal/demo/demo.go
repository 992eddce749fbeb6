// Package demo holds the test patterns shared by the hardware demo and the
// desktop preview.
package demo

import (
	"fmt"
	"image"
	"image/color"

	"periph.io/x/devices/v3/spitft"
	"periph.io/x/devices/v3/spitft/breakout"
	"periph.io/x/devices/v3/spitft/ili9341"
	"periph.io/x/devices/v3/spitft/image565"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

// Step is one pattern.
type Step struct {
	Name string
	Run  func(d *breakout.Display) error
}

// Steps lists every pattern in the order the demos show them.
var Steps = []Step{
	{"colors", Colors},
	{"bars", Bars},
	{"lines", Lines},
	{"gradient", Gradient},
	{"sprites", Sprites},
	{"text", Text},
	{"invert", Invert},
	{"rotate", Rotate},
	{"scroll", Scroll},
}

// Lookup returns the step called name.
func Lookup(name string) (Step, error) {
	for _, s := range Steps {
		if s.Name == name {
			return s, nil
		}
	}
	return Step{}, fmt.Errorf("demo: unknown step %q", name)
}

var (
	black = spitft.Color565(0, 0, 0)
	white = spitft.Color565(255, 255, 255)
)

// Colors fills the screen with the primaries, then black.
func Colors(d *breakout.Display) error {
	for _, c := range []uint16{
		spitft.Color565(255, 0, 0),
		spitft.Color565(0, 255, 0),
		spitft.Color565(0, 0, 255),
		white,
		black,
	} {
		if err := d.FillScreen(c); err != nil {
			return err
		}
	}
	return nil
}

// Bars draws eight vertical color bars.
func Bars(d *breakout.Display) error {
	colors := []uint16{
		spitft.Color565(255, 255, 255),
		spitft.Color565(255, 255, 0),
		spitft.Color565(0, 255, 255),
		spitft.Color565(0, 255, 0),
		spitft.Color565(255, 0, 255),
		spitft.Color565(255, 0, 0),
		spitft.Color565(0, 0, 255),
		spitft.Color565(0, 0, 0),
	}
	w := d.Width() / len(colors)
	for i, c := range colors {
		// The last bar takes the rounding remainder.
		bw := w
		if i == len(colors)-1 {
			bw = d.Width() - i*w
		}
		if err := d.FillRect(i*w, 0, bw, d.Height(), c); err != nil {
			return err
		}
	}
	return nil
}

// Lines draws a 20 pixel grid and a frame that runs off every edge.
func Lines(d *breakout.Display) error {
	if err := d.FillScreen(black); err != nil {
		return err
	}
	grid := spitft.Color565(0, 96, 0)
	for x := 0; x < d.Width(); x += 20 {
		if err := d.DrawFastVLine(x, 0, d.Height(), grid); err != nil {
			return err
		}
	}
	for y := 0; y < d.Height(); y += 20 {
		if err := d.DrawFastHLine(0, y, d.Width(), grid); err != nil {
			return err
		}
	}
	// Oversized on purpose: clipping keeps the visible part.
	frame := spitft.Color565(255, 255, 0)
	w, h := d.Width(), d.Height()
	for _, l := range []struct{ x, y, w, h int }{
		{-10, 5, w + 20, 1},
		{-10, h - 6, w + 20, 1},
		{5, -10, 1, h + 20},
		{w - 6, -10, 1, h + 20},
	} {
		if err := d.FillRect(l.x, l.y, l.w, l.h, frame); err != nil {
			return err
		}
	}
	for i := 0; i < min(w, h); i++ {
		if err := d.DrawPixel(i, i, white); err != nil {
			return err
		}
	}
	return nil
}

// Gradient draws a full screen RGB gradient through image/draw conversion.
func Gradient(d *breakout.Display) error {
	b := d.Bounds()
	img := image.NewRGBA(b)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / max(b.Dx()-1, 1)),
				G: uint8(y * 255 / max(b.Dy()-1, 1)),
				B: 128,
				A: 255,
			})
		}
	}
	return d.Draw(b, img, image.Point{})
}

// Sprite returns a size x size ball in 565.
func Sprite(size int) *image565.Image {
	img := image565.NewImage(image.Rect(0, 0, size, size))
	r := size / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := x-r, y-r
			if dx*dx+dy*dy <= r*r {
				img.SetRGB565(x, y, image565.Pack(uint8(255-x*4), uint8(y*6), 200))
			}
		}
	}
	return img
}

// Sprites blits a bitmap on screen and across every edge.
func Sprites(d *breakout.Display) error {
	if err := d.FillScreen(black); err != nil {
		return err
	}
	s := Sprite(32)
	w, h := d.Width(), d.Height()
	for _, p := range []image.Point{
		image.Pt(w/2-16, h/2-16),
		image.Pt(-16, -16),
		image.Pt(w-16, -16),
		image.Pt(-16, h-16),
		image.Pt(w-16, h-16),
	} {
		if err := d.DrawRGBBitmap(p.X, p.Y, s.Pix, 32, 32); err != nil {
			return err
		}
	}
	return nil
}

// Text writes a few lines through the drivers.Displayer interface.
func Text(d *breakout.Display) error {
	if err := d.FillScreen(black); err != nil {
		return err
	}
	font := &proggy.TinySZ8pt7b
	fg := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	lines := []string{
		d.String(),
		fmt.Sprintf("clock %s", d.Settings().Freq),
		"hybrid SPI to 16-bit parallel",
	}
	for i, s := range lines {
		tinyfont.WriteLine(d.Dev, font, 4, int16(14+i*12), s, fg)
	}
	return d.Display()
}

// Invert toggles color inversion on and off.
func Invert(d *breakout.Display) error {
	if err := d.InvertDisplay(true); err != nil {
		return err
	}
	return d.InvertDisplay(false)
}

// Rotate draws an arrow in every orientation and returns to the one it
// started from.
func Rotate(d *breakout.Display) error {
	start := d.Rotation()
	for r := spitft.Rotation0; r <= spitft.Rotation270; r++ {
		if err := d.SetRotation(r); err != nil {
			return err
		}
		if err := d.FillScreen(black); err != nil {
			return err
		}
		// Arrow pointing at the logical top edge.
		cx := d.Width() / 2
		for i := 0; i < 20; i++ {
			if err := d.DrawFastHLine(cx-i, 10+i, 2*i+1, white); err != nil {
				return err
			}
		}
		if err := d.FillRect(cx-5, 30, 11, 40, white); err != nil {
			return err
		}
	}
	return d.SetRotation(start)
}

// Scroll steps the hardware scroll through the full height and back to 0.
func Scroll(d *breakout.Display) error {
	if err := d.SetScrollArea(0, 0); err != nil {
		return err
	}
	for y := 0; y < ili9341.Height; y += 16 {
		if err := d.ScrollTo(y); err != nil {
			return err
		}
	}
	return d.ScrollTo(0)
}
