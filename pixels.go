package spitft

import (
	"math/bits"

	"periph.io/x/devices/v3/spitft/image565"
)

// Color565 packs 8-bit red, green and blue into a 565 pixel value.
func Color565(r, g, b uint8) uint16 {
	return uint16(image565.Pack(r, g, b))
}

// SwapBytes byte-swaps every pixel of src into dst. A nil dst swaps src in
// place. Only min(len(src), len(dst)) pixels are converted.
//
// Pixels are streamed exactly as given, so buffers stored in the other byte
// order must be converted with SwapBytes first.
func SwapBytes(src, dst []uint16) {
	if dst == nil {
		dst = src
	}
	n := min(len(src), len(dst))
	for i := 0; i < n; i++ {
		dst[i] = bits.ReverseBytes16(src[i])
	}
}

// SetAddrWindow programs the panel so the following pixel words fill the
// given rectangle. The rectangle must lie on screen. Requires an open write
// batch.
func (d *Dev) SetAddrWindow(x, y, w, h int) error {
	if !d.inWrite {
		return ErrNoWrite
	}
	return d.setAddrWindow(x, y, w, h)
}

func (d *Dev) setAddrWindow(x, y, w, h int) error {
	return d.panel.SetAddrWindow(d, x, y, w, h)
}

// WritePixels streams colors into the current address window, one word per
// pixel, without byte swapping. Requires an open write batch.
func (d *Dev) WritePixels(colors []uint16) error {
	if !d.inWrite {
		return ErrNoWrite
	}
	return d.writePixels(colors)
}

func (d *Dev) writePixels(colors []uint16) error {
	for _, c := range colors {
		if err := d.Write16(c); err != nil {
			return err
		}
	}
	return nil
}

// WriteColor streams color n times into the current address window.
// Requires an open write batch.
func (d *Dev) WriteColor(color uint16, n int) error {
	if !d.inWrite {
		return ErrNoWrite
	}
	return d.writeColor(color, n)
}

func (d *Dev) writeColor(color uint16, n int) error {
	for ; n > 0; n-- {
		if err := d.Write16(color); err != nil {
			return err
		}
	}
	return nil
}

// WritePixel draws one pixel. Pixels off screen are dropped. Requires an
// open write batch.
func (d *Dev) WritePixel(x, y int, color uint16) error {
	if !d.inWrite {
		return ErrNoWrite
	}
	return d.writePixel(x, y, color)
}

func (d *Dev) writePixel(x, y int, color uint16) error {
	if x < 0 || x >= d.rect.Dx() || y < 0 || y >= d.rect.Dy() {
		return nil
	}
	if err := d.setAddrWindow(x, y, 1, 1); err != nil {
		return err
	}
	return d.Write16(color)
}

// PushColor streams one pixel into the current address window.
//
// Deprecated: use WritePixels or WriteColor inside a write batch.
func (d *Dev) PushColor(color uint16) error {
	return d.Write16(color)
}
