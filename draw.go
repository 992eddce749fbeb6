package spitft

import (
	"errors"
	"image"
	"image/color"
	"image/draw"

	"periph.io/x/devices/v3/spitft/image565"
)

// clipRect clips the rectangle at (x, y) of size w x h against a surface of
// width x height.
//
// A negative w or h extends the rectangle left or up from (x, y). ok is false
// when nothing is left to draw; otherwise the result lies fully on the
// surface with positive size.
func clipRect(x, y, w, h, width, height int) (cx, cy, cw, ch int, ok bool) {
	if w == 0 || h == 0 {
		return 0, 0, 0, 0, false
	}
	if w < 0 {
		x += w + 1
		w = -w
	}
	if h < 0 {
		y += h + 1
		h = -h
	}
	if x >= width || y >= height {
		return 0, 0, 0, 0, false
	}
	x2 := x + w - 1
	y2 := y + h - 1
	if x2 < 0 || y2 < 0 {
		return 0, 0, 0, 0, false
	}
	if x < 0 { // Clip left
		x = 0
		w = x2 + 1
	}
	if y < 0 { // Clip top
		y = 0
		h = y2 + 1
	}
	if x2 >= width { // Clip right
		w = width - x
	}
	if y2 >= height { // Clip bottom
		h = height - y
	}
	return x, y, w, h, true
}

func (d *Dev) clip(x, y, w, h int) (int, int, int, int, bool) {
	return clipRect(x, y, w, h, d.rect.Dx(), d.rect.Dy())
}

// WriteFillRectPreclipped fills a rectangle that is already known to lie on
// screen with positive size. No clipping is done. Requires an open write
// batch.
func (d *Dev) WriteFillRectPreclipped(x, y, w, h int, color uint16) error {
	if !d.inWrite {
		return ErrNoWrite
	}
	return d.writeFillRectPreclipped(x, y, w, h, color)
}

func (d *Dev) writeFillRectPreclipped(x, y, w, h int, color uint16) error {
	if err := d.setAddrWindow(x, y, w, h); err != nil {
		return err
	}
	return d.writeColor(color, w*h)
}

// WriteFillRect fills a rectangle, clipped to the screen. Negative w or h
// extend left or up. Requires an open write batch.
func (d *Dev) WriteFillRect(x, y, w, h int, color uint16) error {
	if !d.inWrite {
		return ErrNoWrite
	}
	if x, y, w, h, ok := d.clip(x, y, w, h); ok {
		return d.writeFillRectPreclipped(x, y, w, h, color)
	}
	return nil
}

// WriteFastHLine draws a horizontal line, clipped to the screen. Requires an
// open write batch.
func (d *Dev) WriteFastHLine(x, y, w int, color uint16) error {
	return d.WriteFillRect(x, y, w, 1, color)
}

// WriteFastVLine draws a vertical line, clipped to the screen. Requires an
// open write batch.
func (d *Dev) WriteFastVLine(x, y, h int, color uint16) error {
	return d.WriteFillRect(x, y, 1, h, color)
}

// FillRect fills a rectangle, clipped to the screen. Negative w or h extend
// left or up. A rectangle entirely off screen touches neither the bus nor
// the control lines.
func (d *Dev) FillRect(x, y, w, h int, color uint16) error {
	if d.halted {
		return ErrHalted
	}
	x, y, w, h, ok := d.clip(x, y, w, h)
	if !ok {
		return nil
	}
	return d.batch(func() error {
		return d.writeFillRectPreclipped(x, y, w, h, color)
	})
}

// DrawFastHLine draws a horizontal line, clipped to the screen.
func (d *Dev) DrawFastHLine(x, y, w int, color uint16) error {
	return d.FillRect(x, y, w, 1, color)
}

// DrawFastVLine draws a vertical line, clipped to the screen.
func (d *Dev) DrawFastVLine(x, y, h int, color uint16) error {
	return d.FillRect(x, y, 1, h, color)
}

// FillScreen fills the whole screen with color.
func (d *Dev) FillScreen(color uint16) error {
	return d.FillRect(0, 0, d.rect.Dx(), d.rect.Dy(), color)
}

// DrawPixel draws one pixel. Pixels off screen are dropped.
func (d *Dev) DrawPixel(x, y int, color uint16) error {
	if d.halted {
		return ErrHalted
	}
	if x < 0 || x >= d.rect.Dx() || y < 0 || y >= d.rect.Dy() {
		return nil
	}
	return d.batch(func() error {
		return d.writePixel(x, y, color)
	})
}

// DrawRGBBitmap draws a w x h bitmap of 565 pixels with its top-left corner
// at (x, y), clipped to the screen. pixels holds w*h values, row by row.
func (d *Dev) DrawRGBBitmap(x, y int, pixels []uint16, w, h int) error {
	return d.drawBitmap(x, y, pixels, w, w, h)
}

// drawBitmap draws a w x h bitmap whose rows are stride elements apart.
func (d *Dev) drawBitmap(x, y int, pixels []uint16, stride, w, h int) error {
	if d.halted {
		return ErrHalted
	}
	if w <= 0 || h <= 0 {
		return nil
	}
	if stride < w || len(pixels) < w || h-1 > (len(pixels)-w)/stride {
		return errors.New("spitft: bitmap buffer too small")
	}
	x2 := x + w - 1
	y2 := y + h - 1
	if x >= d.rect.Dx() || y >= d.rect.Dy() || x2 < 0 || y2 < 0 {
		return nil
	}

	bx, by := 0, 0 // Clipped top-left within the bitmap
	if x < 0 {
		w += x
		bx = -x
		x = 0
	}
	if y < 0 {
		h += y
		by = -y
		y = 0
	}
	if x2 >= d.rect.Dx() {
		w = d.rect.Dx() - x
	}
	if y2 >= d.rect.Dy() {
		h = d.rect.Dy() - y
	}

	return d.batch(func() error {
		if err := d.setAddrWindow(x, y, w, h); err != nil {
			return err
		}
		// Rows advance by the bitmap's own pitch, not the clipped width.
		off := by*stride + bx
		for row := 0; row < h; row++ {
			if err := d.writePixels(pixels[off : off+w]); err != nil {
				return err
			}
			off += stride
		}
		return nil
	})
}

// Draw implements display.Drawer. The part of r that is on screen is filled
// from src starting at sp.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if d.halted {
		return ErrHalted
	}

	clipped := r.Intersect(d.rect)
	if clipped.Empty() {
		return nil
	}
	sp = sp.Add(clipped.Min.Sub(r.Min))
	srcRect := image.Rectangle{Min: sp, Max: sp.Add(clipped.Size())}

	// Fast path: 565 source covering the whole region needs no conversion.
	if img, ok := src.(*image565.Image); ok && srcRect.In(img.Rect) {
		off := img.PixOffset(sp.X, sp.Y)
		return d.drawBitmap(clipped.Min.X, clipped.Min.Y, img.Pix[off:], img.Stride, clipped.Dx(), clipped.Dy())
	}

	buf := image565.NewImage(image.Rect(0, 0, clipped.Dx(), clipped.Dy()))
	draw.Draw(buf, buf.Rect, src, sp, draw.Src)
	return d.drawBitmap(clipped.Min.X, clipped.Min.Y, buf.Pix, buf.Stride, clipped.Dx(), clipped.Dy())
}

// Size implements drivers.Displayer.
func (d *Dev) Size() (x, y int16) {
	return int16(d.rect.Dx()), int16(d.rect.Dy())
}

// SetPixel implements drivers.Displayer. The pixel goes straight to the
// panel; errors are dropped since the interface has no way to report them.
func (d *Dev) SetPixel(x, y int16, c color.RGBA) {
	_ = d.DrawPixel(int(x), int(y), Color565(c.R, c.G, c.B))
}

// Display implements drivers.Displayer. There is no frame buffer to flush.
func (d *Dev) Display() error {
	if d.halted {
		return ErrHalted
	}
	return nil
}
