// Package sim is a software model of the 2.8" breakout: two shift registers
// clocked from SPI, a 16-bit parallel bus latched on the rising edge of WR,
// and an ILI9341 running in 16-bit mode behind it.
//
// A Breakout is both the spitft.Bus and the set of control lines, so a
// spitft.Dev wired to it renders into an in-memory frame buffer.
package sim

import (
	"errors"
	"image"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/devices/v3/spitft"
	"periph.io/x/devices/v3/spitft/image565"
)

// Pin is a control line that reports level changes to the Breakout.
type Pin struct {
	gpiotest.Pin
	onEdge func(l gpio.Level)
}

// Out implements gpio.PinOut.
func (p *Pin) Out(l gpio.Level) error {
	prev := p.Pin.Read()
	if err := p.Pin.Out(l); err != nil {
		return err
	}
	if p.onEdge != nil && prev != l {
		p.onEdge(l)
	}
	return nil
}

// Word is one word latched into the controller.
type Word struct {
	Command bool
	Value   uint16
}

// Breakout is the simulated module.
type Breakout struct {
	CS  *Pin
	DC  *Pin
	WR  *Pin
	RD  *Pin
	RST *Pin

	mu       sync.Mutex
	claimed  bool
	claims   int
	settings spitft.Settings
	shift    [2]byte
	words    []Word
	logWords bool

	// Controller state
	fb       *image565.Image
	cmd      byte
	params   []uint16
	x0, x1   int
	y0, y1   int
	cx, cy   int
	writing  bool
	madctl   uint16
	scroll   int
	inverted bool
	on       bool
	asleep   bool
}

// MADCTL bits that move pixels.
const (
	madMY = 0x80
	madMX = 0x40
	madMV = 0x20
)

// New returns a breakout with a w x h frame buffer. When logWords is set
// every latched word is kept for inspection.
//
// The frame buffer is the glass in portrait. The glass is mounted mirrored,
// so columns run left to right only while MADCTL has MX set. MV swaps rows
// and columns and MY flips the rows.
func New(w, h int, logWords bool) *Breakout {
	b := &Breakout{
		fb:       image565.NewImage(image.Rect(0, 0, w, h)),
		logWords: logWords,
		asleep:   true,
	}
	b.CS = &Pin{Pin: gpiotest.Pin{N: "CS", Num: 0}}
	b.DC = &Pin{Pin: gpiotest.Pin{N: "DC", Num: 1}}
	b.WR = &Pin{Pin: gpiotest.Pin{N: "WR", Num: 2}, onEdge: b.onWR}
	b.RD = &Pin{Pin: gpiotest.Pin{N: "RD", Num: 3}}
	// RST has a pull-up on the module.
	b.RST = &Pin{Pin: gpiotest.Pin{N: "RST", Num: 4, L: gpio.High}, onEdge: b.onRST}
	b.x1, b.y1 = w-1, h-1
	return b
}

// Begin implements spitft.Bus.
func (b *Breakout) Begin(s spitft.Settings) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.claimed {
		return errors.New("sim: bus already claimed")
	}
	b.claimed = true
	b.claims++
	b.settings = s
	return nil
}

// Transfer implements spitft.Bus. The byte enters the low register and
// pushes the previous one into the high register.
func (b *Breakout) Transfer(c byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.claimed {
		return errors.New("sim: transfer without claim")
	}
	b.shift[0], b.shift[1] = b.shift[1], c
	return nil
}

// End implements spitft.Bus.
func (b *Breakout) End() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.claimed {
		return errors.New("sim: release without claim")
	}
	b.claimed = false
	return nil
}

// onWR latches the shift registers on the rising edge of WR while the chip
// is selected and out of reset.
func (b *Breakout) onWR(l gpio.Level) {
	if l != gpio.High || b.CS.Read() != gpio.Low || b.RST.Read() != gpio.High {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	w := uint16(b.shift[0])<<8 | uint16(b.shift[1])
	cmd := b.DC.Read() == gpio.Low
	if b.logWords {
		b.words = append(b.words, Word{Command: cmd, Value: w})
	}
	if cmd {
		b.command(byte(w))
	} else {
		b.data(w)
	}
}

// onRST resets the controller registers while RST is held low.
func (b *Breakout) onRST(l gpio.Level) {
	if l != gpio.Low {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetRegisters()
}

func (b *Breakout) resetRegisters() {
	b.cmd = 0
	b.params = b.params[:0]
	b.writing = false
	b.x0, b.x1 = 0, b.fb.Rect.Dx()-1
	b.y0, b.y1 = 0, b.fb.Rect.Dy()-1
	b.madctl = 0
	b.scroll = 0
	b.inverted = false
	b.on = false
	b.asleep = true
}

func (b *Breakout) command(c byte) {
	b.cmd = c
	b.params = b.params[:0]
	b.writing = false
	switch c {
	case 0x01: // SWRESET
		b.resetRegisters()
	case 0x10: // SLPIN
		b.asleep = true
	case 0x11: // SLPOUT
		b.asleep = false
	case 0x20: // INVOFF
		b.inverted = false
	case 0x21: // INVON
		b.inverted = true
	case 0x28: // DISPOFF
		b.on = false
	case 0x29: // DISPON
		b.on = true
	case 0x2C: // RAMWR
		b.writing = true
		b.cx, b.cy = b.x0, b.y0
	}
}

func (b *Breakout) data(w uint16) {
	if b.writing {
		b.pixel(w)
		return
	}
	b.params = append(b.params, w)
	switch b.cmd {
	case 0x2A: // CASET
		if len(b.params) == 2 {
			b.x0, b.x1 = int(b.params[0]), int(b.params[1])
		}
	case 0x2B: // PASET
		if len(b.params) == 2 {
			b.y0, b.y1 = int(b.params[0]), int(b.params[1])
		}
	case 0x36: // MADCTL
		b.madctl = w
	case 0x37: // VSCRSADD
		b.scroll = int(w)
	}
}

// pixel stores one pixel and advances the cursor through the window.
func (b *Breakout) pixel(w uint16) {
	x, y := b.cx, b.cy
	if b.madctl&madMV != 0 {
		x, y = y, x
	}
	if b.madctl&madMX == 0 {
		x = b.fb.Rect.Dx() - 1 - x
	}
	if b.madctl&madMY != 0 {
		y = b.fb.Rect.Dy() - 1 - y
	}
	b.fb.SetRGB565(x, y, image565.RGB565(w))
	b.cx++
	if b.cx > b.x1 {
		b.cx = b.x0
		b.cy++
		if b.cy > b.y1 {
			b.cy = b.y0
		}
	}
}

// Image returns a copy of the frame buffer.
func (b *Breakout) Image() *image565.Image {
	b.mu.Lock()
	defer b.mu.Unlock()
	img := image565.NewImage(b.fb.Rect)
	copy(img.Pix, b.fb.Pix)
	return img
}

// RGB565At returns one pixel of the frame buffer.
func (b *Breakout) RGB565At(x, y int) image565.RGB565 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fb.RGB565At(x, y)
}

// Window returns the address window last programmed, inclusive of its far
// corner.
func (b *Breakout) Window() image.Rectangle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return image.Rect(b.x0, b.y0, b.x1+1, b.y1+1)
}

// Words returns the latched words recorded so far.
func (b *Breakout) Words() []Word {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Word(nil), b.words...)
}

// ClearWords drops the recorded words.
func (b *Breakout) ClearWords() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.words = b.words[:0]
}

// Claims returns how many times the bus was claimed.
func (b *Breakout) Claims() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.claims
}

// Settings returns the clock settings of the last claim.
func (b *Breakout) Settings() spitft.Settings {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.settings
}

// Inverted reports whether color inversion is on.
func (b *Breakout) Inverted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inverted
}

// On reports whether the display is on and awake.
func (b *Breakout) On() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.on && !b.asleep
}

// MADCTL returns the memory access control register.
func (b *Breakout) MADCTL() uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.madctl
}

// Scroll returns the vertical scroll start row.
func (b *Breakout) Scroll() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.scroll
}

var _ spitft.Bus = (*Breakout)(nil)
