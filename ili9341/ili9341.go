// Package ili9341 implements the ILI9341 controller side of a spitft display:
// the power-up command table, the address window, rotation, inversion and
// vertical scrolling.
//
// The breakout runs the controller in 16-bit parallel mode: every parameter
// travels as one bus word, and parameters wider than a byte (window
// coordinates, scroll rows) are sent as whole 16-bit values.
package ili9341

import (
	"errors"
	"time"

	"periph.io/x/devices/v3/spitft"
)

const (
	swReset  = 0x01
	sleepIn  = 0x10
	sleepOut = 0x11
	gammaSet = 0x26
	invOff   = 0x20
	invOn    = 0x21
	dispOff  = 0x28
	dispOn   = 0x29
	caSet    = 0x2A
	paSet    = 0x2B
	ramWr    = 0x2C
	vScrDef  = 0x33
	madCtl   = 0x36
	vScrSAdd = 0x37
	pixFmt   = 0x3A
	frmCtr1  = 0xB1
	dfunCtr  = 0xB6
	pwCtr1   = 0xC0
	pwCtr2   = 0xC1
	vmCtr1   = 0xC5
	vmCtr2   = 0xC7
	gmCtrP1  = 0xE0
	gmCtrN1  = 0xE1
)

// MADCTL bits.
const (
	madMY  = 0x80
	madMX  = 0x40
	madMV  = 0x20
	madBGR = 0x08
)

// Native panel size in portrait orientation.
const (
	Width  = 240
	Height = 320
)

// sleep is replaced in tests.
var sleep = time.Sleep

// command is one entry of the power-up table.
type command struct {
	cmd   byte
	data  []uint16
	delay time.Duration
}

var initCmds = []command{
	{cmd: swReset, delay: 150 * time.Millisecond},
	{cmd: 0xEF, data: []uint16{0x03, 0x80, 0x02}},
	{cmd: 0xCF, data: []uint16{0x00, 0xC1, 0x30}},
	{cmd: 0xED, data: []uint16{0x64, 0x03, 0x12, 0x81}},
	{cmd: 0xE8, data: []uint16{0x85, 0x00, 0x78}},
	{cmd: 0xCB, data: []uint16{0x39, 0x2C, 0x00, 0x34, 0x02}},
	{cmd: 0xF7, data: []uint16{0x20}},
	{cmd: 0xEA, data: []uint16{0x00, 0x00}},
	{cmd: pwCtr1, data: []uint16{0x23}},
	{cmd: pwCtr2, data: []uint16{0x10}},
	{cmd: vmCtr1, data: []uint16{0x3E, 0x28}},
	{cmd: vmCtr2, data: []uint16{0x86}},
	{cmd: madCtl, data: []uint16{madMX | madBGR}},
	{cmd: vScrSAdd, data: []uint16{0x00}},
	{cmd: pixFmt, data: []uint16{0x55}},
	{cmd: frmCtr1, data: []uint16{0x00, 0x18}},
	{cmd: dfunCtr, data: []uint16{0x08, 0x82, 0x27}},
	{cmd: 0xF2, data: []uint16{0x00}},
	{cmd: gammaSet, data: []uint16{0x01}},
	{cmd: gmCtrP1, data: []uint16{0x0F, 0x31, 0x2B, 0x0C, 0x0E, 0x08, 0x4E, 0xF1, 0x37, 0x07, 0x10, 0x03, 0x0E, 0x09, 0x00}},
	{cmd: gmCtrN1, data: []uint16{0x00, 0x0E, 0x14, 0x03, 0x11, 0x07, 0x31, 0xC1, 0x48, 0x08, 0x0F, 0x0C, 0x31, 0x36, 0x0F}},
	{cmd: sleepOut, delay: 150 * time.Millisecond},
	{cmd: dispOn, delay: 150 * time.Millisecond},
}

// Panel is an ILI9341 controller. The zero value is a 240x320 panel in
// portrait orientation.
type Panel struct {
	rotation spitft.Rotation
}

// New returns a panel in portrait orientation.
func New() *Panel {
	return &Panel{}
}

// Init implements spitft.Initializer.
func (p *Panel) Init(c spitft.Controller) error {
	for _, ic := range initCmds {
		if err := c.SendCommand(ic.cmd, ic.data); err != nil {
			return err
		}
		if ic.delay != 0 {
			sleep(ic.delay)
		}
	}
	p.rotation = spitft.Rotation0
	return nil
}

// SetAddrWindow implements spitft.Panel.
func (p *Panel) SetAddrWindow(c spitft.Controller, x, y, w, h int) error {
	x2 := x + w - 1
	y2 := y + h - 1
	if err := c.WriteCommand(caSet); err != nil {
		return err
	}
	if err := c.Write32(uint32(x)<<16 | uint32(x2)); err != nil {
		return err
	}
	if err := c.WriteCommand(paSet); err != nil {
		return err
	}
	if err := c.Write32(uint32(y)<<16 | uint32(y2)); err != nil {
		return err
	}
	return c.WriteCommand(ramWr)
}

// InvertCommands implements spitft.Inverter.
func (p *Panel) InvertCommands() (on, off byte) {
	return invOn, invOff
}

// SetRotation implements spitft.Rotator.
func (p *Panel) SetRotation(c spitft.Controller, r spitft.Rotation) (w, h int, err error) {
	var m uint16
	switch r {
	case spitft.Rotation0:
		m, w, h = madMX|madBGR, Width, Height
	case spitft.Rotation90:
		m, w, h = madMV|madBGR, Height, Width
	case spitft.Rotation180:
		m, w, h = madMY|madBGR, Width, Height
	case spitft.Rotation270:
		m, w, h = madMX|madMY|madMV|madBGR, Height, Width
	default:
		return 0, 0, errors.New("ili9341: invalid rotation")
	}
	if err := c.SendCommand(madCtl, []uint16{m}); err != nil {
		return 0, 0, err
	}
	p.rotation = r
	return w, h, nil
}

// Rotation returns the current rotation.
func (p *Panel) Rotation() spitft.Rotation {
	return p.rotation
}

// SetScrollArea defines fixed top and bottom areas; the rows between them
// scroll.
func (p *Panel) SetScrollArea(c spitft.Controller, top, bottom int) error {
	if top < 0 || bottom < 0 || top+bottom > Height {
		return errors.New("ili9341: scroll area out of range")
	}
	return c.SendCommand(vScrDef, []uint16{uint16(top), uint16(Height - top - bottom), uint16(bottom)})
}

// ScrollTo sets the first row shown at the top of the scroll area.
func (p *Panel) ScrollTo(c spitft.Controller, y int) error {
	if y < 0 || y >= Height {
		return errors.New("ili9341: scroll row out of range")
	}
	return c.SendCommand(vScrSAdd, []uint16{uint16(y)})
}

// Halt implements spitft.Halter.
func (p *Panel) Halt(c spitft.Controller) error {
	if err := c.WriteCommand(dispOff); err != nil {
		return err
	}
	return c.WriteCommand(sleepIn)
}

var (
	_ spitft.Panel       = (*Panel)(nil)
	_ spitft.Initializer = (*Panel)(nil)
	_ spitft.Inverter    = (*Panel)(nil)
	_ spitft.Rotator     = (*Panel)(nil)
	_ spitft.Halter      = (*Panel)(nil)
)
