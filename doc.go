// Package spitft drives TFT panels on the hybrid SPI-to-parallel transport of
// the 2.8" TFT-LCD breakout.
//
// The panel controller (an ILI9341 on this breakout) sits on a 16-bit
// parallel bus. Two shift registers clocked from a hardware SPI bus drive that
// bus, and every word is moved into the controller by pulsing WR. This driver
// implements the display.Drawer interface from periph.io and the
// drivers.Displayer interface from TinyGo.
//
// # Transport
//
// Every word costs one bus transaction:
//
//   - claim the SPI bus with the configured clock
//   - clock the high byte, then the low byte, into the shift registers
//   - release the bus
//   - pulse CS high then low (CS rests asserted)
//   - pulse WR low then high; the rising edge latches the word
//
// DC low marks a command word. An 8-bit value is clocked twice so both
// halves of the bus carry it. Nothing can be read back: CanRead reports
// false and the Read functions return ErrReadUnsupported.
//
// # Hardware Connection
//
//	Breakout   → System Pin
//	GND        → GND
//	VIN        → 3.3V
//	CLK        → SPI Clock (SCLK)
//	MOSI       → SPI Data (MOSI)
//	CS         → GPIO (required)
//	D/C        → GPIO (required)
//	WR         → GPIO (required)
//	RD         → Optional: GPIO, parked high
//	RST        → Optional: GPIO for hardware reset
//
// # Basic Usage
//
// Package breakout wires everything for the ILI9341 breakout:
//
//	package main
//
//	import (
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/conn/v3/spi/spireg"
//		"periph.io/x/devices/v3/spitft"
//		"periph.io/x/devices/v3/spitft/breakout"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		// Initialize periph.io
//		host.Init()
//
//		// Open SPI bus
//		p, _ := spireg.Open("")
//		bus := spitft.NewSPIBus(p)
//		defer bus.Close()
//
//		// Create device, with the backlight on GPIO18
//		dev, _ := breakout.Open(bus, breakout.Pins{
//			CS:  gpioreg.ByName("GPIO25"),
//			DC:  gpioreg.ByName("GPIO24"),
//			WR:  gpioreg.ByName("GPIO23"),
//			RST: gpioreg.ByName("GPIO27"),
//		}, 18, nil)
//		defer dev.Halt()
//
//		dev.FillScreen(spitft.Color565(0, 0, 64))
//		dev.FillRect(20, 20, 100, 50, spitft.Color565(255, 128, 0))
//	}
//
// Other controllers plug in through the Panel interface, passed in Opts to
// New together with the Bus and the control lines.
//
// # Drawing
//
// FillRect, DrawFastHLine, DrawFastVLine, FillScreen, DrawPixel,
// DrawRGBBitmap and Draw are self-contained and clip to the screen. A
// negative width or height extends the shape left or up from its anchor. A
// shape entirely off screen produces no bus traffic at all.
//
// The raw operations (SetAddrWindow, WritePixels, WriteColor, WritePixel and
// the Write* shape functions) must be bracketed by StartWrite and EndWrite:
//
//	dev.StartWrite()
//	dev.SetAddrWindow(0, 0, 16, 16)
//	dev.WritePixels(sprite) // 256 pixels, streamed as given
//	dev.EndWrite()
//
// Pixels are 16-bit 565 values; use Color565 or package image565. Standard Go
// images passed to Draw are converted.
//
// # Rotation and Scrolling
//
//	dev.SetRotation(spitft.Rotation90) // Bounds() becomes 320x240
//	dev.ScrollTo(40)                   // ILI9341 vertical scroll
//
// # Debugging
//
// Set Opts.Logger to a *slog.Logger at debug level to get one record per
// word put on the wire.
//
// Opts.EchoCommandPayload mimics the vendor firmware, which sent the command
// byte in place of every parameter word and latched each one twice. It is
// only useful to compare wire captures.
//
// # Testing Without Hardware
//
// examples/spitft_sim runs the driver against a software model of the
// breakout and shows the result in a window.
package spitft
