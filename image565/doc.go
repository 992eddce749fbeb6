// Package image565 provides the 16-bit "565" color format used by TFT panel
// controllers such as the ILI9341.
//
// A pixel packs 5 bits of red, 6 bits of green and 5 bits of blue into a
// uint16, most significant bits first:
//
//	bit:   15 14 13 12 11 | 10 9 8 7 6 5 | 4 3 2 1 0
//	field:  R  R  R  R  R |  G G G G G G | B B B B B
//
// Packing keeps the top bits of each 8-bit component and drops the rest, so
// pure white (255, 255, 255) is 0xFFFF and black is 0x0000.
//
// This package provides:
//
// - RGB565: a color.Color holding a packed pixel
// - Model: a color.Model converting any color to RGB565
// - Image: a draw.Image backed by a []uint16, one element per pixel
//
// Example usage:
//
//	img := image565.NewImage(image.Rect(0, 0, 240, 320))
//	img.SetRGB565(10, 20, image565.Pack(255, 0, 0))
//	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
//
// The Pix slice of an Image can be handed directly to a pixel stream writer:
// elements are in host order and rows are Stride elements apart.
package image565
