// Package pixbuf holds the 3-channel display buffer shared between the
// editor and the canvas.
//
// Pixels are stored row-major, three bytes per pixel, in blue-green-red
// order. A Buffer handed to a reader must not be written again; producers
// build a new Buffer and publish it.
package pixbuf

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// Channels is the number of bytes per pixel.
const Channels = 3

// ErrShape is returned when pixel data does not match the stated dimensions.
var ErrShape = errors.New("pixel data does not match dimensions")

// Buffer is a height×width×3 BGR pixel buffer.
type Buffer struct {
	Width  int
	Height int
	Pix    []byte
}

// New allocates a zeroed (black) buffer.
func New(width, height int) *Buffer {
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*Channels),
	}
}

// FromBytes wraps existing BGR data, validating its length.
func FromBytes(width, height int, pix []byte) (*Buffer, error) {
	if width < 0 || height < 0 || len(pix) != width*height*Channels {
		return nil, fmt.Errorf("%dx%d with %d bytes: %w", width, height, len(pix), ErrShape)
	}
	return &Buffer{Width: width, Height: height, Pix: pix}, nil
}

// FromImage converts any image into a BGR buffer.
func FromImage(img image.Image) *Buffer {
	b := img.Bounds()
	buf := New(b.Dx(), b.Dy())
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			i := buf.offset(x, y)
			buf.Pix[i] = c.B
			buf.Pix[i+1] = c.G
			buf.Pix[i+2] = c.R
		}
	}
	return buf
}

// Bounds returns the buffer's pixel rectangle.
func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

// In reports whether (x, y) addresses a pixel of the buffer.
func (b *Buffer) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Width && y < b.Height
}

func (b *Buffer) offset(x, y int) int {
	return (y*b.Width + x) * Channels
}

// BGRAt returns the raw channels at (x, y).
func (b *Buffer) BGRAt(x, y int) [3]uint8 {
	i := b.offset(x, y)
	return [3]uint8{b.Pix[i], b.Pix[i+1], b.Pix[i+2]}
}

// SetBGR writes raw channels at (x, y).
func (b *Buffer) SetBGR(x, y int, bgr [3]uint8) {
	i := b.offset(x, y)
	b.Pix[i] = bgr[0]
	b.Pix[i+1] = bgr[1]
	b.Pix[i+2] = bgr[2]
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	pix := make([]byte, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{Width: b.Width, Height: b.Height, Pix: pix}
}

// ToNRGBA builds the display representation: an opaque NRGBA image with the
// channel order swapped from BGR to RGB.
func (b *Buffer) ToNRGBA() *image.NRGBA {
	out := image.NewNRGBA(b.Bounds())
	n := b.Width * b.Height
	for p := 0; p < n; p++ {
		s := p * Channels
		d := p * 4
		out.Pix[d] = b.Pix[s+2]
		out.Pix[d+1] = b.Pix[s+1]
		out.Pix[d+2] = b.Pix[s]
		out.Pix[d+3] = 0xff
	}
	return out
}
