package canvas

import (
	"image"
	"image/color"
)

var brushOutline = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xC0}

// drawRing draws a circle outline of about 1.5 pixels thickness.
func drawRing(output *image.NRGBA, cx, cy, r float64, col color.NRGBA) {
	if r < 1 {
		r = 1
	}
	bounds := output.Bounds()

	minX := max(bounds.Min.X, int(cx-r-2))
	maxX := min(bounds.Max.X-1, int(cx+r+2))
	minY := max(bounds.Min.Y, int(cy-r-2))
	maxY := min(bounds.Max.Y-1, int(cy+r+2))

	outer := (r + 0.75) * (r + 0.75)
	inner := max(0, r-0.75) * max(0, r-0.75)

	for y := minY; y <= maxY; y++ {
		dy := float64(y) + 0.5 - cy
		for x := minX; x <= maxX; x++ {
			dx := float64(x) + 0.5 - cx
			d2 := dx*dx + dy*dy
			if d2 <= outer && d2 >= inner {
				output.SetNRGBA(x, y, col)
			}
		}
	}
}
