package dataset

import (
	"errors"
	"fmt"

	"seg-annotator/pkg/geometry"
)

// ErrBadRLE is returned when run lengths do not cover the mask exactly.
var ErrBadRLE = errors.New("run lengths do not match mask size")

// RLE is a run-length encoded binary mask. Runs are taken over the mask in
// row-major order and alternate between background and foreground,
// starting with background (a leading 0 run is allowed).
type RLE struct {
	// Size is {height, width}.
	Size   [2]int `json:"size"`
	Counts []int  `json:"counts"`
}

// EncodeMask run-length encodes a w×h mask where any non-zero byte is
// foreground.
func EncodeMask(mask []byte, w, h int) RLE {
	r := RLE{Size: [2]int{h, w}}
	var fg bool
	run := 0
	for _, v := range mask[:w*h] {
		if (v != 0) != fg {
			r.Counts = append(r.Counts, run)
			run = 0
			fg = !fg
		}
		run++
	}
	r.Counts = append(r.Counts, run)
	return r
}

// Decode expands the runs into a mask of 0/1 bytes.
func (r RLE) Decode() ([]byte, error) {
	h, w := r.Size[0], r.Size[1]
	mask := make([]byte, w*h)
	pos := 0
	var fg byte
	for _, n := range r.Counts {
		if n < 0 || pos+n > len(mask) {
			return nil, fmt.Errorf("run %d at %d of %d: %w", n, pos, len(mask), ErrBadRLE)
		}
		if fg == 1 {
			for i := pos; i < pos+n; i++ {
				mask[i] = 1
			}
		}
		pos += n
		fg ^= 1
	}
	if pos != len(mask) {
		return nil, fmt.Errorf("covered %d of %d: %w", pos, len(mask), ErrBadRLE)
	}
	return mask, nil
}

// Area counts foreground pixels.
func (r RLE) Area() int {
	area := 0
	for i := 1; i < len(r.Counts); i += 2 {
		area += r.Counts[i]
	}
	return area
}

// maskBounds returns the bounding box of non-zero pixels.
func maskBounds(mask []byte, w, h int) geometry.RectInt {
	minX, minY, maxX, maxY := w, h, -1, -1
	for y := 0; y < h; y++ {
		row := mask[y*w : (y+1)*w]
		for x, v := range row {
			if v == 0 {
				continue
			}
			minX = min(minX, x)
			maxX = max(maxX, x)
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
	}
	if maxX < 0 {
		return geometry.RectInt{}
	}
	return geometry.RectInt{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1}
}
