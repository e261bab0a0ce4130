package editor

import (
	"image/color"
	"math"

	"seg-annotator/internal/pixbuf"
	"seg-annotator/pkg/colorutil"
)

var unknownCategoryColor = color.NRGBA{R: 128, G: 128, B: 128, A: 255}

// tint blends c over every masked pixel of dst with weight alpha.
func tint(dst *pixbuf.Buffer, mask []byte, c color.NRGBA, alpha float64) {
	if alpha <= 0 || mask == nil {
		return
	}
	bgr := colorutil.BGR(c)
	inv := 1 - alpha
	n := dst.Width * dst.Height
	for p := 0; p < n; p++ {
		if mask[p] == 0 {
			continue
		}
		i := p * pixbuf.Channels
		for ch := 0; ch < pixbuf.Channels; ch++ {
			v := float64(dst.Pix[i+ch])*inv + float64(bgr[ch])*alpha
			dst.Pix[i+ch] = uint8(math.Round(v))
		}
	}
}

// maskEmpty reports whether no pixel is set.
func maskEmpty(mask []byte) bool {
	for _, v := range mask {
		if v != 0 {
			return false
		}
	}
	return true
}
