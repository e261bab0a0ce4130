//go:build cgo

package segment

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seg-annotator/internal/editor"
	"seg-annotator/internal/interaction"
	"seg-annotator/internal/pixbuf"
)

const (
	imgW = 40
	imgH = 30
)

// twoTone is red on the left half and blue on the right half.
func twoTone() *pixbuf.Buffer {
	b := pixbuf.New(imgW, imgH)
	for y := 0; y < imgH; y++ {
		for x := 0; x < imgW; x++ {
			if x < imgW/2 {
				b.SetBGR(x, y, [3]uint8{0, 0, 255})
			} else {
				b.SetBGR(x, y, [3]uint8{255, 0, 0})
			}
		}
	}
	return b
}

func newSegmenter() *ColorRegion {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return NewColorRegion(Params{Tolerance: 10, CloseKernel: 3}, logrus.NewEntry(l))
}

func area(mask []byte) int {
	n := 0
	for _, v := range mask {
		if v != 0 {
			n++
		}
	}
	return n
}

func at(mask []byte, x, y int) byte {
	return mask[y*imgW+x]
}

func TestPositiveClickFillsRegion(t *testing.T) {
	mask, err := newSegmenter().Segment(twoTone(), []editor.Click{{X: 5, Y: 5, Label: interaction.LabelPositive}})
	require.NoError(t, err)
	require.Len(t, mask, imgW*imgH)

	assert.Equal(t, byte(1), at(mask, 5, 5))
	assert.Equal(t, byte(1), at(mask, 0, 0))
	assert.Equal(t, byte(1), at(mask, imgW/2-1, imgH-1))
	assert.Equal(t, byte(0), at(mask, imgW/2+1, 5))
	assert.Equal(t, byte(0), at(mask, imgW-1, imgH-1))
	assert.InDelta(t, imgW/2*imgH, area(mask), imgH)
}

func TestNegativeClickRemovesRegion(t *testing.T) {
	seg := newSegmenter()
	mask, err := seg.Segment(twoTone(), []editor.Click{
		{X: 5, Y: 5, Label: interaction.LabelPositive},
		{X: 30, Y: 20, Label: interaction.LabelPositive},
		{X: 10, Y: 10, Label: interaction.LabelNegative},
	})
	require.NoError(t, err)

	assert.Equal(t, byte(0), at(mask, 5, 5))
	assert.Equal(t, byte(1), at(mask, 30, 20))
	assert.Equal(t, byte(1), at(mask, imgW-1, 0))

	mask, err = seg.Segment(twoTone(), []editor.Click{
		{X: 5, Y: 5, Label: interaction.LabelPositive},
		{X: 5, Y: 6, Label: interaction.LabelNegative},
	})
	require.NoError(t, err)
	assert.Zero(t, area(mask))
}

func TestNoClicksAndOutsideClicks(t *testing.T) {
	seg := newSegmenter()
	mask, err := seg.Segment(twoTone(), nil)
	require.NoError(t, err)
	assert.Zero(t, area(mask))

	mask, err = seg.Segment(twoTone(), []editor.Click{{X: -1, Y: 3, Label: interaction.LabelPositive}, {X: imgW, Y: 0, Label: interaction.LabelPositive}})
	require.NoError(t, err)
	assert.Zero(t, area(mask))
}
