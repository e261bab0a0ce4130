package colorutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
		ok   bool
	}{
		{"#ff0000", color.NRGBA{R: 255, A: 255}, true},
		{"00ff7f", color.NRGBA{G: 255, B: 127, A: 255}, true},
		{" #0A0b0C ", color.NRGBA{R: 10, G: 11, B: 12, A: 255}, true},
		{"#fff", color.NRGBA{}, false},
		{"#gg0000", color.NRGBA{}, false},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, got, mustParse(t, ToHex(got)))
	}
}

func mustParse(t *testing.T, s string) color.NRGBA {
	t.Helper()
	c, err := ParseHex(s)
	require.NoError(t, err)
	return c
}

func TestHSVToRGBPrimaries(t *testing.T) {
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, HSVToRGB(0, 1, 1))
	assert.Equal(t, color.NRGBA{G: 255, A: 255}, HSVToRGB(120, 1, 1))
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, HSVToRGB(240, 1, 1))
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, HSVToRGB(360, 1, 1))
}

func TestPaletteDistinct(t *testing.T) {
	p := Palette(8)
	require.Len(t, p, 8)
	seen := map[color.NRGBA]bool{}
	for _, c := range p {
		assert.False(t, seen[c], "duplicate color %v", c)
		seen[c] = true
	}
}

func TestBGR(t *testing.T) {
	assert.Equal(t, [3]uint8{3, 2, 1}, BGR(color.NRGBA{R: 1, G: 2, B: 3, A: 255}))
}
