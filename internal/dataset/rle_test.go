package dataset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeMaskRuns(t *testing.T) {
	tests := []struct {
		name string
		mask []byte
		w, h int
		want []int
	}{
		{"empty", []byte{0, 0, 0, 0}, 2, 2, []int{4}},
		{"full", []byte{1, 1, 1, 1}, 2, 2, []int{0, 4}},
		{"mixed", []byte{0, 1, 1, 0, 0, 255}, 3, 2, []int{1, 2, 2, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := EncodeMask(tt.mask, tt.w, tt.h)
			assert.Equal(t, tt.want, r.Counts)
			assert.Equal(t, [2]int{tt.h, tt.w}, r.Size)

			got, err := r.Decode()
			require.NoError(t, err)
			for i, v := range tt.mask {
				assert.Equal(t, v != 0, got[i] == 1, "pixel %d", i)
			}
		})
	}
}

func TestDecodeRejectsBadRuns(t *testing.T) {
	for _, counts := range [][]int{{3}, {2, 3}, {-1, 5}} {
		_, err := RLE{Size: [2]int{2, 2}, Counts: counts}.Decode()
		assert.True(t, errors.Is(err, ErrBadRLE), "%v", counts)
	}
}

func TestArea(t *testing.T) {
	assert.Equal(t, 3, RLE{Counts: []int{1, 2, 2, 1}}.Area())
}
