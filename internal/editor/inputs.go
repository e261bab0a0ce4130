package editor

import "seg-annotator/internal/interaction"

// Click is a labelled point in image coordinates.
type Click struct {
	X, Y  int
	Label interaction.Label
}

const (
	brushNone  byte = 0
	brushAdd   byte = 1
	brushErase byte = 2
)

// Inputs are the in-progress annotation inputs for the current image:
// clicks for the segmenter and a brush layer that forces pixels in or out.
type Inputs struct {
	width, height int
	radius        int
	clicks        []Click
	brush         []byte
}

func newInputs(width, height, radius int) *Inputs {
	return &Inputs{
		width:  width,
		height: height,
		radius: radius,
		brush:  make([]byte, width*height),
	}
}

// Clicks returns the clicks in order.
func (in *Inputs) Clicks() []Click {
	return append([]Click(nil), in.clicks...)
}

// Empty reports whether nothing has been clicked or painted.
func (in *Inputs) Empty() bool {
	if len(in.clicks) > 0 {
		return false
	}
	for _, v := range in.brush {
		if v != brushNone {
			return false
		}
	}
	return true
}

func (in *Inputs) addClick(c Click) {
	in.clicks = append(in.clicks, c)
}

// stamp writes v into a disc of the brush radius centred on (cx, cy).
func (in *Inputs) stamp(cx, cy int, v byte) {
	r := in.radius
	for y := max(0, cy-r); y <= min(in.height-1, cy+r); y++ {
		dy := y - cy
		for x := max(0, cx-r); x <= min(in.width-1, cx+r); x++ {
			dx := x - cx
			if dx*dx+dy*dy <= r*r {
				in.brush[y*in.width+x] = v
			}
		}
	}
}

// Combine merges a segmentation with the brush layer: painted pixels are
// added, erased pixels removed.
func (in *Inputs) Combine(seg []byte) []byte {
	out := make([]byte, in.width*in.height)
	for i := range out {
		switch in.brush[i] {
		case brushAdd:
			out[i] = 1
		case brushErase:
			out[i] = 0
		default:
			if seg != nil && seg[i] != 0 {
				out[i] = 1
			}
		}
	}
	return out
}
