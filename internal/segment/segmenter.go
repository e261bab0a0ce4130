// Package segment implements click-driven region segmentation with OpenCV.
package segment

import (
	"fmt"
	"image"
	"image/color"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"seg-annotator/internal/editor"
	"seg-annotator/internal/interaction"
	"seg-annotator/internal/pixbuf"
)

// Params tune the color region grower.
type Params struct {
	// Tolerance is the accepted per-channel Lab distance from the clicked
	// pixel.
	Tolerance float64
	// CloseKernel is the ellipse size used to close small gaps.
	CloseKernel int
}

// ColorRegion selects, for every click, the connected region of similar
// Lab color under it. Positive clicks add their region, negative clicks
// remove it, applied in click order.
type ColorRegion struct {
	params Params
	log    *logrus.Entry
}

var _ editor.Segmenter = (*ColorRegion)(nil)

// NewColorRegion creates a segmenter.
func NewColorRegion(params Params, log *logrus.Entry) *ColorRegion {
	if params.CloseKernel < 1 {
		params.CloseKernel = 1
	}
	return &ColorRegion{params: params, log: log.WithField("component", "segment")}
}

// Segment returns a width*height mask with 1 inside the selection.
func (s *ColorRegion) Segment(img *pixbuf.Buffer, clicks []editor.Click) ([]byte, error) {
	w, h := img.Width, img.Height
	out := make([]byte, w*h)
	if len(clicks) == 0 {
		return out, nil
	}

	src, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC3, img.Pix)
	if err != nil {
		return nil, fmt.Errorf("wrap image: %w", err)
	}
	defer src.Close()

	lab := gocv.NewMat()
	defer lab.Close()
	gocv.CvtColor(src, &lab, gocv.ColorBGRToLab)

	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(s.params.CloseKernel, s.params.CloseKernel))
	defer kernel.Close()

	for _, c := range clicks {
		if !img.In(c.X, c.Y) {
			continue
		}
		region, err := s.region(lab, kernel, c)
		if err != nil {
			return nil, err
		}
		v := byte(0)
		if c.Label == interaction.LabelPositive {
			v = 1
		}
		for i, r := range region {
			if r != 0 {
				out[i] = v
			}
		}
	}
	return out, nil
}

// region grows the color region under one click.
func (s *ColorRegion) region(lab, kernel gocv.Mat, c editor.Click) ([]byte, error) {
	seed := lab.GetVecbAt(c.Y, c.X)
	tol := s.params.Tolerance
	lower := gocv.NewScalar(
		max(0, float64(seed[0])-tol),
		max(0, float64(seed[1])-tol),
		max(0, float64(seed[2])-tol), 0)
	upper := gocv.NewScalar(
		min(255, float64(seed[0])+tol),
		min(255, float64(seed[1])+tol),
		min(255, float64(seed[2])+tol), 0)

	similar := gocv.NewMat()
	defer similar.Close()
	gocv.InRangeWithScalar(lab, lower, upper, &similar)
	gocv.MorphologyEx(similar, &similar, gocv.MorphClose, kernel)

	contours := gocv.FindContours(similar, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	// Smallest outer contour that contains the click.
	pt := image.Pt(c.X, c.Y)
	best, bestArea := -1, 0.0
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		if !pt.In(gocv.BoundingRect(contour).Inset(-1)) {
			continue
		}
		if gocv.PointPolygonTest(contour, pt, false) < 0 {
			continue
		}
		area := gocv.ContourArea(contour)
		if best < 0 || area < bestArea {
			best, bestArea = i, area
		}
	}

	rows, cols := lab.Rows(), lab.Cols()
	filled := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), rows, cols, gocv.MatTypeCV8U)
	defer filled.Close()
	if best >= 0 {
		gocv.DrawContours(&filled, contours, best, color.RGBA{R: 255, G: 255, B: 255, A: 255}, -1)
	} else {
		// The closing step can swallow a lone pixel; keep at least the seed.
		filled.SetUCharAt(c.Y, c.X, 255)
	}

	s.log.WithFields(logrus.Fields{
		"x":        c.X,
		"y":        c.Y,
		"label":    c.Label,
		"contours": contours.Size(),
		"area":     bestArea,
	}).Debug("Region grown")

	data := filled.ToBytes()
	if len(data) != rows*cols {
		return nil, fmt.Errorf("unexpected mask size %d for %dx%d", len(data), cols, rows)
	}
	return data, nil
}
