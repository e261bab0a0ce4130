package interaction

import (
	"gonum.org/v1/gonum/mat"

	"seg-annotator/pkg/geometry"
)

const (
	zoomInFactor  = 1.25
	zoomOutFactor = 1 / zoomInFactor

	minScale = 0.05
	maxScale = 40.0

	scaleEps = 1e-9
)

// Viewport is the scene-to-view transform of the canvas, a 3x3 affine
// matrix acting on column vectors (x, y, 1).
type Viewport struct {
	m *mat.Dense
	// held counts zoom steps rejected at the scale limits: positive for
	// zoom-ins past maxScale, negative for zoom-outs past minScale. Each
	// opposite step cancels one held step instead of moving the view.
	held int
}

// NewViewport returns an identity viewport.
func NewViewport() *Viewport {
	v := &Viewport{}
	v.Reset()
	return v
}

// Reset restores the identity transform.
func (v *Viewport) Reset() {
	v.m = mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
	v.held = 0
}

// Scale returns the horizontal scale factor.
func (v *Viewport) Scale() float64 {
	return v.m.At(0, 0)
}

// Affine returns the top two rows of the matrix in row-major order,
// the layout used by golang.org/x/image/math/f64.Aff3.
func (v *Viewport) Affine() [6]float64 {
	return [6]float64{
		v.m.At(0, 0), v.m.At(0, 1), v.m.At(0, 2),
		v.m.At(1, 0), v.m.At(1, 1), v.m.At(1, 2),
	}
}

func (v *Viewport) post(t *mat.Dense) {
	var r mat.Dense
	r.Mul(v.m, t)
	v.m = &r
}

// ScaleBy scales scene coordinates about the scene origin.
func (v *Viewport) ScaleBy(f float64) {
	v.post(mat.NewDense(3, 3, []float64{
		f, 0, 0,
		0, f, 0,
		0, 0, 1,
	}))
}

// Translate shifts the scene by (dx, dy) scene units.
func (v *Viewport) Translate(dx, dy float64) {
	v.post(mat.NewDense(3, 3, []float64{
		1, 0, dx,
		0, 1, dy,
		0, 0, 1,
	}))
}

func apply(m mat.Matrix, p geometry.Point2D) geometry.Point2D {
	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(3, []float64{p.X, p.Y, 1}))
	return geometry.Point2D{X: out.AtVec(0), Y: out.AtVec(1)}
}

// MapFromScene converts a scene position to view coordinates.
func (v *Viewport) MapFromScene(p geometry.Point2D) geometry.Point2D {
	return apply(v.m, p)
}

// MapToScene converts a view position to scene coordinates.
func (v *Viewport) MapToScene(p geometry.Point2D) geometry.Point2D {
	var inv mat.Dense
	if err := inv.Inverse(v.m); err != nil {
		// scale is clamped away from zero, so the matrix stays invertible
		return p
	}
	return apply(&inv, p)
}

// ZoomAt scales by factor while keeping the scene point under the view
// position pos stationary. It returns false, leaving the transform alone,
// when the result would leave the supported scale range or when the step
// undoes an earlier rejected one. A zoom in followed by a zoom out
// therefore always restores the transform.
func (v *Viewport) ZoomAt(pos geometry.Point2D, factor float64) bool {
	switch {
	case factor == 1:
		return false
	case factor > 1 && v.held < 0:
		v.held++
		return false
	case factor < 1 && v.held > 0:
		v.held--
		return false
	}
	next := v.Scale() * factor
	if next > maxScale*(1+scaleEps) {
		v.held++
		return false
	}
	if next < minScale*(1-scaleEps) {
		v.held--
		return false
	}
	before := v.MapToScene(pos)
	v.ScaleBy(factor)
	after := v.MapToScene(pos)
	d := after.Sub(before)
	v.Translate(d.X, d.Y)
	return true
}

// wheelFactor picks the zoom factor for a wheel delta.
func wheelFactor(deltaY float64) float64 {
	if deltaY > 0 {
		return zoomInFactor
	}
	return zoomOutFactor
}
