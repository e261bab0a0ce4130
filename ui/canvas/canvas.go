// Package canvas provides the annotation canvas widget: it shows the
// editor's display image through the shared viewport and forwards pointer
// input to a Handler.
package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"seg-annotator/internal/interaction"
	"seg-annotator/pkg/geometry"
)

// ColorNameSurround is the theme colour painted around the image. Themes
// that do not define it get background.
const ColorNameSurround fyne.ThemeColorName = "imageSurround"

var background = color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xFF}

func surround() color.Color {
	a := fyne.CurrentApp()
	if a == nil {
		return background
	}
	s := a.Settings()
	c := s.Theme().Color(ColorNameSurround, s.ThemeVariant())
	if c == nil {
		return background
	}
	if _, _, _, alpha := c.RGBA(); alpha == 0 {
		return background
	}
	return c
}

// Handler receives translated pointer input.
type Handler interface {
	Press(ev interaction.PointerEvent)
	Move(ev interaction.PointerEvent)
	Release(ev interaction.PointerEvent)
	Wheel(ev interaction.WheelEvent) bool
}

// AnnotationCanvas displays the current frame and captures mouse input.
type AnnotationCanvas struct {
	widget.BaseWidget

	mu       sync.Mutex
	img      *image.NRGBA
	viewport *interaction.Viewport
	handler  Handler

	raster *fynecanvas.Raster

	// Brush cursor, in view units.
	showBrush   bool
	brushRadius float64
	hover       fyne.Position
	hovering    bool

	pressed interaction.Button
}

var (
	_ interaction.ImageSink = (*AnnotationCanvas)(nil)
	_ desktop.Mouseable     = (*AnnotationCanvas)(nil)
	_ desktop.Hoverable     = (*AnnotationCanvas)(nil)
	_ fyne.Scrollable       = (*AnnotationCanvas)(nil)
)

// NewAnnotationCanvas creates a canvas drawing through viewport. A nil
// viewport is replaced by an identity one.
func NewAnnotationCanvas(viewport *interaction.Viewport) *AnnotationCanvas {
	if viewport == nil {
		viewport = interaction.NewViewport()
	}
	ac := &AnnotationCanvas{viewport: viewport}
	ac.raster = fynecanvas.NewRaster(ac.draw)
	ac.raster.ScaleMode = fynecanvas.ImageScalePixels
	ac.ExtendBaseWidget(ac)
	return ac
}

// SetViewport replaces the scene-to-view transform, normally the one owned
// by the interaction canvas.
func (ac *AnnotationCanvas) SetViewport(v *interaction.Viewport) {
	ac.mu.Lock()
	ac.viewport = v
	ac.mu.Unlock()
	ac.raster.Refresh()
}

// SetHandler sets the receiver of pointer input.
func (ac *AnnotationCanvas) SetHandler(h Handler) {
	ac.mu.Lock()
	ac.handler = h
	ac.mu.Unlock()
}

func (ac *AnnotationCanvas) getHandler() Handler {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.handler
}

// SetImage implements interaction.ImageSink.
func (ac *AnnotationCanvas) SetImage(img *image.NRGBA) {
	ac.mu.Lock()
	ac.img = img
	ac.mu.Unlock()
	ac.raster.Refresh()
}

// Image returns the image being shown.
func (ac *AnnotationCanvas) Image() *image.NRGBA {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.img
}

// SetBrush shows or hides the brush outline. radius is in image pixels.
func (ac *AnnotationCanvas) SetBrush(show bool, radius int) {
	ac.mu.Lock()
	ac.showBrush = show
	ac.brushRadius = float64(radius)
	ac.mu.Unlock()
	ac.raster.Refresh()
}

// ResetView restores the identity viewport.
func (ac *AnnotationCanvas) ResetView() {
	ac.mu.Lock()
	vp := ac.viewport
	ac.mu.Unlock()
	vp.Reset()
	ac.raster.Refresh()
}

// MinSize implements fyne.Widget.
func (ac *AnnotationCanvas) MinSize() fyne.Size {
	return fyne.NewSize(200, 150)
}

// CreateRenderer implements fyne.Widget.
func (ac *AnnotationCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(ac.raster)
}

// MouseDown implements desktop.Mouseable.
func (ac *AnnotationCanvas) MouseDown(ev *desktop.MouseEvent) {
	b := ButtonFromFyne(ev.Button)
	ac.mu.Lock()
	ac.pressed = b
	ac.mu.Unlock()
	if h := ac.getHandler(); h != nil {
		h.Press(pointerEvent(ev, b))
	}
}

// MouseUp implements desktop.Mouseable.
func (ac *AnnotationCanvas) MouseUp(ev *desktop.MouseEvent) {
	b := ButtonFromFyne(ev.Button)
	ac.mu.Lock()
	ac.pressed = interaction.ButtonNone
	ac.mu.Unlock()
	if h := ac.getHandler(); h != nil {
		h.Release(pointerEvent(ev, b))
	}
}

// MouseIn implements desktop.Hoverable.
func (ac *AnnotationCanvas) MouseIn(ev *desktop.MouseEvent) {
	ac.MouseMoved(ev)
}

// MouseMoved implements desktop.Hoverable.
func (ac *AnnotationCanvas) MouseMoved(ev *desktop.MouseEvent) {
	ac.mu.Lock()
	ac.hover = ev.Position
	ac.hovering = true
	b := ac.pressed
	brush := ac.showBrush
	ac.mu.Unlock()

	if h := ac.getHandler(); h != nil {
		h.Move(pointerEvent(ev, b))
	}
	if brush {
		ac.raster.Refresh()
	}
}

// MouseOut implements desktop.Hoverable.
func (ac *AnnotationCanvas) MouseOut() {
	ac.mu.Lock()
	ac.hovering = false
	ac.mu.Unlock()
	ac.raster.Refresh()
}

// Scrolled implements fyne.Scrollable; the wheel zooms about the pointer.
func (ac *AnnotationCanvas) Scrolled(ev *fyne.ScrollEvent) {
	h := ac.getHandler()
	if h == nil {
		return
	}
	if h.Wheel(WheelFromFyne(ev)) {
		ac.raster.Refresh()
	}
}

func pointerEvent(ev *desktop.MouseEvent, b interaction.Button) interaction.PointerEvent {
	return interaction.PointerEvent{
		Pos:       viewPoint(ev.Position),
		Button:    b,
		Modifiers: ModifiersFromFyne(ev.Modifier),
	}
}

// draw renders the image through the viewport at device resolution.
func (ac *AnnotationCanvas) draw(w, h int) image.Image {
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.NewUniform(surround()), image.Point{}, draw.Src)

	ac.mu.Lock()
	img := ac.img
	showBrush, radius := ac.showBrush && ac.hovering, ac.brushRadius
	hover := ac.hover
	vp := ac.viewport
	ac.mu.Unlock()

	size := ac.Size()
	if size.Width <= 0 || w == 0 {
		return out
	}
	// Viewport works in fyne units; the raster is in device pixels.
	px := float64(w) / float64(size.Width)
	aff := vp.Affine()

	if img != nil {
		m := f64.Aff3{
			aff[0] * px, aff[1] * px, aff[2] * px,
			aff[3] * px, aff[4] * px, aff[5] * px,
		}
		xdraw.NearestNeighbor.Transform(out, m, img, img.Bounds(), xdraw.Over, nil)
	}
	if showBrush {
		r := radius * vp.Scale() * px
		drawRing(out, float64(hover.X)*px, float64(hover.Y)*px, r, brushOutline)
	}
	return out
}

func viewPoint(p fyne.Position) geometry.Point2D {
	return geometry.NewPoint2D(float64(p.X), float64(p.Y))
}
