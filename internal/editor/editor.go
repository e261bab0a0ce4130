// Package editor holds the annotation state of the current image and
// composites it into the display buffer shown by the canvas.
package editor

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"seg-annotator/internal/dataset"
	"seg-annotator/internal/interaction"
	"seg-annotator/internal/pixbuf"
)

var (
	// ErrUnknownCategory is returned when selecting a category that is not
	// configured.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrOutOfBounds is returned for input coordinates outside the image.
	ErrOutOfBounds = errors.New("position outside image")
)

// Segmenter turns clicks into a region mask of the image, one byte per
// pixel, non-zero inside.
type Segmenter interface {
	Segment(img *pixbuf.Buffer, clicks []Click) ([]byte, error)
}

// Dataset is the image and annotation source the editor works on.
type Dataset interface {
	NumImages() int
	ImageName(i int) string
	LoadImage(i int) (*pixbuf.Buffer, error)
	Annotations(i int) []dataset.Annotation
	AddAnnotation(i int, category string, mask []byte, w, h int) (dataset.Annotation, error)
	DeleteAnnotations(i int) (int, error)
	Status(i int) string
	SetStatus(i int, status string) error
	Save() error
}

// Options configure an Editor.
type Options struct {
	Categories       []interaction.Category
	BrushRadius      int
	Transparency     float64
	TransparencyStep float64
}

type storedMask struct {
	category string
	mask     []byte
}

// Editor implements interaction.Editor on top of a Dataset.
type Editor struct {
	mu  sync.Mutex
	ds  Dataset
	seg Segmenter
	log *logrus.Entry

	categories []interaction.Category
	catIndex   int
	radius     int
	alpha      float64
	step       float64
	overlay    bool

	imageID int
	image   *pixbuf.Buffer
	inputs  *Inputs
	mask    []byte
	stored  []storedMask

	display atomic.Pointer[pixbuf.Buffer]
}

var _ interaction.Editor = (*Editor)(nil)

// New creates an editor positioned on the first image. seg may be nil, in
// which case clicks are recorded but only the brush shapes the mask.
func New(ds Dataset, seg Segmenter, opts Options, log *logrus.Entry) (*Editor, error) {
	if len(opts.Categories) == 0 {
		return nil, errors.New("editor needs at least one category")
	}
	if opts.BrushRadius < 1 {
		opts.BrushRadius = 1
	}
	e := &Editor{
		ds:         ds,
		seg:        seg,
		log:        log.WithField("component", "editor"),
		categories: append([]interaction.Category(nil), opts.Categories...),
		radius:     opts.BrushRadius,
		alpha:      clamp01(opts.Transparency),
		step:       opts.TransparencyStep,
		overlay:    true,
	}
	if err := e.load(0); err != nil {
		return nil, err
	}
	return e, nil
}

func clamp01(v float64) float64 {
	return min(1, max(0, v))
}

// load switches to image i and rebuilds all per-image state.
func (e *Editor) load(i int) error {
	img, err := e.ds.LoadImage(i)
	if err != nil {
		return err
	}
	var stored []storedMask
	for _, a := range e.ds.Annotations(i) {
		m, err := a.Segmentation.Decode()
		if err != nil || len(m) != img.Width*img.Height {
			e.log.WithError(err).WithField("id", a.ID).Warn("Skipping unreadable annotation")
			continue
		}
		stored = append(stored, storedMask{category: a.Category, mask: m})
	}

	e.imageID = i
	e.image = img
	e.stored = stored
	e.inputs = newInputs(img.Width, img.Height, e.radius)
	e.mask = nil
	e.compose()

	e.log.WithFields(logrus.Fields{
		"index":       i,
		"name":        e.ds.ImageName(i),
		"annotations": len(stored),
	}).Debug("Image loaded")
	return nil
}

func (e *Editor) colorOf(category string) interaction.Category {
	for _, c := range e.categories {
		if c.Name == category {
			return c
		}
	}
	return interaction.Category{Name: category, Color: unknownCategoryColor}
}

// compose rebuilds and publishes the display buffer.
func (e *Editor) compose() {
	out := e.image.Clone()
	if e.overlay {
		for _, s := range e.stored {
			tint(out, s.mask, e.colorOf(s.category).Color, e.alpha)
		}
		tint(out, e.mask, e.categories[e.catIndex].Color, e.alpha)
	}
	e.display.Store(out)
}

// Display returns the last published buffer.
func (e *Editor) Display() *pixbuf.Buffer {
	return e.display.Load()
}

// Name returns the current image's file name.
func (e *Editor) Name() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ds.ImageName(e.imageID)
}

// ImageID returns the 0-based index of the current image.
func (e *Editor) ImageID() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.imageID
}

// NumImages returns the dataset size.
func (e *Editor) NumImages() int {
	return e.ds.NumImages()
}

// StatusName returns the review status of the current image.
func (e *Editor) StatusName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ds.Status(e.imageID)
}

// Transparency returns the overlay alpha.
func (e *Editor) Transparency() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alpha
}

// Mask returns a copy of the live preview mask, nil before any preview.
func (e *Editor) Mask() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mask == nil {
		return nil
	}
	return append([]byte(nil), e.mask...)
}

func (e *Editor) checkBounds(x, y int) error {
	if !e.image.In(x, y) {
		return fmt.Errorf("(%d, %d) in %dx%d: %w", x, y, e.image.Width, e.image.Height, ErrOutOfBounds)
	}
	return nil
}

// AddClick records a point for the segmenter.
func (e *Editor) AddClick(x, y int, label interaction.Label) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkBounds(x, y); err != nil {
		return err
	}
	e.inputs.addClick(Click{X: x, Y: y, Label: label})
	return nil
}

// AddPaint paints a brush disc into the mask.
func (e *Editor) AddPaint(x, y int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkBounds(x, y); err != nil {
		return err
	}
	e.inputs.stamp(x, y, brushAdd)
	return nil
}

// ErasePaint erases a brush disc from the mask.
func (e *Editor) ErasePaint(x, y int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkBounds(x, y); err != nil {
		return err
	}
	e.inputs.stamp(x, y, brushErase)
	return nil
}

// OnlineDraw recomputes the preview mask and republishes the display.
func (e *Editor) OnlineDraw() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.refreshMask(); err != nil {
		return err
	}
	e.compose()
	return nil
}

func (e *Editor) refreshMask() error {
	var seg []byte
	clicks := e.inputs.Clicks()
	if e.seg != nil && len(clicks) > 0 {
		var err error
		seg, err = e.seg.Segment(e.image, clicks)
		if err != nil {
			return fmt.Errorf("segment: %w", err)
		}
	}
	e.mask = e.inputs.Combine(seg)
	return nil
}

// SaveAnnotation commits the current mask under the selected category.
// An empty mask is ignored.
func (e *Editor) SaveAnnotation() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.refreshMask(); err != nil {
		return err
	}
	if maskEmpty(e.mask) {
		e.log.Info("Nothing to add, mask is empty")
		return nil
	}
	cat := e.categories[e.catIndex].Name
	if _, err := e.ds.AddAnnotation(e.imageID, cat, e.mask, e.image.Width, e.image.Height); err != nil {
		return err
	}
	e.stored = append(e.stored, storedMask{category: cat, mask: e.mask})
	e.compose()
	return nil
}

// Save persists the dataset.
func (e *Editor) Save() error {
	return e.ds.Save()
}

// DeleteAnnotations drops every stored annotation of the current image.
func (e *Editor) DeleteAnnotations() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.ds.DeleteAnnotations(e.imageID); err != nil {
		return err
	}
	e.stored = nil
	e.compose()
	return nil
}

// Reset discards the in-progress inputs.
func (e *Editor) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inputs = newInputs(e.image.Width, e.image.Height, e.radius)
	e.mask = nil
	e.compose()
	return nil
}

// NextImage advances to the next image; it stays put on the last one.
func (e *Editor) NextImage() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.imageID >= e.ds.NumImages()-1 {
		return nil
	}
	return e.load(e.imageID + 1)
}

// PrevImage goes back one image; it stays put on the first one.
func (e *Editor) PrevImage() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.imageID <= 0 {
		return nil
	}
	return e.load(e.imageID - 1)
}

// JumpToImage selects image n, counted from 1.
func (e *Editor) JumpToImage(n int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if total := e.ds.NumImages(); n < 1 || n > total {
		return fmt.Errorf("image %d of %d: %w", n, total, interaction.ErrIndexOutOfRange)
	}
	return e.load(n - 1)
}

// Toggle shows or hides the overlays.
func (e *Editor) Toggle() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.overlay = !e.overlay
	e.compose()
	return nil
}

// StepUpTransparency raises the overlay alpha by one step.
func (e *Editor) StepUpTransparency() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.alpha = clamp01(e.alpha + e.step)
	e.compose()
	return nil
}

// StepDownTransparency lowers the overlay alpha by one step.
func (e *Editor) StepDownTransparency() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.alpha = clamp01(e.alpha - e.step)
	e.compose()
	return nil
}

// Categories returns the configured categories.
func (e *Editor) Categories() []interaction.Category {
	return append([]interaction.Category(nil), e.categories...)
}

// SelectCategory sets the category for new annotations.
func (e *Editor) SelectCategory(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, c := range e.categories {
		if c.Name == name {
			e.catIndex = i
			e.compose()
			return nil
		}
	}
	return fmt.Errorf("%q: %w", name, ErrUnknownCategory)
}

// SelectStatus records the review status of the current image.
func (e *Editor) SelectStatus(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range interaction.ReviewStatuses {
		if s == name {
			return e.ds.SetStatus(e.imageID, name)
		}
	}
	return fmt.Errorf("%q: %w", name, interaction.ErrUnknownReviewStatus)
}
