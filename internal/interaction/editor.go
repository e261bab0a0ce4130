package interaction

import (
	"image/color"

	"seg-annotator/internal/pixbuf"
)

// Category is an annotation class and its overlay color.
type Category struct {
	Name  string
	Color color.NRGBA
}

// ReviewStatuses are the per-image review states, in panel order.
var ReviewStatuses = []string{
	"not label",
	"primary label",
	"secondary label",
	"final label",
}

// Editor owns the annotation state and the composited display buffer.
// The canvas and shell only read from it and call its operations.
type Editor interface {
	// Display returns the current composited buffer. The returned buffer
	// is never modified afterwards.
	Display() *pixbuf.Buffer
	Name() string
	// ImageID is the 0-based index of the current image.
	ImageID() int
	NumImages() int
	StatusName() string

	AddClick(x, y int, label Label) error
	AddPaint(x, y int) error
	ErasePaint(x, y int) error
	// OnlineDraw recomputes the live preview from the current inputs.
	OnlineDraw() error

	SaveAnnotation() error
	Save() error
	DeleteAnnotations() error
	Reset() error

	NextImage() error
	PrevImage() error
	// JumpToImage selects image n, counted from 1.
	JumpToImage(n int) error

	Toggle() error
	StepUpTransparency() error
	StepDownTransparency() error

	Categories() []Category
	SelectCategory(name string) error
	SelectStatus(name string) error
}
