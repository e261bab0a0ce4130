package interaction

import (
	"errors"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"seg-annotator/pkg/geometry"
)

// ErrNoImage is returned when the editor has nothing to display.
var ErrNoImage = errors.New("no image to display")

// ViewState is the canvas interaction state threaded through the input
// handlers.
type ViewState struct {
	Mode Mode
	// Stroking is set while a paint or eraser stroke is in progress.
	Stroking bool
	// ImageOrigin is the scene position of the image's top-left pixel.
	ImageOrigin geometry.Point2D
}

// CommandKind selects the editor operation an input event maps to.
type CommandKind int

const (
	CmdNone CommandKind = iota
	CmdClick
	CmdPaint
	CmdErase
)

func (k CommandKind) String() string {
	switch k {
	case CmdClick:
		return "click"
	case CmdPaint:
		return "paint"
	case CmdErase:
		return "erase"
	default:
		return "none"
	}
}

// Command is one editor call derived from pointer input.
type Command struct {
	Kind  CommandKind
	Pos   geometry.PointInt
	Label Label
}

// Press maps a pointer press at image position pos to the next state and
// editor command.
func (s ViewState) Press(button Button, pos geometry.PointInt) (ViewState, Command) {
	switch s.Mode {
	case ModePoint:
		s.Stroking = false
		switch button {
		case ButtonLeft:
			return s, Command{Kind: CmdClick, Pos: pos, Label: LabelPositive}
		case ButtonRight:
			return s, Command{Kind: CmdClick, Pos: pos, Label: LabelNegative}
		}
	case ModePaint:
		s.Stroking = true
		return s, Command{Kind: CmdPaint, Pos: pos}
	case ModeEraser:
		s.Stroking = true
		return s, Command{Kind: CmdErase, Pos: pos}
	}
	return s, Command{}
}

// Move maps pointer motion; it only produces a command mid-stroke.
func (s ViewState) Move(pos geometry.PointInt) (ViewState, Command) {
	if !s.Stroking {
		return s, Command{}
	}
	switch s.Mode {
	case ModePaint:
		return s, Command{Kind: CmdPaint, Pos: pos}
	case ModeEraser:
		return s, Command{Kind: CmdErase, Pos: pos}
	}
	return s, Command{}
}

// Release ends any stroke.
func (s ViewState) Release() ViewState {
	s.Stroking = false
	return s
}

// ImageSink receives rendered frames.
type ImageSink interface {
	SetImage(img *image.NRGBA)
}

// Canvas renders the editor's display buffer and turns pointer input into
// editor commands.
type Canvas struct {
	editor   Editor
	sink     ImageSink
	state    ViewState
	viewport *Viewport
	scene    geometry.RectInt
	log      *logrus.Entry
}

// NewCanvas creates a canvas in point mode.
func NewCanvas(editor Editor, sink ImageSink, log *logrus.Entry) *Canvas {
	return &Canvas{
		editor:   editor,
		sink:     sink,
		state:    ViewState{Mode: ModePoint},
		viewport: NewViewport(),
		log:      log.WithField("component", "canvas"),
	}
}

// State returns a copy of the interaction state.
func (c *Canvas) State() ViewState {
	return c.state
}

// Viewport exposes the scene-to-view transform.
func (c *Canvas) Viewport() *Viewport {
	return c.viewport
}

// SceneRect returns the logical scene bounds, the last image's pixel size.
func (c *Canvas) SceneRect() geometry.RectInt {
	return c.scene
}

// SetMode switches the interaction mode. Unknown names are rejected and the
// current mode is kept.
func (c *Canvas) SetMode(name string) error {
	m, err := ParseMode(name)
	if err != nil {
		return err
	}
	c.state.Mode = m
	c.log.WithField("mode", m).Debug("Mode changed")
	return nil
}

// SetImage replaces the displayed image and resets the scene bounds.
func (c *Canvas) SetImage(img *image.NRGBA) {
	b := img.Bounds()
	c.scene = geometry.RectInt{X: 0, Y: 0, Width: b.Dx(), Height: b.Dy()}
	if c.sink != nil {
		c.sink.SetImage(img)
	}
}

// Render pulls the editor's current buffer and displays it.
func (c *Canvas) Render() error {
	buf := c.editor.Display()
	if buf == nil {
		return ErrNoImage
	}
	c.SetImage(buf.ToNRGBA())
	return nil
}

// Wheel zooms around the cursor. It reports whether the scale changed.
func (c *Canvas) Wheel(ev WheelEvent) bool {
	if ev.DeltaY == 0 {
		return false
	}
	changed := c.viewport.ZoomAt(ev.Pos, wheelFactor(ev.DeltaY))
	if changed {
		c.log.WithField("scale", c.viewport.Scale()).Debug("Zoom changed")
	}
	return changed
}

// imagePos converts a view position to image pixel coordinates.
func (c *Canvas) imagePos(view geometry.Point2D) (geometry.PointInt, bool) {
	p := c.viewport.MapToScene(view).Sub(c.state.ImageOrigin)
	return p.Trunc(), c.scene.ContainsFloat(p)
}

// Press handles a pointer press.
func (c *Canvas) Press(ev PointerEvent) error {
	pos, inside := c.imagePos(ev.Pos)
	next, cmd := c.state.Press(ev.Button, pos)
	c.state = next
	if !inside {
		return nil
	}
	return c.execute(cmd)
}

// Move handles pointer motion.
func (c *Canvas) Move(ev PointerEvent) error {
	pos, inside := c.imagePos(ev.Pos)
	next, cmd := c.state.Move(pos)
	c.state = next
	if !inside {
		return nil
	}
	return c.execute(cmd)
}

// Release ends the current stroke.
func (c *Canvas) Release(PointerEvent) {
	c.state = c.state.Release()
}

func (c *Canvas) execute(cmd Command) error {
	var err error
	switch cmd.Kind {
	case CmdNone:
		return nil
	case CmdClick:
		err = c.editor.AddClick(cmd.Pos.X, cmd.Pos.Y, cmd.Label)
	case CmdPaint:
		err = c.editor.AddPaint(cmd.Pos.X, cmd.Pos.Y)
	case CmdErase:
		err = c.editor.ErasePaint(cmd.Pos.X, cmd.Pos.Y)
	}
	if err != nil {
		return fmt.Errorf("%s at (%d, %d): %w", cmd.Kind, cmd.Pos.X, cmd.Pos.Y, err)
	}
	if err := c.editor.OnlineDraw(); err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	return c.Render()
}
