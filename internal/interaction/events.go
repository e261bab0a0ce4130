// Package interaction turns pointer, wheel and keyboard input into editor
// commands.
//
// It is independent of any GUI toolkit: front ends translate their native
// events into the small event types defined here and feed them to a Shell.
package interaction

import (
	"errors"
	"fmt"

	"seg-annotator/pkg/geometry"
)

// Mode is the active pointer interaction mode.
type Mode string

const (
	ModePoint  Mode = "point"
	ModePaint  Mode = "paint"
	ModeEraser Mode = "eraser"
)

// Modes lists the modes in dropdown order.
var Modes = []Mode{ModePoint, ModePaint, ModeEraser}

// ErrInvalidMode is returned for a mode name outside Modes.
var ErrInvalidMode = errors.New("invalid interaction mode")

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%q: %w", s, ErrInvalidMode)
}

// Strokes reports whether the mode paints continuously while the pointer
// is held down.
func (m Mode) Strokes() bool {
	return m == ModePaint || m == ModeEraser
}

// Label marks a click as foreground or background.
type Label int

const (
	LabelNegative Label = 0
	LabelPositive Label = 1
)

// Button identifies a pointer button.
type Button int

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonRight
	ButtonMiddle
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	default:
		return "none"
	}
}

// Modifier is a bit set of held modifier keys.
type Modifier uint

const (
	ModShift Modifier = 1 << iota
	ModControl
	ModAlt
	ModSuper
)

// PointerEvent is a press, move or release at a view position.
type PointerEvent struct {
	Pos       geometry.Point2D
	Button    Button
	Modifiers Modifier
}

// WheelEvent is a scroll at a view position. Positive DeltaY zooms in.
type WheelEvent struct {
	Pos    geometry.Point2D
	DeltaY float64
}

// Key names a keyboard key by its label.
type Key string

const (
	KeyEscape Key = "Escape"
	KeyA      Key = "A"
	KeyD      Key = "D"
	KeyK      Key = "K"
	KeyL      Key = "L"
	KeyN      Key = "N"
	KeyR      Key = "R"
	KeyS      Key = "S"
)

// KeyEvent is a key press.
type KeyEvent struct {
	Key       Key
	Modifiers Modifier
}
