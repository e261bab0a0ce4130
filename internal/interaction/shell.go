package interaction

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

var (
	// ErrIndexOutOfRange is returned for an image number outside 1..N.
	ErrIndexOutOfRange = errors.New("image index out of range")
	// ErrUnknownReviewStatus is returned for a name outside ReviewStatuses.
	ErrUnknownReviewStatus = errors.New("unknown review status")
)

// Action is a shell command triggered by a toolbar button or a key.
type Action int

const (
	ActionAdd Action = iota
	ActionReset
	ActionPrev
	ActionNext
	ActionToggle
	ActionTransparencyUp
	ActionTransparencyDown
	ActionSave
	ActionDeleteAnnotations
	ActionQuit
)

func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "Add"
	case ActionReset:
		return "Reset"
	case ActionPrev:
		return "Prev"
	case ActionNext:
		return "Next"
	case ActionToggle:
		return "Toggle"
	case ActionTransparencyUp:
		return "Transparency Up"
	case ActionTransparencyDown:
		return "Transparency Down"
	case ActionSave:
		return "Save"
	case ActionDeleteAnnotations:
		return "Delete Annotations"
	case ActionQuit:
		return "Quit"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// ToolbarActions are the toolbar buttons, left to right. Button labels are
// the actions' String values.
var ToolbarActions = []Action{
	ActionAdd,
	ActionReset,
	ActionPrev,
	ActionNext,
	ActionToggle,
	ActionTransparencyUp,
	ActionTransparencyDown,
	ActionSave,
	ActionDeleteAnnotations,
}

// KeyBinding maps a key to an action. A zero Modifiers matches the key
// with any modifiers held; otherwise the modifiers must match exactly.
type KeyBinding struct {
	Key       Key
	Modifiers Modifier
	Action    Action
}

// KeyBindings are the global shortcuts.
var KeyBindings = []KeyBinding{
	{Key: KeyEscape, Action: ActionQuit},
	{Key: KeyA, Action: ActionPrev},
	{Key: KeyD, Action: ActionNext},
	{Key: KeyK, Action: ActionTransparencyDown},
	{Key: KeyL, Action: ActionTransparencyUp},
	{Key: KeyN, Action: ActionAdd},
	{Key: KeyR, Action: ActionReset},
	{Key: KeyS, Modifiers: ModControl, Action: ActionSave},
}

// LookupKey finds the action bound to ev.
func LookupKey(ev KeyEvent) (Action, bool) {
	for _, b := range KeyBindings {
		if b.Key != ev.Key {
			continue
		}
		if b.Modifiers != 0 && b.Modifiers != ev.Modifiers {
			continue
		}
		return b.Action, true
	}
	return 0, false
}

// StatusSink displays the status line.
type StatusSink interface {
	SetStatus(text string)
}

// Shell dispatches actions to the editor, keeps the canvas and status line
// in sync, and is the error boundary for everything the user triggers.
type Shell struct {
	editor  Editor
	canvas  *Canvas
	status  StatusSink
	quit    func()
	log     *logrus.Entry
	lastErr error
}

// NewShell wires a shell. quit may be nil.
func NewShell(editor Editor, canvas *Canvas, status StatusSink, quit func(), log *logrus.Entry) *Shell {
	return &Shell{
		editor: editor,
		canvas: canvas,
		status: status,
		quit:   quit,
		log:    log.WithField("component", "shell"),
	}
}

// Canvas returns the canvas the shell drives.
func (s *Shell) Canvas() *Canvas {
	return s.canvas
}

// Start shows the first image and status line.
func (s *Shell) Start() error {
	return s.finish("start", s.canvas.Render())
}

// StatusText builds the status line from the editor's state.
func (s *Shell) StatusText() string {
	return fmt.Sprintf("%s ... %d/%d ... %s",
		s.editor.Name(), s.editor.ImageID()+1, s.editor.NumImages(), s.editor.StatusName())
}

// LastError returns the most recent failure, or nil after a success.
func (s *Shell) LastError() error {
	return s.lastErr
}

// finish records the outcome of an operation and refreshes the status line.
func (s *Shell) finish(op string, err error) error {
	s.lastErr = err
	text := s.StatusText()
	if err != nil {
		s.log.WithError(err).WithField("op", op).Error("Operation failed")
		text = fmt.Sprintf("%s ... error: %v", text, err)
	}
	if s.status != nil {
		s.status.SetStatus(text)
	}
	return err
}

// editThenRender runs the editor calls in order, stopping at the first
// failure, then re-renders.
func (s *Shell) editThenRender(calls ...func() error) error {
	for _, call := range calls {
		if err := call(); err != nil {
			return err
		}
	}
	return s.canvas.Render()
}

// Dispatch performs a.
func (s *Shell) Dispatch(a Action) error {
	s.log.WithField("action", a).Debug("Dispatch")
	var err error
	switch a {
	case ActionAdd:
		err = s.editThenRender(s.editor.SaveAnnotation, s.editor.Reset)
	case ActionReset:
		err = s.editThenRender(s.editor.Reset)
	case ActionPrev:
		err = s.editThenRender(s.editor.PrevImage)
	case ActionNext:
		err = s.editThenRender(s.editor.NextImage)
	case ActionToggle:
		err = s.editThenRender(s.editor.Toggle)
	case ActionTransparencyUp:
		err = s.editThenRender(s.editor.StepUpTransparency)
	case ActionTransparencyDown:
		err = s.editThenRender(s.editor.StepDownTransparency)
	case ActionSave:
		err = s.editor.Save()
	case ActionDeleteAnnotations:
		err = s.editThenRender(s.editor.DeleteAnnotations)
	case ActionQuit:
		if s.quit != nil {
			s.quit()
		}
		return nil
	default:
		err = fmt.Errorf("unknown action %v", a)
	}
	return s.finish(a.String(), err)
}

// JumpTo selects image n, counted from 1 as shown in the image dropdown.
func (s *Shell) JumpTo(n int) error {
	if total := s.editor.NumImages(); n < 1 || n > total {
		return s.finish("jump", fmt.Errorf("image %d of %d: %w", n, total, ErrIndexOutOfRange))
	}
	return s.finish("jump", s.editThenRender(func() error { return s.editor.JumpToImage(n) }))
}

// SetMode switches the canvas interaction mode.
func (s *Shell) SetMode(name string) error {
	return s.finish("mode", s.canvas.SetMode(name))
}

// SelectCategory sets the class for subsequent clicks and strokes.
func (s *Shell) SelectCategory(name string) error {
	return s.finish("category", s.editor.SelectCategory(name))
}

// SelectReviewStatus records the review status of the current image.
func (s *Shell) SelectReviewStatus(name string) error {
	for _, st := range ReviewStatuses {
		if st == name {
			return s.finish("status", s.editor.SelectStatus(name))
		}
	}
	return s.finish("status", fmt.Errorf("%q: %w", name, ErrUnknownReviewStatus))
}

// HandleKey runs the action bound to ev and reports whether one was bound.
func (s *Shell) HandleKey(ev KeyEvent) bool {
	a, ok := LookupKey(ev)
	if !ok {
		return false
	}
	_ = s.Dispatch(a)
	return true
}

// Press forwards a pointer press to the canvas.
func (s *Shell) Press(ev PointerEvent) {
	s.finishPointer("press", s.canvas.Press(ev))
}

// Move forwards pointer motion to the canvas.
func (s *Shell) Move(ev PointerEvent) {
	s.finishPointer("move", s.canvas.Move(ev))
}

// finishPointer is finish for pointer events. A success refreshes the
// status line only when it clears an earlier failure.
func (s *Shell) finishPointer(op string, err error) {
	if err != nil || s.lastErr != nil {
		s.finish(op, err)
	}
}

// Release forwards a pointer release to the canvas.
func (s *Shell) Release(ev PointerEvent) {
	s.canvas.Release(ev)
}

// Wheel forwards a wheel event to the canvas.
func (s *Shell) Wheel(ev WheelEvent) bool {
	return s.canvas.Wheel(ev)
}
