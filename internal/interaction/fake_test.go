package interaction

import (
	"errors"
	"fmt"
	"image"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"seg-annotator/internal/pixbuf"
	"seg-annotator/pkg/geometry"
)

type call struct {
	op    string
	x, y  int
	label Label
	arg   string
}

// fakeEditor records calls and keeps just enough state for the shell.
type fakeEditor struct {
	calls    []call
	index    int
	total    int
	status   string
	category string
	display  *pixbuf.Buffer
	failOn   map[string]error
}

func newFakeEditor(total int) *fakeEditor {
	return &fakeEditor{
		total:   total,
		status:  "not label",
		display: pixbuf.New(100, 80),
		failOn:  map[string]error{},
	}
}

func (f *fakeEditor) record(c call) error {
	f.calls = append(f.calls, c)
	return f.failOn[c.op]
}

func (f *fakeEditor) ops(names ...string) []call {
	var out []call
	for _, c := range f.calls {
		for _, n := range names {
			if c.op == n {
				out = append(out, c)
			}
		}
	}
	return out
}

func (f *fakeEditor) Display() *pixbuf.Buffer { return f.display }
func (f *fakeEditor) Name() string            { return fmt.Sprintf("img_%02d.png", f.index) }
func (f *fakeEditor) ImageID() int            { return f.index }
func (f *fakeEditor) NumImages() int          { return f.total }
func (f *fakeEditor) StatusName() string      { return f.status }

func (f *fakeEditor) AddClick(x, y int, l Label) error {
	return f.record(call{op: "click", x: x, y: y, label: l})
}
func (f *fakeEditor) AddPaint(x, y int) error   { return f.record(call{op: "paint", x: x, y: y}) }
func (f *fakeEditor) ErasePaint(x, y int) error { return f.record(call{op: "erase", x: x, y: y}) }
func (f *fakeEditor) OnlineDraw() error         { return f.record(call{op: "online"}) }
func (f *fakeEditor) SaveAnnotation() error     { return f.record(call{op: "save_ann"}) }
func (f *fakeEditor) Save() error               { return f.record(call{op: "save"}) }
func (f *fakeEditor) DeleteAnnotations() error  { return f.record(call{op: "delete"}) }
func (f *fakeEditor) Reset() error              { return f.record(call{op: "reset"}) }

func (f *fakeEditor) NextImage() error {
	if f.index < f.total-1 {
		f.index++
	}
	return f.record(call{op: "next"})
}

func (f *fakeEditor) PrevImage() error {
	if f.index > 0 {
		f.index--
	}
	return f.record(call{op: "prev"})
}

func (f *fakeEditor) JumpToImage(n int) error {
	if err := f.record(call{op: "jump", x: n}); err != nil {
		return err
	}
	f.index = n - 1
	return nil
}

func (f *fakeEditor) Toggle() error               { return f.record(call{op: "toggle"}) }
func (f *fakeEditor) StepUpTransparency() error   { return f.record(call{op: "t_up"}) }
func (f *fakeEditor) StepDownTransparency() error { return f.record(call{op: "t_down"}) }
func (f *fakeEditor) Categories() []Category      { return nil }

func (f *fakeEditor) SelectCategory(name string) error {
	f.category = name
	return f.record(call{op: "category", arg: name})
}

func (f *fakeEditor) SelectStatus(name string) error {
	if err := f.record(call{op: "status", arg: name}); err != nil {
		return err
	}
	f.status = name
	return nil
}

type fakeSink struct {
	frames []*image.NRGBA
}

func (s *fakeSink) SetImage(img *image.NRGBA) { s.frames = append(s.frames, img) }

type fakeStatus struct {
	text string
}

func (s *fakeStatus) SetStatus(text string) { s.text = text }

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type harness struct {
	editor *fakeEditor
	sink   *fakeSink
	status *fakeStatus
	canvas *Canvas
	shell  *Shell
	quits  int
}

func newHarness(t *testing.T, total int) *harness {
	t.Helper()
	h := &harness{
		editor: newFakeEditor(total),
		sink:   &fakeSink{},
		status: &fakeStatus{},
	}
	h.canvas = NewCanvas(h.editor, h.sink, quietLog())
	h.shell = NewShell(h.editor, h.canvas, h.status, func() { h.quits++ }, quietLog())
	if err := h.shell.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return h
}

func at(x, y float64, b Button) PointerEvent {
	return PointerEvent{Pos: geometry.Point2D{X: x, Y: y}, Button: b}
}

var errBoom = errors.New("boom")
