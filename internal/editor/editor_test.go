package editor

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seg-annotator/internal/dataset"
	"seg-annotator/internal/interaction"
	"seg-annotator/internal/pixbuf"
)

const (
	imgW = 10
	imgH = 8
)

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type memDataset struct {
	n        int
	anns     map[int][]dataset.Annotation
	status   map[int]string
	loads    []int
	saves    int
	addErr   error
	loadFail map[int]bool
}

func newMemDataset(n int) *memDataset {
	return &memDataset{
		n:        n,
		anns:     map[int][]dataset.Annotation{},
		status:   map[int]string{},
		loadFail: map[int]bool{},
	}
}

func (d *memDataset) NumImages() int { return d.n }
func (d *memDataset) ImageName(i int) string { return fmt.Sprintf("frame_%d.png", i) }
func (d *memDataset) Annotations(i int) []dataset.Annotation { return d.anns[i] }
func (d *memDataset) Save() error { d.saves++; return nil }

func (d *memDataset) LoadImage(i int) (*pixbuf.Buffer, error) {
	if d.loadFail[i] {
		return nil, errors.New("unreadable")
	}
	d.loads = append(d.loads, i)
	b := pixbuf.New(imgW, imgH)
	for p := range b.Pix {
		b.Pix[p] = 100
	}
	return b, nil
}

func (d *memDataset) AddAnnotation(i int, category string, mask []byte, w, h int) (dataset.Annotation, error) {
	if d.addErr != nil {
		return dataset.Annotation{}, d.addErr
	}
	a := dataset.Annotation{
		ID:           fmt.Sprintf("a%d", len(d.anns[i])),
		Category:     category,
		Segmentation: dataset.EncodeMask(mask, w, h),
	}
	d.anns[i] = append(d.anns[i], a)
	return a, nil
}

func (d *memDataset) DeleteAnnotations(i int) (int, error) {
	n := len(d.anns[i])
	delete(d.anns, i)
	return n, nil
}

func (d *memDataset) Status(i int) string {
	if s, ok := d.status[i]; ok {
		return s
	}
	return dataset.DefaultStatus
}

func (d *memDataset) SetStatus(i int, s string) error {
	d.status[i] = s
	return nil
}

// rowSegmenter selects the whole row of every positive click and clears the
// row of every negative one.
type rowSegmenter struct {
	calls int
	err   error
}

func (s *rowSegmenter) Segment(img *pixbuf.Buffer, clicks []Click) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]byte, img.Width*img.Height)
	for _, c := range clicks {
		v := byte(0)
		if c.Label == interaction.LabelPositive {
			v = 1
		}
		for x := 0; x < img.Width; x++ {
			out[c.Y*img.Width+x] = v
		}
	}
	return out, nil
}

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

func newEditor(t *testing.T, ds *memDataset, seg Segmenter) *Editor {
	t.Helper()
	e, err := New(ds, seg, Options{
		Categories:       []interaction.Category{{Name: "car", Color: red}, {Name: "sky", Color: blue}},
		BrushRadius:      1,
		Transparency:     1,
		TransparencyStep: 0.25,
	}, quietLog())
	require.NoError(t, err)
	return e
}

func count(mask []byte) int {
	n := 0
	for _, v := range mask {
		if v != 0 {
			n++
		}
	}
	return n
}

func TestNewLoadsFirstImage(t *testing.T) {
	ds := newMemDataset(3)
	e := newEditor(t, ds, nil)

	assert.Equal(t, 0, e.ImageID())
	assert.Equal(t, "frame_0.png", e.Name())
	assert.Equal(t, 3, e.NumImages())
	assert.Equal(t, dataset.DefaultStatus, e.StatusName())
	d := e.Display()
	require.NotNil(t, d)
	assert.Equal(t, imgW, d.Width)
	assert.Equal(t, [3]uint8{100, 100, 100}, d.BGRAt(0, 0))
}

func TestNewRequiresCategory(t *testing.T) {
	_, err := New(newMemDataset(1), nil, Options{}, quietLog())
	assert.Error(t, err)
}

func TestClickSegmentAndPreview(t *testing.T) {
	seg := &rowSegmenter{}
	e := newEditor(t, newMemDataset(1), seg)

	require.NoError(t, e.AddClick(3, 2, interaction.LabelPositive))
	require.NoError(t, e.OnlineDraw())
	assert.Equal(t, 1, seg.calls)
	assert.Equal(t, imgW, count(e.Mask()))

	// Full alpha paints the category color in BGR order.
	assert.Equal(t, [3]uint8{0, 0, 255}, e.Display().BGRAt(5, 2))
	assert.Equal(t, [3]uint8{100, 100, 100}, e.Display().BGRAt(5, 3))

	require.NoError(t, e.AddClick(3, 2, interaction.LabelNegative))
	require.NoError(t, e.OnlineDraw())
	assert.Zero(t, count(e.Mask()))
}

func TestPaintAndErase(t *testing.T) {
	e := newEditor(t, newMemDataset(1), nil)

	require.NoError(t, e.AddPaint(5, 4))
	require.NoError(t, e.OnlineDraw())
	assert.Equal(t, 5, count(e.Mask()))

	require.NoError(t, e.ErasePaint(5, 4))
	require.NoError(t, e.OnlineDraw())
	assert.Zero(t, count(e.Mask()))
}

func TestBrushOverridesSegmentation(t *testing.T) {
	e := newEditor(t, newMemDataset(1), &rowSegmenter{})

	require.NoError(t, e.AddClick(0, 4, interaction.LabelPositive))
	require.NoError(t, e.ErasePaint(5, 4))
	require.NoError(t, e.OnlineDraw())
	mask := e.Mask()
	assert.Equal(t, byte(0), mask[4*imgW+5])
	assert.Equal(t, byte(1), mask[4*imgW+0])
	assert.Equal(t, imgW-3, count(mask))
}

func TestInputOutOfBounds(t *testing.T) {
	e := newEditor(t, newMemDataset(1), nil)
	assert.ErrorIs(t, e.AddClick(imgW, 0, interaction.LabelPositive), ErrOutOfBounds)
	assert.ErrorIs(t, e.AddPaint(-1, 0), ErrOutOfBounds)
	assert.ErrorIs(t, e.ErasePaint(0, imgH), ErrOutOfBounds)
}

func TestSegmenterErrorSurfaces(t *testing.T) {
	seg := &rowSegmenter{err: errors.New("opencv")}
	e := newEditor(t, newMemDataset(1), seg)
	require.NoError(t, e.AddClick(1, 1, interaction.LabelPositive))
	assert.ErrorContains(t, e.OnlineDraw(), "opencv")
	assert.ErrorContains(t, e.SaveAnnotation(), "opencv")
}

func TestSaveAnnotation(t *testing.T) {
	ds := newMemDataset(2)
	e := newEditor(t, ds, &rowSegmenter{})

	require.NoError(t, e.SelectCategory("sky"))
	require.NoError(t, e.AddClick(0, 1, interaction.LabelPositive))
	require.NoError(t, e.SaveAnnotation())

	require.Len(t, ds.anns[0], 1)
	ann := ds.anns[0][0]
	assert.Equal(t, "sky", ann.Category)
	assert.Equal(t, imgW, ann.Segmentation.Area())

	// The stored annotation stays visible after the inputs are reset.
	require.NoError(t, e.Reset())
	assert.Nil(t, e.Mask())
	assert.Equal(t, [3]uint8{255, 0, 0}, e.Display().BGRAt(0, 1))
}

func TestSaveAnnotationEmptyMaskIsIgnored(t *testing.T) {
	ds := newMemDataset(1)
	e := newEditor(t, ds, &rowSegmenter{})
	require.NoError(t, e.SaveAnnotation())
	assert.Empty(t, ds.anns[0])
}

func TestSaveAnnotationDatasetError(t *testing.T) {
	ds := newMemDataset(1)
	ds.addErr = errors.New("disk full")
	e := newEditor(t, ds, nil)
	require.NoError(t, e.AddPaint(1, 1))
	assert.ErrorContains(t, e.SaveAnnotation(), "disk full")
}

func TestStoredAnnotationsLoadWithImage(t *testing.T) {
	ds := newMemDataset(2)
	mask := make([]byte, imgW*imgH)
	mask[0] = 1
	ds.anns[1] = []dataset.Annotation{
		{ID: "x", Category: "car", Segmentation: dataset.EncodeMask(mask, imgW, imgH)},
		{ID: "bad", Category: "car", Segmentation: dataset.EncodeMask(mask[:4], 2, 2)},
		{ID: "other", Category: "unknown", Segmentation: dataset.EncodeMask(mask, imgW, imgH)},
	}
	e := newEditor(t, ds, nil)
	require.NoError(t, e.NextImage())

	// Unknown categories are drawn gray; the last overlay wins at full alpha.
	assert.Equal(t, [3]uint8{128, 128, 128}, e.Display().BGRAt(0, 0))
	assert.Equal(t, [3]uint8{100, 100, 100}, e.Display().BGRAt(1, 0))
}

func TestDeleteAnnotations(t *testing.T) {
	ds := newMemDataset(1)
	e := newEditor(t, ds, nil)
	require.NoError(t, e.AddPaint(2, 2))
	require.NoError(t, e.SaveAnnotation())
	require.NoError(t, e.Reset())
	assert.NotEqual(t, [3]uint8{100, 100, 100}, e.Display().BGRAt(2, 2))

	require.NoError(t, e.DeleteAnnotations())
	assert.Empty(t, ds.anns[0])
	assert.Equal(t, [3]uint8{100, 100, 100}, e.Display().BGRAt(2, 2))
}

func TestNavigation(t *testing.T) {
	ds := newMemDataset(3)
	e := newEditor(t, ds, nil)

	require.NoError(t, e.PrevImage())
	assert.Equal(t, 0, e.ImageID())

	require.NoError(t, e.NextImage())
	require.NoError(t, e.NextImage())
	require.NoError(t, e.NextImage())
	assert.Equal(t, 2, e.ImageID())

	require.NoError(t, e.JumpToImage(1))
	assert.Equal(t, 0, e.ImageID())
	assert.ErrorIs(t, e.JumpToImage(0), interaction.ErrIndexOutOfRange)
	assert.ErrorIs(t, e.JumpToImage(4), interaction.ErrIndexOutOfRange)
	assert.Equal(t, []int{0, 1, 2, 0}, ds.loads)
}

func TestNavigationDiscardsInputs(t *testing.T) {
	e := newEditor(t, newMemDataset(2), nil)
	require.NoError(t, e.AddPaint(2, 2))
	require.NoError(t, e.OnlineDraw())
	require.NoError(t, e.NextImage())
	assert.Nil(t, e.Mask())
}

func TestLoadFailureKeepsCurrentImage(t *testing.T) {
	ds := newMemDataset(2)
	ds.loadFail[1] = true
	e := newEditor(t, ds, nil)
	assert.Error(t, e.NextImage())
	assert.Equal(t, 0, e.ImageID())
	assert.NotNil(t, e.Display())
}

func TestTransparencyAndToggle(t *testing.T) {
	e := newEditor(t, newMemDataset(1), nil)
	require.NoError(t, e.StepUpTransparency())
	assert.Equal(t, 1.0, e.Transparency())

	require.NoError(t, e.StepDownTransparency())
	require.NoError(t, e.StepDownTransparency())
	assert.InDelta(t, 0.5, e.Transparency(), 1e-9)

	require.NoError(t, e.AddPaint(2, 2))
	require.NoError(t, e.OnlineDraw())
	// 100*0.5 + 255*0.5 on the red channel.
	assert.Equal(t, [3]uint8{50, 50, 178}, e.Display().BGRAt(2, 2))

	require.NoError(t, e.Toggle())
	assert.Equal(t, [3]uint8{100, 100, 100}, e.Display().BGRAt(2, 2))
	require.NoError(t, e.Toggle())
	assert.NotEqual(t, [3]uint8{100, 100, 100}, e.Display().BGRAt(2, 2))

	for i := 0; i < 10; i++ {
		require.NoError(t, e.StepDownTransparency())
	}
	assert.Equal(t, 0.0, e.Transparency())
}

func TestSelectCategoryAndStatus(t *testing.T) {
	ds := newMemDataset(1)
	e := newEditor(t, ds, nil)

	assert.ErrorIs(t, e.SelectCategory("tree"), ErrUnknownCategory)
	assert.Len(t, e.Categories(), 2)

	require.NoError(t, e.SelectStatus("final label"))
	assert.Equal(t, "final label", e.StatusName())
	assert.ErrorIs(t, e.SelectStatus("done"), interaction.ErrUnknownReviewStatus)
	assert.Equal(t, "final label", e.StatusName())
}

func TestSaveDelegates(t *testing.T) {
	ds := newMemDataset(1)
	e := newEditor(t, ds, nil)
	require.NoError(t, e.Save())
	assert.Equal(t, 1, ds.saves)
}

func TestDisplayIsNotMutatedInPlace(t *testing.T) {
	e := newEditor(t, newMemDataset(1), nil)
	before := e.Display()
	snapshot := append([]byte(nil), before.Pix...)
	require.NoError(t, e.AddPaint(2, 2))
	require.NoError(t, e.OnlineDraw())
	assert.Equal(t, snapshot, before.Pix)
	assert.NotSame(t, before, e.Display())
}
