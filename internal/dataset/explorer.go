// Package dataset enumerates the images of a dataset directory and keeps
// their annotations and review status in an annotation store file.
package dataset

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"seg-annotator/internal/pixbuf"
)

// DefaultStatus is the review status of an image nobody has looked at.
const DefaultStatus = "not label"

var (
	// ErrNoImages is returned when a directory holds no supported images.
	ErrNoImages = errors.New("no images found")
	// ErrIndexOutOfRange is returned for an image index outside the dataset.
	ErrIndexOutOfRange = errors.New("image index out of range")
)

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
	".webp": true,
}

// Explorer gives indexed access to a dataset directory.
type Explorer struct {
	mu        sync.Mutex
	dir       string
	storePath string
	files     []string
	store     *File
	// recordIdx maps a file's position in files to its index in store.Images.
	recordIdx []int
	log       *logrus.Entry
}

// Open scans dir for images and loads its annotation store, creating an
// empty one in memory when none exists yet.
func Open(dir string, categories []string, log *logrus.Entry) (*Explorer, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dataset dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoImages)
	}
	sort.Strings(files)

	e := &Explorer{
		dir:       dir,
		storePath: filepath.Join(dir, StoreFileName),
		files:     files,
		log:       log.WithField("component", "dataset"),
	}

	store, err := LoadFile(e.storePath)
	switch {
	case err == nil:
		e.log.WithField("path", e.storePath).Info("Loaded annotation store")
	case errors.Is(err, os.ErrNotExist):
		store = NewFile(categories)
	default:
		return nil, err
	}
	e.store = store
	e.mergeCategories(categories)
	e.indexRecords()

	e.log.WithFields(logrus.Fields{
		"dir":         dir,
		"images":      len(files),
		"annotations": len(store.Annotations),
	}).Info("Opened dataset")
	return e, nil
}

func (e *Explorer) mergeCategories(categories []string) {
	have := make(map[string]bool, len(e.store.Categories))
	for _, c := range e.store.Categories {
		have[c] = true
	}
	for _, c := range categories {
		if !have[c] {
			e.store.Categories = append(e.store.Categories, c)
			have[c] = true
		}
	}
}

// indexRecords links every file to an image record, adding records for
// files the store has not seen before.
func (e *Explorer) indexRecords() {
	byName := make(map[string]int, len(e.store.Images))
	for i, r := range e.store.Images {
		byName[r.FileName] = i
	}
	e.recordIdx = make([]int, len(e.files))
	for i, name := range e.files {
		idx, ok := byName[name]
		if !ok {
			e.store.Images = append(e.store.Images, ImageRecord{
				ID:           e.store.nextImageID(),
				FileName:     name,
				ReviewStatus: DefaultStatus,
			})
			idx = len(e.store.Images) - 1
		}
		e.recordIdx[i] = idx
	}
}

func (e *Explorer) record(i int) (*ImageRecord, error) {
	if i < 0 || i >= len(e.files) {
		return nil, fmt.Errorf("index %d of %d: %w", i, len(e.files), ErrIndexOutOfRange)
	}
	return &e.store.Images[e.recordIdx[i]], nil
}

// Dir returns the dataset directory.
func (e *Explorer) Dir() string {
	return e.dir
}

// StorePath returns the annotation store location.
func (e *Explorer) StorePath() string {
	return e.storePath
}

// NumImages returns the number of images.
func (e *Explorer) NumImages() int {
	return len(e.files)
}

// Categories returns the store's category names.
func (e *Explorer) Categories() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.store.Categories...)
}

// ImageName returns the file name of image i.
func (e *Explorer) ImageName(i int) string {
	if i < 0 || i >= len(e.files) {
		return ""
	}
	return e.files[i]
}

// LoadImage decodes image i into a BGR buffer.
func (e *Explorer) LoadImage(i int) (*pixbuf.Buffer, error) {
	e.mu.Lock()
	rec, err := e.record(i)
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	path := filepath.Join(e.dir, rec.FileName)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", rec.FileName, err)
	}
	buf := pixbuf.FromImage(img)

	e.mu.Lock()
	rec.Width, rec.Height = buf.Width, buf.Height
	e.mu.Unlock()

	e.log.WithFields(logrus.Fields{
		"file":   rec.FileName,
		"format": format,
		"size":   fmt.Sprintf("%dx%d", buf.Width, buf.Height),
	}).Debug("Loaded image")
	return buf, nil
}

// Annotations returns the stored annotations of image i.
func (e *Explorer) Annotations(i int) []Annotation {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.record(i)
	if err != nil {
		return nil
	}
	var out []Annotation
	for _, a := range e.store.Annotations {
		if a.ImageID == rec.ID {
			out = append(out, a)
		}
	}
	return out
}

// AddAnnotation stores a w×h mask for image i under category.
func (e *Explorer) AddAnnotation(i int, category string, mask []byte, w, h int) (Annotation, error) {
	if len(mask) < w*h {
		return Annotation{}, fmt.Errorf("mask has %d bytes for %dx%d", len(mask), w, h)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.record(i)
	if err != nil {
		return Annotation{}, err
	}

	rle := EncodeMask(mask, w, h)
	a := Annotation{
		ID:           uuid.NewString(),
		ImageID:      rec.ID,
		Category:     category,
		BBox:         maskBounds(mask, w, h),
		Area:         rle.Area(),
		Segmentation: rle,
	}
	e.store.Annotations = append(e.store.Annotations, a)
	e.log.WithFields(logrus.Fields{
		"file":     rec.FileName,
		"category": category,
		"area":     a.Area,
		"id":       a.ID,
	}).Info("Annotation added")
	return a, nil
}

// DeleteAnnotations removes every annotation of image i and returns how
// many were removed.
func (e *Explorer) DeleteAnnotations(i int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.record(i)
	if err != nil {
		return 0, err
	}
	kept := e.store.Annotations[:0]
	removed := 0
	for _, a := range e.store.Annotations {
		if a.ImageID == rec.ID {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	e.store.Annotations = kept
	e.log.WithFields(logrus.Fields{"file": rec.FileName, "removed": removed}).Info("Annotations deleted")
	return removed, nil
}

// Status returns the review status of image i.
func (e *Explorer) Status(i int) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.record(i)
	if err != nil || rec.ReviewStatus == "" {
		return DefaultStatus
	}
	return rec.ReviewStatus
}

// SetStatus records the review status of image i.
func (e *Explorer) SetStatus(i int, status string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.record(i)
	if err != nil {
		return err
	}
	rec.ReviewStatus = status
	return nil
}

// Save writes the annotation store to disk.
func (e *Explorer) Save() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.store.Save(e.storePath); err != nil {
		return fmt.Errorf("save annotations: %w", err)
	}
	e.log.WithFields(logrus.Fields{
		"path":        e.storePath,
		"annotations": len(e.store.Annotations),
	}).Info("Saved annotation store")
	return nil
}
