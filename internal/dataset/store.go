package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"seg-annotator/pkg/geometry"
)

// StoreFileName is the annotation file kept alongside the images.
const StoreFileName = "annotations.json"

const storeVersion = 1

// File is the on-disk annotation store.
type File struct {
	Version     int           `json:"version"`
	Created     time.Time     `json:"created"`
	Modified    time.Time     `json:"modified"`
	Categories  []string      `json:"categories"`
	Images      []ImageRecord `json:"images"`
	Annotations []Annotation  `json:"annotations"`
}

// ImageRecord describes one image of the dataset.
type ImageRecord struct {
	ID           int    `json:"id"`
	FileName     string `json:"file_name"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	ReviewStatus string `json:"review_status"`
}

// Annotation is one committed mask.
type Annotation struct {
	ID           string           `json:"id"`
	ImageID      int              `json:"image_id"`
	Category     string           `json:"category"`
	BBox         geometry.RectInt `json:"bbox"`
	Area         int              `json:"area"`
	Segmentation RLE              `json:"segmentation"`
}

// NewFile creates an empty store.
func NewFile(categories []string) *File {
	now := time.Now()
	return &File{
		Version:    storeVersion,
		Created:    now,
		Modified:   now,
		Categories: categories,
	}
}

// LoadFile reads a store from path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if f.Version > storeVersion {
		return nil, fmt.Errorf("%s: unsupported store version %d", path, f.Version)
	}
	return &f, nil
}

// Save writes the store to path, replacing it atomically.
func (f *File) Save(path string) error {
	f.Modified = time.Now()

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".annotations-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// nextImageID returns an id not used by any record.
func (f *File) nextImageID() int {
	id := 0
	for _, r := range f.Images {
		if r.ID >= id {
			id = r.ID + 1
		}
	}
	return id
}
