package dataset

import (
	"errors"
	"fmt"
	"image"
)

// ErrNoSize is returned when an image has neither a recorded size nor
// annotations to take one from.
var ErrNoSize = errors.New("image size unknown")

// MaskValue maps a category to a mask pixel value; ok=false skips the
// annotation.
type MaskValue func(category string) (v uint8, ok bool)

// BinaryMask marks every annotation 255.
func BinaryMask(string) (uint8, bool) { return 255, true }

// CategoryIndexMask marks each annotation with its category's 1-based
// position in categories. Unknown categories are skipped.
func CategoryIndexMask(categories []string) MaskValue {
	idx := make(map[string]uint8, len(categories))
	for i, c := range categories {
		if i >= 255 {
			break
		}
		idx[c] = uint8(i + 1)
	}
	return func(category string) (uint8, bool) {
		v, ok := idx[category]
		return v, ok
	}
}

// AnnotationsOf returns the annotations of an image record.
func (f *File) AnnotationsOf(imageID int) []Annotation {
	var out []Annotation
	for _, a := range f.Annotations {
		if a.ImageID == imageID {
			out = append(out, a)
		}
	}
	return out
}

// RenderMask paints the annotations of rec into a gray image. Later
// annotations overwrite earlier ones.
func (f *File) RenderMask(rec ImageRecord, value MaskValue) (*image.Gray, error) {
	anns := f.AnnotationsOf(rec.ID)
	w, h := rec.Width, rec.Height
	if (w == 0 || h == 0) && len(anns) > 0 {
		h, w = anns[0].Segmentation.Size[0], anns[0].Segmentation.Size[1]
	}
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%s: %w", rec.FileName, ErrNoSize)
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for _, a := range anns {
		v, ok := value(a.Category)
		if !ok {
			continue
		}
		if a.Segmentation.Size != [2]int{h, w} {
			return nil, fmt.Errorf("%s: annotation %s is %dx%d, image is %dx%d",
				rec.FileName, a.ID, a.Segmentation.Size[1], a.Segmentation.Size[0], w, h)
		}
		mask, err := a.Segmentation.Decode()
		if err != nil {
			return nil, fmt.Errorf("%s: annotation %s: %w", rec.FileName, a.ID, err)
		}
		for i, m := range mask {
			if m != 0 {
				out.Pix[i] = v
			}
		}
	}
	return out, nil
}
