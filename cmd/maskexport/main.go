// Command maskexport writes the committed annotations of a dataset as
// one grayscale PNG mask per image.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"seg-annotator/internal/dataset"
)

func main() {
	datasetDir := flag.String("dataset", "", "Dataset directory holding "+dataset.StoreFileName)
	outDir := flag.String("out", "", "Output directory (default <dataset>/masks)")
	mode := flag.String("mode", "index", "Mask values: index (category 1..N) or binary (255)")
	category := flag.String("category", "", "Export only this category")
	status := flag.String("status", "", "Export only images with this review status")
	flag.Parse()

	if *datasetDir == "" {
		fmt.Println("Usage: maskexport -dataset <dir> [-out <dir>] [-mode index|binary] [-category name] [-status status]")
		os.Exit(1)
	}
	if *outDir == "" {
		*outDir = filepath.Join(*datasetDir, "masks")
	}

	store, err := dataset.LoadFile(filepath.Join(*datasetDir, dataset.StoreFileName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load annotation store: %v\n", err)
		os.Exit(1)
	}

	var value dataset.MaskValue
	switch *mode {
	case "index":
		value = dataset.CategoryIndexMask(store.Categories)
	case "binary":
		value = dataset.BinaryMask
	default:
		fmt.Fprintf(os.Stderr, "Unknown mode %q\n", *mode)
		os.Exit(1)
	}
	if *category != "" {
		inner := value
		value = func(c string) (uint8, bool) {
			if c != *category {
				return 0, false
			}
			return inner(c)
		}
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output dir: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Store: %d images, %d annotations, %d categories\n",
		len(store.Images), len(store.Annotations), len(store.Categories))
	if *mode == "index" {
		for i, c := range store.Categories {
			fmt.Printf("  %3d  %s\n", i+1, c)
		}
	}

	written, skipped := 0, 0
	for _, rec := range store.Images {
		if *status != "" && rec.ReviewStatus != *status {
			skipped++
			continue
		}
		mask, err := store.RenderMask(rec, value)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skipping %s: %v\n", rec.FileName, err)
			skipped++
			continue
		}

		name := strings.TrimSuffix(rec.FileName, filepath.Ext(rec.FileName)) + ".png"
		f, err := os.Create(filepath.Join(*outDir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", name, err)
			os.Exit(1)
		}
		if err := png.Encode(f, mask); err != nil {
			f.Close()
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", name, err)
			os.Exit(1)
		}
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", name, err)
			os.Exit(1)
		}
		written++
	}

	fmt.Printf("\nWrote %d masks to %s (%d skipped)\n", written, *outDir, skipped)
}
