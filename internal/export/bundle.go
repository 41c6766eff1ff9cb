package export

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"
)

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".webp": true}

// ListImages returns the asset paths of the images in dir, in natural order
// so that 001_10.png sorts after 001_2.png. A missing dir yields no images.
func ListImages(dir, assetPrefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	names := []string{}
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Slice(names, func(i, j int) bool { return naturalLess(names[i], names[j]) })

	for i, n := range names {
		names[i] = assetPrefix + n
	}
	return names, nil
}

// Clear removes a previous bundle: the rendition files and every file in
// the images directory. The images directory itself is kept.
func Clear(out Outputs) error {
	var errs []error
	for _, p := range []string{out.MarkdownPath, out.JSONPath, out.HTMLPath} {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}

	entries, err := os.ReadDir(out.ImagesDir)
	if errors.Is(err, fs.ErrNotExist) {
		return errors.Join(append(errs, os.MkdirAll(out.ImagesDir, 0755))...)
	}
	if err != nil {
		return errors.Join(append(errs, err)...)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(out.ImagesDir, e.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// naturalLess compares case-insensitively, treating digit runs as numbers.
func naturalLess(a, b string) bool {
	return natural.Less(strings.ToLower(a), strings.ToLower(b))
}
