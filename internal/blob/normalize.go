package blob

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnrecoverable is returned when neither the primary nor the fallback
// path could produce an output file.
var ErrUnrecoverable = errors.New("image could not be saved")

var webSafe = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"webp": true,
}

// IsWebSafe reports whether files with the extension are written verbatim.
func IsWebSafe(ext string) bool {
	return webSafe[strings.ToLower(strings.TrimPrefix(ext, "."))]
}

// Normalizer writes image payloads into the output directory, re-encoding
// formats browsers cannot display as PNG.
type Normalizer struct {
	Logger *log.Logger
}

func NewNormalizer(logger *log.Logger) *Normalizer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Normalizer{Logger: logger}
}

// Normalize saves data at targetPath (or its .png sibling when re-encoded)
// and returns the base name of the written file.
func (n *Normalizer) Normalize(data []byte, declaredExt, targetPath string) (string, error) {
	name, err := n.save(data, declaredExt, targetPath)
	if err == nil {
		return name, nil
	}
	n.Logger.Printf("WARN: image save failed: %v", err)

	name, fallbackErr := n.fallback(data, targetPath)
	if fallbackErr == nil {
		return name, nil
	}
	n.Logger.Printf("WARN: fallback save failed: %v", fallbackErr)

	return "", fmt.Errorf("%w: %w", ErrUnrecoverable, errors.Join(err, fallbackErr))
}

func (n *Normalizer) save(data []byte, declaredExt, targetPath string) (string, error) {
	if IsWebSafe(declaredExt) {
		if err := os.WriteFile(targetPath, data, 0644); err != nil {
			os.Remove(targetPath)
			return "", err
		}
		return filepath.Base(targetPath), nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", declaredExt, err)
	}

	out := pngSibling(targetPath)
	if err := writePNG(out, normalizeColorModel(img)); err != nil {
		return "", err
	}
	return filepath.Base(out), nil
}

func (n *Normalizer) fallback(data []byte, targetPath string) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	out := pngSibling(targetPath)
	if err := imaging.Save(img, out); err != nil {
		os.Remove(out)
		return "", err
	}
	return filepath.Base(out), nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

func pngSibling(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".png"
}

// normalizeColorModel maps paletted and alpha-carrying images to NRGBA,
// leaves RGB(A) images alone and flattens everything else to opaque RGBA.
func normalizeColorModel(img image.Image) image.Image {
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		return img
	case *image.Paletted, *image.NYCbCrA:
		b := img.Bounds()
		dst := image.NewNRGBA(b)
		draw.Draw(dst, b, img, b.Min, draw.Src)
		return dst
	default:
		b := img.Bounds()
		dst := image.NewRGBA(b)
		draw.Draw(dst, b, image.Black, image.Point{}, draw.Src)
		draw.Draw(dst, b, img, b.Min, draw.Over)
		return dst
	}
}
