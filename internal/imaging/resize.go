// Package imaging holds the local image processing used by the generation
// pipeline: reference resizing and background removal.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Decode decodes PNG, JPEG or WebP bytes.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode: %w", err)
	}
	return img, nil
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("imaging: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Resize scales data to exactly width x height and returns PNG bytes.
// The aspect ratio is not preserved.
func Resize(data []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("imaging: invalid target size %dx%d", width, height)
	}
	src, err := Decode(data)
	if err != nil {
		return nil, err
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return EncodePNG(dst)
}

// ResizeFile reads path and resizes it like Resize.
func ResizeFile(path string, width, height int) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("imaging: read %s: %w", path, err)
	}
	return Resize(data, width, height)
}
