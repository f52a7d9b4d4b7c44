package recognize

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUndecodable is returned when image bytes cannot be decoded.
var ErrUndecodable = errors.New("undecodable image")

// Decode decodes PNG, JPEG, GIF, BMP, TIFF or WebP data. It returns the image
// and the detected format name. Zero-size images are rejected.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: no data", ErrUndecodable)
	}
	cfg, kind, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, kind, fmt.Errorf("%w: %s image has zero size", ErrUndecodable, kind)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, kind, fmt.Errorf("%w: %s: %v", ErrUndecodable, kind, err)
	}
	return img, kind, nil
}
