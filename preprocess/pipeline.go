package preprocess

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
)

// Pipeline runs grayscale conversion, Otsu binarization and non-local-means
// denoising in sequence.
type Pipeline struct {
	Denoise DenoiseParams
	// SkipDenoise stops after binarization.
	SkipDenoise bool
}

// Default returns a pipeline with DefaultDenoise parameters.
func Default() Pipeline {
	return Pipeline{Denoise: DefaultDenoise()}
}

// Run preprocesses img. The result always has its origin at (0,0).
func (p Pipeline) Run(img image.Image) (*image.Gray, error) {
	gray, err := Grayscale(img)
	if err != nil {
		return nil, err
	}
	bin := Binarize(gray, OtsuThreshold(gray))
	if p.SkipDenoise {
		return bin, nil
	}
	out, err := Denoise(bin, p.Denoise)
	if err != nil {
		return nil, fmt.Errorf("denoise: %w", err)
	}
	return out, nil
}

// RunPNG preprocesses img and encodes the result as PNG.
func (p Pipeline) RunPNG(img image.Image) ([]byte, error) {
	out, err := p.Run(img)
	if err != nil {
		return nil, err
	}
	return EncodePNG(out)
}

// EncodePNG encodes img as PNG with fixed encoder settings, so equal images
// produce equal bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	if isEmpty(img) {
		return nil, ErrEmptyImage
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
