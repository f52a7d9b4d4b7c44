// Package imagedoc extracts text from standalone raster images.
//
// The image is decoded once and handed to a recognizer. Which recognizer
// (local OCR with preprocessing, or a remote vision model) is decided by the
// caller when it builds the recognize.Image.
package imagedoc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tsawler/gleaner/model"
	"github.com/tsawler/gleaner/recognize"
)

// Options configures an Extractor.
type Options struct {
	Images *recognize.Image
	Logger *slog.Logger
}

// Extractor extracts standalone images.
type Extractor struct {
	opts   Options
	logger *slog.Logger
}

// New creates an Extractor.
func New(opts Options) *Extractor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{opts: opts, logger: logger}
}

// Extract recognizes the text of src.
//
// Bytes that do not decode as a supported image are MalformedInput. A
// missing recognizer is DependencyUnavailable. Any other recognition failure
// is scoped to the image: the result carries one failed outcome and no text.
func (e *Extractor) Extract(ctx context.Context, src model.Source) (*model.Result, error) {
	result := model.NewResult(src)

	img, kind, err := recognize.Decode(src.Data)
	if err != nil {
		return result, result.Fail(model.NewError(model.KindMalformedInput, "", fmt.Errorf("image: %w", err)))
	}
	b := img.Bounds()
	e.logger.Debug("image decoded", "file", src.Name, "format", kind, "width", b.Dx(), "height", b.Dy())

	if e.opts.Images == nil || e.opts.Images.Engine == nil {
		return result, result.Fail(model.Errorf(model.KindDependencyUnavailable, "image: no recognition engine configured"))
	}

	text, err := e.opts.Images.Recognize(ctx, img)
	if err != nil {
		if model.IsCallLevel(err) || ctx.Err() != nil {
			return result, result.Fail(err)
		}
		e.logger.Warn("image extraction failed", "unit", "image 1", "file", src.Name, "error", err)
		out := model.FailedErr(err)
		out.Index = 1
		out.Name = src.Name
		out.Recognizer = e.opts.Images.Engine.Name()
		result.Images = append(result.Images, out)
		return result, nil
	}

	result.AddBlock(text)
	return result, nil
}
