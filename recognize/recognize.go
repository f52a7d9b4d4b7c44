// Package recognize turns images into text through a pluggable engine.
//
// An Engine is either a local OCR engine (package ocr) or a remote
// vision-capable model (package vision). Image wraps an engine with decoding,
// optional preprocessing and text normalization, and is the single path all
// extractors use for standalone images, rasterized pages and embedded
// pictures.
package recognize

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/tsawler/gleaner/model"
	"github.com/tsawler/gleaner/preprocess"
	"github.com/tsawler/gleaner/textclean"
)

// Engine converts an encoded image (PNG) to text.
//
// Engines report missing binaries, credentials or unreachable services as a
// *model.Error of kind KindDependencyUnavailable.
type Engine interface {
	Recognize(ctx context.Context, png []byte) (string, error)
	// Name identifies the engine in logs and results ("tesseract", "vision").
	Name() string
}

// Image recognizes text in decoded or encoded images.
type Image struct {
	Engine Engine
	// Preprocess, when non-nil, is applied before encoding. The vision path
	// leaves it nil so the model sees the original image.
	Preprocess *preprocess.Pipeline
	Logger     *slog.Logger
}

func (r *Image) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Recognize runs img through preprocessing (if configured) and the engine.
func (r *Image) Recognize(ctx context.Context, img image.Image) (string, error) {
	if r.Engine == nil {
		return "", model.Errorf(model.KindDependencyUnavailable, "no recognition engine configured")
	}

	var (
		data []byte
		err  error
	)
	if r.Preprocess != nil {
		data, err = r.Preprocess.RunPNG(img)
	} else {
		data, err = preprocess.EncodePNG(img)
	}
	if err != nil {
		return "", fmt.Errorf("prepare image: %w", err)
	}

	start := time.Now()
	text, err := r.Engine.Recognize(ctx, data)
	if err != nil {
		return "", err
	}
	r.logger().Debug("image recognized",
		"engine", r.Engine.Name(),
		"bytes", len(data),
		"chars", len(text),
		"elapsed_ms", time.Since(start).Milliseconds())
	return textclean.Normalize(text), nil
}

// RecognizeBytes decodes data and recognizes it.
func (r *Image) RecognizeBytes(ctx context.Context, data []byte) (string, error) {
	img, _, err := Decode(data)
	if err != nil {
		return "", err
	}
	return r.Recognize(ctx, img)
}

// Outcome recognizes one embedded image and wraps the result as an
// ImageOutcome. Failures scoped to the image become a Failed outcome with a
// nil error; call-level failures (a missing engine) are returned as well so
// the caller can stop.
func (r *Image) Outcome(ctx context.Context, data []byte) (model.ImageOutcome, error) {
	text, err := r.RecognizeBytes(ctx, data)
	if err != nil {
		out := model.FailedErr(err)
		if r.Engine != nil {
			out.Recognizer = r.Engine.Name()
		}
		if model.IsCallLevel(err) {
			return out, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return out, ctxErr
		}
		return out, nil
	}
	out := model.Extracted(text)
	out.Recognizer = r.Engine.Name()
	return out, nil
}
