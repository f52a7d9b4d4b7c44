// Package gleaner extracts plain text from PDF, DOCX, PPTX and image files.
//
// Basic usage:
//
//	ex, err := gleaner.New(config.Default(), nil)
//	if err != nil {
//	    // handle error
//	}
//	defer ex.Close()
//
//	result, err := ex.ExtractFile(ctx, "lecture.pdf")
//	if err != nil {
//	    // result.Failure describes the failure; partial content may remain
//	}
//	fmt.Println(result.Text)
//
// With options:
//
//	result, err := ex.PDFStrategy(pdf.StrategyRaster).
//	    NoPreprocess().
//	    ExtractFile(ctx, "scan.pdf")
//
// Failures scoped to a page, slide or embedded image are reported inline and
// never abort the call. Unsupported formats, malformed containers and missing
// recognition engines fail the whole call and are returned both as an error
// and as Result.Failure.
package gleaner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/tsawler/gleaner/config"
	"github.com/tsawler/gleaner/model"
	"github.com/tsawler/gleaner/ocr"
	"github.com/tsawler/gleaner/pdf"
	"github.com/tsawler/gleaner/recognize"
	"github.com/tsawler/gleaner/vision"
)

// New builds an Extractor from cfg. The configuration is validated but not
// normalized; config.Load and config.Parse return normalized values.
//
// Recognition engines that cannot be constructed (a missing API key, an OCR
// backend that was not compiled in) do not make New fail. Extractions that
// need such an engine fail with a DependencyUnavailable error instead.
func New(cfg config.Config, logger *slog.Logger) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("gleaner: invalid configuration: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &Extractor{
		cfg:     cfg,
		logger:  logger,
		options: defaultOptions(cfg),
		owned:   &owned{},
		raster:  pdf.Pdftoppm{Binary: cfg.PDF.Pdftoppm, Logger: logger},
	}

	engine, err := ocr.New(ocr.Config{
		Backend:     cfg.OCR.Backend,
		Binary:      cfg.OCR.Binary,
		Language:    cfg.OCR.Language,
		TessdataDir: cfg.OCR.TessdataDir,
		PSM:         cfg.OCR.PSM,
		OEM:         cfg.OCR.OEM,
	}, logger)
	if err != nil {
		logger.Warn("local OCR unavailable", "backend", cfg.OCR.Backend, "error", err)
		e.ocr = unavailable("tesseract", err)
	} else {
		e.ocr = engine
		e.owned.closer = engine
	}

	if cfg.HasVisionKey() {
		client, err := vision.New(vision.Config{
			APIKey:    cfg.Vision.APIKey,
			BaseURL:   cfg.Vision.BaseURL,
			Model:     cfg.Vision.Model,
			MaxTokens: cfg.Vision.MaxTokens,
			Timeout:   cfg.VisionTimeout(),
			Detail:    cfg.Vision.Detail,
			Prompt:    cfg.Vision.Prompt,
		}, logger)
		if err != nil {
			e.vision = unavailable("vision", err)
		} else {
			e.vision = client
		}
	}

	return e, nil
}

// owned holds resources created by New. Clones share it, so closing any of
// them releases the engines for all.
type owned struct {
	closer io.Closer
	once   sync.Once
	err    error
}

func (o *owned) close() error {
	o.once.Do(func() {
		if o.closer != nil {
			o.err = o.closer.Close()
		}
	})
	return o.err
}

// missingEngine stands in for a recognizer that could not be constructed.
type missingEngine struct {
	name string
	err  error
}

// unavailable wraps err so that it is reported as DependencyUnavailable.
func unavailable(name string, err error) recognize.Engine {
	if model.KindOf(err) != model.KindDependencyUnavailable {
		err = model.NewError(model.KindDependencyUnavailable, "", err)
	}
	return missingEngine{name: name, err: err}
}

func (m missingEngine) Name() string { return m.name }

func (m missingEngine) Recognize(_ context.Context, _ []byte) (string, error) {
	return "", m.err
}
