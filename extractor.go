package gleaner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tsawler/gleaner/config"
	"github.com/tsawler/gleaner/docx"
	"github.com/tsawler/gleaner/format"
	"github.com/tsawler/gleaner/imagedoc"
	"github.com/tsawler/gleaner/model"
	"github.com/tsawler/gleaner/pdf"
	"github.com/tsawler/gleaner/pptx"
	"github.com/tsawler/gleaner/preprocess"
	"github.com/tsawler/gleaner/recognize"
)

// Extractor routes documents to the extractor for their format.
// Each configuration method returns a new Extractor instance, making it
// safe for concurrent use and allowing method chaining.
type Extractor struct {
	cfg    config.Config
	logger *slog.Logger

	// Engines. vision is nil when no API key is configured.
	ocr    recognize.Engine
	vision recognize.Engine
	raster pdf.Rasterizer
	owned  *owned

	options ExtractOptions

	// Accumulated error (fail-fast)
	err error
}

// clone creates a shallow copy of the Extractor with a copy of options.
func (e *Extractor) clone() *Extractor {
	return &Extractor{
		cfg:     e.cfg,
		logger:  e.logger,
		ocr:     e.ocr,
		vision:  e.vision,
		raster:  e.raster,
		owned:   e.owned,
		options: e.options.clone(),
		err:     e.err,
	}
}

// Close releases the OCR engine created by New. Clones share engines, so
// closing any of them closes all. It is safe to call Close multiple times.
func (e *Extractor) Close() error {
	if e.owned == nil {
		return nil
	}
	return e.owned.close()
}

// Options returns the options the next extraction will use.
func (e *Extractor) Options() ExtractOptions {
	return e.options.clone()
}

// ============================================================================
// Configuration Methods (return new Extractor instance)
// ============================================================================

// PDFStrategy selects how PDF page text is obtained.
//
// Example:
//
//	result, err := ex.PDFStrategy(pdf.StrategyRaster).ExtractFile(ctx, "scan.pdf")
func (e *Extractor) PDFStrategy(s pdf.Strategy) *Extractor {
	newExt := e.clone()
	newExt.options.pdfStrategy = s
	return newExt
}

// ImageRecognizer selects the recognizer for standalone images: auto,
// vision or ocr. Auto uses the vision model when an API key is configured.
func (e *Extractor) ImageRecognizer(mode string) *Extractor {
	newExt := e.clone()
	if !validMode(mode, false) {
		newExt.err = fmt.Errorf("invalid image recognizer %q: want auto, vision or ocr", mode)
		return newExt
	}
	newExt.options.standalone = mode
	return newExt
}

// EmbeddedImages selects the recognizer for images found inside DOCX and
// PPTX files: auto, vision, ocr or none. With none every embedded image is
// reported as a failed outcome.
func (e *Extractor) EmbeddedImages(mode string) *Extractor {
	newExt := e.clone()
	if !validMode(mode, true) {
		newExt.err = fmt.Errorf("invalid embedded image recognizer %q: want auto, vision, ocr or none", mode)
		return newExt
	}
	newExt.options.embedded = mode
	return newExt
}

// PDFRecognizer selects the recognizer for rasterized PDF pages: ocr or
// vision.
func (e *Extractor) PDFRecognizer(mode string) *Extractor {
	newExt := e.clone()
	if mode != config.RecognizerOCR && mode != config.RecognizerVision {
		newExt.err = fmt.Errorf("invalid pdf recognizer %q: want ocr or vision", mode)
		return newExt
	}
	newExt.options.pdfRecognizer = mode
	return newExt
}

// NoPreprocess hands images to local OCR without grayscale conversion,
// binarization and denoising.
func (e *Extractor) NoPreprocess() *Extractor {
	newExt := e.clone()
	newExt.options.preprocess = false
	return newExt
}

// SkipSlideFooters drops footer, date and slide-number placeholders from
// slide text.
func (e *Extractor) SkipSlideFooters() *Extractor {
	newExt := e.clone()
	newExt.options.skipSlideFooters = true
	return newExt
}

// WithLogger replaces the logger used for extraction events.
func (e *Extractor) WithLogger(logger *slog.Logger) *Extractor {
	newExt := e.clone()
	if logger != nil {
		newExt.logger = logger
	}
	return newExt
}

// WithOCR replaces the local OCR engine.
func (e *Extractor) WithOCR(engine recognize.Engine) *Extractor {
	newExt := e.clone()
	newExt.ocr = engine
	return newExt
}

// WithVision replaces the remote vision engine. A nil engine disables it.
func (e *Extractor) WithVision(engine recognize.Engine) *Extractor {
	newExt := e.clone()
	newExt.vision = engine
	return newExt
}

// WithRasterizer replaces the PDF page renderer.
func (e *Extractor) WithRasterizer(r pdf.Rasterizer) *Extractor {
	newExt := e.clone()
	newExt.raster = r
	return newExt
}

// ============================================================================
// Terminal Operations
// ============================================================================

// Extract extracts src according to its declared format.
//
// A nil result is only returned for an invalid option chain. Otherwise the
// result is always non-nil: call-level failures set Result.Failure and return
// the same error, and a malformed container keeps whatever was read before
// the damage.
func (e *Extractor) Extract(ctx context.Context, src model.Source) (*model.Result, error) {
	if e.err != nil {
		return nil, e.err
	}

	start := time.Now()
	result, err := e.dispatch(ctx, src)
	e.logDone(src, result, err, time.Since(start))
	return result, err
}

// ExtractFile reads path and extracts it. The format comes from the file
// extension. Files over the configured size limit are not read. A file that
// cannot be read returns a nil result and the I/O error.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (*model.Result, error) {
	if e.err != nil {
		return nil, e.err
	}

	src := model.NewSource(filepath.Base(path), nil)
	if src.Format == format.Unknown {
		return e.Extract(ctx, src)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if limit := e.cfg.Limits.MaxFileBytes; limit > 0 && info.Size() > limit {
		result := model.NewResult(src)
		return result, result.Fail(tooLarge(info.Size(), limit))
	}

	src.Data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return e.Extract(ctx, src)
}

// ExtractUpload reads an uploaded document from r and extracts it. The
// format is resolved from name and, when the extension is not recognized,
// from the declared MIME type. At most one byte over the size limit is read.
func (e *Extractor) ExtractUpload(ctx context.Context, name, mimeType string, r io.Reader) (*model.Result, error) {
	if e.err != nil {
		return nil, e.err
	}

	src := model.Source{Name: name, Format: format.Resolve(name, mimeType)}
	if src.Format == format.Unknown {
		return e.Extract(ctx, src)
	}

	if limit := e.cfg.Limits.MaxFileBytes; limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", name, err)
	}
	src.Data = data
	return e.Extract(ctx, src)
}

func (e *Extractor) dispatch(ctx context.Context, src model.Source) (*model.Result, error) {
	result := model.NewResult(src)

	switch src.Format {
	case format.Image, format.PDF, format.DOCX, format.PPTX:
	default:
		return result, result.Fail(model.Errorf(model.KindUnsupportedFormat,
			"%q: supported extensions are %s", src.Name, strings.Join(format.SupportedExtensions(), " ")))
	}

	limit := e.cfg.Limits.MaxFileBytes
	switch {
	case len(src.Data) == 0:
		return result, result.Fail(model.Errorf(model.KindMalformedInput, "%s: empty document", src.Format))
	case limit > 0 && src.Size() > limit:
		return result, result.Fail(tooLarge(src.Size(), limit))
	case (src.Format == format.DOCX || src.Format == format.PPTX) && format.IsOLE(src.Data):
		return result, result.Fail(model.Errorf(model.KindMalformedInput,
			"%q is a legacy binary Office file; save it as %s and retry", src.Name, src.Format.Extension()))
	case !format.Matches(src.Format, src.Data):
		return result, result.Fail(model.Errorf(model.KindMalformedInput, "content is not a valid %s file", src.Format))
	}

	switch src.Format {
	case format.Image:
		return imagedoc.New(imagedoc.Options{
			Images: e.recognizer(e.options.standalone),
			Logger: e.logger,
		}).Extract(ctx, src)
	case format.PDF:
		return pdf.New(pdf.Options{
			Strategy:   e.options.pdfStrategy,
			DPI:        e.cfg.PDF.DPI,
			MinChars:   e.cfg.PDF.MinChars,
			Rasterizer: e.raster,
			Pages:      e.recognizer(e.options.pdfRecognizer),
			TempDir:    e.cfg.PDF.TempDir,
			Logger:     e.logger,
		}).Extract(ctx, src)
	case format.DOCX:
		return docx.New(docx.Options{
			Images: e.recognizer(e.options.embedded),
			Logger: e.logger,
		}).Extract(ctx, src)
	default:
		return pptx.New(pptx.Options{
			Images:      e.recognizer(e.options.embedded),
			SkipFooters: e.options.skipSlideFooters,
			Logger:      e.logger,
		}).Extract(ctx, src)
	}
}

// recognizer builds the image recognizer for a mode. Auto prefers the vision
// model when one is configured. The vision path skips preprocessing so the
// model sees the original image. None returns nil.
func (e *Extractor) recognizer(mode string) *recognize.Image {
	if mode == config.RecognizerAuto {
		mode = config.RecognizerOCR
		if e.vision != nil {
			mode = config.RecognizerVision
		}
	}

	switch mode {
	case config.RecognizerVision:
		engine := e.vision
		if engine == nil {
			engine = unavailable("vision", fmt.Errorf("vision: API key is required (set %s)", config.EnvOpenAIKey))
		}
		return &recognize.Image{Engine: engine, Logger: e.logger}
	case config.RecognizerOCR:
		return &recognize.Image{Engine: e.ocr, Preprocess: e.pipeline(), Logger: e.logger}
	}
	return nil
}

// pipeline returns the preprocessing applied before local OCR, or nil when
// preprocessing is off.
func (e *Extractor) pipeline() *preprocess.Pipeline {
	if !e.options.preprocess {
		return nil
	}
	p := preprocess.Pipeline{
		Denoise: preprocess.DenoiseParams{
			H:              e.cfg.Preprocess.Strength,
			TemplateWindow: e.cfg.Preprocess.TemplateWindow,
			SearchWindow:   e.cfg.Preprocess.SearchWindow,
		},
	}
	// A zero strength keeps grayscale and binarization only.
	if p.Denoise.H <= 0 {
		p.SkipDenoise = true
	}
	return &p
}

func tooLarge(size, limit int64) error {
	return model.Errorf(model.KindMalformedInput, "document exceeds the size limit (%d > %d bytes)", size, limit)
}

func (e *Extractor) logDone(src model.Source, result *model.Result, err error, elapsed time.Duration) {
	attrs := []any{
		"file", src.Name,
		"format", src.Format.String(),
		"bytes", len(src.Data),
		"elapsed_ms", elapsed.Milliseconds(),
	}
	if result != nil {
		attrs = append(attrs,
			"chars", utf8.RuneCountInString(result.Text),
			"units", len(result.Units()),
			"images", len(result.AllImages()))
		if result.Strategy != "" {
			attrs = append(attrs, "strategy", result.Strategy)
		}
	}
	if err != nil {
		attrs = append(attrs, "kind", model.KindOf(err).String(), "error", err)
		e.logger.Warn("extraction failed", attrs...)
		return
	}
	e.logger.Info("extraction finished", attrs...)
}
