// Package pdf extracts text from PDF documents.
//
// Two strategies are available. The text strategy reads the embedded text
// layer page by page. The raster strategy renders every page to an image and
// runs it through recognition, which is the only option for scanned
// documents. The auto strategy tries the text layer first and falls back to
// rasterization when no page yields usable text.
//
// Both strategies produce exactly one unit per page, numbered from 1. A page
// that fails is replaced by an inline annotation at its position and the
// remaining pages are still processed.
package pdf

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsawler/gleaner/model"
	"github.com/tsawler/gleaner/recognize"
	"github.com/tsawler/gleaner/textclean"
)

// Strategy selects how page text is obtained.
type Strategy int

const (
	// StrategyAuto reads the text layer and rasterizes when it is empty.
	StrategyAuto Strategy = iota
	// StrategyText reads only the embedded text layer.
	StrategyText
	// StrategyRaster renders and recognizes every page.
	StrategyRaster
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyText:
		return "text"
	case StrategyRaster:
		return "raster"
	default:
		return "auto"
	}
}

// ParseStrategy converts a name produced by String into a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return StrategyAuto, nil
	case "text":
		return StrategyText, nil
	case "raster", "ocr":
		return StrategyRaster, nil
	}
	return StrategyAuto, fmt.Errorf("unknown pdf strategy %q (want auto, text or raster)", name)
}

// DefaultMinChars is the number of letters or digits a text layer must
// contain, across all pages, before the auto strategy trusts it.
const DefaultMinChars = 20

// Options configures an Extractor.
type Options struct {
	Strategy Strategy
	// DPI is the rasterization resolution. Defaults to DefaultDPI.
	DPI int
	// MinChars is the usable-text threshold for StrategyAuto.
	MinChars int
	// Rasterizer renders pages. Defaults to Pdftoppm.
	Rasterizer Rasterizer
	// Pages recognizes rendered pages. Required for rasterization.
	Pages *recognize.Image
	// TempDir is the parent of per-call working directories. Empty uses
	// the system default.
	TempDir string
	Logger  *slog.Logger
}

// Extractor extracts PDF documents.
type Extractor struct {
	opts   Options
	logger *slog.Logger
}

// New creates an Extractor.
func New(opts Options) *Extractor {
	if opts.DPI <= 0 {
		opts.DPI = DefaultDPI
	}
	if opts.MinChars <= 0 {
		opts.MinChars = DefaultMinChars
	}
	if opts.Rasterizer == nil {
		opts.Rasterizer = Pdftoppm{Logger: opts.Logger}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{opts: opts, logger: logger}
}

// Extract reads src and returns one unit per page.
//
// A container that cannot be parsed yields a MalformedInput error. A missing
// rasterizer or recognition engine yields DependencyUnavailable, with the
// pages processed so far kept in the result.
func (e *Extractor) Extract(ctx context.Context, src model.Source) (*model.Result, error) {
	result := model.NewResult(src)

	info, err := Inspect(src.Data)
	if err != nil {
		return result, result.Fail(model.NewError(model.KindMalformedInput, "", fmt.Errorf("pdf: %w", err)))
	}
	e.logger.Debug("pdf inspected", "file", src.Name, "pages", info.Pages, "validated", info.Validated)

	strategy := e.opts.Strategy
	if strategy != StrategyRaster {
		pages, err := TextLayer(src.Data, info.Pages)
		switch {
		case err != nil && strategy == StrategyText:
			return result, result.Fail(model.NewError(model.KindMalformedInput, "", fmt.Errorf("pdf: %w", err)))
		case err != nil:
			e.logger.Info("text layer unreadable, rasterizing", "file", src.Name, "error", err)
		case strategy == StrategyText || e.usable(pages):
			result.Strategy = StrategyText.String()
			for _, p := range pages {
				result.AddPage(e.textUnit(p))
			}
			return result, nil
		default:
			e.logger.Info("no usable text layer, rasterizing", "file", src.Name, "pages", info.Pages)
		}
	}

	result.Strategy = StrategyRaster.String()
	if err := e.rasterize(ctx, src, info.Pages, result); err != nil {
		return result, result.Fail(err)
	}
	return result, nil
}

func (e *Extractor) usable(pages []PageText) bool {
	var b strings.Builder
	for _, p := range pages {
		if p.Err == nil {
			b.WriteString(p.Text)
		}
	}
	return textclean.Usable(b.String(), e.opts.MinChars)
}

func (e *Extractor) textUnit(p PageText) model.Unit {
	if p.Err != nil {
		e.logger.Warn("page extraction failed", "unit", fmt.Sprintf("page %d", p.Number), "error", p.Err)
		return model.FailedUnit("page", p.Number, p.Err)
	}
	return model.Unit{Number: p.Number, Text: p.Text}
}

// rasterize renders and recognizes pages 1..n in order. The working
// directory is removed on every return path.
func (e *Extractor) rasterize(ctx context.Context, src model.Source, n int, result *model.Result) error {
	if e.opts.Pages == nil || e.opts.Pages.Engine == nil {
		return model.Errorf(model.KindDependencyUnavailable, "pdf: no recognition engine configured for scanned pages")
	}

	dir, err := os.MkdirTemp(e.opts.TempDir, "gleaner-pdf-*")
	if err != nil {
		return fmt.Errorf("pdf: create work dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			e.logger.Warn("remove work dir", "dir", dir, "error", err)
		}
	}()

	in := filepath.Join(dir, "in.pdf")
	if err := os.WriteFile(in, src.Data, 0o600); err != nil {
		return fmt.Errorf("pdf: write work file: %w", err)
	}

	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		text, err := e.rasterPage(ctx, in, i, dir)
		if err != nil {
			if model.IsCallLevel(err) || ctx.Err() != nil {
				return err
			}
			e.logger.Warn("page extraction failed", "unit", fmt.Sprintf("page %d", i), "error", err)
			result.AddPage(model.FailedUnit("page", i, err))
			continue
		}
		result.AddPage(model.Unit{Number: i, Text: text})
	}
	return nil
}

func (e *Extractor) rasterPage(ctx context.Context, pdfPath string, page int, dir string) (string, error) {
	pngPath, err := e.opts.Rasterizer.Render(ctx, pdfPath, page, e.opts.DPI, dir)
	if err != nil {
		return "", err
	}
	defer os.Remove(pngPath)

	img, err := decodeFile(pngPath)
	if err != nil {
		return "", err
	}
	return e.opts.Pages.Recognize(ctx, img)
}

func decodeFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rendered page: %w", err)
	}
	img, _, err := recognize.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("rendered page: %w", err)
	}
	return img, nil
}
