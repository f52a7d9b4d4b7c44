package gleaner

import (
	"github.com/tsawler/gleaner/config"
	"github.com/tsawler/gleaner/pdf"
)

// ExtractOptions holds per-call configuration. Defaults come from the
// configuration the Extractor was built with.
type ExtractOptions struct {
	pdfStrategy pdf.Strategy

	// Recognizer modes: auto, vision, ocr or none.
	standalone    string
	embedded      string
	pdfRecognizer string

	preprocess       bool
	skipSlideFooters bool
}

// defaultOptions derives the extraction options from cfg.
func defaultOptions(cfg config.Config) ExtractOptions {
	strategy, err := pdf.ParseStrategy(cfg.PDF.Strategy)
	if err != nil {
		strategy = pdf.StrategyAuto
	}
	return ExtractOptions{
		pdfStrategy:      strategy,
		standalone:       cfg.Images.Standalone,
		embedded:         cfg.Images.Embedded,
		pdfRecognizer:    cfg.PDF.Recognizer,
		preprocess:       cfg.Preprocess.Enabled,
		skipSlideFooters: cfg.Images.SkipSlideFooters,
	}
}

// clone creates a copy of ExtractOptions.
func (o ExtractOptions) clone() ExtractOptions {
	return ExtractOptions{
		pdfStrategy:      o.pdfStrategy,
		standalone:       o.standalone,
		embedded:         o.embedded,
		pdfRecognizer:    o.pdfRecognizer,
		preprocess:       o.preprocess,
		skipSlideFooters: o.skipSlideFooters,
	}
}

// PDFStrategy reports the PDF strategy in effect.
func (o ExtractOptions) PDFStrategy() pdf.Strategy { return o.pdfStrategy }

// Preprocess reports whether OCR input is preprocessed.
func (o ExtractOptions) Preprocess() bool { return o.preprocess }

// ImageRecognizer reports the recognizer mode for standalone images.
func (o ExtractOptions) ImageRecognizer() string { return o.standalone }

// EmbeddedImages reports the recognizer mode for images inside documents.
func (o ExtractOptions) EmbeddedImages() string { return o.embedded }

// validMode reports whether mode is one of the recognizer names accepted in
// the images section.
func validMode(mode string, allowNone bool) bool {
	switch mode {
	case config.RecognizerAuto, config.RecognizerVision, config.RecognizerOCR:
		return true
	case config.RecognizerNone:
		return allowNone
	}
	return false
}
