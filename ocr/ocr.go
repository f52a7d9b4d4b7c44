// Package ocr provides local optical character recognition backed by the
// Tesseract engine.
//
// Two engines are available. Tesseract runs the tesseract executable for
// every image and needs only the binary on PATH (or a configured path).
// Library links libtesseract in-process through gosseract and is compiled in
// only with the "ocr" build tag:
//
//	go build -tags ocr
//
// Tesseract must be installed either way. On macOS:
//
//	brew install tesseract
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr
//
// Both engines run in a fixed mode tuned for pages holding a single uniform
// block of text (page segmentation mode 6) with the default OCR engine mode.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Page segmentation and engine modes passed to Tesseract.
const (
	// PSMSingleBlock treats the image as a single uniform block of text.
	PSMSingleBlock = 6
	// OEMDefault lets Tesseract pick the best available engine.
	OEMDefault = 3
)

// Backend selects an engine implementation.
const (
	BackendCLI     = "cli"
	BackendLibrary = "library"
)

// Config configures a local OCR engine.
type Config struct {
	// Backend is BackendCLI (default) or BackendLibrary.
	Backend string
	// Binary is the tesseract executable name or path. Defaults to "tesseract".
	Binary string
	// Language is one or more "+"-joined traineddata names. Defaults to "eng".
	Language string
	// TessdataDir overrides the traineddata search path.
	TessdataDir string
	PSM         int
	OEM         int
}

func (c Config) withDefaults() Config {
	if c.Backend == "" {
		c.Backend = BackendCLI
	}
	if c.Binary == "" {
		c.Binary = "tesseract"
	}
	if c.Language == "" {
		c.Language = "eng"
	}
	if c.PSM <= 0 {
		c.PSM = PSMSingleBlock
	}
	if c.OEM <= 0 {
		c.OEM = OEMDefault
	}
	return c
}

// Engine is the interface shared by the Tesseract and Library engines.
type Engine interface {
	Recognize(ctx context.Context, png []byte) (string, error)
	Name() string
	Close() error
}

// New builds the engine selected by cfg.Backend.
func New(cfg Config, logger *slog.Logger) (Engine, error) {
	cfg = cfg.withDefaults()
	switch strings.ToLower(cfg.Backend) {
	case BackendCLI:
		return NewTesseract(cfg, nil, logger), nil
	case BackendLibrary:
		lib, err := NewLibrary(cfg)
		if err != nil {
			return nil, err
		}
		return lib, nil
	default:
		return nil, fmt.Errorf("ocr: unknown backend %q (want %q or %q)", cfg.Backend, BackendCLI, BackendLibrary)
	}
}
