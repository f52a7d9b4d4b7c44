//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/tsawler/gleaner/model"
)

// Library wraps an in-process Tesseract client.
//
// The underlying client is not safe for concurrent use, so calls are
// serialized. The engine mode is left at Tesseract's default, which matches
// OEMDefault.
type Library struct {
	mu     sync.Mutex
	client *gosseract.Client
	cfg    Config
}

// NewLibrary creates an in-process engine.
// The engine should be closed when no longer needed to release resources.
func NewLibrary(cfg Config) (*Library, error) {
	cfg = cfg.withDefaults()
	client := gosseract.NewClient()

	if err := client.SetLanguage(strings.Split(cfg.Language, "+")...); err != nil {
		client.Close()
		return nil, fmt.Errorf("ocr: set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(cfg.PSM)); err != nil {
		client.Close()
		return nil, fmt.Errorf("ocr: set page segmentation mode: %w", err)
	}
	if cfg.TessdataDir != "" {
		if err := client.SetTessdataPrefix(cfg.TessdataDir); err != nil {
			client.Close()
			return nil, fmt.Errorf("ocr: set tessdata prefix: %w", err)
		}
	}
	return &Library{client: client, cfg: cfg}, nil
}

// Name implements recognize.Engine.
func (l *Library) Name() string { return "tesseract-library" }

// Close releases OCR resources. It is safe to call more than once.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.client != nil {
		err := l.client.Close()
		l.client = nil
		return err
	}
	return nil
}

// Recognize performs OCR on encoded image data (PNG, TIFF, JPEG, etc.).
// Returns the recognized text with leading/trailing whitespace trimmed.
func (l *Library) Recognize(ctx context.Context, img []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.client == nil {
		return "", model.Errorf(model.KindDependencyUnavailable, "ocr: engine closed")
	}
	if err := l.client.SetImageFromBytes(img); err != nil {
		return "", fmt.Errorf("ocr: set image: %w", err)
	}

	text, err := l.client.Text()
	if err != nil {
		// Initialization happens lazily on the first Text call; failures there
		// mean the language data is missing.
		if strings.Contains(err.Error(), "initialize") {
			return "", model.NewError(model.KindDependencyUnavailable, "", fmt.Errorf("ocr: %w", err))
		}
		return "", fmt.Errorf("ocr: %w", err)
	}

	return strings.TrimSpace(text), nil
}
