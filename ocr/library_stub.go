//go:build !ocr

package ocr

import (
	"context"
	"errors"

	"github.com/tsawler/gleaner/model"
)

// ErrLibraryNotEnabled is returned when the in-process engine is requested
// but was not compiled in. Rebuild with -tags ocr to enable it, or use the
// CLI backend.
var ErrLibraryNotEnabled = model.NewError(model.KindDependencyUnavailable, "",
	errors.New("in-process OCR not enabled; rebuild with -tags ocr or use the cli backend"))

// Library is a stub engine that returns errors for all operations.
type Library struct{}

// NewLibrary returns ErrLibraryNotEnabled.
func NewLibrary(cfg Config) (*Library, error) {
	return nil, ErrLibraryNotEnabled
}

// Name implements recognize.Engine.
func (l *Library) Name() string { return "tesseract-library" }

// Close is a no-op for the stub engine.
// It is safe to call on a nil engine.
func (l *Library) Close() error {
	return nil
}

// Recognize returns ErrLibraryNotEnabled.
func (l *Library) Recognize(ctx context.Context, img []byte) (string, error) {
	return "", ErrLibraryNotEnabled
}
