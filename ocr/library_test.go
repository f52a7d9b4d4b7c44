//go:build ocr

package ocr

import (
	"context"
	"testing"
)

func TestLibraryRecognize(t *testing.T) {
	lib, err := NewLibrary(Config{})
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	defer lib.Close()

	// The image is just a rectangle; only check that recognition runs.
	if _, err := lib.Recognize(context.Background(), createTestPNG(100, 50)); err != nil {
		t.Errorf("Recognize failed: %v", err)
	}

	if err := lib.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	// Second close should also be safe.
	if err := lib.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}
