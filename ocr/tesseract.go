package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tsawler/gleaner/internal/command"
	"github.com/tsawler/gleaner/model"
)

// Tesseract recognizes images by piping them through the tesseract
// executable.
type Tesseract struct {
	cfg    Config
	runner command.Runner
	logger *slog.Logger
}

// NewTesseract creates a CLI engine. A nil runner uses command.ExecRunner.
func NewTesseract(cfg Config, runner command.Runner, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = command.ExecRunner{Logger: logger}
	}
	return &Tesseract{cfg: cfg.withDefaults(), runner: runner, logger: logger}
}

// Name implements recognize.Engine.
func (t *Tesseract) Name() string { return "tesseract" }

// Close is a no-op; each recognition runs its own process.
func (t *Tesseract) Close() error { return nil }

// Args returns the command line used for one recognition.
func (t *Tesseract) Args() []string {
	// tesseract stdin stdout --psm 6 --oem 3 -l eng [--tessdata-dir dir]
	args := []string{
		"stdin", "stdout",
		"--psm", strconv.Itoa(t.cfg.PSM),
		"--oem", strconv.Itoa(t.cfg.OEM),
		"-l", t.cfg.Language,
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	return args
}

// Recognize runs OCR over an encoded image.
func (t *Tesseract) Recognize(ctx context.Context, img []byte) (string, error) {
	out, errb, err := t.runner.Run(ctx, img, t.cfg.Binary, t.Args()...)
	if err != nil {
		return "", classify(err, errb)
	}
	return strings.TrimSpace(string(out)), nil
}

// Check verifies that the binary can be started and reports its version line.
func (t *Tesseract) Check(ctx context.Context) (string, error) {
	out, errb, err := t.runner.Run(ctx, nil, t.cfg.Binary, "--version")
	if err != nil {
		return "", classify(err, errb)
	}
	// Older releases print the version on stderr.
	text := string(out)
	if strings.TrimSpace(text) == "" {
		text = string(errb)
	}
	first, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	return first, nil
}

// Messages tesseract prints when its installation, not the image, is at fault.
var dependencyMarkers = []string{
	"Failed loading language",
	"Could not initialize tesseract",
	"Please make sure the TESSDATA_PREFIX",
}

// classify maps a tesseract failure onto the error taxonomy. A missing
// binary or missing language data is a dependency problem; anything else is
// blamed on the image.
func classify(err error, stderr []byte) error {
	msg := strings.TrimSpace(command.Truncate(string(stderr), 512))

	if command.NotFound(err) {
		return model.NewError(model.KindDependencyUnavailable, "", fmt.Errorf("tesseract: %w", err))
	}
	for _, marker := range dependencyMarkers {
		if strings.Contains(msg, marker) {
			return model.NewError(model.KindDependencyUnavailable, "", fmt.Errorf("tesseract: %s", msg))
		}
	}
	if msg != "" {
		return fmt.Errorf("tesseract: %w: %s", err, msg)
	}
	return fmt.Errorf("tesseract: %w", err)
}
