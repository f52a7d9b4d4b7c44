package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tsawler/gleaner/internal/command"
	"github.com/tsawler/gleaner/model"
)

// DefaultDPI is the rasterization resolution. 300 DPI keeps small print
// legible to OCR.
const DefaultDPI = 300

// Rasterizer renders single PDF pages to PNG files.
type Rasterizer interface {
	// Render writes page (1-based) of the PDF at pdfPath into dir as a PNG
	// and returns the file's path.
	Render(ctx context.Context, pdfPath string, page, dpi int, dir string) (string, error)
}

// Pdftoppm renders pages with the poppler pdftoppm tool.
type Pdftoppm struct {
	// Binary is the executable name or path. Defaults to "pdftoppm".
	Binary string
	Runner command.Runner
	Logger *slog.Logger
}

// Render implements Rasterizer.
func (p Pdftoppm) Render(ctx context.Context, pdfPath string, page, dpi int, dir string) (string, error) {
	bin := p.Binary
	if bin == "" {
		bin = "pdftoppm"
	}
	runner := p.Runner
	if runner == nil {
		runner = command.ExecRunner{Logger: p.Logger}
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	prefix := filepath.Join(dir, fmt.Sprintf("page-%d", page))
	n := strconv.Itoa(page)
	// pdftoppm -r 300 -f N -l N -png -singlefile <in.pdf> <dir/page-N>
	_, errb, err := runner.Run(ctx, nil, bin,
		"-r", strconv.Itoa(dpi), "-f", n, "-l", n, "-png", "-singlefile", pdfPath, prefix)
	if err != nil {
		if command.NotFound(err) {
			return "", model.NewError(model.KindDependencyUnavailable, "", fmt.Errorf("pdftoppm: %w", err))
		}
		if msg := strings.TrimSpace(command.Truncate(string(errb), 512)); msg != "" {
			return "", fmt.Errorf("pdftoppm: %w: %s", err, msg)
		}
		return "", fmt.Errorf("pdftoppm: %w", err)
	}

	out := prefix + ".png"
	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("pdftoppm produced no output: %w", err)
	}
	return out, nil
}
