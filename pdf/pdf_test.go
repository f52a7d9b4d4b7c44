package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/gleaner/format"
	"github.com/tsawler/gleaner/model"
	"github.com/tsawler/gleaner/recognize"
)

// buildPDF assembles a minimal PDF with one page per entry. Empty entries
// produce pages without text, like a scanned document.
func buildPDF(pages ...string) []byte {
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	for i, text := range pages {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		var stream string
		if text != "" {
			stream = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		}
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func source(data []byte) model.Source {
	return model.Source{Name: "doc.pdf", Format: format.PDF, Data: data}
}

// fakeRasterizer writes a small PNG for every page unless the page is listed
// in fail.
type fakeRasterizer struct {
	fail  map[int]error
	pages []int
	dirs  []string
}

func (f *fakeRasterizer) Render(_ context.Context, pdfPath string, page, dpi int, dir string) (string, error) {
	f.pages = append(f.pages, page)
	f.dirs = append(f.dirs, dir)
	if _, err := os.Stat(pdfPath); err != nil {
		return "", fmt.Errorf("input missing: %w", err)
	}
	if dpi < 300 {
		return "", fmt.Errorf("dpi %d too low", dpi)
	}
	if err := f.fail[page]; err != nil {
		return "", err
	}

	img := image.NewGray(image.Rect(0, 0, 24, 24))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetGray(page, page, color.Gray{})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	out := filepath.Join(dir, fmt.Sprintf("page-%d.png", page))
	return out, os.WriteFile(out, buf.Bytes(), 0o600)
}

type countingEngine struct{ calls int }

func (c *countingEngine) Recognize(context.Context, []byte) (string, error) {
	c.calls++
	return fmt.Sprintf("scanned page %d", c.calls), nil
}

func (c *countingEngine) Name() string { return "fake-ocr" }

func TestInspect(t *testing.T) {
	info, err := Inspect(buildPDF("one", "two", "three"))
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if info.Pages != 3 {
		t.Errorf("Pages = %d, want 3", info.Pages)
	}

	if _, err := Inspect([]byte("PK\x03\x04 not a pdf")); !errors.Is(err, ErrNotPDF) {
		t.Errorf("Inspect(zip) error = %v, want ErrNotPDF", err)
	}
	if _, err := Inspect([]byte("%PDF-1.4\nthis is not really a pdf")); err == nil {
		t.Error("expected error for truncated PDF")
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", StrategyAuto, false},
		{"AUTO", StrategyAuto, false},
		{"text", StrategyText, false},
		{"raster", StrategyRaster, false},
		{"ocr", StrategyRaster, false},
		{"vector", StrategyAuto, true},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseStrategy(%q) = %v, %v", tt.in, got, err)
		}
		if !tt.wantErr && tt.in != "" && tt.in != "ocr" && !strings.EqualFold(got.String(), tt.in) {
			t.Errorf("String() = %q", got.String())
		}
	}
}

func TestExtractTextLayer(t *testing.T) {
	data := buildPDF("Photosynthesis converts light", "Chlorophyll absorbs red light", "Calvin cycle fixes carbon")
	e := New(Options{Strategy: StrategyText})

	result, err := e.Extract(context.Background(), source(data))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Strategy != "text" {
		t.Errorf("Strategy = %q", result.Strategy)
	}
	if len(result.Pages) != 3 {
		t.Fatalf("len(Pages) = %d, want 3", len(result.Pages))
	}
	for i, p := range result.Pages {
		if p.Number != i+1 {
			t.Errorf("page %d has Number %d", i, p.Number)
		}
	}
	if !strings.Contains(result.Pages[1].Text, "Chlorophyll") {
		t.Errorf("page 2 text = %q", result.Pages[1].Text)
	}

	photo := strings.Index(result.Text, "Photosynthesis")
	calvin := strings.Index(result.Text, "Calvin")
	if photo < 0 || calvin < photo {
		t.Errorf("page order lost in %q", result.Text)
	}
}

func TestExtractAutoFallsBackToRaster(t *testing.T) {
	tmp := t.TempDir()
	raster := &fakeRasterizer{}
	engine := &countingEngine{}
	e := New(Options{
		Rasterizer: raster,
		Pages:      &recognize.Image{Engine: engine},
		TempDir:    tmp,
	})

	result, err := e.Extract(context.Background(), source(buildPDF("", "")))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Strategy != "raster" {
		t.Errorf("Strategy = %q, want raster", result.Strategy)
	}
	if len(result.Pages) != 2 || result.Pages[0].Text != "scanned page 1" || result.Pages[1].Text != "scanned page 2" {
		t.Errorf("Pages = %+v", result.Pages)
	}
	if result.Text != "scanned page 1\n\nscanned page 2" {
		t.Errorf("Text = %q", result.Text)
	}
	if len(raster.pages) != 2 || raster.pages[0] != 1 || raster.pages[1] != 2 {
		t.Errorf("rendered pages = %v", raster.pages)
	}
	assertEmptyDir(t, tmp)
}

func TestExtractRasterPageFailureIsInline(t *testing.T) {
	tmp := t.TempDir()
	raster := &fakeRasterizer{fail: map[int]error{2: errors.New("pdftoppm: exit status 99")}}
	e := New(Options{
		Strategy:   StrategyRaster,
		Rasterizer: raster,
		Pages:      &recognize.Image{Engine: &countingEngine{}},
		TempDir:    tmp,
	})

	result, err := e.Extract(context.Background(), source(buildPDF("a", "b", "c")))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(result.Pages) != 3 {
		t.Fatalf("len(Pages) = %d, want 3", len(result.Pages))
	}

	failed := result.Pages[1]
	if failed.Failure == nil || failed.Failure.Kind != "extraction_failure" {
		t.Errorf("page 2 Failure = %+v", failed.Failure)
	}
	if !strings.HasPrefix(failed.Text, "[page 2: extraction failed:") {
		t.Errorf("page 2 Text = %q", failed.Text)
	}
	want := "scanned page 1\n\n" + failed.Text + "\n\nscanned page 2"
	if result.Text != want {
		t.Errorf("Text = %q, want %q", result.Text, want)
	}
	assertEmptyDir(t, tmp)
}

func TestExtractRasterDependencyFailure(t *testing.T) {
	tmp := t.TempDir()
	missing := model.Errorf(model.KindDependencyUnavailable, "pdftoppm: executable file not found")
	e := New(Options{
		Strategy:   StrategyRaster,
		Rasterizer: &fakeRasterizer{fail: map[int]error{2: missing}},
		Pages:      &recognize.Image{Engine: &countingEngine{}},
		TempDir:    tmp,
	})

	result, err := e.Extract(context.Background(), source(buildPDF("a", "b", "c")))
	if !errors.Is(err, model.ErrDependencyUnavailable) {
		t.Fatalf("Extract() error = %v, want dependency unavailable", err)
	}
	if result.Failure == nil || result.Failure.Kind != "dependency_unavailable" {
		t.Errorf("Failure = %+v", result.Failure)
	}
	// Page 1 finished before the failure and is kept.
	if len(result.Pages) != 1 || result.Pages[0].Number != 1 {
		t.Errorf("Pages = %+v", result.Pages)
	}
	assertEmptyDir(t, tmp)
}

func TestExtractRasterWithoutEngine(t *testing.T) {
	e := New(Options{Strategy: StrategyRaster, Rasterizer: &fakeRasterizer{}})
	_, err := e.Extract(context.Background(), source(buildPDF("a")))
	if !errors.Is(err, model.ErrDependencyUnavailable) {
		t.Errorf("Extract() error = %v", err)
	}
}

func TestExtractMalformed(t *testing.T) {
	e := New(Options{})
	for _, data := range [][]byte{[]byte("hello"), []byte("%PDF-1.7\ngarbage")} {
		result, err := e.Extract(context.Background(), source(data))
		if !errors.Is(err, model.ErrMalformedInput) {
			t.Errorf("Extract(%q) error = %v, want malformed input", data, err)
		}
		if result == nil || result.Failure == nil {
			t.Errorf("Extract(%q) result should carry the failure", data)
		}
	}
}

func TestPdftoppmArgs(t *testing.T) {
	runner := &recordingRunner{}
	dir := t.TempDir()
	// The runner does not create the file, so Render reports missing output
	// after running the command.
	_, err := Pdftoppm{Runner: runner}.Render(context.Background(), "/tmp/in.pdf", 4, 0, dir)
	if err == nil {
		t.Error("expected missing output error")
	}
	want := "pdftoppm -r 300 -f 4 -l 4 -png -singlefile /tmp/in.pdf " + filepath.Join(dir, "page-4")
	if got := runner.name + " " + strings.Join(runner.args, " "); got != want {
		t.Errorf("command = %q, want %q", got, want)
	}
}

type recordingRunner struct {
	name string
	args []string
}

func (r *recordingRunner) Run(_ context.Context, _ []byte, name string, args ...string) ([]byte, []byte, error) {
	r.name, r.args = name, args
	return nil, nil, nil
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}
