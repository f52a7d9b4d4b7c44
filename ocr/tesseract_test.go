package ocr

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/tsawler/gleaner/model"
	"github.com/tsawler/gleaner/recognize"
)

var (
	_ recognize.Engine = (*Tesseract)(nil)
	_ recognize.Engine = (*Library)(nil)
)

type fakeRunner struct {
	stdout, stderr []byte
	err            error

	name  string
	args  []string
	stdin []byte
}

func (f *fakeRunner) Run(_ context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, error) {
	f.stdin, f.name, f.args = stdin, name, args
	return f.stdout, f.stderr, f.err
}

func TestTesseractArgs(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"defaults", Config{}, "stdin stdout --psm 6 --oem 3 -l eng"},
		{"tessdata", Config{TessdataDir: "/opt/tessdata", Language: "eng+fra"},
			"stdin stdout --psm 6 --oem 3 -l eng+fra --tessdata-dir /opt/tessdata"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Join(NewTesseract(tt.cfg, &fakeRunner{}, nil).Args(), " ")
			if got != tt.want {
				t.Errorf("Args() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTesseractRecognize(t *testing.T) {
	runner := &fakeRunner{stdout: []byte("  1. Mitochondria produce ATP\n\f")}
	engine := NewTesseract(Config{Binary: "/usr/local/bin/tesseract"}, runner, nil)

	img := []byte("png bytes")
	got, err := engine.Recognize(context.Background(), img)
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	// OCR output keeps list numbering.
	if got != "1. Mitochondria produce ATP" {
		t.Errorf("Recognize() = %q", got)
	}
	if runner.name != "/usr/local/bin/tesseract" {
		t.Errorf("binary = %q", runner.name)
	}
	if !bytes.Equal(runner.stdin, img) {
		t.Error("image not passed on stdin")
	}
}

func TestTesseractErrors(t *testing.T) {
	tests := []struct {
		name    string
		runner  *fakeRunner
		wantDep bool
	}{
		{"binary missing", &fakeRunner{err: &exec.Error{Name: "tesseract", Err: exec.ErrNotFound}}, true},
		{"language missing", &fakeRunner{
			err:    errors.New("exit status 1"),
			stderr: []byte("Error opening data file /usr/share/tessdata/xyz.traineddata\nFailed loading language 'xyz'"),
		}, true},
		{"bad image", &fakeRunner{
			err:    errors.New("exit status 1"),
			stderr: []byte("Error in pixReadMem: Unknown format: no pix returned"),
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTesseract(Config{}, tt.runner, nil).Recognize(context.Background(), []byte("x"))
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, model.ErrDependencyUnavailable); got != tt.wantDep {
				t.Errorf("dependency unavailable = %v, want %v (err=%v)", got, tt.wantDep, err)
			}
		})
	}
}

func TestTesseractCheck(t *testing.T) {
	runner := &fakeRunner{stderr: []byte("tesseract 4.1.1\n leptonica-1.79.0\n")}
	version, err := NewTesseract(Config{}, runner, nil).Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if version != "tesseract 4.1.1" {
		t.Errorf("Check() = %q", version)
	}
	if len(runner.args) != 1 || runner.args[0] != "--version" {
		t.Errorf("args = %q", runner.args)
	}
}

func TestNewBackends(t *testing.T) {
	engine, err := New(Config{}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if engine.Name() != "tesseract" {
		t.Errorf("default backend = %q", engine.Name())
	}

	if _, err := New(Config{Backend: "cloud"}, nil); err == nil {
		t.Error("expected error for unknown backend")
	}
}

// Exercises the real binary when it is installed.
func TestTesseractIntegration(t *testing.T) {
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	engine := NewTesseract(Config{}, nil, nil)
	if _, err := engine.Check(context.Background()); err != nil {
		t.Skipf("Tesseract not usable: %v", err)
	}
	if _, err := engine.Recognize(context.Background(), createTestPNG(100, 50)); err != nil {
		t.Errorf("Recognize failed: %v", err)
	}
}
