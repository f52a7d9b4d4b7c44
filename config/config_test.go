package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/tsawler/gleaner/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.EnvConfig, config.EnvOpenAIKey, config.EnvOpenAIBaseURL, config.EnvTesseract,
		config.EnvTessdata, config.EnvPdftoppm, config.EnvLogLevel,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())

	cfg, resolved, exists, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent")
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if cfg.OCR.PSM != 6 || cfg.OCR.OEM != 3 || cfg.OCR.Binary != "tesseract" {
		t.Fatalf("unexpected ocr defaults: %+v", cfg.OCR)
	}
	if cfg.PDF.DPI != 300 || cfg.PDF.Strategy != "auto" {
		t.Fatalf("unexpected pdf defaults: %+v", cfg.PDF)
	}
	if cfg.Vision.Model != "gpt-4o" || cfg.Vision.MaxTokens != 4096 || cfg.Vision.Detail != "high" {
		t.Fatalf("unexpected vision defaults: %+v", cfg.Vision)
	}
	if cfg.ResolveRecognizer(cfg.Images.Standalone) != config.RecognizerOCR {
		t.Fatal("auto should resolve to ocr without an API key")
	}
}

func TestLoadUsesConfigEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(path, []byte("[pdf]\ndpi = 400\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.EnvConfig, path)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v, want %q", resolved, exists, path)
	}
	if cfg.PDF.DPI != 400 {
		t.Errorf("dpi = %d, want 400", cfg.PDF.DPI)
	}

	explicit := filepath.Join(t.TempDir(), "absent.toml")
	_, resolved, exists, err = config.Load(explicit)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists || resolved != explicit {
		t.Errorf("explicit path should win over %s: resolved = %q", config.EnvConfig, resolved)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvOpenAIKey, "sk-env")
	t.Setenv(config.EnvTesseract, "/opt/tesseract/bin/tesseract")
	t.Setenv(config.EnvLogLevel, "DEBUG")

	dir := t.TempDir()
	path := filepath.Join(dir, "gleaner.toml")
	content := `
[ocr]
language = "eng+deu"
tessdata_dir = "` + filepath.ToSlash(dir) + `/tessdata"

[pdf]
strategy = "Raster"
dpi = 400

[images]
embedded = "none"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.OCR.Language != "eng+deu" || cfg.OCR.Binary != "/opt/tesseract/bin/tesseract" {
		t.Fatalf("unexpected ocr: %+v", cfg.OCR)
	}
	if cfg.OCR.TessdataDir != filepath.Join(dir, "tessdata") {
		t.Fatalf("tessdata_dir = %q", cfg.OCR.TessdataDir)
	}
	if cfg.PDF.Strategy != "raster" || cfg.PDF.DPI != 400 {
		t.Fatalf("unexpected pdf: %+v", cfg.PDF)
	}
	if cfg.Vision.APIKey != "sk-env" || !cfg.HasVisionKey() {
		t.Fatalf("api key not taken from env")
	}
	if cfg.ResolveRecognizer(cfg.Images.Standalone) != config.RecognizerVision {
		t.Fatal("auto should resolve to vision with an API key")
	}
	if cfg.Images.Embedded != config.RecognizerNone {
		t.Fatalf("embedded = %q", cfg.Images.Embedded)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("log level = %q", cfg.Logging.Level)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"low dpi", "[pdf]\ndpi = 150\n", "pdf.dpi"},
		{"bad strategy", "[pdf]\nstrategy = \"vector\"\n", "pdf.strategy"},
		{"even window", "[preprocess]\ntemplate_window = 6\n", "template_window"},
		{"vision without key", "[images]\nstandalone = \"vision\"\n", "vision.api_key"},
		{"bad backend", "[ocr]\nbackend = \"cloud\"\n", "ocr.backend"},
		{"unknown key", "[pdf]\nresolution = 300\n", "resolution"},
		{"bad toml", "[pdf\n", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse(strings.NewReader(tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestSampleConfigParses(t *testing.T) {
	clearEnv(t)
	var raw map[string]any
	if err := toml.Unmarshal([]byte(config.Sample()), &raw); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}
	cfg, err := config.Parse(strings.NewReader(config.Sample()))
	if err != nil {
		t.Fatalf("sample config rejected: %v", err)
	}
	def := config.Default()
	if err := def.Normalize(); err != nil {
		t.Fatal(err)
	}
	if *cfg != def {
		t.Fatalf("sample drifted from defaults:\n got %+v\nwant %+v", *cfg, def)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != config.Sample() {
		t.Fatal("written sample differs from embedded sample")
	}
}
