// Package config loads gleaner's process-wide settings.
//
// Configuration is read once at start-up from a TOML file, overlaid with
// environment variables, normalized and validated. The resulting Config is
// passed to gleaner.New and treated as read-only afterwards.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// OCR configures the local Tesseract engine.
type OCR struct {
	// Backend is "cli" (run the tesseract binary) or "library" (in-process,
	// requires the ocr build tag).
	Backend     string `toml:"backend"`
	Binary      string `toml:"binary"`
	Language    string `toml:"language"`
	TessdataDir string `toml:"tessdata_dir"`
	PSM         int    `toml:"psm"`
	OEM         int    `toml:"oem"`
}

// Preprocess configures the image cleanup applied before OCR.
type Preprocess struct {
	Enabled        bool    `toml:"enabled"`
	Strength       float64 `toml:"strength"`
	TemplateWindow int     `toml:"template_window"`
	SearchWindow   int     `toml:"search_window"`
}

// PDF configures PDF extraction.
type PDF struct {
	// Strategy is auto, text or raster.
	Strategy string `toml:"strategy"`
	DPI      int    `toml:"dpi"`
	MinChars int    `toml:"min_chars"`
	Pdftoppm string `toml:"pdftoppm"`
	// Recognizer reads rasterized pages: ocr or vision.
	Recognizer string `toml:"recognizer"`
	TempDir    string `toml:"temp_dir"`
}

// Vision configures the remote multimodal recognizer.
type Vision struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	MaxTokens      int    `toml:"max_tokens"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Detail         string `toml:"detail"`
	Prompt         string `toml:"prompt"`
}

// Images selects recognizers for standalone and embedded images. Each is
// auto, vision, ocr or none; auto picks vision when an API key is set.
type Images struct {
	Standalone string `toml:"standalone"`
	Embedded   string `toml:"embedded"`
	// SkipSlideFooters drops footer, date and slide number placeholders.
	SkipSlideFooters bool `toml:"skip_slide_footers"`
}

// Limits bounds what a single call accepts.
type Limits struct {
	MaxFileBytes int64 `toml:"max_file_bytes"`
}

// Logging contains configuration for log output.
type Logging struct {
	// Format is auto (text on a terminal, JSON otherwise), text or json.
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Server configures the HTTP upload endpoint.
type Server struct {
	Bind                string `toml:"bind"`
	ReadTimeoutSeconds  int    `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `toml:"write_timeout_seconds"`
}

// Config encapsulates all configuration values for gleaner.
//
// Configuration sections by subsystem:
//   - OCR: local Tesseract engine
//   - Preprocess: grayscale, threshold and denoise before OCR
//   - PDF: strategy selection and rasterization
//   - Vision: remote recognizer connection
//   - Images: recognizer choice for images
//   - Limits: input size bounds
//   - Logging: log format and level
//   - Server: HTTP surface
type Config struct {
	OCR        OCR        `toml:"ocr"`
	Preprocess Preprocess `toml:"preprocess"`
	PDF        PDF        `toml:"pdf"`
	Vision     Vision     `toml:"vision"`
	Images     Images     `toml:"images"`
	Limits     Limits     `toml:"limits"`
	Logging    Logging    `toml:"logging"`
	Server     Server     `toml:"server"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned
// config has environment overrides applied and all fields normalized. A
// missing file is not an error; defaults are used instead.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := cfg.decode(file); err != nil {
			return nil, "", false, err
		}
	}

	if err := cfg.Normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// Parse decodes TOML from r over the defaults, then normalizes and
// validates the result.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(r); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	decoder := toml.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("parse config: %s", strict.String())
		}
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// resolveConfigPath picks the configuration file: an explicit path, then
// GLEANER_CONFIG, then ~/.config/gleaner/config.toml, then ./gleaner.toml.
// An explicit or environment path that does not exist yields defaults.
func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		if env, ok := getEnv(EnvConfig); ok {
			path = env
		}
	}
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := ExpandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("gleaner.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// ExpandPath resolves a leading ~ and makes the path absolute.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// Sample returns the annotated sample configuration.
func Sample() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// VisionTimeout returns the per-request timeout of the remote recognizer.
func (c *Config) VisionTimeout() time.Duration {
	return time.Duration(c.Vision.TimeoutSeconds) * time.Second
}

// HasVisionKey reports whether the remote recognizer can be used.
func (c *Config) HasVisionKey() bool {
	return strings.TrimSpace(c.Vision.APIKey) != ""
}

// ResolveRecognizer turns an images mode into a concrete recognizer name:
// vision, ocr or none.
func (c *Config) ResolveRecognizer(mode string) string {
	if mode == RecognizerAuto {
		if c.HasVisionKey() {
			return RecognizerVision
		}
		return RecognizerOCR
	}
	return mode
}
