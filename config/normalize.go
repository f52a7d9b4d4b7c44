package config

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables that override file settings.
const (
	EnvConfig        = "GLEANER_CONFIG"
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvOpenAIBaseURL = "GLEANER_OPENAI_BASE_URL"
	EnvTesseract     = "GLEANER_TESSERACT"
	EnvTessdata      = "TESSDATA_PREFIX"
	EnvPdftoppm      = "GLEANER_PDFTOPPM"
	EnvLogLevel      = "GLEANER_LOG_LEVEL"
)

// Normalize applies environment overrides, trims values and fills empty
// fields with defaults.
func (c *Config) Normalize() error {
	c.applyEnv()
	if err := c.normalizeOCR(); err != nil {
		return err
	}
	c.normalizePreprocess()
	if err := c.normalizePDF(); err != nil {
		return err
	}
	c.normalizeVision()
	c.normalizeImages()
	c.normalizeLogging()
	c.normalizeServer()
	if c.Limits.MaxFileBytes <= 0 {
		c.Limits.MaxFileBytes = defaultMaxFileBytes
	}
	return nil
}

func getEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return strings.TrimSpace(value), true
}

// applyEnv overlays environment variables. The API key only fills an empty
// setting so a key in the file wins; binary locations always override.
func (c *Config) applyEnv() {
	if c.Vision.APIKey == "" {
		if value, ok := getEnv(EnvOpenAIKey); ok {
			c.Vision.APIKey = value
		}
	}
	if value, ok := getEnv(EnvOpenAIBaseURL); ok {
		c.Vision.BaseURL = value
	}
	if value, ok := getEnv(EnvTesseract); ok {
		c.OCR.Binary = value
	}
	if c.OCR.TessdataDir == "" {
		if value, ok := getEnv(EnvTessdata); ok {
			c.OCR.TessdataDir = value
		}
	}
	if value, ok := getEnv(EnvPdftoppm); ok {
		c.PDF.Pdftoppm = value
	}
	if value, ok := getEnv(EnvLogLevel); ok {
		c.Logging.Level = value
	}
}

func (c *Config) normalizeOCR() error {
	c.OCR.Backend = lower(c.OCR.Backend, defaultOCRBackend)
	c.OCR.Binary = strings.TrimSpace(c.OCR.Binary)
	if c.OCR.Binary == "" {
		c.OCR.Binary = defaultOCRBinary
	}
	c.OCR.Language = strings.TrimSpace(c.OCR.Language)
	if c.OCR.Language == "" {
		c.OCR.Language = defaultOCRLanguage
	}
	var err error
	if c.OCR.TessdataDir, err = ExpandPath(strings.TrimSpace(c.OCR.TessdataDir)); err != nil {
		return fmt.Errorf("ocr.tessdata_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePreprocess() {
	if c.Preprocess.Strength == 0 {
		c.Preprocess.Strength = defaultDenoiseStrength
	}
	if c.Preprocess.TemplateWindow == 0 {
		c.Preprocess.TemplateWindow = defaultTemplateWindow
	}
	if c.Preprocess.SearchWindow == 0 {
		c.Preprocess.SearchWindow = defaultSearchWindow
	}
}

func (c *Config) normalizePDF() error {
	c.PDF.Strategy = lower(c.PDF.Strategy, defaultPDFStrategy)
	c.PDF.Recognizer = lower(c.PDF.Recognizer, defaultPDFRecognizer)
	if c.PDF.DPI == 0 {
		c.PDF.DPI = defaultPDFDPI
	}
	if c.PDF.MinChars == 0 {
		c.PDF.MinChars = defaultPDFMinChars
	}
	c.PDF.Pdftoppm = strings.TrimSpace(c.PDF.Pdftoppm)
	if c.PDF.Pdftoppm == "" {
		c.PDF.Pdftoppm = defaultPdftoppm
	}
	var err error
	if c.PDF.TempDir, err = ExpandPath(strings.TrimSpace(c.PDF.TempDir)); err != nil {
		return fmt.Errorf("pdf.temp_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeVision() {
	c.Vision.APIKey = strings.TrimSpace(c.Vision.APIKey)
	c.Vision.BaseURL = strings.TrimSpace(c.Vision.BaseURL)
	c.Vision.Model = strings.TrimSpace(c.Vision.Model)
	if c.Vision.Model == "" {
		c.Vision.Model = defaultVisionModel
	}
	if c.Vision.MaxTokens == 0 {
		c.Vision.MaxTokens = defaultVisionMaxTokens
	}
	if c.Vision.TimeoutSeconds == 0 {
		c.Vision.TimeoutSeconds = defaultVisionTimeout
	}
	c.Vision.Detail = lower(c.Vision.Detail, defaultVisionDetail)
}

func (c *Config) normalizeImages() {
	c.Images.Standalone = lower(c.Images.Standalone, defaultImagesStandalone)
	c.Images.Embedded = lower(c.Images.Embedded, defaultImagesEmbedded)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = lower(c.Logging.Format, defaultLogFormat)
	c.Logging.Level = lower(c.Logging.Level, defaultLogLevel)
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = defaultServerReadSecs
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = defaultServerWriteSecs
	}
}

func lower(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	return value
}
