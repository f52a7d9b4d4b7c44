package config

import (
	"errors"
	"fmt"
	"slices"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOCR(); err != nil {
		return err
	}
	if err := c.validatePreprocess(); err != nil {
		return err
	}
	if err := c.validatePDF(); err != nil {
		return err
	}
	if err := c.validateVision(); err != nil {
		return err
	}
	if err := c.validateImages(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Server.ReadTimeoutSeconds < 0 || c.Server.WriteTimeoutSeconds < 0 {
		return errors.New("server timeouts must not be negative")
	}
	return nil
}

func (c *Config) validateOCR() error {
	if !slices.Contains([]string{"cli", "library"}, c.OCR.Backend) {
		return fmt.Errorf("ocr.backend must be cli or library, got %q", c.OCR.Backend)
	}
	if c.OCR.PSM < 0 || c.OCR.PSM > 13 {
		return fmt.Errorf("ocr.psm must be between 0 and 13, got %d", c.OCR.PSM)
	}
	if c.OCR.OEM < 0 || c.OCR.OEM > 3 {
		return fmt.Errorf("ocr.oem must be between 0 and 3, got %d", c.OCR.OEM)
	}
	return nil
}

func (c *Config) validatePreprocess() error {
	if c.Preprocess.Strength < 0 {
		return errors.New("preprocess.strength must be positive")
	}
	if c.Preprocess.TemplateWindow < 1 || c.Preprocess.TemplateWindow%2 == 0 {
		return fmt.Errorf("preprocess.template_window must be odd and positive, got %d", c.Preprocess.TemplateWindow)
	}
	if c.Preprocess.SearchWindow < 1 || c.Preprocess.SearchWindow%2 == 0 {
		return fmt.Errorf("preprocess.search_window must be odd and positive, got %d", c.Preprocess.SearchWindow)
	}
	return nil
}

func (c *Config) validatePDF() error {
	if !slices.Contains([]string{"auto", "text", "raster", "ocr"}, c.PDF.Strategy) {
		return fmt.Errorf("pdf.strategy must be auto, text or raster, got %q", c.PDF.Strategy)
	}
	if c.PDF.DPI < minRasterDPI {
		return fmt.Errorf("pdf.dpi must be at least %d, got %d", minRasterDPI, c.PDF.DPI)
	}
	if c.PDF.MinChars < 0 {
		return errors.New("pdf.min_chars must not be negative")
	}
	if !slices.Contains([]string{RecognizerOCR, RecognizerVision}, c.PDF.Recognizer) {
		return fmt.Errorf("pdf.recognizer must be ocr or vision, got %q", c.PDF.Recognizer)
	}
	return nil
}

func (c *Config) validateVision() error {
	if c.Vision.MaxTokens < 1 {
		return errors.New("vision.max_tokens must be positive")
	}
	if c.Vision.TimeoutSeconds < 1 {
		return errors.New("vision.timeout_seconds must be positive")
	}
	if !slices.Contains([]string{"auto", "low", "high"}, c.Vision.Detail) {
		return fmt.Errorf("vision.detail must be auto, low or high, got %q", c.Vision.Detail)
	}
	needsKey := c.PDF.Recognizer == RecognizerVision ||
		c.Images.Standalone == RecognizerVision ||
		c.Images.Embedded == RecognizerVision
	if needsKey && !c.HasVisionKey() {
		path, err := DefaultConfigPath()
		if err != nil {
			path = defaultConfigPath
		}
		return fmt.Errorf("vision.api_key is required when a recognizer is set to vision. Set %s or edit %s", EnvOpenAIKey, path)
	}
	return nil
}

func (c *Config) validateImages() error {
	modes := []string{RecognizerAuto, RecognizerVision, RecognizerOCR, RecognizerNone}
	if !slices.Contains(modes, c.Images.Standalone) || c.Images.Standalone == RecognizerNone {
		return fmt.Errorf("images.standalone must be auto, vision or ocr, got %q", c.Images.Standalone)
	}
	if !slices.Contains(modes, c.Images.Embedded) {
		return fmt.Errorf("images.embedded must be auto, vision, ocr or none, got %q", c.Images.Embedded)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !slices.Contains([]string{"auto", "text", "json"}, c.Logging.Format) {
		return fmt.Errorf("logging.format must be auto, text or json, got %q", c.Logging.Format)
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Logging.Level) {
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}
