package config

// Recognizer choices for the images and pdf sections.
const (
	RecognizerAuto   = "auto"
	RecognizerVision = "vision"
	RecognizerOCR    = "ocr"
	RecognizerNone   = "none"
)

const (
	defaultConfigPath       = "~/.config/gleaner/config.toml"
	defaultOCRBackend       = "cli"
	defaultOCRBinary        = "tesseract"
	defaultOCRLanguage      = "eng"
	defaultOCRPSM           = 6
	defaultOCROEM           = 3
	defaultDenoiseStrength  = 10
	defaultTemplateWindow   = 7
	defaultSearchWindow     = 21
	defaultPDFStrategy      = "auto"
	defaultPDFDPI           = 300
	defaultPDFMinChars      = 20
	defaultPdftoppm         = "pdftoppm"
	defaultVisionModel      = "gpt-4o"
	defaultVisionMaxTokens  = 4096
	defaultVisionTimeout    = 120
	defaultVisionDetail     = "high"
	defaultMaxFileBytes     = 100 << 20
	defaultLogFormat        = "auto"
	defaultLogLevel         = "info"
	defaultServerBind       = "127.0.0.1:8080"
	defaultServerReadSecs   = 60
	defaultServerWriteSecs  = 600
	minRasterDPI            = 300
	defaultImagesStandalone = RecognizerAuto
	defaultImagesEmbedded   = RecognizerAuto
	defaultPDFRecognizer    = RecognizerOCR
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		OCR: OCR{
			Backend:  defaultOCRBackend,
			Binary:   defaultOCRBinary,
			Language: defaultOCRLanguage,
			PSM:      defaultOCRPSM,
			OEM:      defaultOCROEM,
		},
		Preprocess: Preprocess{
			Enabled:        true,
			Strength:       defaultDenoiseStrength,
			TemplateWindow: defaultTemplateWindow,
			SearchWindow:   defaultSearchWindow,
		},
		PDF: PDF{
			Strategy:   defaultPDFStrategy,
			DPI:        defaultPDFDPI,
			MinChars:   defaultPDFMinChars,
			Pdftoppm:   defaultPdftoppm,
			Recognizer: defaultPDFRecognizer,
		},
		Vision: Vision{
			Model:          defaultVisionModel,
			MaxTokens:      defaultVisionMaxTokens,
			TimeoutSeconds: defaultVisionTimeout,
			Detail:         defaultVisionDetail,
		},
		Images: Images{
			Standalone: defaultImagesStandalone,
			Embedded:   defaultImagesEmbedded,
		},
		Limits: Limits{
			MaxFileBytes: defaultMaxFileBytes,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Server: Server{
			Bind:                defaultServerBind,
			ReadTimeoutSeconds:  defaultServerReadSecs,
			WriteTimeoutSeconds: defaultServerWriteSecs,
		},
	}
}
