// Package format provides file format detection for the gleaner library.
//
// A Format is resolved once, at the entry boundary, from a file extension or a
// declared MIME type. Everything below the dispatcher works with the closed
// Format enum rather than with strings.
package format

import (
	"archive/zip"
	"bytes"
	"io"
	"mime"
	"path/filepath"
	"strings"
)

// Format represents a supported document format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// Image indicates a raster image (PNG, JPEG, BMP, TIFF, GIF, WebP).
	Image
	// PDF indicates a PDF document.
	PDF
	// DOCX indicates a Microsoft Word (.docx) document.
	DOCX
	// PPTX indicates a Microsoft PowerPoint (.pptx) document.
	PPTX
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case Image:
		return "image"
	case PDF:
		return "pdf"
	case DOCX:
		return "docx"
	case PPTX:
		return "pptx"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(b []byte) error {
	*f = Parse(string(b))
	return nil
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case Image:
		return ".png"
	case PDF:
		return ".pdf"
	case DOCX:
		return ".docx"
	case PPTX:
		return ".pptx"
	default:
		return ""
	}
}

// Paginated reports whether results for the format are split into pages or slides.
func (f Format) Paginated() bool {
	return f == PDF || f == PPTX
}

// Parse converts a format name as produced by String back into a Format.
func Parse(name string) Format {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "image":
		return Image
	case "pdf":
		return PDF
	case "docx":
		return DOCX
	case "pptx":
		return PPTX
	default:
		return Unknown
	}
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
	".gif":  true,
	".webp": true,
}

// SupportedExtensions returns every extension the dispatcher accepts.
func SupportedExtensions() []string {
	return []string{
		".pdf", ".docx", ".pptx", ".ppt",
		".png", ".jpg", ".jpeg", ".bmp", ".tiff", ".tif", ".gif", ".webp",
	}
}

// Detect determines file format from filename extension.
func Detect(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return PDF
	case ".docx":
		return DOCX
	case ".pptx", ".ppt":
		return PPTX
	}
	if imageExtensions[ext] {
		return Image
	}
	return Unknown
}

// FromMIME determines file format from a declared MIME type such as the
// Content-Type of an upload. Parameters (e.g. charset) are ignored.
func FromMIME(mimeType string) Format {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(mimeType))
	}
	switch mt {
	case "application/pdf":
		return PDF
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return DOCX
	case "application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"application/vnd.ms-powerpoint":
		return PPTX
	}
	if strings.HasPrefix(mt, "image/") {
		switch strings.TrimPrefix(mt, "image/") {
		case "png", "jpeg", "jpg", "bmp", "x-ms-bmp", "tiff", "gif", "webp":
			return Image
		}
	}
	return Unknown
}

// Resolve picks a format from the filename first and falls back to the MIME type.
func Resolve(filename, mimeType string) Format {
	if f := Detect(filename); f != Unknown {
		return f
	}
	if mimeType == "" {
		return Unknown
	}
	return FromMIME(mimeType)
}

// DetectFromMagic checks file magic bytes to determine format.
// ZIP archives are reported as Unknown; use DetectFromReader to tell DOCX
// and PPTX apart.
func DetectFromMagic(data []byte) Format {
	switch {
	case len(data) >= 4 && bytes.Equal(data[:4], []byte("%PDF")):
		return PDF
	case isImageMagic(data):
		return Image
	}
	return Unknown
}

// isImageMagic checks the signatures of the supported raster formats.
func isImageMagic(data []byte) bool {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return true
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return true
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return true
	case bytes.HasPrefix(data, []byte("BM")):
		return true
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return true
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return true
	}
	return false
}

// IsOLE reports whether data starts with the compound file signature used
// by legacy binary Office files (.doc, .ppt).
func IsOLE(data []byte) bool {
	return len(data) >= 8 && bytes.Equal(data[:8], []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
}

// IsZIP reports whether data starts with a ZIP local file header.
func IsZIP(data []byte) bool {
	return len(data) >= 4 && data[0] == 0x50 && data[1] == 0x4B && data[2] == 0x03 && data[3] == 0x04
}

// DetectFromReader inspects the content to determine format.
// This is more reliable than extension-based detection and can
// distinguish between the ZIP-based formats (DOCX, PPTX).
func DetectFromReader(r io.ReaderAt, size int64) (Format, error) {
	magic := make([]byte, 16)
	n, err := r.ReadAt(magic, 0)
	if err != nil && err != io.EOF {
		return Unknown, err
	}
	magic = magic[:n]

	if f := DetectFromMagic(magic); f != Unknown {
		return f, nil
	}
	if IsZIP(magic) {
		return detectZIPFormat(r, size)
	}
	return Unknown, nil
}

// detectZIPFormat inspects a ZIP archive to determine if it's DOCX or PPTX.
func detectZIPFormat(r io.ReaderAt, size int64) (Format, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Unknown, err
	}

	for _, f := range zr.File {
		switch {
		case strings.HasPrefix(f.Name, "word/"):
			return DOCX, nil
		case strings.HasPrefix(f.Name, "ppt/"):
			return PPTX, nil
		}
	}

	return Unknown, nil
}

// Matches reports whether content is consistent with the declared format.
// It is used to turn a mislabelled or corrupt container into a MalformedInput
// failure before a format reader is handed garbage.
func Matches(declared Format, data []byte) bool {
	switch declared {
	case PDF:
		// Some producers emit junk before the header; readers tolerate up to 1 KiB.
		head := data
		if len(head) > 1024 {
			head = head[:1024]
		}
		return bytes.Contains(head, []byte("%PDF"))
	case DOCX, PPTX:
		if !IsZIP(data) {
			return false
		}
		f, err := DetectFromReader(bytes.NewReader(data), int64(len(data)))
		return err == nil && f == declared
	case Image:
		return isImageMagic(data)
	}
	return false
}
