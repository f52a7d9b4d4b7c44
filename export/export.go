// Package export renders extraction results for people and programs: JSON
// and YAML documents, a flat text view with page and slide headers, and
// console tables.
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/tsawler/gleaner/model"
)

// Format is an output encoding.
type Format int

const (
	// JSON is the structured result, indented by two spaces.
	JSON Format = iota
	// Text is the flat UTF-8 view.
	Text
	// YAML mirrors the JSON structure.
	YAML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case Text:
		return "text"
	case YAML:
		return "yaml"
	default:
		return "json"
	}
}

// ContentType returns the HTTP media type of the format.
func (f Format) ContentType() string {
	switch f {
	case Text:
		return "text/plain; charset=utf-8"
	case YAML:
		return "application/yaml"
	default:
		return "application/json"
	}
}

// Extension returns the file extension, including the dot.
func (f Format) Extension() string {
	switch f {
	case Text:
		return ".txt"
	case YAML:
		return ".yaml"
	default:
		return ".json"
	}
}

// ParseFormat converts a name produced by String into a Format. "txt" and
// "yml" are accepted as aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSON, nil
	case "text", "txt":
		return Text, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return JSON, fmt.Errorf("unknown output format %q (want json, text or yaml)", name)
}

// Write encodes r to w in format f.
func Write(w io.Writer, r *model.Result, f Format) error {
	switch f {
	case Text:
		return WriteText(w, r)
	case YAML:
		return WriteYAML(w, r)
	default:
		return WriteJSON(w, r)
	}
}

// FileName returns the download name for a result of source: the source's
// base name without extension, suffixed with "_extracted".
func FileName(source string, f Format) string {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = "extraction"
	}
	return stem + "_extracted" + f.Extension()
}
