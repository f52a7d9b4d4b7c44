// Package docx extracts text, tables and embedded images from Word (.docx)
// documents.
//
// The document body is read in authored order. Paragraph text and flattened
// tables become text blocks; every embedded picture is handed to an image
// recognizer and recorded with the number of blocks that precede it.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

const (
	documentPart = "word/document.xml"
	relsPart     = "word/_rels/document.xml.rels"

	// maxPartSize caps the decompressed size of a single archive part.
	maxPartSize = 256 << 20
)

// ErrPartTooLarge is returned for archive parts that decompress beyond
// maxPartSize.
var ErrPartTooLarge = errors.New("docx: archive part too large")

// Reader provides access to DOCX document content.
type Reader struct {
	zipReader *zip.Reader
	rels      map[string]relationshipXML
}

// Open reads a DOCX archive from memory.
func Open(data []byte) (*Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}

	r := &Reader{zipReader: zr}

	// Validate required files exist
	if err := r.validate(); err != nil {
		return nil, err
	}

	// Relationships are optional; a document without them simply has no
	// resolvable images.
	if err := r.parseRelationships(); err != nil {
		return nil, fmt.Errorf("parsing relationships: %w", err)
	}
	return r, nil
}

// validate checks that required DOCX files exist.
func (r *Reader) validate() error {
	if r.getFile(documentPart) == nil {
		return fmt.Errorf("missing required file: %s", documentPart)
	}
	return nil
}

// getFile returns a zip.File by name.
func (r *Reader) getFile(name string) *zip.File {
	for _, f := range r.zipReader.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// getFileContent reads the content of a file from the ZIP archive.
func (r *Reader) getFileContent(name string) ([]byte, error) {
	f := r.getFile(name)
	if f == nil {
		return nil, fmt.Errorf("file not found: %s", name)
	}
	if f.UncompressedSize64 > maxPartSize {
		return nil, fmt.Errorf("%s: %w", name, ErrPartTooLarge)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxPartSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxPartSize {
		return nil, fmt.Errorf("%s: %w", name, ErrPartTooLarge)
	}
	return data, nil
}

// parseRelationships parses document.xml.rels.
func (r *Reader) parseRelationships() error {
	r.rels = make(map[string]relationshipXML)
	if r.getFile(relsPart) == nil {
		return nil
	}
	content, err := r.getFileContent(relsPart)
	if err != nil {
		return err
	}
	var rels relationshipsXML
	if err := xml.Unmarshal(content, &rels); err != nil {
		return err
	}
	for _, rel := range rels.Relationships {
		r.rels[rel.ID] = rel
	}
	return nil
}

// Body decodes the document body in order. On a syntax error the elements
// decoded up to that point are returned together with the error.
func (r *Reader) Body() ([]bodyElement, error) {
	content, err := r.getFileContent(documentPart)
	if err != nil {
		return nil, err
	}

	d := xml.NewDecoder(bytes.NewReader(content))
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("%s: no body element", documentPart)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", documentPart, err)
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "body" {
			var body bodyXML
			if err := body.UnmarshalXML(d, se); err != nil {
				return body.Elements, fmt.Errorf("%s: %w", documentPart, err)
			}
			return body.Elements, nil
		}
	}
}

// Image returns the bytes of the image part a relationship points at, and
// the part name.
func (r *Reader) Image(relID string) ([]byte, string, error) {
	rel, ok := r.rels[relID]
	if !ok {
		return nil, "", fmt.Errorf("unknown image relationship %q", relID)
	}
	if strings.EqualFold(rel.TargetMode, "External") {
		return nil, rel.Target, fmt.Errorf("linked image %q is not embedded", rel.Target)
	}
	name := resolveTarget("word", rel.Target)
	data, err := r.getFileContent(name)
	if err != nil {
		return nil, name, err
	}
	return data, name, nil
}

// resolveTarget resolves a relationship target against the directory of the
// part that owns the relationship. Absolute targets are rooted at the
// package.
func resolveTarget(base, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Clean(path.Join(base, target))
}
