// Package pptx extracts text, tables and pictures from PowerPoint (.pptx)
// presentations, one unit per slide.
package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
)

const (
	presentationPart = "ppt/presentation.xml"
	presentationRels = "ppt/_rels/presentation.xml.rels"

	// maxPartSize caps the decompressed size of a single archive part.
	maxPartSize = 256 << 20
)

// ErrPartTooLarge is returned for archive parts that decompress beyond
// maxPartSize.
var ErrPartTooLarge = errors.New("pptx: archive part too large")

// Reader provides access to PPTX document content.
type Reader struct {
	zipReader    *zip.Reader
	presentation *presentationXML
	presRels     map[string]relationshipXML
	slideRels    map[string]map[string]relationshipXML // slide part -> relationships
}

// Open reads a PPTX archive from memory.
func Open(data []byte) (*Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}

	r := &Reader{
		zipReader: zr,
		slideRels: make(map[string]map[string]relationshipXML),
	}

	// Validate required files exist
	if err := r.validate(); err != nil {
		return nil, err
	}

	// Parse presentation relationships first
	if err := r.parseRelationships(); err != nil {
		return nil, fmt.Errorf("parsing relationships: %w", err)
	}

	// Parse presentation to get slide order
	if err := r.parsePresentation(); err != nil {
		return nil, fmt.Errorf("parsing presentation: %w", err)
	}
	return r, nil
}

// validate checks that required PPTX files exist.
func (r *Reader) validate() error {
	if r.getFile(presentationPart) == nil {
		return fmt.Errorf("missing required file: %s", presentationPart)
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

// parseRels reads a relationships part. A missing part yields an empty map.
func (r *Reader) parseRels(name string) (map[string]relationshipXML, error) {
	out := make(map[string]relationshipXML)
	if r.getFile(name) == nil {
		return out, nil
	}
	data, err := r.getFileContent(name)
	if err != nil {
		return nil, err
	}
	var rels relationshipsXML
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, err
	}
	for _, rel := range rels.Relationship {
		out[rel.ID] = rel
	}
	return out, nil
}

// parseRelationships parses the presentation relationships file.
func (r *Reader) parseRelationships() error {
	rels, err := r.parseRels(presentationRels)
	if err != nil {
		return err
	}
	r.presRels = rels
	return nil
}

// parsePresentation parses the main presentation file.
func (r *Reader) parsePresentation() error {
	data, err := r.getFileContent(presentationPart)
	if err != nil {
		return err
	}

	r.presentation = &presentationXML{}
	return xml.Unmarshal(data, r.presentation)
}

// SlideParts returns the slide part names in presentation order. The order
// comes from the slide ID list; decks without one fall back to the numeric
// order of the slide file names.
func (r *Reader) SlideParts() []string {
	var parts []string
	if r.presentation.SlideIdList != nil {
		for _, id := range r.presentation.SlideIdList.SlideId {
			rel, ok := r.presRels[id.RID]
			if !ok {
				// Keep the slot so numbering stays aligned with the deck.
				parts = append(parts, "")
				continue
			}
			parts = append(parts, resolveTarget("ppt", rel.Target))
		}
		if len(parts) > 0 {
			return parts
		}
	}

	for _, f := range r.zipReader.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
			parts = append(parts, f.Name)
		}
	}
	sort.Slice(parts, func(i, j int) bool {
		return extractSlideNumber(parts[i]) < extractSlideNumber(parts[j])
	})
	return parts
}

// extractSlideNumber extracts the slide number from a path like "ppt/slides/slide1.xml"
func extractSlideNumber(path string) int {
	name := strings.TrimPrefix(path, "ppt/slides/slide")
	name = strings.TrimSuffix(name, ".xml")
	var num int
	fmt.Sscanf(name, "%d", &num)
	return num
}

// Slide parses one slide part.
func (r *Reader) Slide(part string) (*slideXML, error) {
	if part == "" {
		return nil, errors.New("slide has no relationship target")
	}
	data, err := r.getFileContent(part)
	if err != nil {
		return nil, err
	}
	var s slideXML
	if err := xml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%s: %w", part, err)
	}
	return &s, nil
}

// Image returns the bytes of a picture referenced from a slide, and the part
// name.
func (r *Reader) Image(slidePart, relID string) ([]byte, string, error) {
	rels, ok := r.slideRels[slidePart]
	if !ok {
		var err error
		rels, err = r.parseRels(path.Join(path.Dir(slidePart), "_rels", path.Base(slidePart)+".rels"))
		if err != nil {
			return nil, "", fmt.Errorf("slide relationships: %w", err)
		}
		r.slideRels[slidePart] = rels
	}

	rel, ok := rels[relID]
	if !ok {
		return nil, "", fmt.Errorf("unknown image relationship %q", relID)
	}
	if strings.EqualFold(rel.TargetMode, "External") {
		return nil, rel.Target, fmt.Errorf("linked image %q is not embedded", rel.Target)
	}
	name := resolveTarget(path.Dir(slidePart), rel.Target)
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
