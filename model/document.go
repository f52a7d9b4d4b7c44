package model

import (
	"strings"

	"github.com/tsawler/gleaner/format"
)

// BlockSeparator joins text blocks (paragraphs, flattened tables, pages,
// slides) in Result.Text.
const BlockSeparator = "\n\n"

// Source is a document handed to an extractor: an immutable byte slice and
// the format it was declared as. The extractor borrows it for one call.
type Source struct {
	Name   string
	Format format.Format
	Data   []byte
}

// NewSource builds a Source, resolving the format from the file name.
func NewSource(name string, data []byte) Source {
	return Source{Name: name, Format: format.Detect(name), Data: data}
}

// Size returns the length of the document in bytes.
func (s Source) Size() int64 {
	return int64(len(s.Data))
}

// Result is the normalized output of one extraction call.
type Result struct {
	Name   string        `json:"file_name,omitempty" yaml:"file_name,omitempty"`
	Format format.Format `json:"format" yaml:"format"`

	Text   string         `json:"text" yaml:"text"`
	Tables []Table        `json:"tables,omitempty" yaml:"tables,omitempty"`
	Pages  []Unit         `json:"pages,omitempty" yaml:"pages,omitempty"`
	Slides []Unit         `json:"slides,omitempty" yaml:"slides,omitempty"`
	Images []ImageOutcome `json:"images,omitempty" yaml:"images,omitempty"`

	// Strategy records how a PDF was read ("text" or "raster").
	Strategy string `json:"strategy,omitempty" yaml:"strategy,omitempty"`

	// Failure is set when the call failed as a whole. Partial content may
	// still be present for malformed input.
	Failure *Failure `json:"error,omitempty" yaml:"error,omitempty"`

	// blocks counts the blocks appended to Text. Blocks may themselves
	// contain blank lines, so the separator cannot be re-counted.
	blocks int
}

// NewResult creates an empty result for the given source.
func NewResult(src Source) *Result {
	return &Result{Name: src.Name, Format: src.Format}
}

// Failed reports whether the call failed as a whole.
func (r *Result) Failed() bool {
	return r.Failure != nil
}

// Fail records a call-level failure and returns err for convenient chaining.
func (r *Result) Fail(err error) error {
	r.Failure = FailureOf(err)
	return err
}

// Units returns the pages or slides of a paginated result.
func (r *Result) Units() []Unit {
	if len(r.Pages) > 0 {
		return r.Pages
	}
	return r.Slides
}

// AddPage appends a page and keeps Text consistent with the unit partition.
func (r *Result) AddPage(u Unit) {
	r.Pages = append(r.Pages, u)
	r.appendBlock(u.Text)
}

// AddSlide appends a slide and keeps Text consistent with the unit partition.
func (r *Result) AddSlide(u Unit) {
	r.Slides = append(r.Slides, u)
	r.appendBlock(u.Text)
}

// AddBlock appends one text block to an unpaginated result.
// Blank blocks are ignored.
func (r *Result) AddBlock(text string) {
	r.appendBlock(text)
}

func (r *Result) appendBlock(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if r.Text != "" {
		r.Text += BlockSeparator
	}
	r.Text += text
	r.blocks++
}

// BlockCount returns the number of text blocks appended so far.
func (r *Result) BlockCount() int {
	return r.blocks
}

// AllTables returns top-level tables followed by per-unit tables in unit order.
func (r *Result) AllTables() []Table {
	tables := append([]Table(nil), r.Tables...)
	for _, u := range r.Units() {
		tables = append(tables, u.Tables...)
	}
	return tables
}

// AllImages returns top-level image outcomes followed by per-unit outcomes
// in unit order.
func (r *Result) AllImages() []ImageOutcome {
	images := append([]ImageOutcome(nil), r.Images...)
	for _, u := range r.Units() {
		images = append(images, u.Images...)
	}
	return images
}

// Stats summarizes the extracted text.
type Stats struct {
	Characters int `json:"characters" yaml:"characters"`
	Words      int `json:"words" yaml:"words"`
	Lines      int `json:"lines" yaml:"lines"`
}

// Stats counts characters, words and lines of Text.
func (r *Result) Stats() Stats {
	s := Stats{
		Characters: len([]rune(r.Text)),
		Words:      len(strings.Fields(r.Text)),
	}
	if r.Text != "" {
		s.Lines = strings.Count(r.Text, "\n") + 1
	}
	return s
}
