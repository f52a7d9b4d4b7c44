package docx

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tsawler/gleaner/model"
	"github.com/tsawler/gleaner/recognize"
)

// Options configures an Extractor.
type Options struct {
	// Images recognizes embedded pictures. When nil, pictures are recorded
	// as failed outcomes and text extraction continues.
	Images *recognize.Image
	Logger *slog.Logger
}

// Extractor extracts DOCX documents.
type Extractor struct {
	opts   Options
	logger *slog.Logger
}

// New creates an Extractor.
func New(opts Options) *Extractor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{opts: opts, logger: logger}
}

// Extract reads src and returns its text, tables and image outcomes.
//
// A broken archive or a missing main part yields MalformedInput. When the
// document XML is corrupt part way through, everything before the damage is
// kept and MalformedInput is reported alongside it.
func (e *Extractor) Extract(ctx context.Context, src model.Source) (*model.Result, error) {
	result := model.NewResult(src)

	r, err := Open(src.Data)
	if err != nil {
		return result, result.Fail(model.NewError(model.KindMalformedInput, "", fmt.Errorf("docx: %w", err)))
	}

	elements, parseErr := r.Body()
	for _, el := range elements {
		var images []imageRef
		switch {
		case el.Paragraph != nil:
			result.AddBlock(el.Paragraph.Text)
			images = el.Paragraph.Images
		case el.Table != nil:
			t := parseTable(el.Table)
			if len(t.Grid) > 0 {
				result.Tables = append(result.Tables, t.Grid)
				result.AddBlock(t.Grid.Text())
			}
			images = t.Images
		}
		for _, ref := range images {
			if err := e.addImage(ctx, r, ref, result); err != nil {
				return result, result.Fail(err)
			}
		}
	}

	if parseErr != nil {
		e.logger.Warn("document truncated", "file", src.Name, "blocks", result.BlockCount(), "error", parseErr)
		return result, result.Fail(model.NewError(model.KindMalformedInput, "", fmt.Errorf("docx: %w", parseErr)))
	}
	e.logger.Debug("docx extracted", "file", src.Name,
		"blocks", result.BlockCount(), "tables", len(result.Tables), "images", len(result.Images))
	return result, nil
}

// addImage recognizes one picture and appends its outcome. Only call-level
// failures are returned.
func (e *Extractor) addImage(ctx context.Context, r *Reader, ref imageRef, result *model.Result) error {
	index := len(result.Images) + 1
	unit := fmt.Sprintf("image %d", index)

	var out model.ImageOutcome
	data, name, err := r.Image(ref.RelID)
	switch {
	case err != nil:
		out = model.FailedErr(err)
	case e.opts.Images == nil:
		out = model.Failed("image recognition disabled")
	default:
		out, err = e.opts.Images.Outcome(ctx, data)
		if err != nil {
			return err
		}
	}

	out.Index = index
	out.Position = result.BlockCount()
	out.Name = name
	if out.Name == "" {
		out.Name = strings.TrimSpace(ref.Name)
	}
	if !out.OK() {
		e.logger.Warn("image extraction failed", "unit", unit, "part", out.Name, "error", out.Reason)
	}
	result.Images = append(result.Images, out)
	return nil
}
