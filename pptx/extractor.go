package pptx

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
	// Images recognizes pictures. When nil, pictures are recorded as failed
	// outcomes and text extraction continues.
	Images *recognize.Image
	// SkipFooters drops footer, date and slide number placeholders.
	SkipFooters bool
	Logger      *slog.Logger
}

// Extractor extracts PPTX presentations.
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

// Extract reads src and returns one unit per slide, in presentation order.
//
// Every slide is recorded, including slides with no text. Within a slide,
// shape texts are joined with newlines in shape order and tables contribute
// their flattened rows at their position. A slide that cannot be parsed is
// replaced by an inline annotation.
func (e *Extractor) Extract(ctx context.Context, src model.Source) (*model.Result, error) {
	result := model.NewResult(src)

	r, err := Open(src.Data)
	if err != nil {
		return result, result.Fail(model.NewError(model.KindMalformedInput, "", fmt.Errorf("pptx: %w", err)))
	}

	parts := r.SlideParts()
	for i, part := range parts {
		if err := ctx.Err(); err != nil {
			return result, result.Fail(err)
		}
		unit, err := e.slide(ctx, r, part, i+1)
		if err != nil {
			return result, result.Fail(err)
		}
		result.AddSlide(unit)
	}

	e.logger.Debug("pptx extracted", "file", src.Name, "slides", len(result.Slides))
	return result, nil
}

// slide extracts one slide. Only call-level failures are returned.
func (e *Extractor) slide(ctx context.Context, r *Reader, part string, number int) (model.Unit, error) {
	s, err := r.Slide(part)
	if err != nil {
		e.logger.Warn("slide extraction failed", "unit", fmt.Sprintf("slide %d", number), "error", err)
		return model.FailedUnit("slide", number, err), nil
	}

	unit := model.Unit{Number: number}
	var texts []string
	for _, shape := range s.CSld.SpTree.Shapes {
		switch shape.Kind {
		case shapeText:
			if e.opts.SkipFooters && isFooterPlaceholder(shape.Placeholder) {
				continue
			}
			if strings.TrimSpace(shape.Text) != "" {
				texts = append(texts, shape.Text)
			}
		case shapeTable:
			grid := tableGrid(shape.Table)
			if len(grid) == 0 {
				continue
			}
			unit.Tables = append(unit.Tables, grid)
			if t := grid.Text(); t != "" {
				texts = append(texts, t)
			}
		case shapePicture:
			out, err := e.picture(ctx, r, part, shape)
			if err != nil {
				return unit, err
			}
			out.Index = len(unit.Images) + 1
			out.Position = len(texts)
			if !out.OK() {
				e.logger.Warn("image extraction failed",
					"unit", fmt.Sprintf("slide %d image %d", number, out.Index), "error", out.Reason)
			}
			unit.Images = append(unit.Images, out)
		}
	}
	unit.Text = strings.Join(texts, "\n")
	return unit, nil
}

func (e *Extractor) picture(ctx context.Context, r *Reader, part string, shape shapeXML) (model.ImageOutcome, error) {
	var out model.ImageOutcome
	data, name, err := r.Image(part, shape.Embed)
	switch {
	case err != nil:
		out = model.FailedErr(err)
	case e.opts.Images == nil:
		out = model.Failed("image recognition disabled")
	default:
		out, err = e.opts.Images.Outcome(ctx, data)
		if err != nil {
			return out, err
		}
	}
	out.Name = name
	if out.Name == "" {
		out.Name = shape.Name
	}
	return out, nil
}
