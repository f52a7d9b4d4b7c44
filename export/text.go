package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/tsawler/gleaner/model"
)

// WriteText writes the flat text view of r.
//
// Paginated results get a "--- Page N ---" or "--- Slide N ---" header
// before each unit. Embedded image outcomes follow the text they belong to
// under "--- Image N ---" headers. A call-level failure is appended last as
// an "[error: ...]" line.
func WriteText(w io.Writer, r *model.Result) error {
	bw := bufio.NewWriter(w)
	tw := &textWriter{w: bw}

	switch {
	case len(r.Pages) > 0:
		tw.units("Page", r.Pages)
	case len(r.Slides) > 0:
		tw.units("Slide", r.Slides)
	default:
		tw.block(r.Text)
	}
	tw.images(r.Images)

	if r.Failure != nil {
		tw.block(fmt.Sprintf("[error: %s: %s]", r.Failure.Kind, r.Failure.Message))
	}
	if tw.err != nil {
		return tw.err
	}
	return bw.Flush()
}

// TextString returns the flat text view of r.
func TextString(r *model.Result) string {
	var b strings.Builder
	_ = WriteText(&b, r)
	return b.String()
}

// textWriter separates blocks with a blank line and remembers the first
// write error.
type textWriter struct {
	w       io.Writer
	written bool
	err     error
}

func (t *textWriter) block(s string) {
	s = strings.TrimRight(s, "\n")
	if s == "" || t.err != nil {
		return
	}
	if t.written {
		_, t.err = io.WriteString(t.w, "\n")
		if t.err != nil {
			return
		}
	}
	_, t.err = io.WriteString(t.w, s+"\n")
	t.written = true
}

func (t *textWriter) units(label string, units []model.Unit) {
	for _, u := range units {
		header := fmt.Sprintf("--- %s %d ---", label, u.Number)
		if u.Text == "" {
			t.block(header)
		} else {
			t.block(header + "\n" + u.Text)
		}
		t.images(u.Images)
	}
}

func (t *textWriter) images(images []model.ImageOutcome) {
	for _, img := range images {
		header := fmt.Sprintf("--- Image %d ---", img.Index)
		if img.Name != "" {
			header = fmt.Sprintf("--- Image %d (%s) ---", img.Index, img.Name)
		}
		t.block(header + "\n" + img.String())
	}
}
