package pdf

import (
	"bytes"
	"fmt"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/tsawler/gleaner/textclean"
)

// PageText is the embedded text of one page, or the reason it could not be
// read.
type PageText struct {
	Number int
	Text   string
	Err    error
}

// TextLayer reads the embedded text of pages 1..pages. Every page number
// appears exactly once in the result; pages the reader cannot decode carry
// Err instead of Text. The returned error is set only when the document
// cannot be opened at all.
func TextLayer(data []byte, pages int) (out []PageText, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("read pdf: %v", r)
		}
	}()

	reader, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	available := safeNumPage(reader)
	if pages <= 0 {
		pages = available
	}

	out = make([]PageText, 0, pages)
	for i := 1; i <= pages; i++ {
		pt := PageText{Number: i}
		if i > available {
			pt.Err = fmt.Errorf("page not present in text layer (reader found %d pages)", available)
		} else {
			pt.Text, pt.Err = pageText(reader, i)
		}
		out = append(out, pt)
	}
	return out, nil
}

func safeNumPage(reader *lpdf.Reader) (n int) {
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()
	return reader.NumPage()
}

// pageText extracts one page, converting reader panics on damaged content
// streams into errors.
func pageText(reader *lpdf.Reader, n int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decode page content: %v", r)
		}
	}()

	page := reader.Page(n)
	if page.V.IsNull() {
		return "", fmt.Errorf("page object missing")
	}
	raw, err := page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("decode page content: %w", err)
	}
	return textclean.Normalize(raw), nil
}
