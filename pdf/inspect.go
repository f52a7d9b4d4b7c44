package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrNotPDF is returned when data does not start with a PDF header.
var ErrNotPDF = errors.New("missing %PDF header")

var disableConfigDir sync.Once

// Info describes a PDF container.
type Info struct {
	Pages int
	// Validated is true when pdfcpu parsed the cross-reference structure.
	// A false value means the page count came from the more lenient text
	// reader.
	Validated bool
}

// Inspect validates the container and counts its pages. pdfcpu is tried
// first; files it rejects are given a second chance with the text-layer
// reader, which tolerates more damage.
func Inspect(data []byte) (Info, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF-")) {
		return Info{}, ErrNotPDF
	}

	disableConfigDir.Do(api.DisableConfigDir)

	conf := pmodel.NewDefaultConfiguration()
	conf.ValidationMode = pmodel.ValidationRelaxed

	n, cpuErr := api.PageCount(bytes.NewReader(data), conf)
	if cpuErr == nil && n > 0 {
		return Info{Pages: n, Validated: true}, nil
	}

	n, err := lenientPageCount(data)
	if err != nil {
		if cpuErr != nil {
			return Info{}, fmt.Errorf("%w (fallback: %v)", cpuErr, err)
		}
		return Info{}, err
	}
	if n == 0 {
		return Info{}, errors.New("document has no pages")
	}
	return Info{Pages: n}, nil
}

func lenientPageCount(data []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf: %v", r)
		}
	}()
	reader, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("read pdf: %w", err)
	}
	return reader.NumPage(), nil
}
