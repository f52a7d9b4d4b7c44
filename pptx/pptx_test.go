package pptx

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/tsawler/gleaner/format"
	"github.com/tsawler/gleaner/model"
	"github.com/tsawler/gleaner/recognize"
)

const (
	nsDecl = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
		`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" ` +
		`xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`
	relsHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`
)

// writeZipFile writes a file into a zip archive.
func writeZipFile(t *testing.T, zw *zip.Writer, name, content string) {
	t.Helper()
	w, err := zw.Create(name)
	if err != nil {
		t.Fatalf("Failed to create %s in zip: %v", name, err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

// deck describes a test presentation. Slides are stored as slideN.xml with N
// starting at 1; order lists the slide numbers in presentation order and
// defaults to file order. Without an ID list the presentation part has no
// sldIdLst at all.
type deck struct {
	slides    []string
	order     []int
	noIDList  bool
	slideRels map[int]string
	files     map[string][]byte
}

func (d deck) build(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	writeZipFile(t, zw, "[Content_Types].xml", `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`)

	var rels, ids strings.Builder
	rels.WriteString(relsHeader)
	for i := range d.slides {
		fmt.Fprintf(&rels, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, i+1, i+1)
	}
	rels.WriteString(`</Relationships>`)
	writeZipFile(t, zw, "ppt/_rels/presentation.xml.rels", rels.String())

	order := d.order
	if order == nil {
		for i := range d.slides {
			order = append(order, i+1)
		}
	}
	if !d.noIDList {
		ids.WriteString(`<p:sldIdLst>`)
		for i, n := range order {
			fmt.Fprintf(&ids, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, n)
		}
		ids.WriteString(`</p:sldIdLst>`)
	}
	writeZipFile(t, zw, "ppt/presentation.xml",
		`<?xml version="1.0" encoding="UTF-8" standalone="yes"?><p:presentation `+nsDecl+`>`+ids.String()+
			`<p:sldSz cx="9144000" cy="6858000"/></p:presentation>`)

	for i, body := range d.slides {
		writeZipFile(t, zw, fmt.Sprintf("ppt/slides/slide%d.xml", i+1), body)
	}
	for n, r := range d.slideRels {
		writeZipFile(t, zw, fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), relsHeader+r+`</Relationships>`)
	}
	for name, data := range d.files {
		writeZipFile(t, zw, name, string(data))
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func slide(shapes ...string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><p:sld ` + nsDecl + `><p:cSld><p:spTree>` +
		`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>` +
		strings.Join(shapes, "") + `</p:spTree></p:cSld></p:sld>`
}

func textShape(placeholder string, paragraphs ...string) string {
	ph := ""
	if placeholder != "" {
		ph = `<p:ph type="` + placeholder + `"/>`
	}
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<a:p>`)
		if p != "" {
			body.WriteString(`<a:r><a:rPr lang="en-US" dirty="0"/><a:t>` + p + `</a:t></a:r>`)
		}
		body.WriteString(`<a:endParaRPr lang="en-US"/></a:p>`)
	}
	return `<p:sp><p:nvSpPr><p:cNvPr id="2" name="Shape"/><p:cNvSpPr/><p:nvPr>` + ph + `</p:nvPr></p:nvSpPr>` +
		`<p:spPr/><p:txBody><a:bodyPr/><a:lstStyle/>` + body.String() + `</p:txBody></p:sp>`
}

func pictureShape(relID string) string {
	return `<p:pic><p:nvPicPr><p:cNvPr id="4" name="Picture 3"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>` +
		`<p:blipFill><a:blip r:embed="` + relID + `"/><a:stretch><a:fillRect/></a:stretch></p:blipFill><p:spPr/></p:pic>`
}

func tableShape(rows ...[]string) string {
	var sb strings.Builder
	sb.WriteString(`<p:graphicFrame><p:nvGraphicFramePr><p:cNvPr id="5" name="Table 4"/><p:cNvGraphicFramePr/><p:nvPr/></p:nvGraphicFramePr>` +
		`<p:xfrm/><a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/table"><a:tbl><a:tblGrid/>`)
	for _, row := range rows {
		sb.WriteString(`<a:tr h="370840">`)
		for _, cell := range row {
			sb.WriteString(`<a:tc><a:txBody><a:bodyPr/><a:p><a:r><a:t>` + cell + `</a:t></a:r></a:p></a:txBody><a:tcPr/></a:tc>`)
		}
		sb.WriteString(`</a:tr>`)
	}
	sb.WriteString(`</a:tbl></a:graphicData></a:graphic></p:graphicFrame>`)
	return sb.String()
}

func imageRel(id, target string) string {
	return `<Relationship Id="` + id + `" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="` + target + `"/>`
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetGray(3, 3, color.Gray{})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func source(data []byte) model.Source {
	return model.Source{Name: "deck.pptx", Format: format.PPTX, Data: data}
}

type fakeEngine struct{ text string }

func (f fakeEngine) Recognize(context.Context, []byte) (string, error) { return f.text, nil }
func (f fakeEngine) Name() string                                      { return "fake" }

func TestExtractKeepsEverySlide(t *testing.T) {
	data := deck{slides: []string{
		slide(textShape("title", "Welcome"), textShape("body", "Line one", "Line two")),
		slide(textShape("title", "")),
		slide(textShape("ctrTitle", "Thanks")),
	}}.build(t)

	result, err := New(Options{}).Extract(context.Background(), source(data))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(result.Slides) != 3 {
		t.Fatalf("len(Slides) = %d, want 3", len(result.Slides))
	}
	for i, s := range result.Slides {
		if s.Number != i+1 {
			t.Errorf("slide %d has Number %d", i, s.Number)
		}
	}
	if result.Slides[0].Text != "Welcome\nLine one\nLine two" {
		t.Errorf("slide 1 Text = %q", result.Slides[0].Text)
	}
	if result.Slides[1].Text != "" || result.Slides[1].Failure != nil {
		t.Errorf("slide 2 = %+v, want empty", result.Slides[1])
	}
	if result.Text != "Welcome\nLine one\nLine two\n\nThanks" {
		t.Errorf("Text = %q", result.Text)
	}
}

func TestExtractPresentationOrder(t *testing.T) {
	data := deck{
		slides: []string{slide(textShape("", "one")), slide(textShape("", "two")), slide(textShape("", "three"))},
		order:  []int{3, 1, 2},
	}.build(t)

	result, err := New(Options{}).Extract(context.Background(), source(data))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Text != "three\n\none\n\ntwo" {
		t.Errorf("Text = %q", result.Text)
	}
	if result.Slides[0].Number != 1 || result.Slides[0].Text != "three" {
		t.Errorf("first slide = %+v", result.Slides[0])
	}
}

func TestSlidePartsFallbackOrder(t *testing.T) {
	slides := make([]string, 10)
	for i := range slides {
		slides[i] = slide(textShape("", fmt.Sprintf("s%d", i+1)))
	}
	data := deck{slides: slides, noIDList: true}.build(t)

	r, err := Open(data)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	parts := r.SlideParts()
	if len(parts) != 10 {
		t.Fatalf("len(parts) = %d", len(parts))
	}
	if parts[1] != "ppt/slides/slide2.xml" || parts[9] != "ppt/slides/slide10.xml" {
		t.Errorf("parts = %v", parts)
	}
}

func TestExtractShapeOrder(t *testing.T) {
	group := `<p:grpSp><p:nvGrpSpPr><p:cNvPr id="7" name="Group 6"/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>` +
		textShape("", "Grouped") + `</p:grpSp>`
	data := deck{
		slides: []string{slide(
			textShape("title", "Before"),
			tableShape([]string{"Q1", "Q2"}, []string{"10", "20"}),
			group,
			pictureShape("rId2"),
		)},
		slideRels: map[int]string{1: imageRel("rId2", "../media/image1.png")},
		files:     map[string][]byte{"ppt/media/image1.png": testPNG(t)},
	}.build(t)

	e := New(Options{Images: &recognize.Image{Engine: fakeEngine{text: "bar chart"}}})
	result, err := e.Extract(context.Background(), source(data))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	s := result.Slides[0]
	if s.Text != "Before\nQ1 | Q2\n10 | 20\nGrouped" {
		t.Errorf("Text = %q", s.Text)
	}
	if len(s.Tables) != 1 || s.Tables[0][1][0] != "10" {
		t.Errorf("Tables = %v", s.Tables)
	}
	if len(s.Images) != 1 {
		t.Fatalf("len(Images) = %d", len(s.Images))
	}
	img := s.Images[0]
	if !img.OK() || img.Content != "bar chart" || img.Index != 1 || img.Position != 3 || img.Name != "ppt/media/image1.png" {
		t.Errorf("image = %+v", img)
	}
	if len(result.Images) != 0 || len(result.AllImages()) != 1 {
		t.Error("slide images belong to their slide")
	}
}

func TestExtractParagraphContent(t *testing.T) {
	sp := `<p:sp><p:nvSpPr><p:cNvPr id="2" name="Body"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/>` +
		`<a:p><a:pPr lvl="1"/><a:r><a:t>A</a:t></a:r><a:br><a:rPr/></a:br><a:r><a:t>B</a:t></a:r>` +
		`<a:fld id="{1}" type="slidenum"><a:rPr/><a:t>4</a:t></a:fld></a:p></p:txBody></p:sp>`
	data := deck{slides: []string{slide(sp)}}.build(t)

	result, err := New(Options{}).Extract(context.Background(), source(data))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Text != "A\nB4" {
		t.Errorf("Text = %q", result.Text)
	}
}

func TestExtractSkipFooters(t *testing.T) {
	data := deck{slides: []string{slide(textShape("body", "Content"), textShape("sldNum", "7"), textShape("ftr", "Confidential"))}}.build(t)

	all, err := New(Options{}).Extract(context.Background(), source(data))
	if err != nil {
		t.Fatal(err)
	}
	if all.Text != "Content\n7\nConfidential" {
		t.Errorf("Text = %q", all.Text)
	}

	trimmed, err := New(Options{SkipFooters: true}).Extract(context.Background(), source(data))
	if err != nil {
		t.Fatal(err)
	}
	if trimmed.Text != "Content" {
		t.Errorf("Text = %q", trimmed.Text)
	}
}

func TestExtractBrokenSlideIsInline(t *testing.T) {
	data := deck{slides: []string{
		slide(textShape("", "first")),
		`<p:sld ` + nsDecl + `><p:cSld><p:spTree><p:sp>`,
		slide(textShape("", "third")),
	}}.build(t)

	result, err := New(Options{}).Extract(context.Background(), source(data))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(result.Slides) != 3 {
		t.Fatalf("len(Slides) = %d", len(result.Slides))
	}
	broken := result.Slides[1]
	if broken.Failure == nil || !strings.HasPrefix(broken.Text, "[slide 2: extraction failed:") {
		t.Errorf("slide 2 = %+v", broken)
	}
	if !strings.HasPrefix(result.Text, "first\n\n[slide 2") || !strings.HasSuffix(result.Text, "\n\nthird") {
		t.Errorf("Text = %q", result.Text)
	}
}

func TestExtractPictureFailures(t *testing.T) {
	data := deck{
		slides:    []string{slide(pictureShape("rId2"), textShape("", "caption"), pictureShape("rId9"))},
		slideRels: map[int]string{1: imageRel("rId2", "../media/image1.emf")},
		files:     map[string][]byte{"ppt/media/image1.emf": []byte("\x01\x00\x00\x00 not a raster")},
	}.build(t)

	e := New(Options{Images: &recognize.Image{Engine: fakeEngine{text: "never"}}})
	result, err := e.Extract(context.Background(), source(data))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	images := result.Slides[0].Images
	if len(images) != 2 {
		t.Fatalf("len(Images) = %d", len(images))
	}
	for _, img := range images {
		if img.OK() {
			t.Errorf("image %d should have failed", img.Index)
		}
	}
	if images[0].Position != 0 || images[1].Position != 1 {
		t.Errorf("positions = %d, %d", images[0].Position, images[1].Position)
	}
	if result.Slides[0].Text != "caption" {
		t.Errorf("Text = %q", result.Slides[0].Text)
	}
}

func TestExtractMissingEngineIsCallLevel(t *testing.T) {
	data := deck{
		slides:    []string{slide(textShape("", "kept")), slide(pictureShape("rId2"))},
		slideRels: map[int]string{2: imageRel("rId2", "../media/image1.png")},
		files:     map[string][]byte{"ppt/media/image1.png": testPNG(t)},
	}.build(t)

	result, err := New(Options{Images: &recognize.Image{}}).Extract(context.Background(), source(data))
	if !errors.Is(err, model.ErrDependencyUnavailable) {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(result.Slides) != 1 || result.Text != "kept" {
		t.Errorf("partial result = %+v", result)
	}
}

func TestExtractMalformed(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	writeZipFile(t, zw, "ppt/slides/slide1.xml", slide())
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	for name, data := range map[string][]byte{
		"not a zip":          []byte("PK but not really"),
		"no presentation":    buf.Bytes(),
		"empty archive body": {},
	} {
		t.Run(name, func(t *testing.T) {
			result, err := New(Options{}).Extract(context.Background(), source(data))
			if !errors.Is(err, model.ErrMalformedInput) {
				t.Fatalf("Extract() error = %v", err)
			}
			if result.Failure == nil {
				t.Error("Failure not recorded")
			}
		})
	}
}
