package docx

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// Element names used in word/document.xml. Matching is on local names only;
// producers disagree on prefixes but not on names.
const (
	elParagraph  = "p"
	elTable      = "tbl"
	elRow        = "tr"
	elCell       = "tc"
	elSDT        = "sdt"
	elSDTContent = "sdtContent"
	elCustomXML  = "customXml"
)

// bodyXML is the document body (<w:body>) with block-level content kept in
// authored order.
type bodyXML struct {
	Elements []bodyElement
}

// bodyElement is one paragraph or table of the body.
type bodyElement struct {
	Paragraph *paragraphXML
	Table     *tableXML
}

// UnmarshalXML decodes paragraphs and tables in document order, descending
// into content controls and custom XML wrappers. Elements decoded before a
// syntax error are kept so callers can salvage them.
func (b *bodyXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return decodeBlocks(d, &b.Elements)
}

func decodeBlocks(d *xml.Decoder, out *[]bodyElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case elParagraph:
				var p paragraphXML
				if err := d.DecodeElement(&p, &t); err != nil {
					return err
				}
				*out = append(*out, bodyElement{Paragraph: &p})
			case elTable:
				var tbl tableXML
				if err := d.DecodeElement(&tbl, &t); err != nil {
					return err
				}
				*out = append(*out, bodyElement{Table: &tbl})
			case elSDT, elSDTContent, elCustomXML:
				// Content controls wrap ordinary blocks.
				if err := decodeBlocks(d, out); err != nil {
					return err
				}
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

// paragraphXML is a paragraph (<w:p>) reduced to its visible text and the
// images anchored in its runs, both in run order.
type paragraphXML struct {
	Text   string
	Images []imageRef
}

// imageRef points at an image part through a relationship ID.
type imageRef struct {
	RelID string
	// Name is the drawing's name or alt text, when present.
	Name string
}

// UnmarshalXML walks every run of the paragraph, including runs nested in
// hyperlinks, insertions, smart tags and text boxes. Deleted runs, field
// instructions and fallback copies of alternate content are skipped.
func (p *paragraphXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var sb strings.Builder
	var pendingName string
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				var s string
				if err := d.DecodeElement(&s, &t); err != nil {
					return err
				}
				sb.WriteString(s)
				continue
			case "tab", "ptab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			case "noBreakHyphen":
				sb.WriteByte('-')
			case "sym":
				if r, ok := symbolRune(attr(t, "char")); ok {
					sb.WriteRune(r)
				}
			case "docPr":
				pendingName = attr(t, "descr")
				if pendingName == "" {
					pendingName = attr(t, "name")
				}
			case "blip":
				if id := attr(t, "embed"); id != "" {
					p.Images = append(p.Images, imageRef{RelID: id, Name: pendingName})
					pendingName = ""
				}
			case "imagedata":
				if id := attr(t, "id"); id != "" {
					p.Images = append(p.Images, imageRef{RelID: id, Name: attr(t, "title")})
				}
			case "del", "moveFrom", "instrText", "delText", "Fallback", "pPr", "rPr":
				if err := d.Skip(); err != nil {
					return err
				}
				continue
			}
			depth++
		case xml.EndElement:
			if depth == 0 {
				p.Text = sb.String()
				return nil
			}
			depth--
		}
	}
}

// symbolRune decodes a w:sym char attribute. Symbol fonts map their glyphs
// into the private use area at F000; those are shifted back to ASCII.
func symbolRune(hex string) (rune, bool) {
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || v == 0 {
		return 0, false
	}
	if v >= 0xF020 && v <= 0xF0FF {
		v -= 0xF000
	}
	return rune(v), true
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// tableXML represents a table (<w:tbl>).
type tableXML struct {
	Rows []tableRowXML
}

// tableRowXML represents a table row (<w:tr>).
type tableRowXML struct {
	Cells []tableCellXML
}

// UnmarshalXML decodes rows in order, including rows wrapped in content
// controls or custom XML.
func (t *tableXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return decodeWrapped(d, elRow, func(se *xml.StartElement) error {
		var r tableRowXML
		if err := d.DecodeElement(&r, se); err != nil {
			return err
		}
		t.Rows = append(t.Rows, r)
		return nil
	})
}

// UnmarshalXML decodes cells in order, including cells wrapped in content
// controls or custom XML.
func (r *tableRowXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return decodeWrapped(d, elCell, func(se *xml.StartElement) error {
		var c tableCellXML
		if err := d.DecodeElement(&c, se); err != nil {
			return err
		}
		r.Cells = append(r.Cells, c)
		return nil
	})
}

// decodeWrapped calls decode for every child named local up to the end of
// the current element, descending into sdt, sdtContent and customXml.
func decodeWrapped(d *xml.Decoder, local string, decode func(*xml.StartElement) error) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case local:
				if err := decode(&t); err != nil {
					return err
				}
			case elSDT, elSDTContent, elCustomXML:
				if err := decodeWrapped(d, local, decode); err != nil {
					return err
				}
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

// tableCellXML represents a table cell (<w:tc>).
type tableCellXML struct {
	Properties cellPropsXML `xml:"tcPr"`
	Blocks     bodyXML      `xml:"-"`
}

// cellPropsXML represents cell properties.
type cellPropsXML struct {
	GridSpan gridSpanXML `xml:"gridSpan"`
	VMerge   *vMergeXML  `xml:"vMerge"`
}

// gridSpanXML represents column span.
type gridSpanXML struct {
	Val string `xml:"val,attr"`
}

// vMergeXML represents vertical merge.
type vMergeXML struct {
	Val string `xml:"val,attr"` // "restart" or empty (continue)
}

// UnmarshalXML decodes the cell's properties and its paragraphs and nested
// tables in order.
func (c *tableCellXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tcPr":
				if err := d.DecodeElement(&c.Properties, &t); err != nil {
					return err
				}
			case elParagraph:
				var p paragraphXML
				if err := d.DecodeElement(&p, &t); err != nil {
					return err
				}
				c.Blocks.Elements = append(c.Blocks.Elements, bodyElement{Paragraph: &p})
			case elTable:
				var tbl tableXML
				if err := d.DecodeElement(&tbl, &t); err != nil {
					return err
				}
				c.Blocks.Elements = append(c.Blocks.Elements, bodyElement{Table: &tbl})
			case elSDT, elSDTContent, elCustomXML:
				if err := decodeBlocks(d, &c.Blocks.Elements); err != nil {
					return err
				}
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

// relationshipsXML represents _rels/*.rels files
type relationshipsXML struct {
	XMLName       xml.Name          `xml:"Relationships"`
	Relationships []relationshipXML `xml:"Relationship"`
}

// relationshipXML represents a single relationship.
type relationshipXML struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"` // External or empty (internal)
}
