package pptx

import (
	"encoding/xml"
	"strings"
)

// presentationXML represents the ppt/presentation.xml file structure.
type presentationXML struct {
	XMLName     xml.Name        `xml:"presentation"`
	SlideIdList *slideIdListXML `xml:"sldIdLst"`
}

type slideIdListXML struct {
	SlideId []slideIdXML `xml:"sldId"`
}

type slideIdXML struct {
	ID  string `xml:"id,attr"`
	RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"` // r:id attribute for relationship
}

// slideXML represents a ppt/slides/slide*.xml file structure.
type slideXML struct {
	XMLName xml.Name `xml:"sld"`
	CSld    cSldXML  `xml:"cSld"`
}

type cSldXML struct {
	SpTree spTreeXML `xml:"spTree"`
}

// shapeKind tags an entry of the shape tree.
type shapeKind int

const (
	shapeText shapeKind = iota
	shapePicture
	shapeTable
)

// shapeXML is one drawable of the shape tree, flattened out of any groups.
type shapeXML struct {
	Kind shapeKind
	// Placeholder is the placeholder type (title, body, sldNum...) of a
	// text shape, if any.
	Placeholder string
	Text        string
	// Embed is the relationship ID of a picture.
	Embed string
	Name  string
	Table *tblXML
}

// spTreeXML represents the shape tree containing all shapes on a slide, in
// z-order (which is also reading order for generated decks).
type spTreeXML struct {
	Shapes []shapeXML
}

// UnmarshalXML collects shapes in document order. Group shapes are
// descended into so their children keep their position in the tree.
func (t *spTreeXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "sp":
				var sp spXML
				if err := d.DecodeElement(&sp, &el); err != nil {
					return err
				}
				if sp.TxBody != nil {
					shape := shapeXML{Kind: shapeText, Text: sp.TxBody.text(), Name: sp.NvSpPr.CNvPr.Name}
					if sp.NvSpPr.NvPr.Ph != nil {
						shape.Placeholder = sp.NvSpPr.NvPr.Ph.Type
					}
					t.Shapes = append(t.Shapes, shape)
				}
			case "pic":
				var pic picXML
				if err := d.DecodeElement(&pic, &el); err != nil {
					return err
				}
				name := pic.NvPicPr.CNvPr.Descr
				if name == "" {
					name = pic.NvPicPr.CNvPr.Name
				}
				t.Shapes = append(t.Shapes, shapeXML{Kind: shapePicture, Embed: pic.BlipFill.Blip.Embed, Name: name})
			case "graphicFrame":
				var gf graphicFrameXML
				if err := d.DecodeElement(&gf, &el); err != nil {
					return err
				}
				if gf.Graphic.GraphicData.Tbl != nil {
					t.Shapes = append(t.Shapes, shapeXML{Kind: shapeTable, Table: gf.Graphic.GraphicData.Tbl, Name: gf.NvGraphicFramePr.CNvPr.Name})
				}
			case "grpSp":
				var group spTreeXML
				if err := group.UnmarshalXML(d, el); err != nil {
					return err
				}
				t.Shapes = append(t.Shapes, group.Shapes...)
			case "AlternateContent":
				// Keep the first choice only; the fallback duplicates it.
				if err := t.decodeAlternate(d); err != nil {
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

func (t *spTreeXML) decodeAlternate(d *xml.Decoder) error {
	chosen := false
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "Choice" && !chosen {
				chosen = true
				var inner spTreeXML
				if err := inner.UnmarshalXML(d, el); err != nil {
					return err
				}
				t.Shapes = append(t.Shapes, inner.Shapes...)
				continue
			}
			if err := d.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

type cNvPrXML struct {
	ID    int    `xml:"id,attr"`
	Name  string `xml:"name,attr"`
	Descr string `xml:"descr,attr"`
}

// spXML represents a shape element.
type spXML struct {
	NvSpPr nvSpPrXML  `xml:"nvSpPr"`
	TxBody *txBodyXML `xml:"txBody"`
}

type nvSpPrXML struct {
	CNvPr cNvPrXML `xml:"cNvPr"`
	NvPr  nvPrXML  `xml:"nvPr"`
}

type nvPrXML struct {
	Ph *phXML `xml:"ph"` // Placeholder info
}

type phXML struct {
	Type string `xml:"type,attr"` // title, body, subTitle, ctrTitle, etc.
	Idx  int    `xml:"idx,attr"`
}

// txBodyXML represents text body content.
type txBodyXML struct {
	P []pXML `xml:"p"` // Paragraphs
}

// text joins the paragraphs with newlines. Empty paragraphs are kept as
// blank lines, matching what the shape displays.
func (b *txBodyXML) text() string {
	lines := make([]string, len(b.P))
	for i, p := range b.P {
		lines[i] = p.Text
	}
	return strings.Join(lines, "\n")
}

// pXML represents a paragraph. Runs, fields and breaks are read in order.
type pXML struct {
	Text string
}

// UnmarshalXML concatenates run and field text; a:br becomes a vertical tab
// in PowerPoint's own text model and a newline here.
func (p *pXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var sb strings.Builder
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				var s string
				if err := d.DecodeElement(&s, &el); err != nil {
					return err
				}
				sb.WriteString(s)
				continue
			case "br":
				sb.WriteByte('\n')
			case "pPr", "rPr", "endParaRPr":
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

// picXML represents a picture element.
type picXML struct {
	NvPicPr  nvPicPrXML  `xml:"nvPicPr"`
	BlipFill blipFillXML `xml:"blipFill"`
}

type nvPicPrXML struct {
	CNvPr cNvPrXML `xml:"cNvPr"`
}

type blipFillXML struct {
	Blip blipXML `xml:"blip"`
}

type blipXML struct {
	Embed string `xml:"embed,attr"` // r:embed relationship ID
}

// graphicFrameXML represents a graphic frame (tables, charts).
type graphicFrameXML struct {
	NvGraphicFramePr nvGraphicFramePrXML `xml:"nvGraphicFramePr"`
	Graphic          graphicXML          `xml:"graphic"`
}

type nvGraphicFramePrXML struct {
	CNvPr cNvPrXML `xml:"cNvPr"`
}

type graphicXML struct {
	GraphicData graphicDataXML `xml:"graphicData"`
}

type graphicDataXML struct {
	URI string  `xml:"uri,attr"`
	Tbl *tblXML `xml:"tbl"` // Table
}

// tblXML represents a table.
type tblXML struct {
	Tr []trXML `xml:"tr"` // Table rows
}

type trXML struct {
	Tc []tcXML `xml:"tc"` // Table cells
}

type tcXML struct {
	TxBody   *txBodyXML `xml:"txBody"`
	GridSpan int        `xml:"gridSpan,attr"`
	VMerge   bool       `xml:"vMerge,attr"` // Continuation of a vertical merge
	HMerge   bool       `xml:"hMerge,attr"` // Continuation of a horizontal merge
}

// relationshipsXML represents .rels files.
type relationshipsXML struct {
	XMLName      xml.Name          `xml:"Relationships"`
	Relationship []relationshipXML `xml:"Relationship"`
}

type relationshipXML struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}
