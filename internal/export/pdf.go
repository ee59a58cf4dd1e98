package export

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// DejaVu Sans covers Latin, Cyrillic and Greek as well as the subscripts and
// arrows used in formulas.
//
//go:embed fonts/DejaVuSans.ttf
var regularFont []byte

//go:embed fonts/DejaVuSans-Bold.ttf
var boldFont []byte

const (
	pdfFontFamily = "DejaVu"
	pdfMargin     = 20 // mm
)

type pdfStyle struct {
	bold   bool
	size   float64 // pt
	indent float64 // mm
}

var pdfStyles = map[blockKind]pdfStyle{
	blockTitle:    {bold: true, size: 18},
	blockMeta:     {size: 9},
	blockHeading:  {bold: true, size: 14},
	blockQuestion: {bold: true, size: 11},
	blockOption:   {size: 11, indent: 6},
	blockText:     {size: 11},
	blockSpacer:   {size: 8},
}

// writePDF renders blocks as an A4 PDF with the embedded Unicode font.
func writePDF(blocks []block) ([]byte, error) {
	var buf bytes.Buffer
	if err := buildPDF(blocks).Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// buildPDF lays blocks out top to bottom. fpdf wraps long lines and starts
// new pages on its own.
func buildPDF(blocks []block) *fpdf.Fpdf {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	doc.SetAutoPageBreak(true, pdfMargin)
	doc.AddUTF8FontFromBytes(pdfFontFamily, "", regularFont)
	doc.AddUTF8FontFromBytes(pdfFontFamily, "B", boldFont)
	doc.SetCreator("quizgen", true)
	for _, b := range blocks {
		if b.kind == blockTitle {
			doc.SetTitle(b.text, true)
			break
		}
	}
	doc.AddPage()

	pageWidth, _ := doc.GetPageSize()
	width := pageWidth - 2*pdfMargin
	for _, b := range blocks {
		st := pdfStyles[b.kind]
		lineHeight := doc.PointConvert(st.size) * 1.4
		switch b.kind {
		case blockSpacer:
			doc.Ln(lineHeight)
			continue
		case blockHeading:
			doc.Ln(lineHeight)
		}
		style := ""
		if st.bold {
			style = "B"
		}
		doc.SetFont(pdfFontFamily, style, st.size)
		doc.SetX(pdfMargin + st.indent)
		doc.MultiCell(width-st.indent, lineHeight, b.text, "", "L", false)
	}
	return doc
}
