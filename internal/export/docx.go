package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// run properties per block kind; sizes are in half-points.
var docxRunProps = map[blockKind]string{
	blockTitle:    `<w:rPr><w:b/><w:sz w:val="36"/></w:rPr>`,
	blockMeta:     `<w:rPr><w:color w:val="666666"/><w:sz w:val="18"/></w:rPr>`,
	blockHeading:  `<w:rPr><w:b/><w:sz w:val="28"/></w:rPr>`,
	blockQuestion: `<w:rPr><w:b/></w:rPr>`,
}

// writeDOCX renders blocks as a minimal WordprocessingML package.
func writeDOCX(blocks []block) ([]byte, error) {
	var doc strings.Builder
	doc.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	doc.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, b := range blocks {
		doc.WriteString("<w:p>")
		if b.kind == blockOption {
			doc.WriteString(`<w:pPr><w:ind w:left="360"/></w:pPr>`)
		}
		if b.text != "" {
			var esc bytes.Buffer
			if err := xml.EscapeText(&esc, []byte(b.text)); err != nil {
				return nil, fmt.Errorf("escape text: %w", err)
			}
			doc.WriteString("<w:r>")
			doc.WriteString(docxRunProps[b.kind])
			doc.WriteString(`<w:t xml:space="preserve">`)
			doc.Write(esc.Bytes())
			doc.WriteString("</w:t></w:r>")
		}
		doc.WriteString("</w:p>")
	}
	doc.WriteString(`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/></w:sectPr></w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct{ name, body string }{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/document.xml", doc.String()},
	}
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", p.name, err)
		}
		if _, err := w.Write([]byte(p.body)); err != nil {
			return nil, fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}
