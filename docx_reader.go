package docmorph

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/nicholasgasior/docmorph-go/internal/ooxml"
)

const docxDocumentPart = "word/document.xml"
const docxDocumentRels = "word/_rels/document.xml.rels"

// docxToHTML is the direct transform behind docx -> HTML. The payload is
// treated strictly as a byte-level artifact; nothing survives the call.
func (e *Engine) docxToHTML(_ context.Context, data []byte, opts *ConvertOptions) ([]byte, []Warning, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, &ContainerError{Cause: err}
	}
	if !ooxml.HasPart(zr, docxDocumentPart) {
		return nil, nil, &ContainerError{Cause: errors.New("missing " + docxDocumentPart)}
	}

	docData, err := ooxml.ReadPart(zr, docxDocumentPart)
	if err != nil {
		return nil, nil, &ContainerError{Cause: err}
	}
	rels, _ := ooxml.Relationships(zr, docxDocumentRels)

	r := &docxReader{
		zr:             zr,
		rels:           rels,
		styles:         parseDocxStyles(zr),
		preserveImages: opts.PreserveImages,
	}
	body := r.bodyToHTML(docData)

	var warnings []Warning
	if r.dropped > 0 {
		warnings = append(warnings, ImagesDropped(r.dropped))
	}

	return []byte("<html><body>\n" + body + "</body></html>"), warnings, nil
}

// docxToText is the direct transform behind docx -> plain text: bare run
// text with paragraph breaks, no markup of any kind.
func (e *Engine) docxToText(_ context.Context, data []byte, _ *ConvertOptions) ([]byte, []Warning, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, &ContainerError{Cause: err}
	}
	docData, err := ooxml.ReadPart(zr, docxDocumentPart)
	if err != nil {
		return nil, nil, &ContainerError{Cause: err}
	}

	var sb strings.Builder
	var inText bool
	decoder := xml.NewDecoder(bytes.NewReader(docData))
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "br", "tab":
				sb.WriteByte(' ')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p", "tr":
				sb.WriteByte('\n')
			}
		}
	}

	out := strings.TrimSpace(sb.String())
	if out != "" {
		out += "\n"
	}
	return []byte(out), nil, nil
}

// docxReader maps WordprocessingML paragraph/run structures to HTML.
type docxReader struct {
	zr             *zip.Reader
	rels           map[string]ooxml.Relationship
	styles         map[string]string
	preserveImages bool
	dropped        int
}

func (r *docxReader) bodyToHTML(docData []byte) string {
	type runState struct {
		bold, italic, strike bool
	}

	var (
		blocks      []string
		currentPara strings.Builder
		textBuf     strings.Builder
		tableRows   [][]string
		currentRow  []string
		cellBuf     strings.Builder

		run         runState
		inText      bool
		inTableCell bool
		inList      bool
		styleID     string
		hyperRef    string
		inHyper     bool
		listOpen    bool
	)

	appendBlock := func(b string) {
		if b == "" {
			return
		}
		isItem := strings.HasPrefix(b, "<li>")
		if isItem && !listOpen {
			blocks = append(blocks, "<ul>")
			listOpen = true
		} else if !isItem && listOpen {
			blocks = append(blocks, "</ul>")
			listOpen = false
		}
		blocks = append(blocks, b)
	}

	decoder := xml.NewDecoder(bytes.NewReader(docData))
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				currentPara.Reset()
				styleID = ""
				inList = false
			case "pStyle":
				styleID = attrVal(t, "val")
			case "numPr":
				inList = true
			case "r":
				run = runState{}
			case "b":
				run.bold = attrVal(t, "val") != "0"
			case "i":
				run.italic = attrVal(t, "val") != "0"
			case "strike":
				run.strike = attrVal(t, "val") != "0"
			case "t":
				inText = true
				textBuf.Reset()
			case "tab":
				currentPara.WriteString("\t")
			case "br":
				currentPara.WriteString("<br/>")
			case "hyperlink":
				inHyper = true
				for _, attr := range t.Attr {
					if attr.Name.Space == ooxml.NSRelDoc && attr.Name.Local == "id" {
						if rel, ok := r.rels[attr.Value]; ok {
							hyperRef = rel.Target
						}
					}
				}
			case "tbl":
				tableRows = nil
			case "tr":
				currentRow = nil
			case "tc":
				inTableCell = true
				cellBuf.Reset()
			case "drawing", "pict":
				if img := r.consumeImage(decoder); img != "" {
					if inTableCell {
						cellBuf.WriteString(img)
					} else {
						currentPara.WriteString(img)
					}
				}
			}

		case xml.CharData:
			if inText {
				textBuf.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				if !inText {
					break
				}
				text := escapeText(textBuf.String())
				if run.bold {
					text = "<b>" + text + "</b>"
				}
				if run.italic {
					text = "<i>" + text + "</i>"
				}
				if run.strike {
					text = "<s>" + text + "</s>"
				}
				if inHyper && hyperRef != "" {
					text = `<a href="` + escapeAttr(hyperRef) + `">` + text + "</a>"
				}
				if inTableCell {
					cellBuf.WriteString(text)
				} else {
					currentPara.WriteString(text)
				}
				inText = false
			case "hyperlink":
				inHyper = false
				hyperRef = ""
			case "p":
				text := currentPara.String()
				if inTableCell {
					cellBuf.WriteString(text)
					break
				}
				switch {
				case text == "":
				case r.headingLevel(styleID) > 0:
					tag := fmt.Sprintf("h%d", r.headingLevel(styleID))
					appendBlock("<" + tag + ">" + text + "</" + tag + ">")
				case inList:
					appendBlock("<li>" + text + "</li>")
				default:
					appendBlock("<p>" + text + "</p>")
				}
			case "tc":
				currentRow = append(currentRow, cellBuf.String())
				inTableCell = false
			case "tr":
				tableRows = append(tableRows, currentRow)
			case "tbl":
				if len(tableRows) > 0 {
					appendBlock(renderTableRows(tableRows))
				}
			}
		}
	}
	if listOpen {
		blocks = append(blocks, "</ul>")
	}

	return strings.Join(blocks, "\n") + "\n"
}

func renderTableRows(rows [][]string) string {
	var sb strings.Builder
	sb.WriteString("<table>")
	for i, row := range rows {
		tag := "td"
		if i == 0 {
			tag = "th"
		}
		sb.WriteString("<tr>")
		for _, cell := range row {
			sb.WriteString("<" + tag + ">" + cell + "</" + tag + ">")
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</table>")
	return sb.String()
}

// consumeImage reads the rest of a drawing/pict element. When image
// preservation is on, the referenced media part is re-encoded as a data
// URI; otherwise the image is counted as dropped.
func (r *docxReader) consumeImage(decoder *xml.Decoder) string {
	depth := 1
	var embedID, altText string
	for depth > 0 {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "blip":
				if id := attrVal(t, "embed"); id != "" {
					embedID = id
				}
			case "docPr":
				altText = attrVal(t, "descr")
			}
		case xml.EndElement:
			depth--
		}
	}

	if embedID == "" {
		return ""
	}
	if !r.preserveImages {
		r.dropped++
		return ""
	}

	rel, ok := r.rels[embedID]
	if !ok {
		r.dropped++
		return ""
	}
	imgData, err := ooxml.ReadPart(r.zr, ooxml.ResolveTarget(docxDocumentPart, rel.Target))
	if err != nil {
		imgData, err = ooxml.ReadPart(r.zr, rel.Target)
		if err != nil {
			r.dropped++
			return ""
		}
	}

	contentType := imageContentType(rel.Target)
	src := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(imgData)
	if altText == "" {
		altText = path.Base(rel.Target)
	}
	return fmt.Sprintf(`<img src="%s" alt="%s"/>`, src, escapeAttr(altText))
}

func imageContentType(target string) string {
	switch strings.ToLower(path.Ext(target)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".svg":
		return "image/svg+xml"
	}
	return "image/png"
}

// headingLevel maps a paragraph style to a heading level, 0 for body text.
func (r *docxReader) headingLevel(styleID string) int {
	if styleID == "" {
		return 0
	}
	lower := strings.ToLower(styleID)
	for i := 1; i <= 6; i++ {
		if lower == fmt.Sprintf("heading%d", i) || lower == fmt.Sprintf("heading %d", i) {
			return i
		}
	}
	if name, ok := r.styles[styleID]; ok {
		lower = strings.ToLower(name)
		for i := 1; i <= 6; i++ {
			if lower == fmt.Sprintf("heading %d", i) {
				return i
			}
		}
	}
	return 0
}

// parseDocxStyles maps style IDs to display names from word/styles.xml.
func parseDocxStyles(zr *zip.Reader) map[string]string {
	styles := make(map[string]string)
	data, err := ooxml.ReadPart(zr, "word/styles.xml")
	if err != nil {
		return styles
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	var currentID string
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "style":
				currentID = attrVal(t, "styleId")
			case "name":
				if currentID != "" {
					if v := attrVal(t, "val"); v != "" {
						styles[currentID] = v
					}
				}
			}
		case xml.EndElement:
			if t.Name.Local == "style" {
				currentID = ""
			}
		}
	}
	return styles
}

func attrVal(t xml.StartElement, local string) string {
	for _, attr := range t.Attr {
		if attr.Name.Local == local {
			return attr.Value
		}
	}
	return ""
}
