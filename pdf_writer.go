package docmorph

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/nicholasgasior/docmorph-go/internal/pdfobj"
)

// Renderer is the fixed-layout typesetting strategy. A full backend (e.g. a
// headless-browser print pipeline) can be substituted at construction time
// without changing the conversion contract; when none is configured, or the
// configured one fails, the built-in minimal backend takes over and the
// result carries a DegradedRendering warning.
type Renderer interface {
	RenderPDF(ctx context.Context, htmlContent string) ([]byte, error)
}

// htmlToPDF is the direct transform behind HTML -> pdf. It never fails for
// lack of a renderer: the degraded path still emits a structurally valid,
// openable document.
func (e *Engine) htmlToPDF(ctx context.Context, data []byte, _ *ConvertOptions) ([]byte, []Warning, error) {
	src := string(data)

	if e.renderer != nil {
		out, err := e.renderer.RenderPDF(ctx, src)
		if err == nil {
			return out, nil, nil
		}
		// Fall through to the minimal backend.
	}

	title := htmlTitle(src)
	if title == "" {
		title = "Document"
	}
	doc, err := html.Parse(strings.NewReader(src))
	var lines []string
	if err == nil {
		var blocks []string
		collectBlocks(doc, false, &blocks)
		for _, b := range blocks {
			lines = append(lines, wrapLine(b, 90)...)
		}
	}

	return minimalPDF(title, lines), []Warning{DegradedRendering()}, nil
}

// Page geometry for the minimal backend: US Letter, 1in margins, Helvetica.
const (
	pageWidth    = 612
	pageHeight   = 792
	pageMargin   = 72
	titleSize    = 16
	bodySize     = 11
	bodyLeading  = 14
	linesPerPage = (pageHeight - 2*pageMargin - 2*bodyLeading) / bodyLeading
)

// minimalPDF emits a paginated document of literal text: the title on the
// first page followed by body lines. Output always begins with the %PDF
// signature and ends with the %%EOF trailer.
func minimalPDF(title string, lines []string) []byte {
	var f pdfobj.File

	catalog := f.Placeholder()
	pages := f.Placeholder()
	font := f.Add(pdfobj.Dict{
		"Type":     pdfobj.Name("Font"),
		"Subtype":  pdfobj.Name("Type1"),
		"BaseFont": pdfobj.Name("Helvetica"),
	})

	var pageRefs []pdfobj.Object
	first := true
	for {
		var content strings.Builder
		content.WriteString("BT\n")
		y := pageHeight - pageMargin
		if first {
			content.WriteString("/F1 " + itoa(titleSize) + " Tf\n")
			content.WriteString(itoa(pageMargin) + " " + itoa(y) + " Td\n")
			content.WriteString(pdfobj.String(sanitizePDFText(title)).String() + " Tj\n")
			content.WriteString("0 -" + itoa(2*bodyLeading) + " Td\n")
			content.WriteString("/F1 " + itoa(bodySize) + " Tf\n")
			first = false
		} else {
			content.WriteString("/F1 " + itoa(bodySize) + " Tf\n")
			content.WriteString(itoa(pageMargin) + " " + itoa(y) + " Td\n")
		}
		for i := 0; i < linesPerPage && len(lines) > 0; i++ {
			content.WriteString(pdfobj.String(sanitizePDFText(lines[0])).String() + " Tj\n")
			content.WriteString("0 -" + itoa(bodyLeading) + " Td\n")
			lines = lines[1:]
		}
		content.WriteString("ET")

		stream := f.AddStream(nil, []byte(content.String()))
		page := f.Add(pdfobj.Dict{
			"Type":     pdfobj.Name("Page"),
			"Parent":   pages,
			"MediaBox": pdfobj.Array{pdfobj.Number(0), pdfobj.Number(0), pdfobj.Number(pageWidth), pdfobj.Number(pageHeight)},
			"Contents": stream,
			"Resources": pdfobj.Dict{
				"Font": pdfobj.Dict{"F1": font},
			},
		})
		pageRefs = append(pageRefs, page)

		if len(lines) == 0 {
			break
		}
	}

	f.Set(pages, pdfobj.Dict{
		"Type":  pdfobj.Name("Pages"),
		"Kids":  pdfobj.Array(pageRefs),
		"Count": pdfobj.Number(len(pageRefs)),
	})
	f.Set(catalog, pdfobj.Dict{
		"Type":  pdfobj.Name("Catalog"),
		"Pages": pages,
	})

	return f.Bytes(catalog)
}

// sanitizePDFText maps text onto the standard font's byte range.
func sanitizePDFText(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t':
			sb.WriteByte(' ')
		case r < 32:
		case r < 256:
			sb.WriteRune(r)
		default:
			sb.WriteByte('?')
		}
	}
	return sb.String()
}

// wrapLine splits a line at word boundaries to at most width characters.
func wrapLine(line string, width int) []string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return nil
	}
	var out []string
	current := words[0]
	for _, w := range words[1:] {
		if len(current)+1+len(w) > width {
			out = append(out, current)
			current = w
			continue
		}
		current += " " + w
	}
	return append(out, current)
}

func itoa(n int) string {
	return pdfobj.Number(n).String()
}
