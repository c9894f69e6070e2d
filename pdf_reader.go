package docmorph

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Previewer is the fixed-layout read collaborator: given document bytes it
// returns best-effort HTML plus non-fatal warnings. The engine never blocks
// past the caller's deadline on a previewer; a timeout degrades into an
// empty result with a PartialExtraction warning rather than a failure.
type Previewer interface {
	Preview(ctx context.Context, data []byte) (string, []Warning, error)
}

// pdfToHTML is the direct transform behind pdf -> HTML.
func (e *Engine) pdfToHTML(ctx context.Context, data []byte, _ *ConvertOptions) ([]byte, []Warning, error) {
	type preview struct {
		html     string
		warnings []Warning
		err      error
	}
	done := make(chan preview, 1)
	go func() {
		src, warnings, err := e.previewer.Preview(ctx, data)
		done <- preview{html: src, warnings: warnings, err: err}
	}()

	var p preview
	select {
	case <-ctx.Done():
		p = preview{warnings: []Warning{PartialExtraction("preview timed out: " + ctx.Err().Error())}}
	case p = <-done:
	}

	if p.err != nil {
		// Read delegation is best effort by contract.
		p.warnings = append(p.warnings, PartialExtraction(fmt.Sprintf("preview failed: %v", p.err)))
		p.html = ""
	}
	if p.html == "" {
		p.html = "<html><body>\n</body></html>"
	}
	return []byte(p.html), p.warnings, nil
}

// textPreviewer is the default preview collaborator: plain text extraction,
// one paragraph block per page.
type textPreviewer struct{}

func (textPreviewer) Preview(_ context.Context, data []byte) (out string, warnings []Warning, err error) {
	// The extraction library panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract text: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, fmt.Errorf("open document: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("<html><body>\n")
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text := extractPageText(page)
		if text == "" {
			warnings = append(warnings, PartialExtraction(fmt.Sprintf("page %d has no extractable text", i)))
			continue
		}
		sb.WriteString("<p>" + escapeText(text) + "</p>\n")
	}
	sb.WriteString("</body></html>")
	return sb.String(), warnings, nil
}

// extractPageText pulls row-ordered text from one page.
func extractPageText(page pdf.Page) string {
	rows, err := page.GetTextByRow()
	if err != nil || len(rows) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, row := range rows {
		var line strings.Builder
		for _, word := range row.Content {
			if word.S == "" {
				continue
			}
			if line.Len() > 0 && !strings.HasSuffix(line.String(), " ") {
				line.WriteByte(' ')
			}
			line.WriteString(word.S)
		}
		if text := strings.TrimSpace(line.String()); text != "" {
			sb.WriteString(text)
			sb.WriteByte('\n')
		}
	}
	return strings.TrimSpace(sb.String())
}
