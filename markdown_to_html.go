package docmorph

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// htmlShell wraps rendered fragment output in a complete HTML5 document.
const htmlShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s
</body>
</html>`

// newMarkdownRenderer builds the goldmark pipeline used for the
// markdown -> HTML hop: GFM extensions plus class-based syntax highlighting
// so the stylesheet stays external.
func newMarkdownRenderer() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithXHTML(),
			// Raw HTML must render: transcoded tables pass through as
			// opaque HTML blocks and chart embedding splices in img tags.
			gmhtml.WithUnsafe(),
		),
	)
}

var markdownRenderer = newMarkdownRenderer()

// markdownToHTML is the direct transform behind markdown -> HTML.
func (e *Engine) markdownToHTML(ctx context.Context, data []byte, opts *ConvertOptions) ([]byte, []Warning, error) {
	md := string(data)

	var warnings []Warning
	if e.charts != nil {
		var err error
		md, err = e.embedCharts(ctx, md)
		if err != nil {
			warnings = append(warnings, PartialExtraction(fmt.Sprintf("chart rendering failed: %v", err)))
		}
	}

	var buf bytes.Buffer
	if err := markdownRenderer.Convert([]byte(md), &buf); err != nil {
		return nil, nil, &MarkupError{Cause: err}
	}

	title := firstMarkdownHeading(md)
	if title == "" {
		title = "Document"
	}
	out := fmt.Sprintf(htmlShell, escapeText(title), buf.String())

	if opts.IncludeStyles {
		out = e.styles.merge(opts.CustomStyles).inject(out)
	}

	return []byte(out), warnings, nil
}

var reChartFence = regexp.MustCompile("(?s)```chart\n(.*?)\n```")

// embedCharts replaces ```chart fenced blocks with images produced by the
// configured chart renderer, inlined as data URIs. The renderer's output is
// treated as opaque image bytes and never inspected.
func (e *Engine) embedCharts(ctx context.Context, md string) (string, error) {
	var renderErr error
	out := reChartFence.ReplaceAllStringFunc(md, func(block string) string {
		spec := reChartFence.FindStringSubmatch(block)[1]
		img, err := e.charts.RenderChart(ctx, []byte(spec))
		if err != nil {
			if renderErr == nil {
				renderErr = err
			}
			return ""
		}
		uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(img)
		return fmt.Sprintf(`<img src="%s" alt="chart"/>`, uri)
	})
	return out, renderErr
}

var reATXHeading = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)

// firstMarkdownHeading returns the text of the first ATX heading, if any.
func firstMarkdownHeading(md string) string {
	m := reATXHeading.FindStringSubmatch(md)
	if len(m) >= 2 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func escapeAttr(s string) string {
	return strings.ReplaceAll(escapeText(s), `"`, "&quot;")
}
