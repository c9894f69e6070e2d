// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package docmorph

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"golang.org/x/net/html"
)

// newMarkupTranscoder builds the HTML -> markdown converter. Tables are
// passed through as opaque HTML blocks rather than decomposed into pipe
// syntax: markdown table syntax cannot express spans or nested blocks, and
// downstream HTML rendering restores them losslessly.
func newMarkupTranscoder() *converter.Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(
				commonmark.WithHeadingStyle("atx"),
			),
		),
	)
	conv.Register.RendererFor("table", converter.TagTypeBlock, renderTableVerbatim, converter.PriorityStandard)
	return conv
}

var markupTranscoder = newMarkupTranscoder()

// renderTableVerbatim emits the table element's HTML unchanged, bracketed
// by blank lines.
func renderTableVerbatim(_ converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return converter.RenderTryNext
	}
	w.WriteString("\n\n")
	w.WriteString(buf.String())
	w.WriteString("\n\n")
	return converter.RenderSuccess
}

// htmlToMarkdown is the direct transform behind HTML -> markdown. Text
// content and heading/list/code nesting survive exactly; emphasis marker
// style and attribute-level styling are not guaranteed to.
func (e *Engine) htmlToMarkdown(_ context.Context, data []byte, _ *ConvertOptions) ([]byte, []Warning, error) {
	src := removeScriptAndStyle(string(data))

	md, err := markupTranscoder.ConvertString(src)
	if err != nil {
		return nil, nil, &MarkupError{Cause: err}
	}

	if !e.keepDataURIs {
		md = truncateDataURIs(md)
	}

	return []byte(normalizeMarkdown(md)), nil, nil
}

var (
	reScript  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	reStyleEl = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style>`)
	reDataURI = regexp.MustCompile(`(data:[a-zA-Z0-9/+.-]+;base64,)[A-Za-z0-9+/=]{64,}`)
)

// removeScriptAndStyle strips <script> and <style> elements and their content.
func removeScriptAndStyle(s string) string {
	s = reScript.ReplaceAllString(s, "")
	return reStyleEl.ReplaceAllString(s, "")
}

// truncateDataURIs shortens large base64 data URIs to data:mime/type;base64...
func truncateDataURIs(md string) string {
	return reDataURI.ReplaceAllString(md, "${1}...")
}

// htmlTitle extracts the <title> text from an HTML document, falling back
// to the first heading.
func htmlTitle(src string) string {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return ""
	}

	var title, heading string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" && n.FirstChild != nil {
					title = n.FirstChild.Data
				}
			case "h1", "h2", "h3":
				if heading == "" {
					heading = nodeText(n, false)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return strings.TrimSpace(heading)
}
