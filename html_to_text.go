package docmorph

import (
	"context"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// htmlToText is the direct transform behind HTML -> plain text. With
// PreserveFormatting, block boundaries become blank lines, line-break
// elements become literal newlines, and preformatted content is kept
// verbatim; otherwise each block collapses to a single line.
func (e *Engine) htmlToText(_ context.Context, data []byte, opts *ConvertOptions) ([]byte, []Warning, error) {
	doc, err := html.Parse(strings.NewReader(string(data)))
	if err != nil {
		return nil, nil, &MarkupError{Cause: err}
	}

	var blocks []string
	collectBlocks(doc, opts.PreserveFormatting, &blocks)

	sep := "\n"
	if opts.PreserveFormatting {
		sep = "\n\n"
	}
	out := strings.TrimSpace(strings.Join(blocks, sep))
	if out != "" {
		out += "\n"
	}
	return []byte(out), nil, nil
}

// collectBlocks walks the DOM accumulating one string per block element.
func collectBlocks(n *html.Node, preserve bool, blocks *[]string) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Head:
			return
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
			atom.P, atom.Li, atom.Blockquote, atom.Tr:
			if text := nodeText(n, preserve); text != "" {
				*blocks = append(*blocks, text)
			}
			return
		case atom.Pre:
			text := nodeText(n, true)
			if !preserve {
				text = strings.Join(strings.Fields(text), " ")
			}
			if text != "" {
				*blocks = append(*blocks, text)
			}
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectBlocks(c, preserve, blocks)
	}
}

// nodeText extracts the text content of a subtree. When preserve is set,
// <br> elements become newlines and whitespace inside text nodes survives;
// otherwise runs of whitespace collapse to single spaces.
func nodeText(n *html.Node, preserve bool) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if preserve {
				sb.WriteString(n.Data)
				return
			}
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(strings.Join(strings.Fields(text), " "))
			}
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			case atom.Br:
				// In collapsed mode the text-node separator supplies the
				// space, so only preserve mode emits anything here.
				if preserve {
					sb.WriteByte('\n')
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
