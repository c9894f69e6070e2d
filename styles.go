package docmorph

import (
	"sort"
	"strings"
)

// styleMarker tags the injected style block so repeated injection is a
// no-op instead of duplicating the stylesheet.
const styleMarker = "data-docmorph-styles"

// styleRule pairs a CSS selector with its declarations.
type styleRule struct {
	selector string
	rules    string
}

// stylesheet is an ordered selector -> declarations table. Order is stable
// so injected output is deterministic.
type stylesheet []styleRule

// defaultStyles is the fixed rule table injected into hypertext output.
func defaultStyles() stylesheet {
	return stylesheet{
		{"body", "font-family: -apple-system, 'Segoe UI', Helvetica, Arial, sans-serif; line-height: 1.6; max-width: 50rem; margin: 0 auto; padding: 2rem; color: #24292e"},
		{"h1, h2, h3, h4, h5, h6", "margin-top: 1.5em; margin-bottom: 0.5em; line-height: 1.25"},
		{"h1", "font-size: 2em; border-bottom: 1px solid #eaecef; padding-bottom: 0.3em"},
		{"h2", "font-size: 1.5em; border-bottom: 1px solid #eaecef; padding-bottom: 0.3em"},
		{"p", "margin: 0 0 1em 0"},
		{"a", "color: #0366d6; text-decoration: none"},
		{"code", "font-family: SFMono-Regular, Consolas, Menlo, monospace; font-size: 0.85em; background-color: #f6f8fa; padding: 0.2em 0.4em; border-radius: 3px"},
		{"pre", "background-color: #f6f8fa; padding: 1em; border-radius: 6px; overflow-x: auto"},
		{"pre code", "background-color: transparent; padding: 0"},
		{"table", "border-collapse: collapse; margin: 1em 0"},
		{"th, td", "border: 1px solid #dfe2e5; padding: 0.4em 0.8em"},
		{"th", "background-color: #f6f8fa; font-weight: 600"},
		{"blockquote", "margin: 0 0 1em 0; padding: 0 1em; color: #6a737d; border-left: 0.25em solid #dfe2e5"},
		{"img", "max-width: 100%"},
	}
}

// merge returns a copy with per-selector overrides applied. Overridden
// selectors keep their position; new selectors are appended in sorted order.
func (s stylesheet) merge(overrides map[string]string) stylesheet {
	if len(overrides) == 0 {
		return s
	}
	out := make(stylesheet, len(s))
	copy(out, s)

	remaining := make(map[string]string, len(overrides))
	for sel, rules := range overrides {
		remaining[sel] = rules
	}
	for i, rule := range out {
		if rules, ok := remaining[rule.selector]; ok {
			out[i].rules = rules
			delete(remaining, rule.selector)
		}
	}

	extra := make([]string, 0, len(remaining))
	for sel := range remaining {
		extra = append(extra, sel)
	}
	sort.Strings(extra)
	for _, sel := range extra {
		out = append(out, styleRule{selector: sel, rules: remaining[sel]})
	}
	return out
}

// css renders the rule table as a stylesheet body.
func (s stylesheet) css() string {
	var sb strings.Builder
	for _, rule := range s {
		sb.WriteString(rule.selector)
		sb.WriteString(" { ")
		sb.WriteString(rule.rules)
		sb.WriteString(" }\n")
	}
	return sb.String()
}

// inject inserts the stylesheet into HTML content. Placement: inside an
// existing head; inside a synthesized head when only a root element exists;
// otherwise a minimal document shell is built around the fragment.
// Injection is idempotent: content already carrying the marker is returned
// unchanged.
func (s stylesheet) inject(htmlContent string) string {
	if strings.Contains(htmlContent, styleMarker) {
		return htmlContent
	}

	block := "<style " + styleMarker + `="1">` + "\n" + sanitizeCSS(s.css()) + "</style>"
	lower := strings.ToLower(htmlContent)

	if idx := strings.Index(lower, "</head>"); idx != -1 {
		return htmlContent[:idx] + block + htmlContent[idx:]
	}

	if idx := strings.Index(lower, "<head"); idx != -1 {
		if close := strings.Index(htmlContent[idx:], ">"); close != -1 {
			pos := idx + close + 1
			return htmlContent[:pos] + block + htmlContent[pos:]
		}
	}

	if idx := strings.Index(lower, "<html"); idx != -1 {
		if close := strings.Index(htmlContent[idx:], ">"); close != -1 {
			pos := idx + close + 1
			return htmlContent[:pos] + "<head>" + block + "</head>" + htmlContent[pos:]
		}
	}

	return "<!DOCTYPE html>\n<html>\n<head>" + block + "</head>\n<body>\n" + htmlContent + "\n</body>\n</html>"
}

// sanitizeCSS escapes sequences that could close the style block early.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// InjectStyles merges per-call overrides over the engine's stylesheet and
// injects the result into the given HTML.
func (e *Engine) InjectStyles(htmlContent string, overrides map[string]string) string {
	return e.styles.merge(overrides).inject(htmlContent)
}
