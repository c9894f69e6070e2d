package docmorph

import (
	"context"
	"regexp"
	"strings"
)

// Precompiled patterns for structural promotion.
var (
	reHeadingLine  = regexp.MustCompile(`^#{1,6}\s`)
	reUnorderedLi  = regexp.MustCompile(`^\s{0,3}[-*+]\s`)
	reOrderedLi    = regexp.MustCompile(`^\s{0,3}[0-9]+\.\s`)
	reIndentedCode = regexp.MustCompile(`^(    |\t)`)
	reFence        = regexp.MustCompile("^(```|~~~)")
)

// textToMarkdown is the direct transform behind text -> markdown. It decodes
// the incoming bytes to UTF-8 first, then promotes structure.
func (e *Engine) textToMarkdown(_ context.Context, data []byte, _ *ConvertOptions) ([]byte, []Warning, error) {
	text := decodeText(data, "")
	return []byte(PromoteStructure(text)), nil, nil
}

// PromoteStructure lifts unstructured plain text into markdown shape.
// It is a pure function applying line-by-line heuristics:
//
//   - an isolated line (blank or boundary on both sides) of at most 80
//     characters becomes a level-2 heading
//   - existing list markers pass through unchanged and mark list context
//     until the next blank line
//   - a run of lines indented by four spaces or a tab, preceded by a blank
//     line, is wrapped in a fenced code block
//   - runs of three or more blank lines collapse to a single blank line
//
// Boundary lines count as blank, so a single-line input is always
// heading-eligible. That is deliberate and pinned by a test.
func PromoteStructure(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := collapseBlankRuns(strings.Split(text, "\n"))

	var out []string
	inList := false
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if isBlank(line) {
			inList = false
			out = append(out, "")
			continue
		}

		trimmed := strings.TrimRight(line, " \t")

		if reUnorderedLi.MatchString(line) || reOrderedLi.MatchString(line) {
			inList = true
			out = append(out, trimmed)
			continue
		}
		if inList {
			// List continuation lines pass through until a blank line.
			out = append(out, trimmed)
			continue
		}

		if reIndentedCode.MatchString(line) && blankAt(lines, i-1) {
			var code []string
			for i < len(lines) && !isBlank(lines[i]) {
				code = append(code, dedentOnce(lines[i]))
				i++
			}
			i-- // the loop increment consumes the terminating blank line
			out = append(out, "```")
			out = append(out, code...)
			out = append(out, "```")
			continue
		}

		if blankAt(lines, i-1) && blankAt(lines, i+1) &&
			len([]rune(trimmed)) <= 80 && !hasBlockMarkup(trimmed) {
			out = append(out, "## "+trimmed)
			continue
		}

		out = append(out, trimmed)
	}

	return strings.TrimRight(strings.Join(out, "\n"), "\n") + "\n"
}

// collapseBlankRuns replaces runs of three or more blank lines with one.
func collapseBlankRuns(lines []string) []string {
	var out []string
	run := 0
	for _, line := range lines {
		if isBlank(line) {
			run++
			continue
		}
		switch {
		case run >= 3:
			out = append(out, "")
		case run > 0:
			for j := 0; j < run; j++ {
				out = append(out, "")
			}
		}
		run = 0
		out = append(out, line)
	}
	if run >= 3 {
		out = append(out, "")
	} else {
		for j := 0; j < run; j++ {
			out = append(out, "")
		}
	}
	return out
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// blankAt treats out-of-range positions as blank, which makes boundary
// lines heading-eligible.
func blankAt(lines []string, i int) bool {
	if i < 0 || i >= len(lines) {
		return true
	}
	return isBlank(lines[i])
}

// hasBlockMarkup reports whether a line already carries block-level markup
// and must not be promoted to a heading.
func hasBlockMarkup(line string) bool {
	return reHeadingLine.MatchString(line) ||
		reFence.MatchString(line) ||
		strings.HasPrefix(line, ">")
}

// dedentOnce strips one level of code indentation (four spaces or one tab).
func dedentOnce(line string) string {
	if strings.HasPrefix(line, "    ") {
		return line[4:]
	}
	if strings.HasPrefix(line, "\t") {
		return line[1:]
	}
	return line
}
