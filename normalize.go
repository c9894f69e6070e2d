package docmorph

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	reTrailingWS = regexp.MustCompile(`[ \t]+\n`)
	reBlankRuns  = regexp.MustCompile(`\n{3,}`)
	reCRLF       = regexp.MustCompile(`\r\n?`)
)

// normalizeMarkdown post-processes markdown output:
//   - line endings become LF
//   - control characters are stripped (keeping \n and \t)
//   - trailing whitespace is removed per line
//   - 3+ consecutive newlines collapse to 2
//   - the result is valid UTF-8, trimmed, ending in a single newline
func normalizeMarkdown(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	s = reCRLF.ReplaceAllString(s, "\n")

	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)

	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	s = reTrailingWS.ReplaceAllString(s, "\n")
	s = reBlankRuns.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s) + "\n"
}
