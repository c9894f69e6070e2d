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
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Format identifies one of the five document representations the engine
// converts between. Text payloads (FormatText, FormatMarkdown, FormatHTML)
// are UTF-8 byte slices; binary payloads (FormatDocx, FormatPDF) are opaque.
type Format int

const (
	// FormatUnknown is the zero value and never a valid conversion endpoint.
	FormatUnknown Format = iota
	// FormatText is unstructured plain text.
	FormatText
	// FormatMarkdown is CommonMark-style lightweight markup.
	FormatMarkdown
	// FormatHTML is hypertext markup, and the hub format for chained conversions.
	FormatHTML
	// FormatDocx is the ZIP-packaged WordprocessingML container.
	FormatDocx
	// FormatPDF is the fixed-layout paginated format.
	FormatPDF
)

// Formats lists every valid Format, in enumeration order.
var Formats = []Format{FormatText, FormatMarkdown, FormatHTML, FormatDocx, FormatPDF}

func (f Format) String() string {
	switch f {
	case FormatText:
		return "txt"
	case FormatMarkdown:
		return "md"
	case FormatHTML:
		return "html"
	case FormatDocx:
		return "docx"
	case FormatPDF:
		return "pdf"
	}
	return "unknown"
}

// IsText reports whether payloads of this format are UTF-8 text.
func (f Format) IsText() bool {
	switch f {
	case FormatText, FormatMarkdown, FormatHTML:
		return true
	}
	return false
}

// MIMEType returns the canonical MIME type for the format.
func (f Format) MIMEType() string {
	switch f {
	case FormatText:
		return "text/plain"
	case FormatMarkdown:
		return "text/markdown"
	case FormatHTML:
		return "text/html"
	case FormatDocx:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// ParseFormat maps a format name or file extension to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "txt", "text":
		return FormatText, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "docx":
		return FormatDocx, nil
	case "pdf":
		return FormatPDF, nil
	}
	return FormatUnknown, fmt.Errorf("unknown format %q", s)
}

// DetectFormat guesses the format of a payload from its content.
// Binary formats are detected reliably from magic bytes; the three text
// formats are separated by cheap structural sniffing.
func DetectFormat(data []byte) Format {
	mtype := mimetype.Detect(data)
	switch {
	case mtype.Is("application/pdf"):
		return FormatPDF
	case mtype.Is("application/vnd.openxmlformats-officedocument.wordprocessingml.document"):
		return FormatDocx
	case mtype.Is("application/zip"):
		// A docx missing its content-type marks still opens as plain ZIP.
		if bytes.Contains(data, []byte("word/document.xml")) {
			return FormatDocx
		}
	case mtype.Is("text/html"):
		return FormatHTML
	}
	if looksLikeMarkdown(data) {
		return FormatMarkdown
	}
	return FormatText
}

// looksLikeMarkdown checks for common block-level markup at line starts.
func looksLikeMarkdown(data []byte) bool {
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "#"),
			strings.HasPrefix(trimmed, "```"),
			strings.HasPrefix(trimmed, "- "),
			strings.HasPrefix(trimmed, "* "),
			strings.HasPrefix(trimmed, "> "):
			return true
		}
	}
	return false
}
