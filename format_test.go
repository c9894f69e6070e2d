package docmorph

import (
	"context"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"txt", FormatText},
		{".txt", FormatText},
		{"text", FormatText},
		{"md", FormatMarkdown},
		{".markdown", FormatMarkdown},
		{"HTML", FormatHTML},
		{".htm", FormatHTML},
		{"docx", FormatDocx},
		{"pdf", FormatPDF},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil {
			t.Errorf("ParseFormat(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseFormat("doc"); err == nil {
		t.Errorf("ParseFormat accepted an unsupported extension")
	}
}

func TestDetectFormat(t *testing.T) {
	e := New()
	docx, err := e.Convert(context.Background(), []byte("<p>probe</p>"), FormatHTML, FormatDocx, nil)
	if err != nil {
		t.Fatalf("building docx probe: %v", err)
	}
	pdfDoc, err := e.Convert(context.Background(), []byte("<p>probe</p>"), FormatHTML, FormatPDF, nil)
	if err != nil {
		t.Fatalf("building pdf probe: %v", err)
	}

	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"pdf", pdfDoc.Output, FormatPDF},
		{"docx", docx.Output, FormatDocx},
		{"html", []byte("<!DOCTYPE html><html><body><p>hi</p></body></html>"), FormatHTML},
		{"markdown", []byte("# Heading\n\nbody text"), FormatMarkdown},
		{"markdown list", []byte("- item one\n- item two"), FormatMarkdown},
		{"plain text", []byte("nothing structured about this line"), FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.data); got != tt.want {
				t.Errorf("DetectFormat = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatStringAndMIME(t *testing.T) {
	if FormatDocx.String() != "docx" {
		t.Errorf("String() = %q", FormatDocx.String())
	}
	if FormatPDF.MIMEType() != "application/pdf" {
		t.Errorf("MIMEType() = %q", FormatPDF.MIMEType())
	}
	if FormatDocx.IsText() || !FormatMarkdown.IsText() {
		t.Errorf("IsText misclassified a format")
	}
}
