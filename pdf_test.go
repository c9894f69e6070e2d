package docmorph

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestPDFSignatureAndTrailer(t *testing.T) {
	e := New()

	result, err := e.Convert(context.Background(), []byte("<html><head><title>Memo</title></head><body><p>Body line.</p></body></html>"), FormatHTML, FormatPDF, nil)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}

	out := result.Output
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Errorf("output does not start with the PDF signature: %q", truncate(string(out), 20))
	}
	if !bytes.HasSuffix(out, []byte("%%EOF")) {
		t.Errorf("output does not end with the EOF trailer: %q", string(out[len(out)-20:]))
	}
	for _, s := range []string{"xref", "trailer", "startxref"} {
		if !bytes.Contains(out, []byte(s)) {
			t.Errorf("output missing %q section", s)
		}
	}

	if _, ok := findWarning(result.Warnings, WarnDegradedRendering); !ok {
		t.Errorf("minimal backend output must carry DegradedRendering, got: %v", result.Warnings)
	}
}

func TestPDFMultiplePages(t *testing.T) {
	e := New()

	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 100; i++ {
		sb.WriteString("<p>A short paragraph of body text.</p>")
	}
	sb.WriteString("</body></html>")

	result, err := e.Convert(context.Background(), []byte(sb.String()), FormatHTML, FormatPDF, nil)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if !bytes.Contains(result.Output, []byte("/Count 3")) {
		t.Errorf("expected a 3-page document")
	}
}

type staticRenderer struct {
	out []byte
	err error
}

func (r staticRenderer) RenderPDF(context.Context, string) ([]byte, error) {
	return r.out, r.err
}

func TestConfiguredRenderer(t *testing.T) {
	want := []byte("%PDF-1.7\nrendered elsewhere\n%%EOF")
	e := New(WithRenderer(staticRenderer{out: want}))

	result, err := e.Convert(context.Background(), []byte("<p>x</p>"), FormatHTML, FormatPDF, nil)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if !bytes.Equal(result.Output, want) {
		t.Errorf("configured renderer output not used")
	}
	if _, ok := findWarning(result.Warnings, WarnDegradedRendering); ok {
		t.Errorf("full renderer output must not carry DegradedRendering")
	}
}

func TestRendererFailureFallsBack(t *testing.T) {
	e := New(WithRenderer(staticRenderer{err: errors.New("backend down")}))

	result, err := e.Convert(context.Background(), []byte("<p>x</p>"), FormatHTML, FormatPDF, nil)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if !bytes.HasPrefix(result.Output, []byte("%PDF-")) {
		t.Errorf("fallback did not produce a document")
	}
	if _, ok := findWarning(result.Warnings, WarnDegradedRendering); !ok {
		t.Errorf("fallback output must carry DegradedRendering, got: %v", result.Warnings)
	}
}

type blockingPreviewer struct{}

func (blockingPreviewer) Preview(ctx context.Context, _ []byte) (string, []Warning, error) {
	<-ctx.Done()
	return "", nil, ctx.Err()
}

func TestPreviewTimeout(t *testing.T) {
	e := New(WithPreviewer(blockingPreviewer{}))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result, err := e.Convert(ctx, []byte("%PDF-1.4 stub"), FormatPDF, FormatHTML, nil)
	if err != nil {
		t.Fatalf("a timed-out preview must degrade, not fail: %v", err)
	}
	if _, ok := findWarning(result.Warnings, WarnPartialExtraction); !ok {
		t.Errorf("expected PartialExtraction warning, got: %v", result.Warnings)
	}
	if !strings.Contains(string(result.Output), "<body>") {
		t.Errorf("degraded output is not a document:\n%s", result.Output)
	}
}

type failingPreviewer struct{}

func (failingPreviewer) Preview(context.Context, []byte) (string, []Warning, error) {
	return "", nil, errors.New("no text layer")
}

func TestPreviewFailureIsNonFatal(t *testing.T) {
	e := New(WithPreviewer(failingPreviewer{}))

	result, err := e.Convert(context.Background(), []byte("%PDF-1.4 stub"), FormatPDF, FormatHTML, nil)
	if err != nil {
		t.Fatalf("preview failure must degrade, not fail: %v", err)
	}
	w, ok := findWarning(result.Warnings, WarnPartialExtraction)
	if !ok {
		t.Fatalf("expected PartialExtraction warning, got: %v", result.Warnings)
	}
	if !strings.Contains(w.Message, "no text layer") {
		t.Errorf("warning does not carry the cause: %q", w.Message)
	}
}

func TestDefaultPreviewerRejectsGarbage(t *testing.T) {
	e := New()

	result, err := e.Convert(context.Background(), []byte("definitely not a pdf"), FormatPDF, FormatHTML, nil)
	if err != nil {
		t.Fatalf("unreadable input must degrade, not fail: %v", err)
	}
	if _, ok := findWarning(result.Warnings, WarnPartialExtraction); !ok {
		t.Errorf("expected PartialExtraction warning, got: %v", result.Warnings)
	}
}

func TestSanitizePDFText(t *testing.T) {
	if got := sanitizePDFText("naïve ★ text"); strings.ContainsRune(got, '★') {
		t.Errorf("rune outside the font range survived: %q", got)
	}
	if got := sanitizePDFText("plain ascii"); got != "plain ascii" {
		t.Errorf("ascii modified: %q", got)
	}
}

func TestWrapLine(t *testing.T) {
	long := strings.Repeat("word ", 40)
	lines := wrapLine(strings.TrimSpace(long), 90)
	if len(lines) < 2 {
		t.Fatalf("long line not wrapped: %d lines", len(lines))
	}
	for _, l := range lines {
		if len(l) > 90 {
			t.Errorf("wrapped line exceeds width: %d chars", len(l))
		}
	}
}
