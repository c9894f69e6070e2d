package docmorph

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nicholasgasior/docmorph-go/internal/ooxml"
)

const testContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Default Extension="png" ContentType="image/png"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>
`

const testRootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>
`

const docxNamespaces = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture"`

// buildTestDocx assembles a minimal container from ordered name/content pairs.
func buildTestDocx(t *testing.T, parts []ooxml.Part) []byte {
	t.Helper()
	data, err := ooxml.Build(parts)
	if err != nil {
		t.Fatalf("building test container: %v", err)
	}
	return data
}

func findWarning(warnings []Warning, code WarningCode) (Warning, bool) {
	for _, w := range warnings {
		if w.Code == code {
			return w, true
		}
	}
	return Warning{}, false
}

func TestContainerRoundTrip(t *testing.T) {
	e := New()
	ctx := context.Background()
	src := []byte("<html><body><h1>Q4 Report</h1><p>Revenue grew nine percent.</p></body></html>")

	written, err := e.Convert(ctx, src, FormatHTML, FormatDocx, &ConvertOptions{
		Metadata: map[string]string{"title": "Q4 Report", "author": "A. Smith"},
	})
	if err != nil {
		t.Fatalf("html -> docx error: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(written.Output), int64(len(written.Output)))
	if err != nil {
		t.Fatalf("output is not a readable archive: %v", err)
	}
	doc, err := ooxml.ReadPart(zr, "word/document.xml")
	if err != nil {
		t.Fatalf("output archive has no document part: %v", err)
	}
	if bytes.Contains(doc, []byte("{{")) {
		t.Errorf("unbound placeholders remain:\n%s", doc)
	}

	back, err := e.Convert(ctx, written.Output, FormatDocx, FormatText, nil)
	if err != nil {
		t.Fatalf("docx -> text error: %v", err)
	}
	text := string(back.Output)
	for _, s := range []string{"Q4 Report", "A. Smith", "Revenue grew nine percent."} {
		if !strings.Contains(text, s) {
			t.Errorf("expected extracted text to contain %q\nGot:\n%s", s, text)
		}
	}
}

func TestDefaultBlueprintNeedsNoMetadata(t *testing.T) {
	e := New()

	result, err := e.Convert(context.Background(), []byte("<p>plain body</p>"), FormatHTML, FormatDocx, nil)
	if err != nil {
		t.Fatalf("html -> docx error: %v", err)
	}
	if DetectFormat(result.Output) != FormatDocx {
		t.Errorf("output not detected as a container")
	}
}

type mapBlueprintStore map[string][]byte

func (s mapBlueprintStore) Blueprint(_ context.Context, ref string) ([]byte, error) {
	if b, ok := s[ref]; ok {
		return b, nil
	}
	return nil, &TemplateNotFoundError{Ref: ref}
}

func TestCustomBlueprintBinding(t *testing.T) {
	blueprint := buildTestDocx(t, []ooxml.Part{
		{Name: "[Content_Types].xml", Data: []byte(testContentTypes)},
		{Name: "_rels/.rels", Data: []byte(testRootRels)},
		{Name: "word/document.xml", Data: []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document ` + docxNamespaces + `>
<w:body>
<w:p><w:r><w:t>Project: {{project}}</w:t></w:r></w:p>
{{content}}
</w:body>
</w:document>
`)},
	})
	e := New(WithBlueprintStore(mapBlueprintStore{"custom": blueprint}))
	ctx := context.Background()

	t.Run("bound placeholder", func(t *testing.T) {
		result, err := e.Convert(ctx, []byte("<p>body</p>"), FormatHTML, FormatDocx, &ConvertOptions{
			TemplateRef: "custom",
			Metadata:    map[string]string{"project": "Apollo"},
		})
		if err != nil {
			t.Fatalf("Convert error: %v", err)
		}
		zr, err := zip.NewReader(bytes.NewReader(result.Output), int64(len(result.Output)))
		if err != nil {
			t.Fatal(err)
		}
		doc, err := ooxml.ReadPart(zr, "word/document.xml")
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Contains(doc, []byte("Project: Apollo")) {
			t.Errorf("metadata not bound:\n%s", doc)
		}
	})

	t.Run("unbound placeholder fails", func(t *testing.T) {
		_, err := e.Convert(ctx, []byte("<p>body</p>"), FormatHTML, FormatDocx, &ConvertOptions{TemplateRef: "custom"})
		if !IsBindingError(err) {
			t.Fatalf("got %v, want BindingError", err)
		}
		var bindErr *BindingError
		if errors.As(err, &bindErr) && bindErr.Placeholder != "project" {
			t.Errorf("Placeholder = %q, want %q", bindErr.Placeholder, "project")
		}
	})

	t.Run("unknown reference fails", func(t *testing.T) {
		_, err := e.Convert(ctx, []byte("<p>body</p>"), FormatHTML, FormatDocx, &ConvertOptions{TemplateRef: "absent"})
		var notFound *TemplateNotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("got %v, want TemplateNotFoundError", err)
		}
		if notFound.Ref != "absent" {
			t.Errorf("Ref = %q, want %q", notFound.Ref, "absent")
		}
	})
}

func TestDirBlueprintStore(t *testing.T) {
	dir := t.TempDir()
	blueprint, err := defaultBlueprint()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "report.docx"), blueprint, 0o644); err != nil {
		t.Fatal(err)
	}

	e := New(WithBlueprintStore(&DirBlueprintStore{Dir: dir}))
	ctx := context.Background()

	if _, err := e.Convert(ctx, []byte("<p>x</p>"), FormatHTML, FormatDocx, &ConvertOptions{TemplateRef: "report"}); err != nil {
		t.Errorf("stored blueprint not resolved: %v", err)
	}

	_, err = e.Convert(ctx, []byte("<p>x</p>"), FormatHTML, FormatDocx, &ConvertOptions{TemplateRef: "missing"})
	var notFound *TemplateNotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("got %v, want TemplateNotFoundError", err)
	}
}

func TestInvalidContainer(t *testing.T) {
	e := New()
	ctx := context.Background()

	if _, err := e.Convert(ctx, []byte("this is not an archive"), FormatDocx, FormatHTML, nil); !IsInvalidContainer(err) {
		t.Errorf("garbage bytes: got %v, want ContainerError", err)
	}

	empty := buildTestDocx(t, []ooxml.Part{
		{Name: "[Content_Types].xml", Data: []byte(testContentTypes)},
	})
	if _, err := e.Convert(ctx, empty, FormatDocx, FormatHTML, nil); !IsInvalidContainer(err) {
		t.Errorf("archive without document part: got %v, want ContainerError", err)
	}
}

func TestDocxStructureToHTML(t *testing.T) {
	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document ` + docxNamespaces + `>
<w:body>
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Annual Report</w:t></w:r></w:p>
<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>Strong opening.</w:t></w:r></w:p>
<w:p><w:pPr><w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr></w:pPr><w:r><w:t>First item</w:t></w:r></w:p>
<w:p><w:pPr><w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr></w:pPr><w:r><w:t>Second item</w:t></w:r></w:p>
<w:tbl>
<w:tr><w:tc><w:p><w:r><w:t>Name</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Value</w:t></w:r></w:p></w:tc></w:tr>
<w:tr><w:tc><w:p><w:r><w:t>Widgets</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>42</w:t></w:r></w:p></w:tc></w:tr>
</w:tbl>
<w:p><w:r><w:t>See </w:t></w:r><w:hyperlink r:id="rId5"><w:r><w:t>the docs</w:t></w:r></w:hyperlink></w:p>
</w:body>
</w:document>
`
	rels := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId5" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="https://example.com/docs" TargetMode="External"/>
</Relationships>
`
	fixture := buildTestDocx(t, []ooxml.Part{
		{Name: "[Content_Types].xml", Data: []byte(testContentTypes)},
		{Name: "_rels/.rels", Data: []byte(testRootRels)},
		{Name: "word/_rels/document.xml.rels", Data: []byte(rels)},
		{Name: "word/document.xml", Data: []byte(document)},
	})

	e := New()
	result, err := e.Convert(context.Background(), fixture, FormatDocx, FormatHTML, nil)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}

	out := string(result.Output)
	mustInclude := []string{
		"<h1>Annual Report</h1>",
		"<b>Strong opening.</b>",
		"<ul>",
		"<li>First item</li>",
		"<li>Second item</li>",
		"<th>Name</th>",
		"<td>Widgets</td>",
		`<a href="https://example.com/docs">the docs</a>`,
	}
	for _, s := range mustInclude {
		if !strings.Contains(out, s) {
			t.Errorf("expected output to contain %q\nGot:\n%s", s, truncate(out, 2000))
		}
	}
}

// buildDocxWithImages assembles a container whose document embeds three
// pictures via relationship references.
func buildDocxWithImages(t *testing.T) []byte {
	t.Helper()

	img := func(rid string) string {
		return `<w:p><w:r><w:drawing><wp:inline><wp:docPr id="1" name="pic" descr="first figure"/>` +
			`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">` +
			`<pic:pic><pic:blipFill><a:blip r:embed="` + rid + `"/></pic:blipFill></pic:pic>` +
			`</a:graphicData></a:graphic></wp:inline></w:drawing></w:r></w:p>`
	}
	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document ` + docxNamespaces + `>
<w:body>
<w:p><w:r><w:t>Figures below.</w:t></w:r></w:p>
` + img("rId10") + "\n" + img("rId11") + "\n" + img("rId12") + `
</w:body>
</w:document>
`
	rels := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId10" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/image1.png"/>
<Relationship Id="rId11" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/image2.png"/>
<Relationship Id="rId12" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/image3.png"/>
</Relationships>
`
	png := []byte("\x89PNG\r\n\x1a\nnot a real image")

	return buildTestDocx(t, []ooxml.Part{
		{Name: "[Content_Types].xml", Data: []byte(testContentTypes)},
		{Name: "_rels/.rels", Data: []byte(testRootRels)},
		{Name: "word/_rels/document.xml.rels", Data: []byte(rels)},
		{Name: "word/document.xml", Data: []byte(document)},
		{Name: "word/media/image1.png", Data: png},
		{Name: "word/media/image2.png", Data: png},
		{Name: "word/media/image3.png", Data: png},
	})
}

func TestImagesDropped(t *testing.T) {
	e := New()
	fixture := buildDocxWithImages(t)

	result, err := e.Convert(context.Background(), fixture, FormatDocx, FormatHTML, nil)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	w, ok := findWarning(result.Warnings, WarnImagesDropped)
	if !ok {
		t.Fatalf("no ImagesDropped warning, warnings: %v", result.Warnings)
	}
	if w.Count != 3 {
		t.Errorf("dropped count = %d, want 3", w.Count)
	}
	if strings.Contains(string(result.Output), "<img") {
		t.Errorf("dropped images still rendered:\n%s", result.Output)
	}
}

func TestImagesPreserved(t *testing.T) {
	e := New()
	fixture := buildDocxWithImages(t)

	result, err := e.Convert(context.Background(), fixture, FormatDocx, FormatHTML, &ConvertOptions{PreserveImages: true})
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	out := string(result.Output)
	if n := strings.Count(out, "data:image/png;base64,"); n != 3 {
		t.Errorf("inlined %d images, want 3:\n%s", n, truncate(out, 2000))
	}
	if !strings.Contains(out, `alt="first figure"`) {
		t.Errorf("alt text not carried from docPr:\n%s", truncate(out, 2000))
	}
	if _, ok := findWarning(result.Warnings, WarnImagesDropped); ok {
		t.Errorf("unexpected ImagesDropped warning: %v", result.Warnings)
	}
}

func TestImageWarningSurvivesChaining(t *testing.T) {
	e := New()
	fixture := buildDocxWithImages(t)

	// docx -> markdown has no direct transform and routes through HTML; the
	// read hop's warning must surface on the final result.
	result, err := e.Convert(context.Background(), fixture, FormatDocx, FormatMarkdown, nil)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	w, ok := findWarning(result.Warnings, WarnImagesDropped)
	if !ok {
		t.Fatalf("warning lost across hops, warnings: %v", result.Warnings)
	}
	if w.Count != 3 {
		t.Errorf("dropped count = %d, want 3", w.Count)
	}
	if !strings.Contains(string(result.Output), "Figures below.") {
		t.Errorf("text content lost:\n%s", result.Output)
	}
}
