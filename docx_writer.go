package docmorph

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nicholasgasior/docmorph-go/internal/ooxml"
)

// DefaultTemplateRef selects the built-in container blueprint.
const DefaultTemplateRef = "default"

// BlueprintStore resolves a template reference to the bytes of a container
// blueprint. The engine only reads blueprints; it never creates them.
type BlueprintStore interface {
	Blueprint(ctx context.Context, ref string) ([]byte, error)
}

// DirBlueprintStore serves blueprints from a directory, resolving a
// reference to <dir>/<ref>.docx.
type DirBlueprintStore struct {
	Dir string
}

func (s *DirBlueprintStore) Blueprint(_ context.Context, ref string) ([]byte, error) {
	name := ref
	if filepath.Ext(name) == "" {
		name += ".docx"
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, filepath.Base(name)))
	if err != nil {
		return nil, &TemplateNotFoundError{Ref: ref}
	}
	return data, nil
}

// htmlToDocx is the direct transform behind HTML -> docx: it binds the
// supplied metadata and the converted body into named placeholders inside a
// copy of the blueprint's XML parts, then re-serializes the archive.
func (e *Engine) htmlToDocx(ctx context.Context, data []byte, opts *ConvertOptions) ([]byte, []Warning, error) {
	blueprint, err := e.loadBlueprint(ctx, opts.TemplateRef)
	if err != nil {
		return nil, nil, err
	}

	zr, err := zip.NewReader(bytes.NewReader(blueprint), int64(len(blueprint)))
	if err != nil {
		return nil, nil, &ContainerError{Cause: err}
	}

	src := string(data)
	values := map[string]string{
		"title":  htmlTitle(src),
		"author": "",
		"date":   time.Now().Format("2006-01-02"),
	}
	if values["title"] == "" {
		values["title"] = "Document"
	}
	for k, v := range opts.Metadata {
		values[strings.ToLower(k)] = v
	}

	body, err := htmlBodyToWordML(src)
	if err != nil {
		return nil, nil, &MarkupError{Cause: err}
	}

	replacements := make(map[string][]byte)
	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, ".xml") && !strings.HasSuffix(f.Name, ".rels") {
			continue
		}
		part, err := ooxml.ReadPart(zr, f.Name)
		if err != nil {
			return nil, nil, &ContainerError{Cause: err}
		}
		bound, changed, err := bindPlaceholders(part, values, body)
		if err != nil {
			return nil, nil, err
		}
		if changed {
			replacements[f.Name] = bound
		}
	}

	out, err := ooxml.Rewrite(zr, replacements)
	if err != nil {
		return nil, nil, &ContainerError{Cause: err}
	}
	return out, nil, nil
}

// loadBlueprint resolves the template reference: explicit ref, then engine
// default, then the built-in blueprint.
func (e *Engine) loadBlueprint(ctx context.Context, ref string) ([]byte, error) {
	if ref == "" {
		ref = e.defaultTemplate
	}
	if ref == "" || ref == DefaultTemplateRef {
		return defaultBlueprint()
	}
	if e.blueprints == nil {
		return nil, &TemplateNotFoundError{Ref: ref}
	}
	data, err := e.blueprints.Blueprint(ctx, ref)
	if err != nil {
		var notFound *TemplateNotFoundError
		if errors.As(err, &notFound) {
			return nil, err
		}
		return nil, &TemplateNotFoundError{Ref: ref}
	}
	return data, nil
}

var rePlaceholder = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.-]+)\s*\}\}`)

// bindPlaceholders substitutes {{name}} tokens in one XML part. The content
// placeholder receives raw WordprocessingML; every other value is escaped.
// A placeholder with no bound value is a fatal BindingError: partial binds
// are never silently accepted.
func bindPlaceholders(part []byte, values map[string]string, body string) ([]byte, bool, error) {
	var bindErr error
	changed := false
	out := rePlaceholder.ReplaceAllFunc(part, func(m []byte) []byte {
		name := string(rePlaceholder.FindSubmatch(m)[1])
		changed = true
		if name == "content" {
			return []byte(body)
		}
		v, ok := values[strings.ToLower(name)]
		if !ok {
			if bindErr == nil {
				bindErr = &BindingError{Placeholder: name}
			}
			return m
		}
		return []byte(escapeText(v))
	})
	if bindErr != nil {
		return nil, false, bindErr
	}
	return out, changed, nil
}

// htmlBodyToWordML converts HTML block structure into WordprocessingML
// paragraphs, runs, and tables for the content placeholder.
func htmlBodyToWordML(src string) (string, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Head, atom.Title:
				return
			case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
				level := int(n.Data[1] - '0')
				writeParagraph(&sb, fmt.Sprintf("Heading%d", level), inlineRuns(n))
				return
			case atom.P, atom.Blockquote:
				writeParagraph(&sb, "", inlineRuns(n))
				return
			case atom.Li:
				runs := inlineRuns(n)
				runs = append([]wordRun{{text: "- "}}, runs...)
				writeParagraph(&sb, "ListParagraph", runs)
				return
			case atom.Pre:
				for _, line := range strings.Split(strings.TrimRight(nodeText(n, true), "\n"), "\n") {
					writeParagraph(&sb, "Code", []wordRun{{text: line}})
				}
				return
			case atom.Table:
				writeTable(&sb, n)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sb.String(), nil
}

// wordRun is one formatted run inside a paragraph.
type wordRun struct {
	text   string
	bold   bool
	italic bool
	strike bool
	brk    bool
}

// inlineRuns flattens a block element's inline content into runs with
// inherited formatting.
func inlineRuns(n *html.Node) []wordRun {
	var runs []wordRun
	var walk func(*html.Node, wordRun)
	walk = func(n *html.Node, state wordRun) {
		switch n.Type {
		case html.TextNode:
			text := strings.Join(strings.Fields(n.Data), " ")
			if text != "" {
				r := state
				r.text = text
				runs = append(runs, r)
			}
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.B, atom.Strong:
				state.bold = true
			case atom.I, atom.Em:
				state.italic = true
			case atom.S, atom.Del, atom.Strike:
				state.strike = true
			case atom.Br:
				runs = append(runs, wordRun{brk: true})
				return
			case atom.Script, atom.Style:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, state)
		}
	}
	walk(n, wordRun{})

	// Re-separate adjacent runs that came from distinct text nodes.
	for i := 1; i < len(runs); i++ {
		if !runs[i].brk && !runs[i-1].brk {
			runs[i].text = " " + runs[i].text
		}
	}
	return runs
}

func writeParagraph(sb *strings.Builder, style string, runs []wordRun) {
	sb.WriteString("<w:p>")
	if style != "" {
		sb.WriteString(`<w:pPr><w:pStyle w:val="` + style + `"/></w:pPr>`)
	}
	for _, r := range runs {
		if r.brk {
			sb.WriteString("<w:r><w:br/></w:r>")
			continue
		}
		sb.WriteString("<w:r>")
		if r.bold || r.italic || r.strike {
			sb.WriteString("<w:rPr>")
			if r.bold {
				sb.WriteString("<w:b/>")
			}
			if r.italic {
				sb.WriteString("<w:i/>")
			}
			if r.strike {
				sb.WriteString("<w:strike/>")
			}
			sb.WriteString("</w:rPr>")
		}
		sb.WriteString(`<w:t xml:space="preserve">` + escapeText(r.text) + "</w:t></w:r>")
	}
	sb.WriteString("</w:p>\n")
}

func writeTable(sb *strings.Builder, table *html.Node) {
	sb.WriteString("<w:tbl><w:tblPr><w:tblBorders/></w:tblPr>\n")
	var walkRows func(*html.Node)
	walkRows = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Tr {
			sb.WriteString("<w:tr>")
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
					sb.WriteString("<w:tc>")
					writeParagraph(sb, "", inlineRuns(c))
					sb.WriteString("</w:tc>")
				}
			}
			sb.WriteString("</w:tr>\n")
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walkRows(c)
		}
	}
	walkRows(table)
	sb.WriteString("</w:tbl>\n")
}

// Built-in default blueprint parts. A blueprint is an ordinary docx archive
// whose XML parts carry {{name}} placeholders.
const blueprintContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
</Types>
`

const blueprintRootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>
`

const blueprintDocumentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
</Relationships>
`

const blueprintStyles = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/><w:rPr><w:b/><w:sz w:val="48"/></w:rPr></w:style>
<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:rPr><w:b/><w:sz w:val="32"/></w:rPr></w:style>
<w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/><w:rPr><w:b/><w:sz w:val="28"/></w:rPr></w:style>
<w:style w:type="paragraph" w:styleId="Heading3"><w:name w:val="heading 3"/><w:rPr><w:b/><w:sz w:val="26"/></w:rPr></w:style>
<w:style w:type="paragraph" w:styleId="ListParagraph"><w:name w:val="List Paragraph"/></w:style>
<w:style w:type="paragraph" w:styleId="Code"><w:name w:val="Code"/><w:rPr><w:rFonts w:ascii="Consolas"/></w:rPr></w:style>
</w:styles>
`

const blueprintDocument = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<w:body>
<w:p><w:pPr><w:pStyle w:val="Title"/></w:pPr><w:r><w:t>{{title}}</w:t></w:r></w:p>
<w:p><w:r><w:t>{{author}}</w:t></w:r></w:p>
<w:p><w:r><w:t>{{date}}</w:t></w:r></w:p>
{{content}}
<w:sectPr><w:pgSz w:w="12240" w:h="15840"/></w:sectPr>
</w:body>
</w:document>
`

// defaultBlueprint assembles the built-in blueprint archive.
func defaultBlueprint() ([]byte, error) {
	return ooxml.Build([]ooxml.Part{
		{Name: "[Content_Types].xml", Data: []byte(blueprintContentTypes)},
		{Name: "_rels/.rels", Data: []byte(blueprintRootRels)},
		{Name: "word/_rels/document.xml.rels", Data: []byte(blueprintDocumentRels)},
		{Name: "word/styles.xml", Data: []byte(blueprintStyles)},
		{Name: "word/document.xml", Data: []byte(blueprintDocument)},
	})
}
