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

// Package docmorph converts document content among five representations:
// plain text, markdown, HTML, the DOCX compound container, and PDF.
//
// Conversions between pairs with no registered direct transform are chained
// through HTML, the hub format, and through markdown as a secondary hub for
// text sources. Non-fatal conditions surface as warnings on the result; a
// conversion either fully fails with a typed error or fully succeeds.
package docmorph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// maxHops bounds recursive hub routing. Two chained hops, each of which may
// itself chain once more, covers the whole format matrix.
const maxHops = 3

// Result holds the output of a successful conversion.
type Result struct {
	// Output is the produced payload: UTF-8 text for text formats, opaque
	// bytes for docx and pdf.
	Output []byte
	// OutputPath is set when ConvertOptions.OutputPath requested a write
	// to storage.
	OutputPath string
	// Title is the document title when one could be determined.
	Title string
	// Warnings lists non-fatal conditions, in the order encountered,
	// accumulated across chained hops.
	Warnings []Warning
}

type pair struct {
	from, to Format
}

// TransformFunc performs one direct conversion hop.
type TransformFunc func(ctx context.Context, data []byte, opts *ConvertOptions) ([]byte, []Warning, error)

type transform struct {
	name string
	fn   TransformFunc
}

// Engine is the conversion router. It is safe for concurrent use: all
// shared state is immutable after New returns.
type Engine struct {
	transforms      map[pair]transform
	styles          stylesheet
	blueprints      BlueprintStore
	defaultTemplate string
	renderer        Renderer
	previewer       Previewer
	charts          ChartRenderer
	keepDataURIs    bool
}

// New creates an Engine with the built-in direct transforms registered.
func New(opts ...Option) *Engine {
	e := &Engine{
		transforms: make(map[pair]transform),
		styles:     defaultStyles(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.previewer == nil {
		e.previewer = &textPreviewer{}
	}
	e.registerBuiltins()
	return e
}

// RegisterTransform adds or replaces the direct transform for a format pair.
// Direct transforms always take precedence over hub chaining.
func (e *Engine) RegisterTransform(name string, from, to Format, fn TransformFunc) {
	e.transforms[pair{from, to}] = transform{name: name, fn: fn}
}

func (e *Engine) registerBuiltins() {
	reg := func(name string, from, to Format, fn TransformFunc) {
		if _, ok := e.transforms[pair{from, to}]; !ok {
			e.transforms[pair{from, to}] = transform{name: name, fn: fn}
		}
	}
	reg("normalize-text", FormatText, FormatMarkdown, e.textToMarkdown)
	reg("render-markdown", FormatMarkdown, FormatHTML, e.markdownToHTML)
	reg("transcode-html", FormatHTML, FormatMarkdown, e.htmlToMarkdown)
	reg("flatten-html", FormatHTML, FormatText, e.htmlToText)
	reg("read-container", FormatDocx, FormatHTML, e.docxToHTML)
	reg("extract-container-text", FormatDocx, FormatText, e.docxToText)
	reg("write-container", FormatHTML, FormatDocx, e.htmlToDocx)
	reg("write-fixed-layout", FormatHTML, FormatPDF, e.htmlToPDF)
	reg("preview-fixed-layout", FormatPDF, FormatHTML, e.pdfToHTML)
}

// Convert translates data from one format to another. Identity conversions
// return the payload unchanged without invoking any transform.
func (e *Engine) Convert(ctx context.Context, data []byte, from, to Format, opts *ConvertOptions) (*Result, error) {
	if opts == nil {
		opts = &ConvertOptions{}
	}
	if from == FormatUnknown || to == FormatUnknown {
		return nil, &UnsupportedConversionError{From: from, To: to}
	}

	out, warnings, err := e.route(ctx, data, from, to, opts, 0)
	if err != nil {
		return nil, err
	}

	result := &Result{Output: out, Warnings: warnings}
	if to == FormatHTML {
		result.Title = htmlTitle(string(out))
	}

	if opts.OutputPath != "" {
		dir := filepath.Dir(opts.OutputPath)
		if dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, &WriteError{Path: opts.OutputPath, Cause: err}
			}
		}
		if err := os.WriteFile(opts.OutputPath, out, 0o644); err != nil {
			return nil, &WriteError{Path: opts.OutputPath, Cause: err}
		}
		result.OutputPath = opts.OutputPath
	}

	return result, nil
}

// ConvertFile reads path, infers its format from the extension (falling
// back to content sniffing), and converts it to the target format.
func (e *Engine) ConvertFile(ctx context.Context, path string, to Format, opts *ConvertOptions) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	from, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		from = DetectFormat(data)
	}
	return e.Convert(ctx, data, from, to, opts)
}

// route resolves one conversion step: identity, direct transform, or a
// two-hop chain through a hub. Hops execute strictly in sequence; the first
// hop's output and warnings thread into the second.
func (e *Engine) route(ctx context.Context, data []byte, from, to Format, opts *ConvertOptions, depth int) ([]byte, []Warning, error) {
	if from == to {
		return data, nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	if t, ok := e.transforms[pair{from, to}]; ok {
		out, warnings, err := t.fn(ctx, data, opts)
		if err != nil {
			return nil, nil, &StageError{Stage: t.name, From: from, To: to, Err: err}
		}
		return out, warnings, nil
	}

	if depth >= maxHops {
		return nil, nil, &UnsupportedConversionError{From: from, To: to}
	}

	for _, hub := range e.hubsFor(from) {
		if hub == from || hub == to {
			continue
		}
		if !e.reachable(from, hub, depth+1) || !e.reachable(hub, to, depth+1) {
			continue
		}
		mid, warnings, err := e.route(ctx, data, from, hub, opts, depth+1)
		if err != nil {
			return nil, nil, err
		}
		out, more, err := e.route(ctx, mid, hub, to, opts, depth+1)
		if err != nil {
			return nil, nil, err
		}
		return out, append(warnings, more...), nil
	}

	return nil, nil, &UnsupportedConversionError{From: from, To: to}
}

// hubsFor returns candidate intermediate formats, most expressive first.
// Markdown is only a hub for text sources.
func (e *Engine) hubsFor(from Format) []Format {
	if from.IsText() {
		return []Format{FormatHTML, FormatMarkdown}
	}
	return []Format{FormatHTML}
}

// reachable reports whether a path exists from one format to another
// without executing any transform.
func (e *Engine) reachable(from, to Format, depth int) bool {
	if from == to {
		return true
	}
	if _, ok := e.transforms[pair{from, to}]; ok {
		return true
	}
	if depth >= maxHops {
		return false
	}
	for _, hub := range e.hubsFor(from) {
		if hub == from || hub == to {
			continue
		}
		if e.reachable(from, hub, depth+1) && e.reachable(hub, to, depth+1) {
			return true
		}
	}
	return false
}
