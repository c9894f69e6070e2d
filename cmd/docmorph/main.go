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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	docmorph "github.com/nicholasgasior/docmorph-go"
)

var version = "dev"

type metadataFlag map[string]string

func (m metadataFlag) String() string { return "" }

func (m metadataFlag) Set(v string) error {
	key, value, ok := strings.Cut(v, "=")
	if !ok {
		return fmt.Errorf("metadata must be key=value, got %q", v)
	}
	m[key] = value
	return nil
}

func main() {
	var (
		from           string
		to             string
		output         string
		templateRef    string
		templateDir    string
		includeStyles  bool
		preserveImages bool
		keepDataURIs   bool
		timeout        time.Duration
		showVersion    bool
		metadata       = metadataFlag{}
	)

	flag.StringVar(&from, "from", "", "Source format (txt, md, html, docx, pdf; default: inferred)")
	flag.StringVar(&to, "to", "", "Target format (txt, md, html, docx, pdf)")
	flag.StringVar(&output, "o", "", "Output file (default: stdout)")
	flag.StringVar(&output, "output", "", "Output file (default: stdout)")
	flag.StringVar(&templateRef, "template", "", "Container blueprint reference for docx output")
	flag.StringVar(&templateDir, "template-dir", "", "Directory container blueprints are read from")
	flag.BoolVar(&includeStyles, "styles", false, "Inject the default stylesheet into HTML output")
	flag.BoolVar(&preserveImages, "images", false, "Inline embedded images as data URIs when reading docx")
	flag.BoolVar(&keepDataURIs, "keep-data-uris", false, "Keep full base64-encoded data URIs")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Overall conversion timeout")
	flag.BoolVar(&showVersion, "v", false, "Show version")
	flag.BoolVar(&showVersion, "version", false, "Show version")
	flag.Var(metadata, "meta", "Blueprint metadata as key=value (repeatable)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: docmorph -to FORMAT [flags] [source]\n\n")
		fmt.Fprintf(os.Stderr, "Convert documents between txt, md, html, docx, and pdf.\n\n")
		fmt.Fprintf(os.Stderr, "Arguments:\n")
		fmt.Fprintf(os.Stderr, "  source    File path to convert (reads stdin if omitted)\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("docmorph %s\n", version)
		os.Exit(0)
	}
	if to == "" {
		flag.Usage()
		os.Exit(2)
	}

	target, err := docmorph.ParseFormat(to)
	if err != nil {
		fatal(err)
	}

	var engineOpts []docmorph.Option
	if templateDir != "" {
		engineOpts = append(engineOpts, docmorph.WithBlueprintStore(&docmorph.DirBlueprintStore{Dir: templateDir}))
	}
	if keepDataURIs {
		engineOpts = append(engineOpts, docmorph.WithKeepDataURIs(true))
	}
	engine := docmorph.New(engineOpts...)

	opts := &docmorph.ConvertOptions{
		IncludeStyles:  includeStyles,
		PreserveImages: preserveImages,
		Metadata:       metadata,
		TemplateRef:    templateRef,
		OutputPath:     output,
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var result *docmorph.Result
	args := flag.Args()
	if len(args) == 0 {
		data, readErr := io.ReadAll(os.Stdin)
		if readErr != nil {
			fatal(fmt.Errorf("read stdin: %w", readErr))
		}
		source := docmorph.DetectFormat(data)
		if from != "" {
			source, err = docmorph.ParseFormat(from)
			if err != nil {
				fatal(err)
			}
		}
		result, err = engine.Convert(ctx, data, source, target, opts)
	} else {
		path := args[0]
		if from != "" {
			var source docmorph.Format
			source, err = docmorph.ParseFormat(from)
			if err != nil {
				fatal(err)
			}
			var data []byte
			data, err = os.ReadFile(path)
			if err == nil {
				result, err = engine.Convert(ctx, data, source, target, opts)
			}
		} else {
			result, err = engine.ConvertFile(ctx, path, target, opts)
		}
	}
	if err != nil {
		fatal(err)
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	if output != "" {
		// Convert already wrote the file via OutputPath.
		return
	}
	if target.IsText() {
		fmt.Print(string(result.Output))
		if !strings.HasSuffix(string(result.Output), "\n") {
			fmt.Println()
		}
		return
	}
	// Binary output to a terminal is never useful; derive a filename.
	name := "out." + target.String()
	if len(args) > 0 {
		base := filepath.Base(args[0])
		name = strings.TrimSuffix(base, filepath.Ext(base)) + "." + target.String()
	}
	if err := os.WriteFile(name, result.Output, 0o644); err != nil {
		fatal(err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", name)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
