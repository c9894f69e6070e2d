// Package pdfobj serializes PDF objects and assembles complete files with
// a cross-reference table and trailer.
package pdfobj

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// Object is the generic interface for all PDF objects.
type Object interface {
	String() string
}

// Name represents PDF names (e.g., /Type).
type Name string

func (n Name) String() string { return "/" + string(n) }

// Number represents integer or float values.
type Number float64

func (n Number) String() string {
	if n == Number(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", float64(n)), "0"), ".")
}

// String represents literal strings (e.g., (Hello World)).
type String string

func (s String) String() string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return "(" + r.Replace(string(s)) + ")"
}

// Array represents PDF arrays (e.g., [1 2 R]).
type Array []Object

func (a Array) String() string {
	parts := make([]string, len(a))
	for i, obj := range a {
		parts[i] = obj.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Dict represents PDF dictionaries (e.g., << /Type /Page >>).
type Dict map[string]Object

func (d Dict) String() string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys) // deterministic output
	var sb strings.Builder
	sb.WriteString("<<")
	for _, k := range keys {
		sb.WriteString(" /" + k + " " + d[k].String())
	}
	sb.WriteString(" >>")
	return sb.String()
}

// Ref represents an indirect reference (e.g., 12 0 R).
type Ref struct {
	Num int
	Gen int
}

func (r Ref) String() string { return fmt.Sprintf("%d %d R", r.Num, r.Gen) }

// stream pairs a dictionary with raw stream data.
type stream struct {
	dict Dict
	data []byte
}

// File accumulates numbered objects and serializes them with an xref table.
type File struct {
	objects []interface{} // Object or stream
}

// Add appends an object and returns its reference.
func (f *File) Add(obj Object) Ref {
	f.objects = append(f.objects, obj)
	return Ref{Num: len(f.objects)}
}

// AddStream appends a stream object. The Length entry is filled in.
func (f *File) AddStream(dict Dict, data []byte) Ref {
	if dict == nil {
		dict = Dict{}
	}
	dict["Length"] = Number(len(data))
	f.objects = append(f.objects, stream{dict: dict, data: data})
	return Ref{Num: len(f.objects)}
}

// Placeholder reserves the next object number so objects can reference each
// other before both exist. It must be filled with Set before Bytes is called.
func (f *File) Placeholder() Ref {
	f.objects = append(f.objects, nil)
	return Ref{Num: len(f.objects)}
}

// Set fills a reserved placeholder.
func (f *File) Set(ref Ref, obj Object) {
	f.objects[ref.Num-1] = obj
}

// Bytes assembles the file: header, object bodies, cross-reference table,
// and trailer ending in %%EOF.
func (f *File) Bytes(root Ref) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	// Binary comment marks the file as non-ASCII for transfer agents.
	buf.Write([]byte{'%', 0xE2, 0xE3, 0xCF, 0xD3, '\n'})

	offsets := make([]int, len(f.objects))
	for i, obj := range f.objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n", i+1)
		switch o := obj.(type) {
		case stream:
			buf.WriteString(o.dict.String())
			buf.WriteString("\nstream\n")
			buf.Write(o.data)
			buf.WriteString("\nendstream")
		case Object:
			buf.WriteString(o.String())
		}
		buf.WriteString("\nendobj\n")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(f.objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	trailer := Dict{
		"Size": Number(len(f.objects) + 1),
		"Root": root,
	}
	fmt.Fprintf(&buf, "trailer\n%s\nstartxref\n%d\n%%%%EOF", trailer.String(), xref)
	return buf.Bytes()
}
