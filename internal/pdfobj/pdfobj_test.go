package pdfobj

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
)

func TestObjectSerialization(t *testing.T) {
	tests := []struct {
		name string
		obj  Object
		want string
	}{
		{"name", Name("Type"), "/Type"},
		{"integer", Number(3), "3"},
		{"float", Number(1.5), "1.5"},
		{"string", String("plain"), "(plain)"},
		{"string escaping", String(`a(b)\c`), `(a\(b\)\\c)`},
		{"array", Array{Number(0), Name("X"), Ref{Num: 2}}, "[0 /X 2 0 R]"},
		{"ref", Ref{Num: 12, Gen: 0}, "12 0 R"},
		{"dict sorted", Dict{"Type": Name("Page"), "Count": Number(1)}, "<< /Count 1 /Type /Page >>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.obj.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFileAssembly(t *testing.T) {
	var f File
	catalog := f.Placeholder()
	pages := f.Add(Dict{"Type": Name("Pages"), "Kids": Array{}, "Count": Number(0)})
	f.Set(catalog, Dict{"Type": Name("Catalog"), "Pages": pages})

	out := f.Bytes(catalog)

	if !bytes.HasPrefix(out, []byte("%PDF-1.4\n")) {
		t.Errorf("missing header: %q", out[:16])
	}
	if !bytes.HasSuffix(out, []byte("%%EOF")) {
		t.Errorf("missing EOF trailer: %q", out[len(out)-16:])
	}
	for _, s := range []string{"1 0 obj", "2 0 obj", "xref", "trailer", "/Root 1 0 R", "/Size 3", "startxref"} {
		if !bytes.Contains(out, []byte(s)) {
			t.Errorf("output missing %q", s)
		}
	}
}

func TestFileXrefOffsets(t *testing.T) {
	var f File
	root := f.Add(Dict{"Type": Name("Catalog")})
	out := string(f.Bytes(root))

	// The xref entry must point at the byte offset of the object header.
	idx := strings.Index(out, "xref\n0 2\n")
	if idx == -1 {
		t.Fatalf("xref section not found")
	}
	lines := strings.Split(out[idx:], "\n")
	if len(lines) < 4 {
		t.Fatalf("truncated xref section")
	}
	offset, err := strconv.Atoi(strings.TrimLeft(lines[3][:10], "0"))
	if err != nil {
		t.Fatalf("bad xref entry %q: %v", lines[3], err)
	}
	if objPos := strings.Index(out, "1 0 obj"); offset != objPos {
		t.Errorf("xref offset = %d, object header at %d", offset, objPos)
	}
}

func TestAddStreamFillsLength(t *testing.T) {
	var f File
	ref := f.AddStream(nil, []byte("BT ET"))
	out := f.Bytes(ref)

	for _, s := range []string{"/Length 5", "stream\nBT ET\nendstream"} {
		if !bytes.Contains(out, []byte(s)) {
			t.Errorf("output missing %q:\n%s", s, out)
		}
	}
}
