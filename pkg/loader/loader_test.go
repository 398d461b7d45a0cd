package loader

import (
	"fmt"
	"os"
	"testing"

	"github.com/dmoose/dtcgcore/pkg/tok"
)

type fakeReader map[string][]byte

func (f fakeReader) Read(path string) ([]byte, error) {
	b, ok := f[path]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", path)
	}
	return b, nil
}

func TestReadDocumentStripsSchemaAndComments(t *testing.T) {
	fr := fakeReader{
		"base.json": []byte(`{
			// editor hint
			"$schema": "https://example.com/schema.json",
			"color": {"brand": {"$value": "#fff"}}
		}`),
	}
	l := New(fr)
	doc, err := l.ReadDocument("base.json")
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	if _, ok := doc.Get("$schema"); ok {
		t.Errorf("expected $schema to be stripped")
	}
	color, _ := doc.Get("color")
	if _, ok := color.(*tok.OrderedMap); !ok {
		t.Errorf("color should decode as an object")
	}
}

func TestReadDocumentMemoizes(t *testing.T) {
	calls := 0
	fr := countingReader{fakeReader{"a.json": []byte(`{"x":{"$value":1}}`)}, &calls}
	l := New(fr)
	if _, err := l.ReadDocument("a.json"); err != nil {
		t.Fatal(err)
	}
	if _, err := l.ReadDocument("a.json"); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 underlying read, got %d", calls)
	}
}

type countingReader struct {
	fakeReader
	calls *int
}

func (c countingReader) Read(path string) ([]byte, error) {
	*c.calls++
	return c.fakeReader.Read(path)
}

func TestReadDocumentIOErrorClassified(t *testing.T) {
	l := New(fakeReader{})
	_, err := l.ReadDocument("missing.json")
	var le *Error
	if err == nil {
		t.Fatal("expected error")
	}
	if e, ok := err.(*Error); ok {
		le = e
	}
	if le == nil || le.Kind != KindIO {
		t.Fatalf("expected io error, got %v", err)
	}
}

func TestReadDocumentParseErrorClassified(t *testing.T) {
	l := New(fakeReader{"bad.json": []byte(`{not json`)})
	_, err := l.ReadDocument("bad.json")
	le, ok := err.(*Error)
	if !ok || le.Kind != KindParse {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestExpandGlobsPassesThroughLiteralPaths(t *testing.T) {
	l := New(fakeReader{})
	out, err := l.ExpandGlobs("tokens", []string{"core.json", "semantic/spacing.json"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"core.json", "semantic/spacing.json"}
	if len(out) != len(want) || out[0] != want[0] || out[1] != want[1] {
		t.Fatalf("out = %v, want %v", out, want)
	}
}

func TestExpandGlobsRejectsGlobWithoutGlobberSupport(t *testing.T) {
	l := New(fakeReader{})
	_, err := l.ExpandGlobs("tokens", []string{"**/*.json"})
	if err == nil {
		t.Fatal("expected an error expanding a glob against a reader with no Globber support")
	}
}

func TestExpandGlobsUsesOSReaderAgainstRealFilesystem(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.json", "b.json"} {
		if err := os.WriteFile(dir+"/"+name, []byte(`{}`), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	l := New(OSReader{})
	out, err := l.ExpandGlobs(dir, []string{"*.json"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0] != "a.json" || out[1] != "b.json" {
		t.Fatalf("out = %v, want [a.json b.json]", out)
	}
}
