// Package loader reads token documents and manifests off disk (or any
// injected Reader), stripping the $schema hint and JSONC comments before
// handing the bytes to the ordered JSON decoder in pkg/tok.
package loader

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tidwall/jsonc"

	"github.com/dmoose/dtcgcore/pkg/tok"
)

// Kind classifies a loader-surfaced error.
type Kind string

const (
	KindIO    Kind = "io"
	KindParse Kind = "parse"
)

// Error is the loader's error type: every failure is attributed to a file
// path and classified as either an I/O failure or a parse failure.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("loader: %s: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Reader abstracts file access so documents can be loaded from disk, an
// in-memory fixture, or a virtual filesystem in tests.
type Reader interface {
	Read(path string) ([]byte, error)
}

// OSReader reads files from the local filesystem.
type OSReader struct{}

// Read implements Reader.
func (OSReader) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Globber is implemented by a Reader that can expand a doublestar glob
// pattern ("tokens/**/*.json") against its backing filesystem. OSReader
// implements it; in-memory fixture readers typically don't, so literal
// (non-glob) paths always resolve, and a glob pattern against a Reader that
// can't expand it is a loud error rather than a silent empty match.
type Globber interface {
	Glob(baseDir, pattern string) ([]string, error)
}

// Glob implements Globber using the doublestar "**" glob syntax, matched
// against baseDir's subtree.
func (OSReader) Glob(baseDir, pattern string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(baseDir), pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// Loader reads and decodes token documents, memoizing already-loaded files
// so the reference resolver and bundler can share parsed external files
// without re-reading or re-parsing them.
type Loader struct {
	reader Reader
	mu     sync.Mutex // guards cache; concurrent bundle workers share a Loader
	cache  map[string]*tok.OrderedMap
}

// New returns a Loader backed by reader. Passing nil uses OSReader.
func New(reader Reader) *Loader {
	if reader == nil {
		reader = OSReader{}
	}
	return &Loader{reader: reader, cache: make(map[string]*tok.OrderedMap)}
}

// ReadDocument loads and decodes the token document at path, stripping a
// top-level $schema key (a pure editor hint, not token data) and any JSONC
// comments. Results are memoized by path.
func (l *Loader) ReadDocument(path string) (*tok.OrderedMap, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, ok := l.cache[path]; ok {
		return cached, nil
	}
	raw, err := l.reader.Read(path)
	if err != nil {
		return nil, &Error{Kind: KindIO, Path: path, Err: err}
	}
	clean := jsonc.ToJSON(raw)
	v, err := tok.Unmarshal(clean)
	if err != nil {
		return nil, &Error{Kind: KindParse, Path: path, Err: err}
	}
	doc, ok := v.(*tok.OrderedMap)
	if !ok {
		return nil, &Error{Kind: KindParse, Path: path, Err: fmt.Errorf("top-level value is not an object")}
	}
	doc.Delete("$schema")
	l.cache[path] = doc
	return doc, nil
}

// ReadManifest loads and decodes the raw JSON of a build manifest. Manifest
// interpretation (sets, modifiers, generate) is pkg/manifest's job; this
// only handles file access, JSONC stripping, and generic decoding.
func (l *Loader) ReadManifest(path string) (*tok.OrderedMap, error) {
	raw, err := l.reader.Read(path)
	if err != nil {
		return nil, &Error{Kind: KindIO, Path: path, Err: err}
	}
	clean := jsonc.ToJSON(raw)
	v, err := tok.Unmarshal(clean)
	if err != nil {
		return nil, &Error{Kind: KindParse, Path: path, Err: err}
	}
	m, ok := v.(*tok.OrderedMap)
	if !ok {
		return nil, &Error{Kind: KindParse, Path: path, Err: fmt.Errorf("manifest top-level value is not an object")}
	}
	return m, nil
}

// Reset clears the document cache, forcing the next ReadDocument call for
// any path to re-read and re-parse.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]*tok.OrderedMap)
}

// ExpandGlobs resolves each of patterns against baseDir. A literal entry
// with no glob metacharacter passes through unchanged; an entry containing
// "*", "?", or "[" is expanded via the reader's Globber (sorted for
// deterministic composition order). Expanding a glob against a Reader that
// doesn't implement Globber is an error rather than a silent no-op.
func (l *Loader) ExpandGlobs(baseDir string, patterns []string) ([]string, error) {
	var out []string
	for _, p := range patterns {
		if !containsGlobMeta(p) {
			out = append(out, p)
			continue
		}
		g, ok := l.reader.(Globber)
		if !ok {
			return nil, &Error{Kind: KindIO, Path: p, Err: fmt.Errorf("reader does not support glob expansion")}
		}
		matches, err := g.Glob(baseDir, p)
		if err != nil {
			return nil, &Error{Kind: KindIO, Path: p, Err: err}
		}
		out = append(out, matches...)
	}
	return out, nil
}

func containsGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[")
}
