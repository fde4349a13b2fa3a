package knowledge

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

//go:embed data/sample.yaml
var sampleCorpus []byte

// corpusFile is the on-disk layout of a knowledge-base YAML file.
type corpusFile struct {
	Documents []Document `yaml:"documents"`
}

// Decode reads one knowledge-base YAML document. Unknown fields are rejected
// so that typos in metadata keys do not silently drop a tag.
func Decode(r io.Reader) ([]Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f corpusFile
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding knowledge file: %w", err)
	}
	return f.Documents, nil
}

// LoadFile decodes the documents in a single YAML file.
func LoadFile(path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening knowledge file: %w", err)
	}
	defer f.Close()

	docs, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}

// ExpandGlobs resolves doublestar patterns (e.g. "kb/**/*.yaml") into a
// sorted, de-duplicated list of files.
func ExpandGlobs(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expanding %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("knowledge pattern %q matched no files", pattern)
		}
		files = append(files, matches...)
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

// LoadGlob loads every file matched by patterns into one Store.
func LoadGlob(patterns []string) (*Store, error) {
	files, err := ExpandGlobs(patterns)
	if err != nil {
		return nil, err
	}
	var docs []Document
	for _, path := range files {
		fileDocs, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, fileDocs...)
	}
	store, err := New(docs)
	if err != nil {
		return nil, fmt.Errorf("building knowledge store: %w", err)
	}
	return store, nil
}

// Sample returns the Store built from the embedded sample corpus.
func Sample() (*Store, error) {
	docs, err := Decode(bytes.NewReader(sampleCorpus))
	if err != nil {
		return nil, fmt.Errorf("embedded corpus: %w", err)
	}
	return New(docs)
}

// Open loads the files matched by patterns, or the embedded sample corpus
// when no patterns are configured.
func Open(patterns []string) (*Store, error) {
	if len(patterns) == 0 {
		return Sample()
	}
	return LoadGlob(patterns)
}
