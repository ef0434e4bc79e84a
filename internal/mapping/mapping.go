// Package mapping loads the section-to-image document handed to section-ocr.
//
// The document is a single JSON object whose keys are caller-defined section
// names and whose values are image paths. Entries keep the order in which
// they appear in the document so results can be emitted in the same order.
package mapping

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrReadInput means the mapping file could not be read.
	ErrReadInput = errors.New("cannot read mapping file")

	// ErrParseInput means the mapping file is not a JSON object.
	ErrParseInput = errors.New("invalid mapping document")
)

// Entry is one section of the mapping.
type Entry struct {
	// Section is the caller-defined label.
	Section string

	// Path is the image path. Empty when the value was "", null, or not a string.
	Path string

	// Invalid is set when the value was neither a string nor null.
	Invalid bool
}

// Mapping is an ordered list of sections.
type Mapping []Entry

// Sections returns the section names in document order.
func (m Mapping) Sections() []string {
	out := make([]string, len(m))
	for i, e := range m {
		out[i] = e.Section
	}
	return out
}

// Load reads and parses the mapping file at path.
func Load(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}
	return Parse(data)
}

// Parse decodes a mapping document.
//
// Duplicate keys keep the position of their first occurrence and the value
// of their last one.
func Parse(data []byte) (Mapping, error) {
	if err := validateDocument(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseInput, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseInput, err)
	}

	var m Mapping
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParseInput, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected key %v", ErrParseInput, tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: section %q: %w", ErrParseInput, key, err)
		}

		entry := entryFromValue(key, raw)
		if i, seen := index[key]; seen {
			m[i] = entry
			continue
		}
		index[key] = len(m)
		m = append(m, entry)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseInput, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: unexpected data after the mapping object", ErrParseInput)
	}

	return m, nil
}

func entryFromValue(key string, raw json.RawMessage) Entry {
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return Entry{Section: key}
	}
	var path string
	if err := json.Unmarshal(trimmed, &path); err != nil {
		return Entry{Section: key, Invalid: true}
	}
	return Entry{Section: key, Path: path}
}
