// Package catalog loads part records from files.
//
// Supported formats, chosen by extension:
//   - .json: an array of objects, or one object per line
//   - .jsonl, .ndjson: one object per line
//   - .csv: a header row naming the keys, one record per row
//   - .yaml, .yml: a list of mappings, optionally under a "parts" key
//
// Values must be scalars. JSON and YAML numbers keep their integer or
// decimal type; CSV values are strings.
package catalog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/partsearch/internal/core/domain"
	"github.com/custodia-labs/partsearch/internal/core/ports/driven"
)

// Ensure FileLoader implements the interface.
var _ driven.CatalogLoader = (*FileLoader)(nil)

// ErrUnsupportedFormat indicates a catalog file extension with no decoder.
var ErrUnsupportedFormat = errors.New("unsupported catalog format")

// FileLoader reads a catalog file.
type FileLoader struct {
	path string
}

// NewFileLoader creates a loader for path.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

// Source returns the file path.
func (l *FileLoader) Source() string {
	return l.path
}

// Load reads and decodes every record in file order.
func (l *FileLoader) Load(ctx context.Context) ([]domain.Part, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.path == "" {
		return nil, errors.New("catalog path is not set")
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var parts []domain.Part
	switch ext := strings.ToLower(filepath.Ext(l.path)); ext {
	case ".json":
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
			parts, err = DecodeJSON(bytes.NewReader(data))
		} else {
			parts, err = DecodeJSONLines(bytes.NewReader(data))
		}
	case ".jsonl", ".ndjson":
		parts, err = DecodeJSONLines(bytes.NewReader(data))
	case ".csv":
		parts, err = DecodeCSV(bytes.NewReader(data))
	case ".yaml", ".yml":
		parts, err = DecodeYAML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(l.path), err)
	}
	return parts, nil
}

// DecodeJSON decodes a JSON array of objects.
func DecodeJSON(r io.Reader) ([]domain.Part, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	parts := make([]domain.Part, 0, len(raw))
	for i, m := range raw {
		p, err := toPart(m)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		parts = append(parts, p)
	}
	return parts, nil
}

// DecodeJSONLines decodes one JSON object per line. Blank lines are skipped.
func DecodeJSONLines(r io.Reader) ([]domain.Part, error) {
	var parts []domain.Part
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(text))
		dec.UseNumber()
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		p, err := toPart(m)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		parts = append(parts, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return parts, nil
}

// DecodeCSV decodes a header row followed by records. Empty cells are
// treated as absent keys.
func DecodeCSV(r io.Reader) ([]domain.Part, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return []domain.Part{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var parts []domain.Part
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		p := make(domain.Part, len(header))
		for i, cell := range row {
			if cell = strings.TrimSpace(cell); cell != "" && header[i] != "" {
				p[header[i]] = cell
			}
		}
		parts = append(parts, p)
	}
	return parts, nil
}

// DecodeYAML decodes a list of mappings, or a mapping with a "parts" list.
func DecodeYAML(data []byte) ([]domain.Part, error) {
	var list []map[string]any
	if err := yaml.Unmarshal(data, &list); err != nil {
		var doc struct {
			Parts []map[string]any `yaml:"parts"`
		}
		if err2 := yaml.Unmarshal(data, &doc); err2 != nil {
			return nil, err
		}
		list = doc.Parts
	}

	parts := make([]domain.Part, 0, len(list))
	for i, m := range list {
		p, err := toPart(m)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		parts = append(parts, p)
	}
	return parts, nil
}

// toPart normalises decoded values to string, int64 or float64.
// Nulls are dropped; nested values are rejected.
func toPart(m map[string]any) (domain.Part, error) {
	p := make(domain.Part, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case nil:
			continue
		case string:
			p[k] = t
		case json.Number:
			if n, err := t.Int64(); err == nil {
				p[k] = n
			} else if f, err := t.Float64(); err == nil {
				p[k] = f
			} else {
				p[k] = t.String()
			}
		case int:
			p[k] = int64(t)
		case int64:
			p[k] = t
		case uint64:
			p[k] = float64(t)
		case float64:
			p[k] = t
		case bool:
			p[k] = t
		default:
			return nil, fmt.Errorf("key %q: value of type %T is not a scalar", k, v)
		}
	}
	return p, nil
}
