package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
)

// Well-known metadata keys carried on pages and chunks.
const (
	// MetaSource is the base filename of the originating document.
	MetaSource = "source"

	// MetaPage is the 1-based page number within the source.
	MetaPage = "page"

	// MetaPath is the full path the loader read.
	MetaPath = "path"

	// MetaTotalPages is the page count of the source document.
	MetaTotalPages = "total_pages"
)

// PageRecord is one page of source text as produced by a PageLoader.
// It is treated as immutable once produced.
type PageRecord struct {
	// Source is the base filename of the document the page belongs to.
	Source string

	// Page is the 1-based page number.
	Page int

	// Text is the extracted page text. Nil means the loader produced no text
	// for this page, which segmentation reports as a DataIngestionError.
	Text *string

	// Metadata holds provenance for the page (source, page, path, ...).
	Metadata map[string]any
}

// NewPageRecord creates a page record with text and the standard
// source/page metadata keys populated.
func NewPageRecord(source string, page int, text string) PageRecord {
	return PageRecord{
		Source: source,
		Page:   page,
		Text:   &text,
		Metadata: map[string]any{
			MetaSource: source,
			MetaPage:   page,
		},
	}
}

// String identifies the page for logs and error messages.
func (p PageRecord) String() string {
	return fmt.Sprintf("%s#%d", p.Source, p.Page)
}

// Chunk is a bounded unit of source text plus provenance metadata.
// It is the atomic retrievable unit of the index.
type Chunk struct {
	// ID is a deterministic identifier derived from provenance and content.
	ID string

	// Content is the trimmed, non-empty chunk text.
	Content string

	// Position is the ordinal position within the whole corpus.
	Position int

	// Embedding is the vector representation, set once the chunk is indexed.
	Embedding []float32

	// Metadata is a deep copy of the source page metadata.
	Metadata map[string]any
}

// Source returns the source filename recorded in the chunk metadata.
func (c Chunk) Source() string {
	s, _ := c.Metadata[MetaSource].(string)
	return s
}

// Page returns the page number recorded in the chunk metadata.
// Numbers decoded from JSON arrive as float64 and are handled too.
func (c Chunk) Page() int {
	switch v := c.Metadata[MetaPage].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// ScoredChunk is a chunk returned from a vector query with its
// cosine similarity to the query.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// CloneMetadata returns a deep copy of a metadata map.
// Nested maps and slices are copied so no mutable value is shared.
func CloneMetadata(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return CloneMetadata(val)
	case []any:
		cp := make([]any, len(val))
		for i := range val {
			cp[i] = cloneValue(val[i])
		}
		return cp
	default:
		return deepCopy(reflect.ValueOf(v)).Interface()
	}
}

// deepCopy copies maps, slices, arrays, pointers and exported struct fields
// recursively. Values must not contain cycles.
func deepCopy(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		cp := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			cp.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
		}
		return cp
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		cp := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			cp.Index(i).Set(deepCopy(v.Index(i)))
		}
		return cp
	case reflect.Array:
		cp := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			cp.Index(i).Set(deepCopy(v.Index(i)))
		}
		return cp
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		cp := reflect.New(v.Type().Elem())
		cp.Elem().Set(deepCopy(v.Elem()))
		return cp
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		cp := reflect.New(v.Type()).Elem()
		cp.Set(deepCopy(v.Elem()))
		return cp
	case reflect.Struct:
		cp := reflect.New(v.Type()).Elem()
		cp.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if f := cp.Field(i); f.CanSet() {
				f.Set(deepCopy(v.Field(i)))
			}
		}
		return cp
	default:
		return v
	}
}

// Corpus is the result of one ingestion run.
type Corpus struct {
	// Chunks in deterministic order: files by name, pages, then position.
	Chunks []Chunk

	// Files lists the source files that were segmented successfully.
	Files []string

	// Failures holds per-file ingestion errors.
	Failures []error
}

// IndexReport describes what Ensure did.
type IndexReport struct {
	// Built is true when the index was (re)built in this run.
	Built bool

	// Backend names the index implementation.
	Backend string

	// Chunks is the number of indexed chunks.
	Chunks int

	// Files lists the ingested files when Built is true.
	Files []string

	// Failures holds per-file ingestion errors when Built is true.
	Failures []error
}

// UnmarshalMetadata decodes JSON metadata. Whole numbers decode as int so
// metadata survives a persistence round trip unchanged.
func UnmarshalMetadata(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		return map[string]any{}, nil
	}
	return fromJSONNumbers(m).(map[string]any), nil
}

func fromJSONNumbers(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, inner := range val {
			val[k] = fromJSONNumbers(inner)
		}
		return val
	case []any:
		for i := range val {
			val[i] = fromJSONNumbers(val[i])
		}
		return val
	case json.Number:
		if i, err := strconv.Atoi(val.String()); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	default:
		return val
	}
}
