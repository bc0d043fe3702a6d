// Package config defines the canonical, JSON-serializable configuration model
// for the analytics pipeline. It is intentionally small, explicit, and
// dependency-free so that run files can be loaded from disk and passed through
// the program without additional glue code.
//
// Design goals:
//
//  1. Stability: Changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: Field names in Go mirror the JSON structure used in run files
//     under configs/runs/*.json.
//  3. Minimalism: No third-party config libraries; decoding is performed by the
//     standard library, with a light Options helper for typed access.
//
// Example (trimmed):
//
//	{
//	  "job": "restaurant-analytics",
//	  "sources": {
//	    "customers": { "kind": "file", "format": "csv", "file": { "path": "data/customers.csv" } },
//	    "orders":    { "kind": "http", "format": "jsonl", "http": { "url": "https://..." } }
//	  },
//	  "storage": { "kind": "csvdir", "csvdir": { "dir": "out" } },
//	  "runtime": { "batch_size": 5000 }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Run describes one full pipeline execution in JSON. It is the top-level
// object decoded from a run file.
type Run struct {
	// Job names the run for logs and metric labels.
	Job string `json:"job"`

	// Sources maps entity name to its raw input. Every entity the pipeline
	// knows about needs an entry.
	Sources map[string]Source `json:"sources"`

	// Storage describes where the report tables are written.
	Storage Storage `json:"storage"`

	Runtime RuntimeConfig `json:"runtime"`
}

// Load reads and decodes a run file.
func Load(path string) (Run, error) {
	var r Run
	b, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("read run config: %w", err)
	}
	if err := json.Unmarshal(b, &r); err != nil {
		return r, fmt.Errorf("decode run config %s: %w", path, err)
	}
	return r, nil
}

// RuntimeConfig controls batching and HTTP fetch behavior.
type RuntimeConfig struct {
	// BatchSize is the row batch size used by database sinks.
	BatchSize int `json:"batch_size"`

	// HTTPTimeoutSeconds bounds each remote source fetch. Zero means the
	// client default.
	HTTPTimeoutSeconds int `json:"http_timeout_seconds"`

	// HTTPRetries is the number of retry attempts for remote sources.
	HTTPRetries int `json:"http_retries"`
}

// Source identifies one entity's raw input. Additional kinds can be added
// over time.
type Source struct {
	// Kind selects the source implementation: "file" or "http".
	Kind string `json:"kind"`

	// Format selects the parser for the raw bytes: "csv" or "jsonl".
	Format string `json:"format"`

	// File carries options for the "file" source kind.
	File SourceFile `json:"file"`

	// HTTP carries options for the "http" source kind.
	HTTP SourceHTTP `json:"http"`

	// Options is a free-form map interpreted by the parser implementation.
	// For CSV, typical keys include:
	//   has_header (bool), comma (string), trim_space (bool),
	//   expected_fields (int), header_map (object)
	Options Options `json:"options"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	// Path is the local filesystem path to the input file.
	Path string `json:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	// URL is fetched with GET; the body is handed to the parser.
	URL string `json:"url"`

	// Headers are added to the request (e.g. authorization).
	Headers map[string]string `json:"headers"`
}

// Storage selects the sink used to persist the report tables.
type Storage struct {
	// Kind selects the storage implementation: "csvdir", "sqlite" or
	// "postgres".
	Kind string `json:"kind"`

	// CSVDir carries options for the "csvdir" storage kind.
	CSVDir StorageCSVDir `json:"csvdir"`

	// DB carries options shared by the database storage kinds.
	DB DBConfig `json:"db"`
}

// StorageCSVDir configures the directory sink: one CSV file per report.
type StorageCSVDir struct {
	// Dir is created if missing; existing report files are overwritten.
	Dir string `json:"dir"`
}

// DBConfig configures the database sinks.
type DBConfig struct {
	// DSN is the connection string: a pgx/pgxpool URL for postgres, a file
	// path (or ":memory:") for sqlite.
	DSN string `json:"dsn"`

	// TablePrefix is prepended to every report table name, e.g. "gold_".
	TablePrefix string `json:"table_prefix"`

	// AutoCreateTable drops and recreates each report table before loading.
	AutoCreateTable bool `json:"auto_create_table"`
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It purposefully
// performs only minimal type coercion and returns provided defaults when a key
// is absent or of an unexpected type.
//
// Options is used for parser-specific configuration where the shape varies by
// implementation.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
// If the value is neither float64 nor int, def is returned.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. This is useful for single-character parser settings such as
// a CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty map
// when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// StringSlice returns a []string for key when the value is an array of strings
// (or an array of interface values containing strings). Returns nil when the
// key is missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// Any returns the raw value for key (which may itself be a nested
// map[string]any, []any, or primitive). This is useful for retrieving nested
// configuration blocks that will be unmarshaled into a typed struct by the
// caller.
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler so that a null "options" object in
// JSON decodes to a non-nil, empty Options map. Absent keys still leave the
// zero value; the typed getters tolerate a nil receiver, so call sites need no
// nil checks either way.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
