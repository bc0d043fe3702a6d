// Package jsonl parses JSON entity batches into records. It accepts the
// shapes raw exports actually arrive in:
//
//   - JSONL/NDJSON: one object per line (a stream of top-level objects)
//   - a root array of objects: [ {...}, {...} ]
//   - an envelope object whose first array-of-objects field holds the
//     records: { "records": [...], "meta": {...} }
//   - a single object, treated as one record
//
// Decoding uses encoding/json.Decoder so large inputs are never buffered
// whole. Non-object elements soft-fail and are counted, mirroring the CSV
// parser's skip behavior.
package jsonl

import (
	"encoding/json"
	"fmt"
	"io"
	"log"

	"shopetl/pkg/records"
)

// Options configures the JSONL parser.
type Options struct {
	// KeyMap maps source object keys to canonical field names. Unmapped keys
	// pass through unchanged.
	KeyMap map[string]string
}

// Parser parses JSON input according to Options. Safe to reuse across inputs.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// skipLogLimit caps per-input skipped-element logging.
const skipLogLimit = 400

// Parse consumes JSON from r and returns the parsed records plus the number
// of elements skipped because they were not objects. A malformed stream after
// the first valid value is an error; individual non-object elements are not.
func (p *Parser) Parse(r io.Reader) ([]records.Record, int, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var out []records.Record
	var skipped int

	emit := func(obj map[string]any) {
		out = append(out, p.toRecord(obj))
	}
	skip := func(elem any) {
		if skipped < skipLogLimit {
			log.Printf("Skipping element %d: not an object (got %T)", len(out)+skipped+1, elem)
		}
		skipped++
	}

	var root any
	if err := dec.Decode(&root); err != nil {
		if err == io.EOF {
			return nil, 0, nil // empty input
		}
		return nil, 0, fmt.Errorf("json: decode root: %w", err)
	}

	switch v := root.(type) {
	case []any:
		for _, elem := range v {
			obj, ok := elem.(map[string]any)
			if !ok {
				skip(elem)
				continue
			}
			emit(obj)
		}
	case map[string]any:
		if slice := findObjectSlice(v); slice != nil {
			for _, obj := range slice {
				emit(obj)
			}
		} else {
			emit(v)
		}
	default:
		return nil, 0, fmt.Errorf("json: unsupported root type %T (want object or array)", v)
	}

	// Additional top-level values: the JSONL/NDJSON case.
	for {
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			if err == io.EOF {
				break
			}
			return out, skipped, fmt.Errorf("json: decode value %d: %w", len(out)+skipped+1, err)
		}
		emit(obj)
	}

	return out, skipped, nil
}

// toRecord canonicalizes one object's keys and value types. json.Number
// values stay strings so downstream typing decides int vs float; nested
// values are kept as-is and will fail typed validation.
func (p *Parser) toRecord(obj map[string]any) records.Record {
	rec := make(records.Record, len(obj))
	for k, v := range obj {
		if mapped, ok := p.opt.KeyMap[k]; ok && mapped != "" {
			k = mapped
		}
		if n, ok := v.(json.Number); ok {
			v = n.String()
		}
		rec[k] = v
	}
	return rec
}

// findObjectSlice searches the top-level object for a value that is an
// array-of-objects and returns the first such slice it finds, supporting
// envelope responses like {"records": [...], "meta": {...}}.
func findObjectSlice(root map[string]any) []map[string]any {
	for _, v := range root {
		rawSlice, ok := v.([]any)
		if !ok || len(rawSlice) == 0 {
			continue
		}
		objects := make([]map[string]any, 0, len(rawSlice))
		valid := true
		for _, elem := range rawSlice {
			if elem == nil {
				continue
			}
			m, ok := elem.(map[string]any)
			if !ok {
				valid = false
				break
			}
			objects = append(objects, m)
		}
		if valid && len(objects) > 0 {
			return objects
		}
	}
	return nil
}
