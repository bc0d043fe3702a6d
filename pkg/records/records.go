// Package records defines the loosely-typed record shape flowing through the
// pipeline. A Record is a single row keyed by canonical field name; values are
// raw strings on ingest and become typed (float64, int64, bool, time.Time)
// after normalization.
package records

import (
	"fmt"
	"strconv"
	"time"
)

// Record is one row of an entity batch.
type Record map[string]any

// Clone returns a shallow copy of the record. Values are not deep-copied;
// cleaned values are scalars, so a shallow copy is sufficient.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Empty reports whether the field is absent, nil, or an empty string.
func (r Record) Empty(field string) bool {
	v, ok := r[field]
	if !ok || v == nil {
		return true
	}
	s, isStr := v.(string)
	return isStr && s == ""
}

// String converts the field value to its string form. Missing and nil values
// return "". Common scalar types avoid the fmt.Sprint path.
func (r Record) String(field string) string {
	switch t := r[field].(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

// Float returns the field as a float64. Numeric strings are parsed; missing
// or unparsable values return (0, false).
func (r Record) Float(field string) (float64, bool) { return Float(r[field]) }

// Int returns the field as an int64. Floats convert only when integral.
func (r Record) Int(field string) (int64, bool) { return Int(r[field]) }

// Float converts a single value to float64.
func Float(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Int converts a single value to int64. Floats convert only when integral.
func Int(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		if t == float64(int64(t)) {
			return int64(t), true
		}
		return 0, false
	case string:
		i, err := strconv.ParseInt(t, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// Time returns the field as a time.Time when already parsed.
func (r Record) Time(field string) (time.Time, bool) {
	t, ok := r[field].(time.Time)
	return t, ok
}
