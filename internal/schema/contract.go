// Package schema defines the declarative field contracts the cleaning stage
// validates and normalizes against. A Contract describes one entity: its
// fields, primary key, and cross-field consistency checks. Rules are data,
// not code, so new entities compose without touching the pipeline.
package schema

import "math"

// Field describes the rules for a single column of an entity.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"` // "text" | "float" | "int" | "bool" | "date"

	// Key marks a critical identifier. Key fields are never defaulted;
	// a missing key rejects the record outright.
	Key bool `json:"key,omitempty"`

	// Required rejects records where the field is missing or empty and no
	// Default is configured.
	Required bool `json:"required,omitempty"`

	// Positive rejects numeric values <= 0 (prices, costs, quantities).
	Positive bool `json:"positive,omitempty"`

	// Min/Max bound numeric values inclusively when non-nil (e.g. tax rates).
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`

	// Default fills a missing value during normalization. A field with a
	// Default is repairable rather than rejected when absent. The special
	// value "@name" copies the record's "name" field.
	Default string `json:"default,omitempty"`

	// Upper uppercases the value during normalization (SKU convention).
	Upper bool `json:"upper,omitempty"`

	// Layouts lists the date layouts tried in order for "date" fields.
	// When empty, DefaultDateLayouts applies.
	Layouts []string `json:"layouts,omitempty"`
}

// SumCheck asserts that Total equals the sum of Parts within a relative
// tolerance. Violations reject the record; they are never silently corrected.
type SumCheck struct {
	Total  string   `json:"total"`
	Parts  []string `json:"parts"`
	RelTol float64  `json:"rel_tol"`
}

// Holds reports whether the check passes for the given values. The tolerance
// is relative to the total's magnitude with a floor of 1.0 so near-zero
// totals are not over-rejected.
func (c SumCheck) Holds(total float64, parts []float64) bool {
	var sum float64
	for _, p := range parts {
		sum += p
	}
	scale := math.Abs(total)
	if scale < 1 {
		scale = 1
	}
	return math.Abs(total-sum) <= c.RelTol*scale
}

// Contract is the full rule set for one entity.
type Contract struct {
	Name   string     `json:"name"`
	Fields []Field    `json:"fields"`
	Keys   []string   `json:"keys"` // primary key fields, in order
	Checks []SumCheck `json:"checks,omitempty"`
}

// DefaultDateLayouts are tried in order for date fields without explicit
// layouts. ISO forms first; the slash form shows up in older exports.
var DefaultDateLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// FieldByName returns the field definition, or nil when absent.
func (c Contract) FieldByName(name string) *Field {
	for i := range c.Fields {
		if c.Fields[i].Name == name {
			return &c.Fields[i]
		}
	}
	return nil
}

// DateLayouts returns the layouts to try for f.
func (f Field) DateLayouts() []string {
	if len(f.Layouts) > 0 {
		return f.Layouts
	}
	return DefaultDateLayouts
}

// F64 is a convenience for building *float64 bounds in contract literals.
func F64(v float64) *float64 { return &v }
