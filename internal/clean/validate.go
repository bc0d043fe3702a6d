package clean

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"shopetl/internal/schema"
	"shopetl/pkg/records"
)

// Verdict classifies a raw record against its entity contract.
type Verdict int

const (
	// Valid records pass every rule as-is.
	Valid Verdict = iota
	// Repairable records are missing only defaultable fields; normalization
	// fills them.
	Repairable
	// Rejected records violate a hard rule and never reach normalization.
	Rejected
)

// Rejection reason categories, used as stats keys.
const (
	ReasonMissingRequired = "missing_required"
	ReasonBadType         = "bad_type"
	ReasonRange           = "range"
	ReasonSumCheck        = "sum_check"
	ReasonBadDate         = "bad_date"
)

// RejectedRow is handed to the optional reject sink for observability.
type RejectedRow struct {
	Raw    records.Record
	Reason string
	Stage  string
}

// Validator checks raw records against a schema.Contract. Per-field metadata
// is precomputed once so the per-record path stays cheap over large batches.
type Validator struct {
	Contract schema.Contract
	Reject   func(RejectedRow) // optional sink for rejected rows

	metaOnce sync.Once
	meta     []fieldMeta
}

type fieldMeta struct {
	name        string
	kind        string
	key         bool
	required    bool
	positive    bool
	min, max    *float64
	defaultable bool
	layouts     []string
}

func (v *Validator) buildMeta() {
	v.metaOnce.Do(func() {
		v.meta = make([]fieldMeta, 0, len(v.Contract.Fields))
		for _, f := range v.Contract.Fields {
			v.meta = append(v.meta, fieldMeta{
				name:        f.Name,
				kind:        f.Type,
				key:         f.Key,
				required:    f.Required,
				positive:    f.Positive,
				min:         f.Min,
				max:         f.Max,
				defaultable: f.Default != "",
				layouts:     f.DateLayouts(),
			})
		}
	})
}

// Apply filters a batch: Valid and Repairable records pass through in input
// order, Rejected records are dropped and counted on st.
func (v *Validator) Apply(in []records.Record, st *Stats) []records.Record {
	v.buildMeta()
	out := make([]records.Record, 0, len(in))
	for _, rec := range in {
		verdict, category, detail := v.Classify(rec)
		switch verdict {
		case Rejected:
			st.reject(category)
			if v.Reject != nil {
				v.Reject(RejectedRow{Raw: rec, Reason: detail, Stage: "validate"})
			}
		case Repairable:
			st.Repaired++
			out = append(out, rec)
		default:
			st.Valid++
			out = append(out, rec)
		}
	}
	return out
}

// Classify returns the verdict for a single raw record plus the reason
// category and a human-readable detail for rejections.
func (v *Validator) Classify(r records.Record) (Verdict, string, string) {
	v.buildMeta()

	verdict := Valid
	for i := range v.meta {
		fm := &v.meta[i]

		if r.Empty(fm.name) {
			switch {
			case fm.key:
				return Rejected, ReasonMissingRequired, fmt.Sprintf("key field %q missing", fm.name)
			case fm.defaultable:
				verdict = Repairable
			case fm.required:
				return Rejected, ReasonMissingRequired, fmt.Sprintf("required field %q missing", fm.name)
			}
			continue
		}

		switch fm.kind {
		case "float":
			f, ok := r.Float(fm.name)
			if !ok {
				return Rejected, ReasonBadType, fmt.Sprintf("field %q: %q not numeric", fm.name, r.String(fm.name))
			}
			if reason := checkBounds(fm, f); reason != "" {
				return Rejected, ReasonRange, reason
			}
		case "int":
			n, ok := r.Int(fm.name)
			if !ok {
				return Rejected, ReasonBadType, fmt.Sprintf("field %q: %q not an integer", fm.name, r.String(fm.name))
			}
			if reason := checkBounds(fm, float64(n)); reason != "" {
				return Rejected, ReasonRange, reason
			}
		case "bool":
			if _, ok := parseBool(r[fm.name]); !ok {
				return Rejected, ReasonBadType, fmt.Sprintf("field %q: %q not a recognized boolean", fm.name, r.String(fm.name))
			}
		case "date":
			if _, ok := parseDate(r[fm.name], fm.layouts); !ok {
				return Rejected, ReasonBadDate, fmt.Sprintf("field %q: invalid date %q", fm.name, r.String(fm.name))
			}
		}
	}

	for _, c := range v.Contract.Checks {
		total, ok := r.Float(c.Total)
		if !ok {
			continue // unparsable parts already rejected above
		}
		parts := make([]float64, 0, len(c.Parts))
		allOK := true
		for _, p := range c.Parts {
			f, ok := r.Float(p)
			if !ok {
				allOK = false
				break
			}
			parts = append(parts, f)
		}
		if !allOK {
			continue
		}
		if !c.Holds(total, parts) {
			return Rejected, ReasonSumCheck, fmt.Sprintf(
				"field %q = %v inconsistent with sum of %v", c.Total, total, c.Parts)
		}
	}

	return verdict, "", ""
}

func checkBounds(fm *fieldMeta, f float64) string {
	if fm.positive && f <= 0 {
		return fmt.Sprintf("field %q: %v must be > 0", fm.name, f)
	}
	if fm.min != nil && f < *fm.min {
		return fmt.Sprintf("field %q: %v below minimum %v", fm.name, f, *fm.min)
	}
	if fm.max != nil && f > *fm.max {
		return fmt.Sprintf("field %q: %v above maximum %v", fm.name, f, *fm.max)
	}
	return ""
}

// Recognized boolean spellings, lowercased.
var (
	truthy = map[string]struct{}{"1": {}, "t": {}, "true": {}, "y": {}, "yes": {}}
	falsy  = map[string]struct{}{"0": {}, "f": {}, "false": {}, "n": {}, "no": {}}
)

// parseBool converts recognized boolean variants. Already-typed bools pass
// through; numeric 0/1 are accepted from JSON-decoded input.
func parseBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case float64:
		if t == 0 || t == 1 {
			return t == 1, true
		}
		return false, false
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		if _, ok := truthy[s]; ok {
			return true, true
		}
		if _, ok := falsy[s]; ok {
			return false, true
		}
		return false, false
	default:
		return false, false
	}
}

// parseDate parses the value into a canonical UTC instant, trying layouts in
// order. time.Time values pass through unchanged.
func parseDate(v any, layouts []string) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range layouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}
