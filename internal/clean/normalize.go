package clean

import (
	"fmt"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"shopetl/internal/schema"
	"shopetl/pkg/records"
)

// scrubber canonicalizes string values: NFC unicode normalization plus
// mapping non-breaking spaces to plain spaces. Exports from spreadsheet-ish
// tools routinely carry both problems.
var scrubber = transform.Chain(
	norm.NFC,
	runes.Map(func(r rune) rune {
		if r == ' ' {
			return ' '
		}
		return r
	}),
)

func scrub(s string) string {
	out, _, err := transform.String(scrubber, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(out)
}

// Normalizer produces the canonical form of validated records: scrubbed and
// case-normalized strings, parsed timestamps, typed numerics and booleans,
// defaults filled for repairable fields. Output records carry exactly the
// contract's fields, so cleaned tables have a fixed shape regardless of
// stray input columns.
//
// Normalization is deterministic: identical input yields identical output.
type Normalizer struct {
	Contract schema.Contract
	Reject   func(RejectedRow) // records whose dates fail to parse post-scrub
}

// Apply normalizes each record into a fresh Record. A record whose date
// field cannot be parsed is reclassified as rejected here (the validator saw
// the raw value; scrubbing can still surface an unparsable one) and dropped.
func (n Normalizer) Apply(in []records.Record, st *Stats) []records.Record {
	out := make([]records.Record, 0, len(in))
	for _, rec := range in {
		canon, err := n.normalize(rec)
		if err != nil {
			st.reject(ReasonBadDate)
			if n.Reject != nil {
				n.Reject(RejectedRow{Raw: rec, Reason: err.Error(), Stage: "normalize"})
			}
			continue
		}
		out = append(out, canon)
	}
	return out
}

func (n Normalizer) normalize(r records.Record) (records.Record, error) {
	canon := make(records.Record, len(n.Contract.Fields))

	for _, f := range n.Contract.Fields {
		if r.Empty(f.Name) {
			if f.Default != "" {
				canon[f.Name] = n.resolveDefault(f, canon, r)
			}
			continue
		}

		v := r[f.Name]
		if s, ok := v.(string); ok {
			s = scrub(s)
			if s == "" {
				if f.Default != "" {
					canon[f.Name] = n.resolveDefault(f, canon, r)
				}
				continue
			}
			v = s
		}

		switch f.Type {
		case "float":
			if fv, ok := records.Float(v); ok {
				v = fv
			}
		case "int":
			if iv, ok := records.Int(v); ok {
				v = iv
			}
		case "bool":
			if bv, ok := parseBool(v); ok {
				v = bv
			}
		case "date":
			tv, ok := parseDate(v, f.DateLayouts())
			if !ok {
				return nil, fmt.Errorf("field %q: unparsable date %v", f.Name, v)
			}
			v = tv
		default:
			if s, ok := v.(string); ok && f.Upper {
				v = strings.ToUpper(s)
			}
		}

		canon[f.Name] = v
	}

	return canon, nil
}

// resolveDefault returns the fill value for a missing field. "@name" copies
// the record's own name field (product descriptions default to the name).
func (n Normalizer) resolveDefault(f schema.Field, canon, raw records.Record) any {
	if strings.HasPrefix(f.Default, "@") {
		src := strings.TrimPrefix(f.Default, "@")
		if !canon.Empty(src) {
			return canon[src]
		}
		if !raw.Empty(src) {
			return scrub(raw.String(src))
		}
		return f.Default
	}
	return f.Default
}
