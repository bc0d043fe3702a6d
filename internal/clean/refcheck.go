package clean

import (
	"fmt"

	"shopetl/pkg/records"
)

// ReasonUnresolvedRef prefixes the per-field rejection categories emitted by
// RefCheck, e.g. "unresolved_ref:customer".
const ReasonUnresolvedRef = "unresolved_ref"

// KeySet is an index of a cleaned parent table's primary key values.
type KeySet map[string]struct{}

// KeysOf builds a KeySet over field across a cleaned table.
func KeysOf(table []records.Record, field string) KeySet {
	ks := make(KeySet, len(table))
	for _, rec := range table {
		if !rec.Empty(field) {
			ks[rec.String(field)] = struct{}{}
		}
	}
	return ks
}

// Has reports membership.
func (ks KeySet) Has(key string) bool {
	_, ok := ks[key]
	return ok
}

// ParentRef binds a child field to a resolved parent key set.
type ParentRef struct {
	Field   string
	Parents KeySet

	// Advisory refs keep unresolved records and tag FlagField instead of
	// rejecting (ticket analytics do not depend on order linkage).
	Advisory  bool
	FlagField string
}

// RefCheck drops child records whose required foreign keys do not resolve
// against already-cleaned parent tables, and tags advisory references. It
// must run after every referenced parent has published its cleaned table.
type RefCheck struct {
	Refs   []ParentRef
	Reject func(RejectedRow)
}

// Apply filters the batch, counting each hard-reference failure per field on
// st and counting retained-but-unresolved advisory references.
func (c RefCheck) Apply(in []records.Record, st *Stats) []records.Record {
	if len(c.Refs) == 0 {
		return in
	}

	out := make([]records.Record, 0, len(in))
next:
	for _, rec := range in {
		for _, ref := range c.Refs {
			if ref.Advisory {
				resolved := !rec.Empty(ref.Field) && ref.Parents.Has(rec.String(ref.Field))
				rec[ref.FlagField] = resolved
				if !resolved {
					st.Unresolved++
				}
				continue
			}
			if rec.Empty(ref.Field) || !ref.Parents.Has(rec.String(ref.Field)) {
				st.reject(ReasonUnresolvedRef + ":" + ref.Field)
				if c.Reject != nil {
					c.Reject(RejectedRow{
						Raw:    rec,
						Reason: fmt.Sprintf("field %q: %q has no parent", ref.Field, rec.String(ref.Field)),
						Stage:  "refcheck",
					})
				}
				continue next
			}
		}
		out = append(out, rec)
	}
	return out
}
