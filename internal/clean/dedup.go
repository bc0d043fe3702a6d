package clean

import (
	"github.com/zeebo/xxh3"

	"shopetl/pkg/records"
)

// DeDup collapses duplicate primary keys within a normalized batch. The
// tie-break is fixed: the first occurrence in input order wins. Picking an
// arbitrary duplicate would make repeated runs diverge, so the policy is
// deliberate and covered by tests.
//
// Keys are hashed with xxh3 over the concatenated key fields; a 64-bit hash
// set is far cheaper than string-keyed maps at the row counts this pipeline
// handles, and collisions are not a practical concern at that scale.
type DeDup struct {
	Keys []string
}

// Apply returns one record per distinct key, preserving input order, and
// counts removed duplicates on st. Run after Normalize so key fields are in
// canonical form (trimmed, case-normalized).
func (d DeDup) Apply(in []records.Record, st *Stats) []records.Record {
	if len(in) == 0 || len(d.Keys) == 0 {
		return in
	}

	seen := make(map[uint64]struct{}, len(in))
	out := make([]records.Record, 0, len(in))

	buf := make([]byte, 0, 64)
	for _, rec := range in {
		buf = buf[:0]
		for i, k := range d.Keys {
			if i > 0 {
				buf = append(buf, 0x1f)
			}
			buf = append(buf, rec.String(k)...)
		}
		h := xxh3.Hash(buf)
		if _, dup := seen[h]; dup {
			st.Duplicates++
			continue
		}
		seen[h] = struct{}{}
		out = append(out, rec)
	}
	return out
}
