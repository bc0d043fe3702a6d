package clean

// Stats accumulates per-entity counts for one cleaning run. It is owned by a
// single entity pipeline (no locking); runs are independent, so stats are
// returned alongside the cleaned table rather than kept in process-wide state.
type Stats struct {
	Entity string

	Input    int // raw records received
	Valid    int // classified Valid
	Repaired int // classified Repairable and successfully defaulted

	// Rejected counts records dropped per reason category (see reason
	// constants in validate.go and refcheck.go).
	Rejected map[string]int

	Duplicates int // records collapsed by de-duplication
	Unresolved int // advisory references left unresolved (records kept)

	Output int // records in the published cleaned table
}

// NewStats returns an initialized Stats for the entity.
func NewStats(entity string) *Stats {
	return &Stats{Entity: entity, Rejected: map[string]int{}}
}

// reject counts one rejected record under the reason category.
func (s *Stats) reject(category string) {
	s.Rejected[category]++
}

// RejectedTotal sums rejections across all reason categories.
func (s *Stats) RejectedTotal() int {
	var n int
	for _, c := range s.Rejected {
		n += c
	}
	return n
}
