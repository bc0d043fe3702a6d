// Package clean implements the cleaning stage: validation against declarative
// contracts, normalization to canonical form, keep-first de-duplication, and
// referential integrity filtering. The four steps run strictly in that order
// per entity batch; each step's output is the next step's input. A malformed
// record never aborts a batch; it is dropped and counted.
package clean

import (
	"log"

	"shopetl/internal/schema"
	"shopetl/pkg/records"
)

// rejectLogLimit caps per-entity rejection detail logging; further
// rejections are still counted, just not printed.
const rejectLogLimit = 3

// Pipeline cleans one entity's raw batch. Construct with NewPipeline.
type Pipeline struct {
	Entity   string
	validate *Validator
	norm     Normalizer
	dedup    DeDup
	refs     RefCheck
}

// NewPipeline wires the four cleaning steps for an entity. refs may be empty
// for root entities.
func NewPipeline(entity string, contract schema.Contract, refs []ParentRef) *Pipeline {
	var logged int
	sink := func(r RejectedRow) {
		if logged < rejectLogLimit {
			log.Printf("%s: %s reject: %s", entity, r.Stage, r.Reason)
		}
		if logged == rejectLogLimit {
			log.Printf("%s: further rejections suppressed", entity)
		}
		logged++
	}

	return &Pipeline{
		Entity:   entity,
		validate: &Validator{Contract: contract, Reject: sink},
		norm:     Normalizer{Contract: contract, Reject: sink},
		dedup:    DeDup{Keys: contract.Keys},
		refs:     RefCheck{Refs: refs, Reject: sink},
	}
}

// Run produces the cleaned, immutable table for the entity plus its stats
// accumulator. The input batch is not mutated; normalization builds fresh
// records, so running twice over the same input yields identical output.
func (p *Pipeline) Run(in []records.Record) ([]records.Record, *Stats) {
	st := NewStats(p.Entity)
	st.Input = len(in)

	out := p.validate.Apply(in, st)
	out = p.norm.Apply(out, st)
	out = p.dedup.Apply(out, st)
	out = p.refs.Apply(out, st)

	st.Output = len(out)
	log.Printf("%s: cleaned %d of %d (rejected=%d duplicates=%d unresolved=%d)",
		p.Entity, st.Output, st.Input, st.RejectedTotal(), st.Duplicates, st.Unresolved)
	return out, st
}
