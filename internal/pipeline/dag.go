package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"shopetl/internal/clean"
	"shopetl/internal/entity"
	"shopetl/pkg/records"
)

// Tables maps entity name to its published, immutable cleaned table.
type Tables map[string][]records.Record

// RunStats collects the per-entity cleaning accumulators for one run.
type RunStats struct {
	mu       sync.Mutex
	Entities map[string]*clean.Stats
}

// NewRunStats returns an empty accumulator set.
func NewRunStats() *RunStats {
	return &RunStats{Entities: map[string]*clean.Stats{}}
}

func (rs *RunStats) add(st *clean.Stats) {
	rs.mu.Lock()
	rs.Entities[st.Entity] = st
	rs.mu.Unlock()
}

// EntityNames returns the recorded entities in sorted order, for
// deterministic summaries.
func (rs *RunStats) EntityNames() []string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	names := make([]string, 0, len(rs.Entities))
	for n := range rs.Entities {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// topoCheck verifies the specs form a DAG with known parents. The pipeline
// schedules by waiting on parent completion channels rather than walking a
// precomputed order, but a cycle or dangling parent would deadlock, so it is
// rejected up front.
func topoCheck(specs []entity.Spec) error {
	known := make(map[string]struct{}, len(specs))
	for _, s := range specs {
		known[s.Name] = struct{}{}
	}

	indegree := make(map[string]int, len(specs))
	children := make(map[string][]string)
	for _, s := range specs {
		indegree[s.Name] += 0
		for _, p := range s.Parents() {
			if _, ok := known[p]; !ok {
				return fmt.Errorf("entity %q references unknown parent %q", s.Name, p)
			}
			indegree[s.Name]++
			children[p] = append(children[p], s.Name)
		}
	}

	queue := make([]string, 0, len(specs))
	for name, d := range indegree {
		if d == 0 {
			queue = append(queue, name)
		}
	}
	visited := 0
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		visited++
		for _, c := range children[n] {
			indegree[c]--
			if indegree[c] == 0 {
				queue = append(queue, c)
			}
		}
	}
	if visited != len(specs) {
		var rem []string
		for name, d := range indegree {
			if d > 0 {
				rem = append(rem, name)
			}
		}
		sort.Strings(rem)
		return &CycleError{Remaining: rem}
	}
	return nil
}

// Clean runs every entity's cleaning pipeline, scheduling each one as soon as
// all of its parents have published their cleaned tables. Root entities run
// concurrently. Published tables are never mutated afterwards; the handoff is
// a one-time write under the table lock before the entity's done channel
// closes.
func Clean(ctx context.Context, inputs map[string][]records.Record) (Tables, *RunStats, error) {
	specs := entity.Specs()
	if err := topoCheck(specs); err != nil {
		return nil, nil, err
	}

	done := make(map[string]chan struct{}, len(specs))
	for _, s := range specs {
		done[s.Name] = make(chan struct{})
	}

	var mu sync.Mutex
	tables := make(Tables, len(specs))
	stats := NewRunStats()

	g, ctx := errgroup.WithContext(ctx)
	for _, s := range specs {
		s := s
		g.Go(func() error {
			defer close(done[s.Name])

			for _, p := range s.Parents() {
				select {
				case <-done[p]:
				case <-ctx.Done():
					return ctx.Err()
				}
			}

			mu.Lock()
			parentTables := make(map[string][]records.Record, len(s.Refs))
			for _, r := range s.Refs {
				parentTables[r.Parent] = tables[r.Parent]
			}
			mu.Unlock()

			for _, p := range s.RequiredParents() {
				if len(parentTables[p]) == 0 {
					return &EmptyParentError{Entity: s.Name, Parent: p, Input: len(inputs[s.Name])}
				}
			}

			refs := make([]clean.ParentRef, 0, len(s.Refs))
			for _, r := range s.Refs {
				refs = append(refs, clean.ParentRef{
					Field:     r.Field,
					Parents:   clean.KeysOf(parentTables[r.Parent], r.ParentField),
					Advisory:  r.Advisory,
					FlagField: r.FlagField,
				})
			}

			out, st := clean.NewPipeline(s.Name, s.Contract, refs).Run(inputs[s.Name])
			stats.add(st)

			mu.Lock()
			tables[s.Name] = out
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, stats, err
	}
	return tables, stats, nil
}
