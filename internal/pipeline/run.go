// Package pipeline orchestrates a full run: cleaning every entity batch in
// dependency order, then aggregating the cleaned tables into reports. The
// aggregation stage starts only after every cleaning pipeline has finished,
// so reports always see a complete, consistent snapshot.
package pipeline

import (
	"context"
	"log"
	"time"

	"shopetl/internal/aggregate"
	"shopetl/internal/clean"
	"shopetl/internal/metrics"
	"shopetl/pkg/records"
)

// Result carries everything one run produced.
type Result struct {
	Tables  Tables
	Stats   *RunStats
	Reports []aggregate.Table
	Elapsed time.Duration
}

// Run executes the two stages over the raw entity batches. inputs is keyed by
// entity name; entities with no batch clean an empty input (required-parent
// checks still apply). Any fatal error aborts the run with nothing partially
// published.
func Run(ctx context.Context, job string, inputs map[string][]records.Record) (*Result, error) {
	start := time.Now()

	cleanStart := time.Now()
	tables, stats, err := Clean(ctx, inputs)
	metrics.RecordStep(job, "clean", err, time.Since(cleanStart))
	if err != nil {
		return nil, err
	}
	for _, name := range stats.EntityNames() {
		recordEntity(job, stats.Entities[name])
	}

	aggStart := time.Now()
	reports, err := aggregate.BuildReports(tables)
	metrics.RecordStep(job, "aggregate", err, time.Since(aggStart))
	if err != nil {
		return nil, err
	}
	for _, t := range reports {
		metrics.RecordReport(job, t.Name, int64(len(t.Rows)))
	}

	elapsed := time.Since(start)
	log.Printf("run %q: %d entities cleaned, %d reports built in %s",
		job, len(tables), len(reports), elapsed.Round(time.Millisecond))
	return &Result{Tables: tables, Stats: stats, Reports: reports, Elapsed: elapsed}, nil
}

func recordEntity(job string, st *clean.Stats) {
	metrics.RecordRow(job, st.Entity, "input", int64(st.Input))
	metrics.RecordRow(job, st.Entity, "cleaned", int64(st.Output))
	metrics.RecordRow(job, st.Entity, "rejected", int64(st.RejectedTotal()))
	metrics.RecordRow(job, st.Entity, "duplicates", int64(st.Duplicates))
	metrics.RecordRow(job, st.Entity, "unresolved", int64(st.Unresolved))
}
