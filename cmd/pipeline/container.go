package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"shopetl/internal/config"
	"shopetl/internal/datasource"
	"shopetl/internal/datasource/file"
	"shopetl/internal/datasource/httpds"
	"shopetl/internal/metrics"
	"shopetl/internal/parser/csv"
	"shopetl/internal/parser/jsonl"
	"shopetl/internal/pipeline"
	"shopetl/internal/storage"
	"shopetl/pkg/records"
)

// execute wires one run end to end: fetch and parse every configured source,
// clean and aggregate, then persist the report tables.
func execute(ctx context.Context, run config.Run) error {
	inputs, err := ingest(ctx, run)
	if err != nil {
		return err
	}

	result, err := pipeline.Run(ctx, run.Job, inputs)
	if err != nil {
		return err
	}

	if err := persist(ctx, run, result); err != nil {
		return err
	}

	logSummary(result)
	return nil
}

// ingest fetches and parses all sources concurrently. Entities share one HTTP
// client so retry budgets and timeouts are uniform.
func ingest(ctx context.Context, run config.Run) (map[string][]records.Record, error) {
	start := time.Now()

	client := httpds.NewClient(httpds.Config{
		Timeout:    time.Duration(run.Runtime.HTTPTimeoutSeconds) * time.Second,
		MaxRetries: run.Runtime.HTTPRetries,
	})

	var mu sync.Mutex
	inputs := make(map[string][]records.Record, len(run.Sources))

	g, ctx := errgroup.WithContext(ctx)
	for name, src := range run.Sources {
		name, src := name, src
		g.Go(func() error {
			recs, skipped, err := readSource(ctx, client, src)
			if err != nil {
				return fmt.Errorf("source %s: %w", name, err)
			}
			log.Printf("%s: parsed %d records (%d skipped)", name, len(recs), skipped)
			mu.Lock()
			inputs[name] = recs
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	metrics.RecordStep(run.Job, "ingest", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return inputs, nil
}

// readSource opens one source and parses its bytes per the configured format.
func readSource(ctx context.Context, client *httpds.Client, src config.Source) ([]records.Record, int, error) {
	var ds datasource.Source
	switch src.Kind {
	case "file":
		ds = file.NewLocal(src.File.Path)
	case "http":
		hdr := http.Header{}
		for k, v := range src.HTTP.Headers {
			hdr.Set(k, v)
		}
		ds = httpds.NewSource(client, src.HTTP.URL, hdr)
	default:
		return nil, 0, fmt.Errorf("unknown source kind %q", src.Kind)
	}

	rc, err := ds.Open(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer rc.Close()

	switch src.Format {
	case "csv":
		p := csv.NewParser(csv.Options{
			HasHeader:      src.Options.Bool("has_header", true),
			Comma:          src.Options.Rune("comma", ','),
			TrimSpace:      src.Options.Bool("trim_space", true),
			ExpectedFields: src.Options.Int("expected_fields", 0),
			HeaderMap:      src.Options.StringMap("header_map"),
		})
		return p.Parse(rc)
	case "jsonl":
		p := jsonl.NewParser(jsonl.Options{
			KeyMap: src.Options.StringMap("key_map"),
		})
		return p.Parse(rc)
	default:
		return nil, 0, fmt.Errorf("unknown source format %q", src.Format)
	}
}

// persist writes every report through the configured storage backend.
func persist(ctx context.Context, run config.Run, result *pipeline.Result) error {
	start := time.Now()

	repo, err := storage.New(ctx, storage.Config{
		Kind:        run.Storage.Kind,
		Dir:         run.Storage.CSVDir.Dir,
		DSN:         run.Storage.DB.DSN,
		TablePrefix: run.Storage.DB.TablePrefix,
		BatchSize:   run.Runtime.BatchSize,
	})
	if err != nil {
		metrics.RecordStep(run.Job, "persist", err, time.Since(start))
		return err
	}
	defer repo.Close()

	for _, t := range result.Reports {
		if err := repo.EnsureTable(ctx, t); err != nil {
			metrics.RecordStep(run.Job, "persist", err, time.Since(start))
			return err
		}
		n, err := repo.CopyFrom(ctx, t)
		if err != nil {
			metrics.RecordStep(run.Job, "persist", err, time.Since(start))
			return err
		}
		log.Printf("report %s: wrote %d rows", t.Name, n)
	}

	metrics.RecordStep(run.Job, "persist", nil, time.Since(start))
	return nil
}

// logSummary prints the end-of-run accounting: what came in, what survived
// cleaning, and what each report holds.
func logSummary(result *pipeline.Result) {
	for _, name := range result.Stats.EntityNames() {
		st := result.Stats.Entities[name]
		log.Printf("summary %s: input=%d output=%d rejected=%d duplicates=%d unresolved=%d",
			name, st.Input, st.Output, st.RejectedTotal(), st.Duplicates, st.Unresolved)
	}
	for _, t := range result.Reports {
		log.Printf("summary report %s: %d rows", t.Name, len(t.Rows))
	}
}
