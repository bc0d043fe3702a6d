// Package config provides configuration models and helpers for pipeline runs.
//
// This file adds a lightweight linter/validator for Run values. It performs
// static checks over a decoded Run and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"sort"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Run.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "sources.orders.file.path"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidateRun performs static validation / linting of a Run.
//
// It does not mutate the run. Instead it returns a slice of Issue values;
// callers may decide whether to treat warnings as fatal or not. entities
// names the inputs the pipeline expects, so missing or surplus source entries
// can be flagged.
//
// Example:
//
//	r, err := config.Load(path)
//	if err != nil { ... }
//	issues := config.ValidateRun(r, entity.Names())
//	for _, iss := range issues {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func ValidateRun(r Run, entities []string) []Issue {
	var issues []Issue

	if strings.TrimSpace(r.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}

	issues = append(issues, validateSources(r.Sources, entities)...)
	issues = append(issues, validateStorage(r.Storage)...)
	issues = append(issues, validateRuntime(r.Runtime)...)

	return issues
}

func validateSources(sources map[string]Source, entities []string) []Issue {
	var issues []Issue

	known := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		known[e] = struct{}{}
		if _, ok := sources[e]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "sources." + e,
				Message:  "no source configured for this entity",
			})
		}
	}

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		s := sources[name]
		path := "sources." + name

		if _, ok := known[name]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path,
				Message:  "source does not match any known entity and will be ignored",
			})
		}
		issues = append(issues, validateSource(path, s)...)
	}

	return issues
}

func validateSource(path string, s Source) []Issue {
	var issues []Issue

	switch s.Kind {
	case "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".kind",
			Message:  "source kind must not be empty",
		})
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".file.path",
				Message:  "file source requires a non-empty path",
			})
		}
	case "http":
		if strings.TrimSpace(s.HTTP.URL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".http.url",
				Message:  "http source requires a non-empty url",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     path + ".kind",
			Message:  fmt.Sprintf("unknown source kind %q; ensure a matching implementation exists", s.Kind),
		})
	}

	switch s.Format {
	case "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".format",
			Message:  "source format must not be empty",
		})
	case "csv":
		expected := s.Options.Int("expected_fields", 0)
		headerMap := s.Options.Any("header_map")
		if expected == 0 && headerMap == nil {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path + ".options",
				Message:  "csv source has neither expected_fields nor header_map; consider constraining input shape",
			})
		}
	case "jsonl":
		// No format-specific options yet.
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     path + ".format",
			Message:  fmt.Sprintf("unknown source format %q; ensure a matching parser exists", s.Format),
		})
	}

	return issues
}

// validateStorage validates storage configuration and DB settings.
func validateStorage(s Storage) []Issue {
	var issues []Issue

	switch s.Kind {
	case "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
	case "csvdir":
		if strings.TrimSpace(s.CSVDir.Dir) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.csvdir.dir",
				Message:  "csvdir storage requires a non-empty dir",
			})
		}
	case "sqlite", "postgres":
		if strings.TrimSpace(s.DB.DSN) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.db.dsn",
				Message:  "storage.db.dsn must not be empty",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}

	return issues
}

// validateRuntime validates RuntimeConfig for obvious misconfigurations.
func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  "batch_size must not be negative",
		})
	}
	if r.HTTPTimeoutSeconds < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.http_timeout_seconds",
			Message:  "http_timeout_seconds must not be negative",
		})
	}
	if r.HTTPRetries < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.http_retries",
			Message:  "http_retries must not be negative",
		})
	}

	return issues
}
