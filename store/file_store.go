// Package store reads and writes the CTRF report file. It is the only
// component that touches the filesystem: the manager asks it for data
// from a previous run at start, and hands it the composed report at
// finish. Read problems of any kind (missing file, permissions,
// malformed JSON) are treated as "no previous report" and logged, never
// surfaced, so a reporting problem can never abort the host test run.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/testforge/ctrf-collector/ctrf"
)

// FileStore persists CTRF reports to a single file path.
type FileStore struct {
	path   string
	schema *jsonschema.Schema
	log    zerolog.Logger
}

// NewFileStore creates a store for the given report path.
func NewFileStore(path string, log zerolog.Logger) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("report path is required")
	}
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	return &FileStore{path: path, schema: schema, log: log}, nil
}

// Path returns the report file path.
func (s *FileStore) Path() string {
	return s.path
}

// LoadPreviousStartTime returns the run start time recorded by a
// previous run sharing this report path, or nil if there is none.
// Reusing it preserves elapsed-time accounting across reruns.
func (s *FileStore) LoadPreviousStartTime() *int64 {
	report := s.readExisting()
	if report == nil || report.Results.Summary.Start == 0 {
		return nil
	}
	start := report.Results.Summary.Start
	return &start
}

// LoadPreviousTests returns the completed tests from a previous run in
// their original order, or nil if there is no readable previous report.
func (s *FileStore) LoadPreviousTests() []ctrf.Test {
	report := s.readExisting()
	if report == nil {
		return nil
	}
	return report.Results.Tests
}

// LoadPreviousEnvironmentHealthy returns the environment health
// recorded by a previous run. Absent report, section or field all mean
// healthy.
func (s *FileStore) LoadPreviousEnvironmentHealthy() bool {
	report := s.readExisting()
	if report == nil || report.Results.Environment == nil || report.Results.Environment.Healthy == nil {
		return true
	}
	return *report.Results.Environment.Healthy
}

// Persist writes the report, creating parent directories as needed.
// The marshaled document is checked against the embedded CTRF schema
// first; a violation is logged but does not block the write, since a
// best-effort report beats none.
func (s *FileStore) Persist(report *ctrf.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	if err := validateReport(s.schema, data); err != nil {
		s.log.Warn().Err(err).Msg("composed report failed schema validation")
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing report to %s: %w", s.path, err)
	}
	s.log.Info().Str("path", s.path).Str("report_id", report.ReportID).Msg("CTRF report written")
	return nil
}

// readExisting reads the report at the configured path, swallowing all
// errors. A present file means tests might have been rerun.
func (s *FileStore) readExisting() *ctrf.Report {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("path", s.path).Msg("failed to read existing report file")
		}
		return nil
	}

	var report ctrf.Report
	if err := json.Unmarshal(data, &report); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("existing report file is not valid CTRF JSON")
		return nil
	}
	s.log.Info().Str("path", s.path).Msg("report file already exists, tests might have been rerun")
	return &report
}
