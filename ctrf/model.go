// Package ctrf defines the Common Test Report Format (CTRF) document
// model. Field names and optionality follow the CTRF JSON schema;
// absent values are omitted from the serialized report rather than
// emitted as null.
package ctrf

// ReportFormat and SpecVersion are fixed by the CTRF specification.
const (
	ReportFormat = "CTRF"
	SpecVersion  = "0.0.0"
)

// InitializationError is the synthetic test name used for suite and
// container level setup failures, the name most CTRF consumers already
// recognize for this case.
const InitializationError = "initializationError"

// TestStatus represents the possible states of a completed test.
type TestStatus string

const (
	TestStatusPassed  TestStatus = "passed"
	TestStatusFailed  TestStatus = "failed"
	TestStatusSkipped TestStatus = "skipped"
	TestStatusPending TestStatus = "pending"
	TestStatusOther   TestStatus = "other"
)

// Report is the top-level CTRF document.
type Report struct {
	ReportFormat string  `json:"reportFormat"`
	SpecVersion  string  `json:"specVersion"`
	ReportID     string  `json:"reportId,omitempty"`
	Timestamp    string  `json:"timestamp,omitempty"`
	GeneratedBy  string  `json:"generatedBy,omitempty"`
	Results      Results `json:"results"`
}

// Results groups the tool, summary, test list and environment sections.
type Results struct {
	Tool        Tool         `json:"tool"`
	Summary     Summary      `json:"summary"`
	Tests       []Test       `json:"tests"`
	Environment *Environment `json:"environment,omitempty"`
}

// Tool identifies the test tool that produced the results.
type Tool struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// Summary holds per-status counts and run timing.
type Summary struct {
	Tests   int           `json:"tests"`
	Passed  int           `json:"passed"`
	Failed  int           `json:"failed"`
	Pending int           `json:"pending"`
	Skipped int           `json:"skipped"`
	Other   int           `json:"other"`
	Start   int64         `json:"start"`
	Stop    int64         `json:"stop"`
	Extra   *SummaryExtra `json:"extra,omitempty"`
}

// SummaryExtra carries non-standard summary additions.
type SummaryExtra struct {
	// StartupDuration is the gap in milliseconds between the run start
	// and the first test start.
	StartupDuration int64 `json:"startupDuration"`
}

// Test is a single finalized test record. A record is immutable once
// appended to a report; retries and flaky are computed before that.
type Test struct {
	Name     string     `json:"name"`
	Status   TestStatus `json:"status"`
	Duration int64      `json:"duration"`
	Start    int64      `json:"start,omitempty"`
	Stop     int64      `json:"stop,omitempty"`
	Message  string     `json:"message,omitempty"`
	Trace    string     `json:"trace,omitempty"`
	Tags     []string   `json:"tags,omitempty"`
	Filepath string     `json:"filepath,omitempty"`
	Retries  *int       `json:"retries,omitempty"`
	Flaky    *bool      `json:"flaky,omitempty"`
	ThreadID string     `json:"threadId,omitempty"`
}

// Environment describes where the run executed. Healthy is always
// emitted; everything else is optional metadata from settings.
type Environment struct {
	ReportName      string `json:"reportName,omitempty"`
	AppName         string `json:"appName,omitempty"`
	AppVersion      string `json:"appVersion,omitempty"`
	BuildName       string `json:"buildName,omitempty"`
	BuildNumber     string `json:"buildNumber,omitempty"`
	BuildURL        string `json:"buildUrl,omitempty"`
	RepositoryName  string `json:"repositoryName,omitempty"`
	RepositoryURL   string `json:"repositoryUrl,omitempty"`
	Commit          string `json:"commit,omitempty"`
	BranchName      string `json:"branchName,omitempty"`
	OSPlatform      string `json:"osPlatform,omitempty"`
	OSRelease       string `json:"osRelease,omitempty"`
	OSVersion       string `json:"osVersion,omitempty"`
	TestEnvironment string `json:"testEnvironment,omitempty"`
	Healthy         *bool  `json:"healthy,omitempty"`
}

// IsSynthetic reports whether this record was synthesized from a suite
// or container level failure rather than an individual test.
func (t *Test) IsSynthetic() bool {
	return t.Name == InitializationError
}
