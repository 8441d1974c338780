// Package manager owns the run lifecycle: it consumes normalized test
// events, tracks in-flight and completed tests, detects reruns and
// flaky tests, synthesizes suite-level failures, and composes the final
// CTRF report at finish time. All event methods are safe for
// concurrent invocation from parallel test workers.
package manager

import (
	"errors"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/testforge/ctrf-collector/config"
	"github.com/testforge/ctrf-collector/ctrf"
	"github.com/testforge/ctrf-collector/event"
	"github.com/testforge/ctrf-collector/tracker"
)

// Store is the persistence gateway the manager talks to. Load methods
// never fail; unreadable previous reports surface as zero values.
type Store interface {
	LoadPreviousStartTime() *int64
	LoadPreviousTests() []ctrf.Test
	LoadPreviousEnvironmentHealthy() bool
	Persist(report *ctrf.Report) error
}

// Config holds the manager dependencies.
type Config struct {
	Settings config.Settings
	Store    Store
	Log      zerolog.Logger

	// Now returns the current time in epoch milliseconds. Nil means
	// wall clock; tests inject a fake.
	Now func() int64
}

// Manager is the run lifecycle controller. One Manager instance covers
// one report path; the composing entry point owns its lifecycle and
// may share it between several event-source adapters.
type Manager struct {
	settings config.Settings
	store    Store
	log      zerolog.Logger
	now      func() int64

	registry *tracker.Registry
	ledger   *tracker.Ledger

	started   atomic.Bool
	healthy   atomic.Bool
	runStart  atomic.Int64
	generator atomic.Value // string
}

var _ event.Sink = (*Manager)(nil)

// New creates a Manager. The environment-health variable is consulted
// immediately so tests that never emit events still report an
// unhealthy environment.
func New(cfg Config) (*Manager, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	now := cfg.Now
	if now == nil {
		now = func() int64 { return time.Now().UnixMilli() }
	}

	m := &Manager{
		settings: cfg.Settings,
		store:    cfg.Store,
		log:      cfg.Log,
		now:      now,
		registry: tracker.NewRegistry(),
		ledger:   tracker.NewLedger(),
	}
	m.healthy.Store(!envForcesUnhealthy())
	return m, nil
}

// StartRun transitions the run into the started state. Only the first
// call performs initialization: it loads the previous run's start time,
// seeds the ledger with previously persisted tests, and adopts a
// previously recorded unhealthy environment. Losing concurrent callers
// are no-ops, so a per-class hook and a global listener can both call
// this safely.
func (m *Manager) StartRun(generator string) {
	if !m.started.CompareAndSwap(false, true) {
		return
	}
	m.generator.Store(generator)

	if prev := m.store.LoadPreviousStartTime(); prev != nil {
		m.runStart.Store(*prev)
	} else {
		m.runStart.Store(m.now())
	}

	if seed := m.store.LoadPreviousTests(); len(seed) > 0 {
		m.ledger.Seed(seed)
	}

	if !m.store.LoadPreviousEnvironmentHealthy() {
		m.healthy.Store(false)
	}

	m.log.Debug().Str("generator", generator).Int64("run_start", m.runStart.Load()).Msg("test run started")
}

// OnTestStart registers a test as in-flight. A zero Start is stamped
// with the current time; adapters replaying historical streams carry
// their own timestamps.
func (m *Manager) OnTestStart(details event.TestDetails) {
	if details.Start == 0 {
		details.Start = m.now()
	}
	m.registry.Put(details.ID, details)
}

// OnTestSkipped records a skipped test immediately. Skip events carry
// full identity already, so the record is built from the details alone;
// start and stop coincide and the duration is zero.
func (m *Manager) OnTestSkipped(details event.TestDetails, reason string) {
	// Consume any in-flight registration so a start followed by a skip
	// does not leave a stale entry behind, and keep its start time when
	// the skip event carries none.
	if prior, ok := m.registry.Remove(details.ID); ok && details.Start == 0 {
		details.Start = prior.Start
	}
	if details.Start == 0 {
		details.Start = m.now()
	}
	test := m.buildTest(details, details.Start)
	test.Status = ctrf.TestStatusSkipped
	if reason != "" {
		test.Message = reason
	}
	m.ledger.Append(test)
}

// OnTestPassed finalizes a passing test.
func (m *Manager) OnTestPassed(id string) {
	m.recordOutcome(id, nil, ctrf.TestStatusPassed)
}

// OnTestFailed finalizes a failing test.
func (m *Manager) OnTestFailed(id string, failure *event.Failure) {
	m.recordOutcome(id, failure, ctrf.TestStatusFailed)
}

// OnTestAborted finalizes an aborted test. Aborted outcomes are
// reported as failed with the abort cause attached; CTRF has no
// separate aborted status and downstream dashboards expect failed.
func (m *Manager) OnTestAborted(id string, failure *event.Failure) {
	m.recordOutcome(id, failure, ctrf.TestStatusFailed)
}

func (m *Manager) recordOutcome(id string, failure *event.Failure, status ctrf.TestStatus) {
	stop := m.now()

	details, ok := m.registry.Remove(id)
	if !ok {
		// Completion without a matching start. Substitute a degenerate
		// placeholder rather than dropping the outcome.
		details = event.TestDetails{DisplayName: "Unknown Test", Start: stop}
	}

	test := m.buildTest(details, stop)
	test.Status = status
	if failure != nil {
		m.setFailureDetails(&test, failure)
	}

	// All derived fields are computed before the append; once in the
	// ledger the record is immutable.
	AnalyzeFlakiness(&test, m.ledger.Snapshot())
	m.ledger.Append(test)
}

// FinishRun transitions the run out of the started state, synthesizes
// suite-level failures, composes the report and persists it. Only the
// first call does any of this; it returns the composed report, while
// losing callers return nil. Persistence problems are logged and
// swallowed so the host test run is never aborted by reporting.
func (m *Manager) FinishRun(suite *event.SuiteContext) *ctrf.Report {
	if !m.started.CompareAndSwap(true, false) {
		return nil
	}

	stop := m.now()
	runStart := m.runStart.Load()

	if m.ledger.Len() == 0 {
		if test, ok := m.synthesizeSuiteFailure(suite, runStart, stop); ok {
			m.ledger.Append(test)
		}
	} else if suite != nil && suite.Err != nil && !m.ledger.ContainsName(ctrf.InitializationError) {
		// An execution-level failure not already captured by a
		// container failure path. Span it from the last completion.
		start := runStart
		if last, ok := m.ledger.Last(); ok {
			start = last.Stop
		}
		if test, ok := m.synthesizeSuiteFailure(suite, start, stop); ok {
			m.ledger.Append(test)
		}
	}

	// Re-read the health variable to catch changes made by tests
	// during execution.
	if envForcesUnhealthy() {
		m.healthy.Store(false)
	}

	tests := m.ledger.Snapshot()
	summary := BuildSummary(tests, runStart, stop)
	if m.settings.CalculateStartupDuration {
		applyStartupDuration(&summary, tests, runStart)
	}

	report := m.composeReport(summary, tests)
	if err := m.store.Persist(report); err != nil {
		m.log.Error().Err(err).Msg("failed to persist CTRF report")
	}

	m.registry.Clear()
	m.ledger.Clear()
	return report
}

// MarkEnvironmentUnhealthy forces the environment-health flag to
// unhealthy for the rest of the process. There is no way back; the
// flag is sticky and persisted across reruns sharing the report path.
func (m *Manager) MarkEnvironmentUnhealthy() {
	m.healthy.Store(false)
}

// EnvironmentHealthy reports the current environment-health flag.
func (m *Manager) EnvironmentHealthy() bool {
	return m.healthy.Load()
}

func (m *Manager) generatorName() string {
	if v, ok := m.generator.Load().(string); ok {
		return v
	}
	return ""
}

// buildTest assembles the common fields of a completed record from the
// start-time details and the completion timestamp. Duration is never
// negative by construction.
func (m *Manager) buildTest(details event.TestDetails, stop int64) ctrf.Test {
	duration := stop - details.Start
	if duration < 0 {
		duration = 0
	}

	var tags []string
	if len(details.Tags) > 0 {
		tags = make([]string, len(details.Tags))
		copy(tags, details.Tags)
	}

	worker := details.Worker
	if worker == "" {
		worker = workerLabel()
	}

	return ctrf.Test{
		Name:     details.DisplayName,
		Tags:     tags,
		Filepath: details.SourceLocation,
		Start:    details.Start,
		Stop:     stop,
		Duration: duration,
		ThreadID: worker,
	}
}

// envForcesUnhealthy reports whether the health variable is set to
// "false". Any other value, including absence, leaves health alone.
func envForcesUnhealthy() bool {
	return strings.EqualFold(os.Getenv(config.EnvHealthyVar), "false")
}
