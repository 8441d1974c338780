// Package event defines the normalized contract between a host test
// framework and the report manager. Host frameworks differ in how they
// surface test identity and failures; adapters in this package reduce
// them to one narrow shape.
package event

// TestDetails carries the start-time metadata of a test. It is created
// when a test starts (or is skipped, which carries full identity
// already) and consumed exactly once when the test completes.
type TestDetails struct {
	// ID is the run-unique identifier the host framework uses for this
	// test execution.
	ID string
	// DisplayName is the human-readable test name used in the report
	// and as the flakiness-matching key.
	DisplayName string
	// Tags holds the test's tag set, if any.
	Tags []string
	// SourceLocation is the originating class, file or package, when
	// the framework can resolve one.
	SourceLocation string
	// Worker identifies the thread or worker that executed the test.
	Worker string
	// Start is the start timestamp in epoch milliseconds. The manager
	// stamps it on registration; adapters may pre-fill it when the
	// host framework reports accurate timings itself.
	Start int64
}

// Failure is the framework-agnostic description of why a test failed:
// a short message and the full formatted trace. Either field may be
// empty; formatting for the report is done in one place by the manager.
type Failure struct {
	Message string
	Trace   string
}

// SuiteContext is what the host framework knows at run finish: an
// optional execution-level failure and an optional class name it is
// associated with.
type SuiteContext struct {
	Err       *Failure
	ClassName string
}

// Sink receives normalized per-test events. The report manager is the
// canonical implementation; adapters only ever talk to this interface.
// Run start/finish stay with whoever owns the manager, since only the
// composing entry point knows when the whole run is over.
type Sink interface {
	OnTestStart(details TestDetails)
	OnTestSkipped(details TestDetails, reason string)
	OnTestPassed(id string)
	OnTestFailed(id string, failure *Failure)
	OnTestAborted(id string, failure *Failure)
}
