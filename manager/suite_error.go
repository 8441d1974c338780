package manager

import (
	"github.com/testforge/ctrf-collector/ctrf"
	"github.com/testforge/ctrf-collector/event"
)

// synthesizeSuiteFailure turns a suite-level execution failure into a
// synthetic "initializationError" record spanning [start, stop]. It
// returns false when the context carries no failure. The same function
// serves both the "no test ever started" path at finish time and the
// execution-level failure appended after the last completed test;
// mid-run container failures instead go through the normal
// start/outcome path with their own suffixed synthetic ids, so
// independent containers each produce their own entry.
func (m *Manager) synthesizeSuiteFailure(suite *event.SuiteContext, start, stop int64) (ctrf.Test, bool) {
	if suite == nil || suite.Err == nil {
		return ctrf.Test{}, false
	}

	duration := stop - start
	if duration < 0 {
		duration = 0
	}

	test := ctrf.Test{
		Name:     ctrf.InitializationError,
		Filepath: suite.ClassName,
		Status:   ctrf.TestStatusFailed,
		Start:    start,
		Stop:     stop,
		Duration: duration,
	}
	m.setFailureDetails(&test, suite.Err)
	return test, true
}
