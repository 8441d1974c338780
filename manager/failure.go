package manager

import (
	"runtime"
	"strings"

	"github.com/acarl005/stripansi"

	"github.com/testforge/ctrf-collector/ctrf"
	"github.com/testforge/ctrf-collector/event"
)

// setFailureDetails populates the message and trace of a failed record
// from a failure description. The trace keeps the full text; the
// message is the trace truncated to the configured maximum length with
// a "..." suffix when truncated. Test frameworks colorize their
// output, so ANSI escapes are stripped before the text enters the
// report.
func (m *Manager) setFailureDetails(test *ctrf.Test, failure *event.Failure) {
	trace := failure.Trace
	if trace == "" {
		trace = failure.Message
	}
	trace = stripansi.Strip(trace)

	message := trace
	if maxLen := m.settings.MaxMessageLength; len([]rune(message)) > maxLen {
		message = string([]rune(message)[:maxLen]) + "..."
	}

	test.Message = message
	test.Trace = trace
}

// workerLabel derives a worker identifier for events that do not carry
// one, so parallel-execution reports still show which worker ran what.
func workerLabel() string {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// First line looks like "goroutine 123 [running]:".
	fields := strings.Fields(string(buf[:n]))
	if len(fields) >= 2 {
		return "goroutine-" + fields[1]
	}
	return "goroutine"
}
