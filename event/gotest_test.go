package event

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink captures forwarded events in order.
type recordingSink struct {
	started []TestDetails
	skipped []TestDetails
	reasons []string
	passed  []string
	failed  map[string]*Failure
	aborted map[string]*Failure
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		failed:  make(map[string]*Failure),
		aborted: make(map[string]*Failure),
	}
}

func (s *recordingSink) OnTestStart(details TestDetails) {
	s.started = append(s.started, details)
}

func (s *recordingSink) OnTestSkipped(details TestDetails, reason string) {
	s.skipped = append(s.skipped, details)
	s.reasons = append(s.reasons, reason)
}

func (s *recordingSink) OnTestPassed(id string) {
	s.passed = append(s.passed, id)
}

func (s *recordingSink) OnTestFailed(id string, failure *Failure) {
	s.failed[id] = failure
}

func (s *recordingSink) OnTestAborted(id string, failure *Failure) {
	s.aborted[id] = failure
}

func TestGoTestReplayer_PassAndFail(t *testing.T) {
	stream := strings.Join([]string{
		`{"Time":"2026-08-30T10:00:00Z","Action":"start","Package":"example.com/pkg"}`,
		`{"Time":"2026-08-30T10:00:01Z","Action":"run","Package":"example.com/pkg","Test":"TestOne"}`,
		`{"Time":"2026-08-30T10:00:01Z","Action":"output","Package":"example.com/pkg","Test":"TestOne","Output":"=== RUN   TestOne\n"}`,
		`{"Time":"2026-08-30T10:00:02Z","Action":"pass","Package":"example.com/pkg","Test":"TestOne","Elapsed":1}`,
		`{"Time":"2026-08-30T10:00:02Z","Action":"run","Package":"example.com/pkg","Test":"TestTwo"}`,
		`{"Time":"2026-08-30T10:00:02Z","Action":"output","Package":"example.com/pkg","Test":"TestTwo","Output":"    main_test.go:12: want 2, got 3\n"}`,
		`{"Time":"2026-08-30T10:00:03Z","Action":"fail","Package":"example.com/pkg","Test":"TestTwo","Elapsed":1}`,
		`{"Time":"2026-08-30T10:00:03Z","Action":"fail","Package":"example.com/pkg","Elapsed":3}`,
	}, "\n")

	sink := newRecordingSink()
	r := NewGoTestReplayer(sink, zerolog.Nop())
	require.NoError(t, r.Replay(strings.NewReader(stream)))

	require.Len(t, sink.started, 2)
	assert.Equal(t, "example.com/pkg.TestOne", sink.started[0].ID)
	assert.Equal(t, "TestOne", sink.started[0].DisplayName)
	assert.Equal(t, "example.com/pkg", sink.started[0].Worker)
	assert.NotZero(t, sink.started[0].Start)

	assert.Equal(t, []string{"example.com/pkg.TestOne"}, sink.passed)

	failure := sink.failed["example.com/pkg.TestTwo"]
	require.NotNil(t, failure)
	assert.Contains(t, failure.Trace, "want 2, got 3")

	// The package verdict after individual failures is not a test.
	assert.NotContains(t, sink.failed, "example.com/pkg/initializationError")
}

func TestGoTestReplayer_SkipCarriesReason(t *testing.T) {
	stream := strings.Join([]string{
		`{"Time":"2026-08-30T10:00:01Z","Action":"run","Package":"example.com/pkg","Test":"TestSkip"}`,
		`{"Time":"2026-08-30T10:00:01Z","Action":"output","Package":"example.com/pkg","Test":"TestSkip","Output":"    main_test.go:5: requires linux\n"}`,
		`{"Time":"2026-08-30T10:00:01Z","Action":"skip","Package":"example.com/pkg","Test":"TestSkip"}`,
	}, "\n")

	sink := newRecordingSink()
	r := NewGoTestReplayer(sink, zerolog.Nop())
	require.NoError(t, r.Replay(strings.NewReader(stream)))

	require.Len(t, sink.skipped, 1)
	assert.Equal(t, "TestSkip", sink.skipped[0].DisplayName)
	assert.Contains(t, sink.reasons[0], "requires linux")

	// The skip event's own timestamp is carried through so historical
	// streams keep their real times.
	want := time.Date(2026, 8, 30, 10, 0, 1, 0, time.UTC).UnixMilli()
	assert.Equal(t, want, sink.skipped[0].Start)
}

func TestGoTestReplayer_PackageSetupFailure(t *testing.T) {
	// A package that fails without running any test is a container
	// failure, reported under a suffixed synthetic id.
	stream := strings.Join([]string{
		`{"Time":"2026-08-30T10:00:00Z","Action":"start","Package":"example.com/broken"}`,
		`{"Time":"2026-08-30T10:00:00Z","Action":"output","Package":"example.com/broken","Output":"panic: cannot connect\n"}`,
		`{"Time":"2026-08-30T10:00:01Z","Action":"fail","Package":"example.com/broken","Elapsed":1}`,
	}, "\n")

	sink := newRecordingSink()
	r := NewGoTestReplayer(sink, zerolog.Nop())
	require.NoError(t, r.Replay(strings.NewReader(stream)))

	require.Len(t, sink.started, 1)
	assert.Equal(t, "example.com/broken/initializationError", sink.started[0].ID)
	assert.Equal(t, "initializationError", sink.started[0].DisplayName)

	failure := sink.failed["example.com/broken/initializationError"]
	require.NotNil(t, failure)
	assert.Contains(t, failure.Trace, "cannot connect")

	// Package bookkeeping is released once the verdict is in.
	assert.NotContains(t, r.pkgStart, "example.com/broken")
	assert.NotContains(t, r.output, "pkg:example.com/broken")
}

func TestGoTestReplayer_SkipsNonJSONLines(t *testing.T) {
	stream := strings.Join([]string{
		`go: downloading example.com/dep v1.0.0`,
		`{"Time":"2026-08-30T10:00:01Z","Action":"run","Package":"example.com/pkg","Test":"TestOne"}`,
		`{"Time":"2026-08-30T10:00:02Z","Action":"pass","Package":"example.com/pkg","Test":"TestOne"}`,
	}, "\n")

	sink := newRecordingSink()
	r := NewGoTestReplayer(sink, zerolog.Nop())
	require.NoError(t, r.Replay(strings.NewReader(stream)))
	assert.Equal(t, []string{"example.com/pkg.TestOne"}, sink.passed)
}

func TestGoTestReplayer_FailureWithoutOutput(t *testing.T) {
	stream := strings.Join([]string{
		`{"Time":"2026-08-30T10:00:01Z","Action":"run","Package":"example.com/pkg","Test":"TestQuiet"}`,
		`{"Time":"2026-08-30T10:00:02Z","Action":"fail","Package":"example.com/pkg","Test":"TestQuiet"}`,
	}, "\n")

	sink := newRecordingSink()
	r := NewGoTestReplayer(sink, zerolog.Nop())
	require.NoError(t, r.Replay(strings.NewReader(stream)))

	failure := sink.failed["example.com/pkg.TestQuiet"]
	require.NotNil(t, failure)
	assert.Equal(t, "test failed without output", failure.Message)
}
