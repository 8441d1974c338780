package event

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// go test -json actions.
const (
	ActionStart  = "start"
	ActionRun    = "run"
	ActionPass   = "pass"
	ActionFail   = "fail"
	ActionSkip   = "skip"
	ActionOutput = "output"
)

// GoTestEvent is a single event from `go test -json` output.
type GoTestEvent struct {
	Time    time.Time // Time the event occurred
	Action  string    // The action taken (run, pause, cont, pass, fail, skip, output)
	Package string    // The package being tested
	Test    string    // The test function name (may be empty for package events)
	Output  string    // Output text (may be empty)
	Elapsed float64   // Elapsed time in seconds for the specific action
}

// GoTestReplayer adapts a `go test -json` stream to the normalized
// event contract. Per-test events map directly; a failing package-level
// event with no test name is treated as a container failure and
// surfaced as a synthetic initializationError record.
type GoTestReplayer struct {
	sink     Sink
	log      zerolog.Logger
	output   map[string]*strings.Builder
	pkgStart map[string]int64
	pkgHasT  map[string]bool
}

// NewGoTestReplayer creates a replayer feeding the given sink.
func NewGoTestReplayer(sink Sink, log zerolog.Logger) *GoTestReplayer {
	return &GoTestReplayer{
		sink:     sink,
		log:      log,
		output:   make(map[string]*strings.Builder),
		pkgStart: make(map[string]int64),
		pkgHasT:  make(map[string]bool),
	}
}

// Replay consumes the stream line by line until EOF. Unparsable lines
// are skipped; go toolchains interleave plain text with the JSON
// stream, so this is normal rather than an error.
func (r *GoTestReplayer) Replay(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev GoTestEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			r.log.Debug().Str("line", string(line)).Msg("skipping non-JSON line in test stream")
			continue
		}
		r.handle(ev)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading test stream: %w", err)
	}
	return nil
}

func (r *GoTestReplayer) handle(ev GoTestEvent) {
	if ev.Test == "" {
		r.handlePackageEvent(ev)
		return
	}

	id := testID(ev.Package, ev.Test)
	switch ev.Action {
	case ActionRun:
		r.pkgHasT[ev.Package] = true
		r.sink.OnTestStart(TestDetails{
			ID:             id,
			DisplayName:    ev.Test,
			SourceLocation: ev.Package,
			Worker:         ev.Package,
			Start:          eventMillis(ev),
		})
	case ActionOutput:
		buf, ok := r.output[id]
		if !ok {
			buf = &strings.Builder{}
			r.output[id] = buf
		}
		buf.WriteString(ev.Output)
	case ActionPass:
		delete(r.output, id)
		r.sink.OnTestPassed(id)
	case ActionFail:
		r.sink.OnTestFailed(id, r.takeFailure(id))
	case ActionSkip:
		r.sink.OnTestSkipped(TestDetails{
			ID:             id,
			DisplayName:    ev.Test,
			SourceLocation: ev.Package,
			Worker:         ev.Package,
			Start:          eventMillis(ev),
		}, r.takeOutput(id))
	}
}

// handlePackageEvent tracks package lifecycles. A package that fails
// without ever running a test carries a setup failure (TestMain or
// init), which is reported as a container-level initialization error
// under a suffixed synthetic id so independent packages stay distinct.
func (r *GoTestReplayer) handlePackageEvent(ev GoTestEvent) {
	key := "pkg:" + ev.Package
	switch ev.Action {
	case ActionStart:
		r.pkgStart[ev.Package] = eventMillis(ev)
	case ActionOutput:
		buf, ok := r.output[key]
		if !ok {
			buf = &strings.Builder{}
			r.output[key] = buf
		}
		buf.WriteString(ev.Output)
	case ActionFail:
		if r.pkgHasT[ev.Package] {
			// Individual test failures already captured; the package
			// verdict itself is not a test.
			r.dropPackage(key, ev.Package)
			return
		}
		id := ev.Package + "/initializationError"
		r.sink.OnTestStart(TestDetails{
			ID:             id,
			DisplayName:    "initializationError",
			SourceLocation: ev.Package,
			Worker:         ev.Package,
			Start:          r.pkgStart[ev.Package],
		})
		r.sink.OnTestFailed(id, r.takeFailure(key))
		r.dropPackage(key, ev.Package)
	case ActionPass, ActionSkip:
		r.dropPackage(key, ev.Package)
	}
}

// dropPackage discards the bookkeeping of a package once its verdict
// is in.
func (r *GoTestReplayer) dropPackage(key, pkg string) {
	delete(r.output, key)
	delete(r.pkgStart, pkg)
	delete(r.pkgHasT, pkg)
}

func (r *GoTestReplayer) takeOutput(id string) string {
	buf, ok := r.output[id]
	if !ok {
		return ""
	}
	delete(r.output, id)
	return strings.TrimSpace(buf.String())
}

func (r *GoTestReplayer) takeFailure(id string) *Failure {
	out := r.takeOutput(id)
	if out == "" {
		return &Failure{Message: "test failed without output"}
	}
	return &Failure{Trace: out}
}

func testID(pkg, test string) string {
	if pkg == "" {
		return test
	}
	return pkg + "." + test
}

func eventMillis(ev GoTestEvent) int64 {
	if ev.Time.IsZero() {
		return 0
	}
	return ev.Time.UnixMilli()
}
