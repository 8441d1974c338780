package event

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// Record is the generic normalized event shape: one JSON object per
// line, emitted by any host framework that does not speak
// `go test -json`. Fields beyond action and id are optional and only
// meaningful for some actions.
type Record struct {
	Action string   `json:"action"` // start, passed, failed, aborted, skipped
	ID     string   `json:"id"`
	Name   string   `json:"name,omitempty"`
	Tags   []string `json:"tags,omitempty"`
	Source string   `json:"source,omitempty"`
	Worker string   `json:"worker,omitempty"`
	Start  int64    `json:"start,omitempty"`
	Reason string   `json:"reason,omitempty"`
	// Failure payload, present on failed/aborted records.
	Message string `json:"message,omitempty"`
	Trace   string `json:"trace,omitempty"`
}

// Record actions.
const (
	RecordStart   = "start"
	RecordPassed  = "passed"
	RecordFailed  = "failed"
	RecordAborted = "aborted"
	RecordSkipped = "skipped"
)

// RecordReplayer adapts a JSONL record stream to the normalized event
// contract.
type RecordReplayer struct {
	sink Sink
	log  zerolog.Logger
}

// NewRecordReplayer creates a replayer feeding the given sink.
func NewRecordReplayer(sink Sink, log zerolog.Logger) *RecordReplayer {
	return &RecordReplayer{sink: sink, log: log}
}

// Replay consumes the stream line by line until EOF. Records without
// an id are dropped with a warning; everything else is forwarded.
func (r *RecordReplayer) Replay(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			r.log.Warn().Err(err).Msg("dropping malformed event record")
			continue
		}
		r.Apply(rec)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading event stream: %w", err)
	}
	return nil
}

// Apply forwards one record to the sink.
func (r *RecordReplayer) Apply(rec Record) {
	if rec.ID == "" {
		r.log.Warn().Str("action", rec.Action).Msg("dropping event record without id")
		return
	}
	switch rec.Action {
	case RecordStart:
		r.sink.OnTestStart(r.details(rec))
	case RecordPassed:
		r.sink.OnTestPassed(rec.ID)
	case RecordFailed:
		r.sink.OnTestFailed(rec.ID, recordFailure(rec))
	case RecordAborted:
		r.sink.OnTestAborted(rec.ID, recordFailure(rec))
	case RecordSkipped:
		r.sink.OnTestSkipped(r.details(rec), rec.Reason)
	default:
		r.log.Warn().Str("action", rec.Action).Str("id", rec.ID).Msg("unknown event record action")
	}
}

func (r *RecordReplayer) details(rec Record) TestDetails {
	name := rec.Name
	if name == "" {
		name = rec.ID
	}
	return TestDetails{
		ID:             rec.ID,
		DisplayName:    name,
		Tags:           rec.Tags,
		SourceLocation: rec.Source,
		Worker:         rec.Worker,
		Start:          rec.Start,
	}
}

func recordFailure(rec Record) *Failure {
	if rec.Message == "" && rec.Trace == "" {
		return nil
	}
	return &Failure{Message: rec.Message, Trace: rec.Trace}
}
