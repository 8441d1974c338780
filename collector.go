// Package collector wires the event adapters, run manager and report
// store into a single replay pipeline driven from the CLI.
package collector

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/testforge/ctrf-collector/ctrf"
	"github.com/testforge/ctrf-collector/event"
	"github.com/testforge/ctrf-collector/manager"
	"github.com/testforge/ctrf-collector/metrics"
	"github.com/testforge/ctrf-collector/store"
)

const generatorName = "ctrf-collector"

// Collector replays one input stream through the run manager and
// renders the outcome.
type Collector struct {
	config  *Config
	manager *manager.Manager
	store   *store.FileStore

	running atomic.Bool
}

// New creates a new Collector from the resolved configuration.
func New(config *Config) (*Collector, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	fileStore, err := store.NewFileStore(config.Settings.ReportPath, config.Log)
	if err != nil {
		return nil, fmt.Errorf("creating report store: %w", err)
	}

	mgr, err := manager.New(manager.Config{
		Settings: config.Settings,
		Store:    fileStore,
		Log:      config.Log,
	})
	if err != nil {
		return nil, fmt.Errorf("creating run manager: %w", err)
	}

	return &Collector{
		config:  config,
		manager: mgr,
		store:   fileStore,
	}, nil
}

// Run replays the configured input stream into a single collected run
// and writes the CTRF report. It returns a TestFailureError when the
// run contains failed tests and a RuntimeError for operational
// problems, so the CLI can map them to distinct exit codes.
func (c *Collector) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return NewRuntimeError(fmt.Errorf("collector is already running"))
	}
	defer c.running.Store(false)

	_, span := otel.Tracer(generatorName).Start(ctx, "collect run")
	defer span.End()
	span.SetAttributes(
		attribute.String("input", c.config.InputPath),
		attribute.String("format", string(c.config.InputFormat)),
	)

	in, closeIn, err := c.openInput()
	if err != nil {
		return NewRuntimeError(err)
	}
	defer closeIn()

	c.manager.StartRun(generatorName)

	replayErr := c.replay(in)

	var suite *event.SuiteContext
	if replayErr != nil {
		suite = &event.SuiteContext{
			ClassName: c.config.InputPath,
			Err:       &event.Failure{Message: replayErr.Error()},
		}
	}

	report := c.manager.FinishRun(suite)
	if report == nil {
		return NewRuntimeError(fmt.Errorf("run finished twice, no report composed"))
	}

	c.printResultsTable(report)
	metrics.RecordRun(generatorName, report, countFlaky(report), c.manager.EnvironmentHealthy())
	c.config.Log.Info().
		Str("report", c.store.Path()).
		Int("tests", report.Results.Summary.Tests).
		Int("failed", report.Results.Summary.Failed).
		Msg("run collected")

	if replayErr != nil {
		return NewRuntimeError(fmt.Errorf("replaying %s: %w", c.config.InputPath, replayErr))
	}
	if report.Results.Summary.Failed > 0 {
		return NewTestFailureError(fmt.Sprintf("%d test(s) failed", report.Results.Summary.Failed))
	}
	return nil
}

// Manager exposes the run manager for callers that feed events
// programmatically instead of replaying a stream.
func (c *Collector) Manager() *manager.Manager {
	return c.manager
}

func (c *Collector) openInput() (io.Reader, func(), error) {
	if c.config.InputPath == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(c.config.InputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening input %s: %w", c.config.InputPath, err)
	}
	return f, func() { _ = f.Close() }, nil
}

func (c *Collector) replay(in io.Reader) error {
	switch c.config.InputFormat {
	case FormatRecords:
		return event.NewRecordReplayer(c.manager, c.config.Log).Replay(in)
	default:
		return event.NewGoTestReplayer(c.manager, c.config.Log).Replay(in)
	}
}

// printResultsTable prints the collected run to the console.
func (c *Collector) printResultsTable(report *ctrf.Report) {
	summary := report.Results.Summary
	duration := time.Duration(summary.Stop-summary.Start) * time.Millisecond

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("Test Run Results (%s)", formatDuration(duration)))

	t.AppendHeader(table.Row{
		"Test", "Duration", "Retries", "Status",
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Test", WidthMax: 70, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Retries", Align: text.AlignRight},
	})

	for _, tc := range report.Results.Tests {
		retries := ""
		if tc.Retries != nil {
			retries = fmt.Sprintf("%d", *tc.Retries)
		}
		status := getResultString(tc.Status)
		if tc.Flaky != nil && *tc.Flaky {
			status += " (flaky)"
		}
		t.AppendRow(table.Row{
			tc.Name,
			formatDuration(time.Duration(tc.Duration) * time.Millisecond),
			retries,
			status,
		})
	}

	if summary.Failed > 0 {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	} else if summary.Passed == 0 {
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}

	t.AppendFooter(table.Row{
		fmt.Sprintf("TOTAL %d (passed %d, failed %d, skipped %d)",
			summary.Tests, summary.Passed, summary.Failed, summary.Skipped),
		formatDuration(duration),
		"",
		overallResultString(summary),
	})

	t.Render()
}

func countFlaky(report *ctrf.Report) int {
	count := 0
	for _, tc := range report.Results.Tests {
		if tc.Flaky != nil && *tc.Flaky {
			count++
		}
	}
	return count
}

// getResultString returns a short string representing one test result
func getResultString(status ctrf.TestStatus) string {
	switch status {
	case ctrf.TestStatusPassed:
		return "✓ pass"
	case ctrf.TestStatusSkipped:
		return "- skip"
	case ctrf.TestStatusPending:
		return "… pending"
	case ctrf.TestStatusFailed:
		return "✗ fail"
	default:
		return "? other"
	}
}

func overallResultString(summary ctrf.Summary) string {
	if summary.Failed > 0 {
		return "✗ fail"
	}
	if summary.Passed == 0 && summary.Skipped > 0 {
		return "- skip"
	}
	return "✓ pass"
}

// Helper function to format duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
