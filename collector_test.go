package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/testforge/ctrf-collector/config"
	"github.com/testforge/ctrf-collector/ctrf"
	"github.com/testforge/ctrf-collector/flags"
)

func writeInput(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644))
	return path
}

func testConfig(t *testing.T, inputPath string, format InputFormat) *Config {
	t.Helper()
	settings := config.Default()
	settings.ReportPath = filepath.Join(t.TempDir(), "ctrf-report.json")
	return &Config{
		InputPath:   inputPath,
		InputFormat: format,
		Settings:    settings,
		Log:         zerolog.Nop(),
	}
}

func readReport(t *testing.T, path string) *ctrf.Report {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var report ctrf.Report
	require.NoError(t, json.Unmarshal(data, &report))
	return &report
}

func TestCollector_RunPassingStream(t *testing.T) {
	input := writeInput(t,
		`{"Time":"2026-08-30T10:00:01Z","Action":"run","Package":"example.com/pkg","Test":"TestOne"}`,
		`{"Time":"2026-08-30T10:00:02Z","Action":"pass","Package":"example.com/pkg","Test":"TestOne"}`,
	)
	cfg := testConfig(t, input, FormatGoTest)

	c, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, c.Run(context.Background()))

	report := readReport(t, cfg.Settings.ReportPath)
	assert.Equal(t, ctrf.ReportFormat, report.ReportFormat)
	assert.Equal(t, 1, report.Results.Summary.Tests)
	assert.Equal(t, 1, report.Results.Summary.Passed)
}

func TestCollector_RunFailingStream(t *testing.T) {
	input := writeInput(t,
		`{"Time":"2026-08-30T10:00:01Z","Action":"run","Package":"example.com/pkg","Test":"TestBad"}`,
		`{"Time":"2026-08-30T10:00:01Z","Action":"output","Package":"example.com/pkg","Test":"TestBad","Output":"boom\n"}`,
		`{"Time":"2026-08-30T10:00:02Z","Action":"fail","Package":"example.com/pkg","Test":"TestBad"}`,
	)
	cfg := testConfig(t, input, FormatGoTest)

	c, err := New(cfg)
	require.NoError(t, err)

	err = c.Run(context.Background())
	require.Error(t, err)
	assert.True(t, IsTestFailureError(err))
	assert.False(t, IsRuntimeError(err))

	// The report is still written despite the failure outcome.
	report := readReport(t, cfg.Settings.ReportPath)
	assert.Equal(t, 1, report.Results.Summary.Failed)
}

func TestCollector_RunRecordStream(t *testing.T) {
	input := writeInput(t,
		`{"action":"start","id":"t1","name":"login","start":1000}`,
		`{"action":"passed","id":"t1"}`,
		`{"action":"skipped","id":"t2","name":"legacy","reason":"flag off"}`,
	)
	cfg := testConfig(t, input, FormatRecords)

	c, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, c.Run(context.Background()))

	report := readReport(t, cfg.Settings.ReportPath)
	assert.Equal(t, 2, report.Results.Summary.Tests)
	assert.Equal(t, 1, report.Results.Summary.Passed)
	assert.Equal(t, 1, report.Results.Summary.Skipped)
}

func TestCollector_MissingInputIsRuntimeError(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "nope.jsonl"), FormatGoTest)

	c, err := New(cfg)
	require.NoError(t, err)

	err = c.Run(context.Background())
	require.Error(t, err)
	assert.True(t, IsRuntimeError(err))
	assert.False(t, IsTestFailureError(err))
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestNewConfig_FromFlags(t *testing.T) {
	var cfg *Config
	var cfgErr error
	app := cli.NewApp()
	app.Flags = flags.Flags
	app.Action = func(ctx *cli.Context) error {
		cfg, cfgErr = NewConfig(ctx, zerolog.Nop())
		return nil
	}

	err := app.Run([]string{"ctrf-collector",
		"--input", "events.jsonl",
		"--input-format", "records",
		"--report", "out/report.json",
		"--serve",
	})
	require.NoError(t, err)
	require.NoError(t, cfgErr)
	require.NotNil(t, cfg)

	assert.Equal(t, "events.jsonl", cfg.InputPath)
	assert.Equal(t, FormatRecords, cfg.InputFormat)
	assert.Equal(t, "out/report.json", cfg.Settings.ReportPath)
	assert.True(t, cfg.Serve)
}

func TestNewConfig_RejectsUnknownFormat(t *testing.T) {
	var cfgErr error
	app := cli.NewApp()
	app.Flags = flags.Flags
	app.Action = func(ctx *cli.Context) error {
		_, cfgErr = NewConfig(ctx, zerolog.Nop())
		return nil
	}

	err := app.Run([]string{"ctrf-collector", "--input", "x", "--input-format", "xunit"})
	require.NoError(t, err)
	require.Error(t, cfgErr)
	assert.Contains(t, cfgErr.Error(), "unknown input format")
}

func TestTypedErrors(t *testing.T) {
	runtimeErr := NewRuntimeError(errors.New("disk full"))
	assert.True(t, IsRuntimeError(runtimeErr))
	assert.True(t, IsRuntimeError(fmt.Errorf("wrapped: %w", runtimeErr)))
	assert.False(t, IsTestFailureError(runtimeErr))
	assert.Contains(t, runtimeErr.Error(), "disk full")

	testErr := NewTestFailureError("3 test(s) failed")
	assert.True(t, IsTestFailureError(testErr))
	assert.True(t, IsTestFailureError(fmt.Errorf("wrapped: %w", testErr)))
	assert.False(t, IsRuntimeError(testErr))

	assert.False(t, IsRuntimeError(nil))
	assert.False(t, IsTestFailureError(nil))
}

func TestCountFlaky(t *testing.T) {
	flaky := true
	notFlaky := false
	report := &ctrf.Report{Results: ctrf.Results{Tests: []ctrf.Test{
		{Name: "a", Flaky: &flaky},
		{Name: "b", Flaky: &notFlaky},
		{Name: "c"},
	}}}
	assert.Equal(t, 1, countFlaky(report))
}
