package collector

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/testforge/ctrf-collector/config"
	"github.com/testforge/ctrf-collector/flags"
)

// InputFormat selects which replayer consumes the input stream.
type InputFormat string

const (
	FormatGoTest  InputFormat = "gotest"
	FormatRecords InputFormat = "records"
)

// Config holds the application configuration
type Config struct {
	InputPath   string
	InputFormat InputFormat
	Serve       bool
	Settings    config.Settings
	Log         zerolog.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log zerolog.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	format := InputFormat(ctx.String(flags.InputFormat.Name))
	switch format {
	case FormatGoTest, FormatRecords:
	default:
		return nil, fmt.Errorf("unknown input format %q", format)
	}

	settings, err := config.Load(ctx.String(flags.Settings.Name))
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	if report := ctx.String(flags.Report.Name); report != "" {
		settings.ReportPath = report
	}

	return &Config{
		InputPath:   ctx.String(flags.Input.Name),
		InputFormat: format,
		Serve:       ctx.Bool(flags.Serve.Name),
		Settings:    settings,
		Log:         log,
	}, nil
}
