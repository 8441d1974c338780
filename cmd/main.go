package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	collector "github.com/testforge/ctrf-collector"
	"github.com/testforge/ctrf-collector/flags"
	"github.com/testforge/ctrf-collector/service"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	// A missing .env file is fine, the environment wins anyway.
	_ = godotenv.Load()

	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "ctrf-collector"
	app.Usage = "Collect test run events into a CTRF report"
	app.Description = "ctrf-collector replays a test event stream and writes a Common Test Report Format JSON report"
	app.Flags = flags.Flags
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			if collector.IsRuntimeError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), 2))
			} else if collector.IsTestFailureError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), 1))
			} else {
				cli.HandleExitCoder(cli.Exit(err.Error(), 1))
			}
		}
	}

	otelShutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		// Telemetry is best effort, the collector still runs without it.
		fmt.Fprintf(os.Stderr, "failed to set up open telemetry: %v\n", err)
	} else {
		defer otelShutdown()
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func run(ctx *cli.Context) error {
	log := newLogger(ctx.String(flags.LogLevel.Name))

	cfg, err := collector.NewConfig(ctx, log)
	if err != nil {
		return collector.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	c, err := collector.New(cfg)
	if err != nil {
		return collector.NewRuntimeError(fmt.Errorf("failed to create collector: %w", err))
	}

	if !cfg.Serve {
		return c.Run(ctx.Context)
	}

	svc := service.New(log)
	svc.Start(context.Background())
	defer svc.Shutdown()

	runErr := c.Run(ctx.Context)

	// Keep serving /healthz and /metrics until interrupted so the
	// recorded run metrics can actually be scraped.
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log.Info().Msg("run complete, serving until interrupted")
	<-sigCtx.Done()

	return runErr
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339Nano,
	}).With().Timestamp().Logger()
}
