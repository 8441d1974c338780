package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "CTRF"

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	Input = &cli.StringFlag{
		Name:     "input",
		Value:    "",
		Required: true,
		EnvVars:  prefixEnvVars("INPUT"),
		Usage:    "Path to the test event stream to replay ('-' for stdin)",
	}
	InputFormat = &cli.StringFlag{
		Name:    "input-format",
		Value:   "gotest",
		EnvVars: prefixEnvVars("INPUT_FORMAT"),
		Usage:   "Format of the input stream ('gotest' or 'records')",
	}
	Settings = &cli.StringFlag{
		Name:    "settings",
		Value:   "",
		EnvVars: prefixEnvVars("SETTINGS"),
		Usage:   "Path to settings file (eg. 'ctrf.yaml')",
	}
	Report = &cli.StringFlag{
		Name:    "report",
		Value:   "",
		EnvVars: prefixEnvVars("REPORT"),
		Usage:   "Path to write the CTRF report, overrides the settings file",
	}
	Serve = &cli.BoolFlag{
		Name:    "serve",
		Value:   false,
		EnvVars: prefixEnvVars("SERVE"),
		Usage:   "Keep the process alive serving /healthz and /metrics after the run",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log-level",
		Value:   "info",
		EnvVars: prefixEnvVars("LOG_LEVEL"),
		Usage:   "The lowest log level that will be output",
	}
)

var requiredFlags = []cli.Flag{
	Input,
}

var optionalFlags = []cli.Flag{
	InputFormat,
	Settings,
	Report,
	Serve,
	LogLevel,
}

var Flags []cli.Flag

func init() {
	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
