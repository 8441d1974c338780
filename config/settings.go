// Package config loads collector settings from an optional YAML file
// with environment-variable overrides. The manager and store only ever
// see the resolved Settings value.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults applied when neither file nor environment provides a value.
const (
	DefaultReportPath       = "ctrf-report.json"
	DefaultMaxMessageLength = 500
)

// EnvHealthyVar is the environment variable consulted for environment
// health, both at process start and again at run finish. Only the
// value "false" (case-insensitive) forces unhealthy.
const EnvHealthyVar = "ENV_HEALTHY"

// ToolSettings identifies the test tool in the report.
type ToolSettings struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// EnvironmentSettings holds the optional environment metadata copied
// verbatim into the report.
type EnvironmentSettings struct {
	ReportName      string `yaml:"reportName"`
	AppName         string `yaml:"appName"`
	AppVersion      string `yaml:"appVersion"`
	BuildName       string `yaml:"buildName"`
	BuildNumber     string `yaml:"buildNumber"`
	BuildURL        string `yaml:"buildUrl"`
	RepositoryName  string `yaml:"repositoryName"`
	RepositoryURL   string `yaml:"repositoryUrl"`
	Commit          string `yaml:"commit"`
	BranchName      string `yaml:"branchName"`
	OSPlatform      string `yaml:"osPlatform"`
	OSRelease       string `yaml:"osRelease"`
	OSVersion       string `yaml:"osVersion"`
	TestEnvironment string `yaml:"testEnvironment"`
}

// Settings is the read-only configuration of the collector core.
type Settings struct {
	ReportPath               string              `yaml:"reportPath"`
	MaxMessageLength         int                 `yaml:"maxMessageLength"`
	CalculateStartupDuration bool                `yaml:"calculateStartupDuration"`
	Tool                     ToolSettings        `yaml:"tool"`
	Environment              EnvironmentSettings `yaml:"environment"`
}

// Default returns settings with all defaults applied.
func Default() Settings {
	return Settings{
		ReportPath:       DefaultReportPath,
		MaxMessageLength: DefaultMaxMessageLength,
		Tool:             ToolSettings{Name: "go test"},
	}
}

// Load reads settings from the given YAML file, then applies
// environment-variable overrides. An empty path yields pure defaults;
// a missing file is an error so typos don't silently fall back.
func Load(path string) (Settings, error) {
	s := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return s, fmt.Errorf("reading settings file: %w", err)
		}
		if err := yaml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("parsing settings file %s: %w", path, err)
		}
	}

	applyEnvOverrides(&s)

	if s.ReportPath == "" {
		s.ReportPath = DefaultReportPath
	}
	if s.MaxMessageLength <= 0 {
		s.MaxMessageLength = DefaultMaxMessageLength
	}
	return s, nil
}

func applyEnvOverrides(s *Settings) {
	setIfEnv := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setIfEnv(&s.ReportPath, "CTRF_REPORT_PATH")
	setIfEnv(&s.Tool.Name, "CTRF_TOOL_NAME")
	setIfEnv(&s.Tool.Version, "CTRF_TOOL_VERSION")
	setIfEnv(&s.Environment.ReportName, "CTRF_REPORT_NAME")
	setIfEnv(&s.Environment.AppName, "CTRF_APP_NAME")
	setIfEnv(&s.Environment.AppVersion, "CTRF_APP_VERSION")
	setIfEnv(&s.Environment.BuildName, "CTRF_BUILD_NAME")
	setIfEnv(&s.Environment.BuildNumber, "CTRF_BUILD_NUMBER")
	setIfEnv(&s.Environment.BuildURL, "CTRF_BUILD_URL")
	setIfEnv(&s.Environment.RepositoryName, "CTRF_REPOSITORY_NAME")
	setIfEnv(&s.Environment.RepositoryURL, "CTRF_REPOSITORY_URL")
	setIfEnv(&s.Environment.Commit, "CTRF_COMMIT")
	setIfEnv(&s.Environment.BranchName, "CTRF_BRANCH_NAME")
	setIfEnv(&s.Environment.TestEnvironment, "CTRF_TEST_ENVIRONMENT")
}
