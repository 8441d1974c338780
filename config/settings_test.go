package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s := Default()
	assert.Equal(t, DefaultReportPath, s.ReportPath)
	assert.Equal(t, DefaultMaxMessageLength, s.MaxMessageLength)
	assert.Equal(t, "go test", s.Tool.Name)
	assert.False(t, s.CalculateStartupDuration)
}

func TestLoad_EmptyPathYieldsDefaults(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoad_MissingFileIsAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_FromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctrf.yaml")
	content := `
reportPath: out/report.json
maxMessageLength: 120
calculateStartupDuration: true
tool:
  name: junit
  version: "5.10"
environment:
  appName: shop
  branchName: main
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "out/report.json", s.ReportPath)
	assert.Equal(t, 120, s.MaxMessageLength)
	assert.True(t, s.CalculateStartupDuration)
	assert.Equal(t, "junit", s.Tool.Name)
	assert.Equal(t, "5.10", s.Tool.Version)
	assert.Equal(t, "shop", s.Environment.AppName)
	assert.Equal(t, "main", s.Environment.BranchName)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctrf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reportPath: [broken"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("CTRF_REPORT_PATH", "env/report.json")
	t.Setenv("CTRF_TOOL_NAME", "pytest")
	t.Setenv("CTRF_BUILD_NUMBER", "42")

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env/report.json", s.ReportPath)
	assert.Equal(t, "pytest", s.Tool.Name)
	assert.Equal(t, "42", s.Environment.BuildNumber)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctrf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reportPath: file/report.json"), 0o644))
	t.Setenv("CTRF_REPORT_PATH", "env/report.json")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env/report.json", s.ReportPath)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctrf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("maxMessageLength: -5"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxMessageLength, s.MaxMessageLength)
	assert.Equal(t, DefaultReportPath, s.ReportPath)
}
