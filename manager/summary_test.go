package manager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testforge/ctrf-collector/ctrf"
)

func TestBuildSummary(t *testing.T) {
	tests := []ctrf.Test{
		{Name: "a", Status: ctrf.TestStatusPassed},
		{Name: "b", Status: ctrf.TestStatusPassed},
		{Name: "c", Status: ctrf.TestStatusFailed},
		{Name: "d", Status: ctrf.TestStatusSkipped},
		{Name: "e", Status: ctrf.TestStatusPending},
		{Name: "f", Status: ctrf.TestStatusOther},
		{Name: "g", Status: "mystery"},
	}

	summary := BuildSummary(tests, 100, 900)

	assert.Equal(t, 7, summary.Tests)
	assert.Equal(t, 2, summary.Passed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Pending)
	assert.Equal(t, 1, summary.Other)
	assert.Equal(t, int64(100), summary.Start)
	assert.Equal(t, int64(900), summary.Stop)
}

func TestBuildSummary_Empty(t *testing.T) {
	summary := BuildSummary(nil, 100, 200)
	assert.Equal(t, 0, summary.Tests)
	assert.Equal(t, 0, summary.Passed)
}

func TestApplyStartupDuration(t *testing.T) {
	summary := ctrf.Summary{}
	tests := []ctrf.Test{
		{Name: "a", Start: 1500},
		{Name: "b", Start: 1200},
		{Name: "c", Start: 0},
	}

	applyStartupDuration(&summary, tests, 1000)
	require.NotNil(t, summary.Extra)
	assert.Equal(t, int64(200), summary.Extra.StartupDuration)
}

func TestApplyStartupDuration_SkipsEmptyLedger(t *testing.T) {
	summary := ctrf.Summary{}
	applyStartupDuration(&summary, nil, 1000)
	assert.Nil(t, summary.Extra)
}

func TestApplyStartupDuration_SkipsSeededOlderStarts(t *testing.T) {
	summary := ctrf.Summary{}
	// Records seeded from a previous run predate this run's start.
	tests := []ctrf.Test{{Name: "a", Start: 500}}
	applyStartupDuration(&summary, tests, 1000)
	assert.Nil(t, summary.Extra)
}
