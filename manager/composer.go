package manager

import (
	"time"

	"github.com/google/uuid"

	"github.com/testforge/ctrf-collector/ctrf"
)

// composeReport assembles the final CTRF document from the finished
// ledger, the summary and the settings. Each write gets a fresh report
// id and a composition-time timestamp.
func (m *Manager) composeReport(summary ctrf.Summary, tests []ctrf.Test) *ctrf.Report {
	healthy := m.healthy.Load()

	env := m.settings.Environment
	return &ctrf.Report{
		ReportFormat: ctrf.ReportFormat,
		SpecVersion:  ctrf.SpecVersion,
		ReportID:     uuid.NewString(),
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		GeneratedBy:  m.generatorName(),
		Results: ctrf.Results{
			Tool: ctrf.Tool{
				Name:    m.settings.Tool.Name,
				Version: m.settings.Tool.Version,
			},
			Summary: summary,
			Tests:   tests,
			Environment: &ctrf.Environment{
				ReportName:      env.ReportName,
				AppName:         env.AppName,
				AppVersion:      env.AppVersion,
				BuildName:       env.BuildName,
				BuildNumber:     env.BuildNumber,
				BuildURL:        env.BuildURL,
				RepositoryName:  env.RepositoryName,
				RepositoryURL:   env.RepositoryURL,
				Commit:          env.Commit,
				BranchName:      env.BranchName,
				OSPlatform:      env.OSPlatform,
				OSRelease:       env.OSRelease,
				OSVersion:       env.OSVersion,
				TestEnvironment: env.TestEnvironment,
				Healthy:         &healthy,
			},
		},
	}
}
