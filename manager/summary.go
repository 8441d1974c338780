package manager

import "github.com/testforge/ctrf-collector/ctrf"

// BuildSummary counts tests by status in a single pass. Records with an
// unknown or empty status are excluded from the per-status counts but
// still count toward the total.
func BuildSummary(tests []ctrf.Test, start, stop int64) ctrf.Summary {
	summary := ctrf.Summary{
		Tests: len(tests),
		Start: start,
		Stop:  stop,
	}
	for i := range tests {
		switch tests[i].Status {
		case ctrf.TestStatusPassed:
			summary.Passed++
		case ctrf.TestStatusFailed:
			summary.Failed++
		case ctrf.TestStatusSkipped:
			summary.Skipped++
		case ctrf.TestStatusPending:
			summary.Pending++
		case ctrf.TestStatusOther:
			summary.Other++
		}
	}
	return summary
}

// applyStartupDuration records the gap between the run start and the
// earliest test start as a summary extra. Nothing is recorded for an
// empty ledger or when every record predates the run start.
func applyStartupDuration(summary *ctrf.Summary, tests []ctrf.Test, runStart int64) {
	if len(tests) == 0 {
		return
	}

	var earliest int64
	for i := range tests {
		if tests[i].Start == 0 {
			continue
		}
		if earliest == 0 || tests[i].Start < earliest {
			earliest = tests[i].Start
		}
	}
	if earliest == 0 || earliest < runStart {
		return
	}

	summary.Extra = &ctrf.SummaryExtra{StartupDuration: earliest - runStart}
}
