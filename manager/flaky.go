package manager

import "github.com/testforge/ctrf-collector/ctrf"

// AnalyzeFlakiness computes the retry count and flaky flag of a new
// record from the ledger accumulated so far, including anything seeded
// from a previous run. Matching is by exact name; records without a
// name are never analyzed. A test that passes after having executed
// before under the same name is flaky regardless of whether the earlier
// attempts failed or merely reran: either way it is non-deterministic
// from the report consumer's point of view.
func AnalyzeFlakiness(newTest *ctrf.Test, ledger []ctrf.Test) {
	if newTest.Name == "" {
		return
	}

	var prior int
	var priorFailed bool
	for i := range ledger {
		if ledger[i].Name != newTest.Name {
			continue
		}
		prior++
		if ledger[i].Status == ctrf.TestStatusFailed {
			priorFailed = true
		}
	}

	if prior > 0 {
		retries := prior
		newTest.Retries = &retries
	}

	if newTest.Status == ctrf.TestStatusPassed && (priorFailed || prior > 0) {
		flaky := true
		newTest.Flaky = &flaky
	}
}
