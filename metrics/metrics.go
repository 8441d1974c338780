package metrics

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/testforge/ctrf-collector/ctrf"
)

const (
	MetricsNamespace = "ctrf"
)

var (
	nonAlphanumericRegex = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "runs_total",
		Help:      "Count of completed test runs",
	}, []string{
		"generator",
		"result",
	})

	runTests = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_tests",
		Help:      "Per-status test counts of the last completed run",
	}, []string{
		"generator",
		"status",
	})

	runFlakyTests = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_flaky_tests",
		Help:      "Number of flaky tests in the last completed run",
	}, []string{
		"generator",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of the last completed run",
	}, []string{
		"generator",
	})

	environmentHealthy = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "environment_healthy",
		Help:      "Whether the test environment was healthy at run finish (1 healthy, 0 unhealthy)",
	}, []string{
		"generator",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

// RecordRun records the outcome of one completed run.
func RecordRun(generator string, report *ctrf.Report, flakyCount int, healthy bool) {
	summary := report.Results.Summary

	result := "passed"
	if summary.Failed > 0 {
		result = "failed"
	}
	runsTotal.WithLabelValues(generator, result).Inc()

	runTests.WithLabelValues(generator, string(ctrf.TestStatusPassed)).Set(float64(summary.Passed))
	runTests.WithLabelValues(generator, string(ctrf.TestStatusFailed)).Set(float64(summary.Failed))
	runTests.WithLabelValues(generator, string(ctrf.TestStatusSkipped)).Set(float64(summary.Skipped))
	runTests.WithLabelValues(generator, string(ctrf.TestStatusPending)).Set(float64(summary.Pending))
	runTests.WithLabelValues(generator, string(ctrf.TestStatusOther)).Set(float64(summary.Other))
	runFlakyTests.WithLabelValues(generator).Set(float64(flakyCount))

	duration := time.Duration(summary.Stop-summary.Start) * time.Millisecond
	runDuration.WithLabelValues(generator).Set(duration.Seconds())

	if healthy {
		environmentHealthy.WithLabelValues(generator).Set(1)
	} else {
		environmentHealthy.WithLabelValues(generator).Set(0)
	}
}
