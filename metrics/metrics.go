package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "xrcts"
)

var (
	Debug                bool = false
	validResults              = []string{"pass", "fail", "skip"}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	validationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "validations_total",
		Help:      "Count of validations",
	}, []string{
		"runtime",
		"run_id",
		"name",
		"type",
		"result",
	})

	acceptanceResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "acceptance_results",
		Help:      "Result of conformance runs",
	}, []string{
		"runtime",
		"run_id",
		"result",
	})

	acceptanceTestTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "acceptance_test_total",
		Help:      "Total number of conformance tests",
	}, []string{
		"runtime",
		"run_id",
	})

	acceptanceTestPassed = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "acceptance_test_passed",
		Help:      "Number of passed conformance tests",
	}, []string{
		"runtime",
		"run_id",
	})

	acceptanceTestFailed = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "acceptance_test_failed",
		Help:      "Number of failed conformance tests",
	}, []string{
		"runtime",
		"run_id",
	})

	acceptanceTestDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "acceptance_test_duration",
		Help:      "Duration of conformance runs",
	}, []string{
		"runtime",
		"run_id",
	})

	eventsPolledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "events_polled_total",
		Help:      "Count of events read from runtime event queues",
	}, []string{
		"type",
	})

	sessionTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "session_transitions_total",
		Help:      "Count of observed session state transitions",
	}, []string{
		"from",
		"to",
	})

	framesSubmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "frames_submitted_total",
		Help:      "Count of frame cycles driven, by outcome",
	}, []string{
		"result",
	})

	contractChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "contract_checks_total",
		Help:      "Count of lifecycle contract assertions",
	}, []string{
		"check",
		"result",
	})

	stateWaitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Name:      "state_wait_seconds",
		Help:      "Time taken for an expected session state to arrive",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{
		"state",
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
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
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

func RecordValidation(runtime string, runID string, valName string, valType string, result string) {
	if !isValidResult(result) {
		log.Error("RecordValidation - invalid result", "result", result)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "validations_total",
			"runtime", runtime,
			"run_id", runID,
			"validator", valName,
			"type", valType,
			"result", result)
	}
	validationsTotal.WithLabelValues(runtime, runID, valName, valType, result).Inc()
}

func RecordAcceptance(
	runtime string,
	runID string,
	result string,
	total int,
	passed int,
	failed int,
	duration time.Duration,
) {
	acceptanceResults.WithLabelValues(runtime, runID, result).Set(1)
	acceptanceTestTotal.WithLabelValues(runtime, runID).Set(float64(total))
	acceptanceTestPassed.WithLabelValues(runtime, runID).Set(float64(passed))
	acceptanceTestFailed.WithLabelValues(runtime, runID).Set(float64(failed))
	acceptanceTestDuration.WithLabelValues(runtime, runID).Set(duration.Seconds())
}

func RecordEventPolled(eventType string) {
	eventsPolledTotal.WithLabelValues(eventType).Inc()
}

func RecordSessionTransition(from string, to string) {
	if Debug {
		log.Debug("metric inc",
			"m", "session_transitions_total",
			"from", from,
			"to", to)
	}
	sessionTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordFrameSubmitted counts one frame cycle. result is the name of the
// failing call's result code, or "ok".
func RecordFrameSubmitted(result string) {
	framesSubmittedTotal.WithLabelValues(result).Inc()
}

func RecordContractCheck(check string, result string) {
	if !isValidResult(result) {
		log.Error("RecordContractCheck - invalid result", "result", result)
		return
	}
	contractChecksTotal.WithLabelValues(check, result).Inc()
}

func RecordStateWait(state string, d time.Duration) {
	stateWaitSeconds.WithLabelValues(state).Observe(d.Seconds())
}

func isValidResult(result string) bool {
	return slices.Contains(validResults, result)
}
