package automerge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/simplesurance/automerger/internal/logfields"
)

const metricNamespace = "automerger"

const (
	githubEventsMetricName  = "processed_github_events_total"
	skippedMetricName       = "skipped_pull_requests_total"
	mergeAttemptsMetricName = "merge_attempts_total"
)

const (
	eventTypeLabel = "event_type"
	reasonLabel    = "reason"
	operationLabel = "operation"
	resultLabel    = "result"
)

const (
	resultLabelSuccessVal = "success"
	resultLabelFailureVal = "failure"
)

type metricCollector struct {
	logger          *zap.Logger
	processedEvents *prometheus.CounterVec
	skipped         *prometheus.CounterVec
	mergeAttempts   *prometheus.CounterVec
}

var metrics = newMetricCollector()

func newMetricCollector() *metricCollector {
	return &metricCollector{
		logger: zap.L().Named(loggerName).Named("metrics"),
		processedEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      githubEventsMetricName,
				Help:      "count of processed github webhook events",
			},
			[]string{eventTypeLabel},
		),
		skipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      skippedMetricName,
				Help:      "count of pull requests that were not merged, by reason",
			},
			[]string{reasonLabel},
		),
		mergeAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      mergeAttemptsMetricName,
				Help:      "count of merge mutations sent to github",
			},
			[]string{operationLabel, resultLabel},
		),
	}
}

func (m *metricCollector) logGetMetricFailed(metricName string, err error) {
	m.logger.Warn(
		"could not record metric",
		zap.String("metric", metricName),
		logfields.Event("recording_metric_failed"),
		zap.Error(err),
	)
}

func (m *metricCollector) ProcessedEventsInc(eventType string) {
	cnt, err := m.processedEvents.GetMetricWith(prometheus.Labels{eventTypeLabel: eventType})
	if err != nil {
		m.logGetMetricFailed(githubEventsMetricName, err)
		return
	}

	cnt.Inc()
}

func (m *metricCollector) SkippedInc(reason SkipReason) {
	cnt, err := m.skipped.GetMetricWith(prometheus.Labels{reasonLabel: reason.String()})
	if err != nil {
		m.logGetMetricFailed(skippedMetricName, err)
		return
	}

	cnt.Inc()
}

func (m *metricCollector) MergeAttemptInc(op MergeOperation, mergeErr error) {
	result := resultLabelSuccessVal
	if mergeErr != nil {
		result = resultLabelFailureVal
	}

	cnt, err := m.mergeAttempts.GetMetricWith(prometheus.Labels{
		operationLabel: op.String(),
		resultLabel:    result,
	})
	if err != nil {
		m.logGetMetricFailed(mergeAttemptsMetricName, err)
		return
	}

	cnt.Inc()
}
