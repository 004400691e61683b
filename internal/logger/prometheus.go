package logger

import (
	"github.com/maxaizer/job-digest/internal/metrics"
	log "github.com/sirupsen/logrus"
)

const unknownErrorType = "unknown"

// prometheusHook counts every error and every warning that names its error type,
// so skipped postings and coerced scores show up next to hard failures.
type prometheusHook struct{}

func (h *prometheusHook) Fire(entry *log.Entry) error {
	errorType, typed := entry.Data[ErrorTypeField].(string)
	if entry.Level == log.WarnLevel && !typed {
		return nil
	}
	if !typed {
		errorType = unknownErrorType
	}

	metrics.ErrorsCounter.WithLabelValues(errorType, entry.Level.String()).Inc()
	return nil
}

func (h *prometheusHook) Levels() []log.Level {
	return []log.Level{log.PanicLevel, log.FatalLevel, log.ErrorLevel, log.WarnLevel}
}

func addPrometheusHook() {
	log.AddHook(&prometheusHook{})
	log.Debug("Prometheus logging enabled")
}
