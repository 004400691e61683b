package logger

import (
	"github.com/maxaizer/job-digest/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"testing"
)

func entry(level log.Level, fields log.Fields) *log.Entry {
	e := log.NewEntry(log.New()).WithFields(fields)
	e.Level = level
	return e
}

func Test_PrometheusHook_CountsErrorsAndTypedWarnings(t *testing.T) {
	hook := &prometheusHook{}

	sourceWarnings := metrics.ErrorsCounter.WithLabelValues(ErrorTypeSource, "warning")
	untypedErrors := metrics.ErrorsCounter.WithLabelValues(unknownErrorType, "error")
	dbErrors := metrics.ErrorsCounter.WithLabelValues(ErrorTypeDb, "error")
	untypedWarnings := metrics.ErrorsCounter.WithLabelValues(unknownErrorType, "warning")

	warningsBefore := testutil.ToFloat64(sourceWarnings)
	untypedBefore := testutil.ToFloat64(untypedErrors)
	dbBefore := testutil.ToFloat64(dbErrors)
	untypedWarningsBefore := testutil.ToFloat64(untypedWarnings)

	assert.NoError(t, hook.Fire(entry(log.WarnLevel, log.Fields{ErrorTypeField: ErrorTypeSource})))
	assert.NoError(t, hook.Fire(entry(log.WarnLevel, log.Fields{})))
	assert.NoError(t, hook.Fire(entry(log.ErrorLevel, log.Fields{})))
	assert.NoError(t, hook.Fire(entry(log.ErrorLevel, log.Fields{ErrorTypeField: ErrorTypeDb})))

	assert.Equal(t, warningsBefore+1, testutil.ToFloat64(sourceWarnings))
	assert.Equal(t, untypedBefore+1, testutil.ToFloat64(untypedErrors))
	assert.Equal(t, dbBefore+1, testutil.ToFloat64(dbErrors))
	assert.Equal(t, untypedWarningsBefore, testutil.ToFloat64(untypedWarnings))
}
