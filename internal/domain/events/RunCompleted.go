package events

import (
	"github.com/maxaizer/job-digest/internal/domain/models"
)

var RunCompletedTopic = "RunCompletedEvent"

type RunCompleted struct {
	Report models.Report
}

var RunFailedTopic = "RunFailedEvent"

type RunFailed struct {
	RunID string
	Stage string
	Error string
}
