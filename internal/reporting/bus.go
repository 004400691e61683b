package reporting

import (
	"context"
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/job-digest/internal/domain/events"
	"github.com/maxaizer/job-digest/internal/domain/models"
)

// Bus announces a finished report to subscribers such as the Telegram notifier.
type Bus struct {
	bus EventBus.Bus
}

func NewBus(bus EventBus.Bus) *Bus {
	return &Bus{bus: bus}
}

func (b *Bus) Report(_ context.Context, report models.Report) error {
	b.bus.Publish(events.RunCompletedTopic, events.RunCompleted{Report: report})
	return nil
}
