package service

import (
	"go.uber.org/zap"

	"github.com/HL8-ORG/aiofix-ddd-saas-platform-sub001/internal/domain"
)

// EventPublisher forwards drained domain events to the audit/event layer.
// The bus itself is out of scope; implementations adapt to whatever carrier
// the deployment uses.
type EventPublisher interface {
	Publish(events ...domain.Event)
}

// LogPublisher writes every domain event to the audit logger.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a publisher backed by the given logger.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(events ...domain.Event) {
	for _, ev := range events {
		p.logger.Info("domain event",
			zap.String("event", ev.EventName()),
			zap.String("permission_id", ev.AggregateID().String()),
			zap.String("tenant_id", ev.TenantID().String()),
			zap.Time("occurred_at", ev.OccurredAt()),
		)
	}
}

// NopPublisher drops all events. Used when no audit sink is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(events ...domain.Event) {}
