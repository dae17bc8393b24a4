package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/api-gateway/internal/events"
	"github.com/spec-kit/api-gateway/internal/store"
)

const auditPath = "audit"

// AuditRecord is the audit-trail document written per identity event.
type AuditRecord struct {
	EventID   string      `json:"eventId"`
	EventType string      `json:"eventType"`
	UserID    string      `json:"userId"`
	Timestamp int64       `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// AuditService persists an audit trail of identity events. Writes are
// best-effort: a store failure is logged, never propagated back into
// the identity flow.
type AuditService struct {
	dispatcher events.Dispatcher
	store      store.Store
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, s store.Store, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		store:      s,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to identity events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventAccountRegistered, a.handleEvent)
	a.dispatcher.Subscribe(events.EventLoginSucceeded, a.handleEvent)
	a.dispatcher.Subscribe(events.EventTokenRefreshed, a.handleEvent)
}

func (a *AuditService) handleEvent(ctx context.Context, event events.Event) error {
	record := AuditRecord{
		EventID:   event.ID,
		EventType: string(event.Type),
		UserID:    event.UserID,
		Timestamp: event.Timestamp.UnixMilli(),
		Payload:   event.Payload,
	}
	if err := a.store.Put(ctx, auditPath+"/"+event.ID, record); err != nil {
		a.logger.Warn("failed to write audit record",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return err
	}
	a.logger.Debug("audit record written",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("user_id", event.UserID))
	return nil
}
