package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/api-gateway/internal/domain"
	"github.com/spec-kit/api-gateway/internal/events"
	"github.com/spec-kit/api-gateway/internal/store"
)

func TestAuditRecordWrittenOnEvent(t *testing.T) {
	mem := store.NewMemory()
	dispatcher := events.NewInMemoryDispatcher()
	audit := NewAuditService(dispatcher, mem, zap.NewNop())
	audit.RegisterHandlers()

	ctx := context.Background()
	event := events.Event{
		ID:        "evt-1",
		Type:      events.EventAccountRegistered,
		UserID:    "u1",
		Timestamp: time.Now(),
		Payload:   events.AccountRegisteredPayload{Email: "a@b.c", Role: domain.RoleCustomer},
	}
	require.NoError(t, dispatcher.Publish(ctx, event))

	var record AuditRecord
	require.NoError(t, mem.Get(ctx, "audit/evt-1", &record))
	assert.Equal(t, "account_registered", record.EventType)
	assert.Equal(t, "u1", record.UserID)
	assert.Greater(t, record.Timestamp, int64(0))
}

func TestAuditIgnoresUnsubscribedEvents(t *testing.T) {
	mem := store.NewMemory()
	dispatcher := events.NewInMemoryDispatcher()
	audit := NewAuditService(dispatcher, mem, zap.NewNop())
	audit.RegisterHandlers()

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		ID:   "evt-2",
		Type: events.EventType("something_else"),
	}))

	var record AuditRecord
	assert.ErrorIs(t, mem.Get(context.Background(), "audit/evt-2", &record), store.ErrNotFound)
}
