package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/homemanager/auth-service/internal/events"
)

func TestNotificationService_LogsEvents(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(dispatcher, zap.New(core)).RegisterHandlers()

	ctx := context.Background()
	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventUserLoggedIn, "u1", events.Actor{}, nil)))
	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventLoginThrottled, "", events.Actor{},
		events.LoginPayload{Email: "janis@example.com"})))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "user_logged_in", entries[0].Message)
	assert.Equal(t, "u1", entries[0].ContextMap()["user_id"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "login_throttled", entries[1].Message)
	assert.NotContains(t, entries[1].ContextMap(), "user_id")
}
