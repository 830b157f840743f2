package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/homemanager/auth-service/internal/events"
)

// NotificationService records account events. Outbound delivery (email, push)
// is handled elsewhere; this subscriber keeps the security audit trail in logs.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserLoggedIn, n.handleInfo)
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleInfo)
	n.dispatcher.Subscribe(events.EventPasswordChanged, n.handleInfo)
	n.dispatcher.Subscribe(events.EventUserStatusChanged, n.handleInfo)
	n.dispatcher.Subscribe(events.EventUserRoleChanged, n.handleInfo)
	n.dispatcher.Subscribe(events.EventLoginRejected, n.handleWarn)
	n.dispatcher.Subscribe(events.EventLoginThrottled, n.handleWarn)
}

func (n *NotificationService) handleInfo(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), eventFields(event)...)
	return nil
}

func (n *NotificationService) handleWarn(_ context.Context, event events.Event) error {
	n.logger.Warn(string(event.Type), eventFields(event)...)
	return nil
}

func eventFields(event events.Event) []zap.Field {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.Time("at", event.Timestamp),
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if event.Actor.UserID != nil {
		fields = append(fields, zap.String("actor_id", *event.Actor.UserID), zap.String("actor_role", string(event.Actor.Role)))
	}
	if event.Payload != nil {
		fields = append(fields, zap.Any("payload", event.Payload))
	}
	return fields
}
