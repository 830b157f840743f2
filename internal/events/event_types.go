package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/homemanager/auth-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserLoggedIn      EventType = "user_logged_in"
	EventLoginRejected     EventType = "login_rejected"
	EventLoginThrottled    EventType = "login_throttled"
	EventUserRegistered    EventType = "user_registered"
	EventPasswordChanged   EventType = "password_changed"
	EventUserStatusChanged EventType = "user_status_changed"
	EventUserRoleChanged   EventType = "user_role_changed"
)

// Actor identifies who triggered an event. Anonymous login attempts have no
// user id.
type Actor struct {
	UserID *string     `json:"user_id,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// LoginPayload describes a login attempt.
type LoginPayload struct {
	Email  string `json:"email"`
	Reason string `json:"reason,omitempty"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Apartment string      `json:"apartment"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
}

// UserStatusChangedPayload payload.
type UserStatusChangedPayload struct {
	OldActive bool `json:"old_active"`
	NewActive bool `json:"new_active"`
}

// UserRoleChangedPayload payload.
type UserRoleChangedPayload struct {
	OldRole domain.Role `json:"old_role"`
	NewRole domain.Role `json:"new_role"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, userID string, actor Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}
