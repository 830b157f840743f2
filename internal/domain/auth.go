package domain

import "time"

// Session describes an issued bearer token. Sessions are not persisted.
type Session struct {
	UserID    string
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
