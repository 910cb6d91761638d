package types

import (
	"time"

	"github.com/google/uuid"
)

// Audit event kinds.
const (
	EventSignup = "signup"
	EventLogin  = "login"
)

// AuditEvent records a signup or login against a known account.
type AuditEvent struct {
	// ID is the database row id, assigned on insert.
	ID int64 `json:"id" db:"id"`

	// Kind is EventSignup or EventLogin.
	Kind string `json:"kind"`

	// UserID references the account the event belongs to.
	UserID uuid.UUID `json:"user_id" db:"user_id"`

	// Success is meaningful for login events only.
	Success bool `json:"success,omitempty" db:"success"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}
