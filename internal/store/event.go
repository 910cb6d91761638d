package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/grocerly/authserver/types"
)

// EventRepository persists signup and login audit events.
type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) RecordSignup(ctx context.Context, userID uuid.UUID, at time.Time) (types.AuditEvent, error) {
	event := types.AuditEvent{
		Kind:      types.EventSignup,
		UserID:    userID,
		Success:   true,
		Timestamp: at,
	}

	const query = `
		INSERT INTO signup_events (user_id, timestamp)
		VALUES ($1, $2)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, userID, at).Scan(&event.ID); err != nil {
		return types.AuditEvent{}, err
	}
	return event, nil
}

func (r *EventRepository) RecordLogin(ctx context.Context, userID uuid.UUID, success bool, at time.Time) (types.AuditEvent, error) {
	event := types.AuditEvent{
		Kind:      types.EventLogin,
		UserID:    userID,
		Success:   success,
		Timestamp: at,
	}

	const query = `
		INSERT INTO login_events (user_id, success, timestamp)
		VALUES ($1, $2, $3)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, userID, success, at).Scan(&event.ID); err != nil {
		return types.AuditEvent{}, err
	}
	return event, nil
}
