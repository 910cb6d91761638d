package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocerly/authserver/types"
)

type captureBackend struct {
	channel string
	data    []byte
	attrs   map[string]string
}

func (c *captureBackend) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	c.channel = channel
	c.data = data
	c.attrs = attrs
	return "msg-1", nil
}

func (c *captureBackend) Subscribe(context.Context, string, Handler) error { return nil }
func (c *captureBackend) Close() error                                     { return nil }

func TestPublishAudit(t *testing.T) {
	backend := &captureBackend{}
	publisher := NewPublisher(backend, "auth-events")

	event := types.AuditEvent{
		Kind:      types.EventLogin,
		UserID:    uuid.New(),
		Success:   true,
		Timestamp: time.Now().UTC(),
	}

	id, err := publisher.PublishAudit(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	assert.Equal(t, "auth-events", backend.channel)
	assert.Equal(t, map[string]string{"kind": types.EventLogin}, backend.attrs)

	var decoded types.AuditEvent
	require.NoError(t, json.Unmarshal(backend.data, &decoded))
	assert.Equal(t, event.UserID, decoded.UserID)
	assert.True(t, decoded.Success)
}
