package authstate

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// EventChannel is the Redis pub/sub channel carrying auth change events.
const EventChannel = "auth:events"

// EventKind enumerates the auth change notifications emitted by the auth
// handlers and consumed by every provider instance.
type EventKind string

const (
	KindSignedIn         EventKind = "signed-in"
	KindSignedOut        EventKind = "signed-out"
	KindTokenRefreshed   EventKind = "token-refreshed"
	KindUserUpdated      EventKind = "user-updated"
	KindPasswordRecovery EventKind = "password-recovery"
)

// Event is a single auth change notification.
type Event struct {
	Kind   EventKind `json:"kind"`
	UserID string    `json:"user_id,omitempty"`
}

// PublishEvent emits an auth change event on the shared channel.
func PublishEvent(ctx context.Context, client *redis.Client, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return client.Publish(ctx, EventChannel, data).Err()
}
