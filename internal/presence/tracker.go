// Package presence owns the online/offline state of guest users. It is
// the single writer of the is_online, last_seen and conn_id fields.
package presence

import (
	"context"
	"fmt"
	"time"

	"support-chat-service/internal/repositories"
)

// Tracker records presence transitions. Both operations are idempotent
// and safe under rapid reconnect races; last write wins.
type Tracker struct {
	users repositories.UserRepository
}

// NewTracker constructs a Tracker.
func NewTracker(users repositories.UserRepository) *Tracker {
	return &Tracker{users: users}
}

// MarkOnline flags the user online, binds the connection id and stamps
// last seen. Returns the timestamp written.
func (t *Tracker) MarkOnline(ctx context.Context, userID, connID string) (time.Time, error) {
	now := time.Now().UTC()
	if err := t.users.SetOnline(ctx, userID, connID, now); err != nil {
		return time.Time{}, fmt.Errorf("mark online: %w", err)
	}
	return now, nil
}

// MarkOffline flags the user offline, clears the connection id and
// stamps last seen. Returns the timestamp written.
func (t *Tracker) MarkOffline(ctx context.Context, userID string) (time.Time, error) {
	now := time.Now().UTC()
	if err := t.users.SetOffline(ctx, userID, now); err != nil {
		return time.Time{}, fmt.Errorf("mark offline: %w", err)
	}
	return now, nil
}
