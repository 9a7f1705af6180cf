package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"support-chat-service/internal/models"
)

var ErrConversationNotFound = errors.New("conversation not found")

// ConversationRepository abstracts conversation persistence. Counter and
// summary updates are single SQL statements so interleaved sends never
// lose increments.
type ConversationRepository interface {
	Get(ctx context.Context, id string) (models.Conversation, error)
	ApplyLastMessage(ctx context.Context, id, snippet string, at time.Time, senderRole string) error
	ResetUnread(ctx context.Context, id, role string) error
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// Get fetches a conversation by id.
func (r *ConversationRepo) Get(ctx context.Context, id string) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT id, participant_id, last_message_content, last_message_at, last_message_sender,
                unread_admin, unread_user, is_active, created_at, updated_at
         FROM conversations WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// ApplyLastMessage overwrites the denormalized summary and bumps the
// recipient role's unread counter in one atomic statement.
func (r *ConversationRepo) ApplyLastMessage(ctx context.Context, id, snippet string, at time.Time, senderRole string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET
            last_message_content=$2,
            last_message_at=$3,
            last_message_sender=$4,
            unread_admin = unread_admin + CASE WHEN $4 = 'user' THEN 1 ELSE 0 END,
            unread_user  = unread_user  + CASE WHEN $4 = 'admin' THEN 1 ELSE 0 END,
            updated_at = NOW()
         WHERE id=$1`,
		id, snippet, at, senderRole)
	return err
}

// ResetUnread zeroes the counter owned by the reading role.
func (r *ConversationRepo) ResetUnread(ctx context.Context, id, role string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET
            unread_admin = CASE WHEN $2 = 'admin' THEN 0 ELSE unread_admin END,
            unread_user  = CASE WHEN $2 = 'user'  THEN 0 ELSE unread_user  END,
            updated_at = NOW()
         WHERE id=$1`,
		id, role)
	return err
}
