package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"support-chat-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository abstracts message persistence. ToggleReaction must
// serialize concurrent toggles on the same message so none silently
// overwrites another.
type MessageRepository interface {
	Create(ctx context.Context, msg models.Message) (models.Message, error)
	MarkConversationRead(ctx context.Context, conversationID, senderType string, at time.Time) error
	ToggleReaction(ctx context.Context, messageID, userID, emoji string) (string, []models.Reaction, error)
}

// MessageRepo is a sqlx implementation of MessageRepository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create persists a new message and returns it with id and timestamp
// assigned.
func (r *MessageRepo) Create(ctx context.Context, msg models.Message) (models.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if msg.Reactions == nil {
		msg.Reactions = []models.Reaction{}
	}

	var media any
	if msg.Media != nil {
		buf, err := json.Marshal(msg.Media)
		if err != nil {
			return models.Message{}, fmt.Errorf("marshal media: %w", err)
		}
		media = buf
	}
	reactions, err := json.Marshal(msg.Reactions)
	if err != nil {
		return models.Message{}, fmt.Errorf("marshal reactions: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, sender_id, sender_type, content, media, reactions, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		msg.ID, msg.ConversationID, msg.SenderID, msg.SenderType, msg.Content, media, reactions, msg.CreatedAt)
	if err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// MarkConversationRead stamps read_at on every unread message authored
// by senderType in the conversation.
func (r *MessageRepo) MarkConversationRead(ctx context.Context, conversationID, senderType string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE messages SET read_at=$3 WHERE conversation_id=$1 AND sender_type=$2 AND read_at IS NULL`,
		conversationID, senderType, at)
	return err
}

// ToggleReaction flips the user's emoji reaction under a row lock and
// returns the message's conversation id with the resulting list. The
// SELECT ... FOR UPDATE serializes concurrent toggles per message.
func (r *MessageRepo) ToggleReaction(ctx context.Context, messageID, userID, emoji string) (string, []models.Reaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", nil, err
	}
	defer tx.Rollback()

	var row struct {
		ConversationID string `db:"conversation_id"`
		Reactions      []byte `db:"reactions"`
	}
	err = tx.GetContext(ctx, &row,
		`SELECT conversation_id, reactions FROM messages WHERE id=$1 FOR UPDATE`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, ErrMessageNotFound
	}
	if err != nil {
		return "", nil, err
	}

	var reactions []models.Reaction
	if err := json.Unmarshal(row.Reactions, &reactions); err != nil {
		return "", nil, fmt.Errorf("unmarshal reactions: %w", err)
	}
	reactions = models.ToggleReaction(reactions, userID, emoji)

	buf, err := json.Marshal(reactions)
	if err != nil {
		return "", nil, fmt.Errorf("marshal reactions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE messages SET reactions=$2 WHERE id=$1`, messageID, buf); err != nil {
		return "", nil, err
	}
	if err := tx.Commit(); err != nil {
		return "", nil, err
	}
	return row.ConversationID, reactions, nil
}
