package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"support-chat-service/internal/models"
)

var ErrUserNotFound = errors.New("chat user not found")

// UserRepository abstracts guest user persistence.
type UserRepository interface {
	FindBySessionToken(ctx context.Context, token string) (models.ChatUser, error)
	FindByID(ctx context.Context, id string) (models.ChatUser, error)
	SetOnline(ctx context.Context, id, connID string, at time.Time) error
	SetOffline(ctx context.Context, id string, at time.Time) error
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, name, email, photo, session_token, conn_id, is_online, last_seen, created_at, updated_at`

// FindBySessionToken resolves a guest by their opaque session credential.
func (r *UserRepo) FindBySessionToken(ctx context.Context, token string) (models.ChatUser, error) {
	var user models.ChatUser
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM chat_users WHERE session_token=$1`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatUser{}, ErrUserNotFound
	}
	return user, err
}

// FindByID fetches a guest by id.
func (r *UserRepo) FindByID(ctx context.Context, id string) (models.ChatUser, error) {
	var user models.ChatUser
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM chat_users WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatUser{}, ErrUserNotFound
	}
	return user, err
}

// SetOnline marks the user online and binds the live connection id.
// Safe to call redundantly; last write wins.
func (r *UserRepo) SetOnline(ctx context.Context, id, connID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE chat_users SET is_online=TRUE, conn_id=$2, last_seen=$3, updated_at=NOW() WHERE id=$1`,
		id, connID, at)
	return err
}

// SetOffline marks the user offline, clears the connection id and
// stamps last seen.
func (r *UserRepo) SetOffline(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE chat_users SET is_online=FALSE, conn_id=NULL, last_seen=$2, updated_at=NOW() WHERE id=$1`,
		id, at)
	return err
}
