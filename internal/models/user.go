package models

import (
	"database/sql"
	"time"
)

// ChatUser is a guest visitor identified by a long-lived session token.
// Records are created when the token is issued (outside this service);
// this service only resolves and mutates presence state.
type ChatUser struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Email        string         `db:"email"`
	Photo        sql.NullString `db:"photo"`
	SessionToken string         `db:"session_token"`
	ConnID       sql.NullString `db:"conn_id"`
	IsOnline     bool           `db:"is_online"`
	LastSeen     time.Time      `db:"last_seen"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// PublicUser is the projection sent to clients. It never carries the
// session token.
type PublicUser struct {
	ID       string    `json:"_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Photo    string    `json:"photo,omitempty"`
	IsOnline bool      `json:"isOnline"`
	LastSeen time.Time `json:"lastSeen"`
}

// Public returns the credential-free view of the user.
func (u ChatUser) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Photo:    u.Photo.String,
		IsOnline: u.IsOnline,
		LastSeen: u.LastSeen,
	}
}
