package ws

import "support-chat-service/internal/models"

// Role is the resolved kind of a connection's principal.
type Role int

const (
	RoleUnset Role = iota
	RoleUser
	RoleAdmin
)

// Identity is the resolved principal of a connection: unset until a
// join succeeds, then a guest user id or an admin subject.
type Identity struct {
	Role   Role
	UserID string
}

// Session is the transient per-connection state: the resolved identity,
// the guest's session credential, and the single conversation slot the
// connection currently tracks. A later conversation join overwrites the
// slot without unsubscribing the previous channel; callers must leave
// explicitly. Only the connection's own read loop mutates a Session.
type Session struct {
	Identity            Identity
	SessionToken        string
	CurrentConversation string
}

// Authenticated reports whether a join has resolved an identity.
func (s *Session) Authenticated() bool {
	return s.Identity.Role != RoleUnset
}

// SenderType maps the identity role onto a message sender role. Empty
// for unauthenticated connections.
func (s *Session) SenderType() string {
	switch s.Identity.Role {
	case RoleAdmin:
		return models.RoleAdmin
	case RoleUser:
		return models.RoleUser
	default:
		return ""
	}
}
