package models

import "time"

// MaxContentLength bounds message text, matching the storage schema.
const MaxContentLength = 5000

// MessageMedia describes an attached file by reference; storage of the
// bytes themselves happens elsewhere.
type MessageMedia struct {
	Type string `json:"type"`
	URL  string `json:"url"`
	Name string `json:"name"`
	Size int64  `json:"size,omitempty"`
}

// Reaction is one emoji together with the users who applied it. An
// entry with an empty user set must never exist; the toggle removes it.
// The usersIds key is part of the client wire contract.
type Reaction struct {
	Emoji   string   `json:"emoji"`
	UserIDs []string `json:"usersIds"`
}

// Message belongs to exactly one conversation and is immutable once
// created except for its reaction set and read timestamp.
type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	SenderType     string
	Content        string
	Media          *MessageMedia
	Reactions      []Reaction
	ReadAt         *time.Time
	DeliveredAt    *time.Time
	CreatedAt      time.Time
}

// MessageView is the wire projection of a message.
type MessageView struct {
	ID             string        `json:"_id"`
	ConversationID string        `json:"conversationId"`
	SenderID       string        `json:"senderId"`
	SenderType     string        `json:"senderType"`
	Content        string        `json:"content"`
	Media          *MessageMedia `json:"media,omitempty"`
	Reactions      []Reaction    `json:"reactions"`
	ReadAt         *time.Time    `json:"readAt,omitempty"`
	DeliveredAt    *time.Time    `json:"deliveredAt,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// View returns the wire projection.
func (m Message) View() MessageView {
	reactions := m.Reactions
	if reactions == nil {
		reactions = []Reaction{}
	}
	return MessageView{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderType:     m.SenderType,
		Content:        m.Content,
		Media:          m.Media,
		Reactions:      reactions,
		ReadAt:         m.ReadAt,
		DeliveredAt:    m.DeliveredAt,
		CreatedAt:      m.CreatedAt,
	}
}

// ToggleReaction flips userID's membership in the emoji's user set and
// returns the resulting reaction list. Entries keep insertion order; an
// entry whose last user is removed disappears entirely. Applying the
// same toggle twice restores the original list.
func ToggleReaction(reactions []Reaction, userID, emoji string) []Reaction {
	result := make([]Reaction, 0, len(reactions)+1)
	found := false
	for _, r := range reactions {
		if r.Emoji != emoji {
			result = append(result, r)
			continue
		}
		found = true
		users := make([]string, 0, len(r.UserIDs)+1)
		removed := false
		for _, id := range r.UserIDs {
			if id == userID {
				removed = true
				continue
			}
			users = append(users, id)
		}
		if !removed {
			users = append(users, userID)
		}
		if len(users) > 0 {
			result = append(result, Reaction{Emoji: emoji, UserIDs: users})
		}
	}
	if !found {
		result = append(result, Reaction{Emoji: emoji, UserIDs: []string{userID}})
	}
	return result
}
