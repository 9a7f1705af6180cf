// Package protocol defines the JSON frames exchanged over the chat
// websocket. Client frames carry an event name, an optional ack id and
// a raw payload that the matching handler decodes. Server frames are
// either acknowledgements (echoing the client's id) or pushed events.
package protocol

import "encoding/json"

// Client -> server event names.
const (
	EventUserJoin          = "user:join"
	EventAdminJoin         = "admin:join"
	EventConversationJoin  = "conversation:join"
	EventConversationLeave = "conversation:leave"
	EventTypingStart       = "typing:start"
	EventTypingStop        = "typing:stop"
	EventMessageSend       = "message:send"
	EventMessageRead       = "message:read"
	EventMessageReact      = "message:react"
)

// Server -> client event names. EventMessageRead is used in both
// directions.
const (
	EventUserOnline      = "user:online"
	EventUserOffline     = "user:offline"
	EventUserTyping      = "user:typing"
	EventUserStopTyping  = "user:stop-typing"
	EventMessageNew      = "message:new"
	EventMessageReaction = "message:reaction"
	EventAck             = "ack"
)

// ClientFrame is the envelope of an inbound frame. Data stays raw until
// the dispatcher knows which payload struct applies. A non-zero ID asks
// for an acknowledgement frame carrying the same ID.
type ClientFrame struct {
	ID    int64           `json:"id,omitempty"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ServerFrame is the envelope of an outbound frame.
type ServerFrame struct {
	ID    int64  `json:"id,omitempty"`
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}
