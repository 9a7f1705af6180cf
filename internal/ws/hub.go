package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"support-chat-service/internal/protocol"
)

// Channel key families. Channels are opaque strings; these helpers are
// the only places the naming scheme lives.
const AdminRoom = "role:admin"

// UserChannel is the identity channel of one guest user.
func UserChannel(userID string) string {
	return "identity:" + userID
}

// ConversationChannel is the broadcast channel of one conversation.
func ConversationChannel(conversationID string) string {
	return "conversation:" + conversationID
}

// Subscriber receives frames published to channels it joined. Deliver
// must never block: a stalled subscriber drops frames instead of
// delaying the publisher or its peers.
type Subscriber interface {
	Deliver(frame []byte)
}

// Hub is the room router. It maps channel keys to subscribed
// connections and multicasts encoded events to them. All methods are
// safe for concurrent use.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[Subscriber]struct{}
	subs     map[Subscriber]map[string]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		channels: make(map[string]map[Subscriber]struct{}),
		subs:     make(map[Subscriber]map[string]struct{}),
	}
}

// Subscribe adds the subscriber to a channel. Subscribing twice is a
// no-op.
func (h *Hub) Subscribe(channel string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.channels[channel]; !ok {
		h.channels[channel] = make(map[Subscriber]struct{})
	}
	h.channels[channel][sub] = struct{}{}
	if _, ok := h.subs[sub]; !ok {
		h.subs[sub] = make(map[string]struct{})
	}
	h.subs[sub][channel] = struct{}{}
}

// Unsubscribe removes the subscriber from a channel. Unsubscribing when
// not subscribed is a no-op.
func (h *Hub) Unsubscribe(channel string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(channel, sub)
}

// UnsubscribeAll removes the subscriber from every channel it joined,
// used on disconnect.
func (h *Hub) UnsubscribeAll(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for channel := range h.subs[sub] {
		h.removeLocked(channel, sub)
	}
}

func (h *Hub) removeLocked(channel string, sub Subscriber) {
	if members, ok := h.channels[channel]; ok {
		delete(members, sub)
		if len(members) == 0 {
			delete(h.channels, channel)
		}
	}
	if channels, ok := h.subs[sub]; ok {
		delete(channels, channel)
		if len(channels) == 0 {
			delete(h.subs, sub)
		}
	}
}

// Members reports how many subscribers a channel currently has.
func (h *Hub) Members(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// Publish multicasts an event to every channel member except the given
// subscriber. Delivery is independent and best effort per member.
func (h *Hub) Publish(channel, event string, payload any, except Subscriber) {
	frame, err := json.Marshal(protocol.ServerFrame{Event: event, Data: payload})
	if err != nil {
		zap.S().Errorw("encode event failed", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]Subscriber, 0, len(h.channels[channel]))
	for sub := range h.channels[channel] {
		if sub == except {
			continue
		}
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		sub.Deliver(frame)
	}
}

// PublishAll multicasts an event to every channel member, including the
// originator. Used where the sender expects a delivery confirmation.
func (h *Hub) PublishAll(channel, event string, payload any) {
	h.Publish(channel, event, payload, nil)
}
