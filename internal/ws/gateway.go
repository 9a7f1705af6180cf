package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"support-chat-service/internal/observability"
	"support-chat-service/internal/protocol"
	"support-chat-service/internal/telemetry"
)

// EventHandler processes decoded client events for one connection.
// Events arrive in connection order; methods returning an ack payload
// correspond to events with an acknowledgement path.
type EventHandler interface {
	UserJoin(ctx context.Context, c Conn, p protocol.UserJoinPayload) protocol.UserJoinAck
	AdminJoin(ctx context.Context, c Conn, p protocol.AdminJoinPayload) protocol.AdminJoinAck
	ConversationJoin(ctx context.Context, c Conn, conversationID string)
	ConversationLeave(ctx context.Context, c Conn, conversationID string)
	TypingStart(ctx context.Context, c Conn, conversationID string)
	TypingStop(ctx context.Context, c Conn, conversationID string)
	MessageSend(ctx context.Context, c Conn, p protocol.SendMessagePayload) protocol.SendAck
	MessageRead(ctx context.Context, c Conn, conversationID string)
	MessageReact(ctx context.Context, c Conn, p protocol.ReactPayload) protocol.ReactAck
	Disconnect(ctx context.Context, c Conn)
}

// Gateway upgrades websocket requests and pumps decoded frames into an
// EventHandler.
type Gateway struct {
	hub      *Hub
	events   EventHandler
	upgrader websocket.Upgrader
	audit    *telemetry.AuditEmitter
}

// NewGateway constructs a Gateway. An empty origin list allows any
// origin.
func NewGateway(hub *Hub, events EventHandler, origins []string, audit *telemetry.AuditEmitter) *Gateway {
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		allowed[origin] = struct{}{}
	}
	return &Gateway{
		hub:    hub,
		events: events,
		audit:  audit,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				_, ok := allowed[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

// Handle upgrades the connection and serves it until it closes.
func (g *Gateway) Handle(c *gin.Context) {
	_, span := otel.Tracer("support-chat-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn)
	connectedAt := time.Now()
	ip := observability.IPFromRequest(c.Request)
	requestID := observability.RequestIDFromRequest(c.Request)

	observability.IncWSActive()
	g.audit.Emit(context.Background(), "ws_connect", client.ID(), nil, map[string]any{
		"ip":         ip,
		"request_id": requestID,
	})
	zap.S().Infow("websocket connected", "conn_id", client.ID(), "ip", ip)

	go client.writePump()
	go g.readLoop(client, connectedAt, ip, requestID)
}

// readLoop decodes inbound frames and dispatches them in arrival
// order. Persistence writes started by handlers use a background
// context so a disconnect never cancels them mid-flight.
func (g *Gateway) readLoop(client *Client, connectedAt time.Time, ip, requestID string) {
	ctx := context.Background()
	var closeReason string

	defer func() {
		g.events.Disconnect(ctx, client)
		g.hub.UnsubscribeAll(client)
		client.Close()
		observability.DecWSActive()
		var userID *string
		if client.session.Identity.Role != RoleUnset {
			id := client.session.Identity.UserID
			userID = &id
		}
		g.audit.Emit(ctx, "ws_disconnect", client.ID(), userID, map[string]any{
			"ip":          ip,
			"request_id":  requestID,
			"duration_ms": time.Since(connectedAt).Milliseconds(),
			"reason":      closeReason,
		})
		zap.S().Infow("websocket disconnected", "conn_id", client.ID(), "reason", closeReason)
	}()

	client.conn.SetReadLimit(maxFrameSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				closeReason = err.Error()
			}
			return
		}

		var frame protocol.ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil || frame.Event == "" {
			zap.S().Debugw("dropping malformed frame", "conn_id", client.ID(), "error", err)
			continue
		}
		g.dispatch(ctx, client, frame)
	}
}

func (g *Gateway) dispatch(ctx context.Context, client *Client, frame protocol.ClientFrame) {
	observability.IncWSEvent(frame.Event)

	switch frame.Event {
	case protocol.EventUserJoin:
		var p protocol.UserJoinPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			g.ack(client, frame.ID, protocol.UserJoinAck{Error: "Failed to join"})
			return
		}
		g.ack(client, frame.ID, g.events.UserJoin(ctx, client, p))

	case protocol.EventAdminJoin:
		var p protocol.AdminJoinPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			g.ack(client, frame.ID, protocol.AdminJoinAck{Error: "Failed to join as admin"})
			return
		}
		g.ack(client, frame.ID, g.events.AdminJoin(ctx, client, p))

	case protocol.EventConversationJoin:
		if id, ok := decodeString(frame.Data); ok {
			g.events.ConversationJoin(ctx, client, id)
		}

	case protocol.EventConversationLeave:
		if id, ok := decodeString(frame.Data); ok {
			g.events.ConversationLeave(ctx, client, id)
		}

	case protocol.EventTypingStart:
		if id, ok := decodeString(frame.Data); ok {
			g.events.TypingStart(ctx, client, id)
		}

	case protocol.EventTypingStop:
		if id, ok := decodeString(frame.Data); ok {
			g.events.TypingStop(ctx, client, id)
		}

	case protocol.EventMessageSend:
		var p protocol.SendMessagePayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			g.ack(client, frame.ID, protocol.SendAck{Error: "Failed to send message"})
			return
		}
		g.ack(client, frame.ID, g.events.MessageSend(ctx, client, p))

	case protocol.EventMessageRead:
		if id, ok := decodeString(frame.Data); ok {
			g.events.MessageRead(ctx, client, id)
		}

	case protocol.EventMessageReact:
		var p protocol.ReactPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			g.ack(client, frame.ID, protocol.ReactAck{Error: "Failed to add reaction"})
			return
		}
		g.ack(client, frame.ID, g.events.MessageReact(ctx, client, p))

	default:
		zap.S().Debugw("unknown event", "conn_id", client.ID(), "event", frame.Event)
	}
}

// ack sends an acknowledgement frame when the client asked for one.
func (g *Gateway) ack(client *Client, id int64, payload any) {
	if id == 0 {
		return
	}
	frame, err := json.Marshal(protocol.ServerFrame{ID: id, Event: protocol.EventAck, Data: payload})
	if err != nil {
		zap.S().Errorw("encode ack failed", "error", err)
		return
	}
	client.Deliver(frame)
}

// decodeString unwraps events whose payload is a bare JSON string,
// e.g. a conversation id.
func decodeString(data json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}
