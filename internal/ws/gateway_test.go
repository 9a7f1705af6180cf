package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-chat-service/internal/protocol"
)

// recordingHandler captures dispatched events so the wire round trip
// can be asserted without the real handlers.
type recordingHandler struct {
	mu            sync.Mutex
	joinedConvs   []string
	disconnects   int
	userJoinAck   protocol.UserJoinAck
	lastJoinToken string
}

func (h *recordingHandler) UserJoin(ctx context.Context, c Conn, p protocol.UserJoinPayload) protocol.UserJoinAck {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastJoinToken = p.SessionToken
	return h.userJoinAck
}

func (h *recordingHandler) AdminJoin(ctx context.Context, c Conn, p protocol.AdminJoinPayload) protocol.AdminJoinAck {
	return protocol.AdminJoinAck{Success: true}
}

func (h *recordingHandler) ConversationJoin(ctx context.Context, c Conn, conversationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.joinedConvs = append(h.joinedConvs, conversationID)
}

func (h *recordingHandler) ConversationLeave(ctx context.Context, c Conn, conversationID string) {}

func (h *recordingHandler) TypingStart(ctx context.Context, c Conn, conversationID string) {}

func (h *recordingHandler) TypingStop(ctx context.Context, c Conn, conversationID string) {}

func (h *recordingHandler) MessageSend(ctx context.Context, c Conn, p protocol.SendMessagePayload) protocol.SendAck {
	return protocol.SendAck{Success: true}
}

func (h *recordingHandler) MessageRead(ctx context.Context, c Conn, conversationID string) {}

func (h *recordingHandler) MessageReact(ctx context.Context, c Conn, p protocol.ReactPayload) protocol.ReactAck {
	return protocol.ReactAck{Success: true}
}

func (h *recordingHandler) Disconnect(ctx context.Context, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnects++
}

func dialGateway(t *testing.T, events EventHandler) (*websocket.Conn, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	gateway := NewGateway(hub, events, nil, nil)

	router := gin.New()
	router.GET("/ws", gateway.Handle)
	server := httptest.NewServer(router)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	return conn, func() {
		conn.Close()
		server.Close()
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) protocol.ServerFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var frame protocol.ServerFrame
	require.NoError(t, json.Unmarshal(raw, &frame))
	return frame
}

func TestGatewayAcksUserJoin(t *testing.T) {
	events := &recordingHandler{userJoinAck: protocol.UserJoinAck{Error: "Invalid session token"}}
	conn, teardown := dialGateway(t, events)
	defer teardown()

	require.NoError(t, conn.WriteJSON(protocol.ClientFrame{
		ID:    1,
		Event: protocol.EventUserJoin,
		Data:  json.RawMessage(`{"sessionToken":"tok-1"}`),
	}))

	frame := readFrame(t, conn)
	assert.Equal(t, int64(1), frame.ID)
	assert.Equal(t, protocol.EventAck, frame.Event)

	raw, err := json.Marshal(frame.Data)
	require.NoError(t, err)
	var ack protocol.UserJoinAck
	require.NoError(t, json.Unmarshal(raw, &ack))
	assert.Equal(t, "Invalid session token", ack.Error)

	events.mu.Lock()
	assert.Equal(t, "tok-1", events.lastJoinToken)
	events.mu.Unlock()
}

func TestGatewayDispatchesStringPayload(t *testing.T) {
	events := &recordingHandler{}
	conn, teardown := dialGateway(t, events)
	defer teardown()

	require.NoError(t, conn.WriteJSON(protocol.ClientFrame{
		Event: protocol.EventConversationJoin,
		Data:  json.RawMessage(`"c1"`),
	}))
	// an ack-bearing event afterwards proves the first one was consumed
	require.NoError(t, conn.WriteJSON(protocol.ClientFrame{
		ID:    2,
		Event: protocol.EventMessageSend,
		Data:  json.RawMessage(`{"conversationId":"c1","content":"hi"}`),
	}))

	frame := readFrame(t, conn)
	assert.Equal(t, int64(2), frame.ID)

	events.mu.Lock()
	assert.Equal(t, []string{"c1"}, events.joinedConvs)
	events.mu.Unlock()
}

func TestGatewaySkipsMalformedFrames(t *testing.T) {
	events := &recordingHandler{}
	conn, teardown := dialGateway(t, events)
	defer teardown()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(protocol.ClientFrame{
		ID:    3,
		Event: protocol.EventMessageReact,
		Data:  json.RawMessage(`{"messageId":"m1","emoji":"x"}`),
	}))

	frame := readFrame(t, conn)
	assert.Equal(t, int64(3), frame.ID)
}

func TestGatewayCallsDisconnect(t *testing.T) {
	events := &recordingHandler{}
	conn, teardown := dialGateway(t, events)

	conn.Close()
	require.Eventually(t, func() bool {
		events.mu.Lock()
		defer events.mu.Unlock()
		return events.disconnects == 1
	}, 2*time.Second, 10*time.Millisecond)

	teardown()
}
