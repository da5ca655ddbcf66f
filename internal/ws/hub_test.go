package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"command-bot/backend/internal/bot"
)

type echoHandler struct{}

func (echoHandler) Handle(_ context.Context, ev bot.Event) ([]bot.Reply, error) {
	if ev.ChatID == "" {
		return nil, errors.New("chat_id is required")
	}
	return []bot.Reply{
		{ChatID: ev.ChatID, Text: "first:" + ev.Text, QuotedMessageID: ev.MessageID},
		{ChatID: ev.ChatID, Text: "second:" + ev.Text},
	}, nil
}

func startHub(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(echoHandler{}, nil)
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws/bridge", func(c *gin.Context) { ServeWs(hub, c) })
	srv := httptest.NewServer(r)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/bridge"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		srv.Close()
	})
	return hub, conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestEventFramesProduceOrderedReplies(t *testing.T) {
	_, conn := startHub(t)

	ev, err := json.Marshal(bot.Event{Type: bot.EventMessage, ChatID: "c1", MessageID: "M1", Text: "hi"})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Message{Type: TypeEvent, Content: ev}))

	for _, want := range []string{"first:hi", "second:hi"} {
		msg := readFrame(t, conn)
		require.Equal(t, TypeReply, msg.Type)

		var r bot.Reply
		require.NoError(t, json.Unmarshal(msg.Content, &r))
		assert.Equal(t, "c1", r.ChatID)
		assert.Equal(t, want, r.Text)
	}
}

func TestPingAndErrors(t *testing.T) {
	_, conn := startHub(t)

	require.NoError(t, conn.WriteJSON(Message{Type: TypePing}))
	assert.Equal(t, TypePong, readFrame(t, conn).Type)

	require.NoError(t, conn.WriteJSON(Message{Type: "bogus"}))
	msg := readFrame(t, conn)
	assert.Equal(t, TypeError, msg.Type)
	assert.Contains(t, string(msg.Content), "unknown frame type")

	require.NoError(t, conn.WriteJSON(Message{Type: TypeEvent, Content: json.RawMessage(`{"type":"message"}`)}))
	msg = readFrame(t, conn)
	assert.Equal(t, TypeError, msg.Type)
	assert.Contains(t, string(msg.Content), "chat_id is required")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	msg = readFrame(t, conn)
	assert.Equal(t, TypeError, msg.Type)
}

func TestActiveConnections(t *testing.T) {
	hub, conn := startHub(t)

	require.Eventually(t, func() bool { return len(hub.ActiveConnections()) == 1 }, 2*time.Second, 10*time.Millisecond)

	_ = conn.Close()
	require.Eventually(t, func() bool { return len(hub.ActiveConnections()) == 0 }, 2*time.Second, 10*time.Millisecond)
}
