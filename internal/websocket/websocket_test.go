package websocket

import (
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
)

func newTestClient(hub *Hub, id string) *Client {
	return &Client{ID: id, Send: make(chan OutgoingMessage, 16), Hub: hub}
}

// nextOfType 跳过其它类型的消息（例如 online_count）
func nextOfType(t *testing.T, c *Client, typ string) OutgoingMessage {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				t.Fatalf("send channel of %s closed while waiting for %s", c.ID, typ)
			}
			if msg.Type == typ {
				return msg
			}
		case <-deadline:
			t.Fatalf("%s did not receive %s", c.ID, typ)
		}
	}
}

func TestHubBroadcastToPlayers(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	c1 := newTestClient(hub, "A")
	c2 := newTestClient(hub, "B")
	hub.register <- c1
	hub.register <- c2

	hub.BroadcastToPlayers([]string{"A", "B"}, OutgoingMessage{
		Type: "match_found",
		Data: map[string]any{"roomId": "ROOM1"},
	})

	m1 := nextOfType(t, c1, "match_found")
	m2 := nextOfType(t, c2, "match_found")
	assert.Equal(t, "ROOM1", m1.Data.(map[string]any)["roomId"])
	assert.Equal(t, "ROOM1", m2.Data.(map[string]any)["roomId"])
}

func TestHubSendToPlayer(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	c1 := newTestClient(hub, "A")
	c2 := newTestClient(hub, "B")
	hub.register <- c1
	hub.register <- c2

	hub.SendToPlayer("A", OutgoingMessage{Type: "queue_timeout"})
	nextOfType(t, c1, "queue_timeout")

	time.Sleep(20 * time.Millisecond)
	for {
		select {
		case msg := <-c2.Send:
			assert.Equal(t, MsgOnlineCount, msg.Type, "B should only see online counts")
			continue
		default:
		}
		break
	}
}

func TestHubSendToMissingPlayerIsNoop(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	hub.SendToPlayer("ghost", OutgoingMessage{Type: "queue_timeout"})
	assert.Equal(t, 0, hub.OnlineCount())
}

// 空名单直接返回，不占用 Run 协程（房间里只剩离开的人时会出现）
func TestHubBroadcastToNobodyReturnsImmediately(t *testing.T) {
	hub := NewHub() // Run 未启动，若进入通道会永久阻塞
	done := make(chan struct{})
	go func() {
		hub.BroadcastToPlayers(nil, OutgoingMessage{Type: "rematch_rejected"})
		hub.BroadcastToPlayers([]string{}, OutgoingMessage{Type: "rematch_rejected"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("BroadcastToPlayers blocked on an empty id list")
	}
}

func TestHubRegisterUnregisterPublishesCount(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	c1 := newTestClient(hub, "A")
	hub.register <- c1
	msg := nextOfType(t, c1, MsgOnlineCount)
	assert.Equal(t, map[string]int{"count": 1}, msg.Data)

	c2 := newTestClient(hub, "B")
	hub.register <- c2
	msg = nextOfType(t, c1, MsgOnlineCount)
	assert.Equal(t, map[string]int{"count": 2}, msg.Data)
	assert.True(t, hub.IsOnline("B"))

	hub.unregister <- c2
	msg = nextOfType(t, c1, MsgOnlineCount)
	assert.Equal(t, map[string]int{"count": 1}, msg.Data)
	assert.False(t, hub.IsOnline("B"))

	_, ok := <-c2.Send
	for ok {
		_, ok = <-c2.Send
	}
}

func TestHubFullBufferDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	slow := &Client{ID: "slow", Send: make(chan OutgoingMessage, 1), Hub: hub}
	hub.register <- slow // fills the buffer with online_count

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			hub.SendToPlayer("slow", OutgoingMessage{Type: "opponent_update"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub blocked on a slow client")
	}
}

func TestOutgoingMessageMarshalFlattens(t *testing.T) {
	type payload struct {
		RoomID   string `json:"roomId"`
		Position int    `json:"position"`
	}
	b, err := json.Marshal(OutgoingMessage{Type: "queue_update", Data: payload{RoomID: "R", Position: 2}})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "queue_update", got["type"])
	assert.Equal(t, "R", got["roomId"])
	assert.Equal(t, float64(2), got["position"])

	b, err = json.Marshal(OutgoingMessage{Type: "queue_timeout"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"queue_timeout"}`, string(b))
}

func TestParseIncoming(t *testing.T) {
	msg, err := ParseIncoming("c1", []byte(`{"type":"find_game","nickname":"A"}`))
	require.NoError(t, err)
	assert.Equal(t, "find_game", msg.Type)
	assert.Equal(t, "c1", msg.From)

	var body struct {
		Nickname string `json:"nickname"`
	}
	require.NoError(t, msg.Decode(&body))
	assert.Equal(t, "A", body.Nickname)

	_, err = ParseIncoming("c1", []byte(`not json`))
	assert.Error(t, err)
	_, err = ParseIncoming("c1", []byte(`{"nickname":"A"}`))
	assert.ErrorIs(t, err, ErrMissingType)
}

func TestServeWSEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	var mu sync.Mutex
	var got []IncomingMessage
	disconnected := make(chan string, 1)
	hub.OnIncoming = func(m IncomingMessage) {
		mu.Lock()
		got = append(got, m)
		mu.Unlock()
	}
	hub.OnDisconnect = func(id string) { disconnected <- id }

	r := gin.New()
	r.GET("/ws", ServeWS(hub))
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	var first map[string]any
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, MsgOnlineCount, first["type"])
	assert.Equal(t, float64(1), first["count"])

	// 坏帧被丢弃，连接保持
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{oops")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"cancel_queue"}`)))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1 && got[0].Type == "cancel_queue"
	}, time.Second, 10*time.Millisecond)

	_ = conn.Close()
	select {
	case id := <-disconnected:
		assert.NotEmpty(t, id)
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect callback not invoked")
	}
	assert.Eventually(t, func() bool { return hub.OnlineCount() == 0 }, time.Second, 10*time.Millisecond)
}
