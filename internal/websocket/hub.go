package websocket

import (
	"sync"

	"BlockDuel/internal/utils"
)

const MsgOnlineCount = "online_count"

type HubInterface interface {
	BroadcastToPlayers(ids []string, msg OutgoingMessage)
	SendToPlayer(id string, msg OutgoingMessage)
	OnlineCount() int
	Close()
}

// Hub 连接注册表：所有 clients 的增删与下发都在 Run 协程中完成
type Hub struct {
	clients    map[string]*Client // connection id -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastReq
	sendOne    chan sendReq
	quit       chan struct{}
	closeOnce  sync.Once
	mu         sync.RWMutex

	// 由各连接的 readPump 协程调用，不在 Run 中调用
	OnIncoming   func(IncomingMessage)
	OnDisconnect func(id string)
}

type broadcastReq struct {
	IDs     []string
	Message OutgoingMessage
}

type sendReq struct {
	ID      string
	Message OutgoingMessage
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastReq),
		sendOne:    make(chan sendReq),
		quit:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	utils.Log.Info("hub started")

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.ID] = c
			n := len(h.clients)
			h.mu.Unlock()
			utils.Log.Debug("hub register", "conn", c.ID, "online", n)
			h.publishCount(n)

		case c := <-h.unregister:
			h.mu.Lock()
			cur, ok := h.clients[c.ID]
			if ok && cur == c {
				delete(h.clients, c.ID)
				close(c.Send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			if ok && cur == c {
				utils.Log.Debug("hub unregister", "conn", c.ID, "online", n)
				h.publishCount(n)
			}

		case req := <-h.broadcast:
			h.mu.RLock()
			for _, id := range req.IDs {
				if c, ok := h.clients[id]; ok {
					deliver(c, req.Message)
				}
			}
			h.mu.RUnlock()

		case req := <-h.sendOne:
			h.mu.RLock()
			if c, ok := h.clients[req.ID]; ok {
				deliver(c, req.Message)
			}
			h.mu.RUnlock()

		case <-h.quit:
			h.mu.Lock()
			for id, c := range h.clients {
				close(c.Send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// deliver 从不阻塞 Run：发送缓冲已满的消息直接丢弃
func deliver(c *Client, msg OutgoingMessage) {
	select {
	case c.Send <- msg:
	default:
		utils.Log.Warn("send buffer full, dropping message", "conn", c.ID, "type", msg.Type)
	}
}

// 只在 Run 协程内调用，直接遍历 clients，不能经由 broadcast 通道
func (h *Hub) publishCount(n int) {
	msg := OutgoingMessage{Type: MsgOnlineCount, Data: map[string]int{"count": n}}
	h.mu.RLock()
	for _, c := range h.clients {
		deliver(c, msg)
	}
	h.mu.RUnlock()
}

// BroadcastToPlayers 发给指定连接；不存在的连接静默忽略
func (h *Hub) BroadcastToPlayers(ids []string, msg OutgoingMessage) {
	if len(ids) == 0 {
		return
	}
	select {
	case h.broadcast <- broadcastReq{IDs: ids, Message: msg}:
	case <-h.quit:
	}
}

func (h *Hub) SendToPlayer(id string, msg OutgoingMessage) {
	select {
	case h.sendOne <- sendReq{ID: id, Message: msg}:
	case <-h.quit:
	}
}

func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) IsOnline(id string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[id]
	return ok
}

func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.quit) })
}

func (h *Hub) dispatch(msg IncomingMessage) {
	if h.OnIncoming != nil {
		h.OnIncoming(msg)
	}
}

func (h *Hub) disconnected(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
	if h.OnDisconnect != nil {
		h.OnDisconnect(c.ID)
	}
}
