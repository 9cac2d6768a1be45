package manager

import (
	"context"
	"errors"
	"sync"
	"time"

	"BlockDuel/config"
	"BlockDuel/internal/game/room"
	"BlockDuel/internal/history"
	"BlockDuel/internal/matchmaker"
	"BlockDuel/internal/timers"
	"BlockDuel/internal/utils"
	"BlockDuel/internal/websocket"
)

// 房间级定时器用途，scope 为 roomID
const (
	timerCountdown  = "countdown"
	timerEndGrace   = "end_grace"
	timerRematch    = "rematch"
	timerTeardown   = "teardown"
	timerDisconnect = "disconnect"
)

// GameManager 管理排队与所有房间。
// 所有入口（消息、断线、定时器回调、清理）都在 mu 下串行执行。
type GameManager struct {
	mu           sync.Mutex
	rooms        map[string]*room.Room // roomID → room
	playerToRoom map[string]string     // connID → roomID
	lastRelay    map[string]time.Time  // connID → 上次转发 game_update 的时间

	hub     websocket.HubInterface
	queue   *matchmaker.Service
	timers  *timers.Scheduler
	history history.Repo // 可为 nil
	cfg     config.MatchConfig

	now        func() time.Time
	newRoomID  func() string
	newMatchID func() string

	records sync.WaitGroup
	closed  bool // Close 之后不再发起历史写入
}

func NewGameManager(hub websocket.HubInterface, queue matchmaker.Repo, hist history.Repo, cfg config.MatchConfig) *GameManager {
	m := &GameManager{
		rooms:        make(map[string]*room.Room),
		playerToRoom: make(map[string]string),
		lastRelay:    make(map[string]time.Time),
		hub:          hub,
		history:      hist,
		cfg:          cfg,
		now:          time.Now,
		newRoomID:    newRoomID,
		newMatchID:   newMatchID,
	}
	m.timers = timers.NewScheduler(&m.mu)
	m.queue = matchmaker.NewService(queue, hub, m.timers, cfg.QueueTimeout)
	m.queue.InRoom = m.inRoom
	m.queue.OnPaired = m.createRoom
	return m
}

// HandlePlayerMessage 统一入口（来自 Hub.OnIncoming）
func (m *GameManager) HandlePlayerMessage(msg websocket.IncomingMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx := context.Background()
	var err error
	switch msg.Type {
	case MsgFindGame:
		err = m.findGame(ctx, msg)
	case MsgCancelQueue:
		_, err = m.queue.Cancel(ctx, msg.From)
	case MsgGameUpdate:
		err = m.relayUpdate(msg)
	case MsgGameOver:
		err = m.gameOver(msg)
	case MsgLeaveGame:
		err = m.leaveGame(msg)
	case MsgRematchRequest:
		err = m.requestRematch(msg)
	case MsgRematchAccept:
		err = m.acceptRematch(msg)
	case MsgRematchReject:
		err = m.rejectRematch(msg)
	default:
		utils.Log.Debug("unknown message type", "conn", msg.From, "type", msg.Type)
		return
	}
	if err != nil {
		utils.Log.Debug("message dropped", "conn", msg.From, "type", msg.Type, "err", err)
	}
}

// HandleDisconnect 连接断开（来自 Hub.OnDisconnect）
func (m *GameManager) HandleDisconnect(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.queue.Cancel(context.Background(), connID); err != nil {
		utils.Log.Error("remove disconnected player from queue", "conn", connID, "err", err)
	}
	m.departRoom(connID)
}

func (m *GameManager) findGame(ctx context.Context, msg websocket.IncomingMessage) error {
	var p findGamePayload
	if err := msg.Decode(&p); err != nil {
		return err
	}
	_, err := m.queue.Join(ctx, matchmaker.JoinRequest{ConnID: msg.From, Nickname: p.Nickname})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, matchmaker.ErrAlreadyQueued), errors.Is(err, matchmaker.ErrAlreadyInRoom):
		m.sendError(msg.From, err.Error())
		return nil
	default:
		utils.Log.Error("join queue failed", "conn", msg.From, "err", err)
		m.sendError(msg.From, "matchmaking unavailable")
		return err
	}
}

func (m *GameManager) sendError(connID, text string) {
	m.hub.SendToPlayer(connID, websocket.OutgoingMessage{
		Type: matchmaker.MsgError,
		Data: errorPayload{Message: text},
	})
}

func (m *GameManager) inRoom(connID string) bool {
	_, ok := m.playerToRoom[connID]
	return ok
}

// errNotInRoom 发送者不在所指的房间
var errNotInRoom = errors.New("sender is not in that room")

// roomFor 按成员关系找到发送者的房间；roomId 非空时必须一致
func (m *GameManager) roomFor(connID, roomID string) (*room.Room, int, error) {
	id, ok := m.playerToRoom[connID]
	if !ok || (roomID != "" && roomID != id) {
		return nil, -1, errNotInRoom
	}
	r, ok := m.rooms[id]
	if !ok {
		return nil, -1, errNotInRoom
	}
	seat, ok := r.SeatOf(connID)
	if !ok {
		return nil, -1, errNotInRoom
	}
	return r, seat, nil
}

// deleteRoom 释放成员关系并取消该房间的全部定时器
func (m *GameManager) deleteRoom(id string) {
	r, ok := m.rooms[id]
	if !ok {
		return
	}
	delete(m.rooms, id)
	for _, connID := range r.ConnIDs() {
		if m.playerToRoom[connID] == id {
			delete(m.playerToRoom, connID)
			delete(m.lastRelay, connID)
		}
	}
	m.timers.CancelScope(id)
	utils.Log.Info("room removed", "room", id, "match", r.MatchID)
}

func (m *GameManager) RoomCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

// RoomOf 返回连接当前所在的房间
func (m *GameManager) RoomOf(connID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.playerToRoom[connID]
	return id, ok
}

// QueueSize 当前排队人数
func (m *GameManager) QueueSize(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.Size(ctx)
}

// Close 停止所有定时器并等待未写完的历史记录
func (m *GameManager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.timers.Stop()
	m.records.Wait()
}
