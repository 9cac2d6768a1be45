package matchmaker

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"BlockDuel/internal/timers"
	"BlockDuel/internal/utils"
	"BlockDuel/internal/websocket"
)

var (
	ErrAlreadyQueued = errors.New("already in queue")
	ErrAlreadyInRoom = errors.New("already in game")
)

const (
	maxNicknameLen = 20
	queueTimer     = "queue"
)

type HubSender interface {
	SendToPlayer(id string, msg websocket.OutgoingMessage)
}

// Service 排队与配对。
// 所有方法都要求调用方持有传给 Scheduler 的那把锁，超时回调也在该锁下执行。
type Service struct {
	repo    Repo
	hub     HubSender
	timers  *timers.Scheduler
	timeout time.Duration

	InRoom   func(connID string) bool  // 该连接是否已有房间
	OnPaired func(first, second Entry) // first 为更早入队者

	now      func() time.Time
	lastJoin time.Time
}

func NewService(repo Repo, hub HubSender, sched *timers.Scheduler, timeout time.Duration) *Service {
	return &Service{
		repo:    repo,
		hub:     hub,
		timers:  sched,
		timeout: timeout,
		now:     time.Now,
	}
}

// NormalizeNickname 去空白、截断；空名字给一个随机默认名
func NormalizeNickname(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Sprintf("PLAYER_%04d", rand.Intn(10000))
	}
	if utf8.RuneCountInString(name) > maxNicknameLen {
		runes := []rune(name)
		name = string(runes[:maxNicknameLen])
	}
	return name
}

// Join 入队，回复位置，刷新所有人的位置，然后尝试配对。返回入队时的 1 起始位置。
func (s *Service) Join(ctx context.Context, req JoinRequest) (int, error) {
	if s.InRoom != nil && s.InRoom(req.ConnID) {
		return 0, ErrAlreadyInRoom
	}
	queued, err := s.repo.Contains(ctx, req.ConnID)
	if err != nil {
		return 0, err
	}
	if queued {
		return 0, ErrAlreadyQueued
	}

	entry := Entry{
		ConnID:   req.ConnID,
		Nickname: NormalizeNickname(req.Nickname),
		JoinedAt: s.nextJoinTime(),
	}
	if err := s.repo.Enqueue(ctx, entry); err != nil {
		return 0, err
	}

	entries, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	position := len(entries)
	for i, e := range entries {
		if e.ConnID == entry.ConnID {
			position = i + 1
			break
		}
	}
	utils.Log.Info("player joined queue", "conn", entry.ConnID, "nickname", entry.Nickname, "size", len(entries))

	s.hub.SendToPlayer(entry.ConnID, websocket.OutgoingMessage{
		Type: MsgQueueJoined,
		Data: positionPayload{Position: position},
	})
	s.publish(entries)

	connID := entry.ConnID
	s.timers.Schedule(timers.Key{Scope: connID, Purpose: queueTimer}, s.timeout, func() {
		s.expire(context.Background(), connID)
	})

	if err := s.drain(ctx); err != nil {
		return position, err
	}
	return position, nil
}

// Cancel 离开队列；不在队列中返回 false
func (s *Service) Cancel(ctx context.Context, connID string) (bool, error) {
	removed, err := s.repo.Remove(ctx, connID)
	if err != nil || !removed {
		return false, err
	}
	s.timers.Cancel(timers.Key{Scope: connID, Purpose: queueTimer})
	utils.Log.Info("player left queue", "conn", connID)
	return true, s.PublishPositions(ctx)
}

func (s *Service) Size(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// PublishPositions 通知所有等待者当前位置
func (s *Service) PublishPositions(ctx context.Context) error {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	s.publish(entries)
	return nil
}

func (s *Service) publish(entries []Entry) {
	for i, e := range entries {
		s.hub.SendToPlayer(e.ConnID, websocket.OutgoingMessage{
			Type: MsgQueueUpdate,
			Data: positionPayload{Position: i + 1},
		})
	}
}

// drain 队列中至少两人时按先进先出两两配对
func (s *Service) drain(ctx context.Context) error {
	paired := false
	for {
		pair, err := s.repo.PopOldest(ctx, 2)
		if err != nil {
			return err
		}
		if len(pair) < 2 {
			break
		}
		paired = true
		for _, e := range pair {
			s.timers.Cancel(timers.Key{Scope: e.ConnID, Purpose: queueTimer})
		}
		if s.OnPaired != nil {
			s.OnPaired(pair[0], pair[1])
		}
	}
	if paired {
		return s.PublishPositions(ctx)
	}
	return nil
}

// expire 在 Scheduler 锁下执行；已离开队列则什么都不做
func (s *Service) expire(ctx context.Context, connID string) {
	removed, err := s.repo.Remove(ctx, connID)
	if err != nil {
		utils.Log.Error("queue timeout remove failed", "conn", connID, "err", err)
		return
	}
	if !removed {
		return
	}
	utils.Log.Info("queue timeout", "conn", connID)
	s.hub.SendToPlayer(connID, websocket.OutgoingMessage{Type: MsgQueueTimeout})
	if err := s.PublishPositions(ctx); err != nil {
		utils.Log.Error("publish positions failed", "err", err)
	}
}

// nextJoinTime 保证 JoinedAt 严格递增，Redis 分数相同时也不会打乱先后
func (s *Service) nextJoinTime() time.Time {
	t := s.now().Truncate(time.Microsecond)
	if !t.After(s.lastJoin) {
		t = s.lastJoin.Add(time.Microsecond)
	}
	s.lastJoin = t
	return t
}
