package room

import (
	"encoding/json"
	"time"

	"BlockDuel/internal/game/arbiter"
)

type State int

const (
	Active State = iota
	Resolved
)

func (s State) String() string {
	if s == Resolved {
		return "resolved"
	}
	return "active"
}

// Participant 配对时确定的身份
type Participant struct {
	ConnID   string
	Nickname string
}

// Slot 一名参与者在当前对局中的状态
type Slot struct {
	ConnID   string
	Nickname string
	Score    int
	Lines    int
	Level    int
	Board    json.RawMessage
	Signal   arbiter.Signal
	Present  bool // 断线或离开后为 false
	LastSeen time.Time
}

func (s *Slot) reset() {
	s.Score, s.Lines, s.Level = 0, 0, 0
	s.Board = nil
	s.Signal = arbiter.None
}

// Outcome 已判定对局的结果
type Outcome struct {
	Winner int
	Reason string
}

// Room 两人对局容器。整个生命周期内恰好两个不同的参与者；
// 再来一局时复用同一个 ID，但换一个新的 MatchID。
type Room struct {
	ID             string
	MatchID        string
	Slots          [2]*Slot
	State          State
	CreatedAt      time.Time
	MatchFoundTime time.Time
	StartTime      time.Time // 零值表示倒计时尚未结束
	ResolvedAt     time.Time
	Result         *Outcome
	Rematch        *RematchRequest
	LastActivity   time.Time
}

// New 座位 0 给更早入队的人
func New(id, matchID string, first, second Participant, now time.Time) *Room {
	return &Room{
		ID:      id,
		MatchID: matchID,
		Slots: [2]*Slot{
			{ConnID: first.ConnID, Nickname: first.Nickname, Present: true, LastSeen: now},
			{ConnID: second.ConnID, Nickname: second.Nickname, Present: true, LastSeen: now},
		},
		State:          Active,
		CreatedAt:      now,
		MatchFoundTime: now,
		LastActivity:   now,
	}
}

// SeatOf 返回 connID 的座位号
func (r *Room) SeatOf(connID string) (int, bool) {
	for i, s := range r.Slots {
		if s.ConnID == connID {
			return i, true
		}
	}
	return -1, false
}

func (r *Room) Opponent(seat int) *Slot {
	return r.Slots[1-seat]
}

func (r *Room) ConnIDs() []string {
	return []string{r.Slots[0].ConnID, r.Slots[1].ConnID}
}

// PresentConnIDs 仍在房间中的连接；离开的人不再接收本房间的消息
func (r *Room) PresentConnIDs() []string {
	out := make([]string, 0, 2)
	for _, s := range r.Slots {
		if s.Present {
			out = append(out, s.ConnID)
		}
	}
	return out
}

// RemainingSeat 恰好一人在场时返回其座位号
func (r *Room) RemainingSeat() (int, bool) {
	if r.PresentCount() != 1 {
		return -1, false
	}
	if r.Slots[0].Present {
		return 0, true
	}
	return 1, true
}

// PresentCount 仍在房间中的人数
func (r *Room) PresentCount() int {
	n := 0
	for _, s := range r.Slots {
		if s.Present {
			n++
		}
	}
	return n
}

// Seats 供 arbiter 使用的视图
func (r *Room) Seats() [2]arbiter.Seat {
	return [2]arbiter.Seat{
		{Signal: r.Slots[0].Signal, Score: r.Slots[0].Score},
		{Signal: r.Slots[1].Signal, Score: r.Slots[1].Score},
	}
}

// Touch 记录活动时间，供闲置清理使用
func (r *Room) Touch(now time.Time) {
	r.LastActivity = now
}

// RecordUpdate 仅在对局进行中记录快照
func (r *Room) RecordUpdate(seat int, score, lines, level int, board json.RawMessage, now time.Time) {
	s := r.Slots[seat]
	s.LastSeen = now
	if r.State != Active {
		return
	}
	s.Score, s.Lines, s.Level = score, lines, level
	s.Board = board
}

// MarkSignal 结束信号每局只写一次
func (r *Room) MarkSignal(seat int, sig arbiter.Signal) bool {
	s := r.Slots[seat]
	if s.Signal != arbiter.None {
		return false
	}
	s.Signal = sig
	return true
}

// Resolve Active -> Resolved，只成功一次
func (r *Room) Resolve(winner int, reason string, now time.Time) bool {
	if r.State == Resolved {
		return false
	}
	r.State = Resolved
	r.ResolvedAt = now
	r.Result = &Outcome{Winner: winner, Reason: reason}
	return true
}

// Restart 开始同一房间内的新一局
func (r *Room) Restart(matchID string, start time.Time) {
	for _, s := range r.Slots {
		s.reset()
	}
	r.MatchID = matchID
	r.State = Active
	r.StartTime = start
	r.ResolvedAt = time.Time{}
	r.Result = nil
	r.Rematch = nil
	r.LastActivity = start
}
