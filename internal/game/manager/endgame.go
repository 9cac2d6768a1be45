package manager

import (
	"context"
	"time"

	"BlockDuel/internal/game/arbiter"
	"BlockDuel/internal/game/room"
	"BlockDuel/internal/history"
	"BlockDuel/internal/timers"
	"BlockDuel/internal/utils"
	"BlockDuel/internal/websocket"
)

const recordTimeout = 5 * time.Second

func (m *GameManager) gameOver(msg websocket.IncomingMessage) error {
	var p gameOverPayload
	if err := msg.Decode(&p); err != nil {
		return err
	}
	r, seat, err := m.roomFor(msg.From, p.RoomID)
	if err != nil {
		return err
	}
	r.Touch(m.now())

	if r.State == room.Active {
		if _, alone := r.RemainingSeat(); alone {
			// 对手已断线：本局判给仍在场的一方，与断线计时器到期的结果一致
			m.resolve(r, seat, arbiter.ReasonDisconnected)
			return nil
		}
	}

	sig := arbiter.SignalFromReason(p.Reason)
	v := arbiter.Judge(r.State == room.Resolved, r.Seats(), seat, sig)
	switch v.Outcome {
	case arbiter.Ignore:
		utils.Log.Debug("end signal ignored", "room", r.ID, "seat", seat, "signal", sig)
	case arbiter.AwaitGrace:
		r.MarkSignal(seat, sig)
		matchID := r.MatchID
		m.timers.Schedule(timers.Key{Scope: r.ID, Purpose: timerEndGrace}, m.cfg.EndGrace, func() {
			m.graceExpired(r.ID, matchID)
		})
	case arbiter.Resolve:
		r.MarkSignal(seat, sig)
		m.resolve(r, v.Winner, v.Reason)
	}
	return nil
}

func (m *GameManager) graceExpired(roomID, matchID string) {
	r, ok := m.rooms[roomID]
	if !ok || r.MatchID != matchID {
		return
	}
	if seat, alone := r.RemainingSeat(); alone && r.State == room.Active {
		m.resolve(r, seat, arbiter.ReasonDisconnected)
		return
	}
	v := arbiter.GraceExpired(r.State == room.Resolved, r.Seats())
	if v.Outcome == arbiter.Resolve {
		m.resolve(r, v.Winner, v.Reason)
	}
}

// resolve 每局只生效一次：发送对称的 game_end 并异步写入历史
func (m *GameManager) resolve(r *room.Room, winner int, reason string) {
	now := m.now()
	if !r.Resolve(winner, reason, now) {
		return
	}
	r.Touch(now)
	m.timers.Cancel(timers.Key{Scope: r.ID, Purpose: timerEndGrace})

	w, l := r.Slots[winner], r.Opponent(winner)
	for seat, s := range r.Slots {
		if !s.Present {
			continue
		}
		m.hub.SendToPlayer(s.ConnID, websocket.OutgoingMessage{
			Type: MsgGameEnd,
			Data: gameEndPayload{
				RoomID:         r.ID,
				WinnerNickname: w.Nickname,
				WinnerScore:    w.Score,
				LoserNickname:  l.Nickname,
				LoserScore:     l.Score,
				IsWinner:       seat == winner,
				Reason:         reason,
			},
		})
	}
	utils.Log.Info("match resolved", "room", r.ID, "match", r.MatchID,
		"winner", w.Nickname, "reason", reason, "score", w.Score, "loserScore", l.Score)

	m.record(history.Result{
		MatchID:        r.MatchID,
		RoomID:         r.ID,
		WinnerNickname: w.Nickname,
		WinnerScore:    w.Score,
		LoserNickname:  l.Nickname,
		LoserScore:     l.Score,
		Reason:         reason,
		StartedAt:      r.StartTime,
		EndedAt:        now,
	})
}

func (m *GameManager) record(res history.Result) {
	if m.history == nil || m.closed {
		return
	}
	m.records.Add(1)
	go func() {
		defer m.records.Done()
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := m.history.Record(ctx, res); err != nil {
			utils.Log.Error("record match result", "match", res.MatchID, "err", err)
		}
	}()
}
