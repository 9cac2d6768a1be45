package manager

import (
	"BlockDuel/internal/game/room"
	"BlockDuel/internal/matchmaker"
	"BlockDuel/internal/timers"
	"BlockDuel/internal/utils"
	"BlockDuel/internal/websocket"
)

// createRoom 配对成功回调，在 mu 下执行；first 坐 0 号位
func (m *GameManager) createRoom(first, second matchmaker.Entry) {
	id := m.allocRoomID()
	now := m.now()
	r := room.New(id, m.newMatchID(),
		room.Participant{ConnID: first.ConnID, Nickname: first.Nickname},
		room.Participant{ConnID: second.ConnID, Nickname: second.Nickname},
		now)
	m.rooms[id] = r
	m.playerToRoom[first.ConnID] = id
	m.playerToRoom[second.ConnID] = id

	utils.Log.Info("match created", "room", id, "match", r.MatchID,
		"p0", first.Nickname, "p1", second.Nickname)

	found := now.UnixMilli()
	for seat, s := range r.Slots {
		m.hub.SendToPlayer(s.ConnID, websocket.OutgoingMessage{
			Type: MsgMatchFound,
			Data: matchFoundPayload{
				Opponent:       r.Opponent(seat).Nickname,
				PlayerNickname: s.Nickname,
				RoomID:         id,
				MatchFoundTime: found,
			},
		})
	}

	matchID := r.MatchID
	m.timers.Schedule(timers.Key{Scope: id, Purpose: timerCountdown}, m.cfg.Countdown, func() {
		m.startMatch(id, matchID)
	})
}

// startMatch 倒计时结束；房间或这一局已不存在则什么都不做
func (m *GameManager) startMatch(roomID, matchID string) {
	r, ok := m.rooms[roomID]
	if !ok || r.MatchID != matchID || r.State != room.Active {
		return
	}
	if r.PresentCount() < 2 {
		// 对手已离开，交给断线计时器判定
		return
	}
	start := m.now()
	r.StartTime = start
	r.Touch(start)
	m.sendStart(r, MsgGameStart)
	utils.Log.Info("match started", "room", roomID, "match", matchID)
}

// sendStart 两人收到同一个 startTime
func (m *GameManager) sendStart(r *room.Room, typ string) {
	start := r.StartTime.UnixMilli()
	for seat, s := range r.Slots {
		if !s.Present {
			continue
		}
		m.hub.SendToPlayer(s.ConnID, websocket.OutgoingMessage{
			Type: typ,
			Data: startPayload{
				RoomID:         r.ID,
				Opponent:       r.Opponent(seat).Nickname,
				PlayerNickname: s.Nickname,
				StartTime:      start,
			},
		})
	}
}

func (m *GameManager) allocRoomID() string {
	for {
		id := m.newRoomID()
		if _, taken := m.rooms[id]; !taken {
			return id
		}
	}
}
