package manager

import (
	"BlockDuel/internal/game/room"
	"BlockDuel/internal/timers"
	"BlockDuel/internal/utils"
	"BlockDuel/internal/websocket"
)

func (m *GameManager) requestRematch(msg websocket.IncomingMessage) error {
	var p roomPayload
	if err := msg.Decode(&p); err != nil {
		return err
	}
	r, seat, err := m.roomFor(msg.From, p.RoomID)
	if err != nil {
		return err
	}
	if m.timers.Pending(timers.Key{Scope: r.ID, Purpose: timerTeardown}) {
		// 已拒绝或超时，房间正在关闭
		return room.ErrNoRematch
	}
	now := m.now()
	if err := r.RequestRematch(seat, now.Add(m.cfg.RematchTimeout)); err != nil {
		return err
	}
	r.Touch(now)

	s := r.Slots[seat]
	m.hub.SendToPlayer(r.Opponent(seat).ConnID, websocket.OutgoingMessage{
		Type: MsgRematchRequest,
		Data: rematchRequestPayload{PlayerID: s.ConnID, PlayerNickname: s.Nickname, RoomID: r.ID},
	})

	id, matchID := r.ID, r.MatchID
	m.timers.Schedule(timers.Key{Scope: id, Purpose: timerRematch}, m.cfg.RematchTimeout, func() {
		r, ok := m.rooms[id]
		if !ok || r.MatchID != matchID || r.ClearRematch() == nil {
			return
		}
		utils.Log.Info("rematch timed out", "room", id)
		m.closeRoom(r)
	})
	utils.Log.Info("rematch requested", "room", r.ID, "by", s.Nickname)
	return nil
}

func (m *GameManager) acceptRematch(msg websocket.IncomingMessage) error {
	var p roomPayload
	if err := msg.Decode(&p); err != nil {
		return err
	}
	r, seat, err := m.roomFor(msg.From, p.RoomID)
	if err != nil {
		return err
	}
	if _, err := r.AnswerRematch(seat); err != nil {
		return err
	}
	m.timers.Cancel(timers.Key{Scope: r.ID, Purpose: timerRematch})

	prev := r.MatchID
	r.Restart(m.newMatchID(), r.NextStartTime(m.now()))
	for _, connID := range r.ConnIDs() {
		delete(m.lastRelay, connID)
	}
	m.sendStart(r, MsgRematchStart)
	utils.Log.Info("rematch started", "room", r.ID, "previous", prev, "match", r.MatchID)
	return nil
}

func (m *GameManager) rejectRematch(msg websocket.IncomingMessage) error {
	var p roomPayload
	if err := msg.Decode(&p); err != nil {
		return err
	}
	r, seat, err := m.roomFor(msg.From, p.RoomID)
	if err != nil {
		return err
	}
	if _, err := r.AnswerRematch(seat); err != nil {
		return err
	}
	m.timers.Cancel(timers.Key{Scope: r.ID, Purpose: timerRematch})
	utils.Log.Info("rematch rejected", "room", r.ID)
	m.closeRoom(r)
	return nil
}

// closeRoom 通知双方并在 teardown_delay 后删除房间
func (m *GameManager) closeRoom(r *room.Room) {
	m.hub.BroadcastToPlayers(r.PresentConnIDs(), websocket.OutgoingMessage{
		Type: MsgRematchRejected,
		Data: roomPayload{RoomID: r.ID},
	})
	id, matchID := r.ID, r.MatchID
	m.timers.Schedule(timers.Key{Scope: id, Purpose: timerTeardown}, m.cfg.TeardownDelay, func() {
		if r, ok := m.rooms[id]; ok && r.MatchID == matchID {
			m.deleteRoom(id)
		}
	})
}
