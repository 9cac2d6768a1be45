package manager

import (
	"BlockDuel/internal/game/arbiter"
	"BlockDuel/internal/game/room"
	"BlockDuel/internal/timers"
	"BlockDuel/internal/utils"
	"BlockDuel/internal/websocket"
)

// leaveGame 主动离开，按断线处理
func (m *GameManager) leaveGame(msg websocket.IncomingMessage) error {
	var p roomPayload
	if err := msg.Decode(&p); err != nil {
		return err
	}
	if _, _, err := m.roomFor(msg.From, p.RoomID); err != nil {
		return err
	}
	m.departRoom(msg.From)
	return nil
}

// departRoom 释放成员关系，通知对手，启动断线宽限计时
func (m *GameManager) departRoom(connID string) {
	id, ok := m.playerToRoom[connID]
	if !ok {
		return
	}
	delete(m.playerToRoom, connID)
	delete(m.lastRelay, connID)

	r, ok := m.rooms[id]
	if !ok {
		return
	}
	seat, ok := r.SeatOf(connID)
	if !ok {
		return
	}
	r.Slots[seat].Present = false
	utils.Log.Info("player left room", "room", id, "conn", connID, "state", r.State)

	if r.PresentCount() == 0 {
		m.deleteRoom(id)
		return
	}

	opp := r.Opponent(seat)
	m.hub.SendToPlayer(opp.ConnID, websocket.OutgoingMessage{Type: MsgOpponentDisconnected})
	if r.ClearRematch() != nil {
		m.timers.Cancel(timers.Key{Scope: id, Purpose: timerRematch})
		m.hub.SendToPlayer(opp.ConnID, websocket.OutgoingMessage{
			Type: MsgRematchRejected,
			Data: roomPayload{RoomID: id},
		})
	}

	winner := 1 - seat
	m.timers.Schedule(timers.Key{Scope: id, Purpose: timerDisconnect}, m.cfg.DisconnectGrace, func() {
		r, ok := m.rooms[id]
		if !ok {
			return
		}
		if r.State == room.Active {
			m.resolve(r, winner, arbiter.ReasonDisconnected)
		}
		m.deleteRoom(id)
	})
}
