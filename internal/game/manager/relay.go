package manager

import (
	"BlockDuel/internal/websocket"
)

// relayUpdate 原样转发给对手；进行中时记录到发送者的 Slot
func (m *GameManager) relayUpdate(msg websocket.IncomingMessage) error {
	var p updatePayload
	if err := msg.Decode(&p); err != nil {
		return err
	}
	r, seat, err := m.roomFor(msg.From, p.RoomID)
	if err != nil {
		return err
	}

	now := m.now()
	if iv := m.cfg.UpdateInterval; iv > 0 {
		if last, ok := m.lastRelay[msg.From]; ok && now.Sub(last) < iv {
			return nil
		}
	}
	m.lastRelay[msg.From] = now

	r.RecordUpdate(seat, p.Score, p.Lines, p.Level, p.Board, now)
	r.Touch(now)

	if p.Nickname == "" {
		p.Nickname = r.Slots[seat].Nickname
	}
	opp := r.Opponent(seat)
	if !opp.Present {
		return nil
	}
	p.RoomID = ""
	m.hub.SendToPlayer(opp.ConnID, websocket.OutgoingMessage{
		Type: MsgOpponentUpdate,
		Data: p,
	})
	return nil
}
