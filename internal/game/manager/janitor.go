package manager

import (
	"context"
	"time"

	"BlockDuel/internal/utils"
)

// StartJanitor 定期删除长时间无活动的房间
func (m *GameManager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.sweepIdle(m.now())
			}
		}
	}()
}

func (m *GameManager) sweepIdle(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cfg.RoomIdleTimeout <= 0 {
		return 0
	}
	n := 0
	for id, r := range m.rooms {
		if now.Sub(r.LastActivity) < m.cfg.RoomIdleTimeout {
			continue
		}
		utils.Log.Warn("removing idle room", "room", id, "idle", now.Sub(r.LastActivity).Round(time.Second))
		m.deleteRoom(id)
		n++
	}
	return n
}
