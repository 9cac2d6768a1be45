package history

import "time"

// Result 一局已判定对局的记录
type Result struct {
	MatchID        string    `json:"matchId"`
	RoomID         string    `json:"roomId"`
	WinnerNickname string    `json:"winnerNickname"`
	WinnerScore    int       `json:"winnerScore"`
	LoserNickname  string    `json:"loserNickname"`
	LoserScore     int       `json:"loserScore"`
	Reason         string    `json:"reason"`
	StartedAt      time.Time `json:"startedAt"`
	EndedAt        time.Time `json:"endedAt"`
}
