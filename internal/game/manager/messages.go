package manager

import "encoding/json"

// 上行消息类型
const (
	MsgFindGame       = "find_game"
	MsgCancelQueue    = "cancel_queue"
	MsgGameUpdate     = "game_update"
	MsgGameOver       = "game_over"
	MsgLeaveGame      = "leave_game"
	MsgRematchRequest = "rematch_request"
	MsgRematchAccept  = "rematch_accept"
	MsgRematchReject  = "rematch_reject"
)

// 下行消息类型
const (
	MsgMatchFound           = "match_found"
	MsgGameStart            = "game_start"
	MsgOpponentUpdate       = "opponent_update"
	MsgOpponentDisconnected = "opponent_disconnected"
	MsgGameEnd              = "game_end"
	MsgRematchStart         = "rematch_start"
	MsgRematchRejected      = "rematch_rejected"
	// MsgRematchRequest 也作为下行类型转发给对手
)

type findGamePayload struct {
	Nickname string `json:"nickname"`
}

// roomPayload 只带 roomId 的上行消息
type roomPayload struct {
	RoomID string `json:"roomId"`
}

type gameOverPayload struct {
	RoomID string `json:"roomId"`
	Reason string `json:"reason"`
}

// updatePayload 上行 game_update 与下行 opponent_update 共用
type updatePayload struct {
	RoomID   string          `json:"roomId,omitempty"`
	Board    json.RawMessage `json:"board"`
	Score    int             `json:"score"`
	Lines    int             `json:"lines"`
	Level    int             `json:"level"`
	GameOver bool            `json:"gameOver"`
	Nickname string          `json:"nickname"`
}

type matchFoundPayload struct {
	Opponent       string `json:"opponent"`
	PlayerNickname string `json:"playerNickname"`
	RoomID         string `json:"roomId"`
	MatchFoundTime int64  `json:"matchFoundTime"`
}

// startPayload game_start 与 rematch_start
type startPayload struct {
	RoomID         string `json:"roomId"`
	Opponent       string `json:"opponent"`
	PlayerNickname string `json:"playerNickname"`
	StartTime      int64  `json:"startTime"`
}

type gameEndPayload struct {
	RoomID         string `json:"roomId"`
	WinnerNickname string `json:"winnerNickname"`
	WinnerScore    int    `json:"winnerScore"`
	LoserNickname  string `json:"loserNickname"`
	LoserScore     int    `json:"loserScore"`
	IsWinner       bool   `json:"isWinner"`
	Reason         string `json:"reason"`
}

type rematchRequestPayload struct {
	PlayerID       string `json:"playerId"`
	PlayerNickname string `json:"playerNickname"`
	RoomID         string `json:"roomId"`
}

type errorPayload struct {
	Message string `json:"message"`
}
