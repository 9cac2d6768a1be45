package matchmaker

import "time"

// Entry 队列中的一个等待者
type Entry struct {
	ConnID   string    `json:"connId"`
	Nickname string    `json:"nickname"`
	JoinedAt time.Time `json:"joinedAt"`
}

// JoinRequest 来自 find_game
type JoinRequest struct {
	ConnID   string
	Nickname string
}

// 下行消息类型
const (
	MsgQueueJoined  = "queue_joined"
	MsgQueueUpdate  = "queue_update"
	MsgQueueTimeout = "queue_timeout"
	MsgError        = "error"
)

type positionPayload struct {
	Position int `json:"position"`
}
