package room

import (
	"errors"
	"time"
)

// 再来一局：Idle -> Requested -> {Accepted, Rejected, TimedOut}
var (
	ErrNotResolved     = errors.New("room is not resolved")
	ErrRematchPending  = errors.New("rematch already requested")
	ErrNoRematch       = errors.New("no rematch requested")
	ErrOwnRequest      = errors.New("cannot answer own rematch request")
	ErrOpponentMissing = errors.New("opponent has left")
)

type RematchRequest struct {
	Seat     int
	Deadline time.Time
}

func (r *Room) RequestRematch(seat int, deadline time.Time) error {
	if r.State != Resolved {
		return ErrNotResolved
	}
	if r.Rematch != nil {
		return ErrRematchPending
	}
	if !r.Slots[seat].Present || !r.Opponent(seat).Present {
		return ErrOpponentMissing
	}
	r.Rematch = &RematchRequest{Seat: seat, Deadline: deadline}
	return nil
}

// AnswerRematch 只有被邀请的一方可以应答；成功后请求被清除
func (r *Room) AnswerRematch(seat int) (*RematchRequest, error) {
	if r.Rematch == nil {
		return nil, ErrNoRematch
	}
	if r.Rematch.Seat == seat {
		return nil, ErrOwnRequest
	}
	req := r.Rematch
	r.Rematch = nil
	return req, nil
}

// ClearRematch 超时或一方离开时清除请求
func (r *Room) ClearRematch() *RematchRequest {
	req := r.Rematch
	r.Rematch = nil
	return req
}

// NextStartTime 新一局的开始时间（按下发的毫秒精度）必须严格晚于上一局的判定时间
func (r *Room) NextStartTime(now time.Time) time.Time {
	resolved := r.ResolvedAt.UnixMilli()
	if now.UnixMilli() <= resolved {
		return time.UnixMilli(resolved + 1)
	}
	return now
}
