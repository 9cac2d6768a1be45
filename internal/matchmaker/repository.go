package matchmaker

import "context"

// Repo 有序等待队列，按 JoinedAt 先进先出
type Repo interface {
	// Enqueue 追加到队尾；已在队列中返回 ErrAlreadyQueued
	Enqueue(ctx context.Context, e Entry) error
	// PopOldest 原子地弹出最早的 n 人；不足 n 人时不弹出，返回空
	PopOldest(ctx context.Context, n int) ([]Entry, error)
	// Remove 移除；返回是否确实在队列中
	Remove(ctx context.Context, connID string) (bool, error)
	Contains(ctx context.Context, connID string) (bool, error)
	// List 按先后顺序返回全部等待者
	List(ctx context.Context) ([]Entry, error)
	Count(ctx context.Context) (int64, error)
}
