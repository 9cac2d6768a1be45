package history

import "context"

// Repo 对局结果存储；Recent 按结束时间倒序
type Repo interface {
	Record(ctx context.Context, r Result) error
	Recent(ctx context.Context, n int) ([]Result, error)
}
