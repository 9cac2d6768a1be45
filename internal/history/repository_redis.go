package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// list: hist:results，LPUSH 最新在前，LTRIM 保留 limit 条
const resultsKey = "hist:results"

type redisRepo struct {
	rdb   *redis.Client
	limit int64
}

func NewRedisRepo(rdb *redis.Client, limit int) Repo {
	return &redisRepo{rdb: rdb, limit: int64(limit)}
}

func (r *redisRepo) Record(ctx context.Context, res Result) error {
	b, err := json.Marshal(res)
	if err != nil {
		return err
	}
	p := r.rdb.TxPipeline()
	p.LPush(ctx, resultsKey, b)
	if r.limit > 0 {
		p.LTrim(ctx, resultsKey, 0, r.limit-1)
	}
	if _, err := p.Exec(ctx); err != nil {
		return fmt.Errorf("record %s: %w", res.MatchID, err)
	}
	return nil
}

func (r *redisRepo) Recent(ctx context.Context, n int) ([]Result, error) {
	stop := int64(-1)
	if n > 0 {
		stop = int64(n) - 1
	}
	raw, err := r.rdb.LRange(ctx, resultsKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("recent results: %w", err)
	}
	out := make([]Result, 0, len(raw))
	for _, s := range raw {
		var res Result
		if err := json.Unmarshal([]byte(s), &res); err != nil {
			continue
		}
		out = append(out, res)
	}
	return out, nil
}
