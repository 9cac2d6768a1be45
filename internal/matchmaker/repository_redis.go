package matchmaker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisRepo struct {
	rdb *redis.Client
}

func NewRedisRepo(rdb *redis.Client) Repo {
	return &redisRepo{rdb: rdb}
}

// key 约定：
//
//	zset: mm:queue            -> member connID, score JoinedAt (微秒)
//	hash: mm:entry:{connID}   -> nickname, joinedAt
const (
	queueKey       = "mm:queue"
	entryKeyPrefix = "mm:entry:"
)

func entryKey(connID string) string {
	return entryKeyPrefix + connID
}

// KEYS[1] = queueKey, ARGV[1] = n, ARGV[2] = entry key 前缀。
// 不足 n 人时不弹出；弹出、读取与删除 hash 在同一个脚本内完成，
// 返回扁平的 [id, nickname, joinedAt, ...]
var popOldestScript = redis.NewScript(`
local n = tonumber(ARGV[1])
if redis.call("ZCARD", KEYS[1]) < n then
    return {}
end
local popped = redis.call("ZPOPMIN", KEYS[1], n)
local out = {}
for i = 1, #popped, 2 do
    local id = popped[i]
    local key = ARGV[2] .. id
    local h = redis.call("HMGET", key, "nickname", "joinedAt")
    redis.call("DEL", key)
    out[#out + 1] = id
    out[#out + 1] = h[1] or ""
    out[#out + 1] = h[2] or popped[i + 1]
end
return out
`)

func (r *redisRepo) Enqueue(ctx context.Context, e Entry) error {
	ok, err := r.Contains(ctx, e.ConnID)
	if err != nil {
		return err
	}
	if ok {
		return ErrAlreadyQueued
	}
	micros := e.JoinedAt.UnixMicro()
	p := r.rdb.TxPipeline()
	p.ZAdd(ctx, queueKey, redis.Z{Score: float64(micros), Member: e.ConnID})
	p.HSet(ctx, entryKey(e.ConnID), "nickname", e.Nickname, "joinedAt", strconv.FormatInt(micros, 10))
	if _, err := p.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue %s: %w", e.ConnID, err)
	}
	return nil
}

func (r *redisRepo) PopOldest(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	flat, err := popOldestScript.Run(ctx, r.rdb, []string{queueKey}, n, entryKeyPrefix).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("pop oldest: %w", err)
	}
	out := make([]Entry, 0, len(flat)/3)
	for i := 0; i+2 < len(flat); i += 3 {
		micros, err := strconv.ParseInt(flat[i+2], 10, 64)
		if err != nil {
			// hash 缺失时退回 zset 分数
			f, _ := strconv.ParseFloat(flat[i+2], 64)
			micros = int64(f)
		}
		out = append(out, Entry{
			ConnID:   flat[i],
			Nickname: flat[i+1],
			JoinedAt: time.UnixMicro(micros),
		})
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (r *redisRepo) Remove(ctx context.Context, connID string) (bool, error) {
	p := r.rdb.TxPipeline()
	rem := p.ZRem(ctx, queueKey, connID)
	p.Del(ctx, entryKey(connID))
	if _, err := p.Exec(ctx); err != nil {
		return false, fmt.Errorf("remove %s: %w", connID, err)
	}
	return rem.Val() > 0, nil
}

func (r *redisRepo) Contains(ctx context.Context, connID string) (bool, error) {
	err := r.rdb.ZScore(ctx, queueKey, connID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *redisRepo) List(ctx context.Context) ([]Entry, error) {
	ids, err := r.rdb.ZRange(ctx, queueKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return r.load(ctx, ids)
}

func (r *redisRepo) Count(ctx context.Context) (int64, error) {
	return r.rdb.ZCard(ctx, queueKey).Result()
}

func (r *redisRepo) load(ctx context.Context, ids []string) ([]Entry, error) {
	p := r.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = p.HGetAll(ctx, entryKey(id))
	}
	if _, err := p.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	out := make([]Entry, 0, len(ids))
	for i, id := range ids {
		fields := cmds[i].Val()
		micros, _ := strconv.ParseInt(fields["joinedAt"], 10, 64)
		out = append(out, Entry{
			ConnID:   id,
			Nickname: fields["nickname"],
			JoinedAt: time.UnixMicro(micros),
		})
	}
	return out, nil
}
