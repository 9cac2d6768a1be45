package history

import (
	"context"
	"database/sql"
	"fmt"
)

const createTable = `
CREATE TABLE IF NOT EXISTS match_results (
	match_id        TEXT PRIMARY KEY,
	room_id         TEXT NOT NULL,
	winner_nickname TEXT NOT NULL,
	winner_score    INTEGER NOT NULL,
	loser_nickname  TEXT NOT NULL,
	loser_score     INTEGER NOT NULL,
	reason          TEXT NOT NULL,
	started_at      TIMESTAMPTZ,
	ended_at        TIMESTAMPTZ NOT NULL
)`

type postgresRepo struct {
	db *sql.DB
}

// NewPostgresRepo 建表后返回；db 由调用方负责关闭
func NewPostgresRepo(ctx context.Context, db *sql.DB) (Repo, error) {
	if _, err := db.ExecContext(ctx, createTable); err != nil {
		return nil, fmt.Errorf("migrate match_results: %w", err)
	}
	return &postgresRepo{db: db}, nil
}

func (p *postgresRepo) Record(ctx context.Context, r Result) error {
	var started sql.NullTime
	if !r.StartedAt.IsZero() {
		started = sql.NullTime{Time: r.StartedAt, Valid: true}
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO match_results
			(match_id, room_id, winner_nickname, winner_score, loser_nickname, loser_score, reason, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (match_id) DO NOTHING`,
		r.MatchID, r.RoomID, r.WinnerNickname, r.WinnerScore,
		r.LoserNickname, r.LoserScore, r.Reason, started, r.EndedAt)
	if err != nil {
		return fmt.Errorf("insert result %s: %w", r.MatchID, err)
	}
	return nil
}

func (p *postgresRepo) Recent(ctx context.Context, n int) ([]Result, error) {
	if n <= 0 {
		n = 100
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT match_id, room_id, winner_nickname, winner_score, loser_nickname, loser_score, reason, started_at, ended_at
		FROM match_results
		ORDER BY ended_at DESC
		LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var (
			r       Result
			started sql.NullTime
		)
		if err := rows.Scan(&r.MatchID, &r.RoomID, &r.WinnerNickname, &r.WinnerScore,
			&r.LoserNickname, &r.LoserScore, &r.Reason, &started, &r.EndedAt); err != nil {
			return nil, err
		}
		if started.Valid {
			r.StartedAt = started.Time
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
