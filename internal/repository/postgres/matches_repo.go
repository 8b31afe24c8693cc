package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/akudrin/dotabet-backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type matchesRepo struct{ pool *pgxpool.Pool }

const matchCols = `id, team1, team2, start_time, status, winner, odds, updated_at`

// Status may only move forward. A later sync snapshot that looks earlier
// in the lifecycle keeps the stored status.
const upsertMatchSQL = `
INSERT INTO matches (id, team1, team2, start_time, status, odds, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now())
ON CONFLICT (id) DO UPDATE SET
  team1      = EXCLUDED.team1,
  team2      = EXCLUDED.team2,
  start_time = EXCLUDED.start_time,
  odds       = EXCLUDED.odds,
  status     = CASE
    WHEN matches.status = 'finished' THEN matches.status
    WHEN matches.status = 'live' AND EXCLUDED.status IN ('not_started','upcoming') THEN matches.status
    WHEN matches.status = 'upcoming' AND EXCLUDED.status = 'not_started' THEN matches.status
    ELSE EXCLUDED.status
  END,
  updated_at = now()`

func (r *matchesRepo) Upsert(ctx context.Context, m models.Match) error {
	odds, err := json.Marshal(m.Odds)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, upsertMatchSQL,
		m.ID, m.Team1, m.Team2, m.StartTime, m.Status, odds)
	return err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanMatch(row rowScanner) (models.Match, error) {
	var m models.Match
	var odds []byte
	if err := row.Scan(&m.ID, &m.Team1, &m.Team2, &m.StartTime, &m.Status, &m.Winner, &odds, &m.UpdatedAt); err != nil {
		return models.Match{}, err
	}
	if len(odds) > 0 {
		if err := json.Unmarshal(odds, &m.Odds); err != nil {
			return models.Match{}, err
		}
	}
	if m.Odds == nil {
		m.Odds = map[string]decimal.Decimal{}
	}
	return m, nil
}

func (r *matchesRepo) queryMatches(ctx context.Context, q string, args ...any) ([]models.Match, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *matchesRepo) GetByID(ctx context.Context, id int64) (models.Match, error) {
	return scanMatch(r.pool.QueryRow(ctx,
		`SELECT `+matchCols+` FROM matches WHERE id=$1`, id))
}

func (r *matchesRepo) ListOpen(ctx context.Context, limit int) ([]models.Match, error) {
	return r.queryMatches(ctx,
		`SELECT `+matchCols+` FROM matches WHERE status <> 'finished' ORDER BY start_time ASC LIMIT $1`,
		limit)
}

func (r *matchesRepo) ListDue(ctx context.Context, before time.Time) ([]models.Match, error) {
	return r.queryMatches(ctx,
		`SELECT `+matchCols+` FROM matches WHERE status <> 'finished' AND start_time < $1 ORDER BY start_time ASC`,
		before)
}

func (r *matchesRepo) ListUnsettled(ctx context.Context) ([]models.Match, error) {
	return r.queryMatches(ctx,
		`SELECT `+matchCols+` FROM matches m
		  WHERE m.status = 'finished'
		    AND EXISTS (SELECT 1 FROM bets b WHERE b.match_id = m.id AND b.status = 'pending')
		  ORDER BY m.start_time ASC`)
}

func (r *matchesRepo) MarkFinished(ctx context.Context, id int64, winner string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE matches SET status='finished', winner=$2, updated_at=now()
		  WHERE id=$1 AND status <> 'finished'`,
		id, winner)
	return err
}

func (r *matchesRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (models.Match, error) {
	return scanMatch(tx.QueryRow(ctx,
		`SELECT `+matchCols+` FROM matches WHERE id=$1 FOR UPDATE`, id))
}
