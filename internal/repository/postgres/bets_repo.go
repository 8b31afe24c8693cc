package postgres

import (
	"context"

	"github.com/akudrin/dotabet-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type betsRepo struct{ pool *pgxpool.Pool }

// WithTx runs fn inside a single database transaction (pgx.Tx).
// Row locks taken inside fn live until commit or rollback.
func (r *betsRepo) WithTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (r *betsRepo) Insert(ctx context.Context, tx pgx.Tx, b models.Bet) (models.Bet, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	err := tx.QueryRow(ctx,
		`INSERT INTO bets (id, user_id, match_id, choice, amount, odds, status)
		 VALUES ($1, $2, $3, $4, $5, $6::NUMERIC, $7)
		 RETURNING created_at`,
		b.ID, b.UserID, b.MatchID, b.Choice, b.Amount, b.Odds.String(), b.Status,
	).Scan(&b.CreatedAt)
	return b, err
}

func (r *betsRepo) ListPendingForUpdate(ctx context.Context, tx pgx.Tx, matchID int64) ([]models.Bet, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, user_id, match_id, choice, amount, odds::text, status, created_at
		   FROM bets
		  WHERE match_id=$1 AND status='pending'
		  ORDER BY created_at ASC
		  FOR UPDATE`,
		matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// SettlePending flips a pending bet to its terminal status. The status
// guard in the WHERE clause is what makes retried settlement runs pay
// each bet at most once.
func (r *betsRepo) SettlePending(ctx context.Context, tx pgx.Tx, betID string, status models.BetStatus) (bool, error) {
	tag, err := tx.Exec(ctx,
		`UPDATE bets SET status=$2 WHERE id=$1 AND status='pending'`,
		betID, status)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *betsRepo) HistoryByUser(ctx context.Context, userID string) ([]models.BetWithMatch, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT b.id, b.user_id, b.match_id, b.choice, b.amount, b.odds::text, b.status, b.created_at,
		        m.team1, m.team2, m.status
		   FROM bets b
		   JOIN matches m ON b.match_id = m.id
		  WHERE b.user_id=$1
		  ORDER BY b.created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.BetWithMatch
	for rows.Next() {
		var h models.BetWithMatch
		var odds string
		if err := rows.Scan(&h.ID, &h.UserID, &h.MatchID, &h.Choice, &h.Amount, &odds, &h.Status, &h.CreatedAt,
			&h.Team1, &h.Team2, &h.MatchStatus); err != nil {
			return nil, err
		}
		if h.Odds, err = decimal.NewFromString(odds); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func scanBet(row rowScanner) (models.Bet, error) {
	var b models.Bet
	var odds string
	if err := row.Scan(&b.ID, &b.UserID, &b.MatchID, &b.Choice, &b.Amount, &odds, &b.Status, &b.CreatedAt); err != nil {
		return models.Bet{}, err
	}
	var err error
	if b.Odds, err = decimal.NewFromString(odds); err != nil {
		return models.Bet{}, err
	}
	return b, nil
}
