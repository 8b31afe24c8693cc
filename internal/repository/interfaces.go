package repository

import (
	"context"
	"time"

	"github.com/akudrin/dotabet-backend/internal/models"
	"github.com/jackc/pgx/v5"
)

type Users interface {
	Create(ctx context.Context, username string, startingBalance int64) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	AddBalance(ctx context.Context, id string, delta int64) (int64, error)
	Leaderboard(ctx context.Context, orderBy string, limit int) ([]models.LeaderboardEntry, error)

	// Tx-scoped: the caller owns the enclosing transaction and the lock order.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (models.User, error)
	Debit(ctx context.Context, tx pgx.Tx, id string, amount int64) error
	CreditWin(ctx context.Context, tx pgx.Tx, id string, amount int64) error
}

type Matches interface {
	// Upsert inserts or updates mutable fields. It never moves status
	// backward, whatever the incoming snapshot claims.
	Upsert(ctx context.Context, m models.Match) error
	GetByID(ctx context.Context, id int64) (models.Match, error)
	ListOpen(ctx context.Context, limit int) ([]models.Match, error)
	// ListDue returns unfinished matches that started before the cutoff.
	ListDue(ctx context.Context, before time.Time) ([]models.Match, error)
	// ListUnsettled returns finished matches that still carry pending bets.
	ListUnsettled(ctx context.Context) ([]models.Match, error)
	// MarkFinished is the only path to the finished status. No-op if already finished.
	MarkFinished(ctx context.Context, id int64, winner string) error

	GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (models.Match, error)
}

type Bets interface {
	// WithTx runs fn inside a single database transaction (pgx.Tx).
	WithTx(ctx context.Context, fn func(pgx.Tx) error) error

	Insert(ctx context.Context, tx pgx.Tx, b models.Bet) (models.Bet, error)
	ListPendingForUpdate(ctx context.Context, tx pgx.Tx, matchID int64) ([]models.Bet, error)
	// SettlePending flips a pending bet to a terminal status. Returns false
	// when the bet was already terminal, so a retry can never pay twice.
	SettlePending(ctx context.Context, tx pgx.Tx, betID string, status models.BetStatus) (bool, error)
	HistoryByUser(ctx context.Context, userID string) ([]models.BetWithMatch, error)
}
