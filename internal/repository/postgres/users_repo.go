package postgres

import (
	"context"

	"github.com/akudrin/dotabet-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type usersRepo struct{ pool *pgxpool.Pool }

func (r *usersRepo) Create(ctx context.Context, username string, startingBalance int64) (models.User, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users(id, username, balance) VALUES($1,$2,$3)`,
		id, username, startingBalance,
	)
	if err != nil {
		return models.User{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, username, balance, points, created_at, updated_at FROM users WHERE id=$1`, id,
	).Scan(&u.ID, &u.Username, &u.Balance, &u.Points, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *usersRepo) GetByUsername(ctx context.Context, username string) (models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, username, balance, points, created_at, updated_at FROM users WHERE username=$1`, username,
	).Scan(&u.ID, &u.Username, &u.Balance, &u.Points, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *usersRepo) AddBalance(ctx context.Context, id string, delta int64) (int64, error) {
	var balance int64
	err := r.pool.QueryRow(ctx,
		`UPDATE users SET balance = balance + $2, updated_at = now() WHERE id=$1 RETURNING balance`,
		id, delta,
	).Scan(&balance)
	return balance, err
}

func (r *usersRepo) Leaderboard(ctx context.Context, orderBy string, limit int) ([]models.LeaderboardEntry, error) {
	q := `SELECT username, balance, points FROM users ORDER BY points DESC, balance DESC LIMIT $1`
	if orderBy == "balance" {
		q = `SELECT username, balance, points FROM users ORDER BY balance DESC, points DESC LIMIT $1`
	}
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Balance, &e.Points); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *usersRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (models.User, error) {
	var u models.User
	err := tx.QueryRow(ctx,
		`SELECT id, username, balance, points, created_at, updated_at FROM users WHERE id=$1 FOR UPDATE`, id,
	).Scan(&u.ID, &u.Username, &u.Balance, &u.Points, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *usersRepo) Debit(ctx context.Context, tx pgx.Tx, id string, amount int64) error {
	_, err := tx.Exec(ctx,
		`UPDATE users SET balance = balance - $2, updated_at = now() WHERE id=$1`,
		id, amount,
	)
	return err
}

// CreditWin pays out a winning bet: balance up, one leaderboard point.
func (r *usersRepo) CreditWin(ctx context.Context, tx pgx.Tx, id string, amount int64) error {
	_, err := tx.Exec(ctx,
		`UPDATE users SET balance = balance + $2, points = points + 1, updated_at = now() WHERE id=$1`,
		id, amount,
	)
	return err
}
