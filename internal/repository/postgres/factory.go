package postgres

import (
	repo "github.com/akudrin/dotabet-backend/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repositories struct {
	Users   repo.Users
	Matches repo.Matches
	Bets    repo.Bets
}

func NewRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Users:   &usersRepo{pool},
		Matches: &matchesRepo{pool},
		Bets:    &betsRepo{pool},
	}
}
