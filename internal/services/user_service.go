package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/akudrin/dotabet-backend/internal/apperr"
	"github.com/akudrin/dotabet-backend/internal/cache"
	"github.com/akudrin/dotabet-backend/internal/config"
	"github.com/akudrin/dotabet-backend/internal/models"
	repo "github.com/akudrin/dotabet-backend/internal/repository"
)

type UserService struct {
	r     repo.Users
	cache *cache.Cache
	cfg   config.Config
}

func NewUserService(r repo.Users, c *cache.Cache, cfg config.Config) *UserService {
	return &UserService{r: r, cache: c, cfg: cfg}
}

// Login is identity lookup only: fetch by username, create with the
// starting balance if absent. No credential is involved.
func (s *UserService) Login(ctx context.Context, username string) (models.User, error) {
	username = strings.TrimSpace(username)
	u := models.User{Username: username}
	if err := u.Validate(); err != nil {
		return models.User{}, apperr.Validation("%s", err.Error())
	}

	u, err := s.r.GetByUsername(ctx, username)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, apperr.Storage("lookup user", err)
	}

	u, err = s.r.Create(ctx, username, s.cfg.StartingBalance)
	if err != nil {
		// Lost a race on the unique username; the other insert won.
		if u2, err2 := s.r.GetByUsername(ctx, username); err2 == nil {
			return u2, nil
		}
		return models.User{}, apperr.Storage("create user", err)
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (models.User, error) {
	u, err := s.r.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, apperr.NotFound("user %s not found", id)
	}
	if err != nil {
		return models.User{}, apperr.Storage("get user", err)
	}
	return u, nil
}

func (s *UserService) AddFunds(ctx context.Context, id string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, apperr.Validation("amount must be > 0")
	}
	balance, err := s.r.AddBalance(ctx, id, amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperr.NotFound("user %s not found", id)
	}
	if err != nil {
		return 0, apperr.Storage("add funds", err)
	}
	return balance, nil
}

const leaderboardSize = 10

func (s *UserService) Leaderboard(ctx context.Context, orderBy string) ([]models.LeaderboardEntry, error) {
	if orderBy != "balance" {
		orderBy = "points"
	}
	key := "leaderboard:" + orderBy

	var cached []models.LeaderboardEntry
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	out, err := s.r.Leaderboard(ctx, orderBy, leaderboardSize)
	if err != nil {
		return nil, apperr.Storage("leaderboard", err)
	}
	s.cache.SetJSON(ctx, key, out)
	return out, nil
}
