package services

import (
	"context"

	"github.com/akudrin/dotabet-backend/internal/apperr"
	"github.com/akudrin/dotabet-backend/internal/cache"
	"github.com/akudrin/dotabet-backend/internal/metrics"
	"github.com/akudrin/dotabet-backend/internal/models"
	"github.com/akudrin/dotabet-backend/internal/provider"
	repo "github.com/akudrin/dotabet-backend/internal/repository"
)

const (
	openMatchesLimit = 50
	liveMatchesLimit = 15
)

type MatchService struct {
	matches  repo.Matches
	provider provider.Client
	cache    *cache.Cache
}

func NewMatchService(m repo.Matches, p provider.Client, c *cache.Cache) *MatchService {
	return &MatchService{matches: m, provider: p, cache: c}
}

// Open lists matches still accepting attention (anything not finished),
// soonest first.
func (s *MatchService) Open(ctx context.Context) ([]models.Match, error) {
	const key = "matches:open"
	var cached []models.Match
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	out, err := s.matches.ListOpen(ctx, openMatchesLimit)
	if err != nil {
		return nil, apperr.Storage("list open matches", err)
	}
	s.cache.SetJSON(ctx, key, out)
	return out, nil
}

// Live passes the provider's in-play feed straight through. These are
// display-only; they are not persisted and take no bets.
func (s *MatchService) Live(ctx context.Context) ([]provider.LiveMatch, error) {
	out, err := s.provider.LiveMatches(ctx)
	if err != nil {
		metrics.ProviderErrors.Inc()
		return nil, apperr.Provider("fetch live matches", err)
	}
	if len(out) > liveMatchesLimit {
		out = out[:liveMatchesLimit]
	}
	return out, nil
}
