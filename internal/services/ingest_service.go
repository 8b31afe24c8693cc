package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/akudrin/dotabet-backend/internal/apperr"
	"github.com/akudrin/dotabet-backend/internal/config"
	"github.com/akudrin/dotabet-backend/internal/metrics"
	"github.com/akudrin/dotabet-backend/internal/models"
	"github.com/akudrin/dotabet-backend/internal/provider"
	repo "github.com/akudrin/dotabet-backend/internal/repository"
)

// IngestService pulls the provider's pro-match feed and upserts it into
// the match store. It owns match creation; it never moves a match
// backward in the lifecycle (the upsert guards that).
type IngestService struct {
	matches  repo.Matches
	provider provider.Client
	cfg      config.Config
	log      *slog.Logger
}

func NewIngestService(m repo.Matches, p provider.Client, cfg config.Config, log *slog.Logger) *IngestService {
	return &IngestService{matches: m, provider: p, cfg: cfg, log: log}
}

// Sync fetches a bounded batch of candidate matches and upserts each one.
// A provider failure aborts the whole step; each upsert commits on its
// own, so a mid-batch storage failure keeps the rows already written.
func (s *IngestService) Sync(ctx context.Context) error {
	cands, err := s.provider.ProMatches(ctx)
	if err != nil {
		metrics.ProviderErrors.Inc()
		return apperr.Provider("fetch pro matches", err)
	}

	now := time.Now()
	batch := make([]provider.Candidate, 0, s.cfg.SyncBatchSize)
	for _, c := range cands {
		if !c.StartTime.After(now) {
			continue
		}
		batch = append(batch, c)
		if len(batch) == s.cfg.SyncBatchSize {
			break
		}
	}

	if len(batch) == 0 && s.cfg.FallbackOnEmptyBatch {
		// Nothing future-dated in the feed. Keep the visible match list
		// populated with the most recent batch instead of going empty.
		n := len(cands)
		if n > s.cfg.SyncBatchSize {
			n = s.cfg.SyncBatchSize
		}
		batch = cands[:n]
		s.log.Warn("no future matches in feed, falling back to most recent batch", "count", n)
	}

	for _, c := range batch {
		m := s.toMatch(c, now)
		if err := s.matches.Upsert(ctx, m); err != nil {
			return apperr.Storage(fmt.Sprintf("upsert match %d", m.ID), err)
		}
		metrics.MatchesIngested.Inc()
	}

	s.log.Info("sync complete", "candidates", len(cands), "ingested", len(batch))
	return nil
}

func (s *IngestService) toMatch(c provider.Candidate, now time.Time) models.Match {
	return models.Match{
		ID:        c.ID,
		Team1:     teamLabel(c.Radiant, c.RadiantTeamID),
		Team2:     teamLabel(c.Dire, c.DireTeamID),
		StartTime: c.StartTime,
		Status:    deriveStatus(c.StartTime, now, s.cfg.LiveWindow, s.cfg.UpcomingHorizon),
		Odds: map[string]decimal.Decimal{
			models.SideTeam1: randomOdds(),
			models.SideTeam2: randomOdds(),
		},
	}
}

// teamLabel synthesizes a display name when the provider omits one.
func teamLabel(name string, teamID int64) string {
	if name != "" {
		return name
	}
	if teamID == 0 {
		return "Team Unknown"
	}
	return fmt.Sprintf("Team %d", teamID)
}

// deriveStatus maps a start time to an initial lifecycle status:
// inside the live window the match is treated as in play, inside the
// upcoming horizon as imminent, beyond that as not started.
func deriveStatus(start, now time.Time, liveWindow, upcomingHorizon time.Duration) models.MatchStatus {
	switch {
	case start.Before(now.Add(liveWindow)):
		return models.MatchLive
	case start.Before(now.Add(upcomingHorizon)):
		return models.MatchUpcoming
	default:
		return models.MatchNotStarted
	}
}

// The provider feed carries no bookmaker odds, so each side gets a
// uniform multiplier in [1.00, 3.00) at ingestion. Bets snapshot the
// value at placement and are immune to the refresh on later syncs.
func randomOdds() decimal.Decimal {
	return decimal.NewFromFloat(rand.Float64()*2 + 1).Round(2)
}
