package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/akudrin/dotabet-backend/internal/apperr"
	"github.com/akudrin/dotabet-backend/internal/config"
	"github.com/akudrin/dotabet-backend/internal/events"
	"github.com/akudrin/dotabet-backend/internal/metrics"
	"github.com/akudrin/dotabet-backend/internal/models"
	"github.com/akudrin/dotabet-backend/internal/producer"
	"github.com/akudrin/dotabet-backend/internal/provider"
	repo "github.com/akudrin/dotabet-backend/internal/repository"
)

// SettlementService advances overdue matches to finished and resolves
// their pending bets. It is the only writer of bet status after
// creation and the only source of settlement credits.
type SettlementService struct {
	matches  repo.Matches
	users    repo.Users
	bets     repo.Bets
	provider provider.Client
	producer *producer.Kafka
	cfg      config.Config
	log      *slog.Logger

	// skipSettlement marks matches that must never mature through this
	// path (synthetic seed data).
	skipSettlement func(matchID int64) bool
}

func NewSettlementService(m repo.Matches, u repo.Users, b repo.Bets, p provider.Client, pub *producer.Kafka, cfg config.Config, log *slog.Logger) *SettlementService {
	return &SettlementService{
		matches:        m,
		users:          u,
		bets:           b,
		provider:       p,
		producer:       pub,
		cfg:            cfg,
		log:            log,
		skipSettlement: prefixSkip(cfg.SkipMatchIDPrefix),
	}
}

func prefixSkip(prefix string) func(int64) bool {
	return func(matchID int64) bool {
		return prefix != "" && strings.HasPrefix(strconv.FormatInt(matchID, 10), prefix)
	}
}

// EvaluateDue scans matches past the maturity threshold, asks the
// provider for a final result, and settles the ones that finished.
// One match's provider error or missing result never blocks the rest.
func (s *SettlementService) EvaluateDue(ctx context.Context) error {
	cutoff := time.Now().Add(-s.cfg.MaturityThreshold)
	due, err := s.matches.ListDue(ctx, cutoff)
	if err != nil {
		return apperr.Storage("list due matches", err)
	}

	for _, m := range due {
		if s.skipSettlement(m.ID) {
			continue
		}
		res, err := s.provider.MatchResult(ctx, m.ID)
		if err != nil {
			metrics.ProviderErrors.Inc()
			s.log.Warn("provider result lookup failed, match skipped", "match_id", m.ID, "err", err)
			continue
		}
		if !res.Finished {
			continue
		}
		if err := s.matches.MarkFinished(ctx, m.ID, res.Winner); err != nil {
			s.log.Error("mark finished", "match_id", m.ID, "err", err)
			continue
		}
		s.log.Info("match finished", "match_id", m.ID, "winner", res.Winner)
		if err := s.Settle(ctx, m.ID, res.Winner); err != nil {
			// The match stays finished with pending bets; the sweep
			// below (or the next cycle) retries it.
			s.log.Error("settle", "match_id", m.ID, "err", err)
		}
	}

	return s.sweepUnsettled(ctx)
}

// sweepUnsettled retries settlement for finished matches that still
// carry pending bets, healing any crash or rollback between the status
// transition and the payout transaction.
func (s *SettlementService) sweepUnsettled(ctx context.Context) error {
	unsettled, err := s.matches.ListUnsettled(ctx)
	if err != nil {
		return apperr.Storage("list unsettled matches", err)
	}
	for _, m := range unsettled {
		if m.Winner == nil {
			s.log.Error("finished match without winner, cannot settle", "match_id", m.ID)
			continue
		}
		if err := s.Settle(ctx, m.ID, *m.Winner); err != nil {
			s.log.Error("settle sweep", "match_id", m.ID, "err", err)
		}
	}
	return nil
}

// Settle resolves every pending bet on a finished match inside one
// transaction: the match row lock is taken first to serialize against
// in-flight placements, then pending bets are locked and resolved.
// Winning stakes pay amount × the fixed multiplier and score one point.
// Re-invocation is safe: terminal bets are skipped, so a retried run
// can never pay a bet twice.
func (s *SettlementService) Settle(ctx context.Context, matchID int64, winner string) error {
	var settled, wins int
	err := s.bets.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := s.matches.GetForUpdate(ctx, tx, matchID); err != nil {
			return err
		}
		pending, err := s.bets.ListPendingForUpdate(ctx, tx, matchID)
		if err != nil {
			return err
		}
		for _, b := range pending {
			status := models.BetLoss
			if b.Choice == winner {
				status = models.BetWin
			}
			ok, err := s.bets.SettlePending(ctx, tx, b.ID, status)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if status == models.BetWin {
				payout := b.Amount * s.cfg.PayoutMultiplier
				if err := s.users.CreditWin(ctx, tx, b.UserID, payout); err != nil {
					return err
				}
				wins++
			}
			settled++
		}
		return nil
	})
	if err != nil {
		return apperr.Storage(fmt.Sprintf("settle match %d", matchID), err)
	}

	if settled > 0 {
		metrics.MatchesSettled.Inc()
		metrics.BetsSettled.WithLabelValues("win").Add(float64(wins))
		metrics.BetsSettled.WithLabelValues("loss").Add(float64(settled - wins))
		s.log.Info("match settled", "match_id", matchID, "winner", winner, "bets", settled, "wins", wins)
		s.producer.MatchSettled(events.MatchSettled{
			MatchID:     matchID,
			Winner:      winner,
			BetsSettled: settled,
			Wins:        wins,
		})
	}
	return nil
}
