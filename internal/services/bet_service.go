package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/akudrin/dotabet-backend/internal/apperr"
	"github.com/akudrin/dotabet-backend/internal/config"
	"github.com/akudrin/dotabet-backend/internal/events"
	"github.com/akudrin/dotabet-backend/internal/metrics"
	"github.com/akudrin/dotabet-backend/internal/models"
	"github.com/akudrin/dotabet-backend/internal/producer"
	repo "github.com/akudrin/dotabet-backend/internal/repository"
)

// BetService records new stakes. Placement runs in one transaction with
// the lock order match row → user row → bet insert, the same order
// settlement uses, so the two can never deadlock and a bet can never be
// accepted against a match that just closed.
type BetService struct {
	users    repo.Users
	matches  repo.Matches
	bets     repo.Bets
	producer *producer.Kafka
	cfg      config.Config
	log      *slog.Logger
}

func NewBetService(u repo.Users, m repo.Matches, b repo.Bets, pub *producer.Kafka, cfg config.Config, log *slog.Logger) *BetService {
	return &BetService{users: u, matches: m, bets: b, producer: pub, cfg: cfg, log: log}
}

func (s *BetService) PlaceBet(ctx context.Context, userID string, matchID int64, choice string, amount int64) (models.Bet, error) {
	if amount <= 0 {
		return models.Bet{}, apperr.Validation("amount must be > 0")
	}
	if choice == "" {
		return models.Bet{}, apperr.Validation("choice required")
	}

	var bet models.Bet
	err := s.bets.WithTx(ctx, func(tx pgx.Tx) error {
		m, err := s.matches.GetForUpdate(ctx, tx, matchID)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("match %d not found", matchID)
		}
		if err != nil {
			return err
		}
		// The lock above makes this the authoritative status, including
		// a transition committed by the scheduler a moment ago.
		if !m.Status.OpenForBetting() {
			return apperr.State("match %d is not open for betting", matchID)
		}
		odds, ok := m.OddsFor(choice)
		if !ok {
			return apperr.State("choice %q is not offered on match %d", choice, matchID)
		}

		u, err := s.users.GetForUpdate(ctx, tx, userID)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("user %s not found", userID)
		}
		if err != nil {
			return err
		}
		if u.Balance < amount {
			return apperr.State("insufficient balance")
		}

		if err := s.users.Debit(ctx, tx, userID, amount); err != nil {
			return err
		}
		bet, err = s.bets.Insert(ctx, tx, models.Bet{
			UserID:  userID,
			MatchID: matchID,
			Choice:  choice,
			Amount:  amount,
			Odds:    odds,
			Status:  models.BetPending,
		})
		return err
	})
	if err != nil {
		return models.Bet{}, tagStorage("place bet", err)
	}

	metrics.BetsPlaced.Inc()
	s.log.Info("bet placed", "bet_id", bet.ID, "user_id", userID, "match_id", matchID, "amount", amount)
	s.producer.BetPlaced(events.BetPlaced{
		BetID:   bet.ID,
		UserID:  userID,
		MatchID: matchID,
		Choice:  choice,
		Amount:  amount,
		Odds:    bet.Odds.String(),
	})
	return bet, nil
}

func (s *BetService) History(ctx context.Context, userID string) ([]models.BetWithMatch, error) {
	out, err := s.bets.HistoryByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Storage("bet history", err)
	}
	return out, nil
}

// tagStorage wraps untagged errors as storage failures and leaves
// already-classified ones alone.
func tagStorage(msg string, err error) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return err
	}
	return apperr.Storage(msg, err)
}
