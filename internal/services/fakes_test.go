package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/akudrin/dotabet-backend/internal/config"
	"github.com/akudrin/dotabet-backend/internal/models"
	"github.com/akudrin/dotabet-backend/internal/provider"
)

// In-memory fakes implementing the repository interfaces. WithTx takes
// one big lock for the whole transaction body, mirroring the row-lock
// serialization the postgres implementations get from FOR UPDATE.

type fakeUsers struct {
	mu    sync.Mutex
	seq   int
	users map[string]*models.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{users: map[string]*models.User{}} }

func (f *fakeUsers) add(username string, balance int64) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	u := &models.User{
		ID:        fmt.Sprintf("user-%d", f.seq),
		Username:  username,
		Balance:   balance,
		CreatedAt: time.Now(),
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeUsers) Create(_ context.Context, username string, startingBalance int64) (models.User, error) {
	return *f.add(username, startingBalance), nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return *u, nil
	}
	return models.User{}, pgx.ErrNoRows
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return *u, nil
		}
	}
	return models.User{}, pgx.ErrNoRows
}

func (f *fakeUsers) AddBalance(_ context.Context, id string, delta int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	u.Balance += delta
	return u.Balance, nil
}

func (f *fakeUsers) Leaderboard(_ context.Context, _ string, limit int) ([]models.LeaderboardEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.LeaderboardEntry
	for _, u := range f.users {
		out = append(out, models.LeaderboardEntry{Username: u.Username, Balance: u.Balance, Points: u.Points})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeUsers) GetForUpdate(ctx context.Context, _ pgx.Tx, id string) (models.User, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeUsers) Debit(_ context.Context, _ pgx.Tx, id string, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.Balance -= amount
	return nil
}

func (f *fakeUsers) CreditWin(_ context.Context, _ pgx.Tx, id string, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.Balance += amount
	u.Points++
	return nil
}

type fakeMatches struct {
	mu      sync.Mutex
	matches map[int64]*models.Match
	bets    *fakeBets
}

func newFakeMatches() *fakeMatches { return &fakeMatches{matches: map[int64]*models.Match{}} }

func (f *fakeMatches) put(m models.Match) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := m
	f.matches[m.ID] = &cp
}

func (f *fakeMatches) get(id int64) models.Match {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.matches[id]
}

// Upsert honors the Matches contract: status never moves backward.
func (f *fakeMatches) Upsert(_ context.Context, m models.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cur, ok := f.matches[m.ID]; ok {
		if cur.Status.Rank() > m.Status.Rank() {
			m.Status = cur.Status
		}
		m.Winner = cur.Winner
	}
	cp := m
	f.matches[m.ID] = &cp
	return nil
}

func (f *fakeMatches) GetByID(_ context.Context, id int64) (models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.matches[id]; ok {
		return *m, nil
	}
	return models.Match{}, pgx.ErrNoRows
}

func (f *fakeMatches) ListOpen(_ context.Context, limit int) ([]models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Match
	for _, m := range f.matches {
		if m.Status != models.MatchFinished {
			out = append(out, *m)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeMatches) ListDue(_ context.Context, before time.Time) ([]models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Match
	for _, m := range f.matches {
		if m.Status != models.MatchFinished && m.StartTime.Before(before) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMatches) ListUnsettled(_ context.Context) ([]models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Match
	for _, m := range f.matches {
		if m.Status == models.MatchFinished && f.bets != nil && f.bets.hasPending(m.ID) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMatches) MarkFinished(_ context.Context, id int64, winner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if m.Status == models.MatchFinished {
		return nil
	}
	m.Status = models.MatchFinished
	w := winner
	m.Winner = &w
	return nil
}

func (f *fakeMatches) GetForUpdate(ctx context.Context, _ pgx.Tx, id int64) (models.Match, error) {
	return f.GetByID(ctx, id)
}

type fakeBets struct {
	txMu    sync.Mutex // serializes whole transactions
	mu      sync.Mutex
	seq     int
	bets    map[string]*models.Bet
	matches *fakeMatches
}

func newFakeBets() *fakeBets { return &fakeBets{bets: map[string]*models.Bet{}} }

func (f *fakeBets) WithTx(_ context.Context, fn func(pgx.Tx) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()
	return fn(nil)
}

func (f *fakeBets) Insert(_ context.Context, _ pgx.Tx, b models.Bet) (models.Bet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	if b.ID == "" {
		b.ID = fmt.Sprintf("bet-%d", f.seq)
	}
	b.CreatedAt = time.Now().Add(time.Duration(f.seq) * time.Millisecond)
	cp := b
	f.bets[b.ID] = &cp
	return b, nil
}

func (f *fakeBets) ListPendingForUpdate(_ context.Context, _ pgx.Tx, matchID int64) ([]models.Bet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Bet
	for _, b := range f.bets {
		if b.MatchID == matchID && b.Status == models.BetPending {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBets) SettlePending(_ context.Context, _ pgx.Tx, betID string, status models.BetStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bets[betID]
	if !ok || b.Status != models.BetPending {
		return false, nil
	}
	b.Status = status
	return true, nil
}

func (f *fakeBets) HistoryByUser(_ context.Context, userID string) ([]models.BetWithMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.BetWithMatch
	for _, b := range f.bets {
		if b.UserID != userID {
			continue
		}
		h := models.BetWithMatch{Bet: *b}
		if f.matches != nil {
			if m, ok := f.matches.matches[b.MatchID]; ok {
				h.Team1, h.Team2, h.MatchStatus = m.Team1, m.Team2, m.Status
			}
		}
		out = append(out, h)
	}
	return out, nil
}

func (f *fakeBets) hasPending(matchID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bets {
		if b.MatchID == matchID && b.Status == models.BetPending {
			return true
		}
	}
	return false
}

type fakeProvider struct {
	mu         sync.Mutex
	candidates []provider.Candidate
	proErr     error
	results    map[int64]provider.Result
	resultErr  map[int64]error
	lookups    []int64
	live       []provider.LiveMatch
	liveErr    error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{results: map[int64]provider.Result{}, resultErr: map[int64]error{}}
}

func (f *fakeProvider) ProMatches(context.Context) ([]provider.Candidate, error) {
	if f.proErr != nil {
		return nil, f.proErr
	}
	return f.candidates, nil
}

func (f *fakeProvider) MatchResult(_ context.Context, matchID int64) (provider.Result, error) {
	f.mu.Lock()
	f.lookups = append(f.lookups, matchID)
	f.mu.Unlock()
	if err := f.resultErr[matchID]; err != nil {
		return provider.Result{}, err
	}
	return f.results[matchID], nil
}

func (f *fakeProvider) LiveMatches(context.Context) ([]provider.LiveMatch, error) {
	if f.liveErr != nil {
		return nil, f.liveErr
	}
	return f.live, nil
}

// --- shared test environment ---

type env struct {
	users    *fakeUsers
	matches  *fakeMatches
	bets     *fakeBets
	provider *fakeProvider
	cfg      config.Config
}

func newEnv() *env {
	e := &env{
		users:    newFakeUsers(),
		matches:  newFakeMatches(),
		bets:     newFakeBets(),
		provider: newFakeProvider(),
		cfg:      testConfig(),
	}
	e.matches.bets = e.bets
	e.bets.matches = e.matches
	return e
}

func testConfig() config.Config {
	return config.Config{
		SyncBatchSize:        10,
		MaturityThreshold:    time.Hour,
		LiveWindow:           time.Hour,
		UpcomingHorizon:      24 * time.Hour,
		FallbackOnEmptyBatch: true,
		SkipMatchIDPrefix:    "999999",
		PayoutMultiplier:     2,
		StartingBalance:      1000,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (e *env) ingest() *IngestService {
	return NewIngestService(e.matches, e.provider, e.cfg, testLogger())
}

func (e *env) settlement() *SettlementService {
	return NewSettlementService(e.matches, e.users, e.bets, e.provider, nil, e.cfg, testLogger())
}

func (e *env) betSvc() *BetService {
	return NewBetService(e.users, e.matches, e.bets, nil, e.cfg, testLogger())
}
