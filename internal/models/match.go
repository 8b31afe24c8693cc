package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MatchStatus string

const (
	MatchNotStarted MatchStatus = "not_started"
	MatchUpcoming   MatchStatus = "upcoming"
	MatchLive       MatchStatus = "live"
	MatchFinished   MatchStatus = "finished"
)

// Rank orders statuses along the lifecycle. A match may only move forward.
func (s MatchStatus) Rank() int {
	switch s {
	case MatchNotStarted:
		return 0
	case MatchUpcoming:
		return 1
	case MatchLive:
		return 2
	case MatchFinished:
		return 3
	}
	return -1
}

// OpenForBetting reports whether bets may still be placed.
// Live matches are closed: the outcome is already in play.
func (s MatchStatus) OpenForBetting() bool {
	return s == MatchNotStarted || s == MatchUpcoming
}

// Winner side labels double as odds keys.
const (
	SideTeam1 = "team1"
	SideTeam2 = "team2"
)

type Match struct {
	ID        int64                      `json:"id"`
	Team1     string                     `json:"team1"`
	Team2     string                     `json:"team2"`
	StartTime time.Time                  `json:"start_time"`
	Status    MatchStatus                `json:"status"`
	Winner    *string                    `json:"winner,omitempty"`
	Odds      map[string]decimal.Decimal `json:"odds"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// OddsFor returns the current multiplier for a choice, false if the
// choice is not a side of this match.
func (m *Match) OddsFor(choice string) (decimal.Decimal, bool) {
	v, ok := m.Odds[choice]
	return v, ok
}
