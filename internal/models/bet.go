package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BetStatus string

const (
	BetPending BetStatus = "pending"
	BetWin     BetStatus = "win"
	BetLoss    BetStatus = "loss"
)

// Terminal reports whether the bet has been settled. Terminal bets are
// never touched again.
func (s BetStatus) Terminal() bool { return s == BetWin || s == BetLoss }

type Bet struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	MatchID   int64           `json:"match_id"`
	Choice    string          `json:"choice"`
	Amount    int64           `json:"amount"`
	Odds      decimal.Decimal `json:"odds"`
	Status    BetStatus       `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// BetWithMatch is a history row: the bet plus the teams it was placed on.
type BetWithMatch struct {
	Bet
	Team1       string      `json:"team1"`
	Team2       string      `json:"team2"`
	MatchStatus MatchStatus `json:"match_status"`
}
