// Package events holds the wire contracts published to the broker.
package events

type BetPlaced struct {
	BetID    string `json:"bet_id"`
	UserID   string `json:"user_id"`
	MatchID  int64  `json:"match_id"`
	Choice   string `json:"choice"`
	Amount   int64  `json:"amount"`
	Odds     string `json:"odds"`
	TsUnixMs int64  `json:"ts_unix_ms"`
}

type MatchSettled struct {
	MatchID     int64  `json:"match_id"`
	Winner      string `json:"winner"`
	BetsSettled int    `json:"bets_settled"`
	Wins        int    `json:"wins"`
	TsUnixMs    int64  `json:"ts_unix_ms"`
}
