package models

import (
	"errors"
	"strings"
	"time"
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Balance   int64     `json:"balance"`
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) Validate() error {
	if len(strings.TrimSpace(u.Username)) < 3 {
		return errors.New("username too short")
	}
	return nil
}

// LeaderboardEntry is one row of the top-N ranking.
type LeaderboardEntry struct {
	Username string `json:"username"`
	Balance  int64  `json:"balance"`
	Points   int    `json:"points"`
}
