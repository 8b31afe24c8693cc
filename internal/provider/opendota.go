// Package provider wraps the OpenDota REST API, the external source of
// match data. Absence of a result is a valid response, not an error.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/akudrin/dotabet-backend/internal/models"
)

// Candidate is one row of the provider's pro-match feed. Team names may
// be empty; the ingestor synthesizes labels from the team ids.
type Candidate struct {
	ID            int64
	Radiant       string
	Dire          string
	RadiantTeamID int64
	DireTeamID    int64
	StartTime     time.Time
}

// Result of a completed match. Finished=false means the provider has no
// outcome yet and the match should be retried later.
type Result struct {
	Finished bool
	Winner   string // models.SideTeam1 or models.SideTeam2 when finished
}

type LiveMatch struct {
	ID         int64  `json:"id"`
	Team1      string `json:"team1"`
	Team2      string `json:"team2"`
	League     string `json:"league"`
	Spectators int    `json:"spectators"`
}

type Client interface {
	ProMatches(ctx context.Context) ([]Candidate, error)
	MatchResult(ctx context.Context, matchID int64) (Result, error)
	LiveMatches(ctx context.Context) ([]LiveMatch, error)
}

type OpenDota struct {
	base string
	http *http.Client
}

func NewOpenDota(baseURL string, timeout time.Duration) *OpenDota {
	return &OpenDota{
		base: baseURL,
		http: &http.Client{Timeout: timeout},
	}
}

func (c *OpenDota) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

type proMatch struct {
	MatchID       int64  `json:"match_id"`
	StartTime     int64  `json:"start_time"`
	RadiantName   string `json:"radiant_name"`
	DireName      string `json:"dire_name"`
	RadiantTeamID int64  `json:"radiant_team_id"`
	DireTeamID    int64  `json:"dire_team_id"`
}

func (c *OpenDota) ProMatches(ctx context.Context) ([]Candidate, error) {
	var raw []proMatch
	if err := c.getJSON(ctx, "/api/proMatches", &raw); err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(raw))
	for _, m := range raw {
		out = append(out, Candidate{
			ID:            m.MatchID,
			Radiant:       m.RadiantName,
			Dire:          m.DireName,
			RadiantTeamID: m.RadiantTeamID,
			DireTeamID:    m.DireTeamID,
			StartTime:     time.Unix(m.StartTime, 0).UTC(),
		})
	}
	return out, nil
}

type matchDetails struct {
	Duration   int64 `json:"duration"`
	RadiantWin bool  `json:"radiant_win"`
}

func (c *OpenDota) MatchResult(ctx context.Context, matchID int64) (Result, error) {
	var d matchDetails
	if err := c.getJSON(ctx, fmt.Sprintf("/api/matches/%d", matchID), &d); err != nil {
		return Result{}, err
	}
	// No duration yet means the match has not been recorded as complete.
	if d.Duration == 0 {
		return Result{}, nil
	}
	winner := models.SideTeam2
	if d.RadiantWin {
		winner = models.SideTeam1
	}
	return Result{Finished: true, Winner: winner}, nil
}

type liveMatch struct {
	MatchID         int64  `json:"match_id"`
	TeamNameRadiant string `json:"team_name_radiant"`
	TeamNameDire    string `json:"team_name_dire"`
	LeagueName      string `json:"league_name"`
	Spectators      int    `json:"spectators"`
}

func (c *OpenDota) LiveMatches(ctx context.Context) ([]LiveMatch, error) {
	var raw []liveMatch
	if err := c.getJSON(ctx, "/api/live", &raw); err != nil {
		return nil, err
	}
	out := make([]LiveMatch, 0, len(raw))
	for _, m := range raw {
		if m.TeamNameRadiant == "" || m.TeamNameDire == "" {
			continue
		}
		out = append(out, LiveMatch{
			ID:         m.MatchID,
			Team1:      m.TeamNameRadiant,
			Team2:      m.TeamNameDire,
			League:     m.LeagueName,
			Spectators: m.Spectators,
		})
	}
	return out, nil
}
