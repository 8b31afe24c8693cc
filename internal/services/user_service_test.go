package services

import (
	"context"
	"testing"

	"github.com/akudrin/dotabet-backend/internal/apperr"
)

func (e *env) userSvc() *UserService {
	return NewUserService(e.users, nil, e.cfg)
}

func TestLoginCreatesWithStartingBalance(t *testing.T) {
	e := newEnv()
	svc := e.userSvc()

	u, err := svc.Login(context.Background(), "alice")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u.Balance != e.cfg.StartingBalance {
		t.Fatalf("balance = %d, want %d", u.Balance, e.cfg.StartingBalance)
	}

	// Second login is a lookup, not a second account.
	again, err := svc.Login(context.Background(), "alice")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if again.ID != u.ID {
		t.Fatalf("second login returned a different user: %s vs %s", again.ID, u.ID)
	}
	if len(e.users.users) != 1 {
		t.Fatalf("user count = %d, want 1", len(e.users.users))
	}
}

func TestLoginRejectsShortUsername(t *testing.T) {
	e := newEnv()
	_, err := e.userSvc().Login(context.Background(), "  ab  ")
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("kind = %q, want validation (%v)", apperr.KindOf(err), err)
	}
}

func TestAddFunds(t *testing.T) {
	e := newEnv()
	u := e.users.add("bob", 100)
	svc := e.userSvc()

	balance, err := svc.AddFunds(context.Background(), u.ID, 400)
	if err != nil {
		t.Fatalf("add funds: %v", err)
	}
	if balance != 500 {
		t.Fatalf("balance = %d, want 500", balance)
	}

	if _, err := svc.AddFunds(context.Background(), u.ID, 0); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("zero amount: kind = %q, want validation", apperr.KindOf(err))
	}
	if _, err := svc.AddFunds(context.Background(), "nobody", 50); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("unknown user: kind = %q, want not_found", apperr.KindOf(err))
	}
}

func TestLeaderboardNormalizesOrdering(t *testing.T) {
	e := newEnv()
	e.users.add("carol", 900)
	e.users.add("dave", 1100)
	svc := e.userSvc()

	for _, by := range []string{"points", "balance", "bogus", ""} {
		out, err := svc.Leaderboard(context.Background(), by)
		if err != nil {
			t.Fatalf("leaderboard by=%q: %v", by, err)
		}
		if len(out) != 2 {
			t.Fatalf("leaderboard by=%q returned %d entries, want 2", by, len(out))
		}
	}
}
