package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/akudrin/dotabet-backend/internal/api/httpx"
	"github.com/akudrin/dotabet-backend/internal/api/validate"
	"github.com/akudrin/dotabet-backend/internal/config"
	"github.com/akudrin/dotabet-backend/internal/metrics"
	"github.com/akudrin/dotabet-backend/internal/middleware"
	"github.com/akudrin/dotabet-backend/internal/services"
)

func NewRouter(cfg config.Config, us *services.UserService, ms *services.MatchService, bs *services.BetService) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// ---------- auth ----------
		r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Username string `json:"username"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "validation", "bad request", nil)
				return
			}
			u, err := us.Login(r.Context(), req.Username)
			if err != nil {
				httpx.WriteAppError(w, err)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, u)
		})

		// ---------- users ----------
		r.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
			u, err := us.Get(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				httpx.WriteAppError(w, err)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, u)
		})

		r.Post("/users/add-funds", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				UserID string `json:"user_id"`
				Amount int64  `json:"amount"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "validation", "bad request", nil)
				return
			}
			balance, err := us.AddFunds(r.Context(), req.UserID, req.Amount)
			if err != nil {
				httpx.WriteAppError(w, err)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, map[string]int64{"balance": balance})
		})

		// ---------- matches ----------
		r.Get("/matches", func(w http.ResponseWriter, r *http.Request) {
			matches, err := ms.Open(r.Context())
			if err != nil {
				httpx.WriteAppError(w, err)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, matches)
		})

		r.Get("/matches/live", func(w http.ResponseWriter, r *http.Request) {
			live, err := ms.Live(r.Context())
			if err != nil {
				httpx.WriteAppError(w, err)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, live)
		})

		// ---------- bets ----------
		r.Post("/bets", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				UserID  string `json:"user_id"`
				MatchID int64  `json:"match_id"`
				Choice  string `json:"choice"`
				Amount  int64  `json:"amount"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "validation", "bad request", nil)
				return
			}

			var errs validate.Errs
			if e := validate.Required("user_id", req.UserID); e != nil {
				errs = append(errs, *e)
			}
			if e := validate.Required("choice", req.Choice); e != nil {
				errs = append(errs, *e)
			}
			if e := validate.MinInt("amount", req.Amount, 1); e != nil {
				errs = append(errs, *e)
			}
			if e := validate.MinInt("match_id", req.MatchID, 1); e != nil {
				errs = append(errs, *e)
			}
			if len(errs) > 0 {
				httpx.WriteError(w, http.StatusBadRequest, "validation", errs.Error(), errs)
				return
			}

			bet, err := bs.PlaceBet(r.Context(), req.UserID, req.MatchID, req.Choice, req.Amount)
			if err != nil {
				httpx.WriteAppError(w, err)
				return
			}
			httpx.WriteJSON(w, http.StatusCreated, bet)
		})

		r.Get("/bets", func(w http.ResponseWriter, r *http.Request) {
			uid := r.URL.Query().Get("user_id")
			if uid == "" {
				httpx.WriteError(w, http.StatusBadRequest, "validation", "user_id required", nil)
				return
			}
			history, err := bs.History(r.Context(), uid)
			if err != nil {
				httpx.WriteAppError(w, err)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, history)
		})

		// ---------- leaderboard ----------
		r.Get("/leaderboard", func(w http.ResponseWriter, r *http.Request) {
			board, err := us.Leaderboard(r.Context(), r.URL.Query().Get("by"))
			if err != nil {
				httpx.WriteAppError(w, err)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, board)
		})
	})

	return r
}
