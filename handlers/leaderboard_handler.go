package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"campusRankAPI/internal/types/leaderboard"
	"campusRankAPI/middleware"
	"campusRankAPI/services"
)

// cron and admin triggers scrape every linked user, so they get a long budget.
const refreshTimeout = 10 * time.Minute

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := leaderboard.Query{
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "pageSize", 20),
		Search:   strings.TrimSpace(r.URL.Query().Get("search")),
		Branch:   strings.TrimSpace(r.URL.Query().Get("branch")),
		Year:     queryInt(r, "year", 0),
	}

	lb, err := h.leaderboardService.GetLeaderboard(ctx, q)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	// signed-in callers also get their own row, wherever it is
	if userID, ok := middleware.GetUserID(ctx); ok {
		if pos, err := h.leaderboardService.GetUserPosition(ctx, userID); err == nil {
			lb.UserPosition = pos.UserPosition
		}
	}
	respondWithJSON(w, http.StatusOK, lb)
}

func (h *LeaderboardHandler) GetMyPosition(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	lb, err := h.leaderboardService.GetUserPosition(ctx, userID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, lb)
}

func (h *LeaderboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), refreshTimeout)
	defer cancel()

	res, err := h.leaderboardService.Refresh(ctx)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (h *LeaderboardHandler) UpdateHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), refreshTimeout)
	defer cancel()

	res, err := h.leaderboardService.RecordHistory(ctx)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (h *LeaderboardHandler) SendDigests(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), refreshTimeout)
	defer cancel()

	res, err := h.leaderboardService.SendDigests(ctx)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}
