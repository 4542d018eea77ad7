package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"campusRankAPI/internal/types/errorlog"
	"campusRankAPI/internal/types/user"
	"campusRankAPI/services"

	"github.com/gorilla/mux"
)

type AdminHandler struct {
	adminService    *services.AdminService
	errorLogService *services.ErrorLogService
}

func NewAdminHandler(adminService *services.AdminService, errorLogService *services.ErrorLogService) *AdminHandler {
	return &AdminHandler{
		adminService:    adminService,
		errorLogService: errorLogService,
	}
}

func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	stats, err := h.adminService.Stats(ctx)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	search := strings.TrimSpace(r.URL.Query().Get("search"))
	list, err := h.adminService.ListUsers(ctx, search, queryInt(r, "page", 1), queryInt(r, "pageSize", 20))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

func (h *AdminHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	actorID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req user.UpdateRoleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	u, err := h.adminService.UpdateRole(ctx, actorID, mux.Vars(r)["id"], req.Role)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, u)
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	actorID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.adminService.DeleteUser(ctx, actorID, mux.Vars(r)["id"]); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type errorLogPage struct {
	Entries  []*errorlog.Entry `json:"entries"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

func (h *AdminHandler) ListErrorLogs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	page := max(queryInt(r, "page", 1), 1)
	pageSize := queryInt(r, "pageSize", 50)
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	entries, total, err := h.errorLogService.List(ctx, page, pageSize)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, errorLogPage{Entries: entries, Total: total, Page: page, PageSize: pageSize})
}

func (h *AdminHandler) ClearErrorLogs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	deleted, err := h.errorLogService.Clear(ctx)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}
