package handlers

import (
	"context"
	"net/http"
	"time"

	"campusRankAPI/internal/types/report"
	"campusRankAPI/services"
)

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req report.CreateReportRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	rep, err := h.reportService.Create(ctx, userID, &req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, rep)
}

func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := r.URL.Query().Get("status")
	switch report.Status(status) {
	case "", report.StatusOpen, report.StatusInReview, report.StatusResolved, report.StatusDismissed:
	default:
		respondWithError(w, http.StatusBadRequest, "Unknown report status")
		return
	}

	reports, err := h.reportService.List(ctx, status)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, reports)
}

func (h *ReportHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req report.UpdateStatusRequest
	adminUpdate(w, r, &req, func(ctx context.Context, id string) (any, error) {
		return h.reportService.UpdateStatus(ctx, id, req.Status)
	})
}

func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	adminDelete(w, r, h.reportService.Delete)
}
