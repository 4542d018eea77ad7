package handlers

import (
	"context"
	"net/http"
	"time"

	"campusRankAPI/internal/types/roadmap"
	"campusRankAPI/services"

	"github.com/gorilla/mux"
)

type RoadmapHandler struct {
	roadmapService *services.RoadmapService
}

func NewRoadmapHandler(roadmapService *services.RoadmapService) *RoadmapHandler {
	return &RoadmapHandler{roadmapService: roadmapService}
}

// Create clones the predefined curriculum. Calling it again returns the
// existing roadmap with 200 instead of 201.
func (h *RoadmapHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	rm, created, err := h.roadmapService.Create(ctx, userID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondWithJSON(w, status, rm)
}

func (h *RoadmapHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	rm, err := h.roadmapService.Get(ctx, userID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, rm)
}

func (h *RoadmapHandler) UpdateTopic(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req roadmap.UpdateTopicRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.Completed == nil && req.Notes == nil {
		respondWithError(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	topic, err := h.roadmapService.UpdateTopic(ctx, userID, mux.Vars(r)["id"], &req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, topic)
}

func (h *RoadmapHandler) Sync(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	res, err := h.roadmapService.Sync(ctx, userID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (h *RoadmapHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.roadmapService.Delete(ctx, userID); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
