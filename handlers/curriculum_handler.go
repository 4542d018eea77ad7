package handlers

import (
	"context"
	"net/http"
	"time"

	"campusRankAPI/internal/types/curriculum"
	"campusRankAPI/services"

	"github.com/gorilla/mux"
)

type CurriculumHandler struct {
	curriculumService *services.CurriculumService
}

func NewCurriculumHandler(curriculumService *services.CurriculumService) *CurriculumHandler {
	return &CurriculumHandler{curriculumService: curriculumService}
}

func (h *CurriculumHandler) Tree(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sections, err := h.curriculumService.Tree(ctx)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sections)
}

func (h *CurriculumHandler) CreateSection(w http.ResponseWriter, r *http.Request) {
	var req curriculum.SectionRequest
	adminCreate(w, r, &req, func(ctx context.Context) (any, error) {
		return h.curriculumService.CreateSection(ctx, &req)
	})
}

func (h *CurriculumHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	var req curriculum.SectionRequest
	adminUpdate(w, r, &req, func(ctx context.Context, id string) (any, error) {
		return h.curriculumService.UpdateSection(ctx, id, &req)
	})
}

func (h *CurriculumHandler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	adminDelete(w, r, h.curriculumService.DeleteSection)
}

func (h *CurriculumHandler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	var req curriculum.TopicRequest
	adminCreate(w, r, &req, func(ctx context.Context) (any, error) {
		return h.curriculumService.CreateTopic(ctx, &req)
	})
}

func (h *CurriculumHandler) UpdateTopic(w http.ResponseWriter, r *http.Request) {
	var req curriculum.TopicRequest
	adminUpdate(w, r, &req, func(ctx context.Context, id string) (any, error) {
		return h.curriculumService.UpdateTopic(ctx, id, &req)
	})
}

func (h *CurriculumHandler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	adminDelete(w, r, h.curriculumService.DeleteTopic)
}

func (h *CurriculumHandler) CreateResource(w http.ResponseWriter, r *http.Request) {
	var req curriculum.ResourceRequest
	adminCreate(w, r, &req, func(ctx context.Context) (any, error) {
		return h.curriculumService.CreateResource(ctx, &req)
	})
}

func (h *CurriculumHandler) UpdateResource(w http.ResponseWriter, r *http.Request) {
	var req curriculum.ResourceRequest
	adminUpdate(w, r, &req, func(ctx context.Context, id string) (any, error) {
		return h.curriculumService.UpdateResource(ctx, id, &req)
	})
}

func (h *CurriculumHandler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	adminDelete(w, r, h.curriculumService.DeleteResource)
}

// adminCreate, adminUpdate and adminDelete cover the admin CRUD shape shared by the
// curriculum tables: decode, validate, call, respond.
func adminCreate(w http.ResponseWriter, r *http.Request, req any, fn func(ctx context.Context) (any, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if !decodeAndValidate(w, r, req) {
		return
	}
	res, err := fn(ctx)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, res)
}

func adminUpdate(w http.ResponseWriter, r *http.Request, req any, fn func(ctx context.Context, id string) (any, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if !decodeAndValidate(w, r, req) {
		return
	}
	res, err := fn(ctx, mux.Vars(r)["id"])
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func adminDelete(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id string) error) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := fn(ctx, mux.Vars(r)["id"]); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
