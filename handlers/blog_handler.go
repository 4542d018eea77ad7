package handlers

import (
	"context"
	"net/http"
	"time"

	"campusRankAPI/internal/types/blog"
	"campusRankAPI/services"

	"github.com/gorilla/mux"
)

type BlogHandler struct {
	blogService *services.BlogService
}

func NewBlogHandler(blogService *services.BlogService) *BlogHandler {
	return &BlogHandler{blogService: blogService}
}

func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *BlogHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *BlogHandler) list(w http.ResponseWriter, r *http.Request, includeDrafts bool) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.blogService.List(ctx, queryInt(r, "page", 1), queryInt(r, "pageSize", 10), includeDrafts)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	post, err := h.blogService.GetBySlug(ctx, mux.Vars(r)["slug"], false)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, post)
}

func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req blog.UpsertPostRequest
	adminCreate(w, r, &req, func(ctx context.Context) (any, error) {
		return h.blogService.Create(ctx, userID, &req)
	})
}

func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req blog.UpsertPostRequest
	adminUpdate(w, r, &req, func(ctx context.Context, id string) (any, error) {
		return h.blogService.Update(ctx, id, &req)
	})
}

func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	adminDelete(w, r, h.blogService.Delete)
}

func (h *BlogHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	file, ok := formImage(w, r, "cover")
	if !ok {
		return
	}
	defer file.Close()

	post, err := h.blogService.UploadCover(ctx, mux.Vars(r)["id"], file)
	if err != nil {
		respondWithUploadError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, post)
}
