package handlers

import (
	"context"
	"net/http"
	"time"

	"campusRankAPI/internal/types/question"
	"campusRankAPI/internal/types/user"
	"campusRankAPI/middleware"
	"campusRankAPI/services"

	"github.com/gorilla/mux"
)

type QuestionHandler struct {
	questionService *services.QuestionService
}

func NewQuestionHandler(questionService *services.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := r.URL.Query()
	filter := question.Filter{
		Difficulty: q.Get("difficulty"),
		Tag:        q.Get("tag"),
		TopicID:    q.Get("topic"),
		Search:     q.Get("search"),
	}
	if filter.Difficulty != "" && !question.Difficulty(filter.Difficulty).Valid() {
		respondWithError(w, http.StatusBadRequest, "difficulty must be one of easy, medium, hard")
		return
	}

	questions, err := h.questionService.List(ctx, filter)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, questions)
}

// Get hides test cases marked hidden unless an admin is asking.
func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	role, _ := middleware.GetRole(ctx)
	q, err := h.questionService.GetBySlug(ctx, mux.Vars(r)["slug"], role == string(user.RoleAdmin))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, q)
}

func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req question.UpsertQuestionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	q, err := h.questionService.Create(ctx, &req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, q)
}

func (h *QuestionHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req question.UpsertQuestionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	q, err := h.questionService.Update(ctx, mux.Vars(r)["id"], &req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, q)
}

func (h *QuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.questionService.Delete(ctx, mux.Vars(r)["id"]); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
