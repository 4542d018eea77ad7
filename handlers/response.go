package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"campusRankAPI/internal/apperror"
	"campusRankAPI/middleware"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ErrorRecorder persists server errors. ErrorLogService implements it.
type ErrorRecorder interface {
	RecordAsync(route, method, message, detail string, userID *string)
}

var errorRecorder ErrorRecorder

// SetErrorRecorder makes every 500 a handler returns land in the error log.
func SetErrorRecorder(r ErrorRecorder) {
	errorRecorder = r
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithAppError maps err to a status. Anything that is not an AppError
// is a 500 with a generic message, and is logged and recorded.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := apperror.Status(err)
	if status == http.StatusInternalServerError {
		route := routeTemplate(r)
		zap.L().Named("http").Error("request failed",
			zap.String("route", route),
			zap.String("method", r.Method),
			zap.Error(err),
		)
		if errorRecorder != nil {
			var userID *string
			if id, ok := middleware.GetUserID(r.Context()); ok {
				userID = &id
			}
			errorRecorder.RecordAsync(route, r.Method, "internal error", err.Error(), userID)
		}
		respondWithError(w, status, "Internal server error")
		return
	}

	body := map[string]string{"error": err.Error(), "code": code}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Field != "" {
		body["field"] = appErr.Field
	}
	respondWithJSON(w, status, body)
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return v
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
	}
	return userID, ok
}
