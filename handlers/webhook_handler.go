package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"campusRankAPI/internal/apperror"
	"campusRankAPI/internal/auth"
	"campusRankAPI/internal/types/clerk"
	"campusRankAPI/services"

	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	userService *services.UserService
	secret      string
	logger      *zap.Logger
}

func NewWebhookHandler(userService *services.UserService, secret string) *WebhookHandler {
	return &WebhookHandler{
		userService: userService,
		secret:      secret,
		logger:      zap.L().Named("webhook"),
	}
}

// HandleClerkWebhook keeps local users in step with the hosted identity
// provider. The signature covers the raw body, so it is read before parsing.
func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if h.secret == "" {
		respondWithError(w, http.StatusServiceUnavailable, "Webhooks are not configured")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Error reading body")
		return
	}

	if err := auth.VerifyWebhook(h.secret, r.Header, body, time.Now()); err != nil {
		h.logger.Warn("rejected webhook", zap.Error(err))
		respondWithError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var event clerk.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		respondWithError(w, http.StatusBadRequest, "Error parsing webhook")
		return
	}

	switch event.Type {
	case "user.created", "user.updated":
		err = h.handleUserUpserted(ctx, event.Data)
	case "user.deleted":
		err = h.handleUserDeleted(ctx, event.Data)
	default:
		h.logger.Debug("unhandled webhook event", zap.String("type", event.Type))
	}
	if err != nil {
		h.logger.Error("webhook processing failed", zap.String("type", event.Type), zap.Error(err))
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *WebhookHandler) handleUserUpserted(ctx context.Context, data json.RawMessage) error {
	var userData clerk.UserData
	if err := json.Unmarshal(data, &userData); err != nil {
		return apperror.ValidationFailed("data", "malformed user payload")
	}

	email := userData.PrimaryEmail()
	if userData.ID == "" || email == "" {
		return apperror.ValidationFailed("data", "user payload needs an id and an email")
	}

	name := strings.TrimSpace(userData.FirstName + " " + userData.LastName)
	login := userData.Username
	if login == "" {
		login = strings.Split(email, "@")[0]
	}

	u, err := h.userService.SyncClerkUser(ctx, userData.ID, email, name, login, userData.ImageURL)
	if err != nil {
		return fmt.Errorf("failed to sync user: %w", err)
	}
	h.logger.Info("synced user", zap.String("user_id", u.ID), zap.String("clerk_id", userData.ID))
	return nil
}

func (h *WebhookHandler) handleUserDeleted(ctx context.Context, data json.RawMessage) error {
	var deleted clerk.DeletedData
	if err := json.Unmarshal(data, &deleted); err != nil || deleted.ID == "" {
		return apperror.ValidationFailed("data", "malformed delete payload")
	}

	return h.userService.DeleteUserByClerkID(ctx, deleted.ID)
}
