package handlers

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"campusRankAPI/internal/auth"
	"campusRankAPI/internal/types/user"
	"campusRankAPI/middleware"
	"campusRankAPI/services"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService   *services.AuthService
	userService   *services.UserService
	providers     map[string]auth.OAuthProvider
	appURL        string
	secureCookies bool
	logger        *zap.Logger
}

func NewAuthHandler(authService *services.AuthService, userService *services.UserService, appURL string, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		userService:   userService,
		providers:     map[string]auth.OAuthProvider{},
		appURL:        appURL,
		secureCookies: secureCookies,
		logger:        zap.L().Named("auth_handler"),
	}
}

func (h *AuthHandler) AddProvider(p auth.OAuthProvider) {
	h.providers[p.Name()] = p
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req user.RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	session, err := h.authService.Register(ctx, &req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	h.setSessionCookie(w, session.Token, session.ExpiresAt)
	respondWithJSON(w, http.StatusCreated, session)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req user.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	session, err := h.authService.Login(ctx, &req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	h.setSessionCookie(w, session.Token, session.ExpiresAt)
	respondWithJSON(w, http.StatusOK, session)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Session returns the signed-in user, or {"user": null} for anonymous callers.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithJSON(w, http.StatusOK, map[string]any{"user": nil})
		return
	}

	u, err := h.userService.GetUserByID(ctx, userID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (h *AuthHandler) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.providers[mux.Vars(r)["provider"]]
	if !ok {
		respondWithError(w, http.StatusNotFound, "Unknown sign-in provider")
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     auth.StateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, provider.AuthURL(state), http.StatusTemporaryRedirect)
}

func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	provider, ok := h.providers[mux.Vars(r)["provider"]]
	if !ok {
		respondWithError(w, http.StatusNotFound, "Unknown sign-in provider")
		return
	}

	cookie, err := r.Cookie(auth.StateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		h.redirectWithError(w, r, "invalid_state")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: auth.StateCookie, Value: "", Path: "/", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		h.redirectWithError(w, r, "missing_code")
		return
	}

	session, err := h.authService.OAuthLogin(ctx, provider, code)
	if err != nil {
		h.logger.Warn("oauth login failed", zap.String("provider", provider.Name()), zap.Error(err))
		h.redirectWithError(w, r, "oauth_failed")
		return
	}

	h.setSessionCookie(w, session.Token, session.ExpiresAt)
	http.Redirect(w, r, h.appURL+"/dashboard", http.StatusFound)
}

func (h *AuthHandler) redirectWithError(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, h.appURL+"/login?error="+url.QueryEscape(reason), http.StatusFound)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
