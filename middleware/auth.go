package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"campusRankAPI/internal/auth"
	"campusRankAPI/internal/types/user"

	"go.uber.org/zap"
)

type contextKey string

const (
	UserIDKey contextKey = "userID"
	RoleKey   contextKey = "role"
)

var errNoToken = errors.New("no session token")

type clerkVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// userLookup is how a verified token becomes a live user. Role always comes
// from the stored row, never from the token.
type userLookup interface {
	GetUserByID(ctx context.Context, id string) (*user.User, error)
	GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error)
}

// Authenticator resolves the caller from a local session token, falling back
// to a hosted-identity token when one is configured.
type Authenticator struct {
	tokens *auth.TokenService
	clerk  clerkVerifier
	users  userLookup
	logger *zap.Logger
}

func NewAuthenticator(tokens *auth.TokenService, users userLookup) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, logger: zap.L().Named("auth")}
}

func (a *Authenticator) SetClerk(v clerkVerifier) {
	a.clerk = v
}

// RequireAuth rejects requests without a valid session with 401.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := a.resolve(r)
		if err != nil {
			if errors.Is(err, errNoToken) {
				respondWithError(w, http.StatusUnauthorized, "Authentication required")
			} else {
				respondWithError(w, http.StatusUnauthorized, "Invalid or expired session")
			}
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID, role)))
	})
}

// OptionalAuth attaches the caller when a valid session is present and lets everyone through.
func (a *Authenticator) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID, role, err := a.resolve(r); err == nil {
			r = r.WithContext(WithUser(r.Context(), userID, role))
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) resolve(r *http.Request) (string, string, error) {
	token := bearerToken(r)
	if token == "" {
		if c, err := r.Cookie(auth.SessionCookie); err == nil {
			token = c.Value
		}
	}
	if token == "" {
		return "", "", errNoToken
	}

	claims, err := a.tokens.Validate(token)
	if err == nil {
		u, err := a.users.GetUserByID(r.Context(), claims.Subject)
		if err != nil {
			a.logger.Debug("session user not found", zap.String("user_id", claims.Subject), zap.Error(err))
			return "", "", err
		}
		return u.ID, string(u.Role), nil
	}
	if a.clerk == nil {
		return "", "", err
	}

	clerkID, clerkErr := a.clerk.Verify(r.Context(), token)
	if clerkErr != nil {
		a.logger.Debug("token rejected", zap.NamedError("local", err), zap.NamedError("clerk", clerkErr))
		return "", "", clerkErr
	}
	u, err := a.users.GetUserByClerkID(r.Context(), clerkID)
	if err != nil {
		return "", "", err
	}
	return u.ID, string(u.Role), nil
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserID(r.Context()); !ok {
			respondWithError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if role, _ := GetRole(r.Context()); role != string(user.RoleAdmin) {
			respondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func WithUser(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, RoleKey, role)
}

// GetUserID extracts internal user ID from context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}

func GetRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
