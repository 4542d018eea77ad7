package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"campusRankAPI/internal/apperror"
	"campusRankAPI/internal/auth"
	"campusRankAPI/middleware"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedError struct {
	route, method, detail string
	userID                *string
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []recordedError
}

func (f *fakeRecorder) RecordAsync(route, method, message, detail string, userID *string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, recordedError{route: route, method: method, detail: detail, userID: userID})
}

type fakeProvider struct {
	name string
}

func (p fakeProvider) Name() string { return p.name }

func (p fakeProvider) AuthURL(state string) string {
	return "https://idp.example.com/authorize?state=" + url.QueryEscape(state)
}

func (p fakeProvider) Exchange(context.Context, string) (*auth.Identity, error) {
	return nil, errors.New("exchange should not be reached")
}

func asUser(r *http.Request, id, role string) *http.Request {
	return r.WithContext(middleware.WithUser(r.Context(), id, role))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestRespondWithAppError_MapsKinds(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", apperror.NotFound("user", "x"), http.StatusNotFound, "not_found"},
		{"validation", apperror.ValidationFailed("week", "bad week"), http.StatusBadRequest, "validation_error"},
		{"forbidden", apperror.Forbidden("not yours"), http.StatusForbidden, "forbidden"},
		{"busy", apperror.Busy("refresh already running"), http.StatusConflict, "conflict"},
		{"wrapped", fmt.Errorf("outer: %w", apperror.Conflict("slug taken")), http.StatusConflict, "conflict"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			respondWithAppError(rr, httptest.NewRequest(http.MethodGet, "/x", nil), tt.err)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.code, decodeBody(t, rr)["code"])
		})
	}
}

func TestRespondWithAppError_FieldIsReported(t *testing.T) {
	rr := httptest.NewRecorder()
	respondWithAppError(rr, httptest.NewRequest(http.MethodGet, "/x", nil), apperror.ValidationFailed("week", "bad week"))

	assert.Equal(t, "week", decodeBody(t, rr)["field"])
}

func TestRespondWithAppError_InternalIsHiddenAndRecorded(t *testing.T) {
	rec := &fakeRecorder{}
	SetErrorRecorder(rec)
	defer SetErrorRecorder(nil)

	router := mux.NewRouter()
	router.HandleFunc("/api/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		respondWithAppError(w, r, errors.New("pq: connection refused"))
	})

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/things/42", nil), "user-1", "user")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Internal server error", decodeBody(t, rr)["error"])
	assert.NotContains(t, rr.Body.String(), "connection refused")

	require.Len(t, rec.entries, 1)
	assert.Equal(t, "/api/things/{id}", rec.entries[0].route)
	assert.Equal(t, "pq: connection refused", rec.entries[0].detail)
	require.NotNil(t, rec.entries[0].userID)
	assert.Equal(t, "user-1", *rec.entries[0].userID)
}

func TestRegister_ValidationIssues(t *testing.T) {
	h := NewAuthHandler(nil, nil, "http://app.test", false)

	body := `{"email":"not-an-email","username":"ab","name":"","password":"short"}`
	rr := httptest.NewRecorder()
	h.Register(rr, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	resp := decodeBody(t, rr)
	assert.Equal(t, "Validation failed", resp["error"])

	fields := map[string]bool{}
	for _, issue := range resp["issues"].([]any) {
		fields[issue.(map[string]any)["field"].(string)] = true
	}
	assert.True(t, fields["email"])
	assert.True(t, fields["username"])
	assert.True(t, fields["name"])
	assert.True(t, fields["password"])
}

func TestLogin_MalformedBody(t *testing.T) {
	h := NewAuthHandler(nil, nil, "http://app.test", false)

	rr := httptest.NewRecorder()
	h.Login(rr, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{")))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid request body", decodeBody(t, rr)["error"])
}

func TestLogout_ClearsSessionCookie(t *testing.T) {
	h := NewAuthHandler(nil, nil, "http://app.test", true)

	rr := httptest.NewRecorder()
	h.Logout(rr, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.SessionCookie, cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
	assert.True(t, cookies[0].Secure)
}

func TestSession_Anonymous(t *testing.T) {
	h := NewAuthHandler(nil, nil, "http://app.test", false)

	rr := httptest.NewRecorder()
	h.Session(rr, httptest.NewRequest(http.MethodGet, "/api/auth/session", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeBody(t, rr)
	assert.Contains(t, resp, "user")
	assert.Nil(t, resp["user"])
}

func oauthRouter(h *AuthHandler) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/api/auth/{provider}/login", h.OAuthLogin)
	router.HandleFunc("/api/auth/{provider}/callback", h.OAuthCallback)
	return router
}

func TestOAuthLogin_SetsStateAndRedirects(t *testing.T) {
	h := NewAuthHandler(nil, nil, "http://app.test", false)
	h.AddProvider(fakeProvider{name: "github"})

	rr := httptest.NewRecorder()
	oauthRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/auth/github/login", nil))

	require.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.StateCookie, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)

	loc, err := url.Parse(rr.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, cookies[0].Value, loc.Query().Get("state"))
}

func TestOAuthLogin_UnknownProvider(t *testing.T) {
	h := NewAuthHandler(nil, nil, "http://app.test", false)

	rr := httptest.NewRecorder()
	oauthRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/auth/myspace/login", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestOAuthCallback_StateMismatch(t *testing.T) {
	h := NewAuthHandler(nil, nil, "http://app.test", false)
	h.AddProvider(fakeProvider{name: "github"})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/github/callback?state=forged&code=abc", nil)
	req.AddCookie(&http.Cookie{Name: auth.StateCookie, Value: "expected"})
	rr := httptest.NewRecorder()
	oauthRouter(h).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "http://app.test/login?error=invalid_state", rr.Header().Get("Location"))
}

func TestOAuthCallback_MissingCode(t *testing.T) {
	h := NewAuthHandler(nil, nil, "http://app.test", false)
	h.AddProvider(fakeProvider{name: "github"})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/github/callback?state=s1", nil)
	req.AddCookie(&http.Cookie{Name: auth.StateCookie, Value: "s1"})
	rr := httptest.NewRecorder()
	oauthRouter(h).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "http://app.test/login?error=missing_code", rr.Header().Get("Location"))
}

func TestProtectedHandlers_RequireUser(t *testing.T) {
	userHandler := NewUserHandler(nil, nil, nil, "http://app.test")
	roadmapHandler := NewRoadmapHandler(nil)
	goalHandler := NewGoalHandler(nil)
	notificationHandler := NewNotificationHandler(nil)
	leaderboardHandler := NewLeaderboardHandler(nil)

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"profile", userHandler.GetProfile},
		{"fetch profile", userHandler.FetchProfile},
		{"roadmap", roadmapHandler.Get},
		{"goals", goalHandler.List},
		{"notifications", notificationHandler.GetNotifications},
		{"leaderboard me", leaderboardHandler.GetMyPosition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.handler(rr, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
}

func TestCheckUsername_RequiresQuery(t *testing.T) {
	h := NewUserHandler(nil, nil, nil, "http://app.test")

	rr := httptest.NewRecorder()
	h.CheckUsername(rr, httptest.NewRequest(http.MethodGet, "/api/users/check-username?username=%20", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUploadAvatar_RejectsNonMultipart(t *testing.T) {
	h := NewUserHandler(nil, nil, nil, "http://app.test")

	req := httptest.NewRequest(http.MethodPost, "/api/user/avatar", strings.NewReader(`{"avatar":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.UploadAvatar(rr, asUser(req, "user-1", "user"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRoadmapUpdateTopic_NothingToUpdate(t *testing.T) {
	h := NewRoadmapHandler(nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/roadmap/topics/t1", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	h.UpdateTopic(rr, asUser(req, "user-1", "user"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Nothing to update", decodeBody(t, rr)["error"])
}

func TestGoalsList_BadWeek(t *testing.T) {
	h := NewGoalHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/goals?week=next-tuesday", nil)
	rr := httptest.NewRecorder()
	h.List(rr, asUser(req, "user-1", "user"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "week", decodeBody(t, rr)["field"])
}

func TestQuestionsList_BadDifficulty(t *testing.T) {
	h := NewQuestionHandler(nil)

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/questions?difficulty=insane", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReportsList_BadStatus(t *testing.T) {
	h := NewReportHandler(nil)

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/admin/reports?status=lost", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBroadcast_Validation(t *testing.T) {
	h := NewNotificationHandler(nil)

	rr := httptest.NewRecorder()
	h.Broadcast(rr, httptest.NewRequest(http.MethodPost, "/api/admin/notifications/broadcast",
		bytes.NewBufferString(`{"title":"","body":"hi","url":"not a url"}`)))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Len(t, decodeBody(t, rr)["issues"], 2)
}

func TestClerkWebhook_NotConfigured(t *testing.T) {
	h := NewWebhookHandler(nil, "")

	rr := httptest.NewRecorder()
	h.HandleClerkWebhook(rr, httptest.NewRequest(http.MethodPost, "/api/webhooks/clerk", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestClerkWebhook_BadSignature(t *testing.T) {
	h := NewWebhookHandler(nil, "whsec_dGVzdHNlY3JldA==")

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/clerk", strings.NewReader(`{"type":"user.deleted"}`))
	req.Header.Set("svix-id", "msg_1")
	req.Header.Set("svix-timestamp", "1700000000")
	req.Header.Set("svix-signature", "v1,Zm9yZ2Vk")
	rr := httptest.NewRecorder()
	h.HandleClerkWebhook(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLiveHandler_CheckOrigin(t *testing.T) {
	h := NewLiveHandler(nil, []string{"https://campusrank.dev"})

	allowed := httptest.NewRequest(http.MethodGet, "/api/ws/leaderboard", nil)
	allowed.Header.Set("Origin", "https://campusrank.dev")
	assert.True(t, h.upgrader.CheckOrigin(allowed))

	denied := httptest.NewRequest(http.MethodGet, "/api/ws/leaderboard", nil)
	denied.Header.Set("Origin", "https://evil.example")
	assert.False(t, h.upgrader.CheckOrigin(denied))

	noOrigin := httptest.NewRequest(http.MethodGet, "/api/ws/leaderboard", nil)
	assert.True(t, h.upgrader.CheckOrigin(noOrigin))
}

func TestLiveHandler_PlainRequestIsRejected(t *testing.T) {
	h := NewLiveHandler(nil, []string{"*"})

	rr := httptest.NewRecorder()
	h.Leaderboard(rr, httptest.NewRequest(http.MethodGet, "/api/ws/leaderboard", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
