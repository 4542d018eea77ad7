package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"campusRankAPI/internal/auth"
	"campusRankAPI/internal/database"
	"campusRankAPI/internal/types/user"
	"campusRankAPI/middleware"
	"campusRankAPI/services"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookKey = "test-webhook-signing-key"

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	require.NoError(t, database.Migrate(dbURL))

	pool, err := pgxpool.New(context.Background(), dbURL)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, err := pool.Exec(context.Background(), "DELETE FROM users WHERE email LIKE 'test%@example.com'")
		if err != nil {
			t.Logf("warning: failed to clean up test users: %v", err)
		}
		pool.Close()
	})
	return pool
}

func clerkPayload(eventType, clerkID, email, firstName string) []byte {
	if eventType == "user.deleted" {
		return fmt.Appendf(nil, `{"type":%q,"object":"event","data":{"id":%q,"deleted":true}}`, eventType, clerkID)
	}
	return fmt.Appendf(nil, `{
		"type": %q,
		"object": "event",
		"data": {
			"id": %q,
			"first_name": %q,
			"last_name": "User",
			"username": "",
			"image_url": "https://example.com/image.jpg",
			"primary_email_address_id": "email_1",
			"email_addresses": [{"id": "email_1", "email_address": %q}]
		}
	}`, eventType, clerkID, firstName, email)
}

func signedWebhook(body []byte) *http.Request {
	id := "msg_" + uuid.NewString()
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/clerk", bytes.NewReader(body))
	req.Header.Set("svix-id", id)
	req.Header.Set("svix-timestamp", ts)
	req.Header.Set("svix-signature", "v1,"+auth.SignWebhook([]byte(testWebhookKey), id, ts, body))
	return req
}

func TestClerkWebhook_UserLifecycle(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	userService := services.NewUserService(pool)
	secret := "whsec_" + base64.StdEncoding.EncodeToString([]byte(testWebhookKey))
	h := NewWebhookHandler(userService, secret)

	clerkID := "user_test_" + uuid.NewString()[:8]
	email := "test.clerk." + clerkID[10:] + "@example.com"

	rr := httptest.NewRecorder()
	h.HandleClerkWebhook(rr, signedWebhook(clerkPayload("user.created", clerkID, email, "Test")))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	u, err := userService.GetUserByClerkID(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, email, u.Email)
	assert.Equal(t, "Test User", u.Name)

	rr = httptest.NewRecorder()
	h.HandleClerkWebhook(rr, signedWebhook(clerkPayload("user.updated", clerkID, email, "Updated")))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	u, err = userService.GetUserByClerkID(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, "Updated User", u.Name)

	rr = httptest.NewRecorder()
	h.HandleClerkWebhook(rr, signedWebhook(clerkPayload("user.deleted", clerkID, "", "")))
	require.Equal(t, http.StatusOK, rr.Code)

	_, err = userService.GetUserByClerkID(ctx, clerkID)
	assert.Error(t, err)
}

func TestRegisterLoginProfileFlow(t *testing.T) {
	pool := setupTestDB(t)

	tokens, err := auth.NewTokenService("test-secret-key-for-testing-only")
	require.NoError(t, err)
	userService := services.NewUserService(pool)
	authService := services.NewAuthService(userService, tokens, auth.NewPasswordServiceWithCost(4))
	authenticator := middleware.NewAuthenticator(tokens, userService)

	authHandler := NewAuthHandler(authService, userService, "http://app.test", false)
	userHandler := NewUserHandler(userService, nil, nil, "http://app.test")

	r := mux.NewRouter()
	r.HandleFunc("/api/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(authenticator.RequireAuth)
	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/profile", userHandler.UpdateProfile).Methods("PUT")

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	email := "test.flow" + suffix + "@example.com"
	register := fmt.Sprintf(`{"email":%q,"username":"flow%s","name":"Flow Tester","password":"correct-horse"}`, email, suffix)

	// Step 1: register
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(register)))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	// Step 2: the same email again is a conflict
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(register)))
	assert.Equal(t, http.StatusConflict, rr.Code)

	// Step 3: wrong password
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(fmt.Sprintf(`{"email":%q,"password":"wrong-horse"}`, email))))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Step 4: login
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(fmt.Sprintf(`{"email":%q,"password":"correct-horse"}`, email))))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var session user.SessionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &session))
	require.NotEmpty(t, session.Token)

	// Step 5: link a LeetCode handle with the bearer token
	req := httptest.NewRequest(http.MethodPut, "/api/user/profile", strings.NewReader(`{"leetcodeUsername":"  flowcoder "}`))
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	// Step 6: profile reflects it
	req = httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var me user.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &me))
	assert.Equal(t, email, me.Email)
	require.NotNil(t, me.LeetCodeUsername)
	assert.Equal(t, "flowcoder", *me.LeetCodeUsername)
}
