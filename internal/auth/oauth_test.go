package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func fakeOAuthServer(t *testing.T, routes map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok","token_type":"bearer"}`))
	})
	for path, body := range routes {
		body := body
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(body)
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGitHubExchange_FallsBackToEmailsEndpoint(t *testing.T) {
	srv := fakeOAuthServer(t, map[string]any{
		"/user": map[string]any{"id": 42, "login": "octocat", "avatar_url": "https://avatars/42"},
		"/user/emails": []map[string]any{
			{"email": "old@example.com", "primary": false, "verified": true},
			{"email": "octo@example.com", "primary": true, "verified": true},
		},
	})

	p := NewGitHubProvider("id", "secret", "http://localhost/cb")
	p.config.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/authorize", TokenURL: srv.URL + "/token"}
	p.apiBase = srv.URL

	id, err := p.Exchange(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "42", id.ProviderID)
	assert.Equal(t, "octo@example.com", id.Email)
	assert.Equal(t, "octocat", id.Name)
	assert.Equal(t, ProviderGitHub, id.Provider)
}

func TestGoogleExchange(t *testing.T) {
	srv := fakeOAuthServer(t, map[string]any{
		"/userinfo": map[string]any{"id": "g-1", "email": "a@b.com", "name": "Ada", "picture": "https://pic"},
	})

	p := NewGoogleProvider("id", "secret", "http://localhost/cb")
	p.config.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/authorize", TokenURL: srv.URL + "/token"}
	p.userInfoURL = srv.URL + "/userinfo"

	id, err := p.Exchange(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "g-1", id.ProviderID)
	assert.Equal(t, "Ada", id.Name)
}

func TestAuthURL_CarriesState(t *testing.T) {
	p := NewGitHubProvider("client-1", "secret", "http://localhost/cb")
	url := p.AuthURL("xyz")
	assert.True(t, strings.Contains(url, "state=xyz"))
	assert.True(t, strings.Contains(url, "client_id=client-1"))
}
