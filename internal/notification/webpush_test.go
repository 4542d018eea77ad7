package notification

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"campusRankAPI/internal/types/notification"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSubscription mimics the keys a browser hands out on subscribe.
func testSubscription(t *testing.T, endpoint string) *notification.Subscription {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	secret := make([]byte, 16)
	_, err = rand.Read(secret)
	require.NoError(t, err)

	return &notification.Subscription{
		Endpoint: endpoint,
		P256dh:   base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		Auth:     base64.RawURLEncoding.EncodeToString(secret),
	}
}

func newTestWebPush(t *testing.T, status int) (*WebPushService, *httptest.Server) {
	t.Helper()
	priv, pub, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("Authorization"))
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	svc := NewWebPushService(VAPIDConfig{PublicKey: pub, PrivateKey: priv, Subject: "mailto:test@example.com"})
	svc.client = srv.Client()
	return svc, srv
}

func TestWebPush_Send(t *testing.T) {
	svc, srv := newTestWebPush(t, http.StatusCreated)
	sub := testSubscription(t, srv.URL+"/push/abc")

	err := svc.Send(context.Background(), sub, &notification.Message{Title: "Rank up", Body: "You are #3"})
	assert.NoError(t, err)
}

func TestWebPush_GoneSubscription(t *testing.T) {
	svc, srv := newTestWebPush(t, http.StatusGone)
	sub := testSubscription(t, srv.URL+"/push/abc")

	err := svc.Send(context.Background(), sub, &notification.Message{Title: "x"})
	assert.ErrorIs(t, err, ErrSubscriptionGone)
}

func TestWebPush_ServerError(t *testing.T) {
	svc, srv := newTestWebPush(t, http.StatusInternalServerError)
	sub := testSubscription(t, srv.URL+"/push/abc")

	err := svc.Send(context.Background(), sub, &notification.Message{Title: "x"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSubscriptionGone)
}
