package auth

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func signedHeader(key []byte, id string, at time.Time, body []byte) http.Header {
	ts := strconv.FormatInt(at.Unix(), 10)
	h := http.Header{}
	h.Set("svix-id", id)
	h.Set("svix-timestamp", ts)
	h.Set("svix-signature", "v1,bogus v1,"+SignWebhook(key, id, ts, body))
	return h
}

func TestVerifyWebhook(t *testing.T) {
	key := []byte("super-secret-webhook-key")
	secret := "whsec_" + base64.StdEncoding.EncodeToString(key)
	body := []byte(`{"type":"user.created"}`)
	now := time.Now()

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, VerifyWebhook(secret, signedHeader(key, "msg_1", now, body), body, now))
	})

	t.Run("tampered body", func(t *testing.T) {
		h := signedHeader(key, "msg_1", now, body)
		assert.ErrorIs(t, VerifyWebhook(secret, h, []byte(`{"type":"user.deleted"}`), now), ErrBadSignature)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		h := signedHeader(key, "msg_1", now.Add(-time.Hour), body)
		assert.ErrorIs(t, VerifyWebhook(secret, h, body, now), ErrBadSignature)
	})

	t.Run("missing headers", func(t *testing.T) {
		assert.ErrorIs(t, VerifyWebhook(secret, http.Header{}, body, now), ErrBadSignature)
	})
}
