package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"campusRankAPI/internal/types/notification"

	webpush "github.com/SherClockHolmes/webpush-go"
)

type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	Subject    string
}

type WebPushService struct {
	vapid  VAPIDConfig
	client *http.Client
	ttl    int
}

func NewWebPushService(vapid VAPIDConfig) *WebPushService {
	return &WebPushService{vapid: vapid, client: http.DefaultClient, ttl: 60 * 60 * 24}
}

func (s *WebPushService) PublicKey() string {
	return s.vapid.PublicKey
}

func (s *WebPushService) Send(ctx context.Context, sub *notification.Subscription, msg *notification.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode push payload: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.vapid.Subject,
		VAPIDPublicKey:  s.vapid.PublicKey,
		VAPIDPrivateKey: s.vapid.PrivateKey,
		TTL:             s.ttl,
		Urgency:         webpush.UrgencyNormal,
	})
	if err != nil {
		return fmt.Errorf("web push failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrSubscriptionGone
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("web push rejected with status %d: %s", resp.StatusCode, body)
	}
	return nil
}
