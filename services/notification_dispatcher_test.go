package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	pushnotif "campusRankAPI/internal/notification"
	"campusRankAPI/internal/types/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu      sync.Mutex
	subs    []*notification.Subscription
	removed []string
	sent    []string
	failed  map[string]string
	done    chan struct{}
}

func newFakeStore(subs ...*notification.Subscription) *fakeStore {
	return &fakeStore{subs: subs, failed: map[string]string{}, done: make(chan struct{}, 10)}
}

func (f *fakeStore) subscriptionsFor(_ context.Context, userID string) ([]*notification.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*notification.Subscription
	for _, s := range f.subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) removeSubscription(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeStore) markAsSent(_ context.Context, id string) {
	f.mu.Lock()
	f.sent = append(f.sent, id)
	f.mu.Unlock()
	f.done <- struct{}{}
}

func (f *fakeStore) markAsFailed(_ context.Context, id, reason string) {
	f.mu.Lock()
	f.failed[id] = reason
	f.mu.Unlock()
	f.done <- struct{}{}
}

func (f *fakeStore) cleanup(context.Context) {}

type fakeProvider struct {
	mu   sync.Mutex
	errs map[string]error
	got  []*notification.Message
}

func (p *fakeProvider) Send(_ context.Context, sub *notification.Subscription, msg *notification.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, msg)
	return p.errs[sub.ID]
}

func TestDeliver_CountsAndRemovesGoneSubscriptions(t *testing.T) {
	store := newFakeStore(
		&notification.Subscription{ID: "s1", UserID: "u1", Kind: notification.KindWebPush},
		&notification.Subscription{ID: "s2", UserID: "u1", Kind: notification.KindWebPush},
		&notification.Subscription{ID: "s3", UserID: "u1", Kind: notification.KindFCM},
		&notification.Subscription{ID: "s4", UserID: "u2", Kind: notification.KindWebPush},
	)
	web := &fakeProvider{errs: map[string]error{"s2": pushnotif.ErrSubscriptionGone}}
	fcm := &fakeProvider{errs: map[string]error{"s3": errors.New("quota exceeded")}}

	d := NewNotificationDispatcher(store, 1)
	d.SetProvider(notification.KindWebPush, web)
	d.SetProvider(notification.KindFCM, fcm)

	res, err := d.Deliver(context.Background(), &notification.Notification{
		ID: "n1", UserID: "u1", Title: "hi", Body: "there", Data: map[string]any{"url": "https://x.test/leaderboard"},
	})
	require.NoError(t, err)

	assert.Equal(t, notification.DeliveryResult{Sent: 1, Failed: 1, Removed: 1}, *res)
	assert.Equal(t, []string{"s2"}, store.removed)
	require.Len(t, web.got, 2)
	assert.Equal(t, "https://x.test/leaderboard", web.got[0].URL)
}

func TestDeliver_SkipsKindsWithoutProvider(t *testing.T) {
	store := newFakeStore(&notification.Subscription{ID: "s1", UserID: "u1", Kind: notification.KindFCM})
	d := NewNotificationDispatcher(store, 1)

	res, err := d.Deliver(context.Background(), &notification.Notification{ID: "n1", UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, notification.DeliveryResult{}, *res)
}

func TestDispatch_WorkerMarksOutcome(t *testing.T) {
	store := newFakeStore(
		&notification.Subscription{ID: "ok", UserID: "u1", Kind: notification.KindWebPush},
		&notification.Subscription{ID: "bad", UserID: "u2", Kind: notification.KindWebPush},
	)
	web := &fakeProvider{errs: map[string]error{"bad": errors.New("boom")}}

	d := NewNotificationDispatcher(store, 2)
	d.SetProvider(notification.KindWebPush, web)
	d.Start()
	defer d.Stop()

	require.True(t, d.Dispatch(&notification.Notification{ID: "n1", UserID: "u1"}))
	require.True(t, d.Dispatch(&notification.Notification{ID: "n2", UserID: "u2"}))
	require.True(t, d.Dispatch(&notification.Notification{ID: "n3", UserID: "nobody"}))

	for i := 0; i < 3; i++ {
		select {
		case <-store.done:
		case <-time.After(2 * time.Second):
			t.Fatal("dispatcher did not process jobs")
		}
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.ElementsMatch(t, []string{"n1", "n3"}, store.sent)
	assert.Equal(t, "all push deliveries failed", store.failed["n2"])
}

func TestStop_IsIdempotent(t *testing.T) {
	d := NewNotificationDispatcher(newFakeStore(), 1)
	d.Start()
	d.Stop()
	d.Stop()
	assert.False(t, d.Dispatch(&notification.Notification{ID: "late"}))
}
