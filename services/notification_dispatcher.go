package services

import (
	"context"
	"errors"
	"sync"
	"time"

	pushnotif "campusRankAPI/internal/notification"
	"campusRankAPI/internal/types/notification"

	"go.uber.org/zap"
)

// dispatchStore is the persistence the dispatcher needs. NotificationService implements it.
type dispatchStore interface {
	subscriptionsFor(ctx context.Context, userID string) ([]*notification.Subscription, error)
	removeSubscription(ctx context.Context, id string) error
	markAsSent(ctx context.Context, notificationID string)
	markAsFailed(ctx context.Context, notificationID string, reason string)
	cleanup(ctx context.Context)
}

// NotificationDispatcher delivers notifications to push providers from a worker pool.
type NotificationDispatcher struct {
	store          dispatchStore
	providers      map[notification.SubscriptionKind]pushnotif.PushProvider
	mu             sync.RWMutex
	workers        int
	jobQueue       chan *DispatchJob
	stopChan       chan struct{}
	stopOnce       sync.Once
	wg             sync.WaitGroup
	enqueueTimeout time.Duration
	cleanupEvery   time.Duration
	logger         *zap.Logger
}

type DispatchJob struct {
	Notification *notification.Notification
}

func NewNotificationDispatcher(store dispatchStore, workers int) *NotificationDispatcher {
	if workers < 1 {
		workers = 1
	}
	d := &NotificationDispatcher{
		store:          store,
		providers:      map[notification.SubscriptionKind]pushnotif.PushProvider{},
		workers:        workers,
		jobQueue:       make(chan *DispatchJob, 100),
		stopChan:       make(chan struct{}),
		enqueueTimeout: 5 * time.Second,
		cleanupEvery:   24 * time.Hour,
		logger:         zap.L().Named("dispatcher"),
	}
	return d
}

// Start launches the workers and the daily cleanup loop.
func (d *NotificationDispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	d.wg.Add(1)
	go d.cleanupLoop()
}

func (d *NotificationDispatcher) SetProvider(kind notification.SubscriptionKind, provider pushnotif.PushProvider) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.providers[kind] = provider
}

func (d *NotificationDispatcher) provider(kind notification.SubscriptionKind) pushnotif.PushProvider {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.providers[kind]
}

func (d *NotificationDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case job := <-d.jobQueue:
			d.processJob(job)
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) processJob(job *DispatchJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	notif := job.Notification
	res, err := d.Deliver(ctx, notif)
	switch {
	case err != nil:
		d.store.markAsFailed(ctx, notif.ID, err.Error())
	case res.Sent == 0 && res.Failed > 0:
		d.store.markAsFailed(ctx, notif.ID, "all push deliveries failed")
	default:
		// in-app delivery counts even when the user has no push targets
		d.store.markAsSent(ctx, notif.ID)
	}
}

// Deliver pushes notif to every subscription its user has. Subscriptions the
// push service reports as gone are deleted.
func (d *NotificationDispatcher) Deliver(ctx context.Context, notif *notification.Notification) (*notification.DeliveryResult, error) {
	subs, err := d.store.subscriptionsFor(ctx, notif.UserID)
	if err != nil {
		return nil, err
	}

	msg := messageFor(notif)
	res := &notification.DeliveryResult{}
	for _, sub := range subs {
		p := d.provider(sub.Kind)
		if p == nil {
			continue
		}

		err := p.Send(ctx, sub, msg)
		switch {
		case errors.Is(err, pushnotif.ErrSubscriptionGone):
			if rmErr := d.store.removeSubscription(ctx, sub.ID); rmErr != nil {
				d.logger.Warn("failed to remove stale subscription", zap.String("id", sub.ID), zap.Error(rmErr))
			}
			res.Removed++
		case err != nil:
			d.logger.Warn("push failed",
				zap.String("user_id", notif.UserID),
				zap.String("kind", string(sub.Kind)),
				zap.Error(err),
			)
			res.Failed++
		default:
			res.Sent++
		}
	}
	return res, nil
}

func messageFor(n *notification.Notification) *notification.Message {
	msg := &notification.Message{Title: n.Title, Body: n.Body, Data: n.Data}
	if url, ok := n.Data["url"].(string); ok {
		msg.URL = url
	}
	return msg
}

// Dispatch queues notif for delivery. It gives up when the queue stays full.
func (d *NotificationDispatcher) Dispatch(notif *notification.Notification) bool {
	select {
	case <-d.stopChan:
		return false
	default:
	}

	select {
	case d.jobQueue <- &DispatchJob{Notification: notif}:
		return true
	case <-time.After(d.enqueueTimeout):
		d.logger.Warn("notification queue full, dropping", zap.String("id", notif.ID))
		return false
	case <-d.stopChan:
		return false
	}
}

func (d *NotificationDispatcher) cleanupLoop() {
	defer d.wg.Done()
	ticker := time.NewTicker(d.cleanupEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			d.store.cleanup(ctx)
			cancel()
		case <-d.stopChan:
			return
		}
	}
}

// Stop waits for in-flight jobs to finish. Queued jobs that no worker picked up are dropped.
func (d *NotificationDispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.logger.Info("stopping notification dispatcher")
		close(d.stopChan)
		d.wg.Wait()
		d.logger.Info("notification dispatcher stopped")
	})
}
