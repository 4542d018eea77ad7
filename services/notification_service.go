package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"campusRankAPI/internal/apperror"
	pushnotif "campusRankAPI/internal/notification"
	"campusRankAPI/internal/types/leaderboard"
	"campusRankAPI/internal/types/notification"
	"campusRankAPI/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type NotificationService struct {
	db             *pgxpool.Pool
	dispatcher     *NotificationDispatcher
	vapidPublicKey string
	appURL         string
	logger         *zap.Logger
}

func NewNotificationService(db *pgxpool.Pool, appURL string) *NotificationService {
	service := &NotificationService{
		db:     db,
		appURL: appURL,
		logger: zap.L().Named("notifications"),
	}
	service.dispatcher = NewNotificationDispatcher(service, 5)
	return service
}

func (s *NotificationService) Start() { s.dispatcher.Start() }
func (s *NotificationService) Stop()  { s.dispatcher.Stop() }

// SetWebPush registers the VAPID provider and remembers its public key for clients.
func (s *NotificationService) SetWebPush(p *pushnotif.WebPushService) {
	s.vapidPublicKey = p.PublicKey()
	s.dispatcher.SetProvider(notification.KindWebPush, p)
}

func (s *NotificationService) SetFCM(p pushnotif.PushProvider) {
	s.dispatcher.SetProvider(notification.KindFCM, p)
}

func (s *NotificationService) VAPIDPublicKey() (string, error) {
	if s.vapidPublicKey == "" {
		return "", apperror.NotFoundMsg("web push is not configured")
	}
	return s.vapidPublicKey, nil
}

func (s *NotificationService) Subscribe(ctx context.Context, userID string, req *notification.SubscribeRequest) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO push_subscriptions (user_id, kind, endpoint, p256dh, auth, platform)
		VALUES ($1, 'webpush', $2, $3, $4, 'web')
		ON CONFLICT (endpoint) DO UPDATE SET user_id = EXCLUDED.user_id, p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth`,
		userID, req.Endpoint, req.Keys.P256dh, req.Keys.Auth)
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	s.logger.Info("web push subscribed", zap.String("user_id", userID))
	return nil
}

func (s *NotificationService) RegisterDevice(ctx context.Context, userID string, req *notification.RegisterDeviceRequest) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO push_subscriptions (user_id, kind, endpoint, platform)
		VALUES ($1, 'fcm', $2, $3)
		ON CONFLICT (endpoint) DO UPDATE SET user_id = EXCLUDED.user_id, platform = EXCLUDED.platform`,
		userID, req.Token, req.Platform)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	s.logger.Info("device registered", zap.String("user_id", userID), zap.String("platform", req.Platform))
	return nil
}

func (s *NotificationService) Unsubscribe(ctx context.Context, userID, endpoint string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM push_subscriptions WHERE endpoint = $1 AND user_id = $2`, endpoint, userID)
	if err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFoundMsg("subscription not found")
	}
	return nil
}

func (s *NotificationService) subscriptionsFor(ctx context.Context, userID string) ([]*notification.Subscription, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, kind, endpoint, p256dh, auth, platform
		FROM push_subscriptions WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*notification.Subscription
	for rows.Next() {
		sub := &notification.Subscription{}
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Kind, &sub.Endpoint, &sub.P256dh, &sub.Auth, &sub.Platform); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *NotificationService) removeSubscription(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM push_subscriptions WHERE id = $1`, id)
	return err
}

func (s *NotificationService) markAsSent(ctx context.Context, notificationID string) {
	_, err := s.db.Exec(ctx, `UPDATE notifications SET status = 'sent', sent_at = NOW() WHERE id = $1`, notificationID)
	if err != nil {
		s.logger.Warn("failed to mark notification sent", zap.String("id", notificationID), zap.Error(err))
	}
}

func (s *NotificationService) markAsFailed(ctx context.Context, notificationID, reason string) {
	_, err := s.db.Exec(ctx, `UPDATE notifications SET status = 'failed', failure_reason = $2 WHERE id = $1`, notificationID, reason)
	if err != nil {
		s.logger.Warn("failed to mark notification failed", zap.String("id", notificationID), zap.Error(err))
	}
}

func (s *NotificationService) cleanup(ctx context.Context) {
	tag, err := s.db.Exec(ctx, `DELETE FROM notifications WHERE read_at < NOW() - INTERVAL '90 days'`)
	if err != nil {
		s.logger.Warn("failed to clean up notifications", zap.Error(err))
		return
	}
	if n := tag.RowsAffected(); n > 0 {
		s.logger.Info("cleaned up old notifications", zap.Int64("rows", n))
	}
}

func (s *NotificationService) create(ctx context.Context, userID string, typ notification.NotificationType, msg *notification.Message) (*notification.Notification, error) {
	data := msg.Data
	if data == nil {
		data = map[string]any{}
	}
	if msg.URL != "" {
		data["url"] = msg.URL
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode notification data: %w", err)
	}

	n := &notification.Notification{UserID: userID, Type: typ, Title: msg.Title, Body: msg.Body, Data: data, Status: notification.StatusPending}
	err = s.db.QueryRow(ctx, `
		INSERT INTO notifications (user_id, type, title, body, data, status)
		VALUES ($1, $2, $3, $4, $5, 'pending') RETURNING id, created_at`,
		userID, typ, msg.Title, msg.Body, dataJSON,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return n, nil
}

// CreateAndDispatch stores an in-app notification and queues its push delivery.
func (s *NotificationService) CreateAndDispatch(ctx context.Context, userID string, typ notification.NotificationType, msg *notification.Message) (*notification.Notification, error) {
	n, err := s.create(ctx, userID, typ, msg)
	if err != nil {
		return nil, err
	}
	s.dispatcher.Dispatch(n)
	return n, nil
}

// NotifyRankChanges tells every user whose rank moved.
func (s *NotificationService) NotifyRankChanges(ctx context.Context, changes []leaderboard.RankChange) {
	utils.NotifyRankChanges(ctx, s, changes, s.appURL)
}

// SendTest delivers a test push to the caller right away and reports the outcome.
func (s *NotificationService) SendTest(ctx context.Context, userID string) (*notification.DeliveryResult, error) {
	subs, err := s.subscriptionsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, apperror.ValidationFailed("subscription", "no push subscriptions registered for this account")
	}

	n, err := s.create(ctx, userID, notification.NotificationTest, &notification.Message{
		Title: "Campus Rank",
		Body:  "Push notifications are working.",
		URL:   s.appURL,
	})
	if err != nil {
		return nil, err
	}
	return s.deliverNow(ctx, n)
}

func (s *NotificationService) deliverNow(ctx context.Context, n *notification.Notification) (*notification.DeliveryResult, error) {
	res, err := s.dispatcher.Deliver(ctx, n)
	if err != nil {
		s.markAsFailed(ctx, n.ID, err.Error())
		return nil, err
	}
	if res.Sent == 0 && res.Failed > 0 {
		s.markAsFailed(ctx, n.ID, "all push deliveries failed")
	} else {
		s.markAsSent(ctx, n.ID)
	}
	return res, nil
}

// Broadcast sends the message to every user that has at least one subscription.
func (s *NotificationService) Broadcast(ctx context.Context, req *notification.BroadcastRequest) (*notification.DeliveryResult, error) {
	rows, err := s.db.Query(ctx, `SELECT DISTINCT user_id FROM push_subscriptions`)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscribers: %w", err)
	}
	userIDs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan subscribers: %w", err)
	}

	var sent, failed, removed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(10)
	for _, userID := range userIDs {
		g.Go(func() error {
			n, err := s.create(gctx, userID, notification.NotificationBroadcast, &notification.Message{
				Title: req.Title, Body: req.Body, URL: req.URL,
			})
			if err != nil {
				s.logger.Warn("broadcast create failed", zap.String("user_id", userID), zap.Error(err))
				failed.Add(1)
				return nil
			}
			res, err := s.deliverNow(gctx, n)
			if err != nil {
				failed.Add(1)
				return nil
			}
			sent.Add(int64(res.Sent))
			failed.Add(int64(res.Failed))
			removed.Add(int64(res.Removed))
			return nil
		})
	}
	_ = g.Wait()

	res := &notification.DeliveryResult{Sent: int(sent.Load()), Failed: int(failed.Load()), Removed: int(removed.Load())}
	s.logger.Info("broadcast delivered",
		zap.Int("users", len(userIDs)),
		zap.Int("sent", res.Sent),
		zap.Int("failed", res.Failed),
		zap.Int("removed", res.Removed),
	)
	return res, nil
}

func (s *NotificationService) List(ctx context.Context, userID string, page, pageSize int, unreadOnly bool) (*notification.NotificationListResponse, error) {
	page, pageSize = clampPage(page, pageSize, 20, 100)

	where := `WHERE user_id = $1`
	if unreadOnly {
		where += ` AND read_at IS NULL`
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, type, title, body, data, status, failure_reason, sent_at, read_at, created_at
		FROM notifications `+where+`
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer rows.Close()

	resp := &notification.NotificationListResponse{Notifications: []*notification.Notification{}, Page: page, PageSize: pageSize}
	for rows.Next() {
		n := &notification.Notification{}
		var data []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &data, &n.Status,
			&n.FailureReason, &n.SentAt, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if err := json.Unmarshal(data, &n.Data); err != nil {
			n.Data = map[string]any{}
		}
		resp.Notifications = append(resp.Notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE read_at IS NULL), COUNT(*) FROM notifications WHERE user_id = $1`, userID,
	).Scan(&resp.UnreadCount, &resp.TotalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}
	return resp, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, userID, notificationID string) error {
	if !validUUID(notificationID) {
		return apperror.NotFound("notification", notificationID)
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE notifications SET read_at = COALESCE(read_at, NOW())
		WHERE id = $1 AND user_id = $2`, notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark as read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("notification", notificationID)
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	tag, err := s.db.Exec(ctx, `UPDATE notifications SET read_at = NOW() WHERE user_id = $1 AND read_at IS NULL`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all as read: %w", err)
	}
	return tag.RowsAffected(), nil
}
