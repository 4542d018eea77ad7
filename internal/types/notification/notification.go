package notification

import "time"

type NotificationType string

const (
	NotificationRankChange  NotificationType = "rank_change"
	NotificationLeaderboard NotificationType = "leaderboard_updated"
	NotificationBroadcast   NotificationType = "broadcast"
	NotificationTest        NotificationType = "test"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

type Notification struct {
	ID            string           `json:"id"`
	UserID        string           `json:"userId"`
	Type          NotificationType `json:"type"`
	Title         string           `json:"title"`
	Body          string           `json:"body"`
	Data          map[string]any   `json:"data"`
	Status        Status           `json:"status"`
	FailureReason *string          `json:"failureReason,omitempty"`
	SentAt        *time.Time       `json:"sentAt,omitempty"`
	ReadAt        *time.Time       `json:"readAt,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
}

type SubscriptionKind string

const (
	KindWebPush SubscriptionKind = "webpush"
	KindFCM     SubscriptionKind = "fcm"
)

// Subscription is one delivery target: a browser push endpoint or an FCM device token.
type Subscription struct {
	ID       string           `json:"id"`
	UserID   string           `json:"userId"`
	Kind     SubscriptionKind `json:"kind"`
	Endpoint string           `json:"endpoint"`
	P256dh   string           `json:"-"`
	Auth     string           `json:"-"`
	Platform string           `json:"platform"`
}

// Message is the payload handed to push providers.
type Message struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	URL   string         `json:"url,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}
