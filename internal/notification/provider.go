package notification

import (
	"context"
	"errors"

	"campusRankAPI/internal/types/notification"
)

// ErrSubscriptionGone means the push service no longer knows the target and
// the subscription should be deleted.
var ErrSubscriptionGone = errors.New("push subscription expired")

type PushProvider interface {
	Send(ctx context.Context, sub *notification.Subscription, msg *notification.Message) error
}
