package utils

import (
	"context"
	"fmt"

	"campusRankAPI/internal/types/leaderboard"
	"campusRankAPI/internal/types/notification"

	"go.uber.org/zap"
)

// NotificationCreator is the one method rank triggers need from the notification service.
type NotificationCreator interface {
	CreateAndDispatch(ctx context.Context, userID string, typ notification.NotificationType, msg *notification.Message) (*notification.Notification, error)
}

// RankChangeMessage words a rank movement for a push notification.
func RankChangeMessage(c leaderboard.RankChange, appURL string) *notification.Message {
	msg := &notification.Message{
		URL: appURL + "/leaderboard",
		Data: map[string]any{
			"previousRank": c.PreviousRank,
			"newRank":      c.NewRank,
			"score":        c.OverallScore,
		},
	}

	delta := c.Delta()
	switch {
	case delta > 0:
		msg.Title = fmt.Sprintf("You climbed %d %s!", delta, plural(delta, "place", "places"))
		msg.Body = fmt.Sprintf("You're now #%d on the leaderboard (was #%d).", c.NewRank, c.PreviousRank)
	case delta < 0:
		msg.Title = fmt.Sprintf("You dropped %d %s", -delta, plural(-delta, "place", "places"))
		msg.Body = fmt.Sprintf("You're now #%d on the leaderboard (was #%d). Time to solve a few more!", c.NewRank, c.PreviousRank)
	default:
		msg.Title = "Leaderboard updated"
		msg.Body = fmt.Sprintf("You're holding at #%d.", c.NewRank)
	}
	return msg
}

// NotifyRankChanges creates a rank_change notification for each change.
// Failures are logged and skipped.
func NotifyRankChanges(ctx context.Context, notifier NotificationCreator, changes []leaderboard.RankChange, appURL string) {
	logger := zap.L().Named("rank_notify")

	sent := 0
	for _, c := range changes {
		if ctx.Err() != nil {
			break
		}
		if _, err := notifier.CreateAndDispatch(ctx, c.UserID, notification.NotificationRankChange, RankChangeMessage(c, appURL)); err != nil {
			logger.Warn("failed to notify rank change", zap.String("user_id", c.UserID), zap.Error(err))
			continue
		}
		sent++
	}
	logger.Info("rank change notifications queued", zap.Int("count", sent), zap.Int("changes", len(changes)))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
