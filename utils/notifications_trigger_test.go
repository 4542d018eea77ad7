package utils

import (
	"context"
	"errors"
	"testing"

	"campusRankAPI/internal/types/leaderboard"
	"campusRankAPI/internal/types/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCreator struct {
	failFor string
	got     map[string]*notification.Message
}

func (r *recordingCreator) CreateAndDispatch(_ context.Context, userID string, typ notification.NotificationType, msg *notification.Message) (*notification.Notification, error) {
	if userID == r.failFor {
		return nil, errors.New("db down")
	}
	if r.got == nil {
		r.got = map[string]*notification.Message{}
	}
	r.got[userID] = msg
	return &notification.Notification{UserID: userID, Type: typ}, nil
}

func TestRankChangeMessage(t *testing.T) {
	up := RankChangeMessage(leaderboard.RankChange{PreviousRank: 5, NewRank: 2}, "https://rank.test")
	assert.Equal(t, "You climbed 3 places!", up.Title)
	assert.Contains(t, up.Body, "#2")
	assert.Equal(t, "https://rank.test/leaderboard", up.URL)

	down := RankChangeMessage(leaderboard.RankChange{PreviousRank: 1, NewRank: 2}, "https://rank.test")
	assert.Equal(t, "You dropped 1 place", down.Title)
	assert.Equal(t, 2, down.Data["newRank"])
}

func TestNotifyRankChanges_SkipsFailures(t *testing.T) {
	creator := &recordingCreator{failFor: "b"}
	changes := []leaderboard.RankChange{
		{UserID: "a", PreviousRank: 3, NewRank: 1},
		{UserID: "b", PreviousRank: 1, NewRank: 2},
		{UserID: "c", PreviousRank: 2, NewRank: 3},
	}

	NotifyRankChanges(context.Background(), creator, changes, "https://rank.test")

	require.Len(t, creator.got, 2)
	assert.Contains(t, creator.got, "a")
	assert.Contains(t, creator.got, "c")
}
