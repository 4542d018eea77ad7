package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w)

	err := p.Publish(context.Background(),
		New(RankChanged, "user-1", map[string]int{"from": 5, "to": 2}),
		New(LeaderboardRefreshed, "run", nil),
	)
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)

	assert.Equal(t, "user-1", string(w.msgs[0].Key))
	assert.Equal(t, RankChanged, string(w.msgs[0].Headers[0].Value))

	var decoded Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, RankChanged, decoded.Type)
}

func TestKafkaPublisher_Empty(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, newKafkaPublisher(w).Publish(context.Background()))
	assert.Empty(t, w.msgs)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	err := newKafkaPublisher(w).Publish(context.Background(), New(ProfileFetched, "u", nil))
	assert.ErrorContains(t, err, "broker down")
}
