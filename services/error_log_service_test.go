package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateUTF8(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "boom", 10, "boom"},
		{"ascii cut", "abcdef", 3, "abc"},
		{"does not split a rune", "ab€cd", 3, "ab"},
		{"keeps a whole rune", "ab€cd", 5, "ab€"},
		{"zero", "€", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncateUTF8(tt.in, tt.n))
		})
	}

	long := strings.Repeat("€", 1400)
	got := truncateUTF8(long, maxErrorDetail)
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), maxErrorDetail)
	assert.Equal(t, maxErrorDetail-1, len(got))
}

type recordedErrors struct {
	mu      sync.Mutex
	entries []errorEntry
	release chan struct{}
}

func (r *recordedErrors) write(ctx context.Context, e errorEntry) error {
	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *recordedErrors) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func TestErrorLogService_RecordAsyncNeverBlocks(t *testing.T) {
	rec := &recordedErrors{}
	s := newErrorLogQueue(4)
	s.write = rec.write

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			s.RecordAsync("/api/x", "GET", "boom", "", nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RecordAsync blocked on a full queue")
	}
	assert.Equal(t, int64(46), s.dropped.Load())

	s.Start()
	s.Stop()
	assert.Equal(t, 4, rec.count())
}

func TestErrorLogService_WorkerDrainsOnStop(t *testing.T) {
	rec := &recordedErrors{release: make(chan struct{})}
	s := newErrorLogQueue(8)
	s.write = rec.write
	s.Start()

	for i := 0; i < 5; i++ {
		s.RecordAsync("/api/y", "POST", "boom", "detail", nil)
	}
	close(rec.release)
	s.Stop()

	require.Equal(t, 5, rec.count())
	assert.Equal(t, int64(0), s.dropped.Load())

	s.RecordAsync("/api/y", "POST", "late", "", nil)
	assert.Equal(t, int64(1), s.dropped.Load())
	assert.Equal(t, 5, rec.count())
}

func TestErrorLogService_NilReceiver(t *testing.T) {
	var s *ErrorLogService
	assert.NotPanics(t, func() { s.RecordAsync("/", "GET", "boom", "", nil) })
}
