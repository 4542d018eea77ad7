package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"campusRankAPI/internal/types/errorlog"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	maxErrorDetail     = 4000
	errorLogQueueSize  = 256
	errorLogWriteLimit = 5 * time.Second
)

type errorEntry struct {
	route, method, message, detail string
	userID                         *string
}

// ErrorLogService persists unexpected failures for the admin error view.
// RecordAsync feeds a bounded queue drained by a single writer; entries that
// arrive while the queue is full are dropped and counted.
type ErrorLogService struct {
	db       *pgxpool.Pool
	write    func(ctx context.Context, e errorEntry) error
	queue    chan errorEntry
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	dropped  atomic.Int64
	logger   *zap.Logger
}

func NewErrorLogService(db *pgxpool.Pool) *ErrorLogService {
	s := newErrorLogQueue(errorLogQueueSize)
	s.db = db
	s.write = s.insert
	return s
}

func newErrorLogQueue(size int) *ErrorLogService {
	return &ErrorLogService{
		queue:    make(chan errorEntry, size),
		stopChan: make(chan struct{}),
		logger:   zap.L().Named("error_logs"),
	}
}

// Start launches the writer.
func (s *ErrorLogService) Start() {
	s.wg.Add(1)
	go s.worker()
}

// Stop flushes whatever is already queued and waits for the writer to exit.
func (s *ErrorLogService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
		if n := s.dropped.Load(); n > 0 {
			s.logger.Warn("error log entries dropped", zap.Int64("count", n))
		}
	})
}

func (s *ErrorLogService) worker() {
	defer s.wg.Done()
	for {
		select {
		case e := <-s.queue:
			s.persist(e)
		case <-s.stopChan:
			for {
				select {
				case e := <-s.queue:
					s.persist(e)
				default:
					return
				}
			}
		}
	}
}

func (s *ErrorLogService) persist(e errorEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), errorLogWriteLimit)
	defer cancel()
	if err := s.write(ctx, e); err != nil {
		s.logger.Warn("could not persist error", zap.String("route", e.route), zap.Error(err))
	}
}

func (s *ErrorLogService) insert(ctx context.Context, e errorEntry) error {
	detail := truncateUTF8(e.detail, maxErrorDetail)
	userID := e.userID
	if userID != nil && !validUUID(*userID) {
		userID = nil
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO error_logs (route, method, message, detail, user_id) VALUES ($1, $2, $3, $4, $5)`,
		e.route, e.method, e.message, detail, userID)
	if err != nil {
		return fmt.Errorf("failed to record error log: %w", err)
	}
	return nil
}

// RecordAsync queues the entry without ever blocking the caller.
func (s *ErrorLogService) RecordAsync(route, method, message, detail string, userID *string) {
	if s == nil {
		return
	}
	select {
	case <-s.stopChan:
		s.dropped.Add(1)
		return
	default:
	}

	select {
	case s.queue <- errorEntry{route: route, method: method, message: message, detail: detail, userID: userID}:
	default:
		if n := s.dropped.Add(1); n%100 == 1 {
			s.logger.Warn("error log queue full, dropping", zap.String("route", route), zap.Int64("dropped", n))
		}
	}
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func (s *ErrorLogService) List(ctx context.Context, page, pageSize int) ([]*errorlog.Entry, int, error) {
	page, pageSize = clampPage(page, pageSize, 50, 200)

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM error_logs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count error logs: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, route, method, message, detail, user_id::text, created_at
		FROM error_logs ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list error logs: %w", err)
	}
	defer rows.Close()

	entries := []*errorlog.Entry{}
	for rows.Next() {
		e := &errorlog.Entry{}
		if err := rows.Scan(&e.ID, &e.Route, &e.Method, &e.Message, &e.Detail, &e.UserID, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan error log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func (s *ErrorLogService) Clear(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM error_logs`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear error logs: %w", err)
	}
	s.logger.Info("error logs cleared", zap.Int64("rows", tag.RowsAffected()))
	return tag.RowsAffected(), nil
}
