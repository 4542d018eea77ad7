package services

import (
	"context"
	"fmt"

	"campusRankAPI/internal/apperror"
	"campusRankAPI/internal/types/report"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type ReportService struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewReportService(db *pgxpool.Pool) *ReportService {
	return &ReportService{db: db, logger: zap.L().Named("reports")}
}

const reportColumns = `r.id, r.reporter_id, COALESCE(u.username, ''), r.reported_user_id::text,
	r.category, r.description, r.status, r.created_at, r.updated_at`

func scanReport(row pgx.Row) (*report.Report, error) {
	r := &report.Report{}
	err := row.Scan(&r.ID, &r.ReporterID, &r.ReporterUsername, &r.ReportedUserID,
		&r.Category, &r.Description, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (s *ReportService) Create(ctx context.Context, reporterID string, req *report.CreateReportRequest) (*report.Report, error) {
	var id string
	err := s.db.QueryRow(ctx, `
		INSERT INTO reports (reporter_id, reported_user_id, category, description)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		reporterID, req.ReportedUserID, req.Category, req.Description,
	).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, apperror.ValidationFailed("reportedUserId", "reported user does not exist")
		}
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	s.logger.Info("report filed", zap.String("report_id", id), zap.String("category", req.Category))
	return s.get(ctx, id)
}

func (s *ReportService) get(ctx context.Context, id string) (*report.Report, error) {
	r, err := scanReport(s.db.QueryRow(ctx, `
		SELECT `+reportColumns+` FROM reports r LEFT JOIN users u ON u.id = r.reporter_id
		WHERE r.id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "report", id)
	}
	return r, nil
}

// List returns reports newest first, optionally filtered by status.
func (s *ReportService) List(ctx context.Context, status string) ([]*report.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports r LEFT JOIN users u ON u.id = r.reporter_id`
	var args []any
	if status != "" {
		query += ` WHERE r.status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY r.created_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := []*report.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func (s *ReportService) UpdateStatus(ctx context.Context, id string, status report.Status) (*report.Report, error) {
	if !validUUID(id) {
		return nil, apperror.NotFound("report", id)
	}
	tag, err := s.db.Exec(ctx, `UPDATE reports SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperror.NotFound("report", id)
	}
	return s.get(ctx, id)
}

func (s *ReportService) Delete(ctx context.Context, id string) error {
	if !validUUID(id) {
		return apperror.NotFound("report", id)
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("report", id)
	}
	return nil
}

func (s *ReportService) CountOpen(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM reports WHERE status = 'open'`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return n, nil
}
