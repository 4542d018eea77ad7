package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"campusRankAPI/internal/apperror"
	"campusRankAPI/internal/types/question"
	"campusRankAPI/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type QuestionService struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewQuestionService(db *pgxpool.Pool) *QuestionService {
	return &QuestionService{db: db, logger: zap.L().Named("questions")}
}

const questionColumns = `id, slug, title, description, difficulty, tags, topic_id::text, points, created_at, updated_at`

func scanQuestion(row pgx.Row) (*question.Question, error) {
	q := &question.Question{}
	err := row.Scan(&q.ID, &q.Slug, &q.Title, &q.Description, &q.Difficulty, &q.Tags,
		&q.TopicID, &q.Points, &q.CreatedAt, &q.UpdatedAt)
	if q.Tags == nil {
		q.Tags = []string{}
	}
	return q, err
}

func (s *QuestionService) List(ctx context.Context, f question.Filter) ([]*question.Question, error) {
	var conds []string
	var args []any
	if f.Difficulty != "" {
		args = append(args, strings.ToLower(f.Difficulty))
		conds = append(conds, fmt.Sprintf("difficulty = $%d", len(args)))
	}
	if f.Tag != "" {
		args = append(args, f.Tag)
		conds = append(conds, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}
	if f.TopicID != "" {
		if !validUUID(f.TopicID) {
			return []*question.Question{}, nil
		}
		args = append(args, f.TopicID)
		conds = append(conds, fmt.Sprintf("topic_id = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, likePattern(f.Search))
		conds = append(conds, fmt.Sprintf("title ILIKE $%d", len(args)))
	}

	query := `SELECT ` + questionColumns + ` FROM questions`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY CASE difficulty WHEN 'easy' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END, title`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	out := []*question.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// GetBySlug returns the question with its children. Hidden test cases are
// only included when includeHidden is set.
func (s *QuestionService) GetBySlug(ctx context.Context, slug string, includeHidden bool) (*question.Question, error) {
	q, err := scanQuestion(s.db.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE slug = $1`, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFoundMsg("question not found")
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if err := s.loadChildren(ctx, q, includeHidden); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) getByID(ctx context.Context, id string) (*question.Question, error) {
	if !validUUID(id) {
		return nil, apperror.NotFound("question", id)
	}
	q, err := scanQuestion(s.db.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("question", id)
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if err := s.loadChildren(ctx, q, true); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) loadChildren(ctx context.Context, q *question.Question, includeHidden bool) error {
	q.TestCases = []*question.TestCase{}
	q.SampleCodes = []*question.SampleCode{}
	q.Constraints = []*question.Constraint{}

	rows, err := s.db.Query(ctx, `
		SELECT id, input, output, explanation, hidden, position FROM test_cases
		WHERE question_id = $1 AND (hidden = FALSE OR $2) ORDER BY position`, q.ID, includeHidden)
	if err != nil {
		return fmt.Errorf("failed to load test cases: %w", err)
	}
	for rows.Next() {
		tc := &question.TestCase{}
		if err := rows.Scan(&tc.ID, &tc.Input, &tc.Output, &tc.Explanation, &tc.Hidden, &tc.Position); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan test case: %w", err)
		}
		q.TestCases = append(q.TestCases, tc)
	}
	rows.Close()

	rows, err = s.db.Query(ctx, `SELECT id, language, code FROM sample_codes WHERE question_id = $1 ORDER BY language`, q.ID)
	if err != nil {
		return fmt.Errorf("failed to load sample codes: %w", err)
	}
	for rows.Next() {
		sc := &question.SampleCode{}
		if err := rows.Scan(&sc.ID, &sc.Language, &sc.Code); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan sample code: %w", err)
		}
		q.SampleCodes = append(q.SampleCodes, sc)
	}
	rows.Close()

	rows, err = s.db.Query(ctx, `SELECT id, content, position FROM question_constraints WHERE question_id = $1 ORDER BY position`, q.ID)
	if err != nil {
		return fmt.Errorf("failed to load constraints: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		c := &question.Constraint{}
		if err := rows.Scan(&c.ID, &c.Content, &c.Position); err != nil {
			return fmt.Errorf("failed to scan constraint: %w", err)
		}
		q.Constraints = append(q.Constraints, c)
	}
	return rows.Err()
}

func (s *QuestionService) Create(ctx context.Context, req *question.UpsertQuestionRequest) (*question.Question, error) {
	slug := questionSlug(req)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id string
	err = tx.QueryRow(ctx, `
		INSERT INTO questions (slug, title, description, difficulty, tags, topic_id, points)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		slug, req.Title, req.Description, req.Difficulty, nonNilTags(req.Tags), req.TopicID, req.Points,
	).Scan(&id)
	if err != nil {
		return nil, questionWriteError(err, slug)
	}

	if err := insertQuestionChildren(ctx, tx, id, req); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit question: %w", err)
	}

	s.logger.Info("question created", zap.String("id", id), zap.String("slug", slug))
	return s.getByID(ctx, id)
}

// Update rewrites the question and replaces all of its children.
func (s *QuestionService) Update(ctx context.Context, id string, req *question.UpsertQuestionRequest) (*question.Question, error) {
	if !validUUID(id) {
		return nil, apperror.NotFound("question", id)
	}
	slug := questionSlug(req)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE questions SET slug = $2, title = $3, description = $4, difficulty = $5, tags = $6,
			topic_id = $7, points = $8, updated_at = NOW()
		WHERE id = $1`,
		id, slug, req.Title, req.Description, req.Difficulty, nonNilTags(req.Tags), req.TopicID, req.Points)
	if err != nil {
		return nil, questionWriteError(err, slug)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperror.NotFound("question", id)
	}

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM test_cases WHERE question_id = $1`, id)
	batch.Queue(`DELETE FROM sample_codes WHERE question_id = $1`, id)
	batch.Queue(`DELETE FROM question_constraints WHERE question_id = $1`, id)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("failed to clear question children: %w", err)
	}

	if err := insertQuestionChildren(ctx, tx, id, req); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit question: %w", err)
	}

	s.logger.Info("question updated", zap.String("id", id))
	return s.getByID(ctx, id)
}

func (s *QuestionService) Delete(ctx context.Context, id string) error {
	if !validUUID(id) {
		return apperror.NotFound("question", id)
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("question", id)
	}
	return nil
}

func insertQuestionChildren(ctx context.Context, tx pgx.Tx, questionID string, req *question.UpsertQuestionRequest) error {
	batch := &pgx.Batch{}
	for i, tc := range req.TestCases {
		batch.Queue(`INSERT INTO test_cases (question_id, input, output, explanation, hidden, position) VALUES ($1, $2, $3, $4, $5, $6)`,
			questionID, tc.Input, tc.Output, tc.Explanation, tc.Hidden, i)
	}
	for _, sc := range req.SampleCodes {
		batch.Queue(`INSERT INTO sample_codes (question_id, language, code) VALUES ($1, $2, $3)`,
			questionID, strings.ToLower(sc.Language), sc.Code)
	}
	for i, c := range req.Constraints {
		batch.Queue(`INSERT INTO question_constraints (question_id, content, position) VALUES ($1, $2, $3)`,
			questionID, c, i)
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to write question children: %w", err)
	}
	return nil
}

func questionSlug(req *question.UpsertQuestionRequest) string {
	if req.Slug != "" {
		return utils.SlugOrRandom(req.Slug)
	}
	return utils.SlugOrRandom(req.Title)
}

func questionWriteError(err error, slug string) error {
	if isUniqueViolation(err) {
		return apperror.Conflict(fmt.Sprintf("a question with slug %q already exists", slug))
	}
	if isForeignKeyViolation(err) {
		return apperror.ValidationFailed("topicId", "topic does not exist")
	}
	return fmt.Errorf("failed to save question: %w", err)
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
