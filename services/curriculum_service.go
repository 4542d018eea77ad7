package services

import (
	"context"
	"fmt"

	"campusRankAPI/internal/apperror"
	"campusRankAPI/internal/types/curriculum"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type CurriculumService struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewCurriculumService(db *pgxpool.Pool) *CurriculumService {
	return &CurriculumService{db: db, logger: zap.L().Named("curriculum")}
}

// Tree returns every section with its topics and their resources, all in position order.
func (s *CurriculumService) Tree(ctx context.Context) ([]*curriculum.Section, error) {
	sections := []*curriculum.Section{}
	byID := map[string]*curriculum.Section{}

	rows, err := s.db.Query(ctx, `
		SELECT id, title, description, position, created_at, updated_at
		FROM predefined_sections ORDER BY position, created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to load sections: %w", err)
	}
	for rows.Next() {
		sec := &curriculum.Section{Topics: []*curriculum.Topic{}}
		if err := rows.Scan(&sec.ID, &sec.Title, &sec.Description, &sec.Position, &sec.CreatedAt, &sec.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		sections = append(sections, sec)
		byID[sec.ID] = sec
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	topics := map[string]*curriculum.Topic{}
	rows, err = s.db.Query(ctx, `
		SELECT id, section_id, title, description, position, created_at, updated_at
		FROM predefined_topics ORDER BY position, created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to load topics: %w", err)
	}
	for rows.Next() {
		t := &curriculum.Topic{Resources: []*curriculum.Resource{}}
		if err := rows.Scan(&t.ID, &t.SectionID, &t.Title, &t.Description, &t.Position, &t.CreatedAt, &t.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		if sec, ok := byID[t.SectionID]; ok {
			sec.Topics = append(sec.Topics, t)
			topics[t.ID] = t
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(ctx, `
		SELECT id, topic_id, title, url, kind, position, created_at, updated_at
		FROM resources ORDER BY position, created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to load resources: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		r := &curriculum.Resource{}
		if err := rows.Scan(&r.ID, &r.TopicID, &r.Title, &r.URL, &r.Kind, &r.Position, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		if t, ok := topics[r.TopicID]; ok {
			t.Resources = append(t.Resources, r)
		}
	}
	return sections, rows.Err()
}

func (s *CurriculumService) CreateSection(ctx context.Context, req *curriculum.SectionRequest) (*curriculum.Section, error) {
	sec := &curriculum.Section{}
	err := s.db.QueryRow(ctx, `
		INSERT INTO predefined_sections (title, description, position) VALUES ($1, $2, $3)
		RETURNING id, title, description, position, created_at, updated_at`,
		req.Title, req.Description, req.Position,
	).Scan(&sec.ID, &sec.Title, &sec.Description, &sec.Position, &sec.CreatedAt, &sec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create section: %w", err)
	}
	s.logger.Info("section created", zap.String("id", sec.ID))
	return sec, nil
}

func (s *CurriculumService) UpdateSection(ctx context.Context, id string, req *curriculum.SectionRequest) (*curriculum.Section, error) {
	if !validUUID(id) {
		return nil, apperror.NotFound("section", id)
	}
	sec := &curriculum.Section{}
	err := s.db.QueryRow(ctx, `
		UPDATE predefined_sections SET title = $2, description = $3, position = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING id, title, description, position, created_at, updated_at`,
		id, req.Title, req.Description, req.Position,
	).Scan(&sec.ID, &sec.Title, &sec.Description, &sec.Position, &sec.CreatedAt, &sec.UpdatedAt)
	if err != nil {
		return nil, notFoundOr(err, "section", id)
	}
	return sec, nil
}

func (s *CurriculumService) CreateTopic(ctx context.Context, req *curriculum.TopicRequest) (*curriculum.Topic, error) {
	t := &curriculum.Topic{}
	err := s.db.QueryRow(ctx, `
		INSERT INTO predefined_topics (section_id, title, description, position) VALUES ($1, $2, $3, $4)
		RETURNING id, section_id, title, description, position, created_at, updated_at`,
		req.SectionID, req.Title, req.Description, req.Position,
	).Scan(&t.ID, &t.SectionID, &t.Title, &t.Description, &t.Position, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, apperror.ValidationFailed("sectionId", "section does not exist")
		}
		return nil, fmt.Errorf("failed to create topic: %w", err)
	}
	s.logger.Info("topic created", zap.String("id", t.ID), zap.String("section_id", t.SectionID))
	return t, nil
}

func (s *CurriculumService) UpdateTopic(ctx context.Context, id string, req *curriculum.TopicRequest) (*curriculum.Topic, error) {
	if !validUUID(id) {
		return nil, apperror.NotFound("topic", id)
	}
	t := &curriculum.Topic{}
	err := s.db.QueryRow(ctx, `
		UPDATE predefined_topics SET section_id = $2, title = $3, description = $4, position = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING id, section_id, title, description, position, created_at, updated_at`,
		id, req.SectionID, req.Title, req.Description, req.Position,
	).Scan(&t.ID, &t.SectionID, &t.Title, &t.Description, &t.Position, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, apperror.ValidationFailed("sectionId", "section does not exist")
		}
		return nil, notFoundOr(err, "topic", id)
	}
	return t, nil
}

func (s *CurriculumService) CreateResource(ctx context.Context, req *curriculum.ResourceRequest) (*curriculum.Resource, error) {
	r := &curriculum.Resource{}
	err := s.db.QueryRow(ctx, `
		INSERT INTO resources (topic_id, title, url, kind, position) VALUES ($1, $2, $3, $4, $5)
		RETURNING id, topic_id, title, url, kind, position, created_at, updated_at`,
		req.TopicID, req.Title, req.URL, resourceKind(req.Kind), req.Position,
	).Scan(&r.ID, &r.TopicID, &r.Title, &r.URL, &r.Kind, &r.Position, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, apperror.ValidationFailed("topicId", "topic does not exist")
		}
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return r, nil
}

func (s *CurriculumService) UpdateResource(ctx context.Context, id string, req *curriculum.ResourceRequest) (*curriculum.Resource, error) {
	if !validUUID(id) {
		return nil, apperror.NotFound("resource", id)
	}
	r := &curriculum.Resource{}
	err := s.db.QueryRow(ctx, `
		UPDATE resources SET topic_id = $2, title = $3, url = $4, kind = $5, position = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING id, topic_id, title, url, kind, position, created_at, updated_at`,
		id, req.TopicID, req.Title, req.URL, resourceKind(req.Kind), req.Position,
	).Scan(&r.ID, &r.TopicID, &r.Title, &r.URL, &r.Kind, &r.Position, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, apperror.ValidationFailed("topicId", "topic does not exist")
		}
		return nil, notFoundOr(err, "resource", id)
	}
	return r, nil
}

func (s *CurriculumService) DeleteSection(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "predefined_sections", "section", id)
}

func (s *CurriculumService) DeleteTopic(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "predefined_topics", "topic", id)
}

func (s *CurriculumService) DeleteResource(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "resources", "resource", id)
}

func (s *CurriculumService) deleteByID(ctx context.Context, table, resource, id string) error {
	if !validUUID(id) {
		return apperror.NotFound(resource, id)
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", resource, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound(resource, id)
	}
	s.logger.Info(resource+" deleted", zap.String("id", id))
	return nil
}

func resourceKind(kind string) string {
	if kind == "" {
		return "article"
	}
	return kind
}
