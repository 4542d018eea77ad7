package services

import (
	"context"
	"errors"
	"fmt"

	"campusRankAPI/internal/apperror"
	"campusRankAPI/internal/types/roadmap"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type RoadmapService struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewRoadmapService(db *pgxpool.Pool) *RoadmapService {
	return &RoadmapService{db: db, logger: zap.L().Named("roadmap")}
}

const (
	cloneSectionsSQL = `
		INSERT INTO roadmap_sections (roadmap_id, predefined_section_id, title, position)
		SELECT $1, ps.id, ps.title, ps.position FROM predefined_sections ps
		WHERE NOT EXISTS (
			SELECT 1 FROM roadmap_sections rs WHERE rs.roadmap_id = $1 AND rs.predefined_section_id = ps.id
		)`

	cloneTopicsSQL = `
		INSERT INTO roadmap_topics (section_id, predefined_topic_id, title, position)
		SELECT rs.id, pt.id, pt.title, pt.position
		FROM predefined_topics pt
		JOIN roadmap_sections rs ON rs.predefined_section_id = pt.section_id AND rs.roadmap_id = $1
		WHERE NOT EXISTS (
			SELECT 1 FROM roadmap_topics rt
			JOIN roadmap_sections s2 ON s2.id = rt.section_id
			WHERE s2.roadmap_id = $1 AND rt.predefined_topic_id = pt.id
		)`
)

// Create clones the predefined curriculum for userID. When the user already
// has a roadmap it is returned unchanged and created is false.
func (s *RoadmapService) Create(ctx context.Context, userID string) (*roadmap.Roadmap, bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id string
	err = tx.QueryRow(ctx,
		`INSERT INTO roadmaps (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING RETURNING id`, userID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		rm, err := s.Get(ctx, userID)
		return rm, false, err
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to create roadmap: %w", err)
	}

	sections, err := tx.Exec(ctx, cloneSectionsSQL, id)
	if err != nil {
		return nil, false, fmt.Errorf("failed to clone sections: %w", err)
	}
	topics, err := tx.Exec(ctx, cloneTopicsSQL, id)
	if err != nil {
		return nil, false, fmt.Errorf("failed to clone topics: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit roadmap: %w", err)
	}

	s.logger.Info("roadmap created",
		zap.String("user_id", userID),
		zap.Int64("sections", sections.RowsAffected()),
		zap.Int64("topics", topics.RowsAffected()),
	)

	rm, err := s.Get(ctx, userID)
	return rm, true, err
}

func (s *RoadmapService) Get(ctx context.Context, userID string) (*roadmap.Roadmap, error) {
	rm := &roadmap.Roadmap{Sections: []*roadmap.Section{}}
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, title, created_at, updated_at FROM roadmaps WHERE user_id = $1`, userID,
	).Scan(&rm.ID, &rm.UserID, &rm.Title, &rm.CreatedAt, &rm.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFoundMsg("you have not created a roadmap yet")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load roadmap: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, predefined_section_id::text, title, position FROM roadmap_sections
		WHERE roadmap_id = $1 ORDER BY position, title`, rm.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roadmap sections: %w", err)
	}
	byID := map[string]*roadmap.Section{}
	for rows.Next() {
		sec := &roadmap.Section{Topics: []*roadmap.Topic{}}
		if err := rows.Scan(&sec.ID, &sec.PredefinedSectionID, &sec.Title, &sec.Position); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan roadmap section: %w", err)
		}
		rm.Sections = append(rm.Sections, sec)
		byID[sec.ID] = sec
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(ctx, `
		SELECT t.id, t.section_id, t.predefined_topic_id::text, t.title, t.position, t.completed, t.completed_at, t.notes
		FROM roadmap_topics t JOIN roadmap_sections s ON s.id = t.section_id
		WHERE s.roadmap_id = $1 ORDER BY t.position, t.title`, rm.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roadmap topics: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		t := &roadmap.Topic{}
		if err := rows.Scan(&t.ID, &t.SectionID, &t.PredefinedTopicID, &t.Title, &t.Position,
			&t.Completed, &t.CompletedAt, &t.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan roadmap topic: %w", err)
		}
		if sec, ok := byID[t.SectionID]; ok {
			sec.Topics = append(sec.Topics, t)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rm.ComputeProgress()
	return rm, nil
}

// UpdateTopic marks progress on one topic. The topic must belong to userID's roadmap.
func (s *RoadmapService) UpdateTopic(ctx context.Context, userID, topicID string, req *roadmap.UpdateTopicRequest) (*roadmap.Topic, error) {
	if !validUUID(topicID) {
		return nil, apperror.NotFound("topic", topicID)
	}

	var owner string
	err := s.db.QueryRow(ctx, `
		SELECT r.user_id FROM roadmap_topics t
		JOIN roadmap_sections s ON s.id = t.section_id
		JOIN roadmaps r ON r.id = s.roadmap_id
		WHERE t.id = $1`, topicID).Scan(&owner)
	if err != nil {
		return nil, notFoundOr(err, "topic", topicID)
	}
	if owner != userID {
		return nil, apperror.Forbidden("this topic belongs to another roadmap")
	}

	t := &roadmap.Topic{}
	err = s.db.QueryRow(ctx, `
		UPDATE roadmap_topics SET
			completed = COALESCE($2, completed),
			completed_at = CASE
				WHEN $2::boolean IS NULL THEN completed_at
				WHEN $2 THEN COALESCE(completed_at, NOW())
				ELSE NULL END,
			notes = COALESCE($3, notes)
		WHERE id = $1
		RETURNING id, section_id, predefined_topic_id::text, title, position, completed, completed_at, notes`,
		topicID, req.Completed, req.Notes,
	).Scan(&t.ID, &t.SectionID, &t.PredefinedTopicID, &t.Title, &t.Position, &t.Completed, &t.CompletedAt, &t.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to update topic: %w", err)
	}

	if _, err := s.db.Exec(ctx, `
		UPDATE roadmaps SET updated_at = NOW()
		WHERE id = (SELECT roadmap_id FROM roadmap_sections WHERE id = $1)`, t.SectionID); err != nil {
		s.logger.Warn("failed to touch roadmap", zap.Error(err))
	}
	return t, nil
}

// Sync copies predefined sections and topics added since the roadmap was cloned.
func (s *RoadmapService) Sync(ctx context.Context, userID string) (*roadmap.SyncResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id string
	if err := tx.QueryRow(ctx, `SELECT id FROM roadmaps WHERE user_id = $1 FOR UPDATE`, userID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFoundMsg("you have not created a roadmap yet")
		}
		return nil, fmt.Errorf("failed to load roadmap: %w", err)
	}

	sections, err := tx.Exec(ctx, cloneSectionsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("failed to sync sections: %w", err)
	}
	topics, err := tx.Exec(ctx, cloneTopicsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("failed to sync topics: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE roadmaps SET updated_at = NOW() WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to touch roadmap: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit sync: %w", err)
	}

	res := &roadmap.SyncResult{SectionsAdded: int(sections.RowsAffected()), TopicsAdded: int(topics.RowsAffected())}
	s.logger.Info("roadmap synced", zap.String("user_id", userID),
		zap.Int("sections", res.SectionsAdded), zap.Int("topics", res.TopicsAdded))
	return res, nil
}

func (s *RoadmapService) Delete(ctx context.Context, userID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM roadmaps WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete roadmap: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFoundMsg("you have not created a roadmap yet")
	}
	return nil
}
