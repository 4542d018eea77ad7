package services

import (
	"context"
	"fmt"
	"io"

	"campusRankAPI/internal/apperror"
	"campusRankAPI/internal/storage"
	"campusRankAPI/internal/types/blog"
	"campusRankAPI/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type BlogService struct {
	db     *pgxpool.Pool
	images storage.ImageStore
	logger *zap.Logger
}

func NewBlogService(db *pgxpool.Pool, images storage.ImageStore) *BlogService {
	return &BlogService{db: db, images: images, logger: zap.L().Named("blogs")}
}

const postColumns = `p.id, p.slug, p.title, p.excerpt, p.content, p.cover_image_url, p.author_id::text,
	NULLIF(u.name, ''), p.published, p.published_at, p.created_at, p.updated_at`

const postFrom = ` FROM blog_posts p LEFT JOIN users u ON u.id = p.author_id`

func scanPost(row pgx.Row) (*blog.Post, error) {
	p := &blog.Post{}
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Excerpt, &p.Content, &p.CoverImageURL, &p.AuthorID,
		&p.AuthorName, &p.Published, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// List pages through posts newest first. Drafts are only included for admins.
func (s *BlogService) List(ctx context.Context, page, pageSize int, includeDrafts bool) (*blog.ListResponse, error) {
	page, pageSize = clampPage(page, pageSize, 10, 50)

	where := ` WHERE p.published`
	if includeDrafts {
		where = ``
	}

	resp := &blog.ListResponse{Posts: []*blog.Post{}, Page: page, PageSize: pageSize}
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*)`+postFrom+where).Scan(&resp.Total); err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+postColumns+postFrom+where+` ORDER BY COALESCE(p.published_at, p.created_at) DESC LIMIT $1 OFFSET $2`,
		pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		// listings carry the excerpt only
		p.Content = ""
		resp.Posts = append(resp.Posts, p)
	}
	return resp, rows.Err()
}

func (s *BlogService) GetBySlug(ctx context.Context, slug string, includeDrafts bool) (*blog.Post, error) {
	p, err := scanPost(s.db.QueryRow(ctx, `SELECT `+postColumns+postFrom+` WHERE p.slug = $1`, slug))
	if err != nil {
		return nil, notFoundOr(err, "post", slug)
	}
	if !p.Published && !includeDrafts {
		return nil, apperror.NotFound("post", slug)
	}
	return p, nil
}

func (s *BlogService) getByID(ctx context.Context, id string) (*blog.Post, error) {
	p, err := scanPost(s.db.QueryRow(ctx, `SELECT `+postColumns+postFrom+` WHERE p.id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "post", id)
	}
	return p, nil
}

func (s *BlogService) Create(ctx context.Context, authorID string, req *blog.UpsertPostRequest) (*blog.Post, error) {
	slug := postSlug(req)

	var id string
	err := s.db.QueryRow(ctx, `
		INSERT INTO blog_posts (slug, title, excerpt, content, author_id, published, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, CASE WHEN $6 THEN NOW() END)
		RETURNING id`,
		slug, req.Title, req.Excerpt, req.Content, authorID, req.Published,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Conflict(fmt.Sprintf("a post with slug %q already exists", slug))
		}
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.logger.Info("post created", zap.String("id", id), zap.Bool("published", req.Published))
	return s.getByID(ctx, id)
}

// Update rewrites a post. published_at is stamped the first time it goes live and kept after that.
func (s *BlogService) Update(ctx context.Context, id string, req *blog.UpsertPostRequest) (*blog.Post, error) {
	if !validUUID(id) {
		return nil, apperror.NotFound("post", id)
	}
	slug := postSlug(req)

	tag, err := s.db.Exec(ctx, `
		UPDATE blog_posts SET slug = $2, title = $3, excerpt = $4, content = $5, published = $6,
			published_at = CASE WHEN $6 THEN COALESCE(published_at, NOW()) ELSE published_at END,
			updated_at = NOW()
		WHERE id = $1`,
		id, slug, req.Title, req.Excerpt, req.Content, req.Published)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Conflict(fmt.Sprintf("a post with slug %q already exists", slug))
		}
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperror.NotFound("post", id)
	}
	return s.getByID(ctx, id)
}

func (s *BlogService) Delete(ctx context.Context, id string) error {
	if !validUUID(id) {
		return apperror.NotFound("post", id)
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("post", id)
	}
	return nil
}

func (s *BlogService) UploadCover(ctx context.Context, id string, file io.Reader) (*blog.Post, error) {
	if !validUUID(id) {
		return nil, apperror.NotFound("post", id)
	}
	if _, err := s.getByID(ctx, id); err != nil {
		return nil, err
	}

	url, err := s.images.UploadBlogCover(ctx, file, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(ctx, `UPDATE blog_posts SET cover_image_url = $2, updated_at = NOW() WHERE id = $1`, id, url); err != nil {
		return nil, fmt.Errorf("failed to save cover: %w", err)
	}
	return s.getByID(ctx, id)
}

func (s *BlogService) CountPublished(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM blog_posts WHERE published`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return n, nil
}

func postSlug(req *blog.UpsertPostRequest) string {
	if req.Slug != "" {
		return utils.SlugOrRandom(req.Slug)
	}
	return utils.SlugOrRandom(req.Title)
}
