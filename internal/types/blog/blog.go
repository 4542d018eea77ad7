package blog

import "time"

type Post struct {
	ID            string     `json:"id"`
	Slug          string     `json:"slug"`
	Title         string     `json:"title"`
	Excerpt       string     `json:"excerpt"`
	Content       string     `json:"content,omitempty"`
	CoverImageURL *string    `json:"coverImageUrl,omitempty"`
	AuthorID      *string    `json:"authorId,omitempty"`
	AuthorName    *string    `json:"authorName,omitempty"`
	Published     bool       `json:"published"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type UpsertPostRequest struct {
	Slug      string `json:"slug" validate:"omitempty,max=120"`
	Title     string `json:"title" validate:"required,min=3,max=200"`
	Excerpt   string `json:"excerpt" validate:"max=500"`
	Content   string `json:"content" validate:"required"`
	Published bool   `json:"published"`
}

type ListResponse struct {
	Posts    []*Post `json:"posts"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
}
