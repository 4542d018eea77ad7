package curriculum

import "time"

type Section struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Position    int       `json:"position"`
	Topics      []*Topic  `json:"topics,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Topic struct {
	ID          string      `json:"id"`
	SectionID   string      `json:"sectionId"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Position    int         `json:"position"`
	Resources   []*Resource `json:"resources,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type Resource struct {
	ID        string    `json:"id"`
	TopicID   string    `json:"topicId"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Kind      string    `json:"kind"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type SectionRequest struct {
	Title       string `json:"title" validate:"required,min=2,max=120"`
	Description string `json:"description" validate:"max=1000"`
	Position    int    `json:"position" validate:"gte=0"`
}

type TopicRequest struct {
	SectionID   string `json:"sectionId" validate:"required,uuid"`
	Title       string `json:"title" validate:"required,min=2,max=120"`
	Description string `json:"description" validate:"max=1000"`
	Position    int    `json:"position" validate:"gte=0"`
}

type ResourceRequest struct {
	TopicID  string `json:"topicId" validate:"required,uuid"`
	Title    string `json:"title" validate:"required,min=2,max=200"`
	URL      string `json:"url" validate:"required,url"`
	Kind     string `json:"kind" validate:"omitempty,oneof=article video problem course"`
	Position int    `json:"position" validate:"gte=0"`
}
