package errorlog

import "time"

type Entry struct {
	ID        string    `json:"id"`
	Route     string    `json:"route"`
	Method    string    `json:"method"`
	Message   string    `json:"message"`
	Detail    string    `json:"detail"`
	UserID    *string   `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
