package report

import "time"

type Status string

const (
	StatusOpen      Status = "open"
	StatusInReview  Status = "in_review"
	StatusResolved  Status = "resolved"
	StatusDismissed Status = "dismissed"
)

type Report struct {
	ID               string    `json:"id"`
	ReporterID       string    `json:"reporterId"`
	ReporterUsername string    `json:"reporterUsername,omitempty"`
	ReportedUserID   *string   `json:"reportedUserId,omitempty"`
	Category         string    `json:"category"`
	Description      string    `json:"description"`
	Status           Status    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type CreateReportRequest struct {
	ReportedUserID *string `json:"reportedUserId,omitempty" validate:"omitempty,uuid"`
	Category       string  `json:"category" validate:"required,oneof=bug incorrect_stats abuse other"`
	Description    string  `json:"description" validate:"required,min=10,max=2000"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required,oneof=open in_review resolved dismissed"`
}
