package roadmap

import "time"

type Roadmap struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Title     string     `json:"title"`
	Sections  []*Section `json:"sections"`
	Progress  float64    `json:"progress"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type Section struct {
	ID                  string   `json:"id"`
	PredefinedSectionID *string  `json:"predefinedSectionId,omitempty"`
	Title               string   `json:"title"`
	Position            int      `json:"position"`
	Topics              []*Topic `json:"topics"`
	Progress            float64  `json:"progress"`
}

type Topic struct {
	ID                string     `json:"id"`
	SectionID         string     `json:"sectionId"`
	PredefinedTopicID *string    `json:"predefinedTopicId,omitempty"`
	Title             string     `json:"title"`
	Position          int        `json:"position"`
	Completed         bool       `json:"completed"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
	Notes             string     `json:"notes"`
}

type UpdateTopicRequest struct {
	Completed *bool   `json:"completed,omitempty"`
	Notes     *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type SyncResult struct {
	SectionsAdded int `json:"sectionsAdded"`
	TopicsAdded   int `json:"topicsAdded"`
}

// ComputeProgress fills the per-section and overall completion percentages.
func (r *Roadmap) ComputeProgress() {
	var done, total int
	for _, s := range r.Sections {
		var sDone int
		for _, t := range s.Topics {
			if t.Completed {
				sDone++
			}
		}
		s.Progress = percent(sDone, len(s.Topics))
		done += sDone
		total += len(s.Topics)
	}
	r.Progress = percent(done, total)
}

func percent(done, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(int(float64(done)*10000/float64(total))) / 100
}
