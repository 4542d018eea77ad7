package question

import "time"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type Question struct {
	ID          string        `json:"id"`
	Slug        string        `json:"slug"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Difficulty  Difficulty    `json:"difficulty"`
	Tags        []string      `json:"tags"`
	TopicID     *string       `json:"topicId,omitempty"`
	Points      int           `json:"points"`
	TestCases   []*TestCase   `json:"testCases,omitempty"`
	SampleCodes []*SampleCode `json:"sampleCodes,omitempty"`
	Constraints []*Constraint `json:"constraints,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

type TestCase struct {
	ID          string `json:"id"`
	Input       string `json:"input"`
	Output      string `json:"output"`
	Explanation string `json:"explanation"`
	Hidden      bool   `json:"hidden"`
	Position    int    `json:"position"`
}

type SampleCode struct {
	ID       string `json:"id"`
	Language string `json:"language"`
	Code     string `json:"code"`
}

type Constraint struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Position int    `json:"position"`
}

type Filter struct {
	Difficulty string
	Tag        string
	TopicID    string
	Search     string
}
