package question

type TestCaseInput struct {
	Input       string `json:"input" validate:"required"`
	Output      string `json:"output" validate:"required"`
	Explanation string `json:"explanation"`
	Hidden      bool   `json:"hidden"`
}

type SampleCodeInput struct {
	Language string `json:"language" validate:"required,max=32"`
	Code     string `json:"code" validate:"required"`
}

type UpsertQuestionRequest struct {
	Slug        string            `json:"slug" validate:"omitempty,max=120"`
	Title       string            `json:"title" validate:"required,min=3,max=200"`
	Description string            `json:"description" validate:"required"`
	Difficulty  Difficulty        `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Tags        []string          `json:"tags" validate:"omitempty,dive,min=1,max=40"`
	TopicID     *string           `json:"topicId,omitempty" validate:"omitempty,uuid"`
	Points      int               `json:"points" validate:"gte=0,lte=1000"`
	TestCases   []TestCaseInput   `json:"testCases" validate:"omitempty,dive"`
	SampleCodes []SampleCodeInput `json:"sampleCodes" validate:"omitempty,dive"`
	Constraints []string          `json:"constraints" validate:"omitempty,dive,required"`
}
