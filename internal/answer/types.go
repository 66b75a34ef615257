package answer

// Request is one question about one report.
type Request struct {
	ReportID    string
	RequesterID string
	Tier        string
	Question    string

	// TopicHints, when supplied by the caller, take precedence over
	// keyword detection when generating follow-up suggestions.
	TopicHints []string
}

// Result is the outcome of answering a question. A quota denial sets Ok to
// false with an explanatory Message; it is not an error. Remaining is -1 for
// unlimited tiers.
type Result struct {
	Ok        bool
	Message   string
	Answer    string
	Citations []string
	FollowUps []string
	Remaining int
}

// AnswerPayload is the JSON contract the model must emit. Citations are
// 1-based reference numbers into the numbered context chunks of the prompt.
type AnswerPayload struct {
	PromptVersion string   `json:"promptVersion"`
	Answer        string   `json:"answer"`
	Citations     []int    `json:"citations,omitempty"`
	FollowUps     []string `json:"followUps,omitempty"`
}

// state tracks a request's progress through the answer pipeline.
type state int

const (
	stateBuildingContext state = iota
	stateAwaitingModel
	stateParsing
	stateDone
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateBuildingContext:
		return "building_context"
	case stateAwaitingModel:
		return "awaiting_model"
	case stateParsing:
		return "parsing"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
