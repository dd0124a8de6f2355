package interview

// ResponseType discriminates the orchestrator's output variants.
type ResponseType string

const (
	ResponseGreeting      ResponseType = "greeting"
	ResponseQuestion      ResponseType = "question"
	ResponseClarification ResponseType = "clarification"
	ResponseRepeat        ResponseType = "repeat"
	ResponseFollowUp      ResponseType = "followup"
	ResponseTransition    ResponseType = "transition"
	ResponseConclusion    ResponseType = "conclusion"
	ResponseCompleted     ResponseType = "completed"
)

// Response is the orchestrator's output contract for one interaction.
// Construct values through the typed constructors below so each variant
// carries only its relevant fields.
type Response struct {
	Type              ResponseType `json:"type"`
	Text              string       `json:"text"`
	Phase             Phase        `json:"phase"`
	QuestionIndex     *int         `json:"question_index,omitempty"`
	ExpectingResponse bool         `json:"expecting_response"`
}

// NewGreeting is returned on the first interaction of a session.
func NewGreeting(text string) *Response {
	return &Response{
		Type:              ResponseGreeting,
		Text:              text,
		Phase:             PhaseGreeting,
		ExpectingResponse: true,
	}
}

// NewQuestion carries a question asked outside a generated transition.
func NewQuestion(text string, phase Phase, index int) *Response {
	return &Response{
		Type:              ResponseQuestion,
		Text:              text,
		Phase:             phase,
		QuestionIndex:     &index,
		ExpectingResponse: true,
	}
}

// NewClarification rephrases the current question; index is unchanged.
func NewClarification(text string, phase Phase, index int) *Response {
	return &Response{
		Type:              ResponseClarification,
		Text:              text,
		Phase:             phase,
		QuestionIndex:     &index,
		ExpectingResponse: true,
	}
}

// NewRepeat restates the current question verbatim; index is unchanged.
func NewRepeat(text string, phase Phase, index int) *Response {
	return &Response{
		Type:              ResponseRepeat,
		Text:              text,
		Phase:             phase,
		QuestionIndex:     &index,
		ExpectingResponse: true,
	}
}

// NewFollowUp probes for elaboration on the current question.
func NewFollowUp(text string, phase Phase, index int) *Response {
	return &Response{
		Type:              ResponseFollowUp,
		Text:              text,
		Phase:             phase,
		QuestionIndex:     &index,
		ExpectingResponse: true,
	}
}

// NewTransition acknowledges the prior answer and introduces the next question.
func NewTransition(text string, phase Phase, index int) *Response {
	return &Response{
		Type:              ResponseTransition,
		Text:              text,
		Phase:             phase,
		QuestionIndex:     &index,
		ExpectingResponse: true,
	}
}

// NewConclusion closes the interview; no further response is expected.
func NewConclusion(text string) *Response {
	return &Response{
		Type:              ResponseConclusion,
		Text:              text,
		Phase:             PhaseCompleted,
		ExpectingResponse: false,
	}
}

// NewCompleted is the fixed descriptor returned for any interaction
// after the session has concluded.
func NewCompleted(text string) *Response {
	return &Response{
		Type:              ResponseCompleted,
		Text:              text,
		Phase:             PhaseCompleted,
		ExpectingResponse: false,
	}
}
