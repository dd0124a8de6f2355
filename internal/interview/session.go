// Package interview implements the dialogue orchestrator for automated
// job interviews: a per-session phase state machine, an utterance
// analyzer, a follow-up policy, and a transition text writer.
package interview

import "time"

// Phase is one of the five top-level stages of an interview session.
// Phases only ever move forward.
type Phase string

const (
	PhaseGreeting      Phase = "greeting"
	PhaseWarmup        Phase = "warmup"
	PhaseCoreQuestions Phase = "core_questions"
	PhaseClosing       Phase = "closing"
	PhaseCompleted     Phase = "completed"
)

var phaseOrder = map[Phase]int{
	PhaseGreeting:      0,
	PhaseWarmup:        1,
	PhaseCoreQuestions: 2,
	PhaseClosing:       3,
	PhaseCompleted:     4,
}

// Order returns the position of the phase in the forward walk, for
// monotonicity checks.
func (p Phase) Order() int {
	return phaseOrder[p]
}

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerAI        Speaker = "ai"
	SpeakerCandidate Speaker = "candidate"
)

// TurnType categorizes a conversation turn.
type TurnType string

const (
	TurnGreeting      TurnType = "greeting"
	TurnQuestion      TurnType = "question"
	TurnClarification TurnType = "clarification"
	TurnRepeat        TurnType = "repeat"
	TurnFollowUp      TurnType = "followup"
	TurnTransition    TurnType = "transition"
	TurnConclusion    TurnType = "conclusion"
	TurnAnswer        TurnType = "answer"
)

// Turn is one utterance by either party in the conversation history.
type Turn struct {
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Type      TurnType  `json:"type"`
}

// Candidate identifies the person being interviewed.
type Candidate struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// QuestionResponse is the recorded answer to one question, at most one
// per question index.
type QuestionResponse struct {
	QuestionIndex int       `json:"question_index"`
	QuestionText  string    `json:"question_text"`
	AnswerText    string    `json:"answer_text"`
	Timestamp     time.Time `json:"timestamp"`
	Analysis      *Analysis `json:"analysis,omitempty"`
}

// Status reflects whether a session is still running.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Session is the complete mutable record of one candidate's interview
// run. All mutation happens inside the Engine while holding the
// session's lock.
type Session struct {
	ID            string             `json:"id"`
	Candidate     Candidate          `json:"candidate"`
	Role          string             `json:"role"`
	Questions     []string           `json:"questions"`
	Phase         Phase              `json:"phase"`
	QuestionIndex int                `json:"question_index"` // -1 before any question
	History       []Turn             `json:"history"`
	Responses     []QuestionResponse `json:"responses"`
	FollowUps     map[int]int        `json:"follow_ups"`
	MaxFollowUps  *int               `json:"max_follow_ups,omitempty"` // per-session ceiling override

	StartTime     time.Time          `json:"start_time"`
	EndTime       *time.Time         `json:"end_time,omitempty"`
	Status        Status             `json:"status"`
}

// CurrentQuestion returns the question at the session's current index,
// or "" before the first question is asked.
func (s *Session) CurrentQuestion() string {
	if s.QuestionIndex < 0 || s.QuestionIndex >= len(s.Questions) {
		return ""
	}
	return s.Questions[s.QuestionIndex]
}

// lastCoreIndex is the index of the final core question; the closing
// question sits one past it.
func (s *Session) lastCoreIndex() int {
	return len(s.Questions) - 2
}

// Recent returns up to n most recent turns, oldest first.
func (s *Session) Recent(n int) []Turn {
	if n <= 0 || len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// HasResponse reports whether an answer is already recorded for the index.
func (s *Session) HasResponse(index int) bool {
	for _, r := range s.Responses {
		if r.QuestionIndex == index {
			return true
		}
	}
	return false
}

func (s *Session) appendTurn(speaker Speaker, text string, tt TurnType) {
	s.History = append(s.History, Turn{
		Speaker:   speaker,
		Text:      text,
		Timestamp: time.Now().UTC(),
		Type:      tt,
	})
}

func (s *Session) recordResponse(index int, question, answer string, analysis *Analysis) {
	if s.HasResponse(index) {
		return
	}
	s.Responses = append(s.Responses, QuestionResponse{
		QuestionIndex: index,
		QuestionText:  question,
		AnswerText:    answer,
		Timestamp:     time.Now().UTC(),
		Analysis:      analysis,
	})
}
