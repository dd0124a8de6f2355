package archive

import "time"

// Interview is one archived interview session.
type Interview struct {
	ID            string     `json:"id"`
	CandidateName string     `json:"candidate_name"`
	CandidateMail string     `json:"candidate_email,omitempty"`
	Role          string     `json:"role"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	Status        string     `json:"status"`
	TurnCount     int        `json:"turn_count,omitempty"`
	ResponseCount int        `json:"response_count,omitempty"`
}

// ArchivedTurn is one conversation turn of an archived interview.
type ArchivedTurn struct {
	InterviewID string    `json:"interview_id"`
	Position    int       `json:"position"`
	Speaker     string    `json:"speaker"`
	Text        string    `json:"text"`
	TurnType    string    `json:"turn_type"`
	SpokenAt    time.Time `json:"spoken_at"`
}

// ArchivedResponse is one recorded answer of an archived interview.
type ArchivedResponse struct {
	InterviewID   string    `json:"interview_id"`
	QuestionIndex int       `json:"question_index"`
	QuestionText  string    `json:"question_text"`
	AnswerText    string    `json:"answer_text"`
	AnsweredAt    time.Time `json:"answered_at"`
}

// ArchivedReport is the stored evaluation outcome for an interview.
type ArchivedReport struct {
	ID             string    `json:"id"`
	InterviewID    string    `json:"interview_id"`
	OverallScore   float64   `json:"overall_score"`
	Recommendation string    `json:"recommendation"`
	Summary        string    `json:"summary"`
	Heuristic      bool      `json:"heuristic"`
	CreatedAt      time.Time `json:"created_at"`
}
