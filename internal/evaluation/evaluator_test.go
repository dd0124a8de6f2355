package evaluation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxhire/gateway/internal/interview"
)

type stubChat struct {
	fn func(system, user string) (string, error)
}

func (s *stubChat) Chat(_ context.Context, system, user string) (string, error) {
	return s.fn(system, user)
}

func completedSession() *interview.Session {
	return &interview.Session{
		ID:        "s1",
		Candidate: interview.Candidate{Name: "Alice"},
		Role:      "Engineer",
		Phase:     interview.PhaseCompleted,
		Status:    interview.StatusCompleted,
		Responses: []interview.QuestionResponse{
			{QuestionIndex: 0, QuestionText: "Tell me about yourself.", AnswerText: "I build backend systems."},
			{
				QuestionIndex: 1,
				QuestionText:  "Describe a hard bug.",
				AnswerText:    "A race condition in our payment worker that took three days to isolate.",
				Analysis:      &interview.Analysis{Quality: interview.QualityDetailed},
			},
		},
		History: []interview.Turn{
			{Speaker: interview.SpeakerAI, Text: "Hello Alice"},
			{Speaker: interview.SpeakerCandidate, Text: "Hi"},
		},
	}
}

func TestEvaluateParsesLLMReport(t *testing.T) {
	e := New(&stubChat{fn: func(_, user string) (string, error) {
		assert.Contains(t, user, "Describe a hard bug.")
		return "```json\n" + `{
			"overall_score": 7.5,
			"recommendation": "hire",
			"summary": "Solid backend candidate.",
			"questions": [
				{"index": 0, "score": 6, "notes": "brief intro"},
				{"index": 1, "score": "8", "notes": "good depth"}
			]
		}` + "\n```", nil
	}}, Config{}, nil)

	report := e.Evaluate(context.Background(), completedSession())
	assert.False(t, report.Heuristic)
	assert.Equal(t, 7.5, report.OverallScore)
	assert.Equal(t, RecommendHire, report.Recommendation)
	assert.Equal(t, "Solid backend candidate.", report.Summary)
	require.Len(t, report.Questions, 2)
	assert.Equal(t, "Describe a hard bug.", report.Questions[1].Question)
	assert.Equal(t, 8.0, report.Questions[1].Score)
}

func TestEvaluateClampsAndDerivesRecommendation(t *testing.T) {
	e := New(&stubChat{fn: func(string, string) (string, error) {
		return `{"overall_score": 14, "recommendation": "definitely"}`, nil
	}}, Config{}, nil)

	report := e.Evaluate(context.Background(), completedSession())
	assert.Equal(t, 10.0, report.OverallScore)
	assert.Equal(t, RecommendStrongHire, report.Recommendation)
}

func TestEvaluateFallsBackToHeuristicOnError(t *testing.T) {
	e := New(&stubChat{fn: func(string, string) (string, error) {
		return "", errors.New("model down")
	}}, Config{}, nil)

	report := e.Evaluate(context.Background(), completedSession())
	assert.True(t, report.Heuristic)
	assert.Len(t, report.Questions, 2)
	assert.NotZero(t, report.OverallScore)
	assert.NotEmpty(t, report.Recommendation)
}

func TestEvaluateFallsBackOnGarbageResponse(t *testing.T) {
	e := New(&stubChat{fn: func(string, string) (string, error) {
		return "the candidate was nice", nil
	}}, Config{}, nil)

	report := e.Evaluate(context.Background(), completedSession())
	assert.True(t, report.Heuristic)
}

func TestEvaluateNilClientIsHeuristic(t *testing.T) {
	e := New(nil, Config{}, nil)

	report := e.Evaluate(context.Background(), completedSession())
	assert.True(t, report.Heuristic)
	assert.Equal(t, "s1", report.SessionID)
	assert.NotEmpty(t, report.ID)
}

func TestHeuristicScoreUsesCachedQuality(t *testing.T) {
	detailed := interview.QuestionResponse{
		AnswerText: "short",
		Analysis:   &interview.Analysis{Quality: interview.QualityDetailed},
	}
	assert.Equal(t, 7.5, heuristicScore(detailed))

	brief := interview.QuestionResponse{AnswerText: "short answer"}
	assert.Equal(t, 3.0, heuristicScore(brief))
}

func TestRecommendationForScore(t *testing.T) {
	assert.Equal(t, RecommendStrongHire, recommendationForScore(8.2))
	assert.Equal(t, RecommendHire, recommendationForScore(6))
	assert.Equal(t, RecommendNoHire, recommendationForScore(3))
}
