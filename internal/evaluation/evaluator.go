// Package evaluation scores a completed interview session. One LLM
// pass produces per-question scores and a recommendation; when the
// pass fails, a deterministic heuristic keeps the report flowing.
package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voxhire/gateway/internal/interview"
	"github.com/voxhire/gateway/internal/logger"
	"github.com/voxhire/gateway/internal/metrics"
	"github.com/voxhire/gateway/internal/prompts"
	"github.com/voxhire/gateway/internal/resilient"
)

// Recommendation is the evaluator's hiring verdict.
type Recommendation string

const (
	RecommendStrongHire Recommendation = "strong_hire"
	RecommendHire       Recommendation = "hire"
	RecommendNoHire     Recommendation = "no_hire"
)

// QuestionScore grades one answered question.
type QuestionScore struct {
	QuestionIndex int     `json:"question_index"`
	Question      string  `json:"question"`
	Score         float64 `json:"score"`
	Notes         string  `json:"notes,omitempty"`
}

// Report is the evaluator's output for one completed session.
type Report struct {
	ID             string          `json:"id"`
	SessionID      string          `json:"session_id"`
	CandidateName  string          `json:"candidate_name"`
	Role           string          `json:"role"`
	OverallScore   float64         `json:"overall_score"`
	Recommendation Recommendation  `json:"recommendation"`
	Summary        string          `json:"summary"`
	Questions      []QuestionScore `json:"questions"`
	Heuristic      bool            `json:"heuristic"` // true when the LLM pass failed
	CreatedAt      time.Time       `json:"created_at"`
}

// ChatClient mirrors the orchestrator's one-exchange model contract.
type ChatClient interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

// Config tunes the evaluator.
type Config struct {
	Timeout time.Duration
}

// Evaluator produces reports for completed sessions.
type Evaluator struct {
	client ChatClient
	cfg    Config
	logger *zap.Logger
}

// New creates an evaluator. client may be nil, forcing heuristic reports.
func New(client ChatClient, cfg Config, log *zap.Logger) *Evaluator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{client: client, cfg: cfg, logger: log}
}

// Evaluate scores a completed session. It never returns an error: a
// failed or unparseable LLM pass degrades to the heuristic report.
func (e *Evaluator) Evaluate(ctx context.Context, s *interview.Session) *Report {
	report := &Report{
		ID:            uuid.NewString(),
		SessionID:     s.ID,
		CandidateName: s.Candidate.Name,
		Role:          s.Role,
		CreatedAt:     time.Now().UTC(),
	}

	if e.client == nil {
		e.heuristic(s, report)
		return report
	}

	start := time.Now()
	raw, err := resilient.Do(ctx, e.cfg.Timeout, "", func(ctx context.Context) (string, error) {
		return e.client.Chat(ctx, prompts.EvaluatorSystem, buildPrompt(s))
	})
	if err != nil {
		metrics.Fallbacks.WithLabelValues("evaluate").Inc()
		e.logger.Warn("evaluation call failed, using heuristic scoring",
			zap.String("session_id", s.ID),
			zap.Error(err),
		)
		e.heuristic(s, report)
		return report
	}
	metrics.StageDuration.WithLabelValues("evaluate").Observe(time.Since(start).Seconds())

	if err := parseReport(raw, s, report); err != nil {
		metrics.Fallbacks.WithLabelValues("evaluate").Inc()
		e.logger.Warn("evaluation parse failed, using heuristic scoring",
			zap.String("session_id", s.ID),
			zap.Error(err),
			zap.String("response_preview", logger.Truncate(raw, 160)),
		)
		e.heuristic(s, report)
	}

	return report
}

func buildPrompt(s *interview.Session) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Role: %s\nCandidate: %s\n\nAnswers:\n", s.Role, s.Candidate.Name)
	for _, r := range s.Responses {
		fmt.Fprintf(&b, "[%d] Q: %s\nA: %s\n", r.QuestionIndex, r.QuestionText, r.AnswerText)
	}

	b.WriteString("\nTranscript:\n")
	for _, t := range s.History {
		fmt.Fprintf(&b, "%s: %s\n", t.Speaker, t.Text)
	}

	b.WriteString("\nEvaluate the interview.")
	return b.String()
}

var validRecommendations = map[Recommendation]bool{
	RecommendStrongHire: true,
	RecommendHire:       true,
	RecommendNoHire:     true,
}

func parseReport(raw string, s *interview.Session, report *Report) error {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return fmt.Errorf("parse evaluation response: %w", err)
	}

	overall := coerceFloat(data["overall_score"])
	if math.IsNaN(overall) {
		return fmt.Errorf("evaluation response missing overall_score")
	}
	report.OverallScore = clampScore(overall)
	report.Summary = coerceString(data["summary"])

	rec := Recommendation(strings.ToLower(coerceString(data["recommendation"])))
	if !validRecommendations[rec] {
		rec = recommendationForScore(report.OverallScore)
	}
	report.Recommendation = rec

	byIndex := make(map[int]interview.QuestionResponse, len(s.Responses))
	for _, r := range s.Responses {
		byIndex[r.QuestionIndex] = r
	}

	if questions, ok := data["questions"].([]any); ok {
		for _, q := range questions {
			entry, ok := q.(map[string]any)
			if !ok {
				continue
			}
			idx := int(coerceFloat(entry["index"]))
			resp, ok := byIndex[idx]
			if !ok {
				continue
			}
			score := coerceFloat(entry["score"])
			if math.IsNaN(score) {
				score = 0
			}
			report.Questions = append(report.Questions, QuestionScore{
				QuestionIndex: idx,
				Question:      resp.QuestionText,
				Score:         clampScore(score),
				Notes:         coerceString(entry["notes"]),
			})
		}
	}

	return nil
}

// heuristic scores purely from local signals: answer length and the
// analyzer's cached quality tier.
func (e *Evaluator) heuristic(s *interview.Session, report *Report) {
	report.Heuristic = true

	var total float64
	var scored int
	for _, r := range s.Responses {
		score := heuristicScore(r)
		report.Questions = append(report.Questions, QuestionScore{
			QuestionIndex: r.QuestionIndex,
			Question:      r.QuestionText,
			Score:         score,
			Notes:         "heuristic score",
		})
		total += score
		scored++
	}

	if scored > 0 {
		report.OverallScore = clampScore(total / float64(scored))
	}
	report.Recommendation = recommendationForScore(report.OverallScore)
	report.Summary = fmt.Sprintf("Heuristic evaluation over %d answered questions.", scored)
}

func heuristicScore(r interview.QuestionResponse) float64 {
	if r.Analysis != nil {
		switch r.Analysis.Quality {
		case interview.QualityComprehensive:
			return 9
		case interview.QualityDetailed:
			return 7.5
		case interview.QualityAdequate:
			return 6
		case interview.QualityBrief:
			return 3.5
		}
	}

	wc := len(strings.Fields(r.AnswerText))
	switch {
	case wc >= 150:
		return 8.5
	case wc >= 60:
		return 7
	case wc >= 15:
		return 5.5
	default:
		return 3
	}
}

func recommendationForScore(score float64) Recommendation {
	switch {
	case score >= 8:
		return RecommendStrongHire
	case score >= 5.5:
		return RecommendHire
	default:
		return RecommendNoHire
	}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}
