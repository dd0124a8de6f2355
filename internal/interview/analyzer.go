package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/voxhire/gateway/internal/logger"
	"github.com/voxhire/gateway/internal/metrics"
	"github.com/voxhire/gateway/internal/prompts"
	"github.com/voxhire/gateway/internal/resilient"
)

// ChatClient is the orchestrator's view of a text model: one system+user
// exchange in, one completion out.
type ChatClient interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

// Intent is the classified purpose of a candidate utterance.
type Intent string

const (
	IntentNormal           Intent = "normal"
	IntentRepeatRequest    Intent = "repeat_request"
	IntentClarifyRequest   Intent = "clarify_request"
	IntentSkipRequest      Intent = "skip_request"
	IntentCompletionSignal Intent = "completion_signal"
	IntentOffTopic         Intent = "offtopic"
)

// QualityTier grades the depth of an answer.
type QualityTier string

const (
	QualityBrief         QualityTier = "brief"
	QualityAdequate      QualityTier = "adequate"
	QualityDetailed      QualityTier = "detailed"
	QualityComprehensive QualityTier = "comprehensive"
)

// Analysis is the structured result of classifying one utterance.
// WordCount, Hedged, and Specific are computed locally; the rest come
// from the classification service with a lenient fallback.
type Analysis struct {
	Intent          Intent      `json:"intent"`
	Complete        bool        `json:"complete"`
	Quality         QualityTier `json:"quality"`
	MissingElements []string    `json:"missing_elements,omitempty"`
	WordCount       int         `json:"word_count"`
	Hedged          bool        `json:"hedged"`
	Specific        bool        `json:"specific"`
}

// AnalyzerConfig tunes the response analyzer.
type AnalyzerConfig struct {
	// MinAnswerWords is the leniency threshold: any utterance at or
	// above it is treated as complete.
	MinAnswerWords int
	// HistoryWindow is how many recent turns are embedded in the
	// classification prompt.
	HistoryWindow int
	// Timeout bounds the classification call.
	Timeout time.Duration
}

// Analyzer classifies candidate utterances through an external text
// model, degrading to a lenient local result on any failure.
type Analyzer struct {
	client ChatClient
	cfg    AnalyzerConfig
	logger *zap.Logger
}

// NewAnalyzer creates an analyzer. client may be nil, in which case
// every utterance gets the local fallback analysis.
func NewAnalyzer(client ChatClient, cfg AnalyzerConfig, log *zap.Logger) *Analyzer {
	if cfg.MinAnswerWords <= 0 {
		cfg.MinAnswerWords = 15
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 6 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{client: client, cfg: cfg, logger: log}
}

var (
	hedgingRe     = regexp.MustCompile(`(?i)\b(maybe|perhaps|i guess|i think|not sure|possibly|probably|kind of|sort of)\b`)
	specificityRe = regexp.MustCompile(`(?i)(\d+|for example|for instance|specifically|such as|e\.g\.|in my (last|previous|current) (role|job|project))`)
	repeatRe      = regexp.MustCompile(`(?i)\b(repeat|say (that|it) again|one more time|didn'?t (hear|catch))\b`)
	clarifyRe     = regexp.MustCompile(`(?i)\b(what do you mean|clarify|don'?t understand|rephrase|confus)`)
)

// Analyze classifies one utterance against the current question. It
// never returns an error: a failed or timed-out classification yields
// the lenient local fallback so the conversation is never blocked.
func (a *Analyzer) Analyze(ctx context.Context, question, utterance string, recent []Turn) Analysis {
	local := a.localAnalysis(utterance)

	if a.client == nil {
		return local
	}

	raw, err := resilient.Do(ctx, a.cfg.Timeout, "", func(ctx context.Context) (string, error) {
		return a.client.Chat(ctx, prompts.ClassifierSystem, a.buildPrompt(question, utterance, recent))
	})
	if err != nil {
		metrics.Fallbacks.WithLabelValues("classify").Inc()
		a.logger.Warn("classification failed, using fallback",
			zap.Error(err),
			zap.String("utterance_preview", logger.Truncate(utterance, 80)),
		)
		return local
	}

	parsed, err := parseAnalysis(raw)
	if err != nil {
		metrics.Fallbacks.WithLabelValues("classify").Inc()
		a.logger.Warn("classification parse failed, using fallback",
			zap.Error(err),
			zap.String("response_preview", logger.Truncate(raw, 120)),
		)
		return local
	}

	return a.merge(parsed, local)
}

// localAnalysis is the deterministic fallback: lenient completeness by
// word count, with regex checks for explicit repeat/clarify phrasing.
func (a *Analyzer) localAnalysis(utterance string) Analysis {
	wc := len(strings.Fields(utterance))

	analysis := Analysis{
		Intent:    IntentNormal,
		Complete:  wc >= a.cfg.MinAnswerWords,
		Quality:   qualityForWordCount(wc),
		WordCount: wc,
		Hedged:    hedgingRe.MatchString(utterance),
		Specific:  specificityRe.MatchString(utterance),
	}

	switch {
	case repeatRe.MatchString(utterance):
		analysis.Intent = IntentRepeatRequest
		analysis.Complete = false
	case clarifyRe.MatchString(utterance):
		analysis.Intent = IntentClarifyRequest
		analysis.Complete = false
	}

	return analysis
}

// merge overlays the classifier's verdict on the local heuristics,
// applying the leniency policy: a substantive answer over the word
// threshold is complete no matter what the model said.
func (a *Analyzer) merge(parsed, local Analysis) Analysis {
	out := parsed
	out.WordCount = local.WordCount
	out.Hedged = local.Hedged
	out.Specific = local.Specific

	if out.Quality == "" {
		out.Quality = local.Quality
	}
	if out.Intent == IntentNormal && local.WordCount >= a.cfg.MinAnswerWords {
		out.Complete = true
	}
	return out
}

func (a *Analyzer) buildPrompt(question, utterance string, recent []Turn) string {
	var b strings.Builder

	if len(recent) > 0 {
		window := recent
		if len(window) > a.cfg.HistoryWindow {
			window = window[len(window)-a.cfg.HistoryWindow:]
		}
		b.WriteString("Recent conversation:\n")
		for _, t := range window {
			fmt.Fprintf(&b, "%s: %s\n", t.Speaker, t.Text)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Current question: %s\n", question)
	fmt.Fprintf(&b, "Candidate utterance: %s\n", utterance)
	b.WriteString("\nClassify the utterance.")

	return b.String()
}

var validIntents = map[Intent]bool{
	IntentNormal:           true,
	IntentRepeatRequest:    true,
	IntentClarifyRequest:   true,
	IntentSkipRequest:      true,
	IntentCompletionSignal: true,
	IntentOffTopic:         true,
}

var validQualities = map[QualityTier]bool{
	QualityBrief:         true,
	QualityAdequate:      true,
	QualityDetailed:      true,
	QualityComprehensive: true,
}

func parseAnalysis(raw string) (Analysis, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return Analysis{}, fmt.Errorf("parse classification response: %w", err)
	}

	analysis := Analysis{
		Intent:   Intent(strings.ToLower(coerceString(data["intent"]))),
		Complete: coerceBool(data["complete"]),
		Quality:  QualityTier(strings.ToLower(coerceString(data["quality"]))),
	}

	if !validIntents[analysis.Intent] {
		analysis.Intent = IntentNormal
	}
	if !validQualities[analysis.Quality] {
		analysis.Quality = ""
	}

	if elems, ok := data["missing_elements"].([]any); ok {
		for _, e := range elems {
			if s := coerceString(e); s != "" {
				analysis.MissingElements = append(analysis.MissingElements, s)
			}
		}
	}

	return analysis, nil
}

func qualityForWordCount(wc int) QualityTier {
	switch {
	case wc < 15:
		return QualityBrief
	case wc < 60:
		return QualityAdequate
	case wc < 150:
		return QualityDetailed
	default:
		return QualityComprehensive
	}
}
