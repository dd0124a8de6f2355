package interview

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeFallsBackWhenClassifierFails(t *testing.T) {
	a := NewAnalyzer(&stubChat{fn: func(string, string) (string, error) {
		return "", errors.New("service unavailable")
	}}, AnalyzerConfig{}, nil)

	analysis := a.Analyze(context.Background(), "Q", longAnswer(20), nil)
	assert.Equal(t, IntentNormal, analysis.Intent)
	assert.True(t, analysis.Complete)
	assert.Equal(t, 20, analysis.WordCount)
}

func TestAnalyzeFallsBackOnTimeout(t *testing.T) {
	a := NewAnalyzer(&stubChat{fn: func(string, string) (string, error) {
		time.Sleep(50 * time.Millisecond)
		return `{"intent":"offtopic"}`, nil
	}}, AnalyzerConfig{Timeout: time.Millisecond}, nil)

	analysis := a.Analyze(context.Background(), "Q", longAnswer(20), nil)
	assert.Equal(t, IntentNormal, analysis.Intent)
	assert.True(t, analysis.Complete)
}

func TestAnalyzeParsesFencedJSON(t *testing.T) {
	a := NewAnalyzer(&stubChat{fn: func(string, string) (string, error) {
		return "```json\n{\"intent\":\"clarify_request\",\"complete\":false,\"quality\":\"brief\",\"missing_elements\":[\"an example\"]}\n```", nil
	}}, AnalyzerConfig{}, nil)

	analysis := a.Analyze(context.Background(), "Q", "what do you mean?", nil)
	assert.Equal(t, IntentClarifyRequest, analysis.Intent)
	assert.False(t, analysis.Complete)
	assert.Equal(t, QualityBrief, analysis.Quality)
	assert.Equal(t, []string{"an example"}, analysis.MissingElements)
}

func TestAnalyzeLeniencyOverridesModelVerdict(t *testing.T) {
	// The model calls a long hedged answer incomplete; the word
	// threshold overrules it.
	a := NewAnalyzer(&stubChat{fn: func(string, string) (string, error) {
		return `{"intent":"normal","complete":false,"quality":"adequate"}`, nil
	}}, AnalyzerConfig{MinAnswerWords: 15}, nil)

	analysis := a.Analyze(context.Background(), "Q", longAnswer(20), nil)
	assert.True(t, analysis.Complete)
}

func TestAnalyzeInvalidIntentDefaultsToNormal(t *testing.T) {
	a := NewAnalyzer(&stubChat{fn: func(string, string) (string, error) {
		return `{"intent":"banana","complete":true}`, nil
	}}, AnalyzerConfig{}, nil)

	analysis := a.Analyze(context.Background(), "Q", longAnswer(20), nil)
	assert.Equal(t, IntentNormal, analysis.Intent)
}

func TestAnalyzeGarbageResponseFallsBack(t *testing.T) {
	a := NewAnalyzer(&stubChat{fn: func(string, string) (string, error) {
		return "I'd rather chat about the weather.", nil
	}}, AnalyzerConfig{}, nil)

	analysis := a.Analyze(context.Background(), "Q", longAnswer(20), nil)
	assert.Equal(t, IntentNormal, analysis.Intent)
	assert.True(t, analysis.Complete)
}

func TestLocalAnalysisDetectsRepeatAndClarify(t *testing.T) {
	a := NewAnalyzer(nil, AnalyzerConfig{}, nil)

	repeat := a.Analyze(context.Background(), "Q", "sorry, could you say that again?", nil)
	assert.Equal(t, IntentRepeatRequest, repeat.Intent)

	clarify := a.Analyze(context.Background(), "Q", "I don't understand the question", nil)
	assert.Equal(t, IntentClarifyRequest, clarify.Intent)
}

func TestLocalAnalysisHedgingAndSpecificity(t *testing.T) {
	a := NewAnalyzer(nil, AnalyzerConfig{}, nil)

	hedged := a.Analyze(context.Background(), "Q", "I guess it could work somehow "+longAnswer(12), nil)
	assert.True(t, hedged.Hedged)
	assert.False(t, hedged.Specific)

	specific := a.Analyze(context.Background(), "Q", "we cut latency by 40 percent, for example in the checkout flow", nil)
	assert.True(t, specific.Specific)
}

func TestAnalyzePromptEmbedsHistoryWindow(t *testing.T) {
	var captured string
	a := NewAnalyzer(&stubChat{fn: func(_, user string) (string, error) {
		captured = user
		return `{"intent":"normal","complete":true}`, nil
	}}, AnalyzerConfig{HistoryWindow: 2}, nil)

	history := []Turn{
		{Speaker: SpeakerAI, Text: "old turn"},
		{Speaker: SpeakerAI, Text: "second turn"},
		{Speaker: SpeakerCandidate, Text: "third turn"},
	}
	a.Analyze(context.Background(), "the question", "the answer", history)

	require.NotEmpty(t, captured)
	assert.Contains(t, captured, "the question")
	assert.Contains(t, captured, "the answer")
	assert.Contains(t, captured, "third turn")
	assert.NotContains(t, captured, "old turn")
}

func TestQualityForWordCount(t *testing.T) {
	assert.Equal(t, QualityBrief, qualityForWordCount(5))
	assert.Equal(t, QualityAdequate, qualityForWordCount(30))
	assert.Equal(t, QualityDetailed, qualityForWordCount(100))
	assert.Equal(t, QualityComprehensive, qualityForWordCount(200))
}
