package interview

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStubWriter(t *testing.T, fn func(system, user string) (string, error)) *Writer {
	t.Helper()
	w, err := NewWriter(&stubChat{fn: fn}, WriterConfig{}, nil)
	require.NoError(t, err)
	return w
}

func TestGenerateFallsBackToCanonicalOnError(t *testing.T) {
	w := newStubWriter(t, func(string, string) (string, error) {
		return "", errors.New("generation down")
	})

	text := w.Generate(context.Background(), CategoryCoreToCore, PromptContext{Question: "What is your greatest strength?"})
	assert.Contains(t, text, "What is your greatest strength?")
}

func TestGenerateAppendsQuestionWhenOmitted(t *testing.T) {
	w := newStubWriter(t, func(string, string) (string, error) {
		return "That sounds like a great experience!", nil
	})

	question := "How do you approach debugging?"
	text := w.Generate(context.Background(), CategoryCoreToCore, PromptContext{Question: question})
	assert.Contains(t, text, "That sounds like a great experience!")
	assert.Contains(t, text, question)
}

func TestGenerateAcceptsNearVerbatimQuestion(t *testing.T) {
	w := newStubWriter(t, func(string, string) (string, error) {
		return "Nice! So, how do you approach debugging.", nil
	})

	text := w.Generate(context.Background(), CategoryCoreToCore, PromptContext{Question: "How do you approach debugging?"})
	// Punctuation differs but the question is recognizably present, so
	// nothing is appended.
	assert.Equal(t, "Nice! So, how do you approach debugging.", text)
}

func TestGenerateRepeatRequiresVerbatimQuestion(t *testing.T) {
	question := "How do you approach debugging?"

	w := newStubWriter(t, func(string, string) (string, error) {
		return "Sure, the question was about how you approach debugging.", nil
	})

	text := w.Generate(context.Background(), CategoryRepeat, PromptContext{Question: question})
	assert.Contains(t, text, question)
}

func TestGenerateStripsMetaInstructionLeakage(t *testing.T) {
	w := newStubWriter(t, func(string, string) (string, error) {
		return "Sure, here is the transition: Thanks! Next up: What motivates you?", nil
	})

	text := w.Generate(context.Background(), CategoryCoreToCore, PromptContext{Question: "What motivates you?"})
	assert.NotContains(t, text, "here is the transition")
	assert.Contains(t, text, "What motivates you?")
}

func TestGenerateCustomStripPattern(t *testing.T) {
	w, err := NewWriter(&stubChat{fn: func(string, string) (string, error) {
		return "INTERNAL: Thanks. What motivates you?", nil
	}}, WriterConfig{StripPatterns: []string{`(?i)^internal:\s*`}}, nil)
	require.NoError(t, err)

	text := w.Generate(context.Background(), CategoryCoreToCore, PromptContext{Question: "What motivates you?"})
	assert.NotContains(t, text, "INTERNAL")
}

func TestGenerateEmptyOutputFallsBack(t *testing.T) {
	w := newStubWriter(t, func(string, string) (string, error) {
		return "   ", nil
	})

	text := w.Generate(context.Background(), CategoryRepeat, PromptContext{Question: "Q?"})
	assert.Contains(t, text, "Q?")
}

func TestGenerateNilClientUsesCanonical(t *testing.T) {
	w, err := NewWriter(nil, WriterConfig{}, nil)
	require.NoError(t, err)

	greeting := w.Generate(context.Background(), CategoryGreeting, PromptContext{CandidateName: "Alice", Role: "Engineer"})
	assert.Contains(t, greeting, "Alice")
	assert.Contains(t, greeting, "Engineer")

	conclusion := w.Generate(context.Background(), CategoryConclusion, PromptContext{CandidateName: "Alice"})
	assert.Contains(t, conclusion, "Alice")

	followup := w.Generate(context.Background(), CategoryFollowUp, PromptContext{MissingElements: []string{"a concrete metric"}})
	assert.Contains(t, followup, "a concrete metric")
}

func TestInvalidStripPatternFails(t *testing.T) {
	_, err := NewWriter(nil, WriterConfig{StripPatterns: []string{"("}}, nil)
	require.Error(t, err)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "how do you approach debugging", normalize("  How do you APPROACH debugging?!  "))
	assert.Equal(t, normalize("a  b\tc"), normalize("a b c"))
}
