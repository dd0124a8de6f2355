package interview

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/voxhire/gateway/internal/metrics"
	"github.com/voxhire/gateway/internal/prompts"
	"github.com/voxhire/gateway/internal/resilient"
)

// Category selects the kind of transition text to produce.
type Category string

const (
	CategoryGreeting      Category = "greeting"
	CategoryWarmupToCore  Category = "warmup_to_core"
	CategoryCoreToCore    Category = "core_to_core"
	CategoryCoreToClosing Category = "core_to_closing"
	CategoryClarification Category = "clarification"
	CategoryRepeat        Category = "repeat"
	CategoryFollowUp      Category = "followup"
	CategoryConclusion    Category = "conclusion"
)

// PromptContext carries the conversational context for one generation.
type PromptContext struct {
	CandidateName   string
	Role            string
	PreviousAnswer  string
	Question        string // canonical question the output must contain, "" when none
	MissingElements []string
}

// WriterConfig tunes the transition text writer.
type WriterConfig struct {
	// Timeout bounds the generation call.
	Timeout time.Duration
	// StripPatterns are extra regexes removed from generated output, on
	// top of the built-in meta-instruction filters.
	StripPatterns []string
}

// defaultStripPatterns removes instruction fragments a chat model may
// echo back despite the system prompt.
var defaultStripPatterns = []string{
	`(?i)^(sure|okay|certainly|of course)[,.!]?\s+here('s| is) (the|your|a) [^:]*:\s*`,
	`(?i)\bas an ai( language)? model\b[^.]*\.?`,
	`(?i)^\s*\[?(acknowledgment|transition|interviewer|response)\]?:\s*`,
	`(?i)\(no more than \d+ sentences?\)`,
	"```[a-z]*",
}

// Writer produces natural acknowledgment and question text through an
// external generation service, guaranteeing the canonical question is
// present and degrading to canonical text on any failure.
type Writer struct {
	client ChatClient
	cfg    WriterConfig
	strip  []*regexp.Regexp
	logger *zap.Logger
}

// NewWriter creates a writer. client may be nil, in which case every
// category yields its canonical text.
func NewWriter(client ChatClient, cfg WriterConfig, log *zap.Logger) (*Writer, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	patterns := append([]string{}, defaultStripPatterns...)
	patterns = append(patterns, cfg.StripPatterns...)

	strip := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile strip pattern %q: %w", p, err)
		}
		strip = append(strip, re)
	}

	return &Writer{client: client, cfg: cfg, strip: strip, logger: log}, nil
}

// Generate produces the text for one category. It never returns an
// error: generation failures fall back to the canonical text, and a
// generated transition that dropped the question gets the canonical
// question appended verbatim.
func (w *Writer) Generate(ctx context.Context, cat Category, pc PromptContext) string {
	canonical := w.canonical(cat, pc)

	if w.client == nil {
		return canonical
	}

	raw, err := resilient.Do(ctx, w.cfg.Timeout, "", func(ctx context.Context) (string, error) {
		return w.client.Chat(ctx, prompts.GeneratorSystem, w.instruction(cat, pc))
	})
	if err != nil {
		metrics.Fallbacks.WithLabelValues("generate").Inc()
		w.logger.Warn("generation failed, using canonical text",
			zap.Error(err),
			zap.String("category", string(cat)),
		)
		return canonical
	}

	text := w.scrub(raw)
	if text == "" {
		metrics.Fallbacks.WithLabelValues("generate").Inc()
		return canonical
	}

	if pc.Question != "" && !w.containsQuestion(cat, text, pc.Question) {
		text = text + "\n\n" + pc.Question
	}

	return text
}

// containsQuestion verifies the canonical question survives in the
// output. Repeats must carry it verbatim; transitions may carry a
// near-verbatim paraphrase, checked after normalization.
func (w *Writer) containsQuestion(cat Category, text, question string) bool {
	if cat == CategoryRepeat {
		return strings.Contains(text, question)
	}
	return strings.Contains(normalize(text), normalize(question))
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9 ]+`)
var spaceRe = regexp.MustCompile(`\s+`)

func normalize(s string) string {
	s = strings.ToLower(s)
	s = nonAlnumRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

func (w *Writer) scrub(raw string) string {
	text := raw
	for _, re := range w.strip {
		text = re.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

// instruction builds the category-specific generation prompt.
func (w *Writer) instruction(cat Category, pc PromptContext) string {
	var b strings.Builder

	switch cat {
	case CategoryGreeting:
		fmt.Fprintf(&b, "Greet %s, who is interviewing for the %s role. ", nameOrDefault(pc.CandidateName), pc.Role)
		b.WriteString("Welcome them briefly, explain you will ask a few questions, and ask if they are ready to begin.")
	case CategoryWarmupToCore:
		b.WriteString("The candidate just answered the ice-breaker. Briefly acknowledge their answer, then ask exactly this question verbatim or near-verbatim: ")
		b.WriteString(pc.Question)
	case CategoryCoreToCore:
		b.WriteString("Briefly acknowledge the candidate's previous answer, then ask exactly this question verbatim or near-verbatim: ")
		b.WriteString(pc.Question)
	case CategoryCoreToClosing:
		b.WriteString("The main questions are done. Briefly acknowledge the previous answer, note you are nearing the end, then ask exactly this question verbatim or near-verbatim: ")
		b.WriteString(pc.Question)
	case CategoryClarification:
		b.WriteString("The candidate did not understand the question. Rephrase it in simpler words without changing its meaning: ")
		b.WriteString(pc.Question)
	case CategoryRepeat:
		b.WriteString("The candidate asked you to repeat the question. Briefly oblige, then repeat it exactly, word for word: ")
		b.WriteString(pc.Question)
	case CategoryFollowUp:
		b.WriteString("The candidate's answer was thin. Ask one short follow-up that digs deeper into the same topic.")
		if len(pc.MissingElements) > 0 {
			fmt.Fprintf(&b, " Focus on: %s.", strings.Join(pc.MissingElements, ", "))
		}
	case CategoryConclusion:
		fmt.Fprintf(&b, "Thank %s warmly for their time, tell them the team will follow up about next steps, and say goodbye.", nameOrDefault(pc.CandidateName))
	}

	if pc.PreviousAnswer != "" && cat != CategoryGreeting && cat != CategoryConclusion {
		fmt.Fprintf(&b, "\n\nTheir previous answer was: %s", pc.PreviousAnswer)
	}
	b.WriteString("\n\nRespond with the spoken line only, two sentences at most plus the question.")

	return b.String()
}

// canonical is the deterministic fallback text per category. Every
// variant that carries a question includes it verbatim.
func (w *Writer) canonical(cat Category, pc PromptContext) string {
	switch cat {
	case CategoryGreeting:
		return fmt.Sprintf(
			"Hello %s, welcome! Thanks for taking the time to speak with us about the %s role. I'll ask you a few questions — let me know when you're ready to begin.",
			nameOrDefault(pc.CandidateName), pc.Role)
	case CategoryWarmupToCore:
		return "Thanks for sharing that. " + pc.Question
	case CategoryCoreToCore:
		return "Thank you. Next question: " + pc.Question
	case CategoryCoreToClosing:
		return "Thank you, that covers the main questions. " + pc.Question
	case CategoryClarification:
		return "Let me put it another way. " + pc.Question
	case CategoryRepeat:
		return "Of course. " + pc.Question
	case CategoryFollowUp:
		if len(pc.MissingElements) > 0 {
			return fmt.Sprintf("Could you go a bit deeper — in particular on %s?", strings.Join(pc.MissingElements, ", "))
		}
		return "Could you expand on that with a specific example?"
	case CategoryConclusion:
		return fmt.Sprintf(
			"Thank you for your time, %s. That concludes our interview — the team will be in touch about next steps. Have a great day!",
			nameOrDefault(pc.CandidateName))
	default:
		return pc.Question
	}
}

func nameOrDefault(name string) string {
	if strings.TrimSpace(name) == "" {
		return "there"
	}
	return name
}
