package interview

import (
	"math/rand"
	"sync"
	"time"
)

// Action is the follow-up policy's verdict for one analyzed utterance.
type Action string

const (
	ActionAdvance  Action = "advance"
	ActionFollowUp Action = "followup"
	ActionClarify  Action = "clarify"
	ActionRepeat   Action = "repeat"
)

// PolicyConfig tunes the follow-up policy.
type PolicyConfig struct {
	// MaxFollowUps is the hard per-question ceiling on clarification,
	// repeat, and elaboration prompts before forced advancement.
	MaxFollowUps int
	// MinAnswerWords is the brevity threshold below which core answers
	// get an elaboration prompt.
	MinAnswerWords int
	// ProbeProbability is the chance of a deeper probe on an otherwise
	// adequate answer.
	ProbeProbability float64
}

// Policy decides whether to advance, clarify, repeat, or probe further
// after each analyzed answer. Pure decision logic, no I/O; the only
// state is the injected random source for the probabilistic probe.
type Policy struct {
	cfg PolicyConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPolicy creates a policy. rng may be nil, in which case a
// time-seeded source is used; tests inject a fixed seed.
func NewPolicy(cfg PolicyConfig, rng *rand.Rand) *Policy {
	if cfg.MinAnswerWords <= 0 {
		cfg.MinAnswerWords = 15
	}
	if cfg.ProbeProbability < 0 {
		cfg.ProbeProbability = 0
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Policy{cfg: cfg, rng: rng}
}

// Decide returns one action for the analyzed utterance. First matching
// rule wins; the follow-up ceiling always wins over everything else.
func (p *Policy) Decide(a Analysis, followUps int, phase Phase) Action {
	return p.DecideWithCap(a, followUps, phase, p.cfg.MaxFollowUps)
}

// DecideWithCap is Decide with a per-session ceiling override, used when
// a template carries its own cap.
func (p *Policy) DecideWithCap(a Analysis, followUps int, phase Phase, maxFollowUps int) Action {
	if followUps >= maxFollowUps {
		return ActionAdvance
	}

	switch a.Intent {
	case IntentRepeatRequest:
		return ActionRepeat
	case IntentClarifyRequest:
		return ActionClarify
	}

	if phase == PhaseCoreQuestions && a.WordCount < p.cfg.MinAnswerWords {
		return ActionFollowUp
	}

	if a.Hedged && !a.Specific {
		return ActionFollowUp
	}

	if p.probe() {
		return ActionFollowUp
	}

	return ActionAdvance
}

func (p *Policy) probe() bool {
	if p.cfg.ProbeProbability <= 0 {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64() < p.cfg.ProbeProbability
}
