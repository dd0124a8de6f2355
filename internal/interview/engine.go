package interview

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voxhire/gateway/internal/metrics"
	"github.com/voxhire/gateway/internal/prompts"
)

// completedText is the fixed reply for interactions after conclusion.
const completedText = "This interview has already concluded. Thank you again for your time."

// StartData carries everything needed to create a session. Questions
// are the configured core questions; the engine wraps them with the
// ice-breaker and closing prompt.
type StartData struct {
	Candidate  Candidate
	Role       string
	Questions  []string
	Icebreaker string // optional override
	Closing    string // optional override
	// MaxFollowUps overrides the policy's per-question ceiling when set.
	MaxFollowUps *int
}

// EngineConfig tunes the phase state machine.
type EngineConfig struct {
	// HistoryWindow is how many recent turns the analyzer sees.
	HistoryWindow int
}

// Engine is the phase state machine driving one interaction at a time
// per session. It is the only component with write access to a
// session's mutable fields; interactions for one session are serialized
// on a per-session lock while different sessions run concurrently.
type Engine struct {
	store    Store
	analyzer *Analyzer
	policy   *Policy
	writer   *Writer
	cfg      EngineConfig
	logger   *zap.Logger

	locks sync.Map // session id -> *sync.Mutex
}

// NewEngine wires the orchestrator components together.
func NewEngine(store Store, analyzer *Analyzer, policy *Policy, writer *Writer, cfg EngineConfig, log *zap.Logger) *Engine {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 5
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		store:    store,
		analyzer: analyzer,
		policy:   policy,
		writer:   writer,
		cfg:      cfg,
		logger:   log,
	}
}

// StartInterview creates a session in the greeting phase. It fails with
// ErrDuplicateSession if the id already exists.
func (e *Engine) StartInterview(id string, data StartData) (*Session, error) {
	icebreaker := data.Icebreaker
	if strings.TrimSpace(icebreaker) == "" {
		icebreaker = prompts.DefaultIcebreaker
	}
	closing := data.Closing
	if strings.TrimSpace(closing) == "" {
		closing = prompts.DefaultClosing
	}

	questions := make([]string, 0, len(data.Questions)+2)
	questions = append(questions, icebreaker)
	questions = append(questions, data.Questions...)
	questions = append(questions, closing)

	s := &Session{
		ID:            id,
		Candidate:     data.Candidate,
		Role:          data.Role,
		Questions:     questions,
		Phase:         PhaseGreeting,
		QuestionIndex: -1,
		FollowUps:     make(map[int]int),
		MaxFollowUps:  data.MaxFollowUps,
		StartTime:     time.Now().UTC(),
		Status:        StatusActive,
	}

	if err := e.store.Create(s); err != nil {
		return nil, err
	}

	metrics.InterviewsTotal.Inc()
	metrics.InterviewsActive.Inc()
	e.logger.Info("interview started",
		zap.String("session_id", id),
		zap.String("role", data.Role),
		zap.Int("questions", len(questions)),
	)
	return s, nil
}

// HandleInteraction processes one turn for the session and returns the
// next thing the interviewer says. An empty utterance means the caller
// has no candidate input yet (the opening call). Only session-lookup
// errors propagate; analyzer and writer failures degrade internally.
func (e *Engine) HandleInteraction(ctx context.Context, sessionID, utterance string) (*Response, error) {
	mu := e.sessionLock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	s, err := e.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	// Terminal phase is idempotent: same descriptor, no mutation.
	if s.Phase == PhaseCompleted {
		resp := NewCompleted(completedText)
		metrics.Interactions.WithLabelValues(string(resp.Type)).Inc()
		return resp, nil
	}

	utterance = strings.TrimSpace(utterance)
	if utterance != "" {
		s.appendTurn(SpeakerCandidate, utterance, TurnAnswer)
	}

	var resp *Response
	switch s.Phase {
	case PhaseGreeting:
		resp = e.handleGreeting(ctx, s, utterance)
	case PhaseWarmup:
		resp = e.handleWarmup(ctx, s, utterance)
	case PhaseCoreQuestions:
		resp = e.handleCore(ctx, s, utterance)
	case PhaseClosing:
		resp = e.handleClosing(ctx, s, utterance)
	}

	metrics.Interactions.WithLabelValues(string(resp.Type)).Inc()
	return resp, nil
}

// handleGreeting greets on the opening call and advances to the warmup
// question on any candidate input. Readiness is not validated: any
// utterance counts.
func (e *Engine) handleGreeting(ctx context.Context, s *Session, utterance string) *Response {
	if utterance == "" {
		text := e.writer.Generate(ctx, CategoryGreeting, PromptContext{
			CandidateName: s.Candidate.Name,
			Role:          s.Role,
		})
		s.appendTurn(SpeakerAI, text, TurnGreeting)
		return NewGreeting(text)
	}

	s.Phase = PhaseWarmup
	s.QuestionIndex = 0

	text := "Great, let's begin. " + s.Questions[0]
	s.appendTurn(SpeakerAI, text, TurnQuestion)
	return NewQuestion(text, PhaseWarmup, 0)
}

// handleWarmup records the ice-breaker answer unconditionally and
// advances to the first core question.
func (e *Engine) handleWarmup(ctx context.Context, s *Session, utterance string) *Response {
	if utterance == "" {
		return e.reask(s)
	}

	s.recordResponse(0, s.Questions[0], utterance, nil)
	s.Phase = PhaseCoreQuestions
	s.QuestionIndex = 1

	text := e.writer.Generate(ctx, CategoryWarmupToCore, PromptContext{
		PreviousAnswer: utterance,
		Question:       s.Questions[1],
	})
	s.appendTurn(SpeakerAI, text, TurnTransition)
	return NewTransition(text, PhaseCoreQuestions, 1)
}

// handleCore runs analyzer and policy for the current core question and
// acts on the verdict.
func (e *Engine) handleCore(ctx context.Context, s *Session, utterance string) *Response {
	if utterance == "" {
		return e.reask(s)
	}

	idx := s.QuestionIndex
	question := s.Questions[idx]

	analysis := e.analyzer.Analyze(ctx, question, utterance, s.Recent(e.cfg.HistoryWindow))
	action := e.decide(s, analysis, idx)

	e.logger.Debug("core interaction",
		zap.String("session_id", s.ID),
		zap.Int("question_index", idx),
		zap.String("intent", string(analysis.Intent)),
		zap.Int("word_count", analysis.WordCount),
		zap.String("action", string(action)),
	)

	switch action {
	case ActionRepeat:
		s.FollowUps[idx]++
		metrics.FollowUps.WithLabelValues(string(ActionRepeat)).Inc()
		text := e.writer.Generate(ctx, CategoryRepeat, PromptContext{Question: question})
		s.appendTurn(SpeakerAI, text, TurnRepeat)
		return NewRepeat(text, s.Phase, idx)

	case ActionClarify:
		s.FollowUps[idx]++
		metrics.FollowUps.WithLabelValues(string(ActionClarify)).Inc()
		text := e.writer.Generate(ctx, CategoryClarification, PromptContext{Question: question})
		s.appendTurn(SpeakerAI, text, TurnClarification)
		return NewClarification(text, s.Phase, idx)

	case ActionFollowUp:
		s.FollowUps[idx]++
		metrics.FollowUps.WithLabelValues(string(ActionFollowUp)).Inc()
		text := e.writer.Generate(ctx, CategoryFollowUp, PromptContext{
			PreviousAnswer:  utterance,
			MissingElements: analysis.MissingElements,
		})
		s.appendTurn(SpeakerAI, text, TurnFollowUp)
		return NewFollowUp(text, s.Phase, idx)

	default: // ActionAdvance
		s.recordResponse(idx, question, utterance, &analysis)
		if idx >= s.lastCoreIndex() {
			s.Phase = PhaseClosing
			s.QuestionIndex = len(s.Questions) - 1
			text := e.writer.Generate(ctx, CategoryCoreToClosing, PromptContext{
				PreviousAnswer: utterance,
				Question:       s.CurrentQuestion(),
			})
			s.appendTurn(SpeakerAI, text, TurnTransition)
			return NewTransition(text, PhaseClosing, s.QuestionIndex)
		}

		s.QuestionIndex++
		text := e.writer.Generate(ctx, CategoryCoreToCore, PromptContext{
			PreviousAnswer: utterance,
			Question:       s.CurrentQuestion(),
		})
		s.appendTurn(SpeakerAI, text, TurnTransition)
		return NewTransition(text, s.Phase, s.QuestionIndex)
	}
}

// handleClosing records the final answer unconditionally and concludes
// the interview.
func (e *Engine) handleClosing(ctx context.Context, s *Session, utterance string) *Response {
	if utterance == "" {
		return e.reask(s)
	}

	idx := s.QuestionIndex
	s.recordResponse(idx, s.Questions[idx], utterance, nil)

	text := e.writer.Generate(ctx, CategoryConclusion, PromptContext{
		CandidateName: s.Candidate.Name,
	})
	s.appendTurn(SpeakerAI, text, TurnConclusion)

	now := time.Now().UTC()
	s.EndTime = &now
	s.Status = StatusCompleted
	s.Phase = PhaseCompleted

	metrics.InterviewsActive.Dec()
	metrics.InterviewsCompleted.Inc()
	e.logger.Info("interview completed",
		zap.String("session_id", s.ID),
		zap.Int("responses", len(s.Responses)),
		zap.Duration("duration", now.Sub(s.StartTime)),
	)

	return NewConclusion(text)
}

// decide applies the follow-up policy, honoring a per-session ceiling
// override when the template carries one.
func (e *Engine) decide(s *Session, a Analysis, idx int) Action {
	if s.MaxFollowUps != nil {
		return e.policy.DecideWithCap(a, s.FollowUps[idx], s.Phase, *s.MaxFollowUps)
	}
	return e.policy.Decide(a, s.FollowUps[idx], s.Phase)
}

// reask restates the pending question when the caller delivers an empty
// utterance mid-interview. No counters move and nothing is recorded.
func (e *Engine) reask(s *Session) *Response {
	return NewQuestion(s.CurrentQuestion(), s.Phase, s.QuestionIndex)
}

// Session returns the stored session for id.
func (e *Engine) Session(id string) (*Session, error) {
	return e.store.Get(id)
}

func (e *Engine) sessionLock(id string) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
