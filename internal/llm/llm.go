package llm

import (
	"context"
	"time"

	"github.com/voxhire/gateway/internal/metrics"
	"github.com/voxhire/gateway/internal/routing"
)

// ChatClient produces one chat completion from a system and user message.
// The interview orchestrator uses the same contract for classification,
// transition generation, and evaluation; only the prompts differ.
type ChatClient interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

// Result holds a complete chat response with timing.
type Result struct {
	Text      string  `json:"text"`
	LatencyMs float64 `json:"latency_ms"`
}

// ChatRouter dispatches to the correct LLM backend based on engine name.
type ChatRouter struct {
	*routing.Router[ChatClient]
}

// NewChatRouter creates a router with registered LLM backends and a fallback default.
func NewChatRouter(backends map[string]ChatClient, fallback string) *ChatRouter {
	return &ChatRouter{Router: routing.New(backends, fallback)}
}

// Bind fixes the engine and metrics stage, returning a plain ChatClient
// for components that issue one kind of call.
func (r *ChatRouter) Bind(engine, stage string) ChatClient {
	return &boundClient{router: r, engine: engine, stage: stage}
}

type boundClient struct {
	router *ChatRouter
	engine string
	stage  string
}

func (b *boundClient) Chat(ctx context.Context, system, user string) (string, error) {
	result, err := b.router.Chat(ctx, system, user, b.engine, b.stage)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// Chat routes to the correct backend and records stage latency.
func (r *ChatRouter) Chat(ctx context.Context, system, user, engine, stage string) (*Result, error) {
	backend, err := r.Route(engine)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	text, err := backend.Chat(ctx, system, user)
	if err != nil {
		metrics.Errors.WithLabelValues(stage, "llm").Inc()
		return nil, err
	}

	latency := time.Since(start)
	metrics.StageDuration.WithLabelValues(stage).Observe(latency.Seconds())

	return &Result{
		Text:      text,
		LatencyMs: float64(latency.Milliseconds()),
	}, nil
}
