// Package ws runs live interview sessions over WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/voxhire/gateway/internal/archive"
	"github.com/voxhire/gateway/internal/evaluation"
	"github.com/voxhire/gateway/internal/interview"
	"github.com/voxhire/gateway/internal/metrics"
	"github.com/voxhire/gateway/internal/rooms"
	"github.com/voxhire/gateway/internal/templates"
	"github.com/voxhire/gateway/internal/voice"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  16384,
	WriteBufferSize: 16384,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandlerConfig holds the shared collaborators for all interview sessions.
type HandlerConfig struct {
	Engine        *interview.Engine
	Templates     *templates.Registry
	Voice         *voice.Router
	Evaluator     *evaluation.Evaluator
	Recorder      *archive.Recorder
	Rooms         *rooms.Manager
	MaxConcurrent int
	Logger        *zap.Logger
}

// Handler manages WebSocket interview sessions with admission control.
type Handler struct {
	cfg HandlerConfig
	log *zap.Logger
	sem chan struct{}
}

// NewHandler creates a WebSocket handler with shared collaborators and a
// concurrency limit.
func NewHandler(cfg HandlerConfig) *Handler {
	maxConc := cfg.MaxConcurrent
	if maxConc <= 0 {
		maxConc = 100
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		cfg: cfg,
		log: log,
		sem: make(chan struct{}, maxConc),
	}
}

// sessionMetadata is the first text frame sent by the client.
type sessionMetadata struct {
	CandidateName  string `json:"candidate_name"`
	CandidateEmail string `json:"candidate_email"`
	TemplateID     string `json:"template_id"`
	VoiceEngine    string `json:"voice_engine"` // empty disables synthesis
	VoiceID        string `json:"voice_id"`
}

// Event is one JSON frame sent to the client. Synthesized speech for the
// same event goes out as a separate binary frame just before it.
type Event struct {
	Type              string `json:"type"`
	SessionID         string `json:"session_id,omitempty"`
	Text              string `json:"text,omitempty"`
	Phase             string `json:"phase,omitempty"`
	QuestionIndex     *int   `json:"question_index,omitempty"`
	ExpectingResponse bool   `json:"expecting_response,omitempty"`
	JoinURL           string `json:"join_url,omitempty"`

	audio [][]byte // one frame per synthesized sentence
}

// ServeHTTP upgrades the connection and runs the interview session.
// Returns 503 at max concurrent session capacity.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	select {
	case h.sem <- struct{}{}:
		defer func() { <-h.sem }()
	default:
		http.Error(w, "at capacity", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.runSession(conn)
}

func (h *Handler) runSession(conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	meta, err := readMetadata(conn)
	if err != nil {
		h.log.Error("read metadata", zap.Error(err))
		return
	}

	tpl, ok := h.cfg.Templates.Get(meta.TemplateID)
	if !ok {
		writeEvent(conn, &sync.Mutex{}, Event{Type: "error", Text: "unknown template: " + meta.TemplateID})
		return
	}

	sessionID := uuid.NewString()
	data := tpl.StartData(interview.Candidate{Name: meta.CandidateName, Email: meta.CandidateEmail})
	if _, err = h.cfg.Engine.StartInterview(sessionID, data); err != nil {
		h.log.Error("start interview", zap.Error(err))
		writeEvent(conn, &sync.Mutex{}, Event{Type: "error", Text: "could not start interview"})
		return
	}

	room := h.cfg.Rooms.Open(ctx, sessionID)
	defer h.cfg.Rooms.Release(context.Background(), sessionID)

	h.log.Info("interview session started",
		zap.String("session_id", sessionID),
		zap.String("template_id", meta.TemplateID),
		zap.String("candidate", meta.CandidateName),
		zap.Bool("room", room != nil),
	)

	var mu sync.Mutex
	started := Event{Type: "session_started", SessionID: sessionID}
	if room != nil {
		started.JoinURL = room.JoinURL
	}
	writeEvent(conn, &mu, started)

	// Opening call: greet before any candidate input.
	h.interact(ctx, conn, &mu, sessionID, "", meta)

	for {
		msgType, frame, readErr := conn.ReadMessage()
		if readErr != nil {
			h.log.Info("connection closed", zap.String("session_id", sessionID), zap.Error(readErr))
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		h.interact(ctx, conn, &mu, sessionID, string(frame), meta)
	}
}

// interact runs one engine turn and ships the result, synthesizing
// speech when a voice engine was requested. A conclusion triggers
// evaluation and archival.
func (h *Handler) interact(ctx context.Context, conn *websocket.Conn, mu *sync.Mutex, sessionID, utterance string, meta *sessionMetadata) {
	resp, err := h.cfg.Engine.HandleInteraction(ctx, sessionID, utterance)
	if err != nil {
		h.log.Error("interaction failed", zap.String("session_id", sessionID), zap.Error(err))
		writeEvent(conn, mu, Event{Type: "error", Text: "interaction failed"})
		return
	}

	ev := Event{
		Type:              string(resp.Type),
		SessionID:         sessionID,
		Text:              resp.Text,
		Phase:             string(resp.Phase),
		QuestionIndex:     resp.QuestionIndex,
		ExpectingResponse: resp.ExpectingResponse,
	}

	if meta.VoiceEngine != "" && h.cfg.Voice != nil {
		ev.audio = h.speak(ctx, sessionID, resp.Text, meta)
	}

	writeEvent(conn, mu, ev)

	if resp.Type == interview.ResponseConclusion {
		h.finalize(ctx, conn, mu, sessionID)
	}
}

// speak synthesizes the line sentence by sentence so playback can start
// before the whole line is rendered. Synthesis is best-effort.
func (h *Handler) speak(ctx context.Context, sessionID, text string, meta *sessionMetadata) [][]byte {
	var frames [][]byte
	for _, sentence := range voice.Split(text) {
		result, err := h.cfg.Voice.Synthesize(ctx, sentence, meta.VoiceEngine, voice.Options{Voice: meta.VoiceID})
		if err != nil {
			h.log.Warn("synthesis failed", zap.String("session_id", sessionID), zap.Error(err))
			continue
		}
		frames = append(frames, result.Audio)
	}
	return frames
}

// finalize evaluates a concluded interview and queues it for archival.
func (h *Handler) finalize(ctx context.Context, conn *websocket.Conn, mu *sync.Mutex, sessionID string) {
	s, err := h.cfg.Engine.Session(sessionID)
	if err != nil {
		h.log.Error("load concluded session", zap.String("session_id", sessionID), zap.Error(err))
		return
	}

	iv, turns, responses := archiveRecords(s)
	h.cfg.Recorder.RecordInterview(iv, turns, responses)

	if h.cfg.Evaluator == nil {
		return
	}
	report := h.cfg.Evaluator.Evaluate(ctx, s)
	h.cfg.Recorder.RecordReport(archive.ArchivedReport{
		ID:             report.ID,
		InterviewID:    sessionID,
		OverallScore:   report.OverallScore,
		Recommendation: string(report.Recommendation),
		Summary:        report.Summary,
		Heuristic:      report.Heuristic,
		CreatedAt:      report.CreatedAt,
	})

	writeEvent(conn, mu, Event{
		Type:      "evaluation",
		SessionID: sessionID,
		Text:      report.Summary,
	})
}

// archiveRecords flattens a completed session into archive rows.
func archiveRecords(s *interview.Session) (archive.Interview, []archive.ArchivedTurn, []archive.ArchivedResponse) {
	iv := archive.Interview{
		ID:            s.ID,
		CandidateName: s.Candidate.Name,
		CandidateMail: s.Candidate.Email,
		Role:          s.Role,
		StartedAt:     s.StartTime,
		EndedAt:       s.EndTime,
		Status:        string(s.Status),
	}

	turns := make([]archive.ArchivedTurn, 0, len(s.History))
	for i, t := range s.History {
		turns = append(turns, archive.ArchivedTurn{
			InterviewID: s.ID,
			Position:    i,
			Speaker:     string(t.Speaker),
			Text:        t.Text,
			TurnType:    string(t.Type),
			SpokenAt:    t.Timestamp,
		})
	}

	responses := make([]archive.ArchivedResponse, 0, len(s.Responses))
	for _, r := range s.Responses {
		responses = append(responses, archive.ArchivedResponse{
			InterviewID:   s.ID,
			QuestionIndex: r.QuestionIndex,
			QuestionText:  r.QuestionText,
			AnswerText:    r.AnswerText,
			AnsweredAt:    r.Timestamp,
		})
	}
	return iv, turns, responses
}

func writeEvent(conn *websocket.Conn, mu *sync.Mutex, ev Event) {
	mu.Lock()
	defer mu.Unlock()

	for _, frame := range ev.audio {
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			metrics.Errors.WithLabelValues("ws", "write_audio").Inc()
			return
		}
	}

	jsonBytes, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err = conn.WriteMessage(websocket.TextMessage, jsonBytes); err != nil {
		metrics.Errors.WithLabelValues("ws", "write_event").Inc()
	}
}

func readMetadata(conn *websocket.Conn) (*sessionMetadata, error) {
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	defer conn.SetReadDeadline(time.Time{})

	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	var meta sessionMetadata
	if err = json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}
