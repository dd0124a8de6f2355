package ws

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxhire/gateway/internal/interview"
	"github.com/voxhire/gateway/internal/templates"
	"github.com/voxhire/gateway/internal/voice"
)

func testRegistry(t *testing.T) *templates.Registry {
	t.Helper()
	dir := t.TempDir()
	tpl := `role: Backend Engineer
questions:
  - Describe a system you designed.
  - How do you approach debugging?
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "backend.yaml"), []byte(tpl), 0o644))
	reg, err := templates.LoadDir(dir)
	require.NoError(t, err)
	return reg
}

func testHandler(t *testing.T) *Handler {
	t.Helper()
	analyzer := interview.NewAnalyzer(nil, interview.AnalyzerConfig{}, nil)
	writer, err := interview.NewWriter(nil, interview.WriterConfig{}, nil)
	require.NoError(t, err)
	policy := interview.NewPolicy(interview.PolicyConfig{MaxFollowUps: 2}, rand.New(rand.NewSource(1)))
	engine := interview.NewEngine(interview.NewMemoryStore(), analyzer, policy, writer, interview.EngineConfig{}, nil)

	return NewHandler(HandlerConfig{
		Engine:    engine,
		Templates: testRegistry(t),
	})
}

func dial(t *testing.T, h *Handler) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		msgType, data, err := conn.ReadMessage()
		require.NoError(t, err)
		if msgType != websocket.TextMessage {
			continue
		}
		var ev Event
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	}
}

func TestSessionOpensWithGreeting(t *testing.T) {
	conn := dial(t, testHandler(t))

	require.NoError(t, conn.WriteJSON(sessionMetadata{
		CandidateName: "Ada",
		TemplateID:    "backend",
	}))

	started := readEvent(t, conn)
	assert.Equal(t, "session_started", started.Type)
	assert.NotEmpty(t, started.SessionID)

	greeting := readEvent(t, conn)
	assert.Equal(t, "greeting", greeting.Type)
	assert.NotEmpty(t, greeting.Text)
	assert.True(t, greeting.ExpectingResponse)
}

func TestUtteranceAdvancesInterview(t *testing.T) {
	conn := dial(t, testHandler(t))

	require.NoError(t, conn.WriteJSON(sessionMetadata{CandidateName: "Ada", TemplateID: "backend"}))
	readEvent(t, conn) // session_started
	readEvent(t, conn) // greeting

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("Ready when you are.")))
	ev := readEvent(t, conn)
	assert.Equal(t, "question", ev.Type)
	assert.Equal(t, "warmup", ev.Phase)
	require.NotNil(t, ev.QuestionIndex)
	assert.Equal(t, 0, *ev.QuestionIndex)
}

type beepSynthesizer struct{}

func (beepSynthesizer) SynthesizeAudio(context.Context, string, voice.Options) ([]byte, error) {
	return []byte{0x01, 0x02}, nil
}

func TestSynthesizedAudioArrivesAsBinaryFrames(t *testing.T) {
	h := testHandler(t)
	h.cfg.Voice = voice.NewRouter(map[string]voice.Synthesizer{"beep": beepSynthesizer{}}, "beep")

	conn := dial(t, h)
	require.NoError(t, conn.WriteJSON(sessionMetadata{
		CandidateName: "Ada",
		TemplateID:    "backend",
		VoiceEngine:   "beep",
	}))

	readEvent(t, conn) // session_started, no audio

	// The greeting is preceded by one binary frame per sentence.
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var binaryFrames int
	for {
		msgType, data, err := conn.ReadMessage()
		require.NoError(t, err)
		if msgType == websocket.BinaryMessage {
			binaryFrames++
			assert.Equal(t, []byte{0x01, 0x02}, data)
			continue
		}
		var ev Event
		require.NoError(t, json.Unmarshal(data, &ev))
		assert.Equal(t, "greeting", ev.Type)
		break
	}
	assert.Greater(t, binaryFrames, 0)
}

func TestUnknownTemplateSendsError(t *testing.T) {
	conn := dial(t, testHandler(t))

	require.NoError(t, conn.WriteJSON(sessionMetadata{CandidateName: "Ada", TemplateID: "missing"}))
	ev := readEvent(t, conn)
	assert.Equal(t, "error", ev.Type)
	assert.Contains(t, ev.Text, "missing")
}

func TestAdmissionControlRejectsOverCapacity(t *testing.T) {
	h := testHandler(t)
	h.sem = make(chan struct{}, 1)
	h.sem <- struct{}{} // occupy the only slot

	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestArchiveRecordsFlattenSession(t *testing.T) {
	now := time.Now().UTC()
	end := now.Add(10 * time.Minute)
	s := &interview.Session{
		ID:        "s1",
		Candidate: interview.Candidate{Name: "Ada", Email: "ada@example.com"},
		Role:      "Backend Engineer",
		StartTime: now,
		EndTime:   &end,
		Status:    interview.StatusCompleted,
		History: []interview.Turn{
			{Speaker: interview.SpeakerAI, Text: "Welcome", Type: interview.TurnGreeting, Timestamp: now},
			{Speaker: interview.SpeakerCandidate, Text: "Thanks", Type: interview.TurnAnswer, Timestamp: now},
		},
		Responses: []interview.QuestionResponse{
			{QuestionIndex: 0, QuestionText: "Q", AnswerText: "A", Timestamp: now},
		},
	}

	iv, turns, responses := archiveRecords(s)
	assert.Equal(t, "s1", iv.ID)
	assert.Equal(t, "ada@example.com", iv.CandidateMail)
	assert.Equal(t, "completed", iv.Status)
	require.Len(t, turns, 2)
	assert.Equal(t, 0, turns[0].Position)
	assert.Equal(t, 1, turns[1].Position)
	assert.Equal(t, "candidate", turns[1].Speaker)
	require.Len(t, responses, 1)
	assert.Equal(t, "A", responses[0].AnswerText)
}
