package rooms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHTTPProviderCreatesRoom(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/rooms", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "iv-1", body["interview_id"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "room-9", "join_url": "https://rooms.example/room-9"})
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "test-key")
	room, err := p.Create(context.Background(), "iv-1")
	require.NoError(t, err)
	assert.Equal(t, "room-9", room.ID)
	assert.Equal(t, "iv-1", room.InterviewID)
	assert.Equal(t, StatusOpen, room.Status)
}

func TestHTTPProviderCreateErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "")
	_, err := p.Create(context.Background(), "iv-1")
	require.Error(t, err)
}

func TestHTTPProviderHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "")
	assert.True(t, p.Healthy(context.Background()))

	srv.Close()
	assert.False(t, p.Healthy(context.Background()))
}

type failingProvider struct{}

func (failingProvider) Create(context.Context, string) (*Room, error) {
	return nil, assert.AnError
}
func (failingProvider) Close(context.Context, string) error { return nil }
func (failingProvider) Healthy(context.Context) bool        { return false }

func TestManagerDegradesToChatOnly(t *testing.T) {
	m := NewManager(failingProvider{}, zap.NewNop())

	room := m.Open(context.Background(), "iv-1")
	assert.Nil(t, room)

	_, ok := m.Get("iv-1")
	assert.False(t, ok)

	// releasing an interview without a room is a no-op
	m.Release(context.Background(), "iv-1")
}

type okProvider struct {
	closed []string
}

func (p *okProvider) Create(_ context.Context, interviewID string) (*Room, error) {
	return &Room{ID: "room-" + interviewID, InterviewID: interviewID, Status: StatusOpen}, nil
}
func (p *okProvider) Close(_ context.Context, roomID string) error {
	p.closed = append(p.closed, roomID)
	return nil
}
func (p *okProvider) Healthy(context.Context) bool { return true }

func TestManagerTracksAndReleasesRooms(t *testing.T) {
	provider := &okProvider{}
	m := NewManager(provider, zap.NewNop())

	room := m.Open(context.Background(), "iv-1")
	require.NotNil(t, room)

	got, ok := m.Get("iv-1")
	require.True(t, ok)
	assert.Equal(t, room.ID, got.ID)

	m.Release(context.Background(), "iv-1")
	_, ok = m.Get("iv-1")
	assert.False(t, ok)
	assert.Equal(t, []string{"room-iv-1"}, provider.closed)
}

func TestNilManagerIsNoop(t *testing.T) {
	var m *Manager
	assert.Nil(t, m.Open(context.Background(), "iv-1"))
	_, ok := m.Get("iv-1")
	assert.False(t, ok)
	m.Release(context.Background(), "iv-1")
	assert.False(t, m.Healthy(context.Background()))
}
