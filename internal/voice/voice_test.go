package voice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPiperSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/synthesize", r.URL.Path)
		var req struct {
			Text  string `json:"text"`
			Voice string `json:"voice"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req.Text)
		assert.Equal(t, "en_US-lessac-medium", req.Voice)
		w.Write([]byte("RIFFaudio"))
	}))
	defer srv.Close()

	client := &http.Client{Timeout: time.Second}
	router := NewRouter(map[string]Synthesizer{
		"piper": NewPiperSynthesizer(srv.URL, "en_US-lessac-medium", client),
	}, "piper")

	result, err := router.Synthesize(context.Background(), "hello", "piper", Options{})
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFFaudio"), result.Audio)
}

func TestSynthesizeFailureReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := &http.Client{Timeout: time.Second}
	router := NewRouter(map[string]Synthesizer{
		"piper": NewPiperSynthesizer(srv.URL, "v", client),
	}, "piper")

	_, err := router.Synthesize(context.Background(), "hello", "piper", Options{})
	require.Error(t, err)
}

func TestRouterFallsBackToDefaultEngine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("audio"))
	}))
	defer srv.Close()

	client := &http.Client{Timeout: time.Second}
	router := NewRouter(map[string]Synthesizer{
		"piper": NewPiperSynthesizer(srv.URL, "v", client),
	}, "piper")

	result, err := router.Synthesize(context.Background(), "hi", "nonexistent", Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Audio)
}

func TestSentenceBuffer(t *testing.T) {
	var buf SentenceBuffer

	assert.Empty(t, buf.Add("Thanks for sharing"))
	assert.Equal(t, "Thanks for sharing that.", buf.Add(" that. Next"))
	assert.Empty(t, buf.Add(" question"))
	assert.Equal(t, "Next question", buf.Flush())
	assert.Empty(t, buf.Flush())
}

func TestSplit(t *testing.T) {
	sentences := Split("Thank you. That covers it! Any questions for us?")
	require.Len(t, sentences, 2)
	assert.Equal(t, "Thank you. That covers it!", sentences[0])
	assert.Equal(t, "Any questions for us?", sentences[1])
}
