// Package rooms wraps an external video-room provider. Room creation is
// best-effort: when the provider is down the interview proceeds chat-only.
package rooms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// RoomStatus represents the lifecycle state of a provider room.
type RoomStatus string

const (
	StatusUnknown RoomStatus = "unknown"
	StatusOpen    RoomStatus = "open"
	StatusClosed  RoomStatus = "closed"
)

// Room holds the state of a provider room bound to an interview.
type Room struct {
	ID          string     `json:"id"`
	InterviewID string     `json:"interview_id"`
	JoinURL     string     `json:"join_url"`
	Status      RoomStatus `json:"status"`
}

// Provider controls rooms on a video-conferencing service.
type Provider interface {
	Create(ctx context.Context, interviewID string) (*Room, error)
	Close(ctx context.Context, roomID string) error
	Healthy(ctx context.Context) bool
}

// HTTPProvider talks to a room provider over its HTTP control API.
type HTTPProvider struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewHTTPProvider creates a provider client for the control API at baseURL.
func NewHTTPProvider(baseURL, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// Create opens a room for an interview.
func (p *HTTPProvider) Create(ctx context.Context, interviewID string) (*Room, error) {
	body, err := json.Marshal(map[string]string{"interview_id": interviewID})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/rooms", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("create room: provider returned %d", resp.StatusCode)
	}

	var room Room
	if err = json.NewDecoder(resp.Body).Decode(&room); err != nil {
		return nil, fmt.Errorf("create room: decode: %w", err)
	}
	room.InterviewID = interviewID
	if room.Status == "" {
		room.Status = StatusOpen
	}
	return &room, nil
}

// Close tears down a room. Closing an already-closed room is not an error.
func (p *HTTPProvider) Close(ctx context.Context, roomID string) error {
	req, err := http.NewRequestWithContext(ctx, "DELETE", p.baseURL+"/rooms/"+roomID, nil)
	if err != nil {
		return err
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("close room %s: %w", roomID, err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("close room %s: provider returned %d", roomID, resp.StatusCode)
	}
	return nil
}

// Healthy probes the provider health endpoint.
func (p *HTTPProvider) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
