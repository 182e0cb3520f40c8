package meetingbot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/workpulse-hq/workpulse/pkg/config"
)

// Client talks to the external meeting-bot provider that joins and records
// meetings on our behalf.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a new meeting-bot client
func NewClient(cfg *config.BotConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// JoinRequest asks the provider to send a bot into a meeting
type JoinRequest struct {
	JoinURL     string    `json:"join_url"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Platform    string    `json:"platform,omitempty"`
	BotName     string    `json:"bot_name,omitempty"`
}

// JoinResponse carries the provider's session identifier
type JoinResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// JoinMeeting requests a bot session. The meeting id is sent as the
// idempotency key so a duplicate join request for the same meeting returns
// the existing session instead of creating a second bot.
func (c *Client) JoinMeeting(ctx context.Context, meetingID uuid.UUID, req *JoinRequest) (*JoinResponse, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/bots", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", meetingID.String())

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("bot join request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bot provider returned status %d: %s", resp.StatusCode, string(body))
	}

	var joinResp JoinResponse
	if err := json.NewDecoder(resp.Body).Decode(&joinResp); err != nil {
		return nil, fmt.Errorf("failed to decode join response: %w", err)
	}
	if joinResp.SessionID == "" {
		return nil, fmt.Errorf("bot provider returned empty session id")
	}
	return &joinResp, nil
}

// LeaveMeeting asks the provider to remove the bot from a live session
func (c *Client) LeaveMeeting(ctx context.Context, sessionID string) error {
	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/bots/"+sessionID+"/leave", nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("bot leave request failed: %w", err)
	}
	defer resp.Body.Close()

	// 404 means the session is already gone, which is what we wanted
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("bot provider returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
