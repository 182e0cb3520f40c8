package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

// Client is a minimal Google Calendar events client. Access tokens come from
// the credential manager per call; the client itself holds no credentials.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a calendar client
func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// NewClientWithBaseURL creates a calendar client against a custom endpoint
// (used in tests)
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	c.baseURL = baseURL
	return c
}

// Event is the subset of a calendar event we create and read back
type Event struct {
	ID          string         `json:"id,omitempty"`
	Summary     string         `json:"summary"`
	Description string         `json:"description,omitempty"`
	Start       *EventDateTime `json:"start,omitempty"`
	End         *EventDateTime `json:"end,omitempty"`
	HangoutLink string         `json:"hangoutLink,omitempty"`
	Attendees   []Attendee     `json:"attendees,omitempty"`
}

// EventDateTime wraps an RFC3339 timestamp
type EventDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

// Attendee is an invited participant
type Attendee struct {
	Email string `json:"email"`
}

// CreateEvent inserts an event into the user's primary calendar using the
// given access token and returns the created event (with id and join link).
func (c *Client) CreateEvent(ctx context.Context, accessToken string, event *Event) (*Event, error) {
	b, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	url := c.baseURL + "/calendars/primary/events?conferenceDataVersion=1"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendar request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("calendar returned status %d: %s", resp.StatusCode, string(body))
	}

	var created Event
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to decode event response: %w", err)
	}
	return &created, nil
}
