package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/workpulse-hq/workpulse/pkg/config"
)

// Engine is a minimal client for the external insight-generation capability.
// It takes transcript text and returns typed insight tuples; the actual
// content derivation happens on the provider side.
type Engine struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewEngine creates an insight engine client using values from the provided
// config. Pass a nil config to fall back to environment variables.
func NewEngine(cfg *config.InsightConfig) *Engine {
	var apiKey string
	if cfg != nil {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		apiKey = os.Getenv("INSIGHT_API_KEY")
	}

	var base string
	if cfg != nil && cfg.BaseURL != "" {
		base = cfg.BaseURL
	} else {
		base = os.Getenv("INSIGHT_API_URL")
		if base == "" {
			base = "https://api.groq.com"
		}
	}

	model := "llama-3.1-70b-versatile"
	if cfg != nil && cfg.Model != "" {
		model = cfg.Model
	}

	timeout := 30 * time.Second
	if cfg != nil && cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	return &Engine{
		apiKey:  apiKey,
		baseURL: base,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Tuple is one extracted insight as returned by the provider
type Tuple struct {
	Type           string                 `json:"type"`
	Content        string                 `json:"content"`
	RelevanceScore *float64               `json:"relevance_score,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// ExtractRequest is the request shape for insight extraction
type ExtractRequest struct {
	Model      string `json:"model,omitempty"`
	Transcript string `json:"transcript"`
	Language   string `json:"language,omitempty"`
}

// ExtractResponse is the response shape for insight extraction
type ExtractResponse struct {
	Insights []Tuple `json:"insights"`
}

// StatusError reports a non-2xx provider response. 5xx responses are
// retryable; 4xx responses are not.
type StatusError struct {
	StatusCode int
}

// Error implements the error interface
func (e *StatusError) Error() string {
	return fmt.Sprintf("insight engine returned status %d", e.StatusCode)
}

// Retryable reports whether the call may be retried
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Extract sends the transcript to the provider and returns the insight tuples
func (e *Engine) Extract(ctx context.Context, transcript string, language string) ([]Tuple, error) {
	reqBody := ExtractRequest{
		Model:      e.model,
		Transcript: transcript,
		Language:   language,
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	endpoint := e.baseURL + "/v1/insights/extract"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var er ExtractResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("failed to decode insight response: %w", err)
	}
	if len(er.Insights) == 0 {
		return nil, fmt.Errorf("empty insight set from engine")
	}
	return er.Insights, nil
}
