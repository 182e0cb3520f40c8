package insight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/workpulse-hq/workpulse/pkg/config"
)

func TestExtract_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST got %s", r.Method)
		}
		var payload ExtractRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if payload.Transcript == "" {
			t.Fatalf("transcript missing in request")
		}
		score := 0.9
		json.NewEncoder(w).Encode(ExtractResponse{
			Insights: []Tuple{
				{Type: "summary", Content: "Discussed Q3 goals", RelevanceScore: &score},
				{Type: "action_item", Content: "Send growth plan by Friday"},
			},
		})
	}))
	defer ts.Close()

	engine := NewEngine(&config.InsightConfig{
		BaseURL: ts.URL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	})

	tuples, err := engine.Extract(context.Background(), "manager: let's talk about Q3", "en")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(tuples) != 2 {
		t.Fatalf("expected 2 tuples got %d", len(tuples))
	}
	if tuples[0].Type != "summary" {
		t.Fatalf("unexpected type %s", tuples[0].Type)
	}
}

func TestExtract_ServerErrorIsRetryable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	engine := NewEngine(&config.InsightConfig{BaseURL: ts.URL, APIKey: "k"})

	_, err := engine.Extract(context.Background(), "text", "")
	statusErr, ok := err.(*StatusError)
	if !ok {
		t.Fatalf("expected StatusError got %v", err)
	}
	if !statusErr.Retryable() {
		t.Fatalf("502 should be retryable")
	}
}

func TestExtract_ClientErrorIsPermanent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer ts.Close()

	engine := NewEngine(&config.InsightConfig{BaseURL: ts.URL, APIKey: "k"})

	_, err := engine.Extract(context.Background(), "text", "")
	statusErr, ok := err.(*StatusError)
	if !ok {
		t.Fatalf("expected StatusError got %v", err)
	}
	if statusErr.Retryable() {
		t.Fatalf("422 should not be retryable")
	}
}
