package entities

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMeetingCanTransitionTo(t *testing.T) {
	cases := []struct {
		name string
		from MeetingStatus
		to   MeetingStatus
		want bool
	}{
		{"scheduled to bot_requested", MeetingStatusScheduled, MeetingStatusBotRequested, true},
		{"bot_requested to in_progress", MeetingStatusBotRequested, MeetingStatusInProgress, true},
		{"in_progress to processing", MeetingStatusInProgress, MeetingStatusProcessing, true},
		{"processing to transcript_ready", MeetingStatusProcessing, MeetingStatusTranscriptReady, true},
		{"transcript_ready to insights_ready", MeetingStatusTranscriptReady, MeetingStatusInsightsReady, true},

		{"skipping ahead is allowed", MeetingStatusBotRequested, MeetingStatusProcessing, true},
		{"failure from any non-terminal state", MeetingStatusProcessing, MeetingStatusFailed, true},

		{"no going backwards", MeetingStatusProcessing, MeetingStatusInProgress, false},
		{"no self transition", MeetingStatusInProgress, MeetingStatusInProgress, false},
		{"insights_ready is terminal", MeetingStatusInsightsReady, MeetingStatusFailed, false},
		{"failed is terminal", MeetingStatusFailed, MeetingStatusScheduled, false},
		{"failed stays failed", MeetingStatusFailed, MeetingStatusFailed, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMeeting(uuid.New(), uuid.New(), MeetingTypeOneOnOne, time.Now())
			m.Status = tc.from
			if got := m.CanTransitionTo(tc.to); got != tc.want {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestMeetingIsCancellable(t *testing.T) {
	m := NewMeeting(uuid.New(), uuid.New(), MeetingTypeCheckIn, time.Now())
	if !m.IsCancellable() {
		t.Fatal("scheduled meeting should be cancellable")
	}

	m.Status = MeetingStatusBotRequested
	if m.IsCancellable() {
		t.Fatal("meeting with a bot session is no longer plainly cancellable")
	}
}

func TestMeetingFail(t *testing.T) {
	m := NewMeeting(uuid.New(), uuid.New(), MeetingTypeOneOnOne, time.Now())
	m.Fail("timeout")

	if m.Status != MeetingStatusFailed {
		t.Fatalf("expected failed, got %s", m.Status)
	}
	if m.FailureReason == nil || *m.FailureReason != "timeout" {
		t.Fatalf("expected reason timeout, got %v", m.FailureReason)
	}
}

func TestCredentialNeedsRefresh(t *testing.T) {
	cred := NewCredential(uuid.New(), ProviderCalendar)

	// No token at all
	if !cred.NeedsRefresh(time.Minute) {
		t.Fatal("credential without an access token must need refresh")
	}

	access := "token"
	cred.AccessToken = &access

	// Token present but never validated
	if !cred.NeedsRefresh(time.Minute) {
		t.Fatal("nil expiry must be treated as expired")
	}

	soon := time.Now().Add(30 * time.Second)
	cred.ExpiresAt = &soon
	if !cred.NeedsRefresh(time.Minute) {
		t.Fatal("token expiring inside the margin must need refresh")
	}

	later := time.Now().Add(time.Hour)
	cred.ExpiresAt = &later
	if cred.NeedsRefresh(time.Minute) {
		t.Fatal("token with plenty of life must not need refresh")
	}
}

func TestTranscriptReplace(t *testing.T) {
	tr := NewTranscript(uuid.New(), "original", nil)
	if tr.Version != 1 {
		t.Fatalf("expected version 1, got %d", tr.Version)
	}
	if !tr.SameContent("original") {
		t.Fatal("hash must match original content")
	}

	tr.Replace("corrected", nil)
	if tr.Version != 2 {
		t.Fatalf("expected version 2, got %d", tr.Version)
	}
	if tr.SameContent("original") {
		t.Fatal("hash must change with the content")
	}
	if !tr.SameContent("corrected") {
		t.Fatal("hash must match corrected content")
	}
}
