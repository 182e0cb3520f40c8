package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/workpulse-hq/workpulse/internal/domain/entities"
	"github.com/workpulse-hq/workpulse/internal/infrastructure/cache"
	"github.com/workpulse-hq/workpulse/internal/infrastructure/external/calendar"
	"github.com/workpulse-hq/workpulse/internal/infrastructure/external/meetingbot"
	"github.com/workpulse-hq/workpulse/pkg/config"
)

type fakeMeetingRepo struct {
	mu       sync.Mutex
	meetings map[uuid.UUID]*entities.Meeting
}

func newFakeMeetingRepo() *fakeMeetingRepo {
	return &fakeMeetingRepo{meetings: make(map[uuid.UUID]*entities.Meeting)}
}

func (f *fakeMeetingRepo) Create(_ context.Context, meeting *entities.Meeting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *meeting
	f.meetings[meeting.ID] = &cp
	return nil
}

func (f *fakeMeetingRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	meeting, ok := f.meetings[id]
	if !ok {
		return nil, entities.ErrMeetingNotFound
	}
	cp := *meeting
	return &cp, nil
}

func (f *fakeMeetingRepo) FindByBotSessionID(_ context.Context, botSessionID string) (*entities.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, meeting := range f.meetings {
		if meeting.BotSessionID != nil && *meeting.BotSessionID == botSessionID {
			cp := *meeting
			return &cp, nil
		}
	}
	return nil, entities.ErrUnknownBotSession
}

func (f *fakeMeetingRepo) FindDueForBot(_ context.Context, dueBy time.Time, limit int) ([]*entities.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []*entities.Meeting
	for _, meeting := range f.meetings {
		if meeting.Status == entities.MeetingStatusScheduled && !meeting.ScheduledAt.After(dueBy) {
			cp := *meeting
			due = append(due, &cp)
			if len(due) == limit {
				break
			}
		}
	}
	return due, nil
}

func (f *fakeMeetingRepo) FindStalled(_ context.Context, cutoff time.Time, limit int) ([]*entities.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var stalled []*entities.Meeting
	for _, meeting := range f.meetings {
		inFlight := meeting.Status == entities.MeetingStatusBotRequested || meeting.Status == entities.MeetingStatusInProgress
		if inFlight && meeting.UpdatedAt.Before(cutoff) {
			cp := *meeting
			stalled = append(stalled, &cp)
			if len(stalled) == limit {
				break
			}
		}
	}
	return stalled, nil
}

func (f *fakeMeetingRepo) SetBotSessionID(_ context.Context, meetingID uuid.UUID, botSessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	meeting, ok := f.meetings[meetingID]
	if !ok {
		return entities.ErrMeetingNotFound
	}
	if meeting.BotSessionID != nil && *meeting.BotSessionID != botSessionID {
		return entities.ErrBotSessionImmutable
	}
	meeting.BotSessionID = &botSessionID
	return nil
}

func (f *fakeMeetingRepo) UpdateStatus(_ context.Context, meetingID uuid.UUID, status entities.MeetingStatus, failureReason *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	meeting, ok := f.meetings[meetingID]
	if !ok {
		return entities.ErrMeetingNotFound
	}
	meeting.Status = status
	if status == entities.MeetingStatusFailed {
		meeting.FailureReason = failureReason
	}
	meeting.UpdatedAt = time.Now()
	return nil
}

func (f *fakeMeetingRepo) SetCalendarEvent(_ context.Context, meetingID uuid.UUID, eventID, joinURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	meeting, ok := f.meetings[meetingID]
	if !ok {
		return entities.ErrMeetingNotFound
	}
	meeting.CalendarEventID = &eventID
	if joinURL != "" {
		meeting.JoinURL = &joinURL
	}
	return nil
}

func (f *fakeMeetingRepo) MarkExtractionDegraded(_ context.Context, meetingID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	meeting, ok := f.meetings[meetingID]
	if !ok {
		return entities.ErrMeetingNotFound
	}
	meeting.ExtractionDegraded = true
	return nil
}

type fakeTranscriptRepo struct {
	mu          sync.Mutex
	transcripts map[uuid.UUID]*entities.Transcript
}

func newFakeTranscriptRepo() *fakeTranscriptRepo {
	return &fakeTranscriptRepo{transcripts: make(map[uuid.UUID]*entities.Transcript)}
}

func (f *fakeTranscriptRepo) Create(_ context.Context, transcript *entities.Transcript) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.transcripts[transcript.MeetingID]; exists {
		return errors.New("duplicate transcript for meeting")
	}
	cp := *transcript
	f.transcripts[transcript.MeetingID] = &cp
	return nil
}

func (f *fakeTranscriptRepo) FindByMeetingID(_ context.Context, meetingID uuid.UUID) (*entities.Transcript, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	transcript, ok := f.transcripts[meetingID]
	if !ok {
		return nil, entities.ErrTranscriptNotFound
	}
	cp := *transcript
	return &cp, nil
}

func (f *fakeTranscriptRepo) Update(_ context.Context, transcript *entities.Transcript) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *transcript
	f.transcripts[transcript.MeetingID] = &cp
	return nil
}

func (f *fakeTranscriptRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.transcripts)
}

type fakeEmployeeRepo struct {
	employees map[uuid.UUID]*entities.Employee
}

func (f *fakeEmployeeRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.Employee, error) {
	employee, ok := f.employees[id]
	if !ok {
		return nil, entities.ErrEmployeeNotFound
	}
	return employee, nil
}

type fakeBotClient struct {
	mu        sync.Mutex
	sessionID string
	joinCalls int
	leaveLog  []string
}

func (f *fakeBotClient) JoinMeeting(_ context.Context, _ uuid.UUID, _ *meetingbot.JoinRequest) (*meetingbot.JoinResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joinCalls++
	return &meetingbot.JoinResponse{SessionID: f.sessionID, Status: "joining"}, nil
}

func (f *fakeBotClient) LeaveMeeting(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaveLog = append(f.leaveLog, sessionID)
	return nil
}

type fakeTokenSource struct {
	tokens map[entities.Provider]string
	errs   map[entities.Provider]error
}

func (f *fakeTokenSource) GetValidAccessToken(_ context.Context, _ uuid.UUID, provider entities.Provider) (string, error) {
	if err, ok := f.errs[provider]; ok {
		return "", err
	}
	if token, ok := f.tokens[provider]; ok {
		return token, nil
	}
	return "", entities.ErrReauthRequired
}

type fakeCalendarClient struct {
	created []*calendar.Event
}

func (f *fakeCalendarClient) CreateEvent(_ context.Context, _ string, event *calendar.Event) (*calendar.Event, error) {
	cp := *event
	cp.ID = fmt.Sprintf("evt-%d", len(f.created)+1)
	cp.HangoutLink = "https://meet.example.com/abc"
	f.created = append(f.created, &cp)
	return &cp, nil
}

type fakeArchiver struct {
	mu   sync.Mutex
	keys []string
}

func (f *fakeArchiver) ArchiveTranscript(_ context.Context, meetingID uuid.UUID, version int, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("transcripts/%s/v%d", meetingID, version)
	f.keys = append(f.keys, key)
	return key, nil
}

type fakeExtractor struct {
	mu    sync.Mutex
	calls []uuid.UUID
}

func (f *fakeExtractor) ExtractInsights(_ context.Context, meetingID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, meetingID)
	return 3, nil
}

func (f *fakeExtractor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type orchestratorFixture struct {
	orch        *Orchestrator
	meetings    *fakeMeetingRepo
	transcripts *fakeTranscriptRepo
	bots        *fakeBotClient
	tokens      *fakeTokenSource
	calendars   *fakeCalendarClient
	archiver    *fakeArchiver
	extractor   *fakeExtractor
	employeeID  uuid.UUID
}

func newFixture() *orchestratorFixture {
	employeeID := uuid.New()
	f := &orchestratorFixture{
		meetings:    newFakeMeetingRepo(),
		transcripts: newFakeTranscriptRepo(),
		bots:        &fakeBotClient{sessionID: "session-1"},
		tokens: &fakeTokenSource{tokens: map[entities.Provider]string{
			entities.ProviderCalendar:     "cal-token",
			entities.ProviderConferencing: "conf-token",
		}},
		calendars:  &fakeCalendarClient{},
		archiver:   &fakeArchiver{},
		extractor:  &fakeExtractor{},
		employeeID: employeeID,
	}
	f.orch = NewOrchestrator(
		f.meetings,
		f.transcripts,
		&fakeEmployeeRepo{employees: map[uuid.UUID]*entities.Employee{
			employeeID: {ID: employeeID},
		}},
		f.bots,
		f.tokens,
		f.calendars,
		cache.NewMemoryStore(),
		f.archiver,
		f.extractor,
		&config.BotConfig{JoinLead: 2 * time.Minute, MaxWait: 4 * time.Hour},
		zap.NewNop(),
	)
	return f
}

// seedMeeting inserts a meeting directly in the given status
func (f *orchestratorFixture) seedMeeting(status entities.MeetingStatus, sessionID string) *entities.Meeting {
	meeting := entities.NewMeeting(uuid.New(), f.employeeID, entities.MeetingTypeOneOnOne, time.Now().Add(time.Hour))
	joinURL := "https://zoom.example.com/j/123"
	meeting.JoinURL = &joinURL
	meeting.Status = status
	if sessionID != "" {
		meeting.BotSessionID = &sessionID
	}
	_ = f.meetings.Create(context.Background(), meeting)
	return meeting
}

func transcriptEvent(sessionID, content string, ts int64) *WebhookEvent {
	payload, _ := json.Marshal(transcriptPayload{Content: content})
	raw := []byte(fmt.Sprintf(`{"bot_session_id":%q,"event_type":%q}`, sessionID, EventTranscriptReady))
	return &WebhookEvent{
		BotSessionID: sessionID,
		EventType:    EventTranscriptReady,
		Timestamp:    ts,
		Payload:      payload,
		Raw:          raw,
	}
}

func TestHandleWebhookEvent_HappyPathProgression(t *testing.T) {
	f := newFixture()
	meeting := f.seedMeeting(entities.MeetingStatusBotRequested, "session-1")
	ctx := context.Background()

	steps := []struct {
		eventType string
		want      entities.MeetingStatus
	}{
		{EventBotJoined, entities.MeetingStatusInProgress},
		{EventCallEnded, entities.MeetingStatusProcessing},
	}
	for i, step := range steps {
		event := &WebhookEvent{BotSessionID: "session-1", EventType: step.eventType, Timestamp: int64(i + 1)}
		if err := f.orch.HandleWebhookEvent(ctx, event); err != nil {
			t.Fatalf("event %s failed: %v", step.eventType, err)
		}
		got, _ := f.meetings.FindByID(ctx, meeting.ID)
		if got.Status != step.want {
			t.Fatalf("after %s expected %s, got %s", step.eventType, step.want, got.Status)
		}
	}

	if err := f.orch.HandleWebhookEvent(ctx, transcriptEvent("session-1", "hello world", 3)); err != nil {
		t.Fatalf("transcript event failed: %v", err)
	}
	got, _ := f.meetings.FindByID(ctx, meeting.ID)
	if got.Status != entities.MeetingStatusTranscriptReady {
		t.Fatalf("expected transcript_ready, got %s", got.Status)
	}
	if f.transcripts.count() != 1 {
		t.Fatalf("expected 1 transcript, got %d", f.transcripts.count())
	}
	if f.extractor.callCount() != 1 {
		t.Fatalf("expected 1 extraction handoff, got %d", f.extractor.callCount())
	}
	if len(f.archiver.keys) != 1 {
		t.Fatalf("expected raw payload archived once, got %d", len(f.archiver.keys))
	}
}

func TestHandleWebhookEvent_StaleEventIsNoOp(t *testing.T) {
	f := newFixture()
	meeting := f.seedMeeting(entities.MeetingStatusProcessing, "session-1")

	event := &WebhookEvent{BotSessionID: "session-1", EventType: EventBotJoined, Timestamp: 9}
	if err := f.orch.HandleWebhookEvent(context.Background(), event); err != nil {
		t.Fatalf("stale event must not error: %v", err)
	}
	got, _ := f.meetings.FindByID(context.Background(), meeting.ID)
	if got.Status != entities.MeetingStatusProcessing {
		t.Fatalf("stale event must not regress status, got %s", got.Status)
	}
}

func TestHandleWebhookEvent_DuplicateDeliveryDeduped(t *testing.T) {
	f := newFixture()
	f.seedMeeting(entities.MeetingStatusProcessing, "session-1")
	ctx := context.Background()

	event := transcriptEvent("session-1", "hello world", 42)
	if err := f.orch.HandleWebhookEvent(ctx, event); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	// Same session, type and timestamp: dropped by the dedup ledger
	if err := f.orch.HandleWebhookEvent(ctx, transcriptEvent("session-1", "hello world", 42)); err != nil {
		t.Fatalf("duplicate delivery must not error: %v", err)
	}

	if f.extractor.callCount() != 1 {
		t.Fatalf("duplicate delivery must not re-run extraction, got %d calls", f.extractor.callCount())
	}
	if f.transcripts.count() != 1 {
		t.Fatalf("expected 1 transcript, got %d", f.transcripts.count())
	}
}

func TestHandleWebhookEvent_RedeliveredTranscriptSameContent(t *testing.T) {
	f := newFixture()
	meeting := f.seedMeeting(entities.MeetingStatusProcessing, "session-1")
	ctx := context.Background()

	if err := f.orch.HandleWebhookEvent(ctx, transcriptEvent("session-1", "same text", 1)); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	// Distinct delivery (new timestamp) carrying identical text
	if err := f.orch.HandleWebhookEvent(ctx, transcriptEvent("session-1", "same text", 2)); err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}

	transcript, err := f.transcripts.FindByMeetingID(ctx, meeting.ID)
	if err != nil {
		t.Fatalf("transcript missing: %v", err)
	}
	if transcript.Version != 1 {
		t.Fatalf("identical redelivery must not bump version, got %d", transcript.Version)
	}
	if f.transcripts.count() != 1 {
		t.Fatalf("expected 1 transcript row, got %d", f.transcripts.count())
	}
}

func TestHandleWebhookEvent_CorrectedTranscriptBumpsVersion(t *testing.T) {
	f := newFixture()
	meeting := f.seedMeeting(entities.MeetingStatusProcessing, "session-1")
	ctx := context.Background()

	if err := f.orch.HandleWebhookEvent(ctx, transcriptEvent("session-1", "first pass", 1)); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	if err := f.orch.HandleWebhookEvent(ctx, transcriptEvent("session-1", "corrected text", 2)); err != nil {
		t.Fatalf("corrected delivery failed: %v", err)
	}

	transcript, _ := f.transcripts.FindByMeetingID(ctx, meeting.ID)
	if transcript.Version != 2 {
		t.Fatalf("expected version 2 after correction, got %d", transcript.Version)
	}
	if transcript.Content != "corrected text" {
		t.Fatalf("expected corrected content, got %q", transcript.Content)
	}
	if f.extractor.callCount() != 2 {
		t.Fatalf("correction must re-run extraction, got %d calls", f.extractor.callCount())
	}
}

func TestHandleWebhookEvent_UnknownSessionIgnored(t *testing.T) {
	f := newFixture()

	event := &WebhookEvent{BotSessionID: "never-seen", EventType: EventBotJoined, Timestamp: 1}
	if err := f.orch.HandleWebhookEvent(context.Background(), event); err != nil {
		t.Fatalf("unknown session must not error: %v", err)
	}
}

func TestHandleWebhookEvent_PostTerminalIgnored(t *testing.T) {
	f := newFixture()
	meeting := f.seedMeeting(entities.MeetingStatusFailed, "session-1")

	if err := f.orch.HandleWebhookEvent(context.Background(), transcriptEvent("session-1", "late text", 1)); err != nil {
		t.Fatalf("post-terminal event must not error: %v", err)
	}
	got, _ := f.meetings.FindByID(context.Background(), meeting.ID)
	if got.Status != entities.MeetingStatusFailed {
		t.Fatalf("terminal status must not change, got %s", got.Status)
	}
	if f.transcripts.count() != 0 {
		t.Fatal("post-terminal transcript must not be stored")
	}
}

func TestHandleWebhookEvent_UnknownEventTypeIgnored(t *testing.T) {
	f := newFixture()
	meeting := f.seedMeeting(entities.MeetingStatusInProgress, "session-1")

	event := &WebhookEvent{BotSessionID: "session-1", EventType: "bot.waving", Timestamp: 1}
	if err := f.orch.HandleWebhookEvent(context.Background(), event); err != nil {
		t.Fatalf("unknown event type must not error: %v", err)
	}
	got, _ := f.meetings.FindByID(context.Background(), meeting.ID)
	if got.Status != entities.MeetingStatusInProgress {
		t.Fatalf("unknown event must not change status, got %s", got.Status)
	}
}

func TestHandleWebhookEvent_BotFailure(t *testing.T) {
	f := newFixture()
	meeting := f.seedMeeting(entities.MeetingStatusInProgress, "session-1")

	payload, _ := json.Marshal(failurePayload{Reason: "kicked from call"})
	event := &WebhookEvent{BotSessionID: "session-1", EventType: EventBotFailed, Timestamp: 1, Payload: payload}
	if err := f.orch.HandleWebhookEvent(context.Background(), event); err != nil {
		t.Fatalf("bot failure event errored: %v", err)
	}

	got, _ := f.meetings.FindByID(context.Background(), meeting.ID)
	if got.Status != entities.MeetingStatusFailed {
		t.Fatalf("expected failed, got %s", got.Status)
	}
	if got.FailureReason == nil || *got.FailureReason != "kicked from call" {
		t.Fatalf("expected provider reason, got %v", got.FailureReason)
	}
}

func TestCancelMeeting_Scheduled(t *testing.T) {
	f := newFixture()
	meeting := f.seedMeeting(entities.MeetingStatusScheduled, "")

	if err := f.orch.CancelMeeting(context.Background(), meeting.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	got, _ := f.meetings.FindByID(context.Background(), meeting.ID)
	if got.Status != entities.MeetingStatusFailed {
		t.Fatalf("expected failed, got %s", got.Status)
	}
	if got.FailureReason == nil || *got.FailureReason != "cancelled" {
		t.Fatalf("expected reason cancelled, got %v", got.FailureReason)
	}
	if len(f.bots.leaveLog) != 0 {
		t.Fatal("no bot session exists, leave must not be called")
	}
}

func TestCancelMeeting_WithBotSessionRequestsLeave(t *testing.T) {
	f := newFixture()
	meeting := f.seedMeeting(entities.MeetingStatusInProgress, "session-1")

	if err := f.orch.CancelMeeting(context.Background(), meeting.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if len(f.bots.leaveLog) != 1 || f.bots.leaveLog[0] != "session-1" {
		t.Fatalf("expected leave for session-1, got %v", f.bots.leaveLog)
	}
	got, _ := f.meetings.FindByID(context.Background(), meeting.ID)
	if got.FailureReason == nil || *got.FailureReason != "cancelled" {
		t.Fatalf("expected reason cancelled, got %v", got.FailureReason)
	}
}

func TestCancelMeeting_PastLivePhaseRejected(t *testing.T) {
	f := newFixture()
	meeting := f.seedMeeting(entities.MeetingStatusProcessing, "session-1")

	err := f.orch.CancelMeeting(context.Background(), meeting.ID)
	if !errors.Is(err, entities.ErrMeetingNotCancellable) {
		t.Fatalf("expected ErrMeetingNotCancellable, got %v", err)
	}
}

func TestScheduleMeeting_CreatesCalendarEvent(t *testing.T) {
	f := newFixture()

	meeting, err := f.orch.ScheduleMeeting(context.Background(), &ScheduleInput{
		ManagerID:   uuid.New(),
		EmployeeID:  f.employeeID,
		MeetingType: entities.MeetingTypeOneOnOne,
		ScheduledAt: time.Now().Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	if meeting.Status != entities.MeetingStatusScheduled {
		t.Fatalf("expected scheduled, got %s", meeting.Status)
	}
	if len(f.calendars.created) != 1 {
		t.Fatalf("expected 1 calendar event, got %d", len(f.calendars.created))
	}
	got, _ := f.meetings.FindByID(context.Background(), meeting.ID)
	if got.CalendarEventID == nil {
		t.Fatal("calendar event id not stored")
	}
	if got.JoinURL == nil || *got.JoinURL == "" {
		t.Fatal("join url not stored from calendar event")
	}
}

func TestScheduleMeeting_NoCalendarCredentialStillSchedules(t *testing.T) {
	f := newFixture()
	f.tokens.errs = map[entities.Provider]error{entities.ProviderCalendar: entities.ErrReauthRequired}

	meeting, err := f.orch.ScheduleMeeting(context.Background(), &ScheduleInput{
		ManagerID:   uuid.New(),
		EmployeeID:  f.employeeID,
		MeetingType: entities.MeetingTypeCheckIn,
		ScheduledAt: time.Now().Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	if len(f.calendars.created) != 0 {
		t.Fatal("no calendar event expected without a credential")
	}
	if meeting.CalendarEventID != nil {
		t.Fatal("calendar event id must stay empty")
	}
}

func TestScheduleMeeting_UnknownEmployeeRejected(t *testing.T) {
	f := newFixture()

	_, err := f.orch.ScheduleMeeting(context.Background(), &ScheduleInput{
		ManagerID:   uuid.New(),
		EmployeeID:  uuid.New(),
		MeetingType: entities.MeetingTypeOneOnOne,
		ScheduledAt: time.Now().Add(time.Hour),
	})
	if !errors.Is(err, entities.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestRequestBotJoin_DispatchesAndStoresSession(t *testing.T) {
	f := newFixture()
	meeting := f.seedMeeting(entities.MeetingStatusScheduled, "")

	f.orch.requestBotJoin(context.Background(), meeting.ID)

	got, _ := f.meetings.FindByID(context.Background(), meeting.ID)
	if got.Status != entities.MeetingStatusBotRequested {
		t.Fatalf("expected bot_requested, got %s", got.Status)
	}
	if got.BotSessionID == nil || *got.BotSessionID != "session-1" {
		t.Fatalf("expected session-1 stored, got %v", got.BotSessionID)
	}
}

func TestRequestBotJoin_RevokedGrantFailsMeeting(t *testing.T) {
	f := newFixture()
	f.tokens.errs = map[entities.Provider]error{entities.ProviderConferencing: entities.ErrReauthRequired}
	meeting := f.seedMeeting(entities.MeetingStatusScheduled, "")

	f.orch.requestBotJoin(context.Background(), meeting.ID)

	got, _ := f.meetings.FindByID(context.Background(), meeting.ID)
	if got.Status != entities.MeetingStatusFailed {
		t.Fatalf("expected failed, got %s", got.Status)
	}
	if f.bots.joinCalls != 0 {
		t.Fatal("revoked grant must not dispatch the bot")
	}
}

func TestRequestBotJoin_TransientTokenErrorLeavesScheduled(t *testing.T) {
	f := newFixture()
	f.tokens.errs = map[entities.Provider]error{entities.ProviderConferencing: entities.ErrAuthTransient}
	meeting := f.seedMeeting(entities.MeetingStatusScheduled, "")

	f.orch.requestBotJoin(context.Background(), meeting.ID)

	got, _ := f.meetings.FindByID(context.Background(), meeting.ID)
	if got.Status != entities.MeetingStatusScheduled {
		t.Fatalf("transient failure must leave meeting scheduled, got %s", got.Status)
	}
}

func TestRequestBotJoin_MissingJoinURLFails(t *testing.T) {
	f := newFixture()
	meeting := f.seedMeeting(entities.MeetingStatusScheduled, "")
	f.meetings.mu.Lock()
	f.meetings.meetings[meeting.ID].JoinURL = nil
	f.meetings.mu.Unlock()

	f.orch.requestBotJoin(context.Background(), meeting.ID)

	got, _ := f.meetings.FindByID(context.Background(), meeting.ID)
	if got.Status != entities.MeetingStatusFailed {
		t.Fatalf("expected failed, got %s", got.Status)
	}
	if got.FailureReason == nil || *got.FailureReason != "missing join url" {
		t.Fatalf("expected missing join url reason, got %v", got.FailureReason)
	}
}

func TestFailStalledMeetings_TimesOut(t *testing.T) {
	f := newFixture()
	meeting := f.seedMeeting(entities.MeetingStatusInProgress, "session-1")
	f.meetings.mu.Lock()
	f.meetings.meetings[meeting.ID].UpdatedAt = time.Now().Add(-5 * time.Hour)
	f.meetings.mu.Unlock()

	f.orch.failStalledMeetings(context.Background())

	got, _ := f.meetings.FindByID(context.Background(), meeting.ID)
	if got.Status != entities.MeetingStatusFailed {
		t.Fatalf("expected failed, got %s", got.Status)
	}
	if got.FailureReason == nil || *got.FailureReason != "timeout" {
		t.Fatalf("expected timeout reason, got %v", got.FailureReason)
	}
	if len(f.bots.leaveLog) != 1 {
		t.Fatalf("expected bot leave on timeout, got %d", len(f.bots.leaveLog))
	}
}

func TestFailStalledMeetings_FreshMeetingUntouched(t *testing.T) {
	f := newFixture()
	meeting := f.seedMeeting(entities.MeetingStatusInProgress, "session-1")

	f.orch.failStalledMeetings(context.Background())

	got, _ := f.meetings.FindByID(context.Background(), meeting.ID)
	if got.Status != entities.MeetingStatusInProgress {
		t.Fatalf("fresh meeting must not time out, got %s", got.Status)
	}
}

func TestDispatchDueMeetings(t *testing.T) {
	f := newFixture()
	due := f.seedMeeting(entities.MeetingStatusScheduled, "")
	f.meetings.mu.Lock()
	f.meetings.meetings[due.ID].ScheduledAt = time.Now().Add(time.Minute)
	f.meetings.mu.Unlock()
	farOut := f.seedMeeting(entities.MeetingStatusScheduled, "")
	f.meetings.mu.Lock()
	f.meetings.meetings[farOut.ID].ScheduledAt = time.Now().Add(time.Hour)
	f.meetings.mu.Unlock()

	f.orch.dispatchDueMeetings(context.Background())

	gotDue, _ := f.meetings.FindByID(context.Background(), due.ID)
	if gotDue.Status != entities.MeetingStatusBotRequested {
		t.Fatalf("due meeting should be dispatched, got %s", gotDue.Status)
	}
	gotFar, _ := f.meetings.FindByID(context.Background(), farOut.ID)
	if gotFar.Status != entities.MeetingStatusScheduled {
		t.Fatalf("future meeting must stay scheduled, got %s", gotFar.Status)
	}
}

func TestStartStop(t *testing.T) {
	f := newFixture()
	f.orch.Start()
	// Second start is a no-op
	f.orch.Start()

	if err := f.orch.EnqueueWebhookEvent(&WebhookEvent{BotSessionID: "none", EventType: EventBotJoined, Timestamp: 1}); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	f.orch.Stop()
	// Second stop is a no-op
	f.orch.Stop()
}
