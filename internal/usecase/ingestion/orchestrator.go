package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/workpulse-hq/workpulse/internal/domain/entities"
	"github.com/workpulse-hq/workpulse/internal/domain/repositories"
	"github.com/workpulse-hq/workpulse/internal/infrastructure/external/calendar"
	"github.com/workpulse-hq/workpulse/internal/infrastructure/external/meetingbot"
	"github.com/workpulse-hq/workpulse/pkg/config"
	"github.com/workpulse-hq/workpulse/pkg/lock"
)

const (
	defaultWorkerCount = 4
	eventQueueSize     = 256

	schedulerInterval = 30 * time.Second
	watchdogInterval  = time.Minute

	// dedupTTL bounds how long processed webhook events stay in the ledger
	dedupTTL = 24 * time.Hour

	dueBatchSize     = 20
	stalledBatchSize = 50
)

// Bot provider event types we understand. Anything else is logged and dropped.
const (
	EventBotJoined       = "bot.joined"
	EventCallEnded       = "call.ended"
	EventTranscriptReady = "transcript.ready"
	EventBotFailed       = "bot.failed"
)

// BotClient is the slice of the meeting-bot provider API the orchestrator uses
type BotClient interface {
	JoinMeeting(ctx context.Context, meetingID uuid.UUID, req *meetingbot.JoinRequest) (*meetingbot.JoinResponse, error)
	LeaveMeeting(ctx context.Context, sessionID string) error
}

// TokenSource hands out valid provider access tokens
type TokenSource interface {
	GetValidAccessToken(ctx context.Context, userID uuid.UUID, provider entities.Provider) (string, error)
}

// CalendarClient creates calendar events for scheduled meetings
type CalendarClient interface {
	CreateEvent(ctx context.Context, accessToken string, event *calendar.Event) (*calendar.Event, error)
}

// Deduper is the set-if-absent ledger used to drop replayed webhook deliveries
type Deduper interface {
	SetIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Archiver stores raw transcript deliveries
type Archiver interface {
	ArchiveTranscript(ctx context.Context, meetingID uuid.UUID, version int, payload []byte) (string, error)
}

// InsightExtractor runs insight extraction for a meeting with a stored
// transcript
type InsightExtractor interface {
	ExtractInsights(ctx context.Context, meetingID uuid.UUID) (int, error)
}

// WebhookEvent is one delivery from the bot provider
type WebhookEvent struct {
	BotSessionID string          `json:"bot_session_id"`
	EventType    string          `json:"event_type"`
	Timestamp    int64           `json:"timestamp"`
	Payload      json.RawMessage `json:"payload,omitempty"`

	// Raw is the full request body, kept for archiving
	Raw []byte `json:"-"`
}

type transcriptPayload struct {
	Content  string  `json:"content"`
	Language *string `json:"language,omitempty"`
}

type failurePayload struct {
	Reason string `json:"reason"`
}

// ScheduleInput carries everything needed to create a meeting
type ScheduleInput struct {
	ManagerID       uuid.UUID
	EmployeeID      uuid.UUID
	MeetingType     entities.MeetingType
	ScheduledAt     time.Time
	Title           *string
	DurationMinutes *int
	Platform        *string
	JoinURL         *string
}

// Orchestrator drives the meeting lifecycle: scheduling, dispatching the bot,
// absorbing provider webhooks and handing completed transcripts to the insight
// pipeline. All mutations of one meeting are serialized behind a per-meeting
// keyed lock, so the scheduler, the watchdog, cancellation and webhook workers
// never interleave on the same row.
type Orchestrator struct {
	meetingRepo    repositories.MeetingRepository
	transcriptRepo repositories.TranscriptRepository
	employeeRepo   repositories.EmployeeRepository

	bots      BotClient
	tokens    TokenSource
	calendars CalendarClient
	deduper   Deduper
	archiver  Archiver
	extractor InsightExtractor

	locks  *lock.Keyed
	logger *zap.Logger

	joinLead time.Duration
	maxWait  time.Duration

	events      chan *WebhookEvent
	stopChan    chan struct{}
	workerCount int
	wg          sync.WaitGroup
	isRunning   bool
	mu          sync.Mutex
}

// NewOrchestrator creates the ingestion orchestrator
func NewOrchestrator(
	meetingRepo repositories.MeetingRepository,
	transcriptRepo repositories.TranscriptRepository,
	employeeRepo repositories.EmployeeRepository,
	bots BotClient,
	tokens TokenSource,
	calendars CalendarClient,
	deduper Deduper,
	archiver Archiver,
	extractor InsightExtractor,
	cfg *config.BotConfig,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		meetingRepo:    meetingRepo,
		transcriptRepo: transcriptRepo,
		employeeRepo:   employeeRepo,
		bots:           bots,
		tokens:         tokens,
		calendars:      calendars,
		deduper:        deduper,
		archiver:       archiver,
		extractor:      extractor,
		locks:          lock.NewKeyed(),
		logger:         logger,
		joinLead:       cfg.JoinLead,
		maxWait:        cfg.MaxWait,
		events:         make(chan *WebhookEvent, eventQueueSize),
		stopChan:       make(chan struct{}),
		workerCount:    defaultWorkerCount,
	}
}

// Start launches the webhook workers, the join scheduler and the timeout
// watchdog
func (o *Orchestrator) Start() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.isRunning {
		return
	}
	o.isRunning = true

	for i := 0; i < o.workerCount; i++ {
		o.wg.Add(1)
		go o.worker(i)
	}
	o.wg.Add(2)
	go o.schedulerLoop()
	go o.watchdogLoop()

	o.logger.Info("ingestion orchestrator started", zap.Int("workers", o.workerCount))
}

// Stop shuts down all loops and waits for in-flight events to finish
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.isRunning {
		o.mu.Unlock()
		return
	}
	o.isRunning = false
	o.mu.Unlock()

	close(o.stopChan)
	o.wg.Wait()
	o.logger.Info("ingestion orchestrator stopped")
}

// ScheduleMeeting creates a meeting in the scheduled state. If the manager
// holds a calendar credential, a calendar event is created as well; calendar
// failures are logged and do not fail the scheduling.
func (o *Orchestrator) ScheduleMeeting(ctx context.Context, input *ScheduleInput) (*entities.Meeting, error) {
	if !input.MeetingType.IsValid() {
		return nil, entities.ErrInvalidRequest
	}
	if _, err := o.employeeRepo.FindByID(ctx, input.EmployeeID); err != nil {
		return nil, err
	}

	meeting := entities.NewMeeting(input.ManagerID, input.EmployeeID, input.MeetingType, input.ScheduledAt)
	meeting.Title = input.Title
	meeting.DurationMinutes = input.DurationMinutes
	meeting.Platform = input.Platform
	meeting.JoinURL = input.JoinURL

	if err := o.meetingRepo.Create(ctx, meeting); err != nil {
		return nil, err
	}

	o.createCalendarEvent(ctx, meeting)

	o.logger.Info("meeting scheduled",
		zap.String("meeting_id", meeting.ID.String()),
		zap.Time("scheduled_at", meeting.ScheduledAt),
	)
	return meeting, nil
}

// createCalendarEvent is best effort: no calendar credential or a provider
// failure leaves the meeting without an event.
func (o *Orchestrator) createCalendarEvent(ctx context.Context, meeting *entities.Meeting) {
	token, err := o.tokens.GetValidAccessToken(ctx, meeting.ManagerID, entities.ProviderCalendar)
	if err != nil {
		if !errors.Is(err, entities.ErrReauthRequired) {
			o.logger.Warn("calendar token unavailable for scheduled meeting",
				zap.String("meeting_id", meeting.ID.String()),
				zap.Error(err),
			)
		}
		return
	}

	title := "1:1 meeting"
	if meeting.Title != nil {
		title = *meeting.Title
	}
	duration := 30 * time.Minute
	if meeting.DurationMinutes != nil {
		duration = time.Duration(*meeting.DurationMinutes) * time.Minute
	}

	event, err := o.calendars.CreateEvent(ctx, token, &calendar.Event{
		Summary: title,
		Start:   &calendar.EventDateTime{DateTime: meeting.ScheduledAt.Format(time.RFC3339)},
		End:     &calendar.EventDateTime{DateTime: meeting.ScheduledAt.Add(duration).Format(time.RFC3339)},
	})
	if err != nil {
		o.logger.Warn("failed to create calendar event",
			zap.String("meeting_id", meeting.ID.String()),
			zap.Error(err),
		)
		return
	}

	joinURL := event.HangoutLink
	if meeting.JoinURL != nil && *meeting.JoinURL != "" {
		joinURL = *meeting.JoinURL
	}
	if err := o.meetingRepo.SetCalendarEvent(ctx, meeting.ID, event.ID, joinURL); err != nil {
		o.logger.Error("failed to store calendar event reference",
			zap.String("meeting_id", meeting.ID.String()),
			zap.Error(err),
		)
		return
	}
	meeting.CalendarEventID = &event.ID
	if joinURL != "" {
		meeting.JoinURL = &joinURL
	}
}

// GetMeeting returns a meeting by id
func (o *Orchestrator) GetMeeting(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	return o.meetingRepo.FindByID(ctx, id)
}

// CancelMeeting cancels a meeting. In scheduled it simply fails with reason
// "cancelled"; once a bot session exists the provider is asked to leave first,
// because the external session cannot be un-created. Meetings already past the
// live phase cannot be cancelled.
func (o *Orchestrator) CancelMeeting(ctx context.Context, id uuid.UUID) error {
	o.locks.Lock(id.String())
	defer o.locks.Unlock(id.String())

	meeting, err := o.meetingRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	switch meeting.Status {
	case entities.MeetingStatusScheduled:
		// No bot yet, nothing external to tear down
	case entities.MeetingStatusBotRequested, entities.MeetingStatusInProgress:
		if meeting.BotSessionID != nil {
			if err := o.bots.LeaveMeeting(ctx, *meeting.BotSessionID); err != nil {
				o.logger.Warn("bot leave on cancel failed",
					zap.String("meeting_id", id.String()),
					zap.Error(err),
				)
			}
		}
	default:
		return entities.ErrMeetingNotCancellable
	}

	reason := "cancelled"
	if err := o.meetingRepo.UpdateStatus(ctx, id, entities.MeetingStatusFailed, &reason); err != nil {
		return err
	}

	o.logger.Info("meeting cancelled",
		zap.String("meeting_id", id.String()),
		zap.String("from_status", string(meeting.Status)),
	)
	return nil
}

// EnqueueWebhookEvent hands a verified webhook delivery to the worker pool.
// The HTTP handler calls this and replies 202 immediately.
func (o *Orchestrator) EnqueueWebhookEvent(event *WebhookEvent) error {
	select {
	case o.events <- event:
		return nil
	default:
		return fmt.Errorf("webhook event queue is full")
	}
}

func (o *Orchestrator) worker(id int) {
	defer o.wg.Done()
	for {
		select {
		case <-o.stopChan:
			return
		case event := <-o.events:
			if err := o.HandleWebhookEvent(context.Background(), event); err != nil {
				o.logger.Error("webhook event processing failed",
					zap.Int("worker", id),
					zap.String("bot_session_id", event.BotSessionID),
					zap.String("event_type", event.EventType),
					zap.Error(err),
				)
			}
		}
	}
}

// HandleWebhookEvent processes one provider delivery. Duplicates, unknown
// sessions, stale events and post-terminal events are all absorbed without
// error: the provider retries on non-2xx, and none of these are worth a retry.
func (o *Orchestrator) HandleWebhookEvent(ctx context.Context, event *WebhookEvent) error {
	dedupKey := fmt.Sprintf("webhook:%s:%s:%d", event.BotSessionID, event.EventType, event.Timestamp)
	created, err := o.deduper.SetIfAbsent(ctx, dedupKey, dedupTTL)
	if err != nil {
		// Dedup is an optimization; the monotonic transition check below is
		// what guarantees correctness
		o.logger.Warn("webhook dedup check failed", zap.Error(err))
	} else if !created {
		o.logger.Debug("duplicate webhook event dropped",
			zap.String("bot_session_id", event.BotSessionID),
			zap.String("event_type", event.EventType),
		)
		return nil
	}

	meeting, err := o.meetingRepo.FindByBotSessionID(ctx, event.BotSessionID)
	if err != nil {
		if errors.Is(err, entities.ErrUnknownBotSession) {
			o.logger.Warn("webhook event for unknown bot session",
				zap.String("bot_session_id", event.BotSessionID),
				zap.String("event_type", event.EventType),
			)
			return nil
		}
		return err
	}

	o.locks.Lock(meeting.ID.String())
	defer o.locks.Unlock(meeting.ID.String())

	// Re-read under the lock; another event may have advanced the meeting
	meeting, err = o.meetingRepo.FindByID(ctx, meeting.ID)
	if err != nil {
		return err
	}

	if meeting.Status.IsTerminal() {
		o.logger.Warn("webhook event after terminal status ignored",
			zap.String("meeting_id", meeting.ID.String()),
			zap.String("status", string(meeting.Status)),
			zap.String("event_type", event.EventType),
		)
		return nil
	}

	switch event.EventType {
	case EventBotJoined:
		return o.advance(ctx, meeting, entities.MeetingStatusInProgress, event.EventType)
	case EventCallEnded:
		return o.advance(ctx, meeting, entities.MeetingStatusProcessing, event.EventType)
	case EventTranscriptReady:
		return o.handleTranscript(ctx, meeting, event)
	case EventBotFailed:
		return o.handleBotFailure(ctx, meeting, event)
	default:
		o.logger.Warn("unknown webhook event type ignored",
			zap.String("meeting_id", meeting.ID.String()),
			zap.String("event_type", event.EventType),
		)
		return nil
	}
}

// advance moves the meeting forward if the transition is legal; stale and
// out-of-order events are logged no-ops.
func (o *Orchestrator) advance(ctx context.Context, meeting *entities.Meeting, next entities.MeetingStatus, eventType string) error {
	if !meeting.CanTransitionTo(next) {
		o.logger.Info("stale webhook event dropped",
			zap.String("meeting_id", meeting.ID.String()),
			zap.String("status", string(meeting.Status)),
			zap.String("event_type", eventType),
		)
		return nil
	}
	if err := o.meetingRepo.UpdateStatus(ctx, meeting.ID, next, nil); err != nil {
		return err
	}
	meeting.Status = next
	o.logger.Info("meeting status advanced",
		zap.String("meeting_id", meeting.ID.String()),
		zap.String("status", string(next)),
	)
	return nil
}

func (o *Orchestrator) handleBotFailure(ctx context.Context, meeting *entities.Meeting, event *WebhookEvent) error {
	reason := "bot failure"
	var p failurePayload
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &p); err == nil && p.Reason != "" {
			reason = p.Reason
		}
	}
	if err := o.meetingRepo.UpdateStatus(ctx, meeting.ID, entities.MeetingStatusFailed, &reason); err != nil {
		return err
	}
	o.logger.Warn("meeting failed by bot provider",
		zap.String("meeting_id", meeting.ID.String()),
		zap.String("reason", reason),
	)
	return nil
}

// handleTranscript stores or replaces the transcript, archives the raw
// delivery and hands the meeting to the insight pipeline. A redelivery with
// identical text is a no-op; corrected text replaces the row and bumps the
// version so stale insights can be told apart.
func (o *Orchestrator) handleTranscript(ctx context.Context, meeting *entities.Meeting, event *WebhookEvent) error {
	var p transcriptPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil || p.Content == "" {
		o.logger.Warn("transcript event with unusable payload ignored",
			zap.String("meeting_id", meeting.ID.String()),
			zap.Error(err),
		)
		return nil
	}

	transcript, err := o.transcriptRepo.FindByMeetingID(ctx, meeting.ID)
	switch {
	case errors.Is(err, entities.ErrTranscriptNotFound):
		transcript = entities.NewTranscript(meeting.ID, p.Content, p.Language)
		if err := o.transcriptRepo.Create(ctx, transcript); err != nil {
			return err
		}
	case err != nil:
		return err
	case transcript.SameContent(p.Content):
		o.logger.Info("duplicate transcript delivery ignored",
			zap.String("meeting_id", meeting.ID.String()),
			zap.Int("version", transcript.Version),
		)
	default:
		transcript.Replace(p.Content, p.Language)
		if err := o.transcriptRepo.Update(ctx, transcript); err != nil {
			return err
		}
		o.logger.Info("transcript replaced with corrected content",
			zap.String("meeting_id", meeting.ID.String()),
			zap.Int("version", transcript.Version),
		)
	}

	if len(event.Raw) > 0 {
		if _, err := o.archiver.ArchiveTranscript(ctx, meeting.ID, transcript.Version, event.Raw); err != nil {
			o.logger.Warn("transcript archive failed",
				zap.String("meeting_id", meeting.ID.String()),
				zap.Error(err),
			)
		}
	}

	if meeting.CanTransitionTo(entities.MeetingStatusTranscriptReady) {
		if err := o.meetingRepo.UpdateStatus(ctx, meeting.ID, entities.MeetingStatusTranscriptReady, nil); err != nil {
			return err
		}
		meeting.Status = entities.MeetingStatusTranscriptReady
	}

	if _, err := o.extractor.ExtractInsights(ctx, meeting.ID); err != nil {
		// The pipeline handles its own degradation; the transcript is safe
		o.logger.Warn("insight extraction did not complete",
			zap.String("meeting_id", meeting.ID.String()),
			zap.Error(err),
		)
	}
	return nil
}

func (o *Orchestrator) schedulerLoop() {
	defer o.wg.Done()
	ticker := time.NewTicker(schedulerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-o.stopChan:
			return
		case <-ticker.C:
			o.dispatchDueMeetings(context.Background())
		}
	}
}

// dispatchDueMeetings sends the bot into every meeting whose start is within
// the join lead
func (o *Orchestrator) dispatchDueMeetings(ctx context.Context) {
	meetings, err := o.meetingRepo.FindDueForBot(ctx, time.Now().Add(o.joinLead), dueBatchSize)
	if err != nil {
		o.logger.Error("failed to list due meetings", zap.Error(err))
		return
	}
	for _, meeting := range meetings {
		o.requestBotJoin(ctx, meeting.ID)
	}
}

// requestBotJoin asks the provider to join one meeting. A conferencing grant
// that needs re-authorization fails the meeting; transient trouble leaves it
// scheduled for the next tick.
func (o *Orchestrator) requestBotJoin(ctx context.Context, meetingID uuid.UUID) {
	o.locks.Lock(meetingID.String())
	defer o.locks.Unlock(meetingID.String())

	meeting, err := o.meetingRepo.FindByID(ctx, meetingID)
	if err != nil {
		o.logger.Error("failed to load due meeting", zap.String("meeting_id", meetingID.String()), zap.Error(err))
		return
	}
	if meeting.Status != entities.MeetingStatusScheduled {
		return
	}

	if meeting.JoinURL == nil || *meeting.JoinURL == "" {
		reason := "missing join url"
		if err := o.meetingRepo.UpdateStatus(ctx, meetingID, entities.MeetingStatusFailed, &reason); err != nil {
			o.logger.Error("failed to fail meeting without join url", zap.Error(err))
		}
		return
	}

	if _, err := o.tokens.GetValidAccessToken(ctx, meeting.ManagerID, entities.ProviderConferencing); err != nil {
		if errors.Is(err, entities.ErrReauthRequired) {
			reason := "conferencing authorization revoked"
			if err := o.meetingRepo.UpdateStatus(ctx, meetingID, entities.MeetingStatusFailed, &reason); err != nil {
				o.logger.Error("failed to fail meeting on revoked grant", zap.Error(err))
			}
			return
		}
		o.logger.Warn("conferencing token unavailable, will retry",
			zap.String("meeting_id", meetingID.String()),
			zap.Error(err),
		)
		return
	}

	platform := ""
	if meeting.Platform != nil {
		platform = *meeting.Platform
	}
	joinReq := &meetingbot.JoinRequest{
		JoinURL:     *meeting.JoinURL,
		ScheduledAt: meeting.ScheduledAt,
		Platform:    platform,
		BotName:     "WorkPulse Notetaker",
	}

	var joinResp *meetingbot.JoinResponse
	operation := func() error {
		var joinErr error
		joinResp, joinErr = o.bots.JoinMeeting(ctx, meetingID, joinReq)
		return joinErr
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxInterval = 30 * time.Second
	if err := backoff.Retry(operation, backoff.WithMaxRetries(backoff.WithContext(bo, ctx), 3)); err != nil {
		o.logger.Warn("bot join failed, will retry next tick",
			zap.String("meeting_id", meetingID.String()),
			zap.Error(err),
		)
		return
	}

	if err := o.meetingRepo.SetBotSessionID(ctx, meetingID, joinResp.SessionID); err != nil {
		if errors.Is(err, entities.ErrBotSessionImmutable) {
			o.logger.Error("bot session id conflict",
				zap.String("meeting_id", meetingID.String()),
				zap.String("session_id", joinResp.SessionID),
			)
			return
		}
		o.logger.Error("failed to store bot session id", zap.Error(err))
		return
	}
	if err := o.meetingRepo.UpdateStatus(ctx, meetingID, entities.MeetingStatusBotRequested, nil); err != nil {
		o.logger.Error("failed to mark meeting bot_requested", zap.Error(err))
		return
	}

	o.logger.Info("bot dispatched",
		zap.String("meeting_id", meetingID.String()),
		zap.String("session_id", joinResp.SessionID),
	)
}

func (o *Orchestrator) watchdogLoop() {
	defer o.wg.Done()
	ticker := time.NewTicker(watchdogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-o.stopChan:
			return
		case <-ticker.C:
			o.failStalledMeetings(context.Background())
		}
	}
}

// failStalledMeetings times out meetings stuck waiting on the bot or the call
func (o *Orchestrator) failStalledMeetings(ctx context.Context) {
	cutoff := time.Now().Add(-o.maxWait)
	meetings, err := o.meetingRepo.FindStalled(ctx, cutoff, stalledBatchSize)
	if err != nil {
		o.logger.Error("failed to list stalled meetings", zap.Error(err))
		return
	}

	for _, stale := range meetings {
		o.locks.Lock(stale.ID.String())

		meeting, err := o.meetingRepo.FindByID(ctx, stale.ID)
		if err != nil {
			o.logger.Error("failed to load stalled meeting", zap.Error(err))
			o.locks.Unlock(stale.ID.String())
			continue
		}
		if meeting.Status != entities.MeetingStatusBotRequested && meeting.Status != entities.MeetingStatusInProgress {
			o.locks.Unlock(stale.ID.String())
			continue
		}

		if meeting.BotSessionID != nil {
			if err := o.bots.LeaveMeeting(ctx, *meeting.BotSessionID); err != nil {
				o.logger.Warn("bot leave on timeout failed",
					zap.String("meeting_id", meeting.ID.String()),
					zap.Error(err),
				)
			}
		}

		reason := "timeout"
		if err := o.meetingRepo.UpdateStatus(ctx, meeting.ID, entities.MeetingStatusFailed, &reason); err != nil {
			o.logger.Error("failed to time out meeting", zap.Error(err))
		} else {
			o.logger.Warn("meeting timed out",
				zap.String("meeting_id", meeting.ID.String()),
				zap.String("stalled_in", string(meeting.Status)),
			)
		}
		o.locks.Unlock(stale.ID.String())
	}
}
