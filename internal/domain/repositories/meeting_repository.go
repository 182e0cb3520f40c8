package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/workpulse-hq/workpulse/internal/domain/entities"
)

// MeetingRepository defines the interface for meeting data access
type MeetingRepository interface {
	// Create creates a new meeting
	Create(ctx context.Context, meeting *entities.Meeting) error

	// FindByID finds a meeting by ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error)

	// FindByBotSessionID finds a meeting by its bot session id, or
	// entities.ErrUnknownBotSession
	FindByBotSessionID(ctx context.Context, botSessionID string) (*entities.Meeting, error)

	// FindDueForBot returns scheduled meetings whose start time is at or
	// before the given instant
	FindDueForBot(ctx context.Context, dueBy time.Time, limit int) ([]*entities.Meeting, error)

	// FindStalled returns meetings stuck in bot_requested or in_progress
	// whose last update is older than the cutoff
	FindStalled(ctx context.Context, cutoff time.Time, limit int) ([]*entities.Meeting, error)

	// SetBotSessionID stores the bot session id if and only if none is set
	// (or the same one is already stored). A conflicting value returns
	// entities.ErrBotSessionImmutable.
	SetBotSessionID(ctx context.Context, meetingID uuid.UUID, botSessionID string) error

	// UpdateStatus moves the meeting to the given status; failureReason is
	// persisted only for the failed status
	UpdateStatus(ctx context.Context, meetingID uuid.UUID, status entities.MeetingStatus, failureReason *string) error

	// SetCalendarEvent stores the external calendar event id and join URL
	SetCalendarEvent(ctx context.Context, meetingID uuid.UUID, eventID, joinURL string) error

	// MarkExtractionDegraded flags a meeting whose insight extraction
	// exhausted its retry budget
	MarkExtractionDegraded(ctx context.Context, meetingID uuid.UUID) error
}
