package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/workpulse-hq/workpulse/internal/domain/entities"
)

// TranscriptRepository defines the interface for transcript data access
type TranscriptRepository interface {
	// Create creates the transcript row for a meeting. The unique index on
	// meeting_id rejects a second row.
	Create(ctx context.Context, transcript *entities.Transcript) error

	// FindByMeetingID returns the meeting's transcript, or
	// entities.ErrTranscriptNotFound
	FindByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.Transcript, error)

	// Update persists replaced content and the bumped version
	Update(ctx context.Context, transcript *entities.Transcript) error
}

// InsightRepository defines the interface for meeting insight data access
type InsightRepository interface {
	// ReplaceForMeeting atomically deletes all insights for the meeting and
	// inserts the new batch. Partial results are never visible.
	ReplaceForMeeting(ctx context.Context, meetingID uuid.UUID, insights []*entities.MeetingInsight) error

	// CountForVersion returns how many insights exist for the meeting at the
	// given transcript version
	CountForVersion(ctx context.Context, meetingID uuid.UUID, transcriptVersion int) (int64, error)

	// ListByMeetingID returns the stored insights for a meeting
	ListByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entities.MeetingInsight, error)
}
