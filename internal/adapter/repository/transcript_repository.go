package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/workpulse-hq/workpulse/internal/domain/entities"
)

// TranscriptRepository handles transcript data operations
type TranscriptRepository struct {
	db *gorm.DB
}

// NewTranscriptRepository creates a new transcript repository
func NewTranscriptRepository(db *gorm.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

// Create creates the transcript row for a meeting
func (r *TranscriptRepository) Create(ctx context.Context, transcript *entities.Transcript) error {
	if transcript == nil {
		return errors.New("transcript cannot be nil")
	}
	if err := r.db.WithContext(ctx).Create(transcript).Error; err != nil {
		return fmt.Errorf("failed to create transcript: %w", err)
	}
	return nil
}

// FindByMeetingID returns the meeting's transcript
func (r *TranscriptRepository) FindByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.Transcript, error) {
	var transcript entities.Transcript
	if err := r.db.WithContext(ctx).Where("meeting_id = ?", meetingID).First(&transcript).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrTranscriptNotFound
		}
		return nil, fmt.Errorf("failed to find transcript: %w", err)
	}
	return &transcript, nil
}

// Update persists replaced content and the bumped version
func (r *TranscriptRepository) Update(ctx context.Context, transcript *entities.Transcript) error {
	if transcript == nil {
		return errors.New("transcript cannot be nil")
	}
	if err := r.db.WithContext(ctx).Save(transcript).Error; err != nil {
		return fmt.Errorf("failed to update transcript: %w", err)
	}
	return nil
}

// InsightRepository handles meeting insight data operations
type InsightRepository struct {
	db *gorm.DB
}

// NewInsightRepository creates a new insight repository
func NewInsightRepository(db *gorm.DB) *InsightRepository {
	return &InsightRepository{db: db}
}

// ReplaceForMeeting atomically deletes all insights for the meeting and
// inserts the new batch. Running inside one transaction keeps readers from
// ever seeing a half-populated set.
func (r *InsightRepository) ReplaceForMeeting(ctx context.Context, meetingID uuid.UUID, insights []*entities.MeetingInsight) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meeting_id = ?", meetingID).Delete(&entities.MeetingInsight{}).Error; err != nil {
			return fmt.Errorf("failed to delete previous insights: %w", err)
		}
		if len(insights) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(insights, 100).Error; err != nil {
			return fmt.Errorf("failed to insert insights: %w", err)
		}
		return nil
	})
}

// CountForVersion returns how many insights exist for the meeting at the given
// transcript version
func (r *InsightRepository) CountForVersion(ctx context.Context, meetingID uuid.UUID, transcriptVersion int) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.MeetingInsight{}).
		Where("meeting_id = ? AND transcript_version = ?", meetingID, transcriptVersion).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count insights: %w", err)
	}
	return count, nil
}

// ListByMeetingID returns the stored insights for a meeting
func (r *InsightRepository) ListByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entities.MeetingInsight, error) {
	var insights []*entities.MeetingInsight
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at asc").
		Find(&insights).Error; err != nil {
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}
	return insights, nil
}
