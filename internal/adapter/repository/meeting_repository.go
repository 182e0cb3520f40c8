package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/workpulse-hq/workpulse/internal/domain/entities"
)

// MeetingRepository implements meeting data access using GORM
type MeetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *gorm.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// Create creates a new meeting
func (r *MeetingRepository) Create(ctx context.Context, meeting *entities.Meeting) error {
	if err := r.db.WithContext(ctx).Create(meeting).Error; err != nil {
		return fmt.Errorf("failed to create meeting: %w", err)
	}
	return nil
}

// FindByID finds a meeting by ID
func (r *MeetingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	var meeting entities.Meeting
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&meeting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrMeetingNotFound
		}
		return nil, fmt.Errorf("failed to find meeting by ID: %w", err)
	}
	return &meeting, nil
}

// FindByBotSessionID finds a meeting by its bot session id
func (r *MeetingRepository) FindByBotSessionID(ctx context.Context, botSessionID string) (*entities.Meeting, error) {
	var meeting entities.Meeting
	if err := r.db.WithContext(ctx).
		Where("bot_session_id = ?", botSessionID).
		First(&meeting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrUnknownBotSession
		}
		return nil, fmt.Errorf("failed to find meeting by bot session: %w", err)
	}
	return &meeting, nil
}

// FindDueForBot returns scheduled meetings whose start time is at or before
// the given instant
func (r *MeetingRepository) FindDueForBot(ctx context.Context, dueBy time.Time, limit int) ([]*entities.Meeting, error) {
	var meetings []*entities.Meeting
	if err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", entities.MeetingStatusScheduled, dueBy).
		Order("scheduled_at asc").
		Limit(limit).
		Find(&meetings).Error; err != nil {
		return nil, fmt.Errorf("failed to find due meetings: %w", err)
	}
	return meetings, nil
}

// FindStalled returns meetings stuck in bot_requested or in_progress whose
// last update is older than the cutoff
func (r *MeetingRepository) FindStalled(ctx context.Context, cutoff time.Time, limit int) ([]*entities.Meeting, error) {
	var meetings []*entities.Meeting
	if err := r.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?",
			[]entities.MeetingStatus{entities.MeetingStatusBotRequested, entities.MeetingStatusInProgress},
			cutoff).
		Order("updated_at asc").
		Limit(limit).
		Find(&meetings).Error; err != nil {
		return nil, fmt.Errorf("failed to find stalled meetings: %w", err)
	}
	return meetings, nil
}

// SetBotSessionID stores the bot session id if and only if none is set or the
// same one is already stored. The guarded UPDATE is what enforces immutability
// under concurrent join attempts.
func (r *MeetingRepository) SetBotSessionID(ctx context.Context, meetingID uuid.UUID, botSessionID string) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ? AND (bot_session_id IS NULL OR bot_session_id = ?)", meetingID, botSessionID).
		Updates(map[string]interface{}{
			"bot_session_id": botSessionID,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to set bot session id: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Either the meeting is gone or another session id is already stored
		if _, err := r.FindByID(ctx, meetingID); err != nil {
			return err
		}
		return entities.ErrBotSessionImmutable
	}
	return nil
}

// UpdateStatus moves the meeting to the given status
func (r *MeetingRepository) UpdateStatus(ctx context.Context, meetingID uuid.UUID, status entities.MeetingStatus, failureReason *string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if status == entities.MeetingStatusFailed {
		updates["failure_reason"] = failureReason
	}

	if err := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ?", meetingID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update meeting status: %w", err)
	}
	return nil
}

// SetCalendarEvent stores the external calendar event id and join URL
func (r *MeetingRepository) SetCalendarEvent(ctx context.Context, meetingID uuid.UUID, eventID, joinURL string) error {
	if err := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ?", meetingID).
		Updates(map[string]interface{}{
			"calendar_event_id": eventID,
			"join_url":          joinURL,
			"updated_at":        time.Now(),
		}).Error; err != nil {
		return fmt.Errorf("failed to set calendar event: %w", err)
	}
	return nil
}

// MarkExtractionDegraded flags a meeting whose insight extraction exhausted
// its retry budget
func (r *MeetingRepository) MarkExtractionDegraded(ctx context.Context, meetingID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ?", meetingID).
		Updates(map[string]interface{}{
			"extraction_degraded": true,
			"updated_at":          time.Now(),
		}).Error; err != nil {
		return fmt.Errorf("failed to mark extraction degraded: %w", err)
	}
	return nil
}
