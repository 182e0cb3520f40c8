package insights

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/workpulse-hq/workpulse/internal/domain/entities"
	"github.com/workpulse-hq/workpulse/internal/domain/repositories"
	"github.com/workpulse-hq/workpulse/pkg/config"
	"github.com/workpulse-hq/workpulse/pkg/insight"
)

const defaultMaxAttempts = 5

// Engine is the slice of the insight provider client the pipeline uses
type Engine interface {
	Extract(ctx context.Context, transcript string, language string) ([]insight.Tuple, error)
}

// Pipeline turns stored transcripts into persisted insight sets. Extraction is
// idempotent per transcript version: if insights for the current version
// already exist the pipeline does nothing but make sure the meeting status
// reflects them. The insight set for a meeting is replaced atomically, so
// readers never see a mix of versions.
type Pipeline struct {
	meetingRepo    repositories.MeetingRepository
	transcriptRepo repositories.TranscriptRepository
	insightRepo    repositories.InsightRepository
	engine         Engine
	logger         *zap.Logger

	maxAttempts  int
	retryInitial time.Duration
}

// NewPipeline creates the insight extraction pipeline
func NewPipeline(
	meetingRepo repositories.MeetingRepository,
	transcriptRepo repositories.TranscriptRepository,
	insightRepo repositories.InsightRepository,
	engine Engine,
	cfg *config.InsightConfig,
	logger *zap.Logger,
) *Pipeline {
	maxAttempts := defaultMaxAttempts
	if cfg != nil && cfg.MaxAttempts > 0 {
		maxAttempts = cfg.MaxAttempts
	}
	return &Pipeline{
		meetingRepo:    meetingRepo,
		transcriptRepo: transcriptRepo,
		insightRepo:    insightRepo,
		engine:         engine,
		logger:         logger,
		maxAttempts:    maxAttempts,
		retryInitial:   500 * time.Millisecond,
	}
}

// ExtractInsights extracts and persists insights for the meeting's current
// transcript version. Returns how many insights are stored for that version.
// On a retry-budget exhaustion the meeting is flagged degraded and left at
// transcript_ready; the stored transcript is untouched and a later call can
// try again.
func (p *Pipeline) ExtractInsights(ctx context.Context, meetingID uuid.UUID) (int, error) {
	transcript, err := p.transcriptRepo.FindByMeetingID(ctx, meetingID)
	if err != nil {
		return 0, err
	}

	existing, err := p.insightRepo.CountForVersion(ctx, meetingID, transcript.Version)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		// Already extracted for this version; just make sure the status landed
		if err := p.ensureInsightsReady(ctx, meetingID); err != nil {
			return 0, err
		}
		p.logger.Debug("insights already present for transcript version",
			zap.String("meeting_id", meetingID.String()),
			zap.Int("version", transcript.Version),
		)
		return int(existing), nil
	}

	language := ""
	if transcript.Language != nil {
		language = *transcript.Language
	}

	tuples, err := p.extractWithRetry(ctx, transcript.Content, language)
	if err != nil {
		p.logger.Error("insight extraction budget exhausted",
			zap.String("meeting_id", meetingID.String()),
			zap.Int("version", transcript.Version),
			zap.Error(err),
		)
		if degradeErr := p.meetingRepo.MarkExtractionDegraded(ctx, meetingID); degradeErr != nil {
			p.logger.Error("failed to flag degraded extraction", zap.Error(degradeErr))
		}
		return 0, entities.ErrExtractionPermanent
	}

	insights := p.buildInsights(meetingID, transcript.Version, tuples)
	if len(insights) == 0 {
		p.logger.Error("engine returned no usable insights",
			zap.String("meeting_id", meetingID.String()),
		)
		if degradeErr := p.meetingRepo.MarkExtractionDegraded(ctx, meetingID); degradeErr != nil {
			p.logger.Error("failed to flag degraded extraction", zap.Error(degradeErr))
		}
		return 0, entities.ErrExtractionPermanent
	}

	if err := p.insightRepo.ReplaceForMeeting(ctx, meetingID, insights); err != nil {
		return 0, err
	}
	if err := p.ensureInsightsReady(ctx, meetingID); err != nil {
		return 0, err
	}

	p.logger.Info("insights extracted",
		zap.String("meeting_id", meetingID.String()),
		zap.Int("version", transcript.Version),
		zap.Int("count", len(insights)),
	)
	return len(insights), nil
}

// extractWithRetry runs the engine call under the bounded retry budget.
// Non-retryable provider responses abort immediately.
func (p *Pipeline) extractWithRetry(ctx context.Context, content, language string) ([]insight.Tuple, error) {
	var tuples []insight.Tuple
	operation := func() error {
		var err error
		tuples, err = p.engine.Extract(ctx, content, language)
		if err != nil {
			var statusErr *insight.StatusError
			if errors.As(err, &statusErr) && !statusErr.Retryable() {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.retryInitial
	bo.MaxInterval = 30 * time.Second
	retries := uint64(p.maxAttempts - 1)
	if err := backoff.Retry(operation, backoff.WithMaxRetries(backoff.WithContext(bo, ctx), retries)); err != nil {
		return nil, err
	}
	return tuples, nil
}

// buildInsights converts engine tuples to rows, dropping unknown types and
// clamping relevance into [0, 1]
func (p *Pipeline) buildInsights(meetingID uuid.UUID, version int, tuples []insight.Tuple) []*entities.MeetingInsight {
	insights := make([]*entities.MeetingInsight, 0, len(tuples))
	for _, tuple := range tuples {
		insightType := entities.InsightType(tuple.Type)
		if !insightType.IsValid() {
			p.logger.Warn("unknown insight type dropped",
				zap.String("meeting_id", meetingID.String()),
				zap.String("type", tuple.Type),
			)
			continue
		}
		if tuple.Content == "" {
			continue
		}

		row := entities.NewMeetingInsight(meetingID, insightType, tuple.Content, version)
		if tuple.RelevanceScore != nil {
			score := clamp(*tuple.RelevanceScore)
			row.RelevanceScore = &score
		}
		if len(tuple.Metadata) > 0 {
			if b, err := json.Marshal(tuple.Metadata); err == nil {
				row.Metadata = datatypes.JSON(b)
			}
		}
		insights = append(insights, row)
	}
	return insights
}

func (p *Pipeline) ensureInsightsReady(ctx context.Context, meetingID uuid.UUID) error {
	meeting, err := p.meetingRepo.FindByID(ctx, meetingID)
	if err != nil {
		return err
	}
	if !meeting.CanTransitionTo(entities.MeetingStatusInsightsReady) {
		return nil
	}
	return p.meetingRepo.UpdateStatus(ctx, meetingID, entities.MeetingStatusInsightsReady, nil)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
