package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// InsightType tags what kind of observation an insight is
type InsightType string

const (
	InsightTypeSummary    InsightType = "summary"
	InsightTypeActionItem InsightType = "action_item"
	InsightTypeDecision   InsightType = "decision"
	InsightTypeSentiment  InsightType = "sentiment"
	InsightTypeTopic      InsightType = "topic"
	InsightTypeRisk       InsightType = "risk"
)

// IsValid checks if the insight type is a known type
func (t InsightType) IsValid() bool {
	switch t {
	case InsightTypeSummary, InsightTypeActionItem, InsightTypeDecision,
		InsightTypeSentiment, InsightTypeTopic, InsightTypeRisk:
		return true
	}
	return false
}

// MeetingInsight is one extracted observation about a meeting. Rows are never
// mutated after creation; re-extraction after a transcript correction replaces
// the whole set for the meeting (keyed by TranscriptVersion).
type MeetingInsight struct {
	ID        uuid.UUID   `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID uuid.UUID   `json:"meeting_id" gorm:"type:uuid;not null;index"`
	Type      InsightType `json:"type" gorm:"type:varchar(50);not null"`
	Content   string      `json:"content" gorm:"type:text;not null"`

	// RelevanceScore is a bounded confidence value in [0, 1]
	RelevanceScore *float64 `json:"relevance_score,omitempty" gorm:"check:relevance_score >= 0 AND relevance_score <= 1"`

	Metadata datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb;default:'{}'"`

	// TranscriptVersion records which transcript revision this insight was
	// extracted from.
	TranscriptVersion int `json:"transcript_version" gorm:"not null;default:1;index"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for MeetingInsight
func (MeetingInsight) TableName() string {
	return "meeting_insights"
}

// NewMeetingInsight creates an insight row for a transcript version
func NewMeetingInsight(meetingID uuid.UUID, insightType InsightType, content string, transcriptVersion int) *MeetingInsight {
	return &MeetingInsight{
		ID:                uuid.New(),
		MeetingID:         meetingID,
		Type:              insightType,
		Content:           content,
		TranscriptVersion: transcriptVersion,
		CreatedAt:         time.Now(),
	}
}
