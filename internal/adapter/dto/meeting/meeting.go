package meeting

import (
	"time"

	"github.com/workpulse-hq/workpulse/internal/domain/entities"
)

// ScheduleMeetingRequest is the request body for scheduling a meeting
type ScheduleMeetingRequest struct {
	ManagerID       string    `json:"manager_id" validate:"required,uuid"`
	EmployeeID      string    `json:"employee_id" validate:"required,uuid"`
	MeetingType     string    `json:"meeting_type" validate:"required,oneof=one_on_one performance_review check_in"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	Title           *string   `json:"title,omitempty" validate:"omitempty,max=500"`
	DurationMinutes *int      `json:"duration_minutes,omitempty" validate:"omitempty,min=5,max=480"`
	Platform        *string   `json:"platform,omitempty" validate:"omitempty,max=100"`
	JoinURL         *string   `json:"join_url,omitempty" validate:"omitempty,url"`
}

// MeetingResponse is the API representation of a meeting
type MeetingResponse struct {
	ID                 string    `json:"id"`
	Title              *string   `json:"title,omitempty"`
	MeetingType        string    `json:"meeting_type"`
	Status             string    `json:"status"`
	FailureReason      *string   `json:"failure_reason,omitempty"`
	ExtractionDegraded bool      `json:"extraction_degraded"`
	ScheduledAt        time.Time `json:"scheduled_at"`
	DurationMinutes    *int      `json:"duration_minutes,omitempty"`
	Platform           *string   `json:"platform,omitempty"`
	ManagerID          string    `json:"manager_id"`
	EmployeeID         string    `json:"employee_id"`
	JoinURL            *string   `json:"join_url,omitempty"`
	CalendarEventID    *string   `json:"calendar_event_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// InsightResponse is the API representation of one extracted insight
type InsightResponse struct {
	ID                string      `json:"id"`
	Type              string      `json:"type"`
	Content           string      `json:"content"`
	RelevanceScore    *float64    `json:"relevance_score,omitempty"`
	Metadata          interface{} `json:"metadata,omitempty"`
	TranscriptVersion int         `json:"transcript_version"`
	CreatedAt         time.Time   `json:"created_at"`
}

// ToMeetingResponse converts a meeting entity to its API shape
func ToMeetingResponse(m *entities.Meeting) *MeetingResponse {
	return &MeetingResponse{
		ID:                 m.ID.String(),
		Title:              m.Title,
		MeetingType:        string(m.MeetingType),
		Status:             string(m.Status),
		FailureReason:      m.FailureReason,
		ExtractionDegraded: m.ExtractionDegraded,
		ScheduledAt:        m.ScheduledAt,
		DurationMinutes:    m.DurationMinutes,
		Platform:           m.Platform,
		ManagerID:          m.ManagerID.String(),
		EmployeeID:         m.EmployeeID.String(),
		JoinURL:            m.JoinURL,
		CalendarEventID:    m.CalendarEventID,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// ToInsightResponses converts insight entities to their API shape
func ToInsightResponses(insights []*entities.MeetingInsight) []*InsightResponse {
	out := make([]*InsightResponse, 0, len(insights))
	for _, row := range insights {
		resp := &InsightResponse{
			ID:                row.ID.String(),
			Type:              string(row.Type),
			Content:           row.Content,
			RelevanceScore:    row.RelevanceScore,
			TranscriptVersion: row.TranscriptVersion,
			CreatedAt:         row.CreatedAt,
		}
		if len(row.Metadata) > 0 {
			resp.Metadata = row.Metadata
		}
		out = append(out, resp)
	}
	return out
}
