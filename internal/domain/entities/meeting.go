package entities

import (
	"time"

	"github.com/google/uuid"
)

// MeetingType classifies what kind of conversation the meeting is
type MeetingType string

const (
	MeetingTypeOneOnOne          MeetingType = "one_on_one"
	MeetingTypePerformanceReview MeetingType = "performance_review"
	MeetingTypeCheckIn           MeetingType = "check_in"
)

// IsValid checks if the meeting type is valid
func (t MeetingType) IsValid() bool {
	switch t {
	case MeetingTypeOneOnOne, MeetingTypePerformanceReview, MeetingTypeCheckIn:
		return true
	}
	return false
}

// MeetingStatus is the closed set of lifecycle states. The happy path is
// scheduled → bot_requested → in_progress → processing → transcript_ready →
// insights_ready; failed is reachable from any non-terminal state.
type MeetingStatus string

const (
	MeetingStatusScheduled       MeetingStatus = "scheduled"
	MeetingStatusBotRequested    MeetingStatus = "bot_requested"
	MeetingStatusInProgress      MeetingStatus = "in_progress"
	MeetingStatusProcessing      MeetingStatus = "processing"
	MeetingStatusTranscriptReady MeetingStatus = "transcript_ready"
	MeetingStatusInsightsReady   MeetingStatus = "insights_ready"
	MeetingStatusFailed          MeetingStatus = "failed"
)

// IsValid checks if the status is a known status
func (s MeetingStatus) IsValid() bool {
	switch s {
	case MeetingStatusScheduled, MeetingStatusBotRequested, MeetingStatusInProgress,
		MeetingStatusProcessing, MeetingStatusTranscriptReady, MeetingStatusInsightsReady,
		MeetingStatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed
func (s MeetingStatus) IsTerminal() bool {
	return s == MeetingStatusInsightsReady || s == MeetingStatusFailed
}

// Rank orders the happy-path states so that out-of-order webhook events can be
// detected: an event mapping to a rank at or below the current rank is stale.
// Terminal failed has no rank on the path.
func (s MeetingStatus) Rank() int {
	switch s {
	case MeetingStatusScheduled:
		return 0
	case MeetingStatusBotRequested:
		return 1
	case MeetingStatusInProgress:
		return 2
	case MeetingStatusProcessing:
		return 3
	case MeetingStatusTranscriptReady:
		return 4
	case MeetingStatusInsightsReady:
		return 5
	case MeetingStatusFailed:
		return -1
	}
	return -1
}

// Meeting represents a scheduled review/one-on-one between a manager and an
// employee, captured by an external meeting bot.
type Meeting struct {
	ID              uuid.UUID   `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title           *string     `json:"title,omitempty" gorm:"type:varchar(500)"`
	ScheduledAt     time.Time   `json:"scheduled_at" gorm:"not null;index"`
	DurationMinutes *int        `json:"duration_minutes,omitempty"`
	Platform        *string     `json:"platform,omitempty" gorm:"type:varchar(100)"`
	MeetingType     MeetingType `json:"meeting_type" gorm:"type:varchar(50);not null;default:'one_on_one'"`

	// BotSessionID is the external bot provider's session identifier. Once
	// set it is immutable: it is the idempotency key for all downstream
	// webhook correlation.
	BotSessionID *string `json:"bot_session_id,omitempty" gorm:"type:varchar(255);uniqueIndex"`

	Status        MeetingStatus `json:"status" gorm:"type:varchar(50);not null;default:'scheduled';index"`
	FailureReason *string       `json:"failure_reason,omitempty" gorm:"type:text"`

	// ExtractionDegraded marks a meeting whose transcript succeeded but whose
	// insight generation exhausted its retry budget.
	ExtractionDegraded bool `json:"extraction_degraded" gorm:"default:false;not null"`

	ManagerID  uuid.UUID `json:"manager_id" gorm:"type:uuid;not null;index"`
	Manager    *User     `json:"manager,omitempty" gorm:"foreignKey:ManagerID"`
	EmployeeID uuid.UUID `json:"employee_id" gorm:"type:uuid;not null;index"`
	Employee   *Employee `json:"employee,omitempty" gorm:"foreignKey:EmployeeID"`

	CalendarEventID *string `json:"calendar_event_id,omitempty" gorm:"type:varchar(255)"`
	JoinURL         *string `json:"join_url,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Meeting
func (Meeting) TableName() string {
	return "meetings"
}

// NewMeeting creates a meeting in the initial scheduled state
func NewMeeting(managerID, employeeID uuid.UUID, meetingType MeetingType, scheduledAt time.Time) *Meeting {
	now := time.Now()
	return &Meeting{
		ID:          uuid.New(),
		ScheduledAt: scheduledAt,
		MeetingType: meetingType,
		Status:      MeetingStatusScheduled,
		ManagerID:   managerID,
		EmployeeID:  employeeID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// CanTransitionTo reports whether moving from the current status to next is a
// legal forward transition.
func (m *Meeting) CanTransitionTo(next MeetingStatus) bool {
	if m.Status.IsTerminal() {
		return false
	}
	if next == MeetingStatusFailed {
		return true
	}
	return next.Rank() > m.Status.Rank()
}

// IsCancellable reports whether the meeting can be cancelled without telling
// the bot provider to leave (only before a bot session exists).
func (m *Meeting) IsCancellable() bool {
	return m.Status == MeetingStatusScheduled
}

// Fail moves the meeting to the terminal failed state with a reason
func (m *Meeting) Fail(reason string) {
	m.Status = MeetingStatusFailed
	m.FailureReason = &reason
	m.UpdatedAt = time.Now()
}
