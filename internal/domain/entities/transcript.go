package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Transcript is the stored transcript model. A meeting has at most one
// transcript; a corrected delivery replaces the content and bumps Version so
// the insight pipeline can tell which transcript its output belongs to.
type Transcript struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID uuid.UUID `json:"meeting_id" gorm:"type:uuid;not null;uniqueIndex"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Language  *string   `json:"language,omitempty" gorm:"type:varchar(20)"`
	Version   int       `json:"version" gorm:"not null;default:1"`

	// ContentHash lets duplicate deliveries be detected without comparing the
	// full text.
	ContentHash string `json:"-" gorm:"type:varchar(64);not null"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Transcript) TableName() string {
	return "transcripts"
}

// HashContent returns the dedup hash for transcript text
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// NewTranscript creates a version-1 transcript for a meeting
func NewTranscript(meetingID uuid.UUID, content string, language *string) *Transcript {
	now := time.Now()
	return &Transcript{
		ID:          uuid.New(),
		MeetingID:   meetingID,
		Content:     content,
		Language:    language,
		Version:     1,
		ContentHash: HashContent(content),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Replace swaps in corrected content and bumps the version
func (t *Transcript) Replace(content string, language *string) {
	t.Content = content
	t.ContentHash = HashContent(content)
	if language != nil {
		t.Language = language
	}
	t.Version++
	t.UpdatedAt = time.Now()
}

// SameContent reports whether a delivery carries the text already stored
func (t *Transcript) SameContent(content string) bool {
	return t.ContentHash == HashContent(content)
}
