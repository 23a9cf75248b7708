package models

import (
	"time"

	"github.com/david/rfp-tracker/internal/civil"
)

// RFP statuses. Status drives which deadlines are exported in bulk.
const (
	StatusActive   = "active"
	StatusWon      = "won"
	StatusLost     = "lost"
	StatusNoBid    = "no_bid"
	StatusArchived = "archived"
)

// ValidStatuses lists the accepted RFP statuses in display order.
var ValidStatuses = []string{StatusActive, StatusWon, StatusLost, StatusNoBid, StatusArchived}

func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// RFP is a request-for-proposal being tracked.
type RFP struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Issuer      *string   `json:"issuer,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      string    `json:"status"`
	Notes       *string   `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Deadline is a dated milestone attached to an RFP. Time is nil for
// all-day deadlines. Urgency is computed at read time, never stored.
type Deadline struct {
	ID            string     `json:"id"`
	RFPID         string     `json:"rfp_id"`
	Date          civil.Date `json:"date"`
	Time          *string    `json:"time,omitempty"`
	Label         string     `json:"label"`
	Context       *string    `json:"context,omitempty"`
	Completed     bool       `json:"completed"`
	GoogleEventID *string    `json:"google_event_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// DeadlineWithRFP joins a deadline with its parent's name and status for
// list views and calendar export.
type DeadlineWithRFP struct {
	Deadline
	RFPName   string `json:"rfp_name"`
	RFPStatus string `json:"rfp_status"`
}

// Document is an uploaded source file attached to an RFP.
type Document struct {
	ID         string    `json:"id"`
	RFPID      string    `json:"rfp_id"`
	Filename   string    `json:"filename"`
	StoredPath string    `json:"stored_path"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// GoogleAuth holds the single persisted OAuth token for calendar sync.
type GoogleAuth struct {
	ID           int       `json:"id"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	TokenType    string    `json:"-"`
	Expiry       time.Time `json:"expiry"`
	UpdatedAt    time.Time `json:"updated_at"`
}
