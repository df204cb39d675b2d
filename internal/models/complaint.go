package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Complaint is a citizen-submitted report. The numeric ID is internal; clients
// only ever see ComplaintID.
type Complaint struct {
	ID uint `gorm:"primaryKey" json:"-"`
	// ComplaintID is the stable external identifier, e.g. "NNM2K8Q1ZA3F1".
	ComplaintID string `gorm:"size:50;uniqueIndex;not null" json:"id"`
	// UserID references the reporting user, nil for anonymous reports.
	UserID *uint `gorm:"index" json:"userId,omitempty"`
	// Image is the base64-encoded photo.
	Image string `gorm:"type:text;not null" json:"image"`
	// PerceptualHash is reserved for duplicate detection.
	PerceptualHash *string `gorm:"size:64" json:"-"`

	Latitude  float64 `gorm:"not null;index:idx_complaint_geo,priority:1" json:"latitude"`
	Longitude float64 `gorm:"not null;index:idx_complaint_geo,priority:2" json:"longitude"`
	// Location is the reverse-geocoded neighbourhood label.
	Location string `gorm:"type:text;not null" json:"location"`

	Category        Category `gorm:"size:50;not null;index" json:"category"`
	Severity        Severity `gorm:"size:20;not null" json:"severity"`
	Status          Status   `gorm:"size:50;not null;index" json:"status"`
	Description     string   `gorm:"type:text;not null" json:"description"`
	Notes           *string  `gorm:"type:text" json:"notes,omitempty"`
	ConfidenceScore *int     `json:"confidenceScore,omitempty"`

	// VerificationCount always equals the number of Verification rows.
	VerificationCount  int                 `gorm:"not null;default:0" json:"verificationCount"`
	VerificationStatus *VerificationStatus `gorm:"size:50" json:"verificationStatus,omitempty"`

	StatusHistory []StatusHistoryEntry `gorm:"foreignKey:ComplaintID;references:ID" json:"statusHistory"`
	Verifications []Verification       `gorm:"foreignKey:ComplaintID;references:ID" json:"verifications,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns the external identifier if the caller did not.
func (c *Complaint) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ComplaintID == "" {
		c.ComplaintID = NewComplaintID(time.Now())
	}
	return
}

// NewComplaintID builds "NN" + base36 milliseconds + 4 random hex chars.
func NewComplaintID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
	return "NN" + strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)+suffix)
}

// LastStatus returns the status of the newest history entry, or "" when the
// history was not loaded.
func (c *Complaint) LastStatus() Status {
	if len(c.StatusHistory) == 0 {
		return ""
	}
	return c.StatusHistory[len(c.StatusHistory)-1].Status
}

// StatusHistoryEntry records one transition. Append-only.
type StatusHistoryEntry struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	ComplaintID uint      `gorm:"not null;index:idx_history_complaint_ts,priority:1" json:"-"`
	Status      Status    `gorm:"size:50;not null" json:"status"`
	Notes       *string   `gorm:"type:text" json:"notes,omitempty"`
	Timestamp   time.Time `gorm:"not null;index:idx_history_complaint_ts,priority:2" json:"timestamp"`
}

func (StatusHistoryEntry) TableName() string {
	return "status_history"
}

// Verification is one user's vote on a complaint. Never mutated.
type Verification struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	ComplaintID uint     `gorm:"not null;index" json:"-"`
	UserID      uint     `gorm:"not null;index" json:"userId"`
	Vote        Vote     `gorm:"column:status;size:20;not null" json:"status"`
	Photo       *string  `gorm:"type:text" json:"photo,omitempty"`
	Comment     *string  `gorm:"type:text" json:"comment,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}
