package models

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Hotspot is a seeded risk forecast for an area. Read-only.
type Hotspot struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Latitude          float64    `gorm:"not null" json:"latitude"`
	Longitude         float64    `gorm:"not null" json:"longitude"`
	Category          Category   `gorm:"size:50;not null" json:"category"`
	RiskScore         int        `gorm:"not null" json:"riskScore"`
	PredictedDate     time.Time  `gorm:"not null" json:"predictedDate"`
	Factors           StringList `json:"factors"`
	RecommendedAction string     `gorm:"type:text" json:"recommendedAction"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// StringList is a text[] column on Postgres and an encoded text column
// elsewhere. Encoding is always the Postgres array literal.
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	return pq.StringArray(s).Value()
}

func (s *StringList) Scan(src interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	*s = StringList(arr)
	return nil
}

// GormDataType is what schema parsing sees before any dialect is consulted.
func (StringList) GormDataType() string { return "text" }

func (StringList) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// Notification is an in-app inbox entry. There is no push delivery.
type Notification struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"not null;index" json:"userId"`
	Title  string `gorm:"size:200;not null" json:"title"`
	Body   string `gorm:"type:text;not null" json:"body"`
	// Type is the event kind that produced the notification, e.g. "status_changed".
	Type   string         `gorm:"size:50;not null" json:"type"`
	Data   datatypes.JSON `json:"data,omitempty"`
	IsRead bool           `gorm:"not null;default:false" json:"read"`

	CreatedAt time.Time `json:"createdAt"`
}
