package models

import "time"

// User is an account holder identified by phone number.
type User struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// Phone is the login identity.
	Phone     string  `gorm:"size:20;uniqueIndex;not null" json:"phone"`
	Name      string  `gorm:"size:100" json:"name"`
	AvatarURL *string `gorm:"type:text" json:"avatarUrl,omitempty"`

	// Points only ever grows and equals the sum of the user's PointTransactions.
	Points             int `gorm:"not null;default:0;index" json:"points"`
	TotalReports       int `gorm:"not null;default:0" json:"totalReports"`
	TotalVerifications int `gorm:"not null;default:0" json:"totalVerifications"`
	Streak             int `gorm:"not null;default:0" json:"streak"`
	// LastActiveDate drives the daily streak.
	LastActiveDate *time.Time `json:"-"`
	Language       string     `gorm:"size:10;not null;default:en" json:"language"`

	// Badges and Rank are filled by the profile query, not stored on the row.
	Badges []Badge `gorm:"-" json:"badges"`
	Rank   *int    `gorm:"-" json:"rank"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LeaderboardEntry is one ranked row of the leaderboard.
type LeaderboardEntry struct {
	ID                 uint   `json:"id"`
	Name               string `json:"name"`
	Points             int    `json:"points"`
	TotalReports       int    `json:"totalReports"`
	TotalVerifications int    `json:"totalVerifications"`
	Rank               int    `json:"rank"`
}
