package models

import "time"

// PointTransaction is an immutable ledger entry.
type PointTransaction struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UserID      uint   `gorm:"not null;index" json:"userId"`
	Points      int    `gorm:"not null" json:"points"`
	Action      Action `gorm:"size:50;not null" json:"action"`
	Description string `gorm:"type:text" json:"description"`
	// ReferenceType/ReferenceID point at the triggering entity, e.g. ("complaint", "NN...").
	ReferenceType *string `gorm:"size:50" json:"referenceType,omitempty"`
	ReferenceID   *string `gorm:"size:50" json:"referenceId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Badge is a seeded achievement definition.
type Badge struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Key         string        `gorm:"size:50;uniqueIndex;not null" json:"key" yaml:"key"`
	Name        string        `gorm:"size:100;not null" json:"name" yaml:"name"`
	Description string        `gorm:"type:text;not null" json:"description" yaml:"description"`
	Icon        string        `gorm:"size:10;not null" json:"icon" yaml:"icon"`
	Threshold   int           `gorm:"not null" json:"threshold" yaml:"threshold"`
	Category    BadgeCategory `gorm:"size:50;not null" json:"category" yaml:"category"`
	// Target narrows the category, e.g. "pothole" for a category badge or
	// "after_22" for a timing badge.
	Target string `gorm:"size:50" json:"target,omitempty" yaml:"target"`
}

// UserBadge records that a user earned a badge. One row per (user, badge).
type UserBadge struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_user_badge,priority:1" json:"userId"`
	BadgeID  uint      `gorm:"not null;uniqueIndex:idx_user_badge,priority:2" json:"badgeId"`
	Badge    Badge     `gorm:"foreignKey:BadgeID" json:"badge"`
	EarnedAt time.Time `gorm:"not null" json:"earnedAt"`
}

// Challenge is a time-boxed goal counted in point-award actions.
type Challenge struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"size:200;not null" json:"title"`
	Description  string    `gorm:"type:text;not null" json:"description"`
	TargetAction Action    `gorm:"size:50;not null" json:"targetAction"`
	TargetCount  int       `gorm:"not null" json:"targetCount"`
	RewardPoints int       `gorm:"not null" json:"rewardPoints"`
	StartsAt     time.Time `gorm:"not null" json:"startsAt"`
	EndsAt       time.Time `gorm:"not null" json:"endsAt"`
	IsActive     bool      `gorm:"not null;default:true" json:"isActive"`
}

type UserChallenge struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;uniqueIndex:idx_user_challenge,priority:1" json:"userId"`
	ChallengeID uint       `gorm:"not null;uniqueIndex:idx_user_challenge,priority:2" json:"challengeId"`
	Progress    int        `gorm:"not null;default:0" json:"progress"`
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	ClaimedAt   *time.Time `json:"claimedAt,omitempty"`
}

// ChallengeProgress is a challenge joined with one user's progress on it.
type ChallengeProgress struct {
	Challenge
	Progress  int  `json:"progress"`
	Completed bool `json:"completed"`
}
