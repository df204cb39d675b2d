package config

import "time"

const (
	// Points per qualifying action
	PointsReportComplaint  = 10
	PointsComplaintResolve = 20
	PointsVerifyComplaint  = 5
	PointsFirstInArea      = 15
	PointsDailyStreak      = 5

	// Consensus
	VerifiedYesThreshold = 3
	FixedNoThreshold     = 2

	// Nearby-unverified query
	NearbyMaxVerifications = 2
	KmPerDegree            = 111.0
	DefaultNearbyRadiusKm  = 5.0
	MaxNearbyRadiusKm      = 50.0

	// Submission
	FirstInAreaRadiusKm = 0.5

	// Leaderboard
	DefaultLeaderboardLimit = 50
	MaxLeaderboardLimit     = 100

	// Notifications
	NotificationListLimit = 100

	// Cache
	DefaultCacheTTL = 30 * time.Second
)

var PointValues = map[string]int{
	"report_complaint":   PointsReportComplaint,
	"complaint_resolved": PointsComplaintResolve,
	"verify_complaint":   PointsVerifyComplaint,
	"first_in_area":      PointsFirstInArea,
	"daily_streak":       PointsDailyStreak,
}
