package models

// Category is the closed set of civic-issue kinds.
type Category string

const (
	CategoryPothole     Category = "pothole"
	CategoryGarbage     Category = "garbage"
	CategoryStreetlight Category = "streetlight"
	CategoryDrainage    Category = "drainage"
	CategoryOther       Category = "other"
)

var Categories = []Category{CategoryPothole, CategoryGarbage, CategoryStreetlight, CategoryDrainage, CategoryOther}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Status is a complaint's lifecycle state. Resolved is terminal for the
// automatic path only.
type Status string

const (
	StatusReported   Status = "Reported"
	StatusAssigned   Status = "Assigned"
	StatusInProgress Status = "In Progress"
	StatusResolved   Status = "Resolved"
)

var Statuses = []Status{StatusReported, StatusAssigned, StatusInProgress, StatusResolved}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Open reports whether the complaint still needs work.
func (s Status) Open() bool { return s != StatusResolved }

type VerificationStatus string

const (
	VerificationVerified       VerificationStatus = "verified"
	VerificationCommunityFixed VerificationStatus = "community_verified_fixed"
)

// Vote is a single community attestation.
type Vote string

const (
	VoteYes        Vote = "yes"         // issue still exists
	VoteNo         Vote = "no"          // issue resolved
	VoteCantVerify Vote = "cant_verify" // abstain
)

func (v Vote) Valid() bool {
	switch v {
	case VoteYes, VoteNo, VoteCantVerify:
		return true
	}
	return false
}

// Action is the kind of a point transaction.
type Action string

const (
	ActionReportComplaint   Action = "report_complaint"
	ActionComplaintResolved Action = "complaint_resolved"
	ActionVerifyComplaint   Action = "verify_complaint"
	ActionFirstInArea       Action = "first_in_area"
	ActionDailyStreak       Action = "daily_streak"
)

type BadgeCategory string

const (
	BadgeReports       BadgeCategory = "reports"
	BadgeVerifications BadgeCategory = "verifications"
	BadgeStreak        BadgeCategory = "streak"
	BadgeArea          BadgeCategory = "area"
	BadgeTiming        BadgeCategory = "timing"
	BadgeCategoryCount BadgeCategory = "category"
)

var Languages = []string{"en", "hi", "kn"}

func ValidLanguage(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}
