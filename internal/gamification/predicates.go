package gamification

import (
	"context"
	"time"

	"nagarneuron/backend/internal/models"
	"nagarneuron/backend/internal/storage"
)

// Timing badge targets.
const (
	TimingFirstOfDay = "first_of_day"
	TimingAfter22    = "after_22"
)

// profile is what the predicates see of a user. Complaint-derived facts are
// loaded on first use.
type profile struct {
	ctx  context.Context
	tx   storage.Storage
	user *models.User
	loc  *time.Location

	facts      []storage.ComplaintFact
	factsReady bool
}

func newProfile(ctx context.Context, tx storage.Storage, user *models.User, loc *time.Location) *profile {
	return &profile{ctx: ctx, tx: tx, user: user, loc: loc}
}

func (p *profile) complaintFacts() ([]storage.ComplaintFact, error) {
	if p.factsReady {
		return p.facts, nil
	}
	facts, err := p.tx.UserComplaintFacts(p.ctx, p.user.ID)
	if err != nil {
		return nil, err
	}
	p.facts, p.factsReady = facts, true
	return facts, nil
}

type predicate func(b models.Badge, p *profile) (bool, error)

// predicates has one entry per badge category.
var predicates = map[models.BadgeCategory]predicate{
	models.BadgeReports: func(b models.Badge, p *profile) (bool, error) {
		return p.user.TotalReports >= b.Threshold, nil
	},
	models.BadgeVerifications: func(b models.Badge, p *profile) (bool, error) {
		return p.user.TotalVerifications >= b.Threshold, nil
	},
	models.BadgeStreak: func(b models.Badge, p *profile) (bool, error) {
		return p.user.Streak >= b.Threshold, nil
	},
	models.BadgeCategoryCount: categoryPredicate,
	models.BadgeArea:          areaPredicate,
	models.BadgeTiming:        timingPredicate,
}

func evaluate(b models.Badge, p *profile) (bool, error) {
	pred, ok := predicates[b.Category]
	if !ok {
		return false, nil
	}
	return pred(b, p)
}

// categoryPredicate counts the user's complaints in the badge's target category.
func categoryPredicate(b models.Badge, p *profile) (bool, error) {
	facts, err := p.complaintFacts()
	if err != nil {
		return false, err
	}
	n := 0
	for _, f := range facts {
		if string(f.Category) == b.Target {
			n++
		}
	}
	return n >= b.Threshold, nil
}

// areaPredicate takes the largest number of the user's complaints sharing one
// location label.
func areaPredicate(b models.Badge, p *profile) (bool, error) {
	facts, err := p.complaintFacts()
	if err != nil {
		return false, err
	}
	perArea := make(map[string]int)
	for _, f := range facts {
		perArea[f.Location]++
		if perArea[f.Location] >= b.Threshold {
			return true, nil
		}
	}
	return false, nil
}

func timingPredicate(b models.Badge, p *profile) (bool, error) {
	facts, err := p.complaintFacts()
	if err != nil {
		return false, err
	}
	n := 0
	for _, f := range facts {
		local := f.CreatedAt.In(p.loc)
		switch b.Target {
		case TimingAfter22:
			if local.Hour() >= 22 {
				n++
			}
		case TimingFirstOfDay:
			start := startOfDay(local, p.loc)
			first, err := p.tx.FirstComplaintBetween(p.ctx, start, start.AddDate(0, 0, 1))
			if err != nil {
				return false, err
			}
			if first == f.ID {
				n++
			}
		default:
			return false, nil
		}
		if n >= b.Threshold {
			return true, nil
		}
	}
	return false, nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
