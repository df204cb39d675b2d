// Package complaint handles complaint intake and the read side of the
// complaint store.
package complaint

import (
	"context"
	"errors"
	"time"

	"nagarneuron/backend/internal/analysis"
	"nagarneuron/backend/internal/apperr"
	"nagarneuron/backend/internal/config"
	"nagarneuron/backend/internal/events"
	"nagarneuron/backend/internal/gamification"
	"nagarneuron/backend/internal/geo"
	"nagarneuron/backend/internal/logger"
	"nagarneuron/backend/internal/models"
	"nagarneuron/backend/internal/storage"
)

// Gamifier is the part of the gamification engine intake needs.
type Gamifier interface {
	AwardPoints(ctx context.Context, userID uint, action models.Action, description string, ref *gamification.Reference) (*gamification.Award, error)
	RecordActivity(ctx context.Context, userID uint) (*gamification.Award, error)
}

// Submission is a new report as received from a client.
type Submission struct {
	Image     string
	Latitude  float64
	Longitude float64
	Notes     *string
	UserID    *uint
}

// Submitted is the stored complaint plus what the reporter earned.
type Submitted struct {
	*models.Complaint
	PointsEarned int            `json:"pointsEarned"`
	NewBadges    []models.Badge `json:"newBadges"`
	Warnings     []string       `json:"warnings,omitempty"`
}

type Service struct {
	store      storage.Storage
	gamifier   Gamifier
	classifier analysis.Classifier
	events     events.Publisher
	loc        *time.Location
	rand       analysis.IntN
	now        func() time.Time
	log        *logger.Logger
}

type Option func(*Service)

func WithClassifier(c analysis.Classifier) Option {
	return func(s *Service) { s.classifier = c }
}

// WithLocation sets the timezone of the "today" stats bucket.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithRand fixes the source of the severity and description draws.
func WithRand(r analysis.IntN) Option {
	return func(s *Service) { s.rand = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store storage.Storage, g Gamifier, pub events.Publisher, log *logger.Logger, opts ...Option) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		store:    store,
		gamifier: g,
		events:   pub,
		loc:      time.UTC,
		now:      time.Now,
		log:      log.With("component", "complaint"),
	}
	for _, o := range opts {
		o(s)
	}
	if s.classifier == nil {
		s.classifier = analysis.NewKeywordClassifier(s.rand)
	}
	return s
}

func validate(sub Submission) error {
	details := map[string]interface{}{}
	if sub.Image == "" {
		details["image"] = "required"
	}
	if !(sub.Latitude >= -90 && sub.Latitude <= 90) {
		details["latitude"] = "must be between -90 and 90"
	}
	if !(sub.Longitude >= -180 && sub.Longitude <= 180) {
		details["longitude"] = "must be between -180 and 180"
	}
	if len(details) > 0 {
		return apperr.Validation("invalid request body", details)
	}
	return nil
}

// Submit classifies and stores a new complaint in status Reported. When the
// reporter is a known user their report counter moves with the insert, and
// streak and points follow best effort.
func (s *Service) Submit(ctx context.Context, sub Submission) (*Submitted, error) {
	if err := validate(sub); err != nil {
		return nil, err
	}
	notes := ""
	if sub.Notes != nil {
		notes = *sub.Notes
	}

	category, confidence, err := s.classifier.Classify(ctx, sub.Image, notes)
	if err != nil {
		s.log.Warn("classifier failed, using fallback", "error", err)
		category, confidence = analysis.CategorizeNotes(notes), 0
	}
	location := analysis.ReverseGeocode(sub.Latitude, sub.Longitude)
	now := s.now().UTC()

	c := &models.Complaint{
		ComplaintID: models.NewComplaintID(now),
		Image:       sub.Image,
		Latitude:    sub.Latitude,
		Longitude:   sub.Longitude,
		Location:    location,
		Category:    category,
		Severity:    analysis.AssessSeverity(s.rand),
		Status:      models.StatusReported,
		Description: analysis.Describe(category, location, s.rand),
		Notes:       sub.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if confidence > 0 {
		c.ConfidenceScore = &confidence
	}

	var firstInArea bool
	err = s.store.WithTx(ctx, func(tx storage.Storage) error {
		if sub.UserID != nil {
			if _, err := tx.GetUser(ctx, *sub.UserID); err == nil {
				c.UserID = sub.UserID
			} else if !apperr.IsNotFound(err) {
				return err
			} else {
				s.log.Warn("unknown reporter, storing complaint as anonymous", "user_id", *sub.UserID)
			}
		}
		if c.UserID != nil {
			// counted before the insert so reports committed ahead of this one
			// are seen and the new row is not
			others, err := tx.CountComplaintsInBox(ctx, geo.Box(c.Latitude, c.Longitude, config.FirstInAreaRadiusKm), 0)
			if err != nil {
				return err
			}
			firstInArea = others == 0
		}
		if err := tx.CreateComplaint(ctx, c, models.StatusHistoryEntry{Status: models.StatusReported, Timestamp: now}); err != nil {
			return err
		}
		if c.UserID != nil {
			return tx.IncrementUserCounter(ctx, *c.UserID, "total_reports", 1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("complaint created", "complaint_id", c.ComplaintID, "category", c.Category)

	if err := s.events.Publish(ctx, events.Event{
		Type:        events.TypeComplaintCreated,
		ComplaintID: c.ComplaintID,
		UserID:      c.UserID,
		Status:      c.Status,
		At:          now,
	}); err != nil {
		s.log.Warn("error publishing complaint event", "complaint_id", c.ComplaintID, "error", err)
	}

	out := &Submitted{Complaint: c, NewBadges: []models.Badge{}}
	if c.UserID != nil && s.gamifier != nil {
		s.reward(ctx, *c.UserID, c, firstInArea, out)
	}
	return out, nil
}

// reward runs the reporter's best-effort follow-ups.
func (s *Service) reward(ctx context.Context, userID uint, c *models.Complaint, firstInArea bool, out *Submitted) {
	add := func(a *gamification.Award) {
		if a == nil {
			return
		}
		out.PointsEarned += a.PointsEarned
		out.NewBadges = append(out.NewBadges, a.NewBadges...)
	}
	ref := gamification.ComplaintRef(c.ComplaintID)

	streak, err := s.gamifier.RecordActivity(ctx, userID)
	if err != nil {
		s.log.Warn("streak update failed after report", "complaint_id", c.ComplaintID, "user_id", userID, "error", err)
		out.Warnings = append(out.Warnings, "streak could not be updated")
	}
	add(streak)

	award, err := s.gamifier.AwardPoints(ctx, userID, models.ActionReportComplaint, "Reported a civic issue", ref)
	if err != nil && !errors.Is(err, gamification.ErrUnrecognizedAction) {
		s.log.Warn("points award failed after report", "complaint_id", c.ComplaintID, "user_id", userID, "error", err)
		out.Warnings = append(out.Warnings, "points could not be awarded")
		return
	}
	add(award)

	if !firstInArea {
		return
	}
	award, err = s.gamifier.AwardPoints(ctx, userID, models.ActionFirstInArea, "First report in this area", ref)
	if err != nil && !errors.Is(err, gamification.ErrUnrecognizedAction) {
		s.log.Warn("first-in-area award failed", "complaint_id", c.ComplaintID, "user_id", userID, "error", err)
		out.Warnings = append(out.Warnings, "points could not be awarded")
		return
	}
	add(award)
}

// List returns complaints newest first.
func (s *Service) List(ctx context.Context, f storage.ComplaintFilter) ([]models.Complaint, error) {
	return s.store.ListComplaints(ctx, f)
}

func (s *Service) Get(ctx context.Context, complaintID string) (*models.Complaint, error) {
	return s.store.GetComplaint(ctx, complaintID)
}

// Stats returns the dashboard aggregates, from the cache when possible.
// "Today" starts at local midnight in the configured timezone.
func (s *Service) Stats(ctx context.Context) (*storage.Stats, error) {
	cache := s.store.Cache()
	var cached storage.Stats
	hit, err := cache.GetJSON(ctx, storage.StatsKey(), &cached)
	if err != nil && !errors.Is(err, storage.ErrNoRedis) {
		s.log.Warn("stats cache read failed", "error", err)
	}
	if hit {
		return &cached, nil
	}

	local := s.now().In(s.loc)
	y, m, d := local.Date()
	st, err := s.store.ComplaintStats(ctx, time.Date(y, m, d, 0, 0, 0, 0, s.loc))
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, storage.StatsKey(), st); err != nil {
		s.log.Warn("stats cache write failed", "error", err)
	}
	return st, nil
}
