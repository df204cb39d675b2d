// Package lifecycle is the state machine for a complaint's status. Every
// transition updates the complaint row and appends one history entry in the
// same transaction.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"nagarneuron/backend/internal/apperr"
	"nagarneuron/backend/internal/events"
	"nagarneuron/backend/internal/gamification"
	"nagarneuron/backend/internal/logger"
	"nagarneuron/backend/internal/metrics"
	"nagarneuron/backend/internal/models"
	"nagarneuron/backend/internal/storage"
)

// PointsAwarder credits a user for an action.
type PointsAwarder interface {
	AwardPoints(ctx context.Context, userID uint, action models.Action, description string, ref *gamification.Reference) (*gamification.Award, error)
}

// Change is a committed transition whose follow-ups have not run yet.
type Change struct {
	ComplaintID string
	OwnerID     *uint
	Status      models.Status
	// FirstResolution is set when this transition is the complaint's first
	// move to Resolved.
	FirstResolution bool
	At              time.Time
}

// Outcome is the result of a transition. Warnings lists follow-ups that
// failed after the transition committed.
type Outcome struct {
	Complaint    *models.Complaint `json:"complaint"`
	PointsEarned int               `json:"pointsEarned"`
	Warnings     []string          `json:"warnings,omitempty"`
}

// Engine moves complaints through the status state machine.
type Engine struct {
	store   storage.Storage
	awarder PointsAwarder
	events  events.Publisher
	metrics *metrics.Metrics
	now     func() time.Time
	log     *logger.Logger
}

// NewEngine Constructor. awarder may be nil, resolutions then pay no points.
func NewEngine(store storage.Storage, awarder PointsAwarder, pub events.Publisher, m *metrics.Metrics, log *logger.Logger) *Engine {
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		store:   store,
		awarder: awarder,
		events:  pub,
		metrics: m,
		now:     time.Now,
		log:     log.With("component", "lifecycle"),
	}
}

// SetClock overrides time.Now. Test use only.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// Transition moves the complaint to status. Any status may follow any other,
// except that a Resolved complaint cannot be resolved again.
func (e *Engine) Transition(ctx context.Context, complaintID string, status models.Status, note *string) (*Outcome, error) {
	if !status.Valid() {
		return nil, apperr.Validation("invalid status", map[string]interface{}{
			"status":  status,
			"allowed": models.Statuses,
		})
	}

	var change *Change
	err := e.store.WithTx(ctx, func(tx storage.Storage) error {
		c, err := tx.LockComplaint(ctx, complaintID)
		if err != nil {
			return err
		}
		change, err = e.Apply(ctx, tx, c, status, note)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := &Outcome{}
	out.PointsEarned, out.Warnings = e.Settle(ctx, change)

	c, err := e.store.GetComplaint(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	out.Complaint = c
	return out, nil
}

// Apply performs the transition on a complaint already locked by tx. The
// caller must run Settle after tx commits.
func (e *Engine) Apply(ctx context.Context, tx storage.Storage, c *models.Complaint, status models.Status, note *string) (*Change, error) {
	if status == models.StatusResolved && c.Status == models.StatusResolved {
		return nil, apperr.Validation("complaint is already resolved", map[string]interface{}{"id": c.ComplaintID})
	}

	first := false
	if status == models.StatusResolved {
		n, err := tx.CountResolutions(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		first = n == 0
	}

	at := e.now().UTC()
	last, err := tx.LastHistoryEntry(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	// history must stay ordered even if the clock stepped back
	if last != nil && at.Before(last.Timestamp) {
		at = last.Timestamp
	}

	if err := tx.UpdateComplaintFields(ctx, c.ID, map[string]interface{}{
		"status":     status,
		"updated_at": at,
	}); err != nil {
		return nil, err
	}
	if err := tx.AppendStatusHistory(ctx, &models.StatusHistoryEntry{
		ComplaintID: c.ID,
		Status:      status,
		Notes:       note,
		Timestamp:   at,
	}); err != nil {
		return nil, err
	}
	c.Status = status
	c.UpdatedAt = at

	return &Change{
		ComplaintID:     c.ComplaintID,
		OwnerID:         c.UserID,
		Status:          status,
		FirstResolution: first,
		At:              at,
	}, nil
}

// Settle runs the best-effort follow-ups of a committed change: metrics, the
// status event and, on first resolution, the owner's complaint_resolved
// points. Failures are logged and returned as warnings.
func (e *Engine) Settle(ctx context.Context, ch *Change) (int, []string) {
	var warnings []string
	e.metrics.StatusTransition(string(ch.Status))

	if err := e.events.Publish(ctx, events.Event{
		Type:        events.TypeStatusChanged,
		ComplaintID: ch.ComplaintID,
		UserID:      ch.OwnerID,
		Status:      ch.Status,
		At:          ch.At,
	}); err != nil {
		e.log.Warn("error publishing status event", "complaint_id", ch.ComplaintID, "error", err)
	}

	if !ch.FirstResolution || ch.OwnerID == nil || e.awarder == nil {
		return 0, warnings
	}
	award, err := e.awarder.AwardPoints(ctx, *ch.OwnerID, models.ActionComplaintResolved,
		"Your complaint was resolved", gamification.ComplaintRef(ch.ComplaintID))
	if err != nil && !errors.Is(err, gamification.ErrUnrecognizedAction) {
		e.log.Warn("points award failed after resolution", "complaint_id", ch.ComplaintID, "user_id", *ch.OwnerID, "error", err)
		return 0, append(warnings, "points could not be awarded")
	}
	if award == nil {
		return 0, warnings
	}
	return award.PointsEarned, warnings
}
