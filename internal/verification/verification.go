// Package verification records community votes on complaints and turns the
// running tally into a consensus outcome.
//
// Voting is not idempotent: every call adds a vote, and repeated votes from
// one user each count toward consensus.
package verification

import (
	"context"
	"errors"
	"time"

	"nagarneuron/backend/internal/apperr"
	"nagarneuron/backend/internal/config"
	"nagarneuron/backend/internal/events"
	"nagarneuron/backend/internal/gamification"
	"nagarneuron/backend/internal/lifecycle"
	"nagarneuron/backend/internal/logger"
	"nagarneuron/backend/internal/metrics"
	"nagarneuron/backend/internal/models"
	"nagarneuron/backend/internal/storage"
)

// CommunityFixedNote is the history note of a consensus resolution.
const CommunityFixedNote = "Community verified as fixed"

// Gamifier is the part of the gamification engine a vote needs.
type Gamifier interface {
	AwardPoints(ctx context.Context, userID uint, action models.Action, description string, ref *gamification.Reference) (*gamification.Award, error)
	RecordActivity(ctx context.Context, userID uint) (*gamification.Award, error)
}

// Ballot is one vote as submitted.
type Ballot struct {
	UserID    uint
	Vote      models.Vote
	Photo     *string
	Comment   *string
	Latitude  *float64
	Longitude *float64
}

// Result is the complaint after the vote plus the voter's rewards.
type Result struct {
	Complaint    *models.Complaint `json:"complaint"`
	Consensus    string            `json:"consensus,omitempty"`
	PointsEarned int               `json:"pointsEarned"`
	NewBadges    []models.Badge    `json:"newBadges"`
	Warnings     []string          `json:"warnings,omitempty"`
}

// Engine records community votes and turns them into consensus.
type Engine struct {
	store     storage.Storage
	lifecycle *lifecycle.Engine
	gamifier  Gamifier
	events    events.Publisher
	metrics   *metrics.Metrics
	locks     *KeyedMutex
	log       *logger.Logger
}

// NewEngine Constructor.
func NewEngine(store storage.Storage, lc *lifecycle.Engine, g Gamifier, pub events.Publisher, m *metrics.Metrics, log *logger.Logger) *Engine {
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		store:     store,
		lifecycle: lc,
		gamifier:  g,
		events:    pub,
		metrics:   m,
		locks:     NewKeyedMutex(64),
		log:       log.With("component", "verification"),
	}
}

// decide applies the consensus policy. The first matching rule wins.
func decide(t storage.VoteTally) (models.VerificationStatus, bool) {
	switch {
	case t.Yes >= config.VerifiedYesThreshold:
		return models.VerificationVerified, true
	case t.No >= config.FixedNoThreshold:
		return models.VerificationCommunityFixed, true
	}
	return "", false
}

type voteOutcome struct {
	complaintID string
	ownerID     *uint
	consensus   models.VerificationStatus
	changed     bool
	change      *lifecycle.Change
}

// CastVote records b on the complaint and evaluates consensus over every
// vote ever cast on it. Vote insert, count increment, tally, consensus and the
// voter's counter commit together; points and events follow best effort.
func (e *Engine) CastVote(ctx context.Context, complaintID string, b Ballot) (*Result, error) {
	if !b.Vote.Valid() {
		return nil, apperr.Validation("invalid vote", map[string]interface{}{
			"status":  b.Vote,
			"allowed": []models.Vote{models.VoteYes, models.VoteNo, models.VoteCantVerify},
		})
	}
	if b.UserID == 0 {
		return nil, apperr.Validation("userId is required", nil)
	}

	unlock := e.locks.Lock(complaintID)
	var out voteOutcome
	err := e.store.WithTx(ctx, func(tx storage.Storage) error {
		var err error
		out, err = e.castVote(ctx, tx, complaintID, b)
		return err
	})
	unlock()
	if err != nil {
		return nil, err
	}

	res := &Result{NewBadges: []models.Badge{}}
	e.settle(ctx, b, out, res)

	c, err := e.store.GetComplaint(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	res.Complaint = c
	if c.VerificationStatus != nil {
		res.Consensus = string(*c.VerificationStatus)
	}
	return res, nil
}

func (e *Engine) castVote(ctx context.Context, tx storage.Storage, complaintID string, b Ballot) (voteOutcome, error) {
	c, err := tx.LockComplaint(ctx, complaintID)
	if err != nil {
		return voteOutcome{}, err
	}
	if _, err := tx.GetUser(ctx, b.UserID); err != nil {
		return voteOutcome{}, err
	}

	if err := tx.CreateVerification(ctx, &models.Verification{
		ComplaintID: c.ID,
		UserID:      b.UserID,
		Vote:        b.Vote,
		Photo:       b.Photo,
		Comment:     b.Comment,
		Latitude:    b.Latitude,
		Longitude:   b.Longitude,
	}); err != nil {
		return voteOutcome{}, err
	}
	if err := tx.IncrementVerificationCount(ctx, c.ID); err != nil {
		return voteOutcome{}, err
	}

	tally, err := tx.TallyVotes(ctx, c.ID)
	if err != nil {
		return voteOutcome{}, err
	}
	out := voteOutcome{complaintID: c.ComplaintID, ownerID: c.UserID}
	if vs, ok := decide(tally); ok {
		out.consensus = vs
		if c.VerificationStatus == nil || *c.VerificationStatus != vs {
			if err := tx.UpdateComplaintFields(ctx, c.ID, map[string]interface{}{"verification_status": vs}); err != nil {
				return voteOutcome{}, err
			}
			out.changed = true
		}
		if vs == models.VerificationCommunityFixed && c.Status != models.StatusResolved {
			note := CommunityFixedNote
			out.change, err = e.lifecycle.Apply(ctx, tx, c, models.StatusResolved, &note)
			if err != nil {
				return voteOutcome{}, err
			}
		}
	}

	if err := tx.IncrementUserCounter(ctx, b.UserID, "total_verifications", 1); err != nil {
		return voteOutcome{}, err
	}
	return out, nil
}

// settle runs the post-commit follow-ups of a vote. Failures become warnings.
func (e *Engine) settle(ctx context.Context, b Ballot, out voteOutcome, res *Result) {
	e.metrics.VoteCast(string(b.Vote))
	now := time.Now().UTC()
	e.publish(ctx, events.Event{
		Type:        events.TypeVerificationCast,
		ComplaintID: out.complaintID,
		UserID:      out.ownerID,
		Vote:        b.Vote,
		At:          now,
	})
	if out.changed {
		e.metrics.ConsensusReached(string(out.consensus))
		e.publish(ctx, events.Event{
			Type:               events.TypeConsensusReached,
			ComplaintID:        out.complaintID,
			UserID:             out.ownerID,
			VerificationStatus: out.consensus,
			At:                 now,
		})
	}
	if out.change != nil {
		_, warnings := e.lifecycle.Settle(ctx, out.change)
		res.Warnings = append(res.Warnings, warnings...)
	}

	if e.gamifier == nil {
		return
	}
	if streak, err := e.gamifier.RecordActivity(ctx, b.UserID); err != nil {
		e.log.Warn("streak update failed after vote", "complaint_id", out.complaintID, "user_id", b.UserID, "error", err)
		res.Warnings = append(res.Warnings, "streak could not be updated")
	} else if streak != nil {
		res.add(streak)
	}
	award, err := e.gamifier.AwardPoints(ctx, b.UserID, models.ActionVerifyComplaint,
		"Verified a complaint", gamification.ComplaintRef(out.complaintID))
	if err != nil && !errors.Is(err, gamification.ErrUnrecognizedAction) {
		e.log.Warn("points award failed after vote", "complaint_id", out.complaintID, "user_id", b.UserID, "error", err)
		res.Warnings = append(res.Warnings, "points could not be awarded")
		return
	}
	if award != nil {
		res.add(award)
	}
}

func (r *Result) add(a *gamification.Award) {
	r.PointsEarned += a.PointsEarned
	r.NewBadges = append(r.NewBadges, a.NewBadges...)
}

func (e *Engine) publish(ctx context.Context, ev events.Event) {
	if err := e.events.Publish(ctx, ev); err != nil {
		e.log.Warn("error publishing event", "type", ev.Type, "complaint_id", ev.ComplaintID, "error", err)
	}
}
