// Package gamification turns qualifying actions into points, evaluates badge
// unlocks and tracks daily streaks and challenge progress.
package gamification

import (
	"context"
	"errors"
	"time"

	"nagarneuron/backend/internal/config"
	"nagarneuron/backend/internal/events"
	"nagarneuron/backend/internal/logger"
	"nagarneuron/backend/internal/metrics"
	"nagarneuron/backend/internal/models"
	"nagarneuron/backend/internal/storage"
)

// ErrUnrecognizedAction is returned, with a zero Award, for actions that
// carry no points. Nothing is written in that case.
var ErrUnrecognizedAction = errors.New("gamification: unrecognized action")

// Reference names the entity that triggered an award.
type Reference struct {
	Type string
	ID   string
}

func ComplaintRef(complaintID string) *Reference {
	return &Reference{Type: "complaint", ID: complaintID}
}

// Award is the outcome of one AwardPoints call.
type Award struct {
	Action       models.Action  `json:"action"`
	PointsEarned int            `json:"pointsEarned"`
	TotalPoints  int            `json:"totalPoints"`
	NewBadges    []models.Badge `json:"newBadges"`
}

// Engine awards points and unlocks badges from the ledger.
type Engine struct {
	store   storage.Storage
	events  events.Publisher
	metrics *metrics.Metrics
	loc     *time.Location
	now     func() time.Time
	log     *logger.Logger
}

type Option func(*Engine)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the timezone used for day boundaries. Default UTC.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.loc = loc }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine Constructor. pub may be nil.
func NewEngine(store storage.Storage, pub events.Publisher, log *logger.Logger, opts ...Option) *Engine {
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	e := &Engine{
		store:  store,
		events: pub,
		loc:    time.UTC,
		now:    time.Now,
		log:    log.With("component", "gamification"),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// PointsFor returns the configured value of action, 0 if it has none.
func PointsFor(action models.Action) int {
	return config.PointValues[string(action)]
}

// AwardPoints credits userID for action, then evaluates badge unlocks and
// challenge progress in the same transaction. The user row is locked for the
// duration so concurrent awards to one user are serialized.
func (e *Engine) AwardPoints(ctx context.Context, userID uint, action models.Action, description string, ref *Reference) (*Award, error) {
	points := PointsFor(action)
	if points <= 0 {
		return &Award{Action: action, NewBadges: []models.Badge{}}, ErrUnrecognizedAction
	}

	var award *Award
	err := e.store.WithTx(ctx, func(tx storage.Storage) error {
		var err error
		award, err = e.award(ctx, tx, userID, action, points, description, ref)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.announce(ctx, userID, award)
	return award, nil
}

func (e *Engine) award(ctx context.Context, tx storage.Storage, userID uint, action models.Action, points int, description string, ref *Reference) (*Award, error) {
	user, err := tx.LockUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	pt := &models.PointTransaction{
		UserID:      userID,
		Points:      points,
		Action:      action,
		Description: description,
	}
	if ref != nil {
		pt.ReferenceType = &ref.Type
		pt.ReferenceID = &ref.ID
	}
	if err := tx.CreatePointTransaction(ctx, pt); err != nil {
		return nil, err
	}
	if err := tx.IncrementUserCounter(ctx, userID, "points", points); err != nil {
		return nil, err
	}
	user.Points += points

	if err := e.advanceChallenges(ctx, tx, userID, action); err != nil {
		return nil, err
	}

	badges, err := e.checkUnlocks(ctx, tx, user)
	if err != nil {
		return nil, err
	}
	return &Award{
		Action:       action,
		PointsEarned: points,
		TotalPoints:  user.Points,
		NewBadges:    badges,
	}, nil
}

func (e *Engine) advanceChallenges(ctx context.Context, tx storage.Storage, userID uint, action models.Action) error {
	challenges, err := tx.ActiveChallengesForAction(ctx, action, e.now())
	if err != nil {
		return err
	}
	for _, ch := range challenges {
		if _, err := tx.IncrementChallengeProgress(ctx, userID, ch); err != nil {
			return err
		}
	}
	return nil
}

// CheckUnlocks evaluates every badge the user does not hold yet and returns
// the ones unlocked by this call.
func (e *Engine) CheckUnlocks(ctx context.Context, userID uint) ([]models.Badge, error) {
	var unlocked []models.Badge
	err := e.store.WithTx(ctx, func(tx storage.Storage) error {
		user, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		unlocked, err = e.checkUnlocks(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.announce(ctx, userID, &Award{NewBadges: unlocked})
	return unlocked, nil
}

func (e *Engine) checkUnlocks(ctx context.Context, tx storage.Storage, user *models.User) ([]models.Badge, error) {
	catalog, err := tx.ListBadges(ctx)
	if err != nil {
		return nil, err
	}
	held, err := tx.UserBadges(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	owned := make(map[uint]bool, len(held))
	for _, b := range held {
		owned[b.ID] = true
	}

	p := newProfile(ctx, tx, user, e.loc)
	unlocked := []models.Badge{}
	for _, b := range catalog {
		if owned[b.ID] {
			continue
		}
		ok, err := evaluate(b, p)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		created, err := tx.CreateUserBadge(ctx, &models.UserBadge{UserID: user.ID, BadgeID: b.ID, EarnedAt: e.now().UTC()})
		if err != nil {
			return nil, err
		}
		if created {
			unlocked = append(unlocked, b)
		}
	}
	return unlocked, nil
}

// announce records metrics and publishes badge events once the award has
// committed.
func (e *Engine) announce(ctx context.Context, userID uint, a *Award) {
	if a.PointsEarned > 0 {
		e.metrics.PointsAwarded(string(a.Action), a.PointsEarned)
	}
	for i := range a.NewBadges {
		b := a.NewBadges[i]
		e.metrics.BadgeUnlocked(b.Key)
		uid := userID
		err := e.events.Publish(ctx, events.Event{
			Type:   events.TypeBadgeUnlocked,
			UserID: &uid,
			Badge:  &b,
			At:     e.now().UTC(),
		})
		if err != nil {
			e.log.Warn("error publishing badge event", "user_id", userID, "badge", b.Key, "error", err)
		}
	}
}
