package storage

import (
	"context"
	"errors"
	"time"

	"nagarneuron/backend/internal/logger"
	"nagarneuron/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Storage is the data-access contract of the complaint, verification and
// gamification engines. Methods named Lock* must run inside WithTx.
type Storage interface {
	WithTx(ctx context.Context, fn func(tx Storage) error) error

	// Complaint Store
	CreateComplaint(ctx context.Context, c *models.Complaint, first models.StatusHistoryEntry) error
	GetComplaint(ctx context.Context, complaintID string) (*models.Complaint, error)
	LockComplaint(ctx context.Context, complaintID string) (*models.Complaint, error)
	ListComplaints(ctx context.Context, f ComplaintFilter) ([]models.Complaint, error)
	UpdateComplaintFields(ctx context.Context, id uint, updates map[string]interface{}) error
	AppendStatusHistory(ctx context.Context, entry *models.StatusHistoryEntry) error
	LastHistoryEntry(ctx context.Context, complaintID uint) (*models.StatusHistoryEntry, error)
	CountResolutions(ctx context.Context, complaintID uint) (int64, error)
	ComplaintsInBox(ctx context.Context, box BoundingBox, maxVerifications int) ([]models.Complaint, error)
	CountComplaintsInBox(ctx context.Context, box BoundingBox, excludeID uint) (int64, error)
	ComplaintStats(ctx context.Context, todayStart time.Time) (*Stats, error)
	UserComplaintFacts(ctx context.Context, userID uint) ([]ComplaintFact, error)
	FirstComplaintBetween(ctx context.Context, from, to time.Time) (uint, error)

	// Verification Ledger
	CreateVerification(ctx context.Context, v *models.Verification) error
	IncrementVerificationCount(ctx context.Context, complaintID uint) error
	TallyVotes(ctx context.Context, complaintID uint) (VoteTally, error)

	// Users
	GetUser(ctx context.Context, id uint) (*models.User, error)
	LockUser(ctx context.Context, id uint) (*models.User, error)
	FindOrCreateUserByPhone(ctx context.Context, phone, name string) (*models.User, bool, error)
	UpdateUserFields(ctx context.Context, id uint, updates map[string]interface{}) error
	IncrementUserCounter(ctx context.Context, id uint, column string, delta int) error
	UserRank(ctx context.Context, points int) (int, error)
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)

	// Gamification Ledger
	CreatePointTransaction(ctx context.Context, t *models.PointTransaction) error
	ListPointTransactions(ctx context.Context, userID uint, limit int) ([]models.PointTransaction, error)
	ListBadges(ctx context.Context) ([]models.Badge, error)
	UserBadges(ctx context.Context, userID uint) ([]models.Badge, error)
	CreateUserBadge(ctx context.Context, ub *models.UserBadge) (bool, error)
	ActiveChallengesForAction(ctx context.Context, action models.Action, now time.Time) ([]models.Challenge, error)
	IncrementChallengeProgress(ctx context.Context, userID uint, ch models.Challenge) (*models.UserChallenge, error)
	ListChallengeProgress(ctx context.Context, userID uint, now time.Time) ([]models.ChallengeProgress, error)

	// Read-only and inbox data
	ListHotspots(ctx context.Context) ([]models.Hotspot, error)
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID uint, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id uint) (*models.Notification, error)

	Cache() *Cache
}

// ErrTxRequired is returned by Lock* methods called outside WithTx.
var ErrTxRequired = errors.New("storage: row lock requires a transaction")

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client

	cache *Cache
	log   *logger.Logger

	inTx        bool
	afterCommit *[]func()
}

// NewStorageService Constructor. rdb may be nil, caching is then disabled.
func NewStorageService(db *gorm.DB, rdb *redis.Client, cacheTTL time.Duration, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		DB:    db,
		Redis: rdb,
		cache: NewCache(rdb, cacheTTL),
		log:   log.With("component", "storage"),
	}
}

func (s *Service) Cache() *Cache { return s.cache }

// WithTx runs fn in one database transaction. Cache invalidations queued by
// fn run only after a successful commit.
func (s *Service) WithTx(ctx context.Context, fn func(tx Storage) error) error {
	if s.inTx {
		return fn(s)
	}
	var hooks []func()
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txs := &Service{
			DB:          tx,
			Redis:       s.Redis,
			cache:       s.cache,
			log:         s.log,
			inTx:        true,
			afterCommit: &hooks,
		}
		return fn(txs)
	})
	if err != nil {
		return err
	}
	for _, h := range hooks {
		h()
	}
	return nil
}

// onCommit runs fn now, or after commit when called inside a transaction.
func (s *Service) onCommit(fn func(ctx context.Context) error) {
	run := func() {
		if err := fn(context.Background()); err != nil {
			s.log.Warn("cache invalidation failed", "error", err)
		}
	}
	if s.inTx && s.afterCommit != nil {
		*s.afterCommit = append(*s.afterCommit, run)
		return
	}
	run()
}

func (s *Service) invalidateStats() {
	if !s.cache.Enabled() {
		return
	}
	s.onCommit(func(ctx context.Context) error { return s.cache.Delete(ctx, keyStats) })
}

func (s *Service) invalidateLeaderboard() {
	if !s.cache.Enabled() {
		return
	}
	s.onCommit(func(ctx context.Context) error { return s.cache.DeletePrefix(ctx, keyLeaderboardPrefix) })
}

// forUpdate adds a row lock on dialects that support one. SQLite serializes
// writers on the database lock instead.
func (s *Service) forUpdate(q *gorm.DB) *gorm.DB {
	if s.DB.Dialector.Name() == "postgres" {
		return q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func (s *Service) db(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx)
}

// Ping checks the database and, when configured, Redis.
func (s *Service) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return err
	}
	if s.Redis != nil {
		return s.Redis.Ping(ctx).Err()
	}
	return nil
}
