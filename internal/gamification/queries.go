package gamification

import (
	"context"
	"errors"

	"nagarneuron/backend/internal/config"
	"nagarneuron/backend/internal/models"
	"nagarneuron/backend/internal/storage"
)

// Profile returns the user with earned badges and competition rank filled in.
func (e *Engine) Profile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	badges, err := e.store.UserBadges(ctx, userID)
	if err != nil {
		return nil, err
	}
	rank, err := e.store.UserRank(ctx, user.Points)
	if err != nil {
		return nil, err
	}
	user.Badges = badges
	user.Rank = &rank
	return user, nil
}

// ClampLeaderboardLimit applies the default for 0 or negative values and the cap.
func ClampLeaderboardLimit(limit int) int {
	switch {
	case limit <= 0:
		return config.DefaultLeaderboardLimit
	case limit > config.MaxLeaderboardLimit:
		return config.MaxLeaderboardLimit
	}
	return limit
}

// Leaderboard returns the top users, served from the cache when possible.
func (e *Engine) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	limit = ClampLeaderboardLimit(limit)
	cache := e.store.Cache()
	key := storage.LeaderboardKey(limit)

	var cached []models.LeaderboardEntry
	hit, err := cache.GetJSON(ctx, key, &cached)
	if err != nil && !errors.Is(err, storage.ErrNoRedis) {
		e.log.Warn("leaderboard cache read failed", "error", err)
	}
	if hit {
		return cached, nil
	}

	board, err := e.store.Leaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, key, board); err != nil {
		e.log.Warn("leaderboard cache write failed", "error", err)
	}
	return board, nil
}

// PointHistory returns the user's ledger, newest first.
func (e *Engine) PointHistory(ctx context.Context, userID uint, limit int) ([]models.PointTransaction, error) {
	if _, err := e.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return e.store.ListPointTransactions(ctx, userID, limit)
}

func (e *Engine) Badges(ctx context.Context) ([]models.Badge, error) {
	return e.store.ListBadges(ctx)
}

// Challenges lists the challenges open now with the user's progress.
func (e *Engine) Challenges(ctx context.Context, userID uint) ([]models.ChallengeProgress, error) {
	if _, err := e.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return e.store.ListChallengeProgress(ctx, userID, e.now())
}
