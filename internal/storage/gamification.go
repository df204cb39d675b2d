package storage

import (
	"context"
	"time"

	"nagarneuron/backend/internal/models"

	"gorm.io/gorm/clause"
)

func (s *Service) CreatePointTransaction(ctx context.Context, t *models.PointTransaction) error {
	if err := s.db(ctx).Create(t).Error; err != nil {
		s.log.Error("failed to record point transaction", "user_id", t.UserID, "action", t.Action, "error", err)
		return err
	}
	return nil
}

// ListPointTransactions returns the user's ledger newest first.
func (s *Service) ListPointTransactions(ctx context.Context, userID uint, limit int) ([]models.PointTransaction, error) {
	q := s.db(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []models.PointTransaction
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) ListBadges(ctx context.Context) ([]models.Badge, error) {
	var out []models.Badge
	if err := s.db(ctx).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UserBadges returns the badges a user holds in the order they were earned.
func (s *Service) UserBadges(ctx context.Context, userID uint) ([]models.Badge, error) {
	var held []models.UserBadge
	err := s.db(ctx).
		Preload("Badge").
		Where("user_id = ?", userID).
		Order("earned_at ASC, id ASC").
		Find(&held).Error
	if err != nil {
		return nil, err
	}
	out := make([]models.Badge, 0, len(held))
	for _, ub := range held {
		out = append(out, ub.Badge)
	}
	return out, nil
}

// CreateUserBadge inserts the award. created is false when the user already
// holds the badge.
func (s *Service) CreateUserBadge(ctx context.Context, ub *models.UserBadge) (bool, error) {
	if ub.EarnedAt.IsZero() {
		ub.EarnedAt = time.Now().UTC()
	}
	res := s.db(ctx).
		Omit("Badge").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_id"}},
			DoNothing: true,
		}).
		Create(ub)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ActiveChallengesForAction returns challenges counting action that are open at now.
func (s *Service) ActiveChallengesForAction(ctx context.Context, action models.Action, now time.Time) ([]models.Challenge, error) {
	var out []models.Challenge
	err := s.db(ctx).
		Where("is_active = ? AND target_action = ?", true, action).
		Where("starts_at <= ? AND ends_at > ?", now.UTC(), now.UTC()).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// IncrementChallengeProgress adds one to the user's progress on ch. Progress
// stops counting once the challenge is completed.
func (s *Service) IncrementChallengeProgress(ctx context.Context, userID uint, ch models.Challenge) (*models.UserChallenge, error) {
	var uc models.UserChallenge
	err := s.db(ctx).
		Where(models.UserChallenge{UserID: userID, ChallengeID: ch.ID}).
		FirstOrCreate(&uc).Error
	if err != nil {
		return nil, err
	}
	if uc.Completed {
		return &uc, nil
	}
	uc.Progress++
	updates := map[string]interface{}{"progress": uc.Progress}
	if uc.Progress >= ch.TargetCount {
		now := time.Now().UTC()
		uc.Completed = true
		uc.ClaimedAt = &now
		updates["completed"] = true
		updates["claimed_at"] = now
	}
	if err := s.db(ctx).Model(&models.UserChallenge{}).Where("id = ?", uc.ID).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &uc, nil
}

// ListChallengeProgress returns every challenge open at now with the user's
// progress, zero for challenges the user has not started.
func (s *Service) ListChallengeProgress(ctx context.Context, userID uint, now time.Time) ([]models.ChallengeProgress, error) {
	var challenges []models.Challenge
	err := s.db(ctx).
		Where("is_active = ?", true).
		Where("starts_at <= ? AND ends_at > ?", now.UTC(), now.UTC()).
		Order("ends_at ASC, id ASC").
		Find(&challenges).Error
	if err != nil {
		return nil, err
	}
	if len(challenges) == 0 {
		return []models.ChallengeProgress{}, nil
	}
	ids := make([]uint, 0, len(challenges))
	for _, c := range challenges {
		ids = append(ids, c.ID)
	}
	var progress []models.UserChallenge
	if err := s.db(ctx).
		Where("user_id = ? AND challenge_id IN ?", userID, ids).
		Find(&progress).Error; err != nil {
		return nil, err
	}
	byChallenge := make(map[uint]models.UserChallenge, len(progress))
	for _, p := range progress {
		byChallenge[p.ChallengeID] = p
	}
	out := make([]models.ChallengeProgress, 0, len(challenges))
	for _, c := range challenges {
		p := byChallenge[c.ID]
		out = append(out, models.ChallengeProgress{Challenge: c, Progress: p.Progress, Completed: p.Completed})
	}
	return out, nil
}
