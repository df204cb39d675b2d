package storage

import (
	"context"
	"errors"
	"fmt"

	"nagarneuron/backend/internal/apperr"
	"nagarneuron/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// userCounters are the columns IncrementUserCounter may touch.
var userCounters = map[string]bool{
	"points":              true,
	"total_reports":       true,
	"total_verifications": true,
}

func (s *Service) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := s.db(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// LockUser reads the user row under a write lock.
func (s *Service) LockUser(ctx context.Context, id uint) (*models.User, error) {
	if !s.inTx {
		return nil, ErrTxRequired
	}
	var u models.User
	err := s.forUpdate(s.db(ctx)).Where("id = ?", id).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindOrCreateUserByPhone returns the user with phone, creating it on first
// login. created reports whether a new row was inserted.
func (s *Service) FindOrCreateUserByPhone(ctx context.Context, phone, name string) (*models.User, bool, error) {
	u := models.User{Phone: phone, Name: name, Language: "en"}
	res := s.db(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "phone"}}, DoNothing: true}).
		Create(&u)
	if res.Error != nil {
		return nil, false, res.Error
	}
	created := res.RowsAffected == 1
	var out models.User
	if err := s.db(ctx).Where("phone = ?", phone).Take(&out).Error; err != nil {
		return nil, false, err
	}
	if created {
		s.invalidateLeaderboard()
	}
	return &out, created, nil
}

func (s *Service) UpdateUserFields(ctx context.Context, id uint, updates map[string]interface{}) error {
	res := s.db(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user %d not found", id)
	}
	if _, ok := updates["name"]; ok {
		s.invalidateLeaderboard()
	}
	return nil
}

// IncrementUserCounter adds delta to one of the user's counters.
func (s *Service) IncrementUserCounter(ctx context.Context, id uint, column string, delta int) error {
	if !userCounters[column] {
		return fmt.Errorf("storage: %q is not a user counter", column)
	}
	res := s.db(ctx).Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user %d not found", id)
	}
	s.invalidateLeaderboard()
	return nil
}

// UserRank is the competition rank for a points total: users with strictly
// more points, plus one.
func (s *Service) UserRank(ctx context.Context, points int) (int, error) {
	var ahead int64
	if err := s.db(ctx).Model(&models.User{}).Where("points > ?", points).Count(&ahead).Error; err != nil {
		return 0, err
	}
	return int(ahead) + 1, nil
}

// Leaderboard returns the top users by points with competition ranks.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	var users []models.User
	err := s.db(ctx).
		Select("id, name, points, total_reports, total_verifications").
		Order("points DESC, id ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	out := make([]models.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		rank := i + 1
		if i > 0 && u.Points == users[i-1].Points {
			rank = out[i-1].Rank
		}
		out = append(out, models.LeaderboardEntry{
			ID:                 u.ID,
			Name:               u.Name,
			Points:             u.Points,
			TotalReports:       u.TotalReports,
			TotalVerifications: u.TotalVerifications,
			Rank:               rank,
		})
	}
	return out, nil
}
