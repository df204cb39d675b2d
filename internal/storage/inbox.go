package storage

import (
	"context"
	"errors"

	"nagarneuron/backend/internal/apperr"
	"nagarneuron/backend/internal/models"

	"gorm.io/gorm"
)

// ListHotspots returns the forecast table, riskiest first.
func (s *Service) ListHotspots(ctx context.Context) ([]models.Hotspot, error) {
	var out []models.Hotspot
	if err := s.db(ctx).Order("risk_score DESC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) CreateHotspots(ctx context.Context, hs []models.Hotspot) error {
	if len(hs) == 0 {
		return nil
	}
	return s.db(ctx).Create(&hs).Error
}

func (s *Service) CreateNotification(ctx context.Context, n *models.Notification) error {
	return s.db(ctx).Create(n).Error
}

// ListNotifications returns a user's inbox newest first.
func (s *Service) ListNotifications(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	q := s.db(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []models.Notification
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// MarkNotificationRead flags the notification as read. Marking twice is a no-op.
func (s *Service) MarkNotificationRead(ctx context.Context, id uint) (*models.Notification, error) {
	var n models.Notification
	err := s.db(ctx).First(&n, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("notification %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	if n.IsRead {
		return &n, nil
	}
	if err := s.db(ctx).Model(&n).Update("is_read", true).Error; err != nil {
		return nil, err
	}
	n.IsRead = true
	return &n, nil
}
