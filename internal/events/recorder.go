package events

import (
	"context"
	"encoding/json"

	"nagarneuron/backend/internal/localization"
	"nagarneuron/backend/internal/logger"
	"nagarneuron/backend/internal/models"

	"gorm.io/datatypes"
)

// NotificationStore is the part of storage the recorder writes through.
type NotificationStore interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// Recorder turns events that concern a user into localized inbox entries.
type Recorder struct {
	store NotificationStore
	loc   *localization.Localizer
	log   *logger.Logger
}

func NewRecorder(store NotificationStore, loc *localization.Localizer, log *logger.Logger) *Recorder {
	return &Recorder{store: store, loc: loc, log: log.With("component", "notifications")}
}

// Handle is a bus Handler. Failures are logged and dropped.
func (r *Recorder) Handle(ctx context.Context, e Event) {
	if e.UserID == nil {
		return
	}
	key, args, ok := notificationText(e)
	if !ok {
		return
	}
	user, err := r.store.GetUser(ctx, *e.UserID)
	if err != nil {
		r.log.Warn("notification skipped, user lookup failed", "user_id", *e.UserID, "type", e.Type, "error", err)
		return
	}

	data, err := json.Marshal(e)
	if err != nil {
		r.log.Warn("error encoding notification data", "type", e.Type, "error", err)
		return
	}
	n := &models.Notification{
		UserID: user.ID,
		Title:  r.loc.GetString(user.Language, key+".title"),
		Body:   r.loc.Format(user.Language, key+".body", args...),
		Type:   string(e.Type),
		Data:   datatypes.JSON(data),
	}
	if err := r.store.CreateNotification(ctx, n); err != nil {
		r.log.Warn("error saving notification", "user_id", user.ID, "type", e.Type, "error", err)
	}
}

func notificationText(e Event) (string, []interface{}, bool) {
	switch e.Type {
	case TypeStatusChanged:
		return "status_changed", []interface{}{e.ComplaintID, e.Status}, true
	case TypeConsensusReached:
		if e.VerificationStatus == models.VerificationCommunityFixed {
			return "community_fixed", []interface{}{e.ComplaintID}, true
		}
		return "community_verified", []interface{}{e.ComplaintID}, true
	case TypeBadgeUnlocked:
		if e.Badge == nil {
			return "", nil, false
		}
		return "badge_unlocked", []interface{}{e.Badge.Name}, true
	}
	return "", nil, false
}
