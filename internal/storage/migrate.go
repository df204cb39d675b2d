package storage

import (
	"nagarneuron/backend/internal/models"

	"gorm.io/gorm"
)

// AllModels lists every table the service owns.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Complaint{},
		&models.StatusHistoryEntry{},
		&models.Verification{},
		&models.PointTransaction{},
		&models.Badge{},
		&models.UserBadge{},
		&models.Challenge{},
		&models.UserChallenge{},
		&models.Hotspot{},
		&models.Notification{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
