// Package storagetest provides throwaway SQLite-backed databases for tests.
package storagetest

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"nagarneuron/backend/internal/logger"
	"nagarneuron/backend/internal/models"
	"nagarneuron/backend/internal/storage"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// DB opens a fresh in-memory database with every table migrated. Each call
// gets its own database, closed when the test ends.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:test_%s?mode=memory&cache=shared", strings.ReplaceAll(uuid.NewString(), "-", ""))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormLogger.Discard,
		NowFunc: storage.NowUTC,
	})
	if err != nil {
		tb.Fatalf("failed to open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := storage.Migrate(db); err != nil {
		tb.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

// Service returns a storage service over a fresh database, without Redis.
func Service(tb testing.TB) *storage.Service {
	tb.Helper()
	return storage.NewStorageService(DB(tb), nil, 0, logger.Nop())
}

// SeededService is Service with the badge and challenge catalog loaded.
func SeededService(tb testing.TB) *storage.Service {
	tb.Helper()
	s := Service(tb)
	if err := storage.SeedCatalog(context.Background(), s.DB, time.Now()); err != nil {
		tb.Fatalf("failed to seed catalog: %v", err)
	}
	return s
}

// CreateUser inserts a user with the given phone.
func CreateUser(tb testing.TB, s *storage.Service, phone string) *models.User {
	tb.Helper()
	u := &models.User{Phone: phone, Name: "User " + phone, Language: "en"}
	if err := s.DB.Create(u).Error; err != nil {
		tb.Fatalf("failed to create user: %v", err)
	}
	return u
}

// CreateComplaint inserts a Reported complaint at the given point.
func CreateComplaint(tb testing.TB, s *storage.Service, userID *uint, lat, lng float64) *models.Complaint {
	tb.Helper()
	now := time.Now().UTC()
	c := &models.Complaint{
		UserID:      userID,
		Image:       "aGVsbG8=",
		Latitude:    lat,
		Longitude:   lng,
		Location:    "MG Road, near Trinity Metro Station",
		Category:    models.CategoryPothole,
		Severity:    models.SeverityMedium,
		Status:      models.StatusReported,
		Description: "Pothole on the main road.",
	}
	first := models.StatusHistoryEntry{Status: models.StatusReported, Timestamp: now}
	if err := s.CreateComplaint(context.Background(), c, first); err != nil {
		tb.Fatalf("failed to create complaint: %v", err)
	}
	return c
}
