package storage

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"nagarneuron/backend/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed catalog.yaml
var catalogYAML []byte

type challengeSeed struct {
	Title        string        `yaml:"title"`
	Description  string        `yaml:"description"`
	TargetAction models.Action `yaml:"targetAction"`
	TargetCount  int           `yaml:"targetCount"`
	RewardPoints int           `yaml:"rewardPoints"`
	DurationDays int           `yaml:"durationDays"`
}

// Catalog is the static badge and challenge definitions shipped with the binary.
type Catalog struct {
	Badges     []models.Badge  `yaml:"badges"`
	Challenges []challengeSeed `yaml:"challenges"`
}

func LoadCatalog() (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(catalogYAML, &c); err != nil {
		return nil, fmt.Errorf("error parsing catalog: %w", err)
	}
	return &c, nil
}

// SeedCatalog upserts badges by key and creates any missing challenge, open
// from now for its duration. Safe to run on every start.
func SeedCatalog(ctx context.Context, db *gorm.DB, now time.Time) error {
	cat, err := LoadCatalog()
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(cat.Badges) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "description", "icon", "threshold", "category", "target"}),
			}).Create(&cat.Badges).Error
			if err != nil {
				return fmt.Errorf("error seeding badges: %w", err)
			}
		}
		for _, cs := range cat.Challenges {
			var n int64
			if err := tx.Model(&models.Challenge{}).Where("title = ?", cs.Title).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				continue
			}
			ch := models.Challenge{
				Title:        cs.Title,
				Description:  cs.Description,
				TargetAction: cs.TargetAction,
				TargetCount:  cs.TargetCount,
				RewardPoints: cs.RewardPoints,
				StartsAt:     now.UTC(),
				EndsAt:       now.UTC().AddDate(0, 0, cs.DurationDays),
				IsActive:     true,
			}
			if err := tx.Create(&ch).Error; err != nil {
				return fmt.Errorf("error seeding challenge %q: %w", cs.Title, err)
			}
		}
		return nil
	})
}
