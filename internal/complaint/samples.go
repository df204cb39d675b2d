package complaint

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"nagarneuron/backend/internal/analysis"
	"nagarneuron/backend/internal/models"
	"nagarneuron/backend/internal/storage"
)

const sampleComplaints = 30

// SampleStore is what sample seeding writes through.
type SampleStore interface {
	storage.Storage
	CreateHotspots(ctx context.Context, hs []models.Hotspot) error
}

var sampleWeights = []struct {
	category models.Category
	weight   int
}{
	{models.CategoryPothole, 40},
	{models.CategoryGarbage, 25},
	{models.CategoryStreetlight, 20},
	{models.CategoryDrainage, 10},
	{models.CategoryOther, 5},
}

var sampleColors = map[models.Category]string{
	models.CategoryPothole:     "ef4444",
	models.CategoryGarbage:     "10b981",
	models.CategoryStreetlight: "fbbf24",
	models.CategoryDrainage:    "3b82f6",
	models.CategoryOther:       "9ca3af",
}

func sampleCategory(r analysis.IntN) models.Category {
	n := r(100)
	for _, w := range sampleWeights {
		if n < w.weight {
			return w.category
		}
		n -= w.weight
	}
	return models.CategoryOther
}

// sampleStatus draws Reported 55%, Assigned 25%, In Progress 15%, Resolved 5%.
func sampleStatus(r analysis.IntN) models.Status {
	switch n := r(100); {
	case n < 55:
		return models.StatusReported
	case n < 80:
		return models.StatusAssigned
	case n < 95:
		return models.StatusInProgress
	default:
		return models.StatusResolved
	}
}

func placeholderImage(c models.Category) string {
	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="400" height="300">`+
		`<rect fill="#1a1a1a" width="400" height="300"/>`+
		`<circle cx="200" cy="130" r="50" fill="#%[1]s" opacity="0.2"/>`+
		`<text x="200" y="220" font-size="16" fill="#%[1]s" text-anchor="middle">%[2]s</text></svg>`,
		sampleColors[c], strings.ToUpper(string(c)))
	return base64.StdEncoding.EncodeToString([]byte(svg))
}

func jitter(r analysis.IntN) float64 {
	return float64(r(1001)-500) / 100000
}

// SeedSamples fills an empty database with demo complaints, each with a
// backfilled history consistent with its status, and a hotspot forecast for
// the first eight neighbourhoods. It returns the number of complaints
// written, 0 when complaints already exist.
func SeedSamples(ctx context.Context, store SampleStore, r analysis.IntN, now time.Time) (int, error) {
	if r == nil {
		r = rand.IntN
	}
	existing, err := store.ListComplaints(ctx, storage.ComplaintFilter{Limit: 1})
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	err = store.WithTx(ctx, func(tx storage.Storage) error {
		for i := 0; i < sampleComplaints; i++ {
			if err := seedComplaint(ctx, tx, r, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	hotspotCategories := []models.Category{models.CategoryPothole, models.CategoryGarbage, models.CategoryDrainage}
	hs := make([]models.Hotspot, 0, 8)
	for _, n := range analysis.Neighbourhoods[:8] {
		hs = append(hs, models.Hotspot{
			Latitude:          n.Lat,
			Longitude:         n.Lng,
			Category:          hotspotCategories[r(len(hotspotCategories))],
			RiskScore:         60 + r(40),
			PredictedDate:     now.AddDate(0, 0, 7).UTC(),
			Factors:           models.StringList{"high_past_complaints", "rainfall_forecast", "traffic_density"},
			RecommendedAction: "Schedule preventive maintenance inspection",
		})
	}
	if err := store.CreateHotspots(ctx, hs); err != nil {
		return 0, err
	}
	return sampleComplaints, nil
}

func seedComplaint(ctx context.Context, tx storage.Storage, r analysis.IntN, now time.Time) error {
	category := sampleCategory(r)
	n := analysis.Neighbourhoods[r(len(analysis.Neighbourhoods))]
	status := sampleStatus(r)

	now = now.UTC()
	day := now.AddDate(0, 0, -r(10))
	created := time.Date(day.Year(), day.Month(), day.Day(), 8+r(12), r(60), 0, 0, time.UTC)
	if created.After(now) {
		created = now
	}
	confidence := 85 + r(15)

	c := &models.Complaint{
		ComplaintID:     models.NewComplaintID(created),
		Image:           placeholderImage(category),
		Latitude:        n.Lat + jitter(r),
		Longitude:       n.Lng + jitter(r),
		Location:        n.Label(),
		Category:        category,
		Severity:        analysis.AssessSeverity(r),
		Status:          status,
		Description:     analysis.Describe(category, n.Label(), r),
		ConfidenceScore: &confidence,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	if err := tx.CreateComplaint(ctx, c, models.StatusHistoryEntry{Status: models.StatusReported, Timestamp: created}); err != nil {
		return err
	}

	steps := []struct {
		status models.Status
		note   string
		gap    time.Duration
	}{
		{models.StatusAssigned, "Assigned to ward officer", time.Duration(1+r(24)) * time.Hour},
		{models.StatusInProgress, "Work commenced", time.Duration(2+r(48)) * time.Hour},
		{models.StatusResolved, "Issue resolved successfully", time.Duration(4+r(72)) * time.Hour},
	}
	at := created
	for _, st := range steps {
		if status == models.StatusReported {
			break
		}
		at = at.Add(st.gap)
		if at.After(now) {
			at = now
		}
		note := st.note
		if err := tx.AppendStatusHistory(ctx, &models.StatusHistoryEntry{
			ComplaintID: c.ID,
			Status:      st.status,
			Notes:       &note,
			Timestamp:   at,
		}); err != nil {
			return err
		}
		if st.status == status {
			break
		}
	}
	if at.After(created) {
		return tx.UpdateComplaintFields(ctx, c.ID, map[string]interface{}{"updated_at": at})
	}
	return nil
}
