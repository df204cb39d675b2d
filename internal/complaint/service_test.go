package complaint_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"nagarneuron/backend/internal/apperr"
	"nagarneuron/backend/internal/complaint"
	"nagarneuron/backend/internal/gamification"
	"nagarneuron/backend/internal/lifecycle"
	"nagarneuron/backend/internal/logger"
	"nagarneuron/backend/internal/models"
	"nagarneuron/backend/internal/storage"
	"nagarneuron/backend/internal/storage/storagetest"
	"nagarneuron/backend/internal/verification"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(v int) func(int) int {
	return func(n int) int {
		if v >= n {
			return n - 1
		}
		return v
	}
}

func strPtr(s string) *string { return &s }

func newService(t *testing.T, s *storage.Service) (*complaint.Service, *gamification.Engine) {
	t.Helper()
	g := gamification.NewEngine(s, nil, logger.Nop())
	return complaint.NewService(s, g, nil, logger.Nop(), complaint.WithRand(fixed(0))), g
}

func TestSubmit_Anonymous(t *testing.T) {
	ctx := context.Background()
	s := storagetest.SeededService(t)
	svc, _ := newService(t, s)

	out, err := svc.Submit(ctx, complaint.Submission{Image: "aGVsbG8=", Latitude: 12.9716, Longitude: 77.5946})
	require.NoError(t, err)

	assert.NotEmpty(t, out.ComplaintID)
	assert.Equal(t, models.StatusReported, out.Status)
	assert.Equal(t, models.CategoryPothole, out.Category)
	assert.Equal(t, models.SeverityHigh, out.Severity)
	assert.Equal(t, "MG Road, near Trinity Metro Station", out.Location)
	assert.Contains(t, out.Description, "Location: MG Road, near Trinity Metro Station.")
	require.NotNil(t, out.ConfidenceScore)
	assert.Equal(t, 50, *out.ConfidenceScore)
	assert.Zero(t, out.PointsEarned)
	assert.Nil(t, out.UserID)

	got, err := svc.Get(ctx, out.ComplaintID)
	require.NoError(t, err)
	require.Len(t, got.StatusHistory, 1)
	assert.Equal(t, models.StatusReported, got.StatusHistory[0].Status)
}

func TestSubmit_NotesDriveCategory(t *testing.T) {
	s := storagetest.SeededService(t)
	svc, _ := newService(t, s)

	out, err := svc.Submit(context.Background(), complaint.Submission{
		Image:     "aGVsbG8=",
		Latitude:  12.9352,
		Longitude: 77.6245,
		Notes:     strPtr("Garbage pile near the school"),
	})
	require.NoError(t, err)

	assert.Equal(t, models.CategoryGarbage, out.Category)
	assert.Equal(t, 85, *out.ConfidenceScore)
	assert.Equal(t, "Koramangala, 5th Block main road", out.Location)
	require.NotNil(t, out.Notes)
}

func TestSubmit_RewardsReporter(t *testing.T) {
	ctx := context.Background()
	s := storagetest.SeededService(t)
	svc, _ := newService(t, s)
	u := storagetest.CreateUser(t, s, "9000000001")

	out, err := svc.Submit(ctx, complaint.Submission{Image: "aGVsbG8=", Latitude: 12.9716, Longitude: 77.5946, UserID: &u.ID})
	require.NoError(t, err)

	assert.Equal(t, 25, out.PointsEarned, "report plus first in area")
	assert.Empty(t, out.Warnings)
	require.Len(t, out.NewBadges, 1)
	assert.Equal(t, "first_reporter", out.NewBadges[0].Key)

	// a second report a few metres away is not first in area
	out, err = svc.Submit(ctx, complaint.Submission{Image: "aGVsbG8=", Latitude: 12.9717, Longitude: 77.5947, UserID: &u.ID})
	require.NoError(t, err)
	assert.Equal(t, 10, out.PointsEarned)
	assert.Empty(t, out.NewBadges)

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalReports)
	assert.Equal(t, 35, got.Points)
	assert.Equal(t, 1, got.Streak)
}

func TestSubmit_ConcurrentReportsOneFirstInArea(t *testing.T) {
	ctx := context.Background()
	s := storagetest.SeededService(t)
	svc, _ := newService(t, s)

	const n = 4
	users := make([]*models.User, n)
	for i := range users {
		users[i] = storagetest.CreateUser(t, s, "900000010"+string(rune('0'+i)))
	}

	points := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := svc.Submit(ctx, complaint.Submission{Image: "aGVsbG8=", Latitude: 12.9716, Longitude: 77.5946, UserID: &users[i].ID})
			if assert.NoError(t, err) {
				points[i] = out.PointsEarned
			}
		}(i)
	}
	wg.Wait()

	first := 0
	for _, p := range points {
		if p == 25 {
			first++
		} else {
			assert.Equal(t, 10, p)
		}
	}
	assert.Equal(t, 1, first, "exactly one report is first in the area")
}

func TestSubmit_UnknownUserIsAnonymous(t *testing.T) {
	s := storagetest.SeededService(t)
	svc, _ := newService(t, s)
	ghost := uint(4242)

	out, err := svc.Submit(context.Background(), complaint.Submission{Image: "aGVsbG8=", Latitude: 12.97, Longitude: 77.59, UserID: &ghost})
	require.NoError(t, err)
	assert.Nil(t, out.UserID)
	assert.Zero(t, out.PointsEarned)
}

func TestSubmit_Validation(t *testing.T) {
	s := storagetest.SeededService(t)
	svc, _ := newService(t, s)

	tests := []struct {
		name string
		sub  complaint.Submission
	}{
		{"missing image", complaint.Submission{Latitude: 12.97, Longitude: 77.59}},
		{"latitude out of range", complaint.Submission{Image: "x", Latitude: 95, Longitude: 77.59}},
		{"longitude out of range", complaint.Submission{Image: "x", Latitude: 12.97, Longitude: -181}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tt.sub)
			assert.True(t, apperr.IsValidation(err))
		})
	}
}

func TestList_FiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	s := storagetest.SeededService(t)
	svc, _ := newService(t, s)

	_, err := svc.Submit(ctx, complaint.Submission{Image: "x", Latitude: 12.97, Longitude: 77.59, Notes: strPtr("broken streetlight")})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	last, err := svc.Submit(ctx, complaint.Submission{Image: "x", Latitude: 12.97, Longitude: 77.59, Notes: strPtr("trash everywhere")})
	require.NoError(t, err)

	all, err := svc.List(ctx, storage.ComplaintFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, last.ComplaintID, all[0].ComplaintID)

	lights, err := svc.List(ctx, storage.ComplaintFilter{Category: models.CategoryStreetlight})
	require.NoError(t, err)
	require.Len(t, lights, 1)
	assert.Equal(t, models.CategoryStreetlight, lights[0].Category)
}

func TestStats_CachedAndInvalidated(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	s := storage.NewStorageService(storagetest.DB(t), rdb, time.Minute, logger.Nop())
	svc, _ := newService(t, s)

	_, err := svc.Submit(ctx, complaint.Submission{Image: "x", Latitude: 12.97, Longitude: 77.59})
	require.NoError(t, err)

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, st.Total)
	assert.EqualValues(t, 1, st.Open)
	assert.EqualValues(t, 1, st.Today)
	assert.EqualValues(t, 1, st.ByCategory[string(models.CategoryPothole)])
	assert.EqualValues(t, 0, st.ByStatus[string(models.StatusResolved)])
	assert.True(t, mr.Exists(storage.StatsKey()))

	_, err = svc.Submit(ctx, complaint.Submission{Image: "x", Latitude: 12.97, Longitude: 77.59})
	require.NoError(t, err)
	assert.False(t, mr.Exists(storage.StatsKey()))

	st, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, st.Total)
}

func TestSeedSamples(t *testing.T) {
	ctx := context.Background()
	s := storagetest.SeededService(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	n, err := complaint.SeedSamples(ctx, s, nil, now)
	require.NoError(t, err)
	assert.Equal(t, 30, n)

	all, err := s.ListComplaints(ctx, storage.ComplaintFilter{})
	require.NoError(t, err)
	require.Len(t, all, 30)
	for _, c := range all {
		assert.Equal(t, c.Status, c.LastStatus(), c.ComplaintID)
		assert.False(t, c.CreatedAt.After(now))
	}

	hs, err := s.ListHotspots(ctx)
	require.NoError(t, err)
	assert.Len(t, hs, 8)

	n, err = complaint.SeedSamples(ctx, s, nil, now)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEndToEnd_ReportAssignAndCommunityFix(t *testing.T) {
	ctx := context.Background()
	s := storagetest.SeededService(t)
	svc, g := newService(t, s)
	lc := lifecycle.NewEngine(s, g, nil, nil, logger.Nop())
	votes := verification.NewEngine(s, lc, g, nil, nil, logger.Nop())

	out, err := svc.Submit(ctx, complaint.Submission{Image: "aGVsbG8=", Latitude: 12.9716, Longitude: 77.5946})
	require.NoError(t, err)
	assert.True(t, out.Category.Valid())
	assert.Equal(t, models.StatusReported, out.Status)
	require.Len(t, out.StatusHistory, 1)

	moved, err := lc.Transition(ctx, out.ComplaintID, models.StatusAssigned, strPtr("dispatched"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, moved.Complaint.Status)
	require.Len(t, moved.Complaint.StatusHistory, 2)

	a := storagetest.CreateUser(t, s, "9000000010")
	b := storagetest.CreateUser(t, s, "9000000011")
	_, err = votes.CastVote(ctx, out.ComplaintID, verification.Ballot{UserID: a.ID, Vote: models.VoteNo})
	require.NoError(t, err)
	res, err := votes.CastVote(ctx, out.ComplaintID, verification.Ballot{UserID: b.ID, Vote: models.VoteNo})
	require.NoError(t, err)

	c := res.Complaint
	assert.Equal(t, models.StatusResolved, c.Status)
	require.NotNil(t, c.VerificationStatus)
	assert.Equal(t, models.VerificationCommunityFixed, *c.VerificationStatus)
	assert.Len(t, c.StatusHistory, 3)
	assert.Equal(t, 2, c.VerificationCount)
}
