package gamification_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"nagarneuron/backend/internal/events"
	"nagarneuron/backend/internal/gamification"
	"nagarneuron/backend/internal/logger"
	"nagarneuron/backend/internal/models"
	"nagarneuron/backend/internal/storage"
	"nagarneuron/backend/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, e events.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

var kolkata = mustLoad("Asia/Kolkata")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func newEngine(t *testing.T, opts ...gamification.Option) (*gamification.Engine, *storage.Service) {
	t.Helper()
	s := storagetest.SeededService(t)
	opts = append([]gamification.Option{gamification.WithLocation(kolkata)}, opts...)
	return gamification.NewEngine(s, nil, logger.Nop(), opts...), s
}

func badgeKeys(bs []models.Badge) []string {
	keys := make([]string, 0, len(bs))
	for _, b := range bs {
		keys = append(keys, b.Key)
	}
	return keys
}

func ledgerSum(t *testing.T, s *storage.Service, userID uint) int {
	t.Helper()
	txs, err := s.ListPointTransactions(context.Background(), userID, 0)
	require.NoError(t, err)
	sum := 0
	for _, pt := range txs {
		sum += pt.Points
	}
	return sum
}

func TestAwardPoints_ReportUnlocksFirstReporter(t *testing.T) {
	ctx := context.Background()
	eng, s := newEngine(t)
	u := storagetest.CreateUser(t, s, "9500000000")
	require.NoError(t, s.IncrementUserCounter(ctx, u.ID, "total_reports", 1))

	award, err := eng.AwardPoints(ctx, u.ID, models.ActionReportComplaint, "Reported a civic issue", gamification.ComplaintRef("NN1"))
	require.NoError(t, err)

	assert.Equal(t, 10, award.PointsEarned)
	assert.Equal(t, 10, award.TotalPoints)
	assert.Equal(t, []string{"first_reporter"}, badgeKeys(award.NewBadges))

	txs, err := s.ListPointTransactions(ctx, u.ID, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, models.ActionReportComplaint, txs[0].Action)
	require.NotNil(t, txs[0].ReferenceID)
	assert.Equal(t, "NN1", *txs[0].ReferenceID)
}

func TestAwardPoints_UnrecognizedAction(t *testing.T) {
	ctx := context.Background()
	eng, s := newEngine(t)
	u := storagetest.CreateUser(t, s, "9500000001")

	award, err := eng.AwardPoints(ctx, u.ID, models.Action("share_on_social"), "", nil)

	assert.ErrorIs(t, err, gamification.ErrUnrecognizedAction)
	require.NotNil(t, award)
	assert.Zero(t, award.PointsEarned)
	assert.Empty(t, award.NewBadges)
	assert.Zero(t, ledgerSum(t, s, u.ID))
}

func TestAwardPoints_MonotonicAndMatchesLedger(t *testing.T) {
	ctx := context.Background()
	eng, s := newEngine(t)
	u := storagetest.CreateUser(t, s, "9500000002")

	actions := []models.Action{
		models.ActionReportComplaint,
		models.ActionVerifyComplaint,
		models.ActionFirstInArea,
		models.ActionComplaintResolved,
		models.ActionDailyStreak,
		models.ActionVerifyComplaint,
	}
	prev := 0
	for _, a := range actions {
		award, err := eng.AwardPoints(ctx, u.ID, a, string(a), nil)
		require.NoError(t, err)
		assert.Equal(t, gamification.PointsFor(a), award.PointsEarned)
		assert.Equal(t, prev+award.PointsEarned, award.TotalPoints)
		prev = award.TotalPoints
	}

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 10+5+15+20+5+5, got.Points)
	assert.Equal(t, got.Points, ledgerSum(t, s, u.ID))
}

func TestAwardPoints_UnknownUser(t *testing.T) {
	eng, _ := newEngine(t)

	_, err := eng.AwardPoints(context.Background(), 4242, models.ActionVerifyComplaint, "", nil)

	assert.Error(t, err)
}

func TestCheckUnlocks_Idempotent(t *testing.T) {
	ctx := context.Background()
	eng, s := newEngine(t)
	u := storagetest.CreateUser(t, s, "9500000003")
	require.NoError(t, s.IncrementUserCounter(ctx, u.ID, "total_verifications", 20))

	first, err := eng.CheckUnlocks(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"verifier"}, badgeKeys(first))

	second, err := eng.CheckUnlocks(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, second)

	held, err := s.UserBadges(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, held, 1)
}

func TestAwardPoints_ConcurrentAwardsToOneUser(t *testing.T) {
	ctx := context.Background()
	eng, s := newEngine(t)
	u := storagetest.CreateUser(t, s, "9500000004")
	require.NoError(t, s.IncrementUserCounter(ctx, u.ID, "total_verifications", 20))

	const n = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		unlocked []string
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			award, err := eng.AwardPoints(ctx, u.ID, models.ActionVerifyComplaint, "Verified", nil)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			unlocked = append(unlocked, badgeKeys(award.NewBadges)...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, n*5, got.Points)
	assert.Equal(t, got.Points, ledgerSum(t, s, u.ID))
	assert.Equal(t, []string{"verifier"}, unlocked)
}

func TestAwardPoints_PublishesBadgeEvents(t *testing.T) {
	ctx := context.Background()
	s := storagetest.SeededService(t)
	pub := new(MockPublisher)
	eng := gamification.NewEngine(s, pub, logger.Nop())
	u := storagetest.CreateUser(t, s, "9500000005")
	require.NoError(t, s.IncrementUserCounter(ctx, u.ID, "total_reports", 1))

	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
		return e.Type == events.TypeBadgeUnlocked && e.Badge != nil && e.Badge.Key == "first_reporter" && *e.UserID == u.ID
	})).Return(nil).Once()

	_, err := eng.AwardPoints(ctx, u.ID, models.ActionReportComplaint, "", nil)
	require.NoError(t, err)

	pub.AssertExpectations(t)
}

func TestAwardPoints_AdvancesChallenges(t *testing.T) {
	ctx := context.Background()
	eng, s := newEngine(t, gamification.WithClock(func() time.Time { return time.Now().Add(time.Minute) }))
	u := storagetest.CreateUser(t, s, "9500000006")

	for i := 0; i < 3; i++ {
		_, err := eng.AwardPoints(ctx, u.ID, models.ActionVerifyComplaint, "", nil)
		require.NoError(t, err)
	}

	list, err := eng.Challenges(ctx, u.ID)
	require.NoError(t, err)
	progress := map[models.Action]int{}
	for _, c := range list {
		progress[c.TargetAction] = c.Progress
	}
	assert.Equal(t, 3, progress[models.ActionVerifyComplaint])
	assert.Equal(t, 0, progress[models.ActionReportComplaint])
}
