package gamification_test

import (
	"context"
	"testing"
	"time"

	"nagarneuron/backend/internal/gamification"
	"nagarneuron/backend/internal/models"
	"nagarneuron/backend/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func TestRecordActivity_Streak(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: localTime(0, 9, 0)}
	eng, s := newEngine(t, gamification.WithClock(clock.Now))
	u := storagetest.CreateUser(t, s, "9300000000")

	streakOf := func() int {
		got, err := s.GetUser(ctx, u.ID)
		require.NoError(t, err)
		return got.Streak
	}

	award, err := eng.RecordActivity(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, award)
	assert.Equal(t, 1, streakOf())

	clock.t = localTime(0, 23, 0)
	award, err = eng.RecordActivity(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, award, "same local day")
	assert.Equal(t, 1, streakOf())

	// 00:10 local next day, still the same UTC day as the previous activity
	clock.t = localTime(1, 0, 10)
	award, err = eng.RecordActivity(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, award)
	assert.Equal(t, models.ActionDailyStreak, award.Action)
	assert.Equal(t, 5, award.PointsEarned)
	assert.Equal(t, 2, streakOf())

	clock.t = localTime(3, 10, 0)
	award, err = eng.RecordActivity(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, award, "gap resets")
	assert.Equal(t, 1, streakOf())

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Points)
}

func TestRecordActivity_UnlocksStreakBadge(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: localTime(0, 9, 0)}
	eng, s := newEngine(t, gamification.WithClock(clock.Now))
	u := storagetest.CreateUser(t, s, "9300000001")

	var last *gamification.Award
	for d := 0; d < 7; d++ {
		clock.t = localTime(d, 9, 0)
		award, err := eng.RecordActivity(ctx, u.ID)
		require.NoError(t, err)
		if d > 0 {
			require.NotNil(t, award)
			last = award
		}
	}

	assert.Equal(t, []string{"streak_7"}, badgeKeys(last.NewBadges))
	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Streak)
	assert.Equal(t, 6*5, got.Points)
}

func TestRecordActivity_UnknownUser(t *testing.T) {
	eng, _ := newEngine(t)

	_, err := eng.RecordActivity(context.Background(), 999)

	assert.Error(t, err)
}
