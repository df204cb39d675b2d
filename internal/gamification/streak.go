package gamification

import (
	"context"
	"time"

	"nagarneuron/backend/internal/models"
	"nagarneuron/backend/internal/storage"
)

// RecordActivity updates the user's daily streak for activity now. Activity
// on the day after the last active day extends the streak and earns a
// daily_streak award, which is returned. Any longer gap restarts it at 1.
// Repeated activity on the same day changes nothing and returns nil.
func (e *Engine) RecordActivity(ctx context.Context, userID uint) (*Award, error) {
	var award *Award
	err := e.store.WithTx(ctx, func(tx storage.Storage) error {
		user, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}

		now := e.now()
		today := startOfDay(now, e.loc)
		streak := 1
		extended := false
		if user.LastActiveDate != nil {
			last := startOfDay(*user.LastActiveDate, e.loc)
			switch {
			case sameDay(last, today):
				return nil
			case sameDay(last.AddDate(0, 0, 1), today):
				streak = user.Streak + 1
				extended = true
			}
		}

		err = tx.UpdateUserFields(ctx, userID, map[string]interface{}{
			"streak":           streak,
			"last_active_date": now.UTC(),
		})
		if err != nil {
			return err
		}
		if !extended {
			return nil
		}
		award, err = e.award(ctx, tx, userID, models.ActionDailyStreak, PointsFor(models.ActionDailyStreak), "Daily activity streak", nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	if award != nil {
		e.announce(ctx, userID, award)
	}
	return award, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
