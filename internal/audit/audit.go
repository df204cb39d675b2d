// Package audit checks stored data against the invariants the engines keep.
package audit

import (
	"context"
	"fmt"

	"nagarneuron/backend/internal/models"

	"gorm.io/gorm"
)

type Kind string

const (
	KindVerificationCount Kind = "verification_count"
	KindStatusHistory     Kind = "status_history"
	KindHistoryOrder      Kind = "history_order"
	KindPointsLedger      Kind = "points_ledger"
)

// Violation is one broken invariant. Subject is a complaint or user id.
type Violation struct {
	Kind    Kind
	Subject string
	Detail  string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %s: %s", v.Kind, v.Subject, v.Detail)
}

const batchSize = 200

// Run scans every complaint and user and returns the violations found.
func Run(ctx context.Context, db *gorm.DB) ([]Violation, error) {
	var out []Violation
	for _, check := range []func(context.Context, *gorm.DB) ([]Violation, error){
		verificationCounts,
		statusHistories,
		pointLedgers,
	} {
		vs, err := check(ctx, db)
		if err != nil {
			return nil, err
		}
		out = append(out, vs...)
	}
	return out, nil
}

type countRow struct {
	ComplaintID string
	Stored      int64
	Actual      int64
}

func verificationCounts(ctx context.Context, db *gorm.DB) ([]Violation, error) {
	var rows []countRow
	err := db.WithContext(ctx).
		Table("complaints AS c").
		Select("c.complaint_id AS complaint_id, c.verification_count AS stored, COUNT(v.id) AS actual").
		Joins("LEFT JOIN verifications v ON v.complaint_id = c.id").
		Group("c.id, c.complaint_id, c.verification_count").
		Having("c.verification_count <> COUNT(v.id)").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("audit verification counts: %w", err)
	}
	out := make([]Violation, 0, len(rows))
	for _, r := range rows {
		out = append(out, Violation{
			Kind:    KindVerificationCount,
			Subject: r.ComplaintID,
			Detail:  fmt.Sprintf("count is %d, %d votes recorded", r.Stored, r.Actual),
		})
	}
	return out, nil
}

func statusHistories(ctx context.Context, db *gorm.DB) ([]Violation, error) {
	var out []Violation
	var batch []models.Complaint
	res := db.WithContext(ctx).
		Preload("StatusHistory", func(q *gorm.DB) *gorm.DB { return q.Order("timestamp ASC, id ASC") }).
		FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
			for i := range batch {
				out = append(out, checkHistory(&batch[i])...)
			}
			return nil
		})
	if res.Error != nil {
		return nil, fmt.Errorf("audit status history: %w", res.Error)
	}
	return out, nil
}

func checkHistory(c *models.Complaint) []Violation {
	if len(c.StatusHistory) == 0 {
		return []Violation{{Kind: KindStatusHistory, Subject: c.ComplaintID, Detail: "history is empty"}}
	}
	var out []Violation
	if last := c.LastStatus(); last != c.Status {
		out = append(out, Violation{
			Kind:    KindStatusHistory,
			Subject: c.ComplaintID,
			Detail:  fmt.Sprintf("status is %s, last history entry is %s", c.Status, last),
		})
	}
	// Rows come back ordered by timestamp, so an id going backwards means an
	// entry was written with an earlier time than its predecessor.
	for i := 1; i < len(c.StatusHistory); i++ {
		if c.StatusHistory[i].ID < c.StatusHistory[i-1].ID {
			out = append(out, Violation{
				Kind:    KindHistoryOrder,
				Subject: c.ComplaintID,
				Detail:  fmt.Sprintf("entry %d is timestamped before entry %d", c.StatusHistory[i-1].ID, c.StatusHistory[i].ID),
			})
			break
		}
	}
	return out
}

type ledgerRow struct {
	UserID uint
	Stored int64
	Ledger int64
}

func pointLedgers(ctx context.Context, db *gorm.DB) ([]Violation, error) {
	var rows []ledgerRow
	err := db.WithContext(ctx).
		Table("users AS u").
		Select("u.id AS user_id, u.points AS stored, COALESCE(SUM(p.points), 0) AS ledger").
		Joins("LEFT JOIN point_transactions p ON p.user_id = u.id").
		Group("u.id, u.points").
		Having("u.points <> COALESCE(SUM(p.points), 0)").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("audit point ledgers: %w", err)
	}
	out := make([]Violation, 0, len(rows))
	for _, r := range rows {
		out = append(out, Violation{
			Kind:    KindPointsLedger,
			Subject: fmt.Sprintf("user %d", r.UserID),
			Detail:  fmt.Sprintf("points are %d, ledger sums to %d", r.Stored, r.Ledger),
		})
	}
	return out, nil
}
