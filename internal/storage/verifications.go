package storage

import (
	"context"

	"nagarneuron/backend/internal/apperr"
	"nagarneuron/backend/internal/models"

	"gorm.io/gorm"
)

// VoteTally counts the votes cast on one complaint.
type VoteTally struct {
	Yes        int
	No         int
	CantVerify int
}

func (t VoteTally) Total() int { return t.Yes + t.No + t.CantVerify }

func (s *Service) CreateVerification(ctx context.Context, v *models.Verification) error {
	if err := s.db(ctx).Create(v).Error; err != nil {
		s.log.Error("failed to save verification", "complaint_row", v.ComplaintID, "user_id", v.UserID, "error", err)
		return err
	}
	return nil
}

// IncrementVerificationCount bumps the denormalized vote counter by one.
func (s *Service) IncrementVerificationCount(ctx context.Context, complaintID uint) error {
	res := s.db(ctx).Model(&models.Complaint{}).
		Where("id = ?", complaintID).
		UpdateColumn("verification_count", gorm.Expr("verification_count + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("complaint row %d not found", complaintID)
	}
	return nil
}

type voteCount struct {
	Vote  models.Vote
	Count int
}

// TallyVotes counts every vote on the complaint by value.
func (s *Service) TallyVotes(ctx context.Context, complaintID uint) (VoteTally, error) {
	var rows []voteCount
	err := s.db(ctx).Model(&models.Verification{}).
		Select("status AS vote, COUNT(*) AS count").
		Where("complaint_id = ?", complaintID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return VoteTally{}, err
	}
	var t VoteTally
	for _, r := range rows {
		switch r.Vote {
		case models.VoteYes:
			t.Yes = r.Count
		case models.VoteNo:
			t.No = r.Count
		case models.VoteCantVerify:
			t.CantVerify = r.Count
		}
	}
	return t, nil
}
