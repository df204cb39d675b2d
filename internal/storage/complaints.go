package storage

import (
	"context"
	"errors"
	"time"

	"nagarneuron/backend/internal/apperr"
	"nagarneuron/backend/internal/models"

	"gorm.io/gorm"
)

// ComplaintFilter narrows ListComplaints. Zero values match everything.
type ComplaintFilter struct {
	Category models.Category
	Status   models.Status
	UserID   *uint
	Limit    int
}

// BoundingBox is an inclusive lat/lng rectangle.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// Stats aggregates complaint counts for the dashboard.
type Stats struct {
	Total      int64            `json:"total"`
	Open       int64            `json:"open"`
	Resolved   int64            `json:"resolved"`
	Today      int64            `json:"today"`
	ByCategory map[string]int64 `json:"byCategory"`
	ByStatus   map[string]int64 `json:"byStatus"`
}

// ComplaintFact is the slice of a complaint the badge predicates look at.
type ComplaintFact struct {
	ID        uint
	Category  models.Category
	Location  string
	CreatedAt time.Time
}

func orderedHistory(db *gorm.DB) *gorm.DB {
	return db.Order("timestamp ASC, id ASC")
}

func orderedVerifications(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}

// CreateComplaint inserts the complaint and its seed history entry.
func (s *Service) CreateComplaint(ctx context.Context, c *models.Complaint, first models.StatusHistoryEntry) error {
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("StatusHistory", "Verifications").Create(c).Error; err != nil {
			return err
		}
		first.ComplaintID = c.ID
		if err := tx.Create(&first).Error; err != nil {
			return err
		}
		c.StatusHistory = []models.StatusHistoryEntry{first}
		return nil
	})
	if err != nil {
		s.log.Error("failed to save complaint", "complaint_id", c.ComplaintID, "error", err)
		return err
	}
	s.invalidateStats()
	return nil
}

// GetComplaint loads a complaint with its ordered history and all votes.
func (s *Service) GetComplaint(ctx context.Context, complaintID string) (*models.Complaint, error) {
	var c models.Complaint
	err := s.db(ctx).
		Preload("StatusHistory", orderedHistory).
		Preload("Verifications", orderedVerifications).
		Where("complaint_id = ?", complaintID).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("complaint %s not found", complaintID)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// LockComplaint reads the complaint row under a write lock.
func (s *Service) LockComplaint(ctx context.Context, complaintID string) (*models.Complaint, error) {
	if !s.inTx {
		return nil, ErrTxRequired
	}
	var c models.Complaint
	err := s.forUpdate(s.db(ctx)).
		Where("complaint_id = ?", complaintID).
		Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("complaint %s not found", complaintID)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListComplaints returns matching complaints newest first.
func (s *Service) ListComplaints(ctx context.Context, f ComplaintFilter) ([]models.Complaint, error) {
	q := s.db(ctx).Model(&models.Complaint{}).Preload("StatusHistory", orderedHistory)
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var out []models.Complaint
	if err := q.Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) UpdateComplaintFields(ctx context.Context, id uint, updates map[string]interface{}) error {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	res := s.db(ctx).Model(&models.Complaint{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("complaint row %d not found", id)
	}
	s.invalidateStats()
	return nil
}

func (s *Service) AppendStatusHistory(ctx context.Context, entry *models.StatusHistoryEntry) error {
	return s.db(ctx).Create(entry).Error
}

// LastHistoryEntry returns the newest entry, nil if the history is empty.
func (s *Service) LastHistoryEntry(ctx context.Context, complaintID uint) (*models.StatusHistoryEntry, error) {
	var e models.StatusHistoryEntry
	err := s.db(ctx).
		Where("complaint_id = ?", complaintID).
		Order("timestamp DESC, id DESC").
		Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CountResolutions counts Resolved entries in a complaint's history.
func (s *Service) CountResolutions(ctx context.Context, complaintID uint) (int64, error) {
	var n int64
	err := s.db(ctx).Model(&models.StatusHistoryEntry{}).
		Where("complaint_id = ? AND status = ?", complaintID, models.StatusResolved).
		Count(&n).Error
	return n, err
}

// ComplaintsInBox returns complaints inside box with at most maxVerifications votes.
func (s *Service) ComplaintsInBox(ctx context.Context, box BoundingBox, maxVerifications int) ([]models.Complaint, error) {
	var out []models.Complaint
	err := s.db(ctx).
		Preload("StatusHistory", orderedHistory).
		Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat).
		Where("longitude BETWEEN ? AND ?", box.MinLng, box.MaxLng).
		Where("verification_count <= ?", maxVerifications).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) CountComplaintsInBox(ctx context.Context, box BoundingBox, excludeID uint) (int64, error) {
	var n int64
	err := s.db(ctx).Model(&models.Complaint{}).
		Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat).
		Where("longitude BETWEEN ? AND ?", box.MinLng, box.MaxLng).
		Where("id <> ?", excludeID).
		Count(&n).Error
	return n, err
}

type groupCount struct {
	Grp   string
	Count int64
}

// ComplaintStats counts complaints by category and status. todayStart is the
// local midnight the caller considers "today".
func (s *Service) ComplaintStats(ctx context.Context, todayStart time.Time) (*Stats, error) {
	st := &Stats{
		ByCategory: make(map[string]int64, len(models.Categories)),
		ByStatus:   make(map[string]int64, len(models.Statuses)),
	}
	for _, c := range models.Categories {
		st.ByCategory[string(c)] = 0
	}
	for _, v := range models.Statuses {
		st.ByStatus[string(v)] = 0
	}

	var byCat []groupCount
	if err := s.db(ctx).Model(&models.Complaint{}).
		Select("category AS grp, COUNT(*) AS count").
		Group("category").
		Scan(&byCat).Error; err != nil {
		return nil, err
	}
	for _, g := range byCat {
		st.ByCategory[g.Grp] = g.Count
		st.Total += g.Count
	}

	var byStatus []groupCount
	if err := s.db(ctx).Model(&models.Complaint{}).
		Select("status AS grp, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, g := range byStatus {
		st.ByStatus[g.Grp] = g.Count
	}
	st.Resolved = st.ByStatus[string(models.StatusResolved)]
	st.Open = st.Total - st.Resolved

	if err := s.db(ctx).Model(&models.Complaint{}).
		Where("created_at >= ?", todayStart.UTC()).
		Count(&st.Today).Error; err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Service) UserComplaintFacts(ctx context.Context, userID uint) ([]ComplaintFact, error) {
	var out []ComplaintFact
	err := s.db(ctx).Model(&models.Complaint{}).
		Select("id, category, location, created_at").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Scan(&out).Error
	return out, err
}

// FirstComplaintBetween returns the row id of the earliest complaint created
// in [from, to), 0 when there is none.
func (s *Service) FirstComplaintBetween(ctx context.Context, from, to time.Time) (uint, error) {
	var c models.Complaint
	err := s.db(ctx).
		Select("id").
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Order("created_at ASC, id ASC").
		Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return c.ID, nil
}
