package models_test

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"nagarneuron/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

// TestComplaintBeforeCreate_GeneratesID verifies that the BeforeCreate hook assigns an external id.
func TestComplaintBeforeCreate_GeneratesID(t *testing.T) {
	// Arrange
	c := &models.Complaint{Latitude: 12.9716, Longitude: 77.5946, Category: models.CategoryPothole}
	assert.Empty(t, c.ComplaintID, "ComplaintID should be empty before BeforeCreate")

	// Act
	err := c.BeforeCreate(nil) // nil *gorm.DB is fine for this hook

	// Assert
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(c.ComplaintID, "NN"), "external ids start with NN")
	assert.Equal(t, strings.ToUpper(c.ComplaintID), c.ComplaintID, "external ids are upper-case")
}

// TestComplaintBeforeCreate_PreservesExistingID verifies that the hook doesn't overwrite an id.
func TestComplaintBeforeCreate_PreservesExistingID(t *testing.T) {
	c := &models.Complaint{ComplaintID: "NNFIXED0001"}

	err := c.BeforeCreate(nil)

	assert.NoError(t, err)
	assert.Equal(t, "NNFIXED0001", c.ComplaintID)
}

// TestNewComplaintID_Unique verifies ids generated in the same millisecond differ.
func TestNewComplaintID_Unique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id := models.NewComplaintID(now)
		assert.NotContains(t, seen, id, "ids must not repeat")
		seen[id] = true
	}
}

// TestComplaintStructTags guards the JSON contract consumed by the mobile client.
func TestComplaintStructTags(t *testing.T) {
	ct := reflect.TypeOf(models.Complaint{})

	tests := []struct {
		field string
		json  string
	}{
		{"ComplaintID", "id"},
		{"VerificationCount", "verificationCount"},
		{"VerificationStatus", "verificationStatus,omitempty"},
		{"StatusHistory", "statusHistory"},
		{"ConfidenceScore", "confidenceScore,omitempty"},
		{"ID", "-"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			f, found := ct.FieldByName(tt.field)
			assert.True(t, found, "field should exist")
			assert.Equal(t, tt.json, f.Tag.Get("json"))
		})
	}

	idField, _ := ct.FieldByName("ComplaintID")
	assert.Contains(t, idField.Tag.Get("gorm"), "uniqueIndex")
}

func TestLastStatus(t *testing.T) {
	c := &models.Complaint{}
	assert.Equal(t, models.Status(""), c.LastStatus())

	c.StatusHistory = []models.StatusHistoryEntry{
		{Status: models.StatusReported},
		{Status: models.StatusAssigned},
	}
	assert.Equal(t, models.StatusAssigned, c.LastStatus())
}

func TestEnumsValid(t *testing.T) {
	assert.True(t, models.StatusInProgress.Valid())
	assert.False(t, models.Status("Closed").Valid())
	assert.False(t, models.Status("in progress").Valid(), "status values are case sensitive")

	assert.True(t, models.CategoryDrainage.Valid())
	assert.False(t, models.Category("graffiti").Valid())

	assert.True(t, models.VoteCantVerify.Valid())
	assert.False(t, models.Vote("maybe").Valid())

	assert.True(t, models.StatusAssigned.Open())
	assert.False(t, models.StatusResolved.Open())

	assert.True(t, models.ValidLanguage("kn"))
	assert.False(t, models.ValidLanguage("fr"))
}
