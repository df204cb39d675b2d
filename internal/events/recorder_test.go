package events_test

import (
	"context"
	"encoding/json"
	"testing"

	"nagarneuron/backend/internal/events"
	"nagarneuron/backend/internal/localization"
	"nagarneuron/backend/internal/logger"
	"nagarneuron/backend/internal/models"
	"nagarneuron/backend/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_WritesLocalizedNotifications(t *testing.T) {
	ctx := context.Background()
	s := storagetest.Service(t)
	u := storagetest.CreateUser(t, s, "9600000000")
	require.NoError(t, s.UpdateUserFields(ctx, u.ID, map[string]interface{}{"language": "hi"}))
	loc, err := localization.Default()
	require.NoError(t, err)
	rec := events.NewRecorder(s, loc, logger.Nop())

	rec.Handle(ctx, events.Event{Type: events.TypeStatusChanged, ComplaintID: "NNX", UserID: &u.ID, Status: models.StatusAssigned})
	rec.Handle(ctx, events.Event{Type: events.TypeConsensusReached, ComplaintID: "NNX", UserID: &u.ID, VerificationStatus: models.VerificationCommunityFixed})
	rec.Handle(ctx, events.Event{Type: events.TypeBadgeUnlocked, UserID: &u.ID, Badge: &models.Badge{Name: "Verifier"}})

	list, err := s.ListNotifications(ctx, u.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	byType := map[string]models.Notification{}
	for _, n := range list {
		byType[n.Type] = n
	}
	assert.Equal(t, "शिकायत अपडेट हुई", byType["complaint.status_changed"].Title)
	assert.Contains(t, byType["complaint.status_changed"].Body, "NNX")
	assert.Contains(t, byType["complaint.consensus"].Body, "NNX")
	assert.Contains(t, byType["badge.unlocked"].Body, "Verifier")
	assert.False(t, byType["badge.unlocked"].IsRead)
	assert.JSONEq(t, `"badge.unlocked"`, jsonField(t, byType["badge.unlocked"].Data, "type"))
}

func TestRecorder_IgnoresEventsWithoutUser(t *testing.T) {
	ctx := context.Background()
	s := storagetest.Service(t)
	u := storagetest.CreateUser(t, s, "9600000001")
	loc, err := localization.Default()
	require.NoError(t, err)
	rec := events.NewRecorder(s, loc, logger.Nop())

	rec.Handle(ctx, events.Event{Type: events.TypeStatusChanged, ComplaintID: "NNY"})
	rec.Handle(ctx, events.Event{Type: events.TypeComplaintCreated, ComplaintID: "NNY", UserID: &u.ID})
	missing := uint(424242)
	rec.Handle(ctx, events.Event{Type: events.TypeStatusChanged, ComplaintID: "NNY", UserID: &missing})

	list, err := s.ListNotifications(ctx, u.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func jsonField(t *testing.T, raw []byte, field string) string {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	return string(m[field])
}
