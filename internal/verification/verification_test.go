package verification_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"nagarneuron/backend/internal/apperr"
	"nagarneuron/backend/internal/events"
	"nagarneuron/backend/internal/gamification"
	"nagarneuron/backend/internal/lifecycle"
	"nagarneuron/backend/internal/logger"
	"nagarneuron/backend/internal/models"
	"nagarneuron/backend/internal/storage"
	"nagarneuron/backend/internal/storage/storagetest"
	"nagarneuron/backend/internal/verification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store *storage.Service
	votes *verification.Engine
	lc    *lifecycle.Engine
	pub   *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := storagetest.SeededService(t)
	pub := &recordingPublisher{}
	g := gamification.NewEngine(s, pub, logger.Nop())
	lc := lifecycle.NewEngine(s, g, pub, nil, logger.Nop())
	return &fixture{
		store: s,
		votes: verification.NewEngine(s, lc, g, pub, nil, logger.Nop()),
		lc:    lc,
		pub:   pub,
	}
}

func (f *fixture) voters(t *testing.T, n int) []*models.User {
	t.Helper()
	out := make([]*models.User, n)
	for i := range out {
		out[i] = storagetest.CreateUser(t, f.store, fmt.Sprintf("98000000%02d", i))
	}
	return out
}

func (f *fixture) vote(t *testing.T, complaintID string, userID uint, v models.Vote) *verification.Result {
	t.Helper()
	res, err := f.votes.CastVote(context.Background(), complaintID, verification.Ballot{UserID: userID, Vote: v})
	require.NoError(t, err)
	return res
}

func TestCastVote_ThreeYesVerifies(t *testing.T) {
	f := newFixture(t)
	c := storagetest.CreateComplaint(t, f.store, nil, 12.97, 77.59)
	users := f.voters(t, 3)

	res := f.vote(t, c.ComplaintID, users[0].ID, models.VoteYes)
	res = f.vote(t, c.ComplaintID, users[1].ID, models.VoteYes)
	assert.Nil(t, res.Complaint.VerificationStatus, "two yes votes are not enough")

	res = f.vote(t, c.ComplaintID, users[2].ID, models.VoteYes)
	require.NotNil(t, res.Complaint.VerificationStatus)
	assert.Equal(t, models.VerificationVerified, *res.Complaint.VerificationStatus)
	assert.Equal(t, models.StatusReported, res.Complaint.Status)
	assert.Len(t, res.Complaint.StatusHistory, 1)
	assert.Equal(t, 3, res.Complaint.VerificationCount)
	assert.Len(t, res.Complaint.Verifications, 3)
	assert.Contains(t, f.pub.types(), events.TypeConsensusReached)
}

func TestCastVote_TwoNoResolves(t *testing.T) {
	f := newFixture(t)
	owner := storagetest.CreateUser(t, f.store, "9111111111")
	c := storagetest.CreateComplaint(t, f.store, &owner.ID, 12.97, 77.59)
	users := f.voters(t, 3)

	res := f.vote(t, c.ComplaintID, users[0].ID, models.VoteNo)
	assert.Nil(t, res.Complaint.VerificationStatus)
	assert.Equal(t, models.StatusReported, res.Complaint.Status)

	res = f.vote(t, c.ComplaintID, users[1].ID, models.VoteNo)
	require.NotNil(t, res.Complaint.VerificationStatus)
	assert.Equal(t, models.VerificationCommunityFixed, *res.Complaint.VerificationStatus)
	assert.Equal(t, models.StatusResolved, res.Complaint.Status)
	require.Len(t, res.Complaint.StatusHistory, 2)
	last := res.Complaint.StatusHistory[1]
	assert.Equal(t, models.StatusResolved, last.Status)
	require.NotNil(t, last.Notes)
	assert.Equal(t, verification.CommunityFixedNote, *last.Notes)

	// a further no vote must not resolve again
	res = f.vote(t, c.ComplaintID, users[2].ID, models.VoteNo)
	assert.Len(t, res.Complaint.StatusHistory, 2)
	assert.Equal(t, 3, res.Complaint.VerificationCount)

	got, err := f.store.GetUser(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, got.Points, "owner paid complaint_resolved once")
}

func TestCastVote_YesRuleWinsOverNo(t *testing.T) {
	f := newFixture(t)
	c := storagetest.CreateComplaint(t, f.store, nil, 12.97, 77.59)
	users := f.voters(t, 5)

	for _, u := range users[:3] {
		f.vote(t, c.ComplaintID, u.ID, models.VoteYes)
	}
	f.vote(t, c.ComplaintID, users[3].ID, models.VoteNo)
	res := f.vote(t, c.ComplaintID, users[4].ID, models.VoteNo)

	require.NotNil(t, res.Complaint.VerificationStatus)
	assert.Equal(t, models.VerificationVerified, *res.Complaint.VerificationStatus)
	assert.Equal(t, models.StatusReported, res.Complaint.Status)
}

func TestCastVote_CantVerifyIsNeutral(t *testing.T) {
	f := newFixture(t)
	c := storagetest.CreateComplaint(t, f.store, nil, 12.97, 77.59)
	users := f.voters(t, 4)

	var res *verification.Result
	for _, u := range users {
		res = f.vote(t, c.ComplaintID, u.ID, models.VoteCantVerify)
	}
	assert.Nil(t, res.Complaint.VerificationStatus)
	assert.Equal(t, 4, res.Complaint.VerificationCount)
}

func TestCastVote_RewardsVoter(t *testing.T) {
	f := newFixture(t)
	c := storagetest.CreateComplaint(t, f.store, nil, 12.97, 77.59)
	voter := f.voters(t, 1)[0]

	res := f.vote(t, c.ComplaintID, voter.ID, models.VoteYes)

	assert.Equal(t, gamification.PointsFor(models.ActionVerifyComplaint), res.PointsEarned)
	assert.Empty(t, res.Warnings)
	got, err := f.store.GetUser(context.Background(), voter.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalVerifications)
	assert.Equal(t, 5, got.Points)
	assert.Equal(t, 1, got.Streak)
}

func TestCastVote_RepeatVotesCount(t *testing.T) {
	f := newFixture(t)
	c := storagetest.CreateComplaint(t, f.store, nil, 12.97, 77.59)
	voter := f.voters(t, 1)[0]

	f.vote(t, c.ComplaintID, voter.ID, models.VoteNo)
	res := f.vote(t, c.ComplaintID, voter.ID, models.VoteNo)

	assert.Equal(t, models.StatusResolved, res.Complaint.Status)
	assert.Equal(t, 2, res.Complaint.VerificationCount)
}

func TestCastVote_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := storagetest.CreateComplaint(t, f.store, nil, 12.97, 77.59)
	voter := f.voters(t, 1)[0]

	_, err := f.votes.CastVote(ctx, "NNMISSING", verification.Ballot{UserID: voter.ID, Vote: models.VoteYes})
	assert.True(t, apperr.IsNotFound(err))

	_, err = f.votes.CastVote(ctx, c.ComplaintID, verification.Ballot{UserID: voter.ID, Vote: "maybe"})
	assert.True(t, apperr.IsValidation(err))

	_, err = f.votes.CastVote(ctx, c.ComplaintID, verification.Ballot{Vote: models.VoteYes})
	assert.True(t, apperr.IsValidation(err))

	_, err = f.votes.CastVote(ctx, c.ComplaintID, verification.Ballot{UserID: 9999, Vote: models.VoteYes})
	assert.True(t, apperr.IsNotFound(err))

	got, err := f.store.GetComplaint(ctx, c.ComplaintID)
	require.NoError(t, err)
	assert.Zero(t, got.VerificationCount)
	assert.Empty(t, got.Verifications)
}

func TestCastVote_ConcurrentVotesReachConsensusOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := storagetest.CreateComplaint(t, f.store, nil, 12.97, 77.59)
	users := f.voters(t, 8)

	var wg sync.WaitGroup
	for _, u := range users {
		u := u
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.votes.CastVote(ctx, c.ComplaintID, verification.Ballot{UserID: u.ID, Vote: models.VoteNo})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := f.store.GetComplaint(ctx, c.ComplaintID)
	require.NoError(t, err)
	assert.Equal(t, len(users), got.VerificationCount)
	assert.Len(t, got.Verifications, len(users))
	assert.Equal(t, models.StatusResolved, got.Status)
	assert.Len(t, got.StatusHistory, 2)
}

func TestCastVote_AfterManualResolutionKeepsHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := storagetest.CreateComplaint(t, f.store, nil, 12.97, 77.59)
	users := f.voters(t, 2)

	_, err := f.lc.Transition(ctx, c.ComplaintID, models.StatusResolved, nil)
	require.NoError(t, err)

	f.vote(t, c.ComplaintID, users[0].ID, models.VoteNo)
	res := f.vote(t, c.ComplaintID, users[1].ID, models.VoteNo)

	require.NotNil(t, res.Complaint.VerificationStatus)
	assert.Equal(t, models.VerificationCommunityFixed, *res.Complaint.VerificationStatus)
	assert.Len(t, res.Complaint.StatusHistory, 2)
}

func TestKeyedMutex(t *testing.T) {
	k := verification.NewKeyedMutex(4)
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("NN1")
			counter++
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}
