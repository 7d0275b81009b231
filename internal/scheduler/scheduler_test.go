package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"expertsolve.com/hub/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	retention time.Duration
	calls     int
	err       error
}

func (f *fakePurger) Purge(_ context.Context, retention time.Duration) (int64, error) {
	f.calls++
	f.retention = retention
	return 3, f.err
}

type fakeSessions struct {
	cutoff time.Time
}

func (f *fakeSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.cutoff = now
	return 1, nil
}

type fakeReindexer struct {
	n   int
	err error
}

func (f *fakeReindexer) Reindex(context.Context) (int, error) {
	return f.n, f.err
}

func TestRegisterAndRunJobByName(t *testing.T) {
	s := NewScheduler(logger.Nop())
	purger := &fakePurger{}

	require.NoError(t, s.RegisterJob(&ActivityPurgeJob{Activity: purger, Retention: 48 * time.Hour, Spec: "@daily", Log: logger.Nop()}))
	require.NoError(t, s.RegisterJob(&SessionPurgeJob{Sessions: &fakeSessions{}, Log: logger.Nop()}))
	assert.Equal(t, []string{"activity-log-purge", "session-purge"}, s.RegisteredJobs())

	require.NoError(t, s.RunJobByName(context.Background(), "activity-log-purge"))
	assert.Equal(t, 1, purger.calls)
	assert.Equal(t, 48*time.Hour, purger.retention)

	assert.Error(t, s.RunJobByName(context.Background(), "missing"))
}

func TestRegisterJobRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(logger.Nop())
	err := s.RegisterJob(&SessionPurgeJob{Sessions: &fakeSessions{}, Spec: "not a cron", Log: logger.Nop()})
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(logger.Nop())
	require.NoError(t, s.RegisterJob(&SessionPurgeJob{Sessions: &fakeSessions{}, Spec: "@hourly", Log: logger.Nop()}))
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestActivityPurgeDisabled(t *testing.T) {
	purger := &fakePurger{}
	job := &ActivityPurgeJob{Activity: purger, Log: logger.Nop()}
	require.NoError(t, job.Execute(context.Background()))
	assert.Zero(t, purger.calls)
}

func TestActivityPurgePropagatesError(t *testing.T) {
	job := &ActivityPurgeJob{Activity: &fakePurger{err: errors.New("db down")}, Retention: time.Hour, Log: logger.Nop()}
	assert.EqualError(t, job.Execute(context.Background()), "db down")
}

func TestSessionPurgeUsesClock(t *testing.T) {
	sessions := &fakeSessions{}
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	job := &SessionPurgeJob{Sessions: sessions, Log: logger.Nop(), Now: func() time.Time { return fixed }}

	require.NoError(t, job.Execute(context.Background()))
	assert.Equal(t, fixed, sessions.cutoff)
}

func TestReindexJoinsErrors(t *testing.T) {
	questionsErr := errors.New("questions failed")
	challengesErr := errors.New("challenges failed")
	job := &ReindexJob{
		Questions:  &fakeReindexer{err: questionsErr},
		Challenges: &fakeReindexer{err: challengesErr},
		Log:        logger.Nop(),
	}

	err := job.Execute(context.Background())
	assert.ErrorIs(t, err, questionsErr)
	assert.ErrorIs(t, err, challengesErr)

	ok := &ReindexJob{Questions: &fakeReindexer{n: 2}, Challenges: &fakeReindexer{n: 1}, Log: logger.Nop()}
	assert.NoError(t, ok.Execute(context.Background()))
}
