package scheduler

import (
	"context"
	"errors"
	"time"

	"expertsolve.com/hub/pkg/logger"
)

type ActivityPurger interface {
	Purge(ctx context.Context, retention time.Duration) (int64, error)
}

type SessionPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Reindexer interface {
	Reindex(ctx context.Context) (int, error)
}

// ActivityPurgeJob deletes activity rows older than the retention window.
type ActivityPurgeJob struct {
	Activity  ActivityPurger
	Retention time.Duration
	Spec      string
	Log       *logger.Logger
}

func (j *ActivityPurgeJob) Name() string     { return "activity-log-purge" }
func (j *ActivityPurgeJob) Schedule() string { return j.Spec }

func (j *ActivityPurgeJob) Execute(ctx context.Context) error {
	if j.Retention <= 0 {
		return nil
	}
	deleted, err := j.Activity.Purge(ctx, j.Retention)
	if err != nil {
		return err
	}
	j.Log.Info("activity logs purged", "deleted", deleted)
	return nil
}

type SessionPurgeJob struct {
	Sessions SessionPurger
	Spec     string
	Log      *logger.Logger
	Now      func() time.Time
}

func (j *SessionPurgeJob) Name() string     { return "session-purge" }
func (j *SessionPurgeJob) Schedule() string { return j.Spec }

func (j *SessionPurgeJob) Execute(ctx context.Context) error {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	deleted, err := j.Sessions.DeleteExpired(ctx, now())
	if err != nil {
		return err
	}
	j.Log.Info("expired sessions purged", "deleted", deleted)
	return nil
}

// ReindexJob pushes every question and challenge to the search index.
type ReindexJob struct {
	Questions  Reindexer
	Challenges Reindexer
	Spec       string
	Log        *logger.Logger
}

func (j *ReindexJob) Name() string     { return "search-reindex" }
func (j *ReindexJob) Schedule() string { return j.Spec }

func (j *ReindexJob) Execute(ctx context.Context) error {
	questions, qErr := j.Questions.Reindex(ctx)
	challenges, cErr := j.Challenges.Reindex(ctx)
	if err := errors.Join(qErr, cErr); err != nil {
		return err
	}
	j.Log.Info("search index rebuilt", "questions", questions, "challenges", challenges)
	return nil
}
