package repository

import (
	"context"
	"time"

	"expertsolve.com/hub/internal/model"
	"gorm.io/gorm"
)

type ActivityFilter struct {
	UserID *uint
	Page   Page
}

type ActivityRepository interface {
	Create(ctx context.Context, entry *model.ActivityLog) error
	List(ctx context.Context, filter ActivityFilter) ([]model.ActivityLog, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, entry *model.ActivityLog) error {
	return translate(r.db.WithContext(ctx).Create(entry).Error)
}

// List returns newest first; a nil UserID lists every user's rows.
func (r *activityRepository) List(ctx context.Context, filter ActivityFilter) ([]model.ActivityLog, error) {
	q := r.db.WithContext(ctx)
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	var entries []model.ActivityLog
	err := filter.Page.apply(q).Order("created_at DESC, id DESC").Find(&entries).Error
	return entries, err
}

func (r *activityRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&model.ActivityLog{})
	return res.RowsAffected, res.Error
}
