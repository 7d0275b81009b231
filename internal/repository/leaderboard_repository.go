package repository

import (
	"context"
	"fmt"

	"expertsolve.com/hub/internal/model"
	"gorm.io/gorm"
)

type LeaderboardRepository interface {
	TopExperts(ctx context.Context, metric string, limit int) ([]model.LeaderboardEntry, error)
}

type leaderboardRepository struct {
	db *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

// scoreQuery aggregates one score row per expert for metric.
func (r *leaderboardRepository) scoreQuery(metric string) (*gorm.DB, error) {
	switch metric {
	case model.LeaderboardRating:
		return r.db.Model(&model.ExpertRating{}).
			Select("expert_id, CAST(AVG(rating) AS FLOAT) AS score, COUNT(*) AS samples").
			Group("expert_id"), nil
	case model.LeaderboardAnswers:
		return r.db.Model(&model.Answer{}).
			Select("expert_id, CAST(COUNT(*) AS FLOAT) AS score, COUNT(*) AS samples").
			Group("expert_id"), nil
	case model.LeaderboardHelpfulness:
		return r.db.Model(&model.Answer{}).
			Select("expert_id, CAST(SUM(helpful_count) AS FLOAT) AS score, COUNT(*) AS samples").
			Group("expert_id"), nil
	}
	return nil, fmt.Errorf("unknown leaderboard metric %q", metric)
}

func (r *leaderboardRepository) TopExperts(ctx context.Context, metric string, limit int) ([]model.LeaderboardEntry, error) {
	scores, err := r.scoreQuery(metric)
	if err != nil {
		return nil, err
	}

	var entries []model.LeaderboardEntry
	err = r.db.WithContext(ctx).
		Table("users").
		Select("users.user_id, users.username, users.full_name, users.profile_picture, s.score, s.samples").
		Joins("JOIN (?) AS s ON s.expert_id = users.user_id", scores).
		Where("users.user_type = ? AND users.is_active = ?", model.RoleExpert, true).
		Order("s.score DESC, s.samples DESC, users.user_id ASC").
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
