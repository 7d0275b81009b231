package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"expertsolve.com/hub/internal/model"
	"expertsolve.com/hub/internal/repository"
	"expertsolve.com/hub/pkg/apperror"
	"expertsolve.com/hub/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 50
	leaderboardCacheTTL     = 5 * time.Minute
)

type LeaderboardService interface {
	TopExperts(ctx context.Context, metric string, limit int) ([]model.LeaderboardEntry, error)
}

type leaderboardService struct {
	repo        repository.LeaderboardRepository
	redisClient *redis.Client
	log         *logger.Logger
}

// NewLeaderboardService caches rankings in Redis when a client is given.
func NewLeaderboardService(repo repository.LeaderboardRepository, redisClient *redis.Client, log *logger.Logger) LeaderboardService {
	return &leaderboardService{
		repo:        repo,
		redisClient: redisClient,
		log:         log,
	}
}

func leaderboardKey(metric string, limit int) string {
	return fmt.Sprintf("leaderboard:experts:%s:%d", metric, limit)
}

func (s *leaderboardService) TopExperts(ctx context.Context, metric string, limit int) ([]model.LeaderboardEntry, error) {
	if metric == "" {
		metric = model.LeaderboardRating
	}
	if !model.ValidLeaderboardMetric(metric) {
		return nil, apperror.BadRequest("Category must be one of rating, answers or helpfulness")
	}
	if limit < 1 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	key := leaderboardKey(metric, limit)
	if cached, ok := s.cached(ctx, key); ok {
		return cached, nil
	}

	entries, err := s.repo.TopExperts(ctx, metric, limit)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}

	s.store(ctx, key, entries)
	return entries, nil
}

func (s *leaderboardService) cached(ctx context.Context, key string) ([]model.LeaderboardEntry, bool) {
	if s.redisClient == nil {
		return nil, false
	}
	raw, err := s.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("failed to read leaderboard cache", "key", key, "error", err)
		}
		return nil, false
	}
	var entries []model.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func (s *leaderboardService) store(ctx context.Context, key string, entries []model.LeaderboardEntry) {
	if s.redisClient == nil {
		return
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := s.redisClient.Set(ctx, key, raw, leaderboardCacheTTL).Err(); err != nil {
		s.log.Warn("failed to cache leaderboard", "key", key, "error", err)
	}
}
