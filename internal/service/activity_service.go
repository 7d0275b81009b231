package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"expertsolve.com/hub/internal/model"
	"expertsolve.com/hub/internal/repository"
	"expertsolve.com/hub/pkg/logger"
	"gorm.io/datatypes"
)

const (
	ActionRegister = "register"
	ActionLogin    = "login"
	ActionCreate   = "create"
	ActionUpdate   = "update"
	ActionDelete   = "delete"
)

// RequestMeta is the client information recorded with sessions and
// activity rows.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

type ActivityService interface {
	// Record appends an audit row; failures are only logged.
	Record(ctx context.Context, userID uint, action, resourceType string, resourceID uint, meta RequestMeta, details map[string]any)
	ListForUser(ctx context.Context, userID uint, limit, offset int) ([]model.ActivityLog, error)
	List(ctx context.Context, userID *uint, limit, offset int) ([]model.ActivityLog, error)
	Purge(ctx context.Context, retention time.Duration) (int64, error)
}

type activityService struct {
	repo repository.ActivityRepository
	log  *logger.Logger
}

func NewActivityService(repo repository.ActivityRepository, log *logger.Logger) ActivityService {
	return &activityService{repo: repo, log: log}
}

func (s *activityService) Record(ctx context.Context, userID uint, action, resourceType string, resourceID uint, meta RequestMeta, details map[string]any) {
	entry := &model.ActivityLog{
		Action:       action,
		ResourceType: resourceType,
		IPAddress:    meta.IPAddress,
		UserAgent:    truncate(meta.UserAgent, 512),
	}
	if userID != 0 {
		entry.UserID = &userID
	}
	if resourceID != 0 {
		entry.ResourceID = &resourceID
	}
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err == nil {
			entry.Details = datatypes.JSON(raw)
		}
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.log.Warn("failed to record activity", "user_id", userID, "action", action, "resource_type", resourceType, "error", err)
	}
}

func (s *activityService) ListForUser(ctx context.Context, userID uint, limit, offset int) ([]model.ActivityLog, error) {
	return s.List(ctx, &userID, limit, offset)
}

func (s *activityService) List(ctx context.Context, userID *uint, limit, offset int) ([]model.ActivityLog, error) {
	return s.repo.List(ctx, repository.ActivityFilter{
		UserID: userID,
		Page:   repository.Page{Limit: limit, Offset: offset},
	})
}

func (s *activityService) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.DeleteOlderThan(ctx, time.Now().Add(-retention))
}

// truncate cuts s to at most n bytes on a rune boundary. Invalid UTF-8 is
// dropped since text columns reject it.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "")
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
