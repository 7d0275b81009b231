package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"expertsolve.com/hub/internal/model"
	"expertsolve.com/hub/internal/repository"
	"expertsolve.com/hub/pkg/apperror"
	"expertsolve.com/hub/pkg/logger"
)

type CreateChallengeInput struct {
	Title           string     `json:"title" binding:"required,max=255"`
	Description     string     `json:"description" binding:"required,max=20000"`
	CategoryID      *uint      `json:"categoryId"`
	DifficultyLevel string     `json:"difficultyLevel" binding:"omitempty,oneof=beginner intermediate advanced"`
	EstimatedTime   *int       `json:"estimatedTime" binding:"omitempty,min=1"`
	MaxParticipants *int       `json:"maxParticipants" binding:"omitempty,min=1"`
	Deadline        *time.Time `json:"deadline"`
	Prize           *string    `json:"prize" binding:"omitempty,max=255"`
	Status          string     `json:"status" binding:"omitempty,oneof=draft active completed cancelled"`
}

type UpdateChallengeInput struct {
	Title           *string    `json:"title" binding:"omitempty,min=1,max=255"`
	Description     *string    `json:"description" binding:"omitempty,min=1,max=20000"`
	CategoryID      *uint      `json:"categoryId"`
	DifficultyLevel *string    `json:"difficultyLevel" binding:"omitempty,oneof=beginner intermediate advanced"`
	EstimatedTime   *int       `json:"estimatedTime" binding:"omitempty,min=1"`
	MaxParticipants *int       `json:"maxParticipants" binding:"omitempty,min=1"`
	Deadline        *time.Time `json:"deadline"`
	Prize           *string    `json:"prize" binding:"omitempty,max=255"`
	Status          *string    `json:"status" binding:"omitempty,oneof=draft active completed cancelled"`
}

type ChallengeDetail struct {
	Challenge *model.Challenge `json:"challenge"`
	Solutions []model.Solution `json:"solutions"`
}

type ChallengeService interface {
	Create(ctx context.Context, expertID uint, input CreateChallengeInput, meta RequestMeta) (*model.Challenge, error)
	List(ctx context.Context, categoryID *uint, status string, limit, offset int) ([]model.Challenge, error)
	Get(ctx context.Context, id uint) (*ChallengeDetail, error)
	ListByExpert(ctx context.Context, expertID uint) ([]model.Challenge, error)
	Solutions(ctx context.Context, id uint) ([]model.Solution, error)
	Participants(ctx context.Context, id uint) ([]model.Participant, error)
	Search(ctx context.Context, term string) ([]model.Challenge, error)
	Update(ctx context.Context, expertID, id uint, input UpdateChallengeInput, meta RequestMeta) (*model.Challenge, error)
	Delete(ctx context.Context, expertID, id uint, meta RequestMeta) error
	Join(ctx context.Context, userID, id uint) (bool, error)
	Leave(ctx context.Context, userID, id uint) error
	Reindex(ctx context.Context) (int, error)
}

type challengeService struct {
	challenges    repository.ChallengeRepository
	solutions     repository.SolutionRepository
	categories    repository.CategoryRepository
	users         repository.UserRepository
	search        SearchService
	notifications NotificationService
	activity      ActivityService
	log           *logger.Logger
	now           func() time.Time
}

func NewChallengeService(
	challenges repository.ChallengeRepository,
	solutions repository.SolutionRepository,
	categories repository.CategoryRepository,
	users repository.UserRepository,
	search SearchService,
	notifications NotificationService,
	activity ActivityService,
	log *logger.Logger,
) ChallengeService {
	return &challengeService{
		challenges:    challenges,
		solutions:     solutions,
		categories:    categories,
		users:         users,
		search:        search,
		notifications: notifications,
		activity:      activity,
		log:           log,
		now:           time.Now,
	}
}

func (s *challengeService) Create(ctx context.Context, expertID uint, input CreateChallengeInput, meta RequestMeta) (*model.Challenge, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperror.BadRequest("Title and description are required")
	}
	if err := s.ensureCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}
	if input.Deadline != nil && !input.Deadline.After(s.now()) {
		return nil, apperror.BadRequest("Deadline must be in the future")
	}

	challenge := &model.Challenge{
		ExpertID:        expertID,
		CategoryID:      input.CategoryID,
		Title:           title,
		Description:     description,
		DifficultyLevel: withDefault(input.DifficultyLevel, "beginner"),
		EstimatedTime:   input.EstimatedTime,
		MaxParticipants: input.MaxParticipants,
		Deadline:        input.Deadline,
		Prize:           normalizeOptional(input.Prize),
		Status:          withDefault(input.Status, model.ChallengeActive),
	}
	if err := s.challenges.Create(ctx, challenge); err != nil {
		return nil, err
	}

	created, err := s.challenges.FindByID(ctx, challenge.ID)
	if err != nil {
		return nil, err
	}
	s.index(*created)
	s.activity.Record(ctx, expertID, ActionCreate, "challenge", created.ID, meta, nil)
	return created, nil
}

func (s *challengeService) List(ctx context.Context, categoryID *uint, status string, limit, offset int) ([]model.Challenge, error) {
	return s.challenges.List(ctx, repository.ChallengeFilter{
		CategoryID: categoryID,
		Status:     status,
		Page:       repository.Page{Limit: limit, Offset: offset},
	})
}

func (s *challengeService) find(ctx context.Context, id uint) (*model.Challenge, error) {
	challenge, err := s.challenges.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Challenge not found")
	}
	return challenge, nil
}

func (s *challengeService) Get(ctx context.Context, id uint) (*ChallengeDetail, error) {
	challenge, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	solutions, err := s.solutions.ListByChallenge(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ChallengeDetail{Challenge: challenge, Solutions: solutions}, nil
}

func (s *challengeService) ListByExpert(ctx context.Context, expertID uint) ([]model.Challenge, error) {
	return s.challenges.ListByExpert(ctx, expertID)
}

func (s *challengeService) Solutions(ctx context.Context, id uint) ([]model.Solution, error) {
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	return s.solutions.ListByChallenge(ctx, id)
}

func (s *challengeService) Participants(ctx context.Context, id uint) ([]model.Participant, error) {
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	return s.challenges.Participants(ctx, id)
}

func (s *challengeService) Search(ctx context.Context, term string) ([]model.Challenge, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperror.BadRequest("Search term is required")
	}
	if s.search.Enabled() {
		ids, err := s.search.SearchChallenges(term)
		if err == nil {
			return s.challenges.FindByIDs(ctx, ids)
		}
		s.log.Warn("challenge search failed, using database fallback", "error", err)
	}
	return s.challenges.Search(ctx, term)
}

func (s *challengeService) ownChallenge(ctx context.Context, expertID, id uint, verb string) (*model.Challenge, error) {
	challenge, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if challenge.ExpertID != expertID {
		return nil, apperror.Forbidden("You can only " + verb + " your own challenges")
	}
	return challenge, nil
}

func (s *challengeService) Update(ctx context.Context, expertID, id uint, input UpdateChallengeInput, meta RequestMeta) (*model.Challenge, error) {
	if _, err := s.ownChallenge(ctx, expertID, id, "update"); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperror.BadRequest("Title cannot be empty")
		}
		fields["title"] = title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return nil, apperror.BadRequest("Description cannot be empty")
		}
		fields["description"] = description
	}
	if input.CategoryID != nil {
		if err := s.ensureCategory(ctx, input.CategoryID); err != nil {
			return nil, err
		}
		fields["category_id"] = *input.CategoryID
	}
	if input.DifficultyLevel != nil {
		fields["difficulty_level"] = *input.DifficultyLevel
	}
	if input.EstimatedTime != nil {
		fields["estimated_time"] = *input.EstimatedTime
	}
	if input.MaxParticipants != nil {
		fields["max_participants"] = *input.MaxParticipants
	}
	if input.Deadline != nil {
		if !input.Deadline.After(s.now()) {
			return nil, apperror.BadRequest("Deadline must be in the future")
		}
		fields["deadline"] = *input.Deadline
	}
	if input.Prize != nil {
		fields["prize"] = normalizeOptional(input.Prize)
	}
	if input.Status != nil {
		fields["status"] = *input.Status
	}
	if len(fields) == 0 {
		return nil, apperror.BadRequest("No fields to update")
	}

	if err := s.challenges.Update(ctx, id, expertID, fields); err != nil {
		return nil, notFound(err, "Challenge not found")
	}
	updated, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	s.index(*updated)
	s.activity.Record(ctx, expertID, ActionUpdate, "challenge", id, meta, nil)
	return updated, nil
}

func (s *challengeService) Delete(ctx context.Context, expertID, id uint, meta RequestMeta) error {
	if _, err := s.ownChallenge(ctx, expertID, id, "delete"); err != nil {
		return err
	}
	if err := s.challenges.Delete(ctx, id, expertID); err != nil {
		return notFound(err, "Challenge not found")
	}
	if err := s.search.DeleteChallenge(id); err != nil {
		s.log.Warn("failed to remove challenge from search index", "challenge_id", id, "error", err)
	}
	s.activity.Record(ctx, expertID, ActionDelete, "challenge", id, meta, nil)
	return nil
}

// Join reports false when the user had already joined.
func (s *challengeService) Join(ctx context.Context, userID, id uint) (bool, error) {
	challenge, err := s.find(ctx, id)
	if err != nil {
		return false, err
	}
	if challenge.ExpertID == userID {
		return false, apperror.BadRequest("You cannot join your own challenge")
	}
	if !challenge.IsOpen(s.now()) {
		return false, apperror.BadRequest("Challenge is not accepting participants")
	}

	joined, err := s.challenges.Join(ctx, id, userID)
	if err != nil {
		return false, joinError(err)
	}
	if !joined {
		return false, nil
	}

	name := "Someone"
	if user, err := s.users.FindByID(ctx, userID); err == nil {
		name = user.FullName
	}
	s.notifications.Notify(ctx, &model.Notification{
		UserID:           challenge.ExpertID,
		ActorID:          &userID,
		Title:            "New participant",
		Message:          fmt.Sprintf("%s joined your challenge \"%s\"", name, challenge.Title),
		NotificationType: model.NotificationChallengeJoin,
		ReferenceID:      &id,
		ReferenceType:    "challenge",
	})
	return true, nil
}

func joinError(err error) error {
	switch {
	case errors.Is(err, repository.ErrChallengeFull):
		return apperror.BadRequest("Challenge is full")
	case errors.Is(err, apperror.ErrNotFound):
		return apperror.NotFound("Challenge not found")
	}
	return err
}

func (s *challengeService) Leave(ctx context.Context, userID, id uint) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	left, err := s.challenges.Leave(ctx, id, userID)
	if err != nil {
		return err
	}
	if !left {
		return apperror.NotFound("You have not joined this challenge")
	}
	return nil
}

func (s *challengeService) Reindex(ctx context.Context) (int, error) {
	if !s.search.Enabled() {
		return 0, nil
	}
	challenges, err := s.challenges.All(ctx)
	if err != nil {
		return 0, err
	}
	return len(challenges), s.search.IndexChallenges(challenges...)
}

func (s *challengeService) ensureCategory(ctx context.Context, categoryID *uint) error {
	if categoryID == nil {
		return nil
	}
	if _, err := s.categories.FindByID(ctx, *categoryID); err != nil {
		return notFound(err, "Category not found")
	}
	return nil
}

func (s *challengeService) index(c model.Challenge) {
	if err := s.search.IndexChallenges(c); err != nil {
		s.log.Warn("failed to index challenge", "challenge_id", c.ID, "error", err)
	}
}

func withDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
