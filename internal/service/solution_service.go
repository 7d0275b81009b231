package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"expertsolve.com/hub/internal/model"
	"expertsolve.com/hub/internal/repository"
	"expertsolve.com/hub/pkg/apperror"
	"expertsolve.com/hub/pkg/logger"
)

type SolutionInput struct {
	Title       *string `json:"title" binding:"omitempty,max=255"`
	Content     string  `json:"content" binding:"required,max=50000"`
	CodeSnippet *string `json:"codeSnippet" binding:"omitempty,max=50000"`
	Language    *string `json:"language" binding:"omitempty,max=50"`
	GithubLink  *string `json:"githubLink" binding:"omitempty,url,max=500"`
	DemoLink    *string `json:"demoLink" binding:"omitempty,url,max=500"`
}

type UpdateSolutionInput struct {
	Title       *string `json:"title" binding:"omitempty,max=255"`
	Content     *string `json:"content" binding:"omitempty,min=1,max=50000"`
	CodeSnippet *string `json:"codeSnippet" binding:"omitempty,max=50000"`
	Language    *string `json:"language" binding:"omitempty,max=50"`
	GithubLink  *string `json:"githubLink" binding:"omitempty,url,max=500"`
	DemoLink    *string `json:"demoLink" binding:"omitempty,url,max=500"`
}

type SolutionRatingSummary struct {
	Ratings    []model.SolutionRating  `json:"ratings"`
	Statistics *model.RatingStatistics `json:"statistics"`
}

type SolutionService interface {
	Create(ctx context.Context, userID, challengeID uint, input SolutionInput, meta RequestMeta) (*model.Solution, error)
	Get(ctx context.Context, id uint) (*model.Solution, error)
	ListByCreator(ctx context.Context, userID uint) ([]model.Solution, error)
	ListByLanguage(ctx context.Context, language string) ([]model.Solution, error)
	Update(ctx context.Context, userID, id uint, input UpdateSolutionInput, meta RequestMeta) (*model.Solution, error)
	Delete(ctx context.Context, userID, id uint, meta RequestMeta) error
	Rate(ctx context.Context, raterID, id uint, input RateInput) (*model.SolutionRating, error)
	Ratings(ctx context.Context, id uint) (*SolutionRatingSummary, error)
	Statistics(ctx context.Context, id uint) (*model.RatingStatistics, error)
	TopRated(ctx context.Context, limit int) ([]model.Solution, error)
}

type solutionService struct {
	solutions     repository.SolutionRepository
	challenges    repository.ChallengeRepository
	notifications NotificationService
	activity      ActivityService
	log           *logger.Logger
	now           func() time.Time
}

func NewSolutionService(
	solutions repository.SolutionRepository,
	challenges repository.ChallengeRepository,
	notifications NotificationService,
	activity ActivityService,
	log *logger.Logger,
) SolutionService {
	return &solutionService{
		solutions:     solutions,
		challenges:    challenges,
		notifications: notifications,
		activity:      activity,
		log:           log,
		now:           time.Now,
	}
}

// Create enrolls the author as a participant, within the challenge cap,
// then stores the solution.
func (s *solutionService) Create(ctx context.Context, userID, challengeID uint, input SolutionInput, meta RequestMeta) (*model.Solution, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, apperror.BadRequest("Content is required")
	}

	challenge, err := s.challenges.FindByID(ctx, challengeID)
	if err != nil {
		return nil, notFound(err, "Challenge not found")
	}
	if !challenge.IsOpen(s.now()) {
		return nil, apperror.BadRequest("Challenge is not accepting solutions")
	}

	if challenge.ExpertID != userID {
		if _, err := s.challenges.Join(ctx, challengeID, userID); err != nil {
			return nil, joinError(err)
		}
	}

	solution := &model.Solution{
		ChallengeID: challengeID,
		UserID:      userID,
		Title:       normalizeOptional(input.Title),
		Content:     content,
		CodeSnippet: input.CodeSnippet,
		Language:    normalizeLanguage(input.Language),
		GithubLink:  normalizeOptional(input.GithubLink),
		DemoLink:    normalizeOptional(input.DemoLink),
		Status:      model.SolutionSubmitted,
	}
	if err := s.solutions.Create(ctx, solution); err != nil {
		return nil, err
	}

	s.notifications.Notify(ctx, &model.Notification{
		UserID:           challenge.ExpertID,
		ActorID:          &userID,
		Title:            "New solution",
		Message:          fmt.Sprintf("A new solution was submitted to \"%s\"", challenge.Title),
		NotificationType: model.NotificationNewSolution,
		ReferenceID:      &solution.ID,
		ReferenceType:    "solution",
	})
	s.activity.Record(ctx, userID, ActionCreate, "solution", solution.ID, meta, map[string]any{"challenge_id": challengeID})

	return s.solutions.FindByID(ctx, solution.ID)
}

func (s *solutionService) Get(ctx context.Context, id uint) (*model.Solution, error) {
	solution, err := s.solutions.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Solution not found")
	}
	return solution, nil
}

func (s *solutionService) ListByCreator(ctx context.Context, userID uint) ([]model.Solution, error) {
	return s.solutions.ListByCreator(ctx, userID)
}

func (s *solutionService) ListByLanguage(ctx context.Context, language string) ([]model.Solution, error) {
	language = strings.TrimSpace(language)
	if language == "" {
		return nil, apperror.BadRequest("Language is required")
	}
	return s.solutions.ListByLanguage(ctx, language)
}

func (s *solutionService) ownSolution(ctx context.Context, userID, id uint, verb string) error {
	solution, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if solution.UserID != userID {
		return apperror.Forbidden("You can only " + verb + " your own solutions")
	}
	return nil
}

func (s *solutionService) Update(ctx context.Context, userID, id uint, input UpdateSolutionInput, meta RequestMeta) (*model.Solution, error) {
	if err := s.ownSolution(ctx, userID, id, "update"); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.Title != nil {
		fields["title"] = normalizeOptional(input.Title)
	}
	if input.Content != nil {
		content := strings.TrimSpace(*input.Content)
		if content == "" {
			return nil, apperror.BadRequest("Content cannot be empty")
		}
		fields["content"] = content
	}
	if input.CodeSnippet != nil {
		fields["code_snippet"] = *input.CodeSnippet
	}
	if input.Language != nil {
		fields["language"] = normalizeLanguage(input.Language)
	}
	if input.GithubLink != nil {
		fields["github_link"] = normalizeOptional(input.GithubLink)
	}
	if input.DemoLink != nil {
		fields["demo_link"] = normalizeOptional(input.DemoLink)
	}
	if len(fields) == 0 {
		return nil, apperror.BadRequest("No fields to update")
	}

	if err := s.solutions.Update(ctx, id, userID, fields); err != nil {
		return nil, notFound(err, "Solution not found")
	}
	s.activity.Record(ctx, userID, ActionUpdate, "solution", id, meta, nil)
	return s.Get(ctx, id)
}

func (s *solutionService) Delete(ctx context.Context, userID, id uint, meta RequestMeta) error {
	if err := s.ownSolution(ctx, userID, id, "delete"); err != nil {
		return err
	}
	if err := s.solutions.Delete(ctx, id, userID); err != nil {
		return notFound(err, "Solution not found")
	}
	s.activity.Record(ctx, userID, ActionDelete, "solution", id, meta, nil)
	return nil
}

func (s *solutionService) Rate(ctx context.Context, raterID, id uint, input RateInput) (*model.SolutionRating, error) {
	solution, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if solution.UserID == raterID {
		return nil, apperror.BadRequest("You cannot rate your own solution")
	}

	alreadyRated, err := s.solutions.HasRated(ctx, id, raterID)
	if err != nil {
		return nil, err
	}

	rating := &model.SolutionRating{
		SolutionID: id,
		RaterID:    raterID,
		Rating:     input.Rating,
		Review:     normalizeOptional(input.Review),
	}
	if err := s.solutions.Rate(ctx, rating); err != nil {
		return nil, err
	}
	if alreadyRated {
		return rating, nil
	}

	s.notifications.Notify(ctx, &model.Notification{
		UserID:           solution.UserID,
		ActorID:          &raterID,
		Title:            "New rating",
		Message:          fmt.Sprintf("Your solution received a %d-star rating", input.Rating),
		NotificationType: model.NotificationNewRating,
		ReferenceID:      &id,
		ReferenceType:    "solution",
	})
	return rating, nil
}

func (s *solutionService) Ratings(ctx context.Context, id uint) (*SolutionRatingSummary, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	ratings, err := s.solutions.Ratings(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := s.solutions.Statistics(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SolutionRatingSummary{Ratings: ratings, Statistics: stats}, nil
}

func (s *solutionService) Statistics(ctx context.Context, id uint) (*model.RatingStatistics, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.solutions.Statistics(ctx, id)
}

func (s *solutionService) TopRated(ctx context.Context, limit int) ([]model.Solution, error) {
	if limit <= 0 {
		limit = defaultTopRatedLimit
	}
	return s.solutions.TopRated(ctx, limit)
}

func normalizeLanguage(language *string) *string {
	if language == nil {
		return nil
	}
	lang := strings.ToLower(strings.TrimSpace(*language))
	if lang == "" {
		return nil
	}
	return &lang
}
