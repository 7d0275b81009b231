package service

import (
	"context"
	"fmt"
	"strings"

	"expertsolve.com/hub/internal/model"
	"expertsolve.com/hub/internal/repository"
	"expertsolve.com/hub/pkg/apperror"
	"expertsolve.com/hub/pkg/logger"
)

const defaultTopRatedLimit = 10

type AnswerInput struct {
	Content string `json:"content" binding:"required,max=10000"`
}

type AnswerRatingSummary struct {
	Ratings    []model.AnswerRating    `json:"ratings"`
	Statistics *model.RatingStatistics `json:"statistics"`
}

type AnswerService interface {
	Create(ctx context.Context, expertID, questionID uint, input AnswerInput, meta RequestMeta) (*model.Answer, error)
	Get(ctx context.Context, id uint) (*model.Answer, error)
	ListByQuestion(ctx context.Context, questionID uint) ([]model.Answer, error)
	ListByExpert(ctx context.Context, expertID uint) ([]model.Answer, error)
	Update(ctx context.Context, expertID, id uint, input AnswerInput, meta RequestMeta) (*model.Answer, error)
	Delete(ctx context.Context, expertID, id uint, meta RequestMeta) error
	MarkHelpful(ctx context.Context, id uint) (*model.Answer, error)
	Rate(ctx context.Context, raterID, id uint, input RateInput) (*model.AnswerRating, error)
	Ratings(ctx context.Context, id uint) (*AnswerRatingSummary, error)
	Statistics(ctx context.Context, id uint) (*model.RatingStatistics, error)
	TopRated(ctx context.Context, limit int) ([]model.Answer, error)
}

type answerService struct {
	answers       repository.AnswerRepository
	questions     repository.QuestionRepository
	limiter       *RateLimiter
	notifications NotificationService
	activity      ActivityService
	log           *logger.Logger
}

func NewAnswerService(
	answers repository.AnswerRepository,
	questions repository.QuestionRepository,
	limiter *RateLimiter,
	notifications NotificationService,
	activity ActivityService,
	log *logger.Logger,
) AnswerService {
	return &answerService{
		answers:       answers,
		questions:     questions,
		limiter:       limiter,
		notifications: notifications,
		activity:      activity,
		log:           log,
	}
}

func (s *answerService) Create(ctx context.Context, expertID, questionID uint, input AnswerInput, meta RequestMeta) (*model.Answer, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, apperror.BadRequest("Content is required")
	}

	question, err := s.questions.FindByID(ctx, questionID)
	if err != nil {
		return nil, notFound(err, "Question not found")
	}
	if question.Status == model.QuestionClosed {
		return nil, apperror.BadRequest("Question is closed")
	}

	if err := s.limiter.Acquire(ctx, expertID, ActionCreateAnswer); err != nil {
		return nil, err
	}

	answer := &model.Answer{QuestionID: questionID, ExpertID: expertID, Content: content}
	if err := s.answers.Create(ctx, answer); err != nil {
		if releaseErr := s.limiter.Release(ctx, expertID, ActionCreateAnswer); releaseErr != nil {
			s.log.Warn("failed to release rate limit", "user_id", expertID, "error", releaseErr)
		}
		return nil, err
	}

	if err := s.questions.MarkAnswered(ctx, questionID); err != nil {
		s.log.Warn("failed to mark question answered", "question_id", questionID, "error", err)
	}

	s.notifications.Notify(ctx, &model.Notification{
		UserID:           question.AskedBy,
		ActorID:          &expertID,
		Title:            "New answer",
		Message:          "An expert answered your question",
		NotificationType: model.NotificationNewAnswer,
		ReferenceID:      &questionID,
		ReferenceType:    "question",
		Priority:         PriorityHigh,
	})
	s.activity.Record(ctx, expertID, ActionCreate, "answer", answer.ID, meta, map[string]any{"question_id": questionID})

	return s.answers.FindByID(ctx, answer.ID)
}

func (s *answerService) Get(ctx context.Context, id uint) (*model.Answer, error) {
	answer, err := s.answers.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Answer not found")
	}
	return answer, nil
}

func (s *answerService) ListByQuestion(ctx context.Context, questionID uint) ([]model.Answer, error) {
	if _, err := s.questions.FindByID(ctx, questionID); err != nil {
		return nil, notFound(err, "Question not found")
	}
	return s.answers.ListByQuestion(ctx, questionID)
}

func (s *answerService) ListByExpert(ctx context.Context, expertID uint) ([]model.Answer, error) {
	return s.answers.ListByExpert(ctx, expertID)
}

func (s *answerService) ownAnswer(ctx context.Context, expertID, id uint, verb string) error {
	answer, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if answer.ExpertID != expertID {
		return apperror.Forbidden("You can only " + verb + " your own answers")
	}
	return nil
}

func (s *answerService) Update(ctx context.Context, expertID, id uint, input AnswerInput, meta RequestMeta) (*model.Answer, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, apperror.BadRequest("Content is required")
	}
	if err := s.ownAnswer(ctx, expertID, id, "update"); err != nil {
		return nil, err
	}
	if err := s.answers.Update(ctx, id, expertID, content); err != nil {
		return nil, notFound(err, "Answer not found")
	}
	s.activity.Record(ctx, expertID, ActionUpdate, "answer", id, meta, nil)
	return s.Get(ctx, id)
}

func (s *answerService) Delete(ctx context.Context, expertID, id uint, meta RequestMeta) error {
	if err := s.ownAnswer(ctx, expertID, id, "delete"); err != nil {
		return err
	}
	if err := s.answers.Delete(ctx, id, expertID); err != nil {
		return notFound(err, "Answer not found")
	}
	s.activity.Record(ctx, expertID, ActionDelete, "answer", id, meta, nil)
	return nil
}

func (s *answerService) MarkHelpful(ctx context.Context, id uint) (*model.Answer, error) {
	if err := s.answers.MarkHelpful(ctx, id); err != nil {
		return nil, notFound(err, "Answer not found")
	}
	return s.Get(ctx, id)
}

func (s *answerService) Rate(ctx context.Context, raterID, id uint, input RateInput) (*model.AnswerRating, error) {
	answer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if answer.ExpertID == raterID {
		return nil, apperror.BadRequest("You cannot rate your own answer")
	}

	alreadyRated, err := s.answers.HasRated(ctx, id, raterID)
	if err != nil {
		return nil, err
	}

	rating := &model.AnswerRating{
		AnswerID: id,
		RaterID:  raterID,
		Rating:   input.Rating,
		Review:   normalizeOptional(input.Review),
	}
	if err := s.answers.Rate(ctx, rating); err != nil {
		return nil, err
	}
	if alreadyRated {
		return rating, nil
	}

	s.notifications.Notify(ctx, &model.Notification{
		UserID:           answer.ExpertID,
		ActorID:          &raterID,
		Title:            "New rating",
		Message:          fmt.Sprintf("Your answer received a %d-star rating", input.Rating),
		NotificationType: model.NotificationNewRating,
		ReferenceID:      &id,
		ReferenceType:    "answer",
	})
	return rating, nil
}

func (s *answerService) Ratings(ctx context.Context, id uint) (*AnswerRatingSummary, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	ratings, err := s.answers.Ratings(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := s.answers.Statistics(ctx, id)
	if err != nil {
		return nil, err
	}
	return &AnswerRatingSummary{Ratings: ratings, Statistics: stats}, nil
}

func (s *answerService) Statistics(ctx context.Context, id uint) (*model.RatingStatistics, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.answers.Statistics(ctx, id)
}

func (s *answerService) TopRated(ctx context.Context, limit int) ([]model.Answer, error) {
	if limit <= 0 {
		limit = defaultTopRatedLimit
	}
	return s.answers.TopRated(ctx, limit)
}
