package service

import (
	"context"
	"strings"

	"expertsolve.com/hub/internal/model"
	"expertsolve.com/hub/internal/repository"
	"expertsolve.com/hub/pkg/apperror"
	"expertsolve.com/hub/pkg/logger"
	"gorm.io/datatypes"
)

type CreateQuestionInput struct {
	Title        *string  `json:"title" binding:"omitempty,max=255"`
	Content      string   `json:"content" binding:"required,max=10000"`
	CategoryID   *uint    `json:"categoryId"`
	UrgencyLevel string   `json:"urgencyLevel" binding:"omitempty,oneof=low medium high urgent"`
	Tags         []string `json:"tags" binding:"omitempty,max=10,dive,max=30"`
}

type UpdateQuestionInput struct {
	Title        *string  `json:"title" binding:"omitempty,max=255"`
	Content      *string  `json:"content" binding:"omitempty,min=1,max=10000"`
	CategoryID   *uint    `json:"categoryId"`
	UrgencyLevel *string  `json:"urgencyLevel" binding:"omitempty,oneof=low medium high urgent"`
	Status       *string  `json:"status" binding:"omitempty,oneof=open answered closed"`
	Tags         []string `json:"tags" binding:"omitempty,max=10,dive,max=30"`
}

type QuestionDetail struct {
	Question *model.Question `json:"question"`
	Answers  []model.Answer  `json:"answers"`
}

type QuestionService interface {
	Create(ctx context.Context, userID uint, input CreateQuestionInput, meta RequestMeta) (*model.Question, error)
	List(ctx context.Context, categoryID *uint, status string, limit, offset int) ([]model.Question, error)
	Get(ctx context.Context, id uint) (*QuestionDetail, error)
	MyQuestions(ctx context.Context, userID uint) ([]model.Question, error)
	Search(ctx context.Context, term string) ([]model.Question, error)
	Update(ctx context.Context, userID, id uint, input UpdateQuestionInput, meta RequestMeta) (*model.Question, error)
	Delete(ctx context.Context, userID, id uint, meta RequestMeta) error
	Reindex(ctx context.Context) (int, error)
}

type questionService struct {
	questions  repository.QuestionRepository
	answers    repository.AnswerRepository
	categories repository.CategoryRepository
	limiter    *RateLimiter
	search     SearchService
	activity   ActivityService
	log        *logger.Logger
}

func NewQuestionService(
	questions repository.QuestionRepository,
	answers repository.AnswerRepository,
	categories repository.CategoryRepository,
	limiter *RateLimiter,
	search SearchService,
	activity ActivityService,
	log *logger.Logger,
) QuestionService {
	return &questionService{
		questions:  questions,
		answers:    answers,
		categories: categories,
		limiter:    limiter,
		search:     search,
		activity:   activity,
		log:        log,
	}
}

func (s *questionService) Create(ctx context.Context, userID uint, input CreateQuestionInput, meta RequestMeta) (*model.Question, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, apperror.BadRequest("Content is required")
	}
	if err := s.ensureCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx, userID, ActionCreateQuestion); err != nil {
		return nil, err
	}

	urgency := input.UrgencyLevel
	if urgency == "" {
		urgency = "medium"
	}
	question := &model.Question{
		AskedBy:      userID,
		CategoryID:   input.CategoryID,
		Title:        normalizeOptional(input.Title),
		Content:      content,
		UrgencyLevel: urgency,
		Status:       model.QuestionOpen,
		Tags:         datatypes.JSONSlice[string](cleanTags(input.Tags)),
	}
	if err := s.questions.Create(ctx, question); err != nil {
		if releaseErr := s.limiter.Release(ctx, userID, ActionCreateQuestion); releaseErr != nil {
			s.log.Warn("failed to release rate limit", "user_id", userID, "error", releaseErr)
		}
		return nil, err
	}

	created, err := s.questions.FindByID(ctx, question.ID)
	if err != nil {
		return nil, err
	}
	s.index(*created)
	s.activity.Record(ctx, userID, ActionCreate, "question", created.ID, meta, nil)
	return created, nil
}

func (s *questionService) List(ctx context.Context, categoryID *uint, status string, limit, offset int) ([]model.Question, error) {
	return s.questions.List(ctx, repository.QuestionFilter{
		CategoryID: categoryID,
		Status:     status,
		Page:       repository.Page{Limit: limit, Offset: offset},
	})
}

func (s *questionService) Get(ctx context.Context, id uint) (*QuestionDetail, error) {
	question, err := s.questions.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Question not found")
	}
	answers, err := s.answers.ListByQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	return &QuestionDetail{Question: question, Answers: answers}, nil
}

func (s *questionService) MyQuestions(ctx context.Context, userID uint) ([]model.Question, error) {
	return s.questions.ListByUser(ctx, userID)
}

// Search ranks with Meilisearch when available and falls back to SQL
// matching otherwise.
func (s *questionService) Search(ctx context.Context, term string) ([]model.Question, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperror.BadRequest("Search term is required")
	}
	if s.search.Enabled() {
		ids, err := s.search.SearchQuestions(term)
		if err == nil {
			return s.questions.FindByIDs(ctx, ids)
		}
		s.log.Warn("question search failed, using database fallback", "error", err)
	}
	return s.questions.Search(ctx, term)
}

// Non-owners get the same 404 as a missing question so the asker stays
// anonymous.
func (s *questionService) ownQuestion(ctx context.Context, userID, id uint, verb string) (*model.Question, error) {
	denied := apperror.NotFound("Question not found or you do not have permission to " + verb + " it")
	question, err := s.questions.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, denied.Message)
	}
	if question.AskedBy != userID {
		return nil, denied
	}
	return question, nil
}

func (s *questionService) Update(ctx context.Context, userID, id uint, input UpdateQuestionInput, meta RequestMeta) (*model.Question, error) {
	if _, err := s.ownQuestion(ctx, userID, id, "update"); err != nil {
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
	if input.CategoryID != nil {
		if err := s.ensureCategory(ctx, input.CategoryID); err != nil {
			return nil, err
		}
		fields["category_id"] = *input.CategoryID
	}
	if input.UrgencyLevel != nil {
		fields["urgency_level"] = *input.UrgencyLevel
	}
	if input.Status != nil {
		fields["status"] = *input.Status
	}
	if input.Tags != nil {
		fields["tags"] = datatypes.JSONSlice[string](cleanTags(input.Tags))
	}
	if len(fields) == 0 {
		return nil, apperror.BadRequest("No fields to update")
	}

	if err := s.questions.Update(ctx, id, userID, fields); err != nil {
		return nil, notFound(err, "Question not found or you do not have permission to update it")
	}

	updated, err := s.questions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.index(*updated)
	s.activity.Record(ctx, userID, ActionUpdate, "question", id, meta, nil)
	return updated, nil
}

func (s *questionService) Delete(ctx context.Context, userID, id uint, meta RequestMeta) error {
	if _, err := s.ownQuestion(ctx, userID, id, "delete"); err != nil {
		return err
	}
	if err := s.questions.Delete(ctx, id, userID); err != nil {
		return notFound(err, "Question not found or you do not have permission to delete it")
	}
	if err := s.search.DeleteQuestion(id); err != nil {
		s.log.Warn("failed to remove question from search index", "question_id", id, "error", err)
	}
	s.activity.Record(ctx, userID, ActionDelete, "question", id, meta, nil)
	return nil
}

// Reindex pushes every question to the search index.
func (s *questionService) Reindex(ctx context.Context) (int, error) {
	if !s.search.Enabled() {
		return 0, nil
	}
	questions, err := s.questions.All(ctx)
	if err != nil {
		return 0, err
	}
	return len(questions), s.search.IndexQuestions(questions...)
}

func (s *questionService) ensureCategory(ctx context.Context, categoryID *uint) error {
	if categoryID == nil {
		return nil
	}
	if _, err := s.categories.FindByID(ctx, *categoryID); err != nil {
		return notFound(err, "Category not found")
	}
	return nil
}

func (s *questionService) index(q model.Question) {
	if err := s.search.IndexQuestions(q); err != nil {
		s.log.Warn("failed to index question", "question_id", q.ID, "error", err)
	}
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
