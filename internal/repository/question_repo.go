package repository

import (
	"context"

	"expertsolve.com/hub/internal/model"
	"gorm.io/gorm"
)

type QuestionFilter struct {
	CategoryID *uint
	Status     string
	Page       Page
}

type QuestionRepository interface {
	Create(ctx context.Context, question *model.Question) error
	List(ctx context.Context, filter QuestionFilter) ([]model.Question, error)
	FindByID(ctx context.Context, id uint) (*model.Question, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.Question, error)
	ListByUser(ctx context.Context, userID uint) ([]model.Question, error)
	Search(ctx context.Context, term string) ([]model.Question, error)
	Update(ctx context.Context, id, askedBy uint, fields map[string]any) error
	Delete(ctx context.Context, id, askedBy uint) error
	MarkAnswered(ctx context.Context, id uint) error
	All(ctx context.Context) ([]model.Question, error)
}

type questionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&model.Question{}).
		Select(`anonymous_questions.*,
			categories.name AS category_name,
			categories.color AS category_color,
			(SELECT COUNT(*) FROM answers WHERE answers.question_id = anonymous_questions.question_id) AS answer_count`).
		Joins("LEFT JOIN categories ON categories.category_id = anonymous_questions.category_id")
}

func (r *questionRepository) Create(ctx context.Context, question *model.Question) error {
	return translate(r.db.WithContext(ctx).Create(question).Error)
}

func (r *questionRepository) List(ctx context.Context, filter QuestionFilter) ([]model.Question, error) {
	q := r.withDetails(ctx)
	if filter.CategoryID != nil {
		q = q.Where("anonymous_questions.category_id = ?", *filter.CategoryID)
	}
	if filter.Status != "" {
		q = q.Where("anonymous_questions.status = ?", filter.Status)
	}
	var questions []model.Question
	err := filter.Page.apply(q).
		Order("anonymous_questions.created_at DESC, anonymous_questions.question_id DESC").
		Find(&questions).Error
	return questions, err
}

func (r *questionRepository) FindByID(ctx context.Context, id uint) (*model.Question, error) {
	var question model.Question
	if err := r.withDetails(ctx).Where("anonymous_questions.question_id = ?", id).Take(&question).Error; err != nil {
		return nil, translate(err)
	}
	return &question, nil
}

// FindByIDs returns the rows in the order of ids; missing ids are skipped.
func (r *questionRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Question, error) {
	if len(ids) == 0 {
		return []model.Question{}, nil
	}
	var questions []model.Question
	if err := r.withDetails(ctx).Where("anonymous_questions.question_id IN ?", ids).Find(&questions).Error; err != nil {
		return nil, err
	}
	return orderByIDs(questions, ids, func(q model.Question) uint { return q.ID }), nil
}

func (r *questionRepository) ListByUser(ctx context.Context, userID uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.withDetails(ctx).
		Where("anonymous_questions.asked_by = ?", userID).
		Order("anonymous_questions.created_at DESC, anonymous_questions.question_id DESC").
		Find(&questions).Error
	return questions, err
}

func (r *questionRepository) Search(ctx context.Context, term string) ([]model.Question, error) {
	pattern := likePattern(term)
	var questions []model.Question
	err := r.withDetails(ctx).
		Where(`(LOWER(COALESCE(anonymous_questions.title, '')) LIKE ? ESCAPE '\' OR LOWER(anonymous_questions.content) LIKE ? ESCAPE '\')`, pattern, pattern).
		Order("anonymous_questions.created_at DESC").
		Limit(maxPageSize).
		Find(&questions).Error
	return questions, err
}

func (r *questionRepository) Update(ctx context.Context, id, askedBy uint, fields map[string]any) error {
	return affected(r.db.WithContext(ctx).
		Model(&model.Question{}).
		Where("question_id = ? AND asked_by = ?", id, askedBy).
		Updates(fields))
}

func (r *questionRepository) Delete(ctx context.Context, id, askedBy uint) error {
	return affected(r.db.WithContext(ctx).
		Where("question_id = ? AND asked_by = ?", id, askedBy).
		Delete(&model.Question{}))
}

// MarkAnswered moves an open question to answered; other states are kept.
func (r *questionRepository) MarkAnswered(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&model.Question{}).
		Where("question_id = ? AND status = ?", id, model.QuestionOpen).
		Update("status", model.QuestionAnswered).Error
}

// All is used by the search reindex job.
func (r *questionRepository) All(ctx context.Context) ([]model.Question, error) {
	var questions []model.Question
	err := r.withDetails(ctx).Order("anonymous_questions.question_id").Find(&questions).Error
	return questions, err
}
