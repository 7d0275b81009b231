package repository

import (
	"context"

	"expertsolve.com/hub/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerRepository interface {
	Create(ctx context.Context, answer *model.Answer) error
	FindByID(ctx context.Context, id uint) (*model.Answer, error)
	ListByQuestion(ctx context.Context, questionID uint) ([]model.Answer, error)
	ListByExpert(ctx context.Context, expertID uint) ([]model.Answer, error)
	Update(ctx context.Context, id, expertID uint, content string) error
	Delete(ctx context.Context, id, expertID uint) error
	MarkHelpful(ctx context.Context, id uint) error

	Rate(ctx context.Context, rating *model.AnswerRating) error
	Ratings(ctx context.Context, answerID uint) ([]model.AnswerRating, error)
	Statistics(ctx context.Context, answerID uint) (*model.RatingStatistics, error)
	HasRated(ctx context.Context, answerID, raterID uint) (bool, error)
	TopRated(ctx context.Context, limit int) ([]model.Answer, error)
}

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&model.Answer{}).
		Select(`answers.*,
			users.full_name AS expert_name,
			users.username AS expert_username,
			COALESCE(CAST(AVG(answer_ratings.rating) AS FLOAT), 0) AS average_rating,
			COUNT(answer_ratings.id) AS rating_count`).
		Joins("JOIN users ON users.user_id = answers.expert_id").
		Joins("LEFT JOIN answer_ratings ON answer_ratings.answer_id = answers.answer_id").
		Group("answers.answer_id, users.user_id")
}

func (r *answerRepository) Create(ctx context.Context, answer *model.Answer) error {
	return translate(r.db.WithContext(ctx).Create(answer).Error)
}

func (r *answerRepository) FindByID(ctx context.Context, id uint) (*model.Answer, error) {
	var answer model.Answer
	if err := r.withDetails(ctx).Where("answers.answer_id = ?", id).Take(&answer).Error; err != nil {
		return nil, translate(err)
	}
	return &answer, nil
}

func (r *answerRepository) ListByQuestion(ctx context.Context, questionID uint) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.withDetails(ctx).
		Where("answers.question_id = ?", questionID).
		Order("answers.is_best_answer DESC, answers.created_at ASC, answers.answer_id ASC").
		Find(&answers).Error
	return answers, err
}

func (r *answerRepository) ListByExpert(ctx context.Context, expertID uint) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.withDetails(ctx).
		Where("answers.expert_id = ?", expertID).
		Order("answers.created_at DESC, answers.answer_id DESC").
		Find(&answers).Error
	return answers, err
}

func (r *answerRepository) Update(ctx context.Context, id, expertID uint, content string) error {
	return affected(r.db.WithContext(ctx).
		Model(&model.Answer{}).
		Where("answer_id = ? AND expert_id = ?", id, expertID).
		Update("content", content))
}

func (r *answerRepository) Delete(ctx context.Context, id, expertID uint) error {
	return affected(r.db.WithContext(ctx).
		Where("answer_id = ? AND expert_id = ?", id, expertID).
		Delete(&model.Answer{}))
}

func (r *answerRepository) MarkHelpful(ctx context.Context, id uint) error {
	return affected(r.db.WithContext(ctx).
		Model(&model.Answer{}).
		Where("answer_id = ?", id).
		UpdateColumn("helpful_count", gorm.Expr("helpful_count + 1")))
}

func (r *answerRepository) Rate(ctx context.Context, rating *model.AnswerRating) error {
	return translate(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "answer_id"}, {Name: "rater_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "review", "updated_at"}),
		}).
		Create(rating).Error)
}

func (r *answerRepository) Ratings(ctx context.Context, answerID uint) ([]model.AnswerRating, error) {
	var ratings []model.AnswerRating
	err := r.db.WithContext(ctx).
		Model(&model.AnswerRating{}).
		Select("answer_ratings.*, users.full_name AS rater_name, users.username AS rater_username").
		Joins("JOIN users ON users.user_id = answer_ratings.rater_id").
		Where("answer_ratings.answer_id = ?", answerID).
		Order("answer_ratings.updated_at DESC").
		Find(&ratings).Error
	return ratings, err
}

func (r *answerRepository) Statistics(ctx context.Context, answerID uint) (*model.RatingStatistics, error) {
	return ratingStatistics(r.db.WithContext(ctx), "answer_ratings", "answer_id", answerID)
}

func (r *answerRepository) HasRated(ctx context.Context, answerID, raterID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.AnswerRating{}).
		Where("answer_id = ? AND rater_id = ?", answerID, raterID).
		Count(&count).Error
	return count > 0, err
}

// TopRated lists answers with at least TopRatedMinimumRatings ratings,
// best average first.
func (r *answerRepository) TopRated(ctx context.Context, limit int) ([]model.Answer, error) {
	var answers []model.Answer
	err := Page{Limit: limit}.apply(r.withDetails(ctx)).
		Having("COUNT(answer_ratings.id) >= ?", model.TopRatedMinimumRatings).
		Order("average_rating DESC, rating_count DESC").
		Find(&answers).Error
	return answers, err
}
