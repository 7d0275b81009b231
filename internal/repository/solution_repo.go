package repository

import (
	"context"

	"expertsolve.com/hub/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SolutionRepository interface {
	Create(ctx context.Context, solution *model.Solution) error
	FindByID(ctx context.Context, id uint) (*model.Solution, error)
	ListByChallenge(ctx context.Context, challengeID uint) ([]model.Solution, error)
	ListByCreator(ctx context.Context, userID uint) ([]model.Solution, error)
	ListByLanguage(ctx context.Context, language string) ([]model.Solution, error)
	Update(ctx context.Context, id, userID uint, fields map[string]any) error
	Delete(ctx context.Context, id, userID uint) error

	Rate(ctx context.Context, rating *model.SolutionRating) error
	Ratings(ctx context.Context, solutionID uint) ([]model.SolutionRating, error)
	Statistics(ctx context.Context, solutionID uint) (*model.RatingStatistics, error)
	HasRated(ctx context.Context, solutionID, raterID uint) (bool, error)
	TopRated(ctx context.Context, limit int) ([]model.Solution, error)
}

type solutionRepository struct {
	db *gorm.DB
}

func NewSolutionRepository(db *gorm.DB) SolutionRepository {
	return &solutionRepository{db: db}
}

func (r *solutionRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&model.Solution{}).
		Select(`solutions.*,
			users.full_name AS creator_name,
			users.username AS creator_username,
			challenges.title AS challenge_title,
			COALESCE(CAST(AVG(solution_ratings.rating) AS FLOAT), 0) AS average_rating,
			COUNT(solution_ratings.id) AS rating_count`).
		Joins("JOIN users ON users.user_id = solutions.user_id").
		Joins("JOIN challenges ON challenges.challenge_id = solutions.challenge_id").
		Joins("LEFT JOIN solution_ratings ON solution_ratings.solution_id = solutions.solution_id").
		Group("solutions.solution_id, users.user_id, challenges.challenge_id")
}

func (r *solutionRepository) Create(ctx context.Context, solution *model.Solution) error {
	return translate(r.db.WithContext(ctx).Create(solution).Error)
}

func (r *solutionRepository) FindByID(ctx context.Context, id uint) (*model.Solution, error) {
	var solution model.Solution
	if err := r.withDetails(ctx).Where("solutions.solution_id = ?", id).Take(&solution).Error; err != nil {
		return nil, translate(err)
	}
	return &solution, nil
}

func (r *solutionRepository) ListByChallenge(ctx context.Context, challengeID uint) ([]model.Solution, error) {
	var solutions []model.Solution
	err := r.withDetails(ctx).
		Where("solutions.challenge_id = ?", challengeID).
		Order("solutions.is_winner DESC, solutions.created_at ASC, solutions.solution_id ASC").
		Find(&solutions).Error
	return solutions, err
}

func (r *solutionRepository) ListByCreator(ctx context.Context, userID uint) ([]model.Solution, error) {
	var solutions []model.Solution
	err := r.withDetails(ctx).
		Where("solutions.user_id = ?", userID).
		Order("solutions.created_at DESC, solutions.solution_id DESC").
		Find(&solutions).Error
	return solutions, err
}

func (r *solutionRepository) ListByLanguage(ctx context.Context, language string) ([]model.Solution, error) {
	var solutions []model.Solution
	err := r.withDetails(ctx).
		Where("LOWER(solutions.language) = LOWER(?)", language).
		Order("solutions.created_at DESC, solutions.solution_id DESC").
		Limit(maxPageSize).
		Find(&solutions).Error
	return solutions, err
}

func (r *solutionRepository) Update(ctx context.Context, id, userID uint, fields map[string]any) error {
	return affected(r.db.WithContext(ctx).
		Model(&model.Solution{}).
		Where("solution_id = ? AND user_id = ?", id, userID).
		Updates(fields))
}

func (r *solutionRepository) Delete(ctx context.Context, id, userID uint) error {
	return affected(r.db.WithContext(ctx).
		Where("solution_id = ? AND user_id = ?", id, userID).
		Delete(&model.Solution{}))
}

func (r *solutionRepository) Rate(ctx context.Context, rating *model.SolutionRating) error {
	return translate(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "solution_id"}, {Name: "rater_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "review", "updated_at"}),
		}).
		Create(rating).Error)
}

func (r *solutionRepository) Ratings(ctx context.Context, solutionID uint) ([]model.SolutionRating, error) {
	var ratings []model.SolutionRating
	err := r.db.WithContext(ctx).
		Model(&model.SolutionRating{}).
		Select("solution_ratings.*, users.full_name AS rater_name, users.username AS rater_username").
		Joins("JOIN users ON users.user_id = solution_ratings.rater_id").
		Where("solution_ratings.solution_id = ?", solutionID).
		Order("solution_ratings.updated_at DESC").
		Find(&ratings).Error
	return ratings, err
}

func (r *solutionRepository) Statistics(ctx context.Context, solutionID uint) (*model.RatingStatistics, error) {
	return ratingStatistics(r.db.WithContext(ctx), "solution_ratings", "solution_id", solutionID)
}

func (r *solutionRepository) HasRated(ctx context.Context, solutionID, raterID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.SolutionRating{}).
		Where("solution_id = ? AND rater_id = ?", solutionID, raterID).
		Count(&count).Error
	return count > 0, err
}

func (r *solutionRepository) TopRated(ctx context.Context, limit int) ([]model.Solution, error) {
	var solutions []model.Solution
	err := Page{Limit: limit}.apply(r.withDetails(ctx)).
		Having("COUNT(solution_ratings.id) >= ?", model.TopRatedMinimumRatings).
		Order("average_rating DESC, rating_count DESC").
		Find(&solutions).Error
	return solutions, err
}
