package repository

import (
	"context"

	"expertsolve.com/hub/internal/model"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	List(ctx context.Context) ([]model.Category, error)
	TopLevel(ctx context.Context) ([]model.Category, error)
	Subcategories(ctx context.Context, parentID uint) ([]model.Category, error)
	FindByID(ctx context.Context, id uint) (*model.Category, error)
	FindByName(ctx context.Context, name string) (*model.Category, error)
	CountExisting(ctx context.Context, ids []uint) (int64, error)
	Search(ctx context.Context, term string) ([]model.Category, error)
	Create(ctx context.Context, category *model.Category) error
	Update(ctx context.Context, id uint, fields map[string]any) error
	Delete(ctx context.Context, id uint) error
	Experts(ctx context.Context, id uint) ([]model.User, error)
	Statistics(ctx context.Context, id uint) (*model.CategoryStatistics, error)
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

const categoryWithCounts = `categories.*,
	(SELECT COUNT(*) FROM challenges WHERE challenges.category_id = categories.category_id) AS challenge_count,
	(SELECT COUNT(*) FROM anonymous_questions WHERE anonymous_questions.category_id = categories.category_id) AS question_count,
	(SELECT COUNT(DISTINCT user_id) FROM user_expertise WHERE user_expertise.category_id = categories.category_id) AS expert_count`

func (r *categoryRepository) base(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Category{}).Select(categoryWithCounts)
}

func (r *categoryRepository) List(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := r.base(ctx).
		Where("categories.is_active = ?", true).
		Order("categories.sort_order, categories.name").
		Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) TopLevel(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := r.base(ctx).
		Where("categories.is_active = ? AND categories.parent_category_id IS NULL", true).
		Order("categories.sort_order, categories.name").
		Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) Subcategories(ctx context.Context, parentID uint) ([]model.Category, error) {
	var categories []model.Category
	err := r.base(ctx).
		Where("categories.is_active = ? AND categories.parent_category_id = ?", true, parentID).
		Order("categories.sort_order, categories.name").
		Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) FindByID(ctx context.Context, id uint) (*model.Category, error) {
	var category model.Category
	if err := r.base(ctx).Where("categories.category_id = ?", id).Take(&category).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (r *categoryRepository) FindByName(ctx context.Context, name string) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).Take(&category).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (r *categoryRepository) CountExisting(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Category{}).Where("category_id IN ?", ids).Count(&count).Error
	return count, err
}

func (r *categoryRepository) Search(ctx context.Context, term string) ([]model.Category, error) {
	pattern := likePattern(term)
	var categories []model.Category
	err := r.base(ctx).
		Where("categories.is_active = ?", true).
		Where(`(LOWER(categories.name) LIKE ? ESCAPE '\' OR LOWER(COALESCE(categories.description, '')) LIKE ? ESCAPE '\')`, pattern, pattern).
		Order("categories.sort_order, categories.name").
		Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	return translate(r.db.WithContext(ctx).Create(category).Error)
}

func (r *categoryRepository) Update(ctx context.Context, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		_, err := r.FindByID(ctx, id)
		return err
	}
	return affected(r.db.WithContext(ctx).Model(&model.Category{}).Where("category_id = ?", id).Updates(fields))
}

func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	return affected(r.db.WithContext(ctx).Delete(&model.Category{}, id))
}

func (r *categoryRepository) Experts(ctx context.Context, id uint) ([]model.User, error) {
	var experts []model.User
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Joins("JOIN user_expertise ON user_expertise.user_id = users.user_id").
		Where("user_expertise.category_id = ? AND users.user_type = ? AND users.is_active = ?", id, model.RoleExpert, true).
		Order("users.full_name").
		Find(&experts).Error
	return experts, err
}

func (r *categoryRepository) Statistics(ctx context.Context, id uint) (*model.CategoryStatistics, error) {
	stats := model.CategoryStatistics{CategoryID: id}
	err := r.db.WithContext(ctx).Raw(`SELECT
		(SELECT COUNT(*) FROM challenges WHERE category_id = ?) AS total_challenges,
		(SELECT COUNT(*) FROM anonymous_questions WHERE category_id = ?) AS total_questions,
		(SELECT COUNT(DISTINCT user_id) FROM user_expertise WHERE category_id = ?) AS total_experts,
		(SELECT COUNT(*) FROM solutions JOIN challenges ON challenges.challenge_id = solutions.challenge_id
			WHERE challenges.category_id = ?) AS total_solutions,
		(SELECT COUNT(*) FROM answers JOIN anonymous_questions ON anonymous_questions.question_id = answers.question_id
			WHERE anonymous_questions.category_id = ?) AS total_answers`,
		id, id, id, id, id).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	stats.CategoryID = id
	return &stats, nil
}
