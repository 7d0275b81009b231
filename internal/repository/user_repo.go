package repository

import (
	"context"
	"time"

	"expertsolve.com/hub/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User, expertiseCategoryIDs []uint) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindWithExpertise(ctx context.Context, id uint) (*model.User, error)
	ListExperts(ctx context.Context) ([]model.User, error)
	UpdateProfile(ctx context.Context, id uint, fields map[string]any) error
	UpdateProfilePicture(ctx context.Context, id uint, url *string) error
	UpdateRole(ctx context.Context, id uint, role string) error
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
	ReplaceExpertise(ctx context.Context, userID uint, categoryIDs []uint) error
	Expertise(ctx context.Context, userID uint) ([]model.ExpertiseArea, error)

	Follow(ctx context.Context, followerID, followingID uint) (bool, error)
	Unfollow(ctx context.Context, followerID, followingID uint) (bool, error)
	Followers(ctx context.Context, userID uint) ([]model.UserSummary, error)
	Following(ctx context.Context, userID uint) ([]model.UserSummary, error)

	RateExpert(ctx context.Context, rating *model.ExpertRating) error
	ExpertRatings(ctx context.Context, expertID uint) ([]model.ExpertRating, error)
	ExpertRatingStatistics(ctx context.Context, expertID uint) (*model.RatingStatistics, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User, expertiseCategoryIDs []uint) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if len(expertiseCategoryIDs) > 0 {
			return replaceExpertise(tx, user.ID, expertiseCategoryIDs)
		}
		return nil
	}))
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).
		Where("email = ?", model.NormalizeEmail(email)).
		First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) FindWithExpertise(ctx context.Context, id uint) (*model.User, error) {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Expertise, err = r.Expertise(ctx, id); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) ListExperts(ctx context.Context) ([]model.User, error) {
	var experts []model.User
	if err := r.db.WithContext(ctx).
		Where("user_type = ? AND is_active = ?", model.RoleExpert, true).
		Order("created_at DESC").
		Find(&experts).Error; err != nil {
		return nil, err
	}
	if len(experts) == 0 {
		return experts, nil
	}

	ids := make([]uint, len(experts))
	for i := range experts {
		ids[i] = experts[i].ID
	}

	var rows []struct {
		UserID uint
		model.ExpertiseArea
	}
	if err := r.db.WithContext(ctx).
		Table("user_expertise").
		Select("user_expertise.user_id, categories.category_id, categories.name, categories.color").
		Joins("JOIN categories ON categories.category_id = user_expertise.category_id").
		Where("user_expertise.user_id IN ?", ids).
		Order("categories.sort_order, categories.name").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	byUser := make(map[uint][]model.ExpertiseArea, len(experts))
	for _, row := range rows {
		byUser[row.UserID] = append(byUser[row.UserID], row.ExpertiseArea)
	}
	for i := range experts {
		experts[i].Expertise = byUser[experts[i].ID]
	}
	return experts, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return affected(r.db.WithContext(ctx).Model(&model.User{}).Where("user_id = ?", id).Updates(fields))
}

func (r *userRepository) UpdateProfilePicture(ctx context.Context, id uint, url *string) error {
	return affected(r.db.WithContext(ctx).Model(&model.User{}).Where("user_id = ?", id).Update("profile_picture", url))
}

func (r *userRepository) UpdateRole(ctx context.Context, id uint, role string) error {
	return affected(r.db.WithContext(ctx).Model(&model.User{}).Where("user_id = ?", id).Update("user_type", role))
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("user_id = ?", id).UpdateColumn("last_login", at).Error
}

// ReplaceExpertise swaps the user's whole expertise set atomically.
func (r *userRepository) ReplaceExpertise(ctx context.Context, userID uint, categoryIDs []uint) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return replaceExpertise(tx, userID, categoryIDs)
	}))
}

func replaceExpertise(tx *gorm.DB, userID uint, categoryIDs []uint) error {
	if err := tx.Where("user_id = ?", userID).Delete(&model.UserExpertise{}).Error; err != nil {
		return err
	}
	seen := make(map[uint]bool, len(categoryIDs))
	for _, categoryID := range categoryIDs {
		if seen[categoryID] {
			continue
		}
		seen[categoryID] = true
		row := model.UserExpertise{
			UserID:     userID,
			CategoryID: categoryID,
			SkillLevel: "intermediate",
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *userRepository) Expertise(ctx context.Context, userID uint) ([]model.ExpertiseArea, error) {
	var areas []model.ExpertiseArea
	err := r.db.WithContext(ctx).
		Table("user_expertise").
		Select("categories.category_id, categories.name, categories.color").
		Joins("JOIN categories ON categories.category_id = user_expertise.category_id").
		Where("user_expertise.user_id = ?", userID).
		Order("categories.sort_order, categories.name").
		Scan(&areas).Error
	return areas, err
}

func (r *userRepository) Follow(ctx context.Context, followerID, followingID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "follower_id"}, {Name: "following_id"}},
			DoNothing: true,
		}).
		Create(&model.UserFollow{FollowerID: followerID, FollowingID: followingID})
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *userRepository) Unfollow(ctx context.Context, followerID, followingID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&model.UserFollow{})
	return res.RowsAffected > 0, res.Error
}

func (r *userRepository) Followers(ctx context.Context, userID uint) ([]model.UserSummary, error) {
	return r.followList(ctx, "user_follows.follower_id", "user_follows.following_id", userID)
}

func (r *userRepository) Following(ctx context.Context, userID uint) ([]model.UserSummary, error) {
	return r.followList(ctx, "user_follows.following_id", "user_follows.follower_id", userID)
}

func (r *userRepository) followList(ctx context.Context, joinCol, whereCol string, userID uint) ([]model.UserSummary, error) {
	var users []model.UserSummary
	err := r.db.WithContext(ctx).
		Table("users").
		Select("users.user_id, users.full_name, users.username, users.profile_picture, users.user_type").
		Joins("JOIN user_follows ON users.user_id = "+joinCol).
		Where(whereCol+" = ?", userID).
		Order("user_follows.created_at DESC").
		Scan(&users).Error
	return users, err
}

func (r *userRepository) RateExpert(ctx context.Context, rating *model.ExpertRating) error {
	return translate(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "expert_id"}, {Name: "rater_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "review", "updated_at"}),
		}).
		Create(rating).Error)
}

func (r *userRepository) ExpertRatings(ctx context.Context, expertID uint) ([]model.ExpertRating, error) {
	var ratings []model.ExpertRating
	err := r.db.WithContext(ctx).
		Model(&model.ExpertRating{}).
		Select("expert_ratings.*, users.full_name AS rater_name, users.username AS rater_username").
		Joins("JOIN users ON users.user_id = expert_ratings.rater_id").
		Where("expert_ratings.expert_id = ?", expertID).
		Order("expert_ratings.updated_at DESC").
		Find(&ratings).Error
	return ratings, err
}

func (r *userRepository) ExpertRatingStatistics(ctx context.Context, expertID uint) (*model.RatingStatistics, error) {
	return ratingStatistics(r.db.WithContext(ctx), "expert_ratings", "expert_id", expertID)
}

// ratingStatistics aggregates one subject's rows in a *_ratings table.
func ratingStatistics(db *gorm.DB, table, subjectCol string, subjectID uint) (*model.RatingStatistics, error) {
	var stats model.RatingStatistics
	err := db.Table(table).
		Select(`COUNT(*) AS total_ratings,
			COALESCE(CAST(AVG(rating) AS FLOAT), 0) AS average_rating,
			COALESCE(SUM(CASE WHEN rating >= ? THEN 1 ELSE 0 END), 0) AS positive_ratings,
			COALESCE(SUM(CASE WHEN rating <= ? THEN 1 ELSE 0 END), 0) AS negative_ratings`,
			model.PositiveRatingThreshold, model.NegativeRatingThreshold).
		Where(subjectCol+" = ?", subjectID).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
