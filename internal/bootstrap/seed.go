package bootstrap

import (
	"errors"

	"expertsolve.com/hub/internal/model"
	"expertsolve.com/hub/pkg/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type categorySeed struct {
	Name        string
	Description string
	Icon        string
	Color       string
}

var defaultCategories = []categorySeed{
	{"Technology", "Programming, Software Development, IT", "laptop", "#007AFF"},
	{"Business", "Entrepreneurship, Management, Finance", "briefcase", "#FF9500"},
	{"Design", "UI/UX, Graphic Design, Web Design", "paintbrush", "#FF3B30"},
	{"Marketing", "Digital Marketing, SEO, Social Media", "megaphone", "#34C759"},
	{"Education", "Teaching, Research, Academic", "book", "#5856D6"},
	{"Health", "Medicine, Fitness, Wellness", "heart", "#FF2D92"},
	{"Science", "Research, Data Science, Analytics", "flask", "#00C7BE"},
	{"Arts", "Creative Writing, Music, Photography", "camera", "#FF9F0A"},
	{"Engineering", "Mechanical, Civil, Electrical", "gear", "#8E8E93"},
	{"General", "Miscellaneous topics", "question", "#6D6D70"},
}

var defaultSubcategories = map[string][]categorySeed{
	"Technology": {
		{"Web Development", "Frontend, backend and full-stack web", "globe", "#007AFF"},
		{"Mobile Development", "iOS, Android and cross-platform apps", "phone", "#007AFF"},
		{"Data Science", "Machine learning, statistics and data engineering", "chart", "#007AFF"},
	},
	"Business": {
		{"Finance", "Accounting, investing and budgeting", "cash", "#FF9500"},
	},
	"Design": {
		{"UI/UX", "Interface and experience design", "layers", "#FF3B30"},
	},
}

func seedCategories(tx *gorm.DB) error {
	for i, c := range defaultCategories {
		if err := createCategoryIfMissing(tx, c, nil, i+1); err != nil {
			return err
		}
	}
	return nil
}

func seedSubcategories(tx *gorm.DB) error {
	for parentName, children := range defaultSubcategories {
		var parent model.Category
		if err := tx.Where("name = ?", parentName).First(&parent).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return err
		}
		for i, c := range children {
			if err := createCategoryIfMissing(tx, c, &parent.ID, i+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func createCategoryIfMissing(tx *gorm.DB, c categorySeed, parentID *uint, order int) error {
	var count int64
	if err := tx.Model(&model.Category{}).Where("name = ?", c.Name).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	desc, icon := c.Description, c.Icon
	return tx.Create(&model.Category{
		Name:             c.Name,
		Description:      &desc,
		Icon:             &icon,
		Color:            c.Color,
		ParentCategoryID: parentID,
		IsActive:         true,
		SortOrder:        order,
	}).Error
}

// SeedAdminUser creates an admin account when none exists for email.
func SeedAdminUser(db *gorm.DB, log *logger.Logger, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	email = model.NormalizeEmail(email)

	var count int64
	if err := db.Model(&model.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Debug("admin user already exists, skipping seed")
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := model.User{
		Email:        email,
		PasswordHash: string(hashed),
		FullName:     "Administrator",
		Username:     "admin",
		UserType:     model.RoleAdmin,
		IsActive:     true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Info("admin user seeded", "user_id", admin.ID)
	return nil
}
