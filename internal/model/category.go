package model

import "time"

type Category struct {
	ID               uint      `gorm:"column:category_id;primaryKey" json:"category_id"`
	Name             string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description      *string   `gorm:"type:text" json:"description"`
	Icon             *string   `gorm:"size:50" json:"icon"`
	Color            string    `gorm:"size:7;not null" json:"color"`
	ParentCategoryID *uint     `gorm:"index" json:"parent_category_id"`
	IsActive         bool      `gorm:"not null" json:"is_active"`
	SortOrder        int       `gorm:"not null" json:"sort_order"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Parent *Category `gorm:"belongsTo;foreignKey:ParentCategoryID;references:ID;constraint:OnDelete:SET NULL" json:"-"`

	ChallengeCount int64 `gorm:"->;-:migration" json:"challenge_count"`
	QuestionCount  int64 `gorm:"->;-:migration" json:"question_count"`
	ExpertCount    int64 `gorm:"->;-:migration" json:"expert_count"`
}

const DefaultCategoryColor = "#007AFF"

// CategoryStatistics totals activity within one category.
type CategoryStatistics struct {
	CategoryID      uint  `json:"category_id"`
	TotalChallenges int64 `json:"total_challenges"`
	TotalQuestions  int64 `json:"total_questions"`
	TotalExperts    int64 `json:"total_experts"`
	TotalSolutions  int64 `json:"total_solutions"`
	TotalAnswers    int64 `json:"total_answers"`
}
