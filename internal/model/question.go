package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	QuestionOpen     = "open"
	QuestionAnswered = "answered"
	QuestionClosed   = "closed"
)

// Question is an anonymous question. AskedBy is kept for ownership checks
// and is never serialized.
type Question struct {
	ID           uint                        `gorm:"column:question_id;primaryKey" json:"question_id"`
	AskedBy      uint                        `gorm:"not null;index" json:"-"`
	CategoryID   *uint                       `gorm:"index" json:"category_id"`
	Title        *string                     `gorm:"size:255" json:"title"`
	Content      string                      `gorm:"type:text;not null" json:"content"`
	UrgencyLevel string                      `gorm:"size:20;not null;check:chk_questions_urgency,urgency_level IN ('low','medium','high','urgent')" json:"urgency_level"`
	Status       string                      `gorm:"size:20;not null;index;check:chk_questions_status,status IN ('open','answered','closed')" json:"status"`
	Tags         datatypes.JSONSlice[string] `json:"tags"`
	CreatedAt    time.Time                   `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`

	Asker    *User     `gorm:"belongsTo;foreignKey:AskedBy;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Category *Category `gorm:"belongsTo;foreignKey:CategoryID;references:ID;constraint:OnDelete:SET NULL" json:"-"`

	AnswerCount   int64   `gorm:"->;-:migration" json:"answer_count"`
	CategoryName  *string `gorm:"->;-:migration" json:"category_name"`
	CategoryColor *string `gorm:"->;-:migration" json:"category_color"`
}

func (Question) TableName() string {
	return "anonymous_questions"
}

type Answer struct {
	ID           uint      `gorm:"column:answer_id;primaryKey" json:"answer_id"`
	QuestionID   uint      `gorm:"not null;index" json:"question_id"`
	ExpertID     uint      `gorm:"not null;index" json:"expert_id"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	IsBestAnswer bool      `gorm:"not null" json:"is_best_answer"`
	HelpfulCount int       `gorm:"not null" json:"helpful_count"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Question *Question `gorm:"belongsTo;foreignKey:QuestionID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Expert   *User     `gorm:"belongsTo;foreignKey:ExpertID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	ExpertName     string  `gorm:"->;-:migration" json:"expert_name,omitempty"`
	ExpertUsername string  `gorm:"->;-:migration" json:"expert_username,omitempty"`
	AverageRating  float64 `gorm:"->;-:migration" json:"average_rating"`
	RatingCount    int64   `gorm:"->;-:migration" json:"rating_count"`
}
