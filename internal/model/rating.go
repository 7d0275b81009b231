package model

import "time"

// Ratings live in one table per subject so the foreign key graph stays
// acyclic. Each (subject, rater) pair holds at most one row.
//
// Association fields across the package are tagged belongsTo: child
// columns such as user_id and answer_id share their names with the parent
// primary keys, which gorm would otherwise resolve as has-one.

type AnswerRating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AnswerID  uint      `gorm:"not null;uniqueIndex:idx_answer_ratings_pair" json:"answer_id"`
	RaterID   uint      `gorm:"not null;uniqueIndex:idx_answer_ratings_pair;index" json:"rater_id"`
	Rating    int       `gorm:"not null;check:chk_answer_ratings_range,rating BETWEEN 1 AND 5" json:"rating"`
	Review    *string   `gorm:"type:text" json:"review"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Answer *Answer `gorm:"belongsTo;foreignKey:AnswerID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Rater  *User   `gorm:"belongsTo;foreignKey:RaterID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	RaterName     string `gorm:"->;-:migration" json:"rater_name,omitempty"`
	RaterUsername string `gorm:"->;-:migration" json:"rater_username,omitempty"`
}

type SolutionRating struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SolutionID uint      `gorm:"not null;uniqueIndex:idx_solution_ratings_pair" json:"solution_id"`
	RaterID    uint      `gorm:"not null;uniqueIndex:idx_solution_ratings_pair;index" json:"rater_id"`
	Rating     int       `gorm:"not null;check:chk_solution_ratings_range,rating BETWEEN 1 AND 5" json:"rating"`
	Review     *string   `gorm:"type:text" json:"review"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Solution *Solution `gorm:"belongsTo;foreignKey:SolutionID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Rater    *User     `gorm:"belongsTo;foreignKey:RaterID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	RaterName     string `gorm:"->;-:migration" json:"rater_name,omitempty"`
	RaterUsername string `gorm:"->;-:migration" json:"rater_username,omitempty"`
}

type ExpertRating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ExpertID  uint      `gorm:"not null;uniqueIndex:idx_expert_ratings_pair;check:chk_expert_ratings_not_self,expert_id <> rater_id" json:"expert_id"`
	RaterID   uint      `gorm:"not null;uniqueIndex:idx_expert_ratings_pair;index" json:"rater_id"`
	Rating    int       `gorm:"not null;check:chk_expert_ratings_range,rating BETWEEN 1 AND 5" json:"rating"`
	Review    *string   `gorm:"type:text" json:"review"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Expert *User `gorm:"belongsTo;foreignKey:ExpertID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Rater  *User `gorm:"belongsTo;foreignKey:RaterID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	RaterName     string `gorm:"->;-:migration" json:"rater_name,omitempty"`
	RaterUsername string `gorm:"->;-:migration" json:"rater_username,omitempty"`
}

// RatingStatistics summarizes the ratings of one subject.
type RatingStatistics struct {
	TotalRatings    int64   `json:"total_ratings"`
	AverageRating   float64 `json:"average_rating"`
	PositiveRatings int64   `json:"positive_ratings"`
	NegativeRatings int64   `json:"negative_ratings"`
}

const (
	PositiveRatingThreshold = 4
	NegativeRatingThreshold = 2
	TopRatedMinimumRatings  = 3
)
