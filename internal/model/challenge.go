package model

import "time"

const (
	ChallengeDraft     = "draft"
	ChallengeActive    = "active"
	ChallengeCompleted = "completed"
	ChallengeCancelled = "cancelled"
)

type Challenge struct {
	ID              uint       `gorm:"column:challenge_id;primaryKey" json:"challenge_id"`
	ExpertID        uint       `gorm:"not null;index" json:"expert_id"`
	CategoryID      *uint      `gorm:"index" json:"category_id"`
	Title           string     `gorm:"size:255;not null" json:"title"`
	Description     string     `gorm:"type:text;not null" json:"description"`
	DifficultyLevel string     `gorm:"size:20;not null;check:chk_challenges_difficulty,difficulty_level IN ('beginner','intermediate','advanced')" json:"difficulty_level"`
	EstimatedTime   *int       `json:"estimated_time"`
	MaxParticipants *int       `json:"max_participants"`
	Deadline        *time.Time `json:"deadline"`
	Prize           *string    `gorm:"size:255" json:"prize"`
	Status          string     `gorm:"size:20;not null;index;check:chk_challenges_status,status IN ('draft','active','completed','cancelled')" json:"status"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Expert   *User     `gorm:"belongsTo;foreignKey:ExpertID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Category *Category `gorm:"belongsTo;foreignKey:CategoryID;references:ID;constraint:OnDelete:SET NULL" json:"-"`

	CreatorName      string  `gorm:"->;-:migration" json:"creator_name,omitempty"`
	CreatorUsername  string  `gorm:"->;-:migration" json:"creator_username,omitempty"`
	CategoryName     *string `gorm:"->;-:migration" json:"category_name"`
	CategoryColor    *string `gorm:"->;-:migration" json:"category_color"`
	ParticipantCount int64   `gorm:"->;-:migration" json:"participant_count"`
	SolutionCount    int64   `gorm:"->;-:migration" json:"solution_count"`
}

// IsOpen reports whether new participants and solutions are accepted.
func (c *Challenge) IsOpen(now time.Time) bool {
	if c.Status != ChallengeActive {
		return false
	}
	return c.Deadline == nil || now.Before(*c.Deadline)
}

type ChallengeParticipant struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ChallengeID uint      `gorm:"not null;uniqueIndex:idx_challenge_participant_pair" json:"challenge_id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_challenge_participant_pair;index" json:"user_id"`
	Status      string    `gorm:"size:20;not null" json:"status"`
	JoinedAt    time.Time `gorm:"autoCreateTime" json:"joined_at"`

	Challenge *Challenge `gorm:"belongsTo;foreignKey:ChallengeID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	User      *User      `gorm:"belongsTo;foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

// Participant is a joined row for the participant list endpoint.
type Participant struct {
	UserSummary
	Status   string    `json:"status"`
	JoinedAt time.Time `json:"joined_at"`
}

type Solution struct {
	ID          uint      `gorm:"column:solution_id;primaryKey" json:"solution_id"`
	ChallengeID uint      `gorm:"not null;index" json:"challenge_id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Title       *string   `gorm:"size:255" json:"title"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	CodeSnippet *string   `gorm:"type:text" json:"code_snippet"`
	Language    *string   `gorm:"size:50;index" json:"language"`
	GithubLink  *string   `gorm:"size:500" json:"github_link"`
	DemoLink    *string   `gorm:"size:500" json:"demo_link"`
	Status      string    `gorm:"size:20;not null" json:"status"`
	IsWinner    bool      `gorm:"not null" json:"is_winner"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Challenge *Challenge `gorm:"belongsTo;foreignKey:ChallengeID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	User      *User      `gorm:"belongsTo;foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	CreatorName     string  `gorm:"->;-:migration" json:"creator_name,omitempty"`
	CreatorUsername string  `gorm:"->;-:migration" json:"creator_username,omitempty"`
	ChallengeTitle  string  `gorm:"->;-:migration" json:"challenge_title,omitempty"`
	AverageRating   float64 `gorm:"->;-:migration" json:"average_rating"`
	RatingCount     int64   `gorm:"->;-:migration" json:"rating_count"`
}

const SolutionSubmitted = "submitted"
