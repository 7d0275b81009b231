package model

import "time"

const (
	NotificationNewAnswer     = "new_answer"
	NotificationNewSolution   = "new_solution"
	NotificationChallengeJoin = "challenge_join"
	NotificationNewFollower   = "new_follower"
	NotificationNewRating     = "new_rating"
)

type Notification struct {
	ID               uint      `gorm:"column:notification_id;primaryKey" json:"notification_id"`
	UserID           uint      `gorm:"not null;index" json:"user_id"` // recipient
	ActorID          *uint     `gorm:"index" json:"actor_id"`
	Title            string    `gorm:"size:255;not null" json:"title"`
	Message          string    `gorm:"type:text;not null" json:"message"`
	NotificationType string    `gorm:"size:50;not null" json:"notification_type"`
	ReferenceID      *uint     `json:"reference_id"`
	ReferenceType    string    `gorm:"size:50" json:"reference_type"`
	IsRead           bool      `gorm:"not null;index" json:"is_read"`
	Priority         string    `gorm:"size:10;not null" json:"priority"`
	CreatedAt        time.Time `gorm:"autoCreateTime;index" json:"created_at"`

	User  *User `gorm:"belongsTo;foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Actor *User `gorm:"belongsTo;foreignKey:ActorID;references:ID;constraint:OnDelete:SET NULL" json:"-"`
}
