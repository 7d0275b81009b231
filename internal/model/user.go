package model

import (
	"strings"
	"time"
)

const (
	RoleUser    = "user"
	RoleStudent = "student"
	RoleExpert  = "expert"
	RoleAdmin   = "admin"
)

// ValidRole reports whether r is a known user_type.
func ValidRole(r string) bool {
	switch r {
	case RoleUser, RoleStudent, RoleExpert, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID             uint       `gorm:"column:user_id;primaryKey" json:"user_id"`
	Email          string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash   string     `gorm:"size:255;not null" json:"-"`
	FullName       string     `gorm:"size:100;not null" json:"full_name"`
	Username       string     `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Bio            *string    `gorm:"type:text" json:"bio"`
	UserType       string     `gorm:"size:20;not null;index;check:chk_users_user_type,user_type IN ('user','student','expert','admin')" json:"user_type"`
	ProfilePicture *string    `gorm:"size:500" json:"profile_picture"`
	Location       *string    `gorm:"size:100" json:"location,omitempty"`
	Website        *string    `gorm:"size:255" json:"website,omitempty"`
	IsActive       bool       `gorm:"not null" json:"is_active"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Expertise []ExpertiseArea `gorm:"-" json:"expertise,omitempty"`
}

func (u *User) IsExpert() bool {
	return u.UserType == RoleExpert
}

// NormalizeEmail lowercases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserSummary is the public card shown in follower lists and rating rows.
type UserSummary struct {
	UserID         uint    `json:"user_id"`
	FullName       string  `json:"full_name"`
	Username       string  `json:"username"`
	ProfilePicture *string `json:"profile_picture"`
	UserType       string  `json:"user_type"`
}

// UserExpertise links an expert to a category they answer in.
type UserExpertise struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;uniqueIndex:idx_user_expertise_pair" json:"user_id"`
	CategoryID      uint      `gorm:"not null;uniqueIndex:idx_user_expertise_pair;index" json:"category_id"`
	SkillLevel      string    `gorm:"size:20;not null" json:"skill_level"`
	YearsExperience int       `gorm:"not null" json:"years_experience"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`

	User     *User     `gorm:"belongsTo;foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Category *Category `gorm:"belongsTo;foreignKey:CategoryID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (UserExpertise) TableName() string {
	return "user_expertise"
}

// ExpertiseArea is the category name/id pair attached to expert payloads.
type ExpertiseArea struct {
	CategoryID uint   `json:"category_id"`
	Name       string `json:"name"`
	Color      string `json:"color,omitempty"`
}

type UserFollow struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FollowerID  uint      `gorm:"not null;uniqueIndex:idx_user_follows_pair;check:chk_user_follows_not_self,follower_id <> following_id" json:"follower_id"`
	FollowingID uint      `gorm:"not null;uniqueIndex:idx_user_follows_pair;index" json:"following_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	Follower  *User `gorm:"belongsTo;foreignKey:FollowerID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Following *User `gorm:"belongsTo;foreignKey:FollowingID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

// UserSession is an audit row for an issued token. Authorization never
// reads it; tokens stay self-contained.
type UserSession struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	TokenID   string    `gorm:"size:64;uniqueIndex;not null" json:"token_id"`
	IPAddress string    `gorm:"size:64" json:"ip_address"`
	UserAgent string    `gorm:"size:512" json:"user_agent"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	User *User `gorm:"belongsTo;foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}
