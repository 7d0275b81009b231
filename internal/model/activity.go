package model

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog is an audit row for a mutation or sign-in.
type ActivityLog struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       *uint          `gorm:"index" json:"user_id"`
	Action       string         `gorm:"size:50;not null" json:"action"`
	ResourceType string         `gorm:"size:50" json:"resource_type"`
	ResourceID   *uint          `json:"resource_id"`
	Details      datatypes.JSON `json:"details,omitempty"`
	IPAddress    string         `gorm:"size:64" json:"ip_address"`
	UserAgent    string         `gorm:"size:512" json:"user_agent"`
	CreatedAt    time.Time      `gorm:"autoCreateTime;index" json:"created_at"`

	User *User `gorm:"belongsTo;foreignKey:UserID;references:ID;constraint:OnDelete:SET NULL" json:"-"`
}
