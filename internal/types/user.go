package types

import (
	"time"
)

type User struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string    `gorm:"not null;size:100;column:name" json:"name"`
	BadgeBucketKey string    `gorm:"column:badge_bucket_key" json:"badge_bucket_key,omitempty"`
	BadgeURL       string    `gorm:"column:badge_url" json:"badge_url,omitempty"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
