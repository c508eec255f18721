package model

import (
	"time"
)

// swagger:model User
type User struct {
	UUIDBase
	Email         string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name          string     `gorm:"size:100" json:"name"`
	EmailVerified bool       `gorm:"default:false" json:"emailVerified"`
	LastLogin     *time.Time `json:"lastLogin,omitempty"`
}

func (User) TableName() string {
	return "users"
}
