package models

import (
	"time"
)

// User represents a marketplace account. Rows are created on first login and
// never deleted.
type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// UserRole selects which side of the marketplace a job listing is for.
type UserRole string

const (
	RoleHomeowner  UserRole = "homeowner"
	RoleContractor UserRole = "contractor"
)
