package models

import "gorm.io/gorm"

// User is a project owner account. Members live in their own table and
// never get a platform identity.
type User struct {
	gorm.Model
	Email        string `gorm:"unique;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	FullName     string `json:"full_name"`
}
