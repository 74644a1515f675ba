package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleMember = "member"
	// Guests are admitted without a password check. Admission is gated on
	// the role, never on a missing password hash.
	RoleGuest = "guest"
)

type Member struct {
	gorm.Model
	ProjectID uint   `gorm:"uniqueIndex:idx_members_project_email" json:"project_id"`
	Email     string `gorm:"uniqueIndex:idx_members_project_email;not null" json:"email"`
	FullName  string `json:"full_name"`
	// Nil for guest accounts.
	PasswordHash *string `json:"-"`
	Role         string  `gorm:"default:member" json:"role"`
	// No default tag: with one, GORM omits the zero value on insert and a
	// member created inactive would persist as active.
	IsActive        bool       `json:"is_active"`
	ProfilePhotoURL string     `json:"profile_photo_url"`
	LastLogin       *time.Time `json:"last_login"`
}

// ModuleAccess is the grant table deciding which members may view which
// modules. Presence of a row is the sole authorization signal; the unique
// index keeps repeated grants from piling up duplicates. No DeletedAt:
// a revoke must free the unique slot so a later re-grant can insert.
type ModuleAccess struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	MemberID  uint      `gorm:"uniqueIndex:idx_access_member_module" json:"member_id"`
	ModuleID  uint      `gorm:"uniqueIndex:idx_access_member_module" json:"module_id"`
}

// LessonProgress rows are deleted outright when a lesson is unchecked,
// for the same reason ModuleAccess has no DeletedAt.
type LessonProgress struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	MemberID    uint       `gorm:"uniqueIndex:idx_progress_member_lesson" json:"member_id"`
	LessonID    uint       `gorm:"uniqueIndex:idx_progress_member_lesson" json:"lesson_id"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
}
