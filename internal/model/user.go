package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Email          string    `gorm:"uniqueIndex;not null"`
	HashedPassword string    `gorm:"not null"`
	Name           string    `gorm:"not null"`
	Role           string    `gorm:"not null;default:'staff'"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

// Application-level user roles
const (
	UserRoleStaff    = "staff"
	UserRoleManager  = "manager"
	UserRoleHR       = "hr"
	UserRoleDirector = "director"
)
