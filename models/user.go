package models

import (
	"time"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleDonor     UserRole = "donor"
	RoleRecipient UserRole = "recipient"
	RoleAdmin     UserRole = "admin"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleDonor, RoleRecipient, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         UserRole  `json:"role" gorm:"not null"`
	Phone        string    `json:"phone"`
	Location     string    `json:"location"`
	CreatedAt    time.Time `json:"created_at"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" validate:"required,email"`
	Password string `json:"password" binding:"required" validate:"required"`
}

// Registration is the body of POST /auth/register. BloodType is only sent for donors.
type Registration struct {
	Name      string    `json:"name" binding:"required" validate:"required"`
	Email     string    `json:"email" binding:"required,email" validate:"required,email"`
	Password  string    `json:"password" binding:"required" validate:"required"`
	Phone     string    `json:"phone" binding:"required" validate:"required"`
	Role      UserRole  `json:"role" binding:"required" validate:"required,oneof=donor recipient"`
	Location  string    `json:"location" binding:"required" validate:"required"`
	BloodType BloodType `json:"blood_type,omitempty" validate:"omitempty,bloodtype"`
}

// AuthResponse is returned by both auth endpoints.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}
