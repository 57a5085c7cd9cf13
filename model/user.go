package model

import (
	"gorm.io/gorm"
)

// User is an authenticatable identity. PasswordHash never leaves the server.
type User struct {
	gorm.Model
	Username     string `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Email        string `gorm:"type:varchar(191);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"`
	RoleID       uint   `gorm:"index;not null" json:"role_id"`
	Role         Role   `json:"role"`
}

// UserResponse is the public view of a user returned by the API.
type UserResponse struct {
	ID       uint   `json:"id" example:"1"`
	Username string `json:"username" example:"bob"`
	Email    string `json:"email" example:"bob@example.com"`
	RoleID   uint   `json:"role_id" example:"2"`
	Role     string `json:"role" example:"User"`
}

// ToResponse strips credentials from the user.
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		RoleID:   u.RoleID,
		Role:     u.Role.Name,
	}
}
