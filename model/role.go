package model

import (
	"fmt"

	"gorm.io/gorm"
)

// Built-in role names. Route allow-lists compare against these exactly.
const (
	RoleAdmin       = "Admin"
	RoleUser        = "User"
	RoleSalesperson = "Sprzedawca"
)

type Role struct {
	gorm.Model
	Name        string  `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description *string `gorm:"type:varchar(255)" json:"description,omitempty"`
	Users       []User  `json:"-"`
}

// RoleWithUserCount is the admin listing row for roles.
type RoleWithUserCount struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	UsersCount  int64   `json:"users_count"`
}

func SeedRoles(db *gorm.DB) error {
	roles := []Role{
		{Name: RoleAdmin, Description: strPtr("Pełny dostęp do systemu")},
		{Name: RoleUser, Description: strPtr("Standardowy użytkownik")},
		{Name: RoleSalesperson, Description: strPtr("Zarządzanie klientami i fakturami")},
	}

	for _, role := range roles {
		var existingRole Role
		// Check if the role already exists.
		err := db.Where("name = ?", role.Name).First(&existingRole).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.Create(&role).Error; err != nil {
			return fmt.Errorf("failed to seed role %s: %w", role.Name, err)
		}
	}
	return nil
}

func strPtr(s string) *string {
	return &s
}
