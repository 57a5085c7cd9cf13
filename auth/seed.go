package auth

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ariebrainware/crm-backend/model"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type seedUser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type usersFile struct {
	Users []seedUser `yaml:"users"`
}

// SeedUsersFromFile registers the users listed in a YAML file. Entries whose
// username or email already exists are skipped; a missing role name defaults
// to User.
func (s *Service) SeedUsersFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var uf usersFile
	if err := yaml.Unmarshal(data, &uf); err != nil {
		return 0, fmt.Errorf("parse seed file: %w", err)
	}

	created := 0
	for _, u := range uf.Users {
		if u.Username == "" || u.Email == "" || u.Password == "" {
			continue
		}
		roleName := u.Role
		if roleName == "" {
			roleName = model.RoleUser
		}

		var role model.Role
		err := s.db.WithContext(ctx).Where("name = ?", roleName).First(&role).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return created, fmt.Errorf("seed user %s: %w", u.Username, ErrRoleNotFound)
		}
		if err != nil {
			return created, err
		}

		user, err := s.Register(ctx, RegisterInput{
			Username: u.Username,
			Email:    u.Email,
			Password: u.Password,
			RoleID:   role.ID,
		})
		if err != nil {
			return created, fmt.Errorf("seed user %s: %w", u.Username, err)
		}
		if user != nil {
			created++
		}
	}
	return created, nil
}
