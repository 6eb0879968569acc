package auth

import (
	"context"
	"errors"
	"fmt"
	"os"

	"stockgate/internal/apperrors"
	"stockgate/internal/models"

	"gopkg.in/yaml.v3"
)

type usersFile struct {
	Users []struct {
		Email    string          `yaml:"email"`
		Password string          `yaml:"password"`
		Role     models.UserRole `yaml:"role"`
	} `yaml:"users"`
}

// SeedFromFile registers the users listed in a YAML file. Emails that already
// exist are left untouched; it returns how many users were created.
func (s *Service) SeedFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}
	var uf usersFile
	if err := yaml.Unmarshal(data, &uf); err != nil {
		return 0, fmt.Errorf("parse seed file: %w", err)
	}

	created := 0
	for _, u := range uf.Users {
		if u.Email == "" || u.Password == "" {
			continue
		}
		if _, err := s.Register(ctx, u.Email, u.Password, u.Role); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				continue
			}
			return created, fmt.Errorf("seed %s: %w", u.Email, err)
		}
		created++
	}
	return created, nil
}
