package model

import (
	"context"
	"errors"
	"strings"

	"eshop/internal/auth"
	"eshop/internal/config"
	"eshop/internal/entity"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SeedAdminUser ensures the configured bootstrap administrator exists. The
// account is created already activated so the instance is operable before any
// mail delivery is configured. Nothing happens when the seed email is unset or
// already taken.
func SeedAdminUser(ctx context.Context, repo Repository, hasher *auth.Hasher, cfg config.Config) error {
	if repo == nil {
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(cfg.SeedAdminEmail))
	password := strings.TrimSpace(cfg.SeedAdminPassword)
	if email == "" || password == "" {
		return nil
	}

	_, err := repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		// fall through to create
	default:
		return err
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}

	admin := &entity.DbUser{
		Email:        email,
		DisplayName:  strings.TrimSpace(cfg.SeedAdminName),
		PasswordHash: hash,
		Active:       true,
		Roles:        entity.RoleList{entity.RoleAdmin, entity.RoleUser},
	}
	if err := repo.CreateUser(ctx, admin); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// concurrent bootstrap of another instance won the race
			return nil
		}
		return err
	}

	logrus.WithField("email", email).Info("seeded bootstrap admin account")
	return nil
}
