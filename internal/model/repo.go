package model

import (
	"context"

	"eshop/internal/entity"
)

// Repository defines the credential store contract. Lookups return
// gorm.ErrRecordNotFound when no account matches; CreateUser returns
// gorm.ErrDuplicatedKey when the email unique index rejects the row.
type Repository interface {
	CreateUser(ctx context.Context, user *entity.DbUser) error
	SaveUser(ctx context.Context, user *entity.DbUser) error
	GetUserByID(ctx context.Context, id uint) (*entity.DbUser, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.DbUser, error)
	GetUserByActivationCode(ctx context.Context, code string) (*entity.DbUser, error)
	GetUserByResetCode(ctx context.Context, code string) (*entity.DbUser, error)
	ListUsers(ctx context.Context, params *entity.UserQuery) ([]entity.DbUser, *entity.Meta, error)
	CountUsers(ctx context.Context) (int64, error)
}
