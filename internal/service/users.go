package service

import (
	"context"
	"errors"
	netmail "net/mail"
	"strings"
	"time"

	"eshop/internal/auth"
	"eshop/internal/entity"
	"eshop/internal/mail"
	"eshop/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// UserService orchestrates the credential lifecycle: registration, email
// activation, login, password reset and profile/role updates. All state lives
// in the repository; the service itself is stateless and safe for concurrent
// use.
type UserService struct {
	repo   model.Repository
	hasher *auth.Hasher
	tokens *auth.Manager
	mailer mail.Mailer
}

// NewUserService creates the lifecycle service.
func NewUserService(repo model.Repository, hasher *auth.Hasher, tokens *auth.Manager, mailer mail.Mailer) *UserService {
	return &UserService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		mailer: mailer,
	}
}

// LoginResult is what a successful login hands back to the transport layer.
type LoginResult struct {
	Email     string
	Token     string
	Role      string
	ExpiresAt time.Time
}

// Identity is the resolved caller attached to a request after token
// validation. Role is the claim captured at issuance; Roles is the current
// set from the store.
type Identity struct {
	ID          uint
	Email       string
	DisplayName string
	Role        string
	Roles       entity.RoleList
}

// Register creates a pending-activation account. It returns false when the
// email is already taken, either on the pre-check or on the unique-index
// conflict a concurrent registration produces.
func (s *UserService) Register(ctx context.Context, email, displayName, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validEmail(email) {
		return false, ErrEmailInvalid
	}

	_, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		// email free, continue
	default:
		return false, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, err
	}

	user := &entity.DbUser{
		Email:          email,
		DisplayName:    strings.TrimSpace(displayName),
		PasswordHash:   hash,
		Active:         false,
		ActivationCode: uuid.NewString(),
		Roles:          entity.RoleList{entity.RoleUser},
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}

	s.deliverActivationCode(ctx, user.Email, user.ActivationCode)
	return true, nil
}

// Activate consumes an activation code. The code is single-use: it is cleared
// on the transition to active, so a second call with the same code finds no
// matching account and returns false.
func (s *UserService) Activate(ctx context.Context, code string) (bool, error) {
	user, err := s.repo.GetUserByActivationCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	user.ActivationCode = ""
	user.Active = true
	if err := s.repo.SaveUser(ctx, user); err != nil {
		return false, err
	}
	return true, nil
}

// RequestPasswordReset assigns a reset code to the account behind the email
// and mails it. Unknown emails return false without creating anything.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) (bool, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	user.PasswordResetCode = uuid.NewString()
	if err := s.repo.SaveUser(ctx, user); err != nil {
		return false, err
	}

	if err := s.mailer.SendPasswordResetCode(ctx, user.Email, user.PasswordResetCode); err != nil {
		logrus.WithError(err).WithField("email", user.Email).Warn("failed to send password reset code")
	}
	return true, nil
}

// FindByResetCode resolves an outstanding reset code to its account.
func (s *UserService) FindByResetCode(ctx context.Context, code string) (*entity.DbUser, error) {
	user, err := s.repo.GetUserByResetCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResetCodeInvalid
		}
		return nil, err
	}
	return user, nil
}

// ResetPassword completes the reset flow: the confirmation must be non-empty
// and match, the account must exist. On success the password is re-hashed and
// the reset code cleared, invalidating the old password and the code at once.
func (s *UserService) ResetPassword(ctx context.Context, email, password, confirm string) error {
	if strings.TrimSpace(confirm) == "" {
		return ErrConfirmationEmpty
	}
	if password != confirm {
		return ErrConfirmationMismatch
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.PasswordResetCode = ""
	return s.repo.SaveUser(ctx, user)
}

// Login verifies credentials and issues a bearer token. The activation gate
// runs before the credential check is trusted: an account with an outstanding
// activation code cannot authenticate no matter the password. The token
// carries the highest-privilege role the account holds.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.Activated() || !user.Active {
		return nil, ErrAccountNotActivated
	}

	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	role := entity.PrimaryRole(user.Roles)
	token, expiresAt, err := s.tokens.Issue(user.Email, role)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Email:     user.Email,
		Token:     token,
		Role:      role,
		ExpiresAt: expiresAt,
	}, nil
}

// ResolveIdentity re-checks token claims against the store. A token for a
// deleted or deactivated account stays cryptographically valid until expiry,
// so the store is the authority on whether the subject may still act.
func (s *UserService) ResolveIdentity(ctx context.Context, claims *auth.Claims) (*Identity, error) {
	user, err := s.repo.GetUserByEmail(ctx, claims.Email())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if !user.Activated() || !user.Active {
		return nil, ErrAccountNotActivated
	}

	return &Identity{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        claims.Role,
		Roles:       user.Roles,
	}, nil
}

// UpdateProfile changes the account's email and/or password. An email change
// assigns a fresh activation code for the new address, locking the account
// out of login until it is re-activated.
func (s *UserService) UpdateProfile(ctx context.Context, id uint, email, password string) error {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	emailChanged := email != "" && email != user.Email
	if emailChanged {
		if !validEmail(email) {
			return ErrEmailInvalid
		}
		user.Email = email
		user.ActivationCode = uuid.NewString()
	}

	if strings.TrimSpace(password) != "" {
		hash, err := s.hasher.Hash(password)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
	}

	if err := s.repo.SaveUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailConflict
		}
		return err
	}

	if emailChanged {
		s.deliverActivationCode(ctx, user.Email, user.ActivationCode)
	}
	return nil
}

// SetRoles replaces the account's role set with the intersection of the
// requested names and the closed role set. Unknown names are dropped
// silently; an empty intersection falls back to USER so the set never ends up
// empty.
func (s *UserService) SetRoles(ctx context.Context, id uint, names []string) error {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	roles := entity.ParseRoles(names)
	if len(roles) == 0 {
		roles = entity.RoleList{entity.RoleUser}
	}
	user.Roles = roles
	return s.repo.SaveUser(ctx, user)
}

// GetUser loads an account by id.
func (s *UserService) GetUser(ctx context.Context, id uint) (*entity.DbUser, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) deliverActivationCode(ctx context.Context, email, code string) {
	if err := s.mailer.SendActivationCode(ctx, email, code); err != nil {
		logrus.WithError(err).WithField("email", email).Warn("failed to send activation code")
	}
}

// validEmail accepts a bare address only, not the name-decorated forms the
// parser would otherwise allow.
func validEmail(email string) bool {
	addr, err := netmail.ParseAddress(email)
	return err == nil && addr.Address == email
}
