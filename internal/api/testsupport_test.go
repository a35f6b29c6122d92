package api

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"eshop/internal/auth"
	"eshop/internal/config"
	"eshop/internal/entity"
	"eshop/internal/service"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// memRepo is an in-memory Repository for handler tests, mirroring the gorm
// error contract.
type memRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*entity.DbUser
}

func newMemRepo() *memRepo {
	return &memRepo{nextID: 1, users: map[uint]*entity.DbUser{}}
}

func cloneUser(u *entity.DbUser) *entity.DbUser {
	clone := *u
	clone.Roles = append(entity.RoleList(nil), u.Roles...)
	return &clone
}

func (r *memRepo) CreateUser(_ context.Context, user *entity.DbUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return gorm.ErrDuplicatedKey
		}
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *memRepo) SaveUser(_ context.Context, user *entity.DbUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *memRepo) GetUserByID(_ context.Context, id uint) (*entity.DbUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		return cloneUser(user), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRepo) GetUserByEmail(_ context.Context, email string) (*entity.DbUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			return cloneUser(user), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRepo) GetUserByActivationCode(_ context.Context, code string) (*entity.DbUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.ActivationCode != "" && user.ActivationCode == code {
			return cloneUser(user), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRepo) GetUserByResetCode(_ context.Context, code string) (*entity.DbUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.PasswordResetCode != "" && user.PasswordResetCode == code {
			return cloneUser(user), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRepo) ListUsers(_ context.Context, _ *entity.UserQuery) ([]entity.DbUser, *entity.Meta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.DbUser, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, *cloneUser(user))
	}
	return out, &entity.Meta{Total: int64(len(out)), Page: 1, PageSize: 20}, nil
}

func (r *memRepo) CountUsers(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *memRepo) deleteByEmail(email string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			delete(r.users, id)
		}
	}
}

// captureMailer records the last code per address.
type captureMailer struct {
	mu              sync.Mutex
	activationCodes map[string]string
	resetCodes      map[string]string
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{activationCodes: map[string]string{}, resetCodes: map[string]string{}}
}

func (m *captureMailer) SendActivationCode(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activationCodes[email] = code
	return nil
}

func (m *captureMailer) SendPasswordResetCode(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetCodes[email] = code
	return nil
}

func (m *captureMailer) activationCode(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activationCodes[email]
}

func (m *captureMailer) resetCode(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resetCodes[email]
}

type testEnv struct {
	router *gin.Engine
	repo   *memRepo
	mailer *captureMailer
	tokens *auth.Manager
	users  *service.UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := auth.NewManager("test-secret", "test", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error creating token manager: %v", err)
	}

	repo := newMemRepo()
	mailer := newCaptureMailer()
	users := service.NewUserService(repo, auth.NewHasher(bcrypt.MinCost), tokens, mailer)

	cfg := config.Config{
		CORSAllowedOrigins: []string{"*"},
		CORSAllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		CORSAllowedHeaders: []string{"Content-Type", "Authorization"},
	}
	handler := NewHTTPHandler(cfg, repo, tokens, users)

	return &testEnv{
		router: handler.Router(),
		repo:   repo,
		mailer: mailer,
		tokens: tokens,
		users:  users,
	}
}

// registerActivated creates an activated account and returns its token.
func (env *testEnv) registerActivated(t *testing.T, email, password string, roles []string) string {
	t.Helper()
	ctx := context.Background()

	created, err := env.users.Register(ctx, email, "Test User", password)
	if err != nil || !created {
		t.Fatalf("failed to register %s: created=%v err=%v", email, created, err)
	}
	if _, err := env.users.Activate(ctx, env.mailer.activationCode(email)); err != nil {
		t.Fatalf("failed to activate %s: %v", email, err)
	}
	if len(roles) > 0 {
		user, err := env.repo.GetUserByEmail(ctx, email)
		if err != nil {
			t.Fatalf("failed to load %s: %v", email, err)
		}
		if err := env.users.SetRoles(ctx, user.ID, roles); err != nil {
			t.Fatalf("failed to set roles for %s: %v", email, err)
		}
	}

	result, err := env.users.Login(ctx, email, password)
	if err != nil {
		t.Fatalf("failed to log in %s: %v", email, err)
	}
	return result.Token
}
