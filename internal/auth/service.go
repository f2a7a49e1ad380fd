package auth

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/rentdesk/rentdesk/internal/shared"
)

// RepositoryPort defines data access methods for user accounts.
type RepositoryPort interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, u *User) error
}

// Service handles authentication and account management.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Login verifies credentials and binds the user identity to the session.
func (s *Service) Login(ctx context.Context, sess *shared.Session, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	sess.SetIdentity(u.ID, u.Role, u.TenantID)
	return u, nil
}

// CreateUser registers an account with a bcrypt hashed password.
func (s *Service) CreateUser(ctx context.Context, input UserInput) (*User, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &User{
		Username:     strings.TrimSpace(input.Username),
		PasswordHash: string(hash),
		Role:         input.Role,
		TenantID:     input.TenantID,
		CreatedAt:    s.now(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Me returns the account behind the session, ErrNotFound when anonymous.
func (s *Service) Me(ctx context.Context, sess *shared.Session) (*User, error) {
	if sess.UserID() == 0 {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, sess.UserID())
}

func validateInput(input UserInput) error {
	if strings.TrimSpace(input.Username) == "" {
		return ErrValidation
	}
	if len(input.Password) < 8 {
		return ErrValidation
	}
	switch input.Role {
	case shared.RoleAdmin:
		if input.TenantID != 0 {
			return ErrValidation
		}
	case shared.RoleTenant:
		if input.TenantID == 0 {
			return ErrValidation
		}
	default:
		return ErrValidation
	}
	return nil
}
