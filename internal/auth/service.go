package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/ecosopis/storefront/internal/domain"
	"github.com/ecosopis/storefront/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	minPasswordLen = 6
)

var ErrInvalidCredentials = fmt.Errorf("invalid username or password: %w", domain.ErrUnauthorized)

type Service struct {
	users    repository.UserRepository
	sessions SessionStore
	cost     int
	logger   *slog.Logger

	// compared against when the username is unknown so both login
	// failures take about the same time
	dummyHash []byte
}

type Option func(*Service)

// WithBcryptCost overrides bcrypt.DefaultCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func NewService(users repository.UserRepository, sessions SessionStore, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		users:    users,
		sessions: sessions,
		cost:     bcrypt.DefaultCost,
		logger:   logger.With("component", "auth"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost)
	return s
}

func (s *Service) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return nil, domain.NewValidationError("username", fmt.Sprintf("must be %d to %d characters", minUsernameLen, maxUsernameLen))
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return nil, domain.NewValidationError("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         domain.RoleCustomer,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Login verifies the credentials and opens a session. The returned token is
// the session cookie value.
func (s *Service) Login(ctx context.Context, username, password string) (*domain.User, string, error) {
	u, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.sessions.Create(ctx, Caller{UserID: u.ID, Role: u.Role})
	if err != nil {
		return nil, "", fmt.Errorf("create session: %w", err)
	}
	return u, token, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

// Authenticate resolves a session token. Unknown or expired tokens yield a
// nil caller and no error.
func (s *Service) Authenticate(ctx context.Context, token string) (*Caller, error) {
	if token == "" {
		return nil, nil
	}
	c, err := s.sessions.Get(ctx, token)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Me(ctx context.Context, caller *Caller) (*domain.User, error) {
	if err := Authorize(caller, domain.RoleCustomer); err != nil {
		return nil, err
	}
	return s.users.GetUser(ctx, caller.UserID)
}

func (s *Service) UpdateProfile(ctx context.Context, caller *Caller, update domain.ProfileUpdate) (*domain.User, error) {
	if err := Authorize(caller, domain.RoleCustomer); err != nil {
		return nil, err
	}
	if update.SkinType != nil {
		trimmed := strings.TrimSpace(*update.SkinType)
		if trimmed == "" {
			return nil, domain.NewValidationError("skinType", "must not be blank")
		}
		update.SkinType = &trimmed
	}
	return s.users.UpdateProfile(ctx, caller.UserID, update)
}
