// Package identity registers users, checks their credentials and maps session
// tokens back to the user they were issued for.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/garnizeh/devmarket/internal/apperr"
	"github.com/garnizeh/devmarket/pkg/models"
	"github.com/garnizeh/devmarket/pkg/repository"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the bcrypt input limit. Longer passwords are rejected
// instead of being silently truncated.
const MaxPasswordBytes = 72

type Service struct {
	users     repository.UserRepo
	tokens    *TokenCodec
	cost      int
	dummyHash []byte
	logger    *slog.Logger
}

// NewService builds the identity service. cost is the bcrypt work factor used
// for new hashes.
func NewService(users repository.UserRepo, tokens *TokenCodec, cost int, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// compared against on unknown emails so both login failures take as long
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	return &Service{users: users, tokens: tokens, cost: cost, dummyHash: dummy, logger: logger}, nil
}

// Register creates a buyer or developer account.
func (s *Service) Register(ctx context.Context, email, password string, role models.Role) (*models.User, error) {
	if role != models.RoleBuyer && role != models.RoleDeveloper {
		return nil, apperr.Validationf("role must be %q or %q", models.RoleBuyer, models.RoleDeveloper)
	}

	return s.Provision(ctx, email, password, role)
}

// Provision creates an account with any role. It backs Register and the
// admin seeding in scripts/db_init.
func (s *Service) Provision(ctx context.Context, email, password string, role models.Role) (*models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperr.Validationf("unknown role %q", role)
	}
	if password == "" {
		return nil, apperr.Validationf("password is required")
	}
	if len(password) > MaxPasswordBytes {
		return nil, apperr.ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperr.ErrPasswordTooLong
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{Email: email, PasswordHash: string(hash), Role: role}
	id, err := s.users.CreateUser(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	u.ID = id

	s.logger.Info("user registered", slog.Int64("user_id", u.ID), slog.String("role", string(u.Role)))
	return u, nil
}

// Login checks the credentials and returns a signed session token. Unknown
// email and wrong password both yield apperr.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return "", apperr.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", apperr.ErrInvalidCredentials
	}

	return s.IssueToken(u)
}

// IssueToken signs a session token for u.
func (s *Service) IssueToken(u *models.User) (string, error) {
	return s.tokens.Sign(u)
}

// Verify resolves a token to the user it was issued for. A token for a user
// that no longer exists is invalid.
func (s *Service) Verify(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, apperr.ErrInvalidToken
	}

	return u, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperr.Validationf("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.Validationf("invalid email %q", email)
	}

	return email, nil
}
