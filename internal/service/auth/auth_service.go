package auth

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"

	pkgauth "github.com/krishna9325/Car-Rental/internal/auth"
	"github.com/krishna9325/Car-Rental/internal/domain"
	"github.com/krishna9325/Car-Rental/internal/repository"
)

type AuthUseCase interface {
	Signup(ctx context.Context, input Credentials) (*Session, error)
	AdminSignup(ctx context.Context, input Credentials, signupKey string) (*Session, error)
	Login(ctx context.Context, input LoginInput) (*Session, error)
}

type TokenIssuer interface {
	GenerateToken(user *domain.User) (string, error)
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginInput struct {
	Credentials
	Role string `json:"role,omitempty"`
}

type Session struct {
	UserID   int64       `json:"userId"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	Token    string      `json:"token"`
}

type AuthService struct {
	users          repository.UserRepository
	tokens         TokenIssuer
	adminSignupKey string
	logger         *slog.Logger
}

func NewAuthService(users repository.UserRepository, tokens TokenIssuer, adminSignupKey string, logger *slog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, adminSignupKey: adminSignupKey, logger: logger}
}

func (c Credentials) validate() error {
	if len(strings.TrimSpace(c.Username)) < 3 {
		return domain.Invalidf("username must be at least 3 characters")
	}
	if len(c.Password) < 6 {
		return domain.Invalidf("password must be at least 6 characters")
	}
	return nil
}

func (s *AuthService) Signup(ctx context.Context, input Credentials) (*Session, error) {
	return s.register(ctx, input, domain.RoleUser)
}

// AdminSignup creates an ADMIN account. It is closed when no signup key is configured.
func (s *AuthService) AdminSignup(ctx context.Context, input Credentials, signupKey string) (*Session, error) {
	if s.adminSignupKey == "" || subtle.ConstantTimeCompare([]byte(signupKey), []byte(s.adminSignupKey)) != 1 {
		return nil, errors.Wrap(domain.ErrForbidden, "invalid admin signup key")
	}
	return s.register(ctx, input, domain.RoleAdmin)
}

func (s *AuthService) register(ctx context.Context, input Credentials, role domain.Role) (*Session, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	hash, err := pkgauth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     strings.TrimSpace(input.Username),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, errors.Wrapf(err, "username %q is taken", user.Username)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "role", role)
	return s.session(user)
}

// Login checks the password and, when a role is requested, that the account has it.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*Session, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, pkgauth.ErrPasswordMismatch
		}
		return nil, err
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, input.Password); err != nil {
		return nil, err
	}

	if input.Role != "" {
		role, err := domain.ParseRole(input.Role)
		if err != nil {
			return nil, err
		}
		if role != user.Role {
			return nil, errors.Wrapf(domain.ErrUnauthorized, "account is not %s", role)
		}
	}

	return s.session(user)
}

func (s *AuthService) session(user *domain.User) (*Session, error) {
	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &Session{UserID: user.ID, Username: user.Username, Role: user.Role, Token: token}, nil
}

var _ AuthUseCase = (*AuthService)(nil)
