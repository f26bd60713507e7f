package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	pkgauth "github.com/krishna9325/Car-Rental/internal/auth"
	"github.com/krishna9325/Car-Rental/internal/domain"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = 11
	}
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) GenerateToken(user *domain.User) (string, error) {
	args := m.Called(user)
	return args.String(0), args.Error(1)
}

func newTestService(key string) (*AuthService, *MockUserRepository, *MockTokenIssuer) {
	users := &MockUserRepository{}
	tokens := &MockTokenIssuer{}
	return NewAuthService(users, tokens, key, slog.New(slog.NewTextHandler(io.Discard, nil))), users, tokens
}

func TestAuthService_Signup(t *testing.T) {
	service, users, tokens := newTestService("")
	ctx := context.Background()

	users.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.Username == "asha" && u.Role == domain.RoleUser && pkgauth.ComparePassword(u.PasswordHash, "secret1") == nil
	})).Return(nil).Once()
	tokens.On("GenerateToken", mock.AnythingOfType("*domain.User")).Return("jwt", nil).Once()

	session, err := service.Signup(ctx, Credentials{Username: " asha ", Password: "secret1"})

	require.NoError(t, err)
	assert.Equal(t, int64(11), session.UserID)
	assert.Equal(t, domain.RoleUser, session.Role)
	assert.Equal(t, "jwt", session.Token)
	users.AssertExpectations(t)
}

func TestAuthService_Signup_Validation(t *testing.T) {
	service, users, _ := newTestService("")

	testCases := []struct {
		name        string
		input       Credentials
		expectedErr string
	}{
		{name: "short username", input: Credentials{Username: "ab", Password: "secret1"}, expectedErr: "username must be at least 3 characters"},
		{name: "short password", input: Credentials{Username: "asha", Password: "123"}, expectedErr: "password must be at least 6 characters"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			session, err := service.Signup(context.Background(), tc.input)
			assert.Nil(t, session)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
			assert.Contains(t, err.Error(), tc.expectedErr)
		})
	}
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Signup_DuplicateUsername(t *testing.T) {
	service, users, _ := newTestService("")
	ctx := context.Background()

	users.On("Create", ctx, mock.Anything).Return(errors.Mark(errors.New("duplicate key"), domain.ErrConflict)).Once()

	_, err := service.Signup(ctx, Credentials{Username: "asha", Password: "secret1"})

	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.Contains(t, err.Error(), "is taken")
}

func TestAuthService_AdminSignup(t *testing.T) {
	service, users, tokens := newTestService("letmein")
	ctx := context.Background()

	_, err := service.AdminSignup(ctx, Credentials{Username: "root", Password: "secret1"}, "wrong")
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	users.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool { return u.Role == domain.RoleAdmin })).Return(nil).Once()
	tokens.On("GenerateToken", mock.Anything).Return("jwt", nil).Once()

	session, err := service.AdminSignup(ctx, Credentials{Username: "root", Password: "secret1"}, "letmein")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, session.Role)
}

func TestAuthService_AdminSignup_DisabledWithoutKey(t *testing.T) {
	service, users, _ := newTestService("")

	_, err := service.AdminSignup(context.Background(), Credentials{Username: "root", Password: "secret1"}, "")

	assert.True(t, errors.Is(err, domain.ErrForbidden))
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Login(t *testing.T) {
	hash, err := pkgauth.HashPassword("secret1")
	require.NoError(t, err)
	stored := &domain.User{ID: 5, Username: "asha", PasswordHash: hash, Role: domain.RoleUser}

	testCases := []struct {
		name     string
		input    LoginInput
		sentinel error
	}{
		{name: "success", input: LoginInput{Credentials: Credentials{Username: "asha", Password: "secret1"}}},
		{name: "matching role", input: LoginInput{Credentials: Credentials{Username: "asha", Password: "secret1"}, Role: "user"}},
		{name: "wrong password", input: LoginInput{Credentials: Credentials{Username: "asha", Password: "nope"}}, sentinel: domain.ErrUnauthorized},
		{name: "wrong role", input: LoginInput{Credentials: Credentials{Username: "asha", Password: "secret1"}, Role: "ADMIN"}, sentinel: domain.ErrUnauthorized},
		{name: "unknown role", input: LoginInput{Credentials: Credentials{Username: "asha", Password: "secret1"}, Role: "GUEST"}, sentinel: domain.ErrInvalidInput},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			service, users, tokens := newTestService("")
			ctx := context.Background()
			users.On("GetByUsername", ctx, "asha").Return(stored, nil).Once()
			tokens.On("GenerateToken", stored).Return("jwt", nil).Maybe()

			session, err := service.Login(ctx, tc.input)

			if tc.sentinel == nil {
				require.NoError(t, err)
				assert.Equal(t, int64(5), session.UserID)
				return
			}
			assert.Nil(t, session)
			assert.True(t, errors.Is(err, tc.sentinel))
		})
	}
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	service, users, _ := newTestService("")
	ctx := context.Background()

	users.On("GetByUsername", ctx, "ghost").Return(nil, errors.Wrap(domain.ErrNotFound, "user")).Once()

	_, err := service.Login(ctx, LoginInput{Credentials: Credentials{Username: "ghost", Password: "secret1"}})

	assert.ErrorIs(t, err, pkgauth.ErrPasswordMismatch)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
}
