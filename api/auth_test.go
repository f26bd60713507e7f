package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/krishna9325/Car-Rental/internal/domain"
	authsvc "github.com/krishna9325/Car-Rental/internal/service/auth"
)

type MockAuthUseCase struct {
	mock.Mock
}

func (m *MockAuthUseCase) Signup(ctx context.Context, input authsvc.Credentials) (*authsvc.Session, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authsvc.Session), args.Error(1)
}

func (m *MockAuthUseCase) AdminSignup(ctx context.Context, input authsvc.Credentials, signupKey string) (*authsvc.Session, error) {
	args := m.Called(ctx, input, signupKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authsvc.Session), args.Error(1)
}

func (m *MockAuthUseCase) Login(ctx context.Context, input authsvc.LoginInput) (*authsvc.Session, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authsvc.Session), args.Error(1)
}

func newJSONContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, bytes.NewReader([]byte(body)))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func TestAuthHandler_signup(t *testing.T) {
	mockService := &MockAuthUseCase{}
	handler := NewAuthHandler(mockService)

	c, w := newJSONContext(http.MethodPost, "/api/auth/signup", `{"username":"asha","password":"secret1"}`)

	session := &authsvc.Session{UserID: 5, Username: "asha", Role: domain.RoleUser, Token: "jwt"}
	mockService.On("Signup", c.Request.Context(), authsvc.Credentials{Username: "asha", Password: "secret1"}).Return(session, nil)

	handler.signup(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var response authsvc.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, *session, response)
}

func TestAuthHandler_signup_Taken(t *testing.T) {
	mockService := &MockAuthUseCase{}
	handler := NewAuthHandler(mockService)

	c, w := newJSONContext(http.MethodPost, "/api/auth/signup", `{"username":"asha","password":"secret1"}`)
	mockService.On("Signup", c.Request.Context(), mock.Anything).Return(nil, errors.Wrap(domain.ErrConflict, "username asha is taken"))

	handler.signup(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, CodeConflict, decodeError(t, w).Code)
}

func TestAuthHandler_adminSignup_PassesKeyHeader(t *testing.T) {
	mockService := &MockAuthUseCase{}
	handler := NewAuthHandler(mockService)

	c, w := newJSONContext(http.MethodPost, "/api/auth/admin/signup", `{"username":"root","password":"secret1"}`)
	c.Request.Header.Set(adminKeyHeader, "wrong")

	mockService.On("AdminSignup", c.Request.Context(), authsvc.Credentials{Username: "root", Password: "secret1"}, "wrong").
		Return(nil, errors.Wrap(domain.ErrForbidden, "invalid admin signup key"))

	handler.adminSignup(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, CodeForbidden, decodeError(t, w).Code)
	mockService.AssertExpectations(t)
}

func TestAuthHandler_login(t *testing.T) {
	testCases := []struct {
		name         string
		body         string
		serviceErr   error
		expectedCode int
	}{
		{name: "success", body: `{"username":"asha","password":"secret1","role":"USER"}`, expectedCode: http.StatusOK},
		{name: "wrong password", body: `{"username":"asha","password":"nope12"}`, serviceErr: errors.Wrap(domain.ErrUnauthorized, "bad credentials"), expectedCode: http.StatusUnauthorized},
		{name: "malformed body", body: `{"username":`, expectedCode: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := &MockAuthUseCase{}
			handler := NewAuthHandler(mockService)
			c, w := newJSONContext(http.MethodPost, "/api/auth/login", tc.body)

			if tc.serviceErr != nil {
				mockService.On("Login", c.Request.Context(), mock.Anything).Return(nil, tc.serviceErr)
			} else {
				mockService.On("Login", c.Request.Context(), mock.Anything).
					Return(&authsvc.Session{UserID: 5, Username: "asha", Role: domain.RoleUser, Token: "jwt"}, nil)
			}

			handler.login(c)

			assert.Equal(t, tc.expectedCode, w.Code)
		})
	}
}
