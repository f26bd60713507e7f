package api

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/krishna9325/Car-Rental/config"
	"github.com/krishna9325/Car-Rental/internal/auth"
	"github.com/krishna9325/Car-Rental/internal/clock"
	"github.com/krishna9325/Car-Rental/internal/domain"
)

type routerFixture struct {
	router   *gin.Engine
	tokens   *auth.TokenService
	clock    *clock.MockClock
	catalog  *MockCatalogUseCase
	bookings *MockBookingUseCase
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mockClock := clock.NewMockClock(handlerNow)
	tokens := auth.NewTokenService("test-secret", time.Hour, mockClock)
	catalogService := &MockCatalogUseCase{}
	bookingService := &MockBookingUseCase{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := NewRouter(&config.Config{}, logger, NewAuthMiddleware(tokens), Handlers{
		Auth:     NewAuthHandler(&MockAuthUseCase{}),
		Catalog:  NewCatalogHandler(catalogService),
		Bookings: NewBookingHandler(bookingService, mockClock),
	})

	return &routerFixture{
		router:   router,
		tokens:   tokens,
		clock:    mockClock,
		catalog:  catalogService,
		bookings: bookingService,
	}
}

func (f *routerFixture) token(t *testing.T, id int64, role domain.Role) string {
	t.Helper()
	token, err := f.tokens.GenerateToken(&domain.User{ID: id, Username: "user", Role: role})
	require.NoError(t, err)
	return token
}

func (f *routerFixture) do(method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(nil))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestRouter_BookingsRequireToken(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(http.MethodGet, "/api/bookings", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, CodeUnauthorized, decodeError(t, w).Code)
	f.bookings.AssertNotCalled(t, "ListBookings", mock.Anything, mock.Anything)
}

func TestRouter_ExpiredToken(t *testing.T) {
	f := newRouterFixture(t)
	token := f.token(t, 3, domain.RoleUser)

	f.clock.Add(2 * time.Hour)
	w := f.do(http.MethodGet, "/api/bookings", token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid or expired token", decodeError(t, w).Error.Message)
}

func TestRouter_UserCanListOwnBookings(t *testing.T) {
	f := newRouterFixture(t)
	f.bookings.On("ListBookings", mock.Anything, int64(3)).Return([]domain.Booking{}, nil)

	w := f.do(http.MethodGet, "/api/bookings", f.token(t, 3, domain.RoleUser))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
	f.bookings.AssertExpectations(t)
}

func TestRouter_AdminRoutesRejectUsers(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(http.MethodDelete, "/api/admin/cars/12", f.token(t, 3, domain.RoleUser))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, CodeForbidden, decodeError(t, w).Code)
	f.catalog.AssertNotCalled(t, "DeleteCar", mock.Anything, mock.Anything)
}

func TestRouter_AdminCannotBook(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(http.MethodGet, "/api/bookings", f.token(t, 1, domain.RoleAdmin))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_AdminDeletesCar(t *testing.T) {
	f := newRouterFixture(t)
	f.catalog.On("DeleteCar", mock.Anything, int64(12)).Return(nil)

	w := f.do(http.MethodDelete, "/api/admin/cars/12", f.token(t, 1, domain.RoleAdmin))

	assert.Equal(t, http.StatusNoContent, w.Code)
	f.catalog.AssertExpectations(t)
}

func TestRouter_PublicCatalog(t *testing.T) {
	f := newRouterFixture(t)
	f.catalog.On("ListCars", mock.Anything).Return([]domain.Car{{ID: 7, Name: "Creta"}}, nil)

	w := f.do(http.MethodGet, "/api/cars", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"carName":"Creta"`)
}

func TestRouter_KeepsIncomingRequestID(t *testing.T) {
	f := newRouterFixture(t)
	f.catalog.On("ListCities", mock.Anything).Return([]domain.City{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/cities", nil)
	req.Header.Set(requestIDHeader, "req-42")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(requestIDHeader))
}

func TestCustomRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CustomRecovery(slog.New(slog.NewTextHandler(io.Discard, nil))))
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, CodeInternal, decodeError(t, w).Code)
}

func TestErrorHandler_RendersUnwrittenErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.Wrap(domain.ErrNotFound, "car 9"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeNotFound, decodeError(t, w).Code)
}

func TestClassifyError(t *testing.T) {
	testCases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.Invalidf("bad"), http.StatusBadRequest, CodeInvalidRequest},
		{auth.ErrExpiredToken, http.StatusUnauthorized, CodeUnauthorized},
		{errors.Wrap(domain.ErrForbidden, "x"), http.StatusForbidden, CodeForbidden},
		{errors.Wrap(domain.ErrNotFound, "x"), http.StatusNotFound, CodeNotFound},
		{errors.Wrap(domain.ErrDeadlineExpired, "x"), http.StatusGone, CodeDeadlineExpired},
		{errors.Wrap(domain.ErrPaymentRejected, "x"), http.StatusPaymentRequired, CodePaymentRejected},
		{errors.Wrap(domain.ErrOutOfStock, "x"), http.StatusConflict, CodeConflict},
		{errors.Wrap(domain.ErrNotPending, "x"), http.StatusConflict, CodeConflict},
		{errors.Wrap(domain.ErrConflict, "x"), http.StatusConflict, CodeConflict},
		{errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tc := range testCases {
		t.Run(tc.code, func(t *testing.T) {
			status, code := classifyError(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, code)
		})
	}
}
