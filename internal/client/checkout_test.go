package client

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishna9325/Car-Rental/internal/clock"
	"github.com/krishna9325/Car-Rental/internal/domain"
	"github.com/krishna9325/Car-Rental/internal/reservation"
)

type idleTicker struct {
	ch chan time.Time
}

func (t *idleTicker) C() <-chan time.Time { return t.ch }
func (t *idleTicker) Stop()               {}

func newIdleTicker(time.Duration) reservation.Ticker {
	return &idleTicker{ch: make(chan time.Time)}
}

type scriptedPaymentAPI struct {
	mu       sync.Mutex
	results  []error
	requests []reservation.PaymentRequest
}

func (s *scriptedPaymentAPI) Pay(_ context.Context, req reservation.PaymentRequest) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)

	var err error
	if len(s.results) > 0 {
		err = s.results[0]
		s.results = s.results[1:]
	}
	if err != nil {
		return nil, err
	}
	return &domain.Booking{ID: req.BookingID, Status: domain.BookingStatusConfirmed, PaymentMethod: req.PaymentMethod}, nil
}

var checkoutNow = time.Date(2026, 4, 30, 10, 0, 0, 0, time.UTC)

func pendingCheckoutBooking(window time.Duration) domain.Booking {
	return domain.Booking{
		ID:              "bk-1",
		Status:          domain.BookingStatusPending,
		TotalPriceCents: 500000,
		PaymentDeadline: checkoutNow.Add(window),
	}
}

func newTestCheckout(api reservation.PaymentAPI, out *bytes.Buffer, opts ...CheckoutOption) *Checkout {
	opts = append([]CheckoutOption{
		WithCheckoutClock(clock.NewMockClock(checkoutNow)),
		WithCheckoutTicker(newIdleTicker),
		WithRetryDelay(0),
	}, opts...)
	return NewCheckout(api, out, opts...)
}

func TestCheckout_Pay_Confirms(t *testing.T) {
	api := &scriptedPaymentAPI{}
	var out bytes.Buffer

	confirmed, err := newTestCheckout(api, &out).Pay(context.Background(), pendingCheckoutBooking(5*time.Minute), "CARD")

	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, confirmed.Status)
	require.Len(t, api.requests, 1)
	assert.Equal(t, int64(500000), api.requests[0].AmountCents)
	assert.Contains(t, out.String(), "5:00 to pay ₹5000.00")
	assert.Contains(t, out.String(), "Booking bk-1 confirmed")
}

func TestCheckout_Pay_RetriesInterruptedAttempts(t *testing.T) {
	network := errors.Mark(errors.New("connection reset"), domain.ErrNetworkFailure)
	api := &scriptedPaymentAPI{results: []error{network, nil}}
	var out bytes.Buffer

	confirmed, err := newTestCheckout(api, &out, WithAttempts(2)).Pay(context.Background(), pendingCheckoutBooking(time.Minute), "UPI")

	require.NoError(t, err)
	assert.Equal(t, "UPI", confirmed.PaymentMethod)
	assert.Len(t, api.requests, 2)
	assert.Contains(t, out.String(), "Payment attempt 1 failed (network_failure)")
}

func TestCheckout_Pay_StopsOnDecline(t *testing.T) {
	api := &scriptedPaymentAPI{results: []error{errors.Mark(errors.New("server returned 402: card declined"), domain.ErrPaymentRejected), nil}}
	var out bytes.Buffer

	_, err := newTestCheckout(api, &out, WithAttempts(3)).Pay(context.Background(), pendingCheckoutBooking(time.Minute), "CARD")

	assert.Equal(t, reservation.ReasonPaymentRejected, reservation.ReasonOf(err))
	assert.Len(t, api.requests, 1)
	assert.Contains(t, out.String(), "Book the car again")
}

func TestCheckout_Pay_StopsWhenNotLoggedIn(t *testing.T) {
	api := &scriptedPaymentAPI{results: []error{errors.Mark(errors.New("server returned 401: invalid or expired token"), domain.ErrUnauthorized), nil}}
	var out bytes.Buffer

	_, err := newTestCheckout(api, &out, WithAttempts(3)).Pay(context.Background(), pendingCheckoutBooking(time.Minute), "CARD")

	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	assert.False(t, errors.Is(err, domain.ErrNetworkFailure))
	assert.Equal(t, reservation.ReasonUnauthorized, reservation.ReasonOf(err))
	assert.Len(t, api.requests, 1)
	assert.Contains(t, out.String(), "Log in again")
}

func TestCheckout_Pay_GivesUpAfterAttempts(t *testing.T) {
	network := errors.Mark(errors.New("connection reset"), domain.ErrNetworkFailure)
	api := &scriptedPaymentAPI{results: []error{network, network}}
	var out bytes.Buffer

	_, err := newTestCheckout(api, &out, WithAttempts(2)).Pay(context.Background(), pendingCheckoutBooking(time.Minute), "CARD")

	assert.Equal(t, reservation.ReasonNetworkFailure, reservation.ReasonOf(err))
	assert.Len(t, api.requests, 2)
}

func TestCheckout_Pay_DoesNotRetryUnknownBooking(t *testing.T) {
	api := &scriptedPaymentAPI{results: []error{errors.Wrap(domain.ErrNotFound, "booking bk-1")}}
	var out bytes.Buffer

	_, err := newTestCheckout(api, &out, WithAttempts(3)).Pay(context.Background(), pendingCheckoutBooking(time.Minute), "CARD")

	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Len(t, api.requests, 1)
}

func TestCheckout_Pay_WindowAlreadyClosed(t *testing.T) {
	api := &scriptedPaymentAPI{}
	var out bytes.Buffer

	_, err := newTestCheckout(api, &out).Pay(context.Background(), pendingCheckoutBooking(0), "CARD")

	assert.True(t, errors.Is(err, reservation.ErrDeadlineExpired))
	assert.Empty(t, api.requests)
	assert.Contains(t, out.String(), "has closed")
}

func TestCheckout_Pay_ExpiredTokenCallsServerOnce(t *testing.T) {
	var calls atomic.Int32
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/api/bookings/payment", r.URL.Path)
		writeJSON(w, http.StatusUnauthorized, `{"error":{"message":"invalid or expired token"},"code":"unauthorized"}`)
	})
	require.NoError(t, store.Save(Session{UserID: 3, Username: "asha", Role: domain.RoleUser, Token: "stale"}))
	var out bytes.Buffer

	_, err := newTestCheckout(c, &out, WithAttempts(3)).Pay(context.Background(), pendingCheckoutBooking(time.Minute), "CARD")

	assert.Equal(t, reservation.ReasonUnauthorized, reservation.ReasonOf(err))
	assert.Equal(t, int32(1), calls.Load())
}
