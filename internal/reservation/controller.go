// Package reservation drives the payment window of a pending booking on the client:
// a one-second countdown toward the server-assigned deadline and a guarded payment
// submission that can never be attempted once the window is gone.
package reservation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/krishna9325/Car-Rental/internal/clock"
	"github.com/krishna9325/Car-Rental/internal/domain"
)

type State string

const (
	StateInitializing State = "INITIALIZING"
	StateCountingDown State = "COUNTING_DOWN"
	StatePaying       State = "PAYING"
	StateConfirmed    State = "CONFIRMED"
	StateExpired      State = "EXPIRED"
)

func (s State) IsTerminal() bool {
	return s == StateConfirmed || s == StateExpired
}

var (
	ErrPaymentInProgress = errors.New("payment already in progress")
	ErrNotStarted        = errors.New("countdown has not been started")
	ErrAlreadyStarted    = errors.New("countdown already started")
	ErrCancelled         = errors.New("countdown was cancelled")
	ErrAlreadyConfirmed  = errors.New("booking already confirmed")
	ErrMissingDeadline   = errors.New("booking has no payment deadline")

	ErrDeadlineExpired = domain.ErrDeadlineExpired
	ErrPaymentRejected = domain.ErrPaymentRejected
	ErrNetworkFailure  = domain.ErrNetworkFailure
	ErrBookingNotFound = domain.ErrNotFound
	ErrUnauthorized    = domain.ErrUnauthorized
	ErrForbidden       = domain.ErrForbidden
)

const tickInterval = time.Second

type PaymentRequest struct {
	BookingID     string `json:"bookingId"`
	PaymentMethod string `json:"paymentMethod"`
	AmountCents   int64  `json:"amount"`
}

// PaymentAPI settles a booking with the storefront. It returns the confirmed booking
// or an error classified with the domain sentinels.
type PaymentAPI interface {
	Pay(ctx context.Context, req PaymentRequest) (*domain.Booking, error)
}

// Listener receives controller notifications. Calls are made without holding the
// controller lock, from the ticking goroutine or from the SubmitPayment caller.
type Listener interface {
	OnTick(remaining int64)
	OnExpired(booking domain.Booking)
	OnConfirmed(booking domain.Booking)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are ignored.
type ListenerFuncs struct {
	Tick      func(remaining int64)
	Expired   func(booking domain.Booking)
	Confirmed func(booking domain.Booking)
}

func (l ListenerFuncs) OnTick(remaining int64) {
	if l.Tick != nil {
		l.Tick(remaining)
	}
}

func (l ListenerFuncs) OnExpired(booking domain.Booking) {
	if l.Expired != nil {
		l.Expired(booking)
	}
}

func (l ListenerFuncs) OnConfirmed(booking domain.Booking) {
	if l.Confirmed != nil {
		l.Confirmed(booking)
	}
}

type Option func(*Controller)

func WithClock(c clock.Clock) Option {
	return func(ctrl *Controller) { ctrl.clock = c }
}

func WithTicker(factory TickerFactory) Option {
	return func(ctrl *Controller) { ctrl.newTicker = factory }
}

func WithListener(l Listener) Option {
	return func(ctrl *Controller) { ctrl.listener = l }
}

func WithLogger(logger *slog.Logger) Option {
	return func(ctrl *Controller) { ctrl.logger = logger }
}

type Controller struct {
	api       PaymentAPI
	clock     clock.Clock
	newTicker TickerFactory
	listener  Listener
	logger    *slog.Logger

	mu        sync.Mutex
	booking   domain.Booking
	state     State
	remaining int64
	paying    bool
	cancelled bool
	notified  bool
	ticker    Ticker
	done      chan struct{}
}

func NewController(api PaymentAPI, opts ...Option) *Controller {
	c := &Controller{
		api:       api,
		clock:     clock.NewRealClock(),
		newTicker: NewRealTicker,
		listener:  ListenerFuncs{},
		logger:    slog.Default(),
		state:     StateInitializing,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize starts the countdown for a pending booking. A booking whose deadline has
// already passed goes straight to EXPIRED without starting a ticker. The ticking
// goroutine stops when ctx is done.
func (c *Controller) Initialize(ctx context.Context, booking domain.Booking) error {
	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		return ErrCancelled
	}
	if c.state != StateInitializing {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	if booking.PaymentDeadline.IsZero() {
		c.mu.Unlock()
		return errors.Wrapf(ErrMissingDeadline, "booking %s", booking.ID)
	}

	remaining := SecondsUntil(booking.PaymentDeadline, c.clock.Now())
	switch booking.Status {
	case domain.BookingStatusPending:
	case domain.BookingStatusExpired:
		remaining = 0
	default:
		c.mu.Unlock()
		return errors.Wrapf(domain.ErrNotPending, "booking %s is %s", booking.ID, booking.Status)
	}

	c.booking = booking
	c.remaining = remaining

	if remaining == 0 {
		c.state = StateExpired
		c.notified = true
		c.mu.Unlock()

		c.logger.Info("payment window already closed", "booking_id", booking.ID)
		c.listener.OnExpired(booking)
		return nil
	}

	c.state = StateCountingDown
	c.ticker = c.newTicker(tickInterval)
	c.done = make(chan struct{})
	go c.run(ctx, c.ticker, c.done)
	c.mu.Unlock()

	c.logger.Debug("countdown started", "booking_id", booking.ID, "remaining_seconds", remaining)
	return nil
}

func (c *Controller) run(ctx context.Context, t Ticker, done <-chan struct{}) {
	for {
		select {
		case <-t.C():
			c.Tick()
		case <-ctx.Done():
			c.Cancel()
			return
		case <-done:
			return
		}
	}
}

// Tick advances the countdown by one second. It keeps running while a payment is in
// flight; reaching zero expires the reservation even then.
func (c *Controller) Tick() {
	c.mu.Lock()
	if c.cancelled || c.state == StateInitializing || c.state.IsTerminal() {
		c.mu.Unlock()
		return
	}

	if c.remaining > 0 {
		c.remaining--
	}
	remaining := c.remaining

	expired := false
	if remaining == 0 {
		c.stopTimerLocked()
		c.state = StateExpired
		if !c.notified {
			c.notified = true
			expired = true
		}
	}
	booking := c.booking
	c.mu.Unlock()

	c.listener.OnTick(remaining)
	if expired {
		c.logger.Info("payment window expired", "booking_id", booking.ID)
		c.listener.OnExpired(booking)
	}
}

// Cancel stops the countdown without notifying anyone. It is safe to call repeatedly
// and at any point, including while a payment is in flight.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelled = true
	c.stopTimerLocked()
}

// SubmitPayment pays for the booking while the window is open. Failures leave the
// countdown running so the caller can retry.
func (c *Controller) SubmitPayment(ctx context.Context, method string, amountCents int64) (*domain.Booking, error) {
	c.mu.Lock()
	switch {
	case c.state == StateExpired || (c.state != StateInitializing && c.remaining == 0):
		id := c.booking.ID
		c.mu.Unlock()
		return nil, errors.Wrapf(ErrDeadlineExpired, "booking %s", id)
	case c.cancelled:
		c.mu.Unlock()
		return nil, ErrCancelled
	case c.state == StateInitializing:
		c.mu.Unlock()
		return nil, ErrNotStarted
	case c.state == StateConfirmed:
		c.mu.Unlock()
		return nil, ErrAlreadyConfirmed
	case c.paying:
		c.mu.Unlock()
		return nil, ErrPaymentInProgress
	}

	c.paying = true
	c.state = StatePaying
	req := PaymentRequest{
		BookingID:     c.booking.ID,
		PaymentMethod: method,
		AmountCents:   amountCents,
	}
	c.mu.Unlock()

	c.logger.Info("submitting payment", "booking_id", req.BookingID, "method", method)
	confirmed, err := c.api.Pay(ctx, req)

	c.mu.Lock()
	c.paying = false

	if err != nil {
		if c.state == StatePaying {
			c.state = StateCountingDown
		}
		c.mu.Unlock()

		err = classify(err)
		c.logger.Warn("payment failed", "booking_id", req.BookingID, "error", err)
		return nil, err
	}

	if c.state != StatePaying || confirmed == nil {
		// The window closed locally while the request was in flight.
		c.mu.Unlock()
		c.logger.Warn("payment settled after local expiry", "booking_id", req.BookingID)
		return confirmed, nil
	}

	c.state = StateConfirmed
	c.booking = *confirmed
	c.stopTimerLocked()
	emit := !c.cancelled && !c.notified
	c.notified = true
	c.mu.Unlock()

	c.logger.Info("payment confirmed", "booking_id", confirmed.ID)
	if emit {
		c.listener.OnConfirmed(*confirmed)
	}
	return confirmed, nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Remaining() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Controller) FormattedRemaining() string {
	return FormatRemaining(c.Remaining())
}

func (c *Controller) Booking() domain.Booking {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.booking
}

func (c *Controller) stopTimerLocked() {
	if c.ticker == nil {
		return
	}
	c.ticker.Stop()
	c.ticker = nil
	close(c.done)
}

// classify makes sure every payment failure carries one of the sentinels callers
// switch on. Credential failures pass through untouched; unknown failures are
// treated as transport problems.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrPaymentRejected),
		errors.Is(err, ErrNetworkFailure),
		errors.Is(err, ErrBookingNotFound),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrForbidden):
		return err
	case errors.Is(err, ErrDeadlineExpired):
		return errors.Mark(err, ErrPaymentRejected)
	default:
		return errors.Mark(err, ErrNetworkFailure)
	}
}

type Reason string

const (
	ReasonNone            Reason = ""
	ReasonDeadlineExpired Reason = "deadline_expired"
	ReasonPaymentRejected Reason = "payment_rejected"
	ReasonNetworkFailure  Reason = "network_failure"
	ReasonNotFound        Reason = "not_found"
	ReasonUnauthorized    Reason = "unauthorized"
	ReasonOther           Reason = "other"
)

// ReasonOf reports which failure kind err belongs to. Server-side expiry is reported
// as a rejection; only the local precondition is ReasonDeadlineExpired.
func ReasonOf(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrPaymentRejected):
		return ReasonPaymentRejected
	case errors.Is(err, ErrDeadlineExpired):
		return ReasonDeadlineExpired
	case errors.Is(err, ErrBookingNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrForbidden):
		return ReasonUnauthorized
	case errors.Is(err, ErrNetworkFailure):
		return ReasonNetworkFailure
	default:
		return ReasonOther
	}
}
