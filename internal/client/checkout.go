package client

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"

	"github.com/krishna9325/Car-Rental/internal/clock"
	"github.com/krishna9325/Car-Rental/internal/domain"
	"github.com/krishna9325/Car-Rental/internal/reservation"
)

var (
	infoColor    = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
)

// Checkout pays for a pending booking while showing the payment window counting
// down. Interrupted attempts are retried while the window is open; a rejection is
// final because the server releases the booking when it declines a charge.
type Checkout struct {
	api         reservation.PaymentAPI
	out         io.Writer
	clock       clock.Clock
	newTicker   reservation.TickerFactory
	maxAttempts int
	retryDelay  time.Duration
}

type CheckoutOption func(*Checkout)

func WithAttempts(n int) CheckoutOption {
	return func(c *Checkout) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

func WithRetryDelay(d time.Duration) CheckoutOption {
	return func(c *Checkout) { c.retryDelay = d }
}

func WithCheckoutClock(clk clock.Clock) CheckoutOption {
	return func(c *Checkout) { c.clock = clk }
}

func WithCheckoutTicker(factory reservation.TickerFactory) CheckoutOption {
	return func(c *Checkout) { c.newTicker = factory }
}

func NewCheckout(api reservation.PaymentAPI, out io.Writer, opts ...CheckoutOption) *Checkout {
	c := &Checkout{
		api:         api,
		out:         out,
		clock:       clock.NewRealClock(),
		newTicker:   reservation.NewRealTicker,
		maxAttempts: 1,
		retryDelay:  2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Pay runs the countdown for booking and submits the payment. It returns the
// confirmed booking, or an error classified by reservation.ReasonOf.
func (c *Checkout) Pay(ctx context.Context, booking domain.Booking, method string) (*domain.Booking, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	expired := make(chan struct{})
	var once sync.Once

	ctrl := reservation.NewController(c.api,
		reservation.WithClock(c.clock),
		reservation.WithTicker(c.newTicker),
		reservation.WithListener(reservation.ListenerFuncs{
			Tick: func(remaining int64) {
				if remaining > 0 && (remaining%30 == 0 || remaining <= 10) {
					infoColor.Fprintf(c.out, "%s left to pay\n", reservation.FormatRemaining(remaining))
				}
			},
			Expired: func(b domain.Booking) {
				once.Do(func() { close(expired) })
				errorColor.Fprintf(c.out, "Payment window for booking %s has closed.\n", b.ID)
			},
			Confirmed: func(b domain.Booking) {
				successColor.Fprintf(c.out, "Booking %s confirmed. Enjoy the ride!\n", b.ID)
			},
		}),
	)
	defer ctrl.Cancel()

	if err := ctrl.Initialize(ctx, booking); err != nil {
		return nil, err
	}
	if ctrl.State() == reservation.StateExpired {
		return nil, errors.Wrapf(reservation.ErrDeadlineExpired, "booking %s", booking.ID)
	}
	infoColor.Fprintf(c.out, "Booking %s: %s to pay %s\n", booking.ID, ctrl.FormattedRemaining(), formatRupees(booking.TotalPriceCents))

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		confirmed, err := ctrl.SubmitPayment(ctx, method, booking.TotalPriceCents)
		if err == nil {
			if ctrl.State() != reservation.StateConfirmed {
				warnColor.Fprintf(c.out, "Payment for booking %s went through after the window closed. Check its status.\n", booking.ID)
			}
			return confirmed, nil
		}
		lastErr = err

		reason := reservation.ReasonOf(err)
		errorColor.Fprintf(c.out, "Payment attempt %d failed (%s): %v\n", attempt, reason, err)
		switch reason {
		case reservation.ReasonNetworkFailure:
		case reservation.ReasonPaymentRejected:
			warnColor.Fprintf(c.out, "Booking %s can no longer be paid. Book the car again to retry.\n", booking.ID)
			return nil, err
		case reservation.ReasonUnauthorized:
			warnColor.Fprintln(c.out, "Log in again before paying.")
			return nil, err
		default:
			return nil, err
		}
		if attempt == c.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, errors.Mark(errors.Wrap(ctx.Err(), "checkout aborted"), reservation.ErrNetworkFailure)
		case <-expired:
			return nil, errors.Wrapf(reservation.ErrDeadlineExpired, "booking %s", booking.ID)
		case <-time.After(c.retryDelay):
		}
		warnColor.Fprintf(c.out, "Retrying payment, %s left\n", ctrl.FormattedRemaining())
	}
	return nil, lastErr
}

func formatRupees(cents int64) string {
	return "₹" + formatAmount(cents)
}
