package payment

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/krishna9325/Car-Rental/config"
	"github.com/krishna9325/Car-Rental/internal/domain"
)

// StripeGateway charges bookings through Stripe payment intents confirmed with a
// preconfigured payment method.
type StripeGateway struct {
	client        *client.API
	currency      string
	paymentMethod string
}

func NewStripeGateway(cfg config.PaymentConfig) (*StripeGateway, error) {
	if cfg.StripeSecretKey == "" {
		return nil, errors.New("payment: stripe secret key is required")
	}

	var backends *stripe.Backends
	if cfg.StripeAPIURL != "" {
		backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL:               stripe.String(cfg.StripeAPIURL),
			MaxNetworkRetries: stripe.Int64(0),
		})
		backends = &stripe.Backends{API: backend, Connect: backend, Uploads: backend}
	}

	return &StripeGateway{
		client:        client.New(cfg.StripeSecretKey, backends),
		currency:      cfg.Currency,
		paymentMethod: cfg.StripePaymentMethod,
	}, nil
}

func (g *StripeGateway) Charge(ctx context.Context, charge Charge) (*Receipt, error) {
	if charge.AmountCents <= 0 {
		return nil, domain.Invalidf("amount must be positive")
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(charge.AmountCents),
		Currency:           stripe.String(g.currency),
		PaymentMethod:      stripe.String(g.paymentMethod),
		PaymentMethodTypes: []*string{stripe.String("card")},
		Confirm:            stripe.Bool(true),
		Description:        stripe.String("Car rental booking " + charge.BookingID),
		Metadata: map[string]string{
			"booking_id": charge.BookingID,
			"method":     charge.Method,
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey("booking-" + charge.BookingID)

	intent, err := g.client.PaymentIntents.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return nil, errors.Wrapf(domain.ErrPaymentRejected, "charge for booking %s declined: %s", charge.BookingID, stripeErr.Msg)
		}
		return nil, errors.Wrapf(err, "create payment intent for booking %s", charge.BookingID)
	}

	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, errors.Wrapf(domain.ErrPaymentRejected, "payment intent %s for booking %s is %s", intent.ID, charge.BookingID, intent.Status)
	}

	return &Receipt{
		TransactionID: intent.ID,
		BookingID:     charge.BookingID,
		Method:        charge.Method,
		AmountCents:   charge.AmountCents,
		ProcessedAt:   time.Now(),
	}, nil
}

// NewGateway builds the processor named by cfg.Provider.
func NewGateway(cfg config.PaymentConfig) (Gateway, error) {
	switch cfg.Provider {
	case "", "simulated":
		return NewSimulatedGateway(cfg), nil
	case "stripe":
		return NewStripeGateway(cfg)
	default:
		return nil, errors.Newf("payment: unknown provider %q", cfg.Provider)
	}
}

var _ Gateway = (*StripeGateway)(nil)
