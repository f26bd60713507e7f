package payment

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/krishna9325/Car-Rental/config"
	"github.com/krishna9325/Car-Rental/internal/domain"
)

type Charge struct {
	BookingID   string
	Method      string
	AmountCents int64
}

type Receipt struct {
	TransactionID string
	BookingID     string
	Method        string
	AmountCents   int64
	ProcessedAt   time.Time
}

type Gateway interface {
	Charge(ctx context.Context, charge Charge) (*Receipt, error)
}

// SimulatedGateway approves a configurable share of charges after a fixed processing
// delay. It stands in for a real card processor.
type SimulatedGateway struct {
	successRate float64
	delay       time.Duration

	mu   sync.Mutex
	roll func() float64
}

func NewSimulatedGateway(cfg config.PaymentConfig) *SimulatedGateway {
	return &SimulatedGateway{
		successRate: cfg.SuccessRate,
		delay:       cfg.ProcessingDelay(),
		roll:        rand.Float64,
	}
}

const (
	MethodCard       = "CARD"
	MethodUPI        = "UPI"
	MethodNetBanking = "NETBANKING"
	MethodWallet     = "WALLET"
)

var supportedMethods = map[string]struct{}{
	MethodCard:       {},
	MethodUPI:        {},
	MethodNetBanking: {},
	MethodWallet:     {},
}

func NormalizeMethod(method string) (string, error) {
	m := strings.ToUpper(strings.TrimSpace(method))
	if _, ok := supportedMethods[m]; !ok {
		return "", domain.Invalidf("unsupported payment method %q", method)
	}
	return m, nil
}

func (g *SimulatedGateway) Charge(ctx context.Context, charge Charge) (*Receipt, error) {
	if charge.AmountCents <= 0 {
		return nil, domain.Invalidf("amount must be positive")
	}

	if g.delay > 0 {
		timer := time.NewTimer(g.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "payment processing interrupted")
		case <-timer.C:
		}
	}

	g.mu.Lock()
	approved := g.roll() < g.successRate
	g.mu.Unlock()

	if !approved {
		return nil, errors.Wrapf(domain.ErrPaymentRejected, "charge for booking %s declined", charge.BookingID)
	}

	return &Receipt{
		TransactionID: uuid.NewString(),
		BookingID:     charge.BookingID,
		Method:        charge.Method,
		AmountCents:   charge.AmountCents,
		ProcessedAt:   time.Now(),
	}, nil
}

var _ Gateway = (*SimulatedGateway)(nil)
