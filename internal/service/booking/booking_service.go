package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/krishna9325/Car-Rental/internal/clock"
	"github.com/krishna9325/Car-Rental/internal/domain"
	"github.com/krishna9325/Car-Rental/internal/kafka"
	"github.com/krishna9325/Car-Rental/internal/repository"
	"github.com/krishna9325/Car-Rental/internal/service/payment"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, userID int64, input CreateBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, userID int64, id string) (*domain.Booking, error)
	ListBookings(ctx context.Context, userID int64) ([]domain.Booking, error)
	ConfirmPayment(ctx context.Context, userID int64, input PaymentInput) (*domain.Booking, error)
	CancelBooking(ctx context.Context, userID int64, id string) (*domain.Booking, error)
	ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error)
	CompleteFinishedBookings(ctx context.Context) ([]domain.Booking, error)
}

type Cache interface {
	AcquireCarLock(ctx context.Context, carID int64, owner string, ttl time.Duration) (bool, error)
	ReleaseCarLock(ctx context.Context, carID int64, owner string) error
	InvalidateCatalog(ctx context.Context) error
}

type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, event kafka.BookingEvent) error
}

type CreateBookingInput struct {
	CarID     int64       `json:"carId"`
	StartDate domain.Date `json:"startDate"`
	EndDate   domain.Date `json:"endDate"`
}

type PaymentInput struct {
	BookingID     string `json:"bookingId"`
	PaymentMethod string `json:"paymentMethod"`
	AmountCents   int64  `json:"amount"`
}

type BookingService struct {
	bookings      repository.BookingRepository
	cars          repository.CarRepository
	cache         Cache
	producer      EventPublisher
	payments      payment.Gateway
	clock         clock.Clock
	paymentWindow time.Duration
	lockTTL       time.Duration
	logger        *slog.Logger
}

type BookingServiceOption func(*BookingService)

func WithClock(c clock.Clock) BookingServiceOption {
	return func(s *BookingService) {
		s.clock = c
	}
}

func WithLogger(logger *slog.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.logger = logger
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	cars repository.CarRepository,
	cache Cache,
	producer EventPublisher,
	payments payment.Gateway,
	paymentWindow, lockTTL time.Duration,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:      bookings,
		cars:          cars,
		cache:         cache,
		producer:      producer,
		payments:      payments,
		clock:         clock.NewRealClock(),
		paymentWindow: paymentWindow,
		lockTTL:       lockTTL,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking holds one unit of the car for the caller and opens the payment window.
func (s *BookingService) CreateBooking(ctx context.Context, userID int64, input CreateBookingInput) (*domain.Booking, error) {
	now := s.clock.Now()

	if input.CarID <= 0 {
		return nil, domain.Invalidf("car id is required")
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return nil, domain.Invalidf("start and end dates are required")
	}
	if input.StartDate.Before(domain.NewDate(now).Time) {
		return nil, domain.Invalidf("start date %s is in the past", input.StartDate)
	}
	if !input.EndDate.After(input.StartDate.Time) {
		return nil, domain.Invalidf("end date must be after start date")
	}

	car, err := s.cars.GetByID(ctx, input.CarID)
	if err != nil {
		return nil, err
	}
	if !car.Available() {
		return nil, errors.Wrapf(domain.ErrOutOfStock, "car %d", car.ID)
	}

	lockOwner := uuid.NewString()
	if s.cache != nil {
		ok, err := s.cache.AcquireCarLock(ctx, car.ID, lockOwner, s.lockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.Wrapf(domain.ErrConflict, "car %d is being booked by someone else, try again", car.ID)
		}
		defer func() {
			if err := s.cache.ReleaseCarLock(context.WithoutCancel(ctx), car.ID, lockOwner); err != nil {
				s.logger.WarnContext(ctx, "failed to release car lock", "car_id", car.ID, "error", err)
			}
		}()
	}

	booking := &domain.Booking{
		ID:              uuid.NewString(),
		CarID:           car.ID,
		UserID:          userID,
		CarName:         car.Name,
		Brand:           car.Brand,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		TotalPriceCents: domain.QuotePrice(car.PricePerDayCents, input.StartDate, input.EndDate),
		PaymentDeadline: now.Add(s.paymentWindow),
	}

	if err := s.bookings.CreatePending(ctx, booking); err != nil {
		return nil, err
	}
	booking.Status = domain.BookingStatusPending

	s.logger.InfoContext(ctx, "booking created",
		"booking_id", booking.ID,
		"car_id", car.ID,
		"user_id", userID,
		"payment_deadline", booking.PaymentDeadline,
	)
	s.invalidateCatalog(ctx)
	s.publish(ctx, kafka.EventBookingCreated, booking)
	return booking, nil
}

// GetBooking hides bookings of other users behind domain.ErrNotFound.
func (s *BookingService) GetBooking(ctx context.Context, userID int64, id string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, errors.Wrapf(domain.ErrNotFound, "booking %s", id)
	}
	return booking, nil
}

func (s *BookingService) ListBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

// ConfirmPayment settles a pending booking. A payment arriving after the deadline
// expires the booking; a declined charge cancels it. Both return the stock.
func (s *BookingService) ConfirmPayment(ctx context.Context, userID int64, input PaymentInput) (*domain.Booking, error) {
	if input.BookingID == "" {
		return nil, domain.Invalidf("booking id is required")
	}
	method, err := payment.NormalizeMethod(input.PaymentMethod)
	if err != nil {
		return nil, err
	}

	current, err := s.GetBooking(ctx, userID, input.BookingID)
	if err != nil {
		return nil, err
	}

	switch current.Status {
	case domain.BookingStatusPending:
	case domain.BookingStatusExpired:
		return nil, errors.Wrapf(domain.ErrDeadlineExpired, "booking %s", current.ID)
	case domain.BookingStatusConfirmed, domain.BookingStatusCompleted, domain.BookingStatusCancelled:
		return nil, errors.Wrapf(domain.ErrNotPending, "booking %s is %s", current.ID, current.Status)
	default:
		return nil, errors.Wrapf(domain.ErrNotPending, "booking %s has unknown status %s", current.ID, current.Status)
	}

	if !s.clock.Now().Before(current.PaymentDeadline) {
		if expired, err := s.bookings.Release(ctx, current.ID, domain.BookingStatusExpired, domain.BookingStatusPending); err == nil {
			s.invalidateCatalog(ctx)
			s.publish(ctx, kafka.EventBookingExpired, expired)
		} else if !errors.Is(err, domain.ErrNotPending) {
			s.logger.ErrorContext(ctx, "failed to expire booking", "booking_id", current.ID, "error", err)
		}
		return nil, errors.Wrapf(domain.ErrDeadlineExpired, "booking %s", current.ID)
	}

	if input.AmountCents != current.TotalPriceCents {
		return nil, domain.Invalidf("amount %d does not match booking total %d", input.AmountCents, current.TotalPriceCents)
	}

	receipt, err := s.payments.Charge(ctx, payment.Charge{
		BookingID:   current.ID,
		Method:      method,
		AmountCents: input.AmountCents,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrPaymentRejected) {
			return nil, err
		}
		if cancelled, relErr := s.bookings.Release(ctx, current.ID, domain.BookingStatusCancelled, domain.BookingStatusPending); relErr == nil {
			s.invalidateCatalog(ctx)
			s.publish(ctx, kafka.EventBookingCancelled, cancelled)
		} else {
			s.logger.ErrorContext(ctx, "failed to cancel declined booking", "booking_id", current.ID, "error", relErr)
		}
		return nil, err
	}

	confirmed, err := s.bookings.Confirm(ctx, current.ID, method)
	if err != nil {
		s.logger.ErrorContext(ctx, "charge succeeded but booking could not be confirmed",
			"booking_id", current.ID, "transaction_id", receipt.TransactionID, "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "booking confirmed", "booking_id", confirmed.ID, "transaction_id", receipt.TransactionID)
	s.publish(ctx, kafka.EventBookingConfirmed, confirmed)
	return confirmed, nil
}

func (s *BookingService) CancelBooking(ctx context.Context, userID int64, id string) (*domain.Booking, error) {
	current, err := s.GetBooking(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.BookingStatusCancelled {
		return current, nil
	}
	if !current.Status.CanTransitionTo(domain.BookingStatusCancelled) {
		return nil, errors.Wrapf(domain.ErrNotPending, "booking %s is %s", id, current.Status)
	}

	cancelled, err := s.bookings.Release(ctx, id, domain.BookingStatusCancelled, domain.BookingStatusPending, domain.BookingStatusConfirmed)
	if err != nil {
		return nil, err
	}
	s.invalidateCatalog(ctx)
	s.publish(ctx, kafka.EventBookingCancelled, cancelled)
	return cancelled, nil
}

func (s *BookingService) ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error) {
	expired, err := s.bookings.ExpirePendingBefore(ctx, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if len(expired) > 0 {
		s.invalidateCatalog(ctx)
	}
	for i := range expired {
		s.publish(ctx, kafka.EventBookingExpired, &expired[i])
	}
	return expired, nil
}

// CompleteFinishedBookings closes confirmed rentals that ended before today.
func (s *BookingService) CompleteFinishedBookings(ctx context.Context) ([]domain.Booking, error) {
	completed, err := s.bookings.CompleteEndedBefore(ctx, domain.NewDate(s.clock.Now()))
	if err != nil {
		return nil, err
	}
	if len(completed) > 0 {
		s.invalidateCatalog(ctx)
	}
	for i := range completed {
		s.publish(ctx, kafka.EventBookingCompleted, &completed[i])
	}
	return completed, nil
}

func (s *BookingService) invalidateCatalog(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCatalog(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate catalog cache", "error", err)
	}
}

// publish is best effort: the booking state in Postgres is authoritative.
func (s *BookingService) publish(ctx context.Context, eventType kafka.EventType, booking *domain.Booking) {
	if s.producer == nil {
		return
	}
	event := kafka.NewBookingEvent(eventType, booking, s.clock.Now())
	if err := s.producer.PublishBookingEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish booking event", "type", eventType, "booking_id", booking.ID, "error", err)
	}
}

var _ BookingUseCase = (*BookingService)(nil)
