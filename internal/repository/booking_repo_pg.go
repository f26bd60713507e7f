package repository

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/krishna9325/Car-Rental/internal/domain"
)

type BookingRepository interface {
	CreatePending(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	Confirm(ctx context.Context, id, paymentMethod string) (*domain.Booking, error)
	Release(ctx context.Context, id string, to domain.BookingStatus, from ...domain.BookingStatus) (*domain.Booking, error)
	ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
	CompleteEndedBefore(ctx context.Context, day domain.Date) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `b.id, b.car_id, b.user_id, c.car_name, c.brand, b.start_date, b.end_date, b.total_price_cents,
	b.status, b.payment_deadline, COALESCE(b.payment_method, ''), b.created_at, b.updated_at`

// releaseStock returns one unit of stock per released booking to its car.
const releaseStock = `restored AS (
		UPDATE cars SET count = cars.count + r.n, updated_at = now()
		FROM (SELECT car_id, COUNT(*) AS n FROM released GROUP BY car_id) r
		WHERE cars.id = r.car_id
	)`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.ID, &b.CarID, &b.UserID, &b.CarName, &b.Brand, &b.StartDate.Time, &b.EndDate.Time,
		&b.TotalPriceCents, &b.Status, &b.PaymentDeadline, &b.PaymentMethod, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// CreatePending takes one unit of the car's stock and inserts the booking in a single
// transaction. It fails with domain.ErrOutOfStock when no unit is left.
func (r *PGBookingRepository) CreatePending(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin create booking")
	}
	defer tx.Rollback(ctx)

	var remaining int
	err = tx.QueryRow(ctx, `UPDATE cars SET count = count - 1, updated_at = now() WHERE id=$1 AND count > 0 RETURNING count`, booking.CarID).
		Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return errors.Wrapf(domain.ErrOutOfStock, "car %d", booking.CarID)
	}
	if err != nil {
		return mapError(err, "reserve car %d", booking.CarID)
	}

	booking.Status = domain.BookingStatusPending
	if err := tx.QueryRow(ctx, `INSERT INTO bookings (id, car_id, user_id, start_date, end_date, total_price_cents, status, payment_deadline)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		booking.ID, booking.CarID, booking.UserID, booking.StartDate.Time, booking.EndDate.Time,
		booking.TotalPriceCents, booking.Status, booking.PaymentDeadline).
		Scan(&booking.CreatedAt, &booking.UpdatedAt); err != nil {
		return mapError(err, "insert booking %s", booking.ID)
	}

	return errors.Wrap(tx.Commit(ctx), "commit create booking")
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings b JOIN cars c ON c.id = b.car_id WHERE b.id=$1`, id))
	if err != nil {
		return nil, mapError(err, "booking %s", id)
	}
	return b, nil
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings b JOIN cars c ON c.id = b.car_id
		WHERE b.user_id=$1 ORDER BY b.created_at DESC`, userID)
	if err != nil {
		return nil, mapError(err, "list bookings of user %d", userID)
	}
	bookings, err := collectBookings(rows)
	return bookings, mapError(err, "list bookings of user %d", userID)
}

// Confirm moves a pending booking to CONFIRMED. It fails with domain.ErrNotPending
// when the booking left PENDING concurrently.
func (r *PGBookingRepository) Confirm(ctx context.Context, id, paymentMethod string) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `WITH updated AS (
			UPDATE bookings SET status=$1, payment_method=$2, updated_at=now()
			WHERE id=$3 AND status=$4
			RETURNING *
		)
		SELECT `+bookingColumns+` FROM updated b JOIN cars c ON c.id = b.car_id`,
		domain.BookingStatusConfirmed, paymentMethod, id, domain.BookingStatusPending))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrapf(domain.ErrNotPending, "booking %s", id)
	}
	if err != nil {
		return nil, mapError(err, "confirm booking %s", id)
	}
	return b, nil
}

// Release moves a booking currently in one of the from statuses to a terminal status
// and gives its unit of stock back, atomically.
func (r *PGBookingRepository) Release(ctx context.Context, id string, to domain.BookingStatus, from ...domain.BookingStatus) (*domain.Booking, error) {
	statuses := make([]string, 0, len(from))
	for _, s := range from {
		if !s.CanTransitionTo(to) {
			return nil, domain.Invalidf("booking cannot move from %s to %s", s, to)
		}
		statuses = append(statuses, string(s))
	}

	b, err := scanBooking(r.db.QueryRow(ctx, `WITH released AS (
			UPDATE bookings SET status=$1, updated_at=now()
			WHERE id=$2 AND status = ANY($3)
			RETURNING *
		), `+releaseStock+`
		SELECT `+bookingColumns+` FROM released b JOIN cars c ON c.id = b.car_id`,
		to, id, statuses))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrapf(domain.ErrNotPending, "booking %s", id)
	}
	if err != nil {
		return nil, mapError(err, "release booking %s", id)
	}
	return b, nil
}

// ExpirePendingBefore expires every pending booking whose payment deadline is at or
// before deadline and restores the stock they held.
func (r *PGBookingRepository) ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `WITH released AS (
			UPDATE bookings SET status=$1, updated_at=now()
			WHERE status=$2 AND payment_deadline <= $3
			RETURNING *
		), `+releaseStock+`
		SELECT `+bookingColumns+` FROM released b JOIN cars c ON c.id = b.car_id`,
		domain.BookingStatusExpired, domain.BookingStatusPending, deadline)
	if err != nil {
		return nil, mapError(err, "expire pending bookings")
	}
	expired, err := collectBookings(rows)
	return expired, mapError(err, "expire pending bookings")
}

// CompleteEndedBefore completes confirmed bookings whose rental ended before day and
// returns their cars to stock.
func (r *PGBookingRepository) CompleteEndedBefore(ctx context.Context, day domain.Date) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `WITH released AS (
			UPDATE bookings SET status=$1, updated_at=now()
			WHERE status=$2 AND end_date < $3
			RETURNING *
		), `+releaseStock+`
		SELECT `+bookingColumns+` FROM released b JOIN cars c ON c.id = b.car_id`,
		domain.BookingStatusCompleted, domain.BookingStatusConfirmed, day.Time)
	if err != nil {
		return nil, mapError(err, "complete finished bookings")
	}
	completed, err := collectBookings(rows)
	return completed, mapError(err, "complete finished bookings")
}

var _ BookingRepository = (*PGBookingRepository)(nil)
