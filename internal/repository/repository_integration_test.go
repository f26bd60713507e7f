//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/krishna9325/Car-Rental/config"
	"github.com/krishna9325/Car-Rental/internal/domain"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "rental",
				"POSTGRES_PASSWORD": "rental",
				"POSTGRES_DB":       "rental",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := config.DatabaseConfig{
		Host:     host,
		Port:     port.Int(),
		User:     "rental",
		Password: "rental",
		Name:     "rental",
		SSLMode:  "disable",
	}
	require.NoError(t, Migrate(cfg.URL()))

	pool, err := pgxpool.New(ctx, cfg.DSN())
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestBookingLifecycle_Postgres(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()

	users := NewUserRepository(pool)
	cities := NewCityRepository(pool)
	cars := NewCarRepository(pool)
	bookings := NewBookingRepository(pool)

	user := &domain.User{Username: "asha", PasswordHash: "hash", Role: domain.RoleUser}
	require.NoError(t, users.Create(ctx, user))
	assert.True(t, errors.Is(users.Create(ctx, &domain.User{Username: "asha", PasswordHash: "x", Role: domain.RoleUser}), domain.ErrConflict))

	city := &domain.City{Name: "Pune", PinCode: 411001}
	require.NoError(t, cities.Create(ctx, city))

	car := &domain.Car{CityID: city.ID, Name: "Creta", Brand: "Hyundai", PricePerDayCents: 250000, Count: 1}
	require.NoError(t, cars.Create(ctx, car))

	start, _ := domain.ParseDate("2026-05-01")
	end, _ := domain.ParseDate("2026-05-03")
	now := time.Now().UTC().Truncate(time.Second)

	first := &domain.Booking{
		ID: uuid.NewString(), CarID: car.ID, UserID: user.ID, StartDate: start, EndDate: end,
		TotalPriceCents: 500000, PaymentDeadline: now.Add(5 * time.Minute),
	}
	require.NoError(t, bookings.CreatePending(ctx, first))

	second := *first
	second.ID = uuid.NewString()
	assert.True(t, errors.Is(bookings.CreatePending(ctx, &second), domain.ErrOutOfStock))

	available, err := cars.ListByCity(ctx, city.ID, true)
	require.NoError(t, err)
	assert.Empty(t, available)

	confirmed, err := bookings.Confirm(ctx, first.ID, "CARD")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, confirmed.Status)
	assert.Equal(t, "Creta", confirmed.CarName)

	_, err = bookings.Confirm(ctx, first.ID, "CARD")
	assert.True(t, errors.Is(err, domain.ErrNotPending))

	cancelled, err := bookings.Release(ctx, first.ID, domain.BookingStatusCancelled, domain.BookingStatusPending, domain.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, cancelled.Status)

	restored, err := cars.GetByID(ctx, car.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Count)

	stale := &domain.Booking{
		ID: uuid.NewString(), CarID: car.ID, UserID: user.ID, StartDate: start, EndDate: end,
		TotalPriceCents: 500000, PaymentDeadline: now.Add(-time.Second),
	}
	require.NoError(t, bookings.CreatePending(ctx, stale))

	expired, err := bookings.ExpirePendingBefore(ctx, now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, stale.ID, expired[0].ID)
	assert.Equal(t, domain.BookingStatusExpired, expired[0].Status)

	restored, err = cars.GetByID(ctx, car.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Count)

	mine, err := bookings.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = bookings.GetByID(ctx, uuid.NewString())
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	assert.True(t, errors.Is(cities.Delete(ctx, city.ID), domain.ErrConflict))
}

func TestCompleteEndedBefore_Postgres(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()

	user := &domain.User{Username: "ravi", PasswordHash: "hash", Role: domain.RoleUser}
	require.NoError(t, NewUserRepository(pool).Create(ctx, user))
	city := &domain.City{Name: "Goa", PinCode: 403001}
	require.NoError(t, NewCityRepository(pool).Create(ctx, city))
	car := &domain.Car{CityID: city.ID, Name: "Thar", Brand: "Mahindra", PricePerDayCents: 300000, Count: 2}
	carRepo := NewCarRepository(pool)
	require.NoError(t, carRepo.Create(ctx, car))

	bookings := NewBookingRepository(pool)
	start, _ := domain.ParseDate("2026-01-01")
	end, _ := domain.ParseDate("2026-01-04")
	b := &domain.Booking{
		ID: uuid.NewString(), CarID: car.ID, UserID: user.ID, StartDate: start, EndDate: end,
		TotalPriceCents: 900000, PaymentDeadline: time.Now().Add(time.Minute),
	}
	require.NoError(t, bookings.CreatePending(ctx, b))
	_, err := bookings.Confirm(ctx, b.ID, "UPI")
	require.NoError(t, err)

	today, _ := domain.ParseDate("2026-01-05")
	completed, err := bookings.CompleteEndedBefore(ctx, today)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, domain.BookingStatusCompleted, completed[0].Status)

	stock, err := carRepo.GetByID(ctx, car.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stock.Count)
}
