package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/krishna9325/Car-Rental/internal/domain"
)

type CarRepository interface {
	List(ctx context.Context) ([]domain.Car, error)
	ListByCity(ctx context.Context, cityID int64, onlyAvailable bool) ([]domain.Car, error)
	GetByID(ctx context.Context, id int64) (*domain.Car, error)
	Create(ctx context.Context, car *domain.Car) error
	Update(ctx context.Context, car *domain.Car) error
	Delete(ctx context.Context, id int64) error
}

type PGCarRepository struct {
	db *pgxpool.Pool
}

func NewCarRepository(db *pgxpool.Pool) CarRepository {
	return &PGCarRepository{db: db}
}

const carColumns = `c.id, c.city_id, ci.city_name, c.car_name, c.brand, c.details, c.price_per_day_cents, c.count,
	c.engine, c.cc, c.transmission, c.seating_capacity, c.fuel_type, c.images, c.created_at, c.updated_at`

const carFrom = ` FROM cars c JOIN cities ci ON ci.id = c.city_id`

func scanCar(row pgx.Row) (*domain.Car, error) {
	var c domain.Car
	err := row.Scan(&c.ID, &c.CityID, &c.CityName, &c.Name, &c.Brand, &c.Details, &c.PricePerDayCents, &c.Count,
		&c.Specifications.Engine, &c.Specifications.CC, &c.Specifications.Transmission,
		&c.Specifications.SeatingCapacity, &c.Specifications.FuelType, &c.Images, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if c.Images == nil {
		c.Images = []string{}
	}
	return &c, nil
}

func (r *PGCarRepository) queryCars(ctx context.Context, query string, args ...any) ([]domain.Car, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list cars")
	}
	defer rows.Close()

	cars := make([]domain.Car, 0)
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			return nil, mapError(err, "scan car")
		}
		cars = append(cars, *c)
	}
	return cars, mapError(rows.Err(), "list cars")
}

func (r *PGCarRepository) List(ctx context.Context) ([]domain.Car, error) {
	return r.queryCars(ctx, `SELECT `+carColumns+carFrom+` ORDER BY c.id`)
}

func (r *PGCarRepository) ListByCity(ctx context.Context, cityID int64, onlyAvailable bool) ([]domain.Car, error) {
	return r.queryCars(ctx, `SELECT `+carColumns+carFrom+` WHERE c.city_id=$1 AND (NOT $2 OR c.count > 0) ORDER BY c.id`, cityID, onlyAvailable)
}

func (r *PGCarRepository) GetByID(ctx context.Context, id int64) (*domain.Car, error) {
	c, err := scanCar(r.db.QueryRow(ctx, `SELECT `+carColumns+carFrom+` WHERE c.id=$1`, id))
	if err != nil {
		return nil, mapError(err, "car %d", id)
	}
	return c, nil
}

func (r *PGCarRepository) Create(ctx context.Context, car *domain.Car) error {
	s := car.Specifications
	err := r.db.QueryRow(ctx, `INSERT INTO cars (city_id, car_name, brand, details, price_per_day_cents, count,
			engine, cc, transmission, seating_capacity, fuel_type, images)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`,
		car.CityID, car.Name, car.Brand, car.Details, car.PricePerDayCents, car.Count,
		s.Engine, s.CC, s.Transmission, s.SeatingCapacity, s.FuelType, images(car.Images)).
		Scan(&car.ID, &car.CreatedAt, &car.UpdatedAt)
	return mapError(err, "create car %q", car.Name)
}

func (r *PGCarRepository) Update(ctx context.Context, car *domain.Car) error {
	s := car.Specifications
	err := r.db.QueryRow(ctx, `UPDATE cars SET city_id=$1, car_name=$2, brand=$3, details=$4, price_per_day_cents=$5, count=$6,
			engine=$7, cc=$8, transmission=$9, seating_capacity=$10, fuel_type=$11, images=$12, updated_at=now()
		WHERE id=$13
		RETURNING created_at, updated_at`,
		car.CityID, car.Name, car.Brand, car.Details, car.PricePerDayCents, car.Count,
		s.Engine, s.CC, s.Transmission, s.SeatingCapacity, s.FuelType, images(car.Images), car.ID).
		Scan(&car.CreatedAt, &car.UpdatedAt)
	return mapError(err, "update car %d", car.ID)
}

// Delete fails with a conflict while bookings still reference the car.
func (r *PGCarRepository) Delete(ctx context.Context, id int64) error {
	var deleted int64
	err := r.db.QueryRow(ctx, `DELETE FROM cars WHERE id=$1 RETURNING id`, id).Scan(&deleted)
	return mapError(err, "delete car %d", id)
}

func images(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

var _ CarRepository = (*PGCarRepository)(nil)
