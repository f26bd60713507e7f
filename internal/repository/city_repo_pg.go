package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/krishna9325/Car-Rental/internal/domain"
)

type CityRepository interface {
	List(ctx context.Context) ([]domain.City, error)
	GetByID(ctx context.Context, id int64) (*domain.City, error)
	Create(ctx context.Context, city *domain.City) error
	Update(ctx context.Context, city *domain.City) error
	Delete(ctx context.Context, id int64) error
}

type PGCityRepository struct {
	db *pgxpool.Pool
}

func NewCityRepository(db *pgxpool.Pool) CityRepository {
	return &PGCityRepository{db: db}
}

func (r *PGCityRepository) List(ctx context.Context) ([]domain.City, error) {
	rows, err := r.db.Query(ctx, `SELECT id, city_name, pin_code, created_at, updated_at FROM cities ORDER BY city_name`)
	if err != nil {
		return nil, mapError(err, "list cities")
	}
	defer rows.Close()

	cities := make([]domain.City, 0)
	for rows.Next() {
		var c domain.City
		if err := rows.Scan(&c.ID, &c.Name, &c.PinCode, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, mapError(err, "scan city")
		}
		cities = append(cities, c)
	}
	return cities, mapError(rows.Err(), "list cities")
}

func (r *PGCityRepository) GetByID(ctx context.Context, id int64) (*domain.City, error) {
	row := r.db.QueryRow(ctx, `SELECT id, city_name, pin_code, created_at, updated_at FROM cities WHERE id=$1`, id)
	var c domain.City
	if err := row.Scan(&c.ID, &c.Name, &c.PinCode, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, mapError(err, "city %d", id)
	}
	return &c, nil
}

func (r *PGCityRepository) Create(ctx context.Context, city *domain.City) error {
	err := r.db.QueryRow(ctx, `INSERT INTO cities (city_name, pin_code) VALUES ($1, $2) RETURNING id, created_at, updated_at`,
		city.Name, city.PinCode).Scan(&city.ID, &city.CreatedAt, &city.UpdatedAt)
	return mapError(err, "create city %q", city.Name)
}

func (r *PGCityRepository) Update(ctx context.Context, city *domain.City) error {
	err := r.db.QueryRow(ctx, `UPDATE cities SET city_name=$1, pin_code=$2, updated_at=now() WHERE id=$3 RETURNING created_at, updated_at`,
		city.Name, city.PinCode, city.ID).Scan(&city.CreatedAt, &city.UpdatedAt)
	return mapError(err, "update city %d", city.ID)
}

// Delete fails with a conflict while cars still reference the city.
func (r *PGCityRepository) Delete(ctx context.Context, id int64) error {
	var deleted int64
	err := r.db.QueryRow(ctx, `DELETE FROM cities WHERE id=$1 RETURNING id`, id).Scan(&deleted)
	return mapError(err, "delete city %d", id)
}

var _ CityRepository = (*PGCityRepository)(nil)
