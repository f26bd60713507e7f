package catalog

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/krishna9325/Car-Rental/internal/domain"
	"github.com/krishna9325/Car-Rental/internal/repository"
)

type CatalogUseCase interface {
	ListCities(ctx context.Context) ([]domain.City, error)
	GetCity(ctx context.Context, id int64) (*domain.City, error)
	CreateCity(ctx context.Context, city *domain.City) error
	UpdateCity(ctx context.Context, city *domain.City) error
	DeleteCity(ctx context.Context, id int64) error

	ListCars(ctx context.Context) ([]domain.Car, error)
	ListCarsByCity(ctx context.Context, cityID int64, onlyAvailable bool) ([]domain.Car, error)
	GetCar(ctx context.Context, id int64) (*domain.Car, error)
	CreateCar(ctx context.Context, car *domain.Car) error
	UpdateCar(ctx context.Context, car *domain.Car) error
	DeleteCar(ctx context.Context, id int64) error
}

type Cache interface {
	GetCities(ctx context.Context) ([]domain.City, error)
	SetCities(ctx context.Context, cities []domain.City) error
	GetCars(ctx context.Context) ([]domain.Car, error)
	SetCars(ctx context.Context, cars []domain.Car) error
	InvalidateCatalog(ctx context.Context) error
}

type CatalogService struct {
	cities repository.CityRepository
	cars   repository.CarRepository
	cache  Cache
	logger *slog.Logger
}

func NewCatalogService(cities repository.CityRepository, cars repository.CarRepository, cache Cache, logger *slog.Logger) *CatalogService {
	return &CatalogService{cities: cities, cars: cars, cache: cache, logger: logger}
}

func (s *CatalogService) ListCities(ctx context.Context) ([]domain.City, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetCities(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	cities, err := s.cities.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetCities(ctx, cities); err != nil {
			s.logger.WarnContext(ctx, "failed to cache cities", "error", err)
		}
	}
	return cities, nil
}

func (s *CatalogService) GetCity(ctx context.Context, id int64) (*domain.City, error) {
	return s.cities.GetByID(ctx, id)
}

func (s *CatalogService) CreateCity(ctx context.Context, city *domain.City) error {
	if err := city.Validate(); err != nil {
		return err
	}
	if err := s.cities.Create(ctx, city); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) UpdateCity(ctx context.Context, city *domain.City) error {
	if err := city.Validate(); err != nil {
		return err
	}
	if err := s.cities.Update(ctx, city); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) DeleteCity(ctx context.Context, id int64) error {
	if err := s.cities.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return errors.Wrapf(err, "city %d still has cars", id)
		}
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) ListCars(ctx context.Context) ([]domain.Car, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetCars(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	cars, err := s.cars.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetCars(ctx, cars); err != nil {
			s.logger.WarnContext(ctx, "failed to cache cars", "error", err)
		}
	}
	return cars, nil
}

// ListCarsByCity fails with domain.ErrNotFound for an unknown city rather than
// returning an empty list.
func (s *CatalogService) ListCarsByCity(ctx context.Context, cityID int64, onlyAvailable bool) ([]domain.Car, error) {
	if _, err := s.cities.GetByID(ctx, cityID); err != nil {
		return nil, err
	}
	return s.cars.ListByCity(ctx, cityID, onlyAvailable)
}

func (s *CatalogService) GetCar(ctx context.Context, id int64) (*domain.Car, error) {
	return s.cars.GetByID(ctx, id)
}

func (s *CatalogService) CreateCar(ctx context.Context, car *domain.Car) error {
	if err := s.validateCar(ctx, car); err != nil {
		return err
	}
	if err := s.cars.Create(ctx, car); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) UpdateCar(ctx context.Context, car *domain.Car) error {
	if err := s.validateCar(ctx, car); err != nil {
		return err
	}
	if err := s.cars.Update(ctx, car); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) DeleteCar(ctx context.Context, id int64) error {
	if err := s.cars.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return errors.Wrapf(err, "car %d has bookings", id)
		}
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) validateCar(ctx context.Context, car *domain.Car) error {
	if err := car.Validate(); err != nil {
		return err
	}
	city, err := s.cities.GetByID(ctx, car.CityID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Invalidf("city %d does not exist", car.CityID)
		}
		return err
	}
	car.CityName = city.Name
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCatalog(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate catalog cache", "error", err)
	}
}

var _ CatalogUseCase = (*CatalogService)(nil)
