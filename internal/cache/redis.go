package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"

	"github.com/krishna9325/Car-Rental/config"
	"github.com/krishna9325/Car-Rental/internal/domain"
)

// releaseLockScript deletes the lock only while it is still held by the caller.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisCache struct {
	client     *redis.Client
	catalogTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, catalogTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		catalogTTL,
	)
}

func NewRedisCacheWithClient(client *redis.Client, catalogTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, catalogTTL: catalogTTL}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetCities returns nil, nil on a cache miss.
func (c *RedisCache) GetCities(ctx context.Context) ([]domain.City, error) {
	var cities []domain.City
	ok, err := c.getJSON(ctx, citiesKey(), &cities)
	if err != nil || !ok {
		return nil, err
	}
	return cities, nil
}

func (c *RedisCache) SetCities(ctx context.Context, cities []domain.City) error {
	return c.setJSON(ctx, citiesKey(), cities)
}

// GetCars returns nil, nil on a cache miss.
func (c *RedisCache) GetCars(ctx context.Context) ([]domain.Car, error) {
	var cars []domain.Car
	ok, err := c.getJSON(ctx, carsKey(), &cars)
	if err != nil || !ok {
		return nil, err
	}
	return cars, nil
}

func (c *RedisCache) SetCars(ctx context.Context, cars []domain.Car) error {
	return c.setJSON(ctx, carsKey(), cars)
}

// InvalidateCatalog drops the cached city and car lists. Stock changes go through
// here too since the car list carries counts.
func (c *RedisCache) InvalidateCatalog(ctx context.Context) error {
	return errors.Wrap(c.client.Del(ctx, citiesKey(), carsKey()).Err(), "invalidate catalog cache")
}

// AcquireCarLock takes the short-lived booking lock on a car for owner.
func (c *RedisCache) AcquireCarLock(ctx context.Context, carID int64, owner string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, carLockKey(carID), owner, ttl).Result()
	if err != nil {
		return false, errors.Wrapf(err, "acquire lock on car %d", carID)
	}
	return ok, nil
}

// ReleaseCarLock releases the lock if owner still holds it. A lock that expired or
// was taken over by someone else is left alone.
func (c *RedisCache) ReleaseCarLock(ctx context.Context, carID int64, owner string) error {
	err := releaseLockScript.Run(ctx, c.client, []string{carLockKey(carID)}, owner).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return errors.Wrapf(err, "release lock on car %d", carID)
	}
	return nil
}

func (c *RedisCache) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, errors.Wrapf(err, "get %s", key)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, errors.Wrapf(err, "decode %s", key)
	}
	return true, nil
}

func (c *RedisCache) setJSON(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	return errors.Wrapf(c.client.Set(ctx, key, payload, c.catalogTTL).Err(), "set %s", key)
}

func citiesKey() string {
	return "cache:cities"
}

func carsKey() string {
	return "cache:cars"
}

func carLockKey(carID int64) string {
	return fmt.Sprintf("lock:car:%d", carID)
}
