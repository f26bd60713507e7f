package domain

import "time"

type City struct {
	ID        int64     `json:"id"`
	Name      string    `json:"cityName"`
	PinCode   int64     `json:"pinCode"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Specifications struct {
	Engine          string `json:"engine"`
	CC              int    `json:"cc"`
	Transmission    string `json:"transmission"`
	SeatingCapacity int    `json:"seatingCapacity"`
	FuelType        string `json:"fuelType"`
}

type Car struct {
	ID               int64          `json:"id"`
	CityID           int64          `json:"cityId"`
	CityName         string         `json:"cityName,omitempty"`
	Name             string         `json:"carName"`
	Brand            string         `json:"brand"`
	Details          string         `json:"details"`
	PricePerDayCents int64          `json:"pricePerDayCents"`
	Count            int            `json:"count"`
	Specifications   Specifications `json:"specifications"`
	Images           []string       `json:"images"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

func (c *Car) Available() bool {
	return c.Count > 0
}

func (c *City) Validate() error {
	if c.Name == "" {
		return Invalidf("city name is required")
	}
	if c.PinCode <= 0 {
		return Invalidf("pin code must be positive")
	}
	return nil
}

func (c *Car) Validate() error {
	if c.Name == "" {
		return Invalidf("car name is required")
	}
	if c.Brand == "" {
		return Invalidf("brand is required")
	}
	if c.CityID <= 0 {
		return Invalidf("city id is required")
	}
	if c.PricePerDayCents <= 0 {
		return Invalidf("price per day must be positive")
	}
	if c.Count < 0 {
		return Invalidf("count must not be negative")
	}
	return nil
}
