// Package client talks to the storefront REST API on behalf of the checkout CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/krishna9325/Car-Rental/internal/domain"
	"github.com/krishna9325/Car-Rental/internal/reservation"
)

// Booking is a booking as returned by the API, with the server's view of the time
// left to pay.
type Booking struct {
	domain.Booking
	RemainingSeconds int64 `json:"remainingSeconds"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
	Code string `json:"code"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   SessionStore
}

func New(baseURL string, timeout time.Duration, sessions SessionStore) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		sessions:   sessions,
	}
}

func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	var session Session
	body := map[string]string{"username": username, "password": password, "role": string(domain.RoleUser)}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, false, &session); err != nil {
		return nil, err
	}
	if err := c.sessions.Save(session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) Signup(ctx context.Context, username, password string) (*Session, error) {
	var session Session
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", body, false, &session); err != nil {
		return nil, err
	}
	if err := c.sessions.Save(session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) Logout() error {
	return c.sessions.Clear()
}

func (c *Client) Cities(ctx context.Context) ([]domain.City, error) {
	var cities []domain.City
	if err := c.do(ctx, http.MethodGet, "/api/cities", nil, false, &cities); err != nil {
		return nil, err
	}
	return cities, nil
}

func (c *Client) Cars(ctx context.Context) ([]domain.Car, error) {
	var cars []domain.Car
	if err := c.do(ctx, http.MethodGet, "/api/cars", nil, false, &cars); err != nil {
		return nil, err
	}
	return cars, nil
}

func (c *Client) CarsInCity(ctx context.Context, cityID int64, onlyAvailable bool) ([]domain.Car, error) {
	path := fmt.Sprintf("/api/cities/%d/cars", cityID)
	if onlyAvailable {
		path += "?available=true"
	}
	var cars []domain.Car
	if err := c.do(ctx, http.MethodGet, path, nil, false, &cars); err != nil {
		return nil, err
	}
	return cars, nil
}

func (c *Client) CreateBooking(ctx context.Context, carID int64, start, end domain.Date) (*Booking, error) {
	body := map[string]any{
		"carId":     carID,
		"startDate": start.String(),
		"endDate":   end.String(),
	}
	var booking Booking
	if err := c.do(ctx, http.MethodPost, "/api/bookings", body, true, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *Client) Bookings(ctx context.Context) ([]Booking, error) {
	var bookings []Booking
	if err := c.do(ctx, http.MethodGet, "/api/bookings", nil, true, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (c *Client) Booking(ctx context.Context, id string) (*Booking, error) {
	var booking Booking
	if err := c.do(ctx, http.MethodGet, "/api/bookings/"+url.PathEscape(id), nil, true, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *Client) CancelBooking(ctx context.Context, id string) (*Booking, error) {
	var booking Booking
	if err := c.do(ctx, http.MethodDelete, "/api/bookings/"+url.PathEscape(id), nil, true, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// Pay submits the payment for a pending booking. A server-side expiry comes back as
// ErrPaymentRejected: the server is the authority on the deadline. So does a booking
// that is no longer payable or a request the server refused to process.
func (c *Client) Pay(ctx context.Context, req reservation.PaymentRequest) (*domain.Booking, error) {
	var booking Booking
	if err := c.do(ctx, http.MethodPost, "/api/bookings/payment", req, true, &booking); err != nil {
		if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrInvalidInput) {
			return nil, errors.Mark(err, domain.ErrPaymentRejected)
		}
		return nil, err
	}
	return &booking.Booking, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, authenticated bool, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		session, err := c.sessions.Load()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+session.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "%s %s", method, path), domain.ErrNetworkFailure)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Mark(errors.Wrap(err, "decode response"), domain.ErrNetworkFailure)
	}
	return nil
}

// decodeError turns the API error envelope back into the domain sentinels.
func decodeError(resp *http.Response) error {
	var body apiError
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)

	message := body.Error.Message
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	err := errors.Newf("server returned %d: %s", resp.StatusCode, message)

	switch {
	case body.Code == "deadline_expired", body.Code == "payment_rejected":
		return errors.Mark(err, domain.ErrPaymentRejected)
	case body.Code == "not_found" || resp.StatusCode == http.StatusNotFound:
		return errors.Mark(err, domain.ErrNotFound)
	case body.Code == "unauthorized" || resp.StatusCode == http.StatusUnauthorized:
		return errors.Mark(err, domain.ErrUnauthorized)
	case body.Code == "forbidden" || resp.StatusCode == http.StatusForbidden:
		return errors.Mark(err, domain.ErrForbidden)
	case body.Code == "invalid_request" || resp.StatusCode == http.StatusBadRequest:
		return errors.Mark(err, domain.ErrInvalidInput)
	case body.Code == "conflict" || resp.StatusCode == http.StatusConflict:
		return errors.Mark(err, domain.ErrConflict)
	case resp.StatusCode >= http.StatusInternalServerError:
		return errors.Mark(err, domain.ErrNetworkFailure)
	default:
		return err
	}
}

var _ reservation.PaymentAPI = (*Client)(nil)
