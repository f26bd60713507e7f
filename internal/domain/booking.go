package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusExpired   BookingStatus = "EXPIRED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

func ParseBookingStatus(s string) (BookingStatus, error) {
	switch status := BookingStatus(s); status {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted,
		BookingStatusExpired, BookingStatusCancelled:
		return status, nil
	default:
		return "", Invalidf("unknown booking status %q", s)
	}
}

// IsTerminal reports whether no further transition can leave the status.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingStatusCompleted, BookingStatusExpired, BookingStatusCancelled:
		return true
	case BookingStatusPending, BookingStatusConfirmed:
		return false
	default:
		return true
	}
}

// CanTransitionTo enforces the monotonic lifecycle
// PENDING -> {CONFIRMED, EXPIRED, CANCELLED}, CONFIRMED -> {COMPLETED, CANCELLED}.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case BookingStatusPending:
		return next == BookingStatusConfirmed || next == BookingStatusExpired || next == BookingStatusCancelled
	case BookingStatusConfirmed:
		return next == BookingStatusCompleted || next == BookingStatusCancelled
	case BookingStatusCompleted, BookingStatusExpired, BookingStatusCancelled:
		return false
	default:
		return false
	}
}

type Booking struct {
	ID              string        `json:"bookingId"`
	CarID           int64         `json:"carId"`
	UserID          int64         `json:"userId"`
	CarName         string        `json:"carName,omitempty"`
	Brand           string        `json:"brand,omitempty"`
	StartDate       Date          `json:"startDate"`
	EndDate         Date          `json:"endDate"`
	TotalPriceCents int64         `json:"totalPriceCents"`
	Status          BookingStatus `json:"status"`
	PaymentDeadline time.Time     `json:"paymentDeadline"`
	PaymentMethod   string        `json:"paymentMethod,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// RemainingSeconds is the whole number of seconds left in the payment window at now.
// Only pending bookings have a window.
func (b *Booking) RemainingSeconds(now time.Time) int64 {
	if b.Status != BookingStatusPending {
		return 0
	}
	remaining := b.PaymentDeadline.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int64(remaining / time.Second)
}

// QuotePrice is the price of renting for the given dates; same-day rentals are billed
// as one day.
func QuotePrice(pricePerDayCents int64, start, end Date) int64 {
	days := DaysBetween(start, end)
	if days < 1 {
		days = 1
	}
	return pricePerDayCents * int64(days)
}
