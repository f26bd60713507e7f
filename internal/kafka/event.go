package kafka

import (
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/kafka-go"

	"github.com/krishna9325/Car-Rental/internal/domain"
)

type EventType string

const (
	EventBookingCreated   EventType = "booking_created"
	EventBookingConfirmed EventType = "booking_confirmed"
	EventBookingCancelled EventType = "booking_cancelled"
	EventBookingExpired   EventType = "booking_expired"
	EventBookingCompleted EventType = "booking_completed"
)

type BookingEvent struct {
	Type            EventType `json:"type"`
	BookingID       string    `json:"booking_id"`
	CarID           int64     `json:"car_id"`
	CarName         string    `json:"car_name,omitempty"`
	UserID          int64     `json:"user_id"`
	Status          string    `json:"status"`
	StartDate       string    `json:"start_date"`
	EndDate         string    `json:"end_date"`
	TotalPriceCents int64     `json:"total_price_cents"`
	PaymentDeadline time.Time `json:"payment_deadline"`
	OccurredAt      time.Time `json:"occurred_at"`
}

func NewBookingEvent(eventType EventType, b *domain.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:            eventType,
		BookingID:       b.ID,
		CarID:           b.CarID,
		CarName:         b.CarName,
		UserID:          b.UserID,
		Status:          string(b.Status),
		StartDate:       b.StartDate.String(),
		EndDate:         b.EndDate.String(),
		TotalPriceCents: b.TotalPriceCents,
		PaymentDeadline: b.PaymentDeadline,
		OccurredAt:      at,
	}
}

func DecodeBookingEvent(msg kafka.Message) (BookingEvent, error) {
	var event BookingEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return BookingEvent{}, errors.Wrapf(err, "decode booking event at offset %d", msg.Offset)
	}
	if event.BookingID == "" || event.Type == "" {
		return BookingEvent{}, errors.Newf("booking event at offset %d is missing type or booking id", msg.Offset)
	}
	return event, nil
}
