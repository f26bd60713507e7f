package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/krishna9325/Car-Rental/internal/kafka"
)

type Message struct {
	UserID    int64  `json:"userId"`
	BookingID string `json:"bookingId"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// Publisher forwards composed messages to a downstream delivery topic.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

// Sender turns booking events into customer notifications. Delivery is a structured
// log line, optionally forwarded to an outbox topic for a real mailer.
type Sender struct {
	logger *slog.Logger
	outbox Publisher
	topic  string
}

func NewSender(logger *slog.Logger) *Sender {
	return &Sender{logger: logger}
}

// WithOutbox forwards every notification to topic.
func (s *Sender) WithOutbox(p Publisher, topic string) *Sender {
	s.outbox = p
	s.topic = topic
	return s
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	msg, ok := Compose(event)
	if !ok {
		s.logger.DebugContext(ctx, "no notification for event", "type", event.Type, "booking_id", event.BookingID)
		return nil
	}

	s.logger.InfoContext(ctx, "notification sent",
		"user_id", msg.UserID,
		"booking_id", event.BookingID,
		"subject", msg.Subject,
		"body", msg.Body,
	)

	if s.outbox == nil || s.topic == "" {
		return nil
	}
	return s.outbox.Publish(ctx, s.topic, msg.BookingID, msg)
}

func Compose(event kafka.BookingEvent) (Message, bool) {
	car := event.CarName
	if car == "" {
		car = fmt.Sprintf("car #%d", event.CarID)
	}
	period := fmt.Sprintf("%s to %s", event.StartDate, event.EndDate)

	var subject, body string
	switch event.Type {
	case kafka.EventBookingCreated:
		subject = "Complete your payment"
		body = fmt.Sprintf("Your booking %s for %s (%s) is reserved. Pay %s before %s to confirm it.",
			event.BookingID, car, period, formatAmount(event.TotalPriceCents), event.PaymentDeadline.Format("15:04 MST"))
	case kafka.EventBookingConfirmed:
		subject = "Booking confirmed"
		body = fmt.Sprintf("Payment received. %s is yours from %s.", car, period)
	case kafka.EventBookingExpired:
		subject = "Booking expired"
		body = fmt.Sprintf("The payment window for booking %s closed and %s was released.", event.BookingID, car)
	case kafka.EventBookingCancelled:
		subject = "Booking cancelled"
		body = fmt.Sprintf("Booking %s for %s (%s) was cancelled.", event.BookingID, car, period)
	case kafka.EventBookingCompleted:
		subject = "Thanks for riding with us"
		body = fmt.Sprintf("Your rental of %s (%s) is complete.", car, period)
	default:
		return Message{}, false
	}

	return Message{UserID: event.UserID, BookingID: event.BookingID, Subject: subject, Body: body}, true
}

func formatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
