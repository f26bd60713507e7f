package client

import (
	"fmt"
	"net/url"

	"github.com/cockroachdb/errors"
	"github.com/skip2/go-qrcode"
)

const upiPayee = "carrental@upi"

// UPILink builds the upi:// intent for a booking. Amounts are in paise.
func UPILink(bookingID string, amountCents int64) string {
	q := url.Values{}
	q.Set("pa", upiPayee)
	q.Set("pn", "Car Rental")
	q.Set("am", formatAmount(amountCents))
	q.Set("cu", "INR")
	q.Set("tn", "Booking "+bookingID)
	return "upi://pay?" + q.Encode()
}

// UPIQRCode renders UPILink as a PNG for scanning with a payment app.
func UPIQRCode(bookingID string, amountCents int64) ([]byte, error) {
	png, err := qrcode.Encode(UPILink(bookingID, amountCents), qrcode.Medium, 256)
	if err != nil {
		return nil, errors.Wrap(err, "encode upi qr code")
	}
	return png, nil
}

func formatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
