package client

import (
	"strconv"
	"strings"
	"time"

	"github.com/krishna9325/Car-Rental/internal/domain"
)

type Card struct {
	Number string
	Holder string
	Expiry string // MM/YY
	CVV    string
}

// Validate checks the card locally before any payment call is made. A card is valid
// through the last day of its expiry month.
func (c Card) Validate(now time.Time) error {
	number := strings.ReplaceAll(c.Number, " ", "")
	if len(number) != 16 || !digits(number) {
		return domain.Invalidf("card number must be 16 digits")
	}
	if strings.TrimSpace(c.Holder) == "" {
		return domain.Invalidf("card holder name is required")
	}
	if len(c.CVV) != 3 || !digits(c.CVV) {
		return domain.Invalidf("cvv must be 3 digits")
	}

	month, year, ok := parseExpiry(c.Expiry)
	if !ok {
		return domain.Invalidf("expiry must be in MM/YY format")
	}
	firstOfNextMonth := time.Date(2000+year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	if !now.UTC().Before(firstOfNextMonth) {
		return domain.Invalidf("card expired in %s", c.Expiry)
	}
	return nil
}

// Masked returns the number with all but the last four digits hidden.
func (c Card) Masked() string {
	number := strings.ReplaceAll(c.Number, " ", "")
	if len(number) < 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}

func parseExpiry(s string) (month, year int, ok bool) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, 0, false
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	year, err = strconv.Atoi(parts[1])
	if err != nil || year < 0 {
		return 0, 0, false
	}
	return month, year, true
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
