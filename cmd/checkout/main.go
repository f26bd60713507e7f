package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/krishna9325/Car-Rental/internal/client"
	"github.com/krishna9325/Car-Rental/internal/domain"
	"github.com/krishna9325/Car-Rental/internal/service/payment"
)

type settings struct {
	APIURL      string        `envconfig:"API_URL" default:"http://localhost:8080"`
	Timeout     time.Duration `envconfig:"TIMEOUT" default:"10s"`
	Username    string        `envconfig:"USERNAME"`
	Password    string        `envconfig:"PASSWORD"`
	SessionFile string        `envconfig:"SESSION_FILE"`
}

var (
	header = color.New(color.FgCyan, color.Bold)
	ok     = color.New(color.FgGreen)
	faint  = color.New(color.Faint)
)

const usage = "usage: checkout [login|signup|logout|cities|cars|book|bookings|pay|cancel] [flags]"

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	if err := run(os.Args[1], os.Args[2:]); err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			log.Fatalf("%v (run `checkout login` first)", err)
		}
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func run(cmd string, args []string) error {
	_ = godotenv.Load()

	var s settings
	if err := envconfig.Process("carrental", &s); err != nil {
		return errors.Wrap(err, "read settings")
	}
	if s.SessionFile == "" {
		path, err := client.DefaultSessionPath()
		if err != nil {
			return errors.Wrap(err, "locate session file")
		}
		s.SessionFile = path
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.New(s.APIURL, s.Timeout, client.NewFileStore(s.SessionFile))

	switch cmd {
	case "login":
		return loginCmd(ctx, api, s, args, false)
	case "signup":
		return loginCmd(ctx, api, s, args, true)
	case "logout":
		if err := api.Logout(); err != nil {
			return err
		}
		ok.Println("Logged out")
		return nil
	case "cities":
		return citiesCmd(ctx, api)
	case "cars":
		return carsCmd(ctx, api, args)
	case "book":
		return bookCmd(ctx, api, args)
	case "bookings":
		return bookingsCmd(ctx, api)
	case "pay":
		return payCmd(ctx, api, args)
	case "cancel":
		return cancelCmd(ctx, api, args)
	default:
		return errors.Newf("unknown command %q\n%s", cmd, usage)
	}
}

func loginCmd(ctx context.Context, api *client.Client, s settings, args []string, signup bool) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("username", s.Username, "username")
	password := fs.String("password", s.Password, "password")
	_ = fs.Parse(args)

	if *username == "" || *password == "" {
		return domain.Invalidf("username and password are required")
	}

	var (
		session *client.Session
		err     error
	)
	if signup {
		session, err = api.Signup(ctx, *username, *password)
	} else {
		session, err = api.Login(ctx, *username, *password)
	}
	if err != nil {
		return err
	}
	ok.Printf("Logged in as %s\n", session.Username)
	return nil
}

func citiesCmd(ctx context.Context, api *client.Client) error {
	cities, err := api.Cities(ctx)
	if err != nil {
		return err
	}
	header.Println("Cities")
	for _, city := range cities {
		fmt.Printf("  %-4d %s (%d)\n", city.ID, city.Name, city.PinCode)
	}
	return nil
}

func carsCmd(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("cars", flag.ExitOnError)
	cityID := fs.Int64("city", 0, "city id")
	available := fs.Bool("available", false, "only cars in stock")
	_ = fs.Parse(args)

	var (
		cars []domain.Car
		err  error
	)
	if *cityID > 0 {
		cars, err = api.CarsInCity(ctx, *cityID, *available)
	} else {
		cars, err = api.Cars(ctx)
	}
	if err != nil {
		return err
	}

	header.Println("Cars")
	for _, car := range cars {
		line := fmt.Sprintf("  %-4d %s %s  ₹%d.%02d/day  %d left", car.ID, car.Brand, car.Name,
			car.PricePerDayCents/100, car.PricePerDayCents%100, car.Count)
		if car.Available() {
			fmt.Println(line)
		} else {
			faint.Println(line)
		}
	}
	return nil
}

func bookCmd(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("book", flag.ExitOnError)
	carID := fs.Int64("car", 0, "car id")
	from := fs.String("from", "", "start date (YYYY-MM-DD)")
	to := fs.String("to", "", "end date (YYYY-MM-DD)")
	_ = fs.Parse(args)

	if *carID <= 0 || *from == "" || *to == "" {
		return domain.Invalidf("car, from and to are required")
	}
	start, err := domain.ParseDate(*from)
	if err != nil {
		return err
	}
	end, err := domain.ParseDate(*to)
	if err != nil {
		return err
	}

	booking, err := api.CreateBooking(ctx, *carID, start, end)
	if err != nil {
		return err
	}
	ok.Printf("Booking %s created for %s %s\n", booking.ID, booking.Brand, booking.CarName)
	fmt.Printf("Pay ₹%d.%02d within %ds: checkout pay --booking %s --method CARD\n",
		booking.TotalPriceCents/100, booking.TotalPriceCents%100, booking.RemainingSeconds, booking.ID)
	return nil
}

func bookingsCmd(ctx context.Context, api *client.Client) error {
	bookings, err := api.Bookings(ctx)
	if err != nil {
		return err
	}
	header.Println("Bookings")
	for _, b := range bookings {
		fmt.Printf("  %s  %-9s %s %s  %s -> %s\n", b.ID, b.Status, b.Brand, b.CarName, b.StartDate, b.EndDate)
	}
	return nil
}

func payCmd(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("pay", flag.ExitOnError)
	bookingID := fs.String("booking", "", "booking id")
	method := fs.String("method", payment.MethodCard, "CARD or UPI")
	number := fs.String("card", "", "card number")
	holder := fs.String("holder", "", "card holder name")
	expiry := fs.String("expiry", "", "card expiry (MM/YY)")
	cvv := fs.String("cvv", "", "card cvv")
	attempts := fs.Int("attempts", 3, "payment attempts while the window is open")
	qrOut := fs.String("qr-out", "upi-qr.png", "where to write the UPI QR code")
	_ = fs.Parse(args)

	if *bookingID == "" {
		return domain.Invalidf("booking is required")
	}
	m, err := payment.NormalizeMethod(*method)
	if err != nil {
		return err
	}

	booking, err := api.Booking(ctx, *bookingID)
	if err != nil {
		return err
	}

	switch m {
	case payment.MethodCard:
		card := client.Card{Number: *number, Holder: *holder, Expiry: *expiry, CVV: *cvv}
		if err := card.Validate(time.Now()); err != nil {
			return err
		}
		fmt.Printf("Paying with card %s\n", card.Masked())
	case payment.MethodUPI:
		png, err := client.UPIQRCode(booking.ID, booking.TotalPriceCents)
		if err != nil {
			return err
		}
		if err := os.WriteFile(*qrOut, png, 0o644); err != nil {
			return errors.Wrap(err, "write upi qr code")
		}
		fmt.Printf("Scan %s or open %s\n", *qrOut, client.UPILink(booking.ID, booking.TotalPriceCents))
	}

	checkout := client.NewCheckout(api, os.Stdout, client.WithAttempts(*attempts))
	confirmed, err := checkout.Pay(ctx, booking.Booking, m)
	if err != nil {
		return err
	}
	fmt.Printf("Status: %s, paid with %s\n", confirmed.Status, strings.ToUpper(confirmed.PaymentMethod))
	return nil
}

func cancelCmd(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	bookingID := fs.String("booking", "", "booking id")
	_ = fs.Parse(args)

	if *bookingID == "" {
		return domain.Invalidf("booking is required")
	}
	booking, err := api.CancelBooking(ctx, *bookingID)
	if err != nil {
		return err
	}
	ok.Printf("Booking %s is %s\n", booking.ID, booking.Status)
	return nil
}
