package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/krishna9325/Car-Rental/internal/clock"
	"github.com/krishna9325/Car-Rental/internal/domain"
	"github.com/krishna9325/Car-Rental/internal/service/booking"
)

type BookingHandler struct {
	service booking.BookingUseCase
	clock   clock.Clock
}

type createBookingRequest struct {
	CarID     int64  `json:"carId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// bookingResponse adds the seconds left in the payment window, computed by the
// server at response time.
type bookingResponse struct {
	domain.Booking
	RemainingSeconds int64 `json:"remainingSeconds"`
}

func NewBookingHandler(service booking.BookingUseCase, clk clock.Clock) *BookingHandler {
	return &BookingHandler{service: service, clock: clk}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.POST("/payment", h.pay)
	router.GET("/:id", h.get)
	router.DELETE("/:id", h.cancel)
}

func (h *BookingHandler) toResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{Booking: *b, RemainingSeconds: b.RemainingSeconds(h.clock.Now())}
}

func (h *BookingHandler) userID(c *gin.Context) (int64, bool) {
	id, ok := GetUserID(c)
	if !ok {
		abort(c, domain.ErrUnauthorized, newErrorResponse(http.StatusUnauthorized, CodeUnauthorized, "access token required"))
	}
	return id, ok
}

func (h *BookingHandler) create(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}
	start, err := domain.ParseDate(req.StartDate)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	end, err := domain.ParseDate(req.EndDate)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), userID, booking.CreateBookingInput{
		CarID:     req.CarID,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.toResponse(created))
}

func (h *BookingHandler) list(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	bookings, err := h.service.ListBookings(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, h.toResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) get(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	found, err := h.service.GetBooking(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toResponse(found))
}

func (h *BookingHandler) pay(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req booking.PaymentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	confirmed, err := h.service.ConfirmPayment(c.Request.Context(), userID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toResponse(confirmed))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	cancelled, err := h.service.CancelBooking(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toResponse(cancelled))
}
