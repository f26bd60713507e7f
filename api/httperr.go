package api

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/krishna9325/Car-Rental/internal/domain"
)

const (
	CodeInvalidRequest  = "invalid_request"
	CodeUnauthorized    = "unauthorized"
	CodeForbidden       = "forbidden"
	CodeNotFound        = "not_found"
	CodeDeadlineExpired = "deadline_expired"
	CodePaymentRejected = "payment_rejected"
	CodeConflict        = "conflict"
	CodeInternal        = "internal"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Status int `json:"-"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
	Code string `json:"code"`
}

func newErrorResponse(status int, code, message string) ErrorResponse {
	resp := ErrorResponse{Status: status, Code: code}
	resp.Error.Message = message
	return resp
}

// classifyError maps domain sentinels onto HTTP status codes and error codes.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, CodeInvalidRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, CodeUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, CodeForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, domain.ErrDeadlineExpired):
		return http.StatusGone, CodeDeadlineExpired
	case errors.Is(err, domain.ErrPaymentRejected):
		return http.StatusPaymentRequired, CodePaymentRejected
	case errors.Is(err, domain.ErrOutOfStock),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrNotPending):
		return http.StatusConflict, CodeConflict
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// AbortWithError writes the error envelope and keeps the original error on the
// context so the logging middleware can report it.
func AbortWithError(c *gin.Context, err error) {
	status, code := classifyError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	abort(c, err, newErrorResponse(status, code, message))
}

func abortBadRequest(c *gin.Context, err error) {
	abort(c, err, newErrorResponse(http.StatusBadRequest, CodeInvalidRequest, err.Error()))
}

func abort(c *gin.Context, err error, resp ErrorResponse) {
	_ = c.Error(&gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(resp.Status, resp)
}
