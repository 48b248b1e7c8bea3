package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/fiscal/internal/document"
	"github.com/smallbiznis/fiscal/internal/gateway"
	invoicedomain "github.com/smallbiznis/fiscal/internal/invoice/domain"
	naturedomain "github.com/smallbiznis/fiscal/internal/operationnature/domain"
	orderdomain "github.com/smallbiznis/fiscal/internal/order/domain"
	partydomain "github.com/smallbiznis/fiscal/internal/party/domain"
	"github.com/smallbiznis/fiscal/pkg/db"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	var docErrs document.ValidationErrors
	if errors.As(err, &docErrs) {
		out := make([]ValidationError, 0, len(docErrs))
		for _, fe := range docErrs {
			out = append(out, ValidationError{Field: fe.Field, Code: "invalid", Message: fe.Message})
		}
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  out,
		}
	}
	var fieldErr document.FieldError
	if errors.As(err, &fieldErr) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{Field: fieldErr.Field, Code: "invalid", Message: fieldErr.Message},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, invoicedomain.ErrNotCancellable),
		errors.Is(err, invoicedomain.ErrNotDraft),
		errors.Is(err, invoicedomain.ErrInvalidTransition),
		errors.Is(err, invoicedomain.ErrAlreadySubmitted),
		errors.Is(err, invoicedomain.ErrOrderAlreadyHasEmission),
		db.IsDuplicateKeyErr(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, invoicedomain.ErrJustificationTooShort),
		errors.Is(err, invoicedomain.ErrEmptyPayload),
		errors.Is(err, invoicedomain.ErrNoPayloadToClone),
		errors.Is(err, document.ErrInvalidCFOP),
		errors.Is(err, document.ErrMissingDestination),
		errors.Is(err, document.ErrMissingRegime),
		errors.Is(err, document.ErrMissingInterstate),
		errors.Is(err, document.ErrMissingIntrastate),
		errors.Is(err, document.ErrNegativePresumptive),
		errors.Is(err, document.ErrEmptyOrder):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case gateway.IsTemporary(err):
		return http.StatusBadGateway, errorPayload{
			Type:    "gateway_unavailable",
			Message: err.Error(),
		}
	case gateway.IsPermanent(err):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "gateway_rejected",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, gorm.ErrRecordNotFound) ||
		errors.Is(err, invoicedomain.ErrInvoiceNotFound) ||
		errors.Is(err, orderdomain.ErrNotFound) ||
		errors.Is(err, naturedomain.ErrNotFound) ||
		errors.Is(err, partydomain.ErrNotFound)
}
