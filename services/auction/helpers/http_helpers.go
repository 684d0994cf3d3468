package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"auction-engine/internal/auctionerrors"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ParseAmount parses a decimal string from a request payload.
func ParseAmount(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w - %s is not a valid decimal amount", auctionerrors.ErrInvalidInput, field)
	}
	return d, nil
}

// ParseTime parses an RFC 3339 timestamp from a request payload.
func ParseTime(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w - %s is not a valid RFC 3339 timestamp", auctionerrors.ErrInvalidInput, field)
	}
	return t.UTC(), nil
}

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, auctionerrors.ErrBidderNotFound):
		return http.StatusNotFound, "bidder not found"
	case errors.Is(err, auctionerrors.ErrInvalidInput):
		return http.StatusBadRequest, "invalid input"
	case errors.Is(err, auctionerrors.ErrInvalidBid):
		return http.StatusBadRequest, "invalid bid details"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount below required minimum"
	case errors.Is(err, auctionerrors.ErrInvalidState):
		return http.StatusConflict, "auction is not open for this operation"
	case errors.Is(err, auctionerrors.ErrInvalidTransition):
		return http.StatusConflict, "illegal auction status transition"
	case errors.Is(err, auctionerrors.ErrForbidden):
		return http.StatusForbidden, "bidder is not allowed to bid"
	case errors.Is(err, auctionerrors.ErrNoBids):
		return http.StatusOK, "no bids found for auction"
	case errors.Is(err, auctionerrors.ErrTransientStore):
		return http.StatusServiceUnavailable, "store temporarily unavailable, retry"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
