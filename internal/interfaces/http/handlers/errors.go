// internal/interfaces/http/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/distribution-backend/internal/domain/catalog"
	"github.com/your-org/distribution-backend/internal/domain/ledger"
	"github.com/your-org/distribution-backend/internal/domain/pricing"
	"github.com/your-org/distribution-backend/internal/domain/sequence"
	"github.com/your-org/distribution-backend/internal/domain/transaction"
	"github.com/your-org/distribution-backend/internal/pkg/lock"
)

// respondError maps domain errors to HTTP responses. Transaction rejections
// carry the offending line index so the caller can correct and resubmit.
func respondError(c *gin.Context, err error) {
	var rejection *transaction.RejectionError
	if errors.As(err, &rejection) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": rejection.Err.Error(),
			"line":  rejection.Line,
		})
		return
	}

	switch {
	case errors.Is(err, catalog.ErrUnknownReference):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrInvalidQuantity),
		errors.Is(err, ledger.ErrInsufficientStock),
		errors.Is(err, pricing.ErrNoTierAssigned),
		errors.Is(err, pricing.ErrNoPriceAtTier),
		errors.Is(err, pricing.ErrTierNotAllowed),
		errors.Is(err, pricing.ErrInvalidDiscount):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, lock.ErrNotObtained):
		c.JSON(http.StatusConflict, gin.H{"error": "Resource busy, retry the request"})
	case errors.Is(err, sequence.ErrDuplicateSequence):
		// Unreachable with correct locking; surfaced for operator attention.
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// parseIDParam parses a numeric path parameter
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}
