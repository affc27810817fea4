package handler

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parkwise/parkwise/internal/apiserver/booking"
)

// respondLifecycleError maps booking lifecycle errors onto HTTP statuses.
// Conflicts are recoverable and re-presented to the caller; state violations
// and missing records get their conventional codes.
func respondLifecycleError(c *gin.Context, err error) {
	switch {
	case booking.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case booking.IsInvalidState(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case booking.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
