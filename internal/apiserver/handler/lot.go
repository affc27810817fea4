package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/parkwise/parkwise/internal/apiserver/database"
	"go.uber.org/zap"
)

// Lot serves the public browse endpoints for parking lots and their spots
type Lot struct {
	db     database.Database
	logger *zap.Logger
}

// NewLot creates a new lot handler
func NewLot(db database.Database, logger *zap.Logger) *Lot {
	return &Lot{db: db, logger: logger.Named("handler.lot")}
}

// List returns all parking lots
func (h *Lot) List(c *gin.Context) {
	lots, err := h.db.ListLots(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, lots)
}

// Get returns one parking lot
func (h *Lot) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lot id"})
		return
	}

	lot, err := h.db.GetLot(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "lot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, lot)
}

// Spots returns a lot's spots ordered by spot number
func (h *Lot) Spots(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lot id"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.db.GetLot(ctx, uint(id)); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "lot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	spots, err := h.db.ListSpotsByLot(ctx, uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, spots)
}
