package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/parkwise/parkwise/internal/apiserver/booking"
	"github.com/parkwise/parkwise/internal/apiserver/cache"
	"github.com/parkwise/parkwise/internal/apiserver/database"
	"github.com/parkwise/parkwise/internal/apiserver/middleware"
	"github.com/parkwise/parkwise/internal/common/dto"
	"go.uber.org/zap"
)

// Booking exposes the reserve/release/cancel flow and the user's booking
// history.
type Booking struct {
	db      database.Database
	manager *booking.Manager
	stats   cache.Store
	logger  *zap.Logger
}

// NewBooking creates a new booking handler
func NewBooking(db database.Database, manager *booking.Manager, stats cache.Store, logger *zap.Logger) *Booking {
	return &Booking{
		db:      db,
		manager: manager,
		stats:   stats,
		logger:  logger.Named("handler.booking"),
	}
}

// Create reserves a spot for the authenticated user, either a specific spot
// or the first free one in a lot
func (h *Booking) Create(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if (req.SpotID == 0) == (req.LotID == 0) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exactly one of spotId and lotId must be set"})
		return
	}

	claims := middleware.ClaimsFromContext(c)
	ctx := c.Request.Context()

	var (
		b   *database.Booking
		err error
	)
	if req.SpotID != 0 {
		b, err = h.manager.Reserve(ctx, claims.PrincipalID, req.SpotID, req.VehicleID)
	} else {
		b, err = h.manager.ReserveInLot(ctx, claims.PrincipalID, req.LotID, req.VehicleID)
	}
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	h.invalidateStats(c)
	c.JSON(http.StatusCreated, b)
}

// Active returns the authenticated user's active booking, if any
func (h *Booking) Active(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)
	b, err := h.db.GetActiveBookingByUser(c.Request.Context(), claims.PrincipalID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active booking"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, b)
}

// List returns the authenticated user's bookings, newest first
func (h *Booking) List(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)
	bookings, err := h.db.ListBookingsByUser(c.Request.Context(), claims.PrincipalID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// Get returns one of the user's bookings; an active booking carries its
// live duration and cost quote
func (h *Booking) Get(c *gin.Context) {
	b, ok := h.ownBooking(c)
	if !ok {
		return
	}

	detail := dto.BookingDetail{
		ID:               b.ID,
		Reference:        b.Reference,
		UserID:           b.UserID,
		SpotID:           b.SpotID,
		VehicleID:        b.VehicleID,
		VehicleReg:       b.VehicleReg,
		ParkingTimestamp: b.ParkingTimestamp,
		LeavingTimestamp: b.LeavingTimestamp,
		TotalCost:        b.TotalCost,
		Status:           string(b.Status),
	}
	if b.Status == database.BookingActive {
		hours, cost, err := h.manager.Quote(c.Request.Context(), b, time.Now().UTC())
		if err == nil {
			detail.CurrentHours = &hours
			detail.CurrentCost = &cost
		}
	}
	c.JSON(http.StatusOK, detail)
}

// Release ends one of the user's active bookings and bills it
func (h *Booking) Release(c *gin.Context) {
	b, ok := h.ownBooking(c)
	if !ok {
		return
	}

	released, err := h.manager.Release(c.Request.Context(), b.ID)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	h.invalidateStats(c)
	c.JSON(http.StatusOK, released)
}

// Cancel voids one of the user's active bookings without billing
func (h *Booking) Cancel(c *gin.Context) {
	b, ok := h.ownBooking(c)
	if !ok {
		return
	}

	cancelled, err := h.manager.Cancel(c.Request.Context(), b.ID)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	h.invalidateStats(c)
	c.JSON(http.StatusOK, cancelled)
}

// Stats aggregates the user's completed bookings by month
func (h *Booking) Stats(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)
	bookings, err := h.db.ListCompletedBookingsByUser(c.Request.Context(), claims.PrincipalID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	type bucket struct {
		label string
		count int
		total float64
	}
	var order []string
	buckets := make(map[string]*bucket)
	for _, b := range bookings {
		key := b.ParkingTimestamp.Format("2006-01")
		if _, ok := buckets[key]; !ok {
			buckets[key] = &bucket{label: b.ParkingTimestamp.Format("Jan 2006")}
			order = append(order, key)
		}
		buckets[key].count++
		if b.TotalCost != nil {
			buckets[key].total += *b.TotalCost
		}
	}

	stats := make([]dto.MonthlyStat, 0, len(order))
	for _, key := range order {
		bk := buckets[key]
		stats = append(stats, dto.MonthlyStat{
			Month:     bk.label,
			Count:     bk.count,
			TotalCost: round2(bk.total),
		})
	}
	c.JSON(http.StatusOK, stats)
}

// ownBooking loads the booking in the path and enforces ownership
func (h *Booking) ownBooking(c *gin.Context) (*database.Booking, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return nil, false
	}

	claims := middleware.ClaimsFromContext(c)
	b, err := h.db.GetBooking(c.Request.Context(), uint(id))
	if err != nil || b.UserID != claims.PrincipalID {
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		return nil, false
	}
	return b, true
}

func (h *Booking) invalidateStats(c *gin.Context) {
	if h.stats == nil {
		return
	}
	if err := h.stats.Clear(c.Request.Context()); err != nil {
		h.logger.Warn("failed to clear statistics cache", zap.Error(err))
	}
}
