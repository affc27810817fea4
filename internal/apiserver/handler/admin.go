package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/parkwise/parkwise/internal/apiserver/booking"
	"github.com/parkwise/parkwise/internal/apiserver/cache"
	"github.com/parkwise/parkwise/internal/apiserver/database"
	"github.com/parkwise/parkwise/internal/common/dto"
	"go.uber.org/zap"
)

// Admin handles lot/spot management, user listing and statistics.
type Admin struct {
	db      database.Database
	manager *booking.Manager
	stats   cache.Store
	logger  *zap.Logger
}

// NewAdmin creates a new admin handler
func NewAdmin(db database.Database, manager *booking.Manager, stats cache.Store, logger *zap.Logger) *Admin {
	return &Admin{
		db:      db,
		manager: manager,
		stats:   stats,
		logger:  logger.Named("handler.admin"),
	}
}

// CreateLot creates a parking lot together with its numbered spots
func (h *Admin) CreateLot(c *gin.Context) {
	var req dto.CreateLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lot := &database.ParkingLot{
		Name:           req.Name,
		Address:        req.Address,
		PinCode:        req.PinCode,
		HourlyRate:     req.HourlyRate,
		TotalSpots:     req.MaxSpots,
		AvailableSpots: req.MaxSpots,
	}
	err := h.db.Transaction(c.Request.Context(), func(ctx context.Context) error {
		if err := h.db.CreateLot(ctx, lot); err != nil {
			return err
		}
		spots := make([]*database.ParkingSpot, 0, req.MaxSpots)
		for i := 1; i <= req.MaxSpots; i++ {
			spots = append(spots, &database.ParkingSpot{
				LotID:       lot.ID,
				SpotNumber:  i,
				SpotType:    database.SpotStandard,
				IsAvailable: true,
			})
		}
		return h.db.CreateSpots(ctx, spots)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create lot"})
		return
	}

	h.invalidateStats(c)
	h.logger.Info("lot created",
		zap.Uint("lot_id", lot.ID),
		zap.String("name", lot.Name),
		zap.Int("spots", req.MaxSpots))
	c.JSON(http.StatusCreated, lot)
}

// UpdateLot updates a lot's fields; changing maxSpots grows the lot with new
// spots or shrinks it from the highest number down, refusing to drop an
// occupied spot.
func (h *Admin) UpdateLot(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lot id"})
		return
	}
	var req dto.UpdateLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var lot *database.ParkingLot
	err = h.db.Transaction(c.Request.Context(), func(ctx context.Context) error {
		var err error
		lot, err = h.db.GetLot(ctx, uint(id))
		if err != nil {
			return err
		}

		spots, err := h.db.ListSpotsByLot(ctx, lot.ID)
		if err != nil {
			return err
		}
		current := len(spots)

		if req.MaxSpots > current {
			grown := make([]*database.ParkingSpot, 0, req.MaxSpots-current)
			next := 1
			if current > 0 {
				next = spots[current-1].SpotNumber + 1
			}
			for n := next; len(grown) < req.MaxSpots-current; n++ {
				grown = append(grown, &database.ParkingSpot{
					LotID:       lot.ID,
					SpotNumber:  n,
					SpotType:    database.SpotStandard,
					IsAvailable: true,
				})
			}
			if err := h.db.CreateSpots(ctx, grown); err != nil {
				return err
			}
		} else if req.MaxSpots < current {
			doomed := spots[req.MaxSpots:]
			for _, spot := range doomed {
				if !spot.IsAvailable {
					return fmt.Errorf("%w: spot %d is occupied", errLotShrinkBlocked, spot.SpotNumber)
				}
			}
			for _, spot := range doomed {
				if err := h.db.DeleteSpot(ctx, spot.ID); err != nil {
					return err
				}
			}
		}

		lot.Name = req.Name
		lot.Address = req.Address
		lot.PinCode = req.PinCode
		lot.HourlyRate = req.HourlyRate
		lot.TotalSpots = req.MaxSpots
		if err := h.db.UpdateLot(ctx, lot); err != nil {
			return err
		}
		if err := h.db.RecalculateLotAvailability(ctx, lot.ID); err != nil {
			return err
		}
		lot, err = h.db.GetLot(ctx, lot.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "lot not found"})
			return
		}
		if errors.Is(err, errLotShrinkBlocked) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update lot"})
		return
	}

	h.invalidateStats(c)
	c.JSON(http.StatusOK, lot)
}

// DeleteLot deletes a lot and all its spots; refused while any spot is
// occupied.
func (h *Admin) DeleteLot(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lot id"})
		return
	}

	err = h.db.Transaction(c.Request.Context(), func(ctx context.Context) error {
		if _, err := h.db.GetLot(ctx, uint(id)); err != nil {
			return err
		}
		occupied, err := h.db.CountOccupiedSpotsByLot(ctx, uint(id))
		if err != nil {
			return err
		}
		if occupied > 0 {
			return fmt.Errorf("%w: %d spots occupied", errLotDeleteBlocked, occupied)
		}
		return h.db.DeleteLot(ctx, uint(id))
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "lot not found"})
			return
		}
		if errors.Is(err, errLotDeleteBlocked) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete lot"})
		return
	}

	h.invalidateStats(c)
	c.Status(http.StatusNoContent)
}

// OccupySpot marks a spot occupied via the admin override path
func (h *Admin) OccupySpot(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid spot id"})
		return
	}
	var req dto.OverrideOccupyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.manager.AdminOverrideOccupy(c.Request.Context(), uint(id), req.VehicleReg)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	h.invalidateStats(c)
	c.JSON(http.StatusCreated, b)
}

// ReleaseSpot frees a spot via the admin override path
func (h *Admin) ReleaseSpot(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid spot id"})
		return
	}

	b, err := h.manager.AdminOverrideRelease(c.Request.Context(), uint(id))
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	h.invalidateStats(c)
	if b == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, b)
}

// SpotDetails returns a spot together with the active booking occupying it,
// if any
func (h *Admin) SpotDetails(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid spot id"})
		return
	}

	ctx := c.Request.Context()
	spot, err := h.db.GetSpot(ctx, uint(id))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "spot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	var current *database.Booking
	if b, err := h.db.GetActiveBookingBySpot(ctx, spot.ID); err == nil {
		current = b
	}
	c.JSON(http.StatusOK, gin.H{"spot": spot, "booking": current})
}

// ListUsers returns all registered users
func (h *Admin) ListUsers(c *gin.Context) {
	users, err := h.db.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, users)
}

// UserBookings returns all bookings of one user, newest first
func (h *Admin) UserBookings(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.db.GetUserByID(ctx, uint(id)); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	bookings, err := h.db.ListBookingsByUser(ctx, uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// Dashboard returns platform-wide totals, cached between booking mutations
func (h *Admin) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	if h.stats != nil {
		if cached, err := h.stats.GetDashboard(ctx); err == nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	stats := &cache.DashboardStats{}
	var err error
	if stats.TotalLots, err = h.db.CountLots(ctx); err == nil {
		if stats.TotalSpots, err = h.db.CountSpots(ctx); err == nil {
			if stats.AvailableSpots, err = h.db.CountAvailableSpots(ctx); err == nil {
				if stats.TotalUsers, err = h.db.CountUsers(ctx); err == nil {
					stats.TotalBookings, err = h.db.CountBookings(ctx)
				}
			}
		}
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	stats.OccupiedSpots = stats.TotalSpots - stats.AvailableSpots

	if h.stats != nil {
		if err := h.stats.SetDashboard(ctx, stats); err != nil {
			h.logger.Warn("failed to cache dashboard stats", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, stats)
}

// LotStats returns per-lot occupancy, cached between booking mutations
func (h *Admin) LotStats(c *gin.Context) {
	ctx := c.Request.Context()
	if h.stats != nil {
		if cached, err := h.stats.GetLotOccupancy(ctx); err == nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	lots, err := h.db.ListLots(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	rows := make([]cache.LotOccupancy, 0, len(lots))
	for _, lot := range lots {
		rows = append(rows, cache.LotOccupancy{
			LotID:     lot.ID,
			Name:      lot.Name,
			Total:     lot.TotalSpots,
			Available: lot.AvailableSpots,
			Occupied:  lot.TotalSpots - lot.AvailableSpots,
		})
	}

	if h.stats != nil {
		if err := h.stats.SetLotOccupancy(ctx, rows); err != nil {
			h.logger.Warn("failed to cache lot occupancy", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Admin) invalidateStats(c *gin.Context) {
	if h.stats == nil {
		return
	}
	if err := h.stats.Clear(c.Request.Context()); err != nil {
		h.logger.Warn("failed to clear statistics cache", zap.Error(err))
	}
}

var (
	errLotShrinkBlocked = errors.New("cannot reduce spots")
	errLotDeleteBlocked = errors.New("cannot delete parking lot")
)
