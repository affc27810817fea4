package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/parkwise/parkwise/internal/apiserver/database"
	"github.com/parkwise/parkwise/internal/apiserver/middleware"
	"github.com/parkwise/parkwise/internal/common/dto"
	"go.uber.org/zap"
)

// Vehicle handles the current user's vehicle records
type Vehicle struct {
	db     database.Database
	logger *zap.Logger
}

// NewVehicle creates a new vehicle handler
func NewVehicle(db database.Database, logger *zap.Logger) *Vehicle {
	return &Vehicle{db: db, logger: logger.Named("handler.vehicle")}
}

// List returns the vehicles owned by the authenticated user
func (h *Vehicle) List(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)
	vehicles, err := h.db.ListVehiclesByUser(c.Request.Context(), claims.PrincipalID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, vehicles)
}

// Create registers a vehicle for the authenticated user
func (h *Vehicle) Create(c *gin.Context) {
	var req dto.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims := middleware.ClaimsFromContext(c)
	ctx := c.Request.Context()

	if _, err := h.db.GetVehicleByPlate(ctx, req.LicensePlate); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "license plate already registered"})
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	vehicleType := req.VehicleType
	if vehicleType == "" {
		vehicleType = "standard"
	}
	vehicle := &database.Vehicle{
		UserID:       claims.PrincipalID,
		LicensePlate: req.LicensePlate,
		Model:        req.Model,
		VehicleType:  vehicleType,
		Color:        req.Color,
	}
	if err := h.db.CreateVehicle(ctx, vehicle); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create vehicle"})
		return
	}

	h.logger.Info("vehicle registered",
		zap.Uint("user_id", claims.PrincipalID),
		zap.String("plate", vehicle.LicensePlate))
	c.JSON(http.StatusCreated, vehicle)
}

// Delete removes one of the authenticated user's vehicles
func (h *Vehicle) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vehicle id"})
		return
	}

	claims := middleware.ClaimsFromContext(c)
	ctx := c.Request.Context()

	vehicle, err := h.db.GetVehicleByID(ctx, uint(id))
	if err != nil || vehicle.UserID != claims.PrincipalID {
		c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
		return
	}

	if err := h.db.DeleteVehicle(ctx, vehicle.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete vehicle"})
		return
	}
	c.Status(http.StatusNoContent)
}
