package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/parkwise/parkwise/internal/apiserver/booking"
	"github.com/parkwise/parkwise/internal/apiserver/cache"
	"github.com/parkwise/parkwise/internal/apiserver/database"
	"github.com/parkwise/parkwise/internal/apiserver/middleware"
	"github.com/parkwise/parkwise/internal/auth/jwt"
	"github.com/parkwise/parkwise/internal/common/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	t       *testing.T
	db      database.Database
	jwt     *jwt.Service
	manager *booking.Manager
	stats   cache.Store
	router  *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewSQLite(&config.DatabaseConfig{Type: "sqlite", DBName: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	jwtService, err := jwt.NewService(jwt.Config{
		SecretKey: "test-secret-key-that-is-long-enough-123",
		Duration:  time.Hour,
	})
	require.NoError(t, err)

	logger := zap.NewNop()
	stats := cache.NewMemoryStore(time.Minute)
	manager := booking.NewManager(db, logger, 2.00, nil)

	// The override path books as the reserved system user.
	require.NoError(t, db.CreateUser(context.Background(), &database.User{
		Username: booking.SystemUsername,
		Email:    "system@parkwise.internal",
		Password: "!",
		IsActive: false,
	}))

	authHandler := NewAuth(db, jwtService, logger)
	vehicleHandler := NewVehicle(db, logger)
	lotHandler := NewLot(db, logger)
	bookingHandler := NewBooking(db, manager, stats, logger)
	adminHandler := NewAdmin(db, manager, stats, logger)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/admin/login", authHandler.AdminLogin)
	api.GET("/lots", lotHandler.List)
	api.GET("/lots/:id", lotHandler.Get)
	api.GET("/lots/:id/spots", lotHandler.Spots)

	authed := api.Group("", middleware.JWTAuthMiddleware(jwtService))
	authed.POST("/auth/change-password", authHandler.ChangePassword)

	user := authed.Group("", middleware.UserOnlyMiddleware())
	user.GET("/vehicles", vehicleHandler.List)
	user.POST("/vehicles", vehicleHandler.Create)
	user.DELETE("/vehicles/:id", vehicleHandler.Delete)
	user.POST("/bookings", bookingHandler.Create)
	user.GET("/bookings", bookingHandler.List)
	user.GET("/bookings/active", bookingHandler.Active)
	user.GET("/bookings/:id", bookingHandler.Get)
	user.POST("/bookings/:id/release", bookingHandler.Release)
	user.POST("/bookings/:id/cancel", bookingHandler.Cancel)
	user.GET("/users/me/stats", bookingHandler.Stats)

	admin := authed.Group("/admin", middleware.AdminOnlyMiddleware())
	admin.POST("/lots", adminHandler.CreateLot)
	admin.PUT("/lots/:id", adminHandler.UpdateLot)
	admin.DELETE("/lots/:id", adminHandler.DeleteLot)
	admin.GET("/lots/:id/spots", lotHandler.Spots)
	admin.GET("/spots/:id", adminHandler.SpotDetails)
	admin.POST("/spots/:id/occupy", adminHandler.OccupySpot)
	admin.POST("/spots/:id/release", adminHandler.ReleaseSpot)
	admin.GET("/users", adminHandler.ListUsers)
	admin.GET("/users/:id/bookings", adminHandler.UserBookings)
	admin.GET("/stats", adminHandler.Dashboard)
	admin.GET("/stats/lots", adminHandler.LotStats)

	return &testEnv{
		t:       t,
		db:      db,
		jwt:     jwtService,
		manager: manager,
		stats:   stats,
		router:  r,
	}
}

// do performs a request against the test router, marshalling body as JSON
// and attaching the bearer token when non-empty.
func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

// seedUser creates an active user with the given password hashed and returns
// it together with a user token.
func (e *testEnv) seedUser(username, password string) (*database.User, string) {
	e.t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(e.t, err)
	u := &database.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hashed),
		IsActive: true,
	}
	require.NoError(e.t, e.db.CreateUser(context.Background(), u))
	token, err := e.jwt.GenerateToken(u.ID, u.Username, jwt.KindUser)
	require.NoError(e.t, err)
	return u, token
}

// seedAdmin creates an administrator and returns it with an admin token.
func (e *testEnv) seedAdmin(username, password string) (*database.Admin, string) {
	e.t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(e.t, err)
	a := &database.Admin{Username: username, Password: string(hashed)}
	require.NoError(e.t, e.db.CreateAdmin(context.Background(), a))
	token, err := e.jwt.GenerateToken(a.ID, a.Username, jwt.KindAdmin)
	require.NoError(e.t, err)
	return a, token
}

// seedLot creates a lot with numbered spots and returns both.
func (e *testEnv) seedLot(rate float64, spots int) (*database.ParkingLot, []*database.ParkingSpot) {
	e.t.Helper()
	ctx := context.Background()
	lot := &database.ParkingLot{
		Name:           "Central",
		Address:        "1 Main St",
		PinCode:        "560001",
		HourlyRate:     rate,
		TotalSpots:     spots,
		AvailableSpots: spots,
	}
	require.NoError(e.t, e.db.CreateLot(ctx, lot))
	rows := make([]*database.ParkingSpot, 0, spots)
	for i := 1; i <= spots; i++ {
		rows = append(rows, &database.ParkingSpot{
			LotID:       lot.ID,
			SpotNumber:  i,
			SpotType:    database.SpotStandard,
			IsAvailable: true,
		})
	}
	require.NoError(e.t, e.db.CreateSpots(ctx, rows))
	return lot, rows
}

