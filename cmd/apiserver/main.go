package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/parkwise/parkwise/internal/apiserver/booking"
	"github.com/parkwise/parkwise/internal/apiserver/cache"
	"github.com/parkwise/parkwise/internal/apiserver/database"
	"github.com/parkwise/parkwise/internal/apiserver/handler"
	"github.com/parkwise/parkwise/internal/apiserver/middleware"
	"github.com/parkwise/parkwise/internal/auth/jwt"
	"github.com/parkwise/parkwise/internal/common/config"
	"github.com/parkwise/parkwise/pkg/logger"
	"github.com/parkwise/parkwise/pkg/metrics"
	"github.com/parkwise/parkwise/pkg/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	configPath string

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of apiserver",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("apiserver version %s\n", version.Get())
		},
	}

	rootCmd = &cobra.Command{
		Use:   "apiserver",
		Short: "Parkwise API Server",
		Long:  `Parkwise API Server provides the parking reservation endpoints`,
		Run: func(cmd *cobra.Command, args []string) {
			run()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "conf", "apiserver.yaml", "path to configuration file")
	rootCmd.AddCommand(versionCmd)
}

func run() {
	cfg, cfgPath, err := config.LoadConfig[config.APIServerConfig](configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration from %s: %v", cfgPath, err)
	}

	zapLogger, err := logger.NewLogger(&cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("Starting apiserver",
		zap.String("version", version.Get()),
		zap.String("config", cfgPath))

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	if err := bootstrap(context.Background(), db, cfg); err != nil {
		zapLogger.Fatal("Failed to bootstrap accounts", zap.Error(err))
	}

	jwtService, err := jwt.NewService(jwt.Config{
		SecretKey: cfg.JWT.SecretKey,
		Duration:  cfg.JWT.Duration,
	})
	if err != nil {
		zapLogger.Fatal("Failed to initialize JWT service", zap.Error(err))
	}

	statsCache, err := cache.NewStore(zapLogger, &cfg.Cache)
	if err != nil {
		zapLogger.Fatal("Failed to initialize statistics cache", zap.Error(err))
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics)
	}

	manager := booking.NewManager(db, zapLogger, cfg.Parking.DefaultHourlyRate, m)

	authHandler := handler.NewAuth(db, jwtService, zapLogger)
	vehicleHandler := handler.NewVehicle(db, zapLogger)
	lotHandler := handler.NewLot(db, zapLogger)
	bookingHandler := handler.NewBooking(db, manager, statsCache, zapLogger)
	adminHandler := handler.NewAdmin(db, manager, statsCache, zapLogger)

	r := gin.Default()
	if m != nil {
		r.Use(m.GinMiddleware())
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Get()})
	})

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

	port := cfg.Port
	if port == 0 {
		port = 5380
	}
	zapLogger.Info("Listening", zap.Int("port", port))
	if err := r.Run(fmt.Sprintf(":%d", port)); err != nil {
		zapLogger.Fatal("Server exited", zap.Error(err))
	}
}

// bootstrap ensures the configured super admin and the reserved system user
// exist. The system user carries bookings created by admin overrides.
func bootstrap(ctx context.Context, db database.Database, cfg *config.APIServerConfig) error {
	if cfg.SuperAdmin.Username != "" {
		_, err := db.GetAdminByUsername(ctx, cfg.SuperAdmin.Username)
		if errors.Is(err, database.ErrNotFound) {
			hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.SuperAdmin.Password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			if err := db.CreateAdmin(ctx, &database.Admin{
				Username: cfg.SuperAdmin.Username,
				Password: string(hashed),
			}); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}

	_, err := db.GetUserByUsername(ctx, booking.SystemUsername)
	if errors.Is(err, database.ErrNotFound) {
		// Random throwaway credential; the system user never logs in.
		hashed, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		return db.CreateUser(ctx, &database.User{
			Username: booking.SystemUsername,
			Email:    "system@localhost",
			Password: string(hashed),
			FullName: "System",
			IsActive: false,
		})
	}
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
