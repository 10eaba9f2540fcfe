package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/turnify/turnify-api/api/swagger"
	"github.com/turnify/turnify-api/internal/handler"
	"github.com/turnify/turnify-api/internal/middleware"
	"github.com/turnify/turnify-api/internal/models"
	"github.com/turnify/turnify-api/internal/repository"
	"github.com/turnify/turnify-api/internal/service"
	"github.com/turnify/turnify-api/pkg/cache"
	"github.com/turnify/turnify-api/pkg/config"
	"github.com/turnify/turnify-api/pkg/database"
	"github.com/turnify/turnify-api/pkg/logger"
	corsmiddleware "github.com/turnify/turnify-api/pkg/middleware/cors"
	reqidmiddleware "github.com/turnify/turnify-api/pkg/middleware/requestid"
)

// @title Turnify API
// @version 1.0.0
// @description Appointment booking and availability service
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	metrics := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Availability.CacheEnabled {
		redisClient, rerr := cache.NewRedis(cfg.Redis)
		if rerr != nil {
			logr.Sugar().Warnw("redis unavailable, availability cache disabled", "error", rerr)
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Availability.CacheTTL, logr, true)
		}
	}

	userRepo := repository.NewUserRepository(db)
	businessRepo := repository.NewBusinessRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	offeringRepo := repository.NewOfferingRepository(db)
	workingHoursRepo := repository.NewWorkingHoursRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)

	validate := validator.New()
	step := time.Duration(cfg.Availability.StepMinutes) * time.Minute

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "turnify-api",
	})

	availabilitySvc := service.NewAvailabilityService(
		offeringRepo, businessRepo, employeeRepo, workingHoursRepo, appointmentRepo,
		cacheSvc, step, cfg.Availability.CacheTTL, validate, logr)

	notifications := service.NewNotificationService(
		cfg.Booking.NotificationsEnabled,
		cfg.Booking.NotifyWorkers,
		cfg.Booking.NotifyRetries,
		cfg.Booking.NotifyRetryDelay,
		logr)
	notifications.Start(ctx)
	defer notifications.Stop()

	bookingSvc := service.NewBookingService(
		appointmentRepo, offeringRepo, businessRepo, employeeRepo, workingHoursRepo,
		notifications, availabilitySvc, step, validate, logr)
	workingHoursSvc := service.NewWorkingHoursService(workingHoursRepo, businessRepo, employeeRepo, availabilitySvc, validate, logr)
	offeringSvc := service.NewOfferingService(offeringRepo, businessRepo, employeeRepo, availabilitySvc, validate, logr)
	employeeSvc := service.NewEmployeeService(employeeRepo, businessRepo, availabilitySvc, validate, logr)
	businessSvc := service.NewBusinessService(businessRepo, availabilitySvc, validate, logr)
	userSvc := service.NewUserService(userRepo, validate, logr)
	exportSvc := service.NewExportService(appointmentRepo, businessRepo, nil, nil, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	appointmentHandler := handler.NewAppointmentHandler(bookingSvc)
	offeringHandler := handler.NewOfferingHandler(offeringSvc)
	employeeHandler := handler.NewEmployeeHandler(employeeSvc)
	businessHandler := handler.NewBusinessHandler(businessSvc, exportSvc)
	workingHoursHandler := handler.NewWorkingHoursHandler(workingHoursSvc)
	userHandler := handler.NewUserHandler(userSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	authProtected := auth.Group("", middleware.JWT(authSvc))
	authProtected.POST("/logout", authHandler.Logout)
	authProtected.POST("/change-password", authHandler.ChangePassword)
	authProtected.GET("/me", authHandler.Me)

	// Public surface: clients browse and book without an account.
	api.GET("/availability", availabilityHandler.Get)
	api.GET("/businesses", businessHandler.List)
	api.GET("/businesses/:id", businessHandler.Get)
	api.GET("/offerings", offeringHandler.List)
	api.GET("/offerings/:id", offeringHandler.Get)
	api.GET("/offerings/:id/employees", offeringHandler.ListEmployees)
	api.POST("/appointments", appointmentHandler.Book)

	staff := api.Group("", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin, models.RoleStaff))
	staff.GET("/appointments", appointmentHandler.List)
	staff.GET("/appointments/:id", appointmentHandler.Get)
	staff.PATCH("/appointments/:id/status", appointmentHandler.UpdateStatus)
	staff.GET("/businesses/:id/working-hours", workingHoursHandler.GetBusinessSchedule)
	staff.GET("/employees/:id/working-hours", workingHoursHandler.GetEmployeeSchedule)
	if cfg.Export.Enabled {
		staff.GET("/businesses/:id/schedule/export", businessHandler.ExportSchedule)
	}

	admin := api.Group("", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	admin.POST("/businesses", businessHandler.Create)
	admin.PUT("/businesses/:id", businessHandler.Update)
	admin.PUT("/businesses/:id/working-hours", workingHoursHandler.ReplaceBusinessSchedule)
	admin.GET("/employees", employeeHandler.List)
	admin.GET("/employees/:id", employeeHandler.Get)
	admin.POST("/employees", employeeHandler.Create)
	admin.PUT("/employees/:id", employeeHandler.Update)
	admin.DELETE("/employees/:id", employeeHandler.Deactivate)
	admin.PUT("/employees/:id/working-hours", workingHoursHandler.ReplaceEmployeeSchedule)
	admin.POST("/offerings", offeringHandler.Create)
	admin.PUT("/offerings/:id", offeringHandler.Update)
	admin.DELETE("/offerings/:id", offeringHandler.Deactivate)
	admin.PUT("/offerings/:id/employees", offeringHandler.ReplaceEmployees)
	admin.GET("/users", userHandler.List)
	admin.GET("/users/:id", userHandler.Get)
	admin.POST("/users", userHandler.Create)
	admin.PUT("/users/:id", userHandler.Update)
	admin.DELETE("/users/:id", userHandler.Delete)
	admin.GET("/metrics/snapshot", metricsHandler.Snapshot)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
