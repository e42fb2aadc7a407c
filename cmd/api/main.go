package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinicware/clinic-api/internal/config"
	"github.com/clinicware/clinic-api/internal/email"
	"github.com/clinicware/clinic-api/internal/handler"
	appointmentHandler "github.com/clinicware/clinic-api/internal/handler/appointment"
	authHandler "github.com/clinicware/clinic-api/internal/handler/auth"
	availabilityHandler "github.com/clinicware/clinic-api/internal/handler/availability"
	departmentHandler "github.com/clinicware/clinic-api/internal/handler/department"
	doctorHandler "github.com/clinicware/clinic-api/internal/handler/doctor"
	patientHandler "github.com/clinicware/clinic-api/internal/handler/patient"
	"github.com/clinicware/clinic-api/internal/middleware"
	"github.com/clinicware/clinic-api/internal/notification"
	"github.com/clinicware/clinic-api/internal/repository/postgres"
	"github.com/clinicware/clinic-api/internal/router"
	authService "github.com/clinicware/clinic-api/internal/service/auth"
	"github.com/clinicware/clinic-api/internal/service/booking"
	departmentService "github.com/clinicware/clinic-api/internal/service/department"
	doctorService "github.com/clinicware/clinic-api/internal/service/doctor"
	patientService "github.com/clinicware/clinic-api/internal/service/patient"
	"github.com/clinicware/clinic-api/internal/service/scheduling"
	"github.com/clinicware/clinic-api/pkg/auth"
	"github.com/clinicware/clinic-api/pkg/logger"
	"github.com/clinicware/clinic-api/pkg/messaging"
	redisbroker "github.com/clinicware/clinic-api/pkg/messaging/redis"
	"github.com/clinicware/clinic-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(&logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	doctorRepo := postgres.NewDoctorRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	departmentRepo := postgres.NewDepartmentRepository(db)
	availabilityRepo := postgres.NewAvailabilityRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)

	var broker messaging.Broker
	if cfg.Redis.Enabled {
		broker, err = redisbroker.NewBroker(redisbroker.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   3,
			RetryBackoff: 100 * time.Millisecond,
			PoolSize:     10,
			MinIdleConns: 2,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer broker.Close()
	}

	mailer := email.NewNoopMailer()
	if cfg.SMTP.Enabled {
		mailer = email.NewSMTPMailer(email.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}
	notifier := notification.NewService(patientRepo, mailer, broker, log)

	hasher := security.NewBcryptHasher(0)
	tokens := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry(), cfg.JWT.Issuer)

	schedulingSvc := scheduling.NewService(availabilityRepo, appointmentRepo, log)
	bookingSvc := booking.NewService(appointmentRepo, doctorRepo, patientRepo, schedulingSvc, notifier, log)
	authSvc := authService.NewService(userRepo, doctorRepo, patientRepo, hasher, tokens, log)
	doctorSvc := doctorService.NewService(doctorRepo, userRepo, departmentRepo, hasher, log)
	patientSvc := patientService.NewService(patientRepo, userRepo, hasher, log)
	departmentSvc := departmentService.NewService(departmentRepo, log)

	authMW := middleware.NewAuthMiddleware(tokens)

	r := router.New(
		log,
		authMW,
		handler.NewHandler(),
		authHandler.NewHandler(authSvc),
		doctorHandler.NewHandler(doctorSvc),
		patientHandler.NewHandler(patientSvc),
		departmentHandler.NewHandler(departmentSvc),
		availabilityHandler.NewHandler(schedulingSvc, doctorRepo),
		appointmentHandler.NewHandler(bookingSvc),
		router.Config{
			RateLimitRPS:   float64(cfg.Server.RateLimitRPS),
			RateLimitBurst: cfg.Server.RateLimitBurst,
			Timeout:        time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			MetricsPrefix:  "clinic_api",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
