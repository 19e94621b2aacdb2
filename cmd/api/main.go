package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rehablink/physio-api/internal/config"
	"github.com/rehablink/physio-api/internal/email"
	"github.com/rehablink/physio-api/internal/handler"
	appointmentHandler "github.com/rehablink/physio-api/internal/handler/appointment"
	patientHandler "github.com/rehablink/physio-api/internal/handler/patient"
	physioHandler "github.com/rehablink/physio-api/internal/handler/physiotherapist"
	rescheduleHandler "github.com/rehablink/physio-api/internal/handler/reschedule"
	scheduleHandler "github.com/rehablink/physio-api/internal/handler/schedule"
	"github.com/rehablink/physio-api/internal/middleware"
	"github.com/rehablink/physio-api/internal/router"
	appointmentService "github.com/rehablink/physio-api/internal/service/appointment"
	"github.com/rehablink/physio-api/internal/service/directory"
	"github.com/rehablink/physio-api/internal/service/notification"
	rescheduleService "github.com/rehablink/physio-api/internal/service/reschedule"
	scheduleService "github.com/rehablink/physio-api/internal/service/schedule"
	"github.com/rehablink/physio-api/internal/store"
	"github.com/rehablink/physio-api/pkg/auth"
	"github.com/rehablink/physio-api/pkg/logger"
	redisbroker "github.com/rehablink/physio-api/pkg/messaging/redis"
	"github.com/rehablink/physio-api/pkg/metrics"
	"github.com/rehablink/physio-api/pkg/validator"
	"github.com/rehablink/physio-api/pkg/worker"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if err := validator.RegisterWithGin(); err != nil {
		log.Fatal().Err(err).Msg("failed to register request validations")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics("physio", "api")

	blobs, err := cfg.NewBlobStore()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize blob store")
	}
	defer blobs.Close()

	entityStore := store.New(blobs, appLogger, appMetrics)
	if err := entityStore.Load(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to load entity store")
	}

	zl := zerolog.New(os.Stdout).With().Timestamp().Logger()
	broker, err := redisbroker.NewRedisBroker(cfg.Redis.ToBrokerConfig(), &zl)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	emailSvc := email.NewService(cfg.Email)
	notifSvc := notification.NewService(broker, emailSvc, appLogger, appMetrics)

	directorySvc := directory.NewService(entityStore, appLogger)
	appointmentSvc := appointmentService.NewService(entityStore, notifSvc, appLogger, appMetrics)
	rescheduleSvc := rescheduleService.NewService(entityStore, notifSvc, appLogger, appMetrics)
	scheduleSvc := scheduleService.NewService(entityStore)
	defer scheduleSvc.Close()

	tokens := auth.NewTokenService(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)

	ops := handler.NewHandler(func() error {
		return entityStore.View(func(*store.Tx) error { return nil })
	})

	r := router.NewRouter(
		ops,
		tokens,
		router.Config{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:        cfg.RateLimit.Burst,
			CORSConfig:       middleware.DefaultCORSConfig(),
			MetricsPrefix:    "physio_api",
		},
		appointmentHandler.NewHandler(appointmentSvc),
		rescheduleHandler.NewHandler(rescheduleSvc),
		scheduleHandler.NewHandler(scheduleSvc),
		patientHandler.NewHandler(directorySvc),
		physioHandler.NewHandler(directorySvc),
	)
	r.Setup()

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	dispatcher := worker.NewChangeDispatcher(entityStore, broker, appLogger, appMetrics)
	go dispatcher.Start(workerCtx)

	sweeper := worker.NewRetentionSweeper(appointmentSvc, worker.RetentionSweeperConfig{
		MaxAge:        cfg.Retention.MaxAge,
		SweepInterval: cfg.Retention.SweepInterval,
	}, appLogger)
	go sweeper.Start(workerCtx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
