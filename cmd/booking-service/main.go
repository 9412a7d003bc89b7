package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caresuite/platform/pkg/auth"
	"github.com/caresuite/platform/pkg/billing"
	"github.com/caresuite/platform/pkg/booking"
	"github.com/caresuite/platform/pkg/common/config"
	"github.com/caresuite/platform/pkg/common/database"
	"github.com/caresuite/platform/pkg/common/kafka"
	"github.com/caresuite/platform/pkg/common/logger"
	"github.com/caresuite/platform/pkg/directory"
	"github.com/caresuite/platform/pkg/records"
	"github.com/gorilla/mux"
)

func main() {
	logger.Init()
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	bookingRepo := booking.NewRepository(db)
	if err := bookingRepo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate appointment tables")
	}
	billingRepo := billing.NewRepository(db)
	if err := billingRepo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate payment tables")
	}
	recordsRepo := records.NewRepository(db)
	if err := recordsRepo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate medical record tables")
	}

	cache := database.GetRedis()
	directoryRepo := directory.NewRepository(db)
	directoryService := directory.NewService(directoryRepo, cache, cfg.DashboardCacheTTL)

	bookingProducer := kafka.NewProducer(kafka.TopicBookingEvents)
	billingProducer := kafka.NewProducer(kafka.TopicBillingEvents)

	billingService := billing.NewService(billingRepo, billingProducer, nil)
	bookingService := booking.NewService(bookingRepo, billingService, billingRepo, directoryService, bookingProducer, cache, booking.ServiceOptions{
		CheckDoctorAvailability: cfg.CheckDoctorAvailability,
		DashboardCacheTTL:       cfg.DashboardCacheTTL,
	})
	billingService.SetAppointmentResolver(bookingService)
	recordsService := records.NewService(recordsRepo)

	tokens, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTTTL)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to configure session tokens")
	}

	bookingHandler := booking.NewHandler(bookingService, directoryService)
	billingHandler := billing.NewHandler(billingService, directoryService)
	recordsHandler := records.NewHandler(recordsService, directoryService)

	router := mux.NewRouter()
	router.Use(auth.Logging, auth.Recovery)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)
	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(auth.Authenticate(tokens))
	bookingHandler.Register(api)
	billingHandler.Register(api)
	recordsHandler.Register(api)

	address := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.BookingServicePort)
	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithField("addr", address).Info("Booking service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start booking service")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down booking service...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("Booking service forced to shutdown")
	}
	if err := bookingProducer.Close(); err != nil {
		logger.Log.WithError(err).Error("failed to close booking producer")
	}
	if err := billingProducer.Close(); err != nil {
		logger.Log.WithError(err).Error("failed to close billing producer")
	}
	if err := database.CloseRedis(); err != nil {
		logger.Log.WithError(err).Error("failed to close redis")
	}
	if err := database.ClosePostgres(); err != nil {
		logger.Log.WithError(err).Error("failed to close postgres")
	}
	logger.Log.Info("Booking service stopped")
}
