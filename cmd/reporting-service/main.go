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
	"github.com/caresuite/platform/pkg/common/config"
	"github.com/caresuite/platform/pkg/common/database"
	"github.com/caresuite/platform/pkg/common/kafka"
	"github.com/caresuite/platform/pkg/common/logger"
	"github.com/caresuite/platform/pkg/common/models"
	"github.com/caresuite/platform/pkg/reports"
	"github.com/gorilla/mux"
)

func main() {
	logger.Init()
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	cache := database.GetRedis()
	repo := reports.NewRepository(db)
	aggregator := reports.NewRevenueAggregator(cache)

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	consumer := kafka.NewConsumer(kafka.TopicBillingEvents, "caresuite-reporting")
	go func() {
		if err := consumer.Consume(consumerCtx, aggregator.HandleEvent); err != nil && err != context.Canceled {
			logger.Log.WithError(err).Error("billing event consumer stopped")
		}
	}()

	tokens, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTTTL)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to configure session tokens")
	}

	handler := reports.NewHandler(repo, aggregator)

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
	api.Use(auth.Authenticate(tokens), auth.RequireRole(models.RoleAdmin))
	handler.Register(api)

	address := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ReportingServicePort)
	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithField("addr", address).Info("Reporting service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start reporting service")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down reporting service...")
	stopConsumer()
	if err := consumer.Close(); err != nil {
		logger.Log.WithError(err).Error("failed to close consumer")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("Reporting service forced to shutdown")
	}
	if err := database.CloseRedis(); err != nil {
		logger.Log.WithError(err).Error("failed to close redis")
	}
	if err := database.ClosePostgres(); err != nil {
		logger.Log.WithError(err).Error("failed to close postgres")
	}
	logger.Log.Info("Reporting service stopped")
}
