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
	"github.com/caresuite/platform/pkg/common/logger"
	"github.com/caresuite/platform/pkg/common/models"
	"github.com/caresuite/platform/pkg/directory"
	"github.com/gorilla/mux"
)

func main() {
	logger.Init()
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	repo := directory.NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate directory tables")
	}

	cache := database.GetRedis()
	service := directory.NewService(repo, cache, cfg.DashboardCacheTTL)

	ctx := context.Background()
	if catalog, err := directory.LoadCatalog(cfg.CatalogPath); err != nil {
		logger.Log.WithError(err).Warn("clinic catalog not loaded, specialties and locations will be empty")
	} else if err := service.SeedCatalog(ctx, catalog); err != nil {
		logger.Log.WithError(err).Fatal("failed to seed clinic catalog")
	}

	if err := service.EnsureDefaultAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword, cfg.AdminName); err != nil {
		logger.Log.WithError(err).Fatal("failed to ensure default admin")
	}

	tokens, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTTTL)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to configure session tokens")
	}

	var oidc *auth.OIDCAuthenticator
	if cfg.OIDCIssuer != "" {
		oidc, err = auth.NewOIDCAuthenticator(cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCClientSecret, cfg.OIDCRedirectURL)
		if err != nil {
			logger.Log.WithError(err).Fatal("failed to configure staff sso")
		}
	}

	handler := directory.NewHandler(service, tokens, oidc)

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

	public := router.PathPrefix("/api/v1").Subrouter()
	handler.RegisterPublic(public)

	authed := router.PathPrefix("/api/v1").Subrouter()
	authed.Use(auth.Authenticate(tokens))
	handler.RegisterAuthenticated(authed)

	admin := router.PathPrefix("/api/v1/admin").Subrouter()
	admin.Use(auth.Authenticate(tokens), auth.RequireRole(models.RoleAdmin))
	handler.RegisterAdmin(admin)

	address := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.DirectoryServicePort)
	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithField("addr", address).Info("Directory service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start directory service")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down directory service...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("Directory service forced to shutdown")
	}
	if err := database.CloseRedis(); err != nil {
		logger.Log.WithError(err).Error("failed to close redis")
	}
	if err := database.ClosePostgres(); err != nil {
		logger.Log.WithError(err).Error("failed to close postgres")
	}
	logger.Log.Info("Directory service stopped")
}
