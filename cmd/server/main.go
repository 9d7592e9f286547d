package main

import (
	"database/sql"
	"flag"
	"log"
	"net/http"

	httpapi "renthub-backend/internal/api/http"
	"renthub-backend/internal/config"
	"renthub-backend/internal/logger"
	"renthub-backend/internal/repository/postgres"
	"renthub-backend/internal/security"
	"renthub-backend/internal/service"
	"renthub-backend/internal/storage"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Local .env overrides, ignored when absent
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting RentHub Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	fieldCipher, err := security.NewCipher(cfg.Crypto.Passphrase, cfg.Crypto.Salt)
	if err != nil {
		logger.Error("Failed to initialize cipher", "error", err)
		log.Fatalf("Failed to initialize cipher: %v", err)
	}

	// Initialize Storage
	assetStore, err := storage.NewLocalAssetStore(cfg.Storage.BaseURL, cfg.Storage.UploadDir)
	if err != nil {
		logger.Error("Failed to initialize asset store", "error", err)
		log.Fatalf("Failed to initialize asset store: %v", err)
	}
	logger.Info("Using local asset store", "upload_dir", cfg.Storage.UploadDir)

	// Initialize Services
	registry := service.NewRegistry(store, &store.UnitOfWork, cfg, fieldCipher, assetStore)

	// Set up HTTP server
	router := httpapi.NewRouter(httpapi.Services{
		Orders:        registry.Orders,
		Discounts:     registry.Discounts,
		Extensions:    registry.Extensions,
		Contracts:     registry.Contracts,
		Loyalty:       registry.Loyalty,
		Notifications: registry.Notifications,
	}, tokenManager, cfg.Storage.UploadDir)

	logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
	if err := http.ListenAndServe(cfg.GetServerAddress(), router); err != nil {
		logger.Error("HTTP server error", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}
}
