package main

import (
	"fmt"
	"log"
	"net/http"

	"leadrelay/internal/api"
	"leadrelay/internal/api/handlers"
	"leadrelay/internal/api/middleware"
	"leadrelay/internal/engine/kommo"
	"leadrelay/internal/engine/mapping"
	"leadrelay/internal/engine/sinks"
	"leadrelay/internal/pkg/logger"
	"leadrelay/internal/platform/config"
	"leadrelay/internal/platform/database"
	"leadrelay/internal/platform/repositories"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.NewDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Repositories
	sourceRepo := repositories.NewSourceRepository(db)
	mappingRepo := repositories.NewMappingRepository(db)
	logRepo := repositories.NewRequestLogRepository(db)
	configRepo := repositories.NewConfigRepository(db)

	// Kommo CRM
	httpClient := &http.Client{Timeout: cfg.Kommo.RequestTimeout}
	tokenManager := kommo.NewTokenManager(configRepo, httpClient,
		cfg.Kommo.BaseURL, cfg.Kommo.ClientID, cfg.Kommo.ClientSecret, cfg.Kommo.TokenSafetyMargin)
	crmClient := kommo.NewClient(tokenManager, httpClient, cfg.Kommo.BaseURL)

	// Best-effort secondary sinks
	var enabledSinks []sinks.Sink
	if cfg.Sinks.Notion.Enabled {
		enabledSinks = append(enabledSinks,
			sinks.NewNotionSink(nil, cfg.Sinks.Notion.Token, cfg.Sinks.Notion.DatabaseID))
	}
	if cfg.Sinks.Conversion.Enabled {
		enabledSinks = append(enabledSinks,
			sinks.NewConversionSink(nil, cfg.Sinks.Conversion.URL, cfg.Sinks.Conversion.AccessToken, cfg.Sinks.Conversion.EventName))
	}
	dispatcher := sinks.NewDispatcher(enabledSinks...)

	mapper := mapping.NewMapper(cfg.Kommo.SentinelTag)

	// Handlers
	ingestHandler := handlers.NewIngestHandler(sourceRepo, mappingRepo, logRepo, mapper, crmClient, dispatcher)
	sourceHandler := handlers.NewSourceHandler(sourceRepo)
	mappingHandler := handlers.NewMappingHandler(sourceRepo, mappingRepo)
	logHandler := handlers.NewLogHandler(logRepo)
	tokenHandler := handlers.NewTokenHandler(configRepo)
	healthHandler := handlers.NewHealthHandler(db)

	adminAuth := middleware.NewAdminAuth(cfg.Admin.APISecret)

	deps := &api.Dependencies{
		IngestHandler:  ingestHandler,
		SourceHandler:  sourceHandler,
		MappingHandler: mappingHandler,
		LogHandler:     logHandler,
		TokenHandler:   tokenHandler,
		HealthHandler:  healthHandler,
		AdminAuth:      adminAuth,
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Printf("Server starting on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
