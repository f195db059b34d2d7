package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"solum-sync-service/internal/api"
	"solum-sync-service/internal/config"
	"solum-sync-service/internal/logger"
	"solum-sync-service/internal/mapping"
	"solum-sync-service/internal/solum"
	"solum-sync-service/internal/spaces"
	"solum-sync-service/internal/store"
	"solum-sync-service/internal/sync"
)

func main() {
	// Load Config
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Init Logger
	if err := logger.InitLogger(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Log.Info("Starting SoluM sync service", zap.String("mode", cfg.Sync.Mode))

	// Init State Store
	var stateStore store.Store
	if cfg.StateStorage.Enabled {
		s, err := store.NewMySQLStore(cfg.StateStorage)
		if err != nil {
			logger.Log.Fatal("Failed to init state store", zap.Error(err))
		}
		defer s.Close()
		stateStore = s
	}

	// Init Token Store
	var tokenStore *store.TokenStore
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		tokenStore = store.NewTokenStore(store.NewRedisKV(rdb))
	}

	// Init Adapter
	adapter, err := buildAdapter(cfg, tokenStore)
	if err != nil {
		logger.Log.Fatal("Failed to init sync adapter", zap.Error(err))
	}

	// Init Registry (restore last persisted snapshot)
	registry := spaces.NewRegistry()
	if stateStore != nil {
		persisted, err := stateStore.LoadSpaces(context.Background())
		if err != nil {
			logger.Log.Warn("Failed to load persisted spaces", zap.Error(err))
		} else {
			registry.ReplaceAll(persisted, nil)
			logger.Log.Info("Restored persisted spaces", zap.Int("count", len(persisted)))
		}
	}

	// Init Sync Manager + Scheduler
	manager := sync.NewManager(adapter, registry, stateStore, cfg.Sync.Mode)
	scheduler := sync.NewScheduler(cfg.Scheduler, manager)
	scheduler.Start()

	// Init API
	handler := api.NewHandler(manager, cfg.Server.AuthToken)
	router := handler.Routes()

	// Start Server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.GetReadTimeout(),
		WriteTimeout: cfg.Server.GetWriteTimeout(),
	}

	go func() {
		logger.Log.Info("Server listening", zap.String("addr", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down server...")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Log.Error("Server shutdown failed", zap.Error(err))
	}
}

func buildAdapter(cfg *config.Config, tokenStore *store.TokenStore) (sync.Adapter, error) {
	switch cfg.Sync.Mode {
	case "solum":
		mappingCfg, err := config.LoadMappingConfig(cfg.Sync.MappingFile)
		if err != nil {
			return nil, err
		}
		client := solum.NewClient(cfg.Solum.BaseURL, cfg.Solum.StoreID, cfg.Solum.GetRequestTimeout(), logger.Log)
		mapper := mapping.NewMapper(mappingCfg)

		var persister sync.TokenPersister
		if tokenStore != nil {
			persister = tokenStore
		}
		adapter := sync.NewSolumAdapter(client, mapper, cfg.Solum, persister)
		if err := adapter.RestoreTokens(context.Background()); err != nil {
			logger.Log.Warn("Failed to restore tokens", zap.Error(err))
		}
		return adapter, nil

	case "csv":
		codec, err := mapping.NewCSVCodec(cfg.CSV.Columns)
		if err != nil {
			return nil, err
		}
		return sync.NewCSVAdapter(cfg.CSV, codec), nil

	default:
		return nil, fmt.Errorf("unknown sync mode %q", cfg.Sync.Mode)
	}
}
