package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"server/internal/adapter/repo"
	"server/internal/http/handlers"
	"server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/infra/credentials"
	"server/internal/infra/geoip"
	"server/internal/intent"
	"server/internal/orchestrator"
	"server/internal/provider"
	"server/internal/provider/google"
	qwenprovider "server/internal/provider/qwen"
	"server/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to connect database")
	}
	defer pool.Close()

	store, err := newFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure storage")
	}

	resolveCredentials(ctx, cfg, pool, logger)

	registry, err := buildRegistry(cfg, store, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure providers")
	}

	geo, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("api: geoip disabled")
	}

	tasks := repo.NewTaskRepository(pool)
	assets := repo.NewAssetRepository(pool)
	stats := repo.NewStatsRepository(pool)

	orch := orchestrator.New(orchestrator.Options{
		Extractor: intent.NewExtractor(intent.ExtractorOptions{
			APIKey:      cfg.NLU.APIKey,
			BaseURL:     cfg.NLU.BaseURL,
			Model:       cfg.NLU.Model,
			Temperature: cfg.NLU.Temperature,
			Logger:      logger,
		}),
		FallbackEnabled: cfg.NLU.FallbackEnabled,
		ModelDefaults: intent.ModelDefaults{
			ImageModel: cfg.Image.Model,
			VideoModel: cfg.Video.Model,
			AudioModel: cfg.Audio.Model,
		},
		Registry: registry,
		Tasks:    tasks,
		Assets:   assets,
		Stats:    stats,
		Geo:      geo,
		Logger:   logger,
	})

	app := &handlers.App{
		Orch:           orch,
		Assets:         assets,
		Stats:          stats,
		Registry:       registry,
		Store:          store,
		StorageBaseURL: cfg.StorageBaseURL,
		Logger:         logger,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		RateLimitPerMin: cfg.RateLimitPerMin,
		AllowedOrigins:  cfg.AllowedOrigins,
		StaticDir:       store.BasePath(),
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Msg("api: listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("api: http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: failed to shutdown server")
	}
	logger.Info().Msg("api: stopped")
}

func newFileStore(storagePath string) (*storage.FileStore, error) {
	if storagePath == "" {
		storagePath = "./storage"
	}
	if !filepath.IsAbs(storagePath) {
		if abs, err := filepath.Abs(storagePath); err == nil {
			storagePath = abs
		}
	}
	return storage.NewFileStore(storagePath)
}

// resolveCredentials fills missing provider keys from the integration token
// store so that keys rotated via the CLI take effect without redeploying.
func resolveCredentials(ctx context.Context, cfg *infra.Config, pool infra.SQLExecutor, logger infra.Logger) {
	credStore := credentials.NewStore(pool)
	if cfg.Google.APIKey == "" {
		if key, err := credStore.GoogleAPIKey(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to load google api key from store")
		} else if key != "" {
			cfg.Google.APIKey = key
		}
	}
	if cfg.NLU.APIKey == "" {
		if key, err := credStore.Token(ctx, credentials.ProviderNLU); err != nil {
			logger.Warn().Err(err).Msg("failed to load nlu api key from store")
		} else if key != "" {
			cfg.NLU.APIKey = key
		}
	}
	if cfg.Qwen.APIKey == "" {
		if key, err := credStore.Token(ctx, credentials.ProviderQwen); err != nil {
			logger.Warn().Err(err).Msg("failed to load qwen api key from store")
		} else if key != "" {
			cfg.Qwen.APIKey = key
		}
	}
}

func buildRegistry(cfg *infra.Config, store *storage.FileStore, logger infra.Logger) (*provider.Registry, error) {
	client, err := google.NewClient(google.ClientOptions{
		APIKey:   cfg.Google.APIKey,
		BaseURL:  cfg.Google.BaseURL,
		ProxyURL: cfg.Google.ProxyURL,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	poller := provider.NewPoller(logger)
	active := provider.ActiveProviders{
		Image: cfg.Image.ActiveProvider,
		Video: cfg.Video.ActiveProvider,
		Audio: cfg.Audio.ActiveProvider,
	}
	return provider.NewRegistry(active, logger,
		google.NewImageProvider(client, cfg.Google, cfg.Image, store, cfg.StorageBaseURL, logger),
		qwenprovider.NewImageProvider(cfg.Qwen, store, cfg.StorageBaseURL, nil, logger),
		google.NewVideoProvider(client, cfg.Google, cfg.Video, store, poller, cfg.StorageBaseURL, logger),
		google.NewAudioProvider(client, cfg.Google, cfg.Audio, store, cfg.StorageBaseURL, logger),
	), nil
}
