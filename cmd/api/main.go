package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tamatar-api/internal/cache"
	"tamatar-api/internal/chart"
	"tamatar-api/internal/generate"
	"tamatar-api/internal/handlers"
	"tamatar-api/internal/httpserver"
	"tamatar-api/internal/mealstore"
	"tamatar-api/internal/metrics"
	"tamatar-api/internal/nutrition"
	"tamatar-api/pkg/logging"
)

type Config struct {
	Port         string
	CacheBackend string // "memory" or "redis"
	RedisAddr    string
	CacheTTL     time.Duration
	SweepEvery   time.Duration

	DataDir      string
	SQLitePath   string
	NutritionCSV string

	MatchThreshold int

	OpenAIBaseURL   string
	OpenAIAPIKey    string
	OpenAIModel     string
	StabilityAPIKey string
	StabilityEngine string
}

func LoadConfig() Config {
	dataDir := getenv("DATA_DIR", "data")
	return Config{
		Port:         getenv("PORT", "8000"),
		CacheBackend: getenv("CACHE_BACKEND", "memory"),
		RedisAddr:    getenv("REDIS_ADDR", "127.0.0.1:6379"),
		CacheTTL:     getenvDuration("CACHE_TTL", 24*time.Hour),
		SweepEvery:   getenvDuration("CACHE_SWEEP_INTERVAL", time.Hour),

		DataDir:      dataDir,
		SQLitePath:   getenv("SQLITE_PATH", filepath.Join(dataDir, "tamatar.db")),
		NutritionCSV: getenv("NUTRITION_CSV", filepath.Join(dataDir, "nutrition_lookup.csv")),

		MatchThreshold: getenvInt("MATCH_THRESHOLD", 0),

		OpenAIBaseURL:   getenv("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     getenv("OPENAI_MODEL", "gpt-4o-mini"),
		StabilityAPIKey: os.Getenv("STABILITY_API_KEY"),
		StabilityEngine: getenv("STABILITY_ENGINE", "stable-diffusion-2"),
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("api exited with error: %v", err)
	}
}

func run() error {
	// .env is optional; real env vars win either way
	_ = godotenv.Load()

	// ----- Logger -----
	logger := logging.DefaultLogger()
	defer logger.Sync()

	// ----- Metrics -----
	metrics.Register()

	// ----- Config -----
	cfg := LoadConfig()

	logger.Info("loaded config",
		zap.String("port", cfg.Port),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.String("data_dir", cfg.DataDir),
		zap.Bool("openai_configured", cfg.OpenAIAPIKey != ""),
		zap.Bool("stability_configured", cfg.StabilityAPIKey != ""),
	)

	imagesDir := filepath.Join(cfg.DataDir, "images")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return err
	}

	// ----- Redis client (only if needed) -----
	var redisClient *redis.Client
	if cfg.CacheBackend == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})

		// Fail fast if Redis is misconfigured
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Error("redis connection failed", zap.Error(err))
			return err
		}
		logger.Info("redis connection established",
			zap.String("addr", cfg.RedisAddr),
		)
	}

	// ----- Content cache -----
	store := cache.NewStore(cache.Config{
		Backend: cfg.CacheBackend,
		Prefix:  "tamatar",
	}, redisClient)
	store = cache.NewLoggingStore(store)
	contentCache := cache.New(store, cfg.CacheTTL)

	// ----- Nutrition resolver -----
	resolver := nutrition.NewResolver(cfg.NutritionCSV, logger)

	// ----- Meal store -----
	meals, err := mealstore.New(cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer meals.Close()

	// ----- Generators (each optional, fallbacks cover the rest) -----
	var textGen generate.TextGenerator
	if cfg.OpenAIAPIKey != "" {
		client, err := generate.NewOpenAIClient(generate.OpenAIConfig{
			BaseURL: cfg.OpenAIBaseURL,
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
		}, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		textGen = client
	} else {
		logger.Warn("OPENAI_API_KEY not set, captions served from static fallbacks")
	}

	var imageGen generate.ImageGenerator
	if cfg.StabilityAPIKey != "" {
		client, err := generate.NewStabilityClient(generate.StabilityConfig{
			APIKey:    cfg.StabilityAPIKey,
			Engine:    cfg.StabilityEngine,
			ImagesDir: imagesDir,
		}, logger)
		if err != nil {
			return err
		}
		imageGen = client
	} else {
		logger.Warn("STABILITY_API_KEY not set, serving placeholder images")
	}

	gen := generate.NewManager(textGen, imageGen, logger)

	// ----- Chart renderer -----
	renderer, err := chart.NewRenderer(imagesDir, "/data/images", logger)
	if err != nil {
		return err
	}

	// ----- Handlers -----
	h := handlers.New(resolver, contentCache, gen, meals, renderer)
	h.MatchThreshold = cfg.MatchThreshold

	// ----- Router + middleware -----
	r := chi.NewRouter()
	httpserver.SetupRouter(r, logger, h, imagesDir)

	// ----- Periodic cache sweep -----
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go func() {
		ticker := time.NewTicker(cfg.SweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				removed := contentCache.SweepExpired(logging.WithLogger(sweepCtx, logger))
				if removed > 0 {
					logger.Info("expired cache entries swept", zap.Int("removed", removed))
				}
			}
		}
	}()

	// ----- HTTP server -----
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("starting api",
		zap.String("addr", srv.Addr),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.Int("reference_dishes", resolver.Len()),
	)

	// Start server in background
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	// ----- Graceful shutdown -----
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return err
	}

	logger.Info("server shutdown complete")
	return nil
}

// getenv returns the value of the environment variable key or def if not set.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
