package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/wayfarer-ai/planner/internal/api/handlers"
	"github.com/wayfarer-ai/planner/internal/api/routes"
	"github.com/wayfarer-ai/planner/internal/audit"
	"github.com/wayfarer-ai/planner/internal/auth"
	"github.com/wayfarer-ai/planner/internal/cache"
	"github.com/wayfarer-ai/planner/internal/config"
	"github.com/wayfarer-ai/planner/internal/database"
	"github.com/wayfarer-ai/planner/internal/llm/providers"
	"github.com/wayfarer-ai/planner/internal/metrics"
	"github.com/wayfarer-ai/planner/internal/orchestrator"
	"github.com/wayfarer-ai/planner/internal/ratelimit"
	"github.com/wayfarer-ai/planner/internal/retrieval"
	"github.com/wayfarer-ai/planner/internal/session"
	"github.com/wayfarer-ai/planner/pkg/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	shutdownTracing, err := observability.InitTracing("wayfarer-planner", cfg.Environment)
	if err != nil {
		log.Fatalf("init tracing: %v", err)
	}
	defer shutdownTracing()

	pool, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	defer pool.Close()

	ctx := context.Background()
	if err := session.Migrate(ctx, pool); err != nil {
		log.Fatalf("run migrations: %v", err)
	}
	store := session.New(pool)

	redisCache, err := cache.NewCache(cache.Config{
		Host:     redisHost(cfg.RedisAddr),
		Port:     redisPort(cfg.RedisAddr),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Printf("redis cache unavailable, continuing L1-only: %v", err)
		redisCache = nil
	} else {
		defer redisCache.Close()
	}

	llmProvider, err := initLLMProvider(cfg)
	if err != nil {
		log.Printf("no LLM provider configured: %v", err)
	}

	deps, err := initOrchestratorDependencies(cfg, llmProvider, redisCache)
	if err != nil {
		log.Fatalf("init orchestrator dependencies: %v", err)
	}

	auditStorage := audit.NewRingStorage(500)
	auditLogger := audit.NewLogger(auditStorage)
	auditLogger.Start()
	defer auditLogger.Stop()

	metricsCollector := metrics.NewMetricsCollector()
	limiter := newRateLimiter(cfg, redisCache)
	tokenManager := auth.NewTokenManager(cfg.APIBearerToken, "wayfarer-planner")

	h := routes.Handlers{
		Plan:        handlers.NewPlanHandler(deps, store, auditLogger, metricsCollector),
		Session:     handlers.NewSessionHandler(store),
		Export:      handlers.NewExportHandler(store),
		Diagnostics: handlers.NewDiagnosticsHandler(metricsCollector, auditLogger, redisCache),
		Health:      handlers.NewHealthHandler(deps),
	}

	app := fiber.New(fiber.Config{
		AppName:      "wayfarer-planner",
		ReadTimeout:  cfg.RequestDeadline + 5*time.Second,
		WriteTimeout: cfg.RequestDeadline + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New())

	routes.Setup(app, h, limiter, tokenManager, cfg.AllowUnauthenticated)

	go func() {
		addr := ":" + strconv.Itoa(cfg.Port)
		log.Printf("wayfarer-planner listening on %s", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	log.Println("exited")
}

// initDatabase parses cfg.DatabaseURL (a postgres:// DSN) into the
// discrete fields database.NewPool expects.
func initDatabase(cfg *config.Config) (*database.Pool, error) {
	u, err := url.Parse(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	host := u.Hostname()
	port, _ := strconv.Atoi(u.Port())
	if port == 0 {
		port = 5432
	}
	password, _ := u.User.Password()
	dbName := u.Path
	if len(dbName) > 0 && dbName[0] == '/' {
		dbName = dbName[1:]
	}
	sslMode := u.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	return database.NewPool(database.Config{
		Host:     host,
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   dbName,
		SSLMode:  sslMode,
	})
}

func redisHost(addr string) string {
	if host, _, err := splitHostPort(addr); err == nil {
		return host
	}
	return addr
}

func redisPort(addr string) int {
	if _, port, err := splitHostPort(addr); err == nil {
		if p, err := strconv.Atoi(port); err == nil {
			return p
		}
	}
	return 6379
}

func splitHostPort(addr string) (string, string, error) {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i], addr[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("no port in address %q", addr)
}

// initLLMProvider builds the first provider in cfg.LLMProviderOrder
// that has credentials configured, per the Design Notes' provider
// fallback ordering.
func initLLMProvider(cfg *config.Config) (providers.LLMProvider, error) {
	factory := providers.NewProviderFactory()

	for _, name := range cfg.LLMProviderOrder {
		llmCfg := &providers.LLMConfig{Provider: name, Timeout: cfg.LLMCallTimeout}
		switch name {
		case "openai":
			if cfg.OpenAIAPIKey == "" {
				continue
			}
			llmCfg.APIKey = cfg.OpenAIAPIKey
			llmCfg.Model = "gpt-4o-mini"
		case "anthropic":
			if cfg.AnthropicAPIKey == "" {
				continue
			}
			llmCfg.APIKey = cfg.AnthropicAPIKey
			llmCfg.Model = "claude-3-5-sonnet-20241022"
		case "ollama":
			llmCfg.BaseURL = cfg.OllamaBaseURL
			llmCfg.Model = "llama3.2"
		default:
			continue
		}

		provider, err := factory.CreateProvider(llmCfg)
		if err != nil {
			log.Printf("llm provider %s unavailable: %v", name, err)
			continue
		}
		return provider, nil
	}
	return nil, fmt.Errorf("no configured LLM provider had credentials")
}

// newRateLimiter prefers a Redis-backed limiter, shared across every
// planner-server replica, when Redis is reachable; falls back to the
// in-process token bucket (per-replica only) otherwise.
func newRateLimiter(cfg *config.Config, redisCache *cache.Cache) ratelimit.Allower {
	if redisCache == nil {
		return ratelimit.New(cfg.RateLimitMax, cfg.RateLimitWindow)
	}
	return ratelimit.NewRedis(cache.NewCacheManager(redisCache), cfg.RateLimitMax, cfg.RateLimitWindow)
}

// initOrchestratorDependencies builds retrieval.Sources per §4.4's
// curated/map/LLM fallback chain, wrapping whichever sources are
// configured with the shared Redis-backed tiered cache.
func initOrchestratorDependencies(cfg *config.Config, llmProvider providers.LLMProvider, redisCache *cache.Cache) (orchestrator.Dependencies, error) {
	factory := retrieval.NewFactory()

	curated, err := factory.Create(retrieval.VariantCurated, retrieval.FactoryConfig{})
	if err != nil {
		return orchestrator.Dependencies{}, fmt.Errorf("init curated provider: %w", err)
	}
	cachedCurated, err := retrieval.WrapWithCache(curated, redisCache)
	if err != nil {
		return orchestrator.Dependencies{}, fmt.Errorf("wrap curated provider: %w", err)
	}

	sources := retrieval.Sources{Curated: cachedCurated}

	if cfg.MapProviderAPIKey != "" {
		mapProvider, err := factory.Create(retrieval.VariantMapReal, retrieval.FactoryConfig{MapAPIKey: cfg.MapProviderAPIKey})
		if err != nil {
			log.Printf("map provider unavailable: %v", err)
		} else if cachedMap, err := retrieval.WrapWithCache(mapProvider, redisCache); err == nil {
			sources.Map = cachedMap
		}
	}

	if llmProvider != nil {
		llmSource, err := factory.Create(retrieval.VariantLLM, retrieval.FactoryConfig{LLMInner: llmProvider})
		if err != nil {
			log.Printf("llm retrieval fallback unavailable: %v", err)
		} else {
			sources.LLM = llmSource
		}
	}

	return orchestrator.Dependencies{
		Config:           cfg,
		LLM:              llmProvider,
		RetrievalSources: sources,
	}, nil
}
