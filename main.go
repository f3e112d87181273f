// Package main provides the main entry point for the Planeit group trip recommendation service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirphl/planeit/app/handlers"
	"github.com/amirphl/planeit/app/middleware"
	"github.com/amirphl/planeit/app/router"
	"github.com/amirphl/planeit/app/services"
	businessflow "github.com/amirphl/planeit/business_flow"
	"github.com/amirphl/planeit/config"
	"github.com/amirphl/planeit/logging"
	"github.com/amirphl/planeit/repository"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// bootTimeout bounds catalog seeding and the embedding backfill
const bootTimeout = 10 * time.Minute

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(cfg.Logging)
	defer func() { _ = logging.Close() }()

	logging.Info().
		Str("environment", cfg.Deployment.Environment).
		Str("version", cfg.Deployment.Version).
		Str("commit", cfg.Deployment.CommitHash).
		Str("build_time", cfg.Deployment.BuildTime).
		Msg("Starting Planeit application...")

	app, err := initializeApplication(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize application")
	}

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := app.router.Start(address); err != nil {
			logging.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-sigChan
	logging.Info().Msg("Shutting down gracefully...")

	for _, fn := range app.stopFuncs {
		fn()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Error during shutdown")
	}

	logging.Info().Msg("Server stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	if cfg.SlowQueryLog {
		gormCfg.Logger = gormlogger.New(
			&zerologWriter{},
			gormlogger.Config{SlowThreshold: cfg.SlowQueryTime, LogLevel: gormlogger.Warn, IgnoreRecordNotFoundError: true},
		)
	}

	db, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logging.Info().
		Int("max_open_conns", cfg.MaxOpenConns).
		Int("max_idle_conns", cfg.MaxIdleConns).
		Msg("Database connection established")

	return db, nil
}

// zerologWriter routes gorm's slow query log into the service logger
type zerologWriter struct{}

func (zerologWriter) Printf(format string, args ...any) {
	l := logging.Component("gorm")
	l.Warn().Msgf(format, args...)
}

// initializeCache initializes the Cache client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logging.Info().Int("db", cfg.RedisDB).Msg("Redis connection established")
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					logging.Warn().Err(err).Msg("Redis healthcheck failed")
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeCatalog seeds the destination table when empty, backfills missing
// embeddings if configured, and loads the in-memory ranking catalog.
func initializeCatalog(
	cfg *config.ProductionConfig,
	destinationRepo repository.DestinationRepository,
	embedder services.EmbeddingProvider,
) (*businessflow.Catalog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), bootTimeout)
	defer cancel()

	seeder := businessflow.NewCatalogSeeder(destinationRepo, embedder, cfg.Recommendation.SeedFile)

	seeded, err := seeder.Seed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to seed destinations: %w", err)
	}
	if seeded > 0 {
		logging.Info().Int("count", seeded).Msg("Seeded destination catalog")
	}

	if cfg.Embedding.BackfillOnBoot {
		filled, err := seeder.BackfillEmbeddings(ctx)
		if err != nil {
			// A partial backfill still leaves a usable catalog
			logging.Error().Err(err).Int("filled", filled).Msg("Destination embedding backfill incomplete")
		} else if filled > 0 {
			logging.Info().Int("count", filled).Msg("Backfilled destination embeddings")
		}
	}

	catalog, err := businessflow.LoadCatalog(ctx, destinationRepo)
	if err != nil {
		return nil, fmt.Errorf("failed to load destination catalog: %w", err)
	}
	if !catalog.Ready() {
		logging.Warn().Msg("Destination catalog has no embeddings; preference submission is disabled")
	}
	logging.Info().Int("destinations", catalog.Len()).Msg("Destination catalog loaded")

	return catalog, nil
}

// initializePhotoProvider wraps Pexels with the Redis lookup cache when Redis is available
func initializePhotoProvider(cfg *config.ProductionConfig, rc *redis.Client) services.PhotoProvider {
	pexels := services.NewPexelsPhotoProvider(&cfg.Photos)
	if rc == nil {
		return pexels
	}
	return services.NewCachedPhotoProvider(pexels, services.NewRedisPhotoCache(rc, cfg.Cache.RedisPrefix), cfg.Cache.PhotoTTL)
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		stopMonitor := startCacheHealthMonitor(context.Background(), rc, cfg.Cache.HealthInterval)
		stopFuncs = append(stopFuncs, stopMonitor)
	}

	// Initialize repositories
	destinationRepo := repository.NewDestinationRepository(db)
	planRepo := repository.NewPlanRepository(db)
	memberRepo := repository.NewPlanMemberRepository(db)
	suggestionRepo := repository.NewSuggestedDestinationRepository(db)
	tx := repository.NewTransactor(db)

	// Initialize services
	embedder := services.NewEmbeddingProvider(&cfg.Embedding)
	fares := services.NewAmadeusFareProvider(&cfg.Fares)
	photos := initializePhotoProvider(cfg, rc)

	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	catalog, err := initializeCatalog(cfg, destinationRepo, embedder)
	if err != nil {
		return nil, err
	}

	// Initialize business flows
	rec := &cfg.Recommendation
	planFlow := businessflow.NewPlanFlow(planRepo, memberRepo, tx)
	preferenceFlow := businessflow.NewPreferenceFlow(planRepo, memberRepo, embedder, catalog, rec.TopN)
	materializer := businessflow.NewSuggestionMaterializer(planRepo, memberRepo, suggestionRepo, tx, catalog, photos, rc, &cfg.Cache, rec)
	assembler := businessflow.NewEnrichmentAssembler(photos, fares, rec.EnrichmentConcurrency, rec.ProviderCallTimeout)
	suggestionFlow := businessflow.NewSuggestionFlow(planRepo, memberRepo, materializer, assembler)
	voteFlow := businessflow.NewVoteFlow(planRepo, memberRepo, suggestionRepo, destinationRepo, tx, rec.PodiumSize)
	resultsFlow := businessflow.NewResultsFlow(planRepo, memberRepo, suggestionRepo)
	photoFlow := businessflow.NewPhotoFlow(photos)

	// Initialize handlers
	h := router.Handlers{
		Plan:       handlers.NewPlanHandler(planFlow),
		Preference: handlers.NewPreferenceHandler(preferenceFlow),
		Suggestion: handlers.NewSuggestionHandler(suggestionFlow, voteFlow, resultsFlow),
		Utils:      handlers.NewUtilsHandler(photoFlow),
	}

	authMiddleware := middleware.NewAuthMiddleware(tokenService)
	appRouter := router.NewFiberRouter(cfg, h, authMiddleware)

	return &Application{
		router:    appRouter,
		config:    cfg,
		server:    appRouter.GetApp(),
		stopFuncs: stopFuncs,
	}, nil
}
