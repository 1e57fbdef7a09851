package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"wisentia/internal/adapter/repo"
	"wisentia/internal/approval"
	"wisentia/internal/executor"
	"wisentia/internal/generate"
	"wisentia/internal/http/handlers"
	"wisentia/internal/http/httpapi"
	"wisentia/internal/infra"
	"wisentia/internal/infra/geoip"
	"wisentia/internal/llm"
	"wisentia/internal/middleware"
	"wisentia/internal/migrations"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	if cfg.AutoMigrate {
		if err := migrate(ctx, cfg); err != nil {
			logger.Fatal().Err(err).Msg("migrations failed")
		}
		logger.Info().Msg("migrations applied")
	}

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	jobs := repo.NewJobRepo(runner)
	catalog := repo.NewCatalogRepo(runner)
	quizzes := repo.NewQuizRepo(runner)
	quests := repo.NewQuestRepo(runner)

	gateway := newGateway(cfg, logger)
	approver := approval.NewService(jobs, catalog, quizzes, quests, nil, logger)

	// The API carries a runner for the manual process-next trigger; the
	// standing pool lives in cmd/worker.
	tuning := generate.Tuning{MaxTokens: cfg.LLMMaxTokens, Timeout: cfg.LLMTimeout}
	runnerExec := executor.New(executor.Options{
		Jobs:     jobs,
		Catalog:  catalog,
		Quiz:     generate.NewQuizGenerator(gateway, tuning, logger),
		Quest:    generate.NewQuestGenerator(gateway, tuning, logger),
		Approver: approver,
		Logger:   logger,
		LeaseTTL: cfg.JobLeaseTTL,
	})

	var localeLookup middleware.LocaleLookup
	geo, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if geo != nil {
		defer geo.Close()
		localeLookup = geo.Locale
	}

	app := handlers.NewApp(jobs, approver, runnerExec, logger)
	router := httpapi.NewRouter(app, httpapi.Options{
		AdminJWTSecret:  cfg.AdminJWTSecret,
		DefaultLocale:   cfg.DefaultLocale,
		LocaleLookup:    localeLookup,
		RateLimitPerMin: cfg.RateLimitPerMin,
		CORSOrigins:     cfg.CORSOrigins,
		Logger:          logger,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func newGateway(cfg *infra.Config, logger infra.Logger) *llm.Gateway {
	// No client-level timeout; the gateway sets a per-attempt context
	// deadline that grows on retries.
	httpClient := &http.Client{}
	primary := llm.NewOpenAIBackend(llm.OpenAIOptions{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		HTTPClient: httpClient,
	})
	var secondary llm.Backend
	if cfg.OllamaBaseURL != "" {
		secondary = llm.NewOllamaBackend(cfg.OllamaBaseURL, httpClient)
	}
	return llm.NewGateway(llm.GatewayOptions{
		Primary:        primary,
		PrimaryModel:   cfg.OpenAIModel,
		BackupModel:    cfg.OpenAIBackupModel,
		Secondary:      secondary,
		SecondaryModel: cfg.OllamaModel,
		Logger:         logger,
	})
}

func migrate(ctx context.Context, cfg *infra.Config) error {
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	return migrations.Up(ctx, db)
}
