package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"wisentia/internal/adapter/repo"
	"wisentia/internal/approval"
	"wisentia/internal/executor"
	"wisentia/internal/generate"
	"wisentia/internal/infra"
	"wisentia/internal/llm"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	jobs := repo.NewJobRepo(runner)
	catalog := repo.NewCatalogRepo(runner)
	quizzes := repo.NewQuizRepo(runner)
	quests := repo.NewQuestRepo(runner)

	// No client-level timeout; the gateway sets a per-attempt context
	// deadline that grows on retries.
	httpClient := &http.Client{}
	primary := llm.NewOpenAIBackend(llm.OpenAIOptions{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		HTTPClient: httpClient,
	})
	if !primary.Configured() {
		logger.Warn().Msg("worker: no hosted LLM credential, relying on self-hosted fallback")
	}
	var secondary llm.Backend
	if cfg.OllamaBaseURL != "" {
		secondary = llm.NewOllamaBackend(cfg.OllamaBaseURL, httpClient)
	}
	gateway := llm.NewGateway(llm.GatewayOptions{
		Primary:        primary,
		PrimaryModel:   cfg.OpenAIModel,
		BackupModel:    cfg.OpenAIBackupModel,
		Secondary:      secondary,
		SecondaryModel: cfg.OllamaModel,
		Logger:         logger,
	})

	approver := approval.NewService(jobs, catalog, quizzes, quests, nil, logger)

	tuning := generate.Tuning{MaxTokens: cfg.LLMMaxTokens, Timeout: cfg.LLMTimeout}
	exec := executor.New(executor.Options{
		Jobs:         jobs,
		Catalog:      catalog,
		Quiz:         generate.NewQuizGenerator(gateway, tuning, logger),
		Quest:        generate.NewQuestGenerator(gateway, tuning, logger),
		Approver:     approver,
		Logger:       logger,
		PoolSize:     cfg.WorkerPoolSize,
		PollInterval: cfg.WorkerPollInterval,
		LeaseTTL:     cfg.JobLeaseTTL,
		ReapInterval: cfg.LeaseReapInterval,
	})
	exec.Run(ctx)
}
