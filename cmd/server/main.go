package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"veritas/internal/auth"
	"veritas/internal/chatstore"
	"veritas/internal/config"
	"veritas/internal/debate"
	debconfig "veritas/internal/debate/config"
	"veritas/internal/evidence"
	evconfig "veritas/internal/evidence/config"
	"veritas/internal/evidence/cache"
	"veritas/internal/evidence/fetcher"
	"veritas/internal/evidence/summarizer"
	"veritas/internal/llm"
	"veritas/internal/llm/providers/anthropic"
	"veritas/internal/llm/providers/openrouter"
	"veritas/internal/memory"
	"veritas/internal/memory/retriever"
	"veritas/internal/memory/vectorstore"
	"veritas/internal/repository/postgres"
	apphttp "veritas/internal/transport/http"

	dllm "veritas/internal/domain/services/llm"
)

// summarizerInputCapBytes/summarizerTargetBytes bound the Summarizer's
// (C4) single Gateway call: cap the raw text fed in, target a short
// bullet list out.
const (
	summarizerInputCapBytes = config.SummarizerInputCapBytes
	summarizerTargetBytes   = config.SummarizerTargetBytes
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	ctx := context.Background()

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to create connection pool: %v", err)
	}
	defer pool.Close()
	logger.Info("database connected", "max_conns", 25, "min_conns", 5)

	// The vector store can live in a separate Postgres instance (e.g. a
	// managed pgvector add-on); fall back to the primary pool when
	// VECTOR_DB_PATH names the same database or is unset.
	vectorPool := pool
	if cfg.VectorDBPath != "" && cfg.VectorDBPath != cfg.DatabaseURL {
		vectorPool, err = postgres.CreateConnectionPool(ctx, cfg.VectorDBPath)
		if err != nil {
			log.Fatalf("failed to create vector store connection pool: %v", err)
		}
		defer vectorPool.Close()
	}

	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{Pool: pool, Tables: tables, Logger: logger}

	debateRepo := postgres.NewDebateRepository(repoConfig)
	turnRepo := postgres.NewTurnRepository(repoConfig)
	evidenceRepo := postgres.NewEvidenceRepository(repoConfig)
	chatStore := chatstore.NewPostgresStore(pool, tables.Chats, tables.ChatMessages)

	embedder := vectorstore.NewEmbedder(vectorstore.NewHashEmbedder(cfg.EmbeddingDim), cfg.EmbeddingDim, 250)
	vecStore := vectorstore.NewPostgresStore(vectorPool, embedder, tables.MemoryRecords)
	retr := retriever.New(vecStore, cfg.TopK)

	providers := buildProviders(cfg)
	if len(providers) == 0 {
		logger.Warn("no LLM provider credentials configured; every Gateway call will fail")
	}
	gateway := llm.NewGateway(providers, cfg.ProviderFirstToken())

	urlCache := cache.New(cfg.CachePath, cfg.CacheTTL(), logger)
	urlFetcher := fetcher.New(cfg.FetchTimeout())
	summ := summarizer.New(gateway, cfg.DefaultModel, summarizerInputCapBytes, summarizerTargetBytes)
	pipeline := evidence.NewPipeline(urlCache, urlFetcher, summ)

	authority, err := evconfig.LoadAuthorityTable()
	if err != nil {
		log.Fatalf("failed to load domain authority table: %v", err)
	}
	searchBackend := evidence.NewTavilyBackend(cfg.SearchAPIKey)
	gatherer := evidence.New(searchBackend, pipeline, authority, 0, cfg.MaxIOWorkers, logger)

	manager := memory.New(retr, vecStore, pipeline)

	rolePrompts, err := loadRolePrompts(cfg.RolePromptsPath)
	if err != nil {
		log.Fatalf("failed to load role prompts: %v", err)
	}

	registry := debate.NewRegistry()
	txManager := postgres.NewTransactionManager(pool, logger)
	orchestrator := debate.New(registry, gateway, gatherer, manager, rolePrompts, debateRepo, turnRepo, evidenceRepo, txManager, logger)

	logger.Info("services initialized")

	// The bearer-token session upgrade path only activates when an
	// operator configures JWKS_URL; a fetch failure at startup is fatal
	// rather than silently falling back, since a misconfigured JWKS_URL
	// is almost always a deployment mistake worth surfacing immediately.
	var sessionVerifier auth.Verifier
	if cfg.JWKSURL != "" {
		verifier, err := auth.NewJWKSVerifier(ctx, cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("failed to initialize JWKS verifier: %v", err)
		}
		sessionVerifier = verifier
	}

	// OCR/STT are external collaborators the spec treats as out of
	// scope (Non-goals); the handlers degrade to 503 when these are nil.
	app := apphttp.NewServer(&apphttp.Deps{
		Config:          cfg,
		Logger:          logger,
		Gateway:         gateway,
		Manager:         manager,
		Gatherer:        gatherer,
		RolePrompts:     rolePrompts,
		Registry:        registry,
		Orchestrator:    orchestrator,
		Chats:           chatStore,
		OCR:             nil,
		STT:             nil,
		SessionVerifier: sessionVerifier,
	})

	logger.Info("server listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

// buildProviders constructs one Provider adapter per entry in
// cfg.ProviderOrder that has credentials configured, preserving that
// order as the Gateway's failover preference (spec §4.2).
func buildProviders(cfg *config.Config) []dllm.Provider {
	credentialsFor := func(name string) []string {
		switch name {
		case "anthropic":
			return nonEmpty(cfg.AnthropicAPIKey, cfg.PrimaryCredentials)
		case "openrouter":
			return nonEmpty(cfg.OpenRouterAPIKey, cfg.SecondaryCredentials)
		default:
			return nil
		}
	}

	order := cfg.ProviderOrder
	if len(order) == 0 {
		order = []string{"anthropic", "openrouter"}
	}

	var providers []dllm.Provider
	for _, name := range order {
		keys := credentialsFor(name)
		if len(keys) == 0 {
			continue
		}
		switch name {
		case "anthropic":
			providers = append(providers, anthropic.New(keys))
		case "openrouter":
			providers = append(providers, openrouter.New(keys))
		}
	}
	return providers
}

// nonEmpty prefers a single explicit key over a shared credential pool,
// since ANTHROPIC_API_KEY/OPENROUTER_API_KEY name one provider's keys
// directly while PRIMARY_CREDENTIALS/SECONDARY_CREDENTIALS are a more
// generic rotation pool shared across the PROVIDER_ORDER slots.
func nonEmpty(single string, pool []string) []string {
	if single != "" {
		return []string{single}
	}
	return pool
}

func loadRolePrompts(path string) (*debconfig.RolePrompts, error) {
	if path != "" {
		return debconfig.LoadRolePromptsFile(path)
	}
	return debconfig.LoadRolePrompts()
}
