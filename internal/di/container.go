package di

import (
	"context"
	"fmt"

	"sql-agent/internal/adapter/tool"
	"sql-agent/internal/application/port/output"
	"sql-agent/internal/application/service"
	"sql-agent/internal/application/usecase"
	"sql-agent/internal/infrastructure/db"
	"sql-agent/internal/infrastructure/llm/openrouter"
	"sql-agent/internal/infrastructure/logger"
	"sql-agent/internal/infrastructure/prompts"
	"sql-agent/internal/usecase/evaluator"
)

type Container struct {
	Logger    output.LoggerPort
	Store     *db.Store
	LLM       output.LLMPort
	Tools     output.ToolRegistry
	Generator *usecase.GenerateSQLUseCase
	Evaluator *evaluator.Evaluator
}

type Config struct {
	OpenRouterAPIKey string
	OpenRouterModel  string
	BaseURL          string
	DatabasePath     string
	SQLDir           string
	SystemPrompt     string
	MaxIterations    int
}

func NewContainer(ctx context.Context, cfg Config) (*Container, error) {
	log, err := logger.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := db.NewStore(db.Config{DSN: cfg.DatabasePath, BaseDir: cfg.SQLDir}, log)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	llmCfg := openrouter.DefaultConfig(cfg.OpenRouterAPIKey, cfg.OpenRouterModel)
	if cfg.BaseURL != "" {
		llmCfg.BaseURL = cfg.BaseURL
	}
	llmCfg.Logger = log
	llm := openrouter.NewOpenRouterAdapter(llmCfg)

	tools := service.NewToolRegistry()
	if err := registerSQLTools(tools, store, log); err != nil {
		store.Close()
		log.Close()
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = prompts.DefaultSystemPrompt
	}

	generator := usecase.NewGenerateSQLUseCase(llm, tools, log, usecase.Config{
		SystemPrompt:  systemPrompt,
		MaxIterations: cfg.MaxIterations,
	})

	judge := evaluator.NewJudge(llm, log)
	eval := evaluator.New(judge, log, evaluator.DefaultConfig())

	return &Container{
		Logger:    log,
		Store:     store,
		LLM:       llm,
		Tools:     tools,
		Generator: generator,
		Evaluator: eval,
	}, nil
}

func (c *Container) Close() {
	if c.Store != nil {
		c.Store.Close()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}

func registerSQLTools(registry *service.ToolRegistryImpl, store *db.Store, log output.LoggerPort) error {
	for _, t := range []output.ToolPort{
		tool.NewTablesTool(store, log),
		tool.NewSchemaTool(store, log),
		tool.NewQueryTool(store, log),
	} {
		if err := registry.Register(t); err != nil {
			return err
		}
	}
	return nil
}
